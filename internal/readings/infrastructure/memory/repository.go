package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

// Store is an in-memory reading store for demo wiring and tests. It
// implements both the vitals and AQI repository interfaces.
type Store struct {
	mu     sync.RWMutex
	vitals map[string][]readings.VitalsSample
	aqi    map[string][]readings.AQISample
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		vitals: make(map[string][]readings.VitalsSample),
		aqi:    make(map[string][]readings.AQISample),
	}
}

// AppendVitals stores a vitals sample.
func (s *Store) AppendVitals(ctx context.Context, sample readings.VitalsSample) error {
	_ = ctx
	if err := sample.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vitals[sample.UserID] = append(s.vitals[sample.UserID], sample)
	return nil
}

// ListByUser returns all samples for the user, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]readings.VitalsSample, error) {
	_ = ctx
	if userID == "" {
		return nil, apperr.Validation("vitals: empty user id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]readings.VitalsSample, len(s.vitals[userID]))
	copy(out, s.vitals[userID])
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	return out, nil
}

// ListByUserRange returns samples within [start, end], ascending.
func (s *Store) ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]readings.VitalsSample, error) {
	_ = ctx
	if userID == "" {
		return nil, apperr.Validation("vitals: empty user id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []readings.VitalsSample
	for _, sample := range s.vitals[userID] {
		if sample.CapturedAt.Before(start) || sample.CapturedAt.After(end) {
			continue
		}
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// DeleteVitalsByUser removes the full series for a user.
func (s *Store) DeleteVitalsByUser(ctx context.Context, userID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vitals, userID)
	return nil
}

// Append stores an AQI sample.
func (s *Store) Append(ctx context.Context, sample readings.AQISample) error {
	_ = ctx
	if err := sample.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aqi[sample.City] = append(s.aqi[sample.City], sample)
	return nil
}

// Latest returns the most recent sample for a city.
func (s *Store) Latest(ctx context.Context, city string) (*readings.AQISample, error) {
	_ = ctx
	if city == "" {
		return nil, apperr.Validation("aqi: empty city")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	series := s.aqi[city]
	if len(series) == 0 {
		return nil, apperr.NotFound("aqi: no samples for city %s", city)
	}
	latest := series[0]
	for _, sample := range series[1:] {
		if sample.CapturedAt.After(latest.CapturedAt) {
			latest = sample
		}
	}
	return &latest, nil
}

// ListByCitySince returns samples captured at or after since, most recent first.
func (s *Store) ListByCitySince(ctx context.Context, city string, since time.Time) ([]readings.AQISample, error) {
	_ = ctx
	if city == "" {
		return nil, apperr.Validation("aqi: empty city")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []readings.AQISample
	for _, sample := range s.aqi[city] {
		if sample.CapturedAt.Before(since) {
			continue
		}
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	return out, nil
}

// ListByCityRange returns samples within [start, end], ascending.
func (s *Store) ListByCityRange(ctx context.Context, city string, start, end time.Time) ([]readings.AQISample, error) {
	_ = ctx
	if city == "" {
		return nil, apperr.Validation("aqi: empty city")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []readings.AQISample
	for _, sample := range s.aqi[city] {
		if sample.CapturedAt.Before(start) || sample.CapturedAt.After(end) {
			continue
		}
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}
