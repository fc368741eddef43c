package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	alerts "airhealth-cloud/internal/alerts/domain"
	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/monitoring/application"
	readingsmem "airhealth-cloud/internal/readings/infrastructure/memory"
	risk "airhealth-cloud/internal/risk/domain"
)

// Store is an in-memory submission store for demo wiring and tests. It
// also serves as the assessment and alert read repositories. Vitals land
// in the shared readings store so history reads see them.
type Store struct {
	mu          sync.RWMutex
	readings    *readingsmem.Store
	assessments map[string][]risk.Assessment
	alerts      map[string][]alerts.Alert
}

// NewStore constructs a store writing vitals into readings.
func NewStore(readings *readingsmem.Store) *Store {
	return &Store{
		readings:    readings,
		assessments: make(map[string][]risk.Assessment),
		alerts:      make(map[string][]alerts.Alert),
	}
}

// SaveSubmission persists a submission. Validation happens up front so a
// rejected submission leaves no partial state.
func (s *Store) SaveSubmission(ctx context.Context, submission application.Submission) error {
	if err := submission.Vitals.Validate(); err != nil {
		return err
	}
	if submission.Assessment.ID == "" {
		return apperr.Validation("submission store: assessment missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readings.AppendVitals(ctx, submission.Vitals); err != nil {
		return err
	}
	userID := submission.Assessment.UserID
	s.assessments[userID] = append(s.assessments[userID], submission.Assessment)
	if submission.Alert != nil {
		s.alerts[submission.Alert.UserID] = append(s.alerts[submission.Alert.UserID], *submission.Alert)
	}
	return nil
}

// ListByUser returns all assessments for the user, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]risk.Assessment, error) {
	_ = ctx
	if userID == "" {
		return nil, apperr.Validation("assessments: empty user id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]risk.Assessment, len(s.assessments[userID]))
	copy(out, s.assessments[userID])
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByUserRange returns assessments within [start, end], ascending.
func (s *Store) ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]risk.Assessment, error) {
	_ = ctx
	if userID == "" {
		return nil, apperr.Validation("assessments: empty user id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []risk.Assessment
	for _, assessment := range s.assessments[userID] {
		if assessment.CreatedAt.Before(start) || assessment.CreatedAt.After(end) {
			continue
		}
		out = append(out, assessment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListAlertsByUser returns all alerts for the user, most recent first.
func (s *Store) ListAlertsByUser(ctx context.Context, userID string) ([]alerts.Alert, error) {
	_ = ctx
	if userID == "" {
		return nil, apperr.Validation("alerts: empty user id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.Alert, len(s.alerts[userID]))
	copy(out, s.alerts[userID])
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAlertsSince returns alerts created at or after since, most recent first.
func (s *Store) ListAlertsSince(ctx context.Context, userID string, since time.Time) ([]alerts.Alert, error) {
	all, err := s.ListAlertsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []alerts.Alert
	for _, alert := range all {
		if alert.CreatedAt.Before(since) {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

// DeleteByUser removes every record the user owns.
func (s *Store) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readings.DeleteVitalsByUser(ctx, userID); err != nil {
		return err
	}
	delete(s.assessments, userID)
	delete(s.alerts, userID)
	return nil
}

// AlertReader adapts the store to the alerts repository interface.
type AlertReader struct {
	store *Store
}

// Alerts returns the alert repository view of the store.
func (s *Store) Alerts() *AlertReader {
	return &AlertReader{store: s}
}

// ListByUser returns all alerts for the user, most recent first.
func (r *AlertReader) ListByUser(ctx context.Context, userID string) ([]alerts.Alert, error) {
	return r.store.ListAlertsByUser(ctx, userID)
}

// ListSince returns alerts created at or after since, most recent first.
func (r *AlertReader) ListSince(ctx context.Context, userID string, since time.Time) ([]alerts.Alert, error) {
	return r.store.ListAlertsSince(ctx, userID, since)
}
