package readings

import (
	"context"
	"time"

	"airhealth-cloud/internal/apperr"
)

// AQISample is one air-quality reading for a location. The series is
// global per location, not per user, and append-only.
type AQISample struct {
	ID         string    `json:"id"`
	City       string    `json:"city"`
	AQIValue   int       `json:"aqi_value"`
	PM25       float64   `json:"pm25"`
	PM10       float64   `json:"pm10"`
	CO         float64   `json:"co"`
	NO2        float64   `json:"no2"`
	O3         float64   `json:"o3"`
	CapturedAt time.Time `json:"captured_at"`
}

// Validate checks sample invariants.
func (s AQISample) Validate() error {
	if s.City == "" {
		return apperr.Validation("aqi: empty city")
	}
	if s.AQIValue < 0 {
		return apperr.Validation("aqi: negative aqi value %d", s.AQIValue)
	}
	for name, v := range map[string]float64{
		"pm25": s.PM25,
		"pm10": s.PM10,
		"co":   s.CO,
		"no2":  s.NO2,
		"o3":   s.O3,
	} {
		if v < 0 {
			return apperr.Validation("aqi: negative %s reading", name)
		}
	}
	if s.CapturedAt.IsZero() {
		return apperr.Validation("aqi: zero captured_at")
	}
	return nil
}

// AQIRepository persists and reads the per-location AQI series.
type AQIRepository interface {
	// Append stores a new sample.
	Append(ctx context.Context, sample AQISample) error
	// Latest returns the most recent sample for a city. A missing series
	// surfaces as a not-found error.
	Latest(ctx context.Context, city string) (*AQISample, error)
	// ListByCitySince returns samples captured at or after since, most
	// recent first.
	ListByCitySince(ctx context.Context, city string, since time.Time) ([]AQISample, error)
	// ListByCityRange returns samples within [start, end], ascending.
	ListByCityRange(ctx context.Context, city string, start, end time.Time) ([]AQISample, error)
}
