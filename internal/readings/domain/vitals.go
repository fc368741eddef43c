package readings

import (
	"context"
	"time"

	"airhealth-cloud/internal/apperr"
)

// Plausible physiological ranges. Submissions outside these bounds are
// rejected before anything is persisted.
const (
	MinHeartRate  = 30
	MaxHeartRate  = 200
	MinSystolicBP = 60
	MaxSystolicBP = 250
	MinDiastolic  = 40
	MaxDiastolic  = 150
)

// VitalsSample is one cardiovascular reading for a user. Samples are
// immutable once created and form an append-only series per user.
type VitalsSample struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	HeartRate   int       `json:"heart_rate"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Validate checks sample invariants and plausible ranges.
func (s VitalsSample) Validate() error {
	if s.UserID == "" {
		return apperr.Validation("vitals: empty user id")
	}
	if s.HeartRate < MinHeartRate || s.HeartRate > MaxHeartRate {
		return apperr.Validation("vitals: heart rate %d outside plausible range %d-%d", s.HeartRate, MinHeartRate, MaxHeartRate)
	}
	if s.SystolicBP < MinSystolicBP || s.SystolicBP > MaxSystolicBP {
		return apperr.Validation("vitals: systolic BP %d outside plausible range %d-%d", s.SystolicBP, MinSystolicBP, MaxSystolicBP)
	}
	if s.DiastolicBP < MinDiastolic || s.DiastolicBP > MaxDiastolic {
		return apperr.Validation("vitals: diastolic BP %d outside plausible range %d-%d", s.DiastolicBP, MinDiastolic, MaxDiastolic)
	}
	if s.CapturedAt.IsZero() {
		return apperr.Validation("vitals: zero captured_at")
	}
	return nil
}

// VitalsRepository reads the per-user vitals series.
type VitalsRepository interface {
	// ListByUser returns all samples for the user, most recent first.
	ListByUser(ctx context.Context, userID string) ([]VitalsSample, error)
	// ListByUserRange returns samples within [start, end], ascending.
	ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]VitalsSample, error)
}
