package alerts

import (
	"context"
	"strings"
	"time"
)

// Severity ranks a health alert.
type Severity string

const (
	SeverityLow       Severity = "Low"
	SeverityModerate  Severity = "Moderate"
	SeverityHigh      Severity = "High"
	SeverityEmergency Severity = "Emergency"
)

// SeverityAtLeast returns true when value ranks at or above target.
func SeverityAtLeast(value, target Severity) bool {
	return severityRank(value) >= severityRank(target)
}

func severityRank(value Severity) int {
	switch Severity(strings.TrimSpace(string(value))) {
	case SeverityEmergency:
		return 4
	case SeverityHigh:
		return 3
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert is a persisted notification that a risk assessment crossed a
// severity threshold. Immutable; references exactly one assessment.
type Alert struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AssessmentID string    `json:"assessment_id"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository reads the per-user alert history.
type Repository interface {
	// ListByUser returns all alerts for the user, most recent first.
	ListByUser(ctx context.Context, userID string) ([]Alert, error)
	// ListSince returns alerts created at or after since, most recent first.
	ListSince(ctx context.Context, userID string, since time.Time) ([]Alert, error)
}
