package risk

import (
	"context"
	"time"
)

// Repository reads persisted assessments. Writes happen only through the
// submission store so a vitals sample, its assessment and any alert
// commit together.
type Repository interface {
	// ListByUser returns all assessments for the user, most recent first.
	ListByUser(ctx context.Context, userID string) ([]Assessment, error)
	// ListByUserRange returns assessments within [start, end], ascending.
	ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]Assessment, error)
}
