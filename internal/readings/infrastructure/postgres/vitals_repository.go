package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

const defaultVitalsTable = "vitals_samples"

// VitalsRepository is a Postgres implementation for vitals samples.
type VitalsRepository struct {
	db    *sql.DB
	table string
}

// VitalsRepositoryOption configures the repository.
type VitalsRepositoryOption func(*VitalsRepository)

// WithVitalsTable overrides the default table name.
func WithVitalsTable(table string) VitalsRepositoryOption {
	return func(repo *VitalsRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewVitalsRepository constructs a repository with default table name.
func NewVitalsRepository(db *sql.DB, opts ...VitalsRepositoryOption) *VitalsRepository {
	repo := &VitalsRepository{db: db, table: defaultVitalsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListByUser returns all samples for the user, most recent first.
func (r *VitalsRepository) ListByUser(ctx context.Context, userID string) ([]readings.VitalsSample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vitals repo: nil db")
	}
	if userID == "" {
		return nil, apperr.Validation("vitals repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT id, user_id, heart_rate, systolic_bp, diastolic_bp, captured_at
FROM %s
WHERE user_id = $1
ORDER BY captured_at DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Persistence("vitals repo: list by user", err)
	}
	defer rows.Close()
	return scanVitals(rows)
}

// ListByUserRange returns samples within [start, end], ascending.
func (r *VitalsRepository) ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]readings.VitalsSample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vitals repo: nil db")
	}
	if userID == "" {
		return nil, apperr.Validation("vitals repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT id, user_id, heart_rate, systolic_bp, diastolic_bp, captured_at
FROM %s
WHERE user_id = $1 AND captured_at >= $2 AND captured_at <= $3
ORDER BY captured_at ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, apperr.Persistence("vitals repo: list by user range", err)
	}
	defer rows.Close()
	return scanVitals(rows)
}

func scanVitals(rows *sql.Rows) ([]readings.VitalsSample, error) {
	var out []readings.VitalsSample
	for rows.Next() {
		var sample readings.VitalsSample
		if err := rows.Scan(
			&sample.ID,
			&sample.UserID,
			&sample.HeartRate,
			&sample.SystolicBP,
			&sample.DiastolicBP,
			&sample.CapturedAt,
		); err != nil {
			return nil, apperr.Persistence("vitals repo: scan", err)
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("vitals repo: rows", err)
	}
	return out, nil
}
