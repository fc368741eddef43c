package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airhealth-cloud/internal/apperr"
	alerts "airhealth-cloud/internal/alerts/domain"
)

const defaultAlertTable = "alerts"

// AlertRepository is a Postgres implementation for alert history.
type AlertRepository struct {
	db    *sql.DB
	table string
}

// AlertRepositoryOption configures the repository.
type AlertRepositoryOption func(*AlertRepository)

// WithAlertTable overrides the default table name.
func WithAlertTable(table string) AlertRepositoryOption {
	return func(repo *AlertRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAlertRepository constructs a repository with default table name.
func NewAlertRepository(db *sql.DB, opts ...AlertRepositoryOption) *AlertRepository {
	repo := &AlertRepository{db: db, table: defaultAlertTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListByUser returns all alerts for the user, most recent first.
func (r *AlertRepository) ListByUser(ctx context.Context, userID string) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if userID == "" {
		return nil, apperr.Validation("alert repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT id, user_id, assessment_id, severity, message, created_at
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Persistence("alert repo: list by user", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListSince returns alerts created at or after since, most recent first.
func (r *AlertRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if userID == "" {
		return nil, apperr.Validation("alert repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT id, user_id, assessment_id, severity, message, created_at
FROM %s
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, apperr.Persistence("alert repo: list since", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]alerts.Alert, error) {
	var out []alerts.Alert
	for rows.Next() {
		var alert alerts.Alert
		var severity string
		if err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.AssessmentID,
			&severity,
			&alert.Message,
			&alert.CreatedAt,
		); err != nil {
			return nil, apperr.Persistence("alert repo: scan", err)
		}
		alert.Severity = alerts.Severity(severity)
		out = append(out, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("alert repo: rows", err)
	}
	return out, nil
}
