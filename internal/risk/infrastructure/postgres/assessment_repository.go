package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"airhealth-cloud/internal/apperr"
	risk "airhealth-cloud/internal/risk/domain"
)

// AssessmentRepository reads persisted assessments from Postgres.
type AssessmentRepository struct {
	db    *sql.DB
	table string
}

// Option customises the repository.
type Option func(*AssessmentRepository)

// WithTable overrides the backing table name.
func WithTable(name string) Option {
	return func(r *AssessmentRepository) {
		if name != "" {
			r.table = name
		}
	}
}

// NewAssessmentRepository constructs a repository backed by db.
func NewAssessmentRepository(db *sql.DB, opts ...Option) *AssessmentRepository {
	r := &AssessmentRepository{db: db, table: "assessments"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const assessmentColumns = `id, user_id, vitals_sample_id, aqi_sample_id,
	heart_rate, systolic_bp, diastolic_bp, aqi_value, pm25,
	age, smoking_status, existing_conditions,
	risk_score, risk_label, created_at`

// ListByUser returns all assessments for the user, most recent first.
func (r *AssessmentRepository) ListByUser(ctx context.Context, userID string) ([]risk.Assessment, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Persistence("assessment repository not initialised", nil)
	}
	if userID == "" {
		return nil, apperr.Validation("assessments: empty user id")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 ORDER BY created_at DESC`, assessmentColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Persistence("assessments: list by user", err)
	}
	defer rows.Close()
	return scanAssessments(rows)
}

// ListByUserRange returns assessments within [start, end], ascending.
func (r *AssessmentRepository) ListByUserRange(ctx context.Context, userID string, start, end time.Time) ([]risk.Assessment, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Persistence("assessment repository not initialised", nil)
	}
	if userID == "" {
		return nil, apperr.Validation("assessments: empty user id")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at ASC`, assessmentColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, apperr.Persistence("assessments: list range", err)
	}
	defer rows.Close()
	return scanAssessments(rows)
}

func scanAssessments(rows *sql.Rows) ([]risk.Assessment, error) {
	var out []risk.Assessment
	for rows.Next() {
		var a risk.Assessment
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.VitalsSampleID, &a.AQISampleID,
			&a.HeartRate, &a.SystolicBP, &a.DiastolicBP, &a.AQIValue, &a.PM25,
			&a.Demographics.Age, &a.Demographics.Smoking, &a.Demographics.ExistingConditions,
			&a.RiskScore, &a.RiskLabel, &a.CreatedAt,
		); err != nil {
			return nil, apperr.Persistence("assessments: scan row", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("assessments: iterate rows", err)
	}
	return out, nil
}
