package postgres

import (
	"context"
	"database/sql"

	adminapp "airhealth-cloud/internal/admin/application"
	"airhealth-cloud/internal/apperr"
)

// AdminRepository serves the cross-user admin reads and the cascading
// user purge.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository constructs a repository backed by db.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListAll returns every assessment joined with its user, most recent first.
func (r *AdminRepository) ListAll(ctx context.Context) ([]adminapp.Record, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Persistence("admin repository not initialised", nil)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT u.name,
		       a.id, a.user_id, a.vitals_sample_id, a.aqi_sample_id,
		       a.heart_rate, a.systolic_bp, a.diastolic_bp, a.aqi_value, a.pm25,
		       a.age, a.smoking_status, a.existing_conditions,
		       a.risk_score, a.risk_label, a.created_at
		FROM assessments a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, apperr.Persistence("admin repo: list all records", err)
	}
	defer rows.Close()

	var out []adminapp.Record
	for rows.Next() {
		var record adminapp.Record
		a := &record.Assessment
		if err := rows.Scan(
			&record.UserName,
			&a.ID, &a.UserID, &a.VitalsSampleID, &a.AQISampleID,
			&a.HeartRate, &a.SystolicBP, &a.DiastolicBP, &a.AQIValue, &a.PM25,
			&a.Demographics.Age, &a.Demographics.Smoking, &a.Demographics.ExistingConditions,
			&a.RiskScore, &a.RiskLabel, &a.CreatedAt,
		); err != nil {
			return nil, apperr.Persistence("admin repo: scan record", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("admin repo: iterate records", err)
	}
	return out, nil
}

// PurgeUser removes the user and every record they own in one
// transaction. Alerts go first, then assessments, vitals and the user
// row, honouring the foreign keys.
func (r *AdminRepository) PurgeUser(ctx context.Context, userID string) error {
	if r == nil || r.db == nil {
		return apperr.Persistence("admin repository not initialised", nil)
	}
	if userID == "" {
		return apperr.Validation("admin repo: empty user id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("admin repo: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range []string{
		`DELETE FROM alerts WHERE user_id = $1`,
		`DELETE FROM assessments WHERE user_id = $1`,
		`DELETE FROM vitals_samples WHERE user_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, statement, userID); err != nil {
			return apperr.Persistence("admin repo: purge records", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return apperr.Persistence("admin repo: delete user", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("admin repo: user %s not found", userID)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("admin repo: commit purge", err)
	}
	return nil
}

var (
	_ adminapp.RecordsRepository = (*AdminRepository)(nil)
	_ adminapp.UserPurger        = (*AdminRepository)(nil)
)
