package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/monitoring/application"
)

// SubmissionStore persists one submission's rows in a single
// transaction. Assessments reference the vitals row, alerts reference
// the assessment, so insert order matters.
type SubmissionStore struct {
	db *sql.DB

	vitalsTable      string
	assessmentsTable string
	alertsTable      string
}

// Option customises the store.
type Option func(*SubmissionStore)

// WithTables overrides the backing table names.
func WithTables(vitals, assessments, alerts string) Option {
	return func(s *SubmissionStore) {
		if vitals != "" {
			s.vitalsTable = vitals
		}
		if assessments != "" {
			s.assessmentsTable = assessments
		}
		if alerts != "" {
			s.alertsTable = alerts
		}
	}
}

// NewSubmissionStore constructs a store backed by db.
func NewSubmissionStore(db *sql.DB, opts ...Option) *SubmissionStore {
	s := &SubmissionStore{
		db:               db,
		vitalsTable:      "vitals_samples",
		assessmentsTable: "assessments",
		alertsTable:      "alerts",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveSubmission commits the vitals sample, its assessment and any alert
// atomically.
func (s *SubmissionStore) SaveSubmission(ctx context.Context, submission application.Submission) error {
	if s == nil || s.db == nil {
		return apperr.Persistence("submission store not initialised", nil)
	}
	if err := submission.Vitals.Validate(); err != nil {
		return err
	}
	if submission.Assessment.ID == "" {
		return apperr.Validation("submission store: assessment missing id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("submission store: begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	vitals := submission.Vitals
	insertVitals := fmt.Sprintf(`INSERT INTO %s
		(id, user_id, heart_rate, systolic_bp, diastolic_bp, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, s.vitalsTable)
	if _, err := tx.ExecContext(ctx, insertVitals,
		vitals.ID, vitals.UserID, vitals.HeartRate, vitals.SystolicBP, vitals.DiastolicBP, vitals.CapturedAt,
	); err != nil {
		return apperr.Persistence("submission store: insert vitals", err)
	}

	a := submission.Assessment
	insertAssessment := fmt.Sprintf(`INSERT INTO %s
		(id, user_id, vitals_sample_id, aqi_sample_id,
		 heart_rate, systolic_bp, diastolic_bp, aqi_value, pm25,
		 age, smoking_status, existing_conditions,
		 risk_score, risk_label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, s.assessmentsTable)
	if _, err := tx.ExecContext(ctx, insertAssessment,
		a.ID, a.UserID, a.VitalsSampleID, a.AQISampleID,
		a.HeartRate, a.SystolicBP, a.DiastolicBP, a.AQIValue, a.PM25,
		a.Demographics.Age, a.Demographics.Smoking, a.Demographics.ExistingConditions,
		a.RiskScore, a.RiskLabel, a.CreatedAt,
	); err != nil {
		return apperr.Persistence("submission store: insert assessment", err)
	}

	if alert := submission.Alert; alert != nil {
		insertAlert := fmt.Sprintf(`INSERT INTO %s
			(id, user_id, assessment_id, severity, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`, s.alertsTable)
		if _, err := tx.ExecContext(ctx, insertAlert,
			alert.ID, alert.UserID, alert.AssessmentID, alert.Severity, alert.Message, alert.CreatedAt,
		); err != nil {
			return apperr.Persistence("submission store: insert alert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("submission store: commit", err)
	}
	return nil
}
