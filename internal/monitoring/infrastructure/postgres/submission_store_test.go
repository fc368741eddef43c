package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alerts "airhealth-cloud/internal/alerts/domain"
	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/monitoring/application"
	readings "airhealth-cloud/internal/readings/domain"
	risk "airhealth-cloud/internal/risk/domain"
)

func sampleSubmission(withAlert bool) application.Submission {
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	sub := application.Submission{
		Vitals: readings.VitalsSample{
			ID: "v-1", UserID: "user-1", HeartRate: 130, SystolicBP: 155, DiastolicBP: 95, CapturedAt: at,
		},
		Assessment: risk.Assessment{
			ID: "as-1", UserID: "user-1", VitalsSampleID: "v-1", AQISampleID: "a-1",
			HeartRate: 130, SystolicBP: 155, DiastolicBP: 95, AQIValue: 180, PM25: 90,
			Demographics: risk.Demographics{Age: 55, Smoking: true},
			RiskScore:    0.84, RiskLabel: risk.LabelHigh, CreatedAt: at,
		},
	}
	if withAlert {
		sub.Alert = &alerts.Alert{
			ID: "al-1", UserID: "user-1", AssessmentID: "as-1",
			Severity: alerts.SeverityHigh, Message: "msg", CreatedAt: at,
		}
	}
	return sub
}

func TestSubmissionStore_CommitsAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO vitals_samples`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assessments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO alerts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewSubmissionStore(db)
	require.NoError(t, store.SaveSubmission(context.Background(), sampleSubmission(true)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_SkipsAlertRowWhenNoAlert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO vitals_samples`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assessments`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewSubmissionStore(db)
	require.NoError(t, store.SaveSubmission(context.Background(), sampleSubmission(false)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionStore_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO vitals_samples`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO assessments`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	store := NewSubmissionStore(db)
	err = store.SaveSubmission(context.Background(), sampleSubmission(true))
	assert.True(t, apperr.IsPersistence(err), "expected persistence error, got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
