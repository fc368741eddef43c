package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

func setupAQIMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AQIRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewAQIRepository(db)
}

func TestAQIRepository_Latest(t *testing.T) {
	db, mock, repo := setupAQIMock(t)
	defer db.Close()

	capturedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "city", "aqi_value", "pm25", "pm10", "co", "no2", "o3", "captured_at"}).
		AddRow("aqi-1", "Chennai", 180, 90.0, 120.0, 0.6, 30.0, 50.0, capturedAt)

	mock.ExpectQuery(`SELECT id, city, aqi_value`).
		WithArgs("Chennai").
		WillReturnRows(rows)

	sample, err := repo.Latest(context.Background(), "Chennai")
	require.NoError(t, err)
	assert.Equal(t, 180, sample.AQIValue)
	assert.Equal(t, 90.0, sample.PM25)
	assert.True(t, sample.CapturedAt.Equal(capturedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAQIRepository_LatestEmptySeries(t *testing.T) {
	db, mock, repo := setupAQIMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, city, aqi_value`).
		WithArgs("Nowhere").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Latest(context.Background(), "Nowhere")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAQIRepository_Append(t *testing.T) {
	db, mock, repo := setupAQIMock(t)
	defer db.Close()

	capturedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO aqi_samples`).
		WithArgs("aqi-1", "Chennai", 180, 90.0, 120.0, 0.6, 30.0, 50.0, capturedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), sampleAQI("aqi-1", "Chennai", 180, 90, capturedAt))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAQIRepository_AppendRejectsInvalid(t *testing.T) {
	db, _, repo := setupAQIMock(t)
	defer db.Close()

	sample := sampleAQI("aqi-1", "", 180, 90, time.Now())
	err := repo.Append(context.Background(), sample)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestVitalsRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVitalsRepository(db)

	newer := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	older := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "heart_rate", "systolic_bp", "diastolic_bp", "captured_at"}).
		AddRow("v-2", "user-1", 95, 135, 85, newer).
		AddRow("v-1", "user-1", 72, 118, 76, older)

	mock.ExpectQuery(`SELECT id, user_id, heart_rate`).
		WithArgs("user-1").
		WillReturnRows(rows)

	samples, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "v-2", samples[0].ID)
	assert.Equal(t, 95, samples[0].HeartRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleAQI(id, city string, aqi int, pm25 float64, at time.Time) readings.AQISample {
	return readings.AQISample{
		ID:         id,
		City:       city,
		AQIValue:   aqi,
		PM25:       pm25,
		PM10:       120,
		CO:         0.6,
		NO2:        30,
		O3:         50,
		CapturedAt: at,
	}
}
