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

const defaultAQITable = "aqi_samples"

// AQIRepository is a Postgres implementation for the per-location AQI series.
type AQIRepository struct {
	db    *sql.DB
	table string
}

// AQIRepositoryOption configures the repository.
type AQIRepositoryOption func(*AQIRepository)

// WithAQITable overrides the default table name.
func WithAQITable(table string) AQIRepositoryOption {
	return func(repo *AQIRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAQIRepository constructs a repository with default table name.
func NewAQIRepository(db *sql.DB, opts ...AQIRepositoryOption) *AQIRepository {
	repo := &AQIRepository{db: db, table: defaultAQITable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Append stores a new sample.
func (r *AQIRepository) Append(ctx context.Context, sample readings.AQISample) error {
	if r == nil || r.db == nil {
		return errors.New("aqi repo: nil db")
	}
	if err := sample.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, city, aqi_value, pm25, pm10, co, no2, o3, captured_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.table)

	if _, err := r.db.ExecContext(
		ctx,
		query,
		sample.ID,
		sample.City,
		sample.AQIValue,
		sample.PM25,
		sample.PM10,
		sample.CO,
		sample.NO2,
		sample.O3,
		sample.CapturedAt,
	); err != nil {
		return apperr.Persistence("aqi repo: append", err)
	}
	return nil
}

// Latest returns the most recent sample for a city.
func (r *AQIRepository) Latest(ctx context.Context, city string) (*readings.AQISample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("aqi repo: nil db")
	}
	if city == "" {
		return nil, apperr.Validation("aqi repo: empty city")
	}

	query := fmt.Sprintf(`
SELECT id, city, aqi_value, pm25, pm10, co, no2, o3, captured_at
FROM %s
WHERE city = $1
ORDER BY captured_at DESC
LIMIT 1`, r.table)

	var sample readings.AQISample
	err := r.db.QueryRowContext(ctx, query, city).Scan(
		&sample.ID,
		&sample.City,
		&sample.AQIValue,
		&sample.PM25,
		&sample.PM10,
		&sample.CO,
		&sample.NO2,
		&sample.O3,
		&sample.CapturedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("aqi repo: no samples for city %s", city)
	}
	if err != nil {
		return nil, apperr.Persistence("aqi repo: latest", err)
	}
	return &sample, nil
}

// ListByCitySince returns samples captured at or after since, most recent first.
func (r *AQIRepository) ListByCitySince(ctx context.Context, city string, since time.Time) ([]readings.AQISample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("aqi repo: nil db")
	}
	if city == "" {
		return nil, apperr.Validation("aqi repo: empty city")
	}

	query := fmt.Sprintf(`
SELECT id, city, aqi_value, pm25, pm10, co, no2, o3, captured_at
FROM %s
WHERE city = $1 AND captured_at >= $2
ORDER BY captured_at DESC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, city, since)
	if err != nil {
		return nil, apperr.Persistence("aqi repo: list since", err)
	}
	defer rows.Close()
	return scanAQI(rows)
}

// ListByCityRange returns samples within [start, end], ascending.
func (r *AQIRepository) ListByCityRange(ctx context.Context, city string, start, end time.Time) ([]readings.AQISample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("aqi repo: nil db")
	}
	if city == "" {
		return nil, apperr.Validation("aqi repo: empty city")
	}

	query := fmt.Sprintf(`
SELECT id, city, aqi_value, pm25, pm10, co, no2, o3, captured_at
FROM %s
WHERE city = $1 AND captured_at >= $2 AND captured_at <= $3
ORDER BY captured_at ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, city, start, end)
	if err != nil {
		return nil, apperr.Persistence("aqi repo: list range", err)
	}
	defer rows.Close()
	return scanAQI(rows)
}

func scanAQI(rows *sql.Rows) ([]readings.AQISample, error) {
	var out []readings.AQISample
	for rows.Next() {
		var sample readings.AQISample
		if err := rows.Scan(
			&sample.ID,
			&sample.City,
			&sample.AQIValue,
			&sample.PM25,
			&sample.PM10,
			&sample.CO,
			&sample.NO2,
			&sample.O3,
			&sample.CapturedAt,
		); err != nil {
			return nil, apperr.Persistence("aqi repo: scan", err)
		}
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("aqi repo: rows", err)
	}
	return out, nil
}
