package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"airhealth-cloud/internal/apperr"
	users "airhealth-cloud/internal/users/domain"
)

// UserRepository persists users in Postgres.
type UserRepository struct {
	db    *sql.DB
	table string
}

// Option customises the repository.
type Option func(*UserRepository)

// WithTable overrides the backing table name.
func WithTable(name string) Option {
	return func(r *UserRepository) {
		if name != "" {
			r.table = name
		}
	}
}

// NewUserRepository constructs a repository backed by db.
func NewUserRepository(db *sql.DB, opts ...Option) *UserRepository {
	r := &UserRepository{db: db, table: "users"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

const userColumns = `id, name, email, age, smoking_status, existing_conditions, role, city, created_at`

// Get loads a user by id.
func (r *UserRepository) Get(ctx context.Context, id string) (*users.User, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Persistence("user repository not initialised", nil)
	}
	if id == "" {
		return nil, apperr.Validation("user repo: empty id")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id)

	var u users.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.SmokingStatus, &u.ExistingConditions, &u.Role, &u.City, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user repo: user %s not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence("user repo: get", err)
	}
	return &u, nil
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user users.User) error {
	if r == nil || r.db == nil {
		return apperr.Persistence("user repository not initialised", nil)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, r.table, userColumns)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Age, user.SmokingStatus,
		user.ExistingConditions, user.Role, user.City, user.CreatedAt,
	)
	if err != nil {
		return apperr.Persistence("user repo: create", err)
	}
	return nil
}

// UpdateDemographics mutates the owner-editable profile fields.
func (r *UserRepository) UpdateDemographics(ctx context.Context, id string, age int, smoking, conditions bool, city string) error {
	if r == nil || r.db == nil {
		return apperr.Persistence("user repository not initialised", nil)
	}
	if age < 0 {
		return apperr.Validation("user repo: negative age")
	}

	query := fmt.Sprintf(`UPDATE %s
		SET age = $2, smoking_status = $3, existing_conditions = $4,
		    city = CASE WHEN $5 = '' THEN city ELSE $5 END
		WHERE id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id, age, smoking, conditions, city)
	if err != nil {
		return apperr.Persistence("user repo: update demographics", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("user repo: user %s not found", id)
	}
	return nil
}

// List returns all users, most recently registered first.
func (r *UserRepository) List(ctx context.Context) ([]users.User, error) {
	if r == nil || r.db == nil {
		return nil, apperr.Persistence("user repository not initialised", nil)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC`, userColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperr.Persistence("user repo: list", err)
	}
	defer rows.Close()

	var out []users.User
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.SmokingStatus, &u.ExistingConditions, &u.Role, &u.City, &u.CreatedAt); err != nil {
			return nil, apperr.Persistence("user repo: scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("user repo: iterate users", err)
	}
	return out, nil
}
