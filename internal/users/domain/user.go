package users

import (
	"context"
	"time"

	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/auth"
)

// User is a registered person with the demographic factors the risk
// scorer consumes. Identity and session handling live outside the
// engine; the role mirrors the JWT claim for administrative reads.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Age                int       `json:"age"`
	SmokingStatus      bool      `json:"smoking_status"`
	ExistingConditions bool      `json:"existing_conditions"`
	Role               auth.Role `json:"role"`
	City               string    `json:"city"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate checks user invariants.
func (u User) Validate() error {
	if u.ID == "" {
		return apperr.Validation("user: empty id")
	}
	if u.Name == "" {
		return apperr.Validation("user: empty name")
	}
	if u.Age < 0 {
		return apperr.Validation("user: negative age %d", u.Age)
	}
	if _, ok := auth.NormalizeRole(string(u.Role)); !ok {
		return apperr.Validation("user: invalid role %q", u.Role)
	}
	return nil
}

// DemographicsComplete reports whether the profile carries the factors
// scoring needs. Age zero means the profile was never filled in.
func (u User) DemographicsComplete() bool {
	return u.Age > 0
}

// Repository persists users.
type Repository interface {
	// Get loads a user by id; missing users surface as not-found.
	Get(ctx context.Context, id string) (*User, error)
	// Create stores a new user.
	Create(ctx context.Context, user User) error
	// UpdateDemographics mutates the owner-editable profile fields.
	UpdateDemographics(ctx context.Context, id string, age int, smoking, conditions bool, city string) error
	// List returns all users, most recently registered first.
	List(ctx context.Context) ([]User, error)
}
