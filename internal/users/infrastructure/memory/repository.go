package memory

import (
	"context"
	"sort"
	"sync"

	"airhealth-cloud/internal/apperr"
	users "airhealth-cloud/internal/users/domain"
)

// Repository is an in-memory user repository for demo wiring and tests.
type Repository struct {
	mu   sync.RWMutex
	data map[string]users.User
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]users.User)}
}

// Get loads a user by id.
func (r *Repository) Get(ctx context.Context, id string) (*users.User, error) {
	_ = ctx
	if id == "" {
		return nil, apperr.Validation("user repo: empty id")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.data[id]
	if !ok {
		return nil, apperr.NotFound("user repo: user %s not found", id)
	}
	return &user, nil
}

// Create stores a new user.
func (r *Repository) Create(ctx context.Context, user users.User) error {
	_ = ctx
	if err := user.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[user.ID]; exists {
		return apperr.Conflict("user repo: user %s already exists", user.ID)
	}
	r.data[user.ID] = user
	return nil
}

// UpdateDemographics mutates the owner-editable profile fields.
func (r *Repository) UpdateDemographics(ctx context.Context, id string, age int, smoking, conditions bool, city string) error {
	_ = ctx
	if age < 0 {
		return apperr.Validation("user repo: negative age")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.data[id]
	if !ok {
		return apperr.NotFound("user repo: user %s not found", id)
	}
	user.Age = age
	user.SmokingStatus = smoking
	user.ExistingConditions = conditions
	if city != "" {
		user.City = city
	}
	r.data[id] = user
	return nil
}

// List returns all users, most recently registered first.
func (r *Repository) List(ctx context.Context) ([]users.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]users.User, 0, len(r.data))
	for _, user := range r.data {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a user. Used by the in-memory admin cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return apperr.NotFound("user repo: user %s not found", id)
	}
	delete(r.data, id)
	return nil
}
