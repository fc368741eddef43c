package memory

import (
	"context"
	"sort"

	adminapp "airhealth-cloud/internal/admin/application"
	"airhealth-cloud/internal/apperr"
	monmem "airhealth-cloud/internal/monitoring/infrastructure/memory"
	usersmem "airhealth-cloud/internal/users/infrastructure/memory"
)

// Adapter backs the admin service with the in-memory stores.
type Adapter struct {
	users *usersmem.Repository
	store *monmem.Store
}

// NewAdapter constructs an adapter over the shared stores.
func NewAdapter(users *usersmem.Repository, store *monmem.Store) *Adapter {
	return &Adapter{users: users, store: store}
}

// ListAll returns every assessment joined with its user, most recent first.
func (a *Adapter) ListAll(ctx context.Context) ([]adminapp.Record, error) {
	if a == nil || a.users == nil || a.store == nil {
		return nil, apperr.Persistence("admin adapter not initialised", nil)
	}
	all, err := a.users.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []adminapp.Record
	for _, user := range all {
		assessments, err := a.store.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		for _, assessment := range assessments {
			out = append(out, adminapp.Record{UserName: user.Name, Assessment: assessment})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Assessment.CreatedAt.After(out[j].Assessment.CreatedAt)
	})
	return out, nil
}

// PurgeUser removes the user and every record they own.
func (a *Adapter) PurgeUser(ctx context.Context, userID string) error {
	if a == nil || a.users == nil || a.store == nil {
		return apperr.Persistence("admin adapter not initialised", nil)
	}
	if err := a.users.Delete(ctx, userID); err != nil {
		return err
	}
	return a.store.DeleteByUser(ctx, userID)
}

var (
	_ adminapp.RecordsRepository = (*Adapter)(nil)
	_ adminapp.UserPurger        = (*Adapter)(nil)
)
