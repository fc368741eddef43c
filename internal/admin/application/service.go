package application

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"airhealth-cloud/internal/apperr"
	"airhealth-cloud/internal/audit"
	"airhealth-cloud/internal/auth"
	"airhealth-cloud/internal/observability/metrics"
	risk "airhealth-cloud/internal/risk/domain"
	users "airhealth-cloud/internal/users/domain"
)

// Record is one assessment joined with the owning user's name for the
// admin-wide view.
type Record struct {
	UserName   string          `json:"user_name"`
	Assessment risk.Assessment `json:"assessment"`
}

// RecordsRepository reads assessments across all users.
type RecordsRepository interface {
	// ListAll returns every assessment joined with its user, most recent
	// first.
	ListAll(ctx context.Context) ([]Record, error)
}

// UserPurger removes a user and every record they own in one
// transaction: vitals, assessments, alerts, then the user row.
type UserPurger interface {
	PurgeUser(ctx context.Context, userID string) error
}

// Service exposes the administrative operations. Every call passes the
// access gate before touching a repository, and mutations land in the
// audit trail.
type Service struct {
	users   users.Repository
	records RecordsRepository
	purger  UserPurger
	audit   audit.Logger
	logger  *zap.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAudit attaches an audit trail.
func WithAudit(trail audit.Logger) Option {
	return func(s *Service) {
		if trail != nil {
			s.audit = trail
		}
	}
}

// NewService constructs the admin service.
func NewService(userRepo users.Repository, records RecordsRepository, purger UserPurger, opts ...Option) (*Service, error) {
	if userRepo == nil || records == nil || purger == nil {
		return nil, apperr.Persistence("admin service: missing dependency", nil)
	}
	s := &Service{
		users:   userRepo,
		records: records,
		purger:  purger,
		audit:   audit.NopLogger{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListUsers returns every registered user. Requires admin.
func (s *Service) ListUsers(ctx context.Context, actor auth.Identity) ([]users.User, error) {
	if err := auth.Authorize(actor, auth.OpReadAllUsers); err != nil {
		return nil, err
	}
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor, audit.ActionListUsers, "user", "")
	return list, nil
}

// ListAllRecords returns every assessment joined with its user's name.
// Requires admin.
func (s *Service) ListAllRecords(ctx context.Context, actor auth.Identity) ([]Record, error) {
	if err := auth.Authorize(actor, auth.OpReadAllRecords); err != nil {
		return nil, err
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, actor, audit.ActionReadAll, "assessment", "")
	return records, nil
}

// DeleteUser removes a user and all their records. Requires superadmin.
// The purge is transactional: a failure leaves every record in place.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Identity, userID string) error {
	if err := auth.Authorize(actor, auth.OpDeleteUser); err != nil {
		metrics.IncAdminDelete(metrics.ResultError)
		return err
	}
	if userID == "" {
		return apperr.Validation("delete user: empty user id")
	}
	if userID == actor.UserID {
		return apperr.Validation("delete user: cannot delete own account")
	}

	target, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.purger.PurgeUser(ctx, userID); err != nil {
		metrics.IncAdminDelete(metrics.ResultError)
		return err
	}
	metrics.IncAdminDelete(metrics.ResultSuccess)

	metadata, _ := json.Marshal(map[string]string{
		"deleted_user": target.ID,
		"deleted_name": target.Name,
	})
	s.logAuditWithMetadata(ctx, actor, audit.ActionDeleteUser, "user", userID, metadata)
	s.logger.Info("user deleted",
		zap.String("actor", actor.UserID),
		zap.String("user_id", userID),
	)
	return nil
}

func (s *Service) logAudit(ctx context.Context, actor auth.Identity, action, resourceType, resourceID string) {
	s.logAuditWithMetadata(ctx, actor, action, resourceType, resourceID, nil)
}

func (s *Service) logAuditWithMetadata(ctx context.Context, actor auth.Identity, action, resourceType, resourceID string, metadata json.RawMessage) {
	entry := audit.Entry{
		Actor:        actor.UserID,
		Role:         string(actor.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
