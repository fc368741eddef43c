package auth

import "context"

type contextKey string

const (
	contextKeyUserID contextKey = "auth.user_id"
	contextKeyRole   contextKey = "auth.role"
)

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, userID string, role Role) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, userID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	return ctx
}

// UserIDFromContext extracts the authenticated user id from context.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyUserID)
	if userID, ok := value.(string); ok {
		return userID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// IdentityFromContext extracts a full identity from context. Authenticated
// is false when no middleware populated the context.
func IdentityFromContext(ctx context.Context) Identity {
	userID := UserIDFromContext(ctx)
	role := RoleFromContext(ctx)
	return Identity{
		UserID:        userID,
		Role:          role,
		Authenticated: userID != "" && role != "",
	}
}
