package auth

import "airhealth-cloud/internal/apperr"

// Operation names a guarded engine operation.
type Operation string

const (
	OpReadOwnData    Operation = "read-own-data"
	OpReadAllUsers   Operation = "read-all-users"
	OpReadAllRecords Operation = "read-all-records"
	OpDeleteUser     Operation = "delete-user"
)

// Identity is an already-authenticated actor. Session handling is the
// caller's concern; the gate only consumes the resolved identity.
type Identity struct {
	UserID        string
	Role          Role
	Authenticated bool
}

// requiredRole resolves the minimum role per operation.
func requiredRole(op Operation) (Role, bool) {
	switch op {
	case OpReadOwnData:
		return RoleUser, true
	case OpReadAllUsers, OpReadAllRecords:
		return RoleAdmin, true
	case OpDeleteUser:
		return RoleSuperadmin, true
	default:
		return "", false
	}
}

// Authorize allows or denies an operation for an actor. The denial reason
// distinguishes a missing identity from an insufficient role so callers
// can route the two failures differently.
func Authorize(actor Identity, op Operation) error {
	required, known := requiredRole(op)
	if !known {
		return apperr.Forbidden("unknown operation %q", op)
	}
	if !actor.Authenticated {
		return apperr.Unauthenticated("operation %s requires authentication", op)
	}
	if _, ok := NormalizeRole(string(actor.Role)); !ok {
		return apperr.Unauthenticated("operation %s requires a valid role", op)
	}
	if !RoleAtLeast(actor.Role, required) {
		return apperr.Forbidden("operation %s requires role %s", op, required)
	}
	return nil
}
