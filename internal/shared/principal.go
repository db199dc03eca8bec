// Package shared holds cross-module primitives: the authenticated principal,
// role checks and pagination metadata.
package shared

import "context"

// Role enumerates the access levels a user account can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated caller, resolved once by the auth middleware
// and passed explicitly into service calls that need authorization decisions.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
	TokenID  string
}

// IsStaff reports whether the principal holds an elevated role.
func (p Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager
}

// CanManage reports whether the principal may mutate a record created by
// createdBy: the creator themselves, or any admin/manager.
func (p Principal) CanManage(createdBy int64) bool {
	return p.UserID == createdBy || p.IsStaff()
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
