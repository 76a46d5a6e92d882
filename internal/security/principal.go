// Package security implements the request-time authentication gate and the
// declarative role and ownership checks enforced ahead of business handlers.
package security

import (
	"context"
	"strings"
)

// Role is one of the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Equals compares roles case-insensitively.
func (r Role) Equals(other string) bool {
	return strings.EqualFold(string(r), other)
}

// Principal is an immutable snapshot of the authenticated account, constructed
// once per request by the gate and discarded at request end.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Enabled  bool   `json:"enabled"`
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role.Equals(string(RoleAdmin))
}

type principalContextKey struct{}

// ContextWithPrincipal binds the principal to the request context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the bound principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
