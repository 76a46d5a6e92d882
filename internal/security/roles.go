package security

import (
	"net/http"
	"strings"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// Combinator selects how a multi-role requirement combines its members.
type Combinator int

const (
	// Any passes when the principal's role appears in the declared set.
	Any Combinator = iota
	// All requires every declared role. A principal carries exactly one role,
	// so for single-element sets this is the same membership test as Any; for
	// larger sets it can never pass. Kept because declarations are data and
	// the combinator is part of their shape.
	All
)

// RoleRequirement is the static role declaration attached to an operation at
// route-registration time.
type RoleRequirement struct {
	Roles      []string
	Combinator Combinator
}

// Satisfied reports whether the principal's single role meets the requirement.
// Matching is case-insensitive. Pure function: same inputs, same verdict.
func (req RoleRequirement) Satisfied(p Principal) bool {
	if len(req.Roles) == 0 {
		return true
	}
	member := false
	for _, role := range req.Roles {
		if strings.EqualFold(string(p.Role), role) {
			member = true
			break
		}
	}
	if req.Combinator == All && len(req.Roles) > 1 {
		return false
	}
	return member
}

// RequireRole declares an Any-combinator role requirement on a route.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return RequireRoles(RoleRequirement{Roles: roles, Combinator: Any})
}

// RequireRoles enforces a role requirement before the handler runs. No bound
// principal fails with 401; an ineligible role fails with 403. The response
// never states which role was required.
func RequireRoles(req RoleRequirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Unauthorized(w, "authentication required")
				return
			}
			if !req.Satisfied(principal) {
				httpx.Error(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
