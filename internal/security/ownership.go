package security

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// ResourceType tags the kind of resource an ownership requirement protects.
// The set is closed: adding a type means adding a constant and registering a
// resolver for it, both checked at wiring time.
type ResourceType int

const (
	TypeCourse ResourceType = iota
	TypeResource
	TypeAssignment
)

func (t ResourceType) String() string {
	switch t {
	case TypeCourse:
		return "COURSE"
	case TypeResource:
		return "RESOURCE"
	case TypeAssignment:
		return "ASSIGNMENT"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrMissingResourceID indicates the declared parameter was absent from
	// the call. A route-declaration bug, not a caller failure.
	ErrMissingResourceID = errors.New("security: missing resource id parameter")
	// ErrUnknownResourceType indicates no resolver is registered for the
	// declared type. Also a wiring bug, never a silent pass.
	ErrUnknownResourceType = errors.New("security: unknown resource type")
)

// OwnerResolver maps a resource id to the owning teacher's account id. It
// returns ErrAccountNotFound-independent errors; any failure to resolve the
// resource or its parent course denies ownership.
type OwnerResolver interface {
	FindOwningTeacherID(ctx context.Context, resourceID int64) (int64, error)
}

// OwnerResolverFunc adapts a function to the OwnerResolver interface.
type OwnerResolverFunc func(ctx context.Context, resourceID int64) (int64, error)

// FindOwningTeacherID calls f.
func (f OwnerResolverFunc) FindOwningTeacherID(ctx context.Context, resourceID int64) (int64, error) {
	return f(ctx, resourceID)
}

// OwnershipChecker holds the resolver table and produces per-route ownership
// middleware. Declarations are fixed at registration time.
type OwnershipChecker struct {
	resolvers map[ResourceType]OwnerResolver
	logger    *slog.Logger
}

// NewOwnershipChecker constructs an empty checker.
func NewOwnershipChecker(logger *slog.Logger) *OwnershipChecker {
	return &OwnershipChecker{
		resolvers: make(map[ResourceType]OwnerResolver),
		logger:    logger,
	}
}

// Register installs the resolver for a resource type.
func (c *OwnershipChecker) Register(t ResourceType, resolver OwnerResolver) {
	c.resolvers[t] = resolver
}

// Check evaluates a single ownership decision: admins pass unconditionally,
// otherwise the resource's owning teacher must equal the principal. Every
// resolution failure denies; nothing falls through to a permissive default.
func (c *OwnershipChecker) Check(ctx context.Context, p Principal, t ResourceType, resourceID int64) error {
	if p.IsAdmin() {
		return nil
	}
	resolver, ok := c.resolvers[t]
	if !ok {
		return ErrUnknownResourceType
	}
	teacherID, err := resolver.FindOwningTeacherID(ctx, resourceID)
	if err != nil {
		return httpx.ErrForbidden
	}
	if teacherID != p.ID {
		return httpx.ErrForbidden
	}
	return nil
}

// RequireOwner declares an ownership requirement on a route: the named URL
// parameter carries the resource id, and the principal must own the resource
// of the given type. A role requirement declared on the same route must be
// installed before this one so ineligible callers are turned away without any
// resource lookup.
func (c *OwnershipChecker) RequireOwner(param string, t ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Unauthorized(w, "authentication required")
				return
			}

			raw := chi.URLParam(r, param)
			if raw == "" {
				if c.logger != nil {
					c.logger.Error("ownership check: parameter not in route",
						slog.String("param", param), slog.String("path", r.URL.Path))
				}
				httpx.Error(w, http.StatusBadRequest, ErrMissingResourceID.Error())
				return
			}
			resourceID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				httpx.Error(w, http.StatusBadRequest, "invalid resource id")
				return
			}

			if err := c.Check(r.Context(), principal, t, resourceID); err != nil {
				if errors.Is(err, ErrUnknownResourceType) {
					if c.logger != nil {
						c.logger.Error("ownership check: no resolver registered",
							slog.String("type", t.String()))
					}
					httpx.Error(w, http.StatusInternalServerError, ErrUnknownResourceType.Error())
					return
				}
				if c.logger != nil {
					c.logger.Warn("ownership denied",
						slog.String("username", principal.Username),
						slog.String("type", t.String()),
						slog.Int64("resource_id", resourceID))
				}
				httpx.Error(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
