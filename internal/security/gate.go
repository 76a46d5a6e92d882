package security

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// DefaultSkipPrefixes lists the path prefixes that never require a token:
// login, registration, token refresh, public file serving, docs, and the
// operational endpoints.
var DefaultSkipPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/public/",
	"/files/",
	"/docs/",
	"/healthz",
	"/metrics",
}

// Gate is the per-request authentication middleware. It extracts a bearer
// token, validates it, re-resolves the subject to a live account, and binds
// the resulting principal to the request context. Failures short-circuit with
// a 401 before any downstream handler runs. A missing Authorization header is
// not a failure: the request proceeds unauthenticated and the role/ownership
// checks reject it later if the route requires a principal.
type Gate struct {
	Tokens       *TokenService
	Accounts     *Lookup
	Logger       *slog.Logger
	SkipPrefixes []string
}

func (g Gate) skip(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	prefixes := g.SkipPrefixes
	if prefixes == nil {
		prefixes = DefaultSkipPrefixes
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func extractBearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Middleware returns the gate as a chi-compatible middleware.
func (g Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractBearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		username, err := g.Tokens.Validate(token)
		if err != nil {
			httpx.Unauthorized(w, "invalid token")
			return
		}

		principal, err := g.Accounts.Resolve(r.Context(), username)
		if err != nil {
			if !errors.Is(err, ErrAccountNotFound) && g.Logger != nil {
				g.Logger.Error("gate resolve account", slog.String("username", username), slog.Any("error", err))
			}
			httpx.Unauthorized(w, "account not found")
			return
		}
		if !principal.Enabled {
			httpx.Unauthorized(w, "account disabled")
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
