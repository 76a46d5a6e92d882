package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/users"
)

func newTestHandler(t *testing.T) (*Handler, *stubUserRepo, *security.TokenService) {
	t.Helper()
	repo := newStubUserRepo()
	tokens := security.NewTokenService("handler-test-secret", time.Hour)
	lookup := security.NewLookup(users.PrincipalSource{Repo: repo}, nil, 0, nil)
	userService := users.NewService(repo, lookup, nil)
	service := NewService(repo, tokens, lookup, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, service, userService), repo, tokens
}

func mountTestRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return r
}

func TestHandleLogin(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	router := mountTestRoutes(h)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"alice","password":"password123"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Token == "" {
		t.Fatal("expected a token in the response")
	}
	if body.User.Username != "alice" || body.User.Role != "TEACHER" {
		t.Fatalf("unexpected user payload: %+v", body.User)
	}
}

func TestHandleLoginRejections(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	router := mountTestRoutes(h)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"username":"alice","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"password123"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"alice"}`, http.StatusBadRequest},
		{"malformed body", `{"username":`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRefresh(t *testing.T) {
	h, repo, tokens := newTestHandler(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	router := mountTestRoutes(h)

	token, err := tokens.Issue(security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a bearer token, got %d", rec.Code)
	}
}

func TestHandleCurrentUser(t *testing.T) {
	h, repo, _ := newTestHandler(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	router := mountTestRoutes(h)

	req := httptest.NewRequest(http.MethodGet, "/auth/current-user", nil)
	req = req.WithContext(security.ContextWithPrincipal(req.Context(),
		security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/current-user", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a principal, got %d", rec.Code)
	}
}
