package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/users"
)

type stubUserRepo struct {
	byUsername map[string]users.User
	lastLogin  map[int64]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byUsername: map[string]users.User{}, lastLogin: map[int64]time.Time{}}
}

func (s *stubUserRepo) add(t *testing.T, id int64, username, password, role string, enabled bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s.byUsername[username] = users.User{
		ID: id, Username: username, PasswordHash: string(hash), Role: role, Enabled: enabled,
	}
}

func (s *stubUserRepo) FindByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := s.byUsername[username]
	if !ok {
		return users.User{}, fmt.Errorf("%w: user %s", httpx.ErrNotFound, username)
	}
	return u, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id int64) (users.User, error) {
	for _, u := range s.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) Create(_ context.Context, u users.User) (users.User, error) {
	return u, nil
}

func (s *stubUserRepo) UpdateProfile(_ context.Context, id int64, realName, email, phone, avatar string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return nil
}

func (s *stubUserRepo) SetEnabled(_ context.Context, id int64, enabled bool) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) SetRole(_ context.Context, id int64, role string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

func (s *stubUserRepo) List(_ context.Context, limit, offset int) ([]users.User, int, error) {
	return nil, 0, nil
}

func newTestService(t *testing.T) (*Service, *stubUserRepo, *security.TokenService) {
	t.Helper()
	repo := newStubUserRepo()
	tokens := security.NewTokenService("auth-test-secret", time.Hour)
	lookup := security.NewLookup(users.PrincipalSource{Repo: repo}, nil, 0, nil)
	return NewService(repo, tokens, lookup, nil), repo, tokens
}

func TestAuthenticate(t *testing.T) {
	svc, repo, tokens := newTestService(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	ctx := context.Background()

	user, token, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.NotNil(t, user.LastLoginTime)
	assert.Contains(t, repo.lastLogin, int64(7))

	subject, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestAuthenticateFailuresCollapse(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	repo.add(t, 8, "inactive", "password123", "STUDENT", false)
	ctx := context.Background()

	// Unknown user, wrong password, and disabled account are
	// indistinguishable to the caller.
	for _, tc := range []struct{ username, password string }{
		{"ghost", "password123"},
		{"alice", "wrong"},
		{"inactive", "password123"},
	} {
		_, _, err := svc.Authenticate(ctx, tc.username, tc.password)
		assert.ErrorIs(t, err, shared.ErrInvalidCredentials, "%s/%s", tc.username, tc.password)
	}
}

func TestRefreshFromToken(t *testing.T) {
	svc, repo, tokens := newTestService(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	ctx := context.Background()

	_, token, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)

	fresh, err := svc.RefreshFromToken(ctx, token)
	require.NoError(t, err)
	subject, err := tokens.Validate(fresh)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	_, err = svc.RefreshFromToken(ctx, "garbage")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestRefreshRejectsDisabledAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.add(t, 7, "alice", "password123", "TEACHER", true)
	ctx := context.Background()

	_, token, err := svc.Authenticate(ctx, "alice", "password123")
	require.NoError(t, err)

	// Disabled after issuance: the token cannot be exchanged anymore.
	repo.add(t, 7, "alice", "password123", "TEACHER", false)
	_, err = svc.RefreshFromToken(ctx, token)
	assert.ErrorIs(t, err, security.ErrAccountDisabled)

	delete(repo.byUsername, "alice")
	_, err = svc.RefreshFromToken(ctx, token)
	assert.ErrorIs(t, err, security.ErrAccountNotFound)
}
