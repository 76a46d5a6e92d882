package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/users"
)

// Service wraps authentication business rules: credential verification and
// token issuance. Token validation lives in the security gate.
type Service struct {
	repo   users.RepositoryPort
	tokens *security.TokenService
	lookup *security.Lookup
	audit  *shared.AuditLogger
}

// NewService constructs a new Service.
func NewService(repo users.RepositoryPort, tokens *security.TokenService, lookup *security.Lookup, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, tokens: tokens, lookup: lookup, audit: audit}
}

// Authenticate validates username/password credentials and returns the user
// with a freshly issued token. Wrong username, wrong password, and disabled
// account all collapse to ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return users.User{}, "", shared.ErrInvalidCredentials
	}
	if !user.Enabled {
		return users.User{}, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, "", shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(security.Principal{
		ID:       user.ID,
		Username: user.Username,
		Role:     security.Role(user.Role),
		Enabled:  user.Enabled,
	})
	if err != nil {
		return users.User{}, "", err
	}

	now := time.Now().UTC()
	_ = s.repo.TouchLastLogin(ctx, user.ID, now)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: user.ID, Action: "login", Entity: "user", EntityID: user.Username,
	})
	user.LastLoginTime = &now
	return user, token, nil
}

// RefreshFromToken exchanges a still-valid token for a fresh one. The subject
// is re-resolved first so a disabled or deleted account cannot extend its
// session.
func (s *Service) RefreshFromToken(ctx context.Context, token string) (string, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return "", err
	}
	principal, err := s.lookup.Resolve(ctx, username)
	if err != nil {
		return "", err
	}
	if !principal.Enabled {
		return "", security.ErrAccountDisabled
	}
	return s.tokens.Issue(principal)
}
