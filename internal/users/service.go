package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, u User) (User, error)
	UpdateProfile(ctx context.Context, id int64, realName, email, phone, avatar string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	SetEnabled(ctx context.Context, id int64, enabled bool) (User, error)
	SetRole(ctx context.Context, id int64, role string) (User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]User, int, error)
}

// Service handles user business logic. Every account mutation evicts that
// username's entry from the principal lookup cache so the authentication gate
// never binds a stale snapshot beyond the cache TTL.
type Service struct {
	repo   RepositoryPort
	lookup *security.Lookup
	audit  *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, lookup *security.Lookup, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, lookup: lookup, audit: audit}
}

func validRole(role string) bool {
	switch strings.ToUpper(role) {
	case string(security.RoleAdmin), string(security.RoleTeacher), string(security.RoleStudent):
		return true
	}
	return false
}

// Register creates a new account with a hashed password. Self-registration is
// limited to TEACHER and STUDENT roles; administrators are provisioned out of
// band.
func (s *Service) Register(ctx context.Context, username, password, role, realName, email string) (User, error) {
	username = strings.TrimSpace(username)
	role = strings.ToUpper(strings.TrimSpace(role))
	if !validRole(role) || role == string(security.RoleAdmin) {
		return User{}, fmt.Errorf("%w: invalid role", httpx.ErrValidation)
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return User{}, fmt.Errorf("%w: username taken", httpx.ErrDuplicate)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Create(ctx, User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		RealName:     realName,
		Email:        email,
		Enabled:      true,
	})
	if err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: created.ID, Action: "register", Entity: "user",
		EntityID: created.Username,
	})
	return created, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByUsername fetches a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

// UpdateProfile updates profile fields and evicts the cached principal.
func (s *Service) UpdateProfile(ctx context.Context, id int64, realName, email, phone, avatar string) (User, error) {
	updated, err := s.repo.UpdateProfile(ctx, id, realName, email, phone, avatar)
	if err != nil {
		return User{}, err
	}
	if err := s.lookup.Evict(ctx, updated.Username); err != nil {
		return User{}, err
	}
	return updated, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: current password incorrect", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	return s.lookup.Evict(ctx, user.Username)
}

// SetEnabled enables or disables an account and evicts the cached principal so
// the change is visible to the gate on the next lookup.
func (s *Service) SetEnabled(ctx context.Context, actorID, id int64, enabled bool) (User, error) {
	updated, err := s.repo.SetEnabled(ctx, id, enabled)
	if err != nil {
		return User{}, err
	}
	if err := s.lookup.Evict(ctx, updated.Username); err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "set_enabled", Entity: "user",
		EntityID: updated.Username, Meta: map[string]any{"enabled": enabled},
	})
	return updated, nil
}

// SetRole changes an account's role and evicts the cached principal.
func (s *Service) SetRole(ctx context.Context, actorID, id int64, role string) (User, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !validRole(role) {
		return User{}, fmt.Errorf("%w: invalid role", httpx.ErrValidation)
	}
	updated, err := s.repo.SetRole(ctx, id, role)
	if err != nil {
		return User{}, err
	}
	if err := s.lookup.Evict(ctx, updated.Username); err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: actorID, Action: "set_role", Entity: "user",
		EntityID: updated.Username, Meta: map[string]any{"role": role},
	})
	return updated, nil
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// PrincipalSource adapts the user repository to the security.AccountSource
// interface consumed by the lookup cache.
type PrincipalSource struct {
	Repo RepositoryPort
}

// FindByUsername resolves a username to a principal snapshot.
func (s PrincipalSource) FindByUsername(ctx context.Context, username string) (security.Principal, error) {
	user, err := s.Repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return security.Principal{}, security.ErrAccountNotFound
		}
		return security.Principal{}, err
	}
	return security.Principal{
		ID:       user.ID,
		Username: user.Username,
		Role:     security.Role(user.Role),
		Enabled:  user.Enabled,
	}, nil
}
