package assignments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
)

// RepositoryPort defines data access methods for assignments.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Assignment, error)
	FindOwningTeacherID(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Update(ctx context.Context, id int64, title, description string, deadline time.Time) (Assignment, error)
	SetStatus(ctx context.Context, id int64, status string) (Assignment, error)
	Delete(ctx context.Context, id int64) error
	ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error)
}

// Service handles assignment business logic.
type Service struct {
	repo    RepositoryPort
	courses courses.RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, courseRepo courses.RepositoryPort) *Service {
	return &Service{repo: repo, courses: courseRepo}
}

// Get fetches an assignment by id.
func (s *Service) Get(ctx context.Context, id int64) (Assignment, error) {
	return s.repo.FindByID(ctx, id)
}

// Create inserts a draft assignment. The target course id is in the request
// body rather than the route, so course ownership is verified here instead of
// by route middleware.
func (s *Service) Create(ctx context.Context, p security.Principal, courseID int64, title, description string, deadline time.Time) (Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Assignment{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	teacherID, err := s.courses.FindOwningTeacherID(ctx, courseID)
	if err != nil {
		return Assignment{}, httpx.ErrForbidden
	}
	if !p.IsAdmin() && teacherID != p.ID {
		return Assignment{}, httpx.ErrForbidden
	}
	return s.repo.Create(ctx, Assignment{
		Title:       title,
		Description: description,
		CourseID:    courseID,
		Deadline:    deadline,
		Status:      StatusDraft,
	})
}

// Update modifies an assignment. Ownership is enforced at the route.
func (s *Service) Update(ctx context.Context, id int64, title, description string, deadline time.Time) (Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Assignment{}, fmt.Errorf("%w: title required", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, id, title, description, deadline)
}

// SetStatus validates and applies a status transition.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (Assignment, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	switch status {
	case StatusDraft, StatusPublished, StatusClosed:
	default:
		return Assignment{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	return s.repo.SetStatus(ctx, id, status)
}

// Delete removes an assignment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ListByCourse returns a course's assignments.
func (s *Service) ListByCourse(ctx context.Context, courseID int64) ([]Assignment, error) {
	return s.repo.ListByCourse(ctx, courseID)
}
