package courses

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for courses.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Course, error)
	FindOwningTeacherID(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, name, description string, teacherID int64) (Course, error)
	Update(ctx context.Context, id int64, name, description string) (Course, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, teacherID int64, limit, offset int) ([]Course, int, error)
}

// Service handles course business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get fetches a course by id.
func (s *Service) Get(ctx context.Context, id int64) (Course, error) {
	return s.repo.FindByID(ctx, id)
}

// Create inserts a course owned by the given teacher.
func (s *Service) Create(ctx context.Context, name, description string, teacherID int64) (Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Course{}, fmt.Errorf("%w: course name required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, name, description, teacherID)
}

// Update modifies a course. Ownership is enforced at the route.
func (s *Service) Update(ctx context.Context, id int64, name, description string) (Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Course{}, fmt.Errorf("%w: course name required", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, id, name, description)
}

// Delete removes a course.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns a page of courses, optionally restricted to one teacher.
func (s *Service) List(ctx context.Context, teacherID int64, page, perPage int) ([]Course, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, teacherID, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}
