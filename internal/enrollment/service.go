package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/users"
)

// RepositoryPort defines data access methods for enrollments.
type RepositoryPort interface {
	Enroll(ctx context.Context, studentID, courseID int64) error
	Drop(ctx context.Context, studentID, courseID int64) error
	ListByStudent(ctx context.Context, studentID int64) ([]Enrollment, error)
	ListStudents(ctx context.Context, courseID int64) ([]Student, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
}

// Service handles enrollment business logic.
type Service struct {
	repo    RepositoryPort
	courses courses.RepositoryPort
	users   users.RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, courseRepo courses.RepositoryPort, userRepo users.RepositoryPort) *Service {
	return &Service{repo: repo, courses: courseRepo, users: userRepo}
}

// Enroll registers the student in a course after confirming it exists.
func (s *Service) Enroll(ctx context.Context, studentID, courseID int64) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return httpx.ErrNotFound
		}
		return err
	}
	return s.repo.Enroll(ctx, studentID, courseID)
}

// Drop removes the student's enrollment.
func (s *Service) Drop(ctx context.Context, studentID, courseID int64) error {
	return s.repo.Drop(ctx, studentID, courseID)
}

// AddStudent enrolls an account on a student's behalf. The target must exist
// and carry the STUDENT role; course ownership is enforced at the route.
func (s *Service) AddStudent(ctx context.Context, studentID, courseID int64) error {
	target, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if !security.Role(target.Role).Equals(string(security.RoleStudent)) {
		return fmt.Errorf("%w: target account is not a student", httpx.ErrValidation)
	}
	return s.Enroll(ctx, studentID, courseID)
}

// RemoveStudent drops an enrollment on a student's behalf.
func (s *Service) RemoveStudent(ctx context.Context, studentID, courseID int64) error {
	return s.repo.Drop(ctx, studentID, courseID)
}

// MyCourses returns the student's enrollments.
func (s *Service) MyCourses(ctx context.Context, studentID int64) ([]Enrollment, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

// Roster returns the enrolled students for one course.
func (s *Service) Roster(ctx context.Context, courseID int64) ([]Student, error) {
	return s.repo.ListStudents(ctx, courseID)
}
