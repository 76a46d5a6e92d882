package submissions

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/coursehub/coursehub/internal/assignments"
	"github.com/coursehub/coursehub/internal/enrollment"
	"github.com/coursehub/coursehub/internal/files"
	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
)

// RepositoryPort defines data access methods for submissions.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Submission, error)
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID int64) (Submission, error)
	Upsert(ctx context.Context, s Submission) (Submission, error)
	Grade(ctx context.Context, id int64, score int, feedback string, at time.Time) (Submission, error)
	ListByAssignment(ctx context.Context, assignmentID int64) ([]Submission, error)
}

// Service handles submission business logic.
type Service struct {
	repo        RepositoryPort
	assignments assignments.RepositoryPort
	enrollment  enrollment.RepositoryPort
	storage     *files.Service
	owners      *security.OwnershipChecker
	audit       *shared.AuditLogger
	now         func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, assignmentRepo assignments.RepositoryPort, enrollmentRepo enrollment.RepositoryPort, storage *files.Service, owners *security.OwnershipChecker, audit *shared.AuditLogger) *Service {
	return &Service{
		repo:        repo,
		assignments: assignmentRepo,
		enrollment:  enrollmentRepo,
		storage:     storage,
		owners:      owners,
		audit:       audit,
		now:         time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit records the student's answer. The assignment must be published and
// the student enrolled in its course. A submission after the deadline is
// accepted but marked LATE; a graded submission cannot be replaced.
func (s *Service) Submit(ctx context.Context, studentID, assignmentID int64, content string, file multipart.File, header *multipart.FileHeader) (Submission, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	switch assignment.Status {
	case assignments.StatusPublished:
	case assignments.StatusClosed:
		return Submission{}, shared.ErrDeadlinePassed
	default:
		return Submission{}, httpx.ErrNotFound
	}

	enrolled, err := s.enrollment.IsEnrolled(ctx, studentID, assignment.CourseID)
	if err != nil {
		return Submission{}, err
	}
	if !enrolled {
		return Submission{}, httpx.ErrForbidden
	}

	if existing, err := s.repo.FindByAssignmentAndStudent(ctx, assignmentID, studentID); err == nil {
		if existing.Status == StatusGraded {
			return Submission{}, fmt.Errorf("%w: submission already graded", httpx.ErrValidation)
		}
	}

	sub := Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      strings.TrimSpace(content),
		Status:       StatusSubmitted,
		SubmittedAt:  s.now().UTC(),
	}
	if sub.SubmittedAt.After(assignment.Deadline) {
		sub.Status = StatusLate
	}
	if file != nil && header != nil {
		stored, err := s.storage.Save(file, header)
		if err != nil {
			return Submission{}, err
		}
		sub.FileName = stored.Name
		sub.OriginalName = stored.OriginalName
	}
	if sub.Content == "" && sub.FileName == "" {
		return Submission{}, fmt.Errorf("%w: submission needs content or a file", httpx.ErrValidation)
	}
	return s.repo.Upsert(ctx, sub)
}

// Grade records score and feedback. The grader must own the submission's
// assignment; the ownership checker applies the admin bypass.
func (s *Service) Grade(ctx context.Context, p security.Principal, submissionID int64, score int, feedback string) (Submission, error) {
	if score < 0 || score > 100 {
		return Submission{}, fmt.Errorf("%w: score must be 0-100", httpx.ErrValidation)
	}
	sub, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if err := s.owners.Check(ctx, p, security.TypeAssignment, sub.AssignmentID); err != nil {
		return Submission{}, httpx.ErrForbidden
	}
	graded, err := s.repo.Grade(ctx, submissionID, score, feedback, s.now().UTC())
	if err != nil {
		return Submission{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID: p.ID, Action: "grade", Entity: "submission",
		EntityID: fmt.Sprintf("%d", submissionID), Meta: map[string]any{"score": score},
	})
	return graded, nil
}

// MySubmission returns the student's own submission for an assignment.
func (s *Service) MySubmission(ctx context.Context, studentID, assignmentID int64) (Submission, error) {
	return s.repo.FindByAssignmentAndStudent(ctx, assignmentID, studentID)
}

// ListByAssignment returns every submission for an assignment. Assignment
// ownership is enforced at the route.
func (s *Service) ListByAssignment(ctx context.Context, assignmentID int64) ([]Submission, error) {
	return s.repo.ListByAssignment(ctx, assignmentID)
}
