package resources

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/files"
	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
)

// RepositoryPort defines data access methods for resources.
type RepositoryPort interface {
	FindByID(ctx context.Context, id int64) (Resource, error)
	FindOwningTeacherID(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, res Resource) (Resource, error)
	UpdateMeta(ctx context.Context, id int64, name, description string) (Resource, error)
	Delete(ctx context.Context, id int64) error
	IncrementDownloads(ctx context.Context, id int64) error
	ListByCourse(ctx context.Context, courseID int64) ([]Resource, error)
}

// Service handles resource business logic.
type Service struct {
	repo    RepositoryPort
	courses courses.RepositoryPort
	storage *files.Service
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, courseRepo courses.RepositoryPort, storage *files.Service) *Service {
	return &Service{repo: repo, courses: courseRepo, storage: storage}
}

// Get fetches a resource by id.
func (s *Service) Get(ctx context.Context, id int64) (Resource, error) {
	return s.repo.FindByID(ctx, id)
}

// Upload stores the file and records the resource. Course ownership is
// verified here because the course id travels in the form body.
func (s *Service) Upload(ctx context.Context, p security.Principal, courseID int64, name, description string, file multipart.File, header *multipart.FileHeader) (Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resource{}, fmt.Errorf("%w: resource name required", httpx.ErrValidation)
	}
	teacherID, err := s.courses.FindOwningTeacherID(ctx, courseID)
	if err != nil {
		return Resource{}, httpx.ErrForbidden
	}
	if !p.IsAdmin() && teacherID != p.ID {
		return Resource{}, httpx.ErrForbidden
	}

	stored, err := s.storage.Save(file, header)
	if err != nil {
		return Resource{}, err
	}
	res, err := s.repo.Create(ctx, Resource{
		Name:         name,
		Description:  description,
		FileName:     stored.Name,
		OriginalName: stored.OriginalName,
		FileSize:     stored.Size,
		Type:         strings.TrimPrefix(filepath.Ext(stored.OriginalName), "."),
		CourseID:     courseID,
		UploaderID:   p.ID,
	})
	if err != nil {
		_ = s.storage.Remove(stored.Name)
		return Resource{}, err
	}
	return res, nil
}

// UpdateMeta modifies name and description. Ownership is enforced at the route.
func (s *Service) UpdateMeta(ctx context.Context, id int64, name, description string) (Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Resource{}, fmt.Errorf("%w: resource name required", httpx.ErrValidation)
	}
	return s.repo.UpdateMeta(ctx, id, name, description)
}

// Delete removes the record and its stored file.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.storage.Remove(res.FileName)
}

// Download resolves the stored path and counts the download.
func (s *Service) Download(ctx context.Context, id int64) (Resource, string, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Resource{}, "", err
	}
	path, err := s.storage.Path(res.FileName)
	if err != nil {
		return Resource{}, "", err
	}
	_ = s.repo.IncrementDownloads(ctx, id)
	return res, path, nil
}

// ListByCourse returns a course's resources.
func (s *Service) ListByCourse(ctx context.Context, courseID int64) ([]Resource, error) {
	return s.repo.ListByCourse(ctx, courseID)
}
