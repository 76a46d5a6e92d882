package files

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// StoredFile describes a file persisted to the upload directory.
type StoredFile struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

// Service stores uploads on local disk under a generated name so client-chosen
// names never reach the filesystem.
type Service struct {
	dir         string
	maxSize     int64
	allowedExts map[string]struct{}
}

// NewService constructs a Service rooted at dir.
func NewService(dir string, maxSize int64, allowedExts []string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: create upload dir: %w", err)
	}
	exts := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Service{dir: dir, maxSize: maxSize, allowedExts: exts}, nil
}

// Save validates and persists one multipart upload.
func (s *Service) Save(file multipart.File, header *multipart.FileHeader) (StoredFile, error) {
	if header.Size > s.maxSize {
		return StoredFile{}, fmt.Errorf("%w: file exceeds %d bytes", httpx.ErrValidation, s.maxSize)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if len(s.allowedExts) > 0 {
		if _, ok := s.allowedExts[ext]; !ok {
			return StoredFile{}, fmt.Errorf("%w: file type %q not allowed", httpx.ErrValidation, ext)
		}
	}

	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return StoredFile{}, fmt.Errorf("files: create: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1))
	if err != nil {
		return StoredFile{}, fmt.Errorf("files: write: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(dst.Name())
		return StoredFile{}, fmt.Errorf("%w: file exceeds %d bytes", httpx.ErrValidation, s.maxSize)
	}
	return StoredFile{Name: name, OriginalName: header.Filename, Size: written}, nil
}

// Path resolves a stored name to its on-disk path, rejecting traversal.
func (s *Service) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", httpx.ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", httpx.ErrNotFound
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Service) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
