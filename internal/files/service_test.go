package files

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

func multipartUpload(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

func TestSave(t *testing.T) {
	svc, err := NewService(t.TempDir(), 1024, []string{"pdf", ".txt"})
	require.NoError(t, err)

	file, header := multipartUpload(t, "notes.txt", []byte("chapter one"))
	stored, err := svc.Save(file, header)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", stored.OriginalName)
	assert.NotEqual(t, "notes.txt", stored.Name, "stored name must be generated")
	assert.Equal(t, ".txt", filepath.Ext(stored.Name))
	assert.Equal(t, int64(len("chapter one")), stored.Size)

	path, err := svc.Path(stored.Name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "chapter one", string(data))
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	svc, err := NewService(t.TempDir(), 1024, []string{"pdf"})
	require.NoError(t, err)

	file, header := multipartUpload(t, "payload.exe", []byte("MZ"))
	_, err = svc.Save(file, header)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	svc, err := NewService(t.TempDir(), 8, []string{"txt"})
	require.NoError(t, err)

	file, header := multipartUpload(t, "big.txt", bytes.Repeat([]byte("a"), 64))
	_, err = svc.Save(file, header)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestPathRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir, 1024, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("x"), 0o644))

	for _, name := range []string{"", "../real.txt", "../../etc/passwd", "a/b.txt"} {
		_, err := svc.Path(name)
		assert.ErrorIs(t, err, httpx.ErrNotFound, "name %q", name)
	}

	path, err := svc.Path("real.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "real.txt"), path)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir, 1024, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("x"), 0o644))
	require.NoError(t, svc.Remove("gone.txt"))
	_, err = os.Stat(filepath.Join(dir, "gone.txt"))
	assert.True(t, os.IsNotExist(err))

	// Missing files and traversal attempts are silently ignored.
	assert.NoError(t, svc.Remove("gone.txt"))
	assert.NoError(t, svc.Remove("../outside.txt"))
}
