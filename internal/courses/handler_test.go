package courses

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
)

type mockRepository struct {
	courses map[int64]*Course
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{courses: map[int64]*Course{}, nextID: 1}
}

func (m *mockRepository) FindByID(_ context.Context, id int64) (Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return Course{}, httpx.ErrNotFound
	}
	return *c, nil
}

func (m *mockRepository) FindOwningTeacherID(_ context.Context, id int64) (int64, error) {
	c, ok := m.courses[id]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return c.TeacherID, nil
}

func (m *mockRepository) Create(_ context.Context, name, description string, teacherID int64) (Course, error) {
	c := Course{ID: m.nextID, Name: name, Description: description, TeacherID: teacherID, CreatedAt: time.Now()}
	m.nextID++
	m.courses[c.ID] = &c
	return c, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, name, description string) (Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return Course{}, httpx.ErrNotFound
	}
	c.Name, c.Description = name, description
	return *c, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.courses[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *mockRepository) List(_ context.Context, teacherID int64, limit, offset int) ([]Course, int, error) {
	var out []Course
	for _, c := range m.courses {
		if teacherID == 0 || c.TeacherID == teacherID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func newCourseRouter(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	owners := security.NewOwnershipChecker(nil)
	owners.Register(security.TypeCourse, repo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo), owners)

	r := chi.NewRouter()
	r.Route("/courses", h.MountRoutes)
	return r, repo
}

func asPrincipal(req *http.Request, p security.Principal) *http.Request {
	return req.WithContext(security.ContextWithPrincipal(req.Context(), p))
}

func TestCourseRoutes(t *testing.T) {
	router, repo := newCourseRouter(t)
	_, err := repo.Create(context.Background(), "Algorithms", "", 7)
	require.NoError(t, err)

	teacher := security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true}
	otherTeacher := security.Principal{ID: 9, Username: "carol", Role: security.RoleTeacher, Enabled: true}
	student := security.Principal{ID: 2, Username: "bob", Role: security.RoleStudent, Enabled: true}
	admin := security.Principal{ID: 1, Username: "root", Role: security.RoleAdmin, Enabled: true}

	t.Run("list is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Algorithms")
	})

	t.Run("student cannot create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses/", strings.NewReader(`{"name":"Databases"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asPrincipal(req, student))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("teacher creates own course", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses/", strings.NewReader(`{"name":"Databases"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asPrincipal(req, teacher))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("owner updates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/courses/1", strings.NewReader(`{"name":"Algorithms II"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asPrincipal(req, teacher))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-owner teacher cannot update", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/courses/1", strings.NewReader(`{"name":"Hijacked"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asPrincipal(req, otherTeacher))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "permission denied")
	})

	t.Run("admin deletes any course", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/courses/1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asPrincipal(req, admin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unauthenticated mutation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/courses/2", strings.NewReader(`{"name":"X"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
