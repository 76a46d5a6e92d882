package enrollment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/users"
)

type mockRepository struct {
	enrolled map[[2]int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{enrolled: map[[2]int64]bool{}}
}

func (m *mockRepository) Enroll(_ context.Context, studentID, courseID int64) error {
	key := [2]int64{studentID, courseID}
	if m.enrolled[key] {
		return shared.ErrAlreadyEnrolled
	}
	m.enrolled[key] = true
	return nil
}

func (m *mockRepository) Drop(_ context.Context, studentID, courseID int64) error {
	delete(m.enrolled, [2]int64{studentID, courseID})
	return nil
}

func (m *mockRepository) ListByStudent(_ context.Context, studentID int64) ([]Enrollment, error) {
	var out []Enrollment
	for key := range m.enrolled {
		if key[0] == studentID {
			out = append(out, Enrollment{StudentID: key[0], CourseID: key[1]})
		}
	}
	return out, nil
}

func (m *mockRepository) ListStudents(_ context.Context, courseID int64) ([]Student, error) {
	var out []Student
	for key := range m.enrolled {
		if key[1] == courseID {
			out = append(out, Student{ID: key[0]})
		}
	}
	return out, nil
}

func (m *mockRepository) IsEnrolled(_ context.Context, studentID, courseID int64) (bool, error) {
	return m.enrolled[[2]int64{studentID, courseID}], nil
}

type stubCourseRepo struct {
	byID map[int64]courses.Course
}

func (s *stubCourseRepo) FindByID(_ context.Context, id int64) (courses.Course, error) {
	c, ok := s.byID[id]
	if !ok {
		return courses.Course{}, httpx.ErrNotFound
	}
	return c, nil
}

func (s *stubCourseRepo) FindOwningTeacherID(_ context.Context, id int64) (int64, error) {
	c, ok := s.byID[id]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	return c.TeacherID, nil
}

func (s *stubCourseRepo) Create(_ context.Context, name, description string, teacherID int64) (courses.Course, error) {
	return courses.Course{}, nil
}

func (s *stubCourseRepo) Update(_ context.Context, id int64, name, description string) (courses.Course, error) {
	return courses.Course{}, httpx.ErrNotFound
}

func (s *stubCourseRepo) Delete(_ context.Context, id int64) error { return nil }

func (s *stubCourseRepo) List(_ context.Context, teacherID int64, limit, offset int) ([]courses.Course, int, error) {
	return nil, 0, nil
}

type stubUserRepo struct {
	byID map[int64]users.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id int64) (users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) FindByUsername(_ context.Context, username string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) Create(_ context.Context, u users.User) (users.User, error) { return u, nil }

func (s *stubUserRepo) UpdateProfile(_ context.Context, id int64, realName, email, phone, avatar string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return nil
}

func (s *stubUserRepo) SetEnabled(_ context.Context, id int64, enabled bool) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) SetRole(_ context.Context, id int64, role string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}

func (s *stubUserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error { return nil }

func (s *stubUserRepo) List(_ context.Context, limit, offset int) ([]users.User, int, error) {
	return nil, 0, nil
}

// newRosterRouter wires course 3 owned by teacher 7, student account 2, and a
// teacher account 9 with no courses.
func newRosterRouter(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	courseRepo := &stubCourseRepo{byID: map[int64]courses.Course{
		3: {ID: 3, Name: "Algorithms", TeacherID: 7},
	}}
	userRepo := &stubUserRepo{byID: map[int64]users.User{
		2: {ID: 2, Username: "bob", Role: "STUDENT", Enabled: true},
		9: {ID: 9, Username: "carol", Role: "TEACHER", Enabled: true},
	}}
	owners := security.NewOwnershipChecker(nil)
	owners.Register(security.TypeCourse, courseRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, NewService(repo, courseRepo, userRepo), owners)

	r := chi.NewRouter()
	r.Route("/courses", h.MountRoutes)
	return r, repo
}

func rosterRequest(method, target string, p security.Principal) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(security.ContextWithPrincipal(req.Context(), p))
}

func TestAddStudentToRoster(t *testing.T) {
	router, repo := newRosterRouter(t)
	owner := security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/2", owner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, repo.enrolled[[2]int64{2, 3}])

	// Re-adding the same student conflicts.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/2", owner))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAddStudentRejections(t *testing.T) {
	router, repo := newRosterRouter(t)
	owner := security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true}
	stranger := security.Principal{ID: 9, Username: "carol", Role: security.RoleTeacher, Enabled: true}
	student := security.Principal{ID: 2, Username: "bob", Role: security.RoleStudent, Enabled: true}

	t.Run("non-owner teacher", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/2", stranger))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, repo.enrolled[[2]int64{2, 3}])
	})

	t.Run("student role", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/2", student))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/404", owner))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("target not a student", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, rosterRequest(http.MethodPost, "/courses/3/students/9", owner))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRemoveStudentFromRoster(t *testing.T) {
	router, repo := newRosterRouter(t)
	repo.enrolled[[2]int64{2, 3}] = true

	owner := security.Principal{ID: 7, Username: "alice", Role: security.RoleTeacher, Enabled: true}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, rosterRequest(http.MethodDelete, "/courses/3/students/2", owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.enrolled[[2]int64{2, 3}])

	// Admin bypasses the ownership requirement.
	repo.enrolled[[2]int64{2, 3}] = true
	admin := security.Principal{ID: 1, Username: "root", Role: security.RoleAdmin, Enabled: true}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, rosterRequest(http.MethodDelete, "/courses/3/students/2", admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.enrolled[[2]int64{2, 3}])
}
