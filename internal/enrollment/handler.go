package enrollment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages enrollment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	owners  *security.OwnershipChecker
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, owners *security.OwnershipChecker) *Handler {
	return &Handler{logger: logger, service: service, owners: owners}
}

// MountRoutes registers enrollment routes under /courses.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleStudent)))
		r.Post("/{id}/enroll", h.enroll)
		r.Delete("/{id}/enroll", h.drop)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Use(h.owners.RequireOwner("id", security.TypeCourse))
		r.Get("/{id}/students", h.roster)
		r.Post("/{id}/students/{studentId}", h.addStudent)
		r.Delete("/{id}/students/{studentId}", h.removeStudent)
	})
}

// MountStudentRoutes registers the student-facing listing.
func (h *Handler) MountStudentRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleStudent)))
		r.Get("/my-courses", h.myCourses)
	})
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	courseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	if err := h.service.Enroll(r.Context(), principal.ID, courseID); err != nil {
		if errors.Is(err, shared.ErrAlreadyEnrolled) {
			httpx.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("enrolled", slog.Int64("student", principal.ID), slog.Int64("course", courseID))
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (h *Handler) drop(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	courseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	if err := h.service.Drop(r.Context(), principal.ID, courseID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "dropped"})
}

func (h *Handler) myCourses(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	list, err := h.service.MyCourses(r.Context(), principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"enrollments": list})
}

func rosterParams(r *http.Request) (courseID, studentID int64, err error) {
	courseID, err = strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, 0, err
	}
	studentID, err = strconv.ParseInt(chi.URLParam(r, "studentId"), 10, 64)
	return courseID, studentID, err
}

func (h *Handler) addStudent(w http.ResponseWriter, r *http.Request) {
	courseID, studentID, err := rosterParams(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.AddStudent(r.Context(), studentID, courseID); err != nil {
		if errors.Is(err, shared.ErrAlreadyEnrolled) {
			httpx.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("student added to roster",
		slog.Int64("student", studentID), slog.Int64("course", courseID))
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "enrolled"})
}

func (h *Handler) removeStudent(w http.ResponseWriter, r *http.Request) {
	courseID, studentID, err := rosterParams(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.RemoveStudent(r.Context(), studentID, courseID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "dropped"})
}

func (h *Handler) roster(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	students, err := h.service.Roster(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"students": students})
}
