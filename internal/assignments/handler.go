package assignments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
)

// Handler manages assignment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	owners    *security.OwnershipChecker
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, owners *security.OwnershipChecker) *Handler {
	return &Handler{logger: logger, service: service, owners: owners, validator: validator.New()}
}

// MountRoutes registers assignment routes. Mutations require the teacher or
// admin role first and assignment ownership second.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Get("/", h.listByCourse)

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Use(h.owners.RequireOwner("id", security.TypeAssignment))
		r.Put("/{id}", h.update)
		r.Put("/{id}/status", h.setStatus)
		r.Delete("/{id}", h.delete)
	})
}

type assignmentRequest struct {
	Title       string    `json:"title" validate:"required,max=128"`
	Description string    `json:"description" validate:"max=4000"`
	CourseID    int64     `json:"courseId" validate:"required"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

type updateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required,max=128"`
	Description string    `json:"description" validate:"max=4000"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	assignment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) listByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.URL.Query().Get("courseId"), 10, 64)
	if err != nil || courseID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "courseId query parameter required")
		return
	}
	list, err := h.service.ListByCourse(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}
	var req assignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	assignment, err := h.service.Create(r.Context(), principal, req.CourseID, req.Title, req.Description, req.Deadline)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, assignment)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req updateAssignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	assignment, err := h.service.Update(r.Context(), id, req.Title, req.Description, req.Deadline)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	assignment, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
