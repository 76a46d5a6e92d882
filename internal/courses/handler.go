package courses

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
)

// Handler manages course endpoints.
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

// MountRoutes registers course routes. Creation needs the teacher or admin
// role; update and delete additionally require ownership of the course, with
// the role check declared first so ineligible callers never trigger a lookup.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Post("/", h.create)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Use(h.owners.RequireOwner("id", security.TypeCourse))
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type courseRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)
	teacherID, _ := strconv.ParseInt(r.URL.Query().Get("teacherId"), 10, 64)
	list, pagination, err := h.service.List(r.Context(), teacherID, page, perPage)
	if err != nil {
		h.logger.Error("list courses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"courses": list, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	course, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}
	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	course, err := h.service.Create(r.Context(), req.Name, req.Description, principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, course)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	var req courseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	course, err := h.service.Update(r.Context(), id, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid course id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
