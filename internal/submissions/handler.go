package submissions

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
)

const maxUploadMemory = 32 << 20

// Handler manages submission endpoints.
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

// MountRoutes registers submission routes under /assignments.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleStudent)))
		r.Post("/{id}/submissions", h.submit)
		r.Get("/{id}/submissions/mine", h.mySubmission)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Use(h.owners.RequireOwner("id", security.TypeAssignment))
		r.Get("/{id}/submissions", h.listByAssignment)
	})
}

// MountGradeRoutes registers grading under /submissions. Ownership of the
// graded submission's assignment is checked inside the service because the
// route carries the submission id, not the assignment id.
func (h *Handler) MountGradeRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Put("/{id}/grade", h.grade)
	})
}

type gradeRequest struct {
	Score    int    `json:"score" validate:"min=0,max=100"`
	Feedback string `json:"feedback" validate:"max=2000"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	assignmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	var content string
	var file multipart.File
	var header *multipart.FileHeader
	if err := r.ParseMultipartForm(maxUploadMemory); err == nil {
		content = r.FormValue("content")
		if f, fh, err := r.FormFile("file"); err == nil {
			file = f
			header = fh
			defer f.Close()
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		content = req.Content
	}

	sub, err := h.service.Submit(r.Context(), principal.ID, assignmentID, content, file, header)
	if err != nil {
		if errors.Is(err, shared.ErrDeadlinePassed) {
			httpx.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("submission recorded",
		slog.Int64("assignment", assignmentID), slog.Int64("student", principal.ID),
		slog.String("status", sub.Status))
	httpx.JSON(w, http.StatusCreated, sub)
}

func (h *Handler) mySubmission(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	assignmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	sub, err := h.service.MySubmission(r.Context(), principal.ID, assignmentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) listByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	list, err := h.service.ListByAssignment(r.Context(), assignmentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"submissions": list})
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	principal, _ := security.PrincipalFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	var req gradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := h.service.Grade(r.Context(), principal, id, req.Score, req.Feedback)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}
