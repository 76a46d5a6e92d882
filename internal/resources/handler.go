package resources

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
)

const maxUploadMemory = 32 << 20

// Handler manages teaching-resource endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	owners  *security.OwnershipChecker
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, owners *security.OwnershipChecker) *Handler {
	return &Handler{logger: logger, service: service, owners: owners}
}

// MountRoutes registers resource routes. Listings and downloads require an
// authenticated role; metadata mutations and deletion require the teacher or
// admin role plus ownership of the resource's parent course.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(
			string(security.RoleTeacher), string(security.RoleAdmin), string(security.RoleStudent)))
		r.Get("/", h.listByCourse)
		r.Get("/{id}", h.get)
		r.Get("/{id}/download", h.download)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Post("/", h.upload)
	})

	r.Group(func(r chi.Router) {
		r.Use(security.RequireRole(string(security.RoleTeacher), string(security.RoleAdmin)))
		r.Use(h.owners.RequireOwner("id", security.TypeResource))
		r.Put("/{id}", h.updateMeta)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid resource id")
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
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
	httpx.JSON(w, http.StatusOK, map[string]any{"resources": list})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	courseID, err := strconv.ParseInt(r.FormValue("courseId"), 10, 64)
	if err != nil || courseID <= 0 {
		httpx.Error(w, http.StatusBadRequest, "courseId form field required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "file form field required")
		return
	}
	defer file.Close()

	res, err := h.service.Upload(r.Context(), principal, courseID,
		r.FormValue("name"), r.FormValue("description"), file, header)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("resource uploaded",
		slog.Int64("course", courseID), slog.Int64("resource", res.ID),
		slog.String("by", principal.Username))
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) updateMeta(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid resource id")
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.service.UpdateMeta(r.Context(), id, req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid resource id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid resource id")
		return
	}
	res, path, err := h.service.Download(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.OriginalName))
	http.ServeFile(w, r, path)
}
