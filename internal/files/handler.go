package files

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursehub/coursehub/internal/platform/httpx"
)

// Handler serves stored files. The /files/ prefix is on the gate's allow-list,
// matching the original deployment where file downloads are public links.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers file-serving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{name}", h.download)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := h.service.Path(name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}
