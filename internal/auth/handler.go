package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursehub/coursehub/internal/platform/httpx"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	users     *users.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, userService *users.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		users:     userService,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes. Login, register, and refresh sit on the
// gate's allow-list; current-user and logout require a bound principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/refresh", h.handleRefresh)
	r.Get("/current-user", h.handleCurrentUser)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=TEACHER STUDENT teacher student"`
	RealName string `json:"realName" validate:"max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, token, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Unauthorized(w, err.Error())
			return
		}
		h.logger.Error("login", slog.String("username", req.Username), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login ok", slog.String("username", user.Username))
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.Register(r.Context(), req.Username, req.Password, req.Role, req.RealName, req.Email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("register ok", slog.String("username", user.Username))
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		httpx.Unauthorized(w, "missing bearer token")
		return
	}
	fresh, err := h.service.RefreshFromToken(r.Context(), token)
	if err != nil {
		httpx.Unauthorized(w, "invalid token")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": fresh})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := security.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Unauthorized(w, "authentication required")
		return
	}
	user, err := h.users.Get(r.Context(), principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// handleLogout exists for client symmetry. Tokens are stateless; the client
// discards its copy and the token ages out at expiry.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
