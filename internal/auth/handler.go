package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-api/gatehouse/internal/platform/httpx"
)

// Handler wires the token endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	loginTTL  time.Duration
}

// NewHandler constructs a Handler. loginTTL applies when a login request
// does not ask for a duration.
func NewHandler(logger *slog.Logger, service *Service, loginTTL time.Duration) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		loginTTL:  loginTTL,
	}
}

// MountRoutes registers token routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tokens", h.handleLogin)
	r.Delete("/tokens", h.handleLogout)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Duration int64  `json:"duration" validate:"omitempty,gt=0"`
}

type tokenResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "json body required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Reject(w, http.StatusForbidden, "login error")
		return
	}
	principal, err := h.service.VerifyPassword(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Reject(w, http.StatusForbidden, "login error")
		return
	}
	subject, ok := principal.Subject()
	if !ok {
		httpx.Reject(w, http.StatusForbidden, "login error")
		return
	}

	ttl := h.loginTTL
	if req.Duration > 0 {
		ttl = time.Duration(req.Duration) * time.Second
	}
	token, err := h.service.IssueToken(subject.ID, ttl)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("issue token", slog.Any("error", err))
		}
		httpx.Reject(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.OK(w, tokenResult{
		ID:       subject.ID,
		Username: subject.Username,
		Email:    subject.Email,
		Token:    token,
	})
}

// handleLogout acknowledges the request. Tokens are stateless and expire on
// their own; there is nothing server-side to tear down.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w)
}
