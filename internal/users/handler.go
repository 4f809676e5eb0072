package users

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse-api/gatehouse/internal/platform/httpx"
	"github.com/gatehouse-api/gatehouse/internal/rbac"
)

// TokenIssuer mints the token returned on successful registration.
// Implemented by the auth service.
type TokenIssuer interface {
	IssueToken(subjectID int64, ttl time.Duration) (string, error)
}

// AuditTrail records administrative mutations. Implemented by the audit
// service; recording is best-effort.
type AuditTrail interface {
	AdminAction(ctx context.Context, actorID int64, action string, targetID int64)
}

// Handler wires user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    TokenIssuer
	audit     AuditTrail
	rbac      rbac.Middleware
	validator *validator.Validate
	tokenTTL  time.Duration
}

// NewHandler builds a Handler instance. audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, tokens TokenIssuer, audit AuditTrail, guard rbac.Middleware, tokenTTL time.Duration) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		audit:     audit,
		rbac:      guard,
		validator: validator.New(),
		tokenTTL:  tokenTTL,
	}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/users", h.createUser)
	r.Get("/users/{id}", h.getUser)
	r.Put("/users", h.updateProfile)
	r.Put("/users/password", h.changePassword)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.PermAdmin))
		r.Get("/users", h.listUsers)
		r.Put("/users/{id}/role", h.assignRole)
		r.Delete("/users/{id}", h.deleteUser)
	})
}

type userResult struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token,omitempty"`
}

func toResult(u User) userResult {
	return userResult{ID: u.ID, Username: u.Username, Email: u.Email}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=32"`
	Password string `json:"password" validate:"required,min=6"`
	Duration int64  `json:"duration" validate:"omitempty,gt=0"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "json body required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "missing arguments, require: email, username, password")
		return
	}
	user, err := h.service.CreatePrincipal(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	ttl := h.tokenTTL
	if req.Duration > 0 {
		ttl = time.Duration(req.Duration) * time.Second
	}
	token, err := h.tokens.IssueToken(user.ID, ttl)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Reject(w, http.StatusInternalServerError, "internal error")
		return
	}
	result := toResult(*user)
	result.Token = token
	httpx.OK(w, result)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Reject(w, http.StatusBadRequest, "invalid user id")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, toResult(*user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	results := make([]any, 0, len(list))
	for _, u := range list {
		results = append(results, toResult(u))
	}
	httpx.OK(w, results...)
}

type updateProfileRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	subject, ok := rbac.PrincipalFromContext(r.Context()).Subject()
	if !ok {
		httpx.Reject(w, http.StatusForbidden, "unauthorized")
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "json body required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "can not modify")
		return
	}
	if err := h.service.UpdateEmail(r.Context(), subject.ID, req.Email); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w)
}

type changePasswordRequest struct {
	OldPassword string `json:"oldpassword" validate:"required"`
	NewPassword string `json:"newpassword" validate:"required,min=6"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	subject, ok := rbac.PrincipalFromContext(r.Context()).Subject()
	if !ok {
		httpx.Reject(w, http.StatusForbidden, "unauthorized")
		return
	}
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "json body required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "can not modify")
		return
	}
	if err := h.service.ChangePassword(r.Context(), subject.ID, req.OldPassword, req.NewPassword); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w)
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Reject(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "json body required")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Reject(w, http.StatusBadRequest, "role required")
		return
	}
	if err := h.service.AssignRole(r.Context(), id, req.Role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAdminAction(r, "user.role_assign", id)
	httpx.OK(w)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Reject(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordAdminAction(r, "user.delete", id)
	httpx.OK(w)
}

func (h *Handler) recordAdminAction(r *http.Request, action string, targetID int64) {
	if h.audit == nil {
		return
	}
	if subject, ok := rbac.PrincipalFromContext(r.Context()).Subject(); ok {
		h.audit.AdminAction(r.Context(), subject.ID, action, targetID)
	}
}
