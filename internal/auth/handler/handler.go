package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dossier/internal/auth/guard"
	"dossier/internal/auth/models"
	"dossier/internal/auth/service"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/httputil"
	"dossier/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.Applicant, error)
	CreateAccount(ctx context.Context, req service.AccountRequest) (*models.Applicant, string, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, req service.ChangePasswordRequest) error
}

type Handler struct {
	accounts Service
	guard    *guard.Guard
	logger   *slog.Logger
}

func New(accounts Service, g *guard.Guard, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, guard: g, logger: logger}
}

// Register mounts the authentication and account administration routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireIdentity)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireRole(id.RoleAdmin))
			r.Post("/admin/accounts", h.handleCreateAccount)
			r.Put("/admin/password", h.handleChangePassword)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Applicant   models.Summary `json:"applicant"`
}

type accountResponse struct {
	Applicant         models.Summary `json:"applicant"`
	GeneratedPassword string         `json:"generated_password,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req service.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request", "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	applicant, err := h.accounts.Register(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accountResponse{Applicant: applicant.Summary()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Applicant:   result.Applicant.Summary(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.AccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	applicant, generated, err := h.accounts.CreateAccount(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, accountResponse{
		Applicant:         applicant.Summary(),
		GeneratedPassword: generated,
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "password changed")
}
