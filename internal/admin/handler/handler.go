// Package handler exposes the staff review routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dossier/internal/admin/types"
	"dossier/internal/auth/guard"
	dossierhandler "dossier/internal/dossier/handler"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/httputil"
)

type Service interface {
	ListApplicants(ctx context.Context) ([]types.ApplicantOverview, error)
	ApplicantDossiers(ctx context.Context, applicantID id.ApplicantID) (*types.ReviewApplicant, []*models.Dossier, error)
	DeleteApplication(ctx context.Context, appID id.ApplicationID) error
}

type Handler struct {
	review Service
	guard  *guard.Guard
	logger *slog.Logger
}

func New(review Service, g *guard.Guard, logger *slog.Logger) *Handler {
	return &Handler{review: review, guard: g, logger: logger}
}

// Register mounts the review routes. Listing and deletion are admin only;
// collaborators may read a single applicant's dossiers.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireIdentity)

		r.With(h.guard.RequireRole(id.RoleAdmin, id.RoleCollaborator)).
			Get("/admin/applicants/{applicantID}/applications", h.handleApplicantDossiers)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.RequireRole(id.RoleAdmin))
			r.Get("/admin/applicants", h.handleListApplicants)
			r.Delete("/admin/applications/{applicationID}", h.handleDeleteApplication)
		})
	})
}

func (h *Handler) handleListApplicants(w http.ResponseWriter, r *http.Request) {
	rows, err := h.review.ListApplicants(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(rows))
}

type applicantDossiersResponse struct {
	Applicant    ApplicantResponse                    `json:"applicant"`
	Applications []dossierhandler.ApplicationResponse `json:"applications"`
}

func (h *Handler) handleApplicantDossiers(w http.ResponseWriter, r *http.Request) {
	applicantID, err := id.ParseApplicantID(chi.URLParam(r, "applicantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "applicant not found"))
		return
	}
	applicant, dossiers, err := h.review.ApplicantDossiers(r.Context(), applicantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := applicantDossiersResponse{
		Applicant:    toApplicantResponse(applicant),
		Applications: make([]dossierhandler.ApplicationResponse, 0, len(dossiers)),
	}
	for _, d := range dossiers {
		resp.Applications = append(resp.Applications, dossierhandler.NewApplicationResponse(d.Application, d.Collections))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "application not found"))
		return
	}
	if err := h.review.DeleteApplication(r.Context(), appID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "application deleted")
}
