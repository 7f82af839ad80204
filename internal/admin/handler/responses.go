package handler

import (
	"time"

	"dossier/internal/admin/types"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
)

type ApplicantResponse struct {
	ID                id.ApplicantID `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Role              id.Role        `json:"role"`
	CompletedSections []int          `json:"completed_sections"`
	HasApplication    bool           `json:"has_application"`
	CreatedAt         time.Time      `json:"created_at"`
}

type ApplicationSummaryResponse struct {
	ID        id.ApplicationID `json:"id"`
	Kind      models.Kind      `json:"kind"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type ApplicantOverviewResponse struct {
	ApplicantResponse
	Applications []ApplicationSummaryResponse `json:"applications"`
}

// ApplicantsListResponse wraps the staff listing.
type ApplicantsListResponse struct {
	Applicants []ApplicantOverviewResponse `json:"applicants"`
	Total      int                         `json:"total"`
}

func toApplicantResponse(a *types.ReviewApplicant) ApplicantResponse {
	return ApplicantResponse{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Role:              a.Role,
		CompletedSections: a.CompletedSections,
		HasApplication:    a.HasApplication,
		CreatedAt:         a.CreatedAt,
	}
}

func toListResponse(rows []types.ApplicantOverview) ApplicantsListResponse {
	out := ApplicantsListResponse{Applicants: make([]ApplicantOverviewResponse, 0, len(rows)), Total: len(rows)}
	for _, row := range rows {
		apps := make([]ApplicationSummaryResponse, 0, len(row.Applications))
		for _, app := range row.Applications {
			apps = append(apps, ApplicationSummaryResponse{
				ID: app.ID, Kind: app.Kind, CreatedAt: app.CreatedAt, UpdatedAt: app.UpdatedAt,
			})
		}
		out.Applicants = append(out.Applicants, ApplicantOverviewResponse{
			ApplicantResponse: toApplicantResponse(row.Applicant),
			Applications:      apps,
		})
	}
	return out
}
