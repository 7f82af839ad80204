package adapters

import (
	"context"

	"dossier/internal/admin/types"
	authModels "dossier/internal/auth/models"
	id "dossier/pkg/domain"
)

// AuthApplicantStore is the subset of the account store the review side reads.
type AuthApplicantStore interface {
	List(ctx context.Context) ([]*authModels.Applicant, error)
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*authModels.Applicant, error)
}

// ApplicantStoreAdapter hides credentials and other account internals from
// the review service.
type ApplicantStoreAdapter struct {
	store AuthApplicantStore
}

func NewApplicantStoreAdapter(store AuthApplicantStore) *ApplicantStoreAdapter {
	return &ApplicantStoreAdapter{store: store}
}

func (a *ApplicantStoreAdapter) List(ctx context.Context) ([]*types.ReviewApplicant, error) {
	applicants, err := a.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.ReviewApplicant, len(applicants))
	for i, ap := range applicants {
		out[i] = mapApplicant(ap)
	}
	return out, nil
}

func (a *ApplicantStoreAdapter) FindByID(ctx context.Context, applicantID id.ApplicantID) (*types.ReviewApplicant, error) {
	applicant, err := a.store.FindByID(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	return mapApplicant(applicant), nil
}

func mapApplicant(a *authModels.Applicant) *types.ReviewApplicant {
	return &types.ReviewApplicant{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Role:              a.Role,
		CompletedSections: a.CompletedSections.Sorted(),
		HasApplication:    a.HasApplication,
		CreatedAt:         a.CreatedAt,
	}
}
