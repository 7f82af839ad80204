// Package types holds the review-side views of accounts and dossiers.
package types

import (
	"time"

	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
)

type ReviewApplicant struct {
	ID                id.ApplicantID
	Name              string
	Email             string
	Role              id.Role
	CompletedSections []int
	HasApplication    bool
	CreatedAt         time.Time
}

type ReviewApplication struct {
	ID          id.ApplicationID
	ApplicantID id.ApplicantID
	Kind        models.Kind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicantOverview is one row of the staff listing.
type ApplicantOverview struct {
	Applicant    *ReviewApplicant
	Applications []*ReviewApplication
}
