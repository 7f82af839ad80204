package models

import (
	"strings"
	"time"

	id "dossier/pkg/domain"
)

// Applicant is an account: the applicant filling dossiers, or staff
// (admin, collaborator) reviewing them.
type Applicant struct {
	ID           id.ApplicantID
	Name         string
	Email        string
	PasswordHash string
	Role         id.Role
	// CompletedSections grows as sections pass submit-time validation.
	CompletedSections id.SectionSet
	HasApplication    bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail lowercases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Clone returns a copy with an independent section set.
func (a *Applicant) Clone() *Applicant {
	if a == nil {
		return nil
	}
	out := *a
	out.CompletedSections = a.CompletedSections.Clone()
	return &out
}

// Summary is the applicant as shown to staff and to the applicant itself.
type Summary struct {
	ID                id.ApplicantID `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Role              id.Role        `json:"role"`
	CompletedSections []int          `json:"completed_sections"`
	HasApplication    bool           `json:"has_application"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (a *Applicant) Summary() Summary {
	return Summary{
		ID:                a.ID,
		Name:              a.Name,
		Email:             a.Email,
		Role:              a.Role,
		CompletedSections: a.CompletedSections.Sorted(),
		HasApplication:    a.HasApplication,
		CreatedAt:         a.CreatedAt,
	}
}
