package domain

import (
	"strings"

	dErrors "dossier/pkg/domain-errors"
)

// Role decides which surfaces an identity may reach.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleApplicant    Role = "applicant"
)

// ParseRole accepts the three known roles, case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollaborator, RoleApplicant:
		return true
	}
	return false
}

// IsStaff reports whether the role reviews dossiers rather than filling one in.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCollaborator
}
