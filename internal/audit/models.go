package audit

import (
	"time"

	id "dossier/pkg/domain"
)

// Category routes events to retention tiers downstream.
type Category string

const (
	// CategoryCompliance covers account lifecycle and dossier deletion.
	CategoryCompliance Category = "compliance"
	// CategorySecurity covers authentication outcomes and role denials.
	CategorySecurity Category = "security"
	// CategoryOperations covers routine dossier editing.
	CategoryOperations Category = "operations"
)

type Action string

const (
	ActionApplicantRegistered Action = "applicant_registered"
	ActionAccountProvisioned  Action = "account_provisioned"
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginFailed         Action = "login_failed"
	ActionLoginLocked         Action = "login_locked"
	ActionLoggedOut           Action = "logged_out"
	ActionPasswordChanged     Action = "password_changed"
	ActionAccessDenied        Action = "access_denied"

	ActionSectionSaved       Action = "section_saved"
	ActionSectionSubmitted   Action = "section_submitted"
	ActionApplicationCreated Action = "application_created"
	ActionApplicationDeleted Action = "application_deleted"
	ActionItemCreated        Action = "collection_item_created"
	ActionItemDeleted        Action = "collection_item_deleted"
)

var categories = map[Action]Category{
	ActionApplicantRegistered: CategoryCompliance,
	ActionAccountProvisioned:  CategoryCompliance,
	ActionApplicationDeleted:  CategoryCompliance,
	ActionPasswordChanged:     CategorySecurity,
	ActionLoginSucceeded:      CategorySecurity,
	ActionLoginFailed:         CategorySecurity,
	ActionLoginLocked:         CategorySecurity,
	ActionLoggedOut:           CategorySecurity,
	ActionAccessDenied:        CategorySecurity,
}

// CategoryOf returns the category of action; unknown actions are operations.
func CategoryOf(action Action) Category {
	if c, ok := categories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Event is one audit record. ActorID is who acted; ApplicantID is whose
// data was touched, which differs for staff actions.
type Event struct {
	Action        Action           `json:"action"`
	Category      Category         `json:"category"`
	Timestamp     time.Time        `json:"timestamp"`
	ActorID       id.ApplicantID   `json:"actor_id"`
	ApplicantID   id.ApplicantID   `json:"applicant_id"`
	ApplicationID id.ApplicationID `json:"application_id"`
	Section       *int             `json:"section,omitempty"`
	Collection    string           `json:"collection,omitempty"`
	Email         string           `json:"email,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	ClientIP      string           `json:"client_ip,omitempty"`
	Device        string           `json:"device,omitempty"`
}

// SectionRef returns a pointer for Event.Section.
func SectionRef(section int) *int { return &section }
