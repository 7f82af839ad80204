// Package domain holds typed identifiers shared across bounded contexts.
//
// Every identifier is a UUID underneath; distinct types keep an applicant id
// from being passed where an application id is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "dossier/pkg/domain-errors"
)

type (
	ApplicantID   uuid.UUID
	ApplicationID uuid.UUID
	ItemID        uuid.UUID
)

func (id ApplicantID) String() string   { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id ItemID) String() string        { return uuid.UUID(id).String() }

func (id ApplicantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }

func (id ApplicantID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ItemID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }

func (id *ApplicantID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ApplicationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ItemID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }

func NewApplicantID() ApplicantID     { return ApplicantID(uuid.New()) }
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewItemID() ItemID               { return ItemID(uuid.New()) }

// ParseApplicantID parses a non-nil applicant UUID.
func ParseApplicantID(s string) (ApplicantID, error) {
	u, err := parseUUID(s, "applicant id")
	return ApplicantID(u), err
}

// ParseApplicationID parses a non-nil application UUID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application id")
	return ApplicationID(u), err
}

// ParseItemID parses a non-nil sub-record UUID.
func ParseItemID(s string) (ItemID, error) {
	u, err := parseUUID(s, "item id")
	return ItemID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	// uuid.Parse also accepts urn and braced forms; only the canonical 36 char form is allowed here.
	if len(s) != 36 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return u, nil
}
