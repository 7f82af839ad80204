package models

import (
	"time"

	"dossier/internal/dossier/form"
	id "dossier/pkg/domain"
)

// Kind distinguishes the applicant's own dossier from dossiers opened for
// family members travelling with them.
type Kind string

const (
	KindPrimary    Kind = "primary"
	KindAdditional Kind = "additional"
)

// Application is the dossier aggregate's scalar part. Sub-collections are
// loaded separately, per kind.
type Application struct {
	ID          id.ApplicationID
	ApplicantID id.ApplicantID
	Kind        Kind
	// Fixed at creation for additional dossiers; always false on the primary.
	SameAddressAsPrimary    bool
	SameTravelDateAsPrimary bool
	Fields                  form.Values
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// IsPrimary reports whether this is the applicant's own dossier.
func (a *Application) IsPrimary() bool { return a.Kind == KindPrimary }

// Clone returns a copy whose Fields map is independent of a's.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	out.Fields = make(form.Values, len(a.Fields))
	out.Fields.Merge(a.Fields)
	return &out
}

// NewPrimary builds an empty primary dossier with every registry field
// present and empty, then applies fields.
func NewPrimary(owner id.ApplicantID, fields form.Values, now time.Time) *Application {
	return newApplication(owner, KindPrimary, false, false, fields, now)
}

// NewAdditional builds an empty additional dossier with its creation flags.
func NewAdditional(owner id.ApplicantID, sameAddress, sameTravelDate bool, now time.Time) *Application {
	return newApplication(owner, KindAdditional, sameAddress, sameTravelDate, nil, now)
}

func newApplication(owner id.ApplicantID, kind Kind, sameAddress, sameTravelDate bool, fields form.Values, now time.Time) *Application {
	values := form.Values{}
	for _, f := range form.AllFields() {
		if f.Kind == form.KindText {
			values[f.Key] = ""
		} else {
			values[f.Key] = nil
		}
	}
	values.Merge(fields)
	return &Application{
		ID:                      id.NewApplicationID(),
		ApplicantID:             owner,
		Kind:                    kind,
		SameAddressAsPrimary:    sameAddress,
		SameTravelDateAsPrimary: sameTravelDate,
		Fields:                  values,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// Collections holds loaded sub-collections keyed by kind.
type Collections map[form.CollectionKind][]form.Item

// Dossier is an application with every sub-collection loaded.
type Dossier struct {
	Application *Application
	Collections Collections
}
