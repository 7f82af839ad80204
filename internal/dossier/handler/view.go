package handler

import (
	"strconv"
	"time"

	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
)

// ApplicationResponse is the wire form of a dossier. Sections are keyed by
// index; collections are present only when loaded.
type ApplicationResponse struct {
	ID                      id.ApplicationID               `json:"id"`
	ApplicantID             id.ApplicantID                 `json:"applicant_id"`
	Kind                    models.Kind                    `json:"kind"`
	SameAddressAsPrimary    bool                           `json:"same_address_as_primary"`
	SameTravelDateAsPrimary bool                           `json:"same_travel_date_as_primary"`
	Sections                map[string]map[string]string   `json:"sections"`
	Collections             map[string][]map[string]string `json:"collections,omitempty"`
	CreatedAt               time.Time                      `json:"created_at"`
	UpdatedAt               time.Time                      `json:"updated_at"`
}

func NewApplicationResponse(app *models.Application, collections models.Collections) ApplicationResponse {
	sections := make(map[string]map[string]string, form.SectionCount)
	for _, sec := range form.Sections() {
		sections[strconv.Itoa(sec.Index)] = sec.Encode(app.Fields)
	}
	resp := ApplicationResponse{
		ID:                      app.ID,
		ApplicantID:             app.ApplicantID,
		Kind:                    app.Kind,
		SameAddressAsPrimary:    app.SameAddressAsPrimary,
		SameTravelDateAsPrimary: app.SameTravelDateAsPrimary,
		Sections:                sections,
		CreatedAt:               app.CreatedAt,
		UpdatedAt:               app.UpdatedAt,
	}
	if collections != nil {
		resp.Collections = make(map[string][]map[string]string, len(collections))
		for kind, items := range collections {
			resp.Collections[string(kind)] = EncodeItems(kind, items)
		}
	}
	return resp
}

// EncodeItems renders a collection; an empty collection is an empty array.
func EncodeItems(kind form.CollectionKind, items []form.Item) []map[string]string {
	c, _ := form.CollectionFor(kind)
	out := make([]map[string]string, 0, len(items))
	for _, it := range items {
		out = append(out, c.EncodeItem(it))
	}
	return out
}
