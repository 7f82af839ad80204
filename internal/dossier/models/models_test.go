package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dossier/internal/dossier/form"
	id "dossier/pkg/domain"
)

func TestNewPrimaryFillsEveryField(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := NewPrimary(id.NewApplicantID(), form.Values{"full_name": "Maria Souza"}, now)

	assert.True(t, app.IsPrimary())
	assert.Len(t, app.Fields, len(form.AllFields()))
	assert.Equal(t, "Maria Souza", app.Fields["full_name"])
	assert.Equal(t, "", app.Fields["sex"])
	assert.Nil(t, app.Fields["birth_date"])
	assert.Equal(t, now, app.CreatedAt)
}

func TestCloneIsIndependent(t *testing.T) {
	app := NewAdditional(id.NewApplicantID(), true, false, time.Now())
	c := app.Clone()
	c.Fields["full_name"] = "changed"

	assert.Equal(t, "", app.Fields["full_name"])
	assert.True(t, c.SameAddressAsPrimary)
	assert.False(t, c.IsPrimary())
}
