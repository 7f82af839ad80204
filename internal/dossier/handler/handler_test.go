package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"dossier/internal/auth/guard"
	authmodels "dossier/internal/auth/models"
	applicantstore "dossier/internal/auth/store/applicant"
	"dossier/internal/auth/store/revocation"
	"dossier/internal/auth/token"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/service"
	"dossier/internal/dossier/store/application"
	"dossier/internal/dossier/store/item"
	id "dossier/pkg/domain"
	"dossier/pkg/testutil"
)

type DossierHandlerSuite struct {
	suite.Suite
	router     chi.Router
	applicants *applicantstore.InMemoryStore
	tokens     *token.JWTService
	bearer     string
}

func TestDossierHandlerSuite(t *testing.T) {
	suite.Run(t, new(DossierHandlerSuite))
}

func (s *DossierHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.applicants = applicantstore.NewInMemory()
	s.tokens = token.NewJWTService("dossier-handler-test-key", "dossier-test", time.Hour)
	svc := service.New(application.NewInMemory(), item.NewInMemory(), s.applicants, service.NewShardedTx(),
		service.WithLogger(logger))
	s.router = chi.NewRouter()
	New(svc, guard.New(s.tokens, revocation.NewInMemory(), nil, logger), logger).Register(s.router)
	s.bearer = s.login("owner@example.com")
}

func (s *DossierHandlerSuite) login(email string) string {
	now := time.Now()
	a := &authmodels.Applicant{
		ID: id.NewApplicantID(), Name: "Owner", Email: email, PasswordHash: "x",
		Role: id.RoleApplicant, CompletedSections: id.NewSectionSet(), CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.applicants.Create(context.Background(), a))
	issued, err := s.tokens.Issue(a.ID, a.Role)
	s.Require().NoError(err)
	return "Bearer " + issued.Token
}

func (s *DossierHandlerSuite) do(bearer, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = testutil.NewRequest(s.T(), method, path)
	case string:
		req = testutil.NewRequestWithBody(s.T(), method, path, b)
	default:
		req = testutil.NewJSONRequest(s.T(), method, path, b)
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := testutil.DoRequest(s.router, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func completeSection(index int) map[string]any {
	sec, _ := form.SectionAt(index)
	payload := map[string]any{}
	for _, f := range sec.Fields {
		if !f.Required {
			continue
		}
		switch f.Kind {
		case form.KindBool:
			payload[f.Key] = form.TokenFalse
		case form.KindDate:
			payload[f.Key] = "2001-09-10"
		default:
			payload[f.Key] = "value"
		}
	}
	return payload
}

func (s *DossierHandlerSuite) TestRequiresIdentity() {
	rec, body := s.do("", http.MethodPut, "/sections/0", map[string]any{})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("unauthorized", body["error"])
}

func (s *DossierHandlerSuite) TestSectionFlow() {
	s.Run("submit of a later section first sends the caller back", func() {
		rec, body := s.do(s.bearer, http.MethodPost, "/sections/1/submit", completeSection(1))
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("previous_step_required", body["error"])
	})

	s.Run("save accepts partial data", func() {
		rec, body := s.do(s.bearer, http.MethodPut, "/sections/0", map[string]any{"full_name": "Joana"})
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("section 0 saved", body["message"])

		_, progress := s.do(s.bearer, http.MethodGet, "/me/progress", nil)
		s.Equal([]any{}, progress["completed_sections"])
		s.Equal(true, progress["has_application"])
	})

	s.Run("invalid submit is 401 with the field message", func() {
		rec, body := s.do(s.bearer, http.MethodPost, "/sections/0/submit", map[string]any{"full_name": "Joana"})
		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("validation_error", body["error"])
		s.NotEmpty(body["error_description"])
	})

	s.Run("bad boolean token on save is 400", func() {
		rec, body := s.do(s.bearer, http.MethodPut, "/sections/0", map[string]any{"other_names_used": "sim"})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", body["error"])
	})

	s.Run("valid submit appends progress once", func() {
		for range 2 {
			rec, body := s.do(s.bearer, http.MethodPost, "/sections/0/submit", completeSection(0))
			s.Equal(http.StatusOK, rec.Code)
			s.Equal([]any{0.0}, body["completed_sections"])
		}
	})

	s.Run("stored values read back", func() {
		rec, body := s.do(s.bearer, http.MethodGet, "/sections/0", nil)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("value", body["full_name"])
		s.Equal("2001-09-10", body["birth_date"])
		s.Equal(form.TokenFalse, body["other_names_used"])
	})

	s.Run("unknown section", func() {
		rec, _ := s.do(s.bearer, http.MethodPut, "/sections/12", map[string]any{})
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *DossierHandlerSuite) applicationID() string {
	_, list := s.do(s.bearer, http.MethodGet, "/applications", nil)
	apps := list["applications"].([]any)
	s.Require().NotEmpty(apps)
	return apps[0].(map[string]any)["id"].(string)
}

func items(body map[string]any) []map[string]any {
	raw, _ := body["items"].([]any)
	out := make([]map[string]any, len(raw))
	for i, r := range raw {
		out[i] = r.(map[string]any)
	}
	return out
}

func (s *DossierHandlerSuite) TestCompanionScenario() {
	rec, _ := s.do(s.bearer, http.MethodPut, "/sections/0", map[string]any{})
	s.Require().Equal(http.StatusOK, rec.Code)
	appID := s.applicationID()

	_, body := s.do(s.bearer, http.MethodPost, "/collections/companions", map[string]any{"application_id": appID})
	_, body = s.do(s.bearer, http.MethodPost, "/collections/companions",
		map[string]any{"application_id": appID, "items": items(body)})
	list := items(body)
	s.Require().Len(list, 2)

	list[0]["name"] = "Carla"
	list[1]["name"] = "Davi"
	rec, body = s.do(s.bearer, http.MethodPost, "/collections/companions",
		map[string]any{"application_id": appID, "items": list})
	s.Require().Equal(http.StatusOK, rec.Code)
	grown := items(body)
	s.Require().Len(grown, 3)
	s.Equal("Carla", grown[0]["name"])
	s.Equal("Davi", grown[1]["name"])
	s.Equal("", grown[2]["name"])

	grown[0]["name"] = "Carla Dias"
	rec, body = s.do(s.bearer, http.MethodPost, "/collections/companions/delete",
		map[string]any{"application_id": appID, "target_id": grown[2]["id"], "items": grown})
	s.Require().Equal(http.StatusOK, rec.Code)
	shrunk := items(body)
	s.Require().Len(shrunk, 2)
	s.Equal("Carla Dias", shrunk[0]["name"])
	s.Equal(grown[1]["id"], shrunk[1]["id"])

	s.Run("validation of the envelope", func() {
		rec, body := s.do(s.bearer, http.MethodPost, "/collections/companions", map[string]any{})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("invalid_input", body["error"])

		rec, _ = s.do(s.bearer, http.MethodPost, "/collections/companions/delete", map[string]any{"application_id": appID})
		s.Equal(http.StatusBadRequest, rec.Code)

		rec, _ = s.do(s.bearer, http.MethodPost, "/collections/companions", "{not json")
		s.Equal(http.StatusBadRequest, rec.Code)

		rec, _ = s.do(s.bearer, http.MethodPost, "/collections/pets", map[string]any{"application_id": appID})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("another applicant gets 404", func() {
		other := s.login("other@example.com")
		rec, _ := s.do(other, http.MethodPost, "/collections/companions", map[string]any{"application_id": appID})
		s.Equal(http.StatusNotFound, rec.Code)

		rec, _ = s.do(other, http.MethodPost, "/collections/companions/delete",
			map[string]any{"application_id": appID, "target_id": shrunk[0]["id"]})
		s.Equal(http.StatusNotFound, rec.Code)

		_, body := s.do(s.bearer, http.MethodGet, "/collections/companions?application_id="+appID, nil)
		s.Len(items(body), 2)
	})
}

func (s *DossierHandlerSuite) TestAdditionalApplications() {
	rec, body := s.do(s.bearer, http.MethodPost, "/applications", map[string]any{"same_address_as_primary": true})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("previous_step_required", body["error"])

	rec, _ = s.do(s.bearer, http.MethodPost, "/sections/0/submit", completeSection(0))
	s.Require().Equal(http.StatusOK, rec.Code)

	rec, body = s.do(s.bearer, http.MethodPost, "/applications",
		map[string]any{"same_address_as_primary": true, "same_travel_date_as_primary": true})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal("additional", body["kind"])
	extraID := body["id"].(string)

	rec, _ = s.do(s.bearer, http.MethodPut, "/sections/3?application_id="+extraID, map[string]any{})
	s.Equal(http.StatusOK, rec.Code)

	rec, body = s.do(s.bearer, http.MethodGet, "/applications/"+extraID, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(body, "collections")
	s.Contains(body["sections"], "9")

	rec, _ = s.do(s.bearer, http.MethodDelete, "/applications/"+extraID, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec, _ = s.do(s.bearer, http.MethodGet, "/applications/"+extraID, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(s.bearer, http.MethodPut, "/sections/3?application_id=not-a-uuid", map[string]any{})
	s.Equal(http.StatusBadRequest, rec.Code)
}
