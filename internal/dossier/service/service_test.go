package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"dossier/internal/audit"
	authmodels "dossier/internal/auth/models"
	applicantstore "dossier/internal/auth/store/applicant"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	"dossier/internal/dossier/service/mocks"
	"dossier/internal/dossier/store/application"
	"dossier/internal/dossier/store/item"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/requestcontext"
)

type DossierServiceSuite struct {
	suite.Suite
	applicants   *applicantstore.InMemoryStore
	applications *application.InMemoryStore
	items        *item.InMemoryStore
	service      *Service
	owner        id.ApplicantID
	ctx          context.Context
}

func TestDossierServiceSuite(t *testing.T) {
	suite.Run(t, new(DossierServiceSuite))
}

func (s *DossierServiceSuite) SetupTest() {
	s.applicants = applicantstore.NewInMemory()
	s.applications = application.NewInMemory()
	s.items = item.NewInMemory()
	s.service = New(s.applications, s.items, s.applicants, NewShardedTx(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.owner = s.newApplicant("owner@example.com")
	s.ctx = s.as(s.owner)
}

func (s *DossierServiceSuite) newApplicant(email string) id.ApplicantID {
	now := time.Now()
	a := &authmodels.Applicant{
		ID: id.NewApplicantID(), Name: "Applicant", Email: email, PasswordHash: "x",
		Role: id.RoleApplicant, CompletedSections: id.NewSectionSet(), CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.applicants.Create(context.Background(), a))
	return a.ID
}

func (s *DossierServiceSuite) as(applicantID id.ApplicantID) context.Context {
	return requestcontext.WithIdentity(context.Background(), requestcontext.Identity{
		ApplicantID: applicantID, Role: id.RoleApplicant, TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour),
	})
}

// completeSection answers every required field, with confirmations "Não".
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
			payload[f.Key] = "1988-02-29"
		default:
			payload[f.Key] = "value for " + f.Key
		}
	}
	return payload
}

func (s *DossierServiceSuite) body(v any) []byte {
	b, err := json.Marshal(v)
	s.Require().NoError(err)
	return b
}

func (s *DossierServiceSuite) completed() []int {
	progress, err := s.service.Progress(s.ctx)
	s.Require().NoError(err)
	return progress.CompletedSections.Sorted()
}

func (s *DossierServiceSuite) primary() *models.Application {
	app, err := s.applications.FindPrimaryByOwner(context.Background(), s.owner)
	s.Require().NoError(err)
	return app
}

func (s *DossierServiceSuite) TestSaveNeverValidates() {
	for index := range form.SectionCount {
		_, err := s.service.Save(s.ctx, index, []byte(`{}`), Target{})
		s.Require().NoError(err, "section %d", index)
	}
	s.Empty(s.completed())

	progress, err := s.service.Progress(s.ctx)
	s.Require().NoError(err)
	s.True(progress.HasApplication)
}

func (s *DossierServiceSuite) TestSaveRejectsMalformedPayload() {
	_, err := s.service.Save(s.ctx, 0, []byte(`{"other_names_used":"talvez"}`), Target{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Save(s.ctx, 0, []byte(`{"unknown_field":"x"}`), Target{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.applications.FindPrimaryByOwner(context.Background(), s.owner)
	s.Error(err, "nothing may be persisted")
}

func (s *DossierServiceSuite) TestSaveRoundTrip() {
	payload := map[string]any{
		"full_name":        "Joana Prado",
		"birth_date":       "1988-02-29",
		"other_names_used": form.TokenTrue,
		"other_names":      "Joana P.",
	}
	_, err := s.service.Save(s.ctx, 0, s.body(payload), Target{})
	s.Require().NoError(err)
	_, err = s.service.Save(s.ctx, 0, s.body(map[string]any{"birth_date": nil}), Target{})
	s.Require().NoError(err)

	got, err := s.service.Section(s.ctx, 0, Target{})
	s.Require().NoError(err)
	s.Equal("Joana Prado", got["full_name"])
	s.Equal("", got["birth_date"])
	s.Equal(form.TokenTrue, got["other_names_used"])
	s.Equal("Joana P.", got["other_names"])
	s.Equal("", got["other_nationality"])
}

func (s *DossierServiceSuite) TestSubmitMarksSectionOnce() {
	for range 3 {
		result, err := s.service.Submit(s.ctx, 0, s.body(completeSection(0)), Target{})
		s.Require().NoError(err)
		s.Equal([]int{0}, result.Completed.Sorted())
	}
	s.Equal([]int{0}, s.completed())

	_, err := s.service.Submit(s.ctx, 1, s.body(completeSection(1)), Target{})
	s.Require().NoError(err)
	s.Equal([]int{0, 1}, s.completed())
}

func (s *DossierServiceSuite) TestConcurrentSubmitsDoNotDuplicate() {
	_, err := s.service.Submit(s.ctx, 0, s.body(completeSection(0)), Target{})
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Submit(s.ctx, 2, s.body(completeSection(2)), Target{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}
	s.Equal([]int{0, 2}, s.completed())
}

func (s *DossierServiceSuite) TestSubmitFailureLeavesStateUnchanged() {
	_, err := s.service.Submit(s.ctx, 0, s.body(completeSection(0)), Target{})
	s.Require().NoError(err)
	before := s.primary()

	s.Run("missing required field", func() {
		payload := completeSection(0)
		delete(payload, "full_name")
		payload["birth_city"] = "Recife"
		_, err := s.service.Submit(s.ctx, 0, s.body(payload), Target{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("conditional field required by a true confirmation", func() {
		payload := completeSection(1)
		payload["different_mailing_address"] = form.TokenTrue
		_, err := s.service.Submit(s.ctx, 1, s.body(payload), Target{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "mailing address")
	})

	s.Run("boolean outside the two tokens", func() {
		payload := completeSection(0)
		payload["other_names_used"] = "true"
		_, err := s.service.Submit(s.ctx, 0, s.body(payload), Target{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Equal([]int{0}, s.completed())
	s.Equal(before.Fields, s.primary().Fields)
}

func (s *DossierServiceSuite) TestSubmitBeforeFirstSectionIsRejected() {
	_, err := s.service.Submit(s.ctx, 1, s.body(completeSection(1)), Target{})
	s.True(dErrors.HasCode(err, dErrors.CodePreviousStep))
	s.Empty(s.completed())

	_, err = s.applications.FindPrimaryByOwner(context.Background(), s.owner)
	s.Error(err)
}

func (s *DossierServiceSuite) TestUnknownSectionAndAnonymousCaller() {
	_, err := s.service.Save(s.ctx, form.SectionCount, []byte(`{}`), Target{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Save(context.Background(), 0, []byte(`{}`), Target{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *DossierServiceSuite) snapshot(kind form.CollectionKind, items []form.Item, edits map[int]map[string]any) []byte {
	c, ok := form.CollectionFor(kind)
	s.Require().True(ok)
	out := make([]map[string]any, len(items))
	for i, it := range items {
		row := map[string]any{}
		for k, v := range c.EncodeItem(it) {
			row[k] = v
		}
		for k, v := range edits[i] {
			row[k] = v
		}
		out[i] = row
	}
	return s.body(out)
}

func (s *DossierServiceSuite) TestCompanionsAddAndRemove() {
	app, err := s.service.Save(s.ctx, 0, []byte(`{}`), Target{})
	s.Require().NoError(err)
	req := CollectionRequest{Kind: form.Companions, ApplicationID: app.ID}

	list, err := s.service.CreateItem(s.ctx, req)
	s.Require().NoError(err)
	s.Len(list, 1)
	req.Snapshot = s.snapshot(form.Companions, list, map[int]map[string]any{0: {"name": "Ana", "relation": "irmã"}})
	list, err = s.service.CreateItem(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	s.Run("two to three appends a blank record and keeps edits", func() {
		req.Snapshot = s.snapshot(form.Companions, list, map[int]map[string]any{1: {"name": "Beto"}})
		grown, err := s.service.CreateItem(s.ctx, req)
		s.Require().NoError(err)
		s.Require().Len(grown, 3)
		s.Equal(list[0].ID, grown[0].ID)
		s.Equal(list[1].ID, grown[1].ID)
		s.Equal("Ana", grown[0].Values["name"])
		s.Equal("Beto", grown[1].Values["name"])
		s.Equal("", grown[2].Values["name"])
		s.Equal("", grown[2].Values["relation"])
		list = grown
	})

	s.Run("removing one of three persists the snapshot edit", func() {
		req.TargetID = list[2].ID
		req.Snapshot = s.snapshot(form.Companions, list, map[int]map[string]any{0: {"name": "Ana Maria"}})
		shrunk, err := s.service.DeleteItem(s.ctx, req)
		s.Require().NoError(err)
		s.Require().Len(shrunk, 2)
		s.Equal("Ana Maria", shrunk[0].Values["name"])
		s.Equal(list[1].ID, shrunk[1].ID)
	})
}

func (s *DossierServiceSuite) TestEveryCollectionGrowsAndShrinksByOne() {
	app, err := s.service.Save(s.ctx, 0, []byte(`{}`), Target{})
	s.Require().NoError(err)

	for _, kind := range form.CollectionKinds() {
		s.Run(string(kind), func() {
			c, _ := form.CollectionFor(kind)
			req := CollectionRequest{Kind: kind, ApplicationID: app.ID}

			list, err := s.service.CreateItem(s.ctx, req)
			s.Require().NoError(err)
			list, err = s.service.CreateItem(s.ctx, req)
			s.Require().NoError(err)
			s.Require().Len(list, 2)

			edit := map[string]any{}
			want := map[string]string{}
			for _, f := range c.Fields {
				if f.Kind == form.KindDate {
					edit[f.Key] = "2019-07-04"
					want[f.Key] = "2019-07-04"
				} else {
					edit[f.Key] = "edited " + f.Key
					want[f.Key] = "edited " + f.Key
				}
			}
			req.Snapshot = s.snapshot(kind, list, map[int]map[string]any{0: edit})
			grown, err := s.service.CreateItem(s.ctx, req)
			s.Require().NoError(err)
			s.Require().Len(grown, 3)
			s.Equal(list[0].ID, grown[0].ID)
			s.Equal(list[1].ID, grown[1].ID)
			encoded := c.EncodeItem(grown[0])
			for key, v := range want {
				s.Equal(v, encoded[key], key)
			}

			req.TargetID = grown[1].ID
			req.Snapshot = s.snapshot(kind, grown, nil)
			shrunk, err := s.service.DeleteItem(s.ctx, req)
			s.Require().NoError(err)
			s.Require().Len(shrunk, 2)
			s.Equal(grown[0].ID, shrunk[0].ID)
			s.Equal(grown[2].ID, shrunk[1].ID)
			s.Equal(want, withoutID(c.EncodeItem(shrunk[0])))
		})
	}
}

func withoutID(row map[string]string) map[string]string {
	delete(row, "id")
	return row
}

func (s *DossierServiceSuite) TestCollectionChangesAreAudited() {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := New(s.applications, s.items, s.applicants, NewShardedTx(),
		WithLogger(logger), WithAuditor(audit.NewPublisher(logger)))

	app, err := svc.Save(s.ctx, 0, []byte(`{}`), Target{})
	s.Require().NoError(err)
	list, err := svc.CreateItem(s.ctx, CollectionRequest{Kind: form.Trips, ApplicationID: app.ID})
	s.Require().NoError(err)
	_, err = svc.DeleteItem(s.ctx, CollectionRequest{Kind: form.Trips, ApplicationID: app.ID, TargetID: list[0].ID})
	s.Require().NoError(err)

	out := buf.String()
	s.Contains(out, `"action":"collection_item_created"`)
	s.Contains(out, `"action":"collection_item_deleted"`)
	s.Contains(out, `"collection":"trips"`)
}

func (s *DossierServiceSuite) TestCollectionScoping() {
	mine, err := s.service.Save(s.ctx, 0, []byte(`{}`), Target{})
	s.Require().NoError(err)
	other := s.newApplicant("other@example.com")
	theirs, err := s.service.Save(s.as(other), 0, []byte(`{}`), Target{})
	s.Require().NoError(err)
	theirItems, err := s.service.CreateItem(s.as(other), CollectionRequest{Kind: form.Jobs, ApplicationID: theirs.ID})
	s.Require().NoError(err)

	s.Run("missing application id", func() {
		_, err := s.service.CreateItem(s.ctx, CollectionRequest{Kind: form.Jobs})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing target id", func() {
		_, err := s.service.DeleteItem(s.ctx, CollectionRequest{Kind: form.Jobs, ApplicationID: mine.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("another applicant's application", func() {
		_, err := s.service.CreateItem(s.ctx, CollectionRequest{Kind: form.Jobs, ApplicationID: theirs.ID})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("target owned by a different application fails closed", func() {
		_, err := s.service.DeleteItem(s.ctx, CollectionRequest{
			Kind: form.Jobs, ApplicationID: mine.ID, TargetID: theirItems[0].ID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		still, err := s.items.List(context.Background(), form.Jobs, theirs.ID)
		s.Require().NoError(err)
		s.Len(still, 1)
	})

	s.Run("snapshot items from elsewhere are ignored", func() {
		snapshot := s.body([]map[string]any{{"id": theirItems[0].ID.String(), "employer": "Hijack Ltd"}})
		_, err := s.service.CreateItem(s.ctx, CollectionRequest{Kind: form.Jobs, ApplicationID: mine.ID, Snapshot: snapshot})
		s.Require().NoError(err)

		still, err := s.items.List(context.Background(), form.Jobs, theirs.ID)
		s.Require().NoError(err)
		s.Equal("", still[0].Values["employer"])
	})
}

func (s *DossierServiceSuite) TestAdditionalDossiers() {
	_, err := s.service.CreateAdditional(s.ctx, AdditionalRequest{SameAddressAsPrimary: true})
	s.True(dErrors.HasCode(err, dErrors.CodePreviousStep))

	primary, err := s.service.Submit(s.ctx, 0, s.body(completeSection(0)), Target{})
	s.Require().NoError(err)
	extra, err := s.service.CreateAdditional(s.ctx, AdditionalRequest{SameAddressAsPrimary: true})
	s.Require().NoError(err)
	s.Equal(models.KindAdditional, extra.Kind)
	s.True(extra.SameAddressAsPrimary)
	s.False(extra.SameTravelDateAsPrimary)

	s.Run("sections of an additional dossier are not tracked", func() {
		result, err := s.service.Submit(s.ctx, 3, s.body(completeSection(3)), Target{ApplicationID: extra.ID})
		s.Require().NoError(err)
		s.Nil(result.Completed)
		s.Equal([]int{0}, s.completed())
	})

	s.Run("listing and loading", func() {
		mine, err := s.service.ListMine(s.ctx)
		s.Require().NoError(err)
		s.Len(mine, 2)

		_, err = s.service.CreateItem(s.ctx, CollectionRequest{Kind: form.Trips, ApplicationID: extra.ID})
		s.Require().NoError(err)
		dossier, err := s.service.GetDossier(s.ctx, extra.ID)
		s.Require().NoError(err)
		s.Len(dossier.Collections[form.Trips], 1)
		s.Empty(dossier.Collections[form.Companions])
	})

	s.Run("the primary cannot be deleted by its owner", func() {
		err := s.service.DeleteMine(s.ctx, primary.Application.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("an additional dossier can", func() {
		s.Require().NoError(s.service.DeleteMine(s.ctx, extra.ID))
		_, err := s.service.GetDossier(s.ctx, extra.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		trips, err := s.items.List(context.Background(), form.Trips, extra.ID)
		s.Require().NoError(err)
		s.Empty(trips)
	})
}

// Store failures surface as generic internal errors and stop the sequence.
func TestCollectionStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	applications := mocks.NewMockApplicationStore(ctrl)
	items := mocks.NewMockItemStore(ctrl)
	progress := mocks.NewMockProgressStore(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)
	svc := New(applications, items, progress, NewShardedTx(), WithMetrics(metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	owner := id.NewApplicantID()
	appID := id.NewApplicationID()
	ctx := requestcontext.WithIdentity(context.Background(), requestcontext.Identity{ApplicantID: owner, Role: id.RoleApplicant})

	applications.EXPECT().FindOwned(gomock.Any(), owner, appID).Return(&models.Application{ID: appID, ApplicantID: owner}, nil)
	items.EXPECT().Overwrite(gomock.Any(), form.Courses, appID, gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := svc.CreateItem(ctx, CollectionRequest{Kind: form.Courses, ApplicationID: appID})
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if de, _ := dErrors.As(err); de.Message != "internal server error" {
		t.Fatalf("internal message leaked: %q", de.Message)
	}
}

func TestSubmitRecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	applications := mocks.NewMockApplicationStore(ctrl)
	progress := mocks.NewMockProgressStore(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)
	svc := New(applications, mocks.NewMockItemStore(ctrl), progress, NewShardedTx(), WithMetrics(metrics))

	owner := id.NewApplicantID()
	ctx := requestcontext.WithIdentity(context.Background(), requestcontext.Identity{ApplicantID: owner, Role: id.RoleApplicant})
	app := &models.Application{ID: id.NewApplicationID(), ApplicantID: owner, Kind: models.KindPrimary}

	metrics.EXPECT().IncValidationFailure(0)
	_, err := svc.Submit(ctx, 0, []byte(`{}`), Target{})
	if !dErrors.HasCode(err, dErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	body, _ := json.Marshal(completeSection(0))
	applications.EXPECT().UpsertPrimary(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(app, true, nil)
	progress.EXPECT().SetHasApplication(gomock.Any(), owner, gomock.Any()).Return(nil)
	progress.EXPECT().MarkSectionComplete(gomock.Any(), owner, 0, gomock.Any()).Return(id.NewSectionSet(0), nil)
	metrics.EXPECT().IncSectionSubmitted(0)

	result, err := svc.Submit(ctx, 0, body, Target{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Completed.Has(0) {
		t.Fatalf("section 0 not marked: %v", result.Completed.Sorted())
	}
}
