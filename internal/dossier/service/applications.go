package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"dossier/internal/audit"
	"dossier/internal/auth/guard"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

type AdditionalRequest struct {
	SameAddressAsPrimary    bool `json:"same_address_as_primary"`
	SameTravelDateAsPrimary bool `json:"same_travel_date_as_primary"`
}

// CreateAdditional opens a dossier for someone travelling with the caller.
// The caller's own dossier must exist first.
func (s *Service) CreateAdditional(ctx context.Context, req AdditionalRequest) (*models.Application, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	var app *models.Application
	err = s.tx.RunInTx(ctx, caller.ApplicantID, func(ctx context.Context) error {
		_, err := s.applications.FindPrimaryByOwner(ctx, caller.ApplicantID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodePreviousStep, "complete your own application before adding another")
		}
		if err != nil {
			return err
		}
		app = models.NewAdditional(caller.ApplicantID, req.SameAddressAsPrimary, req.SameTravelDateAsPrimary, requestcontext.Now(ctx))
		return s.applications.Create(ctx, app)
	})
	if err != nil {
		return nil, s.translate(ctx, "create additional application", err)
	}
	s.emitCreated(ctx, app)
	return app, nil
}

// ListMine returns the caller's dossiers in creation order.
func (s *Service) ListMine(ctx context.Context) ([]*models.Application, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByOwner(ctx, caller.ApplicantID)
	if err != nil {
		return nil, s.translate(ctx, "list applications", err)
	}
	return apps, nil
}

// GetDossier returns one of the caller's dossiers with every collection.
func (s *Service) GetDossier(ctx context.Context, appID id.ApplicationID) (*models.Dossier, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.applications.FindOwned(ctx, caller.ApplicantID, appID)
	if err != nil {
		return nil, s.translate(ctx, "get application", err)
	}
	collections, err := LoadCollections(ctx, s.items, app.ID)
	if err != nil {
		return nil, s.translate(ctx, "get application", err)
	}
	return &models.Dossier{Application: app, Collections: collections}, nil
}

type ItemLister interface {
	List(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error)
}

// LoadCollections reads every collection of a dossier concurrently.
func LoadCollections(ctx context.Context, items ItemLister, appID id.ApplicationID) (models.Collections, error) {
	kinds := form.CollectionKinds()
	lists := make([][]form.Item, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			list, err := items.List(gctx, kind, appID)
			lists[i] = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(models.Collections, len(kinds))
	for i, kind := range kinds {
		out[kind] = lists[i]
	}
	return out, nil
}

// DeleteMine deletes one of the caller's additional dossiers. The primary
// dossier can only be removed by an administrator.
func (s *Service) DeleteMine(ctx context.Context, appID id.ApplicationID) error {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return err
	}
	err = s.tx.RunInTx(ctx, caller.ApplicantID, func(ctx context.Context) error {
		app, err := s.applications.FindOwned(ctx, caller.ApplicantID, appID)
		if err != nil {
			return err
		}
		if app.IsPrimary() {
			return dErrors.New(dErrors.CodeForbidden, "the primary application cannot be deleted")
		}
		if err := s.items.DeleteForApplication(ctx, app.ID); err != nil {
			return err
		}
		return s.applications.Delete(ctx, app.ID)
	})
	if err != nil {
		return s.translate(ctx, "delete application", err)
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionApplicationDeleted,
		ActorID:       caller.ApplicantID,
		ApplicantID:   caller.ApplicantID,
		ApplicationID: appID,
	})
	return nil
}
