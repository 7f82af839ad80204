// Package service is the staff review side: listing applicants with their
// dossiers, reading one applicant's dossiers and deleting dossiers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"dossier/internal/admin/types"
	"dossier/internal/audit"
	"dossier/internal/auth/guard"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	dossierservice "dossier/internal/dossier/service"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

type ApplicantStore interface {
	List(ctx context.Context) ([]*types.ReviewApplicant, error)
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*types.ReviewApplicant, error)
}

type SummaryStore interface {
	ListAll(ctx context.Context) ([]*types.ReviewApplication, error)
}

type ApplicationStore interface {
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	ListByOwner(ctx context.Context, owner id.ApplicantID) ([]*models.Application, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
}

type ItemStore interface {
	List(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error)
	DeleteForApplication(ctx context.Context, appID id.ApplicationID) error
}

// ProgressStore resets an applicant's wizard state when staff remove the
// primary dossier.
type ProgressStore interface {
	ResetProgress(ctx context.Context, applicantID id.ApplicantID, now time.Time) error
}

type Service struct {
	applicants   ApplicantStore
	summaries    SummaryStore
	applications ApplicationStore
	items        ItemStore
	progress     ProgressStore
	tx           dossierservice.TxRunner
	auditor      *audit.Publisher
	logger       *slog.Logger
}

func New(applicants ApplicantStore, summaries SummaryStore, applications ApplicationStore, items ItemStore,
	progress ProgressStore, tx dossierservice.TxRunner, auditor *audit.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		applicants:   applicants,
		summaries:    summaries,
		applications: applications,
		items:        items,
		progress:     progress,
		tx:           tx,
		auditor:      auditor,
		logger:       logger,
	}
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, op+" failed", "error", err)
	return dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
}

// ListApplicants returns every applicant that has at least one dossier,
// in sign-up order. Accounts and dossiers are read concurrently.
func (s *Service) ListApplicants(ctx context.Context) ([]types.ApplicantOverview, error) {
	var (
		applicants []*types.ReviewApplicant
		summaries  []*types.ReviewApplication
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		applicants, err = s.applicants.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summaries, err = s.summaries.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.internal(ctx, "list applicants", err)
	}

	byOwner := make(map[id.ApplicantID][]*types.ReviewApplication)
	for _, app := range summaries {
		byOwner[app.ApplicantID] = append(byOwner[app.ApplicantID], app)
	}
	out := make([]types.ApplicantOverview, 0, len(byOwner))
	for _, a := range applicants {
		if apps := byOwner[a.ID]; len(apps) > 0 {
			out = append(out, types.ApplicantOverview{Applicant: a, Applications: apps})
		}
	}
	return out, nil
}

// ApplicantDossiers returns the applicant with every dossier fully loaded.
func (s *Service) ApplicantDossiers(ctx context.Context, applicantID id.ApplicantID) (*types.ReviewApplicant, []*models.Dossier, error) {
	applicant, err := s.applicants.FindByID(ctx, applicantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "applicant not found")
	}
	if err != nil {
		return nil, nil, s.internal(ctx, "find applicant", err)
	}
	apps, err := s.applications.ListByOwner(ctx, applicantID)
	if err != nil {
		return nil, nil, s.internal(ctx, "list applications", err)
	}
	dossiers := make([]*models.Dossier, 0, len(apps))
	for _, app := range apps {
		collections, err := dossierservice.LoadCollections(ctx, s.items, app.ID)
		if err != nil {
			return nil, nil, s.internal(ctx, "load collections", err)
		}
		dossiers = append(dossiers, &models.Dossier{Application: app, Collections: collections})
	}
	return applicant, dossiers, nil
}

// DeleteApplication removes any dossier, its collections included. Removing
// a primary dossier also resets the owner's progress.
func (s *Service) DeleteApplication(ctx context.Context, appID id.ApplicationID) error {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return err
	}
	app, err := s.applications.FindByID(ctx, appID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err != nil {
		return s.internal(ctx, "find application", err)
	}
	err = s.tx.RunInTx(ctx, app.ApplicantID, func(ctx context.Context) error {
		if err := s.items.DeleteForApplication(ctx, app.ID); err != nil {
			return err
		}
		if err := s.applications.Delete(ctx, app.ID); err != nil {
			return err
		}
		if !app.IsPrimary() {
			return nil
		}
		return s.progress.ResetProgress(ctx, app.ApplicantID, requestcontext.Now(ctx))
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return err
		}
		return s.internal(ctx, "delete application", err)
	}
	s.logger.InfoContext(ctx, "application deleted by staff",
		"application_id", app.ID.String(), "applicant_id", app.ApplicantID.String())
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionApplicationDeleted,
		ActorID:       caller.ApplicantID,
		ApplicantID:   app.ApplicantID,
		ApplicationID: app.ID,
		Reason:        "deleted by staff",
	})
	return nil
}
