// Package service implements the dossier workflow: section save and
// submit, progress tracking, repeatable collections and additional
// dossiers. Every operation is scoped to the caller resolved from the
// request context.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ApplicationStore,ItemStore,ProgressStore,Metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dossier/internal/audit"
	authmodels "dossier/internal/auth/models"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
)

type ApplicationStore interface {
	FindPrimaryByOwner(ctx context.Context, owner id.ApplicantID) (*models.Application, error)
	FindOwned(ctx context.Context, owner id.ApplicantID, appID id.ApplicationID) (*models.Application, error)
	ListByOwner(ctx context.Context, owner id.ApplicantID) ([]*models.Application, error)
	UpsertPrimary(ctx context.Context, owner id.ApplicantID, fields form.Values, now time.Time) (*models.Application, bool, error)
	Create(ctx context.Context, app *models.Application) error
	UpdateFields(ctx context.Context, owner id.ApplicantID, appID id.ApplicationID, fields form.Values, now time.Time) (*models.Application, error)
	Delete(ctx context.Context, appID id.ApplicationID) error
}

type ItemStore interface {
	List(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error)
	Overwrite(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, snapshot []form.Item, now time.Time) error
	Insert(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, item form.Item, now time.Time) error
	Delete(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID, itemID id.ItemID) error
	DeleteForApplication(ctx context.Context, appID id.ApplicationID) error
}

// ProgressStore is the applicant-side state the workflow maintains.
type ProgressStore interface {
	FindByID(ctx context.Context, applicantID id.ApplicantID) (*authmodels.Applicant, error)
	MarkSectionComplete(ctx context.Context, applicantID id.ApplicantID, section int, now time.Time) (id.SectionSet, error)
	SetHasApplication(ctx context.Context, applicantID id.ApplicantID, now time.Time) error
}

// TxRunner runs fn atomically. Stores called with the ctx passed to fn
// take part in the transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, owner id.ApplicantID, fn func(ctx context.Context) error) error
}

type Metrics interface {
	IncSectionSaved(section int)
	IncSectionSubmitted(section int)
	IncValidationFailure(section int)
	IncCollectionOp(collection, op string)
}

type Service struct {
	applications ApplicationStore
	items        ItemStore
	progress     ProgressStore
	tx           TxRunner
	auditor      *audit.Publisher
	metrics      Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
}

type Option func(*Service)

func WithAuditor(p *audit.Publisher) Option { return func(s *Service) { s.auditor = p } }
func WithMetrics(m Metrics) Option          { return func(s *Service) { s.metrics = m } }
func WithLogger(l *slog.Logger) Option      { return func(s *Service) { s.logger = l } }

func New(applications ApplicationStore, items ItemStore, progress ProgressStore, tx TxRunner, opts ...Option) *Service {
	s := &Service{
		applications: applications,
		items:        items,
		progress:     progress,
		tx:           tx,
		logger:       slog.Default(),
		tracer:       otel.Tracer("dossier/internal/dossier/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "dossier."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

// translate keeps coded errors, maps store sentinels and turns anything
// else into a logged, generic internal error.
func (s *Service) translate(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	}
	s.logger.ErrorContext(ctx, op+" failed", "error", err)
	return dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
}
