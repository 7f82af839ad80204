package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"dossier/internal/audit"
	"dossier/internal/auth/guard"
	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

// Target selects the dossier a section operation writes to. The zero value
// is the caller's primary dossier.
type Target struct {
	ApplicationID id.ApplicationID
}

func (t Target) primary() bool { return t.ApplicationID.IsNil() }

type SubmitResult struct {
	Application *models.Application
	// Completed is nil for additional dossiers, which are not tracked.
	Completed id.SectionSet
}

type Progress struct {
	CompletedSections id.SectionSet `json:"completed_sections"`
	HasApplication    bool          `json:"has_application"`
}

func sectionAt(index int) (form.Section, error) {
	sec, ok := form.SectionAt(index)
	if !ok {
		return form.Section{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown section %d", index))
	}
	return sec, nil
}

// Save stores whatever the payload carries for one section. It never runs
// the gate and never touches the completed-sections set; a missing primary
// dossier is created.
func (s *Service) Save(ctx context.Context, index int, body []byte, target Target) (_ *models.Application, err error) {
	ctx, span := s.startSpan(ctx, "save_section", attribute.Int("section", index))
	defer func() { endSpan(span, err) }()

	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	sec, err := sectionAt(index)
	if err != nil {
		return nil, err
	}
	values, err := sec.Decode(body)
	if err != nil {
		return nil, err
	}

	var (
		app     *models.Application
		created bool
	)
	err = s.tx.RunInTx(ctx, caller.ApplicantID, func(ctx context.Context) error {
		var txErr error
		app, created, txErr = s.write(ctx, caller.ApplicantID, values, target)
		return txErr
	})
	if err != nil {
		return nil, s.translate(ctx, "save section", err)
	}
	if created {
		s.emitCreated(ctx, app)
	}

	if s.metrics != nil {
		s.metrics.IncSectionSaved(index)
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionSectionSaved,
		ActorID:       caller.ApplicantID,
		ApplicantID:   caller.ApplicantID,
		ApplicationID: app.ID,
		Section:       audit.SectionRef(index),
	})
	return app, nil
}

// write merges values into the target dossier. A newly created primary
// flips the applicant's has-application flag in the same transaction.
func (s *Service) write(ctx context.Context, owner id.ApplicantID, values form.Values, target Target) (*models.Application, bool, error) {
	now := requestcontext.Now(ctx)
	if !target.primary() {
		app, err := s.applications.UpdateFields(ctx, owner, target.ApplicationID, values, now)
		return app, false, err
	}
	app, created, err := s.applications.UpsertPrimary(ctx, owner, values, now)
	if err != nil {
		return nil, false, err
	}
	if created {
		if err := s.progress.SetHasApplication(ctx, owner, now); err != nil {
			return nil, false, err
		}
	}
	return app, created, nil
}

func (s *Service) emitCreated(ctx context.Context, app *models.Application) {
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionApplicationCreated,
		ActorID:       app.ApplicantID,
		ApplicantID:   app.ApplicantID,
		ApplicationID: app.ID,
	})
}

// Submit validates a section payload on its own merits, stores it and, for
// the primary dossier, marks the section complete. Submitting an already
// completed section leaves the set unchanged.
func (s *Service) Submit(ctx context.Context, index int, body []byte, target Target) (_ *SubmitResult, err error) {
	ctx, span := s.startSpan(ctx, "submit_section", attribute.Int("section", index))
	defer func() { endSpan(span, err) }()

	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	sec, err := sectionAt(index)
	if err != nil {
		return nil, err
	}
	values, err := sec.Decode(body)
	if err == nil {
		err = sec.Validate(values)
	}
	if err != nil {
		if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvalidInput {
			err = dErrors.New(dErrors.CodeValidation, de.Message)
		}
		if dErrors.HasCode(err, dErrors.CodeValidation) && s.metrics != nil {
			s.metrics.IncValidationFailure(index)
		}
		return nil, err
	}

	result := &SubmitResult{}
	var created bool
	err = s.tx.RunInTx(ctx, caller.ApplicantID, func(ctx context.Context) error {
		if target.primary() && index > 0 {
			_, err := s.applications.FindPrimaryByOwner(ctx, caller.ApplicantID)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodePreviousStep,
					"no application yet: go back and submit the previous section first")
			}
			if err != nil {
				return err
			}
		}
		app, isNew, err := s.write(ctx, caller.ApplicantID, values, target)
		if err != nil {
			return err
		}
		result.Application, created = app, isNew
		if !target.primary() {
			return nil
		}
		result.Completed, err = s.progress.MarkSectionComplete(ctx, caller.ApplicantID, index, requestcontext.Now(ctx))
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, "submit section", err)
	}
	if created {
		s.emitCreated(ctx, result.Application)
	}

	if s.metrics != nil {
		s.metrics.IncSectionSubmitted(index)
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionSectionSubmitted,
		ActorID:       caller.ApplicantID,
		ApplicantID:   caller.ApplicantID,
		ApplicationID: result.Application.ID,
		Section:       audit.SectionRef(index),
	})
	return result, nil
}

// Section returns the stored values of one section of the target dossier.
func (s *Service) Section(ctx context.Context, index int, target Target) (map[string]string, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	sec, err := sectionAt(index)
	if err != nil {
		return nil, err
	}
	var app *models.Application
	if target.primary() {
		app, err = s.applications.FindPrimaryByOwner(ctx, caller.ApplicantID)
	} else {
		app, err = s.applications.FindOwned(ctx, caller.ApplicantID, target.ApplicationID)
	}
	if err != nil {
		return nil, s.translate(ctx, "read section", err)
	}
	return sec.Encode(app.Fields), nil
}

// Progress reports the caller's completed sections.
func (s *Service) Progress(ctx context.Context) (*Progress, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	applicant, err := s.progress.FindByID(ctx, caller.ApplicantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	if err != nil {
		return nil, s.translate(ctx, "read progress", err)
	}
	return &Progress{
		CompletedSections: applicant.CompletedSections.Clone(),
		HasApplication:    applicant.HasApplication,
	}, nil
}
