package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"dossier/internal/audit"
	"dossier/internal/auth/guard"
	"dossier/internal/dossier/form"
	id "dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	"dossier/pkg/requestcontext"
)

// CollectionRequest carries a structural edit of one collection together
// with the client's full view of it. Every snapshot item is written back
// as-is before the edit; there is no version check, so a stale snapshot
// overwrites newer values.
type CollectionRequest struct {
	Kind          form.CollectionKind
	ApplicationID id.ApplicationID
	// TargetID is the item to remove; unused when adding.
	TargetID id.ItemID
	Snapshot []byte
}

func (r CollectionRequest) collection() (form.Collection, error) {
	c, ok := form.CollectionFor(r.Kind)
	if !ok {
		return form.Collection{}, dErrors.New(dErrors.CodeNotFound, "unknown collection")
	}
	if r.ApplicationID.IsNil() {
		return form.Collection{}, dErrors.New(dErrors.CodeInvalidInput, "application id is required")
	}
	return c, nil
}

// CreateItem saves the snapshot and appends one blank item. The result is
// the collection in creation order.
func (s *Service) CreateItem(ctx context.Context, req CollectionRequest) (_ []form.Item, err error) {
	ctx, span := s.startSpan(ctx, "create_item",
		attribute.String("collection", string(req.Kind)),
		attribute.String("application_id", req.ApplicationID.String()))
	defer func() { endSpan(span, err) }()

	return s.editCollection(ctx, req, "create", func(ctx context.Context, c form.Collection) error {
		return s.items.Insert(ctx, c.Kind, req.ApplicationID,
			form.Item{ID: id.NewItemID(), Values: c.Blank()}, requestcontext.Now(ctx))
	})
}

// DeleteItem saves the snapshot and removes TargetID. A target that does
// not belong to the application is not found.
func (s *Service) DeleteItem(ctx context.Context, req CollectionRequest) (_ []form.Item, err error) {
	ctx, span := s.startSpan(ctx, "delete_item",
		attribute.String("collection", string(req.Kind)),
		attribute.String("application_id", req.ApplicationID.String()))
	defer func() { endSpan(span, err) }()

	if req.TargetID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "target id is required")
	}
	return s.editCollection(ctx, req, "delete", func(ctx context.Context, c form.Collection) error {
		err := s.items.Delete(ctx, c.Kind, req.ApplicationID, req.TargetID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return err
	})
}

func (s *Service) editCollection(ctx context.Context, req CollectionRequest, op string, edit func(context.Context, form.Collection) error) ([]form.Item, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := req.collection()
	if err != nil {
		return nil, err
	}
	snapshot, err := c.DecodeSnapshot(req.Snapshot)
	if err != nil {
		return nil, err
	}

	var items []form.Item
	err = s.tx.RunInTx(ctx, caller.ApplicantID, func(ctx context.Context) error {
		if _, err := s.applications.FindOwned(ctx, caller.ApplicantID, req.ApplicationID); err != nil {
			return err
		}
		if err := s.items.Overwrite(ctx, c.Kind, req.ApplicationID, snapshot, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := edit(ctx, c); err != nil {
			return err
		}
		var err error
		items, err = s.items.List(ctx, c.Kind, req.ApplicationID)
		return err
	})
	if err != nil {
		return nil, s.translate(ctx, op+" collection item", err)
	}

	if s.metrics != nil {
		s.metrics.IncCollectionOp(string(c.Kind), op)
	}
	action := audit.ActionItemCreated
	if op == "delete" {
		action = audit.ActionItemDeleted
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:        action,
		ActorID:       caller.ApplicantID,
		ApplicantID:   caller.ApplicantID,
		ApplicationID: req.ApplicationID,
		Collection:    string(c.Kind),
	})
	return items, nil
}

// ListItems returns one collection of an owned dossier.
func (s *Service) ListItems(ctx context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error) {
	caller, err := guard.Caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := CollectionRequest{Kind: kind, ApplicationID: appID}.collection()
	if err != nil {
		return nil, err
	}
	if _, err := s.applications.FindOwned(ctx, caller.ApplicantID, appID); err != nil {
		return nil, s.translate(ctx, "list collection", err)
	}
	items, err := s.items.List(ctx, c.Kind, appID)
	if err != nil {
		return nil, s.translate(ctx, "list collection", err)
	}
	return items, nil
}
