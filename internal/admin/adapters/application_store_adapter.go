package adapters

import (
	"context"

	"dossier/internal/admin/types"
	"dossier/internal/dossier/models"
)

// DossierApplicationStore is the subset of the application store the
// listing reads.
type DossierApplicationStore interface {
	ListAll(ctx context.Context) ([]*models.Application, error)
}

// ApplicationStoreAdapter summarizes dossiers without their field values.
type ApplicationStoreAdapter struct {
	store DossierApplicationStore
}

func NewApplicationStoreAdapter(store DossierApplicationStore) *ApplicationStoreAdapter {
	return &ApplicationStoreAdapter{store: store}
}

// ListAll returns every dossier summary in creation order.
func (a *ApplicationStoreAdapter) ListAll(ctx context.Context) ([]*types.ReviewApplication, error) {
	apps, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.ReviewApplication, len(apps))
	for i, app := range apps {
		out[i] = &types.ReviewApplication{
			ID:          app.ID,
			ApplicantID: app.ApplicantID,
			Kind:        app.Kind,
			CreatedAt:   app.CreatedAt,
			UpdatedAt:   app.UpdatedAt,
		}
	}
	return out, nil
}
