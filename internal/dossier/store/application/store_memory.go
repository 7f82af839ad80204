package application

import (
	"context"
	"slices"
	"sync"
	"time"

	"dossier/internal/dossier/form"
	"dossier/internal/dossier/models"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
)

// InMemoryStore keeps dossiers in process memory. Reads and writes copy the
// aggregate so callers never share the stored Fields map.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemoryStore) FindPrimaryByOwner(_ context.Context, owner id.ApplicantID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app := s.primaryLocked(owner); app != nil {
		return app.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) primaryLocked(owner id.ApplicantID) *models.Application {
	for _, app := range s.apps {
		if app.ApplicantID == owner && app.IsPrimary() {
			return app
		}
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.apps[appID]; ok {
		return app.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindOwned(_ context.Context, owner id.ApplicantID, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if app, ok := s.apps[appID]; ok && app.ApplicantID == owner {
		return app.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.ApplicantID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.ApplicantID == owner {
			out = append(out, app.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app.Clone())
	}
	sortByCreation(out)
	return out, nil
}

// UpsertPrimary creates the owner's primary dossier from fields, or merges
// fields into the existing one. created reports which happened.
func (s *InMemoryStore) UpsertPrimary(_ context.Context, owner id.ApplicantID, fields form.Values, now time.Time) (*models.Application, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app := s.primaryLocked(owner); app != nil {
		app.Fields.Merge(fields)
		app.UpdatedAt = now
		return app.Clone(), false, nil
	}
	app := models.NewPrimary(owner, fields, now)
	s.apps[app.ID] = app
	return app.Clone(), true, nil
}

// Create inserts app. A second primary for the same owner is a conflict.
func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	if app.IsPrimary() && s.primaryLocked(app.ApplicantID) != nil {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

// UpdateFields merges fields into an existing dossier owned by owner.
func (s *InMemoryStore) UpdateFields(_ context.Context, owner id.ApplicantID, appID id.ApplicationID, fields form.Values, now time.Time) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok || app.ApplicantID != owner {
		return nil, sentinel.ErrNotFound
	}
	app.Fields.Merge(fields)
	app.UpdatedAt = now
	return app.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, appID id.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[appID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.apps, appID)
	return nil
}

func sortByCreation(apps []*models.Application) {
	slices.SortStableFunc(apps, func(a, b *models.Application) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		// primary first among equal timestamps
		if a.IsPrimary() != b.IsPrimary() {
			if a.IsPrimary() {
				return -1
			}
			return 1
		}
		return 0
	})
}
