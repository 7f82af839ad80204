package item

import (
	"context"
	"sync"
	"time"

	"dossier/internal/dossier/form"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
)

type bucket struct {
	kind  form.CollectionKind
	appID id.ApplicationID
}

// InMemoryStore keeps collection items per (kind, application) in insertion
// order, which stands in for the seq column.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[bucket][]form.Item
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{items: make(map[bucket][]form.Item)}
}

func (s *InMemoryStore) List(_ context.Context, kind form.CollectionKind, appID id.ApplicationID) ([]form.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.items[bucket{kind, appID}]
	out := make([]form.Item, len(stored))
	for i, it := range stored {
		out[i] = copyItem(it)
	}
	return out, nil
}

// Overwrite replaces the values of every snapshot item that still belongs
// to the application. Unknown ids are skipped.
func (s *InMemoryStore) Overwrite(_ context.Context, kind form.CollectionKind, appID id.ApplicationID, snapshot []form.Item, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.items[bucket{kind, appID}]
	for _, it := range snapshot {
		for i := range stored {
			if stored[i].ID == it.ID {
				stored[i] = copyItem(it)
				break
			}
		}
	}
	return nil
}

func (s *InMemoryStore) Insert(_ context.Context, kind form.CollectionKind, appID id.ApplicationID, it form.Item, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, items := range s.items {
		for _, existing := range items {
			if existing.ID == it.ID {
				return sentinel.ErrConflict
			}
		}
	}
	key := bucket{kind, appID}
	s.items[key] = append(s.items[key], copyItem(it))
	return nil
}

// Delete removes itemID only if it belongs to appID.
func (s *InMemoryStore) Delete(_ context.Context, kind form.CollectionKind, appID id.ApplicationID, itemID id.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bucket{kind, appID}
	stored := s.items[key]
	for i, it := range stored {
		if it.ID == itemID {
			s.items[key] = append(stored[:i:i], stored[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

// DeleteForApplication drops every collection of appID.
func (s *InMemoryStore) DeleteForApplication(_ context.Context, appID id.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.items {
		if key.appID == appID {
			delete(s.items, key)
		}
	}
	return nil
}

func copyItem(it form.Item) form.Item {
	values := make(form.Values, len(it.Values))
	values.Merge(it.Values)
	return form.Item{ID: it.ID, Values: values}
}
