package applicant

import (
	"context"
	"slices"
	"sync"
	"time"

	"dossier/internal/auth/models"
	id "dossier/pkg/domain"
	"dossier/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in process memory.
type InMemoryStore struct {
	mu         sync.RWMutex
	applicants map[id.ApplicantID]*models.Applicant
	byEmail    map[string]id.ApplicantID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		applicants: make(map[id.ApplicantID]*models.Applicant),
		byEmail:    make(map[string]id.ApplicantID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(a.Email)
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.applicants[a.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := a.Clone()
	stored.Email = email
	if stored.CompletedSections == nil {
		stored.CompletedSections = id.NewSectionSet()
	}
	s.applicants[a.ID] = stored
	s.byEmail[email] = a.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.applicants[applicantID]; ok {
		return a.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if applicantID, ok := s.byEmail[models.NormalizeEmail(email)]; ok {
		return s.applicants[applicantID].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Applicant, 0, len(s.applicants))
	for _, a := range s.applicants {
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Applicant) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountByRole(_ context.Context, role id.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.applicants {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, applicantID id.ApplicantID, hash string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applicants[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = now
	return nil
}

// MarkSectionComplete adds section under the write lock, so concurrent
// submits of the same section cannot both append it.
func (s *InMemoryStore) MarkSectionComplete(_ context.Context, applicantID id.ApplicantID, section int, now time.Time) (id.SectionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applicants[applicantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if a.CompletedSections.Add(section) {
		a.UpdatedAt = now
	}
	return a.CompletedSections.Clone(), nil
}

func (s *InMemoryStore) SetHasApplication(_ context.Context, applicantID id.ApplicantID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applicants[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !a.HasApplication {
		a.HasApplication = true
		a.UpdatedAt = now
	}
	return nil
}

// ResetProgress clears the has-application flag and the completed sections
// once the primary dossier is gone.
func (s *InMemoryStore) ResetProgress(_ context.Context, applicantID id.ApplicantID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applicants[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.HasApplication = false
	a.CompletedSections = id.NewSectionSet()
	a.UpdatedAt = now
	return nil
}
