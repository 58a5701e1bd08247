package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quantumcode/quantumcode-backend/internal/projects/domain"
)

// MemoryStore keeps projects in process memory. It backs local development
// and service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]*domain.Project)}
}

func (s *MemoryStore) Create(_ context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[p.ID]; exists {
		return ErrIDTaken
	}
	s.projects[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ownerID, projectID string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ProjectSummary, 0, 16)
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, ownerID, projectID string, mutate MutateFunc) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}

	working := p.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	s.projects[projectID] = working
	return working.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(s.projects, projectID)
	return nil
}

func (s *MemoryStore) ListExpiredTemporary(_ context.Context, cutoff time.Time) ([]ProjectRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ProjectRef
	for _, p := range s.projects {
		if p.Temporary && p.UpdatedAt.Before(cutoff) {
			out = append(out, ProjectRef{ID: p.ID, OwnerID: p.OwnerID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
