package project

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitegen/internal/types"
)

type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]Project
	pages    map[string][]Page
	versions map[string][]Version
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]Project),
		pages:    make(map[string][]Page),
		versions: make(map[string][]Version),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, p Project) (Project, error) {
	p, err := prepareCreate(p, s.now())
	if err != nil {
		return Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Slug == p.Slug {
			return Project{}, ErrSlugTaken
		}
	}
	if _, ok := s.byID[p.ID]; ok {
		return Project{}, fmt.Errorf("project %s already exists", p.ID)
	}
	s.byID[p.ID] = p
	return p, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetBySlug(_ context.Context, slug string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byID {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Project{}, ErrNotFound
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, 8)
	for _, p := range s.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (s *MemoryStore) SavePages(_ context.Context, projectID, runID string, pages []types.GeneratedPage) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[projectID]
	if !ok {
		return Version{}, ErrNotFound
	}
	now := s.now()
	v := Version{
		ProjectID: projectID,
		Number:    len(s.versions[projectID]) + 1,
		RunID:     runID,
		Pages:     append([]types.GeneratedPage(nil), pages...),
		CreatedAt: now,
	}
	s.versions[projectID] = append(s.versions[projectID], v)
	s.pages[projectID] = pagesFrom(projectID, pages, now)
	p.UpdatedAt = now
	s.byID[projectID] = p
	return v, nil
}

func (s *MemoryStore) Pages(_ context.Context, projectID string) ([]Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[projectID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Page{}, s.pages[projectID]...), nil
}

func (s *MemoryStore) Versions(_ context.Context, projectID string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byID[projectID]; !ok {
		return nil, ErrNotFound
	}
	src := s.versions[projectID]
	out := make([]Version, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	return out, nil
}

func prepareCreate(p Project, now time.Time) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.UserID = strings.TrimSpace(p.UserID)
	p.Slug = strings.TrimSpace(p.Slug)
	if p.Name == "" {
		return Project{}, fmt.Errorf("name is required")
	}
	if p.UserID == "" {
		return Project{}, fmt.Errorf("user_id is required")
	}
	if p.Slug == "" {
		return Project{}, fmt.Errorf("slug is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return p, nil
}

func sortByUpdated(ps []Project) {
	sort.SliceStable(ps, func(i, j int) bool {
		if !ps[i].UpdatedAt.Equal(ps[j].UpdatedAt) {
			return ps[i].UpdatedAt.After(ps[j].UpdatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
