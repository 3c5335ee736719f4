package project

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"sitegen/internal/types"
)

// CachedStore fronts a Store with LRU caches for project records and
// per-user listings. Writes go to the origin first and then invalidate.
type CachedStore struct {
	origin Store

	byID   *lru.Cache[string, Project]
	byUser *lru.Cache[string, []Project]

	hits   atomic.Uint64
	misses atomic.Uint64
}

type CacheStats struct {
	Hits   uint64
	Misses uint64
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 256
	}
	byID, err := lru.New[string, Project](size)
	if err != nil {
		return nil, err
	}
	byUser, err := lru.New[string, []Project](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, byID: byID, byUser: byUser}, nil
}

func (s *CachedStore) Create(ctx context.Context, p Project) (Project, error) {
	created, err := s.origin.Create(ctx, p)
	if err != nil {
		return Project{}, err
	}
	s.byID.Add(created.ID, created)
	s.byUser.Remove(created.UserID)
	return created, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Project, error) {
	if p, ok := s.byID.Get(id); ok {
		s.hits.Add(1)
		return p, nil
	}
	s.misses.Add(1)
	p, err := s.origin.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	s.byID.Add(id, p)
	return p, nil
}

// GetBySlug is not cached; it backs slug allocation and must see every write.
func (s *CachedStore) GetBySlug(ctx context.Context, slug string) (Project, error) {
	return s.origin.GetBySlug(ctx, slug)
}

func (s *CachedStore) ListByUser(ctx context.Context, userID string) ([]Project, error) {
	if list, ok := s.byUser.Get(userID); ok {
		s.hits.Add(1)
		return append([]Project(nil), list...), nil
	}
	s.misses.Add(1)
	list, err := s.origin.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.byUser.Add(userID, append([]Project(nil), list...))
	return list, nil
}

func (s *CachedStore) SavePages(ctx context.Context, projectID, runID string, pages []types.GeneratedPage) (Version, error) {
	v, err := s.origin.SavePages(ctx, projectID, runID, pages)
	if err != nil {
		return Version{}, err
	}
	if p, ok := s.byID.Peek(projectID); ok {
		s.byUser.Remove(p.UserID)
	} else {
		s.byUser.Purge()
	}
	s.byID.Remove(projectID)
	return v, nil
}

func (s *CachedStore) Pages(ctx context.Context, projectID string) ([]Page, error) {
	return s.origin.Pages(ctx, projectID)
}

func (s *CachedStore) Versions(ctx context.Context, projectID string) ([]Version, error) {
	return s.origin.Versions(ctx, projectID)
}

func (s *CachedStore) Stats() CacheStats {
	return CacheStats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}
