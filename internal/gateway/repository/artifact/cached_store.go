package artifact

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore keeps recently read blobs in memory. Version paths are written
// once, so blob entries never go stale; listings are dropped on Put.
type CachedStore struct {
	origin Store
	blobs  *lru.Cache[string, []byte]
	lists  *lru.Cache[string, []string]
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 512
	}
	blobs, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	lists, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, blobs: blobs, lists: lists}, nil
}

func (s *CachedStore) Put(ctx context.Context, projectID, path string, content []byte) error {
	if err := s.origin.Put(ctx, projectID, path, content); err != nil {
		return err
	}
	s.blobs.Add(objectKey(projectID, path), append([]byte(nil), content...))
	s.lists.Remove(strings.TrimSpace(projectID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID, path string) ([]byte, error) {
	key := objectKey(projectID, path)
	if raw, ok := s.blobs.Get(key); ok {
		return append([]byte(nil), raw...), nil
	}
	raw, err := s.origin.Get(ctx, projectID, path)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) List(ctx context.Context, projectID string) ([]string, error) {
	projectID = strings.TrimSpace(projectID)
	if list, ok := s.lists.Get(projectID); ok {
		return append([]string(nil), list...), nil
	}
	list, err := s.origin.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.lists.Add(projectID, append([]string(nil), list...))
	return list, nil
}
