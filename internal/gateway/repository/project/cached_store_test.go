package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_HitsAndInvalidation(t *testing.T) {
	ctx := context.Background()
	origin := NewMemoryStore()
	origin.now = newClock().now
	s, err := NewCachedStore(origin, 4)
	require.NoError(t, err)

	p, err := s.Create(ctx, Project{Name: "a", Slug: "a", UserID: "u"})
	require.NoError(t, err)

	_, err = s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Hits: 1}, s.Stats(), "create warms the id cache")

	list, err := s.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = s.ListByUser(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Hits: 2, Misses: 1}, s.Stats())

	before := list[0].UpdatedAt
	_, err = s.SavePages(ctx, p.ID, "run", homePages)
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.After(before), "save invalidates the cached record")

	list, err = s.ListByUser(ctx, "u")
	require.NoError(t, err)
	assert.True(t, list[0].UpdatedAt.After(before), "save invalidates the user listing")

	other, err := s.Create(ctx, Project{Name: "b", Slug: "b", UserID: "u"})
	require.NoError(t, err)
	list, err = s.ListByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].ID)
}
