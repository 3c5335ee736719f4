package project

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen/internal/types"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func storeBackends(t *testing.T) map[string]Store {
	t.Helper()
	mem := NewMemoryStore()
	mem.now = newClock().now

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	sqlite.now = newClock().now

	cachedOrigin := NewMemoryStore()
	cachedOrigin.now = newClock().now
	cached, err := NewCachedStore(cachedOrigin, 8)
	require.NoError(t, err)

	return map[string]Store{"memory": mem, "sqlite": sqlite, "cached": cached}
}

var homePages = []types.GeneratedPage{{
	Name:           "Home",
	Path:           "/",
	Code:           "export default function Home() { return <main>&</main> }",
	SEOTitle:       "bakery website",
	SEODescription: "bakery website - Built with AI Web Builder",
}}

func TestStore_Contract(t *testing.T) {
	for name, s := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a, err := CreateWithUniqueSlug(ctx, s, Project{Name: "My Bakery!", UserID: "u1"})
			require.NoError(t, err)
			assert.NotEmpty(t, a.ID)
			assert.Equal(t, "my-bakery", a.Slug)

			b, err := CreateWithUniqueSlug(ctx, s, Project{Name: "my bakery", Description: "second", UserID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, "my-bakery-1", b.Slug)

			c, err := CreateWithUniqueSlug(ctx, s, Project{Name: "My  Bakery", UserID: "u2"})
			require.NoError(t, err)
			assert.Equal(t, "my-bakery-2", c.Slug)

			_, err = s.Create(ctx, Project{Name: "dup", Slug: "my-bakery", UserID: "u3"})
			assert.ErrorIs(t, err, ErrSlugTaken)

			got, err := s.Get(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, "second", got.Description)

			bySlug, err := s.GetBySlug(ctx, "my-bakery-2")
			require.NoError(t, err)
			assert.Equal(t, c.ID, bySlug.ID)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			list, err := s.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, b.ID, list[0].ID, "newest first")

			v1, err := s.SavePages(ctx, a.ID, "run-1", homePages)
			require.NoError(t, err)
			assert.Equal(t, 1, v1.Number)

			next := []types.GeneratedPage{{Name: "Home", Path: "/", Code: "export default function Home() { return null }"}}
			v2, err := s.SavePages(ctx, a.ID, "run-2", next)
			require.NoError(t, err)
			assert.Equal(t, 2, v2.Number)

			list, err = s.ListByUser(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, a.ID, list[0].ID, "saving pages bumps updatedAt")

			pages, err := s.Pages(ctx, a.ID)
			require.NoError(t, err)
			require.Len(t, pages, 1)
			assert.Equal(t, next[0].Code, pages[0].Code)

			versions, err := s.Versions(ctx, a.ID)
			require.NoError(t, err)
			require.Len(t, versions, 2)
			assert.Equal(t, 2, versions[0].Number)
			assert.Equal(t, "run-1", versions[1].RunID)
			assert.Equal(t, homePages, versions[1].Pages)

			_, err = s.SavePages(ctx, "missing", "run", homePages)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Versions(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			empty, err := s.Pages(ctx, c.ID)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_CreateValidation(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Create(context.Background(), Project{Name: " ", Slug: "x", UserID: "u"})
	assert.ErrorContains(t, err, "name is required")
	_, err = s.Create(context.Background(), Project{Name: "x", Slug: "x"})
	assert.ErrorContains(t, err, "user_id is required")
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := NewSQLStore(nil, DialectPostgres)
	lite := NewSQLStore(nil, DialectSQLite)
	q := `SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $10`
	assert.Equal(t, q, pg.q(q))
	assert.Equal(t, `SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?`, lite.q(q))
}
