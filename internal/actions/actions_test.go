package actions

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifedesk/lifedesk/internal/data"
)

// stores returns both implementations behind the shared interface so every
// behavior test runs against each.
func stores(t *testing.T, ttl time.Duration) map[string]Store {
	t.Helper()

	db, err := data.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(ttl),
		"sqlite": NewSQLiteStore(db.DB(), ttl),
	}
}

func TestCreateAndGet(t *testing.T) {
	for name, store := range stores(t, time.Minute) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := store.Create(ctx, "u1", "notes_create", map[string]any{"title": "groceries"}, "create note (title=groceries)")
			require.NoError(t, err)
			assert.NotEmpty(t, p.ID)
			assert.False(t, p.ExpiresAt.Before(p.CreatedAt))

			got, err := store.Get(ctx, p.ID, "u1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "notes_create", got.ToolName)
			assert.Equal(t, "groceries", got.Args["title"])
			assert.Equal(t, p.Summary, got.Summary)
		})
	}
}

func TestGetScopedToOwner(t *testing.T) {
	for name, store := range stores(t, time.Minute) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := store.Create(ctx, "owner", "notes_create", nil, "create note")
			require.NoError(t, err)

			got, err := store.Get(ctx, p.ID, "someone_else")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestGetUnknownID(t *testing.T) {
	for name, store := range stores(t, time.Minute) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(context.Background(), "no-such-id", "u1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestExpiredProposalInvisible(t *testing.T) {
	for name, store := range stores(t, time.Nanosecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := store.Create(ctx, "u1", "notes_create", nil, "create note")
			require.NoError(t, err)

			time.Sleep(5 * time.Millisecond)

			got, err := store.Get(ctx, p.ID, "u1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRemoveExactlyOnce(t *testing.T) {
	for name, store := range stores(t, time.Minute) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := store.Create(ctx, "u1", "notes_create", nil, "create note")
			require.NoError(t, err)

			first, err := store.Remove(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, first)

			second, err := store.Remove(ctx, p.ID)
			require.NoError(t, err)
			assert.False(t, second, "second removal must report false")
		})
	}
}

func TestRemoveConcurrentSingleWinner(t *testing.T) {
	for name, store := range stores(t, time.Minute) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p, err := store.Create(ctx, "u1", "notes_create", nil, "create note")
			require.NoError(t, err)

			var winners atomic.Int64
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					removed, err := store.Remove(ctx, p.ID)
					if err == nil && removed {
						winners.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 1, winners.Load(), "exactly one concurrent removal may win")
		})
	}
}

func TestProposalExpired(t *testing.T) {
	now := time.Now().UTC()
	p := &Proposal{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, p.Expired(now))
	assert.True(t, p.Expired(now.Add(2*time.Minute)))
}
