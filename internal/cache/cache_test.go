// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resultlens/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func sample() []types.Result {
	return []types.Result{
		{ID: 1, SchemeID: 2, DocumentID: 3, RunID: 4, Value: json.RawMessage(`{"score":7}`)},
		{ID: 2, SchemeID: 2, DocumentID: 5, RunID: 4, Value: json.RawMessage(`{"score":2}`)},
	}
}

// implementations runs each test against both cache implementations.
func implementations(t *testing.T, clock *fakeClock) map[string]Cache {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "cache", "results.db"), 0, clock.Now)
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Cache{
		"memory": NewMemory(0, clock.Now),
		"sqlite": sq,
	}
}

func TestCache_HitWithinTTL(t *testing.T) {
	clock := newClock()
	for name, c := range implementations(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{ContentID: 1, RunID: 4, WorkspaceID: 9}
			require.NoError(t, c.Set(ctx, key, sample()))

			got, ok, err := c.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, got, 2)
			assert.Equal(t, 1, got[0].ID)
			assert.JSONEq(t, `{"score":7}`, string(got[0].Value))

			_, ok, err = c.Get(ctx, Key{ContentID: 1, RunID: 5, WorkspaceID: 9})
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCache_ExpiresAfterFiveMinutes(t *testing.T) {
	for _, name := range []string{"memory", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			c := implementations(t, clock)[name]
			ctx := context.Background()
			key := Key{ContentID: 1, RunID: 1, WorkspaceID: 1}
			require.NoError(t, c.Set(ctx, key, sample()))

			clock.Advance(4*time.Minute + 59*time.Second)
			_, ok, err := c.Get(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)

			clock.Advance(time.Second)
			_, ok, err = c.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, ok, "entry at the TTL must not be returned")
		})
	}
}

func TestCache_InvalidateAndClear(t *testing.T) {
	clock := newClock()
	for name, c := range implementations(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a := Key{ContentID: 1, WorkspaceID: 1}
			b := Key{ContentID: 2, WorkspaceID: 1}
			require.NoError(t, c.Set(ctx, a, sample()))
			require.NoError(t, c.Set(ctx, b, sample()))

			require.NoError(t, c.Invalidate(ctx, a))
			_, ok, _ := c.Get(ctx, a)
			assert.False(t, ok)
			_, ok, _ = c.Get(ctx, b)
			assert.True(t, ok)

			require.NoError(t, c.Clear(ctx))
			_, ok, _ = c.Get(ctx, b)
			assert.False(t, ok)
		})
	}
}

func TestCache_SetReplaces(t *testing.T) {
	clock := newClock()
	for name, c := range implementations(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{ContentID: 7}
			require.NoError(t, c.Set(ctx, key, sample()))
			clock.Advance(4 * time.Minute)
			require.NoError(t, c.Set(ctx, key, sample()[:1]))
			clock.Advance(4 * time.Minute)

			got, ok, err := c.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok, "replacing an entry restarts its TTL")
			assert.Len(t, got, 1)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	c := NewMemory(time.Minute, nil)
	ctx := context.Background()
	in := sample()
	require.NoError(t, c.Set(ctx, Key{}, in))
	in[0].ID = 100

	got, ok, err := c.Get(ctx, Key{})
	require.NoError(t, err)
	require.True(t, ok)
	got[1].ID = 200

	again, _, _ := c.Get(ctx, Key{})
	assert.Equal(t, 1, again[0].ID)
	assert.Equal(t, 2, again[1].ID)
}

func TestMemory_ExpiredEntryIsDropped(t *testing.T) {
	clock := newClock()
	c := NewMemory(time.Minute, clock.Now)
	require.NoError(t, c.Set(context.Background(), Key{}, sample()))
	clock.Advance(time.Minute)
	_, ok, _ := c.Get(context.Background(), Key{})
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	clock := newClock()
	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	first, err := OpenSQLite(path, 0, clock.Now)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, Key{ContentID: 3}, sample()))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path, 0, clock.Now)
	require.NoError(t, err)
	defer second.Close()
	got, ok, err := second.Get(ctx, Key{ContentID: 3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "9/1/4", Key{ContentID: 1, RunID: 4, WorkspaceID: 9}.String())
}
