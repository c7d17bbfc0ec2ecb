// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache holds fetched result sets for a short time so repeated views
// of the same content and run do not refetch. Entries expire after a TTL;
// there is no size bound. Two implementations share the Cache contract:
// Memory for a single session and SQLite for results that outlive a process.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/resultlens/pkg/types"
)

// Key identifies one fetched result set.
type Key struct {
	ContentID   int `json:"content_id"`
	RunID       int `json:"run_id"`
	WorkspaceID int `json:"workspace_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.WorkspaceID, k.ContentID, k.RunID)
}

// Cache stores result sets by Key. Get never returns an expired entry.
type Cache interface {
	Get(ctx context.Context, key Key) ([]types.Result, bool, error)
	Set(ctx context.Context, key Key, results []types.Result) error
	Invalidate(ctx context.Context, key Key) error
	Clear(ctx context.Context) error
	Close() error
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

type entry struct {
	results []types.Result
	stored  time.Time
}

// Memory is an in-process Cache. The zero value is not usable; call NewMemory.
type Memory struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	now     Clock
}

// NewMemory returns an empty cache. A non-positive ttl selects
// types.DefaultCacheTTL; a nil clock selects time.Now.
func NewMemory(ttl time.Duration, now Clock) *Memory {
	if ttl <= 0 {
		ttl = types.DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: make(map[Key]entry), ttl: ttl, now: now}
}

// Get returns the cached results for key. An entry whose age has reached the
// TTL is dropped and reported as a miss.
func (m *Memory) Get(_ context.Context, key Key) ([]types.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(e.stored) >= m.ttl {
		delete(m.entries, key)
		return nil, false, nil
	}
	return cloneResults(e.results), true, nil
}

// Set stores results under key, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key Key, results []types.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{results: cloneResults(results), stored: m.now()}
	return nil
}

// Invalidate drops the entry for key.
func (m *Memory) Invalidate(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key]entry)
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// cloneResults copies the slice so callers cannot mutate cached state.
func cloneResults(in []types.Result) []types.Result {
	if in == nil {
		return nil
	}
	out := make([]types.Result, len(in))
	copy(out, in)
	return out
}
