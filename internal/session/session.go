// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds the working state of one workspace view: the
// memoized schemes, the currently loaded result set and the cache that
// backs it. Loads are sequenced: each load takes a ticket, starting a load
// cancels the one in flight, and only the newest load may replace the
// current state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/cache"
	"github.com/pdiddy/resultlens/internal/client"
	"github.com/pdiddy/resultlens/pkg/types"
)

// ErrStale is returned by a load that was overtaken by a newer one. Its
// response has been discarded.
var ErrStale = errors.New("superseded by a newer load")

// Source is the backend a session reads from. *client.Client implements it.
type Source interface {
	ListSchemes(ctx context.Context, workspaceID int) ([]types.Scheme, error)
	ListResults(ctx context.Context, workspaceID int, q client.ResultQuery) ([]types.Result, error)
	ListEntities(ctx context.Context, workspaceID, contentID int) ([]types.Entity, error)
}

// Snapshot is one loaded result set.
type Snapshot struct {
	Key       cache.Key
	Results   []types.Result
	Entities  []types.Entity
	FromCache bool
	Ticket    uint64
	LoadedAt  time.Time
}

// EntityIDs returns the ids of the snapshot's entities.
func (s Snapshot) EntityIDs() []int {
	ids := make([]int, len(s.Entities))
	for i, e := range s.Entities {
		ids[i] = e.ID
	}
	return ids
}

// EntityIndex returns the snapshot's entities by id.
func (s Snapshot) EntityIndex() map[int]types.Entity {
	idx := make(map[int]types.Entity, len(s.Entities))
	for _, e := range s.Entities {
		idx[e.ID] = e
	}
	return idx
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Every entry carries the session id.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache replaces the default in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(s *Session) {
		if c != nil {
			s.cache = c
		}
	}
}

// Session is safe for concurrent use.
type Session struct {
	id          string
	workspaceID int
	src         Source
	cache       cache.Cache
	logger      *zap.Logger

	mu       sync.Mutex
	ticket   uint64
	cancel   context.CancelFunc
	current  *Snapshot
	schemes  types.Schemes
	entities map[int][]types.Entity
}

// New returns a session over src for one workspace. Without WithCache the
// session caches results in memory for types.DefaultCacheTTL.
func New(workspaceID int, src Source, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		workspaceID: workspaceID,
		src:         src,
		logger:      zap.NewNop(),
		entities:    make(map[int][]types.Entity),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory(types.DefaultCacheTTL, nil)
	}
	s.logger = s.logger.With(zap.String("session", s.id), zap.Int("workspace_id", workspaceID))
	return s
}

// ID returns the session's uuid.
func (s *Session) ID() string { return s.id }

// WorkspaceID returns the workspace the session reads.
func (s *Session) WorkspaceID() int { return s.workspaceID }

// Schemes returns the workspace's schemes, fetching them on first use.
func (s *Session) Schemes(ctx context.Context) (types.Schemes, error) {
	s.mu.Lock()
	cached := s.schemes
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	list, err := s.src.ListSchemes(ctx, s.workspaceID)
	if err != nil {
		return nil, err
	}
	idx := types.NewSchemes(list)

	s.mu.Lock()
	s.schemes = idx
	s.mu.Unlock()
	s.logger.Debug("loaded schemes", zap.Int("count", len(idx)))
	return idx, nil
}

// Entities returns the data records of one data source, fetching them on
// first use.
func (s *Session) Entities(ctx context.Context, contentID int) ([]types.Entity, error) {
	s.mu.Lock()
	cached, ok := s.entities[contentID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	list, err := s.src.ListEntities(ctx, s.workspaceID, contentID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.entities[contentID] = list
	s.mu.Unlock()
	return list, nil
}

// Current returns the most recent successful load.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Snapshot{}, false
	}
	return *s.current, true
}

// Load returns the results for one data source and run, from the cache when
// fresh and from the backend otherwise. A zero contentID loads the whole
// run. Starting a Load cancels any Load still in flight; the overtaken
// call returns ErrStale and never replaces the current snapshot.
func (s *Session) Load(ctx context.Context, contentID, runID int) (Snapshot, error) {
	key := cache.Key{ContentID: contentID, RunID: runID, WorkspaceID: s.workspaceID}

	s.mu.Lock()
	s.ticket++
	ticket := s.ticket
	if s.cancel != nil {
		s.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	snap, err := s.load(lctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticket != ticket {
		s.logger.Warn("discarding stale load",
			zap.Stringer("key", key),
			zap.Uint64("ticket", ticket),
			zap.Uint64("latest", s.ticket),
		)
		return Snapshot{}, ErrStale
	}
	s.cancel = nil
	if err != nil {
		return Snapshot{}, err
	}
	snap.Ticket = ticket
	s.current = &snap
	return snap, nil
}

// Refresh drops the cached entry for the data source and run along with the
// memoized schemes and data records, then loads it from the backend.
func (s *Session) Refresh(ctx context.Context, contentID, runID int) (Snapshot, error) {
	key := cache.Key{ContentID: contentID, RunID: runID, WorkspaceID: s.workspaceID}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return Snapshot{}, fmt.Errorf("invalidating %s: %w", key, err)
	}
	s.mu.Lock()
	delete(s.entities, contentID)
	s.schemes = nil
	s.mu.Unlock()
	return s.Load(ctx, contentID, runID)
}

func (s *Session) load(ctx context.Context, key cache.Key) (Snapshot, error) {
	snap := Snapshot{Key: key, LoadedAt: time.Now()}

	results, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, fetching", zap.Stringer("key", key), zap.Error(err))
	}
	if ok {
		snap.Results = results
		snap.FromCache = true
		if key.ContentID != 0 {
			// The result cache may outlive the process; data records are
			// only memoized in memory.
			entities, err := s.Entities(ctx, key.ContentID)
			if err != nil {
				return Snapshot{}, fmt.Errorf("loading data records: %w", err)
			}
			snap.Entities = entities
		}
		s.logger.Debug("cache hit", zap.Stringer("key", key), zap.Int("results", len(results)))
		return snap, nil
	}

	q := client.ResultQuery{RunID: key.RunID}
	if key.ContentID != 0 {
		entities, err := s.Entities(ctx, key.ContentID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("loading data records: %w", err)
		}
		snap.Entities = entities
		if len(entities) == 0 {
			snap.Results = []types.Result{}
			s.store(ctx, key, snap.Results)
			return snap, nil
		}
		for _, e := range entities {
			q.DatarecordIDs = append(q.DatarecordIDs, e.ID)
		}
	}

	results, err = s.src.ListResults(ctx, s.workspaceID, q)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading results: %w", err)
	}
	snap.Results = results
	s.logger.Info("fetched results", zap.Stringer("key", key), zap.Int("results", len(results)))
	s.store(ctx, key, results)
	return snap, nil
}

// store caches results. Write failures are logged, not returned.
func (s *Session) store(ctx context.Context, key cache.Key, results []types.Result) {
	if err := s.cache.Set(ctx, key, results); err != nil {
		s.logger.Warn("cache write failed", zap.Stringer("key", key), zap.Error(err))
	}
}

// Close releases the cache.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	return s.cache.Close()
}
