// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/cache"
	"github.com/pdiddy/resultlens/internal/client"
	"github.com/pdiddy/resultlens/internal/fixture"
	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/internal/session"
	"github.com/pdiddy/resultlens/pkg/types"
)

// addDataFlags registers the flags that select where schemes and results
// come from.
func addDataFlags(cmd *cobra.Command, withResults bool) {
	f := cmd.Flags()
	f.String("schemes-file", "", "read schemes from a JSON or YAML file instead of the API")
	if !withResults {
		return
	}
	f.Int("content", 0, "data source id (0 loads the whole run)")
	f.Int("run", 0, "classification run id")
	f.String("results-file", "", "read results from a JSON or YAML file instead of the API")
	f.String("entities-file", "", "read data records from a JSON or YAML file instead of the API")
	f.Bool("refresh", false, "bypass the result cache")
}

// dataset is everything a command needs to render results.
type dataset struct {
	Schemes  types.Schemes
	List     []types.Scheme
	Results  []types.Result
	Entities []types.Entity
	Snapshot session.Snapshot
}

// openSession builds a session over fixtures when any fixture flag is set,
// otherwise over the API.
func openSession(cmd *cobra.Command) (*session.Session, *fixture.Source, error) {
	paths := fixture.Paths{}
	paths.Schemes, _ = cmd.Flags().GetString("schemes-file")
	if cmd.Flags().Lookup("results-file") != nil {
		paths.Results, _ = cmd.Flags().GetString("results-file")
		paths.Entities, _ = cmd.Flags().GetString("entities-file")
	}

	if paths != (fixture.Paths{}) {
		src, err := fixture.Open(paths)
		if err != nil {
			return nil, nil, err
		}
		s := session.New(cfg.API.WorkspaceID, src,
			session.WithLogger(logger),
			session.WithCache(cache.NewMemory(cfg.Cache.TTL, nil)),
		)
		return s, src, nil
	}

	if cfg.API.WorkspaceID == 0 {
		return nil, nil, errors.New("workspace required: set --workspace or api.workspace_id, or pass fixture files")
	}
	c, err := client.New(cfg.API, client.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	rc, err := resultCache()
	if err != nil {
		return nil, nil, err
	}
	s := session.New(cfg.API.WorkspaceID, c, session.WithLogger(logger), session.WithCache(rc))
	return s, nil, nil
}

// resultCache returns the SQLite cache when cache.path is set.
func resultCache() (cache.Cache, error) {
	if cfg.Cache.Path == "" {
		return cache.NewMemory(cfg.Cache.TTL, nil), nil
	}
	c, err := cache.OpenSQLite(cfg.Cache.Path, cfg.Cache.TTL, nil)
	if err != nil {
		return nil, fmt.Errorf("opening result cache: %w", err)
	}
	return c, nil
}

// loadSchemes reads only the schemes.
func loadSchemes(cmd *cobra.Command) ([]types.Scheme, error) {
	s, src, err := openSession(cmd)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	idx, err := s.Schemes(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("loading schemes: %w", err)
	}
	if src != nil {
		return src.Schemes, nil
	}
	return sortedSchemes(idx), nil
}

// loadDataset reads schemes, results and data records.
func loadDataset(cmd *cobra.Command) (*dataset, error) {
	s, src, err := openSession(cmd)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ctx := cmd.Context()
	idx, err := s.Schemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading schemes: %w", err)
	}

	contentID, _ := cmd.Flags().GetInt("content")
	runID, _ := cmd.Flags().GetInt("run")
	refresh, _ := cmd.Flags().GetBool("refresh")

	var snap session.Snapshot
	if refresh {
		snap, err = s.Refresh(ctx, contentID, runID)
	} else {
		snap, err = s.Load(ctx, contentID, runID)
	}
	if err != nil {
		return nil, err
	}

	ds := &dataset{
		Schemes:  idx,
		List:     sortedSchemes(idx),
		Results:  snap.Results,
		Entities: snap.Entities,
		Snapshot: snap,
	}
	if len(ds.Entities) == 0 && src != nil {
		ds.Entities = src.Entities
	}
	logger.Info("loaded results",
		zap.Int("results", len(ds.Results)),
		zap.Int("entities", len(ds.Entities)),
		zap.Bool("from_cache", snap.FromCache),
	)
	return ds, nil
}

// entityIDs lists the data records of the dataset.
func (d *dataset) entityIDs() []int {
	ids := make([]int, len(d.Entities))
	for i, e := range d.Entities {
		ids[i] = e.ID
	}
	return ids
}

func (d *dataset) entityIndex() map[int]types.Entity {
	idx := make(map[int]types.Entity, len(d.Entities))
	for _, e := range d.Entities {
		idx[e.ID] = e
	}
	return idx
}

func newFormatter() *format.Formatter {
	return format.New(
		format.WithLogger(logger),
		format.WithItemLimits(cfg.Display.CompactItems, cfg.Display.FullItems),
	)
}

func parseMode(s string) (format.Mode, error) {
	switch s {
	case "", "compact":
		return format.Compact, nil
	case "full":
		return format.Full, nil
	case "plain":
		return format.Plain, nil
	}
	return 0, fmt.Errorf("unknown mode %q (want compact, full or plain)", s)
}
