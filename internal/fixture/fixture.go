// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fixture loads schemes, results and data records from local JSON or
// YAML files so the CLI can run without a backend.
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resultlens/internal/client"
	"github.com/pdiddy/resultlens/pkg/types"
)

// LoadSchemes reads a scheme list.
func LoadSchemes(path string) ([]types.Scheme, error) {
	return load[types.Scheme](path, "schemes")
}

// LoadResults reads a result list.
func LoadResults(path string) ([]types.Result, error) {
	return load[types.Result](path, "results")
}

// LoadEntities reads a data record list.
func LoadEntities(path string) ([]types.Entity, error) {
	return load[types.Entity](path, "data records")
}

// load decodes a bare list or a {"data": [...]} envelope as saved from the
// API. Files ending in .json are JSON, everything else is YAML.
func load[T any](path, what string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s file: %w", what, err)
	}
	var items []T
	if strings.EqualFold(filepath.Ext(path), ".json") {
		items, err = decodeJSON[T](data)
	} else {
		items, err = decodeYAML[T](data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s file %s: %w", what, path, err)
	}
	return items, nil
}

func decodeJSON[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	var items []T
	if len(data) > 0 && data[0] == '{' {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeYAML[T any](data []byte) ([]T, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	var items []T
	if root.Kind == yaml.MappingNode {
		var env struct {
			Data []T `yaml:"data"`
		}
		if err := root.Decode(&env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}
	if err := root.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// Paths names the fixture files. Empty paths are skipped.
type Paths struct {
	Schemes  string
	Results  string
	Entities string
}

// Source serves fixture data through the same interface as the API client.
// A fixture holds one data source, so ListEntities ignores the content id.
type Source struct {
	Schemes  []types.Scheme
	Results  []types.Result
	Entities []types.Entity
}

// Open loads every named fixture file.
func Open(p Paths) (*Source, error) {
	src := &Source{}
	var err error
	if p.Schemes != "" {
		if src.Schemes, err = LoadSchemes(p.Schemes); err != nil {
			return nil, err
		}
	}
	if p.Results != "" {
		if src.Results, err = LoadResults(p.Results); err != nil {
			return nil, err
		}
	}
	if p.Entities != "" {
		if src.Entities, err = LoadEntities(p.Entities); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// ListSchemes returns every fixture scheme.
func (s *Source) ListSchemes(_ context.Context, _ int) ([]types.Scheme, error) {
	return s.Schemes, nil
}

// ListResults applies the query the way the backend does.
func (s *Source) ListResults(ctx context.Context, _ int, q client.ResultQuery) ([]types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.Result, 0, len(s.Results))
	for _, r := range s.Results {
		if q.RunID != 0 && r.RunID != q.RunID && r.JobID != q.RunID {
			continue
		}
		if len(q.DatarecordIDs) > 0 && !slices.Contains(q.DatarecordIDs, r.DatarecordID) {
			continue
		}
		if len(q.SchemeIDs) > 0 && !slices.Contains(q.SchemeIDs, r.SchemeID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListEntities returns every fixture data record.
func (s *Source) ListEntities(_ context.Context, _, _ int) ([]types.Entity, error) {
	return s.Entities, nil
}
