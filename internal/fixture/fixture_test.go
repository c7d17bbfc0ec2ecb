// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resultlens/internal/client"
	"github.com/pdiddy/resultlens/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSchemes_YAML(t *testing.T) {
	path := writeFile(t, "schemes.yaml", `
- id: 1
  name: Tone
  fields:
    - name: tone
      type: int
      scale_min: 0
      scale_max: 1
- id: 2
  name: Topics
  fields:
    - name: topics
      type: list_str
      is_set_of_labels: true
      labels: [economy, politics]
`)
	schemes, err := LoadSchemes(path)
	require.NoError(t, err)
	require.Len(t, schemes, 2)
	assert.True(t, schemes[0].Fields[0].IsBooleanScale())
	assert.Equal(t, types.FieldListStr, schemes[1].Fields[0].Type)
	assert.Equal(t, []string{"economy", "politics"}, schemes[1].Fields[0].Labels)
}

func TestLoadResults_YAMLKeepsValueOrder(t *testing.T) {
	path := writeFile(t, "results.yml", `
- id: 7
  scheme_id: 3
  datarecord_id: 10
  timestamp: 2024-01-15
  value:
    claims:
      - statement: Rates rise
        actor: ECB
`)
	results, err := LoadResults(path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, `{"claims":[{"statement":"Rates rise","actor":"ECB"}]}`, string(results[0].Value))
	assert.Equal(t, 2024, results[0].Timestamp.Year())
	assert.Equal(t, 10, results[0].EntityID())
}

func TestLoadResults_JSONEnvelope(t *testing.T) {
	path := writeFile(t, "results.json", `{"data": [{"id": 1, "scheme_id": 1, "value": {"tone": 0.7}, "timestamp": null}], "count": 1}`)
	results, err := LoadResults(path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.JSONEq(t, `{"tone": 0.7}`, string(results[0].Value))
	assert.True(t, results[0].Timestamp.IsZero())
}

func TestLoadEntities_JSONList(t *testing.T) {
	path := writeFile(t, "entities.json", `[{"id": 10, "event_timestamp": "2023-05-01", "created_at": "2024-01-01T10:00:00Z"}]`)
	entities, err := LoadEntities(path)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	when, ok := entities[0].When()
	require.True(t, ok)
	assert.Equal(t, 2023, when.Year())
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadSchemes(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading schemes file")

	_, err = LoadResults(writeFile(t, "bad.json", `[{"id": "x"}]`))
	assert.ErrorContains(t, err, "parsing results file")
}

func TestLoad_EmptyYAML(t *testing.T) {
	schemes, err := LoadSchemes(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, schemes)
}

func TestSource_ListResultsAppliesQuery(t *testing.T) {
	src := &Source{Results: []types.Result{
		{ID: 1, SchemeID: 1, RunID: 3, DatarecordID: 10},
		{ID: 2, SchemeID: 2, RunID: 3, DatarecordID: 11},
		{ID: 3, SchemeID: 1, JobID: 4, DatarecordID: 10},
	}}
	ctx := context.Background()

	got, err := src.ListResults(ctx, 1, client.ResultQuery{RunID: 3})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = src.ListResults(ctx, 1, client.ResultQuery{RunID: 4})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)

	got, err = src.ListResults(ctx, 1, client.ResultQuery{DatarecordIDs: []int{10}, SchemeIDs: []int{1}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.ListResults(cctx, 1, client.ResultQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	schemes := writeFile(t, "s.json", `[{"id": 1, "name": "Tone", "fields": []}]`)
	src, err := Open(Paths{Schemes: schemes})
	require.NoError(t, err)
	assert.Len(t, src.Schemes, 1)
	assert.Empty(t, src.Results)

	list, err := src.ListSchemes(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "Tone", list[0].Name)

	_, err = Open(Paths{Results: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
