// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemesYAML = `
- id: 1
  name: Relevant
  fields:
    - {name: relevant, type: int, scale_min: 0, scale_max: 1}
- id: 2
  name: Topics
  fields:
    - {name: topics, type: "List[str]", is_set_of_labels: true, labels: [economy, politics]}
`

const resultsJSON = `[
  {"id": 1, "scheme_id": 1, "datarecord_id": 10, "value": {"relevant": 0.9}, "timestamp": "2024-01-05T00:00:00Z"},
  {"id": 2, "scheme_id": 2, "datarecord_id": 10, "value": {"topics": ["economy", "sports"]}, "timestamp": "2024-01-05T00:00:00Z"},
  {"id": 3, "scheme_id": 1, "datarecord_id": 11, "value": {"relevant": 0.1}, "timestamp": "2024-02-01T00:00:00Z"},
  {"id": 4, "scheme_id": 2, "datarecord_id": 11, "value": {"topics": ["politics"]}, "timestamp": "2024-02-01T00:00:00Z"}
]`

const filtersYAML = `
filters:
  - scheme_id: 1
    operator: equals
    value: "True"
`

func fixtures(t *testing.T) (schemes, results, filters string) {
	t.Helper()
	dir := t.TempDir()
	schemes = filepath.Join(dir, "schemes.yaml")
	results = filepath.Join(dir, "results.json")
	filters = filepath.Join(dir, "filters.yaml")
	require.NoError(t, os.WriteFile(schemes, []byte(schemesYAML), 0o644))
	require.NoError(t, os.WriteFile(results, []byte(resultsJSON), 0o644))
	require.NoError(t, os.WriteFile(filters, []byte(filtersYAML), 0o644))
	return schemes, results, filters
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResultsShow_Fixtures(t *testing.T) {
	schemes, results, _ := fixtures(t)
	out, err := run(t, "results", "show", "--schemes-file", schemes, "--results-file", results)
	require.NoError(t, err)
	assert.Contains(t, out, "Relevant")
	assert.Contains(t, out, "True")
	assert.Contains(t, out, "economy")
	assert.NotContains(t, out, "sports", "labels outside the scheme are dropped")
	assert.Contains(t, out, "2 entities, 2 schemes")
}

func TestResultsFilter_Fixtures(t *testing.T) {
	schemes, results, filters := fixtures(t)
	out, err := run(t, "results", "filter", "--ids",
		"--schemes-file", schemes, "--results-file", results, "--filters", filters)
	require.NoError(t, err)
	assert.Equal(t, "10", strings.TrimSpace(out))
}

func TestChartValues_Fixtures(t *testing.T) {
	schemes, results, _ := fixtures(t)
	out, err := run(t, "chart", "values", "--scheme", "2",
		"--schemes-file", schemes, "--results-file", results)
	require.NoError(t, err)
	assert.Contains(t, out, "economy")
	assert.Contains(t, out, "politics")
	assert.Contains(t, out, "2 values")
}

func TestChartTime_Fixtures(t *testing.T) {
	schemes, results, _ := fixtures(t)
	out, err := run(t, "chart", "time", "--bucket", "month",
		"--schemes-file", schemes, "--results-file", results)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "2024-02")
	assert.Contains(t, out, "2 buckets")
}

func TestSchemesValidate_Fixtures(t *testing.T) {
	schemes, _, _ := fixtures(t)
	out, err := run(t, "schemes", "validate", "--schemes-file", schemes)
	require.NoError(t, err)
	assert.Contains(t, out, "2 scheme(s) valid")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`[{id: 1, name: Broken, fields: [{name: score, type: int}]}]`), 0o644))
	out, err = run(t, "schemes", "validate", "--schemes-file", bad)
	require.Error(t, err)
	assert.Contains(t, out, "scale_min and scale_max are required")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "resultlens dev\n", out)
}
