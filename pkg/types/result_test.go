// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestResult_UnmarshalYAMLKeepsValueOrder(t *testing.T) {
	var r Result
	require.NoError(t, yaml.Unmarshal([]byte(`
id: 4
scheme_id: 2
value:
  zeta: [a, b]
  alpha: {x: null, y: true}
`), &r))
	assert.Equal(t, 4, r.ID)
	assert.Equal(t, `{"zeta":["a","b"],"alpha":{"x":null,"y":true}}`, string(r.Value))
}

func TestResult_UnmarshalYAMLNumbers(t *testing.T) {
	var r Result
	require.NoError(t, yaml.Unmarshal([]byte(`
id: 1
value:
  hex: 0x1F
  octal: 0o17
  big: 9007199254740993
  neg: -12
  ratio: 0.25
  flag: True
`), &r))
	assert.Equal(t, `{"hex":31,"octal":15,"big":9007199254740993,"neg":-12,"ratio":0.25,"flag":true}`, string(r.Value))
}

func TestResult_UnmarshalYAMLRejectsInfinity(t *testing.T) {
	var r Result
	err := yaml.Unmarshal([]byte("id: 9\nvalue: .inf\n"), &r)
	assert.ErrorContains(t, err, "result 9 value")
}
