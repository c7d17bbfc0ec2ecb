// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/resultlens/pkg/types"
)

var sentiment = types.FieldDefinition{Name: "sentiment", Type: types.FieldInt}

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		scheme string
		want   string
	}{
		{"scalar passes through", `7`, "Tone", `7`},
		{"array passes through", `["a","b"]`, "Tone", `["a","b"]`},
		{"null passes through", `null`, "Tone", `null`},
		{"field name wins", `{"Tone":1,"sentiment":2}`, "Tone", `2`},
		{"scheme name second", `{"Tone":1,"other":2}`, "Tone", `1`},
		{"single key third", `{"whatever":3}`, "Tone", `3`},
		{"whole object last", `{"a":1,"b":2}`, "Tone", `{"a":1,"b":2}`},
		{"no scheme name skips rule", `{"a":1,"b":2}`, "", `{"a":1,"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(gjson.Parse(tt.raw), sentiment, tt.scheme)
			assert.Equal(t, tt.want, got.Raw)
		})
	}
}

func TestExtract_EmptyObjectIsNull(t *testing.T) {
	got := Extract(gjson.Parse(`{}`), sentiment, "Tone")
	assert.True(t, IsNull(got))
}

func TestExtract_Deterministic(t *testing.T) {
	raw := gjson.Parse(`{"x":{"y":1},"z":[1,2]}`)
	first := Extract(raw, sentiment, "Tone")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Raw, Extract(raw, sentiment, "Tone").Raw)
	}
}

func TestExtract_RecordListNotUnwrapped(t *testing.T) {
	field := types.FieldDefinition{Name: "claims", Type: types.FieldListDict}
	got := Extract(gjson.Parse(`[{"claims":"x"}]`), field, "")
	assert.True(t, got.IsArray())
}

func TestParse(t *testing.T) {
	assert.False(t, Parse(nil).Exists())
	assert.False(t, Parse([]byte("  ")).Exists())

	bad := Parse([]byte(`not json`))
	assert.Equal(t, gjson.String, bad.Type)
	assert.Equal(t, "not json", bad.String())

	assert.Equal(t, float64(3), Parse([]byte(`3`)).Float())
}

func TestClassify(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		v := Classify(gjson.Parse(`0.7`), sentiment)
		assert.Equal(t, Scalar, v.Kind)
		assert.Equal(t, 0.7, v.Scalar.Float())
	})

	t.Run("null", func(t *testing.T) {
		assert.Equal(t, Null, Classify(gjson.Parse(`null`), sentiment).Kind)
		assert.Equal(t, Null, Classify(gjson.Result{}, sentiment).Kind)
	})

	t.Run("string list", func(t *testing.T) {
		field := types.FieldDefinition{Name: "topics", Type: types.FieldListStr}
		v := Classify(gjson.Parse(`["a", 2, null, "c"]`), field)
		assert.Equal(t, StringList, v.Kind)
		assert.Equal(t, []string{"a", "2", "c"}, v.Strings)
	})

	t.Run("record list keeps key order", func(t *testing.T) {
		field := types.FieldDefinition{Name: "claims", Type: types.FieldListDict}
		v := Classify(gjson.Parse(`[{"z":1,"a":"x"},"loose"]`), field)
		require.Equal(t, RecordList, v.Kind)
		require.Len(t, v.Records, 2)
		assert.Equal(t, "z", v.Records[0][0].Key)
		assert.Equal(t, "a", v.Records[0][1].Key)
		assert.Equal(t, "value", v.Records[1][0].Key)
	})

	t.Run("list mismatch", func(t *testing.T) {
		field := types.FieldDefinition{Name: "topics", Type: types.FieldListStr}
		v := Classify(gjson.Parse(`{"a":1,"b":2}`), field)
		assert.Equal(t, Unknown, v.Kind)
		msg, ok := v.Mismatch()
		require.True(t, ok)
		assert.Equal(t, "expected array, got object", msg)
	})

	t.Run("composite scalar is unknown without mismatch", func(t *testing.T) {
		v := Classify(gjson.Parse(`{"a":1,"b":2}`), types.FieldDefinition{Type: types.FieldStr})
		assert.Equal(t, Unknown, v.Kind)
		_, ok := v.Mismatch()
		assert.False(t, ok)
	})
}

func TestRecordGet(t *testing.T) {
	rec := Record{{Key: "Tag", Value: gjson.Parse(`"upper"`)}, {Key: "tag", Value: gjson.Parse(`"lower"`)}}
	v, ok := rec.Get("tag")
	require.True(t, ok)
	assert.Equal(t, "lower", v.String())

	v, ok = rec.Get("TAG")
	require.True(t, ok)
	assert.Equal(t, "upper", v.String())

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestTextAndStringify(t *testing.T) {
	assert.Equal(t, Placeholder, Text(gjson.Parse(`null`)))
	assert.Equal(t, "hi", Text(gjson.Parse(`"hi"`)))
	assert.Equal(t, `{"a":[1,2]}`, Text(gjson.Parse(`{ "a" : [1, 2] }`)))

	assert.Equal(t, `{"a":1}`, SafeStringify(map[string]int{"a": 1}))
	assert.Equal(t, complexData, SafeStringify(func() {}))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("n/a"))
	assert.True(t, IsPlaceholder(" N/A "))
	assert.False(t, IsPlaceholder("na"))
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(gjson.Parse(`null`)))
	assert.True(t, IsMissing(gjson.Get(`{"a":1}`, "b")))
	assert.True(t, IsMissing(gjson.Parse(`"N/a"`)))
	assert.False(t, IsMissing(gjson.Parse(`""`)))
	assert.False(t, IsMissing(gjson.Parse(`0`)))
}

func TestResolveTarget(t *testing.T) {
	scheme := types.Scheme{
		ID:   1,
		Name: "Claims",
		Fields: []types.FieldDefinition{
			{Name: "claims", Type: types.FieldListDict, DictKeys: []types.DictKeyDefinition{
				{Name: "statement", Type: "str"},
				{Name: "score", Type: "float"},
			}},
			{Name: "summary", Type: types.FieldStr},
		},
	}

	tgt, ok := ResolveTarget(scheme, "")
	require.True(t, ok)
	assert.Equal(t, "claims", tgt.Field.Name)
	assert.False(t, tgt.IsRecordKey())

	tgt, _ = ResolveTarget(scheme, "summary")
	assert.Equal(t, "summary", tgt.Field.Name)

	tgt, _ = ResolveTarget(scheme, "score")
	assert.True(t, tgt.IsRecordKey())
	assert.Equal(t, types.FieldInt, tgt.ComparisonField().Type)

	tgt, _ = ResolveTarget(scheme, "undeclared")
	assert.Equal(t, "undeclared", tgt.RecordKey)
	assert.Equal(t, types.FieldStr, tgt.ComparisonField().Type)

	_, ok = ResolveTarget(types.Scheme{}, "x")
	assert.False(t, ok)
}
