// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/internal/value"
	"github.com/pdiddy/resultlens/pkg/types"
)

// CompareValues reports whether actual satisfies op against expected for a
// value of the given field. actual may be a gjson.Result, raw JSON bytes or
// any Go value that marshals to JSON. Mismatched or non-numeric input never
// matches; nothing panics.
func CompareValues(actual, expected any, op types.Operator, field types.FieldDefinition) bool {
	v := value.Classify(toJSON(actual), field)
	if v.Kind == value.Null {
		return op == types.OpEquals && IsEmptySentinel(expected)
	}

	switch op {
	case types.OpEquals:
		return equals(v, expected, field)
	case types.OpContains:
		return contains(v, expected, field)
	case types.OpRange:
		lo, hi, ok := bounds(expected)
		if !ok {
			return false
		}
		n, ok := scalarNumber(v)
		if !ok {
			return false
		}
		return (lo == nil || n >= *lo) && (hi == nil || n <= *hi)
	case types.OpGreaterThan, types.OpLessThan:
		n, ok := scalarNumber(v)
		if !ok {
			return false
		}
		want, ok := toNumber(expected)
		if !ok {
			return false
		}
		if op == types.OpGreaterThan {
			return n > want
		}
		return n < want
	}
	return false
}

// IsEmptySentinel reports whether a filter value asks for missing data:
// nil, the empty string or "N/A" in any case.
func IsEmptySentinel(expected any) bool {
	if expected == nil {
		return true
	}
	s, ok := expected.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) == "" || value.IsPlaceholder(s)
}

func equals(v value.Value, expected any, field types.FieldDefinition) bool {
	want := strings.TrimSpace(stringOf(expected))
	switch v.Kind {
	case value.Scalar:
		if field.Type == types.FieldInt && field.IsBooleanScale() {
			n, ok := format.Number(v.Scalar)
			if !ok {
				return false
			}
			return strings.EqualFold(format.BoolLabel(n), want)
		}
		if a, ok := format.Number(v.Scalar); ok && v.Scalar.Type == gjson.Number {
			if b, ok := toNumber(expected); ok {
				return a == b
			}
		}
		return strings.EqualFold(v.Scalar.String(), want)
	case value.StringList:
		for _, item := range format.AllowedLabels(v.Strings, field) {
			if strings.EqualFold(item, want) {
				return true
			}
		}
		return false
	default:
		return strings.EqualFold(value.Text(v.Raw), want)
	}
}

// contains matches a substring. List items outside the field's label set are
// ignored, as they are for equals.
func contains(v value.Value, expected any, field types.FieldDefinition) bool {
	want := stringOf(expected)
	switch v.Kind {
	case value.StringList:
		lw := strings.ToLower(want)
		for _, item := range format.AllowedLabels(v.Strings, field) {
			if strings.Contains(strings.ToLower(item), lw) {
				return true
			}
		}
		return false
	case value.RecordList:
		return strings.Contains(value.CompactJSON(v.Raw), want)
	case value.Scalar:
		return strings.Contains(v.Scalar.String(), want)
	default:
		return strings.Contains(value.Text(v.Raw), want)
	}
}

func scalarNumber(v value.Value) (float64, bool) {
	if v.Kind != value.Scalar {
		return 0, false
	}
	return format.Number(v.Scalar)
}

// bounds reads a [min, max] pair. A nil or empty-string bound is open.
func bounds(expected any) (lo, hi *float64, ok bool) {
	rv := reflect.ValueOf(expected)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != 2 {
		return nil, nil, false
	}
	read := func(i int) (*float64, bool) {
		b := rv.Index(i).Interface()
		if b == nil {
			return nil, true
		}
		if s, isStr := b.(string); isStr && strings.TrimSpace(s) == "" {
			return nil, true
		}
		n, ok := toNumber(b)
		if !ok {
			return nil, false
		}
		return &n, true
	}
	if lo, ok = read(0); !ok {
		return nil, nil, false
	}
	if hi, ok = read(1); !ok {
		return nil, nil, false
	}
	return lo, hi, true
}

// toNumber accepts numbers and numeric strings. Booleans and nil are not numbers.
func toNumber(x any) (float64, bool) {
	switch t := x.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := cast.ToFloat64E(s)
		return n, err == nil
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	}
	n, err := cast.ToFloat64E(x)
	return n, err == nil
}

func stringOf(x any) string {
	if x == nil {
		return ""
	}
	if s, err := cast.ToStringE(x); err == nil {
		return s
	}
	return value.SafeStringify(x)
}

func toJSON(x any) gjson.Result {
	switch t := x.(type) {
	case gjson.Result:
		return t
	case json.RawMessage:
		return value.Parse(t)
	case []byte:
		return value.Parse(t)
	case nil:
		return gjson.Result{}
	}
	data, err := json.Marshal(x)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(data)
}
