// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package value pairs opaque classification result payloads with their
// field definitions. Extract unwraps the payload following a fixed fallback
// chain; Classify turns the extracted JSON into a tagged Value so formatting,
// filtering and aggregation can switch on shape instead of probing JSON types.
//
// Nothing in this package returns an error. Unusable input degrades to a
// Null or Unknown value.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/resultlens/pkg/types"
)

// Placeholder is shown for missing values.
const Placeholder = "N/A"

// complexData replaces values that cannot be serialized.
const complexData = "Complex Data"

// Kind tags the shape of a classified value.
type Kind uint8

const (
	Null Kind = iota
	Scalar
	StringList
	RecordList
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case StringList:
		return "string list"
	case RecordList:
		return "record list"
	default:
		return "unknown"
	}
}

// Pair is one key/value of a record.
type Pair struct {
	Key   string
	Value gjson.Result
}

// Record is a list-of-records item with its keys in document order.
type Record []Pair

// Get returns the value for key. An exact match wins over a case-insensitive one.
func (r Record) Get(key string) (gjson.Result, bool) {
	for _, p := range r {
		if p.Key == key {
			return p.Value, true
		}
	}
	for _, p := range r {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return gjson.Result{}, false
}

// Value is a classified payload.
type Value struct {
	Kind    Kind
	Scalar  gjson.Result
	Strings []string
	Records []Record

	// Raw is the extracted JSON the value was built from.
	Raw gjson.Result

	expected string
	got      string
}

// Mismatch describes a shape that contradicts the field type, e.g.
// "expected array, got object".
func (v Value) Mismatch() (string, bool) {
	if v.expected == "" {
		return "", false
	}
	return fmt.Sprintf("expected %s, got %s", v.expected, v.got), true
}

// Parse wraps raw JSON. Empty input is absent; invalid JSON is kept as a string.
func Parse(raw []byte) gjson.Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return gjson.Result{}
	}
	if !gjson.ValidBytes(trimmed) {
		s := string(trimmed)
		quoted, _ := json.Marshal(s)
		return gjson.Result{Type: gjson.String, Str: s, Raw: string(quoted)}
	}
	return gjson.ParseBytes(trimmed)
}

// IsNull reports whether r is absent or JSON null.
func IsNull(r gjson.Result) bool {
	return !r.Exists() || r.Type == gjson.Null
}

// IsPlaceholder reports whether s is the literal "n/a" in any case.
func IsPlaceholder(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "n/a")
}

// IsMissing reports whether r is null, absent or the "n/a" placeholder.
func IsMissing(r gjson.Result) bool {
	return IsNull(r) || (r.Type == gjson.String && IsPlaceholder(r.Str))
}

// Extract returns the part of raw that corresponds to field. The first rule
// that applies wins:
//
//  1. non-objects (scalars, arrays, null) are already extracted;
//  2. the key named after the field;
//  3. the key named after the scheme;
//  4. the only key of a single-key object;
//  5. the whole object, unextracted.
//
// An empty object extracts to null.
func Extract(raw gjson.Result, field types.FieldDefinition, schemeName string) gjson.Result {
	if !raw.IsObject() {
		return raw
	}

	var (
		byField, byScheme, only gjson.Result
		keys                    int
	)
	raw.ForEach(func(k, v gjson.Result) bool {
		keys++
		name := k.String()
		if !byField.Exists() && field.Name != "" && name == field.Name {
			byField = v
		}
		if !byScheme.Exists() && schemeName != "" && name == schemeName {
			byScheme = v
		}
		only = v
		return true
	})

	switch {
	case keys == 0:
		return gjson.Result{}
	case byField.Exists():
		return byField
	case byScheme.Exists():
		return byScheme
	case keys == 1:
		return only
	default:
		return raw
	}
}

// Classify interprets an extracted value according to field's type.
func Classify(extracted gjson.Result, field types.FieldDefinition) Value {
	v := Value{Raw: extracted}
	if IsNull(extracted) {
		v.Kind = Null
		return v
	}

	switch field.Type {
	case types.FieldInt, types.FieldStr:
		if extracted.IsObject() || extracted.IsArray() {
			v.Kind = Unknown
			return v
		}
		v.Kind = Scalar
		v.Scalar = extracted

	case types.FieldListStr:
		if !extracted.IsArray() {
			return mismatch(v, "array", extracted)
		}
		v.Kind = StringList
		v.Strings = []string{}
		for _, item := range extracted.Array() {
			if IsNull(item) {
				continue
			}
			v.Strings = append(v.Strings, Text(item))
		}

	case types.FieldListDict:
		if !extracted.IsArray() {
			return mismatch(v, "array", extracted)
		}
		v.Kind = RecordList
		v.Records = []Record{}
		for _, item := range extracted.Array() {
			v.Records = append(v.Records, toRecord(item))
		}

	default:
		v.Kind = Unknown
	}
	return v
}

// Resolve extracts and classifies a stored result payload for field.
func Resolve(payload []byte, field types.FieldDefinition, schemeName string) Value {
	return Classify(Extract(Parse(payload), field, schemeName), field)
}

func mismatch(v Value, expected string, got gjson.Result) Value {
	v.Kind = Unknown
	v.expected = expected
	v.got = JSONType(got)
	return v
}

// toRecord turns an array item into a Record. Non-object items become a
// single "value" pair.
func toRecord(item gjson.Result) Record {
	if !item.IsObject() {
		return Record{{Key: "value", Value: item}}
	}
	var rec Record
	item.ForEach(func(k, v gjson.Result) bool {
		rec = append(rec, Pair{Key: k.String(), Value: v})
		return true
	})
	return rec
}

// JSONType names r's JSON type the way error messages print it.
func JSONType(r gjson.Result) string {
	switch {
	case !r.Exists(), r.Type == gjson.Null:
		return "null"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "boolean"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.String:
		return "string"
	case r.IsArray():
		return "array"
	default:
		return "object"
	}
}

// Text renders a JSON value as plain text: strings unquoted, composites as
// compact JSON, null as the placeholder.
func Text(r gjson.Result) string {
	switch {
	case IsNull(r):
		return Placeholder
	case r.IsObject(), r.IsArray():
		return CompactJSON(r)
	default:
		return r.String()
	}
}

// CompactJSON strips insignificant whitespace from a composite value.
func CompactJSON(r gjson.Result) string {
	if r.Raw == "" {
		return ""
	}
	return gjson.Get(r.Raw, "@ugly").Raw
}

// SafeStringify serializes v as JSON, falling back to "Complex Data".
func SafeStringify(v any) string {
	if r, ok := v.(gjson.Result); ok {
		return CompactJSON(r)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return complexData
	}
	return string(data)
}
