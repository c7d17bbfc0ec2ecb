// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package value

import "github.com/pdiddy/resultlens/pkg/types"

// Target is what a field key selects inside a scheme: a whole field, or one
// key of the records held by a List[Dict] field.
type Target struct {
	Field types.FieldDefinition

	// RecordKey is set when the key addresses record members.
	RecordKey string

	// KeyType is the declared dict_keys type of RecordKey ("str" when undeclared).
	KeyType string
}

// IsRecordKey reports whether the target addresses a member of each record.
func (t Target) IsRecordKey() bool {
	return t.RecordKey != ""
}

// ComparisonField returns the field definition comparisons should use. For
// record keys it is synthesized from the dict_keys type.
func (t Target) ComparisonField() types.FieldDefinition {
	if !t.IsRecordKey() {
		return t.Field
	}
	switch t.KeyType {
	case "int", "float":
		return types.FieldDefinition{Name: t.RecordKey, Type: types.FieldInt}
	default:
		return types.FieldDefinition{Name: t.RecordKey, Type: types.FieldStr}
	}
}

// ResolveTarget maps key to a Target within s. An empty key, or one that names
// nothing, selects the primary field. A key absent from the schema but used
// against a List[Dict] primary field is treated as an undeclared record key.
func ResolveTarget(s types.Scheme, key string) (Target, bool) {
	primary, ok := s.PrimaryField()
	if !ok {
		return Target{}, false
	}
	if key == "" {
		return Target{Field: primary}, true
	}
	if f, ok := s.Field(key); ok {
		return Target{Field: f}, true
	}
	for _, f := range s.Fields {
		if f.Type != types.FieldListDict {
			continue
		}
		if dk, ok := f.DictKey(key); ok {
			return Target{Field: f, RecordKey: dk.Name, KeyType: dk.Type}, true
		}
	}
	if primary.Type == types.FieldListDict {
		return Target{Field: primary, RecordKey: key, KeyType: "str"}, true
	}
	return Target{Field: primary}, true
}
