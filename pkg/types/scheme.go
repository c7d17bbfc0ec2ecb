// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strings"

	"go.yaml.in/yaml/v3"
)

// FieldType is the closed set of value shapes a scheme field can declare.
type FieldType string

const (
	FieldInt      FieldType = "int"
	FieldStr      FieldType = "str"
	FieldListStr  FieldType = "List[str]"
	FieldListDict FieldType = "List[Dict[str, any]]"
)

// fieldTypeAliases maps the spellings the backend has used over time to the
// canonical FieldType values.
var fieldTypeAliases = map[string]FieldType{
	"int":                  FieldInt,
	"float":                FieldInt,
	"str":                  FieldStr,
	"list[str]":            FieldListStr,
	"list_str":             FieldListStr,
	"list[dict[str, any]]": FieldListDict,
	"list[dict[str,any]]":  FieldListDict,
	"list_dict":            FieldListDict,
}

// ParseFieldType normalizes s to a canonical FieldType. Unknown spellings are
// returned unchanged so callers can still render them as unrecognized types.
func ParseFieldType(s string) FieldType {
	if ft, ok := fieldTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return ft
	}
	return FieldType(s)
}

// Known reports whether t is one of the four canonical field types.
func (t FieldType) Known() bool {
	switch t {
	case FieldInt, FieldStr, FieldListStr, FieldListDict:
		return true
	}
	return false
}

// UnmarshalJSON accepts any alias spelling.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseFieldType(s)
	return nil
}

// UnmarshalYAML accepts any alias spelling.
func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*t = ParseFieldType(s)
	return nil
}

// DictKeyDefinition describes one key of the records held by a list-of-records field.
type DictKeyDefinition struct {
	Name string `json:"name" yaml:"name"`

	// Type is one of "str", "int", "float", "bool".
	Type string `json:"type" yaml:"type"`
}

// Numeric reports whether the key holds int or float values.
func (d DictKeyDefinition) Numeric() bool {
	return d.Type == "int" || d.Type == "float"
}

// FieldDefinition describes one attribute of a classification scheme. Which of
// the optional members are meaningful depends on Type.
type FieldDefinition struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`

	// ScaleMin and ScaleMax bound int fields. A 0-1 scale renders as a boolean.
	ScaleMin *float64 `json:"scale_min,omitempty" yaml:"scale_min,omitempty"`
	ScaleMax *float64 `json:"scale_max,omitempty" yaml:"scale_max,omitempty"`

	// IsSetOfLabels restricts List[str] values to Labels.
	IsSetOfLabels bool     `json:"is_set_of_labels,omitempty" yaml:"is_set_of_labels,omitempty"`
	Labels        []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// DictKeys is the ordered record shape for List[Dict] fields.
	DictKeys []DictKeyDefinition `json:"dict_keys,omitempty" yaml:"dict_keys,omitempty"`
}

// IsBooleanScale reports whether an int field is declared on a 0-1 scale.
func (f FieldDefinition) IsBooleanScale() bool {
	if f.Type != FieldInt || f.ScaleMin == nil || f.ScaleMax == nil {
		return false
	}
	return *f.ScaleMin == 0 && *f.ScaleMax == 1
}

// HasLabelSet reports whether list values must be filtered to Labels.
func (f FieldDefinition) HasLabelSet() bool {
	return f.Type == FieldListStr && f.IsSetOfLabels && len(f.Labels) > 0
}

// DictKey returns the dict_keys entry named name.
func (f FieldDefinition) DictKey(name string) (DictKeyDefinition, bool) {
	for _, k := range f.DictKeys {
		if k.Name == name {
			return k, true
		}
	}
	return DictKeyDefinition{}, false
}

// Scheme is a named, ordered collection of field definitions.
type Scheme struct {
	ID                int               `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields            []FieldDefinition `json:"fields" yaml:"fields"`
	ModelInstructions string            `json:"model_instructions,omitempty" yaml:"model_instructions,omitempty"`
	ValidationRules   map[string]any    `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
}

// PrimaryField returns the field used to interpret result values. Schemes may
// declare several fields but only the first one drives display.
func (s Scheme) PrimaryField() (FieldDefinition, bool) {
	if len(s.Fields) == 0 {
		return FieldDefinition{}, false
	}
	return s.Fields[0], true
}

// Field returns the field named name.
func (s Scheme) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Schemes indexes schemes by ID.
type Schemes map[int]Scheme

// NewSchemes builds an index from a slice. Later duplicates win.
func NewSchemes(list []Scheme) Schemes {
	idx := make(Schemes, len(list))
	for _, s := range list {
		idx[s.ID] = s
	}
	return idx
}
