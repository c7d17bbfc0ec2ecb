// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Operator is a filter comparison.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpRange       Operator = "range"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpContains, OpRange, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// Filter is a user-defined predicate over one scheme's results.
type Filter struct {
	SchemeID int `json:"schemeId" yaml:"scheme_id"`

	// FieldKey names a top-level field or, for List[Dict] fields, a dict_keys entry.
	// Empty targets the scheme's primary field.
	FieldKey string   `json:"fieldKey,omitempty" yaml:"field_key,omitempty"`
	Operator Operator `json:"operator" yaml:"operator"`

	// Value is a scalar for most operators and a [min, max] pair for range,
	// where either bound may be null.
	Value    any  `json:"value" yaml:"value"`
	IsActive bool `json:"isActive" yaml:"is_active"`
}
