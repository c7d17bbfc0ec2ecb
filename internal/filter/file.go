// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resultlens/pkg/types"
)

// File is the on-disk representation of a saved filter panel.
type File struct {
	Filters []Entry `json:"filters" yaml:"filters"`
}

// Entry is one saved filter. Active defaults to true when omitted.
type Entry struct {
	SchemeID int            `json:"schemeId" yaml:"scheme_id"`
	FieldKey string         `json:"fieldKey,omitempty" yaml:"field_key,omitempty"`
	Operator types.Operator `json:"operator" yaml:"operator"`
	Value    any            `json:"value" yaml:"value"`
	IsActive *bool          `json:"isActive,omitempty" yaml:"is_active,omitempty"`
}

// Filter converts the entry into a types.Filter.
func (e Entry) Filter() types.Filter {
	active := true
	if e.IsActive != nil {
		active = *e.IsActive
	}
	return types.Filter{
		SchemeID: e.SchemeID,
		FieldKey: e.FieldKey,
		Operator: e.Operator,
		Value:    e.Value,
		IsActive: active,
	}
}

// LoadFilters reads filters from a YAML or JSON file. The file holds either
// a bare list of filters or a document with a "filters" key. Files ending in
// .json are decoded as JSON; everything else as YAML.
func LoadFilters(path string) ([]types.Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter file: %w", err)
	}

	entries, err := decodeEntries(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("parsing filter file %s: %w", path, err)
	}

	var (
		filters = make([]types.Filter, 0, len(entries))
		errs    []error
	)
	for i, e := range entries {
		if !e.Operator.Valid() {
			errs = append(errs, fmt.Errorf("filter %d: unknown operator %q", i, e.Operator))
			continue
		}
		if e.Operator == types.OpRange {
			if _, _, ok := bounds(e.Value); !ok {
				errs = append(errs, fmt.Errorf("filter %d: range needs a [min, max] pair", i))
				continue
			}
		}
		filters = append(filters, e.Filter())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid filter file %s: %w", path, err)
	}
	return filters, nil
}

func decodeEntries(data []byte, isJSON bool) ([]Entry, error) {
	var (
		list []Entry
		doc  File
	)
	if isJSON {
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Filters, nil
	}
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Filters, nil
}
