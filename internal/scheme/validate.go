// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scheme checks classification scheme definitions before they are
// used to interpret results.
package scheme

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/resultlens/pkg/types"
)

var dictKeyTypes = map[string]bool{"str": true, "int": true, "float": true, "bool": true}

// FieldError is one problem with one field.
type FieldError struct {
	Scheme string
	Field  string
	Msg    string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("scheme %q: %s", e.Scheme, e.Msg)
	}
	return fmt.Sprintf("scheme %q field %q: %s", e.Scheme, e.Field, e.Msg)
}

// Validate reports every problem with s joined into one error, or nil.
func Validate(s types.Scheme) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Scheme: s.Name, Field: field, Msg: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(s.Name) == "" {
		add("", "name is required")
	}
	if len(s.Fields) == 0 {
		add("", "at least one field is required")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		name := f.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("#%d", i+1)
			add(name, "name is required")
		} else if seen[name] {
			add(name, "duplicate field name")
		}
		seen[name] = true

		switch f.Type {
		case types.FieldInt:
			if f.ScaleMin == nil || f.ScaleMax == nil {
				add(name, "scale_min and scale_max are required for int fields")
			} else if *f.ScaleMin >= *f.ScaleMax {
				add(name, "scale_min must be less than scale_max")
			}
		case types.FieldStr:
		case types.FieldListStr:
			if f.IsSetOfLabels && len(f.Labels) < 2 {
				add(name, "at least 2 labels are required")
			}
		case types.FieldListDict:
			if len(f.DictKeys) == 0 {
				add(name, "dict_keys are required for List[Dict] fields")
			}
			for _, k := range f.DictKeys {
				if !dictKeyTypes[k.Type] {
					add(name, "invalid key type %q for key %q", k.Type, k.Name)
				}
			}
		default:
			add(name, "unknown field type %q", f.Type)
		}
	}
	return errors.Join(errs...)
}

// ValidateAll validates every scheme and joins the problems.
func ValidateAll(schemes []types.Scheme) error {
	var errs []error
	for _, s := range schemes {
		if err := Validate(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Problems flattens a Validate or ValidateAll error into its field errors.
func Problems(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		var fe *FieldError
		if errors.As(e, &fe) && fe == e {
			out = append(out, fe)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
