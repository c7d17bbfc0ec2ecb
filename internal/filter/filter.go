// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter evaluates user-defined predicates against the results of
// one entity. Filters compose as an implicit AND: an entity passes a filter
// set when every active filter matches at least one of its results.
package filter

import (
	"sort"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/value"
	"github.com/pdiddy/resultlens/pkg/types"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger for skipped or malformed filters.
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// Matcher applies filters to results.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher returns a Matcher with the given options applied.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Matches reports whether f matches any of one entity's results. An inactive
// filter always matches. When the entity has no usable result for the
// filter's scheme, only an equals filter on the empty sentinel matches.
func (m *Matcher) Matches(f types.Filter, results []types.Result, schemes types.Schemes) bool {
	if !f.IsActive {
		return true
	}
	if !f.Operator.Valid() {
		m.logger.Warn("ignoring filter with unknown operator",
			zap.Int("scheme_id", f.SchemeID),
			zap.String("operator", string(f.Operator)),
		)
		return false
	}
	wantsMissing := f.Operator == types.OpEquals && IsEmptySentinel(f.Value)

	scheme, ok := schemes[f.SchemeID]
	if !ok {
		m.logger.Debug("filter references unknown scheme", zap.Int("scheme_id", f.SchemeID))
		return wantsMissing
	}
	target, ok := value.ResolveTarget(scheme, f.FieldKey)
	if !ok {
		return wantsMissing
	}

	seen := false
	for _, r := range results {
		if r.SchemeID != f.SchemeID {
			continue
		}
		seen = true
		if matchResult(r, scheme, target, f) {
			return true
		}
	}
	if !seen {
		return wantsMissing
	}
	return false
}

// MatchesAll reports whether every filter matches.
func (m *Matcher) MatchesAll(filters []types.Filter, results []types.Result, schemes types.Schemes) bool {
	for _, f := range filters {
		if !m.Matches(f, results, schemes) {
			return false
		}
	}
	return true
}

// Apply returns the sorted ids of entities that pass every filter. The
// universe is entityIDs plus every entity that has a result; entities with
// no results at all are still subject to the missing-data rule.
func (m *Matcher) Apply(filters []types.Filter, results []types.Result, entityIDs []int, schemes types.Schemes) []int {
	byEntity := types.GroupByEntity(results)
	for _, id := range entityIDs {
		if _, ok := byEntity[id]; !ok {
			byEntity[id] = nil
		}
	}

	out := make([]int, 0, len(byEntity))
	for id, rs := range byEntity {
		if m.MatchesAll(filters, rs, schemes) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	m.logger.Debug("applied filters",
		zap.Int("filters", len(filters)),
		zap.Int("entities", len(byEntity)),
		zap.Int("matched", len(out)),
	)
	return out
}

func matchResult(r types.Result, scheme types.Scheme, target value.Target, f types.Filter) bool {
	extracted := value.Extract(value.Parse(r.Value), target.Field, scheme.Name)
	if !target.IsRecordKey() {
		return CompareValues(extracted, f.Value, f.Operator, target.Field)
	}

	v := value.Classify(extracted, target.Field)
	if v.Kind == value.Null {
		return CompareValues(gjson.Result{}, f.Value, f.Operator, target.ComparisonField())
	}
	if v.Kind != value.RecordList {
		return false
	}
	field := target.ComparisonField()
	held := false
	for _, rec := range v.Records {
		member, ok := rec.Get(target.RecordKey)
		if !ok {
			continue
		}
		held = true
		if CompareValues(member, f.Value, f.Operator, field) {
			return true
		}
	}
	if !held {
		// No record carries the key: the result is missing data.
		return CompareValues(gjson.Result{}, f.Value, f.Operator, field)
	}
	return false
}
