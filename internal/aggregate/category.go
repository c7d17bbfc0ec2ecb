// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/internal/value"
	"github.com/pdiddy/resultlens/pkg/types"
)

// Category is one distinct grouping value.
type Category struct {
	Value     string `json:"value" yaml:"value"`
	Count     int    `json:"count" yaml:"count"`
	EntityIDs []int  `json:"entity_ids" yaml:"entity_ids"`
}

// CategorySeries is the result of AggregateByValue, sorted by count
// descending, then by value.
type CategorySeries struct {
	SchemeID   int        `json:"scheme_id" yaml:"scheme_id"`
	FieldKey   string     `json:"field_key,omitempty" yaml:"field_key,omitempty"`
	Categories []Category `json:"categories" yaml:"categories"`
	Skipped    int        `json:"skipped" yaml:"skipped"`
}

// AggregateByValue groups one scheme's results by the plain rendering of
// fieldKey. A List[str] value contributes once per label. For record keys
// only the first record holding the key is used, so a result with several
// matching records counts once.
func (a *Aggregator) AggregateByValue(results []types.Result, schemes types.Schemes, schemeID int, fieldKey string) CategorySeries {
	out := CategorySeries{SchemeID: schemeID, FieldKey: fieldKey, Categories: []Category{}}
	scheme, ok := schemes[schemeID]
	if !ok {
		a.logger.Warn("grouping scheme not found", zap.Int("scheme_id", schemeID))
		return out
	}
	target, ok := value.ResolveTarget(scheme, fieldKey)
	if !ok {
		a.logger.Warn("grouping scheme has no fields", zap.Int("scheme_id", schemeID))
		return out
	}

	counts := make(map[string]int)
	entities := make(map[string]map[int]bool)
	add := func(key string, entity int) {
		counts[key]++
		if entities[key] == nil {
			entities[key] = make(map[int]bool)
		}
		entities[key][entity] = true
	}

	for _, r := range results {
		if r.SchemeID != schemeID {
			continue
		}
		keys, ok := a.groupingKeys(r, scheme, target)
		if !ok {
			out.Skipped++
			continue
		}
		for _, k := range keys {
			add(k, r.EntityID())
		}
	}

	for k, n := range counts {
		out.Categories = append(out.Categories, Category{Value: k, Count: n, EntityIDs: sortedIDs(entities[k])})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		ci, cj := out.Categories[i], out.Categories[j]
		if ci.Count != cj.Count {
			return ci.Count > cj.Count
		}
		return ci.Value < cj.Value
	})
	if out.Skipped > 0 {
		a.logger.Debug("results without a grouping value",
			zap.Int("scheme_id", schemeID),
			zap.String("field_key", fieldKey),
			zap.Int("skipped", out.Skipped),
		)
	}
	return out
}

func (a *Aggregator) groupingKeys(r types.Result, s types.Scheme, target value.Target) ([]string, bool) {
	extracted := value.Extract(value.Parse(r.Value), target.Field, s.Name)

	if target.IsRecordKey() {
		v := value.Classify(extracted, target.Field)
		if v.Kind != value.RecordList {
			return nil, false
		}
		field := target.ComparisonField()
		for _, rec := range v.Records {
			member, ok := rec.Get(target.RecordKey)
			if !ok || value.IsNull(member) {
				continue
			}
			return []string{a.formatter.Format(member, field, format.Plain).Text}, true
		}
		return nil, false
	}

	d := a.formatter.Format(extracted, target.Field, format.Plain)
	if d.Error != "" {
		return nil, false
	}
	if target.Field.Type == types.FieldListStr && len(d.Items) > 0 {
		return d.Items, true
	}
	return []string{d.Text}, true
}
