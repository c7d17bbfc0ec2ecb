// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate reduces classified results into chart-ready series:
// per-bucket statistics over time, and value frequencies for one field.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/internal/value"
	"github.com/pdiddy/resultlens/pkg/types"
)

// Bucket is the width of a time series point.
type Bucket string

const (
	Day   Bucket = "day"
	Week  Bucket = "week"
	Month Bucket = "month"
)

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(s))); b {
	case Day, Week, Month:
		return b, nil
	case "":
		return Month, nil
	}
	return "", fmt.Errorf("unknown bucket %q (want day, week or month)", s)
}

// BucketKey formats t for bucket b: day "2006-01-02", week "2006-W02",
// month "2006-01". The week number is ceil(day-of-month / 7), so weeks
// restart every month and keys from different months of one year collide.
func BucketKey(t time.Time, b Bucket) string {
	switch b {
	case Day:
		return t.Format("2006-01-02")
	case Week:
		week := int(math.Ceil(float64(t.Day()) / 7))
		return fmt.Sprintf("%04d-W%02d", t.Year(), week)
	default:
		return t.Format("2006-01")
	}
}

// AxisType selects how a result is placed on the time axis.
type AxisType string

const (
	// AxisDefault uses the entity's event timestamp, else its creation
	// timestamp, else the result's own timestamp.
	AxisDefault AxisType = "default"

	// AxisSchema parses a date out of the entity's result for one scheme.
	AxisSchema AxisType = "schema"
)

// TimeAxis configures the timestamp strategy.
type TimeAxis struct {
	Type AxisType

	// SchemeID and FieldKey name the date-valued field for AxisSchema.
	SchemeID int
	FieldKey string

	// Entities supplies event and creation timestamps for AxisDefault.
	Entities map[int]types.Entity
}

// Stats accumulates numeric values with an incremental mean.
type Stats struct {
	Count int     `json:"count" yaml:"count"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Avg   float64 `json:"avg" yaml:"avg"`
}

// Add folds x into s.
func (s *Stats) Add(x float64) {
	s.Count++
	if s.Count == 1 {
		s.Min, s.Max, s.Avg = x, x, x
		return
	}
	s.Min = math.Min(s.Min, x)
	s.Max = math.Max(s.Max, x)
	s.Avg += (x - s.Avg) / float64(s.Count)
}

// SchemeStats is one scheme's contribution to a time point.
type SchemeStats struct {
	SchemeID int `json:"scheme_id" yaml:"scheme_id"`

	// Results counts every result placed in the bucket, classified or not.
	Results int `json:"results" yaml:"results"`

	// Numeric is set for int fields with at least one numeric value.
	Numeric *Stats `json:"numeric,omitempty" yaml:"numeric,omitempty"`

	// Labels counts categorical values: str values and List[str] items.
	Labels map[string]int `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// TimePoint is one bucket of a time series.
type TimePoint struct {
	Key       string               `json:"key" yaml:"key"`
	Start     time.Time            `json:"start" yaml:"start"`
	Count     int                  `json:"count" yaml:"count"`
	EntityIDs []int                `json:"entity_ids" yaml:"entity_ids"`
	Schemes   map[int]*SchemeStats `json:"schemes" yaml:"schemes"`
}

// TimeSeries is the result of AggregateByTime. Points are sorted by key.
type TimeSeries struct {
	Bucket  Bucket      `json:"bucket" yaml:"bucket"`
	Points  []TimePoint `json:"points" yaml:"points"`
	Skipped int         `json:"skipped" yaml:"skipped"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger for skipped results.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
			a.formatter = format.New(format.WithLogger(l))
		}
	}
}

// Aggregator builds series from results.
type Aggregator struct {
	logger    *zap.Logger
	formatter *format.Formatter
}

// New returns an Aggregator with the given options applied.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{logger: zap.NewNop(), formatter: format.New()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AggregateByTime groups results into time buckets. Results without a
// timestamp under the axis strategy are skipped and counted. With
// AxisSchema the axis scheme's own results only supply dates.
func (a *Aggregator) AggregateByTime(results []types.Result, schemes types.Schemes, axis TimeAxis, bucket Bucket) TimeSeries {
	if bucket == "" {
		bucket = Month
	}
	when := a.timestamps(results, schemes, axis)

	points := make(map[string]*TimePoint)
	entities := make(map[string]map[int]bool)
	skipped := 0
	for _, r := range results {
		if axis.Type == AxisSchema && r.SchemeID == axis.SchemeID {
			continue
		}
		ts, ok := when(r)
		if !ok {
			skipped++
			a.logger.Debug("skipping undated result",
				zap.Int("result_id", r.ID),
				zap.Int("entity_id", r.EntityID()),
				zap.String("axis", string(axis.Type)),
			)
			continue
		}

		key := BucketKey(ts, bucket)
		p, ok := points[key]
		if !ok {
			p = &TimePoint{Key: key, Start: ts, Schemes: make(map[int]*SchemeStats)}
			points[key] = p
			entities[key] = make(map[int]bool)
		}
		if ts.Before(p.Start) {
			p.Start = ts
		}
		p.Count++
		entities[key][r.EntityID()] = true

		ss, ok := p.Schemes[r.SchemeID]
		if !ok {
			ss = &SchemeStats{SchemeID: r.SchemeID}
			p.Schemes[r.SchemeID] = ss
		}
		ss.Results++
		if s, ok := schemes[r.SchemeID]; ok {
			accumulate(ss, r, s)
		}
	}

	out := TimeSeries{Bucket: bucket, Points: make([]TimePoint, 0, len(points)), Skipped: skipped}
	for key, p := range points {
		p.EntityIDs = sortedIDs(entities[key])
		out.Points = append(out.Points, *p)
	}
	sort.Slice(out.Points, func(i, j int) bool { return out.Points[i].Key < out.Points[j].Key })

	if skipped > 0 {
		a.logger.Info("skipped results without a timestamp",
			zap.Int("skipped", skipped),
			zap.Int("total", len(results)),
			zap.String("axis", string(axis.Type)),
		)
	}
	return out
}

func accumulate(ss *SchemeStats, r types.Result, s types.Scheme) {
	field, ok := s.PrimaryField()
	if !ok {
		return
	}
	v := value.Resolve(r.Value, field, s.Name)
	switch field.Type {
	case types.FieldInt:
		if v.Kind != value.Scalar {
			return
		}
		if n, ok := format.Number(v.Scalar); ok {
			if ss.Numeric == nil {
				ss.Numeric = &Stats{}
			}
			ss.Numeric.Add(n)
		}
	case types.FieldStr:
		if v.Kind != value.Scalar || value.IsPlaceholder(v.Scalar.String()) {
			return
		}
		countLabel(ss, v.Scalar.String())
	case types.FieldListStr:
		if v.Kind != value.StringList {
			return
		}
		for _, item := range format.AllowedLabels(v.Strings, field) {
			countLabel(ss, item)
		}
	}
}

func countLabel(ss *SchemeStats, label string) {
	if ss.Labels == nil {
		ss.Labels = make(map[string]int)
	}
	ss.Labels[label]++
}

// timestamps returns the timestamp strategy for axis.
func (a *Aggregator) timestamps(results []types.Result, schemes types.Schemes, axis TimeAxis) func(types.Result) (time.Time, bool) {
	if axis.Type != AxisSchema {
		return func(r types.Result) (time.Time, bool) {
			if e, ok := axis.Entities[r.EntityID()]; ok {
				if t, ok := e.When(); ok {
					return t, true
				}
			}
			if !r.Timestamp.IsZero() {
				return r.Timestamp.Time, true
			}
			return time.Time{}, false
		}
	}

	dates := make(map[int]time.Time)
	scheme, ok := schemes[axis.SchemeID]
	if !ok {
		a.logger.Warn("time axis scheme not found", zap.Int("scheme_id", axis.SchemeID))
	}
	target, hasTarget := value.ResolveTarget(scheme, axis.FieldKey)
	for _, r := range results {
		if !ok || !hasTarget || r.SchemeID != axis.SchemeID {
			continue
		}
		if _, seen := dates[r.EntityID()]; seen {
			continue
		}
		if t, parsed := dateFrom(r, scheme, target); parsed {
			dates[r.EntityID()] = t
		}
	}
	return func(r types.Result) (time.Time, bool) {
		t, ok := dates[r.EntityID()]
		return t, ok
	}
}

// dateFrom parses the date held by r at target. For record keys the first
// record with a parseable value wins.
func dateFrom(r types.Result, s types.Scheme, target value.Target) (time.Time, bool) {
	v := value.Resolve(r.Value, target.Field, s.Name)
	var candidates []string
	switch {
	case target.IsRecordKey() && v.Kind == value.RecordList:
		for _, rec := range v.Records {
			if member, ok := rec.Get(target.RecordKey); ok && !value.IsNull(member) {
				candidates = append(candidates, member.String())
			}
		}
	case v.Kind == value.Scalar:
		candidates = append(candidates, v.Scalar.String())
	case v.Kind == value.StringList:
		candidates = v.Strings
	}
	for _, c := range candidates {
		if t, ok := ParseDate(c); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a free-form date in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || value.IsPlaceholder(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
