// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"sort"

	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/pkg/types"
)

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartConfig is a render-ready chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType" yaml:"chart_type"`
	Title      string        `json:"title" yaml:"title"`
	XAxis      string        `json:"xAxis,omitempty" yaml:"x_axis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty" yaml:"y_axis,omitempty"`
	Series     []ChartSeries `json:"series" yaml:"series"`
	ShowLegend bool          `json:"showLegend" yaml:"show_legend"`
}

// ChartSeries is one named line or bar set.
type ChartSeries struct {
	Name  string       `json:"name" yaml:"name"`
	Data  []ChartPoint `json:"data" yaml:"data"`
	Color string       `json:"color,omitempty" yaml:"color,omitempty"`
}

// ChartPoint is a single data point.
type ChartPoint struct {
	Label   string  `json:"label" yaml:"label"`
	Value   float64 `json:"value" yaml:"value"`
	Tooltip string  `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
}

// BuildTimeChart turns a time series into a line chart: one result-count
// series, one average series per numeric scheme, and one frequency series
// per scheme label. Returns nil for an empty series.
func BuildTimeChart(ts TimeSeries, schemes types.Schemes, title string) *ChartConfig {
	if len(ts.Points) == 0 {
		return nil
	}

	counts := ChartSeries{Name: "Results", Data: make([]ChartPoint, 0, len(ts.Points))}
	for _, p := range ts.Points {
		counts.Data = append(counts.Data, ChartPoint{
			Label:   p.Key,
			Value:   float64(p.Count),
			Tooltip: fmt.Sprintf("%d results, %d entities", p.Count, len(p.EntityIDs)),
		})
	}
	series := []ChartSeries{counts}

	for _, id := range schemeIDs(ts) {
		name := schemeName(schemes, id)

		var avg ChartSeries
		labels := make(map[string][]ChartPoint)
		for _, p := range ts.Points {
			ss, ok := p.Schemes[id]
			if !ok {
				continue
			}
			if st := ss.Numeric; st != nil {
				avg.Data = append(avg.Data, ChartPoint{
					Label: p.Key,
					Value: format.RoundTo2(st.Avg),
					Tooltip: fmt.Sprintf("avg %s, min %s, max %s (n=%d)",
						format.FormatStat(st.Avg), format.FormatStat(st.Min), format.FormatStat(st.Max), st.Count),
				})
			}
			for label, n := range ss.Labels {
				labels[label] = append(labels[label], ChartPoint{
					Label:   p.Key,
					Value:   float64(n),
					Tooltip: fmt.Sprintf("%s: %d", label, n),
				})
			}
		}
		if len(avg.Data) > 0 {
			avg.Name = name + " (avg)"
			series = append(series, avg)
		}
		names := make([]string, 0, len(labels))
		for l := range labels {
			names = append(names, l)
		}
		sort.Strings(names)
		for _, l := range names {
			series = append(series, ChartSeries{Name: name + ": " + l, Data: labels[l]})
		}
	}

	for i := range series {
		series[i].Color = defaultColors[i%len(defaultColors)]
	}
	if title == "" {
		title = "Results by " + string(ts.Bucket)
	}
	return &ChartConfig{
		ChartType:  "line",
		Title:      title,
		XAxis:      string(ts.Bucket),
		YAxis:      "Value",
		Series:     series,
		ShowLegend: len(series) > 1,
	}
}

// BuildValueChart turns a category series into a single-series bar chart.
// Returns nil when there are no categories.
func BuildValueChart(cs CategorySeries, schemes types.Schemes, title string) *ChartConfig {
	if len(cs.Categories) == 0 {
		return nil
	}
	points := make([]ChartPoint, 0, len(cs.Categories))
	for _, c := range cs.Categories {
		points = append(points, ChartPoint{
			Label:   c.Value,
			Value:   float64(c.Count),
			Tooltip: fmt.Sprintf("%d results, %d entities", c.Count, len(c.EntityIDs)),
		})
	}
	xAxis := cs.FieldKey
	if xAxis == "" {
		xAxis = schemeName(schemes, cs.SchemeID)
	}
	if title == "" {
		title = schemeName(schemes, cs.SchemeID)
	}
	return &ChartConfig{
		ChartType: "bar",
		Title:     title,
		XAxis:     xAxis,
		YAxis:     "Count",
		Series:    []ChartSeries{{Name: "Count", Data: points, Color: defaultColors[0]}},
	}
}

func schemeIDs(ts TimeSeries) []int {
	set := make(map[int]bool)
	for _, p := range ts.Points {
		for id := range p.Schemes {
			set[id] = true
		}
	}
	return sortedIDs(set)
}

func schemeName(schemes types.Schemes, id int) string {
	if s, ok := schemes[id]; ok && s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Scheme %d", id)
}
