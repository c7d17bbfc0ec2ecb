// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/resultlens/pkg/types"
)

func ptr(f float64) *float64 { return &f }

func testSchemes() types.Schemes {
	return types.NewSchemes([]types.Scheme{
		{ID: 1, Name: "Score", Fields: []types.FieldDefinition{
			{Name: "v", Type: types.FieldInt, ScaleMin: ptr(0), ScaleMax: ptr(10)},
		}},
		{ID: 2, Name: "Topics", Fields: []types.FieldDefinition{
			{Name: "topics", Type: types.FieldListStr, IsSetOfLabels: true, Labels: []string{"econ", "politics"}},
		}},
		{ID: 3, Name: "Published", Fields: []types.FieldDefinition{
			{Name: "date", Type: types.FieldStr},
		}},
		{ID: 4, Name: "Claims", Fields: []types.FieldDefinition{
			{Name: "claims", Type: types.FieldListDict, DictKeys: []types.DictKeyDefinition{{Name: "actor", Type: "str"}}},
		}},
	})
}

func res(id, entity, scheme int, ts, raw string) types.Result {
	r := types.Result{ID: id, DocumentID: entity, SchemeID: scheme, Value: json.RawMessage(raw)}
	if ts != "" {
		t, err := types.ParseTimestamp(ts)
		if err != nil {
			panic(err)
		}
		r.Timestamp = t
	}
	return r
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBucketKey(t *testing.T) {
	ts := date("2024-03-15")
	assert.Equal(t, "2024-03-15", BucketKey(ts, Day))
	assert.Equal(t, "2024-03", BucketKey(ts, Month))
	assert.Equal(t, "2024-W03", BucketKey(ts, Week))
	assert.Equal(t, "2024-W01", BucketKey(date("2024-03-07"), Week))
	assert.Equal(t, "2024-W02", BucketKey(date("2024-03-08"), Week))
	assert.Equal(t, "2024-W05", BucketKey(date("2024-03-31"), Week))
}

func TestBucketKey_WeeksCollideAcrossMonths(t *testing.T) {
	assert.Equal(t, BucketKey(date("2024-01-03"), Week), BucketKey(date("2024-02-03"), Week))
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("Week")
	require.NoError(t, err)
	assert.Equal(t, Week, b)

	b, err = ParseBucket("")
	require.NoError(t, err)
	assert.Equal(t, Month, b)

	_, err = ParseBucket("quarter")
	assert.Error(t, err)
}

func TestStats_IncrementalMean(t *testing.T) {
	var s Stats
	for _, x := range []float64{4, 1, 7} {
		s.Add(x)
	}
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 7.0, s.Max)
	assert.InDelta(t, 4.0, s.Avg, 1e-9)
}

func TestAggregateByTime_MonthScenario(t *testing.T) {
	results := []types.Result{
		res(1, 10, 1, "2024-01-01", `{"v":1}`),
		res(2, 11, 1, "2024-01-01", `{"v":3}`),
		res(3, 12, 1, "2024-02-15", `{"v":5}`),
	}
	ts := New().AggregateByTime(results, testSchemes(), TimeAxis{Type: AxisDefault}, Month)

	require.Len(t, ts.Points, 2)
	assert.Equal(t, "2024-01", ts.Points[0].Key)
	assert.Equal(t, "2024-02", ts.Points[1].Key)
	require.NotNil(t, ts.Points[0].Schemes[1].Numeric)
	assert.Equal(t, 2.0, ts.Points[0].Schemes[1].Numeric.Avg)
	assert.Equal(t, 5.0, ts.Points[1].Schemes[1].Numeric.Avg)
	assert.Equal(t, []int{10, 11}, ts.Points[0].EntityIDs)
	assert.Zero(t, ts.Skipped)
}

func TestAggregateByTime_EntityTimestampsWin(t *testing.T) {
	event := types.Timestamp{Time: date("2023-06-02")}
	axis := TimeAxis{Type: AxisDefault, Entities: map[int]types.Entity{
		10: {ID: 10, EventTimestamp: &event, CreatedAt: types.Timestamp{Time: date("2024-05-05")}},
		11: {ID: 11, CreatedAt: types.Timestamp{Time: date("2024-05-05")}},
	}}
	results := []types.Result{
		res(1, 10, 1, "2024-01-01", `{"v":1}`),
		res(2, 11, 1, "2024-01-01", `{"v":2}`),
		res(3, 12, 1, "2024-01-01", `{"v":3}`),
	}
	ts := New().AggregateByTime(results, testSchemes(), axis, Month)

	keys := make([]string, len(ts.Points))
	for i, p := range ts.Points {
		keys[i] = p.Key
	}
	assert.Equal(t, []string{"2023-06", "2024-01", "2024-05"}, keys)
}

func TestAggregateByTime_SkipsUndated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := New(WithLogger(zap.New(core)))

	results := []types.Result{
		res(1, 10, 1, "2024-01-01", `{"v":1}`),
		res(2, 11, 1, "", `{"v":2}`),
	}
	ts := a.AggregateByTime(results, testSchemes(), TimeAxis{Type: AxisDefault}, Day)
	require.Len(t, ts.Points, 1)
	assert.Equal(t, 1, ts.Skipped)
	assert.Equal(t, 1, logs.FilterMessage("skipped results without a timestamp").Len())
}

func TestAggregateByTime_SchemaAxis(t *testing.T) {
	results := []types.Result{
		res(1, 10, 3, "", `{"date":"2024-03-03"}`),
		res(2, 10, 1, "", `{"v":4}`),
		res(3, 10, 2, "", `{"topics":["econ","sport","politics"]}`),
		res(4, 11, 3, "", `{"date":"n/a"}`),
		res(5, 11, 1, "", `{"v":9}`),
		res(6, 12, 3, "", `{"date":"2024-03-20"}`),
		res(7, 12, 2, "", `{"topics":["econ"]}`),
	}
	axis := TimeAxis{Type: AxisSchema, SchemeID: 3}
	ts := New().AggregateByTime(results, testSchemes(), axis, Month)

	require.Len(t, ts.Points, 1)
	p := ts.Points[0]
	assert.Equal(t, "2024-03", p.Key)
	assert.Equal(t, 3, p.Count)
	assert.NotContains(t, p.Schemes, 3)
	assert.Equal(t, map[string]int{"econ": 2, "politics": 1}, p.Schemes[2].Labels)
	assert.Equal(t, 4.0, p.Schemes[1].Numeric.Avg)
	assert.Equal(t, 1, ts.Skipped)
}

func TestAggregateByTime_WeekBuckets(t *testing.T) {
	results := []types.Result{
		res(1, 10, 1, "2024-01-03", `{"v":2}`),
		res(2, 11, 1, "2024-02-03", `{"v":4}`),
		res(3, 12, 1, "2024-01-09", `{"v":6}`),
	}
	ts := New().AggregateByTime(results, testSchemes(), TimeAxis{}, Week)
	require.Len(t, ts.Points, 2)
	assert.Equal(t, "2024-W01", ts.Points[0].Key)
	assert.Equal(t, 2, ts.Points[0].Count)
	assert.True(t, date("2024-01-03").Equal(ts.Points[0].Start))
	assert.Equal(t, "2024-W02", ts.Points[1].Key)
}

func TestAggregateByValue(t *testing.T) {
	results := []types.Result{
		res(1, 10, 1, "", `{"v":3}`),
		res(2, 11, 1, "", `{"v":3.001}`),
		res(3, 12, 1, "", `{"v":7}`),
		res(4, 13, 1, "", `{"v":null}`),
		res(5, 13, 2, "", `{"topics":["econ"]}`),
	}
	cs := New().AggregateByValue(results, testSchemes(), 1, "")
	require.Len(t, cs.Categories, 3)
	assert.Equal(t, Category{Value: "3", Count: 2, EntityIDs: []int{10, 11}}, cs.Categories[0])
	assert.Equal(t, "7", cs.Categories[1].Value)
	assert.Equal(t, "N/A", cs.Categories[2].Value)
}

func TestAggregateByValue_LabelsFanOut(t *testing.T) {
	results := []types.Result{
		res(1, 10, 2, "", `{"topics":["econ","politics"]}`),
		res(2, 11, 2, "", `{"topics":["Econ","sport"]}`),
		res(3, 12, 2, "", `{"topics":[]}`),
	}
	cs := New().AggregateByValue(results, testSchemes(), 2, "")
	values := make(map[string]int)
	for _, c := range cs.Categories {
		values[c.Value] = c.Count
	}
	assert.Equal(t, map[string]int{"econ": 1, "Econ": 1, "politics": 1, "None": 1}, values)
}

func TestAggregateByValue_FirstRecordOnly(t *testing.T) {
	results := []types.Result{
		res(1, 10, 4, "", `{"claims":[{"actor":"ECB"},{"actor":"Fed"}]}`),
		res(2, 11, 4, "", `{"claims":[{"note":"x"},{"actor":"Fed"}]}`),
		res(3, 12, 4, "", `{"claims":[{"note":"x"}]}`),
	}
	cs := New().AggregateByValue(results, testSchemes(), 4, "actor")
	require.Len(t, cs.Categories, 2)
	assert.Equal(t, "ECB", cs.Categories[0].Value)
	assert.Equal(t, 1, cs.Categories[0].Count)
	assert.Equal(t, "Fed", cs.Categories[1].Value)
	assert.Equal(t, []int{11}, cs.Categories[1].EntityIDs)
	assert.Equal(t, 1, cs.Skipped)
}

func TestAggregateByValue_UnknownScheme(t *testing.T) {
	cs := New().AggregateByValue(nil, testSchemes(), 99, "")
	assert.Empty(t, cs.Categories)
}

func TestBuildTimeChart(t *testing.T) {
	results := []types.Result{
		res(1, 10, 1, "2024-01-01", `{"v":1}`),
		res(2, 11, 1, "2024-01-01", `{"v":3}`),
		res(3, 12, 2, "2024-02-15", `{"topics":["econ"]}`),
	}
	schemes := testSchemes()
	ts := New().AggregateByTime(results, schemes, TimeAxis{}, Month)
	chart := BuildTimeChart(ts, schemes, "")
	require.NotNil(t, chart)

	assert.Equal(t, "line", chart.ChartType)
	require.Len(t, chart.Series, 3)
	assert.Equal(t, "Results", chart.Series[0].Name)
	assert.Equal(t, "Score (avg)", chart.Series[1].Name)
	assert.Equal(t, "avg 2.0, min 1.0, max 3.0 (n=2)", chart.Series[1].Data[0].Tooltip)
	assert.Equal(t, "Topics: econ", chart.Series[2].Name)

	assert.Nil(t, BuildTimeChart(TimeSeries{}, schemes, ""))
}

func TestBuildValueChart(t *testing.T) {
	cs := CategorySeries{SchemeID: 1, Categories: []Category{
		{Value: "3", Count: 2, EntityIDs: []int{1, 2}},
		{Value: "7", Count: 1, EntityIDs: []int{3}},
	}}
	chart := BuildValueChart(cs, testSchemes(), "")
	require.NotNil(t, chart)
	assert.Equal(t, "bar", chart.ChartType)
	assert.Equal(t, "Score", chart.Title)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, []ChartPoint{
		{Label: "3", Value: 2, Tooltip: "2 results, 2 entities"},
		{Label: "7", Value: 1, Tooltip: "1 results, 1 entities"},
	}, chart.Series[0].Data)

	assert.Nil(t, BuildValueChart(CategorySeries{}, testSchemes(), ""))
}
