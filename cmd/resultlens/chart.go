// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/aggregate"
	"github.com/pdiddy/resultlens/internal/format"
	"github.com/pdiddy/resultlens/pkg/types"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Aggregate results into chart series",
}

// --- time subcommand ---

var chartTimeCmd = &cobra.Command{
	Use:   "time",
	Short: "Bucket results by day, week or month",
	Long: `Time places each result on a time axis and aggregates per bucket: result
counts, min/max/avg for numeric schemes and label frequencies for categorical
ones.

With --axis default the timestamp is the data record's event time, else its
creation time, else the result's own timestamp. With --axis schema the date is
read from the entity's result for --axis-scheme (and --axis-field). Results
without a usable date are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucketFlag, _ := cmd.Flags().GetString("bucket")
		bucket, err := aggregate.ParseBucket(bucketFlag)
		if err != nil {
			return err
		}
		axisFlag, _ := cmd.Flags().GetString("axis")
		axis := aggregate.TimeAxis{Type: aggregate.AxisType(axisFlag)}
		switch axis.Type {
		case aggregate.AxisDefault:
		case aggregate.AxisSchema:
			axis.SchemeID, _ = cmd.Flags().GetInt("axis-scheme")
			axis.FieldKey, _ = cmd.Flags().GetString("axis-field")
			if axis.SchemeID == 0 {
				return fmt.Errorf("--axis-scheme is required with --axis schema")
			}
		default:
			return fmt.Errorf("unknown axis %q (want default or schema)", axisFlag)
		}

		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		axis.Entities = ds.entityIndex()

		agg := aggregate.New(aggregate.WithLogger(logger))
		ts := agg.AggregateByTime(ds.Results, ds.Schemes, axis, bucket)
		if ts.Skipped > 0 {
			logger.Warn("results without a timestamp were left out", zap.Int("skipped", ts.Skipped))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			title, _ := cmd.Flags().GetString("title")
			return writeChartJSON(cmd.OutOrStdout(), aggregate.BuildTimeChart(ts, ds.Schemes, title))
		}
		writeTimeSeries(cmd.OutOrStdout(), ts, ds.Schemes)
		return nil
	},
}

// --- values subcommand ---

var chartValuesCmd = &cobra.Command{
	Use:   "values",
	Short: "Count results by the value of one scheme field",
	Long: `Values groups one scheme's results by the rendered value of its primary
field, or of --field (a field name or a List[Dict] key). Label lists count once
per label. For record keys only the first record holding the key counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemeID, _ := cmd.Flags().GetInt("scheme")
		if schemeID == 0 {
			return fmt.Errorf("--scheme is required")
		}
		fieldKey, _ := cmd.Flags().GetString("field")

		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		if _, ok := ds.Schemes[schemeID]; !ok {
			return fmt.Errorf("scheme %d not found", schemeID)
		}

		agg := aggregate.New(aggregate.WithLogger(logger))
		cs := agg.AggregateByValue(ds.Results, ds.Schemes, schemeID, fieldKey)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			title, _ := cmd.Flags().GetString("title")
			return writeChartJSON(cmd.OutOrStdout(), aggregate.BuildValueChart(cs, ds.Schemes, title))
		}
		writeCategories(cmd.OutOrStdout(), cs)
		return nil
	},
}

func writeChartJSON(w io.Writer, chart *aggregate.ChartConfig) error {
	if chart == nil {
		chart = &aggregate.ChartConfig{Series: []aggregate.ChartSeries{}}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(chart)
}

func writeTimeSeries(w io.Writer, ts aggregate.TimeSeries, schemes types.Schemes) {
	if len(ts.Points) == 0 {
		fmt.Fprintln(w, "No dated results found.")
		return
	}
	fmt.Fprintf(w, "%-10s  %-7s  %-8s  %s\n", "Bucket", "Results", "Entities", "Schemes")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, p := range ts.Points {
		ids := make([]int, 0, len(p.Schemes))
		for id := range p.Schemes {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, summarizeStats(schemes[id].Name, p.Schemes[id]))
		}
		fmt.Fprintf(w, "%-10s  %-7d  %-8d  %s\n", p.Key, p.Count, len(p.EntityIDs), strings.Join(parts, "; "))
	}
	fmt.Fprintf(w, "\n%d buckets", len(ts.Points))
	if ts.Skipped > 0 {
		fmt.Fprintf(w, " (%d undated results skipped)", ts.Skipped)
	}
	fmt.Fprintln(w)
}

// summarizeStats renders one scheme's bucket as "Name avg x [min-max]" or
// "Name label=n, label=n".
func summarizeStats(name string, ss *aggregate.SchemeStats) string {
	if ss.Numeric != nil {
		return fmt.Sprintf("%s avg %s [%s-%s]", name,
			format.FormatStat(ss.Numeric.Avg), format.FormatStat(ss.Numeric.Min), format.FormatStat(ss.Numeric.Max))
	}
	if len(ss.Labels) == 0 {
		return fmt.Sprintf("%s n=%d", name, ss.Results)
	}
	labels := make([]string, 0, len(ss.Labels))
	for l := range ss.Labels {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if ss.Labels[labels[i]] != ss.Labels[labels[j]] {
			return ss.Labels[labels[i]] > ss.Labels[labels[j]]
		}
		return labels[i] < labels[j]
	})
	for i, l := range labels {
		labels[i] = fmt.Sprintf("%s=%d", l, ss.Labels[l])
	}
	return name + " " + strings.Join(labels, ", ")
}

func writeCategories(w io.Writer, cs aggregate.CategorySeries) {
	if len(cs.Categories) == 0 {
		fmt.Fprintln(w, "No values found.")
		return
	}
	fmt.Fprintf(w, "%-40s  %-7s  %s\n", "Value", "Results", "Entities")
	fmt.Fprintln(w, strings.Repeat("-", 64))
	for _, c := range cs.Categories {
		fmt.Fprintf(w, "%-40s  %-7d  %d\n", truncate(c.Value, 40), c.Count, len(c.EntityIDs))
	}
	fmt.Fprintf(w, "\n%d values", len(cs.Categories))
	if cs.Skipped > 0 {
		fmt.Fprintf(w, " (%d results without the field skipped)", cs.Skipped)
	}
	fmt.Fprintln(w)
}

func init() {
	addDataFlags(chartTimeCmd, true)
	chartTimeCmd.Flags().String("bucket", "month", "bucket size: day, week or month")
	chartTimeCmd.Flags().String("axis", "default", "timestamp strategy: default or schema")
	chartTimeCmd.Flags().Int("axis-scheme", 0, "scheme holding the date for --axis schema")
	chartTimeCmd.Flags().String("axis-field", "", "field or record key holding the date for --axis schema")
	chartTimeCmd.Flags().Bool("json", false, "output a chart configuration as JSON")
	chartTimeCmd.Flags().String("title", "Results over time", "chart title for --json")

	addDataFlags(chartValuesCmd, true)
	chartValuesCmd.Flags().Int("scheme", 0, "scheme to group by")
	chartValuesCmd.Flags().String("field", "", "field name or record key (default: primary field)")
	chartValuesCmd.Flags().Bool("json", false, "output a chart configuration as JSON")
	chartValuesCmd.Flags().String("title", "Results by value", "chart title for --json")

	chartCmd.AddCommand(chartTimeCmd, chartValuesCmd)
	rootCmd.AddCommand(chartCmd)
}
