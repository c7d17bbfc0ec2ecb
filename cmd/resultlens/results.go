// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/filter"
	"github.com/pdiddy/resultlens/internal/report"
	"github.com/pdiddy/resultlens/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show and filter classification results",
}

// --- show subcommand ---

var resultsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print results as an entity by scheme table",
	Long: `Show renders every result against its scheme's primary field: boolean
scales as True/False, numbers to two decimals, label lists filtered to the
scheme's labels and record lists truncated with "+N more".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		return renderTable(cmd, ds, ds.Results, ds.Entities)
	},
}

// --- filter subcommand ---

var resultsFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the entities matching every filter in a filter file",
	Long: `Filter reads a YAML or JSON list of filters (scheme_id, field_key,
operator, value, is_active) and keeps the entities whose results satisfy all
active filters. Operators: equals, contains, range, greater_than, less_than.
An entity without a result for a scheme matches only equals "N/A".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("filters")
		if path == "" {
			return fmt.Errorf("--filters is required")
		}
		filters, err := filter.LoadFilters(path)
		if err != nil {
			return err
		}

		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}

		m := filter.NewMatcher(filter.WithLogger(logger))
		ids := m.Apply(filters, ds.Results, ds.entityIDs(), ds.Schemes)
		logger.Info("applied filters", zap.Int("filters", len(filters)), zap.Int("matched", len(ids)))

		if idsOnly, _ := cmd.Flags().GetBool("ids"); idsOnly {
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}

		var kept []types.Result
		for _, r := range ds.Results {
			if _, ok := slices.BinarySearch(ids, r.EntityID()); ok {
				kept = append(kept, r)
			}
		}
		var entities []types.Entity
		for _, e := range ds.Entities {
			if _, ok := slices.BinarySearch(ids, e.ID); ok {
				entities = append(entities, e)
			}
		}
		return renderTable(cmd, ds, kept, entities)
	},
}

// renderTable builds the result table and writes it to stdout, or to
// --output when set.
func renderTable(cmd *cobra.Command, ds *dataset, results []types.Result, entities []types.Entity) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := parseMode(modeFlag)
	if err != nil {
		return err
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	f, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	tbl := report.BuildTable(results, entities, ds.Schemes, newFormatter(), mode)

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer file.Close()
		out = file
	} else if f == report.FormatXLSX {
		return fmt.Errorf("--output is required for xlsx")
	}
	return report.Write(out, tbl, f)
}

func addTableFlags(cmd *cobra.Command, defaultMode, defaultFormat string) {
	cmd.Flags().String("mode", defaultMode, "cell rendering: compact, full or plain")
	cmd.Flags().String("format", defaultFormat, "output format: text, json, yaml, csv or xlsx")
	cmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}

func init() {
	addDataFlags(resultsShowCmd, true)
	addTableFlags(resultsShowCmd, "compact", "text")

	addDataFlags(resultsFilterCmd, true)
	addTableFlags(resultsFilterCmd, "compact", "text")
	resultsFilterCmd.Flags().String("filters", "", "YAML or JSON filter file")
	resultsFilterCmd.Flags().Bool("ids", false, "print only the matching entity ids")

	resultsCmd.AddCommand(resultsShowCmd, resultsFilterCmd)
	rootCmd.AddCommand(resultsCmd)
}
