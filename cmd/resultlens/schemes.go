// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resultlens/internal/scheme"
	"github.com/pdiddy/resultlens/pkg/types"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List and validate classification schemes",
}

// --- list subcommand ---

var schemesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspace's classification schemes",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadSchemes(cmd)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		writeSchemeTable(cmd.OutOrStdout(), list)
		return nil
	},
}

// --- validate subcommand ---

var schemesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check scheme definitions for structural problems",
	Long: `Validate checks every scheme: int fields need scale_min < scale_max,
labelled List[str] fields need at least two labels, List[Dict] fields need at
least one dict key typed str, int, float or bool, and field names must be
present and unique.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := loadSchemes(cmd)
		if err != nil {
			return err
		}
		problems := scheme.Problems(scheme.ValidateAll(list))
		out := cmd.OutOrStdout()
		for _, p := range problems {
			fmt.Fprintln(out, p.Error())
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d problem(s) in %d scheme(s)", len(problems), len(list))
		}
		fmt.Fprintf(out, "%d scheme(s) valid\n", len(list))
		return nil
	},
}

func writeSchemeTable(w io.Writer, list []types.Scheme) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No schemes found.")
		return
	}
	fmt.Fprintf(w, "%-6s  %-30s  %s\n", "ID", "Name", "Fields")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, s := range list {
		fields := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = fmt.Sprintf("%s:%s", f.Name, f.Type)
		}
		fmt.Fprintf(w, "%-6d  %-30s  %s\n", s.ID, truncate(s.Name, 30), strings.Join(fields, ", "))
	}
	fmt.Fprintf(w, "\n%d schemes\n", len(list))
}

func sortedSchemes(idx types.Schemes) []types.Scheme {
	list := make([]types.Scheme, 0, len(idx))
	for _, s := range idx {
		list = append(list, s)
	}
	slices.SortFunc(list, func(a, b types.Scheme) int { return a.ID - b.ID })
	return list
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	addDataFlags(schemesListCmd, false)
	schemesListCmd.Flags().Bool("json", false, "output schemes as JSON")
	addDataFlags(schemesValidateCmd, false)

	schemesCmd.AddCommand(schemesListCmd, schemesValidateCmd)
	rootCmd.AddCommand(schemesCmd)
}
