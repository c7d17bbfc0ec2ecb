// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export formatted results as JSON, YAML, CSV or XLSX",
	Long: `Export writes the entity by scheme table with each value rendered on a
single line (records as "subject: content" where the keys allow it). Use
--output for xlsx.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		return renderTable(cmd, ds, ds.Results, ds.Entities)
	},
}

func init() {
	addDataFlags(exportCmd, true)
	addTableFlags(exportCmd, "plain", "json")

	rootCmd.AddCommand(exportCmd)
}
