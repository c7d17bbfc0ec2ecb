// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resultlens/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached result set",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Cache.Path == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No persistent cache configured (cache.path is empty).")
			return nil
		}
		c, err := cache.OpenSQLite(cfg.Cache.Path, cfg.Cache.TTL, nil)
		if err != nil {
			return fmt.Errorf("opening result cache: %w", err)
		}
		defer c.Close()
		if err := c.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
