// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the resultlens CLI. It reads schemes
// and classification results from the backend API or from local fixture
// files and prints them formatted, filtered, aggregated or exported.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/resultlens/internal/logging"
	"github.com/pdiddy/resultlens/internal/secrets"
	"github.com/pdiddy/resultlens/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the merged configuration: defaults, config file, environment, flags.
	cfg types.Config

	// logger is built from cfg.Log before any subcommand runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the resultlens CLI.
var rootCmd = &cobra.Command{
	Use:   "resultlens",
	Short: "Inspect, filter and chart classification results",
	Long: `resultlens reads classification schemes and results from a classification
backend (or from local JSON/YAML fixtures) and normalizes the loosely typed
result values into display strings, filter decisions and chart series.

Results fetched from the API are cached for cache.ttl (default 5m). Set
cache.path to keep them in a SQLite file across invocations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		if tok := secrets.Token(s); tok != "" {
			cfg.API.Token = tok
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./resultlens.yaml or ~/.config/resultlens/config.yaml)")
	pf.String("base-url", "", "classification API root, e.g. https://example.org/api/v1")
	pf.Int("workspace", 0, "workspace id")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log encoding: console or json")
	pf.String("cache-path", "", "SQLite file for a persistent result cache")

	bind := map[string]string{
		"api.base_url":     "base-url",
		"api.workspace_id": "workspace",
		"log.level":        "log-level",
		"log.format":       "log-format",
		"cache.path":       "cache-path",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	setDefaults(viper.GetViper())
}

// setDefaults registers every configuration key so the environment can
// override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.workspace_id", 0)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.user_agent", "resultlens/"+version)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("cache.ttl", types.DefaultCacheTTL.String())
	v.SetDefault("cache.path", "")
	v.SetDefault("display.compact_items", 2)
	v.SetDefault("display.full_items", 5)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", logging.FormatConsole)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("resultlens")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "resultlens"))
		}
	}

	viper.SetEnvPrefix("RESULTLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
