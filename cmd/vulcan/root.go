package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/config"
	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/store"
	"tonewood-hq/vulcan/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vulcan",
	Short: "Vulcan - manufacturing decision ledger and safety gate",
	Long: `Vulcan records every manufacturing decision attempt as an immutable,
hash-verified run artifact and enforces the policy engines governing
risky operations:

  - Feasibility gate: server-recomputed safety decisions, hard block on
    RED/UNKNOWN risk, one audit artifact per request
  - Safety mode engine: supervised override tokens for risky actions
  - Promotion policy: historical-evidence gating for production lanes`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		_, err := logging.Setup(config.LoggingConfig{Level: level, Format: "text"}, os.Stderr)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file, falling back to defaults when
// the default path does not exist and was not explicitly requested.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			return config.DefaultConfig(), nil
		}
	}
	return config.Load(cfgFile)
}

// openStore builds the configured ledger store.
func openStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case "sqlite":
		return store.NewSQLiteStore(&store.SQLiteConfig{Path: cfg.Ledger.SQLitePath})
	default:
		return store.NewFSStore(&store.FSConfig{Root: cfg.Ledger.Root})
	}
}
