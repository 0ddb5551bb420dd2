package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration file without starting anything.

Examples:
  vulcan validate --config /etc/vulcan/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		fmt.Printf("Configuration valid: %s\n", cfgFile)
		fmt.Printf("  ledger backend: %s\n", cfg.Ledger.Backend)
		fmt.Printf("  safety mode:    %s\n", cfg.Safety.Mode)
		fmt.Printf("  log level:      %s\n", cfg.Telemetry.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
