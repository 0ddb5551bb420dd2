package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/promotion"
)

var promoteFlags struct {
	preset string
	lane   string
}

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Evaluate preset promotion policy",
	Long: `Evaluate whether a preset's run history qualifies it for a target
production lane.

The check subcommand is a dry run: it reads the ledger, applies the lane
policy, and prints the decision without recording anything.

Examples:
  vulcan promote check --preset "maple-neck-v3" --lane tuned`,
}

var promoteCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run a promotion decision",
	RunE:  runPromoteCheck,
}

func init() {
	rootCmd.AddCommand(promoteCmd)
	promoteCmd.AddCommand(promoteCheckCmd)

	promoteCheckCmd.Flags().StringVar(&promoteFlags.preset, "preset", "", "preset id to evaluate")
	promoteCheckCmd.Flags().StringVar(&promoteFlags.lane, "lane", "", "target lane: safe, tuned, experimental")
	promoteCheckCmd.MarkFlagRequired("preset")
	promoteCheckCmd.MarkFlagRequired("lane")
}

func runPromoteCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := promotion.NewEngine(store, &cfg.Promotion, nil)
	decision, err := engine.Evaluate(context.Background(), promoteFlags.preset, promoteFlags.lane)
	if err != nil {
		return err
	}

	if err := printJSON(os.Stdout, decision); err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("promotion blocked: %s", decision.Reason)
	}
	return nil
}
