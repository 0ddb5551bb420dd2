package main

import (
	"os"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/safety"
)

var safetyFlags struct {
	action    string
	lane      string
	fragility float64
	risk      string
}

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Inspect the safety mode policy",
	Long: `Inspect how the safety engine would treat an action.

The classify subcommand grades an action context against the risk
classification rules and shows the outcome the configured mode would
produce. It never consumes override tokens.

Examples:
  vulcan safety classify --action run_experimental_job \
    --lane experimental --fragility 0.82 --risk RED`,
}

var safetyClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Grade an action context",
	RunE:  runSafetyClassify,
}

func init() {
	rootCmd.AddCommand(safetyCmd)
	safetyCmd.AddCommand(safetyClassifyCmd)

	safetyClassifyCmd.Flags().StringVar(&safetyFlags.action, "action", "", "action name, e.g. promote_preset")
	safetyClassifyCmd.Flags().StringVar(&safetyFlags.lane, "lane", "", "target lane: safe, tuned, experimental")
	safetyClassifyCmd.Flags().Float64Var(&safetyFlags.fragility, "fragility", 0, "fragility score in [0,1]")
	safetyClassifyCmd.Flags().StringVar(&safetyFlags.risk, "risk", "", "feasibility risk grade: GREEN, YELLOW, RED, UNKNOWN")
	safetyClassifyCmd.MarkFlagRequired("action")
	safetyClassifyCmd.MarkFlagRequired("lane")
}

func runSafetyClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	action := &safety.ActionContext{
		Action:         safetyFlags.action,
		Lane:           safetyFlags.lane,
		FragilityScore: safetyFlags.fragility,
		RiskGrade:      ledger.RiskLevel(safetyFlags.risk),
	}

	engine, err := safety.NewEngine(
		&safety.Config{Mode: safety.Mode(cfg.Safety.Mode)},
		safety.NewTokenStore(cfg.Safety.TokenTTL),
		nil,
	)
	if err != nil {
		return err
	}

	// No token: the decision shows what the mode demands for this class.
	decision, _ := engine.Decide(action, "")

	result := map[string]any{
		"action":  action,
		"mode":    decision.Mode,
		"risk":    decision.Risk,
		"outcome": decision.Outcome,
	}
	if decision.Reason != "" {
		result["reason"] = decision.Reason
	}
	return printJSON(os.Stdout, result)
}
