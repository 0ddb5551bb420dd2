package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/ledger"
	"tonewood-hq/vulcan/pkg/ledger/diff"
	"tonewood-hq/vulcan/pkg/ledger/query"
)

var ledgerFlags struct {
	status    string
	mode      string
	tool      string
	risk      string
	preset    string
	dateFrom  string
	dateTo    string
	limit     int
	cursor    string
	output    string
	maxItems  int
	rawOutput bool
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the run artifact ledger",
	Long: `Query, fetch, and compare run artifacts.

Every manufacturing decision attempt is recorded as a run artifact; the
ledger commands read the configured store directly.

Examples:
  # Last 20 blocked runs for a tool family
  vulcan ledger list --status BLOCKED --tool "router/" --limit 20

  # Fetch one artifact
  vulcan ledger get run-20260514-1f2e3d4c-5a6b-7c8d-9e0f-112233445566

  # Compare two runs
  vulcan ledger diff <run-a> <run-b>`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List run artifacts",
	Long: `List run artifacts newest first, with optional filters.

Date filters are inclusive and resolved at day granularity. Pagination is
cursor-based: pass the next_cursor of a previous page via --cursor.

Examples:
  # All RED runs in a date range
  vulcan ledger list --risk RED --from 2026-05-01 --to 2026-05-14

  # Continue a previous page
  vulcan ledger list --cursor "MjAyNi0wNS0xNHxydW4t..."`,
	RunE: runLedgerList,
}

var ledgerGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Fetch one run artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerGet,
}

var ledgerDownloadCmd = &cobra.Command{
	Use:   "download <run-id>",
	Short: "Download the exact persisted bytes of an artifact",
	Long: `Download the raw stored JSON of a run artifact, byte-for-byte as
persisted, suitable for external hash verification.`,
	Args: cobra.ExactArgs(1),
	RunE: runLedgerDownload,
}

var ledgerDiffCmd = &cobra.Command{
	Use:   "diff <run-id-a> <run-id-b>",
	Short: "Compare the decision-relevant fields of two runs",
	Args:  cobra.ExactArgs(2),
	RunE:  runLedgerDiff,
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd, ledgerGetCmd, ledgerDownloadCmd, ledgerDiffCmd)

	ledgerListCmd.Flags().StringVar(&ledgerFlags.status, "status", "", "filter by status: OK, BLOCKED, ERROR")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.mode, "mode", "", "filter by mode")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.tool, "tool", "", "filter by tool id prefix")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.risk, "risk", "", "filter by risk level: GREEN, YELLOW, RED, UNKNOWN")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.preset, "preset", "", "filter by preset id")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.dateFrom, "from", "", "inclusive start date (YYYY-MM-DD)")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.dateTo, "to", "", "inclusive end date (YYYY-MM-DD)")
	ledgerListCmd.Flags().IntVar(&ledgerFlags.limit, "limit", query.DefaultLimit, "max results per page")
	ledgerListCmd.Flags().StringVar(&ledgerFlags.cursor, "cursor", "", "pagination cursor from a previous page")

	ledgerDownloadCmd.Flags().StringVarP(&ledgerFlags.output, "output", "o", "", "output file (default: stdout)")

	ledgerDiffCmd.Flags().IntVar(&ledgerFlags.maxItems, "max-items", diff.DefaultMaxItems, "max diff entries before truncation")
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	q := &ledger.Query{
		Status:       ledger.Status(ledgerFlags.status),
		Mode:         ledgerFlags.mode,
		ToolIDPrefix: ledgerFlags.tool,
		RiskLevel:    ledger.RiskLevel(ledgerFlags.risk),
		PresetID:     ledgerFlags.preset,
		Limit:        ledgerFlags.limit,
		Cursor:       ledgerFlags.cursor,
	}
	if ledgerFlags.dateFrom != "" {
		from, err := time.Parse("2006-01-02", ledgerFlags.dateFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		q.DateFrom = &from
	}
	if ledgerFlags.dateTo != "" {
		to, err := time.Parse("2006-01-02", ledgerFlags.dateTo)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
		q.DateTo = &to
	}

	if err := query.Validate(q); err != nil {
		return err
	}
	query.ApplyDefaults(q)

	page, err := store.List(context.Background(), q)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, page)
}

func runLedgerGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	artifact, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, artifact)
}

func runLedgerDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	raw, err := store.GetRaw(context.Background(), args[0])
	if err != nil {
		return err
	}

	if ledgerFlags.output == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	return os.WriteFile(ledgerFlags.output, raw, 0o644)
}

func runLedgerDiff(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	a, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	b, err := store.Get(ctx, args[1])
	if err != nil {
		return err
	}

	entries, err := diff.Artifacts(a, b, ledgerFlags.maxItems)
	if err != nil {
		return err
	}

	result := map[string]any{
		"run_a":   a.RunID,
		"run_b":   b.RunID,
		"total":   len(entries),
		"entries": entries,
	}
	return printJSON(os.Stdout, result)
}

func printJSON(output *os.File, v any) error {
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
