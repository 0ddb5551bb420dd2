package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"tonewood-hq/vulcan/pkg/cli"
	"tonewood-hq/vulcan/pkg/config"
	"tonewood-hq/vulcan/pkg/server"
	"tonewood-hq/vulcan/pkg/telemetry/logging"
	"tonewood-hq/vulcan/pkg/telemetry/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit HTTP API server",
	Long: `Run the read-only audit API over the run artifact ledger.

The server exposes listing, fetching, downloading, and diffing of run
artifacts, the append-only meta patch, Prometheus metrics, and health
probes. Decisions themselves are not made over HTTP.

Endpoints:
  GET   /v1/runs                    list artifacts (cursor pagination)
  GET   /v1/runs/{id}               fetch one artifact
  GET   /v1/runs/{id}/download      exact persisted bytes
  PATCH /v1/runs/{id}/meta          merge meta, append advisory inputs
  GET   /v1/diff?a=...&b=...        compare two runs
  GET   /health, /ready, /version, /metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.NewConfigError("failed to load configuration", err)
	}

	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return cli.NewConfigError("failed to set up logging", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("serve", "failed to open ledger store", err)
	}
	defer store.Close()

	var collector *metrics.Collector
	if !cfg.Telemetry.Metrics.Disabled {
		collector = metrics.NewCollector(&metrics.Config{
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		})
	}

	ctx := cli.SetupSignalHandler()

	// Hot-reload logging settings on config changes. Everything else the
	// server reads (listen address, store backend) needs a restart.
	if _, err := os.Stat(cfgFile); err == nil {
		watcher := config.NewWatcher(cfgFile, 0)
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) error {
				_, err := logging.Setup(next.Telemetry.Logging, os.Stderr)
				return err
			})
			if err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	srv := server.New(&cfg.Server, store, collector, server.BuildInfo{
		Version: Version,
		Commit:  GitCommit,
		Date:    BuildDate,
	})

	logger.Info("starting vulcan audit API",
		"address", cfg.Server.ListenAddress,
		"backend", cfg.Ledger.Backend,
		"metrics", !cfg.Telemetry.Metrics.Disabled,
	)

	start := time.Now()
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", "server exited with error", err)
	}
	logger.Info("vulcan audit API stopped", "uptime", time.Since(start).Round(time.Second).String())
	return nil
}
