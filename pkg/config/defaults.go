package config

import (
	"time"

	"tonewood-hq/vulcan/pkg/promotion"
)

// DefaultConfig returns a fully-defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Explicit
// settings are never overwritten.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8700"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// Ledger defaults
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "fs"
	}
	if cfg.Ledger.Root == "" {
		cfg.Ledger.Root = "data/runs"
	}
	if cfg.Ledger.SQLitePath == "" {
		cfg.Ledger.SQLitePath = "data/ledger.db"
	}

	// Gate defaults
	if cfg.Gate.InlineGCodeMax == 0 {
		cfg.Gate.InlineGCodeMax = 64 * 1024
	}

	// Safety defaults
	if cfg.Safety.Mode == "" {
		cfg.Safety.Mode = "unrestricted"
	}
	if cfg.Safety.TokenTTL == 0 {
		cfg.Safety.TokenTTL = 15 * time.Minute
	}

	// Promotion defaults
	defaults := promotion.DefaultConfig()
	if cfg.Promotion.UltraFragileThreshold == 0 {
		cfg.Promotion.UltraFragileThreshold = defaults.UltraFragileThreshold
	}
	if cfg.Promotion.YellowCleanThreshold == 0 {
		cfg.Promotion.YellowCleanThreshold = defaults.YellowCleanThreshold
	}
	if cfg.Promotion.LookbackWindow == 0 {
		cfg.Promotion.LookbackWindow = defaults.LookbackWindow
	}
	if len(cfg.Promotion.Lanes) == 0 {
		cfg.Promotion.Lanes = defaults.Lanes
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "vulcan"
	}
}
