package config

import "fmt"

var validBackends = map[string]bool{"fs": true, "sqlite": true, "memory": true}

var validModes = map[string]bool{"unrestricted": true, "apprentice": true, "mentor_review": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"json": true, "text": true}

// Validate checks a configuration for consistency. It is called after
// defaults are applied, so every field is expected to hold a usable value.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address: required")
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 || cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server: timeouts must be positive")
	}

	if !validBackends[cfg.Ledger.Backend] {
		return fmt.Errorf("ledger.backend: unknown backend %q", cfg.Ledger.Backend)
	}
	if cfg.Ledger.Backend == "fs" && cfg.Ledger.Root == "" {
		return fmt.Errorf("ledger.root: required for the fs backend")
	}
	if cfg.Ledger.Backend == "sqlite" && cfg.Ledger.SQLitePath == "" {
		return fmt.Errorf("ledger.sqlite_path: required for the sqlite backend")
	}

	if cfg.Gate.InlineGCodeMax < 0 {
		return fmt.Errorf("gate.inline_gcode_max: must be >= 0, got %d", cfg.Gate.InlineGCodeMax)
	}

	if !validModes[cfg.Safety.Mode] {
		return fmt.Errorf("safety.mode: unknown mode %q", cfg.Safety.Mode)
	}
	if cfg.Safety.TokenTTL <= 0 {
		return fmt.Errorf("safety.token_ttl: must be positive, got %s", cfg.Safety.TokenTTL)
	}

	if err := validatePromotion(cfg); err != nil {
		return err
	}

	if !validLevels[cfg.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level)
	}
	if !validFormats[cfg.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}

func validatePromotion(cfg *Config) error {
	p := &cfg.Promotion

	if p.UltraFragileThreshold <= 0 || p.UltraFragileThreshold > 1 {
		return fmt.Errorf("promotion.ultra_fragile_threshold: must be in (0, 1], got %g", p.UltraFragileThreshold)
	}
	if p.YellowCleanThreshold < 0 || p.YellowCleanThreshold > 1 {
		return fmt.Errorf("promotion.yellow_clean_threshold: must be in [0, 1], got %g", p.YellowCleanThreshold)
	}
	if p.LookbackWindow <= 0 {
		return fmt.Errorf("promotion.lookback_window: must be positive, got %d", p.LookbackWindow)
	}
	if len(p.Lanes) == 0 {
		return fmt.Errorf("promotion.lanes: at least one lane is required")
	}
	for name, lane := range p.Lanes {
		if lane.FragilityMax < 0 || lane.FragilityMax > 1 {
			return fmt.Errorf("promotion.lanes.%s.fragility_max: must be in [0, 1], got %g", name, lane.FragilityMax)
		}
		if lane.MinCleanRuns < 0 {
			return fmt.Errorf("promotion.lanes.%s.min_clean_runs: must be >= 0, got %d", name, lane.MinCleanRuns)
		}
	}
	return nil
}
