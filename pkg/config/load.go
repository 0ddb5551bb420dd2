package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, applies
// VULCAN_* environment variable overrides, and validates the result.
// Environment variables always take precedence over file settings.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides using the
// naming convention VULCAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("VULCAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("VULCAN_LEDGER_BACKEND"); val != "" {
		cfg.Ledger.Backend = val
	}
	if val := os.Getenv("VULCAN_LEDGER_ROOT"); val != "" {
		cfg.Ledger.Root = val
	}
	if val := os.Getenv("VULCAN_LEDGER_SQLITE_PATH"); val != "" {
		cfg.Ledger.SQLitePath = val
	}
	if val := os.Getenv("VULCAN_GATE_INLINE_GCODE_MAX"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Gate.InlineGCodeMax = n
		}
	}
	if val := os.Getenv("VULCAN_SAFETY_MODE"); val != "" {
		cfg.Safety.Mode = val
	}
	if val := os.Getenv("VULCAN_SAFETY_TOKEN_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Safety.TokenTTL = d
		}
	}
	if val := os.Getenv("VULCAN_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VULCAN_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
