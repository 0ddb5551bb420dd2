package config

import (
	"time"

	"tonewood-hq/vulcan/pkg/promotion"
)

// Config is the root configuration structure for Vulcan. Every threshold
// and policy knob is externally supplied here and injected into the engine
// constructors; nothing is loaded through import-time side effects.
type Config struct {
	// Server contains the audit HTTP API configuration.
	Server ServerConfig `yaml:"server"`

	// Ledger contains run artifact storage configuration.
	Ledger LedgerConfig `yaml:"ledger"`

	// Gate contains feasibility gate configuration.
	Gate GateConfig `yaml:"gate"`

	// Safety contains supervision mode and override token configuration.
	Safety SafetyConfig `yaml:"safety"`

	// Promotion contains the promotion policy thresholds and per-lane
	// requirements.
	Promotion promotion.Config `yaml:"promotion"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the audit HTTP API server configuration.
type ServerConfig struct {
	// ListenAddress is the address the server binds to.
	// Default: ":8700"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LedgerConfig selects and configures the artifact storage backend.
type LedgerConfig struct {
	// Backend is the storage backend: "fs" or "sqlite".
	// Default: "fs"
	Backend string `yaml:"backend"`

	// Root is the date-partitioned artifact directory for the fs backend.
	// Default: "data/runs"
	Root string `yaml:"root"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/ledger.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// GateConfig contains feasibility gate configuration.
type GateConfig struct {
	// InlineGCodeMax is the largest G-code payload stored inline in an
	// artifact, in bytes.
	// Default: 65536
	InlineGCodeMax int `yaml:"inline_gcode_max"`
}

// SafetyConfig contains safety mode engine configuration.
type SafetyConfig struct {
	// Mode is the supervision mode: "unrestricted", "apprentice", or
	// "mentor_review".
	// Default: "unrestricted"
	Mode string `yaml:"mode"`

	// TokenTTL is how long an override token stays valid.
	// Default: 15m
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Disabled turns off metric registration. Metrics are on by default.
	Disabled bool `yaml:"disabled"`

	// Namespace is the metric namespace prefix.
	// Default: "vulcan"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem prefix.
	Subsystem string `yaml:"subsystem"`
}
