package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"tonewood-hq/vulcan/pkg/config"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Info("gate decision", "run_id", "run-x", "status", "OK")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "gate decision" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["run_id"] != "run-x" {
		t.Errorf("run_id = %v", record["run_id"])
	}
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Debug("token issued", "token_id", "tok-1")
	if !strings.Contains(buf.String(), "token issued") {
		t.Errorf("Debug record missing at debug level: %q", buf.String())
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("Info record leaked at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("Warn record missing")
	}
}

func TestSetup_InvalidSettings(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Errorf("Expected error for invalid level")
	}
	if _, err := Setup(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Errorf("Expected error for invalid format")
	}
}
