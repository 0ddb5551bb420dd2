// Package config defines Vulcan's YAML configuration surface: ledger
// backend selection, feasibility gate limits, safety supervision mode and
// override token expiry, promotion policy thresholds, and telemetry.
//
// Configuration is loaded once with Load, which applies defaults, VULCAN_*
// environment overrides, and validation in that order, and is injected
// into each engine's constructor. Engines expose an explicit Reload for
// runtime changes; the fsnotify-based Watcher drives those reloads from
// file changes when wanted, but never mutates engine state itself.
package config
