// Package logging assembles structured slog loggers and formatting helpers
// used across the warden daemon and CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes standardized field names so supervisor code tags log
// lines with pids, partitions, and process keys the same way everywhere. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail, plus retention pruning for the daemon's own log directory.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
