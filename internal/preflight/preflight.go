package preflight

import (
	"context"
	"strings"

	"warden/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Registry home and process log directory (always checked)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Process log directory", cfg.Paths.LogDir))

	// Headroom for process output
	results = append(results, CheckDiskSpace("Log disk space", cfg.Paths.LogDir, DefaultMinFreeBytes))

	// Notifications
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNotifications(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}
