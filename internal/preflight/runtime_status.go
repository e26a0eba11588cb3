package preflight

import (
	"context"
	"os"
	"strings"

	"warden/internal/config"
)

// CheckNotificationsFromConfig evaluates notification status from config and
// connectivity.
func CheckNotificationsFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckNotifications(context.Background(), cfg.Notifications.NtfyTopic)
}

// PIDGuardStatus reports whether the kernel start-time cross-check that
// protects liveness probes from pid recycling is available on this system.
func PIDGuardStatus() Result {
	const name = "PID reuse guard"

	if _, err := os.ReadFile("/proc/self/stat"); err != nil {
		return Result{Name: name, Detail: "procfs unavailable; recycled pids may alias dead processes"}
	}
	return Result{Name: name, Passed: true, Detail: "start-time cross-check active"}
}
