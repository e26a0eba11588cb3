package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names one directory of daemon logs to prune. Pattern is a
// filepath.Match glob; Exclude protects paths such as the current run's log.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs deletes files matching the targets whose modification time
// is more than retentionDays old. retentionDays <= 0 disables pruning; the
// current pointer and anything listed in Exclude are never touched.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				if abs, err := filepath.Abs(trimmed); err == nil {
					keep[abs] = struct{}{}
				}
			}
		}
	}

	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			path, ok := pruneCandidate(dir, target.Pattern, entry, keep, cutoff)
			if !ok {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "could not prune daemon log", "daemon_log_prune_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check ownership of the daemon log directory"),
				)
				continue
			}
			if logger != nil {
				logger.Info("daemon log pruned",
					String("path", path),
					String(FieldEventType, "daemon_log_pruned"),
				)
			}
		}
	}
}

// pruneCandidate reports whether entry is an expired log file covered by the
// pattern, returning its absolute path when it is.
func pruneCandidate(dir, pattern string, entry os.DirEntry, keep map[string]struct{}, cutoff time.Time) (string, bool) {
	if entry.IsDir() {
		return "", false
	}
	if pat := strings.TrimSpace(pattern); pat != "" {
		matched, err := filepath.Match(pat, entry.Name())
		if err != nil || !matched {
			return "", false
		}
	}
	path := filepath.Join(dir, entry.Name())
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if _, skip := keep[path]; skip {
		return "", false
	}
	info, err := entry.Info()
	if err != nil {
		return "", false
	}
	if !info.ModTime().Before(cutoff) {
		return "", false
	}
	return path, true
}
