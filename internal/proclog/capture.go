package proclog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"warden/internal/config"
	"warden/internal/fileutil"
	"warden/internal/logging"
)

// NoLogsMessage is returned to callers when a process has no retrievable
// logs. It is an ordinary result, not an error.
const NoLogsMessage = "no logs available"

// Capture manages the per-process log files under a single directory. Files
// are plain text, append-only, and never deleted by warden; the registry
// record holds the path so output stays retrievable while the record lives.
type Capture struct {
	dir    string
	logger *slog.Logger
}

// NewCapture prepares the log directory for the given configuration.
func NewCapture(cfg *config.Config, logger *slog.Logger) (*Capture, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log capture requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := fileutil.EnsureDir(cfg.Paths.LogDir); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return &Capture{
		dir:    cfg.Paths.LogDir,
		logger: logging.NewComponentLogger(logger, "proclog"),
	}, nil
}

// Dir returns the directory holding the per-process log files.
func (c *Capture) Dir() string {
	return c.dir
}

// PathFor returns the deterministic log path for a pid.
func (c *Capture) PathFor(pid int) string {
	return filepath.Join(c.dir, fmt.Sprintf("proc-%d.log", pid))
}

// OpenPending creates an append-mode log file under a transient name for a
// process whose pid is not known yet. The returned path feeds Promote once
// the spawn succeeds.
func (c *Capture) OpenPending() (*os.File, string, error) {
	path := filepath.Join(c.dir, fmt.Sprintf("proc-pending-%d.log", time.Now().UnixNano()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open pending log file: %w", err)
	}
	return file, path, nil
}

// Promote renames a pending log file to the pid-derived name. Open
// descriptors keep writing to the renamed file. When the rename fails the
// pending path remains in use and is returned instead.
func (c *Capture) Promote(pendingPath string, pid int) string {
	target := c.PathFor(pid)
	if err := os.Rename(pendingPath, target); err != nil {
		logging.WarnWithContext(c.logger, "failed to promote pending log file", "log_promote_failed",
			logging.String("pending", pendingPath),
			logging.Int(logging.FieldPID, pid),
			logging.Error(err))
		return pendingPath
	}
	return target
}
