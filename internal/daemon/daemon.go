package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"warden/internal/config"
	"warden/internal/deps"
	"warden/internal/logging"
	"warden/internal/notifications"
	"warden/internal/preflight"
	"warden/internal/registry"
	"warden/internal/scope"
	"warden/internal/supervisor"
)

// Daemon coordinates the supervision services and enforces single-instance
// execution per data directory.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *registry.Store
	supervisor *supervisor.Supervisor
	monitor    *supervisor.Monitor
	metricsSrv *metricsServer
	logPath    string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Partitions   int
	Processes    int
	RunningProcs int
	Tracked      int
	RegistryPath string
	LockFilePath string
	SocketPath   string
	Checks       []preflight.Result
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies. logPath points at
// the daemon's own log file so IPC clients can tail it.
func New(cfg *config.Config, store *registry.Store, sup *supervisor.Supervisor, logger *slog.Logger, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil || sup == nil {
		return nil, errors.New("daemon requires config, registry, and supervisor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	interval := time.Duration(cfg.Monitor.IntervalSeconds) * time.Second
	lockPath := cfg.DaemonLockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		supervisor: sup,
		monitor:    supervisor.NewMonitor(sup, interval, logger),
		logPath:    logPath,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.metricsSrv = newMetricsServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and launches the health monitor and the
// optional metrics listener. Preflight failures are logged, not fatal: a
// degraded daemon that can still supervise beats none at all.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another warden daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	for _, check := range preflight.RunAll(d.ctx, d.cfg) {
		if check.Passed {
			continue
		}
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}

	if err := d.monitor.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start monitor: %w", err)
	}
	if err := d.metricsSrv.start(d.ctx); err != nil {
		d.monitor.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start metrics listener: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("warden daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts monitoring, cleans up this session's processes, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	d.metricsSrv.stop()
	d.supervisor.Cleanup(context.Background())
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("warden daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// StartProcess launches a new supervised process.
func (d *Daemon) StartProcess(ctx context.Context, req supervisor.StartRequest) (int, error) {
	return d.supervisor.Start(ctx, req)
}

// StopProcess terminates and forgets the process with the given pid.
func (d *Daemon) StopProcess(ctx context.Context, pid int) (bool, error) {
	return d.supervisor.Stop(ctx, pid)
}

// ProcessLogs returns the trailing log lines of the given pid.
func (d *Daemon) ProcessLogs(ctx context.Context, pid, maxLines int) (string, error) {
	return d.supervisor.Query(ctx, pid, maxLines)
}

// ListProcesses returns registry entries visible from base under the scope.
func (d *Daemon) ListProcesses(ctx context.Context, base string, sc scope.Scope) ([]registry.Entry, error) {
	return d.supervisor.List(ctx, base, sc)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Tracked:      d.supervisor.Tracked(),
		RegistryPath: d.store.Path(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		Checks: []preflight.Result{
			preflight.CheckNotificationsFromConfig(d.cfg),
			preflight.PIDGuardStatus(),
		},
		Dependencies: preflight.CheckSystemDeps(),
	}

	entries, err := d.store.QueryAll(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to read registry for status", "status_read_failed",
			logging.Error(err))
		return status
	}
	partitions := make(map[string]struct{})
	for _, entry := range entries {
		partitions[entry.Workdir] = struct{}{}
		if entry.Record.IsRunning() {
			status.RunningProcs++
		}
	}
	status.Processes = len(entries)
	status.Partitions = len(partitions)
	return status
}
