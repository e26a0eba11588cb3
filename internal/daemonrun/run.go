package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"warden/internal/config"
	"warden/internal/daemon"
	"warden/internal/daemonctl"
	"warden/internal/ipc"
	"warden/internal/logging"
	"warden/internal/metrics"
	"warden/internal/notifications"
	"warden/internal/proclog"
	"warden/internal/registry"
	"warden/internal/supervisor"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the warden daemon runtime loop and blocks until a termination
// signal arrives or an IPC shutdown is requested.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	daemonLogDir := cfg.DaemonLogDir()
	if err := os.MkdirAll(daemonLogDir, 0o755); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	sessionID := uuid.NewString()
	logPath := filepath.Join(daemonLogDir, fmt.Sprintf("wardend-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldSessionID, sessionID))

	if err := ensureCurrentLogPointer(daemonLogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update wardend.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: daemonLogDir, Pattern: "wardend-*.log", Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDFilePath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := registry.Open(cfg, logger)
	if err != nil {
		logger.Error("open registry", logging.Error(err))
		return err
	}
	capture, err := proclog.NewCapture(cfg, logger)
	if err != nil {
		logger.Error("init log capture", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	supOpts := []supervisor.Option{}
	if cfg.Notifications.Crashes {
		supOpts = append(supOpts, supervisor.WithCrashNotifier(func(pid int, command, detail string) {
			notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer notifyCancel()
			if err := notifier.NotifyProcessCrashed(notifyCtx, pid, command, detail); err != nil {
				logger.Warn("crash notification failed", logging.Error(err))
			}
		}))
	}
	sup, err := supervisor.New(signalCtx, cfg, store, capture, logger, supOpts...)
	if err != nil {
		logger.Error("create supervisor", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, store, sup, logger, logPath)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The cancel from NotifyContext doubles as the IPC shutdown hook: both
	// signals and `warden daemon stop` unblock the same wait below.
	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, cancel, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and data directory access"))
		return err
	}

	metrics.EmitBuildInfo()
	if notifyErr := notifier.NotifyDaemonStarted(signalCtx, os.Getpid()); notifyErr != nil {
		logger.Warn("startup notification failed", logging.Error(notifyErr))
	}

	<-signalCtx.Done()
	logger.Info("warden daemon shutting down")
	return nil
}

// ensureCurrentLogPointer keeps a stable wardend.log name pointing at the
// newest run's log file.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, daemonctl.CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
