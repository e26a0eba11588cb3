package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"warden/internal/config"
	"warden/internal/logging"
	"warden/internal/proclog"
	"warden/internal/registry"
	"warden/internal/scope"
)

// DefaultLogLines bounds Query output when the caller does not say.
const DefaultLogLines = 100

// Supervisor owns the spawn/kill/monitor state machine for one session. It
// holds the registry handle, the live handles of attached processes it
// spawned, and the partition that session-scoped operations act on.
type Supervisor struct {
	cfg      *config.Config
	store    *registry.Store
	capture  *proclog.Capture
	launcher Launcher
	logger   *slog.Logger
	baseDir  string

	notifyCrash func(pid int, command, detail string)

	mu      sync.Mutex
	handles map[int]*Handle

	scanActive  atomic.Bool
	cleanupOnce sync.Once
}

// Option customizes supervisor construction.
type Option func(*Supervisor)

// WithLauncher substitutes the process launcher.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.launcher = l
		}
	}
}

// WithBaseDir pins the partition used for session-scoped operations instead
// of deriving it from the environment.
func WithBaseDir(dir string) Option {
	return func(s *Supervisor) {
		if strings.TrimSpace(dir) != "" {
			s.baseDir = dir
		}
	}
}

// WithCrashNotifier registers a callback invoked when an attached process
// exits with a failure.
func WithCrashNotifier(fn func(pid int, command, detail string)) Option {
	return func(s *Supervisor) {
		s.notifyCrash = fn
	}
}

// New builds a supervisor and immediately reconciles the registry against
// the live process table, dropping auto-shutdown records whose processes did
// not survive the previous session.
func New(ctx context.Context, cfg *config.Config, store *registry.Store, capture *proclog.Capture, logger *slog.Logger, opts ...Option) (*Supervisor, error) {
	if cfg == nil || store == nil || capture == nil {
		return nil, errors.New("supervisor requires config, registry, and log capture")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	baseDir, err := scope.BaseDir()
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:      cfg,
		store:    store,
		capture:  capture,
		launcher: NewOSLauncher(),
		logger:   logging.NewComponentLogger(logger, "supervisor"),
		baseDir:  baseDir,
		handles:  make(map[int]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.reconcileStartup(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// BaseDir returns the partition session-scoped operations act on.
func (s *Supervisor) BaseDir() string {
	return s.baseDir
}

// List returns the records visible under the given scope. Current and
// subtree scopes resolve against base; an empty base means this session's
// partition, so front-ends running in other directories pass their own.
func (s *Supervisor) List(ctx context.Context, base string, sc scope.Scope) ([]registry.Entry, error) {
	if strings.TrimSpace(base) == "" {
		base = s.baseDir
	}
	switch sc {
	case scope.ScopeAll:
		return s.store.QueryAll(ctx)
	case scope.ScopeSubtree:
		return s.store.QueryScoped(ctx, base, true)
	default:
		return s.store.QueryScoped(ctx, base, false)
	}
}

// Query returns the last maxLines non-empty log lines for pid, joined by
// newlines. Missing records, missing files, and empty logs all come back as
// the no-logs sentinel text rather than an error.
func (s *Supervisor) Query(ctx context.Context, pid, maxLines int) (string, error) {
	if maxLines <= 0 {
		maxLines = DefaultLogLines
	}
	entry, err := s.store.FindByPID(ctx, pid)
	if errors.Is(err, registry.ErrNotFound) {
		return proclog.NoLogsMessage, nil
	}
	if err != nil {
		return "", err
	}
	if entry.Record.LogFile == "" {
		return proclog.NoLogsMessage, nil
	}
	lines, err := proclog.Tail(entry.Record.LogFile, maxLines)
	if err != nil {
		logging.WarnWithContext(s.logger, "failed to read process log", "log_read_failed",
			logging.Int(logging.FieldPID, pid),
			logging.String("path", entry.Record.LogFile),
			logging.Error(err))
		return proclog.NoLogsMessage, nil
	}
	if len(lines) == 0 {
		return proclog.NoLogsMessage, nil
	}
	return strings.Join(lines, "\n"), nil
}

// Tracked reports how many attached processes this instance is still
// waiting on.
func (s *Supervisor) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
