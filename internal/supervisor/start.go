package supervisor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"warden/internal/logging"
	"warden/internal/metrics"
	"warden/internal/proclog"
	"warden/internal/registry"
)

// interactiveTools are wrapper commands that exit as soon as they read
// end-of-file on stdin. Detached children normally inherit /dev/null, which
// reads as an immediate EOF, so these commands get an open-but-unused pipe
// instead. The list is deliberately narrow.
var interactiveTools = map[string]struct{}{
	"claude": {},
	"codex":  {},
	"gemini": {},
	"aider":  {},
}

// StartRequest describes one process to launch. AutoShutdown selects the
// attached lifetime policy: the process is wired to this session through
// pipes and is terminated when the session cleans up. Without it the process
// is detached into its own session and outlives every front-end.
type StartRequest struct {
	Command      string
	Dir          string
	Env          map[string]string
	AutoShutdown bool
}

// Start launches the command and records it in the caller's partition. It
// returns the pid, or ErrStartFailed when no pid could be obtained.
func (s *Supervisor) Start(ctx context.Context, req StartRequest) (int, error) {
	command := strings.TrimSpace(req.Command)
	if command == "" {
		return 0, fmt.Errorf("%w: empty command", ErrStartFailed)
	}
	dir := s.resolveDir(req.Dir)

	startTime := time.Now().UnixMilli()
	file, pending, err := s.capture.OpenPending()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	spec := LaunchSpec{Command: command, Dir: dir, Env: req.Env}
	if req.AutoShutdown {
		spec.Sink = proclog.NewSink(file, s.logger)
	} else {
		spec.Detach = true
		spec.Output = file
		spec.OpenStdin = isInteractiveTool(command)
	}

	handle, err := s.launcher.Launch(spec)
	if err != nil {
		_ = file.Close()
		return 0, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	pid := handle.PID

	logPath := s.capture.Promote(pending, pid)
	if spec.Detach {
		// The child holds its own descriptor after the redirect.
		_ = file.Close()
	}

	var ticks uint64
	if _, t, ok := procStat(pid); ok {
		ticks = t
	}

	rec := registry.Record{
		PID:          pid,
		Command:      command,
		Cwd:          dir,
		Status:       registry.StatusRunning,
		StartTime:    startTime,
		AutoShutdown: req.AutoShutdown,
		LogFile:      logPath,
		StartTicks:   ticks,
	}
	key := rec.Key()
	if err := s.store.Put(ctx, dir, key, rec); err != nil {
		// Without a record the process would be invisible to every
		// front-end, so it is terminated rather than leaked.
		s.signal(pid)
		return 0, fmt.Errorf("%w: record process: %v", ErrStartFailed, err)
	}

	if handle.Done != nil {
		s.mu.Lock()
		s.handles[pid] = handle
		s.mu.Unlock()
		go s.watchExit(dir, key, handle)
	}

	policy := "persistent"
	if req.AutoShutdown {
		policy = "ephemeral"
	}
	metrics.IncrementProcessStart(policy)
	s.logger.Info("process started",
		logging.Int(logging.FieldPID, pid),
		logging.String(logging.FieldCommand, command),
		logging.String(logging.FieldWorkdir, dir),
		logging.String("policy", policy))
	return pid, nil
}

// watchExit waits for an attached process to leave and records the outcome.
// Health scans only ever downgrade running records, so the richer exit
// detail captured here is never overwritten.
func (s *Supervisor) watchExit(workdir, key string, handle *Handle) {
	state := <-handle.Done

	s.mu.Lock()
	delete(s.handles, handle.PID)
	s.mu.Unlock()

	status := registry.StatusStopped
	if state.Code != 0 {
		status = registry.StatusCrashed
	}

	var command string
	err := s.store.Update(context.Background(), workdir, key, func(r *registry.Record) {
		command = r.Command
		if r.Status != registry.StatusRunning {
			status = r.Status
			return
		}
		r.Status = status
		r.ErrorOutput = state.Detail
	})
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			logging.WarnWithContext(s.logger, "failed to record process exit", "exit_record_failed",
				logging.Int(logging.FieldPID, handle.PID),
				logging.Error(err))
		}
		return
	}

	if status == registry.StatusCrashed {
		metrics.IncrementProcessCrash()
		s.logger.Warn("process crashed",
			logging.Int(logging.FieldPID, handle.PID),
			logging.String(logging.FieldCommand, command),
			logging.String("detail", state.Detail),
			logging.String(logging.FieldEventType, "process_crashed"),
			logging.String(logging.FieldErrorHint, "inspect the process log with `warden logs <pid>`"),
		)
		if s.notifyCrash != nil {
			s.notifyCrash(handle.PID, command, state.Detail)
		}
		return
	}
	s.logger.Info("process exited",
		logging.Int(logging.FieldPID, handle.PID),
		logging.String(logging.FieldCommand, command))
}

func (s *Supervisor) resolveDir(raw string) string {
	dir := strings.TrimSpace(raw)
	switch {
	case dir == "":
		return s.baseDir
	case filepath.IsAbs(dir):
		return filepath.Clean(dir)
	default:
		return filepath.Join(s.baseDir, dir)
	}
}

// InteractiveTools lists the wrapper commands that are launched with an open
// stdin, sorted for display.
func InteractiveTools() []string {
	names := make([]string, 0, len(interactiveTools))
	for name := range interactiveTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isInteractiveTool inspects the leading executable of a shell command.
func isInteractiveTool(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	_, ok := interactiveTools[filepath.Base(fields[0])]
	return ok
}
