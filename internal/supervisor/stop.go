package supervisor

import (
	"context"
	"errors"

	"warden/internal/logging"
	"warden/internal/metrics"
	"warden/internal/registry"
)

// Stop ends tracking for pid. The record is removed whether or not the
// termination signal can be delivered: once stop is requested, tracking
// ends, and a process that ignores the signal stays alive untracked. It
// returns false only when no record exists anywhere for the pid.
func (s *Supervisor) Stop(ctx context.Context, pid int) (bool, error) {
	entry, err := s.store.FindByPID(ctx, pid)
	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// A pid recycled by an unrelated process fails the record probe and is
	// left unsignaled; the stale record still goes away.
	if s.launcher.Alive(entry.Record) {
		s.signal(pid)
	}

	if err := s.store.Delete(ctx, entry.Workdir, entry.Key); err != nil && !errors.Is(err, registry.ErrNotFound) {
		return false, err
	}

	s.mu.Lock()
	delete(s.handles, pid)
	s.mu.Unlock()

	metrics.IncrementProcessStop()
	s.logger.Info("process stopped",
		logging.Int(logging.FieldPID, pid),
		logging.String(logging.FieldCommand, entry.Record.Command),
		logging.String(logging.FieldWorkdir, entry.Workdir))
	return true, nil
}

// signal delivers the graceful termination signal. Delivery failures,
// permission errors included, are logged and swallowed.
func (s *Supervisor) signal(pid int) {
	if err := s.launcher.Signal(pid); err != nil {
		s.logger.Debug("terminate signal not delivered",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err))
	}
}
