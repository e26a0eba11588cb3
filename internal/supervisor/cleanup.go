package supervisor

import (
	"context"

	"warden/internal/logging"
	"warden/internal/metrics"
	"warden/internal/registry"
)

// Cleanup terminates and forgets every auto-shutdown record in this
// session's partition, regardless of prior status. Signal handlers and
// normal shutdown both funnel here; it runs at most once per supervisor.
func (s *Supervisor) Cleanup(ctx context.Context) {
	s.cleanupOnce.Do(func() {
		s.cleanup(ctx)
	})
}

func (s *Supervisor) cleanup(ctx context.Context) {
	removed, err := s.store.PrunePartition(ctx, s.baseDir, func(rec registry.Record) bool {
		return rec.AutoShutdown
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "session cleanup could not prune registry", "cleanup_failed",
			logging.String(logging.FieldWorkdir, s.baseDir),
			logging.Error(err))
		return
	}

	// Attached processes filed under other partitions still die with this
	// session: their output pipes close when the supervisor exits.
	tracked, err := s.store.PruneAll(ctx, func(entry registry.Entry) bool {
		return entry.Record.AutoShutdown && s.tracked(entry.Record.PID)
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "session cleanup could not prune tracked records", "cleanup_failed",
			logging.Error(err))
	}
	removed = append(removed, tracked...)

	for _, entry := range removed {
		if entry.Record.IsRunning() && s.launcher.Alive(entry.Record) {
			s.signal(entry.Record.PID)
		}
	}
	if len(removed) > 0 {
		s.logger.Info("session processes cleaned up",
			logging.Int("count", len(removed)),
			logging.String(logging.FieldWorkdir, s.baseDir))
	}
}

func (s *Supervisor) tracked(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[pid]
	return ok
}

// reconcileStartup drops auto-shutdown records left behind by a front-end
// that exited without cleanup. Durable writes from the previous session are
// the only input; the process table decides what is stale.
func (s *Supervisor) reconcileStartup(ctx context.Context) error {
	removed, err := s.store.PruneAll(ctx, func(entry registry.Entry) bool {
		if !entry.Record.AutoShutdown {
			return false
		}
		return !entry.Record.IsRunning() || !s.launcher.Alive(entry.Record)
	})
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		metrics.AddReconciliationRemoved(len(removed))
		s.logger.Info("removed stale session records",
			logging.Int("count", len(removed)))
	}
	return nil
}
