package supervisor

import (
	"context"
	"errors"
	"time"

	"warden/internal/logging"
	"warden/internal/metrics"
	"warden/internal/registry"
)

// CheckHealth probes every running record against the process table and
// downgrades the dead ones to stopped. It never promotes a record back to
// running and never touches stopped or crashed records. Scans are
// single-flight: a scan requested while another is active is skipped, which
// is safe because scans are idempotent. It returns the number of records
// downgraded.
func (s *Supervisor) CheckHealth(ctx context.Context) (int, error) {
	if !s.scanActive.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.scanActive.Store(false)

	started := time.Now()
	entries, err := s.store.QueryAll(ctx)
	if err != nil {
		return 0, err
	}

	running := 0
	downgraded := 0
	for _, entry := range entries {
		if entry.Record.Status != registry.StatusRunning {
			continue
		}
		if s.launcher.Alive(entry.Record) {
			running++
			continue
		}
		err := s.store.Update(ctx, entry.Workdir, entry.Key, func(r *registry.Record) {
			if r.Status == registry.StatusRunning {
				r.Status = registry.StatusStopped
			}
		})
		if err != nil {
			if !errors.Is(err, registry.ErrNotFound) {
				logging.WarnWithContext(s.logger, "failed to downgrade dead process", "health_update_failed",
					logging.Int(logging.FieldPID, entry.Record.PID),
					logging.Error(err))
			}
			continue
		}
		downgraded++
		s.logger.Info("process no longer alive",
			logging.Int(logging.FieldPID, entry.Record.PID),
			logging.String(logging.FieldCommand, entry.Record.Command),
			logging.String(logging.FieldWorkdir, entry.Workdir))
	}

	metrics.SetProcessesRunning(running)
	metrics.ObserveHealthScan(time.Since(started))
	return downgraded, nil
}
