package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"warden/internal/logging"
)

const defaultMonitorInterval = 5 * time.Second

// Monitor drives periodic health scans against a supervisor. One fixed
// interval timer feeds scans inline, so ticks can never stack up behind a
// slow scan.
type Monitor struct {
	supervisor *Supervisor
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMonitor builds a monitor for the supervisor. A non-positive interval
// falls back to five seconds.
func NewMonitor(sup *Supervisor, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultMonitorInterval
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		supervisor: sup,
		interval:   interval,
		logger:     logging.NewComponentLogger(logger, "monitor"),
	}
}

// Start launches the scan loop.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil || m.supervisor == nil {
		return errors.New("monitor requires a supervisor")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("monitor already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()
	return nil
}

// Stop halts the scan loop and waits for an in-flight scan to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	m.scan()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Monitor) scan() {
	ctx := m.ctx
	if ctx == nil {
		return
	}
	if _, err := m.supervisor.CheckHealth(ctx); err != nil {
		logging.WarnWithContext(m.logger, "health scan failed; will retry", "health_scan_failed",
			logging.Error(err))
	}
}
