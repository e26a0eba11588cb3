package proclog

import (
	"log/slog"
	"os"
	"sync"

	"warden/internal/logging"
)

// Sink is the shared append-mode destination for an ephemeral process's
// stdout and stderr. Write failures are logged once and then swallowed: log
// loss must never abort supervision of the process itself.
type Sink struct {
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
	warned bool
	closed bool
}

// NewSink wraps an open log file in the shared sink used for an ephemeral
// process's stdout and stderr.
func NewSink(file *os.File, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sink{
		file:   file,
		logger: logger,
	}
}

// Write appends p to the log file. It never returns an error; a failed write
// is downgraded to a warning so the stream copier keeps draining.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return len(p), nil
	}
	if _, err := s.file.Write(p); err != nil && !s.warned {
		s.warned = true
		logging.WarnWithContext(s.logger, "process log write failed, output may be incomplete", "log_write_failed",
			logging.String("path", s.file.Name()),
			logging.Error(err))
	}
	return len(p), nil
}

// Close flushes and closes the underlying file. It is called after the
// process has exited and the stream copiers have drained.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Sync(); err != nil && !s.warned {
		s.warned = true
		logging.WarnWithContext(s.logger, "process log sync failed", "log_sync_failed",
			logging.String("path", s.file.Name()),
			logging.Error(err))
	}
	return s.file.Close()
}
