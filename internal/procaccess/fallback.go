package procaccess

import (
	"fmt"

	"warden/internal/ipc"
	"warden/internal/supervisor"
)

// Session represents an access handle and its cleanup function.
type Session struct {
	Access Access
	// Direct is true when no daemon answered and the session operates on
	// the registry itself.
	Direct bool
	close  func() error
}

// Close releases resources associated with the session.
func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback tries IPC-backed access first, then falls back to direct
// registry access. The direct constructor runs startup reconciliation, so a
// CLI invocation repairs stale records even when the daemon is down.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openDirect func() (*supervisor.Supervisor, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{
				Access: NewIPCAccess(client),
				close:  client.Close,
			}, nil
		}
	}

	if openDirect == nil {
		return Session{}, fmt.Errorf("open supervisor: no direct opener configured")
	}
	sup, err := openDirect()
	if err != nil {
		return Session{}, fmt.Errorf("open supervisor: %w", err)
	}
	return Session{
		Access: NewDirectAccess(sup),
		Direct: true,
	}, nil
}
