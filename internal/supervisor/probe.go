package supervisor

import (
	"errors"

	"golang.org/x/sys/unix"

	"warden/internal/registry"
)

// pidAlive probes a pid with signal 0. A permission error means the pid
// belongs to another user's process and is treated as not ours, so probes
// never escalate past the calling operation.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	if errors.Is(err, unix.ESRCH) || errors.Is(err, unix.EPERM) {
		return false
	}
	return false
}

// recordAlive reports whether the record's pid still refers to the process
// the record was written for. When the record carries the kernel start ticks
// of the original process, a pid occupied by a different process fails the
// probe even though the pid itself is live.
func recordAlive(rec registry.Record) bool {
	if !pidAlive(rec.PID) {
		return false
	}
	state, ticks, ok := procStat(rec.PID)
	if !ok {
		return true
	}
	if state == "Z" {
		return false
	}
	if rec.StartTicks != 0 && ticks != rec.StartTicks {
		return false
	}
	return true
}
