package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"warden/internal/registry"
)

// ShellPath is the interpreter every supervised command runs under.
const ShellPath = "/bin/sh"

// LaunchSpec describes one spawn request.
type LaunchSpec struct {
	Command string
	Dir     string
	Env     map[string]string

	// Detach runs the command in its own session with both streams
	// redirected at the OS level into Output. Attached commands write both
	// streams through Sink instead.
	Detach bool
	Output *os.File
	Sink   io.WriteCloser

	// OpenStdin gives the child a pipe on stdin that is held open but
	// never written, instead of the default /dev/null.
	OpenStdin bool
}

// ExitState reports how an attached process left.
type ExitState struct {
	Code   int
	Detail string
}

// Handle tracks one spawned process. Done is nil for detached processes,
// whose death is only ever observed by the liveness probe.
type Handle struct {
	PID  int
	Done <-chan ExitState
}

// Launcher mediates every interaction with the OS process table: spawning,
// graceful termination, and liveness. The indirection exists so tests can
// drive the full lifecycle without real processes.
type Launcher interface {
	Launch(spec LaunchSpec) (*Handle, error)
	Signal(pid int) error
	Alive(rec registry.Record) bool
}

type osLauncher struct{}

// NewOSLauncher returns the Launcher used outside of tests.
func NewOSLauncher() Launcher {
	return osLauncher{}
}

func (osLauncher) Launch(spec LaunchSpec) (*Handle, error) {
	cmd := exec.Command(ShellPath, "-c", spec.Command)
	cmd.Dir = spec.Dir
	cmd.Env = mergedEnv(spec.Env)

	if spec.Detach {
		return launchDetached(cmd, spec)
	}
	return launchAttached(cmd, spec)
}

// Signal delivers the graceful termination signal. There is no escalation
// beyond SIGTERM.
func (osLauncher) Signal(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// Alive probes the record's process.
func (osLauncher) Alive(rec registry.Record) bool {
	return recordAlive(rec)
}

// launchDetached starts the command in its own session so it survives the
// spawning front-end. A reaper goroutine waits on the child to keep it out of
// the zombie table; without that, the liveness probe would keep reporting a
// long-dead child as alive.
func launchDetached(cmd *exec.Cmd, spec LaunchSpec) (*Handle, error) {
	cmd.Stdout = spec.Output
	cmd.Stderr = spec.Output
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	// The write end lives in the reaper goroutine so the child never sees
	// end-of-file while it runs.
	var stdin io.WriteCloser
	if spec.OpenStdin {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("open stdin pipe: %w", err)
		}
		stdin = pipe
	}

	if err := cmd.Start(); err != nil {
		if stdin != nil {
			_ = stdin.Close()
		}
		return nil, fmt.Errorf("spawn detached command: %w", err)
	}
	go func() {
		_ = cmd.Wait()
		if stdin != nil {
			_ = stdin.Close()
		}
	}()
	return &Handle{PID: cmd.Process.Pid}, nil
}

func launchAttached(cmd *exec.Cmd, spec LaunchSpec) (*Handle, error) {
	cmd.Stdout = spec.Sink
	cmd.Stderr = spec.Sink

	var stdin io.WriteCloser
	if spec.OpenStdin {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("open stdin pipe: %w", err)
		}
		stdin = pipe
	}

	if err := cmd.Start(); err != nil {
		if stdin != nil {
			_ = stdin.Close()
		}
		return nil, fmt.Errorf("spawn command: %w", err)
	}

	done := make(chan ExitState, 1)
	go func() {
		err := cmd.Wait()
		if stdin != nil {
			_ = stdin.Close()
		}
		if spec.Sink != nil {
			_ = spec.Sink.Close()
		}
		done <- exitState(err)
	}()

	return &Handle{PID: cmd.Process.Pid, Done: done}, nil
}

func exitState(err error) ExitState {
	if err == nil {
		return ExitState{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return ExitState{
				Code:   -1,
				Detail: fmt.Sprintf("terminated by signal %s", status.Signal()),
			}
		}
		return ExitState{
			Code:   exitErr.ExitCode(),
			Detail: fmt.Sprintf("exit code %d", exitErr.ExitCode()),
		}
	}
	return ExitState{Code: -1, Detail: err.Error()}
}

func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	env := os.Environ()
	for key, value := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}
