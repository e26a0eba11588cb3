package supervisor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warden/internal/logging"
	"warden/internal/proclog"
	"warden/internal/registry"
	"warden/internal/supervisor"
)

func openLogFile(t *testing.T) (*os.File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	return file, path
}

func waitExit(t *testing.T, handle *supervisor.Handle) supervisor.ExitState {
	t.Helper()
	select {
	case state := <-handle.Done:
		return state
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for process exit")
		return supervisor.ExitState{}
	}
}

func TestLaunchAttachedCapturesBothStreams(t *testing.T) {
	file, path := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "echo from-stdout; echo from-stderr 1>&2",
		Dir:     t.TempDir(),
		Sink:    proclog.NewSink(file, logging.NewNop()),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	state := waitExit(t, handle)
	if state.Code != 0 {
		t.Fatalf("exit code = %d, want 0", state.Code)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"from-stdout", "from-stderr"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("log %q missing %q", content, want)
		}
	}
}

func TestLaunchAttachedReportsExitCode(t *testing.T) {
	file, _ := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "exit 7",
		Dir:     t.TempDir(),
		Sink:    proclog.NewSink(file, logging.NewNop()),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	state := waitExit(t, handle)
	if state.Code != 7 {
		t.Fatalf("exit code = %d, want 7", state.Code)
	}
	if state.Detail != "exit code 7" {
		t.Fatalf("detail = %q, want %q", state.Detail, "exit code 7")
	}
}

func TestLaunchAttachedReportsSignalDeath(t *testing.T) {
	file, _ := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "sleep 30",
		Dir:     t.TempDir(),
		Sink:    proclog.NewSink(file, logging.NewNop()),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := launcher.Signal(handle.PID); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	state := waitExit(t, handle)
	if state.Code != -1 {
		t.Fatalf("exit code = %d, want -1 for signal death", state.Code)
	}
	if !strings.Contains(state.Detail, "terminated by signal") {
		t.Fatalf("detail = %q, want signal description", state.Detail)
	}
}

func TestLaunchAttachedInheritsAndOverridesEnv(t *testing.T) {
	file, path := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "echo value=$WARDEN_TEST_VALUE home=$HOME",
		Dir:     t.TempDir(),
		Env:     map[string]string{"WARDEN_TEST_VALUE": "injected"},
		Sink:    proclog.NewSink(file, logging.NewNop()),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	waitExit(t, handle)

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "value=injected") {
		t.Fatalf("log %q missing injected variable", content)
	}
}

func TestLaunchDetachedRedirectsOutput(t *testing.T) {
	file, path := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "echo persisted",
		Dir:     t.TempDir(),
		Detach:  true,
		Output:  file,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if handle.Done != nil {
		t.Fatal("detached launches must not carry an exit channel")
	}
	_ = file.Close()

	waitFor(t, "redirected output to land", func() bool {
		content, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(content), "persisted")
	})
	waitFor(t, "reaped child to probe dead", func() bool {
		return !launcher.Alive(registry.Record{PID: handle.PID})
	})
}

func TestLaunchDetachedOpenStdinKeepsReaderAlive(t *testing.T) {
	file, _ := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	// Without the held pipe a detached cat reads end-of-file from
	// /dev/null and exits before the probe.
	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command:   "cat",
		Dir:       t.TempDir(),
		Detach:    true,
		Output:    file,
		OpenStdin: true,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	_ = file.Close()

	time.Sleep(300 * time.Millisecond)
	if !launcher.Alive(registry.Record{PID: handle.PID}) {
		t.Fatal("detached reader exited despite an open stdin channel")
	}
	if err := launcher.Signal(handle.PID); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	waitFor(t, "reader to terminate", func() bool {
		return !launcher.Alive(registry.Record{PID: handle.PID})
	})
}

func TestLaunchOpenStdinKeepsReaderAlive(t *testing.T) {
	withStdin, _ := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	// cat exits as soon as stdin reaches end-of-file, so it only stays up
	// when the launcher holds the pipe open.
	handle, err := launcher.Launch(supervisor.LaunchSpec{
		Command:   "cat",
		Dir:       t.TempDir(),
		Sink:      proclog.NewSink(withStdin, logging.NewNop()),
		OpenStdin: true,
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	select {
	case state := <-handle.Done:
		t.Fatalf("reader exited early: %+v", state)
	case <-time.After(300 * time.Millisecond):
	}
	if err := launcher.Signal(handle.PID); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	waitExit(t, handle)

	withoutStdin, _ := openLogFile(t)
	handle, err = launcher.Launch(supervisor.LaunchSpec{
		Command: "cat",
		Dir:     t.TempDir(),
		Sink:    proclog.NewSink(withoutStdin, logging.NewNop()),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	state := waitExit(t, handle)
	if state.Code != 0 {
		t.Fatalf("exit code = %d, want 0 on end-of-file", state.Code)
	}
}

func TestLaunchFailsWhenDirMissing(t *testing.T) {
	file, _ := openLogFile(t)
	launcher := supervisor.NewOSLauncher()

	_, err := launcher.Launch(supervisor.LaunchSpec{
		Command: "true",
		Dir:     filepath.Join(t.TempDir(), "does", "not", "exist"),
		Sink:    proclog.NewSink(file, logging.NewNop()),
	})
	if err == nil {
		t.Fatal("Launch into a missing directory should fail")
	}
}
