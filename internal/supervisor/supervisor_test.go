package supervisor_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"warden/internal/logging"
	"warden/internal/proclog"
	"warden/internal/registry"
	"warden/internal/scope"
	"warden/internal/supervisor"
	"warden/internal/testsupport"
)

type fakeLauncher struct {
	mu        sync.Mutex
	specs     []supervisor.LaunchSpec
	specByPID map[int]supervisor.LaunchSpec
	done      map[int]chan supervisor.ExitState
	alive     map[int]bool
	signaled  []int
	nextPID   int
	launchErr error
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		specByPID: make(map[int]supervisor.LaunchSpec),
		done:      make(map[int]chan supervisor.ExitState),
		alive:     make(map[int]bool),
		nextPID:   50000,
	}
}

func (f *fakeLauncher) Launch(spec supervisor.LaunchSpec) (*supervisor.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.launchErr != nil {
		return nil, f.launchErr
	}
	f.nextPID++
	pid := f.nextPID
	f.specs = append(f.specs, spec)
	f.specByPID[pid] = spec
	f.alive[pid] = true

	handle := &supervisor.Handle{PID: pid}
	if !spec.Detach {
		ch := make(chan supervisor.ExitState, 1)
		f.done[pid] = ch
		handle.Done = ch
	}
	return handle, nil
}

func (f *fakeLauncher) Signal(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signaled = append(f.signaled, pid)
	return nil
}

func (f *fakeLauncher) Alive(rec registry.Record) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[rec.PID]
}

func (f *fakeLauncher) exit(pid int, state supervisor.ExitState) {
	f.mu.Lock()
	ch := f.done[pid]
	spec := f.specByPID[pid]
	f.alive[pid] = false
	f.mu.Unlock()

	if spec.Sink != nil {
		_ = spec.Sink.Close()
	}
	ch <- state
}

func (f *fakeLauncher) markDead(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = false
}

func (f *fakeLauncher) markAlive(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = true
}

func (f *fakeLauncher) lastSpec(t *testing.T) supervisor.LaunchSpec {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.specs) == 0 {
		t.Fatal("no launches recorded")
	}
	return f.specs[len(f.specs)-1]
}

func (f *fakeLauncher) signalCount(pid int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, signaled := range f.signaled {
		if signaled == pid {
			count++
		}
	}
	return count
}

func newTestSupervisor(t *testing.T, fake *fakeLauncher, opts ...supervisor.Option) (*supervisor.Supervisor, *registry.Store, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	capture, err := proclog.NewCapture(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	base := t.TempDir()
	all := append([]supervisor.Option{
		supervisor.WithLauncher(fake),
		supervisor.WithBaseDir(base),
	}, opts...)
	sup, err := supervisor.New(context.Background(), cfg, store, capture, logging.NewNop(), all...)
	if err != nil {
		t.Fatalf("supervisor.New: %v", err)
	}
	return sup, store, base
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func soleEntry(t *testing.T, sup *supervisor.Supervisor, sc scope.Scope) registry.Entry {
	t.Helper()
	entries, err := sup.List(context.Background(), "", sc)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1: %#v", len(entries), entries)
	}
	return entries[0]
}

func TestStartEphemeralRecordsRunning(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, base := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{
		Command:      "sleep 30",
		AutoShutdown: true,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("pid = %d, want positive", pid)
	}

	spec := fake.lastSpec(t)
	if spec.Detach {
		t.Fatal("auto-shutdown process should launch attached")
	}
	if spec.Sink == nil {
		t.Fatal("attached launch should carry a log sink")
	}
	if spec.OpenStdin {
		t.Fatal("plain commands should not get an open stdin")
	}
	if spec.Dir != base {
		t.Fatalf("spec dir = %q, want base %q", spec.Dir, base)
	}

	entry := soleEntry(t, sup, scope.ScopeCurrent)
	rec := entry.Record
	if rec.PID != pid || rec.Status != registry.StatusRunning || !rec.AutoShutdown {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if want := "proc-" + strconv.Itoa(pid) + ".log"; filepath.Base(rec.LogFile) != want {
		t.Fatalf("log file = %q, want base name %q", rec.LogFile, want)
	}
	if sup.Tracked() != 1 {
		t.Fatalf("tracked handles = %d, want 1", sup.Tracked())
	}
}

func TestStartPersistentDetaches(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{
		Command:      "python -m http.server",
		AutoShutdown: false,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	spec := fake.lastSpec(t)
	if !spec.Detach {
		t.Fatal("persistent process should launch detached")
	}
	if spec.Output == nil {
		t.Fatal("detached launch should carry a pre-opened output file")
	}
	if sup.Tracked() != 0 {
		t.Fatal("detached processes should not be tracked by handle")
	}

	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.AutoShutdown {
		t.Fatal("record should be persistent")
	}
	if entry.Record.PID != pid {
		t.Fatalf("record pid = %d, want %d", entry.Record.PID, pid)
	}
}

func TestStartRejectsEmptyCommand(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	for _, command := range []string{"", "   "} {
		if _, err := sup.Start(context.Background(), supervisor.StartRequest{Command: command, AutoShutdown: true}); !errors.Is(err, supervisor.ErrStartFailed) {
			t.Fatalf("Start(%q) = %v, want ErrStartFailed", command, err)
		}
	}
}

func TestStartSurfacesLaunchFailure(t *testing.T) {
	fake := newFakeLauncher()
	fake.launchErr = errors.New("fork failed")
	sup, _, _ := newTestSupervisor(t, fake)

	_, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "true", AutoShutdown: true})
	if !errors.Is(err, supervisor.ErrStartFailed) {
		t.Fatalf("Start = %v, want ErrStartFailed", err)
	}

	entries, err := sup.List(context.Background(), "", scope.ScopeAll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed start must not leave a record: %#v", entries)
	}
}

func TestPersistentInteractiveToolsGetOpenStdin(t *testing.T) {
	cases := []struct {
		command string
		want    bool
	}{
		{"claude --continue", true},
		{"/usr/local/bin/codex exec", true},
		{"gemini", true},
		{"aider --model gpt", true},
		{"sleep 5", false},
		{"claudette run", false},
	}
	for _, tc := range cases {
		fake := newFakeLauncher()
		sup, _, _ := newTestSupervisor(t, fake)
		if _, err := sup.Start(context.Background(), supervisor.StartRequest{Command: tc.command, AutoShutdown: false}); err != nil {
			t.Fatalf("Start(%q): %v", tc.command, err)
		}
		spec := fake.lastSpec(t)
		if !spec.Detach {
			t.Fatalf("persistent start of %q must detach", tc.command)
		}
		if spec.OpenStdin != tc.want {
			t.Fatalf("OpenStdin for detached %q = %v, want %v", tc.command, spec.OpenStdin, tc.want)
		}
	}
}

func TestAttachedStartsNeverOpenStdin(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	if _, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "claude --continue", AutoShutdown: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	spec := fake.lastSpec(t)
	if spec.Detach {
		t.Fatal("ephemeral start must stay attached")
	}
	if spec.OpenStdin {
		t.Fatal("attached processes are drained through pipes and get no stdin channel")
	}
}

func TestCleanExitMarksStopped(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "true", AutoShutdown: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.exit(pid, supervisor.ExitState{Code: 0})

	waitFor(t, "record to become stopped", func() bool {
		entry := soleEntry(t, sup, scope.ScopeCurrent)
		return entry.Record.Status == registry.StatusStopped
	})
	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.ErrorOutput != "" {
		t.Fatalf("clean exit should leave no error detail, got %q", entry.Record.ErrorOutput)
	}
	if sup.Tracked() != 0 {
		t.Fatalf("tracked handles = %d, want 0", sup.Tracked())
	}
}

func TestFailureExitMarksCrashed(t *testing.T) {
	fake := newFakeLauncher()
	var (
		notifyMu sync.Mutex
		notified []string
	)
	sup, _, _ := newTestSupervisor(t, fake, supervisor.WithCrashNotifier(func(pid int, command, detail string) {
		notifyMu.Lock()
		defer notifyMu.Unlock()
		notified = append(notified, detail)
	}))

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "false", AutoShutdown: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.exit(pid, supervisor.ExitState{Code: 1, Detail: "exit code 1"})

	waitFor(t, "record to become crashed", func() bool {
		entry := soleEntry(t, sup, scope.ScopeCurrent)
		return entry.Record.Status == registry.StatusCrashed
	})
	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if !strings.Contains(entry.Record.ErrorOutput, "exit code 1") {
		t.Fatalf("error detail = %q, want mention of exit code 1", entry.Record.ErrorOutput)
	}

	notifyMu.Lock()
	defer notifyMu.Unlock()
	if len(notified) != 1 || notified[0] != "exit code 1" {
		t.Fatalf("crash notifier calls = %#v, want one with the exit detail", notified)
	}
}

func TestSignalDeathMarksCrashed(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "sleep 60", AutoShutdown: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.exit(pid, supervisor.ExitState{Code: -1, Detail: "terminated by signal killed"})

	waitFor(t, "record to become crashed", func() bool {
		entry := soleEntry(t, sup, scope.ScopeCurrent)
		return entry.Record.Status == registry.StatusCrashed
	})
}

func TestStopUnknownPIDReturnsFalse(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	stopped, err := sup.Stop(context.Background(), 999999)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped {
		t.Fatal("Stop on an unknown pid should report false")
	}
}

func TestStopSignalsAndDeletesRecord(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "sleep 60", AutoShutdown: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopped, err := sup.Stop(context.Background(), pid)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopped {
		t.Fatal("Stop on a known pid should report true")
	}
	if fake.signalCount(pid) != 1 {
		t.Fatalf("signals delivered = %d, want 1", fake.signalCount(pid))
	}

	entries, err := sup.List(context.Background(), "", scope.ScopeAll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("record should be gone after stop: %#v", entries)
	}
}

func TestStopDeadPIDRemovesRecordWithoutSignal(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "sleep 60", AutoShutdown: false})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.markDead(pid)

	stopped, err := sup.Stop(context.Background(), pid)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !stopped {
		t.Fatal("Stop on a known-but-dead pid should still report true")
	}
	if fake.signalCount(pid) != 0 {
		t.Fatal("dead pid must not be signaled")
	}

	entries, err := sup.List(context.Background(), "", scope.ScopeAll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("record should be gone after stop: %#v", entries)
	}
}

func TestCheckHealthDowngradesDeadRecords(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "server", AutoShutdown: false})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.markDead(pid)

	downgraded, err := sup.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if downgraded != 1 {
		t.Fatalf("downgraded = %d, want 1", downgraded)
	}

	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.Status != registry.StatusStopped {
		t.Fatalf("status = %q, want stopped", entry.Record.Status)
	}
}

func TestCheckHealthLeavesLiveRecordsRunning(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	if _, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "sleep 300", AutoShutdown: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	downgraded, err := sup.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if downgraded != 0 {
		t.Fatalf("downgraded = %d, want 0", downgraded)
	}
	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.Status != registry.StatusRunning {
		t.Fatalf("status = %q, want running", entry.Record.Status)
	}
}

func TestCheckHealthNeverResurrects(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	pid, err := sup.Start(context.Background(), supervisor.StartRequest{Command: "server", AutoShutdown: false})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	fake.markDead(pid)
	if _, err := sup.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}

	// A recycled pid must not flip the record back to running.
	fake.markAlive(pid)
	if _, err := sup.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.Status != registry.StatusStopped {
		t.Fatalf("status = %q, want stopped to stick", entry.Record.Status)
	}
}

func TestCleanupRemovesSessionProcessesExactlyOnce(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)
	ctx := context.Background()

	ephemeralPID, err := sup.Start(ctx, supervisor.StartRequest{Command: "sleep 60", AutoShutdown: true})
	if err != nil {
		t.Fatalf("Start ephemeral: %v", err)
	}
	persistentPID, err := sup.Start(ctx, supervisor.StartRequest{Command: "server", AutoShutdown: false})
	if err != nil {
		t.Fatalf("Start persistent: %v", err)
	}

	sup.Cleanup(ctx)
	sup.Cleanup(ctx)

	if got := fake.signalCount(ephemeralPID); got != 1 {
		t.Fatalf("ephemeral signal count = %d, want exactly 1 across repeated cleanups", got)
	}
	if fake.signalCount(persistentPID) != 0 {
		t.Fatal("persistent process must not be signaled by cleanup")
	}

	entry := soleEntry(t, sup, scope.ScopeCurrent)
	if entry.Record.PID != persistentPID {
		t.Fatalf("surviving record pid = %d, want persistent %d", entry.Record.PID, persistentPID)
	}
}

func TestCleanupSparesOtherPartitions(t *testing.T) {
	fake := newFakeLauncher()
	sup, store, _ := newTestSupervisor(t, fake)
	ctx := context.Background()

	if _, err := sup.Start(ctx, supervisor.StartRequest{Command: "sleep 60", AutoShutdown: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	foreign := registry.Record{
		PID:          77001,
		Command:      "sleep 600",
		Cwd:          "/somewhere/else",
		Status:       registry.StatusRunning,
		StartTime:    time.Now().UnixMilli(),
		AutoShutdown: true,
	}
	if err := store.Put(ctx, "/somewhere/else", foreign.Key(), foreign); err != nil {
		t.Fatalf("Put foreign: %v", err)
	}

	sup.Cleanup(ctx)

	partition, err := store.Get(ctx, "/somewhere/else")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(partition) != 1 {
		t.Fatal("cleanup must only touch the caller's partition")
	}
}

func TestStartupReconciliationDropsStaleSessionRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	capture, err := proclog.NewCapture(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	ctx := context.Background()

	fake := newFakeLauncher()
	staleEphemeral := registry.Record{PID: 70001, Command: "dead", Cwd: "/p1", Status: registry.StatusRunning, StartTime: 1, AutoShutdown: true}
	liveEphemeral := registry.Record{PID: 70002, Command: "live", Cwd: "/p2", Status: registry.StatusRunning, StartTime: 2, AutoShutdown: true}
	stalePersistent := registry.Record{PID: 70003, Command: "pinned", Cwd: "/p3", Status: registry.StatusRunning, StartTime: 3, AutoShutdown: false}
	doneEphemeral := registry.Record{PID: 70004, Command: "done", Cwd: "/p4", Status: registry.StatusStopped, StartTime: 4, AutoShutdown: true}
	fake.markAlive(70002)
	fake.markAlive(70004)
	for _, rec := range []registry.Record{staleEphemeral, liveEphemeral, stalePersistent, doneEphemeral} {
		if err := store.Put(ctx, rec.Cwd, rec.Key(), rec); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	sup, err := supervisor.New(ctx, cfg, store, capture, logging.NewNop(),
		supervisor.WithLauncher(fake),
		supervisor.WithBaseDir(t.TempDir()))
	if err != nil {
		t.Fatalf("supervisor.New: %v", err)
	}

	entries, err := sup.List(ctx, "", scope.ScopeAll)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2: %#v", len(entries), entries)
	}
	for _, entry := range entries {
		if entry.Record.PID == 70001 {
			t.Fatal("stale auto-shutdown record should be reconciled away")
		}
		if entry.Record.PID == 70004 {
			t.Fatal("non-running auto-shutdown record should be reconciled even while the pid lives")
		}
	}
}

func TestQuerySentinelForUnknownPID(t *testing.T) {
	fake := newFakeLauncher()
	sup, _, _ := newTestSupervisor(t, fake)

	text, err := sup.Query(context.Background(), 424242, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if text != proclog.NoLogsMessage {
		t.Fatalf("Query = %q, want sentinel", text)
	}
}

func TestQueryReturnsTailOfRecordLog(t *testing.T) {
	fake := newFakeLauncher()
	sup, store, base := newTestSupervisor(t, fake)
	ctx := context.Background()

	logPath := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "proc-88.log"), "L1\nL2\nL3\nL4\nL5\nL6\nL7\nL8\nL9\nL10\n")
	rec := registry.Record{PID: 88, Command: "emitter", Cwd: base, Status: registry.StatusStopped, StartTime: 5, LogFile: logPath}
	if err := store.Put(ctx, base, rec.Key(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	text, err := sup.Query(ctx, 88, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if text != "L6\nL7\nL8\nL9\nL10" {
		t.Fatalf("Query = %q, want last five lines", text)
	}

	all, err := sup.Query(ctx, 88, 0)
	if err != nil {
		t.Fatalf("Query default: %v", err)
	}
	if !strings.HasPrefix(all, "L1\n") || !strings.HasSuffix(all, "\nL10") {
		t.Fatalf("Query default = %q, want all ten lines", all)
	}
}

func TestQuerySentinelForMissingLogFile(t *testing.T) {
	fake := newFakeLauncher()
	sup, store, base := newTestSupervisor(t, fake)
	ctx := context.Background()

	rec := registry.Record{PID: 89, Command: "gone", Cwd: base, Status: registry.StatusStopped, StartTime: 6, LogFile: filepath.Join(t.TempDir(), "missing.log")}
	if err := store.Put(ctx, base, rec.Key(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	text, err := sup.Query(ctx, 89, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if text != proclog.NoLogsMessage {
		t.Fatalf("Query = %q, want sentinel", text)
	}
}

func TestListScopes(t *testing.T) {
	fake := newFakeLauncher()
	sup, store, base := newTestSupervisor(t, fake)
	ctx := context.Background()

	if _, err := sup.Start(ctx, supervisor.StartRequest{Command: "here", AutoShutdown: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	child := registry.Record{PID: 60001, Command: "child", Cwd: filepath.Join(base, "sub"), Status: registry.StatusRunning, StartTime: 7, AutoShutdown: true}
	sibling := registry.Record{PID: 60002, Command: "sibling", Cwd: base + "2", Status: registry.StatusRunning, StartTime: 8, AutoShutdown: true}
	if err := store.Put(ctx, child.Cwd, child.Key(), child); err != nil {
		t.Fatalf("Put child: %v", err)
	}
	if err := store.Put(ctx, sibling.Cwd, sibling.Key(), sibling); err != nil {
		t.Fatalf("Put sibling: %v", err)
	}

	current, err := sup.List(ctx, "", scope.ScopeCurrent)
	if err != nil {
		t.Fatalf("List current: %v", err)
	}
	if len(current) != 1 || current[0].Workdir != base {
		t.Fatalf("current = %#v, want only the base partition", current)
	}

	subtree, err := sup.List(ctx, "", scope.ScopeSubtree)
	if err != nil {
		t.Fatalf("List subtree: %v", err)
	}
	if len(subtree) != 2 {
		t.Fatalf("subtree entries = %d, want 2 (base and child, not the sibling)", len(subtree))
	}
	for _, entry := range subtree {
		if entry.Workdir == sibling.Cwd {
			t.Fatal("a sibling sharing the name prefix must not appear in subtree scope")
		}
	}

	all, err := sup.List(ctx, "", scope.ScopeAll)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all entries = %d, want 3", len(all))
	}
}
