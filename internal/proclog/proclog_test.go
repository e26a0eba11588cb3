package proclog_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"warden/internal/logging"
	"warden/internal/proclog"
	"warden/internal/testsupport"
)

func newCapture(t *testing.T) *proclog.Capture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	capture, err := proclog.NewCapture(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	return capture
}

func TestTailLastNonEmptyLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proc-1.log")
	if err := os.WriteFile(path, []byte("L1\nL2\nL3\nL4\nL5\nL6\nL7\nL8\nL9\nL10\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := proclog.Tail(path, 5)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if got := strings.Join(lines, "\n"); got != "L6\nL7\nL8\nL9\nL10" {
		t.Fatalf("Tail = %q, want last five lines in original order", got)
	}
}

func TestTailClampsRequestedLineCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proc-1.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := proclog.Tail(path, math.MaxInt)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailSkipsEmptyLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proc-2.log")
	if err := os.WriteFile(path, []byte("one\n\ntwo\n\n\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := proclog.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 3 || lines[0] != "one" || lines[2] != "three" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailFewerLinesThanRequested(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proc-3.log")
	if err := os.WriteFile(path, []byte("only\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines, err := proclog.Tail(path, 100)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, err := proclog.Tail(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("Tail on missing file: %v", err)
	}
	if lines != nil {
		t.Fatalf("missing file should yield no lines, got %#v", lines)
	}
}

func TestOpenPendingAndPromote(t *testing.T) {
	capture := newCapture(t)

	file, pending, err := capture.OpenPending()
	if err != nil {
		t.Fatalf("OpenPending: %v", err)
	}
	if !strings.Contains(filepath.Base(pending), "proc-pending-") {
		t.Fatalf("pending name = %q, want transient prefix", pending)
	}
	if _, err := file.WriteString("before promote\n"); err != nil {
		t.Fatalf("write pending: %v", err)
	}

	final := capture.Promote(pending, 4242)
	if final != capture.PathFor(4242) {
		t.Fatalf("Promote = %q, want %q", final, capture.PathFor(4242))
	}
	if _, err := os.Stat(pending); !os.IsNotExist(err) {
		t.Fatalf("pending file should be gone, stat err = %v", err)
	}

	if _, err := file.WriteString("after promote\n"); err != nil {
		t.Fatalf("write after promote: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines, err := proclog.Tail(final, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "before promote" || lines[1] != "after promote" {
		t.Fatalf("writes through the renamed descriptor lost: %#v", lines)
	}
}

func TestSinkInterleavesBothStreams(t *testing.T) {
	capture := newCapture(t)

	file, pending, err := capture.OpenPending()
	if err != nil {
		t.Fatalf("OpenPending: %v", err)
	}
	sink := proclog.NewSink(file, logging.NewNop())

	if _, err := sink.Write([]byte("stdout line\n")); err != nil {
		t.Fatalf("sink write: %v", err)
	}
	if _, err := sink.Write([]byte("stderr line\n")); err != nil {
		t.Fatalf("sink write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("sink close: %v", err)
	}

	lines, err := proclog.Tail(pending, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 || lines[0] != "stdout line" || lines[1] != "stderr line" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestSinkSwallowsWritesAfterClose(t *testing.T) {
	capture := newCapture(t)

	file, _, err := capture.OpenPending()
	if err != nil {
		t.Fatalf("OpenPending: %v", err)
	}
	sink := proclog.NewSink(file, logging.NewNop())
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	n, err := sink.Write([]byte("late\n"))
	if err != nil || n != 5 {
		t.Fatalf("write after close = (%d, %v), want full length and nil error", n, err)
	}
}
