package main

import (
	"strings"
	"testing"

	"warden/internal/registry"
)

func TestPsRows(t *testing.T) {
	entries := []registry.Entry{
		{
			Workdir: "/srv/app",
			Key:     "abc123def456",
			Record: registry.Record{
				PID:          4321,
				Command:      "sleep 30",
				Cwd:          "/srv/app",
				Status:       registry.StatusRunning,
				StartTime:    1_700_000_000_000,
				AutoShutdown: true,
			},
		},
		{
			Workdir: "/srv/other",
			Key:     "fed654cba321",
			Record: registry.Record{
				PID:          99,
				Command:      "python -m http.server",
				Cwd:          "/srv/other",
				Status:       registry.StatusCrashed,
				StartTime:    1_700_000_100_000,
				AutoShutdown: false,
			},
		},
	}

	rows := psRows(entries)
	if len(rows) != 2 {
		t.Fatalf("psRows returned %d rows, want 2", len(rows))
	}
	if rows[0][0] != "4321" {
		t.Errorf("pid cell = %q, want 4321", rows[0][0])
	}
	if rows[0][1] != "Running" {
		t.Errorf("status cell = %q, want Running", rows[0][1])
	}
	if rows[0][2] != "ephemeral" {
		t.Errorf("policy cell = %q, want ephemeral", rows[0][2])
	}
	if rows[1][1] != "Crashed" {
		t.Errorf("status cell = %q, want Crashed", rows[1][1])
	}
	if rows[1][2] != "persistent" {
		t.Errorf("policy cell = %q, want persistent", rows[1][2])
	}
	if rows[1][5] != "python -m http.server" {
		t.Errorf("command cell = %q", rows[1][5])
	}
}

func TestRenderTableIncludesAllCells(t *testing.T) {
	out := renderTable(
		[]string{"PID", "Command"},
		[][]string{{"42", "sleep 30"}},
		[]columnAlignment{alignRight, alignLeft},
	)
	for _, want := range []string{"PID", "Command", "42", "sleep 30"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
}
