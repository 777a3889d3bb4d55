package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/fgamador/evo2/internal/persistence/runlog"
	"github.com/fgamador/evo2/internal/sim/world"
)

func writeLog(t *testing.T, ticks ...uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl.zst")
	w, err := runlog.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, tick := range ticks {
		if err := w.WriteTick(world.TickStats{Tick: tick, Cells: 1}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestReplayCmd_AcceptsContiguousLog(t *testing.T) {
	path := writeLog(t, 1, 2, 3)

	cmd := newReplayCmd()
	cmd.SilenceUsage = true
	cmd.SetArgs([]string{path, "--quiet"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestReplayCmd_DetectsTickGap(t *testing.T) {
	path := writeLog(t, 1, 3)

	cmd := newReplayCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{path, "--quiet"})
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected error for tick gap")
	}
	if !strings.Contains(err.Error(), "tick gap") {
		t.Fatalf("err = %v, want tick gap", err)
	}
}

func TestReplayCmd_MissingFile(t *testing.T) {
	cmd := newReplayCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "absent.jsonl.zst")})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
