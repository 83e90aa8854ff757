package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rexliu/mcprobe/pkg/probe"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func TestStoreRecordAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := probe.Report{
		RunID:   "01RUNAAAAAAAAAAAAAAAAAAAAA",
		Command: []string{"./garnix-fetcher", "--mcp"},
		Started: time.UnixMilli(1000),
		Steps: []probe.StepResult{
			{Step: probe.StepInitialize, Status: probe.StatusOK, Detail: "server garnix v1"},
			{Step: probe.StepListTools, Status: probe.StatusOK, Detail: "2 tools"},
		},
	}
	second := probe.Report{
		RunID:   "01RUNBBBBBBBBBBBBBBBBBBBBB",
		Command: []string{"./garnix-fetcher", "--mcp"},
		Started: time.UnixMilli(2000),
		Steps: []probe.StepResult{
			{Step: probe.StepInitialize, Status: probe.StatusTimeout, Detail: "no response before deadline"},
			{Step: probe.StepListTools, Status: probe.StatusTimeout, Detail: "no response before deadline"},
		},
	}
	if err := store.RecordRun(ctx, first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.RecordRun(ctx, second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.RunID {
		t.Fatalf("expected newest first, got %s", runs[0].ID)
	}
	if runs[0].Passed {
		t.Fatal("timed-out run recorded as passed")
	}
	if !runs[1].Passed {
		t.Fatal("clean run recorded as failed")
	}
	if len(runs[1].Steps) != 2 || runs[1].Steps[0].Step != probe.StepInitialize {
		t.Fatalf("steps not preserved: %+v", runs[1].Steps)
	}
	if runs[1].Steps[1].Detail != "2 tools" {
		t.Fatalf("detail not preserved: %+v", runs[1].Steps[1])
	}
}

func TestStoreListLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		report := probe.Report{
			RunID:   probe.NewRunID(),
			Command: []string{"srv"},
			Started: time.UnixMilli(int64(i)),
		}
		if err := store.RecordRun(ctx, report); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
}
