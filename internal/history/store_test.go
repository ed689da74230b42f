package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

func newTestStore(t *testing.T, maxRuns int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path, maxRuns)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(name string, at time.Time) *Record {
	return &Record{
		Name:      name,
		StartedAt: at,
		Verdicts: []verify.Verdict{
			{Target: "https://shop.example.com/products/a", Passed: true, FailureCodes: []string{}},
		},
		Summary: verify.Summary{Total: 1, Passed: 1},
		Trigger: spec.OnPass,
	}
}

func TestSaveAssignsIDAndTime(t *testing.T) {
	store := newTestStore(t, 0)

	rec := sampleRecord("sweep", time.Time{})
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" {
		t.Error("Save did not assign an ID")
	}
	if rec.StartedAt.IsZero() {
		t.Error("Save did not assign a start time")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t, 0)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := sampleRecord(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	runs, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Name != "run-2" || runs[2].Name != "run-0" {
		t.Errorf("runs not newest-first: %s, %s, %s", runs[0].Name, runs[1].Name, runs[2].Name)
	}

	limited, err := store.List(2)
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 2 || limited[0].Name != "run-2" {
		t.Errorf("limited = %v", limited)
	}
}

func TestGet(t *testing.T) {
	store := newTestStore(t, 0)

	rec := sampleRecord("target", time.Now())
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "target" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Verdicts) != 1 || !got.Verdicts[0].Passed {
		t.Errorf("Verdicts = %+v", got.Verdicts)
	}

	if _, err := store.Get("nope"); err == nil {
		t.Error("expected error for unknown ID")
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	store := newTestStore(t, 3)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		rec := sampleRecord(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Save(rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	runs, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs after prune, want 3", len(runs))
	}
	if runs[0].Name != "run-5" || runs[2].Name != "run-3" {
		t.Errorf("pruning kept wrong runs: %s..%s", runs[0].Name, runs[2].Name)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store1, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := sampleRecord("durable", time.Now())
	if err := store1.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	store1.Close()

	store2, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store2.Close()

	got, err := store2.Get(rec.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Name != "durable" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestOpenInvalidPath(t *testing.T) {
	if _, err := Open(filepath.Join("/dev/null", "impossible", "runs.db"), 0); err == nil {
		t.Error("expected error for invalid path")
	}
}
