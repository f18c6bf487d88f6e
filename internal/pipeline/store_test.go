package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lucaskeller/crossfeed/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	st := NewState("nba-game-watch", "tonight's slate")
	st.Entities = []record.ResolvedEntity{{
		CanonicalName: "Lakers vs Celtics",
		Status:        record.StatusMatched,
		Score:         0.92,
		Records: map[string]record.Record{
			"stats": {Source: "stats", SourceID: "g1", DisplayName: "Lakers vs Celtics"},
			"odds":  {Source: "odds", SourceID: "e1", DisplayName: "LAL @ BOS"},
		},
	}}
	st.Outputs["brief"] = "2 games tonight"
	st.History = append(st.History, StageTrace{Stage: "fetch_games", Outcome: "ok", Attempts: 1})

	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(st.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Workflow != "nba-game-watch" {
		t.Errorf("Workflow = %q", got.Workflow)
	}
	if len(got.Entities) != 1 || got.Entities[0].Score != 0.92 {
		t.Errorf("entities did not round-trip: %+v", got.Entities)
	}
	if got.Entities[0].Records["odds"].SourceID != "e1" {
		t.Error("nested records did not round-trip")
	}
	if len(got.History) != 1 || got.History[0].Stage != "fetch_games" {
		t.Errorf("history did not round-trip: %+v", got.History)
	}
}

func TestGetMissingRun(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("no-such-run"); err == nil {
		t.Fatal("expected error for missing run")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not-found", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	s := newTestStore(t)

	a := NewState("wf", "q1")
	a.Status = StatusSucceeded
	a.CreatedAt = "2025-11-01T10:00:00Z"
	b := NewState("wf", "q2")
	b.Status = StatusFailed
	b.CreatedAt = "2025-11-02T10:00:00Z"
	c := NewState("wf", "q3")
	c.Status = StatusSucceeded
	c.CreatedAt = "2025-11-03T10:00:00Z"

	for _, st := range []*State{a, b, c} {
		if err := s.Save(st); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d runs, want 3", len(all))
	}
	if all[0].RunID != c.RunID || all[2].RunID != a.RunID {
		t.Error("runs not ordered newest first")
	}

	succeeded, err := s.List(StatusSucceeded)
	if err != nil {
		t.Fatalf("List(succeeded): %v", err)
	}
	if len(succeeded) != 2 {
		t.Errorf("got %d succeeded runs, want 2", len(succeeded))
	}
}

func TestListSkipsBrokenEntries(t *testing.T) {
	s := newTestStore(t)

	st := NewState("wf", "q")
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	broken := filepath.Join(s.BaseDir(), "broken-run")
	if err := os.MkdirAll(broken, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, "state.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs, want 1 (broken entry skipped)", len(runs))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	st := NewState("wf", "q")
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete(st.RunID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(st.RunID); err == nil {
		t.Error("run should be gone after Delete")
	}
	if err := s.Delete(st.RunID); err == nil {
		t.Error("deleting a missing run should error")
	}
}

func TestSaveAtomicOverwrite(t *testing.T) {
	s := newTestStore(t)

	st := NewState("wf", "q")
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st.Status = StatusSucceeded
	if err := s.Save(st); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	got, err := s.Get(st.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusSucceeded {
		t.Errorf("Status = %q, want succeeded", got.Status)
	}

	// No temp litter left behind.
	entries, err := os.ReadDir(filepath.Join(s.BaseDir(), st.RunID))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}
