package pipeline

import (
	"testing"

	"github.com/lucaskeller/crossfeed/internal/record"
)

func TestNewState(t *testing.T) {
	st := NewState("nba-game-watch", "tonight's games")

	if st.RunID == "" {
		t.Error("RunID should be assigned")
	}
	if st.Status != StatusRunning {
		t.Errorf("Status = %q, want running", st.Status)
	}
	if st.Workflow != "nba-game-watch" {
		t.Errorf("Workflow = %q", st.Workflow)
	}
	if st.CreatedAt == "" || st.UpdatedAt == "" {
		t.Error("timestamps should be set")
	}

	other := NewState("nba-game-watch", "tonight's games")
	if other.RunID == st.RunID {
		t.Error("each run must get a distinct RunID")
	}
}

func TestViewForScopesToDependencies(t *testing.T) {
	st := NewState("wf", "q")
	st.Outputs["fetch_games"] = []record.Record{{Source: "stats", DisplayName: "Lakers vs Celtics"}}
	st.Outputs["fetch_news"] = []record.Record{{Source: "news", DisplayName: "injury report"}}

	v := st.ViewFor([]string{"fetch_games"})
	if v.Records("fetch_games") == nil {
		t.Error("declared dependency output should be visible")
	}
	if v.Records("fetch_news") != nil {
		t.Error("undeclared stage output must not leak into the view")
	}
}

func TestViewForDeepCopies(t *testing.T) {
	st := NewState("wf", "q")
	st.Outputs["fetch_games"] = []record.Record{{
		Source:      "stats",
		DisplayName: "Lakers vs Celtics",
		Attributes:  map[string]string{"home_team": "Lakers"},
	}}
	st.Entities = []record.ResolvedEntity{{
		CanonicalName: "Lakers vs Celtics",
		Status:        record.StatusMatched,
		Records:       map[string]record.Record{"stats": {Source: "stats"}},
	}}

	v := st.ViewFor([]string{"fetch_games"})
	v.Records("fetch_games")[0].Attributes["home_team"] = "mutated"
	v.Entities[0].CanonicalName = "mutated"

	orig := st.Outputs["fetch_games"].([]record.Record)
	if orig[0].Attributes["home_team"] != "Lakers" {
		t.Error("mutating a view record reached shared state")
	}
	if st.Entities[0].CanonicalName != "Lakers vs Celtics" {
		t.Error("mutating a view entity reached shared state")
	}
}

func TestMergeAndDropAmbiguous(t *testing.T) {
	st := NewState("wf", "q")

	st.Merge("resolve", &Delta{Entities: []record.ResolvedEntity{
		{CanonicalName: "a", Status: record.StatusMatched},
		{CanonicalName: "b", Status: record.StatusAmbiguous},
		{CanonicalName: "c", Status: record.StatusUnmatched},
	}})
	st.Merge("brief", &Delta{Output: "summary text"})
	st.Merge("noop", nil)

	if len(st.Entities) != 3 {
		t.Fatalf("got %d entities, want 3", len(st.Entities))
	}
	if st.Outputs["brief"] != "summary text" {
		t.Errorf("Outputs[brief] = %v", st.Outputs["brief"])
	}

	if n := st.DropAmbiguous(); n != 1 {
		t.Errorf("dropped %d, want 1", n)
	}
	if len(st.Entities) != 2 {
		t.Fatalf("got %d entities after drop, want 2", len(st.Entities))
	}
	for _, e := range st.Entities {
		if e.Status == record.StatusAmbiguous {
			t.Error("ambiguous entity survived DropAmbiguous")
		}
	}
}
