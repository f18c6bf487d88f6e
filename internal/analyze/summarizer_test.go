package analyze

import (
	"context"
	"strings"
	"testing"

	"github.com/lucaskeller/crossfeed/internal/record"
)

func TestHeuristicSummarize(t *testing.T) {
	in := Input{
		Query: "tonight's games",
		Entities: []record.ResolvedEntity{
			{CanonicalName: "Lakers vs Celtics", Status: record.StatusMatched, Score: 0.91,
				Records: map[string]record.Record{"stats": {}, "odds": {}}},
			{CanonicalName: "Warriors vs Nets", Status: record.StatusUnmatched,
				Records: map[string]record.Record{"stats": {}}},
		},
		Notes: []string{"LeBron questionable (ankle)"},
	}

	out, err := Heuristic{}.Summarize(context.Background(), in)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	for _, want := range []string{
		"Query: tonight's games",
		"Resolved 1 of 2 entities",
		"1 entities had no counterpart",
		"Lakers vs Celtics (score 0.91, sources: odds, stats)",
		"LeBron questionable (ankle)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	in := Input{
		Entities: []record.ResolvedEntity{
			{CanonicalName: "CPI", Status: record.StatusMatched, Score: 0.8,
				Records: map[string]record.Record{"news": {}, "econ": {}, "wire": {}}},
		},
	}
	first, _ := Heuristic{}.Summarize(context.Background(), in)
	for i := 0; i < 20; i++ {
		again, _ := Heuristic{}.Summarize(context.Background(), in)
		if again != first {
			t.Fatal("summary output varies across runs")
		}
	}
}
