package resolve

import (
	"testing"
	"time"

	"github.com/lucaskeller/crossfeed/internal/record"
)

func TestResolveAllClaimsCandidatesOnce(t *testing.T) {
	cfg := DefaultConfig()
	ts := time.Date(2025, 11, 7, 19, 0, 0, 0, time.UTC)

	primaries := []record.Record{
		rec("stats", "g1", "Lakers vs Celtics", ts),
		rec("stats", "g2", "Lakers vs Celtics", ts),
	}
	candidates := []record.Record{
		rec("odds", "e1", "Lakers vs Celtics", ts),
	}

	out := ResolveAll(primaries, candidates, cfg)
	if len(out) != 2 {
		t.Fatalf("got %d entities, want 2", len(out))
	}
	if out[0].Status != record.StatusMatched {
		t.Errorf("first primary: Status = %q, want matched", out[0].Status)
	}
	if out[1].Status != record.StatusUnmatched {
		t.Errorf("second primary: Status = %q, want unmatched (candidate already claimed)", out[1].Status)
	}
}

func TestResolveAllPrimaryOrderControlsPrecedence(t *testing.T) {
	cfg := DefaultConfig()
	ts := time.Date(2025, 11, 7, 19, 0, 0, 0, time.UTC)

	primaries := []record.Record{
		rec("stats", "g2", "Warriors vs Nets", ts),
		rec("stats", "g1", "Lakers vs Celtics", ts),
	}
	candidates := []record.Record{
		rec("odds", "e1", "Lakers vs Celtics", ts),
		rec("odds", "e2", "Warriors vs Nets", ts),
	}

	out := ResolveAll(primaries, candidates, cfg)
	if out[0].Records["odds"].SourceID != "e2" {
		t.Errorf("first primary matched %q, want e2", out[0].Records["odds"].SourceID)
	}
	if out[1].Records["odds"].SourceID != "e1" {
		t.Errorf("second primary matched %q, want e1", out[1].Records["odds"].SourceID)
	}
}

func TestResolveAllAmbiguousClaimsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeWeight = 0
	cfg.AttrWeight = 0
	ts := time.Date(2025, 11, 7, 19, 0, 0, 0, time.UTC)

	// Two indistinguishable candidates make the first primary ambiguous; the
	// second primary must still see the full pool.
	primaries := []record.Record{
		rec("stats", "g1", "Lakers vs Celtics", ts),
		rec("stats", "g2", "Lakers vs Celtics", ts),
	}
	candidates := []record.Record{
		rec("odds", "e1", "Lakers vs Celtics", ts),
		rec("odds", "e2", "Lakers vs Celtics", ts),
	}

	out := ResolveAll(primaries, candidates, cfg)
	for i, e := range out {
		if e.Status != record.StatusAmbiguous {
			t.Errorf("primary %d: Status = %q, want ambiguous", i, e.Status)
		}
		if len(e.Candidates) != 2 {
			t.Errorf("primary %d: got %d candidates, want the full pool of 2", i, len(e.Candidates))
		}
	}
}
