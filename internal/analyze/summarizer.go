// Package analyze is the boundary to the summarization collaborator. The
// production implementation is an LLM; the pipeline only depends on the
// interface, and ships a deterministic heuristic so workflows run end to
// end without a model.
package analyze

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lucaskeller/crossfeed/internal/record"
)

// Input is everything the summarizer sees: the user query, the resolved
// entities, and any free-form notes earlier stages left behind (news
// snippets, stat lines).
type Input struct {
	Query    string
	Entities []record.ResolvedEntity
	Notes    []string
}

// Summarizer turns resolved, cross-linked data into a human-readable
// insight: a calendar entry body or a betting summary.
type Summarizer interface {
	Summarize(ctx context.Context, in Input) (string, error)
}

// Heuristic is a model-free Summarizer: it reports what was resolved and
// with what confidence. Deterministic, so tests can assert on its output.
type Heuristic struct{}

func (Heuristic) Summarize(_ context.Context, in Input) (string, error) {
	var b strings.Builder
	if in.Query != "" {
		fmt.Fprintf(&b, "Query: %s\n", in.Query)
	}

	matched, unmatched := 0, 0
	for _, e := range in.Entities {
		switch e.Status {
		case record.StatusMatched:
			matched++
		case record.StatusUnmatched:
			unmatched++
		}
	}
	fmt.Fprintf(&b, "Resolved %d of %d entities across sources.\n", matched, len(in.Entities))
	if unmatched > 0 {
		fmt.Fprintf(&b, "%d entities had no counterpart and proceed single-source.\n", unmatched)
	}

	for _, e := range in.Entities {
		if e.Status != record.StatusMatched {
			continue
		}
		sources := make([]string, 0, len(e.Records))
		for src := range e.Records {
			sources = append(sources, src)
		}
		// Stable order for deterministic output.
		sort.Strings(sources)
		fmt.Fprintf(&b, "- %s (score %.2f, sources: %s)\n",
			e.CanonicalName, e.Score, strings.Join(sources, ", "))
	}

	for _, n := range in.Notes {
		fmt.Fprintf(&b, "%s\n", n)
	}
	return b.String(), nil
}
