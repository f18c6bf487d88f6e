package stage

import (
	"context"
	"fmt"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/analyze"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/resolve"
)

// FetchStage pulls records from one adapter. Idempotent.
type FetchStage struct {
	StageID string
	Source  adapter.Adapter

	// BuildQuery derives the adapter query from the view. Nil means a query
	// carrying just the run's query text.
	BuildQuery func(v *pipeline.View) adapter.Query
}

func (s *FetchStage) ID() string { return s.StageID }

func (s *FetchStage) Execute(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	q := adapter.Query{Text: v.Query}
	if s.BuildQuery != nil {
		q = s.BuildQuery(v)
	}
	recs, err := s.Source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.Source.Name(), err)
	}
	return &pipeline.Delta{Output: recs}, nil
}

// ResolveStage matches the records of one upstream stage against another's.
type ResolveStage struct {
	StageID        string
	PrimaryStage   string
	CandidateStage string
	Config         resolve.Config
}

func (s *ResolveStage) ID() string { return s.StageID }

func (s *ResolveStage) Execute(_ context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	primaries := v.Records(s.PrimaryStage)
	candidates := v.Records(s.CandidateStage)
	if len(primaries) == 0 {
		return nil, fmt.Errorf("resolve %s: no records from primary stage %q", s.StageID, s.PrimaryStage)
	}

	entities := resolve.ResolveAll(primaries, candidates, s.Config)
	return &pipeline.Delta{Entities: entities}, nil
}

// AnalyzeStage hands resolved entities to the summarizer collaborator.
type AnalyzeStage struct {
	StageID    string
	Summarizer analyze.Summarizer

	// NoteStages are upstream stages whose record payloads are flattened
	// into free-form notes (news snippets, stat lines).
	NoteStages []string
}

func (s *AnalyzeStage) ID() string { return s.StageID }

func (s *AnalyzeStage) Execute(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	in := analyze.Input{
		Query:    v.Query,
		Entities: v.Entities,
	}
	for _, dep := range s.NoteStages {
		for _, r := range v.Records(dep) {
			note := r.DisplayName
			if snippet := r.Attr("snippet"); snippet != "" {
				note += ": " + snippet
			}
			in.Notes = append(in.Notes, note)
		}
	}

	summary, err := s.Summarizer.Summarize(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return &pipeline.Delta{Output: summary}, nil
}

// PublishStage commits an upstream payload to an external sink. Marked
// non-idempotent in its spec so the executor never retries it.
type PublishStage struct {
	StageID string
	Sink    adapter.Committer

	// FromStage names the stage whose output is published.
	FromStage string
}

func (s *PublishStage) ID() string { return s.StageID }

func (s *PublishStage) Execute(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	payload, ok := v.Outputs[s.FromStage]
	if !ok {
		return nil, fmt.Errorf("publish %s: no output from stage %q", s.StageID, s.FromStage)
	}
	if err := s.Sink.Commit(ctx, payload); err != nil {
		return nil, fmt.Errorf("commit to %s: %w", s.Sink.Name(), err)
	}
	return &pipeline.Delta{Output: "published"}, nil
}

// Func adapts a function into a Stage; the orchestrator tests and in-process
// policy stages use it.
type Func struct {
	StageID string
	Fn      func(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error)
}

func (s *Func) ID() string { return s.StageID }

func (s *Func) Execute(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	return s.Fn(ctx, v)
}
