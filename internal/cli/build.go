package cli

import (
	"fmt"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/analyze"
	"github.com/lucaskeller/crossfeed/internal/config"
	"github.com/lucaskeller/crossfeed/internal/orchestrator"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/record"
	"github.com/lucaskeller/crossfeed/internal/resolve"
	"github.com/lucaskeller/crossfeed/internal/source"
	"github.com/lucaskeller/crossfeed/internal/stage"
)

// fetchWindow bounds time-windowed fetch queries relative to now.
const fetchWindow = 48 * time.Hour

// buildWorkflow turns a validated config into the orchestrator workflow and
// its stage implementations, constructing source adapters along the way.
func buildWorkflow(cfg *config.WorkflowConfig) (orchestrator.Workflow, map[string]stage.Stage, error) {
	wf := orchestrator.Workflow{
		Name:        cfg.Workflow.Name,
		OnAmbiguous: orchestrator.AmbiguousPolicy(cfg.Workflow.OnAmbiguous),
	}

	rcfg, err := buildResolverConfig(cfg.Workflow.Resolver)
	if err != nil {
		return wf, nil, err
	}

	impls := make(map[string]stage.Stage, len(cfg.Workflow.Stages))
	for _, sc := range cfg.Workflow.Stages {
		spec, err := buildSpec(sc)
		if err != nil {
			return wf, nil, err
		}
		impl, err := buildStage(cfg, sc, rcfg)
		if err != nil {
			return wf, nil, err
		}
		wf.Stages = append(wf.Stages, spec)
		impls[sc.ID] = impl
	}
	return wf, impls, nil
}

func buildSpec(sc config.Stage) (stage.Spec, error) {
	spec := stage.Spec{
		ID:            sc.ID,
		DependsOn:     sc.DependsOn,
		Optional:      sc.Optional,
		NonIdempotent: sc.Kind == "publish",
	}
	if sc.Timeout != "" {
		d, err := time.ParseDuration(sc.Timeout)
		if err != nil {
			return spec, fmt.Errorf("stage %q: parsing timeout: %w", sc.ID, err)
		}
		spec.Timeout = d
	}
	if sc.MaxRetries != nil {
		spec.MaxRetries = *sc.MaxRetries
	}
	return spec, nil
}

func buildStage(cfg *config.WorkflowConfig, sc config.Stage, rcfg resolve.Config) (stage.Stage, error) {
	switch sc.Kind {
	case "fetch":
		src, err := source.New(cfg.Workflow.Sources[sc.Source])
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", sc.ID, err)
		}
		params := sc.Params
		return &stage.FetchStage{
			StageID: sc.ID,
			Source:  src,
			BuildQuery: func(v *pipeline.View) adapter.Query {
				now := time.Now().UTC()
				return adapter.Query{
					Text:   v.Query,
					From:   now,
					To:     now.Add(fetchWindow),
					Params: params,
				}
			},
		}, nil
	case "resolve":
		return &stage.ResolveStage{
			StageID:        sc.ID,
			PrimaryStage:   sc.Primary,
			CandidateStage: sc.Candidates,
			Config:         rcfg,
		}, nil
	case "analyze":
		return &stage.AnalyzeStage{
			StageID:    sc.ID,
			Summarizer: analyze.Heuristic{},
			NoteStages: sc.NotesFrom,
		}, nil
	case "publish":
		sink, err := source.NewCommitter(cfg.Workflow.Sources[sc.Source])
		if err != nil {
			return nil, fmt.Errorf("stage %q: %w", sc.ID, err)
		}
		return &stage.PublishStage{
			StageID:   sc.ID,
			Sink:      sink,
			FromStage: sc.From,
		}, nil
	default:
		return nil, fmt.Errorf("stage %q: unknown kind %q", sc.ID, sc.Kind)
	}
}

func buildResolverConfig(r config.Resolver) (resolve.Config, error) {
	cfg := resolve.DefaultConfig()
	if r.NameWeight != nil {
		cfg.NameWeight = *r.NameWeight
	}
	if r.TimeWeight != nil {
		cfg.TimeWeight = *r.TimeWeight
	}
	if r.AttrWeight != nil {
		cfg.AttrWeight = *r.AttrWeight
	}
	if r.TimeWindow != "" {
		d, err := time.ParseDuration(r.TimeWindow)
		if err != nil {
			return cfg, fmt.Errorf("resolver: parsing time_window: %w", err)
		}
		cfg.TimeWindow = d
	}
	if r.MinScore != nil {
		cfg.MinScore = *r.MinScore
	}
	if r.AcceptThreshold != nil {
		cfg.AcceptThreshold = *r.AcceptThreshold
	}
	if r.SeparationMargin != nil {
		cfg.SeparationMargin = *r.SeparationMargin
	}

	if r.AliasSet != "" || len(r.Aliases) > 0 {
		cfg.Aliases = record.Aliases{}
	}
	switch r.AliasSet {
	case "":
	case "nba":
		for k, v := range source.NBATeamAliases {
			cfg.Aliases[k] = v
		}
	default:
		return cfg, fmt.Errorf("resolver: unknown alias_set %q", r.AliasSet)
	}
	for k, v := range r.Aliases {
		cfg.Aliases[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("resolver: %w", err)
	}
	return cfg, nil
}
