package cli

import (
	"testing"
	"time"

	"github.com/lucaskeller/crossfeed/internal/config"
	"github.com/lucaskeller/crossfeed/internal/stage"
)

func intp(n int) *int { return &n }

func TestBuildWorkflow(t *testing.T) {
	t.Setenv("TEST_STATS_KEY", "k")

	cfg := &config.WorkflowConfig{Workflow: config.Workflow{
		Name:        "wf",
		OnAmbiguous: "drop",
		Sources: map[string]config.Source{
			"stats": {Kind: "nba_stats", BaseURL: "http://x", APIKeyEnv: "TEST_STATS_KEY"},
			"book":  {Kind: "odds", BaseURL: "http://y"},
			"cal":   {Kind: "gcal", BaseURL: "http://z"},
		},
		Stages: []config.Stage{
			{ID: "fetch_games", Kind: "fetch", Source: "stats", Timeout: "10s", MaxRetries: intp(2)},
			{ID: "fetch_odds", Kind: "fetch", Source: "book", Timeout: "10s", MaxRetries: intp(2),
				Params: map[string]string{"entity": "players", "event": "e1"}},
			{ID: "match", Kind: "resolve", Primary: "fetch_games", Candidates: "fetch_odds",
				DependsOn: []string{"fetch_games", "fetch_odds"}, Timeout: "5s", MaxRetries: intp(0)},
			{ID: "brief", Kind: "analyze", NotesFrom: nil, DependsOn: []string{"match"}, Timeout: "5s", MaxRetries: intp(0)},
			{ID: "publish", Kind: "publish", Source: "cal", From: "brief",
				DependsOn: []string{"brief"}, Timeout: "5s", MaxRetries: intp(3)},
		},
	}}

	wf, impls, err := buildWorkflow(cfg)
	if err != nil {
		t.Fatalf("buildWorkflow: %v", err)
	}
	if err := wf.Validate(); err != nil {
		t.Fatalf("built workflow invalid: %v", err)
	}
	if len(impls) != 5 {
		t.Fatalf("got %d stage impls, want 5", len(impls))
	}

	specs := map[string]stage.Spec{}
	for _, s := range wf.Stages {
		specs[s.ID] = s
	}
	if specs["fetch_games"].Timeout != 10*time.Second || specs["fetch_games"].MaxRetries != 2 {
		t.Errorf("fetch_games spec = %+v", specs["fetch_games"])
	}
	if !specs["publish"].NonIdempotent {
		t.Error("publish stages must be non-idempotent")
	}
	if specs["fetch_games"].NonIdempotent {
		t.Error("fetch stages are idempotent")
	}

	if _, ok := impls["match"].(*stage.ResolveStage); !ok {
		t.Errorf("match impl = %T", impls["match"])
	}
	if _, ok := impls["publish"].(*stage.PublishStage); !ok {
		t.Errorf("publish impl = %T", impls["publish"])
	}
}

func TestBuildWorkflowErrors(t *testing.T) {
	cfg := &config.WorkflowConfig{Workflow: config.Workflow{
		Name: "wf",
		Stages: []config.Stage{
			{ID: "a", Kind: "fetch", Source: "ghost", Timeout: "bad"},
		},
	}}
	if _, _, err := buildWorkflow(cfg); err == nil {
		t.Fatal("expected error for unparseable timeout")
	}

	cfg.Workflow.Stages[0].Timeout = "10s"
	cfg.Workflow.Stages[0].Kind = "teleport"
	if _, _, err := buildWorkflow(cfg); err == nil {
		t.Fatal("expected error for unknown stage kind")
	}
}

func TestBuildResolverConfig(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	rcfg, err := buildResolverConfig(config.Resolver{
		NameWeight: f(0.6),
		TimeWindow: "12h",
		AliasSet:   "nba",
		Aliases:    map[string]string{"cpi": "consumer price index"},
	})
	if err != nil {
		t.Fatalf("buildResolverConfig: %v", err)
	}
	if rcfg.NameWeight != 0.6 {
		t.Errorf("NameWeight = %v", rcfg.NameWeight)
	}
	if rcfg.TimeWeight != 0.3 {
		t.Errorf("unset weights should keep defaults, TimeWeight = %v", rcfg.TimeWeight)
	}
	if rcfg.TimeWindow != 12*time.Hour {
		t.Errorf("TimeWindow = %v", rcfg.TimeWindow)
	}
	if rcfg.Aliases["lal"] != "los angeles lakers" {
		t.Error("nba alias set not merged")
	}
	if rcfg.Aliases["cpi"] != "consumer price index" {
		t.Error("custom aliases not merged")
	}

	if _, err := buildResolverConfig(config.Resolver{AliasSet: "nfl"}); err == nil {
		t.Error("unknown alias set should error")
	}
	if _, err := buildResolverConfig(config.Resolver{TimeWindow: "soonish"}); err == nil {
		t.Error("bad duration should error")
	}
}
