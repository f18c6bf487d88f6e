// Package orchestrator owns the lifecycle of a workflow run: it schedules
// stages in dependency order, fans independent branches out in parallel,
// merges their deltas back into the shared state, and is the only component
// that decides whether a run continues, degrades, or aborts.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucaskeller/crossfeed/internal/db"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/stage"
)

// Orchestrator composes pipeline lifecycle operations.
type Orchestrator struct {
	executor *stage.Executor
	store    *pipeline.Store
	trace    *db.DB
	logger   *zap.SugaredLogger
}

// New creates an Orchestrator. store and trace may be nil to disable
// persistence (tests, one-shot resolve runs).
func New(executor *stage.Executor, store *pipeline.Store, trace *db.DB, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		executor: executor,
		store:    store,
		trace:    trace,
		logger:   logger,
	}
}

// Run executes the workflow to completion and returns the final run state.
//
// Domain failures (a required stage going fatal, a halt on ambiguity) are
// reported through the state's status and history, not through the error
// return: partial results are part of the answer, never discarded. The
// error return is reserved for structural problems — invalid workflow,
// missing stage implementation.
func (o *Orchestrator) Run(ctx context.Context, wf Workflow, stages map[string]stage.Stage, query string) (*pipeline.State, error) {
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("validate workflow: %w", err)
	}
	for _, spec := range wf.Stages {
		if _, ok := stages[spec.ID]; !ok {
			return nil, fmt.Errorf("no implementation bound for stage %q", spec.ID)
		}
	}
	policy := wf.OnAmbiguous
	if policy == "" {
		policy = PolicyDrop
	}

	state := pipeline.NewState(wf.Name, query)
	o.logger.Infow("run starting",
		"run_id", state.RunID,
		"workflow", wf.Name,
		"stages", len(wf.Stages))
	if o.trace != nil {
		_ = o.trace.InsertRun(state.RunID, wf.Name, query, string(pipeline.StatusRunning))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(map[string]stage.Outcome, len(wf.Stages))
	var aborted, degraded bool
	var failStage string

	for len(done) < len(wf.Stages) && !aborted {
		wave := o.readyStages(wf, done)
		if len(wave) == 0 {
			return nil, fmt.Errorf("workflow %q stuck: no runnable stage among %d remaining", wf.Name, len(wf.Stages)-len(done))
		}

		// Fan out the wave. A required stage going fatal cancels the wave
		// context, so in-flight siblings stop at their next I/O boundary
		// instead of being awaited to completion. Each branch writes into
		// its own result slot; merging happens sequentially at the join.
		results := make([]*stage.Result, len(wave))
		g, waveCtx := errgroup.WithContext(runCtx)
		for i, spec := range wave {
			i, spec := i, spec
			view := state.ViewFor(spec.DependsOn)
			st := stages[spec.ID]
			g.Go(func() error {
				res := o.executor.Run(waveCtx, spec, st, view)
				results[i] = res
				if res.Outcome == stage.OutcomeFatal && !spec.Optional {
					return fmt.Errorf("required stage %q failed: %w", spec.ID, res.Err)
				}
				return nil
			})
		}
		_ = g.Wait()

		// Join: merge in wave order.
		for i, spec := range wave {
			res := results[i]
			o.recordTrace(state, res)
			done[spec.ID] = res.Outcome

			switch res.Outcome {
			case stage.OutcomeOk:
				state.Merge(spec.ID, res.Delta)

			case stage.OutcomeAmbiguous:
				// Never auto-resolved: route through the configured policy.
				state.Merge(spec.ID, res.Delta)
				switch policy {
				case PolicyDrop:
					dropped := state.DropAmbiguous()
					degraded = true
					o.logger.Warnw("ambiguous resolutions dropped",
						"run_id", state.RunID,
						"stage", spec.ID,
						"dropped", dropped)
					o.event(state.RunID, "ambiguous_dropped", spec.ID, fmt.Sprintf("dropped=%d", dropped))
				case PolicyHalt:
					aborted = true
					failStage = spec.ID
					o.logger.Warnw("run halted on ambiguous resolution",
						"run_id", state.RunID,
						"stage", spec.ID)
					o.event(state.RunID, "ambiguous_halt", spec.ID, "manual disambiguation required")
				}

			case stage.OutcomeFatal:
				if spec.Optional {
					degraded = true
					o.logger.Warnw("optional stage failed, continuing degraded",
						"run_id", state.RunID,
						"stage", spec.ID,
						"error", res.Err)
					o.event(state.RunID, "optional_stage_failed", spec.ID, errDetail(res.Err))
					continue
				}
				aborted = true
				failStage = spec.ID
				cancel()
				o.event(state.RunID, "aborted", spec.ID, errDetail(res.Err))
			}
		}
	}

	if aborted {
		for _, spec := range wf.Stages {
			if _, ran := done[spec.ID]; !ran {
				o.logger.Infow("stage skipped",
					"run_id", state.RunID,
					"stage", spec.ID,
					"after", failStage)
				o.event(state.RunID, "skipped", spec.ID, "upstream failure")
			}
		}
		state.Status = pipeline.StatusFailed
	} else if degraded {
		state.Status = pipeline.StatusPartiallyFailed
	} else {
		state.Status = pipeline.StatusSucceeded
	}

	o.finish(state)
	return state, nil
}

// readyStages returns the specs whose dependencies have all reached a
// terminal outcome. A failed optional dependency still satisfies its
// dependents — they run with degraded input.
func (o *Orchestrator) readyStages(wf Workflow, done map[string]stage.Outcome) []stage.Spec {
	var wave []stage.Spec
	for _, spec := range wf.Stages {
		if _, ran := done[spec.ID]; ran {
			continue
		}
		ready := true
		for _, dep := range spec.DependsOn {
			if _, ok := done[dep]; !ok {
				ready = false
				break
			}
		}
		if ready {
			wave = append(wave, spec)
		}
	}
	return wave
}

// recordTrace appends the stage trace to run history, the trace DB, and the
// log.
func (o *Orchestrator) recordTrace(state *pipeline.State, res *stage.Result) {
	entry := pipeline.StageTrace{
		Stage:      res.Stage,
		Outcome:    string(res.Outcome),
		Attempts:   res.Attempts,
		DurationMs: res.Duration.Milliseconds(),
		Error:      errDetail(res.Err),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	state.History = append(state.History, entry)

	if o.trace != nil {
		_ = o.trace.LogStageRun(state.RunID, res.Stage, string(res.Outcome), res.Attempts, res.Duration.Milliseconds(), entry.Error)
	}
	o.logger.Infow("stage finished",
		"run_id", state.RunID,
		"stage", res.Stage,
		"outcome", res.Outcome,
		"attempts", res.Attempts,
		"duration", res.Duration)
}

// event logs a run-level event to the trace DB, best-effort.
func (o *Orchestrator) event(runID, event, stageID, detail string) {
	if o.trace == nil {
		return
	}
	_ = o.trace.LogRunEvent(runID, event, stageID, detail)
}

// finish persists the terminal state.
func (o *Orchestrator) finish(state *pipeline.State) {
	if o.store != nil {
		if err := o.store.Save(state); err != nil {
			o.logger.Errorw("save run state", "run_id", state.RunID, "error", err)
		}
	}
	if o.trace != nil {
		_ = o.trace.UpdateRunStatus(state.RunID, string(state.Status))
	}
	o.logger.Infow("run finished",
		"run_id", state.RunID,
		"status", state.Status,
		"entities", len(state.Entities),
		"stages_run", len(state.History))
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
