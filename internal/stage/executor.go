// Package stage executes one unit of pipeline work under an explicit retry,
// backoff, and timeout policy. The executor never touches shared run state:
// it takes a scoped view in and hands a delta back.
package stage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/record"
)

// Spec is the scheduling and policy metadata for one stage of a workflow.
type Spec struct {
	ID        string
	DependsOn []string

	// Optional stages degrade the run on fatal failure instead of aborting
	// it.
	Optional bool

	// NonIdempotent stages (calendar writes, bet records) run at most once
	// per run and are never retried, whatever the error class.
	NonIdempotent bool

	// Timeout bounds each attempt. Zero means no per-attempt bound beyond
	// the run context.
	Timeout time.Duration

	// MaxRetries is the retry cap for retryable failures; a stage is
	// attempted at most MaxRetries+1 times.
	MaxRetries int
}

// Stage is the uniform capability interface every pipeline stage
// implements, whether it wraps an adapter, the resolver, or an analyzer.
type Stage interface {
	ID() string
	Execute(ctx context.Context, view *pipeline.View) (*pipeline.Delta, error)
}

// Outcome classifies a stage result for the orchestrator.
type Outcome string

const (
	OutcomeOk        Outcome = "ok"
	OutcomeRetryable Outcome = "retryable"
	OutcomeFatal     Outcome = "fatal"
	// OutcomeAmbiguous means the stage completed but produced ambiguous
	// resolutions that need a policy decision. It is not a failure.
	OutcomeAmbiguous Outcome = "ambiguous"
)

// Result captures the outcome of running one stage, including elapsed-time
// metadata for the trace.
type Result struct {
	Stage    string
	Outcome  Outcome
	Delta    *pipeline.Delta
	Err      error
	Attempts int
	Duration time.Duration
}

// Executor runs stages with retry/backoff. It is stateless across runs and
// safe for concurrent use.
type Executor struct {
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.SugaredLogger
}

// NewExecutor creates an Executor with 1s exponential backoff.
func NewExecutor(logger *zap.SugaredLogger) *Executor {
	return &Executor{
		backoffBase: time.Second,
		sleep:       sleepCtx,
		logger:      logger,
	}
}

// SetBackoffBase overrides the backoff base (for testing).
func (e *Executor) SetBackoffBase(d time.Duration) {
	e.backoffBase = d
}

// SetSleep overrides the backoff sleeper (for testing).
func (e *Executor) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	e.sleep = fn
}

// Run executes the stage under spec's policy and returns a terminal Result.
// Retryable failures are retried with exponential backoff up to the cap,
// then demoted to fatal with full attempt context. Run never returns a
// retryable outcome to the caller.
func (e *Executor) Run(ctx context.Context, spec Spec, st Stage, view *pipeline.View) *Result {
	start := time.Now()
	result := &Result{Stage: spec.ID}

	maxAttempts := spec.MaxRetries + 1
	if spec.NonIdempotent {
		// A failed side effect may or may not have landed externally.
		// Retrying risks duplicate calendar entries or bet records.
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		delta, err := e.runAttempt(ctx, spec, st, view)
		if err == nil {
			result.Delta = delta
			result.Outcome = classifyDelta(delta)
			result.Duration = time.Since(start)
			return result
		}
		lastErr = err

		if spec.NonIdempotent || !adapter.Retryable(err) {
			e.logger.Warnw("stage failed",
				"stage", spec.ID,
				"attempt", attempt,
				"error", err)
			break
		}
		if attempt == maxAttempts {
			e.logger.Warnw("stage retries exhausted",
				"stage", spec.ID,
				"attempts", attempt,
				"error", err)
			break
		}

		backoff := e.backoffBase * time.Duration(1<<(attempt-1))
		e.logger.Debugw("stage attempt failed, backing off",
			"stage", spec.ID,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
		if serr := e.sleep(ctx, backoff); serr != nil {
			// Run context canceled while waiting; stop promptly.
			lastErr = serr
			break
		}
	}

	result.Outcome = OutcomeFatal
	result.Err = lastErr
	result.Duration = time.Since(start)
	return result
}

// runAttempt executes one attempt under the per-attempt timeout.
func (e *Executor) runAttempt(ctx context.Context, spec Spec, st Stage, view *pipeline.View) (*pipeline.Delta, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}
	return st.Execute(ctx, view)
}

// classifyDelta inspects a successful delta: ambiguous resolutions are a
// distinct outcome the orchestrator must route through policy, never a
// silent success.
func classifyDelta(d *pipeline.Delta) Outcome {
	if d == nil {
		return OutcomeOk
	}
	for _, ent := range d.Entities {
		if ent.Status == record.StatusAmbiguous {
			return OutcomeAmbiguous
		}
	}
	return OutcomeOk
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
