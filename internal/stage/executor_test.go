package stage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucaskeller/crossfeed/internal/adapter"
	"github.com/lucaskeller/crossfeed/internal/logging"
	"github.com/lucaskeller/crossfeed/internal/pipeline"
	"github.com/lucaskeller/crossfeed/internal/record"
)

func newTestExecutor() *Executor {
	e := NewExecutor(logging.Nop())
	e.SetSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return e
}

// countingStage fails with err until the remaining counter hits zero, then
// succeeds with delta.
type countingStage struct {
	id        string
	calls     int
	failUntil int
	err       error
	delta     *pipeline.Delta
}

func (s *countingStage) ID() string { return s.id }

func (s *countingStage) Execute(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return nil, s.err
	}
	return s.delta, nil
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{id: "fetch", delta: &pipeline.Delta{Output: "payload"}}

	res := e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 3}, st, &pipeline.View{})
	if res.Outcome != OutcomeOk {
		t.Fatalf("Outcome = %q, want ok", res.Outcome)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if st.calls != 1 {
		t.Errorf("stage called %d times, want 1", st.calls)
	}
	if res.Delta.Output != "payload" {
		t.Errorf("Delta.Output = %v", res.Delta.Output)
	}
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{
		id:        "fetch",
		failUntil: 2,
		err:       &adapter.Error{Kind: adapter.KindUnavailable, Op: "fetch", Source: "odds"},
		delta:     &pipeline.Delta{},
	}

	res := e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 3}, st, &pipeline.View{})
	if res.Outcome != OutcomeOk {
		t.Fatalf("Outcome = %q, want ok, err %v", res.Outcome, res.Err)
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestRunExhaustsRetriesAtCapPlusOne(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{
		id:        "fetch",
		failUntil: 100,
		err:       &adapter.Error{Kind: adapter.KindTimeout, Op: "fetch", Source: "odds"},
	}

	res := e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 3}, st, &pipeline.View{})
	if res.Outcome != OutcomeFatal {
		t.Fatalf("Outcome = %q, want fatal", res.Outcome)
	}
	if st.calls != 4 {
		t.Errorf("stage called %d times, want exactly MaxRetries+1 = 4", st.calls)
	}
	if res.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", res.Attempts)
	}
	if res.Err == nil {
		t.Error("Result should carry the last error")
	}
}

func TestRunDoesNotRetryFatalErrors(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{
		id:        "fetch",
		failUntil: 100,
		err:       &adapter.Error{Kind: adapter.KindUnauthorized, Op: "fetch", Source: "odds"},
	}

	res := e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 5}, st, &pipeline.View{})
	if res.Outcome != OutcomeFatal {
		t.Fatalf("Outcome = %q, want fatal", res.Outcome)
	}
	if st.calls != 1 {
		t.Errorf("stage called %d times, want 1 (bad credentials are not transient)", st.calls)
	}
}

func TestRunNonIdempotentNeverRetries(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{
		id:        "publish",
		failUntil: 100,
		err:       &adapter.Error{Kind: adapter.KindUnavailable, Op: "commit", Source: "gcal"},
	}

	res := e.Run(context.Background(), Spec{ID: "publish", NonIdempotent: true, MaxRetries: 5}, st, &pipeline.View{})
	if res.Outcome != OutcomeFatal {
		t.Fatalf("Outcome = %q, want fatal", res.Outcome)
	}
	if st.calls != 1 {
		t.Errorf("stage called %d times, want exactly 1 even for a retryable error", st.calls)
	}
}

func TestRunPerAttemptTimeout(t *testing.T) {
	e := newTestExecutor()
	slow := &Func{StageID: "fetch", Fn: func(ctx context.Context, v *pipeline.View) (*pipeline.Delta, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	res := e.Run(context.Background(), Spec{ID: "fetch", Timeout: 5 * time.Millisecond, MaxRetries: 1}, slow, &pipeline.View{})
	if res.Outcome != OutcomeFatal {
		t.Fatalf("Outcome = %q, want fatal after exhausting retries", res.Outcome)
	}
	// DeadlineExceeded is retryable, so both attempts run before exhaustion.
	if res.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", res.Attempts)
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want deadline exceeded", res.Err)
	}
}

func TestRunBackoffDoubles(t *testing.T) {
	e := NewExecutor(logging.Nop())
	e.SetBackoffBase(10 * time.Millisecond)
	var waits []time.Duration
	e.SetSleep(func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})

	st := &countingStage{
		id:        "fetch",
		failUntil: 100,
		err:       &adapter.Error{Kind: adapter.KindRateLimited, Op: "fetch", Source: "odds"},
	}
	e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 3}, st, &pipeline.View{})

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("got %d backoff sleeps, want %d", len(waits), len(want))
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRunCanceledDuringBackoff(t *testing.T) {
	e := NewExecutor(logging.Nop())
	e.SetSleep(func(ctx context.Context, d time.Duration) error { return context.Canceled })

	st := &countingStage{
		id:        "fetch",
		failUntil: 100,
		err:       &adapter.Error{Kind: adapter.KindUnavailable, Op: "fetch", Source: "odds"},
	}
	res := e.Run(context.Background(), Spec{ID: "fetch", MaxRetries: 5}, st, &pipeline.View{})

	if res.Outcome != OutcomeFatal {
		t.Fatalf("Outcome = %q, want fatal", res.Outcome)
	}
	if st.calls != 1 {
		t.Errorf("stage called %d times, want 1 (canceled during first backoff)", st.calls)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want canceled", res.Err)
	}
}

func TestRunClassifiesAmbiguousDelta(t *testing.T) {
	e := newTestExecutor()
	st := &countingStage{id: "match", delta: &pipeline.Delta{Entities: []record.ResolvedEntity{
		{CanonicalName: "a", Status: record.StatusMatched},
		{CanonicalName: "b", Status: record.StatusAmbiguous},
	}}}

	res := e.Run(context.Background(), Spec{ID: "match"}, st, &pipeline.View{})
	if res.Outcome != OutcomeAmbiguous {
		t.Fatalf("Outcome = %q, want ambiguous", res.Outcome)
	}
	if res.Err != nil {
		t.Errorf("ambiguous is not a failure, got err %v", res.Err)
	}
}
