// Package adapter defines the uniform boundary between the pipeline and
// external data providers. Adapters return typed records or a typed failure
// and perform no orchestration of their own.
package adapter

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/lucaskeller/crossfeed/internal/record"
)

// Query is the read-only, idempotent request handed to an adapter. Adapters
// honor ctx cancellation and deadlines; the executor bounds every call with
// a per-attempt timeout.
type Query struct {
	Text   string            `json:"text,omitempty"`
	From   time.Time         `json:"from,omitempty"`
	To     time.Time         `json:"to,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Adapter fetches records from one external source.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]record.Record, error)
}

// Committer writes a payload to an external system. Commits are
// non-idempotent: the executor runs them at most once per pipeline run and
// never retries them.
type Committer interface {
	Name() string
	Commit(ctx context.Context, payload any) error
}

// Limited wraps an Adapter with a client-side rate limiter. Waiting counts
// against the caller's ctx deadline, so a starved limiter surfaces as a
// timeout rather than a silent stall.
type Limited struct {
	inner   Adapter
	limiter *rate.Limiter
}

// Limit wraps a with a limiter allowing n calls per interval.
func Limit(a Adapter, n int, interval time.Duration) *Limited {
	return &Limited{
		inner:   a,
		limiter: rate.NewLimiter(rate.Every(interval/time.Duration(n)), n),
	}
}

func (l *Limited) Name() string { return l.inner.Name() }

func (l *Limited) Fetch(ctx context.Context, q Query) ([]record.Record, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTimeout, Op: "rate-wait", Source: l.inner.Name(), Err: err}
	}
	return l.inner.Fetch(ctx, q)
}

// Func adapts a plain function into an Adapter; used heavily in tests and
// for in-process sources.
type Func struct {
	ID string
	Fn func(ctx context.Context, q Query) ([]record.Record, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Fetch(ctx context.Context, q Query) ([]record.Record, error) {
	return f.Fn(ctx, q)
}
