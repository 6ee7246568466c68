// Package ratelimit enforces fixed-window request budgets keyed by
// action and caller identity. Counters live in a pluggable store so a
// single-node deployment can run on memory while clustered deployments
// share windows through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/requestcontext"
)

// CounterStore increments the counter behind key and reports the value
// after the increment. Implementations expire counters themselves once
// the window has passed.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Result reports the outcome of a single rate-limit check.
type Result struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	RetryAfter time.Duration
}

type Limiter struct {
	store   CounterStore
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Limiter) { l.metrics = m }
}

func NewLimiter(store CounterStore, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndIncrement counts the attempt against the current window and
// reports whether it fits under maxAttempts. The attempt is counted
// before the comparison and is never given back, so a denied caller
// still consumed a slot.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key, action string, maxAttempts int64, window time.Duration) (*Result, error) {
	if maxAttempts <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "maxAttempts must be positive")
	}
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "window must be positive")
	}

	now := requestcontext.Now(ctx)
	bucket := bucketKey(key, action, now, window)

	count, err := l.store.Incr(ctx, bucket, window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "incrementing rate-limit counter")
	}

	res := &Result{
		Allowed: count <= maxAttempts,
		Limit:   maxAttempts,
	}
	if remaining := maxAttempts - count; remaining > 0 {
		res.Remaining = remaining
	}
	if !res.Allowed {
		res.RetryAfter = windowEnd(now, window).Sub(now)
		l.metrics.RecordDenied(action)
		l.logger.DebugContext(ctx, "rate limit exceeded",
			"action", action,
			"count", count,
			"limit", maxAttempts,
		)
	} else {
		l.metrics.RecordAllowed(action)
	}
	return res, nil
}

// bucketKey pins the counter to the fixed window containing now. All
// attempts inside the same window share one counter; the first attempt
// after the boundary lands in a fresh one.
func bucketKey(key, action string, now time.Time, window time.Duration) string {
	// Nanosecond arithmetic keeps sub-second windows valid.
	return fmt.Sprintf("%s:%s:%d", action, key, now.UnixNano()/int64(window))
}

func windowEnd(now time.Time, window time.Duration) time.Time {
	next := (now.UnixNano()/int64(window) + 1) * int64(window)
	return time.Unix(0, next)
}
