// Package pool provides a bounded admission pool for isolated executions.
package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrThrottled is returned when no execution slot becomes available within
// the admission timeout. Callers surface it as an explicit infrastructure
// failure rather than waiting indefinitely.
var ErrThrottled = errors.New("execution pool exhausted")

// ExecPool bounds the number of concurrently running isolated executions.
// The pool is the only resource contended across requests; everything else
// in the pipeline is per-request.
type ExecPool struct {
	sem            *semaphore.Weighted
	capacity       int64
	acquireTimeout time.Duration

	// Metrics
	inUse     atomic.Int64
	acquired  atomic.Int64
	throttled atomic.Int64
}

// NewExecPool creates a pool with the given slot capacity. acquireTimeout
// bounds how long an admission waits for a free slot; zero means the caller's
// context alone bounds the wait.
func NewExecPool(capacity int, acquireTimeout time.Duration) *ExecPool {
	if capacity <= 0 {
		capacity = 1
	}
	return &ExecPool{
		sem:            semaphore.NewWeighted(int64(capacity)),
		capacity:       int64(capacity),
		acquireTimeout: acquireTimeout,
	}
}

// Acquire blocks until a slot is free, the admission timeout elapses, or the
// caller's context is cancelled. A timed-out admission returns ErrThrottled;
// caller cancellation returns the context error unchanged.
func (p *ExecPool) Acquire(ctx context.Context) error {
	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		p.throttled.Add(1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrThrottled
	}

	p.acquired.Add(1)
	p.inUse.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking.
func (p *ExecPool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.acquired.Add(1)
	p.inUse.Add(1)
	return true
}

// Release returns a slot to the pool.
func (p *ExecPool) Release() {
	p.inUse.Add(-1)
	p.sem.Release(1)
}

// Stats contains pool counters.
type Stats struct {
	Capacity  int64 `json:"capacity"`
	InUse     int64 `json:"in_use"`
	Acquired  int64 `json:"acquired"`
	Throttled int64 `json:"throttled"`
}

// Stats returns a snapshot of the pool counters.
func (p *ExecPool) Stats() Stats {
	return Stats{
		Capacity:  p.capacity,
		InUse:     p.inUse.Load(),
		Acquired:  p.acquired.Load(),
		Throttled: p.throttled.Load(),
	}
}
