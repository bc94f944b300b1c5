// Package pool offloads GARCH refits to a bounded worker pool guarded by
// a circuit breaker: refits run on a worker pool and their results are
// installed atomically, and any analysis exceeding its deadline yields a
// null-forecast and marks the per-slot GARCH cache invalid. Built around
// github.com/sony/gobreaker the way external calls elsewhere are
// wrapped, with explicit bounded concurrency instead of an unbounded
// goroutine-per-job fan-out.
package pool

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Job is a unit of offloaded numerics work returning an arbitrary result.
type Job func() (interface{}, error)

// Pool runs Jobs on a fixed number of goroutines, enforcing a deadline
// per job and tripping a circuit breaker after repeated failures so a
// wedged solver doesn't keep consuming workers.
type Pool struct {
	jobs chan jobRequest
	breaker *gobreaker.CircuitBreaker
}

type jobRequest struct {
	job Job
	result chan jobResult
}

type jobResult struct {
	value interface{}
	err error
}

// New creates a Pool with the given worker count. deadline bounds every
// individual job; breakerTimeout is how long the breaker stays open
// after tripping.
func New(workers int, deadline time.Duration, breakerTimeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan jobRequest, workers*4),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "numerics-garch",
		MaxRequests: 1,
		Timeout: breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	for i := 0; i < workers; i++ {
		go p.worker(deadline)
	}
	return p
}

func (p *Pool) worker(deadline time.Duration) {
	for req := range p.jobs {
		done := make(chan jobResult, 1)
		go func() {
			v, err := req.job()
			done <- jobResult{value: v, err: err}
		}()

		select {
		case r := <-done:
			req.result <- r
		case <-time.After(deadline):
			req.result <- jobResult{err: errors.New("numerics job exceeded deadline")}
		}
	}
}

// ErrBreakerOpen is returned when the circuit breaker has tripped and the
// caller should fall back to the ATR-based path immediately without
// touching the pool.
var ErrBreakerOpen = gobreaker.ErrOpenState

// Submit runs job through the breaker and worker pool, returning its
// result or an error (including ErrBreakerOpen when tripped, and the
// deadline-exceeded error from the worker).
func (p *Pool) Submit(ctx context.Context, job Job) (interface{}, error) {
	v, err := p.breaker.Execute(func() (interface{}, error) {
		req := jobRequest{job: job, result: make(chan jobResult, 1)}
		select {
		case p.jobs <- req:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		select {
		case r := <-req.result:
			return r.value, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	return v, err
}

// State reports the breaker's current state for observability.
func (p *Pool) State() gobreaker.State {
	return p.breaker.State()
}
