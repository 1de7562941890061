// Package dispatch serializes outbound Telegram operations under a fixed
// requests-per-second ceiling shared across all concurrent sessions.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Op is an opaque unit of outbound work: send a question, send a message,
// stop a poll. Retry policy lives at the call site, not here.
type Op func(ctx context.Context) error

type job struct {
	ctx  context.Context
	op   Op
	done chan error
}

// Dispatcher admits queued operations in FIFO order by submission time,
// spaced at least 1/N seconds apart, with at most N in flight at once.
// Ordering is system-wide FIFO, not per-user: one session's backlog can
// delay another's dispatch.
type Dispatcher struct {
	limiter *rate.Limiter
	queue   chan job
	slots   chan struct{}
	logger  *zap.Logger
}

// New creates a dispatcher capped at opsPerSecond with a bounded FIFO queue
// of queueSize pending operations.
func New(opsPerSecond, queueSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		limiter: rate.NewLimiter(rate.Limit(opsPerSecond), 1),
		queue:   make(chan job, queueSize),
		slots:   make(chan struct{}, opsPerSecond),
		logger:  logger,
	}
}

// Run drains the queue until ctx is cancelled. Admission happens on this
// single goroutine so FIFO order is preserved; execution is handed off once
// a concurrency slot is held and the rate limiter has released the op.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started")
	defer d.logger.Info("dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			d.drain(ctx.Err())
			return
		case j := <-d.queue:
			d.admit(ctx, j)
		}
	}
}

func (d *Dispatcher) admit(ctx context.Context, j job) {
	// Spreads bursts evenly instead of admitting N at once then stalling.
	if err := d.limiter.Wait(ctx); err != nil {
		j.done <- err
		return
	}

	select {
	case d.slots <- struct{}{}:
	case <-ctx.Done():
		j.done <- ctx.Err()
		return
	}

	go func() {
		defer func() { <-d.slots }()
		j.done <- j.op(j.ctx)
	}()
}

// drain fails all queued operations after shutdown.
func (d *Dispatcher) drain(err error) {
	for {
		select {
		case j := <-d.queue:
			j.done <- err
		default:
			return
		}
	}
}

// Submit enqueues an operation and blocks until it has executed, returning
// the operation's error. Submission blocks while the queue is full; ctx
// cancellation abandons the wait.
func (d *Dispatcher) Submit(ctx context.Context, op Op) error {
	j := job{ctx: ctx, op: op, done: make(chan error, 1)}

	select {
	case d.queue <- j:
	case <-ctx.Done():
		return fmt.Errorf("dispatch queue: %w", ctx.Err())
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("dispatch wait: %w", ctx.Err())
	}
}
