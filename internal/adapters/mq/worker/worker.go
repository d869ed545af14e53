// Package worker drains the dispatch queue and hands each enriched
// candidate to the notification router.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/astrolab/knwatch/internal/adapters/mq/queue"
	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Dispatcher delivers one candidate's reports. Delivery is best-effort
// so the method returns nothing.
type Dispatcher interface {
	Notify(ctx context.Context, c *model.Candidate)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker consumes dispatch jobs until stopped.
type Worker struct {
	queue      Queue
	dispatcher Dispatcher
	name       string

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker's name used in log lines.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// New creates a worker draining q into d.
func New(q Queue, d Dispatcher, opts ...Option) *Worker {
	w := &Worker{
		queue:      q,
		dispatcher: d,
		name:       "dispatch-worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.log == nil {
		w.log = logger.Get().Named(w.name)
	}
	return w
}

// Run consumes jobs until ctx is canceled, Shutdown is called, or the
// queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.dispatcher.Notify(ctx, j)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages a fixed set of dispatch workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue

	log logger.Logger
}

// NewPool creates a pool of n workers. A non-positive n falls back to
// a CPU-proportional default.
func NewPool(n int, q Queue, d Dispatcher) *Pool {
	if n < 1 {
		n = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*Worker, n),
		queue:   q,
		log:     logger.Get().Named("dispatch-pool"),
	}

	for i := range p.workers {
		p.workers[i] = New(q, d, WithName("dispatch-"+strconv.Itoa(i)))
	}

	metrics.SetWorkerCount(n)
	return p
}

// Start launches every worker in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for every worker to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.log.Error(ctx, "error closing dispatch queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.log.Warn(ctx, "worker shutdown timed out",
				logger.Int("worker", i))
		}
	}

	metrics.SetWorkerCount(0)
	return nil
}
