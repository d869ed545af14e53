// Package app wires the classification pipeline: predicate filtering,
// host-galaxy cross-matching, enrichment and asynchronous report
// dispatch behind one Service.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/astrolab/knwatch/internal/adapters/mq/queue"
	"github.com/astrolab/knwatch/internal/adapters/mq/worker"
	"github.com/astrolab/knwatch/internal/domain/crossmatch"
	"github.com/astrolab/knwatch/internal/domain/enrich"
	"github.com/astrolab/knwatch/internal/domain/filter"
	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/photometry"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

const defaultQueueSize = 10000

// Service classifies alert batches and dispatches reports for the
// accepted candidates. Dispatch is asynchronous and can never change a
// verdict.
type Service struct {
	mu sync.RWMutex

	chain    *filter.Chain
	matcher  *crossmatch.Matcher
	enricher *enrich.Enricher
	router   worker.Dispatcher

	dispatchQueue *queue.InMemoryQueue
	pool          *worker.Pool

	queueSize   int
	workerCount int

	started bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithChain sets the predicate chain selecting candidates.
func WithChain(c *filter.Chain) Option {
	return func(s *Service) {
		if c != nil {
			s.chain = c
		}
	}
}

// WithMatcher sets the host-galaxy matcher. A chain that requires a
// cross-match rejects every alert without one.
func WithMatcher(m *crossmatch.Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithEnricher sets the candidate enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(s *Service) {
		if e != nil {
			s.enricher = e
		}
	}
}

// WithRouter sets the notification dispatcher. Without one the service
// classifies only.
func WithRouter(d worker.Dispatcher) Option {
	return func(s *Service) {
		s.router = d
	}
}

// WithQueueSize bounds the dispatch queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWorkerCount sets the number of dispatch workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		chain:       filter.New(filter.EarlyKilonova()),
		enricher:    enrich.New(),
		queueSize:   defaultQueueSize,
		workerCount: runtime.NumCPU() * 2,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Get().Named("service")
	}
	return s
}

// Start launches the dispatch queue and worker pool. Without a router
// the service stays in classification-only mode and Start is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.router != nil {
		s.dispatchQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		s.pool = worker.NewPool(s.workerCount, s.dispatchQueue, s.router)
		s.pool.Start(ctx)
	}

	s.started = true
	s.log.Info(ctx, "classification service started",
		logger.String("ruleset", s.chain.Name()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains the dispatch queue and stops the workers.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.log.Info(ctx, "classification service stopped")
}

// Process classifies every alert in the batch and returns the aligned
// verdict vector. Accepted candidates are enriched and queued for
// dispatch; a full queue drops the report and keeps the verdict.
func (s *Service) Process(ctx context.Context, b *model.Batch) ([]bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBatchLatency(float64(time.Since(start).Milliseconds()))
		metrics.RecordBatchProcessed()
	}()

	if err := b.Validate(); err != nil {
		metrics.RecordMalformedBatch()
		return nil, fmt.Errorf("rejecting batch: %w", err)
	}
	metrics.RecordAlertsProcessed(b.Len())

	ruleset := s.chain.Name()
	verdicts := s.chain.Evaluate(ctx, b)

	for i, pass := range verdicts {
		if !pass {
			metrics.RecordFilterRejected(ruleset)
			continue
		}

		var match *model.MatchResult
		switch {
		case s.chain.RequiresCrossMatch():
			m, ok := s.matchHost(ctx, b, i)
			if !ok {
				verdicts[i] = false
				metrics.RecordCrossmatchRejected()
				continue
			}
			metrics.RecordCrossmatchAccepted()
			match = m
		case s.chain.AttachesHost():
			// Host enrichment only; the verdict stands either way.
			if m, ok := s.matchHost(ctx, b, i); ok {
				metrics.RecordCrossmatchAccepted()
				match = m
			}
		}

		metrics.RecordCandidateAccepted(ruleset)
		c := s.enricher.Enrich(b, i, match, ruleset)
		s.dispatch(ctx, &c)
	}

	return verdicts, nil
}

// matchHost runs the tight cross-match for alert i. A missing matcher
// means no catalog is loaded, which rejects like an empty sky region.
func (s *Service) matchHost(ctx context.Context, b *model.Batch, i int) (*model.MatchResult, bool) {
	if s.matcher == nil {
		return nil, false
	}

	mag, _ := photometry.DCMag(photometry.Measurement{
		Fid:       b.Fid[i],
		MagPSF:    b.MagPSF[i],
		SigmaPSF:  b.SigmaPSF[i],
		MagNR:     b.MagNR[i],
		SigmaNR:   b.SigmaNR[i],
		MagZPSci:  b.MagZPSci[i],
		IsDiffPos: b.IsDiffPos[i],
	})

	m, ok := s.matcher.Match(ctx, mag, b.RA[i], b.Dec[i])
	if !ok {
		return nil, false
	}
	return &m, true
}

// dispatch queues the candidate's report when dispatch is running.
func (s *Service) dispatch(ctx context.Context, c *model.Candidate) {
	s.mu.RLock()
	q := s.dispatchQueue
	s.mu.RUnlock()

	if q == nil {
		return
	}

	if !q.Enqueue(ctx, c) {
		s.log.Warn(ctx, "dispatch queue full, report dropped",
			logger.String("objectId", c.ObjectID),
			logger.String("ruleset", c.RuleSet),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"ruleset":     s.chain.Name(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.dispatchQueue != nil {
		stats["queueLength"] = s.dispatchQueue.Len(context.Background())
	}
	return stats
}
