// Package notify routes enriched candidates to the configured outbound
// channels. Channel gating failures and missing endpoints are local
// diagnostics only; nothing in this package can affect a verdict.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

// Skip reasons recorded on the notifications_skipped metric.
const (
	reasonUnconfigured = "unconfigured"
	reasonGate         = "gate"
	reasonDuplicate    = "duplicate"
)

// Gate decides whether a candidate goes out on a channel. The returned
// reason is recorded when the gate closes.
type Gate func(c *model.Candidate, now time.Time) (ok bool, reason string)

// Channel is one configured outbound destination.
type Channel struct {
	Name     string
	Endpoint string // empty means not configured
	Username string // sender label carried in the payload
	Gate     Gate   // nil means always open
}

// Router evaluates every channel independently for each candidate.
type Router struct {
	channels []Channel
	sender   Sender
	clock    Clock
	guard    *seenGuard
	log      logger.Logger
}

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithClock injects the clock used by time-based gates.
func WithClock(c Clock) Option {
	return func(r *Router) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithGuardSize bounds the notified-object guard. Zero disables the
// guard entirely, restoring notify-on-every-repeat behavior.
func WithGuardSize(n int) Option {
	return func(r *Router) {
		r.guard = newSeenGuard(n)
	}
}

// WithLogger sets a custom logger for the router.
func WithLogger(log logger.Logger) Option {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// New creates a Router dispatching through sender.
func New(sender Sender, channels []Channel, opts ...Option) *Router {
	r := &Router{
		channels: channels,
		sender:   sender,
		clock:    SystemClock,
		guard:    newSeenGuard(defaultGuardSize),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.log == nil {
		r.log = logger.Get().Named("notify")
	}
	return r
}

// Notify sends the candidate's report to every channel whose gate is
// open. Failures are logged and counted, never returned: delivery is
// best-effort and the classification verdict is already final.
func (r *Router) Notify(ctx context.Context, c *model.Candidate) {
	if r.guard.seenAndRecord(c.ObjectID + "/" + c.RuleSet) {
		for _, ch := range r.channels {
			metrics.RecordNotificationSkipped(ch.Name, reasonDuplicate)
		}
		r.log.Debug(ctx, "already notified for object; skipping",
			logger.String("objectId", c.ObjectID))
		return
	}

	now := r.clock.Now()
	for _, ch := range r.channels {
		if ch.Endpoint == "" {
			metrics.RecordNotificationSkipped(ch.Name, reasonUnconfigured)
			r.log.Warn(ctx, "channel endpoint not configured; report not sent",
				logger.String("channel", ch.Name),
				logger.String("objectId", c.ObjectID))
			continue
		}

		if ch.Gate != nil {
			if ok, reason := ch.Gate(c, now); !ok {
				metrics.RecordNotificationSkipped(ch.Name, reasonGate)
				r.log.Debug(ctx, "channel gate closed",
					logger.String("channel", ch.Name),
					logger.String("reason", reason),
					logger.String("objectId", c.ObjectID))
				continue
			}
		}

		deliveryID := uuid.New().String()
		start := time.Now()
		err := r.sender.Send(ctx, ch.Endpoint, BuildReport(c, ch.Username))
		metrics.RecordWebhookLatency(float64(time.Since(start).Milliseconds()))

		if err != nil {
			metrics.RecordNotificationFailed(ch.Name)
			r.log.Error(ctx, "report delivery failed",
				logger.String("channel", ch.Name),
				logger.String("objectId", c.ObjectID),
				logger.String("delivery", deliveryID),
				logger.Error(err))
			continue
		}

		metrics.RecordNotificationSent(ch.Name)
		r.log.Info(ctx, "report sent",
			logger.String("channel", ch.Name),
			logger.String("objectId", c.ObjectID),
			logger.String("delivery", deliveryID))
	}
}
