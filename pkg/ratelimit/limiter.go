/*
Package ratelimit enforces per-identity request quotas over a fixed
trailing window and blocks anonymous IPs that keep exceeding them.

Each identity has one request log holding the timestamps and operation
types of its recent requests. A check prunes entries older than the
window, counts the ones of the requested type and compares the count with
the ceiling for the caller's user type. Anonymous callers that are denied
accumulate violations; enough of them block the hashed IP for a day.
Storage failures fail open unless configured otherwise.
*/
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/eyesofazrael/azrael/pkg/apperr"
	"github.com/eyesofazrael/azrael/pkg/config"
	"github.com/eyesofazrael/azrael/pkg/metrics"
	"github.com/eyesofazrael/azrael/pkg/models"
)

// DefaultOperation is the limits entry used for unknown operation types.
const DefaultOperation = "default"

// Limiter checks and records requests.
type Limiter struct {
	requests RequestRepository
	blocks   BlockRepository
	events   EventLogger
	cfg      config.RateLimitConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) { lim.logger = l }
}

// WithMetrics records decisions in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(lim *Limiter) { lim.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(lim *Limiter) { lim.now = now }
}

// New creates a Limiter.
func New(requests RequestRepository, blocks BlockRepository, events EventLogger, cfg config.RateLimitConfig, opts ...Option) *Limiter {
	l := &Limiter{
		requests: requests,
		blocks:   blocks,
		events:   events,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LimitFor returns the ceiling for op and userType.
func (l *Limiter) LimitFor(op string, userType models.UserType) int {
	lim, ok := l.cfg.Limits[op]
	if !ok {
		lim = l.cfg.Limits[DefaultOperation]
	}
	return lim.For(userType)
}

// Check counts a request of type op against id's quota. A denied request
// is reported with Allowed false and a nil error; a blocked anonymous IP
// is reported as a resource-exhausted error.
func (l *Limiter) Check(ctx context.Context, id Identity, op string) (models.RateLimitResult, error) {
	if op == "" {
		op = DefaultOperation
	}
	window := l.cfg.Window
	res := models.RateLimitResult{
		Window:   int(window / time.Second),
		UserType: id.Type,
	}

	if id.Type == models.UserAdmin {
		res.Allowed = true
		res.Limit = models.Unlimited
		res.Remaining = models.Unlimited
		l.metrics.RateLimitDecision("admin")
		return res, nil
	}

	if id.Type == models.UserAnonymous && id.IPHash != "" && l.IsIPBlocked(ctx, id.IPHash) {
		l.metrics.RateLimitDecision("blocked")
		return models.RateLimitResult{}, apperr.ResourceExhausted("IP address is temporarily blocked")
	}

	limit := l.LimitFor(op, id.Type)
	res.Limit = limit

	now := l.now()
	attempt := models.RequestAttempt{
		Identifier: id.Key,
		Type:       op,
		Now:        models.Millis(now),
		Cutoff:     models.Millis(now.Add(-window)),
		Limit:      limit,
	}
	if id.Type == models.UserAnonymous && id.IPHash != "" {
		attempt.MaxViolations = l.cfg.MaxViolations
	}

	out, err := l.requests.Record(ctx, attempt)
	if err != nil {
		if !l.cfg.FailOpen {
			return models.RateLimitResult{}, apperr.Wrap(err, apperr.CodeInternal, "rate limit unavailable")
		}
		l.logger.Warn("rate limit store failed, allowing request", "identifier", id.Key, "error", err)
		l.metrics.RateLimitDecision("fail_open")
		res.Allowed = true
		res.Remaining = limit
		return res, nil
	}

	if !out.Allowed {
		res.Allowed = false
		res.Remaining = 0
		l.deny(ctx, id, op, out, now)
		l.metrics.RateLimitDecision("denied")
		return res, nil
	}

	res.Allowed = true
	res.Remaining = limit - out.Count - 1
	l.metrics.RateLimitDecision("allowed")
	return res, nil
}

// deny logs the denial and blocks the IP when the repository reports that
// the violation threshold was reached.
func (l *Limiter) deny(ctx context.Context, id Identity, op string, out models.AttemptOutcome, now time.Time) {
	l.logEvent(ctx, models.SecurityEvent{
		Type:   models.EventRateLimitExceeded,
		IPHash: id.IPHash,
		UID:    id.UID,
		Details: map[string]string{
			"operationType": op,
			"userType":      string(id.Type),
		},
	})

	if !out.Block {
		return
	}

	b := models.BlockedIP{
		IPHash:     id.IPHash,
		Reason:     fmt.Sprintf("exceeded rate limit %d times", l.cfg.MaxViolations),
		BlockedBy:  "system",
		BlockedAt:  models.Millis(now),
		ExpiresAt:  models.Millis(now.Add(l.cfg.BlockDuration)),
		AutoExpire: true,
	}
	if err := l.blocks.Put(ctx, b); err != nil {
		l.logger.Error("auto block failed", "ip_hash", id.IPHash, "error", err)
		return
	}
	l.metrics.BlockCreated()
	l.logger.Warn("ip blocked", "ip_hash", id.IPHash, "expires_at", models.FromMillis(b.ExpiresAt))
	l.logEvent(ctx, models.SecurityEvent{
		Type:   models.EventIPBlocked,
		IPHash: id.IPHash,
		Details: map[string]string{
			"reason":     b.Reason,
			"blockedBy":  b.BlockedBy,
			"durationMs": strconv.FormatInt(l.cfg.BlockDuration.Milliseconds(), 10),
		},
	})
}

func (l *Limiter) logEvent(ctx context.Context, ev models.SecurityEvent) {
	if l.events == nil {
		return
	}
	if err := l.events.Log(ctx, ev); err != nil {
		l.logger.Warn("security log write failed", "type", ev.Type, "error", err)
	}
}
