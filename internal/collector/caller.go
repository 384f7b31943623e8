package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"match-crawler/internal/riot"

	"golang.org/x/time/rate"
)

// ErrFatal marks errors that must abort the whole crawl (expired or revoked
// API key, unusable storage). Callers propagate it untouched.
var ErrFatal = errors.New("fatal crawl error")

const (
	DefaultCallInterval = 1300 * time.Millisecond
	DefaultBackoff      = 3 * time.Second

	// Development keys allow 100 requests every 2 minutes
	DefaultQuotaRequests = 100
	DefaultQuotaWindow   = 2 * time.Minute
)

// CallerConfig controls request pacing.
type CallerConfig struct {
	Interval time.Duration // sleep after every successful call
	Backoff  time.Duration // sleep before retrying a rate-limited call

	// Optional token bucket in front of every attempt; QuotaRequests <= 0 disables it.
	QuotaRequests int
	QuotaWindow   time.Duration
}

// DefaultCallerConfig returns the pacing used against a development key.
func DefaultCallerConfig() CallerConfig {
	return CallerConfig{
		Interval:      DefaultCallInterval,
		Backoff:       DefaultBackoff,
		QuotaRequests: DefaultQuotaRequests,
		QuotaWindow:   DefaultQuotaWindow,
	}
}

// OpStats counts attempts for one named operation.
type OpStats struct {
	Calls       int
	RateLimited int
	Failures    int
}

// Caller paces every remote call: a fixed sleep after success, an unbounded
// backoff-and-retry loop on 429, and escalation of key errors to ErrFatal.
type Caller struct {
	cfg     CallerConfig
	clock   Clock
	limiter *rate.Limiter
	logger  *slog.Logger

	mu    sync.Mutex
	stats map[string]*OpStats
}

// NewCaller creates a Caller. A nil clock means the wall clock.
func NewCaller(cfg CallerConfig, clock Clock, logger *slog.Logger) *Caller {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Caller{
		cfg:    cfg,
		clock:  clock,
		logger: logger.With("component", "caller"),
		stats:  make(map[string]*OpStats),
	}
	if cfg.QuotaRequests > 0 && cfg.QuotaWindow > 0 {
		every := cfg.QuotaWindow / time.Duration(cfg.QuotaRequests)
		c.limiter = rate.NewLimiter(rate.Every(every), cfg.QuotaRequests)
	}
	return c
}

// Clock returns the clock the caller sleeps on.
func (c *Caller) Clock() Clock { return c.clock }

// Call runs fn under c's pacing rules. On success it sleeps the configured
// interval before returning the value. A rate-limited attempt is retried
// after the backoff with no upper bound. An unauthorized response is returned
// wrapped in ErrFatal. Any other error is returned as is.
func Call[T any](ctx context.Context, c *Caller, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	st := c.opStats(op)

	for {
		if err := c.waitQuota(ctx); err != nil {
			return zero, err
		}

		c.record(func() { st.Calls++ })
		v, err := fn(ctx)
		if err == nil {
			if err := c.clock.Sleep(ctx, c.cfg.Interval); err != nil {
				return zero, err
			}
			return v, nil
		}

		switch {
		case errors.Is(err, riot.ErrRateLimited):
			c.record(func() { st.RateLimited++ })
			c.logger.Warn("rate limited, backing off", "op", op, "backoff", c.cfg.Backoff)
			if err := c.clock.Sleep(ctx, c.cfg.Backoff); err != nil {
				return zero, err
			}
		case errors.Is(err, riot.ErrUnauthorized):
			c.record(func() { st.Failures++ })
			return zero, fmt.Errorf("%w: %s: %w", ErrFatal, op, err)
		default:
			c.record(func() { st.Failures++ })
			return zero, err
		}
	}
}

func (c *Caller) waitQuota(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	now := c.clock.Now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("quota reservation refused")
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	c.logger.Debug("quota exhausted, waiting", "delay", delay)
	if err := c.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(now)
		return err
	}
	return nil
}

func (c *Caller) opStats(op string) *OpStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.stats[op]
	if !ok {
		st = &OpStats{}
		c.stats[op] = st
	}
	return st
}

func (c *Caller) record(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
}

// Stats returns a snapshot of per-operation counters.
func (c *Caller) Stats() map[string]OpStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]OpStats, len(c.stats))
	for op, st := range c.stats {
		out[op] = *st
	}
	return out
}

// isTerminal reports whether err should stop the crawl rather than skip one item.
func isTerminal(ctx context.Context, err error) bool {
	return errors.Is(err, ErrFatal) || ctx.Err() != nil
}
