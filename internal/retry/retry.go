// Package retry provides the bounded exponential backoff shared by every
// network operation in the review and triage engines.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/example/flashdeck/internal/gateway"
	"go.uber.org/zap"
)

// Policy configures the backoff behaviour
type Policy struct {
	MaxRetries   int           // extra attempts after the first (0 means no retry)
	InitialDelay time.Duration // delay before the first retry
	MaxDelay     time.Duration // upper bound on any single delay
	Multiplier   float64       // delay growth factor per retry
	Jitter       bool          // randomize delays by ±25% to avoid thundering herds
	// Sleep waits for the given duration or until ctx is cancelled.
	// Tests replace it to record delays without waiting.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy is tuned for interactive use: retries finish within a few
// seconds or not at all
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer runs functions under a Policy
type Retryer struct {
	policy *Policy
	logger *zap.Logger
}

// New creates a retryer, normalizing out-of-range policy values
func New(policy *Policy, logger *zap.Logger) *Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 500 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 8 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if policy.Sleep == nil {
		policy.Sleep = sleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retryer{policy: policy, logger: logger}
}

// Do executes fn, retrying transient gateway failures with exponential
// backoff. Rate-limit failures get a single delayed retry honoring the
// server-specified wait. Auth, not-found and validation failures are
// returned immediately.
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	rateLimitRetried := false

	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return nil
		}

		if delay, ok := gateway.RetryAfter(lastErr); ok {
			// Одна повторная попытка после паузы, указанной сервером
			if rateLimitRetried {
				return lastErr
			}
			rateLimitRetried = true
			if delay <= 0 {
				delay = time.Second
			}
			r.logger.Debug("rate limited, waiting before single retry",
				zap.Duration("delay", delay),
			)
			if err := r.policy.Sleep(ctx, delay); err != nil {
				return fmt.Errorf("retry cancelled: %w", err)
			}
			continue
		}

		if !gateway.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt >= r.policy.MaxRetries {
			return lastErr
		}

		delay := r.delay(attempt + 1)
		r.logger.Debug("retrying after transient failure",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		if err := r.policy.Sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// delay computes the wait before retry number n (1-based)
func (r *Retryer) delay(n int) time.Duration {
	d := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(n-1))
	if d > float64(r.policy.MaxDelay) {
		d = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := d * 0.25
		d = d + (rand.Float64()*2-1)*jitter
	}
	if d < float64(r.policy.InitialDelay) {
		d = float64(r.policy.InitialDelay)
	}
	return time.Duration(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
