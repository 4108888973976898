package backoff

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Result is the explicit outcome of one attempt.
type Result int

const (
	ResultSuccess Result = iota
	ResultRetryable
	ResultFatal
)

// AttemptFunc executes one attempt and reports its outcome. The returned
// error accompanies ResultRetryable and ResultFatal.
type AttemptFunc func(ctx context.Context, attempt int) (Result, error)

// Policy computes retry delays and drives bounded retry loops. The zero
// value is not usable; construct via New or NewRateLimitAware.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	JitterFrac  float64

	// rateLimitOnly restricts ShouldRetry to recognized rate-limit errors.
	rateLimitOnly bool

	// randFloat is injectable for deterministic tests.
	randFloat func() float64
}

// New returns the generic policy with uniform jitter in [0, 0.25 × delay].
func New(maxAttempts int, base, max time.Duration, multiplier float64) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   base,
		MaxDelay:    max,
		Multiplier:  multiplier,
		JitterFrac:  0.25,
		randFloat:   rand.Float64,
	}
}

// NewRateLimitAware returns the variant used around provider calls. Jitter is
// tighter because the delay is often provider-dictated, and ShouldRetry only
// accepts errors carrying a recognized rate-limit signal.
func NewRateLimitAware(maxAttempts int, base, max time.Duration, multiplier float64) Policy {
	p := New(maxAttempts, base, max, multiplier)
	p.JitterFrac = 0.10
	p.rateLimitOnly = true
	return p
}

// NextDelay computes min(base × multiplier^(attempt-1), max) plus uniform
// jitter in [0, JitterFrac × delay]. Attempt is 1-based.
func (p Policy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay) + p.jitter(time.Duration(delay))
}

// ShouldRetry reports whether a failed attempt may be retried. The generic
// policy retries everything until the final attempt; the rate-limit-aware
// variant additionally requires a recognized rate-limit signal on the error.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	if p.rateLimitOnly {
		return IsRateLimit(err)
	}
	return true
}

// DelayFor returns the wait before the next attempt. A provider-advised
// retry-after carried by the error overrides the computed exponential delay.
func (p Policy) DelayFor(err error, attempt int) time.Duration {
	if advised, ok := RetryAfter(err); ok {
		return advised + p.jitter(advised)
	}
	return p.NextDelay(attempt)
}

// Do runs fn up to MaxAttempts times, sleeping the computed delay between
// retryable failures. Fatal outcomes stop immediately. On exhaustion the last
// error is returned, never swallowed.
func (p Policy) Do(ctx context.Context, fn AttemptFunc) error {
	return p.DoFrom(ctx, 1, fn)
}

// DoFrom behaves like Do but starts the attempt counter at first, resuming a
// loop whose earlier attempts ran in another process. The overall budget stays
// MaxAttempts: a loop resumed at attempt 3 of 3 gets one attempt, and one
// resumed past the budget fails without invoking fn.
func (p Policy) DoFrom(ctx context.Context, first int, fn AttemptFunc) error {
	if first < 1 {
		first = 1
	}
	var lastErr error
	for attempt := first; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn(ctx, attempt)
		switch result {
		case ResultSuccess:
			return nil
		case ResultFatal:
			return err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.DelayFor(err, attempt)); err != nil {
			return err
		}
	}
	if lastErr == nil {
		return fmt.Errorf("failed after %d attempts: attempt budget exhausted", p.MaxAttempts)
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

func (p Policy) jitter(delay time.Duration) time.Duration {
	if p.JitterFrac <= 0 || delay <= 0 {
		return 0
	}
	rnd := rand.Float64
	if p.randFloat != nil {
		rnd = p.randFloat
	}
	return time.Duration(rnd() * p.JitterFrac * float64(delay))
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
