package backoff

import (
	"errors"
	"strings"
	"time"
)

// rateLimitSignaler is implemented by errors that know they represent a
// too-many-requests condition.
type rateLimitSignaler interface {
	RateLimited() bool
}

// retryAfterCarrier is implemented by errors carrying a provider-advised
// wait before the next attempt.
type retryAfterCarrier interface {
	RetryAfterHint() (time.Duration, bool)
}

// IsRateLimit reports whether the error carries a recognized rate-limit
// signal: a numeric 429 status, a rate-limit error code, or an equivalent
// transport-level marker in the message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var signaler rateLimitSignaler
	if errors.As(err, &signaler) {
		return signaler.RateLimited()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resource has been exhausted")
}

// RetryAfter extracts a provider-advised wait time from error metadata when
// present. It overrides the computed exponential delay.
func RetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var carrier retryAfterCarrier
	if errors.As(err, &carrier) {
		return carrier.RetryAfterHint()
	}
	return 0, false
}
