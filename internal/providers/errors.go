package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error is the normalized failure returned by concrete AI backends. It keeps
// enough metadata for the backoff policy and the orchestrator to classify the
// failure without parsing provider-specific response bodies again.
type Error struct {
	Provider   string
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d, code %s)", e.Provider, e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
}

// RateLimited reports whether the error represents a too-many-requests
// condition. Implements the signal consumed by the backoff package.
func (e *Error) RateLimited() bool {
	if e.Status == 429 {
		return true
	}
	switch strings.ToLower(e.Code) {
	case "rate_limit_exceeded", "resource_exhausted", "too_many_requests":
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "too many requests")
}

// RetryAfterHint returns the provider-advised wait, when one was present on
// the response.
func (e *Error) RetryAfterHint() (time.Duration, bool) {
	if e.RetryAfter > 0 {
		return e.RetryAfter, true
	}
	return 0, false
}

// IsQuotaExhausted reports whether the error represents quota or billing
// exhaustion at the provider. This class triggers the one-shot provider
// fallback at the orchestrator level.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	var perr *Error
	if errors.As(err, &perr) {
		switch strings.ToLower(perr.Code) {
		case "insufficient_quota", "billing_not_active", "billing_hard_limit_reached", "quota_exceeded":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "billing") ||
		strings.Contains(msg, "plan limit")
}

// IsMalformed reports whether the provider itself flagged the response as
// malformed. Only this case makes a schema validation failure fatal for the
// attempt; locally detected shape mismatches are retried as transient.
func IsMalformed(err error) bool {
	if err == nil {
		return false
	}
	var perr *Error
	if errors.As(err, &perr) {
		switch strings.ToLower(perr.Code) {
		case "malformed_output", "invalid_response", "invalid_argument":
			return true
		}
	}
	return false
}

// parseRetryAfter interprets a Retry-After style value in seconds or
// milliseconds.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if strings.HasSuffix(value, "ms") {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		return 0
	}
	if strings.HasSuffix(value, "s") {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		return 0
	}
	var secs int
	if _, err := fmt.Sscanf(value, "%d", &secs); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
