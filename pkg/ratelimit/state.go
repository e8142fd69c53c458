// Package ratelimit tracks the upstream API's request budget from the
// X-RateLimit-Remaining / X-RateLimit-Reset / Retry-After response headers
// and gates outgoing requests. State lives in Redis so the dashboard CLI,
// the terminal UI and the proxy share one view of the budget.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining      = "dashboard:rate_limit:remaining"
	RedisKeyResetTimestamp = "dashboard:rate_limit:reset_timestamp"
	RedisKeyLastUpdate     = "dashboard:rate_limit:last_update"
)

// Response headers read by the tracker.
const (
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Thresholds decide when requests are blocked or slowed down.
type Thresholds struct {
	// Critical blocks requests while fewer requests than this remain.
	Critical int

	// Warning throttles requests while fewer requests than this remain.
	Warning int
}

// DefaultThresholds returns the thresholds used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Critical: 1,
		Warning:  5,
	}
}

// RateLimitState represents the last known upstream request budget.
type RateLimitState struct {
	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// windowOpen reports whether the recorded window is still in effect.
func (s *RateLimitState) windowOpen() bool {
	return s.TimeUntilReset() > 0
}

// NeedsBlock returns true if requests should be refused until the window resets.
func (s *RateLimitState) NeedsBlock(th Thresholds) bool {
	return s.windowOpen() && s.Remaining < th.Critical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling(th Thresholds) bool {
	return s.windowOpen() && s.Remaining < th.Warning && !s.NeedsBlock(th)
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
