// Package ratelimit computes retry delays for throttled API requests. The
// service answers bursts with 429 and an optional Retry-After header;
// callers feed both into a Backoff to space out their retries.
package ratelimit

import (
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultBase is the delay before the first retry when none is configured.
	DefaultBase = 1 * time.Second

	// DefaultMax caps the exponential growth of retry delays.
	DefaultMax = 32 * time.Second

	// maxShift bounds the exponent so the doubling never overflows.
	maxShift = 16
)

// Backoff is an exponential backoff policy. The zero value uses DefaultBase
// and DefaultMax without jitter.
type Backoff struct {
	// Base is the delay before the first retry.
	Base time.Duration

	// Max caps the delay between retries.
	Max time.Duration

	// Jitter spreads delays by ±20% so parallel workers hitting the same
	// limit do not retry in lockstep.
	Jitter bool
}

// Delay returns how long to wait before retry number attempt (zero-based).
// A server-provided Retry-After hint wins over the computed backoff but is
// still capped at Max.
func (b Backoff) Delay(attempt int, retryAfter *time.Duration) time.Duration {
	base := b.Base
	if base <= 0 {
		base = DefaultBase
	}
	max := b.Max
	if max <= 0 {
		max = DefaultMax
	}

	if retryAfter != nil {
		if *retryAfter > max {
			return max
		}
		return *retryAfter
	}

	if attempt > maxShift {
		attempt = maxShift
	}
	delay := base << attempt
	if delay > max {
		delay = max
	}

	if b.Jitter {
		factor := 0.8 + rand.Float64()*0.4
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// ParseRetryAfter parses a Retry-After header value, accepting both the
// delay-seconds and HTTP-date forms. It returns nil for empty or malformed
// values.
func ParseRetryAfter(value string) *time.Duration {
	if value == "" {
		return nil
	}

	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		if seconds < 0 {
			return nil
		}
		d := time.Duration(seconds) * time.Second
		return &d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}

	return nil
}
