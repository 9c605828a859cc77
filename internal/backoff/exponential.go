package backoff

import (
	"sync"
	"time"

	"github.com/michalkurzeja/go-clock"
)

// maxDoublings caps the growth of the delay at base * 2^maxDoublings.
const maxDoublings = 4

// Exponential tracks consecutive failures and blocks further attempts until the current delay has passed.
// The delay starts at base and doubles with every consecutive failure. A zero base disables the backoff.
type Exponential struct {
	mu       sync.Mutex
	base     time.Duration
	failures uint32
	retryAt  time.Time
}

// NewExponential creates Exponential backoff starting with the provided base delay.
func NewExponential(base time.Duration) *Exponential {
	return &Exponential{base: base}
}

// Reset resets exponential backoff failures.
func (e *Exponential) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failures = 0
	e.retryAt = time.Time{}
}

// Fail registers a failed attempt and returns the delay before the next attempt is allowed.
func (e *Exponential) Fail() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.base <= 0 {
		return 0
	}

	e.failures++

	delay := e.base << min(e.failures-1, maxDoublings)
	e.retryAt = clock.Now().Add(delay)

	return delay
}

// Should returns true if the caller should hold back its next attempt.
func (e *Exponential) Should() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return clock.Now().Before(e.retryAt)
}

// RetryAt returns the earliest time of the next allowed attempt.
func (e *Exponential) RetryAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.retryAt
}
