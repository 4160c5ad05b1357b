// Package resilience guards the relay's outbound provider calls. The
// turn path itself never retries or blocks; these helpers live inside
// provider adapters and the model decorator.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// RateLimitError is a provider quota rejection. The breaker counts
// these; every other failure passes through untouched.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "rate limit"
}

// IsRateLimit reports whether err carries a RateLimitError.
func IsRateLimit(err error) bool {
	var rl RateLimitError
	return errors.As(err, &rl)
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker sheds model calls after repeated quota rejections so a
// rate-limited relay answers from its local fallback instead of
// queueing on the provider. Once the cooldown passes, a single probe
// call is admitted; its outcome decides whether the circuit closes.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     breakerState
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Allow reports whether the next call may go out. An open circuit
// rejects until the cooldown elapses, then admits exactly one probe;
// further calls are rejected until that probe reports back.
func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateOpen:
		if c.now().Sub(c.openedAt) < c.cooldown {
			return false
		}
		c.state = stateHalfOpen
		return true
	case stateHalfOpen:
		// probe in flight
		return false
	default:
		return true
	}
}

// OnSuccess closes the circuit and clears the failure count.
func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	c.state = stateClosed
	c.failures = 0
	c.mu.Unlock()
}

// OnError records a quota rejection. A failed probe reopens the circuit
// for a full cooldown; other errors never move the state.
func (c *CircuitBreaker) OnError(err error) {
	if !IsRateLimit(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateHalfOpen {
		c.reopen()
		return
	}
	c.failures++
	if c.failures >= c.threshold {
		c.reopen()
	}
}

func (c *CircuitBreaker) reopen() {
	c.state = stateOpen
	c.openedAt = c.now()
}
