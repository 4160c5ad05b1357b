package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBreaker(threshold int, cooldown time.Duration) (*CircuitBreaker, *time.Time) {
	c := NewCircuitBreaker(threshold, cooldown)
	clock := time.Now()
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	c, _ := newTestBreaker(2, time.Minute)
	quota := RateLimitError{Provider: "openai", Message: "quota"}

	if !c.Allow() {
		t.Fatalf("fresh breaker must allow")
	}
	c.OnError(quota)
	if !c.Allow() {
		t.Fatalf("one failure below threshold must still allow")
	}
	c.OnError(quota)
	if c.Allow() {
		t.Fatalf("breaker must open at the threshold")
	}
}

func TestBreakerIgnoresOrdinaryErrors(t *testing.T) {
	c, _ := newTestBreaker(1, time.Minute)
	c.OnError(errors.New("connection refused"))
	c.OnError(errors.New("connection refused"))
	if !c.Allow() {
		t.Fatalf("only quota rejections may open the circuit")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	c, clock := newTestBreaker(1, time.Minute)
	c.OnError(RateLimitError{Message: "quota"})
	if c.Allow() {
		t.Fatalf("circuit should be open")
	}

	*clock = clock.Add(2 * time.Minute)
	if !c.Allow() {
		t.Fatalf("cooldown elapsed, the probe must be admitted")
	}
	if c.Allow() {
		t.Fatalf("only one probe may be in flight")
	}

	c.OnSuccess()
	if !c.Allow() {
		t.Fatalf("a successful probe closes the circuit")
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	c, clock := newTestBreaker(1, time.Minute)
	c.OnError(RateLimitError{Message: "quota"})

	*clock = clock.Add(2 * time.Minute)
	if !c.Allow() {
		t.Fatalf("probe must be admitted")
	}
	c.OnError(RateLimitError{Message: "still throttled"})
	if c.Allow() {
		t.Fatalf("failed probe must reopen for a full cooldown")
	}

	*clock = clock.Add(2 * time.Minute)
	if !c.Allow() {
		t.Fatalf("next cooldown admits another probe")
	}
}

func TestRetryStopsAfterMaxRetries(t *testing.T) {
	r := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errors.New("transient")
	})
	if err == nil {
		t.Fatalf("expected the last error back")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryReturnsRateLimitImmediately(t *testing.T) {
	r := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return RateLimitError{Provider: "deepgram", Message: "quota"}
	})
	if !IsRateLimit(err) {
		t.Fatalf("rate limit must surface, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("quota rejections must not be retried, got %d attempts", calls)
	}
}

func TestRetrySucceedsMidway(t *testing.T) {
	r := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on the second attempt, got %v after %d", err, calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	r := RetryPolicy{MaxRetries: 5, Backoff: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Do(ctx, func() error { return errors.New("transient") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context must cut the backoff short, got %v", err)
	}
}
