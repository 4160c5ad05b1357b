package llm

import (
	"context"
	"time"

	"github.com/kringlelabs/kringle/pkg/resilience"
)

// CircuitBreakerModel wraps a ChatModel with rate-limit circuit breaking.
// While the breaker is open, Generate fails fast with a RateLimitError and
// the orchestrator falls back without waiting on the provider.
type CircuitBreakerModel struct {
	inner   ChatModel
	breaker *resilience.CircuitBreaker
}

func NewCircuitBreakerModel(inner ChatModel, breaker *resilience.CircuitBreaker) *CircuitBreakerModel {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(3, 30*time.Second)
	}
	return &CircuitBreakerModel{inner: inner, breaker: breaker}
}

func (m *CircuitBreakerModel) Name() string { return m.inner.Name() }

func (m *CircuitBreakerModel) Generate(ctx context.Context, input Context) (Response, error) {
	if !m.breaker.Allow() {
		return Response{}, resilience.RateLimitError{Provider: m.Name(), Message: "degraded"}
	}
	resp, err := m.inner.Generate(ctx, input)
	if err != nil {
		m.breaker.OnError(err)
		return Response{}, err
	}
	m.breaker.OnSuccess()
	return resp, nil
}
