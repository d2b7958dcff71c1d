package resilience

import "time"

// CircuitBreakerConfig guards one outbound dependency such as QStash or Anubis.
// Zero values fall back to the defaults below.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return c
}

// NewOptionalCircuitBreaker returns nil when the breaker is disabled; a nil
// breaker passes every call straight through.
func NewOptionalCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return NewCircuitBreaker(cfg)
}
