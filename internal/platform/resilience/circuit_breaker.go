package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after consecutive failures and lets a bounded number
// of probes through once the open timeout has elapsed.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig
	now func() time.Time

	state     CircuitState
	failures  int
	openedAt  time.Time
	probes    int
	successes int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: CircuitStateClosed,
	}
}

// Execute runs fn when the breaker allows it and records the outcome.
// A nil breaker always runs fn.
func (b *CircuitBreaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.probes >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.probes = max(b.probes-1, 0)
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq && b.probes == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) transition(to CircuitState) {
	b.state = to
	b.probes = 0
	b.successes = 0
	switch to {
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}
