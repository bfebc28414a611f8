package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned instead of calling fn while the breaker is open and no
// fallback was given.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after more than maxFailures failures inside window,
// rejects calls for timeout, then lets a single trial call through.
type CircuitBreaker struct {
	maxFailures     int
	window          time.Duration
	failures        []time.Time
	timeout         time.Duration
	lastFailureTime time.Time
	state           State
	trial           bool
	now             func() time.Time
	mu              sync.Mutex
}

func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreakerWithWindow(maxFailures, timeout, 60*time.Second)
}

func NewCircuitBreakerWithWindow(maxFailures int, timeout time.Duration, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		timeout:     timeout,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
		now:         time.Now,
	}
}

// SetClock replaces time.Now.
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
}

// Execute runs fn unless the breaker is open, in which case fallback runs
// (or ErrOpen is returned). fn runs without the lock held.
func (cb *CircuitBreaker) Execute(fn func() error, fallback func() error) error {
	if !cb.allow() {
		if fallback != nil {
			return fallback()
		}
		return ErrOpen
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
		cb.trial = true
		return true
	case StateHalfOpen:
		// one trial call at a time
		if cb.trial {
			return false
		}
		cb.trial = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cb.trial = false
	if err != nil {
		cb.lastFailureTime = now
		cb.failures = append(cb.failures, now)
		cb.cleanOldFailures(now)
		if len(cb.failures) > cb.maxFailures || cb.state == StateHalfOpen {
			cb.state = StateOpen
		}
		return
	}

	cb.cleanOldFailures(now)
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		cb.failures = cb.failures[:0]
	}
}

// cleanOldFailures drops failures older than the window. failures is in
// time order.
func (cb *CircuitBreaker) cleanOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	cb.failures = cb.failures[i:]
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
