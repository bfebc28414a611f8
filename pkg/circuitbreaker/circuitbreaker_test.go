package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func succeed() error { return nil }

func newTestBreaker(maxFailures int) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(maxFailures, 30*time.Second)
	cb.SetClock(c.now)
	return cb, c
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb, _ := newTestBreaker(2)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
		assert.Equal(t, StateClosed, cb.GetState())
	}
	assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_FallbackWhileOpen(t *testing.T) {
	cb, _ := newTestBreaker(0)
	_ = cb.Execute(fail, nil)

	errFallback := errors.New("queued")
	assert.ErrorIs(t, cb.Execute(succeed, func() error { return errFallback }), errFallback)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, c := newTestBreaker(0)
	_ = cb.Execute(fail, nil)
	assert.Equal(t, StateOpen, cb.GetState())

	c.advance(31 * time.Second)
	assert.NoError(t, cb.Execute(succeed, nil))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, c := newTestBreaker(5)
	for i := 0; i < 6; i++ {
		_ = cb.Execute(fail, nil)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	c.advance(31 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail, nil), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(succeed, nil), ErrOpen)
}

func TestCircuitBreaker_OldFailuresExpire(t *testing.T) {
	cb, c := newTestBreaker(1)

	_ = cb.Execute(fail, nil)
	c.advance(61 * time.Second)
	_ = cb.Execute(fail, nil)
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(fail, nil)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
