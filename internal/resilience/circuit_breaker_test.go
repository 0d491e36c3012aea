package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/botnet-detectors-comparer/internal/resilience"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errDown = errors.New("downstream unavailable")

func newBreaker(clock *fakeClock) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "nats",
		MaxFailures: 3,
		Timeout:     10 * time.Second,
		HalfOpenMax: 2,
		Now:         clock.Now,
	})
}

func fail() error { return errDown }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := newBreaker(&fakeClock{t: time.Unix(0, 0)})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errDown)
	}
	assert.Equal(t, resilience.StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, resilience.StateOpen, cb.State())

	calls := 0
	err := cb.Execute(func() error { calls++; return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Zero(t, calls)
	assert.Equal(t, int64(1), cb.Rejected())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := newBreaker(&fakeClock{t: time.Unix(0, 0)})

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	assert.NoError(t, cb.Execute(succeed))
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)

	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenTransitions(t *testing.T) {
	tests := []struct {
		name   string
		trials []func() error
		want   resilience.State
	}{
		{"closes after enough successes", []func() error{succeed, succeed}, resilience.StateClosed},
		{"stays half-open below threshold", []func() error{succeed}, resilience.StateHalfOpen},
		{"reopens on failure", []func() error{succeed, fail}, resilience.StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{t: time.Unix(0, 0)}
			cb := newBreaker(clock)
			for i := 0; i < 3; i++ {
				_ = cb.Execute(fail)
			}
			clock.Advance(11 * time.Second)

			for _, fn := range tt.trials {
				_ = cb.Execute(fn)
			}
			assert.Equal(t, tt.want, cb.State())
		})
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := newBreaker(&fakeClock{t: time.Unix(0, 0)})
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	cb.Reset()
	assert.Equal(t, resilience.StateClosed, cb.State())
	assert.NoError(t, cb.Execute(succeed))
}
