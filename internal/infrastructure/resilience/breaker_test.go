package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBreaker(clock *fakeClock, transitions *[]string) *Breaker {
	return New("test", Settings{
		Threshold: 2,
		Cooldown:  time.Minute,
		Now:       clock.Now,
		OnStateChange: func(_ string, from, to State) {
			if transitions != nil {
				*transitions = append(*transitions, from.String()+"->"+to.String())
			}
		},
	})
}

func fail() error    { return errFailed }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []bool // true = success
		expected State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"single failure stays closed", []bool{false}, StateClosed},
		{"success resets the failure count", []bool{false, true, false}, StateClosed},
		{"opens after consecutive failures", []bool{false, false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBreaker(&fakeClock{}, nil)
			for _, ok := range tt.calls {
				if ok {
					_ = b.Do(succeed)
				} else {
					_ = b.Do(fail)
				}
			}
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerOpenSkipsCalls(t *testing.T) {
	b := newTestBreaker(&fakeClock{}, nil)
	assert.ErrorIs(t, b.Do(fail), errFailed)
	assert.ErrorIs(t, b.Do(fail), errFailed)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpen(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []string
	b := newTestBreaker(clock, &transitions)

	_ = b.Do(fail)
	_ = b.Do(fail)
	require.Equal(t, StateOpen, b.State())

	clock.advance(59 * time.Second)
	assert.Equal(t, StateOpen, b.State())
	clock.advance(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())

	// a failed trial reopens
	assert.ErrorIs(t, b.Do(fail), errFailed)
	assert.Equal(t, StateOpen, b.State())

	clock.advance(time.Minute)
	require.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestBreakerSingleTrial(t *testing.T) {
	clock := &fakeClock{}
	b := newTestBreaker(clock, nil)
	_ = b.Do(fail)
	_ = b.Do(fail)
	clock.advance(time.Minute)

	err := b.Do(func() error {
		// a second caller during the trial is turned away
		assert.ErrorIs(t, b.Do(succeed), ErrOpen)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestNilBreaker(t *testing.T) {
	var b *Breaker
	assert.ErrorIs(t, b.Do(fail), errFailed)
	assert.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestDefaults(t *testing.T) {
	b := New("cache", Settings{})
	assert.Equal(t, "cache", b.Name())
	for range 4 {
		_ = b.Do(fail)
	}
	assert.Equal(t, StateClosed, b.State())
	_ = b.Do(fail)
	assert.Equal(t, StateOpen, b.State())
}
