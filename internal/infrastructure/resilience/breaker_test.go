package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		threshold     uint32
		calls         []func() error
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			threshold:     2,
			calls:         []func() error{ok, ok, ok},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			threshold:     3,
			calls:         []func() error{fail, fail, fail},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			threshold:     3,
			calls:         []func() error{fail, fail, ok, fail, fail},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", Settings{Threshold: tt.threshold, Cooldown: time.Minute})
			for _, call := range tt.calls {
				_ = b.Do(call)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("test", Settings{Threshold: 2, Cooldown: time.Minute, Now: clock.Now})

	require.ErrorIs(t, b.Do(fail), errBoom)
	require.ErrorIs(t, b.Do(fail), errBoom)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, uint32(1), b.Counts().Rejected)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("test", Settings{Threshold: 1, Cooldown: time.Minute, Now: clock.Now})

	_ = b.Do(fail)
	require.Equal(t, StateOpen, b.State())

	clock.Advance(time.Minute)
	require.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Do(ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("test", Settings{Threshold: 1, Cooldown: time.Minute, Now: clock.Now})

	_ = b.Do(fail)
	clock.Advance(2 * time.Minute)

	assert.ErrorIs(t, b.Do(fail), errBoom)
	assert.Equal(t, StateOpen, b.State())
}

func TestCall(t *testing.T) {
	b := New("test", Settings{Threshold: 1})

	v, err := Call(b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Call(b, func() (int, error) { return 7, errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, v)

	_, err = Call(b, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{Threshold: 1})

	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("kaboom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	clock := &fakeClock{now: time.Unix(0, 0)}

	b := New("store", Settings{
		Threshold: 2,
		Cooldown:  10 * time.Second,
		Now:       clock.Now,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "store", name)
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Do(fail)
	_ = b.Do(fail)
	clock.Advance(10 * time.Second)
	_ = b.Do(ok)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
