package circuit

import (
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

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newAuditBreaker(clock *fakeClock, opts ...Option) *Breaker {
	base := []Option{WithFailureThreshold(3), WithSuccessThreshold(2), WithCooldown(10 * time.Second), WithClock(clock.Now)}
	return New("audit-kafka", append(base, opts...)...)
}

func TestNewUsesDefaults(t *testing.T) {
	b := New("audit-kafka")
	assert.Equal(t, "audit-kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, defaultFailureThreshold, b.failureThreshold)
	assert.Equal(t, defaultSuccessThreshold, b.successThreshold)
	assert.Equal(t, defaultCooldown, b.cooldown)
	assert.True(t, b.Allow())
}

func TestFailuresOpenOnlyWhenConsecutive(t *testing.T) {
	b := newAuditBreaker(newFakeClock())

	for i := range 2 {
		fallback, change := b.RecordFailure()
		assert.False(t, fallback, "failure %d", i+1)
		assert.Equal(t, StateChange{}, change)
	}
	usable, change := b.RecordSuccess()
	assert.True(t, usable)
	assert.Equal(t, StateChange{}, change)

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "a success in between restarts the count")

	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")
}

func TestOpenBreakerRetriesAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	b := newAuditBreaker(clock, WithFailureThreshold(1))

	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	clock.Advance(9 * time.Second)
	assert.False(t, b.Allow())
	clock.Advance(time.Second)
	assert.True(t, b.Allow(), "cooldown elapsed")

	t.Run("failed trial call re-arms the cooldown", func(t *testing.T) {
		fallback, change := b.RecordFailure()
		assert.True(t, fallback)
		assert.False(t, change.Opened)
		assert.False(t, b.Allow())

		clock.Advance(10 * time.Second)
		assert.True(t, b.Allow())
	})

	t.Run("successful trial calls close after the success threshold", func(t *testing.T) {
		usable, change := b.RecordSuccess()
		assert.False(t, usable)
		assert.False(t, change.Closed)
		assert.True(t, b.IsOpen())

		usable, change = b.RecordSuccess()
		assert.True(t, usable)
		assert.True(t, change.Closed)
		assert.Equal(t, StateClosed, b.State())
		assert.True(t, b.Allow())
	})
}

func TestFailureWhileOpenRestartsSuccessCount(t *testing.T) {
	clock := newFakeClock()
	b := newAuditBreaker(clock, WithFailureThreshold(1), WithSuccessThreshold(3))
	b.RecordFailure()

	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	assert.True(t, b.IsOpen())

	_, change := b.RecordSuccess()
	assert.True(t, change.Closed)
}

func TestResetClosesImmediately(t *testing.T) {
	b := newAuditBreaker(newFakeClock(), WithFailureThreshold(1))
	b.RecordFailure()
	require.False(t, b.Allow())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	fallback, _ := b.RecordFailure()
	assert.True(t, fallback, "threshold of one reopens on the next failure")
}

func TestConcurrentRecordsOpenOnce(t *testing.T) {
	b := newAuditBreaker(newFakeClock(), WithFailureThreshold(5))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, opened)
	assert.True(t, b.IsOpen())
}
