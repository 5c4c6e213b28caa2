package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances its own time whenever After is called, so waits
// complete instantly while the elapsed time stays observable.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.waits = append(c.waits, d)

	ch := make(chan time.Time, 1)
	ch <- c.now

	return ch
}

func TestUntilImmediate(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	err := Until(context.Background(), Options{Clock: clock}, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.waits)
}

func TestUntilEventually(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	err := Until(context.Background(), Options{
		Interval: 50 * time.Millisecond,
		Clock:    clock,
	}, func(context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{
		50 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond,
	}, clock.waits)
}

func TestUntilTimeout(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	calls := 0

	err := Until(context.Background(), Options{
		Interval: 100 * time.Millisecond,
		Timeout:  250 * time.Millisecond,
		Clock:    clock,
	}, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 250*time.Millisecond, clock.Now().Sub(start))
	// Checks at 0, 100, 200 and 250ms.
	assert.Equal(t, 4, calls)
	assert.Equal(t, 50*time.Millisecond, clock.waits[len(clock.waits)-1])
}

func TestUntilConditionError(t *testing.T) {
	boom := errors.New("boom")

	err := Until(context.Background(), Options{Clock: newFakeClock()}, func(context.Context) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Until(ctx, Options{Interval: time.Hour}, func(context.Context) (bool, error) {
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestUntilDefaultInterval(t *testing.T) {
	clock := newFakeClock()
	calls := 0

	err := Until(context.Background(), Options{Clock: clock}, func(context.Context) (bool, error) {
		calls++
		return calls == 2, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultInterval}, clock.waits)
}
