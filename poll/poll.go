// Package poll waits for a condition to become true, checking it at a fixed
// interval and giving up after an optional deadline.
package poll

import (
	"context"
	"errors"
	"time"
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = 100 * time.Millisecond

// ErrTimeout is returned by Until when the deadline passes before the
// condition holds.
var ErrTimeout = errors.New("poll: timed out")

// Clock abstracts time so that waits can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns time.Now.
func (RealClock) Now() time.Time { return time.Now() }

// After returns time.After(d).
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Condition reports whether the awaited state has been reached. A non-nil
// error stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Options controls a single Until call.
type Options struct {
	// Interval between two checks.
	Interval time.Duration
	// Timeout bounds the whole wait; zero waits until ctx is done.
	Timeout time.Duration
	Clock   Clock
}

// Until calls cond immediately and then once per interval until it returns
// true, returns an error, the timeout elapses or ctx is cancelled.
func Until(ctx context.Context, opts Options, cond Condition) error {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = clock.Now().Add(opts.Timeout)
	}

	for {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		wait := interval
		if !deadline.IsZero() {
			remaining := deadline.Sub(clock.Now())
			if remaining <= 0 {
				return ErrTimeout
			}
			if remaining < wait {
				wait = remaining
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(wait):
		}
	}
}
