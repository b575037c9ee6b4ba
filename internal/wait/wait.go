// Package wait implements the bounded polling loop used by every blocking step of a scenario.
package wait

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when a condition is still unmet at the deadline.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// Condition reports whether the awaited state has been reached. A non-nil error does not stop
// the loop; the most recent one is attached to the timeout error.
type Condition func() (bool, error)

// Clock abstracts time so that tests can drive the loop without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Poller evaluates a condition at a fixed interval until it holds or the timeout elapses.
type Poller struct {
	Timeout  time.Duration
	Interval time.Duration
	Clock    Clock
}

// Run evaluates cond at least once. The last evaluation happens at or after the deadline, so
// the loop never outlives the timeout by more than one interval plus one evaluation.
func (p Poller) Run(cond Condition) error {
	clock := p.Clock
	if clock == nil {
		clock = realClock{}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := clock.Now().Add(p.Timeout)
	var lastErr error
	for {
		ok, err := cond()
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %w", ErrTimeout, p.Timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, p.Timeout)
		}
		if remaining < interval {
			clock.Sleep(remaining)
		} else {
			clock.Sleep(interval)
		}
	}
}
