// Package actuator generates a time-sliced duty cycle for the alert buzzer
// and its companion status LED.
//
// The controller is pure bookkeeping over an injected clock: callers decide
// when to re-evaluate it (the agent does so on a fixed cadence) and the
// controller decides whether the binary output should currently be on. The
// physical write goes through a Driver and happens only when the computed
// output differs from the last applied value, so a 10 ms evaluation tick does
// not hammer the GPIO lines with redundant writes.
package actuator

import "time"

// MinPeriod is the floor applied to the duty cycle period. Shorter periods
// are stored as MinPeriod; there is no ceiling.
const MinPeriod = 10 * time.Millisecond

// Driver applies a binary output to the physical indicator pair.
type Driver interface {
	// Set drives both the buzzer and the status LED to the given state.
	Set(on bool) error
	// Close releases the underlying pins, leaving the output off.
	Close() error
}

// Controller holds the target duty cycle and computes the output state for
// any point in time. A Controller is not safe for concurrent use; the agent
// owns it on its single scheduler goroutine.
type Controller struct {
	driver Driver

	duty       float64
	period     time.Duration
	cycleStart time.Time
	applied    bool
}

// New returns a Controller with duty 0 (output off) backed by the given
// driver.
func New(driver Driver) *Controller {
	return &Controller{
		driver: driver,
		period: time.Second,
	}
}

// Update stores a new duty cycle and period, clamping duty into [0, 1] and
// period up to at least MinPeriod, and restarts the cycle from phase zero at
// now. Out-of-range caller values are never retained.
func (c *Controller) Update(duty float64, period time.Duration, now time.Time) {
	if duty < 0 {
		duty = 0
	} else if duty > 1 {
		duty = 1
	}
	if period < MinPeriod {
		period = MinPeriod
	}
	c.duty = duty
	c.period = period
	c.cycleStart = now
}

// Duty returns the stored (clamped) duty cycle.
func (c *Controller) Duty() float64 { return c.duty }

// Period returns the stored (clamped) period.
func (c *Controller) Period() time.Duration { return c.period }

// On reports the output state the duty cycle prescribes at time now.
func (c *Controller) On(now time.Time) bool {
	switch {
	case c.duty <= 0:
		return false
	case c.duty >= 1:
		return true
	}
	elapsed := now.Sub(c.cycleStart)
	phase := float64(elapsed%c.period) / float64(c.period)
	return phase < c.duty
}

// Evaluate computes the output for time now and applies it through the
// driver if it changed since the last applied value. It returns the output
// state and any driver error.
func (c *Controller) Evaluate(now time.Time) (bool, error) {
	on := c.On(now)
	if on == c.applied {
		return on, nil
	}
	if err := c.driver.Set(on); err != nil {
		return on, err
	}
	c.applied = on
	return on, nil
}

// Off forces the output off immediately, regardless of the stored duty.
// Used at shutdown so the buzzer never stays latched on.
func (c *Controller) Off() error {
	c.duty = 0
	if !c.applied {
		return nil
	}
	c.applied = false
	return c.driver.Set(false)
}
