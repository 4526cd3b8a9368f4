// Package alerter decides when the PM10 concentration warrants sounding the
// buzzer. The decision logic is pure over injected time so the cooldown
// behavior is testable; the cmd wires it to the message bus.
package alerter

import "time"

// DefaultCooldown is the rest period after a trigger before the alarm can
// fire again.
const DefaultCooldown = 5 * time.Minute

// Monitor tracks threshold crossings with a cooldown window.
type Monitor struct {
	threshold float64
	cooldown  time.Duration

	lastTriggered time.Time
	triggered     bool
}

// NewMonitor returns a Monitor that fires at or above threshold (µg/m³),
// then rests for cooldown.
func NewMonitor(threshold float64, cooldown time.Duration) *Monitor {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Monitor{threshold: threshold, cooldown: cooldown}
}

// Decide reports whether the given PM10 reading should trigger the alarm at
// time now. A trigger starts the cooldown window; readings inside it are
// ignored regardless of magnitude.
func (m *Monitor) Decide(pm10 float64, now time.Time) bool {
	if m.triggered && now.Sub(m.lastTriggered) < m.cooldown {
		return false
	}
	if pm10 < m.threshold {
		return false
	}
	m.triggered = true
	m.lastTriggered = now
	return true
}

// CooldownEnd returns when the current cooldown window expires, and whether
// a window is active at time now.
func (m *Monitor) CooldownEnd(now time.Time) (time.Time, bool) {
	if !m.triggered {
		return time.Time{}, false
	}
	end := m.lastTriggered.Add(m.cooldown)
	return end, now.Before(end)
}
