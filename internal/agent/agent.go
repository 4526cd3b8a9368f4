// Package agent runs the device's single-threaded control loop: it drains
// sensor bytes through the frame decoder, drives the alert actuator on its
// own cadence, publishes the latest measurement downstream, and interleaves
// transport housekeeping, all without preemption.
package agent

import (
	"context"
	"time"

	"github.com/airmon-data/airmon/internal/actuator"
	"github.com/airmon-data/airmon/internal/monitoring"
	"github.com/airmon-data/airmon/internal/pms"
	"github.com/airmon-data/airmon/internal/serialport"
	"github.com/airmon-data/airmon/internal/timeutil"
	"github.com/airmon-data/airmon/internal/transport"
)

// Cadence intervals for the timer-gated tasks sharing the loop. Each task
// states its own minimum interval against one monotonic clock; none of them
// depend on the loop iteration rate.
const (
	// ActuatorInterval is the minimum spacing between duty-cycle
	// re-evaluations.
	ActuatorInterval = 10 * time.Millisecond

	// PublishInterval is the minimum spacing between measurement
	// publications.
	PublishInterval = 100 * time.Millisecond

	// loopRest bounds how hot the loop spins when there is nothing to do.
	loopRest = time.Millisecond
)

// Agent owns the scheduler loop and all mutable decode/actuation state.
// Nothing here is ambient: the decoder, actuator and record slot live as
// fields so two agents could coexist in one process.
type Agent struct {
	port  serialport.Porter
	asm   *pms.Assembler
	act   *actuator.Controller
	trans transport.Transport
	clock timeutil.Clock

	deviceID string

	// latest-record slot: overwritten by each successful decode, never
	// queued. fresh is consumed exactly once by the publish trigger.
	latest pms.Record
	fresh  bool
	seen   bool

	lastActuatorTick time.Time
	lastPublish      time.Time

	readBuf [256]byte
}

// Config wires an Agent's collaborators.
type Config struct {
	Port     serialport.Porter
	Actuator *actuator.Controller
	Trans    transport.Transport
	Clock    timeutil.Clock
	DeviceID string

	// ResyncPolicy selects the frame resynchronization behavior; the zero
	// value preserves the sensor firmware's observed byte-drop behavior.
	ResyncPolicy pms.ResyncPolicy
}

// New assembles an agent. It does not start the loop.
func New(cfg Config) *Agent {
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Agent{
		port:     cfg.Port,
		asm:      pms.NewAssembler(cfg.ResyncPolicy),
		act:      cfg.Actuator,
		trans:    cfg.Trans,
		clock:    clock,
		deviceID: cfg.DeviceID,
	}
}

// Run executes the control loop until ctx is cancelled. On the way out the
// actuator output is forced off so the buzzer cannot stay latched.
func (a *Agent) Run(ctx context.Context) error {
	a.trans.Housekeep(a.clock.Now())
	if err := a.trans.PublishStatus("online", a.clock.Now()); err != nil {
		monitoring.Logf("failed to publish startup status: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			if err := a.act.Off(); err != nil {
				monitoring.Logf("failed to silence actuator on shutdown: %v", err)
			}
			return ctx.Err()
		default:
		}

		a.Step()
		a.clock.Sleep(loopRest)
	}
}

// Step executes one scheduler iteration: drain, command pump, actuator tick,
// publish tick, transport housekeeping. Exposed so tests can drive the loop
// against a mock clock without goroutines.
func (a *Agent) Step() {
	a.drainSerial()
	a.pumpCommands()

	now := a.clock.Now()

	if now.Sub(a.lastActuatorTick) >= ActuatorInterval {
		a.lastActuatorTick = now
		if _, err := a.act.Evaluate(now); err != nil {
			monitoring.Logf("actuator write failed: %v", err)
		}
	}

	if a.fresh && now.Sub(a.lastPublish) >= PublishInterval {
		a.lastPublish = now
		a.fresh = false // consumed exactly once, even if the publish fails
		m := transport.NewMeasurement(a.deviceID, a.latest, now)
		if err := a.trans.PublishMeasurement(m); err != nil {
			monitoring.Logf("failed to publish measurement: %v", err)
		}
	}

	a.trans.Housekeep(now)
}

// drainSerial routes every currently available input byte through the
// assembler and decoder. The per-iteration work is proportional to the
// backlog on purpose: no sensor byte is ever dropped to protect cadence;
// the timer-gated tasks absorb the jitter instead.
func (a *Agent) drainSerial() {
	for {
		n, err := a.port.Read(a.readBuf[:])
		if err != nil {
			monitoring.Logf("serial read error: %v", err)
			return
		}
		if n == 0 {
			return
		}
		for _, b := range a.readBuf[:n] {
			if a.asm.Feed(b) != pms.FrameComplete {
				continue
			}
			rec, err := pms.DecodeFrame(a.asm.Frame())
			if err != nil {
				// checksum mismatch: silent discard, resync continues
				continue
			}
			a.latest = rec
			a.fresh = true
			a.seen = true
		}
	}
}

// pumpCommands handles all queued inbound commands without blocking.
func (a *Agent) pumpCommands() {
	for {
		select {
		case cmd := <-a.trans.Commands():
			a.handleCommand(cmd)
		default:
			return
		}
	}
}

// handleCommand owns exactly one command type, the actuator update. Both
// parameters are required; a missing one yields a failure response and
// leaves the stored duty and period untouched. Other command types belong
// to other handlers and are ignored here.
func (a *Agent) handleCommand(cmd transport.Command) {
	if cmd.Type != transport.CommandBuzzer {
		monitoring.Logf("ignoring command %q of type %q", cmd.ID, cmd.Type)
		return
	}

	status := transport.StatusFailure
	if cmd.DutyCycle != nil && cmd.Period != nil {
		period := time.Duration(*cmd.Period * float64(time.Second))
		a.act.Update(*cmd.DutyCycle, period, a.clock.Now())
		status = transport.StatusSuccess
		monitoring.Logf("buzzer update: duty=%.2f period=%v", a.act.Duty(), a.act.Period())
	}

	if err := a.trans.PublishResponse(transport.Response{ID: cmd.ID, Status: status}); err != nil {
		monitoring.Logf("failed to publish command response: %v", err)
	}
}

// Latest returns the most recently decoded record and whether any record has
// been decoded yet.
func (a *Agent) Latest() (pms.Record, bool) {
	return a.latest, a.seen
}
