package agent

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airmon-data/airmon/internal/actuator"
	"github.com/airmon-data/airmon/internal/pms"
	"github.com/airmon-data/airmon/internal/serialport"
	"github.com/airmon-data/airmon/internal/timeutil"
	"github.com/airmon-data/airmon/internal/transport"
)

// fakeTransport records everything the agent publishes and lets tests queue
// inbound commands.
type fakeTransport struct {
	measurements []transport.Measurement
	statuses     []string
	responses    []transport.Response
	commands     chan transport.Command
	housekeeps   int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{commands: make(chan transport.Command, 8)}
}

func (f *fakeTransport) Housekeep(time.Time) { f.housekeeps++ }
func (f *fakeTransport) Connected() bool     { return true }

func (f *fakeTransport) PublishMeasurement(m transport.Measurement) error {
	f.measurements = append(f.measurements, m)
	return nil
}

func (f *fakeTransport) PublishStatus(status string, _ time.Time) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeTransport) PublishResponse(r transport.Response) error {
	f.responses = append(f.responses, r)
	return nil
}

func (f *fakeTransport) Commands() <-chan transport.Command { return f.commands }
func (f *fakeTransport) Close() error                       { return nil }

// makeFrame builds a valid sensor frame whose PM10 (atmospheric) field is
// set to the given value, so individual frames are distinguishable.
func makeFrame(pm10Atm uint16) []byte {
	b := make([]byte, pms.FrameLen)
	b[0] = pms.Marker1
	b[1] = pms.Marker2
	b[3] = 28
	b[14] = byte(pm10Atm >> 8)
	b[15] = byte(pm10Atm)
	sum := pms.Checksum(b)
	b[30] = byte(sum >> 8)
	b[31] = byte(sum)
	return b
}

type fixture struct {
	agent *Agent
	port  *serialport.ScriptedPort
	trans *fakeTransport
	clock *timeutil.MockClock
	act   *actuator.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	port := serialport.NewScriptedPort()
	trans := newFakeTransport()
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	act := actuator.New(actuator.NopDriver{})
	a := New(Config{
		Port:     port,
		Actuator: act,
		Trans:    trans,
		Clock:    clock,
		DeviceID: "sensor-01",
	})
	return &fixture{agent: a, port: port, trans: trans, clock: clock, act: act}
}

func TestEndToEndSkipsCorruptFrame(t *testing.T) {
	f := newFixture(t)

	frameA := makeFrame(42)
	frameB := makeFrame(99)
	frameB[30] ^= 0x5A // corrupt checksum
	frameC := makeFrame(77)

	f.port.Inject(frameA)
	f.agent.Step()
	f.clock.Advance(150 * time.Millisecond)

	f.port.Inject(frameB)
	f.port.Inject(frameC)
	f.agent.Step()

	require.Len(t, f.trans.measurements, 2)
	assert.Equal(t, uint16(42), f.trans.measurements[0].PM10Atm)
	assert.Equal(t, uint16(77), f.trans.measurements[1].PM10Atm)
}

func TestPublishRequiresFreshRecord(t *testing.T) {
	f := newFixture(t)

	f.port.Inject(makeFrame(10))
	f.agent.Step()
	require.Len(t, f.trans.measurements, 1)

	// Plenty of time passes but no new frame arrives: the fresh flag was
	// consumed, so nothing further is published.
	for i := 0; i < 5; i++ {
		f.clock.Advance(200 * time.Millisecond)
		f.agent.Step()
	}
	assert.Len(t, f.trans.measurements, 1)
}

func TestPublishCadenceGating(t *testing.T) {
	f := newFixture(t)

	f.port.Inject(makeFrame(1))
	f.agent.Step()
	require.Len(t, f.trans.measurements, 1)

	// A fresh record inside the 100ms window is held, not dropped.
	f.clock.Advance(30 * time.Millisecond)
	f.port.Inject(makeFrame(2))
	f.agent.Step()
	assert.Len(t, f.trans.measurements, 1)

	// Once the window elapses the held record goes out.
	f.clock.Advance(80 * time.Millisecond)
	f.agent.Step()
	require.Len(t, f.trans.measurements, 2)
	assert.Equal(t, uint16(2), f.trans.measurements[1].PM10Atm)
}

func TestLatestSlotOverwrites(t *testing.T) {
	f := newFixture(t)

	// Two frames drained in the same iteration: only the newest survives
	// in the slot and only it is published.
	f.port.Inject(makeFrame(5))
	f.port.Inject(makeFrame(6))
	f.agent.Step()

	require.Len(t, f.trans.measurements, 1)
	assert.Equal(t, uint16(6), f.trans.measurements[0].PM10Atm)

	rec, ok := f.agent.Latest()
	require.True(t, ok)
	assert.Equal(t, uint16(6), rec.PM10Atm)
}

func TestActuatorTickGating(t *testing.T) {
	f := newFixture(t)
	base := f.clock.Now()
	f.act.Update(0.5, time.Second, base)

	// First step evaluates (lastActuatorTick is zero).
	f.agent.Step()
	first := f.agent.lastActuatorTick

	// 3ms later: inside the 10ms window, no re-evaluation.
	f.clock.Advance(3 * time.Millisecond)
	f.agent.Step()
	assert.Equal(t, first, f.agent.lastActuatorTick)

	// 10ms after the first tick: re-evaluated.
	f.clock.Advance(7 * time.Millisecond)
	f.agent.Step()
	assert.NotEqual(t, first, f.agent.lastActuatorTick)
}

func TestBuzzerCommandLifecycle(t *testing.T) {
	f := newFixture(t)
	duty := 0.25
	period := 2.0

	f.trans.commands <- transport.Command{
		ID:        "cmd-1",
		Type:      transport.CommandBuzzer,
		DutyCycle: &duty,
		Period:    &period,
	}
	f.agent.Step()

	require.Len(t, f.trans.responses, 1)
	want := transport.Response{ID: "cmd-1", Status: transport.StatusSuccess}
	if diff := cmp.Diff(want, f.trans.responses[0]); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.25, f.act.Duty())
	assert.Equal(t, 2*time.Second, f.act.Period())
}

func TestBuzzerCommandMissingParameter(t *testing.T) {
	f := newFixture(t)
	f.act.Update(0.5, time.Second, f.clock.Now())

	duty := 0.9
	f.trans.commands <- transport.Command{
		ID:        "cmd-2",
		Type:      transport.CommandBuzzer,
		DutyCycle: &duty,
		// Period deliberately missing.
	}
	f.agent.Step()

	require.Len(t, f.trans.responses, 1)
	assert.Equal(t, transport.StatusFailure, f.trans.responses[0].Status)
	assert.Equal(t, "cmd-2", f.trans.responses[0].ID)

	// Stored parameters are untouched.
	assert.Equal(t, 0.5, f.act.Duty())
	assert.Equal(t, time.Second, f.act.Period())
}

func TestBuzzerCommandClampsParameters(t *testing.T) {
	f := newFixture(t)
	duty := 1.5
	period := 0.001

	f.trans.commands <- transport.Command{
		ID: "cmd-3", Type: transport.CommandBuzzer,
		DutyCycle: &duty, Period: &period,
	}
	f.agent.Step()

	require.Len(t, f.trans.responses, 1)
	assert.Equal(t, transport.StatusSuccess, f.trans.responses[0].Status)
	assert.Equal(t, 1.0, f.act.Duty())
	assert.Equal(t, actuator.MinPeriod, f.act.Period())
}

func TestUnknownCommandTypeIgnored(t *testing.T) {
	f := newFixture(t)

	f.trans.commands <- transport.Command{ID: "cmd-4", Type: "reboot"}
	f.agent.Step()

	assert.Empty(t, f.trans.responses)
}

func TestHousekeepRunsEveryIteration(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.agent.Step()
		f.clock.Advance(time.Millisecond)
	}
	assert.Equal(t, 7, f.trans.housekeeps)
}

func TestFrameSplitAcrossReads(t *testing.T) {
	f := newFixture(t)
	f.port.ChunkSize = 7 // force partial reads

	f.port.Inject(makeFrame(33))
	f.agent.Step()

	require.Len(t, f.trans.measurements, 1)
	assert.Equal(t, uint16(33), f.trans.measurements[0].PM10Atm)
}
