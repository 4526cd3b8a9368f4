package serialport

import (
	"sync"
	"time"
)

// ScriptedPort implements Porter with configurable behaviour for testing.
// Bytes queued with Inject become available to Read; an empty queue returns
// (0, nil) like a real port hitting its read timeout.
type ScriptedPort struct {
	mu sync.Mutex

	pending []byte

	// ChunkSize caps how many bytes a single Read returns, to exercise
	// partial reads. Zero means no cap.
	ChunkSize int

	// ReadErr is returned by the next Read call if set.
	ReadErr error

	// CloseErr is returned by Close if set.
	CloseErr error

	closed bool
}

// NewScriptedPort returns an empty ScriptedPort.
func NewScriptedPort() *ScriptedPort {
	return &ScriptedPort{}
}

// Inject queues bytes for subsequent Read calls.
func (p *ScriptedPort) Inject(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, b...)
}

// Read drains queued bytes without blocking.
func (p *ScriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ReadErr != nil {
		err := p.ReadErr
		p.ReadErr = nil
		return 0, err
	}

	n := copy(b, p.pending)
	if p.ChunkSize > 0 && n > p.ChunkSize {
		n = p.ChunkSize
		copy(b, p.pending[:n])
	}
	p.pending = p.pending[n:]
	return n, nil
}

// Close marks the port closed.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.CloseErr
}

// Closed reports whether Close has been called.
func (p *ScriptedPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ReplayPort implements Porter by replaying a fixed byte sequence on a
// cadence, simulating a live sensor for dev mode. The sequence is typically
// one valid frame, re-emitted once per interval.
type ReplayPort struct {
	mu       sync.Mutex
	frame    []byte
	interval time.Duration
	last     time.Time
	buffered []byte
}

// NewReplayPort returns a ReplayPort that makes frame available once per
// interval.
func NewReplayPort(frame []byte, interval time.Duration) *ReplayPort {
	return &ReplayPort{
		frame:    append([]byte(nil), frame...),
		interval: interval,
	}
}

// Read returns any due replay bytes, or (0, nil) when nothing is due yet.
func (p *ReplayPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if len(p.buffered) == 0 && now.Sub(p.last) >= p.interval {
		p.buffered = append(p.buffered, p.frame...)
		p.last = now
	}

	n := copy(b, p.buffered)
	p.buffered = p.buffered[n:]
	if n == 0 {
		// behave like a real port's read timeout rather than spinning
		time.Sleep(time.Millisecond)
	}
	return n, nil
}

// Close is a no-op for the replay port.
func (p *ReplayPort) Close() error { return nil }
