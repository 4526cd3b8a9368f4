package pms

// FeedResult reports the outcome of offering one byte to the Assembler.
type FeedResult int

const (
	// ByteAbsorbed means the byte was stored (or matched a marker) and more
	// bytes are needed to complete the frame.
	ByteAbsorbed FeedResult = iota
	// ByteRejected means the byte did not fit the expected marker sequence
	// and was dropped; scanning restarts at the next byte.
	ByteRejected
	// FrameComplete means the byte completed a full 32-byte frame. The
	// caller must consume Frame before the next call to Feed.
	FrameComplete
)

// ResyncPolicy selects how the Assembler treats the byte that breaks an
// expected marker sequence.
type ResyncPolicy int

const (
	// DropMismatchedByte discards the byte that failed the second-marker
	// check outright. A stream containing marker1, marker1, marker2 loses
	// the first marker1 and misses the frame start. This matches the
	// sensor firmware's long-observed behavior and is the default.
	DropMismatchedByte ResyncPolicy = iota

	// ReconsiderMismatchedByte re-examines the mismatched byte as a
	// candidate first marker, so marker1, marker1, marker2 correctly
	// begins a frame at the second marker1.
	ReconsiderMismatchedByte
)

// Assembler accumulates an unbounded byte stream into 32-byte frames. It owns
// a single fixed frame buffer; a frame is either fully accumulated or
// abandoned, never partially reused across scans.
type Assembler struct {
	buf    [FrameLen]byte
	n      int
	policy ResyncPolicy
}

// NewAssembler returns an Assembler with the given resync policy.
func NewAssembler(policy ResyncPolicy) *Assembler {
	return &Assembler{policy: policy}
}

// Feed offers one byte from the stream. When it returns FrameComplete the
// accumulated frame is available from Frame; the assembler resets itself so
// the following Feed starts scanning for the next frame regardless of whether
// the completed frame decodes successfully.
func (a *Assembler) Feed(b byte) FeedResult {
	switch {
	case a.n == 0:
		if b != Marker1 {
			return ByteRejected
		}
		a.buf[0] = b
		a.n = 1
		return ByteAbsorbed

	case a.n == 1:
		if b != Marker2 {
			a.n = 0
			if a.policy == ReconsiderMismatchedByte {
				return a.Feed(b)
			}
			return ByteRejected
		}
		a.buf[1] = b
		a.n = 2
		return ByteAbsorbed

	default:
		a.buf[a.n] = b
		a.n++
		if a.n < FrameLen {
			return ByteAbsorbed
		}
		a.n = 0
		return FrameComplete
	}
}

// Frame returns the most recently completed frame. Valid only immediately
// after Feed returned FrameComplete; the contents are overwritten as soon as
// accumulation of the next frame begins.
func (a *Assembler) Frame() []byte {
	return a.buf[:]
}

// Reset abandons any partially accumulated frame.
func (a *Assembler) Reset() {
	a.n = 0
}

// Pending returns the number of bytes accumulated toward the current frame.
func (a *Assembler) Pending() int {
	return a.n
}
