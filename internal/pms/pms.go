// Package pms decodes the binary output stream of Plantower PMS5003-family
// particulate matter sensors.
//
// The sensor emits fixed 32-byte frames on a 9600 8N1 serial link. Each frame
// starts with the two marker bytes 0x42 0x4D ("BM"), carries twelve big-endian
// 16-bit measurement fields plus a version and error byte, and ends with a
// 16-bit additive checksum over the first 30 bytes. The stream is unframed at
// the transport level: frames can begin at any byte offset, so the decoder
// resynchronizes on the marker sequence after any corruption.
package pms

import "errors"

// Fixed protocol parameters. These are properties of the sensor hardware and
// are not runtime-configurable.
const (
	Marker1 = 0x42 // first frame marker byte ('B')
	Marker2 = 0x4D // second frame marker byte ('M')

	FrameLen   = 32 // total frame length in bytes
	PayloadLen = 30 // bytes covered by the checksum (markers through error code)

	// BaudRate is the fixed serial link speed of the sensor.
	BaudRate = 9600
)

var (
	// ErrBadChecksum reports a frame whose trailing checksum does not match
	// the additive sum of its payload bytes.
	ErrBadChecksum = errors.New("pms: frame checksum mismatch")

	// ErrShortFrame reports a decode attempt on fewer than FrameLen bytes.
	ErrShortFrame = errors.New("pms: short frame")

	// ErrBadMarker reports a frame that does not begin with the marker bytes.
	ErrBadMarker = errors.New("pms: missing frame marker")
)

// Record is a decoded measurement frame. All concentration fields are in
// µg/m³; particle count fields are counts per 0.1L of air in ascending size
// bins. Records are immutable snapshots: each successful decode produces a
// new Record and never mutates a prior one.
type Record struct {
	// Mass concentrations under the factory calibration (CF=1).
	PM1CF1  uint16
	PM25CF1 uint16
	PM10CF1 uint16

	// Mass concentrations under atmospheric environment calibration.
	PM1Atm  uint16
	PM25Atm uint16
	PM10Atm uint16

	// Particle counts per 0.1L for particles larger than 0.3, 0.5, 1.0,
	// 2.5, 5.0 and 10 µm respectively.
	Particles03  uint16
	Particles05  uint16
	Particles10  uint16
	Particles25  uint16
	Particles50  uint16
	Particles100 uint16

	Version   uint8
	ErrorCode uint8
}

// be16 reads a big-endian 16-bit value at offset i.
func be16(b []byte, i int) uint16 {
	return uint16(b[i])<<8 | uint16(b[i+1])
}

// Checksum computes the 16-bit additive checksum over the first PayloadLen
// bytes of b. The uint16 accumulator gives the mod-65536 wraparound for free.
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b[:PayloadLen] {
		sum += uint16(v)
	}
	return sum
}

// DecodeFrame validates a complete 32-byte frame and extracts its fields.
// The frame length field at offsets 2-3 is informational only and is not
// checked against the fixed frame size. Rejected frames yield no partial
// record.
func DecodeFrame(b []byte) (Record, error) {
	if len(b) < FrameLen {
		return Record{}, ErrShortFrame
	}
	if b[0] != Marker1 || b[1] != Marker2 {
		return Record{}, ErrBadMarker
	}
	if Checksum(b) != be16(b, 30) {
		return Record{}, ErrBadChecksum
	}

	return Record{
		PM1CF1:  be16(b, 4),
		PM25CF1: be16(b, 6),
		PM10CF1: be16(b, 8),

		PM1Atm:  be16(b, 10),
		PM25Atm: be16(b, 12),
		PM10Atm: be16(b, 14),

		Particles03:  be16(b, 16),
		Particles05:  be16(b, 18),
		Particles10:  be16(b, 20),
		Particles25:  be16(b, 22),
		Particles50:  be16(b, 24),
		Particles100: be16(b, 26),

		Version:   b[28],
		ErrorCode: b[29],
	}, nil
}
