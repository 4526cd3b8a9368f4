// Package serialport abstracts the sensor's serial link behind a minimal
// byte-stream interface so the decoding pipeline can run against real
// hardware, a scripted test port, or a canned dev-mode replay.
package serialport

import (
	"fmt"
	"io"
	"time"
)

// Porter is the minimal interface the agent needs from a serial port. Read
// must not block indefinitely: a port with no pending bytes returns (0, nil)
// after its read timeout so the scheduler loop keeps turning.
type Porter interface {
	io.ReadCloser
}

// Options describes the serial connection parameters used when opening a
// real port.
type Options struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`

	// ReadTimeout bounds a single Read call so an idle sensor cannot stall
	// the scheduler loop.
	ReadTimeout time.Duration `json:"-"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: must be 1 or 2", opts.StopBits)
	}

	switch opts.Parity {
	case "":
		opts.Parity = "none"
	case "none", "odd", "even":
	default:
		return opts, fmt.Errorf("invalid parity %q: must be none, odd or even", opts.Parity)
	}

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 5 * time.Millisecond
	}

	return opts, nil
}
