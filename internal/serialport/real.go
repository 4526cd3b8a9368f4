package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

// realPort wraps a go.bug.st serial port with the read timeout applied at
// open time.
type realPort struct {
	serial.Port
}

// Open opens the serial device at path with the given options. The returned
// port honors Options.ReadTimeout: Read returns (0, nil) when no bytes
// arrive within the timeout, which is what lets the agent drain "all
// currently available" bytes per scheduler iteration without blocking.
func Open(path string, opts Options) (Porter, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	switch opts.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &realPort{Port: port}, nil
}
