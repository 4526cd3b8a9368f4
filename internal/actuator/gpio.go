package actuator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIODriver drives the buzzer and status LED pins through periph.io. Both
// pins always carry the same logical state.
type GPIODriver struct {
	buzzer gpio.PinIO
	led    gpio.PinIO
}

// NewGPIODriver initializes the host GPIO subsystem and claims the two pins
// by name (e.g. "GPIO18", "GPIO23"). Both pins are driven low on open.
func NewGPIODriver(buzzerPin, ledPin string) (*GPIODriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize gpio host: %w", err)
	}

	buzzer := gpioreg.ByName(buzzerPin)
	if buzzer == nil {
		return nil, fmt.Errorf("no such gpio pin %q", buzzerPin)
	}
	led := gpioreg.ByName(ledPin)
	if led == nil {
		return nil, fmt.Errorf("no such gpio pin %q", ledPin)
	}

	d := &GPIODriver{buzzer: buzzer, led: led}
	if err := d.Set(false); err != nil {
		return nil, err
	}
	return d, nil
}

// Set drives both pins to the given state.
func (d *GPIODriver) Set(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := d.buzzer.Out(level); err != nil {
		return fmt.Errorf("failed to drive buzzer pin: %w", err)
	}
	if err := d.led.Out(level); err != nil {
		return fmt.Errorf("failed to drive led pin: %w", err)
	}
	return nil
}

// Close drives both pins low and releases them.
func (d *GPIODriver) Close() error {
	return d.Set(false)
}

// NopDriver discards all output. It stands in for real hardware in dev mode
// and in tests that do not inspect the output.
type NopDriver struct{}

func (NopDriver) Set(bool) error { return nil }
func (NopDriver) Close() error   { return nil }
