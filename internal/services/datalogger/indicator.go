package datalogger

import (
	"periph.io/x/conn/v3/gpio"
)

// Indicator is the single binary output visible to a field operator:
// solid-on while the startup self-test runs (and latched on after a fatal
// halt), off in steady state, pulsed on a failed write.
type Indicator interface {
	Set(on bool)
}

// LEDIndicator drives a GPIO pin.
type LEDIndicator struct {
	pin gpio.PinIO
}

func NewLEDIndicator(pin gpio.PinIO) *LEDIndicator {
	return &LEDIndicator{pin: pin}
}

func (l *LEDIndicator) Set(on bool) {
	// The pin level is the indicator's only state; a failed write here
	// has no recovery path and no observer beyond the LED itself.
	_ = l.pin.Out(gpio.Level(on))
}
