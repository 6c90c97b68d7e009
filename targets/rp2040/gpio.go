//go:build rp2040

package main

import (
	"machine"

	"lorastep/core"
)

// RPGPIODriver implements the GPIODriver interface for RP2040
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output, driven low
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	// Check if already configured
	if _, exists := d.configuredPins[pin]; exists {
		// Already configured, this is OK
		return nil
	}

	// RP2040 has GPIO0-GPIO29; the LoRa UART owns GPIO4/5
	if pin > 29 || pin == loraTXPin || pin == loraRXPin {
		return errPinUnavailable
	}

	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machinePin.Low()

	// Track configured pin
	d.configuredPins[pin] = machinePin

	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errPinUnavailable
	}

	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		// Pin not configured
		return false, errPinUnavailable
	}

	return machinePin.Get(), nil
}
