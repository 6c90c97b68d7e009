// Package simgpio is an in-memory core.GPIODriver for running the controller
// on a host without motor outputs. Every level change is logged at -v=3.
package simgpio

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"lorastep/core"
)

// Driver records output levels
type Driver struct {
	mu      sync.Mutex
	pins    map[core.GPIOPin]bool
	changes uint64
}

// New creates an empty Driver
func New() *Driver {
	return &Driver{pins: make(map[core.GPIOPin]bool)}
}

// ConfigureOutput implements core.GPIODriver.
func (d *Driver) ConfigureOutput(pin core.GPIOPin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pins[pin]; ok {
		return fmt.Errorf("pin %d already configured", pin)
	}
	d.pins[pin] = false
	return nil
}

// SetPin implements core.GPIODriver.
func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.pins[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured", pin)
	}
	if old != value {
		d.changes++
		glog.V(3).Infof("gpio: pin %d -> %v", pin, value)
	}
	d.pins[pin] = value
	return nil
}

// GetPin implements core.GPIODriver.
func (d *Driver) GetPin(pin core.GPIOPin) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.pins[pin]
	if !ok {
		return false, fmt.Errorf("pin %d not configured", pin)
	}
	return v, nil
}

// Changes returns how many level transitions were written
func (d *Driver) Changes() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changes
}
