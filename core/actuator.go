package core

import (
	"errors"
	"time"
)

// PhaseCount is the length of the half-step pattern
const PhaseCount = 8

// DefaultStepInterval is the delay between two phase advances
const DefaultStepInterval = time.Millisecond

// halfStep is the 4-wire half-step sequence for a unipolar stepper driven
// through a ULN2003 style array. Row i is the output pattern of phase i.
var halfStep = [PhaseCount][4]bool{
	{true, false, false, false},
	{true, true, false, false},
	{false, true, false, false},
	{false, true, true, false},
	{false, false, true, false},
	{false, false, true, true},
	{false, false, false, true},
	{true, false, false, true},
}

// PhasePattern returns the four output levels of phase p
func PhasePattern(p int) [4]bool {
	return halfStep[((p%PhaseCount)+PhaseCount)%PhaseCount]
}

// Direction of a phase advance
type Direction int8

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d < 0 {
		return "ccw"
	}
	return "cw"
}

var errDuplicatePin = errors.New("actuator pins must be distinct")

// Actuator is one 4-wire stepper motor.
//
// Enabled actuators hold their current phase on the outputs; disabled ones
// have all four outputs low. Phase is always in [0, PhaseCount).
type Actuator struct {
	Pins         [4]GPIOPin
	Enabled      bool
	Phase        int
	StepInterval time.Duration

	// Position counts phase advances since creation, signed by direction
	Position int64

	driver GPIODriver
}

// NewActuator configures the four pins as outputs and returns an enabled
// actuator at phase 0. A nil driver selects the registered one.
func NewActuator(d GPIODriver, pins [4]GPIOPin, interval time.Duration) (*Actuator, error) {
	if d == nil {
		d = MustGPIO()
	}
	for i := range pins {
		for j := i + 1; j < len(pins); j++ {
			if pins[i] == pins[j] {
				return nil, errDuplicatePin
			}
		}
	}
	if interval <= 0 {
		interval = DefaultStepInterval
	}

	a := &Actuator{
		Pins:         pins,
		Enabled:      true,
		StepInterval: interval,
		driver:       d,
	}
	for _, pin := range pins {
		if err := d.ConfigureOutput(pin); err != nil {
			return nil, err
		}
	}
	a.apply()
	return a, nil
}

// apply writes the pattern of the current phase to all four outputs
func (a *Actuator) apply() {
	pattern := halfStep[a.Phase]
	for i, pin := range a.Pins {
		a.driver.SetPin(pin, pattern[i])
	}
}

// release drives all four outputs low
func (a *Actuator) release() {
	for _, pin := range a.Pins {
		a.driver.SetPin(pin, false)
	}
}

// advance moves one phase in dir and applies it
func (a *Actuator) advance(dir Direction) {
	if dir < 0 {
		a.Phase = (a.Phase + PhaseCount - 1) % PhaseCount
		a.Position--
	} else {
		a.Phase = (a.Phase + 1) % PhaseCount
		a.Position++
	}
	a.apply()
}

// Enable energizes the coils at the stored phase
func (a *Actuator) Enable() {
	a.Enabled = true
	a.apply()
}

// Disable de-energizes the coils. The phase is kept so motion resumes from it.
func (a *Actuator) Disable() {
	a.Enabled = false
	a.release()
}

// SetInterval changes the delay between phase advances
func (a *Actuator) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultStepInterval
	}
	a.StepInterval = d
}

// Outputs reads back the four output levels
func (a *Actuator) Outputs() [4]bool {
	var out [4]bool
	for i, pin := range a.Pins {
		out[i], _ = a.driver.GetPin(pin)
	}
	return out
}
