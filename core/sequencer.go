package core

import (
	"math"
	"time"
)

const (
	// DefaultStepsPerRevolution is a 28BYJ-48 geared motor in half-step mode
	DefaultStepsPerRevolution = 4096

	// SliceDuration bounds how long a stop request can go unnoticed
	SliceDuration = time.Millisecond
)

// Sequencer drives a set of actuators in lock-step.
//
// All methods except Cancel and Cancelled must be called from one goroutine.
// A step is indivisible: once started, every enabled actuator advances. The
// inter-step delay is cut into slices, and Signal is checked before every step
// and every slice, so Cancel takes effect within one SliceDuration.
type Sequencer struct {
	Actuators          []*Actuator
	StepsPerRevolution int
	Signal             *CancelSignal
	Sleeper            Sleeper

	// SliceHook runs after every delay slice. It may call Cancel or
	// EmergencyStopAll but must not start motion.
	SliceHook func()
}

// NewSequencer creates a Sequencer over actuators with default settings
func NewSequencer(actuators ...*Actuator) *Sequencer {
	return &Sequencer{
		Actuators:          actuators,
		StepsPerRevolution: DefaultStepsPerRevolution,
		Signal:             new(CancelSignal),
		Sleeper:            SystemSleeper,
	}
}

// StepsFor converts an angle in degrees into phase advances.
// Negative and NaN angles give no steps.
func (s *Sequencer) StepsFor(angle float64) uint {
	if math.IsNaN(angle) || angle <= 0 {
		return 0
	}
	return uint(angle / 360 * float64(s.StepsPerRevolution))
}

// AdvanceAll rotates every enabled actuator by angle degrees in dir.
// Returns false when cancelled, leaving each actuator at its last phase.
func (s *Sequencer) AdvanceAll(angle float64, dir Direction) bool {
	steps := s.StepsFor(angle)
	for i := uint(0); i < steps; i++ {
		if s.Cancelled() {
			return false
		}
		var interval time.Duration
		for _, a := range s.Actuators {
			if !a.Enabled {
				continue
			}
			a.advance(dir)
			if interval == 0 {
				interval = a.StepInterval
			}
		}
		if !s.wait(interval) {
			return false
		}
	}
	return true
}

// MoveSteps advances a single actuator by steps phases in dir.
// Returns false when cancelled.
func (s *Sequencer) MoveSteps(a *Actuator, steps uint, dir Direction) bool {
	for i := uint(0); i < steps; i++ {
		if s.Cancelled() {
			return false
		}
		if !a.Enabled {
			return true
		}
		a.advance(dir)
		if !s.wait(a.StepInterval) {
			return false
		}
	}
	return true
}

// RotateDegrees turns one actuator by angle. Disabled actuators do not move.
func (s *Sequencer) RotateDegrees(a *Actuator, angle float64, dir Direction) bool {
	if a == nil || !a.Enabled {
		return true
	}
	return s.MoveSteps(a, s.StepsFor(angle), dir)
}

// Sweep turns every enabled actuator clockwise by angle, pauses, then turns
// them back. It stops early and returns false once the signal is set.
func (s *Sequencer) Sweep(angle float64, pause time.Duration) bool {
	if !s.AdvanceAll(angle, Clockwise) {
		return false
	}
	if !s.wait(pause) {
		return false
	}
	return s.AdvanceAll(angle, CounterClockwise)
}

// wait sleeps d in slices, returning false as soon as the signal is set
func (s *Sequencer) wait(d time.Duration) bool {
	for d > 0 {
		if s.Cancelled() {
			return false
		}
		slice := d
		if slice > SliceDuration {
			slice = SliceDuration
		}
		s.Sleeper.Sleep(slice)
		d -= slice
		if s.SliceHook != nil {
			s.SliceHook()
		}
	}
	return true
}

// EmergencyStopAll drives every output low and disables every actuator.
// It does not touch Signal; pair it with Cancel to abort motion in progress.
func (s *Sequencer) EmergencyStopAll() {
	for _, a := range s.Actuators {
		a.Disable()
	}
}

// Resume enables every actuator at its stored phase and clears the signal
func (s *Sequencer) Resume() {
	for _, a := range s.Actuators {
		a.Enable()
	}
	s.Signal.Clear()
}

// Cancel requests that motion in progress stops. Safe from any goroutine.
func (s *Sequencer) Cancel() {
	s.Signal.Set()
}

// Cancelled reports whether a stop is pending. Safe from any goroutine.
func (s *Sequencer) Cancelled() bool {
	return s.Signal.IsSet()
}

// Enable energizes actuator i
func (s *Sequencer) Enable(i int) bool {
	a := s.actuator(i)
	if a == nil {
		return false
	}
	a.Enable()
	return true
}

// Disable de-energizes actuator i
func (s *Sequencer) Disable(i int) bool {
	a := s.actuator(i)
	if a == nil {
		return false
	}
	a.Disable()
	return true
}

// SetInterval changes the step interval of actuator i
func (s *Sequencer) SetInterval(i int, d time.Duration) bool {
	a := s.actuator(i)
	if a == nil {
		return false
	}
	a.SetInterval(d)
	return true
}

// Position returns the signed phase-advance count of actuator i
func (s *Sequencer) Position(i int) (int64, bool) {
	a := s.actuator(i)
	if a == nil {
		return 0, false
	}
	return a.Position, true
}

// AnyEnabled reports whether at least one actuator is energized
func (s *Sequencer) AnyEnabled() bool {
	for _, a := range s.Actuators {
		if a.Enabled {
			return true
		}
	}
	return false
}

func (s *Sequencer) actuator(i int) *Actuator {
	if i < 0 || i >= len(s.Actuators) {
		return nil
	}
	return s.Actuators[i]
}
