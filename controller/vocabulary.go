package controller

import (
	"errors"
	"strings"
)

// Replies sent back to the commanding node
const (
	ReplyOn      = "STEPPERS_ON"
	ReplyOff     = "STEPPERS_OFF"
	ReplyUnknown = "UNKNOWN_COMMAND"

	// ReadyMessage is broadcast once the link is up
	ReadyMessage = "STEPPER_CONTROLLER_READY"
)

// ErrUnknownCommand indicates a payload outside the command vocabulary
var ErrUnknownCommand = errors.New("unknown command")

// Command is the meaning of a received payload
type Command int

const (
	CommandUnknown Command = iota
	CommandActivate
	CommandDeactivate
)

var (
	activateTokens   = []string{"ON", "START", "MOVE", "1"}
	deactivateTokens = []string{"OFF", "STOP", "HALT", "0"}
)

func matchAny(payload string, tokens []string) bool {
	for _, t := range tokens {
		if strings.EqualFold(payload, t) {
			return true
		}
	}
	return false
}

// IsActivate reports whether payload starts motion
func IsActivate(payload string) bool {
	return matchAny(payload, activateTokens)
}

// IsDeactivate reports whether payload stops motion
func IsDeactivate(payload string) bool {
	return matchAny(payload, deactivateTokens)
}

// Classify maps a payload onto the command vocabulary. Matching is
// case-insensitive and exact; surrounding whitespace is not trimmed.
func Classify(payload string) (Command, error) {
	switch {
	case IsActivate(payload):
		return CommandActivate, nil
	case IsDeactivate(payload):
		return CommandDeactivate, nil
	}
	return CommandUnknown, ErrUnknownCommand
}

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c {
	case CommandActivate:
		return "activate"
	case CommandDeactivate:
		return "deactivate"
	}
	return "unknown"
}
