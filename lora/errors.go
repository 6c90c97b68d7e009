package lora

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lorastep/protocol"
)

var (
	// ErrTimeout indicates no response line arrived before the deadline. The
	// modem is unpowered, miswired or running at a different baud rate.
	ErrTimeout = errors.New("command timeout")

	// ErrRejected indicates the modem answered with an error line
	ErrRejected = errors.New("command rejected")

	// ErrNoAck indicates a data line arrived where an acknowledgment was expected
	ErrNoAck = errors.New("response is not an acknowledgment")

	// ErrMalformed indicates a notification that does not have the +RCV shape
	ErrMalformed = errors.New("malformed notification")

	// ErrInvalidParam indicates an argument outside what the modem accepts
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrNotInitialized indicates Init has not completed
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrDutyCycle indicates a transmission was refused by the send limiter
	ErrDutyCycle = errors.New("transmit duty cycle exceeded")

	// ErrBufferOverflow is re-exported so callers need not import protocol
	ErrBufferOverflow = protocol.ErrBufferOverflow
)

// RejectedError carries the modem's error line and its reason code.
// Code is -1 when the line has no +ERR=<n> suffix.
type RejectedError struct {
	Line string
	Code int
}

func newRejectedError(line string) *RejectedError {
	e := &RejectedError{Line: line, Code: -1}
	if i := strings.Index(line, PrefixErrArg); i >= 0 {
		if code, err := strconv.Atoi(strings.TrimSpace(line[i+len(PrefixErrArg):])); err == nil {
			e.Code = code
		}
	}
	return e
}

// Error implements error.
func (e *RejectedError) Error() string {
	if e.Code >= 0 {
		return fmt.Sprintf("command rejected: code %d", e.Code)
	}
	return fmt.Sprintf("command rejected: %q", e.Line)
}

// Is lets errors.Is match ErrRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}
