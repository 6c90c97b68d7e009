package protocol

import "errors"

var (
	// ErrNoLine is returned by TryReadLine when no bytes are waiting
	ErrNoLine = errors.New("no line available")

	// ErrBufferOverflow indicates the receive ring dropped bytes. The line that
	// was being assembled is corrupt and has been discarded.
	ErrBufferOverflow = errors.New("receive buffer overflow")
)
