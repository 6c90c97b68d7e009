package core

import "sync/atomic"

// CancelSignal is the shared "stop now" flag checked by the Sequencer.
// Set may be called from any goroutine; Clear belongs to the resume path.
type CancelSignal struct {
	v atomic.Bool
}

// Set requests that motion in progress stops at the next check
func (c *CancelSignal) Set() {
	c.v.Store(true)
}

// Clear withdraws the request
func (c *CancelSignal) Clear() {
	c.v.Store(false)
}

// IsSet reports whether a stop was requested
func (c *CancelSignal) IsSet() bool {
	return c.v.Load()
}
