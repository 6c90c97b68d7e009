//go:build !tinygo

package protocol

// State is the saved interrupt mask; there is nothing to save on a hosted OS
type State uintptr

// disableInterrupts is a no-op off-target. The host read pump is a goroutine,
// and RingBuffer index ownership already keeps it safe.
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op off-target
func restoreInterrupts(State) {}
