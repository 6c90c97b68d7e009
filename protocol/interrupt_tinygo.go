//go:build tinygo

package protocol

import "runtime/interrupt"

// disableInterrupts masks the UART receive interrupt for a short critical section
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the mask saved by disableInterrupts
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
