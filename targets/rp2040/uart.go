//go:build rp2040

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"

	"lorastep/protocol"
)

// The RYLR998 sits on UART1
const (
	loraTXPin = 4
	loraRXPin = 5
)

var loraUART = machine.UART1

// configureUART (re)starts the modem UART at baud
func configureUART(baud int) error {
	return loraUART.Configure(machine.UARTConfig{
		BaudRate: uint32(baud),
		TX:       machine.Pin(loraTXPin),
		RX:       machine.Pin(loraRXPin),
	})
}

// uartPump moves bytes from the UART driver buffer into the receive ring.
// It is the only producer of ring. Overflow is left for the framer to report.
func uartPump(u drivers.UART, ring *protocol.RingBuffer) {
	var buf [32]byte
	for {
		if u.Buffered() == 0 {
			// Yield to avoid a busy loop
			time.Sleep(100 * time.Microsecond)
			continue
		}
		n, err := u.Read(buf[:])
		if err != nil {
			rxErrors++
			time.Sleep(1 * time.Millisecond)
			continue
		}
		for _, b := range buf[:n] {
			ring.Push(b)
		}
	}
}
