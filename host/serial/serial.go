package serial

import (
	"io"
	"time"

	"lorastep/lora"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Opener opens a Port for a configuration
type Opener func(cfg *Config) (Port, error)

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate (the RYLR998 ships at 9600 but is often reconfigured)
	Baud int

	// Read timeout; the read pump wakes this often to check for shutdown
	ReadTimeout time.Duration
}

// DefaultConfig returns a default configuration for the modem
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        lora.DefaultBaudRate,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// WithBaud returns a copy of c using baud
func (c *Config) WithBaud(baud int) *Config {
	cp := *c
	cp.Baud = baud
	return &cp
}
