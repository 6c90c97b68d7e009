package lora

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/golang/glog"

	"lorastep/protocol"
)

// Intake is the consumer side of the receive ring
type Intake interface {
	protocol.Intake
	Available() int
}

// Engine runs AT command/response exchanges over a serial line.
//
// The receive side is the ring buffer filled by the UART interrupt (or the host
// read pump); the transmit side is any io.Writer. Only one exchange may be in
// flight, and lines read outside an exchange belong to the Router.
type Engine struct {
	tx     io.Writer
	rx     Intake
	framer *protocol.LineFramer

	// now and yield are swapped in tests
	now   func() time.Time
	yield func()
}

// NewEngine creates an Engine writing to tx and reading from rx
func NewEngine(tx io.Writer, rx Intake) *Engine {
	return &Engine{
		tx:     tx,
		rx:     rx,
		framer: protocol.NewLineFramer(rx),
		now:    time.Now,
		yield:  runtime.Gosched,
	}
}

// ReadLine returns the next framed line, ErrNoLine when nothing is waiting,
// or ErrBufferOverflow when a corrupt line was discarded.
func (e *Engine) ReadLine() (string, error) {
	return e.framer.TryReadLine(MaxResponseLength)
}

// Pending returns the advisory count of unread receive bytes
func (e *Engine) Pending() int {
	return e.rx.Available()
}

// SendCommand writes cmd and waits up to timeout for the next response line.
//
// Stale receive data is discarded first. The wait polls without sleeping; each
// iteration yields the scheduler once, which bounds how late a timeout can be
// reported. An error line returns *RejectedError, no line returns ErrTimeout,
// and any other line (acknowledgment or query data) is returned as is.
func (e *Engine) SendCommand(cmd string, timeout time.Duration) (string, error) {
	e.rx.Reset()

	glog.V(2).Infof("lora: TX %q", cmd)
	if _, err := io.WriteString(e.tx, cmd+Terminator); err != nil {
		return "", fmt.Errorf("write %q: %w", cmd, err)
	}

	deadline := e.now().Add(timeout)
	for e.now().Before(deadline) {
		line, err := e.ReadLine()
		switch err {
		case nil:
			glog.V(2).Infof("lora: RX %q", line)
			if isErrorLine(line) {
				return line, newRejectedError(line)
			}
			return line, nil
		case protocol.ErrBufferOverflow:
			glog.Warningf("lora: receive overflow while waiting for %q, line dropped", cmd)
		}
		e.yield()
	}
	return "", ErrTimeout
}

// SendExpectOK runs a command whose only valid answer is an acknowledgment
func (e *Engine) SendExpectOK(cmd string, timeout time.Duration) error {
	line, err := e.SendCommand(cmd, timeout)
	if err != nil {
		return err
	}
	if !IsOK(line) {
		return fmt.Errorf("%s: %w (%q)", cmd, ErrNoAck, line)
	}
	return nil
}

func isErrorLine(line string) bool {
	return strings.Contains(line, MarkerErr) || strings.Contains(line, MarkerError)
}

// IsOK reports whether line is a success acknowledgment
func IsOK(line string) bool {
	if isErrorLine(line) {
		return false
	}
	return strings.Contains(line, MarkerOK)
}
