package serial

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	"lorastep/protocol"
)

// Pump copies bytes from a serial reader into a receive ring.
//
// It is the host stand-in for the UART receive interrupt: the only producer of
// the ring. Bytes that do not fit are dropped and flagged by the ring, never
// waited for.
type Pump struct {
	r    io.Reader
	ring *protocol.RingBuffer
}

// NewPump creates a Pump from r into ring
func NewPump(r io.Reader, ring *protocol.RingBuffer) *Pump {
	return &Pump{r: r, ring: ring}
}

// Run reads until ctx is done or the reader fails. A read timeout (io.EOF with
// no data on some platforms) is not a failure.
func (p *Pump) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := p.r.Read(buf)
		for _, b := range buf[:n] {
			p.ring.Push(b)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("serial: read pump stopped: %v", err)
			return err
		}
	}
}
