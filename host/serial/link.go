package serial

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"

	"lorastep/lora"
	"lorastep/protocol"
)

// Link is an open port with its read pump and command engine
type Link struct {
	Port   Port
	Ring   *protocol.RingBuffer
	Engine *lora.Engine

	cancel context.CancelFunc
	done   chan error
}

// Dial opens the port with open and starts the read pump
func Dial(open Opener, cfg *Config, ringSize int) (*Link, error) {
	port, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return NewLink(port, ringSize), nil
}

// NewLink starts a read pump on an already open port
func NewLink(port Port, ringSize int) *Link {
	ring := protocol.NewRingBuffer(ringSize)
	ctx, cancel := context.WithCancel(context.Background())
	l := &Link{
		Port:   port,
		Ring:   ring,
		Engine: lora.NewEngine(port, ring),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() {
		l.done <- NewPump(port, ring).Run(ctx)
	}()
	return l
}

// Close stops the pump and closes the port
func (l *Link) Close() error {
	l.cancel()
	err := l.Port.Close()
	<-l.done
	return err
}

// DetectBaud tries each rate in turn and returns the first at which the
// modem answers AT with an acknowledgment. It returns lora.DefaultBaudRate
// and lora.ErrTimeout when no rate works.
func DetectBaud(open Opener, cfg *Config, rates []int, timeout time.Duration) (int, error) {
	for _, baud := range rates {
		ok, err := probe(open, cfg.WithBaud(baud), timeout)
		if err != nil {
			return lora.DefaultBaudRate, err
		}
		if ok {
			glog.Infof("serial: modem answers at %d baud", baud)
			return baud, nil
		}
		glog.V(1).Infof("serial: no answer at %d baud", baud)
	}
	return lora.DefaultBaudRate, lora.ErrTimeout
}

// probe reports whether the modem acknowledges AT at cfg's baud rate.
// Errors opening the port are returned; a garbled or missing answer is not an error.
func probe(open Opener, cfg *Config, timeout time.Duration) (bool, error) {
	port, err := open(cfg)
	if err != nil {
		return false, err
	}
	link := NewLink(port, protocol.DefaultRingCapacity)
	defer link.Close()

	port.Flush()
	line, err := link.Engine.SendCommand(lora.CmdTest, timeout)
	if err != nil {
		return false, nil
	}
	return strings.Contains(line, lora.PrefixOK), nil
}
