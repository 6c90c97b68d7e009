package lora

import (
	"strings"

	"github.com/golang/glog"

	"lorastep/protocol"
)

// Handler is called for every message received over the air.
// It runs synchronously on the polling goroutine and must return quickly.
type Handler interface {
	OnMessage(RemoteMessage)
}

// HandlerFunc is func type of Handler.
type HandlerFunc func(RemoteMessage)

// OnMessage implements Handler.
func (f HandlerFunc) OnMessage(msg RemoteMessage) {
	f(msg)
}

// Router dispatches lines that arrive outside a command exchange
type Router struct {
	engine  *Engine
	handler Handler
}

// NewRouter creates a Router reading lines through engine
func NewRouter(engine *Engine, handler Handler) *Router {
	return &Router{
		engine:  engine,
		handler: handler,
	}
}

// SetHandler replaces the message handler
func (r *Router) SetHandler(h Handler) {
	r.handler = h
}

// Poll handles at most one waiting line.
// It returns true when a message was delivered to the handler. Malformed
// notifications and overflowed lines are dropped and reported as errors so
// the caller can count them; neither stops the router.
func (r *Router) Poll() (bool, error) {
	line, err := r.engine.ReadLine()
	switch err {
	case nil:
	case protocol.ErrNoLine:
		return false, nil
	default:
		glog.Warningf("lora: %v, line dropped", err)
		return false, err
	}

	switch classifyLine(line) {
	case lineReceive:
		msg, err := ParseReceived(line)
		if err != nil {
			glog.Warningf("lora: dropping %q: %v", line, err)
			return false, err
		}
		glog.V(1).Infof("lora: received %v", msg)
		if r.handler == nil {
			glog.Warningf("lora: no handler for %v", msg)
			return false, nil
		}
		r.handler.OnMessage(msg)
		return true, nil
	case lineAck:
		glog.V(2).Infof("lora: unsolicited acknowledgment %q dropped", line)
	case lineError:
		glog.V(2).Infof("lora: unsolicited error %q dropped", line)
	default:
		glog.Warningf("lora: unrecognized line %q dropped", line)
	}
	return false, nil
}

type lineKind int

const (
	lineUnknown lineKind = iota
	lineReceive
	lineAck
	lineError
)

// classifyLine sorts a line read outside a command exchange. Error echoes are
// checked before acknowledgments, matching IsOK.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, PrefixRecv):
		return lineReceive
	case isErrorLine(line):
		return lineError
	case strings.HasPrefix(line, PrefixOK):
		return lineAck
	}
	return lineUnknown
}
