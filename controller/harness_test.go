package controller

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lorastep/core"
	"lorastep/lora"
	"lorastep/protocol"
)

// peer is a scripted modem: it acknowledges every command unless silent.
// Commands starting with silentOn get no answer and those starting with
// rejectOn get an error line.
type peer struct {
	mu       sync.Mutex
	rx       *protocol.RingBuffer
	silent   bool
	silentOn string
	rejectOn string
	sent     []string
	partial  string
}

func (p *peer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.partial += string(b)
	for {
		i := strings.Index(p.partial, lora.Terminator)
		if i < 0 {
			break
		}
		cmd := p.partial[:i]
		p.sent = append(p.sent, cmd)
		p.partial = p.partial[i+len(lora.Terminator):]
		switch {
		case p.silent:
		case p.silentOn != "" && strings.HasPrefix(cmd, p.silentOn):
		case p.rejectOn != "" && strings.HasPrefix(cmd, p.rejectOn):
			p.push("+ERR=5")
		default:
			p.push("+OK")
		}
	}
	return len(b), nil
}

func (p *peer) push(line string) {
	for _, c := range []byte(line + lora.Terminator) {
		p.rx.Push(c)
	}
}

func (p *peer) setSilent(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.silent = v
}

// commands returns every command written so far
func (p *peer) commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

// transmissions returns the AT+SEND commands written so far
func (p *peer) transmissions() []string {
	var out []string
	for _, cmd := range p.commands() {
		if strings.HasPrefix(cmd, lora.CmdSend+"=") {
			out = append(out, cmd)
		}
	}
	return out
}

type mockGPIO struct {
	mu   sync.Mutex
	pins map[core.GPIOPin]bool
}

func (m *mockGPIO) ConfigureOutput(pin core.GPIOPin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = false
	return nil
}

func (m *mockGPIO) SetPin(pin core.GPIOPin, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pins[pin] = value
	return nil
}

func (m *mockGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pins[pin], nil
}

// sliceSleeper does not sleep; it counts slices and runs action at slice at
type sliceSleeper struct {
	n      int
	at     int
	action func()
}

func (s *sliceSleeper) Sleep(time.Duration) {
	s.n++
	if s.action != nil && s.n == s.at {
		s.action()
	}
}

type harness struct {
	c       *Controller
	peer    *peer
	seq     *core.Sequencer
	sleeper *sliceSleeper
	clock   time.Time
}

// stepsPerCycle is the number of phase advances one loop iteration makes
const stepsPerCycle = 4

func newHarness(t *testing.T) *harness {
	t.Helper()

	rx := protocol.NewRingBuffer(protocol.DefaultRingCapacity)
	p := &peer{rx: rx}
	engine := lora.NewEngine(p, rx)
	modem := lora.NewModem(engine, lora.WithTimeout(20*time.Millisecond))
	router := lora.NewRouter(engine, nil)

	gpio := &mockGPIO{pins: make(map[core.GPIOPin]bool)}
	var actuators []*core.Actuator
	for _, pins := range [][4]core.GPIOPin{{2, 3, 6, 7}, {10, 11, 14, 15}} {
		a, err := core.NewActuator(gpio, pins, time.Millisecond)
		require.NoError(t, err)
		actuators = append(actuators, a)
	}
	seq := core.NewSequencer(actuators...)
	seq.StepsPerRevolution = 64
	sleeper := &sliceSleeper{}
	seq.Sleeper = sleeper

	opts := DefaultOptions()
	opts.Settings.NetworkID = 18
	opts.Settings.Address = 100
	opts.CycleAngle = 360.0 / 64 * stepsPerCycle
	opts.RetryInitial = time.Second
	opts.RetryMax = time.Minute

	h := &harness{
		peer:    p,
		seq:     seq,
		sleeper: sleeper,
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	h.c = New(modem, router, seq, opts)
	h.c.now = func() time.Time { return h.clock }
	return h
}

// started returns a harness whose link is up
func startedHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	require.NoError(t, h.c.Start())
	return h
}

// receive queues a notification from sender as if it came over the air
func (h *harness) receive(sender uint16, payload string) {
	h.peer.push(fmt.Sprintf("+RCV=%d,%d,%s,-42,9", sender, len(payload), payload))
}
