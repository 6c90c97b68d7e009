// Package controller is the receiver application: it turns LoRa commands into
// stepper motion and keeps the actuators safe while the radio link is down.
package controller

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang/glog"

	"lorastep/core"
	"lorastep/lora"
)

// Options tune the controller loop
type Options struct {
	// Settings are applied to the modem on every bring-up attempt
	Settings lora.Settings

	// CycleAngle is how far the actuators turn per loop iteration while active
	CycleAngle float64
	Direction  core.Direction

	// RetryInitial and RetryMax bound the bring-up retry schedule
	RetryInitial time.Duration
	RetryMax     time.Duration

	// OnReceive runs after every delivered message, e.g. to flash an LED
	OnReceive func()
}

// DefaultOptions returns the receiver defaults
func DefaultOptions() Options {
	return Options{
		Settings:     lora.DefaultSettings(),
		CycleAngle:   1,
		Direction:    core.Clockwise,
		RetryInitial: 500 * time.Millisecond,
		RetryMax:     30 * time.Second,
	}
}

// Controller owns the modem, the router and the sequencer.
//
// Everything except RequestStop, RequestResume and Status runs on the goroutine
// calling Start and Run.
type Controller struct {
	modem  *lora.Modem
	router *lora.Router
	seq    *core.Sequencer
	opts   Options

	linkUp   bool
	active   bool
	inMotion bool

	retry     *backoff.ExponentialBackOff
	nextRetry time.Time
	now       func() time.Time

	stopReq   atomic.Bool
	resumeReq atomic.Bool

	counters counters
	last     lora.RemoteMessage
	status   atomic.Value
}

type counters struct {
	received      uint64
	malformed     uint64
	overflows     uint64
	unknown       uint64
	replyFailures uint64
	bringUps      uint64
}

// New wires a controller. It registers itself as the router's handler and
// hooks the sequencer so messages are still served while motion runs.
func New(modem *lora.Modem, router *lora.Router, seq *core.Sequencer, opts Options) *Controller {
	c := &Controller{
		modem:  modem,
		router: router,
		seq:    seq,
		opts:   opts,
		now:    time.Now,
		retry: &backoff.ExponentialBackOff{
			InitialInterval:     opts.RetryInitial,
			RandomizationFactor: 0.,
			Multiplier:          2.,
			MaxInterval:         opts.RetryMax,
			MaxElapsedTime:      0,
			Clock:               backoff.SystemClock,
		},
	}
	c.retry.Reset()
	router.SetHandler(c)
	seq.SliceHook = c.serviceDuringMotion
	c.publish()
	return c
}

// Start brings the link up. On failure the actuators are disabled and the
// error is returned; Run keeps retrying in the background of its loop.
func (c *Controller) Start() error {
	err := c.bringUp()
	c.publish()
	return err
}

// Run executes the main loop until ctx is done
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.seq.Cancel()
			c.seq.EmergencyStopAll()
			c.publish()
			return ctx.Err()
		default:
		}
		c.Step()
		runtime.Gosched()
	}
}

// Step runs one loop iteration: pending requests, link retry or message
// polling, then one motion cycle when active.
func (c *Controller) Step() {
	defer c.publish()

	c.serviceRequests()
	if !c.linkUp {
		c.retryLink()
		return
	}

	c.poll()
	if !c.active {
		return
	}
	if c.seq.Cancelled() {
		c.active = false
		return
	}
	c.inMotion = true
	done := c.seq.AdvanceAll(c.opts.CycleAngle, c.opts.Direction)
	c.inMotion = false
	if !done || c.seq.Cancelled() {
		c.active = false
	}
}

// bringUp initializes the modem, verifies its settings and announces readiness
func (c *Controller) bringUp() error {
	c.counters.bringUps++
	if err := c.modem.Init(c.opts.Settings); err != nil {
		c.enterSafetyMode(err)
		return err
	}

	for _, q := range []string{lora.QueryNetworkID, lora.QueryAddress, lora.QueryBand} {
		resp, err := c.modem.Query(q)
		if err != nil {
			glog.Warningf("controller: verify %s: %v", q, err)
			continue
		}
		glog.Infof("controller: %s -> %s", q, resp)
	}

	c.linkUp = true
	c.retry.Reset()
	if err := c.modem.Broadcast(ReadyMessage); err != nil {
		c.counters.replyFailures++
		glog.Warningf("controller: ready broadcast: %v", err)
		if linkLost(err) {
			c.enterSafetyMode(err)
			return err
		}
	}
	glog.Infof("controller: link up, waiting for commands")
	return nil
}

// linkLost reports whether a transmit error means the modem stopped answering.
// Rejections, duty-cycle refusals and bad payloads leave the link usable.
func linkLost(err error) bool {
	return errors.Is(err, lora.ErrTimeout)
}

func (c *Controller) enterSafetyMode(err error) {
	c.linkUp = false
	c.active = false
	c.seq.Cancel()
	c.seq.EmergencyStopAll()

	wait := c.retry.NextBackOff()
	if wait == backoff.Stop {
		wait = c.opts.RetryMax
	}
	c.nextRetry = c.now().Add(wait)
	glog.Warningf("controller: link bring-up failed: %v; actuators disabled, retry in %v", err, wait)
}

func (c *Controller) retryLink() {
	if c.now().Before(c.nextRetry) {
		return
	}
	c.bringUp()
}

// poll handles at most one received line
func (c *Controller) poll() {
	delivered, err := c.router.Poll()
	switch {
	case errors.Is(err, lora.ErrBufferOverflow):
		c.counters.overflows++
	case err != nil:
		c.counters.malformed++
	case delivered && c.opts.OnReceive != nil:
		c.opts.OnReceive()
	}
}

// serviceDuringMotion runs between delay slices of a motion call
func (c *Controller) serviceDuringMotion() {
	c.serviceRequests()
	c.poll()
}

// OnMessage implements lora.Handler.
func (c *Controller) OnMessage(msg lora.RemoteMessage) {
	c.counters.received++
	c.last = msg

	cmd, err := Classify(msg.Payload)
	switch cmd {
	case CommandActivate:
		c.activate()
		c.reply(msg.Sender, ReplyOn)
	case CommandDeactivate:
		c.deactivate()
		c.reply(msg.Sender, ReplyOff)
	default:
		c.counters.unknown++
		glog.Warningf("controller: %v from %d: %q", err, msg.Sender, msg.Payload)
		c.reply(msg.Sender, ReplyUnknown)
	}
}

// activate re-enables the actuators and lets the loop run motion. Motion is
// never started from here, so a command arriving mid-motion does not nest.
func (c *Controller) activate() {
	c.seq.Resume()
	c.active = true
	glog.V(1).Infof("controller: activated (in motion: %v)", c.inMotion)
}

func (c *Controller) deactivate() {
	c.active = false
	c.seq.Cancel()
	c.seq.EmergencyStopAll()
	glog.V(1).Infof("controller: deactivated")
}

func (c *Controller) reply(to uint16, payload string) {
	if err := c.modem.Send(to, payload); err != nil {
		c.counters.replyFailures++
		glog.Warningf("controller: reply %s to %d: %v", payload, to, err)
		if linkLost(err) {
			c.enterSafetyMode(err)
		}
	}
}

// RequestStop cancels motion at once and asks the loop to de-energize the
// actuators. Safe from any goroutine.
func (c *Controller) RequestStop() {
	c.seq.Cancel()
	c.stopReq.Store(true)
}

// RequestResume asks the loop to re-enable the actuators and run motion as if
// an activate command had arrived. Ignored while the link is down. Safe from
// any goroutine.
func (c *Controller) RequestResume() {
	c.resumeReq.Store(true)
}

func (c *Controller) serviceRequests() {
	if c.stopReq.Swap(false) {
		c.deactivate()
		c.resumeReq.Store(false)
		return
	}
	if c.resumeReq.Swap(false) {
		if !c.linkUp {
			glog.Warningf("controller: resume ignored, link is down")
			return
		}
		c.activate()
	}
}
