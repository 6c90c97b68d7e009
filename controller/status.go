package controller

import "time"

// ActuatorStatus is one actuator in a Status snapshot
type ActuatorStatus struct {
	Enabled  bool  `json:"enabled"`
	Phase    int   `json:"phase"`
	Position int64 `json:"position"`
}

// Status is a point-in-time copy of the controller state
type Status struct {
	LinkUp    bool             `json:"link_up"`
	Active    bool             `json:"active"`
	Cancelled bool             `json:"cancelled"`
	NextRetry time.Time        `json:"next_retry"`
	Actuators []ActuatorStatus `json:"actuators"`

	Received      uint64 `json:"received"`
	Malformed     uint64 `json:"malformed"`
	Overflows     uint64 `json:"overflows"`
	Unknown       uint64 `json:"unknown"`
	ReplyFailures uint64 `json:"reply_failures"`
	BringUps      uint64 `json:"bring_ups"`

	LastSender uint16 `json:"last_sender"`
	LastRSSI   int    `json:"last_rssi"`
}

// publish stores a fresh snapshot for Status readers
func (c *Controller) publish() {
	s := Status{
		LinkUp:        c.linkUp,
		Active:        c.active,
		Cancelled:     c.seq.Cancelled(),
		Actuators:     make([]ActuatorStatus, len(c.seq.Actuators)),
		Received:      c.counters.received,
		Malformed:     c.counters.malformed,
		Overflows:     c.counters.overflows,
		Unknown:       c.counters.unknown,
		ReplyFailures: c.counters.replyFailures,
		BringUps:      c.counters.bringUps,
		LastSender:    c.last.Sender,
		LastRSSI:      c.last.RSSI,
	}
	if !c.linkUp {
		s.NextRetry = c.nextRetry
	}
	for i, a := range c.seq.Actuators {
		s.Actuators[i] = ActuatorStatus{
			Enabled:  a.Enabled,
			Phase:    a.Phase,
			Position: a.Position,
		}
	}
	c.status.Store(s)
}

// Status returns the latest snapshot. Safe from any goroutine.
func (c *Controller) Status() Status {
	s, _ := c.status.Load().(Status)
	return s
}
