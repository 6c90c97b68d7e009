package lora

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/time/rate"
)

// Settings are the radio parameters applied during Init
type Settings struct {
	NetworkID       uint16 // 0 leaves the modem's value untouched
	Address         uint16 // 0 leaves the modem's value untouched
	Frequency       uint32 // Hz
	Power           int    // dBm
	SpreadingFactor int
	Bandwidth       int
	CodingRate      int
}

// DefaultSettings returns the factory radio parameters
func DefaultSettings() Settings {
	return Settings{
		Frequency:       915000000,
		Power:           10,
		SpreadingFactor: SF9,
		Bandwidth:       BW125,
		CodingRate:      CR4_5,
	}
}

// ValidNetworkID reports whether id is accepted by AT+NETWORKID
func ValidNetworkID(id uint16) bool {
	return id == 18 || (id >= 3 && id <= 15)
}

// Modem is a RYLR998 reached through an Engine
type Modem struct {
	engine      *Engine
	settings    Settings
	timeout     time.Duration
	maxMessage  int
	limiter     *rate.Limiter
	sleep       func(time.Duration)
	initialized bool
}

// Option configures a Modem
type Option func(*Modem)

// WithTimeout sets the per-command response timeout
func WithTimeout(d time.Duration) Option {
	return func(m *Modem) {
		m.timeout = d
	}
}

// WithMaxMessage lowers the payload limit below MaxMessageLength
func WithMaxMessage(n int) Option {
	return func(m *Modem) {
		if n > 0 && n <= MaxMessageLength {
			m.maxMessage = n
		}
	}
}

// WithSendLimit caps transmissions to r per second with the given burst
func WithSendLimit(r rate.Limit, burst int) Option {
	return func(m *Modem) {
		m.limiter = rate.NewLimiter(r, burst)
	}
}

// NewModem creates a Modem on top of engine
func NewModem(engine *Engine, opts ...Option) *Modem {
	m := &Modem{
		engine:     engine,
		settings:   DefaultSettings(),
		timeout:    CommandTimeout,
		maxMessage: MaxMessageLength,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Engine returns the command engine the modem talks through
func (m *Modem) Engine() *Engine {
	return m.engine
}

// Settings returns the parameters applied by the last successful Init/Configure
func (m *Modem) Settings() Settings {
	return m.settings
}

// Initialized reports whether Init completed
func (m *Modem) Initialized() bool {
	return m.initialized
}

// Init checks the link and applies s: network ID, address, band, power and
// modulation parameters, in that order. The first failing step aborts.
func (m *Modem) Init(s Settings) error {
	m.initialized = false

	if s.NetworkID != 0 && !ValidNetworkID(s.NetworkID) {
		return fmt.Errorf("network id %d: %w", s.NetworkID, ErrInvalidParam)
	}

	if err := m.Test(); err != nil {
		return err
	}

	if s.NetworkID != 0 {
		if err := m.expectOK(fmt.Sprintf("%s=%d", CmdNetworkID, s.NetworkID)); err != nil {
			return err
		}
	}
	if s.Address != 0 {
		if err := m.expectOK(fmt.Sprintf("%s=%d", CmdAddress, s.Address)); err != nil {
			return err
		}
	}

	if err := m.Configure(s.Frequency, s.Power, s.SpreadingFactor, s.Bandwidth, s.CodingRate); err != nil {
		return err
	}

	m.settings.NetworkID = s.NetworkID
	m.settings.Address = s.Address
	m.initialized = true
	glog.Infof("lora: modem initialized network=%d address=%d freq=%d", s.NetworkID, s.Address, s.Frequency)
	return nil
}

// Test sends a bare AT and expects an acknowledgment
func (m *Modem) Test() error {
	return m.expectOK(CmdTest)
}

// Configure sets band, transmit power and modulation parameters
func (m *Modem) Configure(frequency uint32, power, sf, bw, cr int) error {
	if power < 0 || power > 22 {
		return fmt.Errorf("power %d: %w", power, ErrInvalidParam)
	}
	if sf < SF7 || sf > SF11 {
		return fmt.Errorf("spreading factor %d: %w", sf, ErrInvalidParam)
	}
	if bw < BW7_8 || bw > BW500 {
		return fmt.Errorf("bandwidth code %d: %w", bw, ErrInvalidParam)
	}
	if cr < CR4_5 || cr > CR4_8 {
		return fmt.Errorf("coding rate %d: %w", cr, ErrInvalidParam)
	}

	if err := m.expectOK(fmt.Sprintf("%s=%d", CmdBand, frequency)); err != nil {
		return err
	}
	if err := m.expectOK(fmt.Sprintf("%s=%d", CmdPower, power)); err != nil {
		return err
	}
	if err := m.expectOK(fmt.Sprintf("%s=%d,%d,%d,%d", CmdParameter, sf, bw, cr, preambleDefault)); err != nil {
		return err
	}

	m.settings.Frequency = frequency
	m.settings.Power = power
	m.settings.SpreadingFactor = sf
	m.settings.Bandwidth = bw
	m.settings.CodingRate = cr
	return nil
}

// Send transmits payload to address
func (m *Modem) Send(address uint16, payload string) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if len(payload) == 0 || len(payload) > m.maxMessage {
		return fmt.Errorf("payload length %d: %w", len(payload), ErrInvalidParam)
	}
	if strings.ContainsAny(payload, "\r\n") {
		return fmt.Errorf("payload contains a line terminator: %w", ErrInvalidParam)
	}
	if m.limiter != nil && !m.limiter.Allow() {
		return ErrDutyCycle
	}
	return m.expectOK(fmt.Sprintf("%s=%d,%d,%s", CmdSend, address, len(payload), payload))
}

// Broadcast transmits payload to every node on the network
func (m *Modem) Broadcast(payload string) error {
	return m.Send(BroadcastAddress, payload)
}

// Reset restarts the modem and waits for it to settle. Init must be run again.
func (m *Modem) Reset() error {
	if err := m.expectOK(CmdReset); err != nil {
		return err
	}
	m.sleep(ResetSettle)
	m.initialized = false
	return nil
}

// Version returns the firmware version line
func (m *Modem) Version() (string, error) {
	return m.Query(CmdVersion)
}

// Sleep puts the modem into its low power mode
func (m *Modem) Sleep() error {
	return m.expectOK(CmdModeSleep)
}

// Wake returns the modem to transceiver mode
func (m *Modem) Wake() error {
	return m.expectOK(CmdModeNormal)
}

// Query runs a query command and returns the response line
func (m *Modem) Query(cmd string) (string, error) {
	return m.engine.SendCommand(cmd, m.timeout)
}

func (m *Modem) expectOK(cmd string) error {
	return m.engine.SendExpectOK(cmd, m.timeout)
}
