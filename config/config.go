// Package config holds the start-up configuration of the lorastep tools.
//
// Values come from Default, then an optional YAML file, then LORASTEP_*
// environment variables, e.g. LORASTEP_RADIO_ADDRESS=120.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"golang.org/x/time/rate"
	yml "gopkg.in/yaml.v2"

	"lorastep/controller"
	"lorastep/core"
	"lorastep/lora"
)

// FileName is the configuration file read when no path is given
const FileName = "lorastep.yml"

// EnvPrefix selects the environment variables that override the file
const EnvPrefix = "LORASTEP_"

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Serial is the host side of the modem link
type Serial struct {
	// Port is the device path, e.g. /dev/ttyUSB0 or COM3
	Port string `koanf:"port" yaml:"port"`

	// Baud is used as is unless AutoBaud is set
	Baud     int  `koanf:"baud" yaml:"baud"`
	AutoBaud bool `koanf:"autobaud" yaml:"autobaud"`

	// RingSize is the receive ring capacity in bytes
	RingSize int `koanf:"ringsize" yaml:"ringsize"`
}

// Radio is the modem configuration
type Radio struct {
	NetworkID       uint16        `koanf:"networkid" yaml:"networkid"`
	Address         uint16        `koanf:"address" yaml:"address"`
	Frequency       uint32        `koanf:"frequency" yaml:"frequency"`
	Power           int           `koanf:"power" yaml:"power"`
	SpreadingFactor int           `koanf:"spreadingfactor" yaml:"spreadingfactor"`
	Bandwidth       int           `koanf:"bandwidth" yaml:"bandwidth"`
	CodingRate      int           `koanf:"codingrate" yaml:"codingrate"`
	MaxMessage      int           `koanf:"maxmessage" yaml:"maxmessage"`
	Timeout         time.Duration `koanf:"timeout" yaml:"timeout"`

	// SendRate limits transmissions per second, 0 for no limit
	SendRate  float64 `koanf:"sendrate" yaml:"sendrate"`
	SendBurst int     `koanf:"sendburst" yaml:"sendburst"`
}

// Actuator is one stepper's four coil outputs
type Actuator struct {
	Pins []uint32 `koanf:"pins" yaml:"pins"`
}

// Motion is the sequencer configuration
type Motion struct {
	Actuators          []Actuator    `koanf:"actuators" yaml:"actuators"`
	StepInterval       time.Duration `koanf:"stepinterval" yaml:"stepinterval"`
	StepsPerRevolution int           `koanf:"stepsperrevolution" yaml:"stepsperrevolution"`
	CycleAngle         float64       `koanf:"cycleangle" yaml:"cycleangle"`
	Reverse            bool          `koanf:"reverse" yaml:"reverse"`
}

// HTTP is the local override surface. An empty Addr disables it.
type HTTP struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// Remote is used by the transmitter side (the send command)
type Remote struct {
	Target uint16 `koanf:"target" yaml:"target"`
}

// Config is the whole configuration tree
type Config struct {
	Serial Serial `koanf:"serial" yaml:"serial"`
	Radio  Radio  `koanf:"radio" yaml:"radio"`
	Motion Motion `koanf:"motion" yaml:"motion"`
	HTTP   HTTP   `koanf:"http" yaml:"http"`
	Remote Remote `koanf:"remote" yaml:"remote"`
}

// Default returns the configuration of the reference receiver: four
// 28BYJ-48 motors on a Pico, network 18, address 100, 915 MHz
func Default() Config {
	return Config{
		Serial: Serial{
			Port:     "/dev/ttyUSB0",
			Baud:     lora.DefaultBaudRate,
			AutoBaud: true,
			RingSize: 512,
		},
		Radio: Radio{
			NetworkID:       18,
			Address:         100,
			Frequency:       915000000,
			Power:           10,
			SpreadingFactor: lora.SF9,
			Bandwidth:       lora.BW125,
			CodingRate:      lora.CR4_5,
			MaxMessage:      lora.MaxMessageLength,
			Timeout:         lora.CommandTimeout,
			SendBurst:       1,
		},
		Motion: Motion{
			Actuators: []Actuator{
				{Pins: []uint32{2, 3, 6, 7}},
				{Pins: []uint32{10, 11, 14, 15}},
				{Pins: []uint32{18, 19, 20, 21}},
				{Pins: []uint32{22, 26, 27, 28}},
			},
			StepInterval:       core.DefaultStepInterval,
			StepsPerRevolution: core.DefaultStepsPerRevolution,
			CycleAngle:         1,
		},
		HTTP: HTTP{
			Addr: ":8000",
		},
		Remote: Remote{
			Target: 100,
		},
	}
}

// envKey maps LORASTEP_RADIO_ADDRESS to radio.address
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", -1)
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	c := Config{}

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return c, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) && !strings.Contains(err.Error(), "no such") {
				return c, fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return c, err
	}

	if err := k.Unmarshal("", &c); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks the values the modem and the sequencer would reject
func (c Config) Validate() error {
	r := c.Radio
	if !lora.ValidNetworkID(r.NetworkID) {
		return fmt.Errorf("%w: network id %d, want 3..15 or 18", ErrInvalid, r.NetworkID)
	}
	if r.Address == lora.BroadcastAddress {
		return fmt.Errorf("%w: address %d is the broadcast address", ErrInvalid, r.Address)
	}
	if r.Power < 0 || r.Power > 22 {
		return fmt.Errorf("%w: power %d dBm, want 0..22", ErrInvalid, r.Power)
	}
	if r.SpreadingFactor < lora.SF7 || r.SpreadingFactor > lora.SF11 {
		return fmt.Errorf("%w: spreading factor %d", ErrInvalid, r.SpreadingFactor)
	}
	if r.Bandwidth < lora.BW7_8 || r.Bandwidth > lora.BW500 {
		return fmt.Errorf("%w: bandwidth code %d", ErrInvalid, r.Bandwidth)
	}
	if r.CodingRate < lora.CR4_5 || r.CodingRate > lora.CR4_8 {
		return fmt.Errorf("%w: coding rate %d", ErrInvalid, r.CodingRate)
	}
	if r.MaxMessage < 1 || r.MaxMessage > lora.MaxMessageLength {
		return fmt.Errorf("%w: max message %d, want 1..%d", ErrInvalid, r.MaxMessage, lora.MaxMessageLength)
	}
	if r.SendRate < 0 {
		return fmt.Errorf("%w: send rate %v", ErrInvalid, r.SendRate)
	}

	if !c.Serial.AutoBaud && !validBaud(c.Serial.Baud) {
		return fmt.Errorf("%w: baud %d", ErrInvalid, c.Serial.Baud)
	}
	if c.Serial.RingSize < 2 {
		return fmt.Errorf("%w: ring size %d", ErrInvalid, c.Serial.RingSize)
	}

	m := c.Motion
	if len(m.Actuators) == 0 {
		return fmt.Errorf("%w: no actuators", ErrInvalid)
	}
	if m.StepsPerRevolution < 1 {
		return fmt.Errorf("%w: steps per revolution %d", ErrInvalid, m.StepsPerRevolution)
	}
	if math.IsNaN(m.CycleAngle) || math.IsInf(m.CycleAngle, 0) || m.CycleAngle <= 0 {
		return fmt.Errorf("%w: cycle angle %v, want > 0", ErrInvalid, m.CycleAngle)
	}
	if m.CycleAngle/360*float64(m.StepsPerRevolution) < 1 {
		return fmt.Errorf("%w: cycle angle %v is less than one step", ErrInvalid, m.CycleAngle)
	}
	if m.StepInterval <= 0 {
		return fmt.Errorf("%w: step interval %v", ErrInvalid, m.StepInterval)
	}
	used := make(map[uint32]int)
	for i, a := range m.Actuators {
		if len(a.Pins) != 4 {
			return fmt.Errorf("%w: actuator %d has %d pins, want 4", ErrInvalid, i, len(a.Pins))
		}
		for _, pin := range a.Pins {
			if prev, ok := used[pin]; ok {
				return fmt.Errorf("%w: pin %d used by actuators %d and %d", ErrInvalid, pin, prev, i)
			}
			used[pin] = i
		}
	}
	return nil
}

func validBaud(b int) bool {
	for _, r := range lora.BaudRates {
		if r == b {
			return true
		}
	}
	return false
}

// ModemSettings returns the radio parameters for lora.Modem.Init
func (c Config) ModemSettings() lora.Settings {
	return lora.Settings{
		NetworkID:       c.Radio.NetworkID,
		Address:         c.Radio.Address,
		Frequency:       c.Radio.Frequency,
		Power:           c.Radio.Power,
		SpreadingFactor: c.Radio.SpreadingFactor,
		Bandwidth:       c.Radio.Bandwidth,
		CodingRate:      c.Radio.CodingRate,
	}
}

// ModemOptions returns the lora.Modem options the radio section asks for
func (c Config) ModemOptions() []lora.Option {
	opts := []lora.Option{
		lora.WithTimeout(c.Radio.Timeout),
		lora.WithMaxMessage(c.Radio.MaxMessage),
	}
	if c.Radio.SendRate > 0 {
		burst := c.Radio.SendBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, lora.WithSendLimit(rate.Limit(c.Radio.SendRate), burst))
	}
	return opts
}

// PinSets returns the actuator pin quadruples
func (c Config) PinSets() [][4]core.GPIOPin {
	out := make([][4]core.GPIOPin, 0, len(c.Motion.Actuators))
	for _, a := range c.Motion.Actuators {
		var pins [4]core.GPIOPin
		for i := 0; i < 4 && i < len(a.Pins); i++ {
			pins[i] = core.GPIOPin(a.Pins[i])
		}
		out = append(out, pins)
	}
	return out
}

// ControllerOptions returns the controller loop options
func (c Config) ControllerOptions() controller.Options {
	opts := controller.DefaultOptions()
	opts.Settings = c.ModemSettings()
	opts.CycleAngle = c.Motion.CycleAngle
	if c.Motion.Reverse {
		opts.Direction = core.CounterClockwise
	}
	return opts
}

// Write renders c as YAML
func (c Config) Write(w io.Writer) error {
	return yml.NewEncoder(w).Encode(c)
}
