package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorastep/core"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeFile(t, `
radio:
  address: 120
  timeout: 500ms
motion:
  stepinterval: 2ms
  actuators:
    - pins: [1, 2, 3, 4]
http:
  addr: ""
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(120), c.Radio.Address)
	assert.Equal(t, uint16(18), c.Radio.NetworkID)
	assert.Equal(t, 500*time.Millisecond, c.Radio.Timeout)
	assert.Equal(t, 2*time.Millisecond, c.Motion.StepInterval)
	assert.Equal(t, [][4]core.GPIOPin{{1, 2, 3, 4}}, c.PinSets())
	assert.Empty(t, c.HTTP.Addr)
	assert.NoError(t, c.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LORASTEP_RADIO_NETWORKID", "5")
	t.Setenv("LORASTEP_SERIAL_PORT", "/dev/ttyACM1")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), c.Radio.NetworkID)
	assert.Equal(t, "/dev/ttyACM1", c.Serial.Port)
}

func TestLoadBadFile(t *testing.T) {
	path := writeFile(t, "radio: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))
	assert.Contains(t, buf.String(), "networkid: 18")

	c, err := Load(writeFile(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"network":        func(c *Config) { c.Radio.NetworkID = 16 },
		"broadcast":      func(c *Config) { c.Radio.Address = 65535 },
		"power":          func(c *Config) { c.Radio.Power = 30 },
		"sf":             func(c *Config) { c.Radio.SpreadingFactor = 12 },
		"bandwidth":      func(c *Config) { c.Radio.Bandwidth = -1 },
		"codingrate":     func(c *Config) { c.Radio.CodingRate = 5 },
		"maxmessage":     func(c *Config) { c.Radio.MaxMessage = 241 },
		"sendrate":       func(c *Config) { c.Radio.SendRate = -1 },
		"baud":           func(c *Config) { c.Serial.AutoBaud = false; c.Serial.Baud = 1200 },
		"ring":           func(c *Config) { c.Serial.RingSize = 1 },
		"no actuators":   func(c *Config) { c.Motion.Actuators = nil },
		"steps":          func(c *Config) { c.Motion.StepsPerRevolution = 0 },
		"interval":       func(c *Config) { c.Motion.StepInterval = 0 },
		"zero angle":     func(c *Config) { c.Motion.CycleAngle = 0 },
		"negative angle": func(c *Config) { c.Motion.CycleAngle = -1 },
		"nan angle":      func(c *Config) { c.Motion.CycleAngle = math.NaN() },
		"sub-step angle": func(c *Config) { c.Motion.CycleAngle = 0.05 },
		"three pins":     func(c *Config) { c.Motion.Actuators[0].Pins = []uint32{1, 2, 3} },
		"shared pin":     func(c *Config) { c.Motion.Actuators[1].Pins[0] = 2 },
		"duplicate pins": func(c *Config) { c.Motion.Actuators[0].Pins = []uint32{1, 1, 3, 4} },
	}
	for name, mutate := range cases {
		c := Default()
		mutate(&c)
		assert.ErrorIs(t, c.Validate(), ErrInvalid, name)
	}

	c := Default()
	c.Serial.AutoBaud = false
	c.Serial.Baud = 115200
	assert.NoError(t, c.Validate())
}

func TestDerivedOptions(t *testing.T) {
	c := Default()
	c.Motion.Reverse = true
	c.Radio.SendRate = 0.5

	s := c.ModemSettings()
	assert.Equal(t, uint16(100), s.Address)
	assert.Equal(t, uint32(915000000), s.Frequency)

	assert.Len(t, c.ModemOptions(), 3)
	opts := c.ControllerOptions()
	assert.Equal(t, core.CounterClockwise, opts.Direction)
	assert.Equal(t, s, opts.Settings)
	assert.Equal(t, 1.0, opts.CycleAngle)

	assert.Len(t, c.PinSets(), 4)
	assert.Equal(t, [4]core.GPIOPin{22, 26, 27, 28}, c.PinSets()[3])
}
