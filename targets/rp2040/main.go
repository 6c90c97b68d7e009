//go:build rp2040

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	"lorastep/controller"
	"lorastep/core"
	"lorastep/lora"
	"lorastep/protocol"
)

var errPinUnavailable = errors.New("pin unavailable")

// Stepper coil outputs, avoiding the UART pins
var stepperPins = [][4]core.GPIOPin{
	{2, 3, 6, 7},     // Stepper Motor 1
	{10, 11, 14, 15}, // Stepper Motor 2
	{18, 19, 20, 21}, // Stepper Motor 3
	{22, 26, 27, 28}, // Stepper Motor 4
}

var (
	// Debug counters
	rxErrors   uint32
	uartErrors uint32
	restarts   uint32

	// linkBaud is the rate the modem answered at, 0 when detection failed
	linkBaud int
)

func main() {
	// Give the modem time to boot after power-up
	time.Sleep(2 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Initialize and register GPIO driver
	core.SetGPIODriver(NewRPGPIODriver())

	var actuators []*core.Actuator
	for _, pins := range stepperPins {
		a, err := core.NewActuator(nil, pins, core.DefaultStepInterval)
		if err != nil {
			halt(led)
		}
		actuators = append(actuators, a)
	}
	seq := core.NewSequencer(actuators...)

	ring := protocol.NewRingBuffer(protocol.DefaultRingCapacity)
	setUART(lora.DefaultBaudRate)
	go uartPump(loraUART, ring)

	engine := lora.NewEngine(loraUART, ring)
	detectBaud(engine)

	modem := lora.NewModem(engine)
	router := lora.NewRouter(engine, nil)

	opts := controller.DefaultOptions()
	opts.Settings.NetworkID = 18
	opts.Settings.Address = 100
	// Flash when receiving a LoRa signal
	opts.OnReceive = func() {
		led.High()
		led.Low()
	}
	ctl := controller.New(modem, router, seq, opts)

	// A failed start leaves the controller in safety mode; Run keeps retrying
	ctl.Start()

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					restarts++
					seq.Cancel()
					seq.EmergencyStopAll()
					ring.Reset()
				}
			}()
			ctl.Run(context.Background())
		}()
	}
}

// setUART reconfigures the modem UART, counting failures
func setUART(baud int) bool {
	if err := configureUART(baud); err != nil {
		uartErrors++
		return false
	}
	return true
}

// detectBaud walks the probe list until the modem acknowledges AT, leaving
// the UART at the working rate or at the default when none answers
func detectBaud(engine *lora.Engine) {
	for _, baud := range lora.BaudRates {
		if !setUART(baud) {
			continue
		}
		// Let UART stabilize
		time.Sleep(500 * time.Millisecond)
		if err := engine.SendExpectOK(lora.CmdTest, time.Second); err == nil {
			linkBaud = baud
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	linkBaud = 0
	setUART(lora.DefaultBaudRate)
}

// halt blinks the LED forever; the pin table is wrong and nothing can run
func halt(led machine.Pin) {
	for {
		led.Set(!led.Get())
		time.Sleep(250 * time.Millisecond)
	}
}
