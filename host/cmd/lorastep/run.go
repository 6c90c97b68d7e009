package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"lorastep/config"
	"lorastep/controller"
	"lorastep/core"
	"lorastep/host/httpapi"
	"lorastep/host/serial"
	"lorastep/host/simgpio"
	"lorastep/lora"
)

// openTimeout bounds how long a missing serial device is waited for
const openTimeout = 5 * time.Second

// dial detects the baud rate when asked to and opens the modem link
func dial(c config.Config) *serial.Link {
	scfg := serial.DefaultConfig(c.Serial.Port)
	scfg.Baud = c.Serial.Baud
	if c.Serial.AutoBaud {
		baud, err := serial.DetectBaud(serial.Open, scfg, lora.BaudRates, time.Second)
		if err != nil {
			glog.Warningf("baud detection failed (%v), using %d", err, baud)
		}
		scfg.Baud = baud
	}

	port, err := serial.OpenRetry(serial.Open, scfg, openTimeout)
	if err != nil {
		glog.Exitf("%v", err)
	}
	glog.Infof("modem link on %s at %d baud", scfg.Device, scfg.Baud)
	return serial.NewLink(port, c.Serial.RingSize)
}

func buildSequencer(c config.Config) *core.Sequencer {
	gpio := simgpio.New()
	var actuators []*core.Actuator
	for i, pins := range c.PinSets() {
		a, err := core.NewActuator(gpio, pins, c.Motion.StepInterval)
		if err != nil {
			glog.Exitf("actuator %d: %v", i, err)
		}
		glog.Infof("actuator %d on pins %v", i, pins)
		actuators = append(actuators, a)
	}
	seq := core.NewSequencer(actuators...)
	seq.StepsPerRevolution = c.Motion.StepsPerRevolution
	return seq
}

func run(c config.Config) {
	link := dial(c)
	defer link.Close()

	modem := lora.NewModem(link.Engine, c.ModemOptions()...)
	router := lora.NewRouter(link.Engine, nil)
	ctl := controller.New(modem, router, buildSequencer(c), c.ControllerOptions())

	if err := ctl.Start(); err != nil {
		glog.Warningf("SAFETY MODE: %v; actuators stay disabled until the modem answers", err)
	}

	if c.HTTP.Addr != "" {
		go func() {
			glog.Infof("now listening for requests at %s", c.HTTP.Addr)
			if err := http.ListenAndServe(c.HTTP.Addr, httpapi.NewRouter(ctl)); err != nil {
				glog.Errorf("http: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		ctl.RequestStop()
	}()

	glog.Infof("commands: ON/START/MOVE/1 to activate, OFF/STOP/HALT/0 to deactivate")
	ctl.Run(ctx)
	glog.Infof("stopped: %+v", ctl.Status())
}
