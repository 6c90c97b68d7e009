package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"

	"lorastep/config"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	configPath = flag.String("config", config.FileName, "configuration file")
)

func root() {
	str := `lorastep drives stepper motors on command from a RYLR998 LoRa modem and
talks to the modem from a host computer.

Usage:
	lorastep [flags] <command> [args]

Commands:
	run      receive commands and drive the actuators
	send     transmit a command to a controller: send <payload> [address]
	probe    find the modem baud rate and print its firmware version
	console  type AT commands and read the answers
	help
	mkconf
	conf
	version

Flags are the glog flags (-v, -logtostderr, ...) plus -config.`
	fmt.Println(str)
}

func help() {
	str := `lorastep is amenable to configuration via its .yml file and LORASTEP_*
environment variables; "lorastep mkconf" writes the defaults.

The controller accepts ON, START, MOVE and 1 to start motion and OFF, STOP,
HALT and 0 to stop it, in any case.  It answers STEPPERS_ON, STEPPERS_OFF or
UNKNOWN_COMMAND to the sender and broadcasts STEPPER_CONTROLLER_READY once the
modem is configured.

When http.addr is set, run also serves:
	POST /stop     emergency stop
	POST /resume   re-enable and resume motion
	GET  /status   controller state as JSON`
	fmt.Println(str)
}

func pversion() {
	fmt.Printf("lorastep version %v\n", Version)
}

func loadConfig() config.Config {
	c, err := config.Load(*configPath)
	if err != nil {
		glog.Exitf("error loading config: %v", err)
	}
	if err := c.Validate(); err != nil {
		glog.Exitf("%v", err)
	}
	return c
}

func mkconf() {
	c := loadConfig()
	f, err := os.Create(*configPath)
	if err != nil {
		glog.Exit(err)
	}
	defer f.Close()
	if err := c.Write(f); err != nil {
		glog.Exit(err)
	}
}

func printconf() {
	if err := loadConfig().Write(os.Stdout); err != nil {
		glog.Exit(err)
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		root()
		return
	}
	cmd := strings.ToLower(args[0])
	switch cmd {
	case "run":
		run(loadConfig())
	case "send":
		send(loadConfig(), args[1:])
	case "probe":
		probe(loadConfig())
	case "console":
		console(loadConfig())
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "version":
		pversion()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		root()
		os.Exit(2)
	}
}
