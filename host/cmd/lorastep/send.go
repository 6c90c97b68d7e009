package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"

	"lorastep/config"
	"lorastep/lora"
)

// replyWait is how long send listens for the controller's answer
const replyWait = 3 * time.Second

// send acts as the remote: it transmits one command and prints the replies
// that arrive within replyWait
func send(c config.Config, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: lorastep send <payload> [address]")
		os.Exit(2)
	}
	payload := args[0]
	target := c.Remote.Target
	if len(args) > 1 {
		a, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			glog.Exitf("address %q: %v", args[1], err)
		}
		target = uint16(a)
	}

	link := dial(c)
	defer link.Close()

	modem := lora.NewModem(link.Engine, c.ModemOptions()...)
	if err := modem.Init(c.ModemSettings()); err != nil {
		glog.Exitf("modem init: %v", err)
	}
	if err := modem.Send(target, payload); err != nil {
		glog.Exitf("send %q to %d: %v", payload, target, err)
	}
	fmt.Printf("sent %q to %d\n", payload, target)

	router := lora.NewRouter(link.Engine, lora.HandlerFunc(func(m lora.RemoteMessage) {
		fmt.Println(m)
	}))
	deadline := time.Now().Add(replyWait)
	for time.Now().Before(deadline) {
		if ok, _ := router.Poll(); !ok {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// probe reports the baud rate the modem answers at and its firmware version
func probe(c config.Config) {
	c.Serial.AutoBaud = true
	link := dial(c)
	defer link.Close()

	modem := lora.NewModem(link.Engine, c.ModemOptions()...)
	v, err := modem.Version()
	if err != nil {
		glog.Exitf("version: %v", err)
	}
	fmt.Println(v)
	for _, q := range []string{lora.QueryNetworkID, lora.QueryAddress, lora.QueryBand} {
		resp, err := modem.Query(q)
		if err != nil {
			fmt.Printf("%s: %v\n", q, err)
			continue
		}
		fmt.Printf("%s: %s\n", q, resp)
	}
}
