// Package lora drives a REYAX RYLR998 class LoRa modem over its AT command set.
//
// The modem is reached through a serial line whose receive side feeds a
// protocol.RingBuffer. Engine runs one command/response exchange at a time,
// Router turns every other line into RemoteMessage notifications, and Modem
// builds the bring-up and transmit commands on top of Engine.
package lora

import "time"

const (
	// Terminator ends every command written to the modem
	Terminator = "\r\n"

	// Response markers
	MarkerOK     = "OK"
	MarkerErr    = "+ERR"
	MarkerError  = "ERROR"
	PrefixOK     = "+OK"
	PrefixRecv   = "+RCV="
	PrefixErrArg = "+ERR="

	// Commands
	CmdTest         = "AT"
	CmdReset        = "AT+RESET"
	CmdVersion      = "AT+VER?"
	CmdModeSleep    = "AT+MODE=1"
	CmdModeNormal   = "AT+MODE=0"
	CmdNetworkID    = "AT+NETWORKID"
	CmdAddress      = "AT+ADDRESS"
	CmdBand         = "AT+BAND"
	CmdPower        = "AT+CRFOP"
	CmdParameter    = "AT+PARAMETER"
	CmdSend         = "AT+SEND"
	QueryNetworkID  = CmdNetworkID + "?"
	QueryAddress    = CmdAddress + "?"
	QueryBand       = CmdBand + "?"
	preambleDefault = 8
)

const (
	// MaxMessageLength bounds a transmitted or received payload
	MaxMessageLength = 240

	// MaxResponseLength bounds one framed response line
	MaxResponseLength = 256

	// DefaultBaudRate is the modem's factory UART speed
	DefaultBaudRate = 9600

	// BroadcastAddress reaches every node on the network
	BroadcastAddress = 65535

	// CommandTimeout is the default wait for a response line
	CommandTimeout = 2000 * time.Millisecond

	// ResetSettle is how long the modem needs after AT+RESET
	ResetSettle = 2000 * time.Millisecond
)

// BaudRates lists the UART speeds probed during auto-detection, most likely first
var BaudRates = []int{9600, 115200, 57600, 38400, 19200, 4800, 2400}

// Spreading factors accepted by AT+PARAMETER
const (
	SF7  = 7
	SF8  = 8
	SF9  = 9
	SF10 = 10
	SF11 = 11
)

// Bandwidth codes accepted by AT+PARAMETER
const (
	BW7_8 = iota
	BW10_4
	BW15_6
	BW20_8
	BW31_25
	BW41_7
	BW62_5
	BW125
	BW250
	BW500
)

// Coding rates (4/5 .. 4/8) accepted by AT+PARAMETER
const (
	CR4_5 = 1
	CR4_6 = 2
	CR4_7 = 3
	CR4_8 = 4
)
