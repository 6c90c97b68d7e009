package lora

import (
	"fmt"
	"strconv"
	"strings"
)

// RemoteMessage is one payload received over the air
type RemoteMessage struct {
	Sender        uint16
	PayloadLength int
	Payload       string
	RSSI          int // magnitude in dBm, sign dropped
	SNR           int // dB; zero when the firmware omits it
}

// ParseReceived parses a +RCV=<address>,<length>,<payload>,<rssi>[,<snr>]
// notification.
//
// The declared length is not trusted: the payload runs to the next comma and
// is cut to MaxMessageLength-1 bytes, and PayloadLength reports what was kept.
func ParseReceived(line string) (RemoteMessage, error) {
	var msg RemoteMessage

	if !strings.HasPrefix(line, PrefixRecv) {
		return msg, fmt.Errorf("%w: missing %s prefix", ErrMalformed, PrefixRecv)
	}
	rest := line[len(PrefixRecv):]

	field, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return msg, fmt.Errorf("%w: no address", ErrMalformed)
	}
	addr, err := strconv.ParseUint(field, 10, 16)
	if err != nil {
		return msg, fmt.Errorf("%w: address %q", ErrMalformed, field)
	}
	msg.Sender = uint16(addr)

	field, rest, ok = strings.Cut(rest, ",")
	if !ok {
		return msg, fmt.Errorf("%w: no length", ErrMalformed)
	}
	if _, err := strconv.ParseUint(field, 10, 32); err != nil {
		return msg, fmt.Errorf("%w: length %q", ErrMalformed, field)
	}

	payload, rest, ok := strings.Cut(rest, ",")
	if !ok {
		return msg, fmt.Errorf("%w: unterminated payload", ErrMalformed)
	}
	if len(payload) > MaxMessageLength-1 {
		payload = payload[:MaxMessageLength-1]
	}
	msg.Payload = payload
	msg.PayloadLength = len(payload)

	field, rest, hasSNR := strings.Cut(rest, ",")
	rssi, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return msg, fmt.Errorf("%w: rssi %q", ErrMalformed, field)
	}
	if rssi < 0 {
		rssi = -rssi
	}
	msg.RSSI = rssi

	// SNR is informational; an unreadable value is ignored
	if hasSNR {
		field, _, _ = strings.Cut(rest, ",")
		if snr, err := strconv.Atoi(strings.TrimSpace(field)); err == nil {
			msg.SNR = snr
		}
	}

	return msg, nil
}

// String implements fmt.Stringer.
func (m RemoteMessage) String() string {
	return fmt.Sprintf("from=%d rssi=-%d payload=%q", m.Sender, m.RSSI, m.Payload)
}
