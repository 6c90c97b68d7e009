package lora

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceived(t *testing.T) {
	msg, err := ParseReceived("+RCV=200,2,ON,-45")
	require.NoError(t, err)
	assert.Equal(t, uint16(200), msg.Sender)
	assert.Equal(t, "ON", msg.Payload)
	assert.Equal(t, 2, msg.PayloadLength)
	assert.Equal(t, 45, msg.RSSI)
}

func TestParseReceivedWithSNR(t *testing.T) {
	msg, err := ParseReceived("+RCV=5,4,STOP,-60,12")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), msg.Sender)
	assert.Equal(t, "STOP", msg.Payload)
	assert.Equal(t, 60, msg.RSSI)
	assert.Equal(t, 12, msg.SNR)
}

func TestParseReceivedNegativeSNR(t *testing.T) {
	msg, err := ParseReceived("+RCV=5,2,ON,-101,-7")
	require.NoError(t, err)
	assert.Equal(t, 101, msg.RSSI)
	assert.Equal(t, -7, msg.SNR)
}

func TestParseReceivedUnreadableSNR(t *testing.T) {
	msg, err := ParseReceived("+RCV=5,2,ON,-45,??")
	require.NoError(t, err)
	assert.Equal(t, 45, msg.RSSI)
	assert.Zero(t, msg.SNR)
}

func TestParseReceivedUntrustedLength(t *testing.T) {
	msg, err := ParseReceived("+RCV=9,99,HALT,-80")
	require.NoError(t, err)
	assert.Equal(t, "HALT", msg.Payload)
	assert.Equal(t, 4, msg.PayloadLength)
}

func TestParseReceivedTruncatesPayload(t *testing.T) {
	long := strings.Repeat("x", 300)
	msg, err := ParseReceived("+RCV=1,300," + long + ",-10")
	require.NoError(t, err)
	assert.Len(t, msg.Payload, MaxMessageLength-1)
	assert.Equal(t, MaxMessageLength-1, msg.PayloadLength)
}

func TestParseReceivedPositiveRSSI(t *testing.T) {
	msg, err := ParseReceived("+RCV=1,1,1,30")
	require.NoError(t, err)
	assert.Equal(t, 30, msg.RSSI)
}

func TestParseReceivedMalformed(t *testing.T) {
	for _, line := range []string{
		"+OK",
		"+RCV=",
		"+RCV=abc,2,ON,-45",
		"+RCV=70000,2,ON,-45",
		"+RCV=1",
		"+RCV=1,x,ON,-45",
		"+RCV=1,2",
		"+RCV=1,2,ON",
		"+RCV=1,2,ON,strong",
		"+RCV=1,2,ON,,11",
	} {
		_, err := ParseReceived(line)
		assert.ErrorIs(t, err, ErrMalformed, line)
	}
}

func TestRemoteMessageString(t *testing.T) {
	msg := RemoteMessage{Sender: 3, Payload: "ON", RSSI: 40}
	assert.Equal(t, `from=3 rssi=-40 payload="ON"`, msg.String())
}
