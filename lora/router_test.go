package lora

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lorastep/protocol"
)

func TestRouterDispatch(t *testing.T) {
	fake, engine := newFakeModem()

	var got []RemoteMessage
	router := NewRouter(engine, HandlerFunc(func(m RemoteMessage) {
		got = append(got, m)
	}))

	fake.inject("+RCV=200,2,ON,-45\r\n+OK\r\n+RCV=201,3,OFF,-50\r\n")

	delivered := 0
	for i := 0; i < 5; i++ {
		ok, err := router.Poll()
		require.NoError(t, err)
		if ok {
			delivered++
		}
	}

	assert.Equal(t, 2, delivered)
	require.Len(t, got, 2)
	assert.Equal(t, "ON", got[0].Payload)
	assert.Equal(t, uint16(201), got[1].Sender)
	assert.Equal(t, "OFF", got[1].Payload)
}

func TestRouterIdle(t *testing.T) {
	_, engine := newFakeModem()
	router := NewRouter(engine, nil)

	ok, err := router.Poll()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRouterMalformed(t *testing.T) {
	fake, engine := newFakeModem()
	calls := 0
	router := NewRouter(engine, HandlerFunc(func(RemoteMessage) { calls++ }))

	fake.inject("+RCV=garbage\r\n")
	ok, err := router.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Zero(t, calls)
}

func TestRouterDropsUnrecognized(t *testing.T) {
	fake, engine := newFakeModem()
	calls := 0
	router := NewRouter(engine, HandlerFunc(func(RemoteMessage) { calls++ }))

	fake.inject("+READY\r\n+ERR=1\r\n")
	for i := 0; i < 3; i++ {
		ok, err := router.Poll()
		assert.False(t, ok)
		assert.NoError(t, err)
	}
	assert.Zero(t, calls)
}

func TestRouterDeliversWithSNR(t *testing.T) {
	fake, engine := newFakeModem()
	var got []RemoteMessage
	router := NewRouter(engine, HandlerFunc(func(m RemoteMessage) {
		got = append(got, m)
	}))

	fake.inject("+RCV=200,3,OFF,-45,11\r\n")
	ok, err := router.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "OFF", got[0].Payload)
	assert.Equal(t, 45, got[0].RSSI)
	assert.Equal(t, 11, got[0].SNR)
}

func TestClassifyLine(t *testing.T) {
	for line, want := range map[string]lineKind{
		"+RCV=1,2,ON,-45": lineReceive,
		"+OK":             lineAck,
		"+ERR=4":          lineError,
		"ERROR":           lineError,
		"+READY":          lineUnknown,
		"hello":           lineUnknown,
	} {
		assert.Equal(t, want, classifyLine(line), line)
	}
}

func TestRouterDropsBareError(t *testing.T) {
	fake, engine := newFakeModem()
	calls := 0
	router := NewRouter(engine, HandlerFunc(func(RemoteMessage) { calls++ }))

	fake.inject("ERROR\r\n")
	ok, err := router.Poll()
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Zero(t, calls)
}

func TestRouterOverflow(t *testing.T) {
	rx := protocol.NewRingBuffer(16)
	engine := NewEngine(&fakeModem{rx: rx, replies: map[string]string{}}, rx)
	calls := 0
	router := NewRouter(engine, HandlerFunc(func(RemoteMessage) { calls++ }))

	for _, c := range []byte(strings.Repeat("+RCV=1,2,ON,-45\r\n", 2)) {
		rx.Push(c)
	}
	ok, err := router.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrBufferOverflow)
	assert.False(t, rx.Overflowed())

	for _, c := range []byte("+RCV=1,1,1,-9\r\n") {
		rx.Push(c)
	}
	ok, err = router.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestRouterSetHandler(t *testing.T) {
	fake, engine := newFakeModem()
	router := NewRouter(engine, nil)

	fake.inject("+RCV=1,2,ON,-45\r\n")
	ok, err := router.Poll()
	assert.False(t, ok)
	assert.NoError(t, err)

	var last RemoteMessage
	router.SetHandler(HandlerFunc(func(m RemoteMessage) { last = m }))
	fake.inject("+RCV=2,3,OFF,-45\r\n")
	ok, err = router.Poll()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "OFF", last.Payload)
}
