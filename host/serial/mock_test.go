package serial

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// mockPort emulates a modem that only understands one baud rate
type mockPort struct {
	mu         sync.Mutex
	baud       int
	modemBaud  int
	rx         []byte
	closed     bool
	flushes    int
	written    []string
	readFailer error
}

func (m *mockPort) Read(b []byte) (int, error) {
	deadline := time.Now().Add(5 * time.Millisecond)
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return 0, os.ErrClosed
		}
		if m.readFailer != nil {
			err := m.readFailer
			m.mu.Unlock()
			return 0, err
		}
		if len(m.rx) > 0 {
			n := copy(b, m.rx)
			m.rx = m.rx[n:]
			m.mu.Unlock()
			return n, nil
		}
		m.mu.Unlock()
		if time.Now().After(deadline) {
			return 0, io.EOF
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func (m *mockPort) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, os.ErrClosed
	}
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\r\n") {
		m.written = append(m.written, line)
		if m.baud == m.modemBaud {
			m.rx = append(m.rx, "+OK\r\n"...)
		} else {
			m.rx = append(m.rx, 0xff, 0x00, 0xfe)
		}
	}
	return len(b), nil
}

func (m *mockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockPort) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = nil
	m.flushes++
	return nil
}

func (m *mockPort) feed(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, s...)
}

// mockOpener opens mockPorts answering at modemBaud and records the rates tried
type mockOpener struct {
	modemBaud int
	tried     []int
	fail      error
}

func (o *mockOpener) open(cfg *Config) (Port, error) {
	if o.fail != nil {
		return nil, o.fail
	}
	o.tried = append(o.tried, cfg.Baud)
	return &mockPort{baud: cfg.Baud, modemBaud: o.modemBaud}, nil
}

var errNoDevice = errors.New("no such device")
