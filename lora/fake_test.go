package lora

import (
	"strings"
	"sync"

	"lorastep/protocol"
)

// fakeModem answers commands written to it by pushing scripted replies into rx
type fakeModem struct {
	mu      sync.Mutex
	rx      *protocol.RingBuffer
	replies map[string]string
	sent    []string
	partial string
}

func newFakeModem() (*fakeModem, *Engine) {
	rx := protocol.NewRingBuffer(protocol.DefaultRingCapacity)
	f := &fakeModem{
		rx:      rx,
		replies: make(map[string]string),
	}
	return f, NewEngine(f, rx)
}

// reply scripts the answer for cmd; an empty answer means stay silent
func (f *fakeModem) reply(cmd, answer string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[cmd] = answer
}

// inject pushes raw bytes as if the modem sent them unprompted
func (f *fakeModem) inject(s string) {
	for i := 0; i < len(s); i++ {
		f.rx.Push(s[i])
	}
}

func (f *fakeModem) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeModem) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.partial += string(p)
	for {
		i := strings.Index(f.partial, Terminator)
		if i < 0 {
			break
		}
		cmd := f.partial[:i]
		f.partial = f.partial[i+len(Terminator):]
		f.sent = append(f.sent, cmd)

		answer, ok := f.replies[cmd]
		if !ok {
			answer = "+OK"
		}
		if answer != "" {
			f.inject(answer + Terminator)
		}
	}
	return len(p), nil
}
