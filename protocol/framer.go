package protocol

// Intake is the consumer side of the receive ring
type Intake interface {
	Pop() (byte, bool)
	Overflowed() bool
	Reset()
}

// LineFramer assembles CR/LF terminated text lines from an Intake
type LineFramer struct {
	src Intake
	buf []byte
}

// NewLineFramer creates a framer reading from src
func NewLineFramer(src Intake) *LineFramer {
	return &LineFramer{
		src: src,
		buf: make([]byte, 0, 256),
	}
}

func isTerminator(c byte) bool {
	return c == '\r' || c == '\n'
}

// TryReadLine drains waiting bytes into a line of at most maxLen-1 bytes.
//
// A terminator ends the line; runs of terminators never produce empty lines.
// When the intake runs dry before a terminator the partial content is returned
// as a line, so a caller cannot tell a truncated line from a short complete one.
// Returns ErrNoLine when nothing was read, and ErrBufferOverflow (after
// discarding the line and resetting the intake) when bytes were dropped.
func (f *LineFramer) TryReadLine(maxLen int) (string, error) {
	if maxLen < 2 {
		maxLen = 2
	}
	if f.src.Overflowed() {
		return "", f.discard()
	}

	f.buf = f.buf[:0]
	for len(f.buf) < maxLen-1 {
		c, ok := f.src.Pop()
		if !ok {
			break
		}
		if isTerminator(c) {
			if len(f.buf) > 0 {
				break
			}
			continue
		}
		f.buf = append(f.buf, c)
	}

	if f.src.Overflowed() {
		return "", f.discard()
	}
	if len(f.buf) == 0 {
		return "", ErrNoLine
	}
	return string(f.buf), nil
}

// discard drops the in-flight line and everything still queued behind it
func (f *LineFramer) discard() error {
	f.buf = f.buf[:0]
	f.src.Reset()
	return ErrBufferOverflow
}
