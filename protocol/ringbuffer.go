package protocol

import "sync/atomic"

// DefaultRingCapacity matches the receive buffer the modem driver was sized for
const DefaultRingCapacity = 512

// RingBuffer is a single-producer/single-consumer circular byte store fed from
// the serial receive path.
//
// Push is called only from the producer (UART interrupt or the host read pump).
// Pop, Reset, Available and Overflowed are called only from the consumer.
// The write index is stored only by the producer and the read index only by
// the consumer, so no lock is needed.
type RingBuffer struct {
	buf      []byte
	size     uint32
	read     uint32 // atomic, consumer-owned
	write    uint32 // atomic, producer-owned
	overflow uint32 // atomic bool, set by producer, cleared by consumer
}

// NewRingBuffer creates a RingBuffer with the given capacity.
// One slot is reserved, so capacity-1 bytes can be held.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		capacity = 2
	}
	return &RingBuffer{
		buf:  make([]byte, capacity),
		size: uint32(capacity),
	}
}

// Push stores one byte. It never blocks: when the buffer is full the byte is
// dropped, the overflow flag is set and false is returned.
func (r *RingBuffer) Push(b byte) bool {
	w := atomic.LoadUint32(&r.write)
	next := (w + 1) % r.size
	if next == atomic.LoadUint32(&r.read) {
		atomic.StoreUint32(&r.overflow, 1)
		return false
	}
	r.buf[w] = b
	// publish the byte before the index
	atomic.StoreUint32(&r.write, next)
	return true
}

// Pop removes one byte. Returns false when the buffer is empty.
func (r *RingBuffer) Pop() (byte, bool) {
	rd := atomic.LoadUint32(&r.read)
	if rd == atomic.LoadUint32(&r.write) {
		return 0, false
	}
	b := r.buf[rd]
	atomic.StoreUint32(&r.read, (rd+1)%r.size)
	return b, true
}

// Available returns the number of unread bytes. The value is advisory and may
// be stale by the time it is used.
func (r *RingBuffer) Available() int {
	w := atomic.LoadUint32(&r.write)
	rd := atomic.LoadUint32(&r.read)
	return int((w + r.size - rd) % r.size)
}

// Capacity returns the number of bytes the buffer can hold
func (r *RingBuffer) Capacity() int {
	return int(r.size) - 1
}

// Overflowed reports whether bytes were dropped since the last Reset
func (r *RingBuffer) Overflowed() bool {
	return atomic.LoadUint32(&r.overflow) != 0
}

// Reset discards all unread bytes and clears the overflow flag.
// Only the read index moves, so it is safe while the producer is running.
func (r *RingBuffer) Reset() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	atomic.StoreUint32(&r.read, atomic.LoadUint32(&r.write))
	atomic.StoreUint32(&r.overflow, 0)
}

// Write pushes every byte of p, stopping at the first dropped byte.
// It lets the buffer act as the io.Writer end of a read pump.
func (r *RingBuffer) Write(p []byte) (int, error) {
	for i, b := range p {
		if !r.Push(b) {
			return i, ErrBufferOverflow
		}
	}
	return len(p), nil
}
