package audio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

const (
	headerSize = 8 // write index + read index
	slotSize   = 4 // one float32
)

var (
	ErrRegionTooSmall   = errors.New("shared region too small")
	ErrRegionMisaligned = errors.New("shared region not 4-byte aligned")
)

// RingBuffer is a lock-free spsc queue of interleaved float32 samples laid out
// over a shared memory region. The render loop is the only producer; it never
// moves the read index. Playback consumers are the only callers of Read.
type RingBuffer struct {
	write, read *uint32
	storage     []float32
	slots       uint32 // includes the one slot that separates full from empty
}

// NewRingBuffer interprets region as a 4 byte write index, a 4 byte read
// index and (len(region)-8)/4 float32 slots. The region contents are not
// validated; both indices are used as found.
func NewRingBuffer(region []byte) (*RingBuffer, error) {
	if len(region) < headerSize+2*slotSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrRegionTooSmall, len(region))
	}
	if (len(region)-headerSize)%slotSize != 0 {
		return nil, fmt.Errorf("shared region size %d: storage is not a whole number of samples", len(region))
	}
	base := unsafe.Pointer(&region[0])
	if uintptr(base)%slotSize != 0 {
		return nil, ErrRegionMisaligned
	}
	slots := (len(region) - headerSize) / slotSize
	return &RingBuffer{
		write:   (*uint32)(base),
		read:    (*uint32)(unsafe.Add(base, 4)),
		storage: unsafe.Slice((*float32)(unsafe.Add(base, headerSize)), slots),
		slots:   uint32(slots),
	}, nil
}

func MustRingBuffer(region []byte) *RingBuffer {
	b, err := NewRingBuffer(region)
	if err != nil {
		panic(err)
	}
	return b
}

// Capacity is the number of samples the buffer can hold.
func (b *RingBuffer) Capacity() int {
	return int(b.slots - 1)
}

func (b *RingBuffer) AvailableToWrite() int {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	return b.availableWrite(read, write)
}

func (b *RingBuffer) AvailableToRead() int {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	return b.availableRead(read, write)
}

func (b *RingBuffer) Empty() bool {
	return atomic.LoadUint32(b.read) == atomic.LoadUint32(b.write)
}

func (b *RingBuffer) Full() bool {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	return (write+1)%b.slots == read
}

func (b *RingBuffer) availableRead(read, write uint32) int {
	return int((write + b.slots - read) % b.slots)
}

func (b *RingBuffer) availableWrite(read, write uint32) int {
	return int(b.slots) - b.availableRead(read, write) - 1
}

// Write copies as many leading samples as fit and publishes them to the
// consumer. It returns 0 when the buffer is full; the caller should retry
// later.
func (b *RingBuffer) Write(samples []float32) int {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	if (write+1)%b.slots == read {
		return 0
	}

	n := min(len(samples), b.availableWrite(read, write))
	first := min(int(b.slots-write), n)
	copy(b.storage[write:int(write)+first], samples[:first])
	copy(b.storage[:n-first], samples[first:n])

	atomic.StoreUint32(b.write, (write+uint32(n))%b.slots)
	return n
}

// Read copies up to len(target) buffered samples into target and releases
// their slots to the producer.
func (b *RingBuffer) Read(target []float32) int {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	if read == write {
		return 0
	}
	n := b.copyOut(target, read, write)
	atomic.StoreUint32(b.read, (read+uint32(n))%b.slots)
	return n
}

// CopyData peeks at up to len(target) buffered samples without consuming
// them.
func (b *RingBuffer) CopyData(target []float32) int {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	return b.copyOut(target, read, write)
}

func (b *RingBuffer) copyOut(target []float32, read, write uint32) int {
	n := min(len(target), b.availableRead(read, write))
	first := min(int(b.slots-read), n)
	copy(target[:first], b.storage[read:int(read)+first])
	copy(target[first:n], b.storage[:n-first])
	return n
}
