package audio

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// RegionSize returns the number of bytes needed for a ring buffer that holds
// capacity samples.
func RegionSize(capacity int) int {
	return headerSize + (capacity+1)*slotSize
}

// NewRegion allocates a zeroed, aligned region for a ring buffer of the given
// capacity.
func NewRegion(capacity int) []byte {
	if capacity <= 0 {
		panic("region capacity must be positive")
	}
	words := make([]uint32, RegionSize(capacity)/slotSize)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*slotSize)
}

// MapRegion maps the file at path as a shared ring buffer region so that a
// consumer in another process can drain it. The file is created or truncated
// and both indices start at zero.
func MapRegion(path string, capacity int) ([]byte, func() error, error) {
	if capacity <= 0 {
		return nil, nil, fmt.Errorf("map region %s: capacity must be positive", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("map region: %w", err)
	}
	defer f.Close()

	size := RegionSize(capacity)
	if err := f.Truncate(int64(size)); err != nil {
		return nil, nil, fmt.Errorf("map region %s: %w", path, err)
	}
	region, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("map region %s: %w", path, err)
	}
	unmap := func() error {
		return unix.Munmap(region)
	}
	return region, unmap, nil
}
