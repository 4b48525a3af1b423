package audio

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// statsInterval is the number of rendered blocks aggregated into one Stats.
const statsInterval = 100

// Stats summarizes the render cost of the last statsInterval blocks.
type Stats struct {
	Blocks         int
	MeanRenderTime time.Duration
	Frame          uint64 // frame counter when the stats were taken
}

// MeanMillis is the mean per-block computation time in milliseconds.
func (s Stats) MeanMillis() float64 {
	return float64(s.MeanRenderTime) / float64(time.Millisecond)
}

// Observer receives render statistics. It is never called from the render
// goroutine; an error is logged and otherwise ignored.
type Observer func(Stats) error

// statsBuffer is a lock-free spsc queue. The render loop pushes without ever
// blocking; when the queue is full the stats are dropped.
type statsBuffer struct {
	stats       []Stats
	read, write *uint32
	dropped     atomic.Uint64
	ready       chan struct{}
}

func newStatsBuffer(size int) *statsBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("stats buffer size must be a power of 2")
	}
	return &statsBuffer{
		stats: make([]Stats, size),
		read:  new(uint32),
		write: new(uint32),
		ready: make(chan struct{}, 1),
	}
}

func (b *statsBuffer) push(s Stats) bool {
	write := atomic.LoadUint32(b.write)
	if write-atomic.LoadUint32(b.read) == uint32(len(b.stats)) {
		b.dropped.Add(1)
		return false
	}
	b.stats[write%uint32(len(b.stats))] = s
	atomic.StoreUint32(b.write, write+1)
	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

func (b *statsBuffer) iter(f func(Stats)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	for read != write {
		f(b.stats[read%uint32(len(b.stats))])
		read++
	}
	atomic.StoreUint32(b.read, read)
}

// deliver hands queued stats to obs until done is closed.
func (b *statsBuffer) deliver(obs Observer, done <-chan struct{}) {
	for {
		select {
		case <-done:
			b.iter(func(s Stats) { notify(obs, s) })
			return
		case <-b.ready:
			b.iter(func(s Stats) { notify(obs, s) })
		}
	}
}

func notify(obs Observer, s Stats) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: stats observer panicked: %v", r)
		}
	}()
	if err := obs(s); err != nil {
		log.Printf("engine: stats observer: %v", err)
	}
}

// statsCounter accumulates render times on the render goroutine.
type statsCounter struct {
	renders int
	total   time.Duration
}

func (c *statsCounter) add(d time.Duration) (Stats, bool) {
	c.renders++
	c.total += d
	if c.renders < statsInterval {
		return Stats{}, false
	}
	s := Stats{Blocks: c.renders, MeanRenderTime: c.total / time.Duration(c.renders)}
	c.renders = 0
	c.total = 0
	return s, true
}

func (s Stats) String() string {
	return fmt.Sprintf("%d blocks, mean %.3fms per block", s.Blocks, s.MeanMillis())
}
