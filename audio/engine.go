package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var ErrRunning = errors.New("engine is already running")

type loopState int

const (
	stateIdle loopState = iota // not enough space in the ring buffer
	stateRendering
)

func (s loopState) String() string {
	if s == stateRendering {
		return "rendering"
	}
	return "idle"
}

// Options configures an Engine.
type Options struct {
	BlockSize  int     // frames per render
	SampleRate float32 // Hz
	Voices     int     // ensemble size
	Detune     float32 // Hz between adjacent voices
	Waveform   Waveform
	Observer   Observer // optional

	// Backoff is the fraction of one block's duration to sleep when the ring
	// buffer has no room. Defaults to 0.25.
	Backoff float64
}

// Engine renders blocks into a ring buffer for as long as it is running.
type Engine struct {
	ring     *RingBuffer
	params   *Params
	ensemble *Ensemble
	fader    *crossfader

	blockSize  int
	sampleRate float32
	backoff    time.Duration
	block      []float32

	frame   atomic.Uint64
	running atomic.Bool
	wake    chan struct{}

	counter  statsCounter
	stats    *statsBuffer
	observer Observer

	mu   sync.Mutex // guards done
	done chan struct{}
}

func NewEngine(ring *RingBuffer, params *Params, opts Options) (*Engine, error) {
	switch {
	case opts.BlockSize <= 0:
		return nil, fmt.Errorf("block size must be positive: %d", opts.BlockSize)
	case !(opts.SampleRate > 0):
		return nil, fmt.Errorf("sample rate must be positive: %v", opts.SampleRate)
	case opts.Voices < 0:
		return nil, fmt.Errorf("voice count must not be negative: %d", opts.Voices)
	case !(opts.Detune >= 0) || math.IsInf(float64(opts.Detune), 0):
		return nil, fmt.Errorf("detune must be a non-negative number of Hz: %v", opts.Detune)
	case !opts.Waveform.valid():
		return nil, fmt.Errorf("not a valid waveform: %d", opts.Waveform)
	case ring.Capacity() < 2*opts.BlockSize:
		return nil, fmt.Errorf("ring buffer capacity %d cannot hold one block of %d samples",
			ring.Capacity(), 2*opts.BlockSize)
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 0.25
	}
	blockDuration := float64(opts.BlockSize) / float64(opts.SampleRate) * float64(time.Second)

	params.waveform.Store(uint32(opts.Waveform))

	e := &Engine{
		ring:       ring,
		params:     params,
		ensemble:   NewEnsemble(opts.Voices, opts.BlockSize, opts.SampleRate, opts.Detune),
		fader:      newCrossfader(opts.BlockSize, params.CrossfadeBlocks()),
		blockSize:  opts.BlockSize,
		sampleRate: opts.SampleRate,
		backoff:    time.Duration(blockDuration * opts.Backoff),
		block:      make([]float32, 2*opts.BlockSize),
		wake:       make(chan struct{}, 1),
		observer:   opts.Observer,
	}
	if e.observer != nil {
		e.stats = newStatsBuffer(16)
	}
	log.Printf("engine: ring capacity %d samples, block size %d, %d voices at %vHz",
		ring.Capacity(), opts.BlockSize, opts.Voices, opts.SampleRate)
	return e, nil
}

// Frame is the number of frames rendered so far.
func (e *Engine) Frame() uint64 { return e.frame.Load() }

// CurrentTime is the playback position of the end of the last rendered block.
func (e *Engine) CurrentTime() time.Duration {
	return time.Duration(float64(e.frame.Load()) / float64(e.sampleRate) * float64(time.Second))
}

func (e *Engine) Running() bool { return e.running.Load() }

func (e *Engine) BlockSize() int { return e.blockSize }

func (e *Engine) SampleRate() float32 { return e.sampleRate }

func (e *Engine) Params() *Params { return e.params }

// DroppedStats is the number of stats discarded because the observer fell
// behind.
func (e *Engine) DroppedStats() uint64 {
	if e.stats == nil {
		return 0
	}
	return e.stats.dropped.Load()
}

// step runs one cycle of the render loop.
func (e *Engine) step() loopState {
	snap := e.params.Snapshot()
	frame := e.frame.Load()

	if e.ring.AvailableToWrite() < len(e.block) {
		return stateIdle
	}

	start := time.Now()
	e.ensemble.Render(e.block, snap, frame)
	if e.fader.process(e.block, snap.CrossfadeRemaining) {
		e.params.decayCrossfade(snap.CrossfadeRemaining)
	}
	e.ring.Write(e.block)
	e.frame.Add(uint64(e.blockSize))

	if s, ok := e.counter.add(time.Since(start)); ok && e.stats != nil {
		s.Frame = e.frame.Load()
		e.stats.push(s)
	}
	return stateRendering
}

// Run renders on the calling goroutine until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	done, err := e.begin()
	if err != nil {
		return err
	}
	defer close(done)
	return e.loop(ctx)
}

// Start runs the render loop on a new goroutine.
func (e *Engine) Start(ctx context.Context) error {
	done, err := e.begin()
	if err != nil {
		return err
	}
	go func() {
		defer close(done)
		if err := e.loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("engine: %v", err)
		}
	}()
	return nil
}

func (e *Engine) begin() (chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != nil {
		select {
		case <-e.done:
		default:
			return nil, ErrRunning
		}
	}
	e.done = make(chan struct{})
	e.running.Store(true)
	return e.done, nil
}

// Stop asks the render loop to exit. It returns without waiting; use Wait
// for that.
func (e *Engine) Stop() {
	e.running.Store(false)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the current render loop, if any, has exited.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close stops the engine and its worker goroutines.
func (e *Engine) Close() {
	e.Stop()
	e.Wait()
	e.ensemble.Close()
}

func (e *Engine) loop(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer e.running.Store(false)

	if e.stats != nil {
		stop := make(chan struct{})
		delivered := make(chan struct{})
		go func() {
			defer close(delivered)
			e.stats.deliver(e.observer, stop)
		}()
		defer func() {
			close(stop)
			<-delivered
		}()
	}

	timer := time.NewTimer(e.backoff)
	defer timer.Stop()

	for e.running.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if e.step() == stateRendering {
			continue
		}
		timer.Reset(e.backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.wake:
		case <-timer.C:
		}
	}
	return nil
}
