package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays the contents of a ring buffer through an oto player. oto
// pulls samples by calling Read from its own goroutine.
type OtoSink struct {
	ring      *RingBuffer
	ctx       *oto.Context
	player    *oto.Player
	buf       []float32
	underruns atomic.Uint64
}

func NewOtoSink(ring *RingBuffer, sampleRate int, bufferSize time.Duration) (*OtoSink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &OtoSink{
		ring: ring,
		ctx:  ctx,
		buf:  make([]float32, max(4096, 2*int(float64(sampleRate)*bufferSize.Seconds()))),
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

func (s *OtoSink) Start() error {
	s.player.Play()
	return nil
}

func (s *OtoSink) Close() error {
	return s.player.Close()
}

func (s *OtoSink) Underruns() uint64 { return s.underruns.Load() }

// Read encodes buffered samples as little endian float32.
func (s *OtoSink) Read(p []byte) (int, error) {
	return readFloat32LE(s.ring, &s.buf, p, &s.underruns)
}

// readFloat32LE grows scratch to the largest request seen, so steady state
// pulls do not allocate.
func readFloat32LE(ring *RingBuffer, scratch *[]float32, p []byte, underruns *atomic.Uint64) (int, error) {
	// whole stereo frames only
	numSamples := (len(p) / 8) * 2
	if len(*scratch) < numSamples {
		*scratch = make([]float32, numSamples)
	}
	samples := (*scratch)[:numSamples]
	if !pull(ring, samples) {
		underruns.Add(1)
	}
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return numSamples * 4, nil
}
