package audio

import (
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// Sink plays the contents of a ring buffer on the default output device.
type Sink struct {
	ring      *RingBuffer
	stream    *portaudio.Stream
	buf       []float32
	underruns atomic.Uint64
}

func NewSink(ring *RingBuffer, sampleRate float64, framesPerBuffer int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{
		ring: ring,
		buf:  make([]float32, 2*framesPerBuffer),
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, framesPerBuffer, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

// Underruns is the number of device callbacks that found less audio than
// they needed.
func (s *Sink) Underruns() uint64 { return s.underruns.Load() }

// Process is the device callback. It is the only reader of the ring buffer.
func (s *Sink) Process(samples [][]float32) {
	need := 2 * len(samples[0])
	if len(s.buf) < need {
		s.buf = make([]float32, need)
	}
	buf := s.buf[:need]
	if !pull(s.ring, buf) {
		s.underruns.Add(1)
	}
	deinterleave(buf, samples)
}
