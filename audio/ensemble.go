package audio

import (
	"math"
	"runtime"
	"sync"
)

// Ensemble renders a number of detuned copies of the same voice in parallel
// and averages them into one block.
type Ensemble struct {
	blockSize  int
	sampleRate float32
	detune     float32 // Hz added per voice

	voices [][]float32 // one stereo block per voice, reused every render
	jobs   chan ensembleJob
	wg     sync.WaitGroup

	closeOnce sync.Once
}

type ensembleJob struct {
	voice int
	snap  Snapshot
	frame uint64
	gain  float32
}

// NewEnsemble starts min(voices, GOMAXPROCS) worker goroutines. Close stops
// them.
func NewEnsemble(voices, blockSize int, sampleRate, detune float32) *Ensemble {
	if voices < 0 {
		voices = 0
	}
	e := &Ensemble{
		blockSize:  blockSize,
		sampleRate: sampleRate,
		detune:     detune,
		voices:     make([][]float32, voices),
		jobs:       make(chan ensembleJob, voices),
	}
	for i := range e.voices {
		e.voices[i] = make([]float32, 2*blockSize)
	}
	workers := min(voices, runtime.GOMAXPROCS(0))
	for i := 0; i < workers; i++ {
		go e.work()
	}
	return e
}

// Voices is the number of voices summed per block.
func (e *Ensemble) Voices() int { return len(e.voices) }

func (e *Ensemble) work() {
	for job := range e.jobs {
		freq := job.snap.Frequency + float32(job.voice)*e.detune
		Oscillate(job.snap.Waveform, e.voices[job.voice], freq, job.gain,
			e.sampleRate, e.blockSize, job.frame)
		e.wg.Done()
	}
}

// Render fills out (2*blockSize samples) with the normalized sum of all voices
// starting at frame.
func (e *Ensemble) Render(out []float32, snap Snapshot, frame uint64) {
	for n := range out {
		out[n] = 0
	}
	if len(e.voices) == 0 {
		return
	}

	// keep perceived loudness roughly constant across pitch
	gain := snap.Amplitude * float32(math.Sqrt(440/float64(snap.Frequency)))

	e.wg.Add(len(e.voices))
	for i := range e.voices {
		e.jobs <- ensembleJob{voice: i, snap: snap, frame: frame, gain: gain}
	}
	e.wg.Wait()

	for _, buf := range e.voices {
		for n, sample := range buf {
			out[n] += sample
		}
	}
	scale := 1 / float32(len(e.voices))
	for n := range out {
		out[n] *= scale
	}
}

func (e *Ensemble) Close() {
	e.closeOnce.Do(func() { close(e.jobs) })
}
