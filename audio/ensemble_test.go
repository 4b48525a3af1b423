package audio

import (
	"math"
	"testing"
)

func TestEnsembleSingleVoice(t *testing.T) {
	const frames = 64
	e := NewEnsemble(1, frames, 48000, 0)
	defer e.Close()

	snap := Snapshot{Frequency: 880, Amplitude: 0.3, Waveform: Triangle}
	out := make([]float32, 2*frames)
	e.Render(out, snap, 1000)

	gain := float32(0.3) * float32(math.Sqrt(440.0/880.0))
	want := make([]float32, 2*frames)
	Oscillate(Triangle, want, 880, gain, 48000, frames, 1000)
	for n := range want {
		if out[n] != want[n] {
			t.Fatalf("sample %d: want %v, got %v", n, want[n], out[n])
		}
	}
}

func TestEnsembleAverage(t *testing.T) {
	const (
		frames = 128
		voices = 5
	)
	e := NewEnsemble(voices, frames, 44100, 1.5)
	defer e.Close()

	snap := Snapshot{Frequency: 220, Amplitude: 0.8, Waveform: Sine}
	out := make([]float32, 2*frames)

	// render twice so reused voice buffers are exercised
	e.Render(out, snap, 0)
	e.Render(out, snap, 512)

	gain := float32(0.8) * float32(math.Sqrt(440.0/220.0))
	want := make([]float32, 2*frames)
	tmp := make([]float32, 2*frames)
	for i := 0; i < voices; i++ {
		Oscillate(Sine, tmp, 220+float32(i)*1.5, gain, 44100, frames, 512)
		for n := range tmp {
			want[n] += tmp[n]
		}
	}
	for n := range want {
		want[n] /= voices
		if math.Abs(float64(out[n]-want[n])) > 1e-6 {
			t.Fatalf("sample %d: want %v, got %v", n, want[n], out[n])
		}
	}
}

func TestEnsembleNoVoices(t *testing.T) {
	e := NewEnsemble(0, 16, 44100, 1)
	defer e.Close()

	out := make([]float32, 32)
	for n := range out {
		out[n] = 1
	}
	e.Render(out, Snapshot{Frequency: 440, Amplitude: 1, Waveform: Square}, 0)
	for n, v := range out {
		if v != 0 {
			t.Fatalf("sample %d: want 0, got %v", n, v)
		}
	}
}
