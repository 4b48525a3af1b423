package audio

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = 2 * math.Pi

type Waveform uint32

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

var waveNames = [...]string{
	Sine:     "sine",
	Square:   "square",
	Triangle: "triangle",
	Sawtooth: "sawtooth",
}

func (w Waveform) valid() bool { return w <= Sawtooth }

func (w Waveform) String() string {
	if !w.valid() {
		return fmt.Sprintf("Waveform(%d)", uint32(w))
	}
	return waveNames[w]
}

func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(s) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sq":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	default:
		return 0, fmt.Errorf("not a valid waveform type: %v", s)
	}
}

// Oscillate fills buf with frames of stereo interleaved samples of waveform w,
// starting at the absolute frame startFrame. Every sample is a function of
// its frame number only, so calls are safe to run concurrently and can start
// at any offset.
func Oscillate(w Waveform, buf []float32, freq, amp, sampleRate float32, frames int, startFrame uint64) {
	if !(freq > 0) {
		panic(fmt.Sprintf("oscillator frequency must be positive: %v", freq))
	}
	if len(buf) != 2*frames {
		panic(fmt.Sprintf("oscillator buffer holds %d samples, want %d", len(buf), 2*frames))
	}

	var fn func(t float64) float64
	var (
		a      = float64(amp)
		f      = float64(freq)
		period = 1 / f
	)
	switch w {
	case Sine:
		fn = func(t float64) float64 {
			return a * math.Sin(twoPi*f*t)
		}
	case Square:
		fn = func(t float64) float64 {
			if math.Mod(t, period) < period/2 {
				return a
			}
			return -a
		}
	case Triangle:
		fn = func(t float64) float64 {
			p := math.Mod(t, period) / period
			if p < 0.5 {
				return a * (4*p - 1)
			}
			return a * (3 - 4*p)
		}
	case Sawtooth:
		slope := 2 * a / period
		fn = func(t float64) float64 {
			return math.Mod(t, period)*slope - a
		}
	default:
		panic(fmt.Sprintf("unknown waveform: %v", w))
	}

	dt := 1 / float64(sampleRate)
	for n := 0; n < frames; n++ {
		t := float64(startFrame+uint64(n)) * dt
		v := float32(fn(t))
		buf[2*n] = v   // L
		buf[2*n+1] = v // R
	}
}
