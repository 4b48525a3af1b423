package audio

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

const (
	PropFrequency = "freq"
	PropAmplitude = "amp"
	PropWaveform  = "wave"
	PropNote      = "note"
)

// DefaultCrossfadeBlocks is the number of blocks a parameter change is
// smoothed over.
const DefaultCrossfadeBlocks = 10

// Snapshot is a point in time read of the synthesis parameters. Each field is
// loaded atomically on its own; the set as a whole is not.
type Snapshot struct {
	Frequency          float32
	Amplitude          float32
	Waveform           Waveform
	CrossfadeRemaining uint32
}

// Params stores the synthesis parameters so that they can be updated from any
// goroutine without stalling the render loop.
type Params struct {
	frequency atomic.Uint32 // float32 bits
	amplitude atomic.Uint32 // float32 bits
	waveform  atomic.Uint32
	crossfade atomic.Uint32
	note      atomic.Int32 // last note set, -1 if frequency was set directly

	crossfadeBlocks uint32
	setters         map[string]setter
}

func NewParams(crossfadeBlocks int) *Params {
	if crossfadeBlocks <= 0 {
		crossfadeBlocks = DefaultCrossfadeBlocks
	}
	p := &Params{
		crossfadeBlocks: uint32(crossfadeBlocks),
		setters: map[string]setter{
			PropFrequency: setFrequency,
			PropAmplitude: setAmplitude,
			PropWaveform:  setWaveform,
			PropNote:      setNote,
		},
	}
	p.frequency.Store(math.Float32bits(440))
	p.amplitude.Store(math.Float32bits(0.15))
	p.waveform.Store(uint32(Sine))
	p.note.Store(-1)
	return p
}

func (p *Params) SetFrequency(hz float32) error {
	if !(hz > 0) || math.IsInf(float64(hz), 0) {
		return fmt.Errorf("frequency must be a positive number of Hz: %v", hz)
	}
	p.frequency.Store(math.Float32bits(hz))
	p.note.Store(-1)
	p.resetCrossfade()
	return nil
}

func (p *Params) SetAmplitude(amp float32) error {
	if !(amp >= 0 && amp <= 1) {
		return fmt.Errorf("amplitude is not in valid range 0 - 1: %v", amp)
	}
	p.amplitude.Store(math.Float32bits(amp))
	p.resetCrossfade()
	return nil
}

func (p *Params) SetWaveform(w Waveform) error {
	if !w.valid() {
		return fmt.Errorf("not a valid waveform: %d", w)
	}
	p.waveform.Store(uint32(w))
	p.resetCrossfade()
	return nil
}

// SetNote sets the frequency from a key number where 49 is A4 (440 Hz).
func (p *Params) SetNote(note int) error {
	if note < 0 || note > 127 {
		return fmt.Errorf("note is not in valid range 0 - 127: %v", note)
	}
	// The note is stored before the frequency it implies. A racing
	// SetFrequency can then only leave the note at -1, never a key that
	// does not match the frequency.
	p.note.Store(int32(note))
	p.frequency.Store(math.Float32bits(NoteToFrequency(note)))
	p.resetCrossfade()
	return nil
}

func (p *Params) Snapshot() Snapshot {
	return Snapshot{
		Frequency:          math.Float32frombits(p.frequency.Load()),
		Amplitude:          math.Float32frombits(p.amplitude.Load()),
		Waveform:           Waveform(p.waveform.Load()),
		CrossfadeRemaining: p.crossfade.Load(),
	}
}

// CrossfadeBlocks is the length of the smoothing window in blocks.
func (p *Params) CrossfadeBlocks() int { return int(p.crossfadeBlocks) }

func (p *Params) resetCrossfade() {
	p.crossfade.Store(p.crossfadeBlocks)
}

// decayCrossfade counts one smoothed block. A reset that raced with the
// render loop is kept.
func (p *Params) decayCrossfade(observed uint32) {
	if observed == 0 {
		return
	}
	p.crossfade.CompareAndSwap(observed, observed-1)
}

// Set updates the parameter named by key.
func (p *Params) Set(key string, value interface{}) error {
	set, ok := p.setters[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := set(p, value); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Params) Get(key string) (interface{}, error) {
	snap := p.Snapshot()
	switch key {
	case PropFrequency:
		return float64(snap.Frequency), nil
	case PropAmplitude:
		return float64(snap.Amplitude), nil
	case PropWaveform:
		return snap.Waveform.String(), nil
	case PropNote:
		return int(p.note.Load()), nil
	}
	return nil, fmt.Errorf("unknown property %s", key)
}

// Keys lists the names accepted by Set and Get.
func (p *Params) Keys() []string {
	keys := make([]string, 0, len(p.setters))
	for k := range p.setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type setter func(p *Params, v interface{}) error

func setFrequency(p *Params, v interface{}) error {
	f, err := toFloat32(v)
	if err != nil {
		return err
	}
	return p.SetFrequency(f)
}

func setAmplitude(p *Params, v interface{}) error {
	f, err := toFloat32(v)
	if err != nil {
		return err
	}
	return p.SetAmplitude(f)
}

func setWaveform(p *Params, v interface{}) error {
	switch w := v.(type) {
	case Waveform:
		return p.SetWaveform(w)
	case string:
		wave, err := ParseWaveform(w)
		if err != nil {
			return err
		}
		return p.SetWaveform(wave)
	default:
		return fmt.Errorf("value is not a waveform: %v", v)
	}
}

func setNote(p *Params, v interface{}) error {
	switch n := v.(type) {
	case int:
		return p.SetNote(n)
	case float64:
		if n != math.Trunc(n) {
			return fmt.Errorf("note is not a whole number: %v", n)
		}
		return p.SetNote(int(n))
	default:
		return fmt.Errorf("value is not an int: %v", v)
	}
}

func toFloat32(v interface{}) (float32, error) {
	switch n := v.(type) {
	case float32:
		return n, nil
	case float64:
		return float32(n), nil
	case int:
		return float32(n), nil
	default:
		return 0, fmt.Errorf("value is not a float: %v", v)
	}
}

// NoteToFrequency converts a key number to Hz using equal temperament with
// key 49 tuned to 440 Hz.
func NoteToFrequency(note int) float32 {
	return float32(440 * math.Pow(2, float64(note-49)/12.0))
}
