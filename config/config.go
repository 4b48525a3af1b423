// Package config loads engine and host settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output backends.
const (
	OutputPortAudio = "portaudio"
	OutputOto       = "oto"
	OutputWAV       = "wav"
	OutputNone      = "none" // render into the region only, for an external consumer
)

type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Output OutputConfig `yaml:"output"`
	MIDI   MIDIConfig   `yaml:"midi"`
}

type EngineConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	BlockSize       int     `yaml:"block_size"`
	Voices          int     `yaml:"voices"`
	Detune          float64 `yaml:"detune"`
	Waveform        string  `yaml:"waveform"`
	CrossfadeBlocks int     `yaml:"crossfade_blocks"`
	RingCapacity    int     `yaml:"ring_capacity"` // samples, not frames
	Backoff         float64 `yaml:"backoff"`
	// SharedRegion is a file (usually under /dev/shm) mapped as the ring
	// buffer region. Empty means a private region. The external process is
	// then the only consumer, so the output backend must be "none".
	SharedRegion string `yaml:"shared_region"`
}

type OutputConfig struct {
	Backend         string  `yaml:"backend"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	BufferMs        int     `yaml:"buffer_ms"` // oto only
	WAVPath         string  `yaml:"wav_path"`
	WAVSeconds      float64 `yaml:"wav_seconds"`
}

type MIDIConfig struct {
	// Port is a substring of the input port name. Empty disables MIDI.
	Port    string `yaml:"port"`
	Channel int    `yaml:"channel"` // 1-16, 0 listens on all channels
}

func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			SampleRate:      44100,
			BlockSize:       128,
			Voices:          4,
			Detune:          1,
			Waveform:        "sine",
			CrossfadeBlocks: 10,
			RingCapacity:    4096,
			Backoff:         0.25,
		},
		Output: OutputConfig{
			Backend:         OutputPortAudio,
			FramesPerBuffer: 256,
			BufferMs:        50,
			WAVPath:         "unison.wav",
			WAVSeconds:      5,
		},
	}
}

// Load reads path on top of the defaults, so a file only needs the settings
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	e := c.Engine
	if e.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.sample_rate must be positive: %d", e.SampleRate))
	}
	if e.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.block_size must be positive: %d", e.BlockSize))
	}
	if e.Voices < 0 {
		errs = append(errs, fmt.Errorf("engine.voices must not be negative: %d", e.Voices))
	}
	if e.Detune < 0 {
		errs = append(errs, fmt.Errorf("engine.detune must not be negative: %v", e.Detune))
	}
	if e.RingCapacity < 2*e.BlockSize {
		errs = append(errs, fmt.Errorf("engine.ring_capacity %d cannot hold a block of %d frames",
			e.RingCapacity, e.BlockSize))
	}
	if e.Backoff < 0 || e.Backoff > 1 {
		errs = append(errs, fmt.Errorf("engine.backoff must be within [0, 1]: %v", e.Backoff))
	}

	o := c.Output
	switch o.Backend {
	case OutputPortAudio, OutputOto, OutputNone:
	case OutputWAV:
		if o.WAVPath == "" {
			errs = append(errs, errors.New("output.wav_path is required for wav output"))
		}
		if o.WAVSeconds <= 0 {
			errs = append(errs, fmt.Errorf("output.wav_seconds must be positive: %v", o.WAVSeconds))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output backend: %q", o.Backend))
	}
	// the ring has a single consumer: a shared region is drained by the
	// external reader, never by a local backend as well
	if e.SharedRegion != "" && o.Backend != OutputNone {
		errs = append(errs, fmt.Errorf("engine.shared_region requires output.backend %q, got %q",
			OutputNone, o.Backend))
	}
	if o.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("output.frames_per_buffer must be positive: %d", o.FramesPerBuffer))
	}

	if c.MIDI.Channel < 0 || c.MIDI.Channel > 16 {
		errs = append(errs, fmt.Errorf("midi.channel must be within 0-16: %d", c.MIDI.Channel))
	}
	return errors.Join(errs...)
}
