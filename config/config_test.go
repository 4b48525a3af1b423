package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unison.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
engine:
  sample_rate: 48000
  voices: 8
  detune: 0.5
  waveform: saw
output:
  backend: wav
  wav_path: /tmp/out.wav
  wav_seconds: 2.5
midi:
  port: "Keystation"
  channel: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", cfg.Engine.SampleRate)
	}
	if cfg.Engine.Voices != 8 {
		t.Errorf("expected 8 voices, got %d", cfg.Engine.Voices)
	}
	if cfg.Engine.Waveform != "saw" {
		t.Errorf("expected waveform saw, got %s", cfg.Engine.Waveform)
	}
	if cfg.Output.Backend != OutputWAV || cfg.Output.WAVSeconds != 2.5 {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.MIDI.Port != "Keystation" || cfg.MIDI.Channel != 1 {
		t.Errorf("unexpected midi config: %+v", cfg.MIDI)
	}

	// untouched settings keep their defaults
	if want, got := Default().Engine.BlockSize, cfg.Engine.BlockSize; want != got {
		t.Errorf("expected default block size %d, got %d", want, got)
	}
	if want, got := Default().Engine.CrossfadeBlocks, cfg.Engine.CrossfadeBlocks; want != got {
		t.Errorf("expected default crossfade window %d, got %d", want, got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "engine: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}

	path := writeConfig(t, `
engine:
  block_size: 4096
  ring_capacity: 1024
output:
  backend: alsa
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"ring_capacity", "unknown output backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error: %v", want, err)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestValidateSharedRegion(t *testing.T) {
	cfg := Default()
	cfg.Engine.SharedRegion = "/dev/shm/unison"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error for shared region with %s output", cfg.Output.Backend)
	}
	cfg.Output.Backend = OutputNone
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"sample rate", func(c *Config) { c.Engine.SampleRate = 0 }},
		{"block size", func(c *Config) { c.Engine.BlockSize = -1 }},
		{"voices", func(c *Config) { c.Engine.Voices = -2 }},
		{"detune", func(c *Config) { c.Engine.Detune = -1 }},
		{"backoff", func(c *Config) { c.Engine.Backoff = 2 }},
		{"wav path", func(c *Config) {
			c.Output.Backend = OutputWAV
			c.Output.WAVPath = ""
		}},
		{"frames per buffer", func(c *Config) { c.Output.FramesPerBuffer = 0 }},
		{"midi channel", func(c *Config) { c.MIDI.Channel = 17 }},
		{"shared region with local output", func(c *Config) {
			c.Engine.SharedRegion = "/dev/shm/unison"
			c.Output.Backend = OutputOto
		}},
	}
	for _, test := range tests {
		cfg := Default()
		test.modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
