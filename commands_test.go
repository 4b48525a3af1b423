package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mrdg/unison/audio"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	ring := audio.MustRingBuffer(audio.NewRegion(1024))
	params := audio.NewParams(0)
	engine, err := audio.NewEngine(ring, params, audio.Options{
		BlockSize:  64,
		SampleRate: 44100,
		Voices:     2,
		Detune:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)
	return &env{
		ctx:    context.Background(),
		engine: engine,
		params: params,
		out:    &bytes.Buffer{},
	}
}

func TestEval(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		input, want string
	}{
		{"note 61", "880.00Hz"},
		{"get freq", "880"},
		{"get note", "61"},
		{"freq 220.5", ""},
		{"get freq", "220.5"},
		{"get note", "-1"},
		{"amp 1", ""},
		{"get amp", "1"},
		{"wave saw", ""},
		{"get wave", "sawtooth"},
		{"set wave tri", ""},
		{"set amp 0.5", ""},
		{"get amp", "0.5"},
		{"set note 49", ""},
		{"get freq", "440"},
		{"preset flute", ""},
		{"get wave", "triangle"},
		{"presets", "a4 brass flute reed"},
	}
	for _, test := range tests {
		got, err := env.eval(test.input)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.input, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: want %q, got %q", test.input, test.want, got)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	env := newTestEnv(t)
	for _, input := range []string{
		"bogus",
		"note",
		"note 1 2",
		"note 128",
		"note 1.5",
		"freq 0",
		"freq sine",
		"amp 1.5",
		"wave noise",
		"set pitch 1",
		"set amp \"loud\"",
		"get pitch",
		"preset organ",
	} {
		if _, err := env.eval(input); err == nil {
			t.Errorf("%s: expected error", input)
		}
	}
	snap := env.params.Snapshot()
	if snap.Frequency != 440 || snap.Waveform != audio.Sine {
		t.Errorf("failed commands changed the parameters: %+v", snap)
	}

	if _, err := env.eval("quit"); !errors.Is(err, errQuit) {
		t.Errorf("expected errQuit, got %v", err)
	}
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.eval("start"); err != nil {
		t.Fatal(err)
	}
	if !env.engine.Running() {
		t.Errorf("engine not running after start")
	}
	if _, err := env.eval("start"); !errors.Is(err, audio.ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
	if _, err := env.eval("stop"); err != nil {
		t.Fatal(err)
	}
	if env.engine.Running() {
		t.Errorf("engine running after stop")
	}

	frame, err := env.eval("frame")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(frame, "s)") {
		t.Errorf("unexpected frame output: %q", frame)
	}
}

func TestHelp(t *testing.T) {
	env := newTestEnv(t)
	help, err := env.eval("help")
	if err != nil {
		t.Fatal(err)
	}
	if want, got := len(commands), len(strings.Split(help, "\n")); want != got {
		t.Errorf("want %d lines of help, got %d", want, got)
	}
}
