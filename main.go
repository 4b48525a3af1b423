package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrdg/unison/audio"
	"github.com/mrdg/unison/config"
	"github.com/mrdg/unison/script"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// errQuit ends the session without reporting an error.
var errQuit = errors.New("quit")

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file")
		rate       = flag.Int("rate", 0, "sample rate in Hz")
		block      = flag.Int("block", 0, "frames per render")
		voices     = flag.Int("voices", -1, "ensemble size")
		detune     = flag.Float64("detune", -1, "Hz between adjacent voices")
		wave       = flag.String("wave", "", "initial waveform: sine, square, tri, saw")
		output     = flag.String("output", "", "portaudio, oto, wav or none")
		wavPath    = flag.String("wav", "", "file written by -output wav")
		seconds    = flag.Float64("seconds", 0, "length of -output wav in seconds")
		shm        = flag.String("shm", "", "map the ring buffer onto this file for an external reader, e.g. /dev/shm/unison (needs -output none)")
		midiPort   = flag.String("midi", "", "MIDI input port name (substring)")
		run        = flag.String("run", "", "script to run before reading commands")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.Engine.SampleRate = *rate
		case "block":
			cfg.Engine.BlockSize = *block
		case "voices":
			cfg.Engine.Voices = *voices
		case "detune":
			cfg.Engine.Detune = *detune
		case "wave":
			cfg.Engine.Waveform = *wave
		case "output":
			cfg.Output.Backend = *output
		case "wav":
			cfg.Output.WAVPath = *wavPath
		case "seconds":
			cfg.Output.WAVSeconds = *seconds
		case "shm":
			cfg.Engine.SharedRegion = *shm
		case "midi":
			cfg.MIDI.Port = *midiPort
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	var commands []script.Command
	if *run != "" {
		f, err := os.Open(*run)
		if err != nil {
			log.Fatal(err)
		}
		commands, err = script.ParseScript(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *run, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := session(ctx, cfg, commands); err != nil {
		log.Fatal(err)
	}
}

type sink interface {
	Start() error
	Close() error
	Underruns() uint64
}

func session(ctx context.Context, cfg *config.Config, commands []script.Command) error {
	ec := cfg.Engine
	wave, err := audio.ParseWaveform(ec.Waveform)
	if err != nil {
		return err
	}

	region := audio.NewRegion(ec.RingCapacity)
	if ec.SharedRegion != "" {
		var unmap func() error
		region, unmap, err = audio.MapRegion(ec.SharedRegion, ec.RingCapacity)
		if err != nil {
			return err
		}
		defer unmap()
	}
	ring, err := audio.NewRingBuffer(region)
	if err != nil {
		return err
	}

	env := &env{
		params: audio.NewParams(ec.CrossfadeBlocks),
		out:    os.Stdout,
	}
	engine, err := audio.NewEngine(ring, env.params, audio.Options{
		BlockSize:  ec.BlockSize,
		SampleRate: float32(ec.SampleRate),
		Voices:     ec.Voices,
		Detune:     float32(ec.Detune),
		Waveform:   wave,
		Observer:   env.observe,
		Backoff:    ec.Backoff,
	})
	if err != nil {
		return err
	}
	defer engine.Close()
	env.engine = engine

	g, ctx := errgroup.WithContext(ctx)
	env.ctx = ctx

	oc := cfg.Output
	var out sink
	switch oc.Backend {
	case config.OutputPortAudio:
		out, err = audio.NewSink(ring, float64(ec.SampleRate), oc.FramesPerBuffer)
	case config.OutputOto:
		out, err = audio.NewOtoSink(ring, ec.SampleRate, time.Duration(oc.BufferMs)*time.Millisecond)
	case config.OutputWAV:
		g.Go(func() error { return bounce(ctx, ring, oc.WAVPath, ec.SampleRate, oc.WAVSeconds) })
	}
	if err != nil {
		return fmt.Errorf("open %s output: %w", oc.Backend, err)
	}
	if out != nil {
		defer out.Close()
		env.underruns = out.Underruns
	}

	for _, cmd := range commands {
		if _, err := env.exec(cmd); err != nil {
			return fmt.Errorf("line %d: %w", cmd.Line, err)
		}
	}

	if err := engine.Start(ctx); err != nil && !errors.Is(err, audio.ErrRunning) {
		return err
	}
	if out != nil {
		if err := out.Start(); err != nil {
			return err
		}
	}

	if cfg.MIDI.Port != "" {
		g.Go(func() error { return listenMIDI(ctx, cfg.MIDI, env.params) })
	}
	g.Go(func() error {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return repl(ctx, env)
		}
		return runStdin(ctx, env)
	})

	err = g.Wait()
	engine.Stop()
	engine.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func bounce(ctx context.Context, ring *audio.RingBuffer, path string, sampleRate int, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	frames := int(seconds * float64(sampleRate))
	log.Printf("bounce: writing %d frames to %s", frames, path)
	if err := audio.Bounce(ctx, f, ring, sampleRate, frames); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("bounce: done")
	return errQuit
}
