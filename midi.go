package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mrdg/unison/audio"
	"github.com/mrdg/unison/config"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/portmididrv"
)

const ccVolume = 7

// midiControl maps incoming messages onto parameter changes. Only single
// messages are handled: note on plays a key, CC 7 sets the amplitude and a
// program change selects the waveform.
type midiControl struct {
	params  *audio.Params
	channel int // 1-16, 0 for all
}

func (m *midiControl) accept(channel uint8) bool {
	return m.channel == 0 || int(channel)+1 == m.channel
}

func (m *midiControl) handle(msg midi.Message, _ int32) {
	var channel, key, velocity, controller, value, program uint8
	var err error
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		if m.accept(channel) {
			err = m.params.SetNote(int(key))
		}
	case msg.GetControlChange(&channel, &controller, &value):
		if m.accept(channel) && controller == ccVolume {
			err = m.params.SetAmplitude(float32(value) / 127)
		}
	case msg.GetProgramChange(&channel, &program):
		if m.accept(channel) {
			err = m.params.SetWaveform(audio.Waveform(program % 4))
		}
	}
	if err != nil {
		log.Printf("midi: %v: %v", msg, err)
	}
}

func listenMIDI(ctx context.Context, cfg config.MIDIConfig, params *audio.Params) error {
	defer midi.CloseDriver()

	in, err := midi.FindInPort(cfg.Port)
	if err != nil {
		return fmt.Errorf("midi: can't find input port %q: %w", cfg.Port, err)
	}
	m := &midiControl{params: params, channel: cfg.Channel}
	stop, err := midi.ListenTo(in, m.handle)
	if err != nil {
		return fmt.Errorf("midi: %w", err)
	}
	defer stop()

	log.Printf("midi: listening on %s", in)
	<-ctx.Done()
	return nil
}
