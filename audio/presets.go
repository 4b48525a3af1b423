package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"a4": {
		PropNote:      49,
		PropAmplitude: 0.15,
		PropWaveform:  "sine",
	},
	"reed": {
		PropNote:      37,
		PropAmplitude: 0.2,
		PropWaveform:  "square",
	},
	"brass": {
		PropNote:      44,
		PropAmplitude: 0.25,
		PropWaveform:  "saw",
	},
	"flute": {
		PropNote:      61,
		PropAmplitude: 0.1,
		PropWaveform:  "triangle",
	},
}

// Presets lists the names accepted by LoadPreset.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	// sorted so that a failing preset always fails at the same key
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := d.Set(k, p[k]); err != nil {
			return err
		}
	}
	return nil
}
