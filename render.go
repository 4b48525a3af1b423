package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrdg/unison/audio"
)

type status struct {
	running   bool
	frame     uint64
	time      time.Duration
	params    audio.Snapshot
	note      int // -1 when the frequency was set directly
	stats     *audio.Stats
	underruns int64 // -1 without a playback device
	dropped   uint64
}

func (e *env) status() status {
	st := status{
		running:   e.engine.Running(),
		frame:     e.engine.Frame(),
		time:      e.engine.CurrentTime(),
		params:    e.params.Snapshot(),
		stats:     e.stats.Load(),
		underruns: -1,
		dropped:   e.engine.DroppedStats(),
	}
	if v, err := e.params.Get(audio.PropNote); err == nil {
		st.note = v.(int)
	}
	if e.underruns != nil {
		st.underruns = int64(e.underruns())
	}
	return st
}

func renderStatus(st status, w io.Writer) {
	state := colorize("stopped", colorRed)
	if st.running {
		state = colorize("running", colorGreen)
	}
	fmt.Fprintf(w, "%s  frame %d  %s\n", state, st.frame, st.time.Round(time.Millisecond))

	p := st.params
	pitch := fmt.Sprintf("%.2fHz", p.Frequency)
	if st.note >= 0 {
		pitch += fmt.Sprintf(" (note %d)", st.note)
	}
	fmt.Fprintf(w, "%s %s  %s %s  %s %.2f %s\n",
		colorize("wave", colorBlue), p.Waveform,
		colorize("pitch", colorBlue), pitch,
		colorize("amp", colorBlue), p.Amplitude, meter(p.Amplitude, 20))
	if p.CrossfadeRemaining > 0 {
		fmt.Fprintf(w, "%s %d blocks left\n", colorize("fading", colorYellow), p.CrossfadeRemaining)
	}

	if st.stats != nil {
		fmt.Fprintf(w, "%s %s\n", colorize("render", colorMagenta), st.stats)
	}
	var extra []string
	if st.underruns >= 0 {
		extra = append(extra, fmt.Sprintf("%d underruns", st.underruns))
	}
	if st.dropped > 0 {
		extra = append(extra, fmt.Sprintf("%d stats dropped", st.dropped))
	}
	if len(extra) > 0 {
		fmt.Fprintln(w, strings.Join(extra, ", "))
	}
}

// meter draws v in [0, 1] as a bar of the given width.
func meter(v float32, width int) string {
	n := int(v*float32(width) + 0.5)
	n = max(0, min(n, width))
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
