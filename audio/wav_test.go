package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	wav "github.com/youpy/go-wav"
)

func TestBounce(t *testing.T) {
	e, ring := newTestEngine(t, 4096, Options{
		BlockSize:  256,
		SampleRate: 22050,
		Voices:     1,
		Waveform:   Square,
	})
	for i := 0; i < 4; i++ {
		if e.step() != stateRendering {
			t.Fatalf("step %d: ring buffer full", i)
		}
	}

	var out bytes.Buffer
	if err := Bounce(context.Background(), &out, ring, 22050, 1024); err != nil {
		t.Fatal(err)
	}
	if !ring.Empty() {
		t.Errorf("bounce left %d samples in the ring", ring.AvailableToRead())
	}

	r := wav.NewReader(bytes.NewReader(out.Bytes()))
	format, err := r.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format.NumChannels != 2 || format.SampleRate != 22050 || format.BitsPerSample != 16 {
		t.Errorf("wrong format: %+v", format)
	}

	var got []wav.Sample
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, samples...)
	}
	if want := 1024; len(got) != want {
		t.Fatalf("wrong number of frames: want %v, got %v", want, len(got))
	}

	want := make([]float32, 2*1024)
	Oscillate(Square, want, 440, 0.15, 22050, 1024, 0)
	for n, s := range got {
		if l, r := toPCM16(want[2*n]), toPCM16(want[2*n+1]); s.Values[0] != l || s.Values[1] != r {
			t.Fatalf("frame %d: want [%v %v], got %v", n, l, r, s.Values)
		}
	}
}

func TestBounceCanceled(t *testing.T) {
	ring := MustRingBuffer(NewRegion(64))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Bounce(ctx, io.Discard, ring, 44100, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := Bounce(ctx, io.Discard, ring, 44100, 0); err == nil {
		t.Errorf("expected error for empty bounce")
	}
}

func TestToPCM16(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{0.5, 16383},
	}
	for _, test := range tests {
		if got := toPCM16(test.in); got != test.want {
			t.Errorf("toPCM16(%v): want %v, got %v", test.in, test.want, got)
		}
	}
}
