package audio

import (
	"context"
	"fmt"
	"io"
	"time"

	wav "github.com/youpy/go-wav"
)

const bitsPerSample = 16

// Bounce drains frames stereo frames from ring into w as a 16 bit WAV file.
// It acts as the ring's consumer, so no other consumer may run at the same
// time, and it relies on a running engine to fill the ring.
func Bounce(ctx context.Context, w io.Writer, ring *RingBuffer, sampleRate, frames int) error {
	if frames <= 0 {
		return fmt.Errorf("bounce: frame count must be positive: %d", frames)
	}
	writer := wav.NewWriter(w, uint32(frames), 2, uint32(sampleRate), bitsPerSample)

	// poll at roughly the pace of a 256 frame block
	poll := time.Duration(float64(256) / float64(sampleRate) * float64(time.Second))
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	buf := make([]float32, 4096)
	out := make([]wav.Sample, 0, len(buf)/2)
	for remaining := frames; remaining > 0; {
		want := min(2*remaining, len(buf))
		n := ring.Read(buf[:want])
		n -= n % 2 // the producer only ever writes whole frames
		if n == 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("bounce: %d frames left: %w", remaining, ctx.Err())
			case <-ticker.C:
			}
			continue
		}
		out = out[:0]
		for i := 0; i < n; i += 2 {
			out = append(out, wav.Sample{Values: [2]int{toPCM16(buf[i]), toPCM16(buf[i+1])}})
		}
		if err := writer.WriteSamples(out); err != nil {
			return fmt.Errorf("bounce: %w", err)
		}
		remaining -= n / 2
	}
	return nil
}

func toPCM16(v float32) int {
	const scale = 1<<15 - 1
	return int(scale * clamp(v, -1, 1))
}
