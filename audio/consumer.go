package audio

// pull fills buf from ring and zero-fills whatever the producer has not
// rendered yet. It reports whether buf was filled completely.
func pull(ring *RingBuffer, buf []float32) bool {
	n := ring.Read(buf)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return n == len(buf)
}

// deinterleave splits interleaved frames in into one slice per channel.
func deinterleave(in []float32, out [][]float32) {
	channels := len(out)
	if channels == 0 {
		return
	}
	frames := len(in) / channels
	for c, ch := range out {
		for n := 0; n < frames && n < len(ch); n++ {
			ch[n] = in[n*channels+c]
		}
	}
}
