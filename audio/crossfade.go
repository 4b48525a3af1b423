package audio

// crossfader blends each new block with the previous output while a
// parameter change is being smoothed.
type crossfader struct {
	blocks float32
	prev   []float32
}

func newCrossfader(blockSize, blocks int) *crossfader {
	if blocks <= 0 {
		blocks = DefaultCrossfadeBlocks
	}
	return &crossfader{
		blocks: float32(blocks),
		prev:   make([]float32, 2*blockSize),
	}
}

// process smooths block in place given the number of blocks left in the
// window, and remembers the result for the next call. It reports whether the
// block was modified.
func (c *crossfader) process(block []float32, remaining uint32) bool {
	blended := remaining > 0
	if blended {
		done := 1 - float32(remaining)/c.blocks
		fadeIn := done * done * done
		fadeOut := 1 - fadeIn
		for n, sample := range block {
			v := (c.prev[n]*fadeOut + sample*fadeIn) * fadeIn
			block[n] = clamp(v, 0, 1)
		}
	}
	copy(c.prev, block)
	return blended
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
