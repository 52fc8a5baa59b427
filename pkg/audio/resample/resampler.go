// ABOUTME: Linear-interpolation resampler with cross-chunk delay tracking
// ABOUTME: Sizes output from pending converter delay plus input length to avoid drift
package resample

import "math"

// Resampler converts interleaved samples between rates using linear
// interpolation. It buffers the final input frame of every chunk so
// interpolation is continuous across chunk boundaries; OutputFrames
// accounts for that pending delay when sizing the next output buffer.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // input frames consumed per output frame

	pos    float64 // position into the virtual input, in input frames
	last   []int32 // final frame of the previous chunk (virtual frame 0)
	primed bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]int32, channels),
	}
}

// Pending returns the input frames buffered inside the resampler that
// have not been emitted yet.
func (r *Resampler) Pending() float64 {
	if !r.primed {
		return 0
	}
	return 1.0 - r.pos
}

// OutputFrames returns exactly how many output frames the next
// Resample call will produce for inputFrames of input, given the
// current pending delay. A fixed-ratio estimate drifts; this does not.
func (r *Resampler) OutputFrames(inputFrames int) int {
	if inputFrames <= 0 {
		return 0
	}

	span := r.limit(inputFrames) - r.pos
	if span <= 0 {
		return 0
	}

	return int(math.Ceil(span / r.ratio))
}

// limit is the exclusive upper bound of interpolable positions for a
// chunk of n input frames. When primed, virtual frame 0 is the carried
// last frame and input occupies [1, n].
func (r *Resampler) limit(n int) float64 {
	if r.primed {
		return float64(n)
	}
	return float64(n - 1)
}

// Resample converts input to the output rate, writing at most
// len(output) samples. Returns the number of output samples written
// (always a multiple of the channel count). Size output from
// OutputFrames: input that does not fit is discarded.
func (r *Resampler) Resample(input []int32, output []int32) int {
	n := len(input) / r.channels
	if n == 0 {
		return 0
	}

	outCap := len(output) / r.channels
	limit := r.limit(n)

	outIdx := 0
	for outIdx < outCap && r.pos < limit {
		i := int(r.pos)
		frac := r.pos - float64(i)

		for ch := 0; ch < r.channels; ch++ {
			s1 := r.frameAt(input, i, ch)
			s2 := r.frameAt(input, i+1, ch)
			interpolated := float64(s1)*(1.0-frac) + float64(s2)*frac
			output[outIdx*r.channels+ch] = int32(interpolated)
		}

		outIdx++
		r.pos += r.ratio
	}

	// Carry the final input frame; it becomes virtual frame 0 of the
	// next chunk.
	copy(r.last, input[(n-1)*r.channels:n*r.channels])
	r.pos -= limit
	if r.pos < 0 {
		r.pos = 0
	}
	r.primed = true

	return outIdx * r.channels
}

// frameAt reads channel ch of virtual frame i. Virtual frame 0 is the
// carried last frame once primed.
func (r *Resampler) frameAt(input []int32, i, ch int) int32 {
	if r.primed {
		if i == 0 {
			return r.last[ch]
		}
		return input[(i-1)*r.channels+ch]
	}
	return input[i*r.channels+ch]
}

// Reset discards carried state, for use after a seek.
func (r *Resampler) Reset() {
	r.pos = 0
	r.primed = false
	for i := range r.last {
		r.last[i] = 0
	}
}
