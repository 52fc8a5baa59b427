// ABOUTME: Tests for the linear resampler
// ABOUTME: Verifies output sizing, drift-free chunked conversion and reset
package resample

import "testing"

func TestNewResampler(t *testing.T) {
	r := New(44100, 48000, 2)

	if r == nil {
		t.Fatal("expected resampler to be created")
	}

	if r.inputRate != 44100 {
		t.Errorf("expected inputRate 44100, got %d", r.inputRate)
	}

	if r.outputRate != 48000 {
		t.Errorf("expected outputRate 48000, got %d", r.outputRate)
	}

	if r.channels != 2 {
		t.Errorf("expected channels 2, got %d", r.channels)
	}

	if r.Pending() != 0 {
		t.Errorf("expected no pending delay before first chunk, got %f", r.Pending())
	}
}

func TestOutputFramesMatchesResample(t *testing.T) {
	r := New(44100, 48000, 2)

	chunks := []int{100, 37, 512, 1, 250, 1024}
	for _, frames := range chunks {
		input := make([]int32, frames*2)
		for i := range input {
			input[i] = int32(i * 50)
		}

		want := r.OutputFrames(frames)
		output := make([]int32, want*2)
		got := r.Resample(input, output)

		if got != want*2 {
			t.Fatalf("chunk of %d frames: OutputFrames predicted %d frames, Resample wrote %d samples",
				frames, want, got)
		}
	}
}

func TestUpsamplingNoDrift(t *testing.T) {
	// 44100 -> 48000 over many chunks: total output must track the
	// exact rate ratio, not accumulate rounding error.
	r := New(44100, 48000, 1)

	totalIn := 0
	totalOut := 0
	for i := 0; i < 200; i++ {
		frames := 441
		input := make([]int32, frames)
		for j := range input {
			input[j] = int32(j)
		}

		out := make([]int32, r.OutputFrames(frames))
		totalOut += r.Resample(input, out)
		totalIn += frames
	}

	expected := totalIn * 48000 / 44100
	diff := totalOut - expected
	if diff < -2 || diff > 2 {
		t.Errorf("drift detected: %d input frames produced %d output frames, expected ~%d",
			totalIn, totalOut, expected)
	}
}

func TestDownsampling(t *testing.T) {
	r := New(48000, 44100, 2)

	input := make([]int32, 960*2)
	for i := range input {
		input[i] = int32(i * 10)
	}

	out := make([]int32, r.OutputFrames(960)*2)
	n := r.Resample(input, out)

	if n == 0 {
		t.Fatal("resampler produced no output")
	}

	frames := n / 2
	expected := 960 * 44100 / 48000
	if frames < expected-2 || frames > expected+2 {
		t.Errorf("expected ~%d output frames, got %d", expected, frames)
	}
}

func TestSameRatePreservesValues(t *testing.T) {
	r := New(48000, 48000, 1)

	input := make([]int32, 100)
	for i := range input {
		input[i] = int32(i * 100)
	}

	out := make([]int32, r.OutputFrames(100))
	n := r.Resample(input, out)

	// Interpolation at integer positions reproduces input values
	for i := 0; i < n && i < len(input); i++ {
		if out[i] != input[i] {
			t.Errorf("sample %d: expected %d, got %d", i, input[i], out[i])
			break
		}
	}
}

func TestCrossChunkContinuity(t *testing.T) {
	// Feed a ramp in two chunks; output must stay monotonic across the
	// chunk boundary (no repeated or stepped-back samples).
	r := New(44100, 48000, 1)

	chunk1 := make([]int32, 100)
	chunk2 := make([]int32, 100)
	for i := range chunk1 {
		chunk1[i] = int32(i * 1000)
		chunk2[i] = int32((i + 100) * 1000)
	}

	out1 := make([]int32, r.OutputFrames(100))
	n1 := r.Resample(chunk1, out1)
	out2 := make([]int32, r.OutputFrames(100))
	n2 := r.Resample(chunk2, out2)

	all := append(out1[:n1], out2[:n2]...)
	for i := 1; i < len(all); i++ {
		if all[i] < all[i-1] {
			t.Fatalf("output not monotonic at %d: %d then %d", i, all[i-1], all[i])
		}
	}
}

func TestPendingAfterChunk(t *testing.T) {
	r := New(44100, 48000, 1)

	input := make([]int32, 100)
	out := make([]int32, r.OutputFrames(100))
	r.Resample(input, out)

	p := r.Pending()
	if p < 0 || p > 1 {
		t.Errorf("pending delay out of range [0,1]: %f", p)
	}
}

func TestReset(t *testing.T) {
	r := New(44100, 48000, 2)

	input := make([]int32, 200)
	for i := range input {
		input[i] = int32(i)
	}
	out := make([]int32, r.OutputFrames(100)*2)
	r.Resample(input, out)

	r.Reset()

	if r.Pending() != 0 {
		t.Errorf("expected no pending delay after reset, got %f", r.Pending())
	}
}

func TestEmptyInput(t *testing.T) {
	r := New(44100, 48000, 2)

	if n := r.Resample(nil, make([]int32, 16)); n != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", n)
	}

	if n := r.OutputFrames(0); n != 0 {
		t.Errorf("expected 0 output frames for 0 input, got %d", n)
	}
}
