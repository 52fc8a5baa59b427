// ABOUTME: Core audio type definitions
// ABOUTME: Defines stream formats, decoded frames and sample conversion helpers
package audio

import "math"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// NoPTS marks a frame without a usable timestamp.
const NoPTS int64 = math.MinInt64

// Rational is a time base converting integer timestamps to seconds.
type Rational struct {
	Num int
	Den int
}

// Seconds converts a timestamp in this time base to seconds.
func (r Rational) Seconds(ts int64) float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(ts) * float64(r.Num) / float64(r.Den)
}

// Format describes a PCM sample layout (the device-facing format).
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerFrame returns the byte size of one interleaved sample frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * (f.BitDepth / 8)
}

// StreamInfo describes an open source stream. It is probed once at open
// time and immutable until the stream is re-opened.
type StreamInfo struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   float64 // seconds, 0 when unknown
	TimeBase   Rational
}

// Frame is one decoded chunk of interleaved samples with a timestamp.
// A frame is owned by exactly one stage or queue at a time; whoever
// drops it must call Release exactly once.
type Frame struct {
	Samples    []int32 // interleaved, 24-bit left-justified range
	Channels   int
	SampleRate int
	PTS        int64 // in TimeBase units, NoPTS when unknown
	TimeBase   Rational

	release func([]int32)
}

// NewFrame creates a frame over the given sample buffer. The release
// hook, if non-nil, is invoked once when the frame is released so
// pooled buffers can be recycled.
func NewFrame(samples []int32, channels, sampleRate int, release func([]int32)) *Frame {
	return &Frame{
		Samples:    samples,
		Channels:   channels,
		SampleRate: sampleRate,
		PTS:        NoPTS,
		release:    release,
	}
}

// SampleCount returns the number of sample frames (per channel).
func (f *Frame) SampleCount() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Release returns the sample buffer to its owner. Safe to call more
// than once; only the first call has an effect.
func (f *Frame) Release() {
	if f.release != nil {
		f.release(f.Samples)
		f.release = nil
	}
	f.Samples = nil
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}
