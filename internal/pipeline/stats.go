// ABOUTME: Pipeline statistics shared across stages
// ABOUTME: Lock-free counters readable from the real-time callback
package pipeline

import (
	"math"
	"sync/atomic"
)

// Stats tracks pipeline activity. All fields are atomics so the
// real-time callback can update them without locking.
type Stats struct {
	FramesDecoded   atomic.Int64
	FramesDropped   atomic.Int64
	BlocksConverted atomic.Int64
	Underruns       atomic.Int64

	// BufferedBytes approximates the bytes queued ahead of the device.
	// Diagnostics only; control decisions use queue element counts.
	BufferedBytes atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	FramesDecoded   int64
	FramesDropped   int64
	BlocksConverted int64
	Underruns       int64
	BufferedBytes   int64
}

// Snapshot returns a consistent-enough copy for display.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		FramesDecoded:   s.FramesDecoded.Load(),
		FramesDropped:   s.FramesDropped.Load(),
		BlocksConverted: s.BlocksConverted.Load(),
		Underruns:       s.Underruns.Load(),
		BufferedBytes:   s.BufferedBytes.Load(),
	}
}

// Position is the published playback position, written by the
// conversion stage and read by control threads without locking.
type Position struct {
	bits atomic.Uint64
}

// Set publishes the position in seconds.
func (p *Position) Set(seconds float64) {
	p.bits.Store(math.Float64bits(seconds))
}

// Seconds returns the last published position.
func (p *Position) Seconds() float64 {
	return math.Float64frombits(p.bits.Load())
}
