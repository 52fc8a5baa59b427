// ABOUTME: Non-blocking try-fill sink drained by the device callback
// ABOUTME: Handles volume, pause silence, underrun fade-in and producer wakeup
package pipeline

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/quaverd/quaver/pkg/audio/queue"
)

// Sink feeds the device callback from the output queue. Fill never
// waits on a condition: every lock it takes is held for a bounded
// handful of pointer moves, which is what the real-time thread can
// afford.
type Sink struct {
	blocks *queue.Queue[*Block]
	log    *slog.Logger
	stats  *Stats

	// mu guards the partially-consumed block and fade state against
	// the control thread clearing them during a seek.
	mu      sync.Mutex
	current *Block

	paused   atomic.Bool
	muted    atomic.Bool
	volume   atomic.Int32 // 0..100
	underrun atomic.Bool

	lowWater int
}

// NewSink creates a sink over the output queue.
func NewSink(blocks *queue.Queue[*Block], logger *slog.Logger, stats *Stats) *Sink {
	s := &Sink{
		blocks:   blocks,
		log:      logger,
		stats:    stats,
		lowWater: blocks.Cap() / 4,
	}
	s.volume.Store(100)
	return s
}

// SetPaused switches the sink to emitting silence without touching the
// queues or stages.
func (s *Sink) SetPaused(paused bool) {
	s.paused.Store(paused)
}

// SetMuted silences output while leaving playback running, used across
// seeks and for user mute.
func (s *Sink) SetMuted(muted bool) {
	s.muted.Store(muted)
}

// SetVolume sets the output volume (0-100).
func (s *Sink) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	s.volume.Store(int32(volume))
}

// Volume returns the current volume.
func (s *Sink) Volume() int {
	return int(s.volume.Load())
}

// DropCurrent discards the partially-consumed block, for use while the
// queues are being cleared on a seek.
func (s *Sink) DropCurrent() {
	s.mu.Lock()
	if s.current != nil {
		s.stats.BufferedBytes.Add(-int64(s.current.Remaining()))
		s.current = nil
	}
	s.mu.Unlock()
}

// Fill writes up to len(dst) bytes of converted audio into dst,
// leaving any shortfall as silence. Called by the audio subsystem on
// its real-time thread; it must never block indefinitely.
func (s *Sink) Fill(dst []byte) {
	// Unfilled remainder must come out as silence.
	for i := range dst {
		dst[i] = 0
	}

	if s.paused.Load() || s.muted.Load() {
		return
	}

	volume := s.volume.Load()
	recovering := s.underrun.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	filled := 0
	firstCopy := true
	for filled < len(dst) {
		if s.current == nil || s.current.Remaining() == 0 {
			block, ok := s.blocks.TryPop()
			if !ok {
				break
			}
			s.current = block
			if s.blocks.Len() < s.lowWater {
				// TryPop already signalled the producer; the low-water
				// crossing is only worth a diagnostic.
				s.log.Debug("output queue below low-water mark", "len", s.blocks.Len())
			}
		}

		n := len(dst) - filled
		if r := s.current.Remaining(); n > r {
			n = r
		}
		chunk := s.current.Consume(n)

		if recovering && firstCopy {
			// Ramp the first copied block from zero so recovery from
			// silence has no step discontinuity.
			mixFadeIn(dst[filled:filled+n], chunk, volume)
			s.underrun.Store(false)
			recovering = false
		} else {
			mix(dst[filled:filled+n], chunk, volume)
		}
		firstCopy = false

		s.stats.BufferedBytes.Add(-int64(n))
		filled += n
	}

	if filled < len(dst) {
		if !s.underrun.Swap(true) {
			s.stats.Underruns.Add(1)
			s.log.Debug("output underrun, emitting silence")
		}
	}
}

// mix copies S16LE samples into dst scaled by volume.
func mix(dst, src []byte, volume int32) {
	if volume == 100 {
		copy(dst, src)
		return
	}

	for i := 0; i+1 < len(src); i += 2 {
		sample := int32(int16(binary.LittleEndian.Uint16(src[i:])))
		sample = sample * volume / 100
		binary.LittleEndian.PutUint16(dst[i:], uint16(int16(sample)))
	}
}

// mixFadeIn copies S16LE samples with a linear gain ramp from zero
// across the chunk, on top of the volume scale.
func mixFadeIn(dst, src []byte, volume int32) {
	total := len(src) / 2
	if total == 0 {
		return
	}

	for i := 0; i < total; i++ {
		sample := int32(int16(binary.LittleEndian.Uint16(src[i*2:])))
		sample = sample * volume / 100
		sample = sample * int32(i) / int32(total)
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(sample)))
	}
}
