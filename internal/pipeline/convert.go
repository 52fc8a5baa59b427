// ABOUTME: Conversion stage turning raw frames into device-format blocks
// ABOUTME: Adapts channel layout, resamples with delay accounting, publishes position
package pipeline

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quaverd/quaver/pkg/audio"
	"github.com/quaverd/quaver/pkg/audio/queue"
	"github.com/quaverd/quaver/pkg/audio/resample"
)

const (
	// framePopTimeout keeps the conversion goroutine responsive to a
	// stop signal even when the decode stage is idle.
	framePopTimeout = 100 * time.Millisecond

	// discontinuityGap is the timestamp jump worth logging.
	discontinuityGap = 0.1 // seconds

	// conversionBudget is the per-frame cost above which conversion
	// risks starving the output device.
	conversionBudget = time.Millisecond
)

// ConvertStage pops raw frames, converts them to the device's native
// interleaved S16LE layout, and pushes the resulting blocks onto the
// output queue. It publishes the playback position from frame
// timestamps as a side effect.
type ConvertStage struct {
	frames *queue.Queue[*audio.Frame]
	blocks *queue.Queue[*Block]
	device audio.Format
	rs     *resample.Resampler // nil when stream and device rates match
	log    *slog.Logger
	stats  *Stats
	pos    *Position

	// Timeline tracking for discontinuity detection; conversion
	// goroutine only.
	lastEnd  float64
	haveLast bool

	// resetPending asks the conversion goroutine to forget resampler
	// carry and timestamp history before the next frame.
	resetPending atomic.Bool

	scratch []int32

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewConvertStage creates a conversion stage for one open stream. The
// stream's rate and layout are fixed for the life of the stage; the
// resampler is sized against the device format once, here.
func NewConvertStage(frames *queue.Queue[*audio.Frame], blocks *queue.Queue[*Block],
	stream audio.StreamInfo, device audio.Format,
	pos *Position, stats *Stats, logger *slog.Logger) *ConvertStage {

	c := &ConvertStage{
		frames: frames,
		blocks: blocks,
		device: device,
		log:    logger,
		stats:  stats,
		pos:    pos,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if stream.SampleRate != device.SampleRate {
		c.rs = resample.New(stream.SampleRate, device.SampleRate, device.Channels)
	}

	return c
}

// Start spawns the conversion goroutine (the playback pump).
func (c *ConvertStage) Start() {
	if c.started {
		return
	}
	c.started = true
	go c.run()
}

// Stop signals the stage, closes the output queue to unblock any
// pending push, and waits for the goroutine to exit. Idempotent.
func (c *ConvertStage) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.blocks.Close()
	})
	if c.started {
		<-c.done
	}
}

func (c *ConvertStage) run() {
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		frame, ok := c.frames.PopTimeout(framePopTimeout)
		if !ok {
			continue
		}

		if !c.convert(frame) {
			return
		}
	}
}

// ResetTimeline discards the resampler's carry frame and the
// discontinuity tracking before the next converted frame, for use
// after a seek. Safe to call from any goroutine.
func (c *ConvertStage) ResetTimeline() {
	c.resetPending.Store(true)
}

// convert processes one frame. Returns false when the output queue has
// been closed and the stage should exit.
func (c *ConvertStage) convert(frame *audio.Frame) bool {
	start := time.Now()

	if c.resetPending.Swap(false) {
		if c.rs != nil {
			c.rs.Reset()
		}
		c.haveLast = false
	}

	c.publishPosition(frame)

	adapted := adaptChannels(frame.Samples, frame.Channels, c.device.Channels, &c.scratch)

	var converted []int32
	if c.rs != nil {
		inFrames := len(adapted) / c.device.Channels
		outFrames := c.rs.OutputFrames(inFrames)
		if outFrames <= 0 {
			c.log.Error("conversion computed non-positive output size, dropping frame",
				"input_frames", inFrames)
			frame.Release()
			return true
		}

		out := make([]int32, outFrames*c.device.Channels)
		n := c.rs.Resample(adapted, out)
		converted = out[:n]
	} else {
		converted = adapted
	}

	data := make([]byte, len(converted)*2)
	for i, s := range converted {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(audio.SampleToInt16(s)))
	}

	frame.Release()

	if elapsed := time.Since(start); elapsed > conversionBudget {
		c.log.Warn("conversion exceeded time budget", "elapsed", elapsed)
	}

	if len(data) == 0 {
		return true
	}

	if err := c.blocks.Push(NewBlock(data)); err != nil {
		return false
	}

	c.stats.BlocksConverted.Add(1)
	c.stats.BufferedBytes.Add(int64(len(data)))

	return true
}

// publishPosition updates the shared position from the frame timestamp
// and logs timestamp gaps larger than the discontinuity threshold.
func (c *ConvertStage) publishPosition(frame *audio.Frame) {
	if frame.PTS == audio.NoPTS {
		return
	}

	ts := frame.TimeBase.Seconds(frame.PTS)
	if c.haveLast && ts-c.lastEnd > discontinuityGap {
		c.log.Warn("timestamp discontinuity",
			"expected", c.lastEnd,
			"got", ts)
	}

	duration := 0.0
	if frame.SampleRate > 0 {
		duration = float64(frame.SampleCount()) / float64(frame.SampleRate)
	}
	c.lastEnd = ts + duration
	c.haveLast = true

	c.pos.Set(ts)
}

// adaptChannels maps interleaved samples between channel layouts.
// Mono fans out to every output channel; extra input channels fold
// down by averaging. The scratch buffer is reused between calls.
func adaptChannels(src []int32, srcCh, dstCh int, scratch *[]int32) []int32 {
	if srcCh == dstCh || srcCh == 0 {
		return src
	}

	frames := len(src) / srcCh
	need := frames * dstCh
	if cap(*scratch) < need {
		*scratch = make([]int32, need)
	}
	dst := (*scratch)[:need]

	switch {
	case srcCh == 1:
		for i := 0; i < frames; i++ {
			for ch := 0; ch < dstCh; ch++ {
				dst[i*dstCh+ch] = src[i]
			}
		}
	case dstCh == 1:
		for i := 0; i < frames; i++ {
			var sum int64
			for ch := 0; ch < srcCh; ch++ {
				sum += int64(src[i*srcCh+ch])
			}
			dst[i] = int32(sum / int64(srcCh))
		}
	default:
		for i := 0; i < frames; i++ {
			for ch := 0; ch < dstCh; ch++ {
				if ch < srcCh {
					dst[i*dstCh+ch] = src[i*srcCh+ch]
				} else {
					dst[i*dstCh+ch] = 0
				}
			}
		}
	}

	return dst
}
