// ABOUTME: Decode stage pulling frames from the source into the frame queue
// ABOUTME: Runs on its own goroutine; end-of-stream is terminal, not an error
package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/quaverd/quaver/internal/source"
	"github.com/quaverd/quaver/pkg/audio"
	"github.com/quaverd/quaver/pkg/audio/queue"
)

const maxConsecutiveDecodeErrors = 5

// DecodeStage reads raw frames from the source and pushes them onto
// the bounded frame queue, providing backpressure against decode
// running ahead of playback.
type DecodeStage struct {
	src    source.Source
	frames *queue.Queue[*audio.Frame]
	log    *slog.Logger
	stats  *Stats

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewDecodeStage creates a decode stage over an open source.
func NewDecodeStage(src source.Source, frames *queue.Queue[*audio.Frame], logger *slog.Logger, stats *Stats) *DecodeStage {
	return &DecodeStage{
		src:    src,
		frames: frames,
		log:    logger,
		stats:  stats,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start spawns the decode goroutine.
func (d *DecodeStage) Start() {
	if d.started {
		return
	}
	d.started = true
	go d.run()
}

// Stop signals the stage, wakes any blocked queue push by closing the
// frame queue, and waits for the goroutine to exit. Idempotent and
// callable from any state.
func (d *DecodeStage) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		d.frames.Close()
	})
	if d.started {
		<-d.done
	}
}

func (d *DecodeStage) run() {
	defer close(d.done)

	consecutiveErrors := 0

	for {
		select {
		case <-d.stop:
			return
		default:
		}

		frame, err := d.src.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// End of stream is terminal: the source has flushed
				// whatever it buffered internally.
				d.log.Info("decode stage reached end of stream")
				return
			}
			// A bad unit is skipped; the reader keeps going. A run of
			// failures means the stream itself is broken, which ends
			// the loop like EOF does.
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveDecodeErrors {
				d.log.Error("giving up after repeated decode errors", "error", err)
				return
			}
			d.log.Warn("decode error, skipping unit", "error", err)
			continue
		}
		consecutiveErrors = 0

		if err := d.frames.Push(frame); err != nil {
			if errors.Is(err, queue.ErrDropped) {
				frame.Release()
				d.stats.FramesDropped.Add(1)
				d.log.Debug("frame queue full, dropped frame")
				continue
			}
			// Queue closed: stop was signaled while we were blocked.
			frame.Release()
			return
		}

		d.stats.FramesDecoded.Add(1)
	}
}
