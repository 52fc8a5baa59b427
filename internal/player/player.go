// ABOUTME: Playback controller tying source, pipeline stages and device together
// ABOUTME: Serializes control operations; the device callback stays lock-free
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/quaverd/quaver/internal/device"
	"github.com/quaverd/quaver/internal/pipeline"
	"github.com/quaverd/quaver/internal/source"
	"github.com/quaverd/quaver/pkg/audio"
	"github.com/quaverd/quaver/pkg/audio/queue"
)

// State is the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name for logs and display.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoFile is returned by operations that need a loaded file.
var ErrNoFile = errors.New("no file loaded")

const (
	defaultFrameQueueSize = 64
	defaultBlockQueueSize = 32
)

// OpenFunc opens a source for a path. Tests substitute their own.
type OpenFunc func(path string, logger *slog.Logger) (source.Source, error)

// Config carries player construction options. Zero values select
// sensible defaults.
type Config struct {
	// Device is the output format. Defaults to 48kHz stereo 16-bit.
	Device audio.Format

	// FrameQueueSize and BlockQueueSize bound the two pipeline queues.
	FrameQueueSize int
	BlockQueueSize int

	// DropFramesWhenFull makes the decode stage drop instead of block
	// when the frame queue is full.
	DropFramesWhenFull bool

	// Backend selects the output device backend. Empty means malgo.
	Backend string

	Logger *slog.Logger

	// Open overrides how sources are opened, for tests.
	Open OpenFunc
}

func (c *Config) applyDefaults() {
	if c.Device.SampleRate == 0 {
		c.Device = audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 16}
	}
	if c.FrameQueueSize <= 0 {
		c.FrameQueueSize = defaultFrameQueueSize
	}
	if c.BlockQueueSize <= 0 {
		c.BlockQueueSize = defaultBlockQueueSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Open == nil {
		c.Open = source.Open
	}
}

// session is the per-playback pipeline: fresh queues, stages and sink
// for every run, so stale audio can never leak across a stop.
type session struct {
	frames  *queue.Queue[*audio.Frame]
	blocks  *queue.Queue[*pipeline.Block]
	decode  *pipeline.DecodeStage
	convert *pipeline.ConvertStage
	sink    *pipeline.Sink
}

// Player owns one audio file and plays it through the pipeline. All
// control methods are safe for concurrent use; the device callback
// reads through an atomic pointer and never takes the player lock.
type Player struct {
	id  uuid.UUID
	cfg Config
	log *slog.Logger
	dev device.Device

	// sink is what the device callback drains; nil while stopped.
	sink atomic.Pointer[pipeline.Sink]

	mu         sync.Mutex
	state      State
	src        source.Source
	path       string
	info       audio.StreamInfo
	tags       source.Tags
	sess       *session
	stats      *pipeline.Stats
	pos        *pipeline.Position
	volume     int
	deviceOpen bool
	closed     bool
}

// New creates a player with no file loaded.
func New(cfg Config) (*Player, error) {
	cfg.applyDefaults()

	id := uuid.New()
	log := cfg.Logger.With("player_id", id.String())

	dev, err := device.New(cfg.Backend, log)
	if err != nil {
		return nil, err
	}

	return &Player{
		id:     id,
		cfg:    cfg,
		log:    log,
		dev:    dev,
		stats:  &pipeline.Stats{},
		pos:    &pipeline.Position{},
		volume: 100,
	}, nil
}

// ID returns the player's instance identifier.
func (p *Player) ID() uuid.UUID {
	return p.id
}

// Device returns the output device, so callers driving a null backend
// can pump it.
func (p *Player) Device() device.Device {
	return p.dev
}

// Load opens a file for playback, replacing any current one. Playback
// stops; the new file starts from the beginning on the next Play.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("player closed")
	}

	src, err := p.cfg.Open(path, p.log)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	p.stopLocked()
	if p.src != nil {
		p.src.Close()
	}

	// Wrap the source so a control-thread Seek can never interleave
	// with the decode goroutine's ReadFrame.
	p.src = &syncSource{src: src}
	p.path = path
	p.info = src.Info()
	p.pos.Set(0)

	// Metadata is cosmetic; a file with no tags still plays.
	if tags, err := source.ReadTags(path); err == nil {
		p.tags = tags
	} else {
		p.tags = source.Tags{}
	}

	p.log.Info("loaded file",
		"path", path,
		"codec", p.info.Codec,
		"sample_rate", p.info.SampleRate,
		"channels", p.info.Channels,
		"duration", p.info.Duration)

	return nil
}

// SwitchFile loads a new file and, if the player was playing, resumes
// playback with the new one.
func (p *Player) SwitchFile(path string) error {
	p.mu.Lock()
	wasPlaying := p.state == StatePlaying
	p.mu.Unlock()

	if err := p.Load(path); err != nil {
		return err
	}
	if wasPlaying {
		return p.Play()
	}
	return nil
}

// Play starts or resumes playback.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return errors.New("player closed")
	case p.src == nil:
		return ErrNoFile
	case p.state == StatePlaying:
		return nil
	case p.state == StatePaused:
		p.sess.sink.SetPaused(false)
		p.state = StatePlaying
		p.log.Info("resumed")
		return nil
	}

	if err := p.startSessionLocked(); err != nil {
		return err
	}
	p.state = StatePlaying
	p.log.Info("playing", "path", p.path)
	return nil
}

// Pause suspends playback, leaving the pipeline primed. No-op unless
// playing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return nil
	}
	p.sess.sink.SetPaused(true)
	p.state = StatePaused
	p.log.Info("paused")
	return nil
}

// Resume is Play for a paused player; kept as its own method for
// callers that must not start a stopped one.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return nil
	}
	p.sess.sink.SetPaused(false)
	p.state = StatePlaying
	p.log.Info("resumed")
	return nil
}

// Stop tears down the pipeline and rewinds to the start. Idempotent.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// Seek moves the playback position to the given offset in seconds.
// Works in any state; while playing, queued audio from the old
// position is discarded and output is muted until fresh audio flows.
func (p *Player) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.src == nil {
		return ErrNoFile
	}
	if seconds < 0 {
		seconds = 0
	}
	if d := p.info.Duration; d > 0 && seconds > d {
		seconds = d
	}

	if p.sess == nil {
		if err := p.src.Seek(seconds); err != nil {
			return fmt.Errorf("seek failed: %w", err)
		}
		p.pos.Set(seconds)
		return nil
	}

	sink := p.sess.sink
	sink.SetMuted(true)
	defer sink.SetMuted(false)

	if err := p.src.Seek(seconds); err != nil {
		return fmt.Errorf("seek failed: %w", err)
	}

	// Flush audio decoded before the seek point. A frame already held
	// by the conversion goroutine may still slip through; it is at most
	// one frame of stale audio under mute.
	p.sess.frames.Reset()
	p.sess.blocks.Reset()
	sink.DropCurrent()
	p.sess.convert.ResetTimeline()

	p.pos.Set(seconds)
	p.log.Debug("seeked", "position", seconds)
	return nil
}

// SetVolume sets the output volume (0-100). Persists across play
// sessions.
func (p *Player) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = volume
	if p.sess != nil {
		p.sess.sink.SetVolume(volume)
	}
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// GetState returns the playback state.
func (p *Player) GetState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the playback position in seconds. Safe to call
// from any goroutine at any rate.
func (p *Player) Position() float64 {
	return p.pos.Seconds()
}

// Duration returns the loaded file's duration in seconds, or 0 when
// unknown.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.Duration
}

// SampleRate returns the loaded stream's sample rate.
func (p *Player) SampleRate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.SampleRate
}

// Channels returns the loaded stream's channel count.
func (p *Player) Channels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.Channels
}

// Tags returns the loaded file's metadata.
func (p *Player) Tags() source.Tags {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tags
}

// Stats returns a snapshot of the pipeline counters.
func (p *Player) Stats() pipeline.Snapshot {
	return p.stats.Snapshot()
}

// Close stops playback and releases the source and device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.stopLocked()
	if p.src != nil {
		p.src.Close()
		p.src = nil
	}

	var err error
	if p.deviceOpen {
		err = p.dev.Close()
		p.deviceOpen = false
	}
	return err
}

// startSessionLocked builds fresh queues, stages and sink and starts
// them. Must hold p.mu.
func (p *Player) startSessionLocked() error {
	frameOpts := []queue.Option[*audio.Frame]{
		queue.WithDiscard(func(f *audio.Frame) { f.Release() }),
	}
	if p.cfg.DropFramesWhenFull {
		frameOpts = append(frameOpts, queue.WithDropWhenFull[*audio.Frame]())
	}
	frames := queue.New(p.cfg.FrameQueueSize, frameOpts...)

	blocks := queue.New(p.cfg.BlockQueueSize,
		queue.WithDiscard(func(b *pipeline.Block) {
			p.stats.BufferedBytes.Add(-int64(b.Remaining()))
		}))

	sess := &session{
		frames:  frames,
		blocks:  blocks,
		decode:  pipeline.NewDecodeStage(p.src, frames, p.log, p.stats),
		convert: pipeline.NewConvertStage(frames, blocks, p.info, p.cfg.Device, p.pos, p.stats, p.log),
		sink:    pipeline.NewSink(blocks, p.log, p.stats),
	}
	sess.sink.SetVolume(p.volume)

	if !p.deviceOpen {
		if err := p.dev.Open(p.cfg.Device, p.fill); err != nil {
			return fmt.Errorf("failed to open audio device: %w", err)
		}
		p.deviceOpen = true
	}

	p.sess = sess
	p.sink.Store(sess.sink)
	sess.decode.Start()
	sess.convert.Start()
	return nil
}

// stopLocked tears down the running session and rewinds. Must hold
// p.mu.
func (p *Player) stopLocked() {
	if p.sess != nil {
		// Detach the callback's sink first so Fill stops consuming
		// while the queues drain.
		p.sink.Store(nil)
		p.sess.decode.Stop()
		p.sess.convert.Stop()
		p.sess = nil
		p.log.Info("stopped")
	}

	if p.src != nil {
		if err := p.src.Seek(0); err != nil && !errors.Is(err, source.ErrSeekUnsupported) {
			p.log.Warn("rewind failed", "error", err)
		}
	}
	p.pos.Set(0)
	p.state = StateStopped
	p.stats.BufferedBytes.Store(0)
}

// fill is the device callback. It must not take p.mu: the control
// thread holds that lock across operations far longer than a device
// period.
func (p *Player) fill(dst []byte) {
	if s := p.sink.Load(); s != nil {
		s.Fill(dst)
		return
	}
	for i := range dst {
		dst[i] = 0
	}
}
