// ABOUTME: Oto-based audio device implementation
// ABOUTME: Adapts oto's reader-pull model to the fill callback
package device

import (
	"fmt"
	"log/slog"

	"github.com/ebitengine/oto/v3"

	"github.com/quaverd/quaver/pkg/audio"
)

// Oto drives playback through the oto library. Oto pulls from an
// io.Reader, so the callback is wrapped in a reader adapter.
type Oto struct {
	log    *slog.Logger
	otoCtx *oto.Context
	player *oto.Player
}

// callbackReader turns the fill callback into the io.Reader oto wants.
// Each Read fills the whole buffer; the callback pads shortfalls with
// silence, so there is never a short read.
type callbackReader struct {
	cb Callback
}

func (r *callbackReader) Read(p []byte) (int, error) {
	// Keep sample frames intact for the S16LE stream.
	n := len(p) &^ 1
	r.cb(p[:n])
	return n, nil
}

// NewOto creates an unopened oto device.
func NewOto(logger *slog.Logger) *Oto {
	return &Oto{log: logger}
}

// Open initializes the oto context and starts a player over the
// callback reader. Oto allows one context per process; a second Open
// in the same process fails.
func (o *Oto) Open(format audio.Format, cb Callback) error {
	if o.otoCtx != nil {
		return fmt.Errorf("device already open")
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(&callbackReader{cb: cb})
	o.player.Play()

	o.log.Info("audio device opened",
		"backend", "oto",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	return nil
}

// Close stops the player. The oto context itself cannot be torn down,
// only suspended.
func (o *Oto) Close() error {
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			o.log.Warn("oto player close error", "error", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			o.log.Warn("oto context suspend error", "error", err)
		}
	}
	return nil
}
