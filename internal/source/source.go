// ABOUTME: Decode capability consumed by the playback pipeline
// ABOUTME: Source interface plus container-format dispatch at open time
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quaverd/quaver/pkg/audio"
)

var (
	// ErrUnsupported means the file extension maps to no known codec.
	ErrUnsupported = errors.New("source: unsupported file format")

	// ErrSeekUnsupported means this stream cannot reposition; seeking
	// is best-effort and playback continues from the current point.
	ErrSeekUnsupported = errors.New("source: stream does not support seeking")
)

// Source turns a compressed media file into raw audio frames. One
// reader at a time; ReadFrame returns io.EOF at end of stream.
type Source interface {
	// Info returns the stream parameters probed at open time.
	Info() audio.StreamInfo

	// ReadFrame decodes and returns the next frame. The caller owns
	// the frame and must release it.
	ReadFrame() (*audio.Frame, error)

	// Seek repositions to the given time in seconds.
	Seek(seconds float64) error

	Close() error
}

// Open opens a media file, dispatching on its extension.
func Open(path string, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return openMP3(path, logger)
	case ".flac":
		return openFLAC(path, logger)
	case ".opus", ".ogg", ".oga":
		return openOpus(path, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

// samplePool recycles frame sample buffers between the conversion
// stage (which releases frames) and the decoder (which allocates them).
type samplePool struct {
	p sync.Pool
}

func (sp *samplePool) get(n int) []int32 {
	if v := sp.p.Get(); v != nil {
		s := v.([]int32)
		if cap(s) >= n {
			return s[:n]
		}
	}
	return make([]int32, n)
}

func (sp *samplePool) put(s []int32) {
	sp.p.Put(s[:0])
}
