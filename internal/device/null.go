// ABOUTME: Null audio device for tests and headless runs
// ABOUTME: Discards output; Pump drives the callback by hand
package device

import (
	"fmt"
	"sync"

	"github.com/quaverd/quaver/pkg/audio"
)

// Null is a device that discards everything written to it. It performs
// no pulling of its own; tests and headless callers drive the callback
// with Pump.
type Null struct {
	mu     sync.Mutex
	cb     Callback
	format audio.Format
	buf    []byte
}

// NewNull creates an unopened null device.
func NewNull() *Null {
	return &Null{}
}

// Open records the format and callback.
func (n *Null) Open(format audio.Format, cb Callback) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cb != nil {
		return fmt.Errorf("device already open")
	}
	n.cb = cb
	n.format = format
	return nil
}

// Pump invokes the callback for the given number of sample frames and
// returns the bytes produced, emulating one device period.
func (n *Null) Pump(frames int) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cb == nil {
		return nil
	}

	need := frames * n.format.BytesPerFrame()
	if cap(n.buf) < need {
		n.buf = make([]byte, need)
	}
	buf := n.buf[:need]
	n.cb(buf)
	return buf
}

// Close detaches the callback.
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cb = nil
	return nil
}
