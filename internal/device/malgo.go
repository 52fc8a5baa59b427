// ABOUTME: Malgo-based audio device implementation
// ABOUTME: Uses miniaudio via malgo; the default callback-driven backend
package device

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/quaverd/quaver/pkg/audio"
)

// Malgo drives a playback device through malgo's data callback, which
// maps directly onto the pull model: miniaudio asks for bytes, the
// callback fills them.
type Malgo struct {
	log *slog.Logger

	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
}

// NewMalgo creates an unopened malgo device.
func NewMalgo(logger *slog.Logger) *Malgo {
	return &Malgo{log: logger}
}

// Open initializes the playback device and starts the callback.
func (m *Malgo) Open(format audio.Format, cb Callback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("device already open")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			cb(pOutput)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		m.closeContext()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		m.closeContext()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.format = format
	m.log.Info("audio device opened",
		"backend", "malgo",
		"sample_rate", format.SampleRate,
		"channels", format.Channels)

	return nil
}

// Close stops the device and frees the malgo context.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			m.log.Warn("device stop error", "error", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	m.closeContext()
	return nil
}

// closeContext frees the malgo context (must hold m.mu).
func (m *Malgo) closeContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		m.log.Warn("malgo context uninit error", "error", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}
