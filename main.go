// ABOUTME: Entry point for the quaver audio player
// ABOUTME: Parses CLI flags, wires logging and runs the TUI or headless loop
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quaverd/quaver/internal/logging"
	"github.com/quaverd/quaver/internal/player"
	"github.com/quaverd/quaver/internal/ui"
	"github.com/quaverd/quaver/internal/version"
	"github.com/quaverd/quaver/pkg/audio"
)

var (
	backend     = flag.String("backend", "", "Audio backend: malgo (default), oto, portaudio")
	sampleRate  = flag.Int("sample-rate", 48000, "Output device sample rate")
	channels    = flag.Int("channels", 2, "Output device channel count")
	frameQueue  = flag.Int("frame-queue", 64, "Decoded frame queue capacity")
	blockQueue  = flag.Int("block-queue", 32, "Converted block queue capacity")
	dropFrames  = flag.Bool("drop-frames", false, "Drop frames instead of blocking when the frame queue is full")
	volume      = flag.Int("volume", 100, "Initial volume (0-100)")
	logFile     = flag.String("log-file", "quaver.log", "Log file path")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, play until interrupted")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <audio-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger, closeLog, err := logging.Init(logging.Config{
		File:       *logFile,
		Level:      *logLevel,
		AlsoStderr: *noTUI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	logger.Info("starting", "product", version.Product, "version", version.Version)

	p, err := player.New(player.Config{
		Device: audio.Format{
			SampleRate: *sampleRate,
			Channels:   *channels,
			BitDepth:   16,
		},
		FrameQueueSize:     *frameQueue,
		BlockQueueSize:     *blockQueue,
		DropFramesWhenFull: *dropFrames,
		Backend:            *backend,
		Logger:             logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating player: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = p.Close() }()

	if err := p.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "error loading %s: %v\n", path, err)
		os.Exit(1)
	}

	p.SetVolume(*volume)

	if err := p.Play(); err != nil {
		fmt.Fprintf(os.Stderr, "error starting playback: %v\n", err)
		os.Exit(1)
	}

	if *noTUI {
		runHeadless(p, logger)
		return
	}

	if err := ui.Run(p, path); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

// runHeadless plays until the file ends or a signal arrives.
func runHeadless(p *player.Player, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	duration := p.Duration()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig.String())
			return
		case <-ticker.C:
			pos := p.Position()
			logger.Info("playing", "position", pos, "duration", duration)
			if duration > 0 && pos >= duration {
				logger.Info("playback finished")
				return
			}
		}
	}
}
