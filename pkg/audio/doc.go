// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Frame types and sample conversion functions
// Package audio provides fundamental audio types and utilities for audio processing.
//
// This package defines core types used throughout the player:
//   - Format: Describes a device output format (sample rate, channels, bit depth)
//   - StreamInfo: Describes a decoded stream, including duration and time base
//   - Frame: Decoded PCM audio with timestamp information and owned sample storage
//
// It also provides utilities for converting between different sample formats:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//
// Example:
//
//	format := audio.Format{
//	    SampleRate: 48000,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	// Convert 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
