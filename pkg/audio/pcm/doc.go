// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// The package defines audio formats for common configurations (16-bit mono at various sample rates)
// and the conversions used on the realtime wire: float capture frames are
// clamped and quantized to little-endian int16 and base64 encoded, and
// inbound base64 chunks are decoded back to normalized float samples.
//
// Key types:
//   - Format: 16-bit mono format at 16kHz (input) or 24kHz (model output)
//   - Buffer: Decoded float samples tagged with their format
//   - DecodeError: A malformed inbound chunk
//
// Example usage:
//
//	// Encode a microphone frame for the Live API
//	payload := pcm.EncodeOutboundFrame(frame)
//
//	// Decode model audio at 24kHz
//	buf, err := pcm.DecodeInboundChunk(data, pcm.L16Mono24K)
//	if err != nil {
//	    // drop the chunk
//	}
//	d := buf.Duration()
package pcm
