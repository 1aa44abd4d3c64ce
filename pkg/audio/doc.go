// Package audio groups the audio sub-packages of the assistant:
//
//   - pcm: 16-bit PCM formats and the wire codec of the Live API
//   - resampler: sample-rate conversion of capture frames to 16kHz
//   - portaudio: microphone capture and speaker output via PortAudio
//
// Example usage:
//
//	import (
//	    "github.com/haivivi/execlive/pkg/audio/pcm"
//	    "github.com/haivivi/execlive/pkg/audio/resampler"
//	)
//
//	// Bring a 48kHz capture frame to the input rate
//	r, _ := resampler.New(
//	    resampler.Format{SampleRate: 48000},
//	    resampler.Format{SampleRate: pcm.L16Mono16K.SampleRate()},
//	)
//	out, _ := r.Process(frame)
//	data := pcm.EncodeFrame(out)
package audio
