// Package resampler converts captured audio frames to the sample rate the
// realtime session expects.
//
// It supports:
//   - Sample rate conversion (e.g., 48000Hz device capture to 16000Hz)
//   - Stereo to mono downmixing
//
// Resampling is done by a pure Go filter, so the package has no CGO
// dependencies.
//
// Example usage:
//
//	src := resampler.Format{SampleRate: 48000, Stereo: true}
//	dst := resampler.Format{SampleRate: 16000}
//	r, err := resampler.New(src, dst)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	out, err := r.Process(frame)
package resampler
