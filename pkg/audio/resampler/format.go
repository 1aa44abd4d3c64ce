package resampler

// Format describes one side of a conversion. Samples are float32 in [-1, 1],
// interleaved when Stereo is set.
type Format struct {
	// SampleRate is the sample rate in Hz (e.g., 44100, 48000).
	SampleRate int

	// Stereo indicates stereo (2 channels) if true, mono (1 channel) if false.
	Stereo bool
}

func (f Format) channels() int {
	if f.Stereo {
		return 2
	}
	return 1
}
