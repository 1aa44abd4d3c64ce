package pcm

import (
	"fmt"
	"time"
)

const (
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K Format = iota
	// L16Mono24K represents audio/L16; rate=24000; channels=1
	L16Mono24K
)

// Format is a 16-bit mono PCM configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	}
	panic("pcm: invalid audio type")
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// SampleDuration returns the playback duration of n samples.
func (f Format) SampleDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(f.SampleRate())
}

// MIMEType returns the wire MIME type used by the Live API for raw PCM,
// e.g. "audio/pcm;rate=16000".
func (f Format) MIMEType() string {
	return fmt.Sprintf("audio/pcm;rate=%d", f.SampleRate())
}
