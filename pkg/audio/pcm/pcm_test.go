package pcm

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		f    Format
		rate int
		mime string
	}{
		{L16Mono16K, 16000, "audio/pcm;rate=16000"},
		{L16Mono24K, 24000, "audio/pcm;rate=24000"},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := tt.f.SampleRate(); got != tt.rate {
				t.Errorf("SampleRate = %d, want %d", got, tt.rate)
			}
			if got := tt.f.MIMEType(); got != tt.mime {
				t.Errorf("MIMEType = %q, want %q", got, tt.mime)
			}
			if got := tt.f.SamplesInDuration(20 * time.Millisecond); got != int64(tt.rate/50) {
				t.Errorf("SamplesInDuration(20ms) = %d", got)
			}
			if got := tt.f.SampleDuration(int64(tt.rate / 2)); got != 500*time.Millisecond {
				t.Errorf("SampleDuration = %v, want 500ms", got)
			}
		})
	}
}
