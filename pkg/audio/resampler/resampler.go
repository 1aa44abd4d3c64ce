package resampler

import (
	"fmt"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts frames of float samples from srcFmt to dstFmt. It
// supports sample rate conversion and stereo to mono downmixing. The
// resampler keeps filter state between calls, so frames of one stream must be
// processed in order through the same Resampler.
type Resampler struct {
	srcFmt Format
	dstFmt Format

	mu        sync.Mutex
	closed    bool
	resampler resampling.Resampler
}

// New creates a Resampler from srcFmt to dstFmt. Upmixing mono to stereo is
// not supported.
func New(srcFmt, dstFmt Format) (*Resampler, error) {
	if srcFmt.SampleRate <= 0 || dstFmt.SampleRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid sample rate %d -> %d", srcFmt.SampleRate, dstFmt.SampleRate)
	}
	if !srcFmt.Stereo && dstFmt.Stereo {
		return nil, fmt.Errorf("resampler: mono to stereo is not supported")
	}

	r := &Resampler{srcFmt: srcFmt, dstFmt: dstFmt}
	if srcFmt.SampleRate != dstFmt.SampleRate {
		config := &resampling.Config{
			InputRate:  float64(srcFmt.SampleRate),
			OutputRate: float64(dstFmt.SampleRate),
			Channels:   dstFmt.channels(),
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		}
		rs, err := resampling.New(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		r.resampler = rs
	}
	return r, nil
}

// Passthrough reports whether frames are returned unchanged.
func (r *Resampler) Passthrough() bool {
	return r.resampler == nil && r.srcFmt.Stereo == r.dstFmt.Stereo
}

// Process converts one frame. The returned frame may be shorter or longer
// than the ratio suggests because the filter buffers a few samples.
func (r *Resampler) Process(frame []float32) ([]float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("resampler: closed")
	}

	if r.srcFmt.Stereo && !r.dstFmt.Stereo {
		frame = stereoToMono(frame)
	}
	if r.resampler == nil {
		return frame, nil
	}

	input := make([]float64, len(frame))
	for i, s := range frame {
		input[i] = float64(s)
	}
	output, err := r.resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(max(-1, min(1, s)))
	}
	return out, nil
}

// Close releases the filter. Subsequent Process calls fail.
func (r *Resampler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.resampler = nil
	return nil
}

// stereoToMono averages interleaved L and R samples.
func stereoToMono(frame []float32) []float32 {
	out := make([]float32, len(frame)/2)
	for i := range out {
		out[i] = (frame[i*2] + frame[i*2+1]) / 2
	}
	return out
}
