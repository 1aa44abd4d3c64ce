package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/haivivi/execlive/pkg/audio/pcm"
	"github.com/haivivi/execlive/pkg/audio/resampler"
)

// InputFormat is the format of audio uploaded to the model.
var InputFormat = pcm.L16Mono16K

// AudioSender uploads realtime PCM audio.
type AudioSender interface {
	SendAudio(data []byte, format pcm.Format) error
}

// AudioLoop reads microphone frames, tracks the input volume and uploads the
// frames as 16 kHz PCM.
type AudioLoop struct {
	mic  Microphone
	send AudioSender
	rs   *resampler.Resampler

	volume atomic.Uint64
}

// NewAudioLoop creates a loop from mic to send. A resampler is inserted when
// the microphone does not capture at 16 kHz.
func NewAudioLoop(mic Microphone, send AudioSender) (*AudioLoop, error) {
	l := &AudioLoop{mic: mic, send: send}
	if rate := mic.SampleRate(); rate != InputFormat.SampleRate() {
		rs, err := resampler.New(
			resampler.Format{SampleRate: rate},
			resampler.Format{SampleRate: InputFormat.SampleRate()},
		)
		if err != nil {
			return nil, fmt.Errorf("media: audio loop: %w", err)
		}
		l.rs = rs
	}
	return l, nil
}

// Volume returns the RMS of the last frame scaled by 10. It is a display
// value and may exceed 1.
func (l *AudioLoop) Volume() float64 {
	return math.Float64frombits(l.volume.Load())
}

// Run uploads frames until ctx is canceled or reading fails. A read error
// after cancellation is not reported.
func (l *AudioLoop) Run(ctx context.Context) error {
	if l.rs != nil {
		defer l.rs.Close()
	}
	defer l.volume.Store(0)

	for {
		frame, err := l.mic.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return &DeviceError{Op: "read microphone", Err: err}
		}
		l.volume.Store(math.Float64bits(pcm.RMS(frame) * 10))

		if l.rs != nil {
			if frame, err = l.rs.Process(frame); err != nil {
				return fmt.Errorf("media: audio loop: %w", err)
			}
		}
		if len(frame) == 0 {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		data := pcm.EncodeFrame(frame)
		if err := l.send.SendAudio(data, InputFormat); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("media: send audio failed", "error", err)
			return err
		}
	}
}
