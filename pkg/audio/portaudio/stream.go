package portaudio

import (
	"context"
	"errors"
	"time"

	"github.com/haivivi/execlive/pkg/audio/pcm"
	"github.com/haivivi/execlive/pkg/media"
	"github.com/haivivi/execlive/pkg/playback"
)

// FrameDuration is the capture block size: 4096 samples at the 16 kHz
// input rate.
const FrameDuration = 256 * time.Millisecond

// ErrNoCamera is returned by Devices.OpenCamera; terminal hosts have no
// camera binding.
var ErrNoCamera = errors.New("portaudio: camera capture is not supported")

// Microphone captures mono audio from the default input device at the
// device's native rate.
type Microphone struct {
	s    *stream
	rate int
	buf  []int16
}

var _ media.Microphone = (*Microphone)(nil)

// OpenMicrophone opens the default input. A zero sampleRate uses the
// device default.
func OpenMicrophone(sampleRate int) (*Microphone, error) {
	if sampleRate <= 0 {
		d, err := DefaultInputDevice()
		if err != nil {
			return nil, err
		}
		sampleRate = int(d.DefaultSampleRate)
	}
	frames := sampleRate * int(FrameDuration/time.Millisecond) / 1000
	s, err := openStream(true, float64(sampleRate), frames)
	if err != nil {
		return nil, err
	}
	return &Microphone{s: s, rate: sampleRate, buf: make([]int16, frames)}, nil
}

// ReadFrame blocks for one FrameDuration of audio.
func (m *Microphone) ReadFrame(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.s.read(m.buf); err != nil {
		return nil, err
	}
	return pcm.Int16ToFloat32(m.buf), nil
}

// SampleRate returns the capture rate in Hz.
func (m *Microphone) SampleRate() int {
	return m.rate
}

// Close stops the stream. A blocked ReadFrame returns after its block.
func (m *Microphone) Close() error {
	return m.s.close()
}

// OutputStream plays fixed-size blocks on the default output device.
type OutputStream struct {
	s      *stream
	format pcm.Format
}

var _ playback.Output = (*OutputStream)(nil)

// NewOutputStream opens the default output in format with blocks of
// blockDuration. Pass the same duration to playback.NewPlayer.
func NewOutputStream(format pcm.Format, blockDuration time.Duration) (*OutputStream, error) {
	frames := int(format.SamplesInDuration(blockDuration))
	s, err := openStream(false, float64(format.SampleRate()), frames)
	if err != nil {
		return nil, err
	}
	return &OutputStream{s: s, format: format}, nil
}

// Write plays one block and blocks until the device accepts it.
func (o *OutputStream) Write(samples []int16) (int, error) {
	if err := o.s.write(samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}

// Format returns the output format.
func (o *OutputStream) Format() pcm.Format {
	return o.format
}

// Close stops the stream.
func (o *OutputStream) Close() error {
	return o.s.close()
}

// Devices opens the default microphone. It has no camera.
type Devices struct {
	// SampleRate forces the capture rate; zero uses the device default.
	SampleRate int
}

var _ media.Devices = Devices{}

func (d Devices) OpenMicrophone(context.Context) (media.Microphone, error) {
	return OpenMicrophone(d.SampleRate)
}

func (Devices) OpenCamera(context.Context, media.FacingMode) (media.Camera, error) {
	return nil, ErrNoCamera
}
