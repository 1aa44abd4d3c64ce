package media

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ScreenshotQuality is the JPEG quality of full resolution stills.
const ScreenshotQuality = 92

// Sender uploads both realtime audio and frames.
type Sender interface {
	AudioSender
	ImageSender
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithErrorHandler sets the callback receiving asynchronous capture errors,
// such as a microphone that stops delivering frames. It is called from the
// audio goroutine.
func WithErrorHandler(fn func(error)) CaptureOption {
	return func(c *Capture) { c.onError = fn }
}

// WithFrameInterval overrides the video upload interval.
func WithFrameInterval(d time.Duration) CaptureOption {
	return func(c *Capture) { c.interval = d }
}

// WithFacing sets the initial camera facing mode.
func WithFacing(f FacingMode) CaptureOption {
	return func(c *Capture) { c.facing = f }
}

// Capture owns the microphone, the camera and the loops streaming them to a
// session.
type Capture struct {
	devices  Devices
	onError  func(error)
	interval time.Duration

	mu          sync.Mutex
	facing      FacingMode
	mic         Microphone
	cam         Camera
	sender      Sender
	audio       *AudioLoop
	audioCancel context.CancelFunc
	audioDone   chan struct{}
	video       *VideoLoop
}

// NewCapture creates a Capture with no devices acquired.
func NewCapture(devices Devices, opts ...CaptureOption) *Capture {
	c := &Capture{
		devices:  devices,
		interval: FrameInterval,
		facing:   FacingUser,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcquireMicrophone opens the microphone if it is not open yet.
func (c *Capture) AcquireMicrophone(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mic != nil {
		return nil
	}
	mic, err := c.devices.OpenMicrophone(ctx)
	if err != nil {
		return asDeviceError("open microphone", err)
	}
	c.mic = mic
	return nil
}

// Attach starts streaming to s: the audio loop always, the video loop when
// the camera is on. The microphone must be acquired first.
func (c *Capture) Attach(s Sender) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mic == nil {
		return ErrNoMicrophone
	}
	c.detachLocked()

	audio, err := NewAudioLoop(c.mic, s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.sender = s
	c.audio = audio
	c.audioCancel = cancel
	c.audioDone = done
	go func() {
		defer close(done)
		if err := audio.Run(ctx); err != nil && c.onError != nil {
			c.onError(err)
		}
	}()

	c.video = NewVideoLoop(s, c.interval)
	if c.cam != nil {
		c.video.Start(c.cam)
	}
	return nil
}

// CameraOn reports whether the camera is acquired.
func (c *Capture) CameraOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cam != nil
}

// Facing returns the preferred facing mode.
func (c *Capture) Facing() FacingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// Streaming reports whether frames are being uploaded.
func (c *Capture) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video != nil && c.video.Running()
}

// ToggleCamera turns the camera off if it is on, and on otherwise. It returns
// the new camera state. When opening fails the camera stays off.
func (c *Capture) ToggleCamera(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cam != nil {
		c.closeCameraLocked()
		return false, nil
	}
	if err := c.openCameraLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SwitchCamera flips the facing mode. If the camera is on it is reopened
// with the new mode and the video loop restarts while attached. On failure
// the camera is left off and the new preference is kept.
func (c *Capture) SwitchCamera(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facing = c.facing.Opposite()
	if c.cam == nil {
		return nil
	}
	c.closeCameraLocked()
	return c.openCameraLocked(ctx)
}

// Screenshot captures the current camera frame at full resolution and
// returns it as a JPEG data URL.
func (c *Capture) Screenshot() (string, error) {
	c.mu.Lock()
	cam := c.cam
	c.mu.Unlock()
	if cam == nil {
		return "", ErrCameraOff
	}
	img, err := cam.Frame()
	if err != nil {
		return "", err
	}
	data, err := EncodeJPEG(img, 1, ScreenshotQuality)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Volume returns the current input volume estimate, 0 when not streaming.
func (c *Capture) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audio == nil {
		return 0
	}
	return c.audio.Volume()
}

// Release stops both loops and closes every device. It is safe to call more
// than once.
func (c *Capture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
	c.closeCameraLocked()
	if c.mic != nil {
		if err := c.mic.Close(); err != nil {
			slog.Warn("media: close microphone", "error", err)
		}
		c.mic = nil
	}
}

func (c *Capture) detachLocked() {
	if c.video != nil {
		c.video.Stop()
		c.video = nil
	}
	if c.audioCancel != nil {
		c.audioCancel()
		<-c.audioDone
		c.audioCancel = nil
		c.audioDone = nil
	}
	c.audio = nil
	c.sender = nil
}

func (c *Capture) openCameraLocked(ctx context.Context) error {
	cam, err := c.devices.OpenCamera(ctx, c.facing)
	if err != nil {
		return asDeviceError("open camera", err)
	}
	c.cam = cam
	if c.video != nil {
		c.video.Start(cam)
	}
	return nil
}

func (c *Capture) closeCameraLocked() {
	if c.video != nil {
		c.video.Stop()
	}
	if c.cam != nil {
		if err := c.cam.Close(); err != nil {
			slog.Warn("media: close camera", "error", err)
		}
		c.cam = nil
	}
}

func asDeviceError(op string, err error) error {
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Op: op, Err: err}
}
