package media

import (
	"context"
	"fmt"
	"image"
)

// FacingMode selects the front or rear camera.
type FacingMode string

const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

// Opposite returns the other facing mode.
func (f FacingMode) Opposite() FacingMode {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// Microphone yields frames of mono float samples in [-1, 1].
type Microphone interface {
	// ReadFrame blocks until the next frame is captured or ctx is done.
	ReadFrame(ctx context.Context) ([]float32, error)
	// SampleRate is the capture rate in Hz.
	SampleRate() int
	Close() error
}

// Camera returns the latest captured frame on demand.
type Camera interface {
	// Frame returns the most recent frame. It returns ErrFrameNotReady when
	// the stream has not produced a frame yet.
	Frame() (image.Image, error)
	Facing() FacingMode
	Close() error
}

// Devices acquires capture devices.
type Devices interface {
	OpenMicrophone(ctx context.Context) (Microphone, error)
	OpenCamera(ctx context.Context, facing FacingMode) (Camera, error)
}

// DeviceError reports a failed device operation, such as a denied
// permission or a missing device.
type DeviceError struct {
	Op  string // "open microphone", "open camera", "read microphone"...
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("media: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
