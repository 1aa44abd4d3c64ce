package media

import "errors"

var (
	// ErrCameraOff is returned by Screenshot when no camera is active.
	ErrCameraOff = errors.New("media: camera is off")

	// ErrFrameNotReady is returned when the camera has not produced a frame.
	ErrFrameNotReady = errors.New("media: video stream not ready")

	// ErrNoMicrophone is returned by Attach before a microphone is acquired.
	ErrNoMicrophone = errors.New("media: microphone not acquired")
)
