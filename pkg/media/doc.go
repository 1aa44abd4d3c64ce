// Package media captures microphone and camera input and streams it to a
// realtime session.
//
// AudioLoop uploads 16 kHz PCM frames and tracks the input volume.
// VideoLoop uploads a half-size JPEG frame every second while the camera is
// on. Capture ties both loops to the acquired devices and implements camera
// toggling, facing switch and full resolution screenshots.
//
// Devices are abstract; the CLI provides a PortAudio microphone and tests
// provide fakes.
package media
