// Package portaudio binds the default host audio devices through the
// PortAudio C library. It backs the assistant's microphone and the playback
// output when running from a terminal.
//
// Building requires portaudio-2.0 visible to pkg-config (brew install
// portaudio, apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

var (
	// ErrNoInputDevice is returned when the host has no default input.
	ErrNoInputDevice = errors.New("portaudio: no default input device")

	// ErrNoOutputDevice is returned when the host has no default output.
	ErrNoOutputDevice = errors.New("portaudio: no default output device")

	errStreamClosed = errors.New("portaudio: stream closed")
)

func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return fmt.Errorf("portaudio: %s", C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library. It is safe to call more
// than once; later calls return the first result.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate releases the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo describes a host audio device.
type DeviceInfo struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	MaxInputChannels  int     `json:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate"`
	IsDefaultInput    bool    `json:"is_default_input,omitempty"`
	IsDefaultOutput   bool    `json:"is_default_output,omitempty"`
}

func deviceInfo(idx C.PaDeviceIndex) (DeviceInfo, bool) {
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return DeviceInfo{}, false
	}
	return DeviceInfo{
		Index:             int(idx),
		Name:              C.GoString(info.name),
		MaxInputChannels:  int(info.maxInputChannels),
		MaxOutputChannels: int(info.maxOutputChannels),
		DefaultSampleRate: float64(info.defaultSampleRate),
		IsDefaultInput:    idx == C.Pa_GetDefaultInputDevice(),
		IsDefaultOutput:   idx == C.Pa_GetDefaultOutputDevice(),
	}, true
}

// ListDevices returns the host audio devices.
func ListDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}
	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		if d, ok := deviceInfo(C.PaDeviceIndex(i)); ok {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

// DefaultInputDevice returns the default input device.
func DefaultInputDevice() (DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return DeviceInfo{}, err
	}
	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return DeviceInfo{}, ErrNoInputDevice
	}
	d, ok := deviceInfo(idx)
	if !ok {
		return DeviceInfo{}, ErrNoInputDevice
	}
	return d, nil
}

// WriteDevices prints a human readable device list to w.
func WriteDevices(w io.Writer, devices []DeviceInfo) {
	for _, d := range devices {
		marker := ""
		if d.IsDefaultInput {
			marker += " [default input]"
		}
		if d.IsDefaultOutput {
			marker += " [default output]"
		}
		fmt.Fprintf(w, "%d: %s%s\n", d.Index, d.Name, marker)
		fmt.Fprintf(w, "   channels in/out: %d/%d, rate: %.0f Hz\n", d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
}

// stream is a blocking mono int16 PortAudio stream.
type stream struct {
	mu     sync.Mutex
	pa     unsafe.Pointer
	buf    unsafe.Pointer
	frames int
	closed bool
}

// openStream opens and starts a mono stream on the default input (input
// true) or output device. frames is the fixed block size of every read or
// write.
func openStream(input bool, sampleRate float64, frames int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var inParams, outParams *C.PaStreamParameters
	if input {
		dev := C.Pa_GetDefaultInputDevice()
		if dev == C.paNoDevice {
			return nil, ErrNoInputDevice
		}
		inParams = &C.PaStreamParameters{
			device:           dev,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: C.Pa_GetDeviceInfo(dev).defaultLowInputLatency,
		}
	} else {
		dev := C.Pa_GetDefaultOutputDevice()
		if dev == C.paNoDevice {
			return nil, ErrNoOutputDevice
		}
		outParams = &C.PaStreamParameters{
			device:           dev,
			channelCount:     1,
			sampleFormat:     C.paInt16,
			suggestedLatency: C.Pa_GetDeviceInfo(dev).defaultLowOutputLatency,
		}
	}

	var pa unsafe.Pointer
	if err := paError(C.pa_open_stream(&pa, inParams, outParams,
		C.double(sampleRate), C.ulong(frames), C.paClipOff)); err != nil {
		return nil, err
	}
	s := &stream{
		pa:     pa,
		buf:    C.malloc(C.size_t(frames * 2)),
		frames: frames,
	}
	if err := paError(C.pa_start_stream(pa)); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// read fills dst with the next block. dst must hold frames samples.
func (s *stream) read(dst []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	if err := paError(C.pa_read_stream(s.pa, s.buf, C.ulong(s.frames))); err != nil {
		return err
	}
	C.memcpy(unsafe.Pointer(&dst[0]), s.buf, C.size_t(s.frames*2))
	return nil
}

// write plays one block. A short src is padded with silence.
func (s *stream) write(src []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}
	n := min(len(src), s.frames)
	C.memset(s.buf, 0, C.size_t(s.frames*2))
	if n > 0 {
		C.memcpy(s.buf, unsafe.Pointer(&src[0]), C.size_t(n*2))
	}
	return paError(C.pa_write_stream(s.pa, s.buf, C.ulong(s.frames)))
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	C.pa_stop_stream(s.pa)
	err := paError(C.pa_close_stream(s.pa))
	C.free(s.buf)
	return err
}
