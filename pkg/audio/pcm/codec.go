package pcm

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// DecodeError reports an inbound audio chunk that could not be turned into
// samples. The chunk should be dropped; the session is unaffected.
type DecodeError struct {
	Len int
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pcm: decode chunk: %v", e.Err)
	}
	return fmt.Sprintf("pcm: decode chunk: odd byte length %d", e.Len)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Buffer is a decoded block of mono float samples in [-1, 1).
type Buffer struct {
	Samples []float32
	Format  Format
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	return b.Format.SampleDuration(int64(len(b.Samples)))
}

// Float32ToInt16 converts float samples to signed 16-bit samples. Samples are
// clamped to [-1, 1]; negative values scale by 32768 and positive values by
// 32767 so both extremes map onto the int16 range exactly.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7fff)
		}
	}
	return out
}

// Int16ToFloat32 normalizes signed 16-bit samples by 32768.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// Int16ToBytes serializes samples as little-endian 16-bit integers.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 reinterprets little-endian bytes as 16-bit samples. It fails
// when the byte length is odd.
func BytesToInt16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, &DecodeError{Len: len(data)}
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out, nil
}

// EncodeFrame turns a captured float frame into little-endian 16-bit PCM.
func EncodeFrame(samples []float32) []byte {
	return Int16ToBytes(Float32ToInt16(samples))
}

// EncodeOutboundFrame is EncodeFrame followed by base64, the form realtime
// audio takes on the wire. genai applies the base64 step itself when it
// marshals a Blob, so sessions pass EncodeFrame output.
func EncodeOutboundFrame(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodeFrame(samples))
}

// DecodeInboundChunk decodes a base64 PCM payload received from the model.
// genai delivers inline data already decoded; use DecodeBytes for that.
func DecodeInboundChunk(b64 string, format Format) (*Buffer, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &DecodeError{Len: len(b64), Err: err}
	}
	return DecodeBytes(data, format)
}

// DecodeBytes decodes raw little-endian PCM bytes into a Buffer.
func DecodeBytes(data []byte, format Format) (*Buffer, error) {
	samples, err := BytesToInt16(data)
	if err != nil {
		return nil, err
	}
	return &Buffer{Samples: Int16ToFloat32(samples), Format: format}, nil
}

// RMS returns the root mean square of samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
