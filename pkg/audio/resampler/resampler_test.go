package resampler

import (
	"math"
	"testing"
)

func TestFormat_channels(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   int
	}{
		{
			name:   "mono",
			format: Format{SampleRate: 44100, Stereo: false},
			want:   1,
		},
		{
			name:   "stereo",
			format: Format{SampleRate: 48000, Stereo: true},
			want:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.channels(); got != tt.want {
				t.Errorf("Format.channels() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewRejectsUpmix(t *testing.T) {
	if _, err := New(Format{SampleRate: 16000}, Format{SampleRate: 16000, Stereo: true}); err == nil {
		t.Fatal("expected error for mono to stereo")
	}
	if _, err := New(Format{}, Format{SampleRate: 16000}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestPassthrough(t *testing.T) {
	r, err := New(Format{SampleRate: 16000}, Format{SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if !r.Passthrough() {
		t.Fatal("expected passthrough")
	}
	in := []float32{0.1, -0.2, 0.3}
	out, err := r.Process(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	r, err := New(Format{SampleRate: 16000, Stereo: true}, Format{SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Process([]float32{0.5, 0.1, -1, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0.3, 0}
	if len(out) != len(want) {
		t.Fatalf("got %v", out)
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d: got %v want %v", i, out[i], want[i])
		}
	}
}

func TestDownsampleLength(t *testing.T) {
	r, err := New(Format{SampleRate: 48000}, Format{SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	frame := make([]float32, 4800)
	for i := range frame {
		frame[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	var total int
	for range 10 {
		out, err := r.Process(frame)
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range out {
			if s < -1 || s > 1 {
				t.Fatalf("sample out of range: %v", s)
			}
		}
		total += len(out)
	}
	// 10 x 100ms at 48kHz is 1s, at most 16000 samples at 16kHz; the filter
	// may hold back its delay line.
	if total == 0 || total > 16000+64 {
		t.Errorf("total output = %d samples, want at most about 16000", total)
	}
}

func TestProcessAfterClose(t *testing.T) {
	r, err := New(Format{SampleRate: 48000}, Format{SampleRate: 16000})
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	if _, err := r.Process([]float32{0}); err == nil {
		t.Fatal("expected error after Close")
	}
}
