package media

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// Frame upload settings.
const (
	FrameInterval = time.Second
	FrameScale    = 0.5
	FrameQuality  = 60
)

// ImageSender uploads realtime still images.
type ImageSender interface {
	SendImage(data []byte, mimeType string) error
}

// EncodeJPEG encodes img as JPEG, scaled by scale when it is not 1.
func EncodeJPEG(img image.Image, scale float64, quality int) ([]byte, error) {
	if scale != 1 {
		b := img.Bounds()
		w := max(1, int(float64(b.Dx())*scale))
		h := max(1, int(float64(b.Dy())*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VideoLoop uploads a downscaled camera frame on every tick.
type VideoLoop struct {
	send     ImageSender
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewVideoLoop creates a stopped loop sending frames every interval.
func NewVideoLoop(send ImageSender, interval time.Duration) *VideoLoop {
	if interval <= 0 {
		interval = FrameInterval
	}
	return &VideoLoop{send: send, interval: interval}
}

// Start begins sending frames from cam. A running loop is stopped first, so
// there is never more than one ticker.
func (v *VideoLoop) Start(cam Camera) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	v.cancel = cancel
	v.done = done
	go v.run(ctx, cam, done)
}

// Stop stops the loop. No frame is sent after Stop returns.
func (v *VideoLoop) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

// Running reports whether the ticker is active.
func (v *VideoLoop) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

func (v *VideoLoop) stopLocked() {
	if v.cancel == nil {
		return
	}
	v.cancel()
	<-v.done
	v.cancel = nil
	v.done = nil
}

func (v *VideoLoop) run(ctx context.Context, cam Camera, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		img, err := cam.Frame()
		if err != nil {
			slog.Debug("media: skip frame", "error", err)
			continue
		}
		data, err := EncodeJPEG(img, FrameScale, FrameQuality)
		if err != nil {
			slog.Warn("media: encode frame", "error", err)
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if err := v.send.SendImage(data, "image/jpeg"); err != nil {
			slog.Debug("media: send frame failed", "error", err)
		}
	}
}
