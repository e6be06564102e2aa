package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/nextlevelbuilder/agentbridge/internal/archive"
	"github.com/nextlevelbuilder/agentbridge/internal/desktop"
)

// Recorder captures screenshots, scales them to the display size the agent
// was told about and archives each one as screen_shot_<n>.png.
type Recorder struct {
	mu      sync.Mutex
	sink    archive.Sink // nil = don't archive
	size    desktop.Size // zero = keep native resolution
	counter int
	logger  *slog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(sink archive.Sink, size desktop.Size, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, size: size, logger: logger}
}

// Capture grabs the display and returns PNG bytes. Archiving failures are
// logged and never fail the capture.
func (r *Recorder) Capture(ctx context.Context, d desktop.Driver) ([]byte, error) {
	raw, err := d.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	img, err := r.fit(raw)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	n := r.counter
	r.counter++
	r.mu.Unlock()

	if r.sink != nil {
		name := fmt.Sprintf("screen_shot_%d.png", n)
		if err := r.sink.Put(ctx, name, img, "image/png"); err != nil {
			r.logger.Warn("failed to archive screenshot", "name", name, "error", err)
		} else {
			r.logger.Info("saved screenshot", "name", name)
		}
	}
	return img, nil
}

// Count returns how many screenshots have been taken.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// fit rescales raw to the configured size. Images already matching it, or
// when no size is set, are passed through untouched.
func (r *Recorder) fit(raw []byte) ([]byte, error) {
	if r.size.Width <= 0 || r.size.Height <= 0 {
		return raw, nil
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == r.size.Width && b.Dy() == r.size.Height {
		return raw, nil
	}

	scaled := imaging.Resize(img, r.size.Width, r.size.Height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
