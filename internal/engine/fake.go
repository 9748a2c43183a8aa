package engine

import (
	"context"
	"image"
	"sync"

	"github.com/fieldlens/clipocr/internal/region"
)

// Fake is a deterministic in-memory engine for tests and dry runs. It
// returns its configured lines verbatim and records how it was invoked.
// Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// Lines is returned by every Recognize call.
	Lines []Line
	// Err, when set, fails every Recognize call.
	Err error

	calls      int
	lastWidth  int
	lastHeight int
	lastHint   *region.Normalized
	lastOpts   Options
}

// Recognize returns the configured lines or error.
func (f *Fake) Recognize(ctx context.Context, img image.Image, hint *region.Normalized, opts Options) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if img != nil {
		b := img.Bounds()
		f.lastWidth, f.lastHeight = b.Dx(), b.Dy()
	}
	f.lastHint = hint
	f.lastOpts = opts

	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]Line, len(f.Lines))
	copy(out, f.Lines)
	return out, nil
}

// Close releases nothing.
func (f *Fake) Close() error { return nil }

// Calls returns how many times Recognize was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastImageSize returns the dimensions of the most recent input image.
func (f *Fake) LastImageSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastWidth, f.lastHeight
}

// LastOptions returns the options of the most recent invocation.
func (f *Fake) LastOptions() Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastOpts
}

// LastHint returns the region hint of the most recent invocation.
func (f *Fake) LastHint() *region.Normalized {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastHint
}
