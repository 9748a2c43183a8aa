// Package engine defines the capability boundary to an external
// text-recognition engine. The core never implements character
// recognition; adapters translate a prepared image into whatever the
// chosen engine requires and translate its output back into lines with
// top-left-normalized bounding boxes.
package engine

import (
	"context"
	"errors"
	"image"

	"github.com/fieldlens/clipocr/internal/region"
)

var (
	// ErrRecognition indicates an engine-side failure or timeout.
	ErrRecognition = errors.New("recognition failed")
	// ErrNotImplemented indicates no engine backend is available in
	// this build.
	ErrNotImplemented = errors.New("recognition engine not implemented")
)

// DefaultLanguage is the engine language used when callers do not pick
// one.
const DefaultLanguage = "eng"

// Mode selects the engine's quality/latency trade-off.
type Mode string

const (
	// ModeAccurate asks for the engine's highest-quality recognition.
	ModeAccurate Mode = "accurate"
	// ModeFast asks for the engine's low-latency recognition.
	ModeFast Mode = "fast"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAccurate || m == ModeFast
}

// Options configures a single recognition invocation.
type Options struct {
	// DigitsOnly requests the most literal recognition the engine
	// offers: numeric whitelist on, dictionary correction off.
	// Language-model "fixes" actively harm digit accuracy.
	DigitsOnly bool
	// Language is the engine's language code (engine-specific, e.g.
	// "eng" for Tesseract).
	Language string
	// Mode selects accurate or fast recognition.
	Mode Mode
}

// Line is one recognized text line with its bounding box normalized to
// the image it was recognized on, origin top-left.
type Line struct {
	Text       string
	Box        region.Normalized
	Confidence float64
}

// Engine is the external text-recognition collaborator. Implementations
// must be safe for concurrent use by multiple in-flight scans; adapters
// over engines that disallow sharing pool one instance per call.
//
// The hint, when non-nil, narrows the engine's internal search. Engines
// that ignore it still receive an already-cropped buffer, so the hint
// is an optimization, never a correctness requirement.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, hint *region.Normalized, opts Options) ([]Line, error)
	Close() error
}

// NormalizePixelBox converts an engine-native pixel rectangle into the
// canonical top-left-normalized convention.
func NormalizePixelBox(r image.Rectangle, imageWidth, imageHeight int) region.Normalized {
	if imageWidth <= 0 || imageHeight <= 0 {
		return region.Normalized{}
	}
	return region.Normalized{
		X:      float64(r.Min.X) / float64(imageWidth),
		Y:      float64(r.Min.Y) / float64(imageHeight),
		Width:  float64(r.Dx()) / float64(imageWidth),
		Height: float64(r.Dy()) / float64(imageHeight),
	}
}

// FlipVertical converts a bottom-left-origin normalized box (as used by
// some platform vision frameworks) into the top-left convention.
// Conversion happens at the adapter edge, never inside the pipeline.
func FlipVertical(b region.Normalized) region.Normalized {
	return region.Normalized{
		X:      b.X,
		Y:      1.0 - b.Y - b.Height,
		Width:  b.Width,
		Height: b.Height,
	}
}
