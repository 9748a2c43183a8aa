// Package enhance implements the ordered image transform chain that
// prepares a cropped document region for text recognition. The chain is
// deterministic: identical inputs always produce identical outputs.
package enhance

import (
	"errors"
	"fmt"
	"image"

	"github.com/fieldlens/clipocr/internal/region"
)

// ErrCrop indicates the requested crop rectangle cannot be realized
// against the buffer's actual dimensions.
var ErrCrop = errors.New("crop failed")

// MinRecognitionSize is the short-side pixel threshold below which the
// enhancer upscales. Recognition accuracy degrades sharply on smaller
// inputs.
const MinRecognitionSize = 640

// Options tunes the enhancement chain.
type Options struct {
	// DigitsOnly selects the numeric profile: stronger sharpening, a
	// wider contrast range, a brightness lift and a midtone S-curve.
	DigitsOnly bool
	// Contrast is the requested contrast factor. Values are clamped
	// into the profile range; 0 selects an automatic estimate from the
	// image's lightness spread.
	Contrast float64
}

// DefaultOptions returns the neutral enhancement options.
func DefaultOptions() Options {
	return Options{DigitsOnly: false, Contrast: 1.0}
}

// Enhance runs the full chain over img. When rect is non-nil the image
// is cropped to exactly that pixel rectangle first; a nil rect passes
// the whole buffer through. Every stage produces a new buffer, so the
// input image is never mutated.
//
// Stage order is fixed: crop, upscale-if-small, sharpen,
// contrast/brightness, tone curve (digits only), unsharp mask.
// Degenerate inputs (1x1, blank) flow through without error.
func Enhance(img image.Image, rect *region.Pixel, opts Options) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: input image is nil", ErrCrop)
	}

	out, err := cropStage(img, rect)
	if err != nil {
		return nil, err
	}
	out = upscaleIfSmall(out)
	out = sharpenStage(out, opts)
	out = adjustContrastBrightness(out, opts)
	if opts.DigitsOnly {
		out = toneCurve(out, digitsToneStrength)
	}
	out = unsharpStage(out, opts)
	return out, nil
}
