package enhance

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/fieldlens/clipocr/internal/region"
)

const (
	// Sharpen sigmas. Digit strokes benefit from crisper edges than prose.
	sharpenSigmaProse  = 0.8
	sharpenSigmaDigits = 1.5

	// Contrast factor clamps per profile.
	maxContrastProse  = 2.0
	maxContrastDigits = 2.5

	// Brightness lift applied in digits mode, in 0-255 units.
	digitsBrightnessOffset = 10.0

	// S-curve blend weight for the digits tone curve.
	digitsToneStrength = 0.6

	// Unsharp mask parameters for the final pass.
	unsharpRadiusProse  = 3.0
	unsharpAmountProse  = 0.5
	unsharpRadiusDigits = 4.0
	unsharpAmountDigits = 1.2

	// Below this short side, convolution-based stages are skipped; a
	// kernel would only see clamped edge pixels.
	minConvolutionSize = 3
)

// cropStage extracts the requested pixel rectangle. The rectangle was
// mapped against the upright dimensions, but the buffer may have been
// resampled upstream, so it is re-checked here.
func cropStage(img image.Image, rect *region.Pixel) (image.Image, error) {
	if rect == nil {
		return imaging.Clone(img), nil
	}
	b := img.Bounds()
	r := rect.Rect().Add(b.Min)
	if !r.In(b) {
		return nil, fmt.Errorf("%w: rectangle %v outside buffer %dx%d",
			ErrCrop, rect.Rect(), b.Dx(), b.Dy())
	}
	out := imaging.Crop(img, r)
	if out.Bounds().Dx() != rect.Width || out.Bounds().Dy() != rect.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrCrop, out.Bounds().Dx(), out.Bounds().Dy(), rect.Width, rect.Height)
	}
	return out, nil
}

// upscaleIfSmall scales the image up uniformly so its short side
// reaches MinRecognitionSize. It never downscales.
func upscaleIfSmall(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	short := w
	if h < short {
		short = h
	}
	if short <= 0 || short >= MinRecognitionSize {
		return img
	}
	scale := float64(MinRecognitionSize) / float64(short)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// sharpenStage applies a local-contrast sharpening pass.
func sharpenStage(img image.Image, opts Options) image.Image {
	if tooSmallForKernel(img) {
		return img
	}
	sigma := sharpenSigmaProse
	if opts.DigitsOnly {
		sigma = sharpenSigmaDigits
	}
	return imaging.Sharpen(img, sigma)
}

// adjustContrastBrightness applies the per-channel affine transform
// out = in*scale + offset, with the offset chosen so mid-gray is
// approximately preserved. A neutral request (factor 1.0, prose
// profile) is a no-op so the stage is idempotent at unity.
func adjustContrastBrightness(img image.Image, opts Options) image.Image {
	scale := contrastScale(img, opts)
	offset := (1.0-scale)/2.0*255.0
	if opts.DigitsOnly {
		offset += digitsBrightnessOffset
	}
	if scale == 1.0 && offset == 0 {
		return img
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampByte(float64(c.R)*scale + offset),
			G: clampByte(float64(c.G)*scale + offset),
			B: clampByte(float64(c.B)*scale + offset),
			A: c.A,
		}
	})
}

// contrastScale resolves the effective contrast factor: an explicit
// request is clamped into the profile range, a zero request selects the
// automatic estimate.
func contrastScale(img image.Image, opts Options) float64 {
	maxScale := maxContrastProse
	if opts.DigitsOnly {
		maxScale = maxContrastDigits
	}
	scale := opts.Contrast
	if scale == 0 {
		scale = estimateContrastFactor(img)
	}
	return math.Min(math.Max(scale, 1.0), maxScale)
}

// toneCurve applies an endpoint-preserving S-curve that pushes midtones
// apart. Implemented as a blend between identity and the smoothstep
// curve 3x²-2x³, which maps 0 to 0 and 1 to 1 exactly, so endpoints
// never clip.
func toneCurve(img image.Image, strength float64) image.Image {
	if strength <= 0 {
		return img
	}
	var lut [256]uint8
	for i := range lut {
		x := float64(i) / 255.0
		s := x * x * (3.0 - 2.0*x)
		y := (1.0-strength)*x + strength*s
		lut[i] = clampByte(y * 255.0)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

// unsharpStage runs the final wide-radius edge enhancement pass.
func unsharpStage(img image.Image, opts Options) image.Image {
	if tooSmallForKernel(img) {
		return img
	}
	radius, amount := unsharpRadiusProse, unsharpAmountProse
	if opts.DigitsOnly {
		radius, amount = unsharpRadiusDigits, unsharpAmountDigits
	}
	return effect.UnsharpMask(img, radius, amount)
}

func tooSmallForKernel(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() < minConvolutionSize || b.Dy() < minConvolutionSize
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
