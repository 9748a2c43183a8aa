package enhance

import (
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	// Target perceptual lightness spread between the 10th and 90th
	// percentile. Document photos with less spread than this are low
	// contrast and get boosted.
	targetLightnessSpread = 0.6

	// Upper bound on samples taken for the estimate.
	maxLightnessSamples = 10000
)

// estimateContrastFactor derives a contrast boost from the perceptual
// lightness spread of the image. A well-exposed document returns 1.0;
// a washed-out one returns the ratio needed to reach the target spread.
// Sampling uses a fixed stride, so the estimate is deterministic.
func estimateContrastFactor(img image.Image) float64 {
	spread := lightnessSpread(img)
	if spread <= 0 {
		// Blank or single-color input: boosting cannot help.
		return 1.0
	}
	factor := targetLightnessSpread / spread
	if factor < 1.0 {
		return 1.0
	}
	return factor
}

// lightnessSpread returns the 10th-to-90th percentile spread of CIE Lab
// lightness, in [0,1]. Returns 0 when there is nothing to measure.
func lightnessSpread(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0
	}

	stride := int(math.Sqrt(float64(w*h)/float64(maxLightnessSamples))) + 1
	samples := make([]float64, 0, maxLightnessSamples)
	for y := b.Min.Y; y < b.Max.Y; y += stride {
		for x := b.Min.X; x < b.Max.X; x += stride {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			l, _, _ := c.Lab()
			samples = append(samples, l)
		}
	}
	if len(samples) < 2 {
		return 0
	}
	sort.Float64s(samples)
	lo := samples[len(samples)/10]
	hi := samples[len(samples)-1-len(samples)/10]
	return hi - lo
}
