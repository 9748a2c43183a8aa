// Package region maps normalized regions of interest onto pixel
// coordinates of an upright image.
package region

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidRegion indicates a region that maps to zero pixel area.
var ErrInvalidRegion = errors.New("invalid region")

// Normalized is a rectangle expressed as fractions of the upright image
// dimensions, origin at the top-left. Values are expected in [0,1] but
// are validated by Map rather than by construction.
type Normalized struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pixel is an absolute pixel rectangle derived from a Normalized region
// and the upright image dimensions.
type Pixel struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the pixel region to an image.Rectangle.
func (p Pixel) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Map converts a normalized region to pixel coordinates, clamped to the
// image bounds. Rounding is half-away-from-zero (math.Round) so the
// same region always maps to the same pixels.
//
// The returned region satisfies 0 <= X < imageWidth, 0 <= Y < imageHeight,
// X+Width <= imageWidth and Y+Height <= imageHeight. Map fails with
// ErrInvalidRegion when clamping or rounding collapses the region to
// zero width or height.
func Map(r Normalized, imageWidth, imageHeight int) (Pixel, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Pixel{}, fmt.Errorf("%w: image dimensions %dx%d", ErrInvalidRegion, imageWidth, imageHeight)
	}

	startX := clampInt(int(math.Round(r.X*float64(imageWidth))), 0, imageWidth-1)
	startY := clampInt(int(math.Round(r.Y*float64(imageHeight))), 0, imageHeight-1)
	width := clampInt(int(math.Round(r.Width*float64(imageWidth))), 0, imageWidth-startX)
	height := clampInt(int(math.Round(r.Height*float64(imageHeight))), 0, imageHeight-startY)

	if width <= 0 || height <= 0 {
		return Pixel{}, fmt.Errorf("%w: {x:%g y:%g w:%g h:%g} maps to %dx%d pixels on %dx%d image",
			ErrInvalidRegion, r.X, r.Y, r.Width, r.Height, width, height, imageWidth, imageHeight)
	}

	return Pixel{X: startX, Y: startY, Width: width, Height: height}, nil
}

// Intersects reports whether two normalized rectangles overlap.
// Zero-area contact (touching edges) does not count as intersection.
func Intersects(a, b Normalized) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
