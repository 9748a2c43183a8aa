// Package testutil generates synthetic images for tests. Inputs are
// rendered on the fly into temp dirs; the repository carries no image
// corpus.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextImageConfig holds configuration for generating synthetic text
// images.
type TextImageConfig struct {
	Lines      []string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
}

// DefaultTextImageConfig returns a white 640x480 canvas with black
// text.
func DefaultTextImageConfig() TextImageConfig {
	return TextImageConfig{
		Lines:      []string{"Sample Text"},
		Width:      640,
		Height:     480,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateTextImage renders the configured lines centered on a solid
// background, top to bottom in slice order.
func GenerateTextImage(cfg TextImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: cfg.FontFace,
	}

	lineHeight := cfg.FontFace.Metrics().Height.Ceil() * 2
	startY := (cfg.Height - len(cfg.Lines)*lineHeight) / 2
	for i, line := range cfg.Lines {
		textWidth := font.MeasureString(cfg.FontFace, line).Ceil()
		x := (cfg.Width - textWidth) / 2
		y := startY + (i+1)*lineHeight
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return img
}

// DigitsImage renders a receipt-style column of numeric strings.
func DigitsImage(values ...string) *image.RGBA {
	cfg := DefaultTextImageConfig()
	cfg.Lines = values
	return GenerateTextImage(cfg)
}

// SolidImage creates a uniformly colored image.
func SolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// GrayImage creates a mid-gray image, the usual neutral input for
// enhancement tests.
func GrayImage(width, height int) *image.RGBA {
	return SolidImage(width, height, color.RGBA{R: 128, G: 128, B: 128, A: 255})
}

// SavePNG writes an image to path, creating parent directories.
func SavePNG(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	file, err := os.Create(path) //nolint:gosec // test-controlled path
	require.NoError(t, err, "create %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "encode %s", path)
}

// TempPNG renders an image into the test's temp dir and returns its
// path.
func TempPNG(t *testing.T, img image.Image, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	SavePNG(t, img, path)
	return path
}

// SimilarImages reports whether two images have the same bounds and an
// average per-pixel color distance within tolerance (0..1).
func SimilarImages(a, b image.Image, tolerance float64) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}

	bounds := a.Bounds()
	var totalDiff, pixels float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixels++
		}
	}

	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return totalDiff/pixels/maxDiff <= tolerance
}
