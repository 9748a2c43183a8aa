//go:build !cgo

package engine

import (
	"context"
	"fmt"
	"image"

	"github.com/fieldlens/clipocr/internal/region"
)

// TesseractConfig configures the Tesseract adapter.
type TesseractConfig struct {
	Language       string
	TessdataPrefix string
}

// DefaultTesseractConfig returns the default adapter configuration.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{Language: "eng"}
}

// Tesseract is unavailable without cgo. Scans that reach recognition
// report a well-defined not-implemented failure instead of crashing.
type Tesseract struct{}

// NewTesseract returns the non-cgo stub.
func NewTesseract(_ TesseractConfig) (*Tesseract, error) {
	return &Tesseract{}, nil
}

// Recognize always fails: this build has no engine backend.
func (t *Tesseract) Recognize(_ context.Context, _ image.Image, _ *region.Normalized, _ Options) ([]Line, error) {
	return nil, fmt.Errorf("%w: built without cgo", ErrNotImplemented)
}

// Close releases nothing.
func (t *Tesseract) Close() error { return nil }
