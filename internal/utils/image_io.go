// Package utils holds image file I/O helpers shared by the scan
// pipeline and its surfaces.
package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// ImageIOError represents a failure while loading or writing an image.
type ImageIOError struct {
	Operation string
	Err       error
}

func (e *ImageIOError) Error() string {
	return fmt.Sprintf("image i/o error in %s: %v", e.Operation, e.Err)
}

func (e *ImageIOError) Unwrap() error { return e.Err }

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// StripFileScheme removes a leading file:// URI scheme so callers may
// pass either a plain path or a file URI.
func StripFileScheme(path string) string {
	return strings.TrimPrefix(path, "file://")
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// LoadImage opens and decodes an image file, returning the image and
// metadata. A file:// prefix on the path is stripped.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	path = StripFileScheme(path)
	if path == "" {
		return nil, ImageMetadata{}, &ImageIOError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, ImageMetadata{}, &ImageIOError{
			Operation: "load",
			Err:       fmt.Errorf("unsupported format: %s", filepath.Ext(path)),
		}
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageIOError{Operation: "load", Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing image file: %v\n", err)
		}
	}()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, ImageMetadata{}, &ImageIOError{Operation: "load", Err: statErr}
	}

	img, format, decErr := image.Decode(f)
	if decErr != nil {
		return nil, ImageMetadata{}, &ImageIOError{Operation: "decode", Err: decErr}
	}

	b := img.Bounds()
	meta := ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	return img, meta, nil
}

// SaveImagePNG writes an image as PNG to the given path, closing the
// file on every exit path.
func SaveImagePNG(img image.Image, path string) error {
	if img == nil {
		return &ImageIOError{Operation: "save", Err: errors.New("input image is nil")}
	}
	f, err := os.Create(path) //nolint:gosec // G304: Writing caller-chosen artifact path is expected
	if err != nil {
		return &ImageIOError{Operation: "save", Err: err}
	}
	encErr := png.Encode(f, img)
	closeErr := f.Close()
	if encErr != nil {
		return &ImageIOError{Operation: "save", Err: encErr}
	}
	if closeErr != nil {
		return &ImageIOError{Operation: "save", Err: closeErr}
	}
	return nil
}
