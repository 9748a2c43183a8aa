// Package orientation physically rotates or transposes pixel data so
// that stored orientation metadata matches the buffer layout. Regions
// of interest are defined against the upright image, so normalization
// happens before any pixel-coordinate mapping.
package orientation

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Tag is an EXIF-style orientation value (1-8). The zero value and any
// value outside 1-8 are treated as upright.
type Tag int

const (
	// Upright means pixel data already matches the display orientation.
	Upright Tag = 1
	// FlipH is mirrored along the vertical axis.
	FlipH Tag = 2
	// Rotate180 is upside down.
	Rotate180 Tag = 3
	// FlipV is mirrored along the horizontal axis.
	FlipV Tag = 4
	// Transpose is mirrored along the top-left to bottom-right diagonal.
	Transpose Tag = 5
	// Rotate90CW needs a 90° clockwise rotation to become upright.
	Rotate90CW Tag = 6
	// Transverse is mirrored along the bottom-left to top-right diagonal.
	Transverse Tag = 7
	// Rotate90CCW needs a 90° counter-clockwise rotation to become upright.
	Rotate90CCW Tag = 8
)

// String returns the canonical name of the tag.
func (t Tag) String() string {
	switch t {
	case Upright:
		return "upright"
	case FlipH:
		return "flip-h"
	case Rotate180:
		return "rotate-180"
	case FlipV:
		return "flip-v"
	case Transpose:
		return "transpose"
	case Rotate90CW:
		return "rotate-90-cw"
	case Rotate90CCW:
		return "rotate-90-ccw"
	case Transverse:
		return "transverse"
	default:
		return "unknown"
	}
}

// Known reports whether the tag is a defined orientation value.
func (t Tag) Known() bool { return t >= Upright && t <= Rotate90CCW }

// Normalize returns an image whose pixel data is upright with respect
// to the given tag. Unknown or undefined tags are treated as upright
// rather than failing: malformed metadata must not abort a scan.
// The input is never modified; a rotated copy is returned when work is
// needed.
func Normalize(img image.Image, tag Tag) image.Image {
	if img == nil {
		return nil
	}
	switch tag {
	case FlipH:
		return imaging.FlipH(img)
	case Rotate180:
		return imaging.Rotate180(img)
	case FlipV:
		return imaging.FlipV(img)
	case Transpose:
		return imaging.Transpose(img)
	case Rotate90CW:
		// imaging rotations are counter-clockwise.
		return imaging.Rotate270(img)
	case Transverse:
		return imaging.Transverse(img)
	case Rotate90CCW:
		return imaging.Rotate90(img)
	case Upright:
		return img
	default:
		slog.Warn("Unknown orientation tag, treating as upright", "tag", int(tag))
		return img
	}
}

// UprightSize returns the dimensions the image will have after
// normalization, without touching pixel data.
func UprightSize(width, height int, tag Tag) (int, int) {
	switch tag {
	case Transpose, Rotate90CW, Transverse, Rotate90CCW:
		return height, width
	default:
		return width, height
	}
}
