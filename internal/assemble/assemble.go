// Package assemble turns raw recognized lines into the final scan
// text: region filtering, reading-order sorting, joining and the
// digits-only character filter.
package assemble

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/region"
	"github.com/fieldlens/clipocr/internal/utils"
)

// Options controls assembly behavior.
type Options struct {
	// Region, when non-nil, keeps only lines whose bounding box
	// intersects it. Engines that already restricted their search to
	// the region pass nil here.
	Region *region.Normalized
	// DigitsOnly filters the joined text to digits, newlines and the
	// separators '.', ',' and '-'.
	DigitsOnly bool
}

// Text assembles recognized lines into the final text. Lines are
// ordered top-to-bottom and joined with single line breaks. Zero lines
// assemble to an empty string; assembly never fails.
func Text(lines []engine.Line, opts Options) string {
	kept := lines
	if opts.Region != nil {
		kept = make([]engine.Line, 0, len(lines))
		for _, l := range lines {
			if region.Intersects(l.Box, *opts.Region) {
				kept = append(kept, l)
			}
		}
	}

	sorted := make([]engine.Line, len(kept))
	copy(sorted, kept)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Y < sorted[j].Box.Y
	})

	parts := make([]string, 0, len(sorted))
	for _, l := range sorted {
		text := norm.NFC.String(strings.TrimSpace(l.Text))
		if opts.DigitsOnly {
			text = filterDigits(text)
			if text == "" {
				// Lines with no numeric content disappear entirely
				// rather than leaving blank lines behind.
				continue
			}
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// filterDigits keeps the numeric character class, preserving relative
// order: digits, newlines, '.', ',' and '-'.
func filterDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '\n' || r == '.' || r == ',' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WriteDebugImage persists the prepared image to a process-temporary
// location for visual inspection and returns its path. The artifact's
// later deletion is the caller's concern.
func WriteDebugImage(img image.Image, dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "clipocr-"+uuid.NewString()+".png")
	if err := utils.SaveImagePNG(img, path); err != nil {
		return "", err
	}
	return path, nil
}
