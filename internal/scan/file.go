package scan

import (
	"context"
	"image"
	"time"

	"github.com/fieldlens/clipocr/internal/assemble"
	"github.com/fieldlens/clipocr/internal/enhance"
	"github.com/fieldlens/clipocr/internal/orientation"
	"github.com/fieldlens/clipocr/internal/region"
	"github.com/fieldlens/clipocr/internal/utils"
)

// ScanFile loads an image from disk and runs the full recognition
// pipeline over it. The path may carry a file:// scheme.
func (s *Scanner) ScanFile(ctx context.Context, path string, opts Options) (*Result, error) {
	start := time.Now()

	img, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, newError("load", KindInvalidInput, err)
	}
	s.logger.Debug("image loaded",
		"path", meta.Path,
		"format", meta.Format,
		"width", meta.Width,
		"height", meta.Height,
	)

	result, err := s.Scan(ctx, img, opts)
	if err != nil {
		return nil, err
	}
	result.Timing.Total = time.Since(start)
	return result, nil
}

// Scan runs the recognition pipeline over an already-decoded image:
// orientation correction, region mapping, crop and enhancement, engine
// invocation and result assembly.
func (s *Scanner) Scan(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	start := time.Now()

	if img == nil {
		return nil, newError("prepare", KindInvalidInput, errNilImage)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError("prepare", KindInvalidInput, err)
	}

	upright := orientation.Normalize(img, opts.Orientation)
	w, h := upright.Bounds().Dx(), upright.Bounds().Dy()

	// Region mapping happens after orientation correction so normalized
	// coordinates refer to the image as the user saw it.
	var pixelRegion *region.Pixel
	if opts.Region != nil {
		mapped, err := region.Map(*opts.Region, w, h)
		if err != nil {
			return nil, newError("region", KindInvalidInput, err)
		}
		pixelRegion = &mapped
		s.logger.Debug("region mapped",
			"x", mapped.X, "y", mapped.Y,
			"width", mapped.Width, "height", mapped.Height,
		)
	}

	prepared, err := enhance.Enhance(upright, pixelRegion, enhance.Options{
		DigitsOnly: opts.DigitsOnly,
		Contrast:   opts.Contrast,
	})
	if err != nil {
		return nil, newError("enhance", KindInvalidInput, err)
	}
	prepareDone := time.Now()
	s.logger.Debug("image prepared",
		"width", prepared.Bounds().Dx(),
		"height", prepared.Bounds().Dy(),
		"digits", opts.DigitsOnly,
		"duration", prepareDone.Sub(start),
	)

	lines, err := s.engine.Recognize(ctx, prepared, nil, s.engineOptions(opts))
	if err != nil {
		return nil, recognitionError(err)
	}
	recognizeDone := time.Now()
	s.logger.Debug("recognition finished",
		"lines", len(lines),
		"duration", recognizeDone.Sub(prepareDone),
	)

	// The buffer handed to the engine is already restricted to the
	// region, so assembly needs no further filtering.
	text := assemble.Text(lines, assemble.Options{DigitsOnly: opts.DigitsOnly})

	result := &Result{
		Text:       text,
		RegionUsed: opts.Region != nil,
		Timing: Timing{
			Prepare:   prepareDone.Sub(start),
			Recognize: recognizeDone.Sub(prepareDone),
			Total:     time.Since(start),
		},
	}

	// Artifact failures never abort a scan that produced text; the path
	// just stays empty.
	if opts.Region != nil || opts.Debug {
		artifact, err := assemble.WriteDebugImage(prepared, s.cfg.DebugDir)
		if err != nil {
			ee := newError("artifact", KindEncoding, err)
			s.logger.Warn("debug artifact write failed", "kind", ee.Kind, "error", ee)
		} else {
			result.CroppedImagePath = "file://" + artifact
		}
	}

	return result, nil
}
