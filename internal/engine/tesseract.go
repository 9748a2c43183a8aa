//go:build cgo

package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/fieldlens/clipocr/internal/region"
)

// Digits mode whitelist: the character class the assembler keeps, plus
// space so Tesseract can still segment columns.
const digitsWhitelist = "0123456789.,- "

// TesseractConfig configures the Tesseract adapter.
type TesseractConfig struct {
	// Language is the Tesseract language code ("eng", "deu", ...).
	Language string
	// TessdataPrefix overrides the trained-data directory. Empty uses
	// the system default.
	TessdataPrefix string
}

// DefaultTesseractConfig returns the default adapter configuration.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{Language: "eng"}
}

// Tesseract adapts the Tesseract OCR engine (via gosseract) to the
// Engine interface. Tesseract clients are not safe for concurrent use,
// so one client is created per invocation; the adapter itself is
// stateless and safe to share between scans.
type Tesseract struct {
	cfg TesseractConfig
}

// NewTesseract creates a Tesseract-backed engine.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg}, nil
}

// Recognize runs Tesseract over the prepared image and returns line-
// level results. The region hint is ignored: Tesseract has no internal
// search restriction, and the pipeline has already cropped the buffer.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, _ *region.Normalized, opts Options) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: input image is nil", ErrRecognition)
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := t.configureClient(client, opts); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode image: %v", ErrRecognition, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", ErrRecognition, err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	b := img.Bounds()
	lines := make([]Line, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		lines = append(lines, Line{
			Text:       box.Word,
			Box:        NormalizePixelBox(box.Box.Sub(b.Min), b.Dx(), b.Dy()),
			Confidence: box.Confidence / 100.0,
		})
	}
	return lines, nil
}

// configureClient applies language, mode and digits settings.
func (t *Tesseract) configureClient(client *gosseract.Client, opts Options) error {
	lang := opts.Language
	if lang == "" {
		lang = t.cfg.Language
	}
	if err := client.SetLanguage(lang); err != nil {
		return fmt.Errorf("%w: set language %q: %v", ErrRecognition, lang, err)
	}
	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return fmt.Errorf("%w: set tessdata prefix: %v", ErrRecognition, err)
		}
	}

	psm := gosseract.PSM_AUTO
	if opts.Mode == ModeFast || opts.DigitsOnly {
		// A single uniform block is both faster and the right prior
		// for a cropped document region.
		psm = gosseract.PSM_SINGLE_BLOCK
	}
	if err := client.SetPageSegMode(psm); err != nil {
		return fmt.Errorf("%w: set page segmentation mode: %v", ErrRecognition, err)
	}

	if opts.DigitsOnly {
		if err := client.SetWhitelist(digitsWhitelist); err != nil {
			return fmt.Errorf("%w: set whitelist: %v", ErrRecognition, err)
		}
		// Literal recognition: dictionary correction turns 0 into O
		// and 1 into l, which is exactly what digits mode must avoid.
		for _, v := range []string{"load_system_dawg", "load_freq_dawg"} {
			if err := client.SetVariable(gosseract.SettableVariable(v), "F"); err != nil {
				return fmt.Errorf("%w: set %s: %v", ErrRecognition, v, err)
			}
		}
	}
	return nil
}

// Close releases adapter resources. Clients are per-call, so there is
// nothing to release.
func (t *Tesseract) Close() error { return nil }
