// Package scan orchestrates the recognition pipeline: image loading,
// orientation correction, region mapping, enhancement, engine
// invocation and result assembly.
package scan

import (
	"fmt"
	"log/slog"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/orientation"
	"github.com/fieldlens/clipocr/internal/region"
)

// Config holds scanner-level settings that apply to every scan.
type Config struct {
	// Language is the recognition language passed to the engine.
	Language string
	// Mode selects the engine speed/accuracy trade-off.
	Mode engine.Mode
	// TessdataPrefix overrides the engine model directory when set.
	TessdataPrefix string
	// DebugDir is where cropped debug artifacts are written. Empty
	// means the system temp directory.
	DebugDir string
}

// DefaultConfig returns the scanner defaults.
func DefaultConfig() Config {
	return Config{
		Language: engine.DefaultLanguage,
		Mode:     engine.ModeAccurate,
	}
}

// Options selects per-scan behavior.
type Options struct {
	// Region restricts recognition to a normalized sub-area of the
	// upright image. Nil scans the whole image.
	Region *region.Normalized
	// Orientation is the EXIF-style orientation tag of the source
	// buffer, as reported by the capture layer. Zero or unknown values
	// leave the buffer untouched.
	Orientation orientation.Tag
	// DigitsOnly switches the pipeline to numeric-literal tuning.
	DigitsOnly bool
	// Contrast is the enhancement contrast factor. Zero selects
	// automatic estimation.
	Contrast float64
	// Debug forces a debug artifact even for whole-image scans.
	Debug bool
}

// DefaultOptions returns whole-image, prose-mode options.
func DefaultOptions() Options {
	return Options{Orientation: orientation.Upright}
}

// Scanner runs scans against a single recognition engine. Safe for
// concurrent use when the engine is.
type Scanner struct {
	cfg    Config
	engine engine.Engine
	logger *slog.Logger
}

// Builder assembles a Scanner.
type Builder struct {
	cfg    Config
	engine engine.Engine
	logger *slog.Logger
}

// NewBuilder starts a builder with default configuration.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithLanguage sets the recognition language.
func (b *Builder) WithLanguage(lang string) *Builder {
	b.cfg.Language = lang
	return b
}

// WithMode sets the engine mode.
func (b *Builder) WithMode(mode engine.Mode) *Builder {
	b.cfg.Mode = mode
	return b
}

// WithDebugDir sets the debug artifact directory.
func (b *Builder) WithDebugDir(dir string) *Builder {
	b.cfg.DebugDir = dir
	return b
}

// WithEngine injects a recognition engine, replacing the default
// Tesseract backend. Used by servers and tests.
func (b *Builder) WithEngine(e engine.Engine) *Builder {
	b.engine = e
	return b
}

// WithLogger sets the logger for stage tracing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and constructs the Scanner.
func (b *Builder) Build() (*Scanner, error) {
	if !b.cfg.Mode.Valid() {
		return nil, fmt.Errorf("invalid engine mode %q", b.cfg.Mode)
	}
	if b.cfg.Language == "" {
		return nil, fmt.Errorf("language must not be empty")
	}

	eng := b.engine
	if eng == nil {
		tc := engine.DefaultTesseractConfig()
		tc.Language = b.cfg.Language
		if b.cfg.TessdataPrefix != "" {
			tc.TessdataPrefix = b.cfg.TessdataPrefix
		}
		t, err := engine.NewTesseract(tc)
		if err != nil {
			return nil, fmt.Errorf("create recognition engine: %w", err)
		}
		eng = t
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{cfg: b.cfg, engine: eng, logger: logger}, nil
}

// Config returns a copy of the scanner configuration.
func (s *Scanner) Config() Config { return s.cfg }

// Close releases the underlying engine.
func (s *Scanner) Close() error {
	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

func (s *Scanner) engineOptions(opts Options) engine.Options {
	return engine.Options{
		DigitsOnly: opts.DigitsOnly,
		Language:   s.cfg.Language,
		Mode:       s.cfg.Mode,
	}
}
