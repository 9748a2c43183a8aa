package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/fieldlens/clipocr/internal/assemble"
)

// ErrInvalidFrame indicates a frame that failed validation before any
// engine work started.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is a single live capture buffer. Implementations wrap whatever
// the capture layer hands over; the pipeline only needs validity,
// dimensions and a decoded image.
type Frame interface {
	// Valid reports whether the underlying buffer is usable. Capture
	// layers recycle buffers, so a frame can go invalid between
	// delivery and scan.
	Valid() bool
	Width() int
	Height() int
	// Image decodes the buffer. Only called after Valid.
	Image() (image.Image, error)
}

// FrameState tracks where a frame scan is in its lifecycle.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameValidating
	FrameAdapting
	FrameRecognizing
	FrameDone
	FrameFailed
)

var frameStateNames = map[FrameState]string{
	FrameIdle:        "idle",
	FrameValidating:  "validating",
	FrameAdapting:    "adapting",
	FrameRecognizing: "recognizing",
	FrameDone:        "done",
	FrameFailed:      "failed",
}

func (s FrameState) String() string {
	if name, ok := frameStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ScanFrame runs recognition over a live frame. The frame path skips
// the file pipeline's crop and enhancement: frames arrive at capture
// resolution and latency matters more than per-frame quality. A region
// on the frame path fails with a not-implemented error before the
// frame is touched; mapping it needs a stable orientation for live
// buffers, which the capture layer does not report yet.
func (s *Scanner) ScanFrame(ctx context.Context, f Frame, opts Options) (*Result, error) {
	start := time.Now()
	state := FrameValidating
	fail := func(kind Kind, err error) (*Result, error) {
		s.logger.Debug("frame scan failed", "state", state.String(), "error", err)
		return nil, newError(state.String(), kind, err)
	}

	if opts.Region != nil {
		return fail(KindNotImplemented, errors.New("region scanning is not supported for frames"))
	}
	if f == nil || !f.Valid() {
		return fail(KindInvalidInput, ErrInvalidFrame)
	}
	if f.Width() <= 0 || f.Height() <= 0 {
		return fail(KindInvalidInput, fmt.Errorf("%w: %dx%d", ErrInvalidFrame, f.Width(), f.Height()))
	}
	if err := ctx.Err(); err != nil {
		return fail(KindInvalidInput, err)
	}

	state = FrameAdapting
	img, err := f.Image()
	if err != nil {
		return fail(KindInvalidInput, err)
	}
	if img == nil {
		return fail(KindInvalidInput, ErrInvalidFrame)
	}

	state = FrameRecognizing
	lines, err := s.engine.Recognize(ctx, img, nil, s.engineOptions(opts))
	if err != nil {
		se := recognitionError(err)
		se.Stage = state.String()
		return nil, se
	}

	state = FrameDone
	text := assemble.Text(lines, assemble.Options{DigitsOnly: opts.DigitsOnly})
	total := time.Since(start)
	s.logger.Debug("frame scan finished",
		"state", state.String(),
		"lines", len(lines),
		"duration", total,
	)
	return &Result{
		Text:   text,
		Timing: Timing{Recognize: total, Total: total},
	}, nil
}

// BufferFrame adapts a raw RGBA pixel buffer into a Frame. Used by the
// streaming server, which receives frames as width/height plus packed
// RGBA bytes.
type BufferFrame struct {
	width  int
	height int
	pix    []byte
}

// NewBufferFrame wraps a packed RGBA buffer. The buffer is retained,
// not copied.
func NewBufferFrame(width, height int, pix []byte) *BufferFrame {
	return &BufferFrame{width: width, height: height, pix: pix}
}

func (f *BufferFrame) Valid() bool {
	return f.width > 0 && f.height > 0 && len(f.pix) >= f.width*f.height*4
}

func (f *BufferFrame) Width() int  { return f.width }
func (f *BufferFrame) Height() int { return f.height }

func (f *BufferFrame) Image() (image.Image, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %dx%d buffer of %d bytes", ErrInvalidFrame, f.width, f.height, len(f.pix))
	}
	img := &image.RGBA{
		Pix:    f.pix[:f.width*f.height*4],
		Stride: f.width * 4,
		Rect:   image.Rect(0, 0, f.width, f.height),
	}
	return img, nil
}
