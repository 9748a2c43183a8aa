package scan

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/region"
	"github.com/fieldlens/clipocr/internal/utils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestScanner(t *testing.T, fake *engine.Fake) *Scanner {
	t.Helper()
	s, err := NewBuilder().
		WithEngine(fake).
		WithDebugDir(t.TempDir()).
		WithLogger(quietLogger()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func grayImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func TestBuilder_Validation(t *testing.T) {
	_, err := NewBuilder().WithMode("turbo").WithEngine(&engine.Fake{}).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")

	_, err = NewBuilder().WithLanguage("").WithEngine(&engine.Fake{}).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestScan_RegionPipeline(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "second", Box: region.Normalized{X: 0.1, Y: 0.6, Width: 0.5, Height: 0.2}},
		{Text: "first", Box: region.Normalized{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.2}},
	}}
	s := newTestScanner(t, fake)

	result, err := s.Scan(context.Background(), grayImage(1000, 2000), Options{
		Region: &region.Normalized{X: 0.1, Y: 0.3, Width: 0.8, Height: 0.2},
	})
	require.NoError(t, err)

	// The 800x400 crop is below the minimum recognition size, so the
	// engine must see the upscaled buffer.
	w, h := fake.LastImageSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 640, h)

	assert.Equal(t, "first\nsecond", result.Text)
	assert.True(t, result.RegionUsed)
	require.True(t, strings.HasPrefix(result.CroppedImagePath, "file://"), "got %q", result.CroppedImagePath)

	// The artifact must be a readable image of the prepared buffer.
	artifact, _, err := utils.LoadImage(result.CroppedImagePath)
	require.NoError(t, err)
	assert.Equal(t, 1280, artifact.Bounds().Dx())
	assert.Equal(t, 640, artifact.Bounds().Dy())
}

func TestScan_ArtifactWriteFailureKeepsText(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "42.50", Box: region.Normalized{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.2}},
	}}
	var logs bytes.Buffer
	s, err := NewBuilder().
		WithEngine(fake).
		WithDebugDir(filepath.Join(t.TempDir(), "missing", "nested")).
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	result, err := s.Scan(context.Background(), grayImage(1000, 1000), Options{
		Region: &region.Normalized{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5},
	})
	require.NoError(t, err)

	// The artifact directory does not exist, so the write fails; the
	// scan still succeeds and only the path stays empty.
	assert.Equal(t, "42.50", result.Text)
	assert.Empty(t, result.CroppedImagePath)
	assert.Contains(t, logs.String(), string(KindEncoding))

	out, err := result.Output()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"42.50","croppedImagePath":""}`, out)
}

func TestScan_WholeImage(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "hello", Box: region.Normalized{X: 0, Y: 0, Width: 1, Height: 0.5}},
	}}
	s := newTestScanner(t, fake)

	result, err := s.Scan(context.Background(), grayImage(800, 600), Options{})
	require.NoError(t, err)

	assert.Equal(t, "hello", result.Text)
	assert.False(t, result.RegionUsed)
	assert.Empty(t, result.CroppedImagePath)

	out, err := result.Output()
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestScan_InvalidRegion(t *testing.T) {
	s := newTestScanner(t, &engine.Fake{})

	_, err := s.Scan(context.Background(), grayImage(100, 100), Options{
		Region: &region.Normalized{X: 1.0, Y: 0, Width: 0.5, Height: 0.5},
	})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "region", se.Stage)
}

func TestScan_NilImage(t *testing.T) {
	s := newTestScanner(t, &engine.Fake{})

	_, err := s.Scan(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestScan_EngineFailure(t *testing.T) {
	fake := &engine.Fake{Err: engine.ErrRecognition}
	s := newTestScanner(t, fake)

	_, err := s.Scan(context.Background(), grayImage(100, 100), Options{})
	require.Error(t, err)
	assert.True(t, IsRecognitionFailure(err))
	assert.ErrorIs(t, err, engine.ErrRecognition)
}

func TestScan_EngineNotImplemented(t *testing.T) {
	fake := &engine.Fake{Err: engine.ErrNotImplemented}
	s := newTestScanner(t, fake)

	_, err := s.Scan(context.Background(), grayImage(100, 100), Options{})
	require.Error(t, err)
	assert.True(t, IsNotImplemented(err))
	assert.False(t, IsRecognitionFailure(err))
}

func TestScan_DigitsOptionsReachEngine(t *testing.T) {
	fake := &engine.Fake{}
	s := newTestScanner(t, fake)

	_, err := s.Scan(context.Background(), grayImage(100, 100), Options{DigitsOnly: true})
	require.NoError(t, err)

	opts := fake.LastOptions()
	assert.True(t, opts.DigitsOnly)
	assert.Equal(t, engine.ModeAccurate, opts.Mode)
	assert.Equal(t, engine.DefaultLanguage, opts.Language)
}

func TestScanFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.png")
	require.NoError(t, utils.SaveImagePNG(grayImage(640, 480), path))

	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "42", Box: region.Normalized{X: 0.2, Y: 0.2, Width: 0.3, Height: 0.1}},
	}}
	s := newTestScanner(t, fake)

	result, err := s.ScanFile(context.Background(), "file://"+path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "42", result.Text)
	assert.Positive(t, result.Timing.Total)
}

func TestScanFile_MissingFile(t *testing.T) {
	s := newTestScanner(t, &engine.Fake{})

	_, err := s.ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"), Options{})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))

	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Stage)
}

func TestScan_ContextCancelled(t *testing.T) {
	s := newTestScanner(t, &engine.Fake{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Scan(ctx, grayImage(100, 100), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_OutputWithArtifact(t *testing.T) {
	r := &Result{Text: "42.50", CroppedImagePath: "file:///tmp/a.png", RegionUsed: true}
	out, err := r.Output()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"42.50","croppedImagePath":"file:///tmp/a.png"}`, out)
}

func TestResult_Encode(t *testing.T) {
	r := &Result{Text: "hello"}

	out, err := r.Encode(FormatText)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = r.Encode(FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "hello"`)

	out, err = r.Encode(FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "text: hello")

	_, err = r.Encode(Format("xml"))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}
	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestScanError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError("enhance", KindInvalidInput, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "enhance")
}
