package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/region"
	"github.com/fieldlens/clipocr/internal/scan"
	"github.com/fieldlens/clipocr/internal/testutil"
)

func newTestServer(t *testing.T, fake *engine.Fake) *Server {
	t.Helper()
	scanner, err := scan.NewBuilder().
		WithEngine(fake).
		WithDebugDir(t.TempDir()).
		Build()
	require.NoError(t, err)

	srv := NewServerWithScanner(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  5,
	}, scanner)
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })
	return srv
}

// multipartImage builds a multipart body with an uploaded PNG plus
// extra form fields.
func multipartImage(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "input.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, testutil.GrayImage(640, 480)))

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.healthHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	rec := httptest.NewRecorder()
	srv.healthHandler(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestScanHandler_JSON(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "hello", Box: region.Normalized{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.2}},
	}}
	srv := newTestServer(t, fake)

	body, contentType := multipartImage(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "hello", resp.Result.Text)
	assert.Empty(t, resp.Result.CroppedImagePath)
}

func TestScanHandler_WithRegion(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "42.50", Box: region.Normalized{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.2}},
	}}
	srv := newTestServer(t, fake)

	body, contentType := multipartImage(t, map[string]string{
		"region": "0.1,0.3,0.8,0.2",
		"digits": "true",
	})
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	assert.Equal(t, "42.50", resp.Result.Text)
	assert.NotEmpty(t, resp.Result.CroppedImagePath)
	assert.True(t, fake.LastOptions().DigitsOnly)
}

func TestScanHandler_TextFormat(t *testing.T) {
	fake := &engine.Fake{Lines: []engine.Line{
		{Text: "plain", Box: region.Normalized{X: 0, Y: 0, Width: 1, Height: 0.5}},
	}}
	srv := newTestServer(t, fake)

	body, contentType := multipartImage(t, map[string]string{"format": "text"})
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plain", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestScanHandler_NoFile(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanHandler_InvalidRegion(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	tests := map[string]string{
		"malformed":  "0.1,0.2",
		"not number": "a,b,c,d",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			body, contentType := multipartImage(t, map[string]string{"region": value})
			req := httptest.NewRequest(http.MethodPost, "/scan", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.scanHandler(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScanHandler_DegenerateRegion(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	// Parses fine but maps to an empty pixel area.
	body, contentType := multipartImage(t, map[string]string{"region": "1.0,0.0,0.5,0.5"})
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Scan failed")
}

func TestScanHandler_EngineFailure(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{Err: engine.ErrRecognition})

	body, contentType := multipartImage(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.scanHandler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestScanHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &engine.Fake{})

	rec := httptest.NewRecorder()
	srv.scanHandler(rec, httptest.NewRequest(http.MethodGet, "/scan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParseRegion(t *testing.T) {
	reg, err := ParseRegion("0.1, 0.3, 0.8, 0.2")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, reg.X, 1e-9)
	assert.InDelta(t, 0.3, reg.Y, 1e-9)
	assert.InDelta(t, 0.8, reg.Width, 1e-9)
	assert.InDelta(t, 0.2, reg.Height, 1e-9)

	_, err = ParseRegion("0.1,0.3,0.8")
	require.Error(t, err)
	_, err = ParseRegion("x,0.3,0.8,0.2")
	require.Error(t, err)
}
