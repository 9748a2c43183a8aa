// Package server exposes the scan pipeline over HTTP: a multipart scan
// endpoint, a WebSocket frame stream, health and Prometheus metrics.
package server

import (
	"context"
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldlens/clipocr/internal/scan"
)

// scannerInterface defines the methods the server needs from a scanner.
type scannerInterface interface {
	Scan(ctx context.Context, img image.Image, opts scan.Options) (*scan.Result, error)
	ScanFrame(ctx context.Context, f scan.Frame, opts scan.Options) (*scan.Result, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	scanner     scannerInterface
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	ScanConfig  scan.Config
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type ScanResult struct {
	Text             string `json:"text"`
	CroppedImagePath string `json:"croppedImagePath,omitempty"`
	Processing       struct {
		PrepareNs   int64 `json:"prepare_ns"`
		RecognizeNs int64 `json:"recognize_ns"`
		TotalNs     int64 `json:"total_ns"`
	} `json:"processing"`
}

type ScanResponse struct {
	Success bool        `json:"success"`
	Result  *ScanResult `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer creates a server with a scanner built from the config.
func NewServer(config Config) (*Server, error) {
	scanner, err := scan.NewBuilder().WithConfig(config.ScanConfig).Build()
	if err != nil {
		return nil, err
	}
	return NewServerWithScanner(config, scanner), nil
}

// NewServerWithScanner creates a server around an existing scanner.
// Used by tests to inject a fake engine.
func NewServerWithScanner(config Config, scanner scannerInterface) *Server {
	return &Server{
		scanner:     scanner,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.scanner != nil {
		return s.scanner.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/scan", s.corsMiddleware(s.scanHandler))
	mux.HandleFunc("/scan/ws", s.frameWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

func toScanResult(r *scan.Result) *ScanResult {
	out := &ScanResult{
		Text:             r.Text,
		CroppedImagePath: r.CroppedImagePath,
	}
	out.Processing.PrepareNs = r.Timing.Prepare.Nanoseconds()
	out.Processing.RecognizeNs = r.Timing.Recognize.Nanoseconds()
	out.Processing.TotalNs = r.Timing.Total.Nanoseconds()
	return out
}
