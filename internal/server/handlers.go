package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/fieldlens/clipocr/internal/orientation"
	"github.com/fieldlens/clipocr/internal/region"
	"github.com/fieldlens/clipocr/internal/scan"
	"github.com/fieldlens/clipocr/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// scanHandler processes image scan requests. The image arrives as a
// multipart upload; region and enhancement options come as form
// fields.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(imageData)))

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}

	opts, err := parseScanOptions(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	start := time.Now()
	result, err := s.scanner.Scan(ctx, img, opts)
	duration := time.Since(start)

	if err != nil {
		scanRequestsTotal.WithLabelValues("image", "error").Inc()
		status := http.StatusInternalServerError
		if scan.IsInvalidInput(err) {
			status = http.StatusBadRequest
		} else if scan.IsNotImplemented(err) {
			status = http.StatusNotImplemented
		}
		s.writeErrorResponse(w, fmt.Sprintf("Scan failed: %v", err), status)
		return
	}

	scanRequestsTotal.WithLabelValues("image", "success").Inc()
	scanProcessingDuration.WithLabelValues("image").Observe(duration.Seconds())
	scanTextLength.WithLabelValues("image").Observe(float64(len(result.Text)))

	// Plain text output on request; JSON is the default.
	if format := r.FormValue("format"); format == string(scan.FormatText) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(result.Text))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ScanResponse{Success: true, Result: toScanResult(result)})
}

// parseScanOptions reads region and enhancement fields from the form.
func parseScanOptions(r *http.Request) (scan.Options, error) {
	opts := scan.DefaultOptions()

	if v := r.FormValue("region"); v != "" {
		reg, err := ParseRegion(v)
		if err != nil {
			return opts, err
		}
		opts.Region = reg
	}
	if v := r.FormValue("digits"); v != "" {
		digits, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid digits value %q", v)
		}
		opts.DigitsOnly = digits
	}
	if v := r.FormValue("contrast"); v != "" {
		contrast, err := strconv.ParseFloat(v, 64)
		if err != nil || contrast < 0 {
			return opts, fmt.Errorf("invalid contrast value %q", v)
		}
		opts.Contrast = contrast
	}
	if v := r.FormValue("orientation"); v != "" {
		tag, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid orientation value %q", v)
		}
		opts.Orientation = orientation.Tag(tag)
	}

	return opts, nil
}

// ParseRegion parses a "x,y,w,h" normalized region string.
func ParseRegion(s string) (*region.Normalized, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q (want x,y,w,h)", s)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid region component %q", part)
		}
		vals[i] = v
	}
	return &region.Normalized{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ScanResponse{Success: false, Error: message})
}
