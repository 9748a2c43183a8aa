package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fieldlens/clipocr/internal/scan"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development.
		// In production, check against allowed origins.
		return true
	},
}

// FrameHeader announces a frame about to arrive on the stream. The
// pixel data follows as a single binary message of packed RGBA bytes,
// row-major, width*height*4 in length.
type FrameHeader struct {
	Type     string  `json:"type"` // "frame"
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Digits   bool    `json:"digits,omitempty"`
	Contrast float64 `json:"contrast,omitempty"`
}

// FrameResponse is the per-frame result sent back to the client.
type FrameResponse struct {
	Type      string `json:"type"`
	Status    string `json:"status"` // "completed", "error"
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// frameConnWriter is the subset of websocket.Conn the senders need.
type frameConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// frameWebSocketHandler handles WebSocket connections for live-frame
// recognition.
func (s *Server) frameWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleFrameConnection(r.Context(), conn)
}

// handleFrameConnection processes the frame stream until the client
// disconnects.
func (s *Server) handleFrameConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Ping to keep the connection alive between frames.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	var pending *FrameHeader
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		switch messageType {
		case websocket.TextMessage:
			header, err := parseFrameHeader(data)
			if err != nil {
				s.sendFrameError(conn, "invalid_request", err.Error())
				continue
			}
			pending = header
		case websocket.BinaryMessage:
			if pending == nil {
				s.sendFrameError(conn, "invalid_request", "binary frame without a preceding header")
				continue
			}
			s.processFrame(ctx, conn, *pending, data)
			pending = nil
		}
	}
}

// parseFrameHeader validates a frame announcement.
func parseFrameHeader(data []byte) (*FrameHeader, error) {
	var header FrameHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse frame header: %w", err)
	}
	if header.Type != "frame" {
		return nil, fmt.Errorf("unsupported message type %q", header.Type)
	}
	if header.Width <= 0 || header.Height <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", header.Width, header.Height)
	}
	return &header, nil
}

// processFrame runs recognition over one frame and reports the result.
func (s *Server) processFrame(ctx context.Context, conn *websocket.Conn, header FrameHeader, pix []byte) {
	requestID := uuid.NewString()

	frame := scan.NewBufferFrame(header.Width, header.Height, pix)
	opts := scan.DefaultOptions()
	opts.DigitsOnly = header.Digits
	opts.Contrast = header.Contrast

	start := time.Now()
	result, err := s.scanner.ScanFrame(ctx, frame, opts)
	duration := time.Since(start)

	if err != nil {
		scanRequestsTotal.WithLabelValues("frame", "error").Inc()
		errorType := "processing_error"
		if scan.IsInvalidInput(err) {
			errorType = "invalid_request"
		} else if scan.IsNotImplemented(err) {
			errorType = "not_implemented"
		}
		s.sendFrameError(conn, errorType, fmt.Sprintf("frame scan failed: %v", err))
		return
	}

	scanRequestsTotal.WithLabelValues("frame", "success").Inc()
	scanProcessingDuration.WithLabelValues("frame").Observe(duration.Seconds())
	scanTextLength.WithLabelValues("frame").Observe(float64(len(result.Text)))

	s.sendFrameResponse(conn, FrameResponse{
		Type:      "result",
		Status:    "completed",
		Text:      result.Text,
		RequestID: requestID,
	})
}

// sendFrameResponse sends a response message over the WebSocket.
func (s *Server) sendFrameResponse(conn frameConnWriter, response FrameResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendFrameError sends an error message over the WebSocket.
func (s *Server) sendFrameError(conn frameConnWriter, errorType, message string) {
	s.sendFrameResponse(conn, FrameResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
