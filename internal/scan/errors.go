package scan

import (
	"errors"
	"fmt"

	"github.com/fieldlens/clipocr/internal/engine"
)

var errNilImage = errors.New("input image is nil")

// Kind classifies a scan failure.
type Kind string

const (
	// KindInvalidInput covers unreadable files, degenerate regions and
	// invalid frames.
	KindInvalidInput Kind = "invalid_input"
	// KindRecognition covers engine-side errors and timeouts.
	KindRecognition Kind = "recognition_failure"
	// KindEncoding covers debug-artifact write failures. Never
	// escalated to abort a scan; surfaces only in the warn log.
	KindEncoding Kind = "encoding_failure"
	// KindNotImplemented covers capability gaps such as the frame path
	// on builds without engine support.
	KindNotImplemented Kind = "not_implemented"
)

// ScanError is the typed failure surfaced to scan callers. It carries
// the pipeline stage and the underlying cause for diagnostics.
type ScanError struct {
	Stage string
	Kind  Kind
	Err   error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed at %s: %v", e.Stage, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

func newError(stage string, kind Kind, err error) *ScanError {
	return &ScanError{Stage: stage, Kind: kind, Err: err}
}

// recognitionError classifies an engine failure: capability gaps keep
// their not-implemented kind, everything else is a recognition failure.
func recognitionError(err error) *ScanError {
	if errors.Is(err, engine.ErrNotImplemented) {
		return newError("recognize", KindNotImplemented, err)
	}
	return newError("recognize", KindRecognition, err)
}

func hasKind(err error, kind Kind) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// IsInvalidInput reports whether err is an invalid-input scan failure.
func IsInvalidInput(err error) bool { return hasKind(err, KindInvalidInput) }

// IsRecognitionFailure reports whether err is an engine-side failure.
func IsRecognitionFailure(err error) bool { return hasKind(err, KindRecognition) }

// IsNotImplemented reports whether err is a capability-gap failure.
func IsNotImplemented(err error) bool { return hasKind(err, KindNotImplemented) }
