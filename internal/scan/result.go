package scan

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Format selects the CLI/server result encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Timing records per-stage durations of a scan.
type Timing struct {
	Prepare   time.Duration `json:"prepareNs" yaml:"prepareNs"`
	Recognize time.Duration `json:"recognizeNs" yaml:"recognizeNs"`
	Total     time.Duration `json:"totalNs" yaml:"totalNs"`
}

// Result is the outcome of a successful scan.
type Result struct {
	// Text is the assembled recognition output.
	Text string `json:"text" yaml:"text"`
	// CroppedImagePath is a local file URI of the debug artifact, or
	// empty when none was produced.
	CroppedImagePath string `json:"croppedImagePath" yaml:"croppedImagePath"`
	// RegionUsed reports whether a region constrained the scan.
	RegionUsed bool `json:"-" yaml:"-"`
	// Timing carries stage durations for diagnostics.
	Timing Timing `json:"timing" yaml:"timing"`
}

// payload is the compact wire shape consumed by scan clients.
type payload struct {
	Text             string `json:"text"`
	CroppedImagePath string `json:"croppedImagePath"`
}

// Output renders the result for scan consumers: plain text for a
// whole-image scan with no artifact, otherwise a JSON object carrying
// the text and the artifact path. Consumers try JSON first and fall
// back to plain text.
func (r *Result) Output() (string, error) {
	if !r.RegionUsed && r.CroppedImagePath == "" {
		return r.Text, nil
	}
	data, err := json.Marshal(payload{Text: r.Text, CroppedImagePath: r.CroppedImagePath})
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// Encode renders the result in an explicitly requested format.
func (r *Result) Encode(format Format) (string, error) {
	switch format {
	case FormatText:
		return r.Text, nil
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}
