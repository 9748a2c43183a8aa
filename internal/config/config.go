// Package config defines the application configuration and its loading
// from files, environment variables and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/scan"
)

// Config represents the complete configuration for the clipocr
// application. It supports loading from configuration files,
// environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Scan pipeline settings
	Scan ScanConfig `mapstructure:"scan" yaml:"scan" json:"scan"`

	// Recognition engine settings
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Output settings
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server settings (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ScanConfig contains scan pipeline settings.
type ScanConfig struct {
	// Contrast is the default enhancement contrast factor; 0 selects
	// automatic estimation.
	Contrast float64 `mapstructure:"contrast" yaml:"contrast" json:"contrast"`
	// DebugDir is where cropped debug artifacts are written. Empty
	// means the system temp directory.
	DebugDir string `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
}

// EngineConfig contains recognition engine settings.
type EngineConfig struct {
	Language       string `mapstructure:"language" yaml:"language" json:"language"`
	Mode           string `mapstructure:"mode" yaml:"mode" json:"mode"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Scan: ScanConfig{
			Contrast: 0,
		},
		Engine: EngineConfig{
			Language: engine.DefaultLanguage,
			Mode:     string(engine.ModeAccurate),
		},
		Output: OutputConfig{
			Format: string(scan.FormatText),
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Output.Format != "" {
		if _, err := scan.ParseFormat(c.Output.Format); err != nil {
			return fmt.Errorf("invalid output format: %w", err)
		}
	}

	if !engine.Mode(c.Engine.Mode).Valid() {
		return fmt.Errorf("invalid engine mode: %s (must be accurate or fast)", c.Engine.Mode)
	}
	if c.Engine.Language == "" {
		return fmt.Errorf("engine language must not be empty")
	}

	if c.Scan.Contrast < 0 {
		return fmt.Errorf("invalid contrast: %.2f (must not be negative)", c.Scan.Contrast)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// ToScanConfig converts the config to the scanner configuration format.
func (c *Config) ToScanConfig() scan.Config {
	cfg := scan.DefaultConfig()
	cfg.Language = c.Engine.Language
	cfg.Mode = engine.Mode(c.Engine.Mode)
	cfg.TessdataPrefix = c.Engine.TessdataPrefix
	cfg.DebugDir = c.Scan.DebugDir
	return cfg
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
