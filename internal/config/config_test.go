package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/clipocr/internal/engine"
	"github.com/fieldlens/clipocr/internal/scan"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, engine.DefaultLanguage, cfg.Engine.Language)
	assert.Equal(t, string(engine.ModeAccurate), cfg.Engine.Mode)
	assert.Equal(t, string(scan.FormatText), cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
		{"bad format", func(c *Config) { c.Output.Format = "csv" }, "output format"},
		{"bad mode", func(c *Config) { c.Engine.Mode = "turbo" }, "engine mode"},
		{"empty language", func(c *Config) { c.Engine.Language = "" }, "language"},
		{"negative contrast", func(c *Config) { c.Scan.Contrast = -1 }, "contrast"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"bad upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }, "upload"},
		{"bad timeout", func(c *Config) { c.Server.TimeoutSec = -1 }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_ValidateAcceptsEmptyFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ToScanConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.Language = "deu"
	cfg.Engine.Mode = "fast"
	cfg.Engine.TessdataPrefix = "/opt/tessdata"
	cfg.Scan.DebugDir = "/tmp/artifacts"

	sc := cfg.ToScanConfig()
	assert.Equal(t, "deu", sc.Language)
	assert.Equal(t, engine.ModeFast, sc.Mode)
	assert.Equal(t, "/opt/tessdata", sc.TessdataPrefix)
	assert.Equal(t, "/tmp/artifacts", sc.DebugDir)
}
