// pkg/logging/logger.go
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// NewLogger builds a logger for the given level (debug, info, warn, error) and
// format (json, console) and installs it as the global zap logger
func NewLogger(level, format string) (*zap.Logger, error) {
	cfg, err := NewConfig(level, format)
	if err != nil {
		return nil, err
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

// NewConfig returns the zap configuration NewLogger builds from
func NewConfig(level, format string) (zap.Config, error) {
	atomicLevel, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case FormatConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("invalid log format %q: must be %s or %s", format, FormatJSON, FormatConsole)
	}

	cfg.Level = atomicLevel
	// stdout stays free for data written with --output -
	cfg.OutputPaths = []string{"stderr"}
	return cfg, nil
}
