// Package logging builds the zap loggers used across grabsim.
package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrFormat = errors.New("logging: unknown format")

// New builds a logger writing to stderr. format is "json" or "console";
// an empty level means info.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoding, err := encodingFor(format)
	if err != nil {
		return nil, err
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zap.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("logging: %w", err)
	}
	return lvl, nil
}

func encodingFor(format string) (string, error) {
	switch format {
	case "", "console", "text":
		return "console", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, format)
	}
}
