// Package logging builds the zap loggers used by the hammer2 tools.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr at the named level
// (debug, info, warn, error).
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.OutputPaths = []string{"stderr"}
	c.Sampling = nil

	log, err := c.Build(zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return log, nil
}

// ForVerbosity picks the level implied by the verbose and quiet flags when no
// level was configured explicitly.
func ForVerbosity(level string, verbose, quiet bool) string {
	switch {
	case level != "":
		return level
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return "warn"
	}
}
