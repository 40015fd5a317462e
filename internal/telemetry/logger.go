// Package telemetry builds the process-wide structured logger.
package telemetry

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, pretty
}

// NewLogger builds a zerolog.Logger with a timestamp, caller info, and a
// fixed service field, matching this codebase's structured-logging
// convention.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if cfg.Format == "json" {
		return zerolog.New(os.Stdout).With().Timestamp().Caller().Str("service", "jtac-bridge").Logger()
	}

	return zerolog.New(output).With().Timestamp().Caller().Str("service", "jtac-bridge").Logger()
}
