// internal/logger/log.go
package logger

import (
	"io"
	"os"
	"strings"

	"metrics-sink/internal/config"

	stdlog "log"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init
//
// Builds the process logger once at startup and installs it as the global
// zerolog logger. Output goes to stderr: the sink's diagnostics channel.
//
//  1. Format:
//     - LOG_PRETTY=true: colored console lines for a terminal
//     - otherwise: one JSON object per line
//
//  2. Common fields: "service" and "instance" on every line.
//
//  3. Sampling: with LOG_SAMPLE_N > 1 only 1/N debug and info lines are kept.
//     Warn and error are never sampled, so every skipped record is reported.
func Init(cfg config.Config) zerolog.Logger {
	return New(os.Stderr, cfg)
}

// New is Init with an explicit destination.
func New(out io.Writer, cfg config.Config) zerolog.Logger {

	// -------------------------------------------------------------------
	// 1) level
	// -------------------------------------------------------------------
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.LogLevel))); err == nil && l != zerolog.NoLevel {
		level = l
	}

	// -------------------------------------------------------------------
	// 2) writer
	// -------------------------------------------------------------------
	w := out
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	// -------------------------------------------------------------------
	// 3) base logger with common fields
	// -------------------------------------------------------------------
	base := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", cfg.InstanceID).
		Logger()

	// -------------------------------------------------------------------
	// 4) sampling
	// -------------------------------------------------------------------
	logger := base
	if cfg.LogSampleN > 1 {
		logger = base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}

	// -------------------------------------------------------------------
	// 5) globals
	// -------------------------------------------------------------------
	zlog.Logger = logger

	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)

	return logger
}
