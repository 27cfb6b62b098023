// Package logging configures zerolog for the dossier tools: console
// output on stderr for humans, timestamped JSON writers for log files.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nop discards everything; handy for tests.
var Nop = zerolog.Nop()

var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Setup configures the global logger. Unknown levels fall back to
// info. Console output is pretty-printed when stderr is a terminal,
// plain JSON otherwise. The level gates the console logger only;
// writer loggers from New stay unfiltered so log files miss nothing.
func Setup(level string, noColor bool) {
	lvl := ParseLevel(level)

	var w io.Writer = os.Stderr
	if isTerminal() {
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    noColor || os.Getenv("NO_COLOR") != "",
		}
	}
	defaultLogger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	log.Logger = defaultLogger
}

// Default returns the global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// New creates a timestamped JSON logger on the given writer,
// independent of the console level. Used for machine-read log files.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a level name onto zerolog's levels, defaulting to
// info rather than erroring on unknown input.
func ParseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Debug starts a debug event on the global logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the global logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warn event on the global logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the global logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

func isTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
