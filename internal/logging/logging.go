// SPDX-License-Identifier: EPL-2.0

// Package logging builds the zerolog loggers used across audjack.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable holding the default log level.
const EnvLevel = "AUDJACK_LOG_LEVEL"

var (
	defaultOnce   sync.Once
	defaultLogger zerolog.Logger
)

// New returns a console logger writing to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Default returns the process-wide logger writing to stderr. The level is read
// once from AUDJACK_LOG_LEVEL.
func Default() zerolog.Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(os.Stderr, os.Getenv(EnvLevel))
	})
	return defaultLogger
}

// Component returns l tagged with a component field.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
