// Package log wires a single zerolog base logger for the process and hands
// out component-scoped child loggers, so every package logs through
// structured fields instead of fmt.Printf.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process-wide base logger. level is one of
// debug/info/warn/error; format is "console" (human-readable, for local
// development) or anything else (JSON, for production).
func New(level, format string) zerolog.Logger {
	var w io.Writer = os.Stdout
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child logger tagged with a "component" field, the
// convention every package constructor in this module follows.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
