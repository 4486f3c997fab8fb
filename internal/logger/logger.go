package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w. Debug level is enabled when env is
// "dev"; format "console" selects the human-readable console writer.
func New(env, format string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(w).With().Timestamp().Logger()
	if env == "dev" {
		l = l.Level(zerolog.DebugLevel)
	} else {
		l = l.Level(zerolog.InfoLevel)
	}
	return l
}
