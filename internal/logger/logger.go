package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a human-readable console
// writer at debug level; every other environment logs JSON at info level.
func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if environment == "development" {
		console := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
		return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Str("service", "tontine").Logger()
	}
	return zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Str("service", "tontine").Logger()
}
