package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog logger for the requested level and format.
// Format "console" gives human-readable output; anything else is JSON.
func New(level, format string) zerolog.Logger {
	var output io.Writer = os.Stdout
	if format == "console" || format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(output).Level(parsed).With().Timestamp().Logger()
}
