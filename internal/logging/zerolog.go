package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerolog builds the zerolog.Logger used by the recorder and
// influx managers. Writes human-readable console output plus the
// session log file when one is provided.
func NewZerolog(file io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stdout}
	var w io.Writer = console
	if file != nil {
		w = zerolog.MultiLevelWriter(console, file)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
