package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Output goes to stderr so it never mixes
// with command output. Debug lowers the level and switches to the human
// readable console format; the default level only surfaces problems.
func New(debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	var out io.Writer = os.Stderr

	if debug {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// NewWriter builds a logger targeting an arbitrary writer, used by tests
// and by embedders that collect logs themselves
func NewWriter(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
