package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a JSON logger on stderr. The MCP server uses it because stdout
// carries the protocol.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stderr, level)
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()
}
