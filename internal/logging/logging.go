// Package logging sets up the process-wide zerolog logger, in place of
// bare log.Printf calls straight to the standard logger, matching how
// risk-agent's searcher/mcts.go imports github.com/rs/zerolog/log.
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. cmd/kestrel and cmd/selfplay call
// Init once at startup; everything else just uses this value.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init reconfigures Logger for level and output. UCI engines must never
// write anything but UCI protocol lines to stdout, so Logger always
// writes to stderr regardless of TTY detection; the TTY check only
// decides whether stderr gets zerolog's colorized console writer or
// plain JSON (the latter is friendlier to log aggregation when the
// engine runs under a supervisor).
func Init(levelName string) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out interface{ Write([]byte) (int, error) } = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = zerolog.ConsoleWriter{
			Out:        colorable.NewColorableStderr(),
			TimeFormat: time.RFC3339,
		}
	}
	Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}
