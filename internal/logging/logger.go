package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/edvin/dstgen/internal/config"
)

const serviceName = "dstgen"

// NewLogger creates a structured zerolog.Logger writing to stderr, leaving
// stdout to command output. LOG_FORMAT=auto picks the human readable console
// format when stderr is a terminal and JSON otherwise.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(cfg, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newLogger(cfg *config.Config, w io.Writer, tty bool) zerolog.Logger {
	out := w
	if cfg.LogFormat == config.LogFormatConsole || (cfg.LogFormat != config.LogFormatJSON && tty) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !tty}
	}

	logger := zerolog.New(out).With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
