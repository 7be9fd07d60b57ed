// Package rlog builds the per-run structured logger used throughout the
// engine. Each run gets its own zerolog.Logger instance carrying the run's
// identity, never a package-global logger, so concurrent batch runs never
// interleave context.
package rlog

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds a console-formatted logger scoped to one simulation run.
// verbose raises the level to debug; otherwise only info and above print.
func New(netName, runID string, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = colorable.NewColorable(os.Stderr)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Str("net", netName).
		Str("run", runID).
		Logger()
}

// Discard returns a logger that drops every event.
func Discard() zerolog.Logger {
	return zerolog.Nop()
}
