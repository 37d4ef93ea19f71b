package main

import (
	"io"
	"log/slog"
)

// newLogger returns the stderr logger handed to the converter. Warnings
// (unsupported diagrams, abandoned tables) show by default; --verbose adds
// per-stage debug records and --quiet keeps errors only.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
