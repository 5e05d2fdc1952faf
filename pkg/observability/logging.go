package observability

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger writes to stderr, and to sink as well when it is non-nil.
// A terminal on stderr gets text output, anything else JSON.
func NewLogger(sink io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var w io.Writer = os.Stderr
	if sink != nil {
		w = io.MultiWriter(os.Stderr, sink)
	}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

// DiscardLogger is for tests and callers that want no output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
