package slogx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewHandler creates a [slog.Handler] writing to w at the given level.
// Text output is used when w is a terminal, and JSON output otherwise, so logs are readable by people and machines alike.
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if IsTerminal(w) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ParseLevel converts a level name like "debug" or "WARN" into a [slog.Level].
// An empty string is the same as "info".
func ParseLevel(level string) (slog.Level, error) {
	level = strings.TrimSpace(level)
	if len(level) == 0 {
		return slog.LevelInfo, nil
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	return parsed, nil
}
