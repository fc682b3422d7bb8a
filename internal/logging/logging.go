// Package logging wires a decred/slog backend for the server binary and hands
// out one tagged Logger per subsystem, the way pokerbisonrelay's
// bisonbotkit/logging.LogBackend does for its Hub/Table/Server split.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/decred/slog"
)

// Config controls the backend's output and verbosity.
type Config struct {
	// Writer receives formatted log lines. Defaults to io.Discard if nil.
	Writer io.Writer
	// DebugLevel is one of trace, debug, info, warn, error, critical, off.
	DebugLevel string
}

// Backend hands out subsystem-tagged loggers sharing one slog.Backend.
type Backend struct {
	backend *slog.Backend
	level   slog.Level
}

// NewBackend creates a Backend per the given Config.
func NewBackend(cfg Config) (*Backend, error) {
	level, ok := slog.LevelFromString(strings.ToLower(cfg.DebugLevel))
	if !ok {
		return nil, fmt.Errorf("invalid debug level %q", cfg.DebugLevel)
	}

	w := cfg.Writer
	if w == nil {
		w = io.Discard
	}
	backend := slog.NewBackend(w, slog.WithFlags(slog.LUTC))

	return &Backend{backend: backend, level: level}, nil
}

// Logger returns a Logger tagged with the given subsystem name, e.g. "HUB" or
// "TBL-ABCD". Subsystem tags are kept short and upper-case to match the
// teacher's convention.
func (b *Backend) Logger(subsystem string) slog.Logger {
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	return l
}
