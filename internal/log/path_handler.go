package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// HomeMarker replaces the user's home directory in logged paths.
const HomeMarker = "~"

// PathHandler wraps an slog.Handler and shortens file system paths under
// the user's home directory to "~/...". Corpus directories, database files
// and report paths are logged often, and logs are shared in bug reports.
//
// It is a handler wrapper rather than a custom logger so that it works with
// every slog API and any underlying handler (text, JSON).
type PathHandler struct {
	// handler receives the rewritten records.
	handler slog.Handler

	// home is the directory to shorten, without a trailing separator.
	// Empty disables rewriting.
	home string
}

// NewPathHandler creates a PathHandler that shortens paths under home.
// If handler is nil, slog.Default().Handler() is used.
func NewPathHandler(handler slog.Handler, home string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	home = strings.TrimRight(home, string(filepath.Separator))
	return &PathHandler{handler: handler, home: home}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(rewritten), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), home: h.home}
}

// rewriteAttr shortens a single attribute, recursing into groups.
// Errors are logged by message so that paths inside them are shortened too.
func (h *PathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}

	case slog.KindString:
		return slog.String(a.Key, h.shorten(a.Value.String()))

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, h.shorten(err.Error()))
		}
	}
	return a
}

// shorten replaces every occurrence of the home directory that starts a
// path in s.
func (h *PathHandler) shorten(s string) string {
	if h.home == "" || !strings.Contains(s, h.home) {
		return s
	}

	var b strings.Builder
	for {
		i := strings.Index(s, h.home)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := i + len(h.home)
		b.WriteString(s[:i])
		if end == len(s) || s[end] == filepath.Separator {
			b.WriteString(HomeMarker)
		} else {
			b.WriteString(h.home)
		}
		s = s[end:]
	}
}

// homeDir returns the current user's home directory, or "" when unknown.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// newLogger wires a base handler into a PathHandler at the verbosity level.
func newLogger(verbose bool, base func(*slog.HandlerOptions) slog.Handler) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(NewPathHandler(base(&slog.HandlerOptions{Level: level}), homeDir()))
}

// NewLogger creates a text slog.Logger writing to w.
// If verbose is true the level is Debug, otherwise Warn.
// Paths under the home directory are shortened to "~".
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(verbose, func(opts *slog.HandlerOptions) slog.Handler {
		return slog.NewTextHandler(w, opts)
	})
}

// NewJSONLogger creates a JSON slog.Logger writing to w.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return newLogger(verbose, func(opts *slog.HandlerOptions) slog.Handler {
		return slog.NewJSONHandler(w, opts)
	})
}
