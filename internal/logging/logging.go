package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures the process logger.
type Options struct {
	// File is appended to in addition to Stderr. Empty disables the file sink.
	File  string
	Level string
	Debug bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a text logger that writes to stderr and the operations log file.
// The returned close function releases the file handle.
func New(opt Options) (*slog.Logger, func() error, error) {
	var out io.Writer = opt.Stderr
	if out == nil {
		out = os.Stderr
	}
	closeFn := func() error { return nil }
	if opt.File != "" {
		f, err := os.OpenFile(opt.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(out, f)
		closeFn = f.Close
	}
	level := ParseLevel(opt.Level)
	if opt.Debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h), closeFn, nil
}

// ParseLevel maps a config string onto a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
