// Package logging configures the process-wide slog logger. Records below
// ERROR go to one writer and ERROR and above to another, so service
// managers can treat stderr as the failure stream.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options select the level, format and optional file of the logger.
type Options struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ParseLevel accepts debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Validate checks the level and format.
func (o Options) Validate() error {
	if _, err := ParseLevel(o.Level); err != nil {
		return err
	}
	switch strings.ToLower(o.Format) {
	case "", FormatText, FormatJSON:
		return nil
	}
	return fmt.Errorf("unknown log format %q", o.Format)
}

// splitHandler sends records to out or errOut depending on severity.
type splitHandler struct {
	level  slog.Leveler
	out    slog.Handler
	errOut slog.Handler
}

func (h *splitHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errOut.Handle(ctx, r)
	}
	return h.out.Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{level: h.level, out: h.out.WithAttrs(attrs), errOut: h.errOut.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{level: h.level, out: h.out.WithGroup(name), errOut: h.errOut.WithGroup(name)}
}

// NewHandler builds a handler writing to out and errOut in the given format.
func NewHandler(out, errOut io.Writer, opts Options) (slog.Handler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	level, _ := ParseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: level}

	build := func(w io.Writer) slog.Handler {
		if strings.ToLower(opts.Format) == FormatJSON {
			return slog.NewJSONHandler(w, hopts)
		}
		return slog.NewTextHandler(w, hopts)
	}
	return &splitHandler{level: level, out: build(out), errOut: build(errOut)}, nil
}

// Setup installs the default logger on stdout/stderr, also appending to
// opts.File when set. The returned function closes the file.
func Setup(opts Options) (func(), error) {
	out := io.Writer(os.Stdout)
	errOut := io.Writer(os.Stderr)
	cleanup := func() {}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		out = io.MultiWriter(os.Stdout, f)
		errOut = io.MultiWriter(os.Stderr, f)
	}

	handler, err := NewHandler(out, errOut, opts)
	if err != nil {
		cleanup()
		return nil, err
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}
