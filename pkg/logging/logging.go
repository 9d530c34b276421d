// Package logging wires log/slog for the CLI and the HTTP service.
//
// Attributes appended to a context with AppendCtx are added to every record
// logged with that context, so request scoped values (request id, file name)
// follow a conversion through every package without threading a logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// Options configures the log output.
type Options struct {
	Level      string `toml:"level" yaml:"level"`
	JSON       bool   `toml:"json" yaml:"json"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"maxSizeMB"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"maxAgeDays"`
	MaxBackups int    `toml:"max_backups" yaml:"maxBackups"`
}

// Logger returns a text or json logger writing to w that also emits any
// attributes stored in the record's context.
func Logger(w io.Writer, json bool, level slog.Leveler) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(ContextHandler{Handler: h})
}

// New builds a logger from Options, rotating through lumberjack when a file is set.
func New(o Options) *slog.Logger {
	return Logger(Output(o), o.JSON, ParseLevel(o.Level))
}

// Output returns stdout or a rotating file writer.
func Output(o Options) io.Writer {
	if o.File == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB, // megabytes
		MaxAge:     o.MaxAgeDays,
		MaxBackups: o.MaxBackups,
	}
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// AppendCtx returns a copy of parent carrying attrs in addition to any it already holds.
func AppendCtx(parent context.Context, attrs ...slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if v, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		merged := make([]slog.Attr, 0, len(v)+len(attrs))
		merged = append(merged, v...)
		merged = append(merged, attrs...)
		return context.WithValue(parent, ctxKey{}, merged)
	}
	return context.WithValue(parent, ctxKey{}, attrs)
}

// ContextHandler adds context attributes to each record.
type ContextHandler struct {
	slog.Handler
}

// Handle adds the ctx attributes to the record before passing it on.
func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}
