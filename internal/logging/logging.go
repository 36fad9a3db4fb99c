// Package logging — настройка log/slog для бота: уровень, формат и
// дублирование записей в файл журнала.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config — параметры логгера. Если File не пуст, записи дополнительно
// дописываются в этот файл (всегда текстом).
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer // по умолчанию os.Stderr
	File      string
	AddSource bool
}

func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatText, Output: os.Stderr}
}

// New собирает логгер только для консоли (File игнорируется).
func New(cfg Config) *slog.Logger {
	return slog.New(consoleHandler(cfg))
}

// Open собирает логгер с файлом журнала. Закрыть возвращённый io.Closer
// нужно при выходе.
func Open(cfg Config) (*slog.Logger, io.Closer, error) {
	console := consoleHandler(cfg)
	if cfg.File == "" {
		return slog.New(console), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	file := slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource})
	return slog.New(NewMultiHandler(console, file)), f, nil
}

func consoleHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Nop — логгер, который всё выбрасывает.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel: debug, info, warn(ing), error; всё остальное — info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// ========================= fan-out =========================

// MultiHandler раздаёт запись нескольким обработчикам.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle не останавливается на ошибке одного обработчика, возвращает первую.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: out}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithGroup(name)
	}
	return &MultiHandler{handlers: out}
}
