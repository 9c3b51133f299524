package main

import (
	"io"
	"log/slog"
	"strings"
)

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, usagef("invalid log level %q", s)
	}
	return level, nil
}

func checkFormat(s string) error {
	switch strings.ToLower(s) {
	case "", "text", "json":
		return nil
	default:
		return usagef("invalid log format %q (want text or json)", s)
	}
}

// newLogger 按格式创建日志记录器，级别由 level 动态控制。
func newLogger(w io.Writer, format string, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
