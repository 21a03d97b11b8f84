package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Options controls logger initialization.
type Options struct {
	Level     string // debug, info, warn, error
	Output    string // console, file, both
	Format    string // text, json
	FilePath  string
	AddSource bool
}

var (
	mu       sync.RWMutex
	handler  slog.Handler
	levelVar = new(slog.LevelVar)
)

func init() {
	handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar})
}

// Init configures the process-wide logger. Safe to call more than once;
// the last call wins.
func Init(opts Options) error {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	switch opts.Output {
	case "", "console":
	case "file", "both":
		if opts.FilePath == "" {
			return fmt.Errorf("log output %q requires a file path", opts.Output)
		}
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		if opts.Output == "both" {
			out = io.MultiWriter(os.Stdout, f)
		} else {
			out = f
		}
	default:
		return fmt.Errorf("unknown log output: %s", opts.Output)
	}

	levelVar.Set(level)
	hopts := &slog.HandlerOptions{Level: levelVar, AddSource: opts.AddSource}

	var h slog.Handler
	if opts.Format == "json" {
		h = slog.NewJSONHandler(out, hopts)
	} else {
		h = slog.NewTextHandler(out, hopts)
	}

	mu.Lock()
	handler = h
	mu.Unlock()
	return nil
}

// SetLevel changes the log level at runtime.
func SetLevel(level string) error {
	l, err := parseLevel(level)
	if err != nil {
		return err
	}
	levelVar.Set(l)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}

func log(level slog.Level, msg string, args ...any) {
	mu.RLock()
	h := handler
	mu.RUnlock()
	slog.New(h).Log(context.Background(), level, msg, SanitizeArgs(args...)...)
}

func Debug(msg string, args ...any) { log(slog.LevelDebug, msg, args...) }
func Info(msg string, args ...any)  { log(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { log(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { log(slog.LevelError, msg, args...) }
