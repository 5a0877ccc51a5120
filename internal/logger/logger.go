// Package logger provides leveled logging for the rag4u CLI.
// Messages go to stderr and, once SetLogDir is called, to a timestamped
// file under the log directory as well. Debug output is only printed in
// verbose mode; everything from Info upwards is always printed.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LevelUser sits between Info and Warn. It marks messages addressed to
// the person running the tool rather than to an operator.
const LevelUser = slog.Level(2)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    *os.File
	level   = new(slog.LevelVar)
	base    = newLogger(output)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv == LevelUser {
					a.Value = slog.StringValue("USER")
				}
			}
			return a
		},
	}))
}

// rebuild must be called with mu held.
func rebuild() {
	w := output
	if file != nil {
		w = io.MultiWriter(output, file)
	}
	base = newLogger(w)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetLogDir starts teeing output into dir/log-DD-MM-YYYY-HH-MM-SS.txt.
// It returns the path of the new file. An empty dir disables file logging.
func SetLogDir(dir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		_ = file.Close()
		file = nil
	}
	if dir == "" {
		rebuild()
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	name := "log-" + time.Now().Format("02-01-2006-15-04-05") + ".txt"
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	file = f
	rebuild()
	return path, nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	rebuild()
	return err
}

func logf(lv slog.Level, format string, args ...any) {
	mu.RLock()
	l := base
	mu.RUnlock()
	if !l.Enabled(context.Background(), lv) {
		return
	}
	l.Log(context.Background(), lv, fmt.Sprintf(format, args...))
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(slog.LevelDebug, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	logf(slog.LevelInfo, format, args...)
}

// User prints a message meant for the person running the command.
func User(format string, args ...any) {
	logf(LevelUser, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(slog.LevelWarn, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logf(slog.LevelError, format, args...)
}
