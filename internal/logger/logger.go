// Package logger provides a process-wide structured logger. Call
// Initialize once at process startup; the package-level functions are then
// safe to call from any goroutine.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

var singleton atomic.Value // *slog.Logger

func init() {
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Initialize configures the package logger based on the environment:
// UNSTRUCTURED_LOGS=false selects a JSON handler suitable for syslog
// capture; anything else (including unset) keeps the human-readable text
// handler used in --console mode.
func Initialize() {
	InitializeWithWriter(os.Stderr)
}

// InitializeWithWriter is like Initialize but writes to w; used by tests
// to attach to a specific stream.
func InitializeWithWriter(w io.Writer) {
	level := slog.LevelInfo
	if debugEnabled() {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if unstructuredLogs() {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	singleton.Store(slog.New(handler))
}

// SetDebug raises or lowers the logger's verbosity; used by --debug. The
// handler is rebuilt since slog's level is fixed at handler construction.
func SetDebug(debug bool) {
	if debug {
		os.Setenv("OIDCD_DEBUG", "1")
	} else {
		os.Unsetenv("OIDCD_DEBUG")
	}
	Initialize()
}

func current() *slog.Logger {
	return singleton.Load().(*slog.Logger)
}

func debugEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("OIDCD_DEBUG"))
	if err != nil {
		return false
	}
	return v
}

// unstructuredLogs reports whether log output should be human-readable
// text rather than JSON. Defaults to true (matches running in a terminal).
func unstructuredLogs() bool {
	return unstructuredLogsFromEnv(os.Getenv("UNSTRUCTURED_LOGS"))
}

func unstructuredLogsFromEnv(v string) bool {
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func Debug(msg string)            { current().Debug(msg) }
func Debugf(format string, a ...any) { current().Debug(sprintf(format, a...)) }
func Debugw(msg string, kv ...any)  { current().Debug(msg, kv...) }

func Info(msg string)            { current().Info(msg) }
func Infof(format string, a ...any) { current().Info(sprintf(format, a...)) }
func Infow(msg string, kv ...any)  { current().Info(msg, kv...) }

func Warn(msg string)            { current().Warn(msg) }
func Warnf(format string, a ...any) { current().Warn(sprintf(format, a...)) }
func Warnw(msg string, kv ...any)  { current().Warn(msg, kv...) }

func Error(msg string)            { current().Error(msg) }
func Errorf(format string, a ...any) { current().Error(sprintf(format, a...)) }
func Errorw(msg string, kv ...any)  { current().Error(msg, kv...) }

// DPanic logs at error level; the daemon never panics on a DPanic call
// since it has no "development mode" distinct from production.
func DPanic(msg string)            { current().Error(msg) }
func DPanicf(format string, a ...any) { current().Error(sprintf(format, a...)) }
func DPanicw(msg string, kv ...any)  { current().Error(msg, kv...) }

func sprintf(format string, a ...any) string {
	if len(a) == 0 {
		return format
	}
	return fmt.Sprintf(format, a...)
}
