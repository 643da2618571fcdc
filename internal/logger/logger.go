package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

var (
	mu      sync.RWMutex
	log     = zerolog.New(os.Stdout).With().Timestamp().Logger()
	logFile *os.File
)

// InitLogging configures the global logger. Output always goes to stdout and,
// when filePath is set, is also appended to that file. A file opened by an
// earlier call is closed.
func InitLogging(filePath string, level string) {
	var out io.Writer = os.Stdout
	var file *os.File
	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err == nil {
			f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				file = f
				out = io.MultiWriter(os.Stdout, f)
			} else {
				fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", filePath, err)
			}
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	SetLogger(zerolog.New(out).Level(lvl).With().Timestamp().Logger())

	mu.Lock()
	prev := logFile
	logFile = file
	mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// Close points the logger back at stdout and closes the log file, if any.
func Close() error {
	mu.Lock()
	f := logFile
	logFile = nil
	log = zerolog.New(os.Stdout).Level(log.GetLevel()).With().Timestamp().Logger()
	mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// SetLogger replaces the global logger; tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// WithRequestID returns a context whose log lines carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func event(ctx context.Context, lvl zerolog.Level) *zerolog.Event {
	mu.RLock()
	l := log
	mu.RUnlock()

	e := l.WithLevel(lvl)
	if id := RequestID(ctx); id != "" {
		e = e.Str("request_id", id)
	}
	return e
}

// Fields starts an info event with structured fields attached by the caller.
func Fields(ctx context.Context) *zerolog.Event {
	return event(ctx, zerolog.InfoLevel)
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, zerolog.DebugLevel).Msgf(format, args...)
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, zerolog.InfoLevel).Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, zerolog.WarnLevel).Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, zerolog.ErrorLevel).Msgf(format, args...)
}
