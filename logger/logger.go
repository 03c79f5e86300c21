// Package logger is a small leveled printf logger. In host mode stdout
// carries RPC traffic, so output goes to a file.
package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
)

// Level is a log severity
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// DefaultMaxSize is the size above which a previous log file is archived
const DefaultMaxSize = 4 << 20

// String returns the lowercase level name
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name, case-insensitively
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// Config controls where and what is logged
type Config struct {
	Path    string // empty logs to stderr
	Level   Level
	MaxSize int64 // 0 uses DefaultMaxSize
}

var (
	mu    sync.Mutex
	out   = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	level = LevelInfo
	file  *os.File
)

// Init configures the global logger. An existing log file larger than
// MaxSize is archived to <path>.1.br first.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level = cfg.Level
	if cfg.Path == "" {
		out.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := rotate(cfg.Path, maxSize); err != nil {
		return err
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if file != nil {
		file.Close()
	}
	file = f
	out.SetOutput(f)
	return nil
}

// SetOutput redirects log output, mainly for tests
func SetOutput(w io.Writer, lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	out.SetOutput(w)
	level = lvl
}

// Close releases the log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	out.SetOutput(os.Stderr)
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// rotate compresses path into path.1.br when it exceeds maxSize
func rotate(path string, maxSize int64) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() <= maxSize {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log for rotation: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".1.br")
	if err != nil {
		return fmt.Errorf("failed to create log archive: %w", err)
	}
	defer dst.Close()

	bw := brotli.NewWriterLevel(dst, brotli.DefaultCompression)
	if _, err := io.Copy(bw, src); err != nil {
		return fmt.Errorf("failed to compress log: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("failed to compress log: %w", err)
	}

	return os.Remove(path)
}

func logf(lvl Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < level {
		return
	}
	out.Printf("[%s] %s", strings.ToUpper(lvl.String()), fmt.Sprintf(format, args...))
}

// Trace logs entry into name and, when the returned func runs, its duration
//
//	defer logger.Trace("engine.Format")()
func Trace(name string) func() {
	start := time.Now()
	logf(LevelTrace, "-> %s", name)
	return func() {
		logf(LevelTrace, "<- %s (%s)", name, time.Since(start))
	}
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Printf logs at debug level; it matches the logf hook of the RPC client
func Printf(format string, args ...any) { logf(LevelDebug, format, args...) }
