// Package logger provides a centralized, leveled logging facility.
//
// Call sites use printf-style helpers (Errorf, Infof, Debugf, Tracef); the
// output is structured through log/slog, as text or JSON, to stderr, to a
// rotated file, or to both.
//
// Verbosity levels (in increasing order):
//
//	Error < Info < Debug < Trace
//
// Example usage:
//
//	logger.SetVerbosity(2) // Debug
//	logger.Infof("starting server on %s", addr)
//	logger.Debugf("spot=%f vol=%f", spot, vol)
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging verbosity level.
// Higher values mean more verbose logging.
type Level int

const (
	Error Level = iota // Error logs only critical failures.
	Info               // Info logs high-level application progress.
	Debug              // Debug logs detailed diagnostic information.
	Trace              // Trace logs very fine-grained execution details.
)

// LevelTrace is the slog level used for Trace messages.
const LevelTrace = slog.LevelDebug - 4

// Config controls where and how log records are written.
type Config struct {
	// Level: error, info, debug, trace
	Level string `mapstructure:"level"`
	// Format: text or json
	Format string `mapstructure:"format"`
	// Output: stderr, file, both
	Output string `mapstructure:"output"`
	// FilePath is used when Output is file or both.
	FilePath string `mapstructure:"file_path"`
	// MaxSize in megabytes before rotation.
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAge in days.
	MaxAge int `mapstructure:"max_age"`
	// Compress rotated files.
	Compress bool `mapstructure:"compress"`
}

var (
	// current holds the active verbosity level.
	// Only messages with level <= current are logged.
	current atomic.Int32

	// levelVar mirrors current for the slog handler.
	levelVar = new(slog.LevelVar)

	base atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(int32(Info))
	levelVar.Set(slog.LevelInfo)
	base.Store(slog.New(newHandler(os.Stderr, "text")))
}

// Init replaces the package logger according to cfg. The returned closer
// releases the log file, if one was opened.
func Init(cfg Config) (io.Closer, error) {
	SetLevel(ParseLevel(cfg.Level))

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logger: output %q requires file_path", cfg.Output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("logger: creating log dir: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		closer = fileWriter
		out = fileWriter
		if strings.ToLower(cfg.Output) == "both" {
			out = io.MultiWriter(os.Stderr, fileWriter)
		}
	case "", "stderr":
	default:
		return nil, fmt.Errorf("logger: unknown output %q", cfg.Output)
	}

	SetOutput(out, cfg.Format)
	return closer, nil
}

// SetOutput points the logger at w using the given format (text or json).
func SetOutput(w io.Writer, format string) {
	base.Store(slog.New(newHandler(w, format)))
}

func newHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: levelVar,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a level name to a Level. Unknown names yield Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return Error
	case "debug":
		return Debug
	case "trace":
		return Trace
	default:
		return Info
	}
}

// SetVerbosity sets the global logging verbosity.
// Typically called once during application startup
// (e.g. after parsing CLI flags).
func SetVerbosity(v int) {
	SetLevel(Level(v))
}

// SetLevel sets the global logging verbosity.
func SetLevel(l Level) {
	if l < Error {
		l = Error
	}
	if l > Trace {
		l = Trace
	}
	current.Store(int32(l))
	levelVar.Set(slogLevel(l))
}

// Get returns the underlying slog logger for code that wants attributes
// rather than format strings.
func Get() *slog.Logger {
	return base.Load()
}

func slogLevel(l Level) slog.Level {
	switch l {
	case Error:
		return slog.LevelError
	case Debug:
		return slog.LevelDebug
	case Trace:
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// logf checks verbosity before formatting so disabled levels cost nothing.
func logf(l Level, format string, args ...any) {
	if Level(current.Load()) < l {
		return
	}
	base.Load().Log(context.Background(), slogLevel(l), fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
// Use this for failures that require attention.
func Errorf(format string, args ...any) {
	logf(Error, format, args...)
}

// Infof logs an informational message.
// Use this for major lifecycle events.
func Infof(format string, args ...any) {
	logf(Info, format, args...)
}

// Debugf logs debugging information.
func Debugf(format string, args ...any) {
	logf(Debug, format, args...)
}

// Tracef logs very detailed execution traces.
// Use this sparingly due to high volume.
func Tracef(format string, args ...any) {
	logf(Trace, format, args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
