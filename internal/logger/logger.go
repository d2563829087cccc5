package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger writes to stderr; stdout carries the popup result only.
var Logger *log.Logger

var configureOnce sync.Once

// Options selects the process-wide log level. Verbose wins over Quiet,
// both win over Level.
type Options struct {
	Level   string
	Verbose bool
	Quiet   bool
	Output  io.Writer
}

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetLevel(ParseLevel(os.Getenv("WAYPICK_LOG_LEVEL")))
}

// ParseLevel maps a level name to a log level. Unknown or empty names
// fall back to warn.
func ParseLevel(name string) log.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN", "WARNING":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	case "FATAL":
		return log.FatalLevel
	default:
		return log.WarnLevel
	}
}

// Configure applies opts the first time it is called. Later calls are
// ignored so the level cannot change mid-run.
func Configure(opts Options) {
	configureOnce.Do(func() {
		if opts.Output != nil {
			Logger.SetOutput(opts.Output)
		}
		if env := os.Getenv("WAYPICK_LOG_LEVEL"); env != "" && opts.Level == "" {
			opts.Level = env
		}
		level := ParseLevel(opts.Level)
		switch {
		case opts.Verbose:
			level = log.DebugLevel
			Logger.SetReportTimestamp(true)
		case opts.Quiet:
			level = log.ErrorLevel
		}
		Logger.SetLevel(level)
	})
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
