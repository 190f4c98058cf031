// Package logger is the process-wide leveled logger shared by the presence
// server, the upload service and the probe CLI.
//
// Output is rendered by charmbracelet/log. Level gating happens here so that
// TRACE, which the backend does not know about, can be filtered the same way
// as the other levels.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	clog "github.com/charmbracelet/log"
)

// Level is the verbosity threshold used by the logger.
//
// Lower values are more verbose.
type Level int32

const (
	// LevelTrace enables extremely verbose logs (every inbound event).
	LevelTrace Level = iota
	// LevelDebug enables verbose logs intended for debugging.
	LevelDebug
	// LevelInfo enables informational logs (default).
	LevelInfo
	// LevelWarn enables only warnings and errors.
	LevelWarn
	// LevelError enables only error logs.
	LevelError
)

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
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

var (
	level atomic.Int32
	out   atomic.Pointer[clog.Logger]
)

func init() {
	level.Store(int32(LevelInfo))
	out.Store(newBackend(os.Stderr))
}

func newBackend(w io.Writer) *clog.Logger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
	})
	// Filtering is done by Enabled; the backend must let everything through.
	l.SetLevel(clog.DebugLevel)
	return l
}

// ParseLevel parses a log level string into a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SetOutput replaces the writer used by the global logger.
func SetOutput(w io.Writer) {
	out.Store(newBackend(w))
}

// SetLevel sets the global log level threshold.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// CurrentLevel returns the active threshold.
func CurrentLevel() Level {
	return Level(level.Load())
}

// Enabled reports whether a level would be emitted by the current configuration.
func Enabled(l Level) bool {
	return l >= Level(level.Load())
}

// Tracef logs at TRACE level.
func Tracef(format string, args ...any) {
	if !Enabled(LevelTrace) {
		return
	}
	out.Load().Debug("TRACE " + fmt.Sprintf(format, args...))
}

// Debugf logs at DEBUG level.
func Debugf(format string, args ...any) {
	if !Enabled(LevelDebug) {
		return
	}
	out.Load().Debug(fmt.Sprintf(format, args...))
}

// Infof logs at INFO level.
func Infof(format string, args ...any) {
	if !Enabled(LevelInfo) {
		return
	}
	out.Load().Info(fmt.Sprintf(format, args...))
}

// Warnf logs at WARN level.
func Warnf(format string, args ...any) {
	if !Enabled(LevelWarn) {
		return
	}
	out.Load().Warn(fmt.Sprintf(format, args...))
}

// Errorf logs at ERROR level.
func Errorf(format string, args ...any) {
	if !Enabled(LevelError) {
		return
	}
	out.Load().Error(fmt.Sprintf(format, args...))
}

// Configure sets the threshold from a configured level name. debug forces
// at least LevelDebug. An unknown name leaves LevelInfo in place and is
// reported.
func Configure(debug bool, raw string) error {
	l, err := ParseLevel(raw)
	if debug && l > LevelDebug {
		l = LevelDebug
	}
	SetLevel(l)
	return err
}
