// Package logging is a small leveled front-end over the standard log package.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level represents logging severity.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var currentLevel atomic.Int32

func init() {
	currentLevel.Store(int32(LevelInfo))
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
}

// SetVerbosity configures the level from a count of -v flags. Zero keeps the
// default info level, every extra -v goes one level deeper.
func SetVerbosity(count int) {
	switch {
	case count <= 0:
		SetLevel(LevelInfo)
	case count == 1:
		SetLevel(LevelDebug)
	default:
		SetLevel(LevelTrace)
	}
}

// SetLevel sets the current level.
func SetLevel(l Level) {
	if l < LevelError {
		l = LevelError
	}
	if l > LevelTrace {
		l = LevelTrace
	}
	currentLevel.Store(int32(l))
}

// CurrentLevel returns the active level.
func CurrentLevel() Level {
	return Level(currentLevel.Load())
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Enabled reports whether messages at l are printed.
func Enabled(l Level) bool {
	return l <= CurrentLevel()
}

func logf(l Level, prefix, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	log.Printf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

// Errorf always prints.
func Errorf(format string, args ...any) {
	logf(LevelError, "ERR", format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, "WARN", format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, "INFO", format, args...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, "DBG", format, args...)
}

func Tracef(format string, args ...any) {
	logf(LevelTrace, "TRC", format, args...)
}
