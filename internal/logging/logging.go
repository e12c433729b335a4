// Package logging provides the platform's leveled logging helpers. It
// generalizes the teacher's package-global TPrintf/DPrintf/LPrintf/JPrint
// family (configs/utils.go) into a struct a component can own, so no
// process-wide logging singleton is required (distilled spec §9, "Global
// state").
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// Level gates which messages a Logger emits.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Logger is a small leveled wrapper over a standard library *log.Logger,
// tagged with a component name so every line can be attributed.
type Logger struct {
	component string
	level     Level
	out       *log.Logger
}

// New builds a Logger writing to w, gated at level, tagged with component.
func New(component string, level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		component: component,
		level:     level,
		out:       log.New(w, "", 0),
	}
}

// With returns a copy of l tagged with a different component name, sharing
// the same level and writer — used to scope a logger to a sub-component
// (e.g. "admin.proposal").
func (l *Logger) With(component string) *Logger {
	return &Logger{component: l.component + "." + component, level: l.level, out: l.out}
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if level > l.level {
		return
	}
	line := fmt.Sprintf(format, args...)
	l.out.Printf("%s <---> [%s] %s: %s", time.Now().Format("15:04:05.000"), level, l.component, line)
}

// Errorf logs at error level. Always emitted regardless of configured level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(LevelWarn, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.logf(LevelInfo, format, args...) }

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }

// Tracef logs at trace level — the most verbose, per-message tier.
func (l *Logger) Tracef(format string, args ...interface{}) { l.logf(LevelTrace, format, args...) }

// JSON renders v as a one-line JSON structured-field suffix, appended to a
// log line when a caller wants the full value dumped (mirroring the
// teacher's configs.JPrint for ad hoc struct inspection).
func JSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<unmarshalable: %v>", err)
	}
	return string(b)
}
