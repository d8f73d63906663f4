package logging

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log severity. Entries below a logger's level are dropped.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	// WarnLevel carries degraded graph reads and skipped mirror writes.
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name in any case. "warning" is accepted; anything
// unknown maps to InfoLevel.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WarnLevel
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Field is one structured key/value attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging contract used by every component. Children made with
// With share their parent's level.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// JSONLogger writes one JSON object per line. A logger family built through
// With shares the writer, the write lock and the level.
type JSONLogger struct {
	out    io.Writer
	level  *atomic.Int32
	fields []Field
	mu     *sync.Mutex
}

// LogEntry is the shape of one written line.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

// NewNopLogger returns a logger for tests and optional wiring.
func NewNopLogger() Logger {
	return NopLogger{}
}

// TimedOperation logs an operation with its latency once it ends.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
