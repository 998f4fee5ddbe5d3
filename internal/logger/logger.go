package logger

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is the logging surface shared by the server, the API handlers and
// the client. The printf methods suit lifecycle messages; the Context
// methods attach the request trace from ctx plus explicit fields.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// Level orders entries by severity. Entries below a logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel reads a level name as written in the config file or the
// CONTACTBOOK_LOG_LEVEL variable. An empty name means info.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for lvl, n := range levelNames {
		if strings.ToLower(n) == name {
			return Level(lvl), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Field is a key/value pair rendered after the message.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Duration stores d as whole milliseconds.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// Error stores err's message under "error". A nil err stores a nil value.
func Error(err error) Field {
	f := Field{Key: "error"}
	if err != nil {
		f.Value = err.Error()
	}
	return f
}

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
