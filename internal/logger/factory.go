package logger

import (
	"io"
	"os"
	"strings"
	"time"
)

// Output formats accepted by New.
const (
	FormatColor = "color"
	FormatText  = "text"
	FormatJSON  = "json"
)

// New builds the logger for a configured format and level, writing to w
// (stdout when nil). Unknown formats get the coloured terminal logger.
// Debug loggers also report the call site of each entry. Extra options are
// applied last.
func New(format string, level Level, w io.Writer, extra ...Option) Logger {
	if w == nil {
		w = os.Stdout
	}

	options := []Option{WithLevel(level), WithOutput(w)}
	if level <= LevelDebug {
		options = append(options, WithCaller())
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		options = append(options, WithFormatter(&JSONFormatter{TimeLayout: time.RFC3339Nano}))
	case FormatText:
		options = append(options, WithFormatter(&TextFormatter{TimeLayout: time.RFC3339}))
	default:
		return NewColoredLogger(append(options, extra...)...)
	}
	return NewStandardLogger(append(options, extra...)...)
}
