package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

// sink is the writer shared by a logger and every logger derived from it
// through With, so lines from siblings never interleave.
type sink struct {
	mu        sync.Mutex
	w         io.Writer
	formatter Formatter
}

func (s *sink) write(entry *Entry) {
	line, err := s.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: format entry %q: %v\n", entry.Message, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		fmt.Fprintf(os.Stderr, "log: write entry: %v\n", err)
	}
}

// StandardLogger writes entries through a Formatter to a single writer.
type StandardLogger struct {
	out    *sink
	level  Level
	fields []Field
	caller bool
}

// Option configures NewStandardLogger.
type Option func(*StandardLogger)

func WithLevel(level Level) Option {
	return func(l *StandardLogger) { l.level = level }
}

func WithOutput(w io.Writer) Option {
	return func(l *StandardLogger) {
		if w != nil {
			l.out.w = w
		}
	}
}

func WithFormatter(f Formatter) Option {
	return func(l *StandardLogger) {
		if f != nil {
			l.out.formatter = f
		}
	}
}

// WithFields adds fields to every entry, ahead of the trace and call-site fields.
func WithFields(fields ...Field) Option {
	return func(l *StandardLogger) { l.fields = append(l.fields, fields...) }
}

// WithCaller records the file and line of each logging call.
func WithCaller() Option {
	return func(l *StandardLogger) { l.caller = true }
}

// NewStandardLogger returns an info level text logger on stdout unless the
// options say otherwise.
func NewStandardLogger(options ...Option) *StandardLogger {
	l := &StandardLogger{
		out:   &sink{w: os.Stdout, formatter: &TextFormatter{}},
		level: LevelInfo,
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *StandardLogger) Debug(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args)
}

func (l *StandardLogger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args)
}

func (l *StandardLogger) Warn(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args)
}

func (l *StandardLogger) Error(format string, args ...interface{}) {
	l.printf(LevelError, format, args)
}

func (l *StandardLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, contextDepth, LevelDebug, msg, fields)
}

func (l *StandardLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, contextDepth, LevelInfo, msg, fields)
}

func (l *StandardLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, contextDepth, LevelWarn, msg, fields)
}

func (l *StandardLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.emit(ctx, contextDepth, LevelError, msg, fields)
}

// With returns a child that shares the parent's output and level.
func (l *StandardLogger) With(fields ...Field) Logger {
	child := *l
	child.fields = append(append(make([]Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	return &child
}

func (l *StandardLogger) printf(level Level, format string, args []interface{}) {
	if level < l.level {
		return
	}
	l.emit(context.Background(), contextDepth+1, level, fmt.Sprintf(format, args...), nil)
}

// contextDepth counts the frames from emit up to the code that called one of
// the Context methods. The printf methods add one more.
const contextDepth = 2

func (l *StandardLogger) emit(ctx context.Context, depth int, level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	trace := traceFieldsFromContext(ctx)
	all := make([]Field, 0, len(l.fields)+len(trace)+len(fields))
	all = append(all, l.fields...)
	all = append(all, trace...)
	all = append(all, fields...)

	entry := &Entry{Time: time.Now(), Level: level, Message: msg, Fields: all}
	if l.caller {
		entry.Caller = callSite(depth)
	}
	l.out.write(entry)
}

func callSite(depth int) *Caller {
	pc, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return nil
	}
	c := &Caller{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		c.Function = fn.Name()
	}
	return c
}
