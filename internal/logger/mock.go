package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockEntry is one entry captured by MockLogger.
type MockEntry struct {
	Level   Level
	Message string
	Fields  []Field
}

type mockRecord struct {
	mu      sync.Mutex
	entries []MockEntry
}

// MockLogger keeps every entry in memory for test assertions. Loggers
// derived with With record into the same store and carry their own fields.
type MockLogger struct {
	rec    *mockRecord
	fields []Field
}

func NewMockLogger() *MockLogger {
	return &MockLogger{rec: &mockRecord{}}
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.add(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.add(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Warn(format string, args ...interface{}) {
	m.add(LevelWarn, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.add(LevelError, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	m.add(LevelDebug, msg, append(traceFieldsFromContext(ctx), fields...))
}

func (m *MockLogger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	m.add(LevelInfo, msg, append(traceFieldsFromContext(ctx), fields...))
}

func (m *MockLogger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	m.add(LevelWarn, msg, append(traceFieldsFromContext(ctx), fields...))
}

func (m *MockLogger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	m.add(LevelError, msg, append(traceFieldsFromContext(ctx), fields...))
}

func (m *MockLogger) With(fields ...Field) Logger {
	return &MockLogger{
		rec:    m.rec,
		fields: append(append([]Field(nil), m.fields...), fields...),
	}
}

func (m *MockLogger) add(level Level, msg string, fields []Field) {
	entry := MockEntry{Level: level, Message: msg}
	entry.Fields = append(append(entry.Fields, m.fields...), fields...)

	m.rec.mu.Lock()
	m.rec.entries = append(m.rec.entries, entry)
	m.rec.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (m *MockLogger) Entries() []MockEntry {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]MockEntry(nil), m.rec.entries...)
}

// HasEntry reports whether some entry at level has a message containing substr.
func (m *MockLogger) HasEntry(level Level, substr string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// FieldValue looks up key on the first entry whose message contains substr
// and carries that key.
func (m *MockLogger) FieldValue(substr, key string) (interface{}, bool) {
	for _, e := range m.Entries() {
		if !strings.Contains(e.Message, substr) {
			continue
		}
		for _, f := range e.Fields {
			if f.Key == key {
				return f.Value, true
			}
		}
	}
	return nil, false
}

// Count returns how many entries were recorded at level.
func (m *MockLogger) Count(level Level) int {
	n := 0
	for _, e := range m.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
