package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
)

// Entry is one record handed to a Formatter.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Fields  []Field
	Caller  *Caller
}

// Caller is the source position of the logging call, set when the logger
// was built with WithCaller.
type Caller struct {
	File     string
	Line     int
	Function string
}

// String renders the position as dir/file.go:line.
func (c *Caller) String() string {
	dir, file := filepath.Split(c.File)
	return filepath.Join(filepath.Base(dir), file) + ":" + strconv.Itoa(c.Line)
}

// Formatter turns an Entry into the bytes written to the output.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Palette colours the level label and the fields of a text line.
type Palette struct {
	Levels map[Level]*color.Color
	Fields *color.Color
}

// DefaultPalette is used by the coloured terminal logger.
func DefaultPalette() *Palette {
	return &Palette{
		Levels: map[Level]*color.Color{
			LevelDebug: color.New(color.FgCyan),
			LevelInfo:  color.New(color.FgBlue),
			LevelWarn:  color.New(color.FgYellow),
			LevelError: color.New(color.FgRed),
		},
		Fields: color.New(color.Faint),
	}
}

// TextFormatter writes one line per entry:
//
//	<time> [LEVEL] message key=value ... caller=dir/file.go:12
//
// Colours are applied only when Palette is set.
type TextFormatter struct {
	TimeLayout string
	Palette    *Palette
}

func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	layout := f.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	var buf bytes.Buffer
	buf.WriteString(entry.Time.Format(layout))
	buf.WriteString(" [")
	buf.WriteString(f.paint(f.levelColor(entry.Level), entry.Level.String()))
	buf.WriteString("] ")
	buf.WriteString(entry.Message)

	for _, field := range entry.Fields {
		buf.WriteByte(' ')
		buf.WriteString(f.paint(f.fieldColor(), fmt.Sprintf("%s=%v", field.Key, field.Value)))
	}
	if entry.Caller != nil {
		buf.WriteString(" caller=")
		buf.WriteString(entry.Caller.String())
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (f *TextFormatter) levelColor(level Level) *color.Color {
	if f.Palette == nil {
		return nil
	}
	return f.Palette.Levels[level]
}

func (f *TextFormatter) fieldColor() *color.Color {
	if f.Palette == nil {
		return nil
	}
	return f.Palette.Fields
}

func (f *TextFormatter) paint(c *color.Color, text string) string {
	if c == nil {
		return text
	}
	return c.Sprint(text)
}

// JSONFormatter writes one JSON object per line. The keys time, level and
// msg come first, followed by the fields in the order they were given.
// A later field overwrites an earlier one with the same key.
type JSONFormatter struct {
	TimeLayout string
}

func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	layout := f.TimeLayout
	if layout == "" {
		layout = time.RFC3339Nano
	}

	keys := []string{"time", "level", "msg"}
	values := map[string]interface{}{
		"time":  entry.Time.Format(layout),
		"level": entry.Level.String(),
		"msg":   entry.Message,
	}
	for _, field := range entry.Fields {
		if _, seen := values[field.Key]; !seen {
			keys = append(keys, field.Key)
		}
		values[field.Key] = field.Value
	}
	if entry.Caller != nil {
		if _, seen := values["caller"]; !seen {
			keys = append(keys, "caller")
		}
		values["caller"] = entry.Caller.String()
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(values[key])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
