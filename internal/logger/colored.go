package logger

import (
	"io"
	"os"

	"golang.org/x/term"
)

// NewColoredLogger returns the terminal logger: short timestamps, with
// levels and fields coloured when the output is a terminal and NO_COLOR is
// unset.
func NewColoredLogger(options ...Option) *StandardLogger {
	l := NewStandardLogger(options...)
	f := &TextFormatter{TimeLayout: "15:04:05"}
	if colorEnabled(l.out.w) {
		f.Palette = DefaultPalette()
	}
	l.out.formatter = f
	return l
}

func colorEnabled(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
