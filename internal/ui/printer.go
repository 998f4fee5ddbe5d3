// Package ui renders contact book output for the terminal client.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	runewidth "github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"contactbook/internal/data/contacts"
)

var tableHeader = [3]string{"NAME", "PHONE", "ADDRESS"}

// Printer renders rich terminal UI fragments used by the CLI.
type Printer struct {
	out          io.Writer
	colorEnabled bool
	success      *color.Color
	info         *color.Color
	warn         *color.Color
	error        *color.Color
	plain        *color.Color
}

// NewPrinter constructs a Printer writing to out. Colour is enabled only for
// terminals and only when NO_COLOR is unset. A nil out means stdout.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	enabled := supportsColor(out) && os.Getenv("NO_COLOR") == ""

	p := &Printer{
		out:          out,
		colorEnabled: enabled,
		success:      color.New(color.FgGreen, color.Bold),
		info:         color.New(color.FgBlue, color.Bold),
		warn:         color.New(color.FgYellow, color.Bold),
		error:        color.New(color.FgRed, color.Bold),
		plain:        color.New(color.Reset),
	}

	for _, c := range []*color.Color{p.success, p.info, p.warn, p.error, p.plain} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// Writer exposes the destination used by the printer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// PrintBanner renders the application banner with the server being used.
func (p *Printer) PrintBanner(serverURL string) {
	lines := []string{
		"==================== CONTACT BOOK ====================",
		"",
		"Server: " + serverURL,
		"======================================================",
	}
	for _, line := range lines {
		p.success.Fprintln(p.out, line)
	}
}

// PrintSeparator prints a repeated character separator.
func (p *Printer) PrintSeparator(char string, length int) {
	if length <= 0 {
		return
	}
	fmt.Fprintln(p.out, strings.Repeat(char, length))
}

// PrintContacts renders contacts as an aligned table. Column widths account
// for wide and combining characters.
func (p *Printer) PrintContacts(list []contacts.Contact) {
	if len(list) == 0 {
		p.warn.Fprintln(p.out, "No contacts found.")
		return
	}

	widths := [3]int{}
	for i, h := range tableHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, c := range list {
		for i, cell := range cells(c) {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := widths[0] + widths[1] + widths[2] + 6
	p.info.Fprintln(p.out, formatRow(tableHeader, widths))
	p.PrintSeparator("-", total)
	for _, c := range list {
		fmt.Fprintln(p.out, formatRow(cells(c), widths))
	}
	p.PrintSeparator("-", total)
	fmt.Fprintf(p.out, "%d contact(s)\n", len(list))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.success.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Info prints a neutral status line.
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.info.Sprint("i"), fmt.Sprintf(format, args...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.warn.Sprint("!"), fmt.Sprintf(format, args...))
}

// Error prints a failure line.
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintf(p.out, "%s %s\n", p.error.Sprint("✕"), fmt.Sprintf(format, args...))
}

// PrintRowErrors lists rejected import rows under a warning heading.
func (p *Printer) PrintRowErrors(rows []string) {
	if len(rows) == 0 {
		return
	}
	p.Warn("%d row(s) were rejected:", len(rows))
	for _, row := range rows {
		fmt.Fprintf(p.out, "    %s\n", row)
	}
}

func cells(c contacts.Contact) [3]string {
	return [3]string{c.Name, c.Phone, c.Address}
}

func formatRow(row [3]string, widths [3]int) string {
	var b strings.Builder
	for i, cell := range row {
		if i > 0 {
			b.WriteString(" | ")
		}
		if i == len(row)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
	}
	return b.String()
}

func supportsColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
