// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for the CLI. Icons are suppressed
// when the destination is not a terminal so piped output stays clean.
type Writer struct {
	out      io.Writer
	useIcons bool
}

// New creates a Writer. Icon rendering follows whether out is a TTY.
func New(out io.Writer) *Writer {
	useIcons := false
	if f, ok := out.(*os.File); ok {
		useIcons = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: out, useIcons: useIcons}
}

// NewPlain creates a Writer that never renders icons. Tests and JSON
// pipelines use this.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an optional icon prefix.
// Write errors are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" && w.useIcons {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintln(w.out, msg)
}

// Statusf prints a formatted status message.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Indent prints msg indented one level under a status line.
func (w *Writer) Indent(msg string) {
	_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
}

// Indentf prints a formatted indented line.
func (w *Writer) Indentf(format string, args ...any) {
	w.Indent(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Tree prints a nested outline using box-drawing connectors.
func (w *Writer) Tree(lines []TreeLine) {
	for _, l := range lines {
		prefix := strings.Repeat("  ", l.Depth)
		_, _ = fmt.Fprintf(w.out, "%s%s %s\n", prefix, l.connector(), l.Text)
	}
}

// TreeLine is one row of a Tree rendering.
type TreeLine struct {
	Depth int
	Last  bool
	Text  string
}

func (l TreeLine) connector() string {
	if l.Last {
		return "└─"
	}
	return "├─"
}
