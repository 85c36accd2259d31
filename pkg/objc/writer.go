// Package objc provides the output buffer generated Objective-C text is
// written to: indentation, whole-line and verbatim writes, and optional #line
// markers mapping output back to source lines.
package objc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Writer accumulates generated text
type Writer struct {
	w      io.Writer
	indent int

	lineFile string // source path for #line markers; "" disables them
	lastLine int
}

// NewWriter creates a writer over w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, indent: 0}
}

// Buffer is a Writer over an in-memory buffer.
type Buffer struct {
	*Writer
	buf *bytes.Buffer
}

// NewBuffer creates an empty buffered writer.
func NewBuffer() *Buffer {
	buf := &bytes.Buffer{}
	return &Buffer{Writer: NewWriter(buf), buf: buf}
}

// String returns everything written so far.
func (b *Buffer) String() string { return b.buf.String() }

// EnableLineDirectives makes SyncLine emit "#line" markers naming file.
func (w *Writer) EnableLineDirectives(file string) {
	w.lineFile = file
}

// LineDirectives reports whether SyncLine emits markers.
func (w *Writer) LineDirectives() bool { return w.lineFile != "" }

// Indent increases the indentation of subsequent lines
func (w *Writer) Indent() { w.indent++ }

// Dedent decreases the indentation of subsequent lines
func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *Writer) writeIndent() {
	fmt.Fprint(w.w, strings.Repeat("  ", w.indent))
}

// Line writes one indented line.
func (w *Writer) Line(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		fmt.Fprint(w.w, format)
	} else {
		fmt.Fprintf(w.w, format, args...)
	}
	fmt.Fprintln(w.w)
}

// Print writes s verbatim.
func (w *Writer) Print(s string) {
	fmt.Fprint(w.w, s)
}

// Newline writes an empty line.
func (w *Writer) Newline() {
	fmt.Fprintln(w.w)
}

// Raw writes multi-line text, indenting every non-empty line.
func (w *Writer) Raw(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			w.Newline()
			continue
		}
		w.Line("%s", line)
	}
}

// SyncLine emits a "#line" marker for source line n when markers are enabled
// and n differs from the last line marked.
func (w *Writer) SyncLine(n int) {
	if w.lineFile == "" || n <= 0 || n == w.lastLine {
		return
	}
	w.lastLine = n
	fmt.Fprintf(w.w, "#line %d %q\n", n, w.lineFile)
}
