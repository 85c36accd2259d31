// Package diag carries translation diagnostics: the error taxonomy, the
// reporter collaborator that records them, and the panic/recover pair used to
// abort a unit on an unsupported construct.
package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// Kind classifies a diagnostic
type Kind int

const (
	Unsupported   Kind = iota // tree shape with no translation; aborts the unit
	MissingNative             // native fragment expected but absent; recovered
	InvalidChar               // literal character with no target form; recovered
)

func (k Kind) String() string {
	names := []string{"unsupported construct", "missing native code", "invalid character"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Diagnostic is one reported problem
type Diagnostic struct {
	File string
	Line int
	Kind Kind
	Msg  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Kind, d.Msg)
}

// Reporter records diagnostics found while translating a unit.
type Reporter interface {
	Report(pos jast.Pos, kind Kind, format string, args ...any)
}

// Collector is a Reporter that keeps every diagnostic and logs it.
type Collector struct {
	file   string
	logger *slog.Logger

	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector creates a collector for one source file. A nil logger discards.
func NewCollector(file string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Collector{file: file, logger: logger}
}

// Report records a diagnostic.
func (c *Collector) Report(pos jast.Pos, kind Kind, format string, args ...any) {
	d := Diagnostic{File: c.file, Line: pos.Line, Kind: kind, Msg: fmt.Sprintf(format, args...)}
	c.mu.Lock()
	c.diags = append(c.diags, d)
	c.mu.Unlock()
	c.logger.LogAttrs(context.Background(), slog.LevelWarn, d.Msg,
		slog.String("file", d.File), slog.Int("line", d.Line), slog.String("kind", kind.String()))
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

// UnsupportedError aborts translation of a unit.
type UnsupportedError struct {
	Pos jast.Pos
	Msg string
}

func (e *UnsupportedError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d: unsupported construct: %s", e.Pos.Line, e.Msg)
	}
	return "unsupported construct: " + e.Msg
}

// ErrUnsupported matches every UnsupportedError with errors.Is.
var ErrUnsupported = errors.New("unsupported construct")

// Is lets errors.Is(err, ErrUnsupported) succeed.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }

// Fail panics with an UnsupportedError at pos. Callers up the stack use
// Recover to turn it back into an error.
func Fail(pos jast.Pos, format string, args ...any) {
	panic(&UnsupportedError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// Recover converts an UnsupportedError panic into *err. Other panics propagate.
// It must be called directly by a deferred statement.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ue, ok := r.(*UnsupportedError); ok {
		*err = ue
		return
	}
	panic(r)
}
