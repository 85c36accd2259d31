package emit

import (
	"strings"

	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
)

// Native fragment delimiters. A fragment is a block comment whose text
// starts and ends with these tokens.
const (
	nativeStart = "/*-["
	headerStart = "/*-HEADER["
	nativeEnd   = "]-*/"
)

// fragment returns the code inside a native comment opened by start. ok is
// false when text is not such a comment; closed is false when it opens one
// but never closes it.
func fragment(text, start string) (code string, ok, closed bool) {
	if !strings.HasPrefix(text, start) {
		return "", false, false
	}
	if !strings.HasSuffix(text, nativeEnd) || len(text) < len(start)+len(nativeEnd) {
		return "", true, false
	}
	return trimFragment(text[len(start) : len(text)-len(nativeEnd)]), true, true
}

// trimFragment drops surrounding blank lines and the indentation common to
// every line.
func trimFragment(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	for i, l := range lines {
		if len(l) >= common && common > 0 {
			lines[i] = l[common:]
		}
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	return strings.Join(lines, "\n")
}

// headerFragments returns the native header code of the unit, in source
// order. An unterminated fragment is reported and replaced by an #error.
func (e *Emitter) headerFragments() []string {
	var out []string
	for _, c := range e.unit.Comments {
		if !c.Block {
			continue
		}
		code, ok, closed := fragment(e.unit.CommentText(c), headerStart)
		switch {
		case !ok:
		case !closed:
			e.cfg.Reporter.Report(jast.Pos{Line: e.lineOf(c.Start), Start: c.Start, End: c.End},
				diag.MissingNative, "unterminated native header fragment")
			out = append(out, "#error \"unterminated native header fragment\"")
		default:
			out = append(out, code)
		}
	}
	return out
}

// nativeCode finds the native body comment inside the source span of md.
func (e *Emitter) nativeCode(md *jast.MethodDecl) (string, bool) {
	for _, c := range e.unit.Comments {
		if !c.Block || c.Start < md.Start || c.Start >= md.End {
			continue
		}
		if code, ok, closed := fragment(e.unit.CommentText(c), nativeStart); ok && closed {
			return code, true
		}
	}
	return "", false
}

// nativeBody writes the verbatim body of a native method. A missing fragment
// is reported and leaves an #error in its place so the output fails loudly.
func (e *Emitter) nativeBody(td *jast.TypeDecl, md *jast.MethodDecl) {
	code, ok := e.nativeCode(md)
	if !ok {
		e.cfg.Reporter.Report(md.Pos, diag.MissingNative, "no native code for %s.%s", td.Binding.Name, md.Binding.Name)
		e.w.Line("#error \"missing native code for %s.%s\"", td.Binding.Name, md.Binding.Name)
		return
	}
	e.w.Raw(code)
}

// lineOf returns the 1-based source line containing offset.
func (e *Emitter) lineOf(offset int) int {
	if offset > len(e.unit.Source) {
		return 0
	}
	return strings.Count(e.unit.Source[:offset], "\n") + 1
}
