// Package translate implements statement and expression translation: it
// walks method bodies and initializers and prints equivalent Objective-C,
// inserting reference-counting messages and nil-check guards as it goes.
package translate

import (
	"sort"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/objc"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// Config carries the collaborators and options a Translator needs.
type Config struct {
	Names    *names.Resolver
	Types    *typemap.Mapper
	Policy   memory.Policy
	Reporter diag.Reporter

	// InlineFieldAccess reads and writes other objects' fields through their
	// instance variables instead of accessor messages.
	InlineFieldAccess bool
}

// Translator translates the bodies of one compilation unit. It is not safe
// for concurrent use; each unit gets its own.
type Translator struct {
	cfg       Config
	names     *names.Resolver
	types     *typemap.Mapper
	unit      *jast.CompilationUnit
	unitTypes map[*jast.TypeBinding]bool

	w      *objc.Writer
	typ    *jast.TypeBinding // type whose member is being translated
	method *jast.MethodBinding

	guards       map[*jast.VariableBinding]int // fields proven non-nil by enclosing tests
	pendingLabel string                        // label of the loop about to be translated
	usedLabels   map[string]bool
	stmtExpr     jast.Expr // expression whose value the enclosing statement discards

	boxes map[*jast.TypeBinding]bool // wrapper classes boxed or unboxed through
}

// New creates a translator for unit.
func New(cfg Config, unit *jast.CompilationUnit) *Translator {
	if cfg.Reporter == nil {
		cfg.Reporter = diag.NewCollector(unit.File, nil)
	}
	t := &Translator{
		cfg:        cfg,
		names:      cfg.Names,
		types:      cfg.Types,
		unit:       unit,
		unitTypes:  make(map[*jast.TypeBinding]bool),
		guards:     make(map[*jast.VariableBinding]int),
		usedLabels: make(map[string]bool),
		boxes:      make(map[*jast.TypeBinding]bool),
	}
	for _, td := range jast.AllTypes(unit) {
		t.unitTypes[td.Binding] = true
	}
	return t
}

// Enter sets the member being translated. m may be nil for field and static
// initializers.
func (t *Translator) Enter(typ *jast.TypeBinding, m *jast.MethodBinding) {
	t.typ = typ
	t.method = m
	clear(t.guards)
	clear(t.usedLabels)
	t.pendingLabel = ""
}

// Body writes the translation of stmts to w, one statement per line group.
func (t *Translator) Body(w *objc.Writer, stmts []jast.Stmt) {
	prev := t.w
	t.w = w
	defer func() { t.w = prev }()
	for _, s := range stmts {
		t.stmt(s)
	}
}

// Expr returns the translation of e.
func (t *Translator) Expr(e jast.Expr) string {
	return t.expr(e)
}

// Coerce returns the translation of e converted to type to, boxing or
// unboxing as needed.
func (t *Translator) Coerce(e jast.Expr, to *jast.TypeBinding) string {
	return t.coerce(e, to)
}

// BoxTypes returns the wrapper classes translated code has boxed into or
// unboxed from so far, by qualified name.
func (t *Translator) BoxTypes() []*jast.TypeBinding {
	out := make([]*jast.TypeBinding, 0, len(t.boxes))
	for b := range t.boxes {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// InUnit reports whether typ is declared in the unit being translated.
func (t *Translator) InUnit(typ *jast.TypeBinding) bool {
	return t.unitTypes[typ]
}

func (t *Translator) fail(n jast.Node, format string, args ...any) {
	var pos jast.Pos
	if n != nil {
		pos = n.Position()
	}
	diag.Fail(pos, format, args...)
}

// unparen strips redundant parentheses.
func unparen(e jast.Expr) jast.Expr {
	for {
		p, ok := e.(*jast.Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}

// HasSideEffects reports whether evaluating e may change program state, in
// which case it must not be evaluated twice.
func HasSideEffects(e jast.Expr) bool {
	switch expr := e.(type) {
	case nil:
		return false
	case *jast.NullLit, *jast.BoolLit, *jast.CharLit, *jast.NumberLit, *jast.StringLit,
		*jast.SimpleName, *jast.TypeName, *jast.ThisExpr, *jast.ClassLit:
		return false
	case *jast.Paren:
		return HasSideEffects(expr.X)
	case *jast.QualifiedName:
		return HasSideEffects(expr.Qualifier)
	case *jast.FieldAccess:
		return HasSideEffects(expr.X)
	case *jast.ArrayAccess:
		return HasSideEffects(expr.Array) || HasSideEffects(expr.Index)
	case *jast.ArrayLength:
		return HasSideEffects(expr.Array)
	case *jast.Unary:
		switch expr.Op {
		case jast.OpInc, jast.OpDec:
			return true
		default:
			return HasSideEffects(expr.Operand)
		}
	case *jast.Binary:
		for _, op := range expr.Operands() {
			if HasSideEffects(op) {
				return true
			}
		}
		return false
	case *jast.Conditional:
		return HasSideEffects(expr.Cond) || HasSideEffects(expr.Then) || HasSideEffects(expr.Else)
	case *jast.Cast:
		return HasSideEffects(expr.X)
	case *jast.InstanceOf:
		return HasSideEffects(expr.X)
	}
	// calls, constructions, assignments and postfix updates
	return true
}

// recvText makes s safe to use as a message receiver.
func recvText(s string) string {
	if isAtom(s) {
		return s
	}
	return "(" + s + ")"
}

// isAtom reports whether s needs no parentheses as an operand: an
// identifier, a literal, a message send, a call or a parenthesized group.
func isAtom(s string) bool {
	if s == "" {
		return false
	}
	switch {
	case s[0] == '[' || s[0] == '(':
		return matchingClose(s)
	case strings.HasPrefix(s, "@\""):
		return closesQuote(s[1:])
	case s[0] == '\'':
		return closesQuote(s)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$' || c == '.' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
		case c == '(' && i > 0:
			// function-style call such as nil_chk(x)
			return matchingClose(s[i:])
		default:
			return false
		}
	}
	return true
}

// closesQuote reports whether the quoted literal opening s ends at its last byte.
func closesQuote(s string) bool {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case s[0]:
			return i == len(s)-1
		}
	}
	return false
}

// matchingClose reports whether the bracket opening s closes at its last byte.
func matchingClose(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'':
			for i++; i < len(s) && s[i] != c; i++ {
				if s[i] == '\\' {
					i++
				}
			}
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}
