package translate

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// stmt writes the translation of one statement.
func (t *Translator) stmt(s jast.Stmt) {
	t.w.SyncLine(s.Position().Line)
	switch x := s.(type) {
	case *jast.Block:
		t.w.Line("{")
		t.blockBody(x)
		t.w.Line("}")
	case *jast.ExprStmt:
		t.w.Line("%s;", t.discarded(x.X))
	case *jast.VarDecl:
		for _, f := range x.Fragments {
			t.w.Line("%s;", t.localDecl(f))
		}
	case *jast.If:
		t.ifStmt(x, "")
	case *jast.While:
		t.whileStmt(x)
	case *jast.DoWhile:
		t.doWhileStmt(x)
	case *jast.For:
		t.forStmt(x)
	case *jast.ForEach:
		t.forEach(x)
	case *jast.Switch:
		t.switchStmt(x)
	case *jast.Break:
		if x.Label == "" {
			t.w.Line("break;")
			return
		}
		t.usedLabels["break_"+x.Label] = true
		t.w.Line("goto break_%s;", x.Label)
	case *jast.Continue:
		if x.Label == "" {
			t.w.Line("continue;")
			return
		}
		t.usedLabels["continue_"+x.Label] = true
		t.w.Line("goto continue_%s;", x.Label)
	case *jast.Labeled:
		switch x.Body.(type) {
		case *jast.While, *jast.DoWhile, *jast.For, *jast.ForEach:
			t.pendingLabel = x.Label
			t.stmt(x.Body)
		default:
			t.stmt(x.Body)
			t.breakLabel(x.Label)
		}
	case *jast.Return:
		t.returnStmt(x)
	case *jast.Throw:
		t.w.Line("@throw %s;", t.expr(x.X))
	case *jast.Try:
		t.tryStmt(x)
	case *jast.Synchronized:
		t.w.Line("@synchronized (%s) {", t.expr(x.Lock))
		t.blockBody(x.Body)
		t.w.Line("}")
	case *jast.Assert:
		t.w.Line("%s;", t.assertion(x))
	case *jast.LocalTypeDecl:
		// emitted with the unit's other types
	case *jast.Empty:
		t.w.Line(";")
	case *jast.Case:
		t.fail(x, "case label outside switch")
	case *jast.SuperCtorCall, *jast.ThisCtorCall:
		t.fail(x, "constructor call must be the first statement of a constructor")
	default:
		t.fail(s, "unexpected statement %T", s)
	}
}

// blockBody writes the statements of s one level deeper, without braces.
func (t *Translator) blockBody(s jast.Stmt) {
	t.w.Indent()
	defer t.w.Dedent()
	if b, ok := s.(*jast.Block); ok {
		for _, st := range b.Stmts {
			t.stmt(st)
		}
		return
	}
	if s != nil {
		t.stmt(s)
	}
}

// discarded translates an expression whose value is not used.
func (t *Translator) discarded(e jast.Expr) string {
	prev := t.stmtExpr
	t.stmtExpr = e
	defer func() { t.stmtExpr = prev }()
	return t.expr(e)
}

// localDecl declares one local variable. Objects created for a local are
// autoreleased.
func (t *Translator) localDecl(f *jast.VarFragment) string {
	decl := t.types.Declaration(f.Var.Type, t.names.Name(f.Var))
	if f.Init == nil {
		return decl
	}
	if n, ok := unparen(f.Init).(*jast.New); ok {
		site := memory.Site{Kind: memory.Construct, Storage: memory.Local, Class: memory.ClassOf(f.Var.Type)}
		return decl + " = " + t.construct(n, site)
	}
	return decl + " = " + t.coerce(f.Init, f.Var.Type)
}

func (t *Translator) condition(e jast.Expr) string {
	text := t.toPrimitive(e)
	if strings.HasPrefix(text, "(") && matchingClose(text) {
		return text[1 : len(text)-1]
	}
	return text
}

func (t *Translator) ifStmt(x *jast.If, prefix string) {
	t.w.Line("%sif (%s) {", prefix, t.condition(x.Cond))
	restore := t.guard(nonNullTests(x.Cond))
	t.blockBody(x.Then)
	restore()
	t.w.Line("}")
	switch e := x.Else.(type) {
	case nil:
	case *jast.If:
		t.ifStmt(e, "else ")
	default:
		t.w.Line("else {")
		t.blockBody(e)
		t.w.Line("}")
	}
}

func (t *Translator) takeLabel() string {
	label := t.pendingLabel
	t.pendingLabel = ""
	return label
}

// continueLabel places the target of "continue label" at the end of a loop
// body, if some statement jumped to it.
func (t *Translator) continueLabel(label string) {
	if label == "" || !t.usedLabels["continue_"+label] {
		return
	}
	delete(t.usedLabels, "continue_"+label)
	t.w.Indent()
	t.w.Line("continue_%s: ;", label)
	t.w.Dedent()
}

func (t *Translator) breakLabel(label string) {
	if label == "" || !t.usedLabels["break_"+label] {
		return
	}
	delete(t.usedLabels, "break_"+label)
	t.w.Line("break_%s: ;", label)
}

func (t *Translator) whileStmt(x *jast.While) {
	label := t.takeLabel()
	t.w.Line("while (%s) {", t.condition(x.Cond))
	t.blockBody(x.Body)
	t.continueLabel(label)
	t.w.Line("}")
	t.breakLabel(label)
}

func (t *Translator) doWhileStmt(x *jast.DoWhile) {
	label := t.takeLabel()
	t.w.Line("do {")
	t.blockBody(x.Body)
	t.continueLabel(label)
	t.w.Line("}")
	t.w.Line("while (%s);", t.condition(x.Cond))
	t.breakLabel(label)
}

func (t *Translator) forStmt(x *jast.For) {
	label := t.takeLabel()
	init := make([]string, len(x.Init))
	for i, e := range x.Init {
		init[i] = t.discarded(e)
	}
	cond := ""
	if x.Cond != nil {
		cond = t.condition(x.Cond)
	}
	update := make([]string, len(x.Update))
	for i, e := range x.Update {
		update[i] = t.discarded(e)
	}
	t.w.Line("for (%s; %s; %s) {", strings.Join(init, ", "), cond, strings.Join(update, ", "))
	t.blockBody(x.Body)
	t.continueLabel(label)
	t.w.Line("}")
	t.breakLabel(label)
}

// forEach lowers the enhanced for loop: an index loop over arrays, an
// iterator loop over everything else.
func (t *Translator) forEach(x *jast.ForEach) {
	label := t.takeLabel()
	v := x.Var
	collection := x.X.ExprType()
	t.w.Line("{")
	t.w.Indent()
	if collection.IsArray() {
		elem := collection.Elem
		t.w.Line("%s = %s;", t.types.Declaration(collection, "a__"), t.expr(x.X))
		t.w.Line("int n__ = (int) [nil_chk(a__) count];")
		t.w.Line("for (int i__ = 0; i__ < n__; i__++) {")
		t.w.Indent()
		item := "[a__ " + typemap.ElementGetter(elem) + "i__]"
		t.w.Line("%s = %s;", t.types.Declaration(v.Type, t.names.Name(v)), t.convert(item, elem, v.Type))
	} else {
		t.w.Line("%s = [%s iterator];", t.types.Declaration(jast.Iterator, "it__"), t.receiver(x.X))
		t.w.Line("while ([it__ hasNext]) {")
		t.w.Indent()
		t.w.Line("%s = %s;", t.types.Declaration(v.Type, t.names.Name(v)), t.convert("[it__ next]", jast.Object, v.Type))
	}
	if v.IsPoolScoped() {
		t.w.Line("@autoreleasepool {")
		t.blockBody(x.Body)
		t.w.Line("}")
	}
	t.w.Dedent()
	if !v.IsPoolScoped() {
		t.blockBody(x.Body)
	}
	t.continueLabel(label)
	t.w.Line("}")
	t.w.Dedent()
	t.w.Line("}")
	t.breakLabel(label)
}

// switchStmt writes a switch. A case whose first statement declares a
// variable gets its own braces, closed before the next label.
func (t *Translator) switchStmt(x *jast.Switch) {
	tag := x.Tag.ExprType()
	var tagText string
	switch {
	case jast.IsString(tag.Erasure()):
		t.fail(x, "switch on a String value")
	case tag.IsEnum():
		tagText = "[" + t.receiver(x.Tag) + " ordinal]"
	default:
		tagText = t.condition(x.Tag)
	}
	t.w.Line("switch (%s) {", tagText)
	t.w.Indent()
	body := x.Body
	for len(body) > 0 {
		for len(body) > 0 {
			c, ok := body[0].(*jast.Case)
			if !ok {
				break
			}
			t.w.SyncLine(c.Line)
			if c.Value == nil {
				t.w.Line("default:")
			} else {
				t.w.Line("case %s:", t.caseValue(c.Value))
			}
			body = body[1:]
		}
		end := 0
		for end < len(body) {
			if _, ok := body[end].(*jast.Case); ok {
				break
			}
			end++
		}
		run := body[:end]
		body = body[end:]
		if len(run) == 0 {
			continue
		}
		_, scoped := run[0].(*jast.VarDecl)
		if scoped {
			t.w.Line("{")
		}
		t.blockBody(&jast.Block{Stmts: run})
		if scoped {
			t.w.Line("}")
		}
	}
	t.w.Dedent()
	t.w.Line("}")
}

func (t *Translator) caseValue(e jast.Expr) string {
	if n, ok := unparen(e).(*jast.SimpleName); ok && n.Var.EnumConstant {
		return t.names.EnumConstantName(n.Var)
	}
	if q, ok := unparen(e).(*jast.QualifiedName); ok && q.Var.EnumConstant {
		return t.names.EnumConstantName(q.Var)
	}
	return t.toPrimitive(e)
}

func (t *Translator) returnStmt(x *jast.Return) {
	switch {
	case t.method != nil && t.method.Constructor:
		t.w.Line("return self;")
	case x.Value == nil:
		t.w.Line("return;")
	case t.method == nil:
		t.fail(x, "return outside a method")
	default:
		t.w.Line("return %s;", t.coerce(x.Value, t.method.Return))
	}
}

func (t *Translator) tryStmt(x *jast.Try) {
	t.w.Line("@try {")
	t.blockBody(x.Body)
	t.w.Line("}")
	for _, c := range x.Catches {
		t.w.SyncLine(c.Line)
		t.w.Line("@catch (%s) {", t.types.Declaration(c.Param.Type, t.names.Name(c.Param)))
		t.blockBody(c.Body)
		t.w.Line("}")
	}
	if x.Finally != nil {
		t.w.Line("@finally {")
		t.blockBody(x.Finally)
		t.w.Line("}")
	}
}

// assertion lowers assert to NSAssert. Without a message the failure text
// quotes the statement's source.
func (t *Translator) assertion(x *jast.Assert) string {
	cond := t.condition(x.Cond)
	if x.Message != nil {
		return fmt.Sprintf("NSAssert(%s, @\"%%@\", %s)", cond, t.coerce(x.Message, jast.Object))
	}
	src := "assert"
	if x.Start >= 0 && x.End <= len(t.unit.Source) && x.Start < x.End {
		src = t.unit.Source[x.Start:x.End]
	}
	msg := fmt.Sprintf("%s:%d condition failed: %s", t.unit.File, x.Line, src)
	return fmt.Sprintf("NSAssert(%s, @\"%s\")", cond, t.escape(x, msg, true))
}
