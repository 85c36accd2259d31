package translate

import (
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
)

// outerPath returns the expression reaching the instance of target (or a
// subtype of it) from the current type: "self", "this$0_", or a chain such
// as "this$0_->this$0_". Inside a constructor's delegating call the first hop
// is the outer$ parameter, since this$0_ is assigned only afterwards.
func (t *Translator) outerPath(n jast.Node, target *jast.TypeBinding, inCtorCall bool) string {
	path := "self"
	cur := t.typ
	for cur != nil && !cur.IsSubtypeOf(target) {
		if !cur.HasOuterInstance() {
			t.fail(n, "no enclosing instance of %s in %s", target.Name, cur.Name)
		}
		switch {
		case path == "self" && inCtorCall:
			path = jast.OuterParamName
		case path == "self":
			path = names.OuterIvar
		default:
			path += "->" + names.OuterIvar
		}
		cur = cur.Outer
	}
	if cur == nil {
		t.fail(n, "no enclosing instance of %s", target.Name)
	}
	return path
}

// captureOwner finds the innermost type, starting at the current one, that
// holds v as a captured local. It returns nil when v is an ordinary local of
// the method being translated.
func (t *Translator) captureOwner(v *jast.VariableBinding) *jast.TypeBinding {
	if v.Field || (t.method != nil && v.DeclaringMethod == t.method) {
		return nil
	}
	for cur := t.typ; cur != nil; cur = cur.Outer {
		for _, c := range cur.Captures {
			if c == v {
				return cur
			}
		}
	}
	return nil
}

// local returns the text reading local variable or parameter v.
func (t *Translator) local(n jast.Node, v *jast.VariableBinding) string {
	owner := t.captureOwner(v)
	if owner == nil {
		return t.names.Name(v)
	}
	path := t.outerPath(n, owner, false)
	if path == "self" {
		return names.CaptureIvar(v)
	}
	return path + "->" + names.CaptureIvar(v)
}

// capturedValue returns the value to pass for captured local c when
// constructing a local or anonymous class from the current scope.
func (t *Translator) capturedValue(n jast.Node, c *jast.VariableBinding) string {
	return t.local(n, c)
}

// capturedReceiver reads captured local v, held in a capture instance
// variable, for use as a message receiver.
func (t *Translator) capturedReceiver(n jast.Node, v *jast.VariableBinding) string {
	text := t.local(n, v)
	site := memory.Site{
		Kind:    memory.Read,
		Storage: memory.InstanceField,
		Class:   memory.ClassOf(v.Type),
		Capture: true,
	}
	if t.cfg.Policy.Decide(site) == memory.NilCheck {
		return "nil_chk(" + text + ")"
	}
	return recvText(text)
}

// staticField returns the text reading static field v.
func (t *Translator) staticField(v *jast.VariableBinding) string {
	if v.IsPrimitiveConstant() {
		return t.names.ConstantName(v)
	}
	if t.InUnit(v.DeclaringType) {
		return t.names.StaticVarName(v)
	}
	return "[" + t.names.FullName(v.DeclaringType) + " " + t.names.Name(v) + "]"
}

// isSelfRef reports whether e denotes the current instance or its super view.
func isSelfRef(e jast.Expr) bool {
	switch x := unparen(e).(type) {
	case *jast.ThisExpr:
		return x.Qualifier == nil
	}
	return false
}

// fieldRef returns the text reading field v through qualifier x (nil for an
// unqualified reference). asReceiver requests a nil-check guard where the
// memory policy asks for one.
func (t *Translator) fieldRef(n jast.Node, x jast.Expr, v *jast.VariableBinding, asReceiver bool) string {
	if v.IsStatic() {
		return t.staticField(v)
	}
	var text string
	implicit := x == nil || isSelfRef(x)
	if this, ok := unparenThis(x); ok && this.Qualifier != nil {
		path := t.outerPath(n, this.Qualifier, false)
		text = t.memberOf(path, v)
	} else if implicit {
		path := t.outerPath(n, v.DeclaringType, false)
		text = t.memberOf(path, v)
	} else {
		text = t.memberOf(t.receiver(x), v)
	}
	if !asReceiver {
		return text
	}
	site := memory.Site{
		Kind:    memory.Read,
		Storage: memory.InstanceField,
		Class:   memory.ClassOf(v.Type),
		Weak:    v.IsWeak(),
		Guarded: implicit && t.guards[v] > 0,
	}
	if t.cfg.Policy.Decide(site) == memory.NilCheck {
		return "nil_chk(" + text + ")"
	}
	return text
}

func unparenThis(x jast.Expr) (*jast.ThisExpr, bool) {
	if x == nil {
		return nil, false
	}
	this, ok := unparen(x).(*jast.ThisExpr)
	return this, ok
}

// memberOf reads field v of the object denoted by recv.
func (t *Translator) memberOf(recv string, v *jast.VariableBinding) string {
	if recv == "self" {
		return t.names.IvarName(v)
	}
	if t.cfg.InlineFieldAccess {
		return recvText(recv) + "->" + t.names.IvarName(v)
	}
	return "[" + recvText(recv) + " " + t.names.Name(v) + "]"
}

// receiver translates e for use as a message receiver, guarding field reads.
func (t *Translator) receiver(e jast.Expr) string {
	switch x := unparen(e).(type) {
	case *jast.SimpleName:
		if x.Var.Field {
			return t.fieldRef(x, nil, x.Var, true)
		}
		if t.captureOwner(x.Var) != nil {
			return t.capturedReceiver(x, x.Var)
		}
	case *jast.QualifiedName:
		if x.Var.Field {
			if _, isType := x.Qualifier.(*jast.TypeName); isType {
				return t.fieldRef(x, nil, x.Var, true)
			}
			return t.fieldRef(x, x.Qualifier, x.Var, true)
		}
	case *jast.FieldAccess:
		if !x.Super {
			return t.fieldRef(x, x.X, x.Var, true)
		}
	}
	return recvText(t.expr(e))
}

// thisExpr translates this or Outer.this.
func (t *Translator) thisExpr(e *jast.ThisExpr) string {
	if e.Qualifier == nil {
		return "self"
	}
	return t.outerPath(e, e.Qualifier, false)
}

// outerInstance returns the enclosing instance to pass when constructing an
// inner class whose outer type is outer.
func (t *Translator) outerInstance(n jast.Node, outer *jast.TypeBinding, inCtorCall bool) string {
	return t.outerPath(n, outer, inCtorCall)
}

// nonNullTests returns the fields a condition proves non-nil when true:
// "f != null", "null != f" and conjunctions of them.
func nonNullTests(cond jast.Expr) []*jast.VariableBinding {
	b, ok := unparen(cond).(*jast.Binary)
	if !ok {
		return nil
	}
	switch b.Op {
	case jast.OpLAnd:
		var out []*jast.VariableBinding
		for _, op := range b.Operands() {
			out = append(out, nonNullTests(op)...)
		}
		return out
	case jast.OpNe:
		l, r := unparen(b.Left), unparen(b.Right)
		if _, isNull := l.(*jast.NullLit); isNull {
			l, r = r, l
		}
		if _, isNull := r.(*jast.NullLit); !isNull {
			return nil
		}
		if v := implicitField(l); v != nil {
			return []*jast.VariableBinding{v}
		}
	}
	return nil
}

// implicitField returns the field e reads on the current instance, if any.
func implicitField(e jast.Expr) *jast.VariableBinding {
	switch x := e.(type) {
	case *jast.SimpleName:
		if x.Var.Field && !x.Var.IsStatic() {
			return x.Var
		}
	case *jast.FieldAccess:
		if !x.Super && isSelfRef(x.X) && !x.Var.IsStatic() {
			return x.Var
		}
	}
	return nil
}

// guard marks vars as non-nil until the returned function is called.
func (t *Translator) guard(vars []*jast.VariableBinding) func() {
	for _, v := range vars {
		t.guards[v]++
	}
	return func() {
		for _, v := range vars {
			t.guards[v]--
		}
	}
}
