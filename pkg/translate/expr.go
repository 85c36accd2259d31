package translate

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// expr translates an expression to target text.
func (t *Translator) expr(e jast.Expr) string {
	switch x := e.(type) {
	case *jast.NullLit:
		return "nil"
	case *jast.BoolLit:
		if x.Value {
			return "YES"
		}
		return "NO"
	case *jast.CharLit:
		return charLiteral(x.Value)
	case *jast.NumberLit:
		return numberLiteral(x.Token, x.Typ)
	case *jast.StringLit:
		return t.stringLiteral(x, x.Value)
	case *jast.SimpleName:
		if x.Var.Field {
			return t.fieldRef(x, nil, x.Var, false)
		}
		return t.local(x, x.Var)
	case *jast.QualifiedName:
		if _, isType := x.Qualifier.(*jast.TypeName); isType || x.Var.IsStatic() {
			return t.fieldRef(x, nil, x.Var, false)
		}
		return t.fieldRef(x, x.Qualifier, x.Var, false)
	case *jast.FieldAccess:
		if x.Super || x.Var.IsStatic() {
			return t.fieldRef(x, nil, x.Var, false)
		}
		return t.fieldRef(x, x.X, x.Var, false)
	case *jast.TypeName:
		return t.names.FullName(x.Type)
	case *jast.ThisExpr:
		return t.thisExpr(x)
	case *jast.ArrayAccess:
		return t.arrayRead(x)
	case *jast.ArrayLength:
		return "(int) [" + t.receiver(x.Array) + " count]"
	case *jast.ArrayCreation:
		return t.arrayCreation(x)
	case *jast.ArrayInit:
		return t.arrayInit(x)
	case *jast.MethodCall:
		return t.methodCall(x)
	case *jast.New:
		return t.construct(x, memory.Site{Kind: memory.Construct, Class: memory.Object})
	case *jast.Binary:
		return t.binary(x)
	case *jast.Unary:
		return t.unary(x)
	case *jast.Postfix:
		return t.postfix(x)
	case *jast.Conditional:
		return t.conditional(x)
	case *jast.Assign:
		return t.assign(x)
	case *jast.Cast:
		return t.cast(x)
	case *jast.InstanceOf:
		return t.instanceOf(x)
	case *jast.ClassLit:
		return t.types.ClassObject(x.Target)
	case *jast.Paren:
		inner := t.expr(x.X)
		if isAtom(inner) {
			return inner
		}
		return "(" + inner + ")"
	case *jast.VarDeclExpr:
		return t.varDeclList(x.Fragments)
	case nil:
		t.fail(nil, "missing expression")
	}
	t.fail(e, "unexpected expression %T", e)
	return ""
}

// conditional guards the then branch with the fields the condition proves
// non-nil.
func (t *Translator) conditional(x *jast.Conditional) string {
	cond := t.toPrimitive(x.Cond)
	restore := t.guard(nonNullTests(x.Cond))
	then := t.coerce(x.Then, x.Typ)
	restore()
	els := t.coerce(x.Else, x.Typ)
	return cond + " ? " + then + " : " + els
}

// coerce translates e and converts its value to type to.
func (t *Translator) coerce(e jast.Expr, to *jast.TypeBinding) string {
	return t.convert(t.expr(e), e.ExprType(), to)
}

// convert boxes a primitive value stored into a reference, or unboxes a
// wrapper value used as a primitive.
func (t *Translator) convert(text string, from, to *jast.TypeBinding) string {
	if from == nil || to == nil || from.IsVoid() || to.IsVoid() {
		return text
	}
	switch {
	case from.IsPrimitive() && to.IsReference() && !to.IsNull():
		kind := from.Primitive
		if k, ok := jast.UnboxedKind(to.Erasure()); ok {
			kind = k
		}
		t.boxes[jast.BoxType(kind)] = true
		return "[" + t.types.BoxClass(kind) + " " + typemap.BoxSelector(kind) + text + "]"
	case from.IsReference() && to.IsPrimitive():
		kind, ok := jast.UnboxedKind(from.Erasure())
		if !ok {
			kind = to.Primitive
		}
		t.boxes[jast.BoxType(kind)] = true
		return "[" + recvText(text) + " " + typemap.UnboxSelector(kind) + "]"
	}
	return text
}

// unboxed returns the primitive type e's value has after unboxing, or e's
// own type.
func unboxed(e jast.Expr) *jast.TypeBinding {
	typ := e.ExprType()
	if k, ok := jast.UnboxedKind(typ.Erasure()); ok {
		return jast.PrimitiveType(k)
	}
	return typ
}

// toPrimitive translates e, unboxing a wrapper value.
func (t *Translator) toPrimitive(e jast.Expr) string {
	return t.convert(t.expr(e), e.ExprType(), unboxed(e))
}

// message builds a message send of m to recv with the given argument texts.
func (t *Translator) message(n jast.Node, recv string, m *jast.MethodBinding, args []string) string {
	kws := t.names.Keywords(m)
	if len(args) == 0 {
		return "[" + recv + " " + kws[0] + "]"
	}
	if len(kws) != len(args) {
		t.fail(n, "selector %s takes %d arguments, got %d", t.names.Selector(m), len(kws), len(args))
	}
	var sb strings.Builder
	sb.WriteString("[" + recv)
	for i, a := range args {
		fmt.Fprintf(&sb, " %s:%s", kws[i], a)
	}
	sb.WriteString("]")
	return sb.String()
}

func (t *Translator) methodCall(x *jast.MethodCall) string {
	m := x.Method
	var recv string
	switch {
	case x.Super:
		recv = "super"
	case m.IsStatic():
		recv = t.names.FullName(m.DeclaringType)
		if x.Receiver != nil && HasSideEffects(x.Receiver) {
			t.fail(x, "static call through an expression with side effects")
		}
	case x.Receiver == nil:
		recv = t.outerPath(x, m.DeclaringType, false)
	default:
		recv = t.receiver(x.Receiver)
	}
	return t.message(x, recv, m, t.arguments(x, m, x.Args))
}

// arguments translates call arguments against m's parameter list, boxing
// and packing varargs.
func (t *Translator) arguments(n jast.Node, m *jast.MethodBinding, args []jast.Expr) []string {
	params := m.Params
	if m.Varargs && len(params) > 0 && needsVarargsPacking(params, args) {
		fixed := len(params) - 1
		out := make([]string, 0, len(params))
		for i := 0; i < fixed; i++ {
			out = append(out, t.coerce(args[i], params[i]))
		}
		return append(out, t.packVarargs(params[fixed], args[fixed:]))
	}
	if len(args) != len(params) {
		t.fail(n, "%s takes %d arguments, got %d", m.Name, len(params), len(args))
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = t.coerce(a, params[i])
	}
	return out
}

func needsVarargsPacking(params []*jast.TypeBinding, args []jast.Expr) bool {
	if len(args) != len(params) {
		return true
	}
	last := args[len(args)-1].ExprType()
	if last.IsNull() {
		return false
	}
	return !last.IsArray() || last.Dimensions() < params[len(params)-1].Dimensions()
}

// construct translates an instance creation. site describes where the new
// object goes; the memory policy decides whether it is autoreleased.
func (t *Translator) construct(x *jast.New, site memory.Site) string {
	typ := x.Typ
	if x.Body != nil {
		typ = x.Body.Binding
		n := 0
		for _, m := range x.Body.Methods {
			if !m.Binding.Constructor {
				n++
			}
		}
		if n > 1 {
			t.fail(x, "anonymous class with %d methods", n)
		}
	}
	ctor := x.Ctor
	if ctor == nil {
		t.fail(x, "construction of %s without a resolved constructor", typ.Name)
	}
	args := t.constructorArgs(x, ctor, x.Outer, x.Args, false)
	text := t.message(x, "["+t.names.FullName(typ)+" alloc]", ctor, args)
	if t.cfg.Policy.Decide(site) == memory.Autorelease {
		return "[" + text + " autorelease]"
	}
	return text
}

// constructorArgs builds the full argument list of a constructor call:
// enclosing instance, declared arguments, captured locals and, inside an enum
// constructor, the pass-through name and ordinal.
func (t *Translator) constructorArgs(n jast.Node, ctor *jast.MethodBinding, outer jast.Expr, args []jast.Expr, inCtorCall bool) []string {
	var out []string
	for _, p := range jast.LeadingParams(ctor) {
		if outer != nil {
			out = append(out, t.expr(outer))
		} else {
			out = append(out, t.outerInstance(n, p.Type, inCtorCall))
		}
	}
	out = append(out, t.arguments(n, ctor, args)...)
	for _, p := range jast.TrailingParams(ctor) {
		switch {
		case p.Capture != nil:
			if inCtorCall && t.typ != nil && capturesVar(t.typ, p.Capture) {
				out = append(out, "capture$"+p.Capture.Name)
			} else {
				out = append(out, t.capturedValue(n, p.Capture))
			}
		case inCtorCall:
			out = append(out, p.Name)
		default:
			t.fail(n, "enum constructor %s called outside enum initialization", ctor.Name)
		}
	}
	return out
}

func capturesVar(typ *jast.TypeBinding, v *jast.VariableBinding) bool {
	for _, c := range typ.Captures {
		if c == v {
			return true
		}
	}
	return false
}

// CtorInvocation translates the leading super(...) or this(...) call of a
// constructor into the initializer message assigned to self. A nil call
// stands for the implicit super().
func (t *Translator) CtorInvocation(call jast.Stmt) string {
	switch c := call.(type) {
	case *jast.SuperCtorCall:
		return t.message(c, "super", c.Ctor, t.constructorArgs(c, c.Ctor, c.Outer, c.Args, true))
	case *jast.ThisCtorCall:
		return t.message(c, "self", c.Ctor, t.constructorArgs(c, c.Ctor, nil, c.Args, true))
	case nil:
		if t.typ.IsEnum() && !t.typ.Anonymous {
			return "[super initWithNSString:" + jast.EnumNameParam + " withInt:" + jast.EnumOrdinalParam + "]"
		}
		return "[super init]"
	}
	t.fail(call, "unexpected constructor call %T", call)
	return ""
}

// EnumConstruction translates the creation of enum constant c with the
// given ordinal.
func (t *Translator) EnumConstruction(c *jast.EnumConstant, ordinal int) string {
	typ := c.Var.DeclaringType
	if c.Body != nil {
		typ = c.Body.Binding
	}
	ctor := c.Ctor
	if ctor == nil {
		t.fail(c, "enum constant %s without a resolved constructor", c.Var.Name)
	}
	args := t.arguments(c, ctor, c.Args)
	args = append(args, t.stringLiteral(c, c.Var.Name), fmt.Sprint(ordinal))
	return t.message(c, "["+t.names.FullName(typ)+" alloc]", ctor, args)
}

func (t *Translator) cast(x *jast.Cast) string {
	from := x.X.ExprType()
	to := x.Typ
	if to.IsPrimitive() {
		inner := x.X
		text := t.expr(inner)
		if from.IsReference() {
			text = t.convert(text, from, to)
			from = unboxed(inner)
		}
		if from.IsPrimitiveKind(to.Primitive) {
			return text
		}
		return t.types.Cast(to) + recvText(text)
	}
	if from.IsPrimitive() {
		return t.convert(t.expr(x.X), from, to)
	}
	if jast.IsObject(to.Erasure()) {
		return t.expr(x.X)
	}
	return t.types.Cast(to) + recvText(t.expr(x.X))
}

func (t *Translator) instanceOf(x *jast.InstanceOf) string {
	target := x.Target.Erasure()
	val := t.expr(x.X)
	switch {
	case target.IsArray():
		return "[" + t.types.ClassObject(target) + " isInstance:" + val + "]"
	case target.IsInterface():
		return "[" + recvText(val) + " conformsToProtocol:@protocol(" + t.names.FullName(target) + ")]"
	}
	return "[" + recvText(val) + " isKindOfClass:[" + t.names.FullName(target) + " class]]"
}

func (t *Translator) unary(x *jast.Unary) string {
	switch x.Op {
	case jast.OpInc, jast.OpDec:
		return t.increment(x, x.Operand, x.Op, true)
	case jast.OpSub:
		if lit, ok := unparen(x.Operand).(*jast.NumberLit); ok {
			if text, ok := minValueLiteral(lit); ok {
				return text
			}
		}
	}
	operand := t.toPrimitive(x.Operand)
	if !isAtom(operand) {
		operand = "(" + operand + ")"
	}
	return string(x.Op) + operand
}

func (t *Translator) postfix(x *jast.Postfix) string {
	return t.increment(x, x.Operand, x.Op, false)
}

// varDeclList declares for-loop variables: "int i = 0, j = 1".
func (t *Translator) varDeclList(frags []*jast.VarFragment) string {
	var sb strings.Builder
	for i, f := range frags {
		if i == 0 {
			sb.WriteString(t.types.Declaration(f.Var.Type, t.names.Name(f.Var)))
		} else {
			sb.WriteString(", ")
			if strings.HasSuffix(t.types.Reference(f.Var.Type), "*") {
				sb.WriteString("*")
			}
			sb.WriteString(t.names.Name(f.Var))
		}
		if f.Init != nil {
			sb.WriteString(" = " + t.coerce(f.Init, f.Var.Type))
		}
	}
	return sb.String()
}
