package translate

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// lvalue is an assignable location.
type lvalue struct {
	typ    *jast.TypeBinding
	get    string // reads the current value
	direct bool   // get is itself a C lvalue
	set    func(value string) string
	site   memory.Site

	// declarations evaluating side-effecting parts of the target once
	prelude []string
}

func (t *Translator) lvalue(e jast.Expr) lvalue {
	switch x := unparen(e).(type) {
	case *jast.SimpleName:
		if !x.Var.Field {
			return lvalue{
				typ:    x.Var.Type,
				get:    t.local(x, x.Var),
				direct: true,
				site:   memory.Site{Storage: memory.Local, Class: memory.ClassOf(x.Var.Type)},
			}
		}
		return t.fieldLvalue(x, nil, x.Var)
	case *jast.QualifiedName:
		if _, isType := x.Qualifier.(*jast.TypeName); isType || x.Var.IsStatic() {
			return t.fieldLvalue(x, nil, x.Var)
		}
		return t.fieldLvalue(x, x.Qualifier, x.Var)
	case *jast.FieldAccess:
		if x.Super || x.Var.IsStatic() {
			return t.fieldLvalue(x, nil, x.Var)
		}
		return t.fieldLvalue(x, x.X, x.Var)
	case *jast.ArrayAccess:
		return t.elementLvalue(x)
	}
	t.fail(e, "cannot assign to %T", e)
	return lvalue{}
}

func setterName(v string) string {
	return "set" + names.Capitalize(v) + ":"
}

func (t *Translator) fieldLvalue(n jast.Node, x jast.Expr, v *jast.VariableBinding) lvalue {
	lv := lvalue{
		typ:  v.Type,
		site: memory.Site{Storage: memory.InstanceField, Class: memory.ClassOf(v.Type), Weak: v.IsWeak()},
	}
	if v.IsStatic() {
		if v.IsPrimitiveConstant() {
			t.fail(n, "assignment to constant %s", v.Name)
		}
		lv.site.Storage = memory.StaticField
		if t.InUnit(v.DeclaringType) {
			lv.get, lv.direct = t.names.StaticVarName(v), true
			return lv
		}
		cls := t.names.FullName(v.DeclaringType)
		lv.get = "[" + cls + " " + t.names.Name(v) + "]"
		lv.set = func(value string) string {
			return "[" + cls + " " + setterName(t.names.Name(v)) + value + "]"
		}
		return lv
	}

	var recv string
	switch this, ok := unparenThis(x); {
	case x == nil:
		recv = t.outerPath(n, v.DeclaringType, false)
	case ok && this.Qualifier != nil:
		recv = t.outerPath(n, this.Qualifier, false)
	case ok:
		recv = "self"
	case HasSideEffects(x):
		lv.prelude = append(lv.prelude, t.types.Declaration(x.ExprType(), "obj__")+" = "+t.expr(x))
		recv = "nil_chk(obj__)"
	default:
		recv = t.receiver(x)
	}

	switch {
	case recv == "self":
		lv.get, lv.direct = t.names.IvarName(v), true
	case t.cfg.InlineFieldAccess:
		lv.get, lv.direct = recvText(recv)+"->"+t.names.IvarName(v), true
	default:
		r := recvText(recv)
		lv.get = "[" + r + " " + t.names.Name(v) + "]"
		lv.set = func(value string) string {
			return "[" + r + " " + setterName(t.names.Name(v)) + value + "]"
		}
	}
	return lv
}

func (t *Translator) elementLvalue(x *jast.ArrayAccess) lvalue {
	arr, idx := x.Array, x.Index
	var prelude []string
	if HasSideEffects(arr) || HasSideEffects(idx) {
		arrType := arr.ExprType()
		intType := jast.PrimitiveType(jast.Int)
		prelude = append(prelude,
			t.types.Declaration(arrType, "array__")+" = "+t.expr(arr),
			"int index__ = "+t.toPrimitive(idx))
		arr = &jast.SimpleName{Pos: x.Pos, Var: jast.NewSyntheticVariable("array__", arrType)}
		idx = &jast.SimpleName{Pos: x.Pos, Var: jast.NewSyntheticVariable("index__", intType)}
	}
	elem := x.ExprType()
	recv := t.receiver(arr)
	index := t.toPrimitive(idx)
	replace, with := typemap.ElementSetter(elem)
	return lvalue{
		typ: elem,
		get: "[" + recv + " " + typemap.ElementGetter(elem) + index + "]",
		set: func(value string) string {
			return "[" + recv + " " + replace + index + " " + with + value + "]"
		},
		site:    memory.Site{Storage: memory.Local, Class: memory.ClassOf(elem)},
		prelude: prelude,
	}
}

// arrayRead translates arr[i].
func (t *Translator) arrayRead(x *jast.ArrayAccess) string {
	elem := x.ExprType()
	return "[" + t.receiver(x.Array) + " " + typemap.ElementGetter(elem) + t.toPrimitive(x.Index) + "]"
}

func valueKind(e jast.Expr) memory.Value {
	switch unparen(e).(type) {
	case *jast.NullLit:
		return memory.Null
	case *jast.New:
		return memory.Fresh
	}
	return memory.Other
}

// store writes value into lv, applying the memory policy to direct field
// stores. valueExpr is the source of value, or nil when value is computed.
func (t *Translator) store(n jast.Node, lv lvalue, value string, valueExpr jast.Expr) string {
	if !lv.direct {
		return lv.set(value)
	}
	site := lv.site
	site.Kind = memory.Assign
	site.Value = memory.Other
	if valueExpr != nil {
		site.Value = valueKind(valueExpr)
	}
	switch t.cfg.Policy.Decide(site) {
	case memory.NoOp:
		return lv.get + " = " + value
	case memory.RetainAssign:
		return fmt.Sprintf("([%s autorelease], %s = [%s retain])", lv.get, lv.get, recvText(value))
	case memory.CopyAssign:
		return fmt.Sprintf("([%s autorelease], %s = [%s copy])", lv.get, lv.get, recvText(value))
	case memory.ReleaseThenAssign:
		return fmt.Sprintf("([%s release], %s = %s)", lv.get, lv.get, value)
	}
	t.fail(n, "unexpected store action")
	return ""
}

// withPrelude wraps text in a statement expression when lv hoisted
// temporaries.
func withPrelude(lv lvalue, text string) string {
	if len(lv.prelude) == 0 {
		return text
	}
	return "({ " + strings.Join(lv.prelude, "; ") + "; " + text + "; })"
}

// assign translates simple and compound assignment.
func (t *Translator) assign(a *jast.Assign) string {
	lv := t.lvalue(a.LHS)
	if bin, ok := a.Op.Compound(); ok {
		return t.compound(a, lv, bin, a.RHS)
	}
	return withPrelude(lv, t.store(a, lv, t.assignedValue(lv, a.RHS), a.RHS))
}

// assignedValue translates the right-hand side of a store into lv. A new
// object stored straight into a retaining field is not autoreleased.
func (t *Translator) assignedValue(lv lvalue, rhs jast.Expr) string {
	if n, ok := unparen(rhs).(*jast.New); ok {
		site := lv.site
		site.Kind = memory.Construct
		site.IntoStorage = lv.direct
		return t.construct(n, site)
	}
	return t.coerce(rhs, lv.typ)
}

// compound translates "lhs op= rhs". Direct primitive targets keep the
// operator; everything else is decomposed into read, operate and store.
func (t *Translator) compound(n jast.Node, lv lvalue, op jast.Operator, rhs jast.Expr) string {
	typ := lv.typ
	if jast.IsString(typ.Erasure()) {
		value := t.concatPieces(n, []piece{{text: lv.get, typ: typ}, t.piece(rhs)})
		return withPrelude(lv, t.store(n, lv, value, nil))
	}
	prim := typ
	if k, ok := jast.UnboxedKind(typ.Erasure()); ok {
		prim = jast.PrimitiveType(k)
	}
	if !prim.IsPrimitive() {
		t.fail(n, "compound assignment %s= on %s", op, typ.Name)
	}
	floatRem := op == jast.OpRem && prim.Primitive.IsFloating()
	if lv.direct && typ.IsPrimitive() && op != jast.OpUshr && !floatRem {
		return withPrelude(lv, lv.get+" "+string(op)+"= "+t.operand(t.toPrimitive(rhs)))
	}
	rt := resultType(op, prim, unboxed(rhs), prim)
	value := t.binaryText(op, t.operand(t.convert(lv.get, typ, prim)), t.operand(t.toPrimitive(rhs)), rt)
	if rt.Primitive != prim.Primitive {
		value = t.types.Cast(prim) + "(" + value + ")"
	}
	return withPrelude(lv, t.store(n, lv, t.convert(value, prim, typ), nil))
}

// FieldInit translates the initializer of field f as a store statement,
// without the trailing semicolon. Constructors use it for instance fields
// and +initialize for static ones.
func (t *Translator) FieldInit(f *jast.FieldDecl) string {
	if f.Init == nil {
		t.fail(f, "field %s has no initializer", f.Var.Name)
	}
	a := &jast.Assign{Pos: f.Pos, Op: jast.OpAssign, LHS: &jast.SimpleName{Pos: f.Pos, Var: f.Var}, RHS: f.Init}
	return t.discarded(a)
}
