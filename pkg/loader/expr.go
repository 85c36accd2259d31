package loader

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// tagOf returns the kind key of a node map and its value.
func tagOf(n *yaml.Node) (string, *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return "", nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i].Value; k != "line" {
			return k, n.Content[i+1]
		}
	}
	return "", nil
}

// setLine updates the current source line from a node's "line" key.
func (l *Loader) setLine(n *yaml.Node) {
	if v := mapValue(n, "line"); v != nil {
		line, err := strconv.Atoi(v.Value)
		if err != nil {
			l.failf(v, "bad line %q", v.Value)
		}
		l.line = line
	}
}

func (l *Loader) pos() jast.Pos { return jast.Pos{Line: l.line} }

func (l *Loader) decode(n *yaml.Node, v any) {
	if err := n.Decode(v); err != nil {
		l.failf(n, "%v", err)
	}
}

func (l *Loader) exprs(list []yaml.Node, e *env) []jast.Expr {
	var out []jast.Expr
	for i := range list {
		out = append(out, l.expr(&list[i], e))
	}
	return out
}

// initExpr loads an initializer, where a bare sequence is an array
// initializer of typ.
func (l *Loader) initExpr(n *yaml.Node, e *env, typ *jast.TypeBinding) jast.Expr {
	if n.Kind == yaml.SequenceNode {
		if !typ.IsArray() {
			l.failf(n, "array initializer for %s", typ.Name)
		}
		return l.arrayInit(n.Content, e, typ)
	}
	return l.expr(n, e)
}

func (l *Loader) arrayInit(elems []*yaml.Node, e *env, typ *jast.TypeBinding) *jast.ArrayInit {
	ai := &jast.ArrayInit{Pos: l.pos(), Typ: typ}
	for _, el := range elems {
		ai.Elems = append(ai.Elems, l.initExpr(el, e, typ.Elem))
	}
	return ai
}

func (l *Loader) expr(n *yaml.Node, e *env) jast.Expr {
	if !present(n) && n.Kind != yaml.ScalarNode {
		l.failf(n, "missing expression")
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return l.scalar(n, e)
	case yaml.MappingNode:
	default:
		l.failf(n, "expression must be a scalar or a map")
	}
	l.setLine(n)
	tag, v := tagOf(n)
	switch tag {
	case "null":
		return &jast.NullLit{Pos: l.pos()}
	case "bool":
		b, err := strconv.ParseBool(v.Value)
		if err != nil {
			l.failf(v, "bad bool %q", v.Value)
		}
		return &jast.BoolLit{Pos: l.pos(), Value: b}
	case "char":
		r, size := utf8.DecodeRuneInString(v.Value)
		if size == 0 || size != len(v.Value) {
			l.failf(v, "char literal %q is not one character", v.Value)
		}
		return &jast.CharLit{Pos: l.pos(), Value: r}
	case "string":
		return &jast.StringLit{Pos: l.pos(), Value: v.Value}
	case "num":
		return &jast.NumberLit{Pos: l.pos(), Token: v.Value, Typ: numberType(v.Value)}
	case "int", "long", "float", "double":
		p, _ := jast.PrimitiveByName(tag)
		return &jast.NumberLit{Pos: l.pos(), Token: v.Value, Typ: p}
	case "name":
		return l.name(v, v.Value, e)
	case "this":
		return l.this(v, e)
	case "field":
		return l.fieldAccess(v, e)
	case "index":
		var x indexNode
		l.decode(v, &x)
		arr := l.expr(&x.Array, e)
		if !arr.ExprType().IsArray() {
			l.failf(v, "indexing a non-array %s", arr.ExprType().Name)
		}
		return &jast.ArrayAccess{Pos: l.pos(), Array: arr, Index: l.expr(&x.Index, e)}
	case "length":
		arr := l.expr(v, e)
		if !arr.ExprType().IsArray() {
			l.failf(v, "length of a non-array %s", arr.ExprType().Name)
		}
		return &jast.ArrayLength{Pos: l.pos(), Array: arr}
	case "newArray":
		return l.newArray(v, e)
	case "array":
		var x arrayNode
		l.decode(v, &x)
		typ := l.resolveType(v, x.Type, e)
		if !typ.IsArray() {
			l.failf(v, "array initializer of non-array %s", typ.Name)
		}
		elems := make([]*yaml.Node, len(x.Elems))
		for i := range x.Elems {
			elems[i] = &x.Elems[i]
		}
		return l.arrayInit(elems, e, typ)
	case "call":
		return l.call(v, e)
	case "new":
		return l.construct(v, e)
	case "binary":
		return l.binary(v, e)
	case "unary":
		var x unaryNode
		l.decode(v, &x)
		operand := l.expr(&x.X, e)
		return &jast.Unary{Pos: l.pos(), Op: jast.Operator(x.Op), Operand: operand, Typ: unaryType(jast.Operator(x.Op), operand.ExprType())}
	case "postfix":
		var x unaryNode
		l.decode(v, &x)
		operand := l.expr(&x.X, e)
		return &jast.Postfix{Pos: l.pos(), Op: jast.Operator(x.Op), Operand: operand, Typ: operand.ExprType()}
	case "cond":
		var x condNode
		l.decode(v, &x)
		c := &jast.Conditional{Pos: l.pos(), Cond: l.expr(&x.Cond, e), Then: l.expr(&x.Then, e), Else: l.expr(&x.Else, e)}
		c.Typ = conditionalType(c.Then.ExprType(), c.Else.ExprType())
		return c
	case "assign":
		var x assignNode
		l.decode(v, &x)
		op := jast.OpAssign
		if x.Op != "" {
			op = jast.Operator(x.Op)
		}
		lhs := l.expr(&x.To, e)
		return &jast.Assign{Pos: l.pos(), Op: op, LHS: lhs, RHS: l.initExpr(&x.Value, e, lhs.ExprType())}
	case "cast":
		var x typedNode
		l.decode(v, &x)
		return &jast.Cast{Pos: l.pos(), Typ: l.resolveType(v, x.Type, e), X: l.expr(&x.X, e)}
	case "instanceof":
		var x typedNode
		l.decode(v, &x)
		return &jast.InstanceOf{Pos: l.pos(), X: l.expr(&x.X, e), Target: l.resolveType(v, x.Type, e)}
	case "classLit":
		return &jast.ClassLit{Pos: l.pos(), Target: l.resolveType(v, v.Value, e)}
	case "paren":
		return &jast.Paren{Pos: l.pos(), X: l.expr(v, e)}
	}
	l.failf(n, "unknown expression %q", tag)
	return nil
}

// scalar loads the shorthand forms: numbers, booleans, null and dotted names.
func (l *Loader) scalar(n *yaml.Node, e *env) jast.Expr {
	switch n.ShortTag() {
	case "!!int":
		return &jast.NumberLit{Pos: l.pos(), Token: n.Value, Typ: jast.PrimitiveType(jast.Int)}
	case "!!float":
		return &jast.NumberLit{Pos: l.pos(), Token: n.Value, Typ: jast.PrimitiveType(jast.Double)}
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return &jast.BoolLit{Pos: l.pos(), Value: b}
	case "!!null":
		return &jast.NullLit{Pos: l.pos()}
	}
	if n.Value == "this" {
		return &jast.ThisExpr{Pos: l.pos(), Typ: e.typ}
	}
	return l.name(n, n.Value, e)
}

// numberType infers a literal's type from its suffix and form.
func numberType(tok string) *jast.TypeBinding {
	hex := strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X")
	last := tok[len(tok)-1:]
	switch {
	case strings.EqualFold(last, "l"):
		return jast.PrimitiveType(jast.Long)
	case hex:
		if strings.ContainsAny(tok, "pP") {
			return jast.PrimitiveType(jast.Double)
		}
		return jast.PrimitiveType(jast.Int)
	case strings.EqualFold(last, "f"):
		return jast.PrimitiveType(jast.Float)
	case strings.EqualFold(last, "d"), strings.ContainsAny(tok, ".eE"):
		return jast.PrimitiveType(jast.Double)
	}
	return jast.PrimitiveType(jast.Int)
}

// name resolves a dotted name: a variable or type followed by fields,
// member types or an array length.
func (l *Loader) name(n *yaml.Node, s string, e *env) jast.Expr {
	x := l.lookupName(s, e)
	if x == nil {
		l.failf(n, "unknown name %s", s)
	}
	return x
}

func (l *Loader) lookupName(s string, e *env) jast.Expr {
	segs := strings.Split(s, ".")
	var x jast.Expr
	rest := segs[1:]
	if v := l.lookupVar(segs[0], e); v != nil {
		x = &jast.SimpleName{Pos: l.pos(), Var: v}
	} else {
		// the longest prefix naming a type
		for i := len(segs); i > 0; i-- {
			if t := l.lookupType(strings.Join(segs[:i], "."), e); t != nil {
				x, rest = &jast.TypeName{Pos: l.pos(), Type: t}, segs[i:]
				break
			}
		}
	}
	if x == nil {
		return nil
	}
	for _, seg := range rest {
		t := x.ExprType()
		if seg == "length" && t.IsArray() {
			x = &jast.ArrayLength{Pos: l.pos(), Array: x}
			continue
		}
		v := l.findField(t, seg)
		if v == nil {
			return nil
		}
		x = &jast.QualifiedName{Pos: l.pos(), Qualifier: x, Var: v}
	}
	return x
}

func (l *Loader) this(n *yaml.Node, e *env) jast.Expr {
	if !present(n) || n.Value == "" {
		return &jast.ThisExpr{Pos: l.pos(), Typ: e.typ}
	}
	q := l.resolveType(n, n.Value, e)
	return &jast.ThisExpr{Pos: l.pos(), Qualifier: q, Typ: q}
}

func (l *Loader) fieldAccess(n *yaml.Node, e *env) jast.Expr {
	var x fieldNode
	l.decode(n, &x)
	if x.Super {
		if e.typ.Super == nil {
			l.failf(n, "super.%s in %s without a superclass", x.Name, e.typ.Name)
		}
		v := l.findField(e.typ.Super, x.Name)
		if v == nil {
			l.failf(n, "no field %s in %s", x.Name, e.typ.Super.Name)
		}
		return &jast.FieldAccess{Pos: l.pos(), Var: v, Super: true}
	}
	of := l.expr(&x.Of, e)
	t := of.ExprType()
	if x.Name == "length" && t.IsArray() {
		return &jast.ArrayLength{Pos: l.pos(), Array: of}
	}
	v := l.findField(t, x.Name)
	if v == nil {
		l.failf(n, "no field %s in %s", x.Name, t.Name)
	}
	if _, isType := of.(*jast.TypeName); isType {
		return &jast.QualifiedName{Pos: l.pos(), Qualifier: of, Var: v}
	}
	return &jast.FieldAccess{Pos: l.pos(), X: of, Var: v}
}

func (l *Loader) newArray(n *yaml.Node, e *env) jast.Expr {
	var x newArrayNode
	l.decode(n, &x)
	typ := l.resolveType(n, x.Type, e)
	if !typ.IsArray() {
		l.failf(n, "newArray of non-array %s", typ.Name)
	}
	ac := &jast.ArrayCreation{Pos: l.pos(), Typ: typ, Dims: l.exprs(x.Dims, e)}
	if len(ac.Dims) > typ.Dimensions() {
		l.failf(n, "%d dimensions for %s", len(ac.Dims), typ.Name)
	}
	if present(&x.Init) {
		if x.Init.Kind != yaml.SequenceNode {
			l.failf(&x.Init, "array initializer must be a sequence")
		}
		ac.Init = l.arrayInit(x.Init.Content, e, typ)
	}
	if len(ac.Dims) == 0 && ac.Init == nil {
		l.failf(n, "newArray without dimensions or initializer")
	}
	return ac
}

func (l *Loader) call(n *yaml.Node, e *env) jast.Expr {
	var x callNode
	l.decode(n, &x)
	if x.Method == "" {
		l.failf(n, "call without a method")
	}
	mc := &jast.MethodCall{Pos: l.pos(), Super: x.Super}
	var owner *jast.TypeBinding
	static := x.Static
	switch {
	case x.Super:
		owner = e.typ.Super
		if owner == nil {
			owner = jast.Object
		}
	case present(&x.Recv):
		mc.Receiver = l.expr(&x.Recv, e)
		owner = mc.Receiver.ExprType().Erasure()
		if _, isType := mc.Receiver.(*jast.TypeName); isType {
			static = true
		}
		if owner.IsArray() {
			owner = jast.Object
		}
	}
	mc.Args = l.exprs(x.Args, e)

	if owner != nil {
		mc.Method = l.findMethod(owner, x.Method, mc.Args)
	} else {
		// unqualified: the innermost enclosing type declaring the method
		for t := e.typ; t != nil && mc.Method == nil; t = t.Outer {
			mc.Method = l.findMethod(t, x.Method, mc.Args)
		}
		owner = e.typ
	}
	if mc.Method == nil {
		mc.Method = l.externalMethod(n, &x, owner, mc.Args, static, e)
	}
	if static && !mc.Method.IsStatic() {
		l.failf(n, "instance method %s called through type %s", x.Method, owner.Name)
	}
	return mc
}

// externalMethod binds a method the unit does not declare, on the nearest
// type outside the unit: an explicit signature if given, otherwise the
// argument types.
func (l *Loader) externalMethod(n *yaml.Node, x *callNode, owner *jast.TypeBinding, args []jast.Expr, static bool, e *env) *jast.MethodBinding {
	if static && l.inUnit[owner] {
		l.failf(n, "no method %s(%d args) in %s", x.Method, len(args), owner.Name)
	}
	t := owner
	for t != nil && l.inUnit[t] {
		t = t.Super
	}
	if t == nil {
		t = jast.Object
	}
	m := &jast.MethodBinding{Name: x.Method, DeclaringType: t, Modifiers: jast.ModPublic}
	if static {
		m.Modifiers |= jast.ModStatic
	}
	if x.Params != nil {
		for _, p := range x.Params {
			m.Params = append(m.Params, l.resolveType(n, p, e))
		}
		if !applicable(m, args) {
			l.failf(n, "arguments do not match %s(%s)", x.Method, strings.Join(x.Params, ", "))
		}
	} else {
		for _, a := range args {
			m.Params = append(m.Params, widenLiteral(a.ExprType()))
		}
	}
	m.Return = jast.PrimitiveType(jast.Void)
	if x.Returns != "" {
		m.Return = l.resolveType(n, x.Returns, e)
	}
	l.addMethod(t, m)
	return m
}

func (l *Loader) construct(n *yaml.Node, e *env) jast.Expr {
	var x newNode
	l.decode(n, &x)
	typ := l.resolveType(n, x.Type, e)
	nw := &jast.New{Pos: l.pos(), Typ: typ, Args: l.exprs(x.Args, e)}
	if present(&x.Outer) {
		nw.Outer = l.expr(&x.Outer, e)
	}
	if x.Body != nil {
		nw.Body, nw.Ctor = l.anonymous(n, x.Body, typ, nw.Args, e)
		return nw
	}
	if typ.IsInterface() || typ.Modifiers.Has(jast.ModAbstract) {
		l.failf(n, "cannot instantiate %s", typ.Name)
	}
	nw.Ctor = l.findCtor(n, typ, nw.Args)
	if nw.Ctor == nil {
		l.failf(n, "no constructor of %s takes these %d arguments", typ.Name, len(nw.Args))
	}
	return nw
}

func (l *Loader) binary(n *yaml.Node, e *env) jast.Expr {
	var x binaryNode
	l.decode(n, &x)
	b := &jast.Binary{Pos: l.pos(), Op: jast.Operator(x.Op)}
	operands := x.Operands
	if len(operands) == 0 {
		operands = []yaml.Node{x.Left, x.Right}
	}
	if len(operands) < 2 {
		l.failf(n, "%s needs two operands", x.Op)
	}
	ops := l.exprs(operands, e)
	b.Left, b.Right, b.Extended = ops[0], ops[1], ops[2:]
	b.Typ = binaryType(b.Op, ops)
	return b
}

func binaryType(op jast.Operator, ops []jast.Expr) *jast.TypeBinding {
	types := make([]*jast.TypeBinding, len(ops))
	for i, o := range ops {
		types[i] = o.ExprType()
	}
	switch op {
	case jast.OpEq, jast.OpNe, jast.OpLt, jast.OpGt, jast.OpLe, jast.OpGe, jast.OpLAnd, jast.OpLOr:
		return jast.PrimitiveType(jast.Boolean)
	case jast.OpAdd:
		for _, t := range types {
			if jast.IsString(t) {
				return jast.String
			}
		}
	case jast.OpShl, jast.OpShr, jast.OpUshr:
		return unaryPromote(types[0])
	case jast.OpAnd, jast.OpOr, jast.OpXor:
		if k, ok := numericKind(types[0]); ok && k == jast.Boolean {
			return jast.PrimitiveType(jast.Boolean)
		}
	}
	return binaryPromote(types...)
}

func unaryType(op jast.Operator, t *jast.TypeBinding) *jast.TypeBinding {
	switch op {
	case jast.OpNot:
		return jast.PrimitiveType(jast.Boolean)
	case jast.OpInc, jast.OpDec:
		return t
	}
	return unaryPromote(t)
}

func conditionalType(a, b *jast.TypeBinding) *jast.TypeBinding {
	switch {
	case a == b:
		return a
	case a.IsNull():
		return b
	case b.IsNull():
		return a
	}
	_, an := numericKind(a)
	_, bn := numericKind(b)
	if an && bn && (a.IsPrimitive() || b.IsPrimitive()) {
		return binaryPromote(a, b)
	}
	if assignable(a, b) {
		return b
	}
	return a
}
