package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// stmtList loads a statement sequence (or a single statement) in e's scope.
func (l *Loader) stmtList(n *yaml.Node, e *env) []jast.Stmt {
	if !present(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return []jast.Stmt{l.stmt(n, e)}
	}
	out := make([]jast.Stmt, 0, len(n.Content))
	for _, s := range n.Content {
		out = append(out, l.stmt(s, e))
	}
	return out
}

// block loads n as a braced block with its own scope.
func (l *Loader) block(n *yaml.Node, e *env) *jast.Block {
	b := &jast.Block{Pos: l.pos()}
	b.Stmts = l.stmtList(n, e.push())
	return b
}

// body loads the body of a compound statement: a sequence is a block, a map
// a single statement in its own scope.
func (l *Loader) body(n *yaml.Node, e *env) jast.Stmt {
	if n.Kind == yaml.SequenceNode || !present(n) {
		return l.block(n, e)
	}
	return l.stmt(n, e.push())
}

func (l *Loader) stmt(n *yaml.Node, e *env) jast.Stmt {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return &jast.Break{Pos: l.pos()}
		case "continue":
			return &jast.Continue{Pos: l.pos()}
		case "return":
			return &jast.Return{Pos: l.pos()}
		case "empty":
			return &jast.Empty{Pos: l.pos()}
		}
		l.failf(n, "unknown statement %q", n.Value)
	}
	if n.Kind == yaml.SequenceNode {
		return l.block(n, e)
	}
	l.setLine(n)
	tag, v := tagOf(n)
	switch tag {
	case "block":
		return l.block(v, e)
	case "expr":
		return &jast.ExprStmt{Pos: l.pos(), X: l.expr(v, e)}
	case "var":
		return &jast.VarDecl{Pos: l.pos(), Fragments: l.varDecl(v, e)}
	case "if":
		var x condNode
		l.decode(v, &x)
		s := &jast.If{Pos: l.pos(), Cond: l.expr(&x.Cond, e), Then: l.body(&x.Then, e)}
		if present(&x.Else) {
			s.Else = l.body(&x.Else, e)
		}
		return s
	case "while":
		var x forNode
		l.decode(v, &x)
		return &jast.While{Pos: l.pos(), Cond: l.expr(&x.Cond, e), Body: l.body(&x.Body, e)}
	case "do":
		var x forNode
		l.decode(v, &x)
		s := &jast.DoWhile{Pos: l.pos(), Body: l.body(&x.Body, e)}
		s.Cond = l.expr(&x.Cond, e)
		return s
	case "for":
		return l.forLoop(v, e)
	case "foreach":
		return l.forEach(v, e)
	case "switch":
		return l.switchStmt(v, e)
	case "case", "default":
		l.failf(v, "%s outside switch", tag)
	case "break":
		return &jast.Break{Pos: l.pos(), Label: label(v)}
	case "continue":
		return &jast.Continue{Pos: l.pos(), Label: label(v)}
	case "return":
		s := &jast.Return{Pos: l.pos()}
		if present(v) {
			if e.method != nil && !e.method.Return.IsVoid() {
				s.Value = l.initExpr(v, e, e.method.Return)
			} else {
				s.Value = l.expr(v, e)
			}
		}
		return s
	case "throw":
		return &jast.Throw{Pos: l.pos(), X: l.expr(v, e)}
	case "try":
		return l.try(v, e)
	case "synchronized":
		var x syncNode
		l.decode(v, &x)
		return &jast.Synchronized{Pos: l.pos(), Lock: l.expr(&x.Lock, e), Body: l.block(&x.Body, e)}
	case "labeled":
		var x labeledNode
		l.decode(v, &x)
		if x.Label == "" {
			l.failf(v, "labeled statement without a label")
		}
		return &jast.Labeled{Pos: l.pos(), Label: x.Label, Body: l.body(&x.Body, e)}
	case "empty":
		return &jast.Empty{Pos: l.pos()}
	case "class":
		var ts typeSpec
		l.decode(v, &ts)
		return &jast.LocalTypeDecl{Pos: l.pos(), Decl: l.localType(v, &ts, e)}
	case "assert":
		var x assertNode
		l.decode(v, &x)
		s := &jast.Assert{Pos: l.pos(), Cond: l.expr(&x.Cond, e)}
		if present(&x.Message) {
			s.Message = l.expr(&x.Message, e)
		}
		if len(x.Span) == 2 {
			s.Start, s.End = x.Span[0], x.Span[1]
		}
		return s
	case "superCall":
		return l.superCall(v, e)
	case "thisCall":
		var x ctorCallNode
		l.decode(v, &x)
		args := l.exprs(x.Args, e)
		ctor := l.findCtor(v, e.typ, args)
		if ctor == nil {
			l.failf(v, "no constructor of %s takes these %d arguments", e.typ.Name, len(args))
		}
		return &jast.ThisCtorCall{Pos: l.pos(), Ctor: ctor, Args: args}
	}
	// an expression used as a statement
	return &jast.ExprStmt{Pos: l.pos(), X: l.expr(n, e)}
}

func label(n *yaml.Node) string {
	if !present(n) {
		return ""
	}
	return n.Value
}

// varDecl declares the variables of a var node in e, each after its
// initializer is loaded.
func (l *Loader) varDecl(n *yaml.Node, e *env) []*jast.VarFragment {
	var x varNode
	l.decode(n, &x)
	typ := l.resolveType(n, x.Type, e)
	frags := x.Vars
	if x.Name != "" {
		frags = append([]fragNode{{Name: x.Name, Init: x.Init}}, frags...)
	}
	if len(frags) == 0 {
		l.failf(n, "var without a name")
	}
	mods := l.modifiers(x.Modifiers)
	var out []*jast.VarFragment
	for i := range frags {
		f := &frags[i]
		frag := &jast.VarFragment{}
		if present(&f.Init) {
			frag.Init = l.initExpr(&f.Init, e, typ)
		}
		frag.Var = &jast.VariableBinding{
			Name:            f.Name,
			Type:            typ,
			DeclaringMethod: e.method,
			Modifiers:       mods,
			Annotations:     x.Annotations,
		}
		e.declare(frag.Var)
		out = append(out, frag)
	}
	return out
}

func (l *Loader) forLoop(n *yaml.Node, e *env) jast.Stmt {
	var x forNode
	l.decode(n, &x)
	fe := e.push()
	s := &jast.For{Pos: l.pos()}
	switch {
	case !present(&x.Init):
	case x.Init.Kind == yaml.MappingNode && mapValue(&x.Init, "var") != nil:
		s.Init = []jast.Expr{&jast.VarDeclExpr{Pos: l.pos(), Fragments: l.varDecl(mapValue(&x.Init, "var"), fe)}}
	case x.Init.Kind == yaml.SequenceNode:
		for _, i := range x.Init.Content {
			s.Init = append(s.Init, l.expr(i, fe))
		}
	default:
		s.Init = []jast.Expr{l.expr(&x.Init, fe)}
	}
	if present(&x.Cond) {
		s.Cond = l.expr(&x.Cond, fe)
	}
	switch {
	case !present(&x.Update):
	case x.Update.Kind == yaml.SequenceNode:
		for _, u := range x.Update.Content {
			s.Update = append(s.Update, l.expr(u, fe))
		}
	default:
		s.Update = []jast.Expr{l.expr(&x.Update, fe)}
	}
	s.Body = l.body(&x.Body, fe)
	return s
}

func (l *Loader) forEach(n *yaml.Node, e *env) jast.Stmt {
	var x foreachNode
	l.decode(n, &x)
	s := &jast.ForEach{Pos: l.pos(), X: l.expr(&x.In, e)}
	coll := s.X.ExprType()
	if !coll.IsArray() && !coll.Erasure().IsSubtypeOf(jast.Iterable) {
		l.failf(n, "foreach over %s, neither an array nor Iterable", coll.Name)
	}
	fe := e.push()
	s.Var = &jast.VariableBinding{
		Name:            x.Var.Name,
		Type:            l.resolveType(n, x.Var.Type, e),
		DeclaringMethod: e.method,
		Modifiers:       l.modifiers(x.Var.Modifiers),
		Annotations:     x.Var.Annotations,
	}
	fe.declare(s.Var)
	s.Body = l.body(&x.Body, fe)
	return s
}

// switchStmt loads a switch whose body is a flat list of case labels and
// statements. Enum case labels name the constant alone.
func (l *Loader) switchStmt(n *yaml.Node, e *env) jast.Stmt {
	var x switchNode
	l.decode(n, &x)
	s := &jast.Switch{Pos: l.pos(), Tag: l.expr(&x.Expr, e)}
	tagType := s.Tag.ExprType()
	se := e.push()
	for i := range x.Body {
		item := &x.Body[i]
		l.setLine(item)
		tag, v := tagOf(item)
		switch tag {
		case "default":
			s.Body = append(s.Body, &jast.Case{Pos: l.pos()})
		case "case":
			s.Body = append(s.Body, &jast.Case{Pos: l.pos(), Value: l.caseValue(v, tagType, se)})
		default:
			s.Body = append(s.Body, l.stmt(item, se))
		}
	}
	return s
}

func (l *Loader) caseValue(n *yaml.Node, tagType *jast.TypeBinding, e *env) jast.Expr {
	if tagType.IsEnum() && n.Kind == yaml.ScalarNode {
		for _, f := range tagType.Fields {
			if f.EnumConstant && f.Name == n.Value {
				return &jast.SimpleName{Pos: l.pos(), Var: f}
			}
		}
		l.failf(n, "%s is not a constant of %s", n.Value, tagType.Name)
	}
	return l.expr(n, e)
}

func (l *Loader) try(n *yaml.Node, e *env) jast.Stmt {
	var x tryNode
	l.decode(n, &x)
	s := &jast.Try{Pos: l.pos(), Body: l.block(&x.Body, e)}
	for i := range x.Catch {
		c := &x.Catch[i]
		ce := e.push()
		param := &jast.VariableBinding{
			Name:            c.Param.Name,
			Type:            l.resolveType(n, c.Param.Type, e),
			DeclaringMethod: e.method,
			Annotations:     c.Param.Annotations,
		}
		ce.declare(param)
		s.Catches = append(s.Catches, &jast.CatchClause{Pos: l.pos(), Param: param, Body: l.block(&c.Body, ce)})
	}
	if present(&x.Finally) {
		s.Finally = l.block(&x.Finally, e)
	}
	if len(s.Catches) == 0 && s.Finally == nil {
		l.failf(n, "try without catch or finally")
	}
	return s
}

func (l *Loader) superCall(n *yaml.Node, e *env) jast.Stmt {
	var x ctorCallNode
	l.decode(n, &x)
	if e.method == nil || !e.method.Constructor {
		l.failf(n, "super(...) outside a constructor")
	}
	if e.typ.IsEnum() {
		l.failf(n, "super(...) in enum %s", e.typ.Name)
	}
	super := e.typ.Super
	if super == nil {
		super = jast.Object
	}
	s := &jast.SuperCtorCall{Pos: l.pos(), Args: l.exprs(x.Args, e)}
	if present(&x.Outer) {
		s.Outer = l.expr(&x.Outer, e)
	}
	s.Ctor = l.findCtor(n, super, s.Args)
	if s.Ctor == nil {
		l.failf(n, "no constructor of %s takes these %d arguments", super.Name, len(s.Args))
	}
	return s
}

// nestedType binds a local or anonymous class declared in code running in e.
func (l *Loader) nestedType(name string, kind jast.TypeKind, e *env) *jast.TypeBinding {
	t := &jast.TypeBinding{
		Name:            name,
		Package:         e.typ.TopLevel().Package,
		Kind:            kind,
		Outer:           e.typ,
		EnclosingMethod: e.method,
	}
	if e.static {
		t.Modifiers |= jast.ModStatic
	}
	return t
}

// localType declares a local class. Its name is visible in the rest of the
// enclosing block, including its own body.
func (l *Loader) localType(n *yaml.Node, ts *typeSpec, e *env) *jast.TypeDecl {
	if ts.Name == "" {
		l.failf(n, "local class without a name")
	}
	if len(ts.Types) > 0 {
		l.failf(n, "member types of local class %s are not supported", ts.Name)
	}
	kind := l.kind(ts.Kind)
	if kind != jast.KindClass {
		l.failf(n, "local %s %s: only classes may be local", kind, ts.Name)
	}
	t := l.nestedType(ts.Name, kind, e)
	t.Local = true
	t.Modifiers |= l.modifiers(ts.Modifiers)
	t.Annotations = ts.Annotations
	l.register(t)
	e.declareType(t)

	decl := &jast.TypeDecl{Pos: jast.Pos{Line: ts.Line}, Binding: t}
	te := &env{typ: t, method: e.method, vars: e.vars}
	l.signatures(ts, t, decl, te)
	l.linkOverrides(t)
	l.bodies(ts, decl, e.vars)
	return decl
}

// anonymous declares the class body of an instance creation and returns it
// with its constructor, which forwards args to the matching superclass
// constructor.
func (l *Loader) anonymous(n *yaml.Node, ts *typeSpec, base *jast.TypeBinding, args []jast.Expr, e *env) (*jast.TypeDecl, *jast.MethodBinding) {
	if ts.Super != "" || len(ts.Interfaces) > 0 || len(ts.Types) > 0 {
		l.failf(n, "anonymous class body may declare members only")
	}
	t := l.nestedType(l.anonName(e.typ), jast.KindClass, e)
	t.Anonymous = true
	if base.IsInterface() {
		if len(args) > 0 {
			l.failf(n, "anonymous %s takes no arguments", base.Name)
		}
		t.Super = jast.Object
		t.Interfaces = []*jast.TypeBinding{base}
	} else {
		t.Super = base
	}
	l.register(t)

	decl := &jast.TypeDecl{Pos: l.pos(), Binding: t}
	l.signatures(ts, t, decl, &env{typ: t, method: e.method, vars: e.vars})
	for _, m := range t.Methods {
		if m.Constructor {
			l.failf(n, "anonymous class %s declares a constructor", t.Name)
		}
	}

	superCtor := l.findCtor(n, t.Super, args)
	if superCtor == nil {
		l.failf(n, "no constructor of %s takes these %d arguments", t.Super.Name, len(args))
	}
	ctor := &jast.MethodBinding{
		Name:          t.Name,
		DeclaringType: t,
		Constructor:   true,
		Return:        jast.PrimitiveType(jast.Void),
		Params:        append([]*jast.TypeBinding(nil), superCtor.Params...),
		Varargs:       superCtor.Varargs,
	}
	t.Methods = append(t.Methods, ctor)
	md := &jast.MethodDecl{Pos: l.pos(), Binding: ctor}
	call := &jast.SuperCtorCall{Pos: l.pos(), Ctor: superCtor}
	for i, p := range ctor.Params {
		v := &jast.VariableBinding{Name: fmt.Sprintf("arg%d", i), Type: p, DeclaringMethod: ctor, Parameter: true, Synthetic: true}
		md.Params = append(md.Params, v)
		call.Args = append(call.Args, &jast.SimpleName{Pos: l.pos(), Var: v})
	}
	md.Body = &jast.Block{Pos: l.pos(), Stmts: []jast.Stmt{call}}
	decl.Methods = append([]*jast.MethodDecl{md}, decl.Methods...)

	l.linkOverrides(t)
	l.bodies(ts, decl, e.vars)
	return decl, ctor
}
