package jast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false the children of that node are skipped.
// Anonymous and local class bodies are traversed like any other child.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) || !f(n) {
		return
	}
	for _, c := range children(n) {
		Inspect(c, f)
	}
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *TypeDecl:
		return v == nil
	case *ArrayInit:
		return v == nil
	}
	return false
}

func exprNodes(list []Expr) []Node {
	out := make([]Node, 0, len(list))
	for _, e := range list {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil && !isNilNode(c) {
				out = append(out, c)
			}
		}
	}
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addStmt := func(s Stmt) {
		if s != nil {
			out = append(out, s)
		}
	}
	switch v := n.(type) {
	case *QualifiedName:
		addExpr(v.Qualifier)
	case *FieldAccess:
		addExpr(v.X)
	case *ArrayAccess:
		addExpr(v.Array)
		addExpr(v.Index)
	case *ArrayLength:
		addExpr(v.Array)
	case *ArrayCreation:
		out = append(out, exprNodes(v.Dims)...)
		if v.Init != nil {
			add(v.Init)
		}
	case *ArrayInit:
		out = append(out, exprNodes(v.Elems)...)
	case *MethodCall:
		addExpr(v.Receiver)
		out = append(out, exprNodes(v.Args)...)
	case *New:
		addExpr(v.Outer)
		out = append(out, exprNodes(v.Args)...)
		if v.Body != nil {
			add(v.Body)
		}
	case *Binary:
		out = append(out, exprNodes(v.Operands())...)
	case *Unary:
		addExpr(v.Operand)
	case *Postfix:
		addExpr(v.Operand)
	case *Conditional:
		addExpr(v.Cond)
		addExpr(v.Then)
		addExpr(v.Else)
	case *Assign:
		addExpr(v.LHS)
		addExpr(v.RHS)
	case *Cast:
		addExpr(v.X)
	case *InstanceOf:
		addExpr(v.X)
	case *Paren:
		addExpr(v.X)
	case *VarDeclExpr:
		for _, f := range v.Fragments {
			addExpr(f.Init)
		}

	case *Block:
		for _, s := range v.Stmts {
			addStmt(s)
		}
	case *ExprStmt:
		addExpr(v.X)
	case *VarDecl:
		for _, f := range v.Fragments {
			addExpr(f.Init)
		}
	case *If:
		addExpr(v.Cond)
		addStmt(v.Then)
		addStmt(v.Else)
	case *While:
		addExpr(v.Cond)
		addStmt(v.Body)
	case *DoWhile:
		addStmt(v.Body)
		addExpr(v.Cond)
	case *For:
		out = append(out, exprNodes(v.Init)...)
		addExpr(v.Cond)
		out = append(out, exprNodes(v.Update)...)
		addStmt(v.Body)
	case *ForEach:
		addExpr(v.X)
		addStmt(v.Body)
	case *Switch:
		addExpr(v.Tag)
		for _, s := range v.Body {
			addStmt(s)
		}
	case *Case:
		addExpr(v.Value)
	case *Return:
		addExpr(v.Value)
	case *Throw:
		addExpr(v.X)
	case *Try:
		add(v.Body)
		for _, c := range v.Catches {
			add(c)
		}
		if v.Finally != nil {
			add(v.Finally)
		}
	case *CatchClause:
		add(v.Body)
	case *Synchronized:
		addExpr(v.Lock)
		add(v.Body)
	case *Labeled:
		addStmt(v.Body)
	case *LocalTypeDecl:
		add(v.Decl)
	case *Assert:
		addExpr(v.Cond)
		addExpr(v.Message)
	case *SuperCtorCall:
		addExpr(v.Outer)
		out = append(out, exprNodes(v.Args)...)
	case *ThisCtorCall:
		out = append(out, exprNodes(v.Args)...)

	case *TypeDecl:
		for _, c := range v.Constants {
			add(c)
		}
		for _, f := range v.Fields {
			add(f)
		}
		for _, i := range v.Initializers {
			add(i)
		}
		for _, m := range v.Methods {
			add(m)
		}
		for _, t := range v.Types {
			add(t)
		}
	case *FieldDecl:
		addExpr(v.Init)
	case *MethodDecl:
		if v.Body != nil {
			add(v.Body)
		}
	case *EnumConstant:
		out = append(out, exprNodes(v.Args)...)
		if v.Body != nil {
			add(v.Body)
		}
	case *Initializer:
		add(v.Body)
	}
	return out
}

// AllTypes returns every type declared in the unit, including member, local
// and anonymous classes, in declaration (pre-)order.
func AllTypes(unit *CompilationUnit) []*TypeDecl {
	var out []*TypeDecl
	for _, t := range unit.Types {
		Inspect(t, func(n Node) bool {
			if td, ok := n.(*TypeDecl); ok {
				out = append(out, td)
			}
			return true
		})
	}
	return out
}

// PrimaryType returns the public top-level type whose name matches the
// unit's file name, falling back to the first top-level type.
func (u *CompilationUnit) PrimaryType() *TypeDecl {
	if len(u.Types) == 0 {
		return nil
	}
	base := u.File
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	if n := len(base); n > 5 && base[n-5:] == ".java" {
		base = base[:n-5]
	}
	for _, t := range u.Types {
		if t.Binding.Name == base {
			return t
		}
	}
	return u.Types[0]
}
