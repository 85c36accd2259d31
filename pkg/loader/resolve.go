package loader

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// frame is one block scope. owner is the type whose code declares the
// frame's locals; a local reached from a nested type's code is captured.
type frame struct {
	vars   map[string]*jast.VariableBinding
	types  map[string]*jast.TypeBinding // local classes
	owner  *jast.TypeBinding
	parent *frame
}

// env is the lexical environment of the code being loaded
type env struct {
	typ    *jast.TypeBinding
	method *jast.MethodBinding // nil in field and block initializers
	static bool
	vars   *frame
}

// push returns a copy of e with a fresh innermost scope.
func (e *env) push() *env {
	owner := e.typ
	return &env{typ: e.typ, method: e.method, static: e.static, vars: &frame{owner: owner, parent: e.vars}}
}

func (e *env) declare(v *jast.VariableBinding) {
	if e.vars == nil {
		e.vars = &frame{owner: e.typ}
	}
	if e.vars.vars == nil {
		e.vars.vars = map[string]*jast.VariableBinding{}
	}
	e.vars.vars[v.Name] = v
}

func (e *env) declareType(t *jast.TypeBinding) {
	if e.vars == nil {
		e.vars = &frame{owner: e.typ}
	}
	if e.vars.types == nil {
		e.vars.types = map[string]*jast.TypeBinding{}
	}
	e.vars.types[t.Name] = t
}

// resolveType parses a type expression: a primitive, a simple, member or
// qualified name, or a type variable, with optional generic arguments
// (erased) and "[]" suffixes.
func (l *Loader) resolveType(n *yaml.Node, s string, e *env) *jast.TypeBinding {
	s = strings.TrimSpace(eraseArgs(s))
	dims := 0
	for strings.HasSuffix(s, "[]") {
		dims++
		s = strings.TrimSpace(strings.TrimSuffix(s, "[]"))
	}
	t := l.baseType(n, s, e)
	for ; dims > 0; dims-- {
		t = jast.ArrayOf(t)
	}
	return t
}

// eraseArgs drops generic argument lists: "Map<K, List<V>>[]" -> "Map[]".
func eraseArgs(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var sb strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (l *Loader) baseType(n *yaml.Node, s string, e *env) *jast.TypeBinding {
	if s == "" {
		l.failf(n, "empty type")
	}
	if p, ok := jast.PrimitiveByName(s); ok {
		return p
	}
	if tv := l.typeVar(s, e); tv != nil {
		return tv
	}
	if t := l.lookupType(s, e); t != nil {
		return t
	}
	l.failf(n, "unknown type %s", s)
	return nil
}

func (l *Loader) typeVar(name string, e *env) *jast.TypeBinding {
	if e == nil {
		return nil
	}
	if e.method != nil {
		if tv := l.typeVars[e.method][name]; tv != nil {
			return tv
		}
	}
	for t := e.typ; t != nil; t = t.Outer {
		if tv := l.typeVars[t][name]; tv != nil {
			return tv
		}
		if t.EnclosingMethod != nil {
			if tv := l.typeVars[t.EnclosingMethod][name]; tv != nil {
				return tv
			}
		}
	}
	return nil
}

// lookupType finds a declared type by simple, member-path or qualified name.
func (l *Loader) lookupType(name string, e *env) *jast.TypeBinding {
	first, rest, dotted := strings.Cut(name, ".")
	if dotted {
		if t := l.types[name]; t != nil {
			return t
		}
		if t, ok := jast.WellKnown(name); ok {
			return t
		}
		t := l.lookupType(first, e)
		for t != nil && rest != "" {
			var seg string
			seg, rest, _ = strings.Cut(rest, ".")
			t = l.members[t][seg]
		}
		return t
	}
	if e != nil {
		for f := e.vars; f != nil; f = f.parent {
			if t := f.types[name]; t != nil {
				return t
			}
		}
		for t := e.typ; t != nil; t = t.Outer {
			if t.Name == name && !t.Anonymous {
				return t
			}
			if m := l.memberType(t, name); m != nil {
				return m
			}
		}
	}
	if t := l.simple[name]; t != nil {
		return t
	}
	if l.unit != nil && l.unit.Package != "" {
		if t := l.types[l.unit.Package+"."+name]; t != nil {
			return t
		}
	}
	for _, pkg := range []string{"java.lang.", "java.util."} {
		if t, ok := jast.WellKnown(pkg + name); ok {
			return t
		}
	}
	return nil
}

// memberType finds a member type of t or of one of its supertypes.
func (l *Loader) memberType(t *jast.TypeBinding, name string) *jast.TypeBinding {
	seen := map[*jast.TypeBinding]bool{}
	var walk func(*jast.TypeBinding) *jast.TypeBinding
	walk = func(t *jast.TypeBinding) *jast.TypeBinding {
		if t == nil || seen[t] {
			return nil
		}
		seen[t] = true
		if m := l.members[t][name]; m != nil {
			return m
		}
		for _, s := range l.supertypes(t) {
			if m := walk(s); m != nil {
				return m
			}
		}
		return nil
	}
	return walk(t)
}

// lookupVar resolves an identifier to a local, parameter or field visible
// from e. A local of an enclosing method becomes a capture of every local
// or anonymous type between the use and the declaration.
func (l *Loader) lookupVar(name string, e *env) *jast.VariableBinding {
	for f := e.vars; f != nil; f = f.parent {
		v := f.vars[name]
		if v == nil {
			continue
		}
		if f.owner != e.typ {
			for t := e.typ; t != nil && t != f.owner; t = t.Outer {
				if t.Local || t.Anonymous {
					addCapture(t, v)
				}
			}
		}
		return v
	}
	for t := e.typ; t != nil; t = t.Outer {
		if v := l.findField(t, name); v != nil {
			return v
		}
	}
	return nil
}

func addCapture(t *jast.TypeBinding, v *jast.VariableBinding) {
	for _, c := range t.Captures {
		if c == v {
			return
		}
	}
	t.Captures = append(t.Captures, v)
}

// findField looks name up in t and its supertypes.
func (l *Loader) findField(t *jast.TypeBinding, name string) *jast.VariableBinding {
	seen := map[*jast.TypeBinding]bool{}
	var walk func(*jast.TypeBinding) *jast.VariableBinding
	walk = func(t *jast.TypeBinding) *jast.VariableBinding {
		if t == nil || seen[t] {
			return nil
		}
		seen[t] = true
		for _, v := range l.fieldsOf(t) {
			if v.Name == name {
				return v
			}
		}
		for _, s := range l.supertypes(t) {
			if v := walk(s); v != nil {
				return v
			}
		}
		return nil
	}
	return walk(t.Erasure())
}

// findMethod picks the method of t (or a supertype) named name that accepts
// args, preferring an exact parameter match.
func (l *Loader) findMethod(t *jast.TypeBinding, name string, args []jast.Expr) *jast.MethodBinding {
	var best *jast.MethodBinding
	seen := map[*jast.TypeBinding]bool{}
	var walk func(*jast.TypeBinding) bool
	walk = func(t *jast.TypeBinding) bool {
		if t == nil || seen[t] {
			return false
		}
		seen[t] = true
		for _, m := range l.methodsOf(t) {
			if m.Constructor || m.Name != name || !applicable(m, args) {
				continue
			}
			if exact(m, args) {
				best = m
				return true
			}
			if best == nil {
				best = m
			}
		}
		for _, s := range l.supertypes(t) {
			if walk(s) {
				return true
			}
		}
		if t.IsInterface() {
			return walk(jast.Object)
		}
		return false
	}
	walk(t.Erasure())
	return best
}

// findCtor picks the constructor of t accepting args. For types outside the
// unit without a matching declaration it synthesizes one from the argument
// types.
func (l *Loader) findCtor(n *yaml.Node, t *jast.TypeBinding, args []jast.Expr) *jast.MethodBinding {
	var best *jast.MethodBinding
	for _, m := range l.methodsOf(t) {
		if !m.Constructor || !applicable(m, args) {
			continue
		}
		if exact(m, args) {
			return m
		}
		if best == nil {
			best = m
		}
	}
	if best != nil || l.inUnit[t] {
		return best
	}
	m := &jast.MethodBinding{Name: t.Name, DeclaringType: t, Constructor: true, Return: jast.PrimitiveType(jast.Void), Modifiers: jast.ModPublic}
	for _, a := range args {
		m.Params = append(m.Params, widenLiteral(a.ExprType()))
	}
	l.addMethod(t, m)
	return m
}

func widenLiteral(t *jast.TypeBinding) *jast.TypeBinding {
	if t.IsNull() {
		return jast.Object
	}
	return t
}

func applicable(m *jast.MethodBinding, args []jast.Expr) bool {
	params := m.Params
	if m.Varargs && len(params) > 0 {
		fixed := len(params) - 1
		if len(args) < fixed {
			return false
		}
		for i := 0; i < fixed; i++ {
			if !assignable(args[i].ExprType(), params[i]) {
				return false
			}
		}
		if len(args) == len(params) && assignable(args[fixed].ExprType(), params[fixed]) {
			return true
		}
		elem := params[fixed].Elem
		for _, a := range args[fixed:] {
			if !assignable(a.ExprType(), elem) {
				return false
			}
		}
		return true
	}
	if len(args) != len(params) {
		return false
	}
	for i, a := range args {
		if !assignable(a.ExprType(), params[i]) {
			return false
		}
	}
	return true
}

func exact(m *jast.MethodBinding, args []jast.Expr) bool {
	if len(args) != len(m.Params) {
		return false
	}
	for i, a := range args {
		if a.ExprType().Erasure().QualifiedName() != m.Params[i].Erasure().QualifiedName() {
			return false
		}
	}
	return true
}

// primitive widening order; char widens to int and beyond only
var widening = map[jast.PrimitiveKind]int{
	jast.Byte: 1, jast.Short: 2, jast.Char: 2, jast.Int: 3, jast.Long: 4, jast.Float: 5, jast.Double: 6,
}

// assignable reports whether a value of type from may be passed where to is
// expected, allowing widening, boxing and unboxing.
func assignable(from, to *jast.TypeBinding) bool {
	from, to = from.Erasure(), to.Erasure()
	switch {
	case from.IsPrimitive() && to.IsPrimitive():
		if from.Primitive == to.Primitive {
			return true
		}
		if from.Primitive == jast.Boolean || to.Primitive == jast.Boolean {
			return false
		}
		if to.Primitive == jast.Char {
			return false
		}
		if from.Primitive == jast.Char && to.Primitive == jast.Short {
			return false
		}
		return widening[from.Primitive] < widening[to.Primitive]
	case from.IsPrimitive():
		box := jast.BoxType(from.Primitive)
		return box != nil && box.IsSubtypeOf(to)
	case to.IsPrimitive():
		k, ok := jast.UnboxedKind(from)
		return ok && assignable(jast.PrimitiveType(k), to)
	case from.IsNull():
		return true
	case jast.IsObject(to):
		return true
	case from.IsArray() || to.IsArray():
		return from.IsArray() && to.IsArray() && assignable(from.Elem, to.Elem)
	}
	return from.IsSubtypeOf(to)
}

// numericKind returns the primitive kind of t after unboxing.
func numericKind(t *jast.TypeBinding) (jast.PrimitiveKind, bool) {
	if t.IsPrimitive() {
		return t.Primitive, t.Primitive != jast.Void
	}
	return jast.UnboxedKind(t)
}

// unaryPromote applies unary numeric promotion.
func unaryPromote(t *jast.TypeBinding) *jast.TypeBinding {
	k, ok := numericKind(t)
	if !ok {
		return t
	}
	switch k {
	case jast.Byte, jast.Short, jast.Char:
		return jast.PrimitiveType(jast.Int)
	}
	return jast.PrimitiveType(k)
}

// binaryPromote applies binary numeric promotion across operands.
func binaryPromote(types ...*jast.TypeBinding) *jast.TypeBinding {
	result := jast.Int
	for _, t := range types {
		k, ok := numericKind(t)
		if !ok {
			continue
		}
		switch {
		case k == jast.Double:
			result = jast.Double
		case k == jast.Float && result != jast.Double:
			result = jast.Float
		case k == jast.Long && result == jast.Int:
			result = jast.Long
		case k == jast.Boolean:
			return jast.PrimitiveType(jast.Boolean)
		}
	}
	return jast.PrimitiveType(result)
}

// constant returns the compile-time value of a static final primitive or
// String field: the explicit "constant" key, or a literal initializer.
func (l *Loader) constant(fs *fieldSpec, v *jast.VariableBinding) any {
	if !v.Modifiers.Has(jast.ModStatic) || !v.Modifiers.Has(jast.ModFinal) {
		return nil
	}
	t := v.Type
	if !t.IsPrimitive() && !jast.IsString(t) {
		return nil
	}
	n := &fs.Constant
	neg := false
	if !present(n) {
		lit := &fs.Init
		if lit.Kind == yaml.MappingNode && len(lit.Content) >= 2 && lit.Content[0].Value == "unary" {
			u := lit.Content[1]
			if op := mapValue(u, "op"); op == nil || op.Value != "-" {
				return nil
			}
			lit, neg = mapValue(u, "x"), true
			if lit == nil {
				return nil
			}
		}
		n = literalNode(lit)
		if n == nil {
			return nil
		}
	}
	value, ok := constantValue(n, t)
	if !ok {
		l.failf(n, "bad constant %q for %s", n.Value, v.Name)
	}
	if neg {
		switch x := value.(type) {
		case int64:
			value = -x
		case float64:
			value = -x
		default:
			return nil
		}
	}
	return value
}

// literalNode returns the scalar holding a literal expression's value, or
// nil when n is not a literal.
func literalNode(n *yaml.Node) *yaml.Node {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float", "!!bool":
			return n
		}
	case yaml.MappingNode:
		if len(n.Content) < 2 {
			return nil
		}
		switch n.Content[0].Value {
		case "int", "long", "float", "double", "num", "bool", "char", "string":
			return n.Content[1]
		}
	}
	return nil
}

func constantValue(n *yaml.Node, t *jast.TypeBinding) (any, bool) {
	s := n.Value
	if jast.IsString(t) {
		return s, true
	}
	switch k := t.Primitive; {
	case k == jast.Boolean:
		b, err := strconv.ParseBool(s)
		return b, err == nil
	case k == jast.Char:
		if r, size := utf8.DecodeRuneInString(s); size == len(s) && size > 0 && n.ShortTag() != "!!int" {
			return r, true
		}
		v, err := parseInt(s)
		return rune(v), err == nil
	case k.IsIntegral():
		v, err := parseInt(s)
		return v, err == nil
	case k.IsFloating():
		v, err := strconv.ParseFloat(strings.TrimRight(s, "fFdD"), 64)
		return v, err == nil
	}
	return nil, false
}

func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimRight(s, "lL"), "_", "")
	if len(s) > 1 && s[0] == '0' && !strings.ContainsAny(s[1:2], "xXbBoO") {
		s = "0o" + s[1:]
	}
	u, err := strconv.ParseUint(s, 0, 64)
	return int64(u), err
}

// mapValue returns the value of key in mapping n, or nil.
func mapValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
