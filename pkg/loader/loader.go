// Package loader decodes the frontend's serialized, fully resolved
// compilation units (YAML) into jast trees with canonical bindings.
//
// A document lists the unit's types with their members, and method bodies
// as nested single-key maps tagged by node kind:
//
//	package: com.example
//	file: com/example/Counter.java
//	types:
//	  - name: Counter
//	    fields:
//	      - {name: count, type: int, modifiers: [private]}
//	    methods:
//	      - name: inc
//	        returns: void
//	        body:
//	          - assign: {op: "+=", to: count, value: 1}
//
// Every declaration is bound once, so all references to it share a pointer.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// ErrInvalid matches every loader Error.
var ErrInvalid = errors.New("invalid unit")

// Error is a malformed or unresolvable input. Line is the line of the
// offending YAML node when known.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Is makes errors.Is(err, ErrInvalid) hold for every *Error.
func (e *Error) Is(target error) bool { return target == ErrInvalid }

// Load reads every unit in the file at path.
func Load(path string) ([]*jast.CompilationUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return Decode(path, data)
}

// Decode reads every YAML document in data as one unit. name labels errors.
func Decode(name string, data []byte) ([]*jast.CompilationUnit, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var units []*jast.CompilationUnit
	for {
		var spec unitSpec
		err := dec.Decode(&spec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{File: name, Msg: err.Error()}
		}
		u, err := newLoader(name).load(&spec)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		return nil, &Error{File: name, Msg: "no units"}
	}
	return units, nil
}

// pending pairs a declared type with the spec its members come from.
type pending struct {
	spec *typeSpec
	decl *jast.TypeDecl
}

// Loader builds one unit. It is not safe for concurrent use; units never
// share one.
type Loader struct {
	file string
	unit *jast.CompilationUnit

	types    map[string]*jast.TypeBinding // qualified name
	simple   map[string]*jast.TypeBinding // top-level and external simple names
	members  map[*jast.TypeBinding]map[string]*jast.TypeBinding
	typeVars map[jast.Binding]map[string]*jast.TypeBinding

	// methods and fields known for types whose bindings are shared and must
	// not be mutated (java.lang.String and friends), plus call-site
	// signatures synthesized for external types
	extraMethods map[*jast.TypeBinding][]*jast.MethodBinding
	extraFields  map[*jast.TypeBinding][]*jast.VariableBinding

	inUnit map[*jast.TypeBinding]bool
	decls  []pending
	anon   map[*jast.TypeBinding]int
	specs  map[*jast.MethodDecl]*methodSpec
	line   int // source line of the statement being loaded
}

func newLoader(file string) *Loader {
	return &Loader{
		file:         file,
		types:        map[string]*jast.TypeBinding{},
		simple:       map[string]*jast.TypeBinding{},
		members:      map[*jast.TypeBinding]map[string]*jast.TypeBinding{},
		typeVars:     map[jast.Binding]map[string]*jast.TypeBinding{},
		extraMethods: map[*jast.TypeBinding][]*jast.MethodBinding{},
		extraFields:  map[*jast.TypeBinding][]*jast.VariableBinding{},
		inUnit:       map[*jast.TypeBinding]bool{},
		anon:         map[*jast.TypeBinding]int{},
		specs:        map[*jast.MethodDecl]*methodSpec{},
	}
}

// failf aborts loading with an error at YAML node n (may be nil).
func (l *Loader) failf(n *yaml.Node, format string, args ...any) {
	line := 0
	if n != nil {
		line = n.Line
	}
	panic(&Error{File: l.file, Line: line, Msg: fmt.Sprintf(format, args...)})
}

func (l *Loader) load(spec *unitSpec) (u *jast.CompilationUnit, err error) {
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(*Error)
			if !ok {
				panic(r)
			}
			u, err = nil, le
		}
	}()
	if spec.File == "" {
		l.failf(nil, "unit without a file name")
	}
	l.unit = &jast.CompilationUnit{Package: spec.Package, File: spec.File, Source: spec.Source}

	externals := make([]*jast.TypeBinding, len(spec.Externals))
	for i := range spec.Externals {
		externals[i] = l.declareExternal(&spec.Externals[i])
	}
	for i := range spec.Types {
		l.unit.Types = append(l.unit.Types, l.declare(&spec.Types[i], nil, spec.Package))
	}
	for i, t := range externals {
		l.signatures(&spec.Externals[i], t, nil, &env{typ: t})
	}
	for _, p := range l.decls {
		l.signatures(p.spec, p.decl.Binding, p.decl, &env{typ: p.decl.Binding})
	}
	for _, p := range l.decls {
		l.linkOverrides(p.decl.Binding)
	}
	// bodies may declare local and anonymous types, which load themselves
	for i, td := range l.unit.Types {
		l.bodies(&spec.Types[i], td, nil)
	}
	l.positions(spec)
	return l.unit, nil
}

// declareExternal binds a type defined outside the unit. Shared well-known
// bindings are reused as is.
func (l *Loader) declareExternal(ts *typeSpec) *jast.TypeBinding {
	if t, ok := jast.WellKnown(ts.Name); ok {
		l.simple[t.Name] = t
		return t
	}
	pkg, name := "", ts.Name
	if i := strings.LastIndex(ts.Name, "."); i >= 0 {
		pkg, name = ts.Name[:i], ts.Name[i+1:]
	}
	t := &jast.TypeBinding{
		Name:        name,
		Package:     pkg,
		Kind:        l.kind(ts.Kind),
		Modifiers:   l.modifiers(ts.Modifiers),
		Annotations: ts.Annotations,
	}
	l.types[t.QualifiedName()] = t
	l.simple[name] = t
	return t
}

// declare binds a unit type and its member types.
func (l *Loader) declare(ts *typeSpec, outer *jast.TypeBinding, pkg string) *jast.TypeDecl {
	if ts.Name == "" {
		l.failf(nil, "type without a name")
	}
	t := &jast.TypeBinding{
		Name:        ts.Name,
		Package:     pkg,
		Kind:        l.kind(ts.Kind),
		Outer:       outer,
		Modifiers:   l.modifiers(ts.Modifiers),
		Annotations: ts.Annotations,
	}
	// member interfaces and enums, and every member of an interface, are
	// implicitly static
	if outer != nil && (t.Kind != jast.KindClass || outer.IsInterface()) {
		t.Modifiers |= jast.ModStatic
	}
	l.register(t)
	decl := &jast.TypeDecl{Pos: jast.Pos{Line: ts.Line}, Binding: t}
	l.decls = append(l.decls, pending{spec: ts, decl: decl})
	for i := range ts.Types {
		decl.Types = append(decl.Types, l.declare(&ts.Types[i], t, pkg))
	}
	return decl
}

func (l *Loader) register(t *jast.TypeBinding) {
	l.inUnit[t] = true
	if t.Anonymous || t.Local {
		return
	}
	l.types[t.QualifiedName()] = t
	if t.Outer == nil {
		l.simple[t.Name] = t
		return
	}
	m := l.members[t.Outer]
	if m == nil {
		m = map[string]*jast.TypeBinding{}
		l.members[t.Outer] = m
	}
	m[t.Name] = t
}

func (l *Loader) kind(s string) jast.TypeKind {
	switch s {
	case "", "class":
		return jast.KindClass
	case "interface":
		return jast.KindInterface
	case "enum":
		return jast.KindEnum
	}
	l.failf(nil, "unknown type kind %q", s)
	return 0
}

func (l *Loader) modifiers(words []string) jast.Modifiers {
	var m jast.Modifiers
	for _, w := range words {
		mod, ok := jast.ParseModifier(w)
		if !ok {
			l.failf(nil, "unknown modifier %q", w)
		}
		m |= mod
	}
	return m
}

// declareTypeParams binds the type variables of owner. Bounds may refer to
// the variables themselves, so they resolve after all are bound.
func (l *Loader) declareTypeParams(owner jast.Binding, params []string, e *env) {
	if len(params) == 0 {
		return
	}
	vars := map[string]*jast.TypeBinding{}
	l.typeVars[owner] = vars
	bounds := make([]string, len(params))
	list := make([]*jast.TypeBinding, len(params))
	for i, p := range params {
		name, bound, _ := strings.Cut(p, " extends ")
		name = strings.TrimSpace(name)
		list[i] = &jast.TypeBinding{Name: name, Kind: jast.KindTypeVar}
		vars[name] = list[i]
		bounds[i] = strings.TrimSpace(bound)
	}
	for i, b := range bounds {
		if b != "" {
			list[i].Bound = l.resolveType(nil, b, e)
		}
	}
}

// signatures binds the supertypes, fields, methods and enum constants of t.
// decl is nil for external types.
func (l *Loader) signatures(ts *typeSpec, t *jast.TypeBinding, decl *jast.TypeDecl, e *env) {
	l.declareTypeParams(t, ts.TypeParams, e)

	switch {
	case ts.Super != "":
		t.Super = l.resolveType(nil, ts.Super, e)
	case t.IsEnum():
		t.Super = jast.Enum
	case t.Kind == jast.KindClass && !t.Anonymous && !jast.IsObject(t):
		t.Super = jast.Object
	}
	for _, i := range ts.Interfaces {
		t.Interfaces = append(t.Interfaces, l.resolveType(nil, i, e))
	}

	for i := range ts.Fields {
		fs := &ts.Fields[i]
		v := &jast.VariableBinding{
			Name:          fs.Name,
			Type:          l.resolveType(nil, fs.Type, e),
			DeclaringType: t,
			Field:         true,
			Modifiers:     l.modifiers(fs.Modifiers),
			Annotations:   fs.Annotations,
		}
		if t.IsInterface() {
			v.Modifiers |= jast.ModPublic | jast.ModStatic | jast.ModFinal
		}
		v.Constant = l.constant(fs, v)
		if l.inUnit[t] || !isShared(t) {
			t.Fields = append(t.Fields, v)
		} else {
			l.extraFields[t] = append(l.extraFields[t], v)
		}
		if decl != nil {
			decl.Fields = append(decl.Fields, &jast.FieldDecl{Pos: jast.Pos{Line: fs.Line}, Var: v})
		}
	}

	hasCtor := false
	for i := range ts.Methods {
		ms := &ts.Methods[i]
		m := l.method(ms, t, e)
		hasCtor = hasCtor || m.Constructor
		l.addMethod(t, m)
		if decl == nil {
			continue
		}
		md := &jast.MethodDecl{Pos: jast.Pos{Line: ms.Line}, Binding: m}
		for j, ps := range ms.Params {
			md.Params = append(md.Params, &jast.VariableBinding{
				Name:            ps.Name,
				Type:            m.Params[j],
				DeclaringMethod: m,
				Parameter:       true,
				Annotations:     ps.Annotations,
			})
		}
		l.specs[md] = ms
		decl.Methods = append(decl.Methods, md)
	}
	if !hasCtor && !t.IsInterface() && !t.Anonymous && l.inUnit[t] {
		ctor := &jast.MethodBinding{Name: t.Name, DeclaringType: t, Constructor: true, Return: jast.PrimitiveType(jast.Void)}
		if t.IsEnum() {
			ctor.Modifiers = jast.ModPrivate
		} else {
			ctor.Modifiers = t.Modifiers & (jast.ModPublic | jast.ModProtected | jast.ModPrivate)
		}
		t.Methods = append(t.Methods, ctor)
	}

	if t.IsEnum() {
		l.enumSignatures(ts, t, decl)
	}
}

func isShared(t *jast.TypeBinding) bool {
	w, ok := jast.WellKnown(t.QualifiedName())
	return ok && w == t
}

// addMethod records m as a member of t without mutating shared bindings.
func (l *Loader) addMethod(t *jast.TypeBinding, m *jast.MethodBinding) {
	if isShared(t) {
		l.extraMethods[t] = append(l.extraMethods[t], m)
		return
	}
	t.Methods = append(t.Methods, m)
}

func (l *Loader) method(ms *methodSpec, t *jast.TypeBinding, e *env) *jast.MethodBinding {
	m := &jast.MethodBinding{
		Name:          ms.Name,
		DeclaringType: t,
		Constructor:   ms.Ctor,
		Varargs:       ms.Varargs,
		ObjCName:      ms.ObjCName,
		Annotations:   ms.Annotations,
		Modifiers:     l.modifiers(ms.Modifiers),
	}
	if m.Constructor {
		m.Name = t.Name
		if t.IsEnum() {
			m.Modifiers = m.Modifiers&^(jast.ModPublic|jast.ModProtected) | jast.ModPrivate
		}
	} else if m.Name == "" {
		l.failf(&ms.Body, "method of %s without a name", t.Name)
	}
	if t.IsInterface() && !m.IsStatic() {
		m.Modifiers |= jast.ModPublic
		if !present(&ms.Body) {
			m.Modifiers |= jast.ModAbstract
		}
	}
	l.declareTypeParams(m, ms.TypeParams, &env{typ: t, method: m, vars: e.vars})
	me := &env{typ: t, method: m, vars: e.vars}
	for i, ps := range ms.Params {
		typ := ps.Type
		if strings.HasSuffix(typ, "...") {
			typ = strings.TrimSuffix(typ, "...") + "[]"
			if i == len(ms.Params)-1 {
				m.Varargs = true
			}
		}
		m.Params = append(m.Params, l.resolveType(&ms.Body, typ, me))
	}
	switch {
	case m.Constructor, ms.Returns == "":
		m.Return = jast.PrimitiveType(jast.Void)
	default:
		m.Return = l.resolveType(&ms.Body, ms.Returns, me)
	}
	return m
}

// enumSignatures binds the constants of enum t and its implicit values and
// valueOf class methods.
func (l *Loader) enumSignatures(ts *typeSpec, t *jast.TypeBinding, decl *jast.TypeDecl) {
	for _, cs := range ts.Constants {
		v := &jast.VariableBinding{
			Name:          cs.Name,
			Type:          t,
			DeclaringType: t,
			Field:         true,
			EnumConstant:  true,
			Modifiers:     jast.ModPublic | jast.ModStatic | jast.ModFinal,
		}
		t.Fields = append(t.Fields, v)
		if decl != nil {
			decl.Constants = append(decl.Constants, &jast.EnumConstant{Pos: jast.Pos{Line: cs.Line}, Var: v})
		}
	}
	static := jast.ModPublic | jast.ModStatic
	t.Methods = append(t.Methods,
		&jast.MethodBinding{Name: "values", DeclaringType: t, Return: jast.ArrayOf(t), Modifiers: static},
		&jast.MethodBinding{Name: "valueOf", DeclaringType: t, Return: t, Params: []*jast.TypeBinding{jast.String}, Modifiers: static})
}

// linkOverrides points each instance method of t at the supertype method it
// overrides, so both share one selector.
func (l *Loader) linkOverrides(t *jast.TypeBinding) {
	for _, m := range t.Methods {
		if m.Constructor || m.IsStatic() || m.Overrides != nil {
			continue
		}
		m.Overrides = l.overridden(t, m)
	}
}

func (l *Loader) overridden(t *jast.TypeBinding, m *jast.MethodBinding) *jast.MethodBinding {
	seen := map[*jast.TypeBinding]bool{t: true}
	queue := l.supertypes(t)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if s == nil || seen[s] {
			continue
		}
		seen[s] = true
		for _, cand := range l.methodsOf(s) {
			if !cand.Constructor && !cand.IsStatic() && cand.Name == m.Name && sameParams(cand, m) {
				return cand
			}
		}
		queue = append(queue, l.supertypes(s)...)
	}
	return nil
}

func sameParams(a, b *jast.MethodBinding) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Erasure().QualifiedName() != b.Params[i].Erasure().QualifiedName() {
			return false
		}
	}
	return true
}

func (l *Loader) supertypes(t *jast.TypeBinding) []*jast.TypeBinding {
	var out []*jast.TypeBinding
	if t.Super != nil {
		out = append(out, t.Super)
	}
	return append(out, t.Interfaces...)
}

func (l *Loader) methodsOf(t *jast.TypeBinding) []*jast.MethodBinding {
	if extra := l.extraMethods[t]; len(extra) > 0 {
		return append(append([]*jast.MethodBinding(nil), t.Methods...), extra...)
	}
	return t.Methods
}

func (l *Loader) fieldsOf(t *jast.TypeBinding) []*jast.VariableBinding {
	if extra := l.extraFields[t]; len(extra) > 0 {
		return append(append([]*jast.VariableBinding(nil), t.Fields...), extra...)
	}
	return t.Fields
}

// bodies loads initializers, method bodies and enum constant arguments of
// the type declared by decl. outer is the environment of a local or
// anonymous type's declaration, nil otherwise.
func (l *Loader) bodies(ts *typeSpec, decl *jast.TypeDecl, outer *frame) {
	t := decl.Binding
	for i, fd := range decl.Fields {
		fs := &ts.Fields[i]
		if !present(&fs.Init) {
			continue
		}
		e := &env{typ: t, static: fd.Var.IsStatic(), vars: &frame{owner: t, parent: outer}}
		l.line = fs.Line
		fd.Init = l.initExpr(&fs.Init, e, fd.Var.Type)
	}

	for _, md := range decl.Methods {
		ms := l.specs[md]
		if ms == nil || !present(&ms.Body) {
			if md.Body == nil && !md.Binding.Modifiers.Has(jast.ModAbstract) &&
				!md.Binding.Modifiers.Has(jast.ModNative) && !t.IsInterface() {
				md.Body = &jast.Block{Pos: md.Pos}
			}
			continue
		}
		m := md.Binding
		e := &env{typ: t, method: m, static: m.IsStatic(), vars: &frame{owner: t, parent: outer}}
		for _, p := range md.Params {
			e.declare(p)
		}
		l.line = ms.Line
		md.Body = &jast.Block{Pos: md.Pos, Stmts: l.stmtList(&ms.Body, e)}
	}

	for i, c := range decl.Constants {
		cs := &ts.Constants[i]
		e := &env{typ: t, static: true, vars: &frame{owner: t, parent: outer}}
		l.line = cs.Line
		for j := range cs.Args {
			c.Args = append(c.Args, l.expr(&cs.Args[j], e))
		}
		c.Ctor = l.findCtor(nil, t, c.Args)
		if c.Ctor == nil {
			l.failf(nil, "enum constant %s.%s: no constructor takes %d arguments", t.Name, c.Var.Name, len(c.Args))
		}
		if cs.Body != nil {
			c.Body = l.enumConstantBody(cs, t, outer)
		}
	}

	for _, is := range ts.Initializers {
		e := &env{typ: t, static: is.Static, vars: &frame{owner: t, parent: outer}}
		l.line = is.Line
		decl.Initializers = append(decl.Initializers, &jast.Initializer{
			Pos:    jast.Pos{Line: is.Line},
			Static: is.Static,
			Body:   &jast.Block{Pos: jast.Pos{Line: is.Line}, Stmts: l.stmtList(&is.Body, e)},
		})
	}

	for i, member := range decl.Types {
		l.bodies(&ts.Types[i], member, nil)
	}
}

// enumConstantBody declares the anonymous class of a constant with a body.
func (l *Loader) enumConstantBody(cs *constantSpec, enum *jast.TypeBinding, outer *frame) *jast.TypeDecl {
	t := &jast.TypeBinding{
		Name:      l.anonName(enum),
		Package:   enum.Package,
		Kind:      jast.KindClass,
		Super:     enum,
		Outer:     enum,
		Anonymous: true,
		Modifiers: jast.ModStatic,
	}
	l.register(t)
	decl := &jast.TypeDecl{Pos: jast.Pos{Line: cs.Line}, Binding: t}
	body := *cs.Body
	l.signatures(&body, t, decl, &env{typ: t, vars: outer})
	l.linkOverrides(t)
	l.bodies(&body, decl, outer)
	return decl
}

// anonName numbers anonymous classes per top-level type: "$1", "$2", ...
func (l *Loader) anonName(t *jast.TypeBinding) string {
	top := t.TopLevel()
	l.anon[top]++
	return fmt.Sprintf("$%d", l.anon[top])
}
