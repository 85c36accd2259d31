package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
)

// member is one method of a generated class. The header declares its
// signature; the implementation writes the signature and calls body.
type member struct {
	sig     string
	line    int
	static  bool
	private bool // declared in the implementation's class extension
	hidden  bool // never declared: dealloc, +initialize
	body    func()
}

// members lists the methods of td in emission order: static accessors, enum
// support, declared methods, then the synthesized lifecycle methods.
func (e *Emitter) members(td *jast.TypeDecl) []member {
	var out []member
	out = append(out, e.staticAccessors(td)...)
	if td.Binding.IsEnum() {
		out = append(out, e.enumMembers(td)...)
	}
	if ctor := defaultConstructor(td); ctor != nil {
		out = append(out, e.methodMember(td, ctor))
	}
	for _, md := range td.Methods {
		out = append(out, e.methodMember(td, md))
	}
	if m, ok := e.dealloc(td); ok {
		out = append(out, m)
	}
	if m, ok := e.initialize(td); ok {
		out = append(out, m)
	}
	return out
}

// param is one parameter of a generated method, implicit ones included
type param struct {
	name string
	typ  *jast.TypeBinding
}

func (e *Emitter) params(md *jast.MethodDecl) []param {
	m := md.Binding
	var out []param
	for _, p := range jast.LeadingParams(m) {
		out = append(out, param{p.Name, p.Type})
	}
	for i, pt := range m.Params {
		name := fmt.Sprintf("arg%d", i)
		if i < len(md.Params) {
			name = e.cfg.Names.Name(md.Params[i])
		}
		out = append(out, param{name, pt})
	}
	for _, p := range jast.TrailingParams(m) {
		out = append(out, param{p.Name, p.Type})
	}
	return out
}

// signature renders a method signature without the trailing ";" or "{".
func (e *Emitter) signature(pos jast.Pos, m *jast.MethodBinding, params []param) string {
	var sb strings.Builder
	if m.IsStatic() {
		sb.WriteString("+ (")
	} else {
		sb.WriteString("- (")
	}
	if m.Constructor {
		sb.WriteString("id")
	} else {
		sb.WriteString(e.cfg.Types.Reference(m.Return))
	}
	sb.WriteString(")")
	kws := e.cfg.Names.Keywords(m)
	if len(params) == 0 {
		sb.WriteString(kws[0])
		return sb.String()
	}
	if len(kws) != len(params) {
		diag.Fail(pos, "selector %s does not fit %d parameters", e.cfg.Names.Selector(m), len(params))
	}
	for i, p := range params {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s:(%s)%s", kws[i], e.cfg.Types.Reference(p.typ), p.name)
	}
	return sb.String()
}

func (e *Emitter) methodMember(td *jast.TypeDecl, md *jast.MethodDecl) member {
	m := md.Binding
	mem := member{
		sig:     e.signature(md.Pos, m, e.params(md)),
		line:    md.Line,
		static:  m.IsStatic(),
		private: m.Modifiers.Has(jast.ModPrivate),
	}
	switch {
	case m.Modifiers.Has(jast.ModNative):
		mem.body = func() { e.nativeBody(td, md) }
	case m.Constructor:
		mem.body = func() { e.constructorBody(td, md) }
	case md.Body == nil:
		mem.body = func() { e.abstractBody(m) }
	default:
		mem.body = func() { e.methodBody(td, md) }
	}
	return mem
}

// defaultConstructor returns the implicit no-argument constructor of a class
// that declares none, or nil. Enum constant bodies inherit the enum's.
func defaultConstructor(td *jast.TypeDecl) *jast.MethodDecl {
	t := td.Binding
	if t.IsInterface() {
		return nil
	}
	for _, md := range td.Methods {
		if md.Binding.Constructor {
			return nil
		}
	}
	if t.Anonymous && t.Super != nil && t.Super.IsEnum() {
		return nil
	}
	var b *jast.MethodBinding
	for _, m := range t.Methods {
		if m.Constructor && len(m.Params) == 0 {
			b = m
			break
		}
	}
	if b == nil {
		b = &jast.MethodBinding{Name: t.Name, DeclaringType: t, Constructor: true, Return: jast.PrimitiveType(jast.Void)}
	}
	return &jast.MethodDecl{Pos: td.Pos, Binding: b, Body: &jast.Block{}}
}

func (e *Emitter) methodBody(td *jast.TypeDecl, md *jast.MethodDecl) {
	m := md.Binding
	e.tr.Enter(td.Binding, m)
	if !m.Modifiers.Has(jast.ModSynchronized) {
		e.tr.Body(e.w, md.Body.Stmts)
		return
	}
	lock := "self"
	if m.IsStatic() {
		lock = "[" + e.cfg.Names.FullName(td.Binding) + " class]"
	}
	e.w.Line("@synchronized (%s) {", lock)
	e.w.Indent()
	e.tr.Body(e.w, md.Body.Stmts)
	e.w.Dedent()
	e.w.Line("}")
}

func (e *Emitter) abstractBody(m *jast.MethodBinding) {
	e.w.Line("// can't call an abstract method")
	e.w.Line("[self doesNotRecognizeSelector:_cmd];")
	switch {
	case m.Return == nil || m.Return.IsVoid():
	case m.Return.IsPrimitive():
		e.w.Line("return 0;")
	default:
		e.w.Line("return nil;")
	}
}

// constructorBody writes "if ((self = [super init...])) { ... } return self;".
// Unless the constructor delegates to another one of its class, the block
// first stores the enclosing instance and captured locals, then runs field
// initializers and instance initializer blocks in declaration order.
func (e *Emitter) constructorBody(td *jast.TypeDecl, md *jast.MethodDecl) {
	t := td.Binding
	e.tr.Enter(t, md.Binding)
	var stmts []jast.Stmt
	if md.Body != nil {
		stmts = md.Body.Stmts
	}
	var call jast.Stmt
	if len(stmts) > 0 {
		switch stmts[0].(type) {
		case *jast.SuperCtorCall, *jast.ThisCtorCall:
			call, stmts = stmts[0], stmts[1:]
		}
	}
	e.w.Line("if ((self = %s)) {", e.tr.CtorInvocation(call))
	e.w.Indent()
	if _, delegates := call.(*jast.ThisCtorCall); !delegates {
		if t.HasOuterInstance() {
			e.w.Line("%s = %s;", names.OuterIvar, e.retained(jast.OuterParamName, t.Outer))
		}
		for _, p := range jast.TrailingParams(md.Binding) {
			if p.Capture != nil {
				e.w.Line("%s = %s;", names.CaptureIvar(p.Capture), e.retained(p.Name, p.Type))
			}
		}
		e.initSteps(td, false)
	}
	e.tr.Body(e.w, stmts)
	e.w.Dedent()
	e.w.Line("}")
	e.w.Line("return self;")
}

// retained returns value as stored into an owning instance variable.
func (e *Emitter) retained(value string, t *jast.TypeBinding) string {
	site := memory.Site{Kind: memory.Assign, Storage: memory.InstanceField, Class: memory.ClassOf(t)}
	switch e.cfg.Policy.Decide(site) {
	case memory.RetainAssign:
		return "[" + value + " retain]"
	case memory.CopyAssign:
		return "[" + value + " copy]"
	}
	return value
}

// initStep is a field initializer or initializer block
type initStep struct {
	pos   jast.Pos
	field *jast.FieldDecl
	block *jast.Initializer
}

// initSteps writes the static or instance initialization of td in source
// order. Static fields that need no code (constants, literal storage
// initializers) are skipped.
func (e *Emitter) initSteps(td *jast.TypeDecl, static bool) {
	for _, s := range e.steps(td, static) {
		if s.field != nil {
			e.w.Line("%s;", e.tr.FieldInit(s.field))
			continue
		}
		e.tr.Body(e.w, []jast.Stmt{s.block.Body})
	}
}

func (e *Emitter) steps(td *jast.TypeDecl, static bool) []initStep {
	var out []initStep
	for _, f := range td.Fields {
		v := f.Var
		if f.Init == nil || v.IsStatic() != static || v.EnumConstant {
			continue
		}
		if static && (v.IsPrimitiveConstant() || storageInitializable(f)) {
			continue
		}
		out = append(out, initStep{pos: f.Pos, field: f})
	}
	for _, in := range td.Initializers {
		if in.Static == static {
			out = append(out, initStep{pos: in.Pos, block: in})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].pos, out[j].pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Start < b.Start
	})
	return out
}

// dealloc releases the retained instance variables of td. It exists only
// under reference counting.
func (e *Emitter) dealloc(td *jast.TypeDecl) (member, bool) {
	if td.Binding.IsInterface() {
		return member{}, false
	}
	var released []string
	for _, iv := range e.ivars(td) {
		if e.cfg.Policy.ReleasedInDealloc(memory.ClassOf(iv.typ), iv.weak) {
			released = append(released, iv.name)
		}
	}
	if len(released) == 0 {
		return member{}, false
	}
	return member{
		sig:    "- (void)dealloc",
		line:   td.Line,
		hidden: true,
		body: func() {
			for _, name := range released {
				e.w.Line("[%s release];", name)
			}
			e.w.Line("[super dealloc];")
		},
	}, true
}

// initialize runs enum constant construction, static field initializers and
// static blocks the first time the class itself is messaged.
func (e *Emitter) initialize(td *jast.TypeDecl) (member, bool) {
	t := td.Binding
	steps := e.steps(td, true)
	if len(steps) == 0 && !t.IsEnum() {
		return member{}, false
	}
	name := e.cfg.Names.FullName(t)
	return member{
		sig:    "+ (void)initialize",
		line:   td.Line,
		static: true,
		hidden: true,
		body: func() {
			e.tr.Enter(t, nil)
			e.w.Line("if (self == [%s class]) {", name)
			e.w.Indent()
			if t.IsEnum() {
				e.enumInit(td)
			}
			e.initSteps(td, true)
			e.w.Dedent()
			e.w.Line("}")
		},
	}, true
}
