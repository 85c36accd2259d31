package emit

import (
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
)

// Instance variable access groups, in emission order.
const (
	visPublic    = "@public"
	visProtected = "@protected"
	visPrivate   = "@private"
)

// ivar is one instance variable of a class
type ivar struct {
	name string
	typ  *jast.TypeBinding
	vis  string
	weak bool
}

// ivars lists the instance variables of td grouped by access: the enclosing
// instance and captured locals first, always public, then declared fields.
func (e *Emitter) ivars(td *jast.TypeDecl) []ivar {
	t := td.Binding
	var pub, prot, priv []ivar
	if t.HasOuterInstance() {
		pub = append(pub, ivar{name: names.OuterIvar, typ: t.Outer, vis: visPublic})
	}
	for _, c := range t.Captures {
		pub = append(pub, ivar{name: names.CaptureIvar(c), typ: c.Type, vis: visPublic})
	}
	for _, f := range td.Fields {
		v := f.Var
		if v.IsStatic() {
			continue
		}
		iv := ivar{name: e.cfg.Names.IvarName(v), typ: v.Type, weak: v.IsWeak()}
		switch {
		case e.cfg.InlineFieldAccess, v.Modifiers.Has(jast.ModPublic):
			iv.vis = visPublic
			pub = append(pub, iv)
		case v.Modifiers.Has(jast.ModPrivate):
			iv.vis = visPrivate
			priv = append(priv, iv)
		default:
			iv.vis = visProtected
			prot = append(prot, iv)
		}
	}
	out := append(pub, prot...)
	return append(out, priv...)
}

// protocols renders a conformance list such as " < A, B >", or "".
func (e *Emitter) protocols(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return " < " + strings.Join(list, ", ") + " >"
}

func (e *Emitter) interfaceNames(t *jast.TypeBinding) []string {
	var out []string
	for _, i := range t.Interfaces {
		out = append(out, e.cfg.Names.FullName(i))
	}
	return out
}

func (e *Emitter) superName(t *jast.TypeBinding) string {
	if t.Super == nil || t.IsInterface() {
		return "NSObject"
	}
	return e.cfg.Names.FullName(t.Super)
}

// declareType writes everything the header holds for td.
func (e *Emitter) declareType(td *jast.TypeDecl) {
	t := td.Binding
	name := e.cfg.Names.FullName(t)
	e.defines(td)
	if t.IsEnum() {
		e.enumTypedef(td)
	}
	if t.IsInterface() {
		e.w.Line("@protocol %s%s", name, e.protocols(append([]string{"NSObject"}, e.interfaceNames(t)...)))
		for _, m := range e.members(td) {
			if !m.static && !m.hidden {
				e.w.Line("%s;", m.sig)
			}
		}
		e.w.Line("@end")
		e.w.Newline()
		if !needsImplementation(td) {
			return
		}
		// static members live on a class sharing the protocol's name
		e.w.Line("@interface %s : NSObject", name)
		e.w.Newline()
		e.declareMembers(td, true)
		e.w.Line("@end")
		e.w.Newline()
		return
	}

	ivars := e.ivars(td)
	head := "@interface " + name + " : " + e.superName(t) + e.protocols(e.interfaceNames(t))
	if len(ivars) == 0 {
		e.w.Line("%s", head)
	} else {
		e.w.Line("%s {", head)
		vis := ""
		for _, iv := range ivars {
			if iv.vis != vis {
				vis = iv.vis
				e.w.Line(" %s", vis)
			}
			e.w.Indent()
			e.w.Line("%s%s;", e.cfg.Policy.IvarQualifier(memory.ClassOf(iv.typ), iv.weak), e.cfg.Types.Declaration(iv.typ, iv.name))
			e.w.Dedent()
		}
		e.w.Line("}")
	}
	e.w.Newline()
	if props := e.properties(td); len(props) > 0 {
		for _, p := range props {
			e.w.Line("@property (nonatomic, %s) %s;", p.attr, e.cfg.Types.Declaration(p.typ, p.name))
		}
		e.w.Newline()
	}
	e.declareMembers(td, false)
	e.w.Line("@end")
	e.w.Newline()
}

// declareMembers writes the signatures of td's visible members. With
// staticOnly set only class methods are declared.
func (e *Emitter) declareMembers(td *jast.TypeDecl, staticOnly bool) {
	for _, m := range e.members(td) {
		if m.hidden || m.private || (staticOnly && !m.static) {
			continue
		}
		e.w.Line("%s;", m.sig)
	}
}

// property is a declared accessor pair backed by an instance variable
type property struct {
	name string
	ivar string
	typ  *jast.TypeBinding
	attr string
}

// properties lists the accessors of td's instance fields. Inline field
// access reaches ivars directly and needs none.
func (e *Emitter) properties(td *jast.TypeDecl) []property {
	if e.cfg.InlineFieldAccess {
		return nil
	}
	var out []property
	for _, f := range td.Fields {
		v := f.Var
		if v.IsStatic() {
			continue
		}
		out = append(out, property{
			name: e.cfg.Names.Name(v),
			ivar: e.cfg.Names.IvarName(v),
			typ:  v.Type,
			attr: e.cfg.Policy.PropertyAttribute(memory.ClassOf(v.Type), v.IsWeak()),
		})
	}
	return out
}

// defineType writes the implementation of td.
func (e *Emitter) defineType(td *jast.TypeDecl) {
	name := e.cfg.Names.FullName(td.Binding)
	members := e.members(td)

	var private []member
	for _, m := range members {
		if m.private && !m.hidden {
			private = append(private, m)
		}
	}
	if len(private) > 0 {
		e.w.Line("@interface %s ()", name)
		for _, m := range private {
			e.w.Line("%s;", m.sig)
		}
		e.w.Line("@end")
		e.w.Newline()
	}

	e.w.Line("@implementation %s", name)
	e.w.Newline()
	if props := e.properties(td); len(props) > 0 {
		for _, p := range props {
			e.w.Line("@synthesize %s = %s;", p.name, p.ivar)
		}
		e.w.Newline()
	}
	for _, m := range members {
		if td.Binding.IsInterface() && !m.static {
			continue
		}
		e.w.SyncLine(m.line)
		e.w.Line("%s {", m.sig)
		e.w.Indent()
		m.body()
		e.w.Dedent()
		e.w.Line("}")
		e.w.Newline()
	}
	e.w.Line("@end")
	e.w.Newline()
}
