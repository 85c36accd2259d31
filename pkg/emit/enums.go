package emit

import (
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// valuesVar names the static array holding an enum's constants.
func (e *Emitter) valuesVar(t *jast.TypeBinding) string {
	return e.cfg.Names.FullName(t) + "_values"
}

// enumTypedef writes the C enumeration of td's ordinals.
func (e *Emitter) enumTypedef(td *jast.TypeDecl) {
	if len(td.Constants) == 0 {
		return
	}
	e.w.Line("typedef enum {")
	e.w.Indent()
	for i, c := range td.Constants {
		e.w.Line("%s = %d,", e.cfg.Names.EnumConstantName(c.Var), i)
	}
	e.w.Dedent()
	e.w.Line("} %s;", e.cfg.Names.EnumTypedefName(td.Binding))
	e.w.Newline()
}

// enumMembers returns the synthesized values and valueOf class methods.
func (e *Emitter) enumMembers(td *jast.TypeDecl) []member {
	t := td.Binding
	values := e.valuesVar(t)
	arrayRef := e.cfg.Types.Reference(jast.ArrayOf(t))
	ref := e.cfg.Types.Reference(t)
	getter := typemap.ElementGetter(t)
	return []member{
		{
			sig:    "+ (" + arrayRef + ")values",
			line:   td.Line,
			static: true,
			body: func() {
				e.w.Line("return [%s arrayWithArray:%s];", typemap.ArrayWrapper(t), values)
			},
		},
		{
			sig:    "+ (" + ref + ")valueOfWithNSString:(NSString *)name",
			line:   td.Line,
			static: true,
			body: func() {
				e.w.Line("for (int i = 0; i < (int) [%s count]; i++) {", values)
				e.w.Indent()
				e.w.Line("%s = [%s %si];", e.cfg.Types.Declaration(t, "e"), values, getter)
				e.w.Line("if ([name isEqual:[e name]]) {")
				e.w.Indent()
				e.w.Line("return e;")
				e.w.Dedent()
				e.w.Line("}")
				e.w.Dedent()
				e.w.Line("}")
				exc := "[[" + e.cfg.Names.FullName(jast.IllegalArgumentException) + " alloc] initWithNSString:name]"
				if e.cfg.Policy.RefCounting {
					exc = "[" + exc + " autorelease]"
				}
				e.w.Line("@throw %s;", exc)
				e.w.Line("return nil;")
			},
		},
	}
}

// enumInit constructs every constant of td, threading its declared
// arguments plus name and ordinal into the constructor, and fills the
// values array.
func (e *Emitter) enumInit(td *jast.TypeDecl) {
	t := td.Binding
	vars := make([]string, len(td.Constants))
	for i, c := range td.Constants {
		vars[i] = e.cfg.Names.StaticVarName(c.Var)
		e.w.Line("%s = %s;", vars[i], e.tr.EnumConstruction(c, i))
	}
	wrapper := typemap.ArrayWrapper(t)
	class := e.cfg.Types.ClassObject(t)
	if len(vars) == 0 {
		e.w.Line("%s = [[%s alloc] initWithLength:0 type:%s];", e.valuesVar(t), wrapper, class)
		return
	}
	e.w.Line("%s = [[%s alloc] initWithObjects:(id[]){ %s } count:%d type:%s];",
		e.valuesVar(t), wrapper, strings.Join(vars, ", "), len(vars), class)
}
