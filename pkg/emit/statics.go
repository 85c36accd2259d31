package emit

import (
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/translate"
)

// defines writes a #define for each primitive compile-time constant of td.
func (e *Emitter) defines(td *jast.TypeDecl) {
	n := 0
	for _, f := range td.Fields {
		if v := f.Var; v.IsPrimitiveConstant() {
			e.w.Line("#define %s %s", e.cfg.Names.ConstantName(v), translate.ConstantValue(v))
			n++
		}
	}
	if n > 0 {
		e.w.Newline()
	}
}

// storageInitializable reports whether static field f can be initialized in
// its storage declaration: a literal of primitive or String type.
func storageInitializable(f *jast.FieldDecl) bool {
	t := f.Var.Type.Erasure()
	if !t.IsPrimitive() && !jast.IsString(t) {
		return false
	}
	switch x := f.Init.(type) {
	case *jast.NumberLit, *jast.BoolLit, *jast.CharLit, *jast.StringLit:
		return true
	case *jast.Unary:
		_, ok := x.Operand.(*jast.NumberLit)
		return ok && x.Op == jast.OpSub
	}
	return false
}

// staticStorage writes the file-level variables backing the static fields
// and enum constants of every type in the unit. It reports whether anything
// was written.
func (e *Emitter) staticStorage() bool {
	wrote := false
	for _, td := range e.deps.Ordered {
		for _, c := range td.Constants {
			e.w.Line("static %s;", e.cfg.Types.Declaration(td.Binding, e.cfg.Names.StaticVarName(c.Var)))
			wrote = true
		}
		if td.Binding.IsEnum() {
			e.w.Line("static %s;", e.cfg.Types.Declaration(jast.ArrayOf(td.Binding), e.valuesVar(td.Binding)))
			wrote = true
		}
		for _, f := range td.Fields {
			v := f.Var
			if !v.IsStatic() || v.EnumConstant || v.IsPrimitiveConstant() {
				continue
			}
			decl := e.cfg.Types.Declaration(v.Type, e.cfg.Names.StaticVarName(v))
			if f.Init != nil && storageInitializable(f) {
				e.tr.Enter(td.Binding, nil)
				decl += " = " + e.tr.Coerce(f.Init, v.Type)
			}
			e.w.Line("static %s;", decl)
			wrote = true
		}
	}
	return wrote
}

// staticAccessors returns the class methods reading and writing td's static
// fields, and reading its enum constants. Final fields get no setter.
func (e *Emitter) staticAccessors(td *jast.TypeDecl) []member {
	var out []member
	for _, f := range td.Fields {
		v := f.Var
		if !v.IsStatic() || v.EnumConstant {
			continue
		}
		private := v.Modifiers.Has(jast.ModPrivate)
		name := e.cfg.Names.Name(v)
		ref := e.cfg.Types.Reference(v.Type)
		value := e.cfg.Names.StaticVarName(v)
		if v.IsPrimitiveConstant() {
			value = e.cfg.Names.ConstantName(v)
		}
		out = append(out, member{
			sig:     "+ (" + ref + ")" + name,
			line:    f.Line,
			static:  true,
			private: private,
			body:    func() { e.w.Line("return %s;", value) },
		})
		if v.Modifiers.Has(jast.ModFinal) {
			continue
		}
		site := memory.Site{Kind: memory.Assign, Storage: memory.StaticField, Class: memory.ClassOf(v.Type), Weak: v.IsWeak()}
		out = append(out, member{
			sig:     "+ (void)set" + names.Capitalize(name) + ":(" + ref + ")" + name,
			line:    f.Line,
			static:  true,
			private: private,
			body:    func() { e.storeStatic(value, name, site) },
		})
	}
	for _, c := range td.Constants {
		value := e.cfg.Names.StaticVarName(c.Var)
		out = append(out, member{
			sig:    "+ (" + e.cfg.Types.Reference(td.Binding) + ")" + e.cfg.Names.Name(c.Var),
			line:   c.Line,
			static: true,
			body:   func() { e.w.Line("return %s;", value) },
		})
	}
	return out
}

// storeStatic writes a setter body storing value into static variable target.
func (e *Emitter) storeStatic(target, value string, site memory.Site) {
	switch e.cfg.Policy.Decide(site) {
	case memory.RetainAssign:
		e.w.Line("[%s autorelease];", target)
		e.w.Line("%s = [%s retain];", target, value)
	case memory.CopyAssign:
		e.w.Line("[%s autorelease];", target)
		e.w.Line("%s = [%s copy];", target, value)
	default:
		e.w.Line("%s = %s;", target, value)
	}
}
