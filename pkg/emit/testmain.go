package emit

import (
	"github.com/raymyers/ralph-objc/pkg/jast"
)

// mainMethod returns the "public static void main(String[])" of t, if any.
func mainMethod(t *jast.TypeBinding) *jast.MethodBinding {
	for _, m := range t.Methods {
		if m.Name != "main" || !m.IsStatic() || !m.Modifiers.Has(jast.ModPublic) || len(m.Params) != 1 {
			continue
		}
		p := m.Params[0]
		if p.IsArray() && p.Dimensions() == 1 && jast.IsString(p.Elem.Erasure()) && (m.Return == nil || m.Return.IsVoid()) {
			return m
		}
	}
	return nil
}

func isTestClass(t *jast.TypeBinding) bool {
	for _, m := range t.Methods {
		if m.HasAnnotation(jast.AnnotationTest) {
			return true
		}
	}
	return false
}

// testMain writes a C entry point for the unit's primary type: one calling
// its main method, or one running it as a test class.
func (e *Emitter) testMain() {
	t := e.unit.PrimaryType().Binding
	name := e.cfg.Names.FullName(t)
	if m := mainMethod(t); m != nil {
		e.w.Line("int main(int argc, const char *argv[]) {")
		e.w.Indent()
		e.w.Line("@autoreleasepool {")
		e.w.Indent()
		e.w.Line("[%s %s:JreEmulationMainArguments(argc, argv)];", name, e.cfg.Names.Keywords(m)[0])
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("return 0;")
		e.w.Dedent()
		e.w.Line("}")
		return
	}
	if !isTestClass(t) {
		return
	}
	e.w.Line("#import \"JUnitRunner.h\"")
	e.w.Newline()
	e.w.Line("int main(int argc, const char *argv[]) {")
	e.w.Indent()
	e.w.Line("int status;")
	e.w.Line("@autoreleasepool {")
	e.w.Indent()
	e.w.Line("status = [JUnitRunner runTestClass:[%s class]];", name)
	e.w.Dedent()
	e.w.Line("}")
	e.w.Line("return status;")
	e.w.Dedent()
	e.w.Line("}")
}
