package loader

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

func decodeOne(t *testing.T, src string) *jast.CompilationUnit {
	t.Helper()
	units, err := Decode("test.yaml", []byte(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Decode returned %d units, want 1", len(units))
	}
	return units[0]
}

func methodDecl(t *testing.T, td *jast.TypeDecl, name string) *jast.MethodDecl {
	t.Helper()
	for _, md := range td.Methods {
		if md.Binding.Name == name && !md.Binding.Constructor {
			return md
		}
	}
	t.Fatalf("%s has no method %s", td.Binding.Name, name)
	return nil
}

func fieldVar(t *testing.T, td *jast.TypeDecl, name string) *jast.VariableBinding {
	t.Helper()
	for _, fd := range td.Fields {
		if fd.Var.Name == name {
			return fd.Var
		}
	}
	t.Fatalf("%s has no field %s", td.Binding.Name, name)
	return nil
}

const counterYAML = `
package: com.example
file: com/example/Counter.java
types:
  - name: Counter
    modifiers: [public]
    fields:
      - {name: MAX, type: int, modifiers: [public, static, final], init: 10}
      - {name: count, type: int, modifiers: [private]}
      - {name: label, type: String}
    methods:
      - name: inc
        returns: void
        params: [{name: by, type: int}]
        body:
          - assign: {op: "+=", to: count, value: by}
          - if:
              cond: {binary: {op: ">", left: count, right: MAX}}
              then:
                - assign: {to: count, value: MAX}
      - name: get
        returns: int
        body:
          - return: count
`

func TestDecode_SharedBindings(t *testing.T) {
	u := decodeOne(t, counterYAML)
	if u.Package != "com.example" || u.File != "com/example/Counter.java" {
		t.Errorf("unit = %s %s", u.Package, u.File)
	}
	td := u.PrimaryType()
	if td == nil || td.Binding.Name != "Counter" {
		t.Fatalf("primary type = %v", td)
	}
	if td.Binding.Super != jast.Object {
		t.Errorf("Super = %v, want Object", td.Binding.Super)
	}
	if got := fieldVar(t, td, "MAX").Constant; got != int64(10) {
		t.Errorf("MAX constant = %#v, want 10", got)
	}
	if got := fieldVar(t, td, "count").Constant; got != nil {
		t.Errorf("count constant = %#v, want nil", got)
	}

	count := fieldVar(t, td, "count")
	inc := methodDecl(t, td, "inc")
	if len(inc.Body.Stmts) != 2 {
		t.Fatalf("inc has %d statements, want 2", len(inc.Body.Stmts))
	}
	as := inc.Body.Stmts[0].(*jast.ExprStmt).X.(*jast.Assign)
	if as.Op != "+=" {
		t.Errorf("op = %s", as.Op)
	}
	if lhs := as.LHS.(*jast.SimpleName); lhs.Var != count {
		t.Errorf("LHS binds %p, want the count field %p", lhs.Var, count)
	}
	if rhs := as.RHS.(*jast.SimpleName); rhs.Var != inc.Params[0] {
		t.Errorf("RHS binds %v, want the by parameter", rhs.Var)
	}
	cond := inc.Body.Stmts[1].(*jast.If).Cond.(*jast.Binary)
	if !cond.Typ.IsPrimitiveKind(jast.Boolean) {
		t.Errorf("comparison typed %s", cond.Typ.Name)
	}

	ret := methodDecl(t, td, "get").Body.Stmts[0].(*jast.Return)
	if ret.Value.(*jast.SimpleName).Var != count {
		t.Error("get does not return the count field")
	}

	var ctors []*jast.MethodBinding
	for _, m := range td.Binding.Methods {
		if m.Constructor {
			ctors = append(ctors, m)
		}
	}
	if len(ctors) != 1 || len(ctors[0].Params) != 0 || !ctors[0].Modifiers.Has(jast.ModPublic) {
		t.Errorf("default constructor = %+v", ctors)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"empty", "", "no units"},
		{"syntax", "types: [", "test.yaml"},
		{"no file", "types: []", "unit without a file name"},
		{"unknown type", `
file: A.java
types:
  - name: A
    fields: [{name: w, type: Widget}]
`, "unknown type Widget"},
		{"unknown name", `
file: A.java
types:
  - name: A
    methods:
      - name: f
        returns: int
        body:
          - return: missing
`, "unknown name missing"},
		{"unknown node", `
file: A.java
types:
  - name: A
    methods:
      - name: f
        body:
          - frob: 1
`, `unknown expression "frob"`},
		{"bad modifier", `
file: A.java
types:
  - {name: A, modifiers: [publik]}
`, `unknown modifier "publik"`},
		{"no ctor", `
file: A.java
types:
  - name: A
    methods:
      - {ctor: true, params: [{name: x, type: int}]}
      - name: f
        body:
          - expr: {new: {type: A}}
`, "no constructor of A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("test.yaml", []byte(tt.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not match ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
		})
	}
}

func TestDecode_ErrorLine(t *testing.T) {
	src := "file: A.java\ntypes:\n  - name: A\n    methods:\n      - name: f\n        body:\n          - return: missing\n"
	_, err := Decode("a.yaml", []byte(src))
	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("error %v is not an *Error", err)
	}
	if le.File != "a.yaml" || le.Line != 7 {
		t.Errorf("error at %s:%d, want a.yaml:7", le.File, le.Line)
	}
}

func TestDecode_Overloads(t *testing.T) {
	u := decodeOne(t, `
package: p
file: p/O.java
types:
  - name: O
    methods:
      - {name: f, params: [{name: x, type: int}]}
      - {name: f, params: [{name: x, type: long}]}
      - {name: f, params: [{name: x, type: Object}]}
      - name: use
        body:
          - call: {method: f, args: [1]}
          - call: {method: f, args: [{num: 2L}]}
          - call: {method: f, args: [{string: s}]}
          - call: {method: f, args: [{char: c}]}
`)
	body := methodDecl(t, u.Types[0], "use").Body.Stmts
	var got []string
	for _, s := range body {
		m := s.(*jast.ExprStmt).X.(*jast.MethodCall).Method
		got = append(got, m.Params[0].QualifiedName())
	}
	want := []string{"int", "long", "java.lang.Object", "int"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("selected overloads (-want +got):\n%s", diff)
	}
}

func TestDecode_ExternalCalls(t *testing.T) {
	u := decodeOne(t, `
package: p
file: p/E.java
externals:
  - name: java.util.List
    kind: interface
    typeParams: [E]
    methods:
      - {name: size, returns: int}
      - {name: get, returns: E, params: [{name: i, type: int}]}
  - name: java.lang.Math
types:
  - name: E
    methods:
      - name: first
        returns: String
        params: [{name: items, type: "List<String>"}]
        body:
          - if:
              cond: {binary: {op: "==", left: {call: {recv: items, method: size}}, right: 0}}
              then: [{return: null}]
          - return: {cast: {type: String, x: {call: {recv: items, method: get, args: [0]}}}}
      - name: text
        returns: String
        body:
          - return: {call: {method: toString}}
      - name: max
        returns: int
        body:
          - return: {call: {recv: Math, method: max, static: true, params: [int, int], returns: int, args: [1, 2]}}
`)
	td := u.Types[0]
	first := methodDecl(t, td, "first")
	ret := first.Body.Stmts[1].(*jast.Return).Value.(*jast.Cast)
	get := ret.X.(*jast.MethodCall)
	if get.Method.Name != "get" || get.Method.DeclaringType.Name != "List" {
		t.Errorf("get bound to %s.%s", get.Method.DeclaringType.Name, get.Method.Name)
	}
	if get.Method.Return.Kind != jast.KindTypeVar {
		t.Errorf("get returns %s, want the type variable", get.Method.Return.Name)
	}

	toString := methodDecl(t, td, "text").Body.Stmts[0].(*jast.Return).Value.(*jast.MethodCall)
	// undeclared methods land on the nearest supertype outside the unit
	if toString.Method.DeclaringType != jast.Object {
		t.Errorf("toString declared by %s, want Object", toString.Method.DeclaringType.Name)
	}
	if len(jast.Object.Methods) != 0 {
		t.Error("shared Object binding was mutated")
	}

	mc := methodDecl(t, td, "max").Body.Stmts[0].(*jast.Return).Value.(*jast.MethodCall)
	if !mc.Method.IsStatic() || mc.Method.DeclaringType.Name != "Math" {
		t.Errorf("Math.max bound as %+v", mc.Method)
	}
	if _, ok := mc.Receiver.(*jast.TypeName); !ok {
		t.Errorf("Math.max receiver = %T, want *jast.TypeName", mc.Receiver)
	}
}

const anonymousYAML = `
package: p
file: p/Outer.java
externals:
  - name: java.lang.Runnable
    kind: interface
    methods:
      - {name: run, returns: void}
types:
  - name: Outer
    methods:
      - name: start
        returns: Runnable
        params: [{name: n, type: int}]
        body:
          - var: {type: int, name: k, init: {binary: {op: "*", left: n, right: 2}}}
          - return:
              new:
                type: Runnable
                body:
                  methods:
                    - name: run
                      returns: void
                      body:
                        - call: {method: use, args: [k]}
      - name: use
        params: [{name: v, type: int}]
`

func TestDecode_AnonymousClass(t *testing.T) {
	u := decodeOne(t, anonymousYAML)
	td := u.Types[0]
	start := methodDecl(t, td, "start")
	k := start.Body.Stmts[0].(*jast.VarDecl).Fragments[0].Var
	nw := start.Body.Stmts[1].(*jast.Return).Value.(*jast.New)
	if nw.Body == nil {
		t.Fatal("no anonymous class body")
	}
	anon := nw.Body.Binding
	if !anon.Anonymous || anon.Name != "$1" {
		t.Errorf("anonymous class = %s (anonymous %v)", anon.Name, anon.Anonymous)
	}
	if anon.Outer != td.Binding || anon.EnclosingMethod != start.Binding {
		t.Error("anonymous class not nested in Outer.start")
	}
	if anon.Super != jast.Object || len(anon.Interfaces) != 1 || anon.Interfaces[0].Name != "Runnable" {
		t.Errorf("anonymous supertypes = %v %v", anon.Super, anon.Interfaces)
	}
	if len(anon.Captures) != 1 || anon.Captures[0] != k {
		t.Errorf("captures = %v, want [k]", anon.Captures)
	}
	if !anon.HasOuterInstance() {
		t.Error("anonymous class in an instance method should hold the outer instance")
	}

	ctor := nw.Body.Methods[0]
	if !ctor.Binding.Constructor || nw.Ctor != ctor.Binding {
		t.Fatalf("construction does not use the synthesized constructor")
	}
	call, ok := ctor.Body.Stmts[0].(*jast.SuperCtorCall)
	if !ok || call.Ctor.DeclaringType != jast.Object {
		t.Errorf("constructor body = %#v", ctor.Body.Stmts)
	}

	run := methodDecl(t, nw.Body, "run")
	if run.Binding.Overrides == nil || run.Binding.Overrides.DeclaringType.Name != "Runnable" {
		t.Errorf("run overrides %v", run.Binding.Overrides)
	}
	use := run.Body.Stmts[0].(*jast.ExprStmt).X.(*jast.MethodCall)
	if use.Receiver != nil || use.Method != methodDecl(t, td, "use").Binding {
		t.Error("unqualified call inside the anonymous class does not bind Outer.use")
	}
	if use.Args[0].(*jast.SimpleName).Var != k {
		t.Error("captured local not shared with its declaration")
	}

	all := jast.AllTypes(u)
	if len(all) != 2 {
		t.Errorf("AllTypes = %d, want Outer and its anonymous class", len(all))
	}
}

func TestDecode_LocalClass(t *testing.T) {
	u := decodeOne(t, `
package: p
file: p/L.java
types:
  - name: L
    methods:
      - name: make
        returns: Object
        modifiers: [static]
        params: [{name: base, type: int}]
        body:
          - class:
              name: Adder
              fields:
                - {name: extra, type: int}
              methods:
                - name: sum
                  returns: int
                  body:
                    - return: {binary: {op: "+", operands: [base, extra, 1]}}
          - return: {new: {type: Adder}}
`)
	mk := methodDecl(t, u.Types[0], "make")
	local := mk.Body.Stmts[0].(*jast.LocalTypeDecl).Decl
	b := local.Binding
	if !b.Local || b.Outer != u.Types[0].Binding || b.EnclosingMethod != mk.Binding {
		t.Errorf("local class nesting = %+v", b)
	}
	if b.HasOuterInstance() {
		t.Error("local class of a static method has no outer instance")
	}
	if len(b.Captures) != 1 || b.Captures[0] != mk.Params[0] {
		t.Errorf("captures = %v, want [base]", b.Captures)
	}
	sum := methodDecl(t, local, "sum").Body.Stmts[0].(*jast.Return).Value.(*jast.Binary)
	if len(sum.Extended) != 1 || !sum.Typ.IsPrimitiveKind(jast.Int) {
		t.Errorf("sum = %d extended operands typed %s", len(sum.Extended), sum.Typ.Name)
	}
	nw := mk.Body.Stmts[1].(*jast.Return).Value.(*jast.New)
	if nw.Typ != b || nw.Ctor == nil || !nw.Ctor.Constructor || len(nw.Ctor.Params) != 0 {
		t.Errorf("new Adder() = %+v", nw)
	}
}

func TestDecode_Enum(t *testing.T) {
	u := decodeOne(t, `
package: p
file: p/Color.java
types:
  - name: Color
    kind: enum
    fields:
      - {name: rgb, type: int, modifiers: [private, final]}
    constants:
      - {name: RED, args: [0xFF0000]}
      - name: GREEN
        args: [{num: "0x00FF00"}]
        body:
          methods:
            - {name: toString, returns: String, body: [{return: {string: green}}]}
    methods:
      - ctor: true
        params: [{name: rgb, type: int}]
        body:
          - assign: {to: {field: {of: this, name: rgb}}, value: rgb}
      - name: isRed
        returns: boolean
        body:
          - switch:
              expr: this
              body:
                - case: RED
                - return: true
                - default: ~
                - return: false
`)
	td := u.Types[0]
	color := td.Binding
	if color.Super != jast.Enum {
		t.Errorf("enum super = %v", color.Super)
	}
	var ctor *jast.MethodBinding
	var names []string
	for _, m := range color.Methods {
		if m.Constructor {
			ctor = m
		} else {
			names = append(names, m.Name)
		}
	}
	if ctor == nil || !ctor.Modifiers.Has(jast.ModPrivate) {
		t.Errorf("enum constructor = %+v", ctor)
	}
	if diff := cmp.Diff([]string{"isRed", "values", "valueOf"}, names); diff != "" {
		t.Errorf("methods (-want +got):\n%s", diff)
	}
	if len(td.Constants) != 2 {
		t.Fatalf("%d constants", len(td.Constants))
	}
	for _, c := range td.Constants {
		if c.Ctor != ctor {
			t.Errorf("%s constructed by %v", c.Var.Name, c.Ctor)
		}
	}
	green := td.Constants[1].Body
	if green == nil || !green.Binding.Anonymous || green.Binding.Super != color {
		t.Fatalf("GREEN body = %+v", green)
	}

	ctorBody := td.Methods[0].Body.Stmts[0].(*jast.ExprStmt).X.(*jast.Assign)
	if fa := ctorBody.LHS.(*jast.FieldAccess); fa.Var != fieldVar(t, td, "rgb") {
		t.Error("this.rgb does not bind the field")
	}
	if ctorBody.RHS.(*jast.SimpleName).Var != td.Methods[0].Params[0] {
		t.Error("parameter does not shadow the field")
	}

	sw := methodDecl(t, td, "isRed").Body.Stmts[0].(*jast.Switch)
	if len(sw.Body) != 4 {
		t.Fatalf("switch body has %d items", len(sw.Body))
	}
	label := sw.Body[0].(*jast.Case).Value.(*jast.SimpleName)
	if label.Var != td.Constants[0].Var {
		t.Error("case RED does not bind the constant")
	}
	if sw.Body[2].(*jast.Case).Value != nil {
		t.Error("default label carries a value")
	}
}

func TestDecode_MultipleDocuments(t *testing.T) {
	units, err := Decode("two.yaml", []byte(`
file: A.java
types: [{name: A}]
---
file: B.java
types: [{name: B, super: A}]
externals: [{name: A}]
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 2 {
		t.Fatalf("%d units", len(units))
	}
	b := units[1].Types[0].Binding
	if b.Super == nil || b.Super.Name != "A" || b.Super == units[0].Types[0].Binding {
		t.Errorf("B's super should be B's own external binding of A, got %p", b.Super)
	}
}

const nativeSource = "class N {\n  native int f(int x) /*-[\n    return x;\n  ]-*/;\n}\n"

func TestDecode_NativeSpan(t *testing.T) {
	u := decodeOne(t, `
package: p
file: p/N.java
source: |
  class N {
    native int f(int x) /*-[
      return x;
    ]-*/;
  }
types:
  - name: N
    methods:
      - {name: f, returns: int, modifiers: [native], params: [{name: x, type: int}]}
`)
	if u.Source != nativeSource {
		t.Fatalf("source = %q", u.Source)
	}
	md := u.Types[0].Methods[0]
	if md.Body != nil {
		t.Error("native method has a body")
	}
	wantStart := strings.Index(nativeSource, "native")
	wantEnd := strings.Index(nativeSource, "]-*/;") + len("]-*/;")
	if md.Start != wantStart || md.End != wantEnd {
		t.Errorf("span = [%d,%d), want [%d,%d)", md.Start, md.End, wantStart, wantEnd)
	}
	if md.Line != 2 {
		t.Errorf("Line = %d, want 2", md.Line)
	}
	if len(u.Comments) != 1 || !u.Comments[0].Block {
		t.Errorf("comments = %+v", u.Comments)
	}
}

func TestScanComments(t *testing.T) {
	src := "class A { // one\n  String s = \"/* no */ // no\"; /* two */\n  char c = '\"'; /**/\n}"
	got := scanComments(src)
	var texts []string
	for _, c := range got {
		texts = append(texts, src[c.Start:c.End])
	}
	want := []string{"// one", "/* two */", "/**/"}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Errorf("comments (-want +got):\n%s", diff)
	}
	if got[0].Block || !got[1].Block {
		t.Error("comment kinds wrong")
	}
}

func TestNumberType(t *testing.T) {
	tests := []struct {
		token string
		want  jast.PrimitiveKind
	}{
		{"1", jast.Int},
		{"0x1F", jast.Int},
		{"0xFFL", jast.Long},
		{"10l", jast.Long},
		{"1.5", jast.Double},
		{"1e3", jast.Double},
		{"2d", jast.Double},
		{"2.5f", jast.Float},
		{"0x1p3", jast.Double},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := numberType(tt.token); got.Primitive != tt.want {
				t.Errorf("numberType(%s) = %s, want %s", tt.token, got.Primitive, tt.want)
			}
		})
	}
}

func TestAssignable(t *testing.T) {
	prim := jast.PrimitiveType
	integer, _ := jast.WellKnown("java.lang.Integer")
	tests := []struct {
		name     string
		from, to *jast.TypeBinding
		want     bool
	}{
		{"same", prim(jast.Int), prim(jast.Int), true},
		{"widen", prim(jast.Int), prim(jast.Long), true},
		{"narrow", prim(jast.Long), prim(jast.Int), false},
		{"char to int", prim(jast.Char), prim(jast.Int), true},
		{"short to char", prim(jast.Short), prim(jast.Char), false},
		{"boolean to int", prim(jast.Boolean), prim(jast.Int), false},
		{"box", prim(jast.Int), integer, true},
		{"box to Object", prim(jast.Int), jast.Object, true},
		{"unbox and widen", integer, prim(jast.Long), true},
		{"null", jast.NullType, jast.String, true},
		{"subclass", jast.String, jast.Object, true},
		{"unrelated", jast.String, integer, false},
		{"array", jast.ArrayOf(jast.String), jast.ArrayOf(jast.Object), true},
		{"array to Object", jast.ArrayOf(prim(jast.Int)), jast.Object, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assignable(tt.from, tt.to); got != tt.want {
				t.Errorf("assignable(%s, %s) = %v, want %v", tt.from.Name, tt.to.Name, got, tt.want)
			}
		})
	}
}

func TestEraseArgs(t *testing.T) {
	tests := []struct{ in, want string }{
		{"List<String>", "List"},
		{"Map<K, List<V>>[]", "Map[]"},
		{"int", "int"},
	}
	for _, tt := range tests {
		if got := eraseArgs(tt.in); got != tt.want {
			t.Errorf("eraseArgs(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
