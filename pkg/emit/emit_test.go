package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/memory"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

var (
	intT    = jast.PrimitiveType(jast.Int)
	doubleT = jast.PrimitiveType(jast.Double)
	voidT   = jast.PrimitiveType(jast.Void)
)

func newEmitter(t *testing.T, unit *jast.CompilationUnit, refCounting bool, opts ...func(*Config)) (*Emitter, *diag.Collector) {
	t.Helper()
	r := names.New(nil)
	c := diag.NewCollector(unit.File, nil)
	cfg := Config{Names: r, Types: typemap.New(r), Policy: memory.New(refCounting), Reporter: c}
	for _, o := range opts {
		o(&cfg)
	}
	e, err := New(cfg, unit)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, c
}

func emit(t *testing.T, e *Emitter, mode Mode) string {
	t.Helper()
	text, err := e.Emit(mode)
	if err != nil {
		t.Fatalf("Emit(%s): %v", mode, err)
	}
	return text
}

func expectAll(t *testing.T, text string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Errorf("missing %q in:\n%s", w, text)
		}
	}
}

func expectNone(t *testing.T, text string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(text, w) {
			t.Errorf("unexpected %q in:\n%s", w, text)
		}
	}
}

func expectOrder(t *testing.T, text string, want ...string) {
	t.Helper()
	at := 0
	for _, w := range want {
		i := strings.Index(text[at:], w)
		if i < 0 {
			t.Errorf("%q missing or out of order in:\n%s", w, text)
			return
		}
		at += i + len(w)
	}
}

func field(owner *jast.TypeBinding, name string, typ *jast.TypeBinding, mods jast.Modifiers, line int, init jast.Expr) *jast.FieldDecl {
	v := &jast.VariableBinding{Name: name, Type: typ, DeclaringType: owner, Field: true, Modifiers: mods}
	owner.Fields = append(owner.Fields, v)
	return &jast.FieldDecl{Pos: jast.Pos{Line: line}, Var: v, Init: init}
}

func method(owner *jast.TypeBinding, name string, ret *jast.TypeBinding, mods jast.Modifiers, line int, body ...jast.Stmt) *jast.MethodDecl {
	m := &jast.MethodBinding{Name: name, DeclaringType: owner, Return: ret, Modifiers: mods}
	owner.Methods = append(owner.Methods, m)
	md := &jast.MethodDecl{Pos: jast.Pos{Line: line}, Binding: m}
	if body != nil || mods&(jast.ModAbstract|jast.ModNative) == 0 {
		md.Body = &jast.Block{Stmts: body}
	}
	return md
}

func num(token string, typ *jast.TypeBinding) *jast.NumberLit {
	return &jast.NumberLit{Token: token, Typ: typ}
}

func ref(v *jast.VariableBinding) *jast.SimpleName { return &jast.SimpleName{Var: v} }

// counterUnit declares
//
//	class Counter {
//	  public static final int MAX = 10;
//	  static String label = "x";
//	  static int instances;
//	  static { instances = 1; }
//	  private int count = 5;
//	  public String name;
//	  public Counter(int start) { count = start; }
//	  public int get() { return count; }
//	  public synchronized void reset() {}
//	  private void helper() {}
//	}
func counterUnit() *jast.CompilationUnit {
	counter := &jast.TypeBinding{Name: "Counter", Package: "com.example", Kind: jast.KindClass, Super: jast.Object, Modifiers: jast.ModPublic}
	td := &jast.TypeDecl{Pos: jast.Pos{Line: 1}, Binding: counter}

	max := field(counter, "MAX", intT, jast.ModPublic|jast.ModStatic|jast.ModFinal, 2, num("10", intT))
	max.Var.Constant = int64(10)
	label := field(counter, "label", jast.String, jast.ModStatic, 3, &jast.StringLit{Value: "x"})
	instances := field(counter, "instances", intT, jast.ModStatic, 4, nil)
	count := field(counter, "count", intT, jast.ModPrivate, 6, num("5", intT))
	name := field(counter, "name", jast.String, jast.ModPublic, 7, nil)
	td.Fields = []*jast.FieldDecl{max, label, instances, count, name}
	td.Initializers = []*jast.Initializer{{
		Pos:    jast.Pos{Line: 5},
		Static: true,
		Body: &jast.Block{Stmts: []jast.Stmt{
			&jast.ExprStmt{X: &jast.Assign{Op: jast.OpAssign, LHS: ref(instances.Var), RHS: num("1", intT)}},
		}},
	}}

	ctor := method(counter, "Counter", voidT, jast.ModPublic, 8)
	ctor.Binding.Constructor = true
	ctor.Binding.Params = []*jast.TypeBinding{intT}
	start := &jast.VariableBinding{Name: "start", Type: intT, Parameter: true, DeclaringMethod: ctor.Binding}
	ctor.Params = []*jast.VariableBinding{start}
	ctor.Body.Stmts = []jast.Stmt{
		&jast.ExprStmt{X: &jast.Assign{Op: jast.OpAssign, LHS: ref(count.Var), RHS: ref(start)}},
	}
	get := method(counter, "get", intT, jast.ModPublic, 9, &jast.Return{Value: ref(count.Var)})
	reset := method(counter, "reset", voidT, jast.ModPublic|jast.ModSynchronized, 10)
	helper := method(counter, "helper", voidT, jast.ModPrivate, 11)
	td.Methods = []*jast.MethodDecl{ctor, get, reset, helper}

	return &jast.CompilationUnit{Package: "com.example", File: "com/example/Counter.java", Types: []*jast.TypeDecl{td}}
}

func TestFiles(t *testing.T) {
	e, _ := newEmitter(t, counterUnit(), true)
	files, err := e.Files()
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"com/example/Counter.h", "com/example/Counter.m"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestClassHeader(t *testing.T) {
	e, _ := newEmitter(t, counterUnit(), true)
	h := emit(t, e, Declaration)

	expectOrder(t, h,
		"//  Generated by ralph-objc from com/example/Counter.java",
		"#ifndef _ComExampleCounter_H_",
		"#define _ComExampleCounter_H_",
		`#import "JreEmulation.h"`,
		"#define ComExampleCounter_MAX 10",
		"@interface ComExampleCounter : NSObject {",
		" @public\n  NSString *name_;\n @private\n  int count_;\n}",
		"@property (nonatomic, assign) int count;",
		"@property (nonatomic, copy) NSString *name;",
		"+ (int)MAX;",
		"+ (NSString *)label;",
		"+ (void)setLabel:(NSString *)label;",
		"- (id)initWithInt:(int)start;",
		"- (int)get;",
		"- (void)reset;",
		"@end",
		"#endif // _ComExampleCounter_H_",
	)
	expectNone(t, h, "+ (void)setMAX:", "helper", "dealloc", "initialize")
}

func TestClassImplementation(t *testing.T) {
	e, _ := newEmitter(t, counterUnit(), true)
	emit(t, e, Declaration)
	m := emit(t, e, Definition)

	expectOrder(t, m,
		`#import "com/example/Counter.h"`,
		`static NSString *ComExampleCounter_label_ = @"x";`,
		"static int ComExampleCounter_instances_;",
		"@interface ComExampleCounter ()\n- (void)helper;\n@end",
		"@implementation ComExampleCounter",
		"@synthesize count = count_;\n@synthesize name = name_;",
		"+ (int)MAX {\n  return ComExampleCounter_MAX;\n}",
		"+ (void)setLabel:(NSString *)label {\n  [ComExampleCounter_label_ autorelease];\n  ComExampleCounter_label_ = [label copy];\n}",
		"- (id)initWithInt:(int)start {\n  if ((self = [super init])) {\n    count_ = 5;\n    count_ = start;\n  }\n  return self;\n}",
		"- (int)get {\n  return count_;\n}",
		"- (void)reset {\n  @synchronized (self) {\n  }\n}",
		"- (void)dealloc {\n  [name_ release];\n  [super dealloc];\n}",
		"+ (void)initialize {\n  if (self == [ComExampleCounter class]) {",
		"ComExampleCounter_instances_ = 1;",
	)
	expectNone(t, m, "static int ComExampleCounter_MAX", "[count_ release]")
}

func TestMemoryModes(t *testing.T) {
	tests := []struct {
		name        string
		refCounting bool
		expect      []string
		expectNot   []string
	}{
		{
			name:        "reference counting releases owned ivars",
			refCounting: true,
			expect:      []string{"- (void)dealloc {", "[name_ release];", "[owner_ release];"},
			expectNot:   []string{"__weak", "[peer_ release];"},
		},
		{
			name:        "automatic counting has no dealloc",
			refCounting: false,
			expect:      []string{"ComExampleCounter_label_ = label;"},
			expectNot:   []string{"dealloc", "release]", "autorelease"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := counterUnit()
			td := unit.Types[0]
			owner := field(td.Binding, "owner", jast.Object, jast.ModPrivate, 7, nil)
			peer := field(td.Binding, "peer", jast.Object, jast.ModPrivate, 7, nil)
			peer.Var.Annotations = []string{jast.AnnotationWeak}
			td.Fields = append(td.Fields, owner, peer)

			e, _ := newEmitter(t, unit, tt.refCounting)
			emit(t, e, Declaration)
			m := emit(t, e, Definition)
			expectAll(t, m, tt.expect...)
			expectNone(t, m, tt.expectNot...)
		})
	}
}

func TestWeakIvarUnderARC(t *testing.T) {
	unit := counterUnit()
	td := unit.Types[0]
	peer := field(td.Binding, "peer", jast.Object, jast.ModPrivate, 7, nil)
	peer.Var.Annotations = []string{jast.AnnotationWeak}
	td.Fields = append(td.Fields, peer)

	e, _ := newEmitter(t, unit, false)
	h := emit(t, e, Declaration)
	expectAll(t, h, "  __weak id peer_;", "@property (nonatomic, weak) id peer;")
}

func TestInlineFieldAccess(t *testing.T) {
	e, _ := newEmitter(t, counterUnit(), true, func(c *Config) { c.InlineFieldAccess = true })
	h := emit(t, e, Declaration)
	expectAll(t, h, " @public\n  int count_;\n  NSString *name_;\n}")
	expectNone(t, h, "@property", "@private")
	m := emit(t, e, Definition)
	expectNone(t, m, "@synthesize")
}

func colorUnit() *jast.CompilationUnit {
	color := &jast.TypeBinding{Name: "Color", Package: "com.example", Kind: jast.KindEnum, Super: jast.Enum, Modifiers: jast.ModPublic}
	ctor := &jast.MethodBinding{Name: "Color", DeclaringType: color, Return: voidT, Constructor: true, Modifiers: jast.ModPrivate}
	color.Methods = append(color.Methods, ctor)
	td := &jast.TypeDecl{Pos: jast.Pos{Line: 1}, Binding: color}
	for i, n := range []string{"RED", "GREEN"} {
		v := &jast.VariableBinding{
			Name: n, Type: color, DeclaringType: color, Field: true, EnumConstant: true,
			Modifiers: jast.ModPublic | jast.ModStatic | jast.ModFinal,
		}
		color.Fields = append(color.Fields, v)
		td.Constants = append(td.Constants, &jast.EnumConstant{Pos: jast.Pos{Line: 2 + i}, Var: v, Ctor: ctor})
	}
	return &jast.CompilationUnit{Package: "com.example", File: "com/example/Color.java", Types: []*jast.TypeDecl{td}}
}

func TestEnum(t *testing.T) {
	e, _ := newEmitter(t, colorUnit(), true)
	h := emit(t, e, Declaration)
	expectOrder(t, h,
		"typedef enum {\n  ComExampleColor_RED = 0,\n  ComExampleColor_GREEN = 1,\n} ComExampleColor;",
		"@interface ComExampleColorEnum : JavaLangEnum",
		"+ (ComExampleColorEnum *)RED;",
		"+ (ComExampleColorEnum *)GREEN;",
		"+ (IOSObjectArray *)values;",
		"+ (ComExampleColorEnum *)valueOfWithNSString:(NSString *)name;",
	)
	expectNone(t, h, "initWithNSString:(NSString *)__name")

	m := emit(t, e, Definition)
	expectOrder(t, m,
		"static ComExampleColorEnum *ComExampleColorEnum_RED_;",
		"static ComExampleColorEnum *ComExampleColorEnum_GREEN_;",
		"static IOSObjectArray *ComExampleColorEnum_values;",
		"@interface ComExampleColorEnum ()\n- (id)initWithNSString:(NSString *)__name withInt:(int)__ordinal;\n@end",
		"+ (ComExampleColorEnum *)RED {\n  return ComExampleColorEnum_RED_;\n}",
		"+ (IOSObjectArray *)values {\n  return [IOSObjectArray arrayWithArray:ComExampleColorEnum_values];\n}",
		"@throw [[[JavaLangIllegalArgumentException alloc] initWithNSString:name] autorelease];",
		"- (id)initWithNSString:(NSString *)__name withInt:(int)__ordinal {\n  if ((self = [super initWithNSString:__name withInt:__ordinal])) {\n  }\n  return self;\n}",
		"+ (void)initialize {\n  if (self == [ComExampleColorEnum class]) {",
		`    ComExampleColorEnum_RED_ = [[ComExampleColorEnum alloc] initWithNSString:@"RED" withInt:0];`,
		`    ComExampleColorEnum_GREEN_ = [[ComExampleColorEnum alloc] initWithNSString:@"GREEN" withInt:1];`,
		"    ComExampleColorEnum_values = [[IOSObjectArray alloc] initWithObjects:(id[]){ ComExampleColorEnum_RED_, ComExampleColorEnum_GREEN_ } count:2 type:[IOSClass classWithClass:[ComExampleColorEnum class]]];",
	)
}

func TestEnum_NoConstants(t *testing.T) {
	unit := colorUnit()
	unit.Types[0].Constants = nil
	e, _ := newEmitter(t, unit, true)
	h := emit(t, e, Declaration)
	expectNone(t, h, "typedef enum")
	m := emit(t, e, Definition)
	expectAll(t, m, "ComExampleColorEnum_values = [[IOSObjectArray alloc] initWithLength:0 type:[IOSClass classWithClass:[ComExampleColorEnum class]]];")
}

func shapeUnit(withStatic bool) *jast.CompilationUnit {
	shape := &jast.TypeBinding{Name: "Shape", Package: "com.example", Kind: jast.KindInterface, Modifiers: jast.ModPublic}
	td := &jast.TypeDecl{Pos: jast.Pos{Line: 1}, Binding: shape}
	td.Methods = []*jast.MethodDecl{method(shape, "area", doubleT, jast.ModPublic|jast.ModAbstract, 2)}
	if withStatic {
		origin := &jast.TypeBinding{Name: "Point", Package: "com.example", Kind: jast.KindClass, Super: jast.Object}
		td.Fields = []*jast.FieldDecl{field(shape, "DEFAULT", origin, jast.ModPublic|jast.ModStatic|jast.ModFinal, 3,
			&jast.NullLit{})}
	}
	return &jast.CompilationUnit{Package: "com.example", File: "com/example/Shape.java", Types: []*jast.TypeDecl{td}}
}

func TestInterface(t *testing.T) {
	tests := []struct {
		name       string
		withStatic bool
		files      int
		expect     []string
		expectNot  []string
	}{
		{
			name:      "protocol only",
			files:     1,
			expect:    []string{"@protocol ComExampleShape < NSObject >\n- (double)area;\n@end"},
			expectNot: []string{"@interface"},
		},
		{
			name:       "statics on companion class",
			withStatic: true,
			files:      2,
			expect: []string{
				"@protocol ComExampleShape < NSObject >\n- (double)area;\n@end",
				"@interface ComExampleShape : NSObject\n\n+ (ComExamplePoint *)DEFAULT;\n@end",
			},
			expectNot: []string{"setDEFAULT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEmitter(t, shapeUnit(tt.withStatic), true)
			files, err := e.Files()
			if err != nil {
				t.Fatal(err)
			}
			if len(files) != tt.files {
				t.Fatalf("expected %d files, got %d", tt.files, len(files))
			}
			expectAll(t, files[0].Text, tt.expect...)
			expectNone(t, files[0].Text, tt.expectNot...)
			if tt.files == 2 {
				m := files[1].Text
				expectAll(t, m, "static ComExamplePoint *ComExampleShape_DEFAULT_;", "@implementation ComExampleShape")
				expectNone(t, m, "- (double)area")
			}
		})
	}
}

func TestAbstractMethodStub(t *testing.T) {
	unit := counterUnit()
	td := unit.Types[0]
	td.Binding.Modifiers |= jast.ModAbstract
	td.Methods = append(td.Methods, method(td.Binding, "size", intT, jast.ModPublic|jast.ModAbstract, 12))
	e, _ := newEmitter(t, unit, true)
	emit(t, e, Declaration)
	m := emit(t, e, Definition)
	expectAll(t, m, "- (int)size {\n  // can't call an abstract method\n  [self doesNotRecognizeSelector:_cmd];\n  return 0;\n}")
}

func TestInnerClass(t *testing.T) {
	outer := &jast.TypeBinding{Name: "Outer", Package: "com.example", Kind: jast.KindClass, Super: jast.Object}
	inner := &jast.TypeBinding{Name: "Inner", Package: "com.example", Kind: jast.KindClass, Super: jast.Object, Outer: outer}
	innerDecl := &jast.TypeDecl{Pos: jast.Pos{Line: 2}, Binding: inner}
	outerDecl := &jast.TypeDecl{Pos: jast.Pos{Line: 1}, Binding: outer, Types: []*jast.TypeDecl{innerDecl}}
	unit := &jast.CompilationUnit{Package: "com.example", File: "com/example/Outer.java", Types: []*jast.TypeDecl{outerDecl}}

	tests := []struct {
		name        string
		refCounting bool
		expect      []string
		expectNot   []string
	}{
		{
			name:        "retained outer",
			refCounting: true,
			expect: []string{
				"- (id)initWithComExampleOuter:(ComExampleOuter *)outer$ {\n  if ((self = [super init])) {\n    this$0_ = [outer$ retain];\n  }\n  return self;\n}",
				"- (void)dealloc {\n  [this$0_ release];\n  [super dealloc];\n}",
			},
		},
		{
			name:        "plain outer",
			refCounting: false,
			expect:      []string{"    this$0_ = outer$;"},
			expectNot:   []string{"dealloc", "retain]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEmitter(t, unit, tt.refCounting)
			h := emit(t, e, Declaration)
			expectOrder(t, h,
				"@interface ComExampleOuter : NSObject",
				"- (id)init;",
				"@interface ComExampleOuter_Inner : NSObject {\n @public\n  ComExampleOuter *this$0_;\n}",
				"- (id)initWithComExampleOuter:(ComExampleOuter *)outer$;",
			)
			m := emit(t, e, Definition)
			expectAll(t, m, tt.expect...)
			expectNone(t, m, tt.expectNot...)
		})
	}
}

func nativeUnit(source string) *jast.CompilationUnit {
	foo := &jast.TypeBinding{Name: "Foo", Package: "com.example", Kind: jast.KindClass, Super: jast.Object}
	td := &jast.TypeDecl{Pos: jast.Pos{Line: 1, Start: 0, End: len(source)}, Binding: foo}
	poke := method(foo, "poke", voidT, jast.ModNative, 2)
	start := strings.Index(source, "native")
	poke.Pos = jast.Pos{Line: 2, Start: start, End: start + strings.Index(source[start:], ";") + 1}
	td.Methods = []*jast.MethodDecl{poke}
	unit := &jast.CompilationUnit{Package: "com.example", File: "com/example/Foo.java", Source: source, Types: []*jast.TypeDecl{td}}
	for i := 0; ; {
		j := strings.Index(source[i:], "/*")
		if j < 0 {
			break
		}
		s := i + j
		end := s + strings.Index(source[s:], "*/") + 2
		unit.Comments = append(unit.Comments, jast.Comment{Start: s, End: end, Block: true})
		i = end
	}
	return unit
}

func TestNative(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		missing bool
		header  []string
		expect  []string
	}{
		{
			name:   "single line fragment",
			source: "class Foo {\n  native void poke() /*-[ NSLog(@\"hi\"); ]-*/;\n}\n",
			expect: []string{"- (void)poke {\n  NSLog(@\"hi\");\n}"},
		},
		{
			name:   "multi line fragment keeps relative indentation",
			source: "class Foo {\n  native void poke() /*-[\n    if (x) {\n      y();\n    }\n  ]-*/;\n}\n",
			expect: []string{"- (void)poke {\n  if (x) {\n    y();\n  }\n}"},
		},
		{
			name:    "missing fragment",
			source:  "class Foo {\n  native void poke();\n}\n",
			missing: true,
			expect:  []string{"#error \"missing native code for Foo.poke\""},
		},
		{
			name:   "header fragment",
			source: "/*-HEADER[#include <stdio.h>]-*/\nclass Foo {\n  native void poke() /*-[ puts(\"a\"); ]-*/;\n}\n",
			header: []string{"#include <stdio.h>"},
			expect: []string{"  puts(\"a\");"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, diags := newEmitter(t, nativeUnit(tt.source), true)
			h := emit(t, e, Declaration)
			expectAll(t, h, "- (void)poke;")
			expectAll(t, h, tt.header...)
			m := emit(t, e, Definition)
			expectAll(t, m, tt.expect...)

			var kinds []diag.Kind
			for _, d := range diags.Diagnostics() {
				kinds = append(kinds, d.Kind)
			}
			var want []diag.Kind
			if tt.missing {
				want = []diag.Kind{diag.MissingNative}
			}
			if diff := cmp.Diff(want, kinds); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTestMain(t *testing.T) {
	tests := []struct {
		name   string
		build  func(*jast.TypeDecl)
		expect []string
		none   bool
	}{
		{
			name: "main method",
			build: func(td *jast.TypeDecl) {
				main := method(td.Binding, "main", voidT, jast.ModPublic|jast.ModStatic, 3)
				main.Binding.Params = []*jast.TypeBinding{jast.ArrayOf(jast.String)}
				main.Params = []*jast.VariableBinding{{Name: "args", Type: main.Binding.Params[0], Parameter: true}}
				td.Methods = append(td.Methods, main)
			},
			expect: []string{
				"int main(int argc, const char *argv[]) {\n  @autoreleasepool {\n    [ComExampleApp mainWithNSStringArray:JreEmulationMainArguments(argc, argv)];\n  }\n  return 0;\n}",
			},
		},
		{
			name: "test class",
			build: func(td *jast.TypeDecl) {
				m := method(td.Binding, "testAdd", voidT, jast.ModPublic, 3)
				m.Binding.Annotations = []string{jast.AnnotationTest}
				td.Methods = append(td.Methods, m)
			},
			expect: []string{
				`#import "JUnitRunner.h"`,
				"    status = [JUnitRunner runTestClass:[ComExampleApp class]];",
				"  return status;",
			},
		},
		{
			name:  "neither",
			build: func(td *jast.TypeDecl) {},
			none:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &jast.TypeBinding{Name: "App", Package: "com.example", Kind: jast.KindClass, Super: jast.Object, Modifiers: jast.ModPublic}
			td := &jast.TypeDecl{Pos: jast.Pos{Line: 1}, Binding: app}
			tt.build(td)
			unit := &jast.CompilationUnit{Package: "com.example", File: "com/example/App.java", Types: []*jast.TypeDecl{td}}
			e, _ := newEmitter(t, unit, true, func(c *Config) { c.TestMain = true })
			emit(t, e, Declaration)
			m := emit(t, e, Definition)
			expectAll(t, m, tt.expect...)
			if tt.none {
				expectNone(t, m, "int main(")
			}
		})
	}
}

func TestUnsupportedAbortsUnit(t *testing.T) {
	unit := counterUnit()
	td := unit.Types[0]
	td.Methods = append(td.Methods, method(td.Binding, "broken", voidT, jast.ModPublic, 12,
		&jast.Case{Value: num("1", intT)}))
	e, _ := newEmitter(t, unit, true)

	if _, err := e.Emit(Declaration); err != nil {
		t.Fatalf("header should not translate bodies: %v", err)
	}
	text, err := e.Emit(Definition)
	if !errors.Is(err, diag.ErrUnsupported) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if text != "" {
		t.Errorf("expected no text, got:\n%s", text)
	}
	if _, err := e.Files(); err == nil {
		t.Error("Files should fail too")
	}
}

func TestModeExtension(t *testing.T) {
	if got := Declaration.Extension(); got != ".h" {
		t.Errorf("Declaration: %s", got)
	}
	if got := Definition.Extension(); got != ".m" {
		t.Errorf("Definition: %s", got)
	}
	if Definition.String() != "definition" {
		t.Errorf("Definition.String() = %s", Definition.String())
	}
}
