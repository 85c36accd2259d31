package typemap

import (
	"testing"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/names"
)

var (
	runnable = &jast.TypeBinding{Name: "Runnable", Package: "com.example", Kind: jast.KindInterface}
	shape    = &jast.TypeBinding{Name: "Shape", Package: "com.example", Kind: jast.KindClass, Super: jast.Object}
	circle   = &jast.TypeBinding{Name: "Circle", Package: "com.example", Kind: jast.KindClass, Super: shape, Outer: shape}
	typeVar  = &jast.TypeBinding{Name: "T", Kind: jast.KindTypeVar}
	bounded  = &jast.TypeBinding{Name: "S", Kind: jast.KindTypeVar, Bound: shape}
)

func prim(p jast.PrimitiveKind) *jast.TypeBinding { return jast.PrimitiveType(p) }

func TestReference(t *testing.T) {
	tests := []struct {
		name     string
		typ      *jast.TypeBinding
		expected string
	}{
		{"boolean", prim(jast.Boolean), "BOOL"},
		{"byte", prim(jast.Byte), "char"},
		{"char", prim(jast.Char), "unichar"},
		{"short", prim(jast.Short), "int16_t"},
		{"int", prim(jast.Int), "int"},
		{"long", prim(jast.Long), "long long"},
		{"float", prim(jast.Float), "float"},
		{"double", prim(jast.Double), "double"},
		{"void", prim(jast.Void), "void"},
		{"object", jast.Object, "id"},
		{"null", jast.NullType, "id"},
		{"string", jast.String, "NSString *"},
		{"class", jast.Class, "IOSClass *"},
		{"interface", runnable, "id<ComExampleRunnable>"},
		{"declared", shape, "ComExampleShape *"},
		{"member", circle, "ComExampleShape_Circle *"},
		{"type variable", typeVar, "id"},
		{"bounded type variable", bounded, "ComExampleShape *"},
		{"int array", jast.ArrayOf(prim(jast.Int)), "IOSIntArray *"},
		{"string array", jast.ArrayOf(jast.String), "IOSObjectArray *"},
		{"int matrix", jast.ArrayOf(jast.ArrayOf(prim(jast.Int))), "IOSObjectArray *"},
		{"boxed", jast.BoxType(jast.Int), "JavaLangInteger *"},
	}

	m := New(names.New(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Reference(tt.typ); got != tt.expected {
				t.Errorf("Reference = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeclaration(t *testing.T) {
	m := New(names.New(nil))
	tests := []struct {
		typ      *jast.TypeBinding
		expected string
	}{
		{prim(jast.Int), "int count"},
		{jast.String, "NSString *count"},
		{jast.Object, "id count"},
		{runnable, "id<ComExampleRunnable> count"},
	}
	for _, tt := range tests {
		if got := m.Declaration(tt.typ, "count"); got != tt.expected {
			t.Errorf("Declaration(%s) = %q, want %q", tt.typ.Name, got, tt.expected)
		}
	}
}

func TestElementAccessors(t *testing.T) {
	tests := []struct {
		elem            *jast.TypeBinding
		wrapper, getter string
		replace, with   string
	}{
		{prim(jast.Int), "IOSIntArray", "intAtIndex:", "replaceIntAtIndex:", "withInt:"},
		{prim(jast.Boolean), "IOSBooleanArray", "booleanAtIndex:", "replaceBooleanAtIndex:", "withBoolean:"},
		{prim(jast.Long), "IOSLongArray", "longAtIndex:", "replaceLongAtIndex:", "withLong:"},
		{jast.String, "IOSObjectArray", "objectAtIndex:", "replaceObjectAtIndex:", "withObject:"},
		{jast.ArrayOf(prim(jast.Int)), "IOSObjectArray", "objectAtIndex:", "replaceObjectAtIndex:", "withObject:"},
	}
	for _, tt := range tests {
		t.Run(tt.wrapper+"/"+tt.elem.Name, func(t *testing.T) {
			if got := ArrayWrapper(tt.elem); got != tt.wrapper {
				t.Errorf("ArrayWrapper = %q, want %q", got, tt.wrapper)
			}
			if got := ElementGetter(tt.elem); got != tt.getter {
				t.Errorf("ElementGetter = %q, want %q", got, tt.getter)
			}
			r, w := ElementSetter(tt.elem)
			if r != tt.replace || w != tt.with {
				t.Errorf("ElementSetter = %q %q, want %q %q", r, w, tt.replace, tt.with)
			}
		})
	}
}

func TestBoxing(t *testing.T) {
	m := New(names.New(nil))
	if got := m.BoxClass(jast.Char); got != "JavaLangCharacter" {
		t.Errorf("BoxClass(char) = %q", got)
	}
	if got := BoxSelector(jast.Double); got != "valueOfWithDouble:" {
		t.Errorf("BoxSelector(double) = %q", got)
	}
	if got := UnboxSelector(jast.Boolean); got != "booleanValue" {
		t.Errorf("UnboxSelector(boolean) = %q", got)
	}
}

func TestClassObject(t *testing.T) {
	m := New(names.New(nil))
	tests := []struct {
		typ      *jast.TypeBinding
		expected string
	}{
		{prim(jast.Int), "[IOSClass intClass]"},
		{shape, "[IOSClass classWithClass:[ComExampleShape class]]"},
		{runnable, "[IOSClass classWithProtocol:@protocol(ComExampleRunnable)]"},
		{jast.ArrayOf(jast.String), "[IOSClass arrayClassWithComponentType:[IOSClass classWithClass:[NSString class]]]"},
	}
	for _, tt := range tests {
		if got := m.ClassObject(tt.typ); got != tt.expected {
			t.Errorf("ClassObject(%s) = %q, want %q", tt.typ.Name, got, tt.expected)
		}
	}
}

func TestHeader(t *testing.T) {
	m := New(names.New(nil))
	tests := []struct {
		name     string
		typ      *jast.TypeBinding
		expected string
	}{
		{"primitive", prim(jast.Int), ""},
		{"object", jast.Object, ""},
		{"string", jast.String, ""},
		{"class", jast.Class, "IOSClass.h"},
		{"declared", shape, "com/example/Shape.h"},
		{"member", circle, "com/example/Shape.h"},
		{"boxed", jast.BoxType(jast.Long), "java/lang/Long.h"},
		{"int array", jast.ArrayOf(prim(jast.Int)), "IOSIntArray.h"},
		{"object array", jast.ArrayOf(shape), "IOSObjectArray.h"},
		{"matrix", jast.ArrayOf(jast.ArrayOf(prim(jast.Int))), "IOSObjectArray.h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Header(tt.typ); got != tt.expected {
				t.Errorf("Header = %q, want %q", got, tt.expected)
			}
		})
	}
}
