// Package jast defines the resolved source tree handed over by the frontend.
// Every identifier in the tree points at a canonical binding: two references
// to the same declaration share one binding pointer, and that pointer is the
// identity used for renaming decisions.
package jast

import "strings"

// Binding is implemented by type, method and variable bindings.
type Binding interface {
	implBinding()
	BindingName() string
}

// TypeKind classifies a type binding
type TypeKind int

const (
	KindPrimitive TypeKind = iota
	KindClass
	KindInterface
	KindEnum
	KindArray
	KindTypeVar
	KindNull
)

func (k TypeKind) String() string {
	names := []string{"primitive", "class", "interface", "enum", "array", "typevar", "null"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// PrimitiveKind identifies a primitive type
type PrimitiveKind int

const (
	Void PrimitiveKind = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

func (p PrimitiveKind) String() string {
	names := []string{"void", "boolean", "byte", "char", "short", "int", "long", "float", "double"}
	if int(p) < len(names) {
		return names[p]
	}
	return "?"
}

// IsIntegral reports whether p is one of the integer kinds (char included).
func (p PrimitiveKind) IsIntegral() bool {
	switch p {
	case Byte, Char, Short, Int, Long:
		return true
	}
	return false
}

// IsFloating reports whether p is float or double.
func (p PrimitiveKind) IsFloating() bool {
	return p == Float || p == Double
}

// Modifiers is a bit set of declaration modifiers
type Modifiers uint32

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModFinal
	ModAbstract
	ModNative
	ModSynchronized
	ModVolatile
	ModTransient
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModFinal, "final"},
	{ModAbstract, "abstract"},
	{ModNative, "native"},
	{ModSynchronized, "synchronized"},
	{ModVolatile, "volatile"},
	{ModTransient, "transient"},
}

// Has reports whether all bits of f are set.
func (m Modifiers) Has(f Modifiers) bool {
	return m&f == f
}

func (m Modifiers) String() string {
	var parts []string
	for _, mn := range modifierNames {
		if m.Has(mn.mod) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}

// ParseModifier maps a modifier keyword to its bit; ok is false for unknown words.
func ParseModifier(word string) (Modifiers, bool) {
	for _, mn := range modifierNames {
		if mn.name == word {
			return mn.mod, true
		}
	}
	return 0, false
}

// Annotation names with translation meaning.
const (
	AnnotationWeak            = "Weak"
	AnnotationAutoreleasePool = "AutoreleasePool"
	AnnotationTest            = "Test"
)

func hasAnnotation(list []string, name string) bool {
	for _, a := range list {
		if a == name || strings.HasSuffix(a, "."+name) {
			return true
		}
	}
	return false
}

// TypeBinding describes a declared, primitive, array or type-variable type.
type TypeBinding struct {
	Name            string // simple name; anonymous classes use the frontend's "$N" name
	Package         string
	Kind            TypeKind
	Primitive       PrimitiveKind
	Elem            *TypeBinding // array component type
	Bound           *TypeBinding // type variable bound; nil means Object
	Super           *TypeBinding
	Interfaces      []*TypeBinding
	Outer           *TypeBinding   // declaring type of member, local and anonymous types
	EnclosingMethod *MethodBinding // set for local and anonymous types
	Modifiers       Modifiers
	Anonymous       bool
	Local           bool
	Fields          []*VariableBinding
	Methods         []*MethodBinding
	Captures        []*VariableBinding // outer locals captured by local and anonymous classes
	Annotations     []string
}

func (*TypeBinding) implBinding() {}

// BindingName returns the simple name.
func (t *TypeBinding) BindingName() string { return t.Name }

// IsPrimitive reports whether t is a primitive (void included).
func (t *TypeBinding) IsPrimitive() bool { return t != nil && t.Kind == KindPrimitive }

// IsVoid reports whether t is the void type.
func (t *TypeBinding) IsVoid() bool { return t.IsPrimitive() && t.Primitive == Void }

// IsPrimitiveKind reports whether t is the primitive p.
func (t *TypeBinding) IsPrimitiveKind(p PrimitiveKind) bool {
	return t.IsPrimitive() && t.Primitive == p
}

// IsArray reports whether t is an array type.
func (t *TypeBinding) IsArray() bool { return t != nil && t.Kind == KindArray }

// IsInterface reports whether t is an interface.
func (t *TypeBinding) IsInterface() bool { return t != nil && t.Kind == KindInterface }

// IsEnum reports whether t is an enum.
func (t *TypeBinding) IsEnum() bool { return t != nil && t.Kind == KindEnum }

// IsNull reports whether t is the type of the null literal.
func (t *TypeBinding) IsNull() bool { return t != nil && t.Kind == KindNull }

// IsReference reports whether values of t are object references.
func (t *TypeBinding) IsReference() bool { return t != nil && t.Kind != KindPrimitive }

// IsStatic reports whether a member type carries no enclosing instance.
func (t *TypeBinding) IsStatic() bool {
	return t.Modifiers.Has(ModStatic) || t.Kind == KindInterface || t.Kind == KindEnum
}

// HasOuterInstance reports whether instances of t capture an enclosing instance.
func (t *TypeBinding) HasOuterInstance() bool {
	if t == nil || t.Outer == nil || t.Kind != KindClass || t.IsStatic() {
		return false
	}
	if t.Outer.IsInterface() {
		return false
	}
	if t.EnclosingMethod != nil && t.EnclosingMethod.Modifiers.Has(ModStatic) {
		return false
	}
	return true
}

// QualifiedName returns the dotted source name, e.g. "java.util.Map.Entry".
func (t *TypeBinding) QualifiedName() string {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.String()
	case KindArray:
		return t.Elem.QualifiedName() + "[]"
	case KindNull:
		return "null"
	case KindTypeVar:
		return t.Name
	}
	if t.Outer != nil {
		return t.Outer.QualifiedName() + "." + t.Name
	}
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Is reports whether t is the declared type with the given qualified name.
func (t *TypeBinding) Is(qualified string) bool {
	return t != nil && (t.Kind == KindClass || t.Kind == KindInterface || t.Kind == KindEnum) &&
		t.QualifiedName() == qualified
}

// Erasure replaces type variables with their bounds.
func (t *TypeBinding) Erasure() *TypeBinding {
	switch t.Kind {
	case KindTypeVar:
		if t.Bound == nil {
			return Object
		}
		return t.Bound.Erasure()
	case KindArray:
		elem := t.Elem.Erasure()
		if elem == t.Elem {
			return t
		}
		return ArrayOf(elem)
	}
	return t
}

// Dimensions returns the array depth of t.
func (t *TypeBinding) Dimensions() int {
	n := 0
	for t.IsArray() {
		n++
		t = t.Elem
	}
	return n
}

// ElementType returns the innermost non-array component of t.
func (t *TypeBinding) ElementType() *TypeBinding {
	for t.IsArray() {
		t = t.Elem
	}
	return t
}

// TopLevel returns the outermost declaring type of t.
func (t *TypeBinding) TopLevel() *TypeBinding {
	for t.Outer != nil {
		t = t.Outer
	}
	return t
}

// IsSubtypeOf reports whether t is other or inherits from it.
func (t *TypeBinding) IsSubtypeOf(other *TypeBinding) bool {
	if t == nil || other == nil {
		return false
	}
	if t == other || (t.Kind != KindPrimitive && other.QualifiedName() == t.QualifiedName()) {
		return true
	}
	if t.Super != nil && t.Super.IsSubtypeOf(other) {
		return true
	}
	for _, i := range t.Interfaces {
		if i.IsSubtypeOf(other) {
			return true
		}
	}
	return false
}

// HasAnnotation reports whether t carries the named annotation.
func (t *TypeBinding) HasAnnotation(name string) bool { return hasAnnotation(t.Annotations, name) }

// MethodBinding describes a method or constructor declaration.
type MethodBinding struct {
	Name          string
	DeclaringType *TypeBinding
	Params        []*TypeBinding
	Return        *TypeBinding
	Modifiers     Modifiers
	Constructor   bool
	Varargs       bool
	Overrides     *MethodBinding
	ObjCName      string // explicit selector requested by the source
	Annotations   []string
}

func (*MethodBinding) implBinding() {}

// BindingName returns the method name.
func (m *MethodBinding) BindingName() string { return m.Name }

// IsStatic reports whether m is a static method.
func (m *MethodBinding) IsStatic() bool { return m.Modifiers.Has(ModStatic) }

// HasAnnotation reports whether m carries the named annotation.
func (m *MethodBinding) HasAnnotation(name string) bool { return hasAnnotation(m.Annotations, name) }

// VariableBinding describes a field, parameter or local variable.
type VariableBinding struct {
	Name            string
	Type            *TypeBinding
	DeclaringType   *TypeBinding   // fields only
	DeclaringMethod *MethodBinding // parameters and locals
	Field           bool
	Parameter       bool
	EnumConstant    bool
	Modifiers       Modifiers
	Constant        any // bool, int64, float64, rune or string when compile-time constant
	Annotations     []string
	Synthetic       bool
}

func (*VariableBinding) implBinding() {}

// BindingName returns the variable name.
func (v *VariableBinding) BindingName() string { return v.Name }

// IsStatic reports whether v is a static field.
func (v *VariableBinding) IsStatic() bool { return v.Field && v.Modifiers.Has(ModStatic) }

// IsWeak reports whether v is annotated as a weak reference.
func (v *VariableBinding) IsWeak() bool { return hasAnnotation(v.Annotations, AnnotationWeak) }

// IsPoolScoped reports whether a loop over v runs each iteration in its own
// autorelease pool.
func (v *VariableBinding) IsPoolScoped() bool {
	return hasAnnotation(v.Annotations, AnnotationAutoreleasePool)
}

// IsPrimitiveConstant reports whether v is a static final primitive with a
// compile-time value.
func (v *VariableBinding) IsPrimitiveConstant() bool {
	return v.IsStatic() && v.Modifiers.Has(ModFinal) && v.Constant != nil && v.Type.IsPrimitive()
}

// NewSyntheticVariable creates a variable whose name need not be a legal
// source identifier. Translator temporaries are built this way.
func NewSyntheticVariable(name string, typ *TypeBinding) *VariableBinding {
	return &VariableBinding{Name: name, Type: typ, Synthetic: true}
}

// ImplicitParam is a constructor parameter the source never spells out.
type ImplicitParam struct {
	Name    string
	Type    *TypeBinding
	Capture *VariableBinding // the captured local, for capture parameters
}

// Implicit parameter names. '$' keeps them clear of source identifiers.
const (
	OuterParamName   = "outer$"
	EnumNameParam    = "__name"
	EnumOrdinalParam = "__ordinal"
)

// LeadingParams returns the implicit parameters placed before the declared
// ones: the enclosing instance of an inner class.
func LeadingParams(m *MethodBinding) []ImplicitParam {
	if !m.Constructor || !m.DeclaringType.HasOuterInstance() {
		return nil
	}
	return []ImplicitParam{{Name: OuterParamName, Type: m.DeclaringType.Outer}}
}

// TrailingParams returns the implicit parameters placed after the declared
// ones: captured locals, then an enum constant's name and ordinal.
func TrailingParams(m *MethodBinding) []ImplicitParam {
	if !m.Constructor {
		return nil
	}
	var out []ImplicitParam
	for _, c := range m.DeclaringType.Captures {
		out = append(out, ImplicitParam{Name: "capture$" + c.Name, Type: c.Type, Capture: c})
	}
	if m.DeclaringType.IsEnum() {
		out = append(out,
			ImplicitParam{Name: EnumNameParam, Type: String},
			ImplicitParam{Name: EnumOrdinalParam, Type: PrimitiveType(Int)})
	}
	return out
}

// SelectorParams returns the full parameter type list that determines m's
// selector, implicit parameters included.
func SelectorParams(m *MethodBinding) []*TypeBinding {
	var out []*TypeBinding
	for _, p := range LeadingParams(m) {
		out = append(out, p.Type)
	}
	out = append(out, m.Params...)
	for _, p := range TrailingParams(m) {
		out = append(out, p.Type)
	}
	return out
}
