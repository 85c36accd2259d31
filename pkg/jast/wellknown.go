package jast

// Shared bindings for types every unit may refer to. They are read-only.
var (
	Object    = &TypeBinding{Name: "Object", Package: "java.lang", Kind: KindClass}
	String    = &TypeBinding{Name: "String", Package: "java.lang", Kind: KindClass, Super: Object}
	Class     = &TypeBinding{Name: "Class", Package: "java.lang", Kind: KindClass, Super: Object}
	Number    = &TypeBinding{Name: "Number", Package: "java.lang", Kind: KindClass, Super: Object}
	Enum      = &TypeBinding{Name: "Enum", Package: "java.lang", Kind: KindClass, Super: Object}
	Throwable = &TypeBinding{Name: "Throwable", Package: "java.lang", Kind: KindClass, Super: Object}
	Cloneable = &TypeBinding{Name: "Cloneable", Package: "java.lang", Kind: KindInterface}
	Iterable  = &TypeBinding{Name: "Iterable", Package: "java.lang", Kind: KindInterface}
	Iterator  = &TypeBinding{Name: "Iterator", Package: "java.util", Kind: KindInterface}
	NullType  = &TypeBinding{Name: "null", Kind: KindNull}

	IllegalArgumentException = &TypeBinding{Name: "IllegalArgumentException", Package: "java.lang", Kind: KindClass, Super: Throwable}
)

var primitives = map[PrimitiveKind]*TypeBinding{}

func init() {
	for p := Void; p <= Double; p++ {
		primitives[p] = &TypeBinding{Name: p.String(), Kind: KindPrimitive, Primitive: p}
	}
	for _, b := range boxes {
		boxByPrimitive[b.prim] = b.box
	}
}

// PrimitiveType returns the shared binding for p.
func PrimitiveType(p PrimitiveKind) *TypeBinding {
	return primitives[p]
}

// PrimitiveByName looks up a primitive keyword such as "int".
func PrimitiveByName(name string) (*TypeBinding, bool) {
	for p, t := range primitives {
		if p.String() == name {
			return t, true
		}
	}
	return nil, false
}

// ArrayOf builds an array type with component elem.
func ArrayOf(elem *TypeBinding) *TypeBinding {
	return &TypeBinding{Name: elem.Name + "[]", Kind: KindArray, Elem: elem}
}

type boxEntry struct {
	prim PrimitiveKind
	box  *TypeBinding
}

func boxType(name string) *TypeBinding {
	return &TypeBinding{Name: name, Package: "java.lang", Kind: KindClass, Super: Number}
}

var boxes = []boxEntry{
	{Boolean, &TypeBinding{Name: "Boolean", Package: "java.lang", Kind: KindClass, Super: Object}},
	{Byte, boxType("Byte")},
	{Char, &TypeBinding{Name: "Character", Package: "java.lang", Kind: KindClass, Super: Object}},
	{Short, boxType("Short")},
	{Int, boxType("Integer")},
	{Long, boxType("Long")},
	{Float, boxType("Float")},
	{Double, boxType("Double")},
}

var boxByPrimitive = map[PrimitiveKind]*TypeBinding{}

// BoxType returns the wrapper class for a primitive kind.
func BoxType(p PrimitiveKind) *TypeBinding {
	return boxByPrimitive[p]
}

// UnboxedKind returns the primitive a wrapper class holds.
func UnboxedKind(t *TypeBinding) (PrimitiveKind, bool) {
	if t == nil {
		return 0, false
	}
	for _, b := range boxes {
		if t.Is(b.box.QualifiedName()) {
			return b.prim, true
		}
	}
	return 0, false
}

// WellKnown returns the shared binding for a qualified java.lang/java.util name.
func WellKnown(qualified string) (*TypeBinding, bool) {
	for _, t := range []*TypeBinding{Object, String, Class, Number, Enum, Throwable, Cloneable, Iterable, Iterator, IllegalArgumentException} {
		if t.QualifiedName() == qualified {
			return t, true
		}
	}
	for _, b := range boxes {
		if b.box.QualifiedName() == qualified {
			return b.box, true
		}
	}
	return nil, false
}

// IsObject reports whether t is java.lang.Object.
func IsObject(t *TypeBinding) bool { return t.Is("java.lang.Object") }

// IsString reports whether t is java.lang.String.
func IsString(t *TypeBinding) bool { return t.Is("java.lang.String") }
