// Package typemap maps source types onto the target platform's type syntax:
// C scalars for primitives, class pointers, id and id<Protocol> for the
// universal object type and interfaces, and array wrapper classes.
package typemap

import (
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/names"
)

// Mapper renders type descriptors. It keeps no state of its own beyond the
// shared resolver, so one Mapper can serve every unit of a run.
type Mapper struct {
	names *names.Resolver
}

// New creates a mapper that names declared types through r.
func New(r *names.Resolver) *Mapper {
	return &Mapper{names: r}
}

var primitiveNames = map[jast.PrimitiveKind]string{
	jast.Void:    "void",
	jast.Boolean: "BOOL",
	jast.Byte:    "char",
	jast.Char:    "unichar",
	jast.Short:   "int16_t",
	jast.Int:     "int",
	jast.Long:    "long long",
	jast.Float:   "float",
	jast.Double:  "double",
}

// Primitive returns the C type standing in for p.
func Primitive(p jast.PrimitiveKind) string {
	return primitiveNames[p]
}

// Type returns the bare target name of t: a C scalar, a class name, "id" for
// the universal object type, or a protocol name for interfaces. It is the
// form used in class messages ("[NSString class]") and casts of primitives.
func (m *Mapper) Type(t *jast.TypeBinding) string {
	t = t.Erasure()
	switch t.Kind {
	case jast.KindPrimitive:
		return Primitive(t.Primitive)
	case jast.KindArray:
		return ArrayWrapper(t.Elem)
	case jast.KindNull:
		return "id"
	}
	if jast.IsObject(t) {
		return "id"
	}
	return m.names.FullName(t)
}

// Reference returns t as it appears in a declaration: primitives as is,
// "id" for the object type, "id<P>" for interface P and "Name *" otherwise.
func (m *Mapper) Reference(t *jast.TypeBinding) string {
	t = t.Erasure()
	switch {
	case t.IsPrimitive():
		return Primitive(t.Primitive)
	case t.IsNull(), jast.IsObject(t):
		return "id"
	case t.IsInterface():
		return "id<" + m.names.FullName(t) + ">"
	}
	return m.Type(t) + " *"
}

// Declaration joins a reference type with a variable name, dropping the space
// after a pointer star: "NSString *name", "int count", "id<P> item".
func (m *Mapper) Declaration(t *jast.TypeBinding, name string) string {
	ref := m.Reference(t)
	if strings.HasSuffix(ref, "*") {
		return ref + name
	}
	return ref + " " + name
}

// Cast returns the parenthesized cast prefix for t, e.g. "(NSString *) ".
func (m *Mapper) Cast(t *jast.TypeBinding) string {
	return "(" + m.Reference(t) + ") "
}

// ArrayWrapper returns the wrapper class holding elements of type elem.
func ArrayWrapper(elem *jast.TypeBinding) string {
	return "IOS" + ElementKeyword(elem) + "Array"
}

// ElementKeyword names the accessor family for elements of type elem:
// "Int" for int elements ("intAtIndex:", "replaceIntAtIndex:withInt:"),
// "Object" for every reference element type.
func ElementKeyword(elem *jast.TypeBinding) string {
	elem = elem.Erasure()
	if !elem.IsPrimitive() {
		return "Object"
	}
	return names.Capitalize(elem.Primitive.String())
}

// ElementGetter returns the selector part reading one element, e.g.
// "intAtIndex:" or "objectAtIndex:".
func ElementGetter(elem *jast.TypeBinding) string {
	kw := ElementKeyword(elem)
	return strings.ToLower(kw[:1]) + kw[1:] + "AtIndex:"
}

// ElementSetter returns the two keywords storing one element, e.g.
// "replaceIntAtIndex:" and "withInt:".
func ElementSetter(elem *jast.TypeBinding) (string, string) {
	kw := ElementKeyword(elem)
	return "replace" + kw + "AtIndex:", "with" + kw + ":"
}

// ElementRef returns the selector yielding a pointer to a primitive element,
// used for in-place updates, e.g. "intRefAtIndex:".
func ElementRef(elem *jast.TypeBinding) string {
	kw := ElementKeyword(elem)
	return strings.ToLower(kw[:1]) + kw[1:] + "RefAtIndex:"
}

// BoxClass returns the wrapper class name for primitive p, e.g.
// "JavaLangInteger".
func (m *Mapper) BoxClass(p jast.PrimitiveKind) string {
	return m.names.FullName(jast.BoxType(p))
}

// BoxSelector returns the factory selector boxing a p, e.g. "valueOfWithInt:".
func BoxSelector(p jast.PrimitiveKind) string {
	return "valueOfWith" + names.Capitalize(p.String()) + ":"
}

// UnboxSelector returns the message extracting a p, e.g. "intValue".
func UnboxSelector(p jast.PrimitiveKind) string {
	return p.String() + "Value"
}

// ClassObject returns an expression evaluating to the runtime class object
// (IOSClass) describing t.
func (m *Mapper) ClassObject(t *jast.TypeBinding) string {
	t = t.Erasure()
	switch {
	case t.IsPrimitive():
		return "[IOSClass " + t.Primitive.String() + "Class]"
	case t.IsArray():
		return "[IOSClass arrayClassWithComponentType:" + m.ClassObject(t.Elem) + "]"
	case t.IsInterface():
		return "[IOSClass classWithProtocol:@protocol(" + m.names.FullName(t) + ")]"
	}
	return "[IOSClass classWithClass:[" + m.names.FullName(t) + " class]]"
}

// IsRetainable reports whether values of t are reference counted.
func IsRetainable(t *jast.TypeBinding) bool {
	return t != nil && t.IsReference() && !t.IsNull()
}

// platformHeaders lists runtime classes whose declarations come from a
// fixed header rather than one derived from the source path.
var platformHeaders = map[string]string{
	"NSObject":  "",
	"NSString":  "",
	"NSNumber":  "",
	"NSCopying": "",
	"IOSClass":  "IOSClass.h",
}

// Header returns the header declaring t, e.g. "com/example/Foo.h", or ""
// when the platform prelude already declares it. Member and local types live
// in their top-level type's header.
func (m *Mapper) Header(t *jast.TypeBinding) string {
	t = t.Erasure()
	switch t.Kind {
	case jast.KindPrimitive, jast.KindNull:
		return ""
	case jast.KindArray:
		if elem := t.ElementType().Erasure(); !elem.IsPrimitive() || t.Dimensions() > 1 {
			return "IOSObjectArray.h"
		}
		return ArrayWrapper(t.Elem) + ".h"
	}
	if jast.IsObject(t) {
		return ""
	}
	if h, ok := platformHeaders[m.names.FullName(t)]; ok {
		return h
	}
	return HeaderPath(t.TopLevel())
}

// HeaderPath returns the path of the declaration file for top-level type t.
func HeaderPath(t *jast.TypeBinding) string {
	return SourcePath(t) + ".h"
}

// SourcePath returns the extension-less output path for top-level type t:
// its qualified name with dots replaced by slashes.
func SourcePath(t *jast.TypeBinding) string {
	return strings.ReplaceAll(t.QualifiedName(), ".", "/")
}
