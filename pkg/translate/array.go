package translate

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// arrayCreation translates "new T[a][b]" and "new T[] {...}".
func (t *Translator) arrayCreation(x *jast.ArrayCreation) string {
	if x.Init != nil {
		return t.arrayLiteral(x, x.Typ, x.Init.Elems)
	}
	if len(x.Dims) == 0 {
		t.fail(x, "array creation without dimensions")
	}
	lengths := make([]string, len(x.Dims))
	for i, d := range x.Dims {
		lengths[i] = t.toPrimitive(d)
	}
	rest := x.Typ
	for range x.Dims {
		rest = rest.Elem
	}
	if len(x.Dims) == 1 {
		if rest.IsPrimitive() {
			return "[" + typemap.ArrayWrapper(rest) + " arrayWithLength:" + lengths[0] + "]"
		}
		return "[IOSObjectArray arrayWithLength:" + lengths[0] + " type:" + t.types.ClassObject(rest) + "]"
	}
	dims := fmt.Sprintf("arrayWithDimensions:%d lengths:(int[]){%s}", len(lengths), strings.Join(lengths, ", "))
	if rest.IsPrimitive() {
		return "[" + typemap.ArrayWrapper(rest) + " " + dims + "]"
	}
	return "[IOSObjectArray " + dims + " type:" + t.types.ClassObject(rest) + "]"
}

// arrayInit translates a bare initializer, as in "int[] a = {1, 2}".
func (t *Translator) arrayInit(x *jast.ArrayInit) string {
	return t.arrayLiteral(x, x.Typ, x.Elems)
}

// packVarargs collects the trailing arguments of a varargs call into an
// array of the parameter's type.
func (t *Translator) packVarargs(param *jast.TypeBinding, args []jast.Expr) string {
	var n jast.Node
	if len(args) > 0 {
		n = args[0]
	}
	return t.arrayLiteral(n, param, args)
}

// arrayLiteral builds an array of type typ holding elems.
func (t *Translator) arrayLiteral(n jast.Node, typ *jast.TypeBinding, elems []jast.Expr) string {
	if !typ.IsArray() {
		t.fail(n, "array initializer for non-array type %s", typ.Name)
	}
	elem := typ.Elem
	if len(elems) == 0 {
		if elem.IsPrimitive() {
			return "[" + typemap.ArrayWrapper(elem) + " arrayWithLength:0]"
		}
		return "[IOSObjectArray arrayWithLength:0 type:" + t.types.ClassObject(elem) + "]"
	}
	values := make([]string, len(elems))
	for i, e := range elems {
		if init, ok := e.(*jast.ArrayInit); ok {
			values[i] = t.arrayLiteral(init, elem, init.Elems)
			continue
		}
		values[i] = t.coerce(e, elem)
	}
	list := strings.Join(values, ", ")
	if elem.IsPrimitive() {
		kw := typemap.ElementKeyword(elem)
		return fmt.Sprintf("[%s arrayWith%ss:(%s[]){%s} count:%d]",
			typemap.ArrayWrapper(elem), kw, typemap.Primitive(elem.Primitive), list, len(values))
	}
	return fmt.Sprintf("[IOSObjectArray arrayWithObjects:(id[]){%s} count:%d type:%s]",
		list, len(values), t.types.ClassObject(elem))
}
