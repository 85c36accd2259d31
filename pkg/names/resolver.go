// Package names maps source bindings to collision-free identifiers legal in
// generated code. One Resolver is shared by every unit of a translation run;
// its table only grows, and each binding's name is fixed the first time it is
// requested.
package names

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// PrefixLookup supplies configured package prefixes.
type PrefixLookup interface {
	Lookup(pkg string) (string, bool)
}

// Resolver is the naming service. It is safe for concurrent use.
type Resolver struct {
	prefixes PrefixLookup

	mu        sync.Mutex
	entries   map[jast.Binding]string
	fullNames map[*jast.TypeBinding]string
	selectors map[*jast.MethodBinding]string
}

// New creates a resolver. prefixes may be nil.
func New(prefixes PrefixLookup) *Resolver {
	return &Resolver{
		prefixes:  prefixes,
		entries:   make(map[jast.Binding]string),
		fullNames: make(map[*jast.TypeBinding]string),
		selectors: make(map[*jast.MethodBinding]string),
	}
}

// insertOrFetch stores name for key unless another caller got there first,
// and returns whichever name is stored.
func insertOrFetch[K comparable](mu *sync.Mutex, m map[K]string, key K, name string) string {
	mu.Lock()
	defer mu.Unlock()
	if existing, ok := m[key]; ok {
		return existing
	}
	m[key] = name
	return name
}

func fetch[K comparable](mu *sync.Mutex, m map[K]string, key K) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	name, ok := m[key]
	return name, ok
}

// Rename records an explicit display name for b. It has no effect when b is
// already named; the returned string is the name in force either way.
func (r *Resolver) Rename(b jast.Binding, name string) string {
	return insertOrFetch(&r.mu, r.entries, b, name)
}

// Name returns the identifier for a variable, method or type binding. For
// methods this is the base name the selector is built from.
func (r *Resolver) Name(b jast.Binding) string {
	if name, ok := fetch(&r.mu, r.entries, b); ok {
		return name
	}
	return insertOrFetch(&r.mu, r.entries, b, r.derive(b))
}

func (r *Resolver) derive(b jast.Binding) string {
	switch v := b.(type) {
	case *jast.VariableBinding:
		if v.Synthetic {
			return v.Name
		}
		if IsReserved(v.Name) || (v.Field && collidesWithMethod(v)) {
			return v.Name + "_"
		}
		return v.Name
	case *jast.MethodBinding:
		if v.Constructor {
			return "init"
		}
		// a keyword selector never spells the bare name
		if IsReserved(v.Name) && len(jast.SelectorParams(v)) == 0 {
			return v.Name + "_"
		}
		return v.Name
	case *jast.TypeBinding:
		return v.Name
	}
	return b.BindingName()
}

// collidesWithMethod reports whether a field shares its name with a method of
// its class or any supertype; the generated accessors would clash.
func collidesWithMethod(v *jast.VariableBinding) bool {
	seen := map[*jast.TypeBinding]bool{}
	var walk func(t *jast.TypeBinding) bool
	walk = func(t *jast.TypeBinding) bool {
		if t == nil || seen[t] {
			return false
		}
		seen[t] = true
		for _, m := range t.Methods {
			if !m.Constructor && m.Name == v.Name {
				return true
			}
		}
		if walk(t.Super) {
			return true
		}
		for _, i := range t.Interfaces {
			if walk(i) {
				return true
			}
		}
		return false
	}
	return walk(v.DeclaringType)
}

// OuterIvar holds an inner class instance's enclosing instance.
const OuterIvar = "this$0_"

// CaptureIvar returns the instance variable holding captured local v inside a
// local or anonymous class.
func CaptureIvar(v *jast.VariableBinding) string {
	return "val$" + v.Name + "_"
}

// IvarName returns the instance variable backing field v.
func (r *Resolver) IvarName(v *jast.VariableBinding) string {
	return r.Name(v) + "_"
}

// StaticVarName returns the file-level variable backing static field v.
func (r *Resolver) StaticVarName(v *jast.VariableBinding) string {
	return r.FullName(v.DeclaringType) + "_" + r.Name(v) + "_"
}

// ConstantName returns the macro naming primitive constant v.
func (r *Resolver) ConstantName(v *jast.VariableBinding) string {
	return r.FullName(v.DeclaringType) + "_" + r.Name(v)
}

// EnumConstantName returns the C enumerator for enum constant v.
func (r *Resolver) EnumConstantName(v *jast.VariableBinding) string {
	return r.EnumTypedefName(v.DeclaringType) + "_" + v.Name
}

// EnumTypedefName returns the C enum typedef naming the ordinals of enum t.
func (r *Resolver) EnumTypedefName(t *jast.TypeBinding) string {
	return strings.TrimSuffix(r.FullName(t), "Enum")
}

// Prefix returns the name prefix for a package: the configured prefix, or the
// package path with each segment capitalized ("com.example" -> "ComExample").
func (r *Resolver) Prefix(pkg string) string {
	if pkg == "" {
		return ""
	}
	if r.prefixes != nil {
		if p, ok := r.prefixes.Lookup(pkg); ok {
			return p
		}
	}
	var sb strings.Builder
	for _, seg := range strings.Split(pkg, ".") {
		sb.WriteString(Capitalize(seg))
	}
	return sb.String()
}

// FullName returns the global class or protocol name for a declared type.
// Member types join their outer type's name with "_"; local types insert the
// enclosing method's name; enums get an "Enum" suffix.
func (r *Resolver) FullName(t *jast.TypeBinding) string {
	t = t.Erasure()
	if t.Outer == nil {
		if n, ok := PlatformTypeName(t.QualifiedName()); ok {
			return n
		}
	}
	if name, ok := fetch(&r.mu, r.fullNames, t); ok {
		return name
	}

	suffix := ""
	if t.IsEnum() {
		suffix = "Enum"
	}
	var name string
	if outer := t.Outer; outer != nil {
		prefix := ""
		if t.EnclosingMethod != nil && !t.Anonymous {
			prefix += "_" + t.EnclosingMethod.Name
		}
		for outer.Anonymous && outer.Outer != nil {
			prefix += "_" + outer.Name
			outer = outer.Outer
		}
		name = r.FullName(outer) + prefix + "_" + r.Name(t) + suffix
	} else {
		name = r.Prefix(t.Package) + r.Name(t) + suffix
	}
	return insertOrFetch(&r.mu, r.fullNames, t, name)
}

// ParamKeyword returns the selector keyword describing a parameter type:
// "Int" for int, "Id" for Object, "NSString" for String, "IntArray" for
// int[], "NSStringArray2" for String[][].
func (r *Resolver) ParamKeyword(t *jast.TypeBinding) string {
	t = t.Erasure()
	switch t.Kind {
	case jast.KindPrimitive:
		return Capitalize(t.Primitive.String())
	case jast.KindArray:
		elem := t.ElementType()
		var base string
		switch {
		case elem.IsPrimitive():
			base = Capitalize(elem.Primitive.String())
		default:
			base = r.FullName(elem)
		}
		kw := base + "Array"
		if dims := t.Dimensions(); dims > 1 {
			kw += strconv.Itoa(dims)
		}
		return kw
	case jast.KindNull:
		return "Id"
	}
	if jast.IsObject(t) {
		return "Id"
	}
	return r.FullName(t)
}

// Selector returns the full selector for m, e.g. "addWithInt:withNSString:".
// Overriding methods share the selector of the method they override.
func (r *Resolver) Selector(m *jast.MethodBinding) string {
	if sel, ok := fetch(&r.mu, r.selectors, m); ok {
		return sel
	}
	return insertOrFetch(&r.mu, r.selectors, m, r.deriveSelector(m))
}

func (r *Resolver) deriveSelector(m *jast.MethodBinding) string {
	if m.ObjCName != "" {
		return m.ObjCName
	}
	if m.Overrides != nil {
		return r.Selector(m.Overrides)
	}
	if !m.Constructor && !m.IsStatic() {
		if byArity, ok := objectMethodRenames[m.Name]; ok {
			if sel, ok := byArity[len(m.Params)]; ok && (len(m.Params) == 0 || jast.IsObject(m.Params[0].Erasure())) {
				return sel
			}
		}
	}
	params := jast.SelectorParams(m)
	base := r.Name(m)
	if len(params) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	for i, p := range params {
		if i == 0 {
			sb.WriteString("With")
		} else {
			sb.WriteString("with")
		}
		sb.WriteString(r.ParamKeyword(p))
		sb.WriteByte(':')
	}
	return sb.String()
}

// Keywords splits m's selector into its keyword parts without colons.
// A selector without arguments yields a single element.
func (r *Resolver) Keywords(m *jast.MethodBinding) []string {
	sel := r.Selector(m)
	if !strings.HasSuffix(sel, ":") {
		return []string{sel}
	}
	return strings.Split(strings.TrimSuffix(sel, ":"), ":")
}

// DisambiguateLocalTypes renames local classes that would otherwise share a
// full name: same outer type, same enclosing method name, same simple name.
// Later declarations get a numeric suffix. It must run before any of the
// types' full names are requested.
func (r *Resolver) DisambiguateLocalTypes(types []*jast.TypeBinding) {
	type key struct {
		outer  *jast.TypeBinding
		method string
		name   string
	}
	seen := map[key]int{}
	for _, t := range types {
		if !t.Local || t.Anonymous || t.EnclosingMethod == nil {
			continue
		}
		k := key{t.Outer, t.EnclosingMethod.Name, t.Name}
		seen[k]++
		if n := seen[k]; n > 1 {
			r.Rename(t, t.Name+strconv.Itoa(n))
		}
	}
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
