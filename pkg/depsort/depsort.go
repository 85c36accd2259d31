// Package depsort orders the types of a compilation unit for emission and
// collects the imports and forward declarations each output file needs.
package depsort

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/names"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// ErrCycle is returned when the unit's supertype graph has a cycle.
var ErrCycle = errors.New("supertype cycle")

// Sorter computes emission order and file dependencies.
type Sorter struct {
	names *names.Resolver
	types *typemap.Mapper
}

// New creates a sorter.
func New(r *names.Resolver, m *typemap.Mapper) *Sorter {
	return &Sorter{names: r, types: m}
}

// supertypes returns the direct supertypes of t.
func supertypes(t *jast.TypeBinding) []*jast.TypeBinding {
	var out []*jast.TypeBinding
	if t.Super != nil {
		out = append(out, t.Super.Erasure())
	}
	for _, i := range t.Interfaces {
		out = append(out, i.Erasure())
	}
	return out
}

// signatureTypes returns the types named by t's instance variables and
// method signatures, erased.
func signatureTypes(t *jast.TypeBinding) []*jast.TypeBinding {
	var out []*jast.TypeBinding
	add := func(x *jast.TypeBinding) {
		if x != nil {
			out = append(out, x.Erasure())
		}
	}
	if t.HasOuterInstance() {
		add(t.Outer)
	}
	for _, c := range t.Captures {
		add(c.Type)
	}
	for _, f := range t.Fields {
		add(f.Type)
	}
	for _, m := range t.Methods {
		add(m.Return)
		for _, p := range m.Params {
			add(p)
		}
	}
	return out
}

// Order sorts types so that every supertype declared among them precedes its
// subtypes. Among types whose supertypes are all placed, the earliest
// declared goes first. forward lists the types that some member signature
// names before the type itself is declared.
func (s *Sorter) Order(types []*jast.TypeDecl) (ordered []*jast.TypeDecl, forward []*jast.TypeBinding, err error) {
	index := make(map[*jast.TypeBinding]int, len(types))
	for i, td := range types {
		index[td.Binding] = i
	}
	deps := make([][]int, len(types))
	for i, td := range types {
		for _, sup := range supertypes(td.Binding) {
			if j, ok := index[sup]; ok && j != i {
				deps[i] = append(deps[i], j)
			}
		}
	}

	placed := make([]bool, len(types))
	ordered = make([]*jast.TypeDecl, 0, len(types))
	for len(ordered) < len(types) {
		next := -1
		for i := range types {
			if !placed[i] && ready(deps[i], placed) {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, td := range types {
				if !placed[i] {
					stuck = append(stuck, td.Binding.QualifiedName())
				}
			}
			return nil, nil, fmt.Errorf("%w among %s", ErrCycle, strings.Join(stuck, ", "))
		}
		placed[next] = true
		ordered = append(ordered, types[next])
	}

	pos := make(map[*jast.TypeBinding]int, len(ordered))
	for i, td := range ordered {
		pos[td.Binding] = i
	}
	seen := make(map[*jast.TypeBinding]bool)
	for i, td := range ordered {
		for _, ref := range signatureTypes(td.Binding) {
			ref = ref.ElementType()
			if j, ok := pos[ref]; ok && j > i && !seen[ref] {
				seen[ref] = true
				forward = append(forward, ref)
			}
		}
	}
	sort.SliceStable(forward, func(a, b int) bool {
		return s.names.FullName(forward[a]) < s.names.FullName(forward[b])
	})
	return ordered, forward, nil
}

func ready(deps []int, placed []bool) bool {
	for _, d := range deps {
		if !placed[d] {
			return false
		}
	}
	return true
}

// Deps is everything the emitter needs to lay out a unit's files.
type Deps struct {
	// Ordered holds every type of the unit, supertypes first.
	Ordered []*jast.TypeDecl
	// DeclImports are the headers the declaration file imports: those
	// declaring supertypes from other units.
	DeclImports []string
	// DeclForward are forward declarations ("@class X;", "@protocol P;")
	// for types the declaration file names before or without declaring them.
	DeclForward []string
	// DefImports are the headers the definition file imports.
	DefImports []string

	own map[string]bool // headers the unit itself produces
}

// MergeDefImports adds headers that only translating the bodies reveals,
// such as wrapper classes of boxed values. DefImports stays sorted and never
// lists the unit's own headers.
func (d *Deps) MergeDefImports(headers ...string) {
	set := newSet()
	for _, h := range d.DefImports {
		set.add(h)
	}
	for _, h := range headers {
		if h != "" && !d.own[h] {
			set.add(h)
		}
	}
	d.DefImports = set.sorted()
}

// Collect orders the unit's types and gathers its imports and forward
// declarations, each list sorted.
func (s *Sorter) Collect(unit *jast.CompilationUnit) (*Deps, error) {
	all := jast.AllTypes(unit)
	ordered, forward, err := s.Order(all)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", unit.File, err)
	}
	inUnit := make(map[*jast.TypeBinding]bool, len(all))
	own := make(map[string]bool)
	for _, td := range all {
		inUnit[td.Binding] = true
		own[typemap.HeaderPath(td.Binding.TopLevel())] = true
	}

	declImports := newSet()
	declForward := newSet()
	defImports := newSet()
	header := func(set stringSet, t *jast.TypeBinding) {
		if t == nil {
			return
		}
		if h := s.types.Header(t); h != "" && !own[h] {
			set.add(h)
		}
	}

	for _, t := range forward {
		declForward.add(s.forwardDecl(t))
	}
	for _, td := range all {
		for _, sup := range supertypes(td.Binding) {
			if !inUnit[sup] {
				header(declImports, sup)
			}
		}
		for _, ref := range signatureTypes(td.Binding) {
			if ref.IsArray() {
				header(declImports, ref)
			} else if !inUnit[ref] && s.types.Header(ref) != "" {
				declForward.add(s.forwardDecl(ref))
			}
			header(defImports, ref)
		}
		for _, sup := range supertypes(td.Binding) {
			header(defImports, sup)
		}
		if td.Binding.IsEnum() {
			// values, valueOf and the constants array
			values := jast.ArrayOf(td.Binding)
			header(declImports, values)
			header(defImports, values)
			header(defImports, jast.Class)
			header(defImports, jast.IllegalArgumentException)
		}
		jast.Inspect(td, func(n jast.Node) bool {
			s.bodyHeaders(n, func(t *jast.TypeBinding) { header(defImports, t) })
			return true
		})
	}

	return &Deps{
		Ordered:     ordered,
		DeclImports: declImports.sorted(),
		DeclForward: declForward.sorted(),
		DefImports:  defImports.sorted(),
		own:         own,
	}, nil
}

// forwardDecl returns the forward declaration of t.
func (s *Sorter) forwardDecl(t *jast.TypeBinding) string {
	if t.IsInterface() {
		return "@protocol " + s.names.FullName(t) + ";"
	}
	return "@class " + s.types.Type(t) + ";"
}

// bodyHeaders reports the types whose declarations the translation of n
// refers to.
func (s *Sorter) bodyHeaders(n jast.Node, use func(*jast.TypeBinding)) {
	switch x := n.(type) {
	case *jast.New:
		use(x.Typ)
	case *jast.ArrayCreation:
		use(x.Typ)
		if !x.Typ.ElementType().IsPrimitive() || len(x.Dims) < x.Typ.Dimensions() {
			use(jast.Class)
		}
	case *jast.ArrayInit:
		use(x.Typ)
		if x.Typ != nil && x.Typ.Elem != nil && !x.Typ.Elem.IsPrimitive() {
			use(jast.Class)
		}
	case *jast.ClassLit:
		use(jast.Class)
		use(x.Target)
	case *jast.InstanceOf:
		use(x.Target)
		if x.Target.IsArray() {
			use(jast.Class)
		}
	case *jast.Cast:
		use(x.Typ)
	case *jast.TypeName:
		use(x.Type)
	case *jast.MethodCall:
		use(x.Method.DeclaringType)
		use(x.Method.Return)
		if x.Method.Varargs && len(x.Method.Params) > 0 {
			use(x.Method.Params[len(x.Method.Params)-1])
		}
	case *jast.QualifiedName:
		if x.Var.IsStatic() {
			use(x.Var.DeclaringType)
		}
		use(x.Var.Type)
	case *jast.FieldAccess:
		use(x.Var.Type)
	case *jast.SimpleName:
		if x.Var.IsStatic() {
			use(x.Var.DeclaringType)
		}
	case *jast.Binary:
		for _, op := range x.Operands() {
			if t := op.ExprType(); t != nil {
				if _, boxed := jast.UnboxedKind(t.Erasure()); boxed {
					use(t)
				}
			}
		}
	case *jast.VarDecl:
		for _, f := range x.Fragments {
			use(f.Var.Type)
		}
	case *jast.ForEach:
		use(x.Var.Type)
		if t := x.X.ExprType(); t != nil && t.IsArray() {
			use(t)
		} else {
			use(jast.Iterator)
		}
	case *jast.CatchClause:
		use(x.Param.Type)
	case *jast.EnumConstant:
		if x.Body != nil {
			use(x.Body.Binding)
		}
	}
}

type stringSet map[string]bool

func newSet() stringSet { return stringSet{} }

func (s stringSet) add(v string) { s[v] = true }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
