// Package memory decides where generated code needs reference-counting
// messages and nil-check guards. Every decision is a pure function of the
// site description; nothing is remembered between calls.
package memory

import (
	"fmt"

	"github.com/raymyers/ralph-objc/pkg/jast"
	"github.com/raymyers/ralph-objc/pkg/typemap"
)

// SiteKind is the syntactic position being decided
type SiteKind int

const (
	Assign    SiteKind = iota // value stored into a variable
	Construct                 // object construction expression
	Read                      // variable read used as a message receiver
	Return                    // value returned from a method
	numSiteKinds
)

func (k SiteKind) String() string {
	names := []string{"assign", "construct", "read", "return"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Storage is where the variable at the site lives
type Storage int

const (
	Local Storage = iota
	InstanceField
	StaticField
	numStorages
)

func (s Storage) String() string {
	names := []string{"local", "instance field", "static field"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// Class groups declared types by how their values are owned
type Class int

const (
	Primitive Class = iota // plain value, never retained
	Text                   // immutable string, copied on store
	Object                 // any other reference, retained on store
	numClasses
)

func (c Class) String() string {
	names := []string{"primitive", "text", "object"}
	if int(c) < len(names) {
		return names[c]
	}
	return "?"
}

// ClassOf classifies t.
func ClassOf(t *jast.TypeBinding) Class {
	switch {
	case !typemap.IsRetainable(t):
		return Primitive
	case jast.IsString(t.Erasure()):
		return Text
	}
	return Object
}

// Value describes the right-hand side of an assignment
type Value int

const (
	Other Value = iota // any expression
	Null               // the null literal
	Fresh              // an object construction
	numValues
)

func (v Value) String() string {
	names := []string{"other", "null", "fresh"}
	if int(v) < len(names) {
		return names[v]
	}
	return "?"
}

// Site is everything a decision depends on.
type Site struct {
	Kind    SiteKind
	Storage Storage
	Class   Class
	Weak    bool
	Value   Value // Assign only
	Guarded bool  // Read only: an enclosing condition tests the binding against null
	Capture bool  // Read only: outer-instance or captured-local reference
	// Construct only: the constructed value is stored straight into Storage.
	IntoStorage bool
}

// Action is the code shape the caller emits for a site
type Action int

const (
	NoOp              Action = iota
	RetainAssign             // ([old autorelease], old = [new retain])
	CopyAssign               // ([old autorelease], old = [new copy])
	ReleaseThenAssign        // [old release]; old = new  (new is already owned)
	Autorelease              // [new autorelease]
	NilCheck                 // nil_chk(x)
)

func (a Action) String() string {
	names := []string{"no-op", "retain-assign", "copy-assign", "release-then-assign", "autorelease", "nil-check"}
	if int(a) < len(names) {
		return names[a]
	}
	return "?"
}

// Policy applies the rules for one memory model.
type Policy struct {
	RefCounting bool
}

// New returns the policy for the given memory model.
func New(refCounting bool) Policy {
	return Policy{RefCounting: refCounting}
}

// Decide returns the action for s. It panics on a site outside the known
// kinds rather than guessing.
func (p Policy) Decide(s Site) Action {
	switch s.Kind {
	case Assign:
		return p.assign(s)
	case Construct:
		return p.construct(s)
	case Read:
		return read(s)
	case Return:
		return NoOp
	}
	panic(fmt.Sprintf("memory: unhandled site kind %v", s.Kind))
}

func (p Policy) assign(s Site) Action {
	switch s.Storage {
	case Local:
		return NoOp
	case InstanceField, StaticField:
	default:
		panic(fmt.Sprintf("memory: unhandled storage %v", s.Storage))
	}
	switch s.Class {
	case Primitive:
		return NoOp
	case Text, Object:
	default:
		panic(fmt.Sprintf("memory: unhandled class %v", s.Class))
	}
	if s.Weak || !p.RefCounting {
		return NoOp
	}
	switch s.Value {
	case Null:
		return NoOp
	case Fresh:
		return ReleaseThenAssign
	case Other:
		if s.Class == Text {
			return CopyAssign
		}
		return RetainAssign
	}
	panic(fmt.Sprintf("memory: unhandled value %v", s.Value))
}

func (p Policy) construct(s Site) Action {
	if !p.RefCounting {
		return NoOp
	}
	if !s.IntoStorage {
		return Autorelease
	}
	switch s.Storage {
	case Local:
		return Autorelease
	case InstanceField, StaticField:
		if s.Weak {
			return Autorelease
		}
		return NoOp
	}
	panic(fmt.Sprintf("memory: unhandled storage %v", s.Storage))
}

func read(s Site) Action {
	switch s.Storage {
	case Local, StaticField:
		return NoOp
	case InstanceField:
	default:
		panic(fmt.Sprintf("memory: unhandled storage %v", s.Storage))
	}
	if s.Class == Primitive || s.Capture || s.Guarded {
		return NoOp
	}
	return NilCheck
}

// PropertyAttribute returns the ownership attribute of a property backed by a
// field of class c.
func (p Policy) PropertyAttribute(c Class, weak bool) string {
	switch {
	case c == Primitive:
		return "assign"
	case weak && p.RefCounting:
		return "assign"
	case weak:
		return "weak"
	case c == Text:
		return "copy"
	case p.RefCounting:
		return "retain"
	}
	return "strong"
}

// IvarQualifier returns the ownership qualifier written before an instance
// variable declaration, or "".
func (p Policy) IvarQualifier(c Class, weak bool) string {
	if weak && c != Primitive && !p.RefCounting {
		return "__weak "
	}
	return ""
}

// ReleasedInDealloc reports whether dealloc must release a field.
func (p Policy) ReleasedInDealloc(c Class, weak bool) bool {
	return p.RefCounting && c != Primitive && !weak
}
