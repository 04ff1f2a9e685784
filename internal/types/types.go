// Package types holds the value-level type representations produced and
// consumed by the semantic analyzer: spec.md §3 "Types", §4.2.
package types

import "fmt"

type Type interface {
	String() string
	equal(Type) bool
}

type BasicKind int

const (
	BasicInvalid BasicKind = iota
	BasicInt
	BasicBool
	BasicFloat
	BasicString
	BasicVoid
	BasicSprite
	BasicSound
)

type Basic struct {
	Kind BasicKind
	Name string
}

func (b *Basic) String() string { return b.Name }

func (b *Basic) equal(other Type) bool {
	o, ok := other.(*Basic)
	if !ok {
		return false
	}
	return b.Kind == o.Kind
}

var (
	Invalid = &Basic{Kind: BasicInvalid, Name: "invalid"}
	Int     = &Basic{Kind: BasicInt, Name: "int"}
	Bool    = &Basic{Kind: BasicBool, Name: "bool"}
	Float   = &Basic{Kind: BasicFloat, Name: "float"}
	String  = &Basic{Kind: BasicString, Name: "string"}
	Void    = &Basic{Kind: BasicVoid, Name: "void"}
	Sprite  = &Basic{Kind: BasicSprite, Name: "sprite"}
	Sound   = &Basic{Kind: BasicSound, Name: "sound"}
)

func IsInvalid(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.Kind == BasicInvalid
}

func IsVoid(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.Kind == BasicVoid
}

func IsNumeric(t Type) bool {
	b, ok := t.(*Basic)
	return ok && (b.Kind == BasicInt || b.Kind == BasicFloat)
}

// Object is a nominal reference type identifying a declared game object by
// its fully-resolved namespace chain plus name (spec.md §3 "Object type").
// Two Object types are equal only if chain and name match exactly; the
// chain is the absolute namespace path from the program root.
type Object struct {
	Chain []string
	Name  string
}

func (o *Object) String() string {
	s := o.Name
	for i := len(o.Chain) - 1; i >= 0; i-- {
		s = o.Chain[i] + "::" + s
	}
	return s
}

func (o *Object) equal(other Type) bool {
	oo, ok := other.(*Object)
	if !ok {
		return false
	}
	if o.Name != oo.Name || len(o.Chain) != len(oo.Chain) {
		return false
	}
	for i, c := range o.Chain {
		if c != oo.Chain[i] {
			return false
		}
	}
	return true
}

// NilObject is the type of the `none` literal: assignable to any Object
// type, equal only to itself.
var NilObject = &Basic{Kind: BasicInvalid, Name: "none"}

// Array is a fixed-length homogeneous array type `T[N]` (spec.md §3
// "Array type").
type Array struct {
	Elem   Type
	Length int
}

func (a *Array) String() string {
	return fmt.Sprintf("%s[%d]", a.Elem.String(), a.Length)
}

func (a *Array) equal(other Type) bool {
	oa, ok := other.(*Array)
	if !ok {
		return false
	}
	return a.Length == oa.Length && a.Elem.equal(oa.Elem)
}

// Equal is the exported identity check used throughout internal/sema.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.equal(b)
}

// IsObject reports whether t is an Object type (or the none-literal type).
func IsObject(t Type) bool {
	if t == NilObject {
		return true
	}
	_, ok := t.(*Object)
	return ok
}

func DebugType(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T(%s)", t, t.String())
}
