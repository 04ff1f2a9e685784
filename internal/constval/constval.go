// Package constval holds compile-time constant values usable in global
// initializers: int, bool, float, string, and homogeneous array literals
// (spec.md §3 "Global", §9 "constant conversions in global initializers").
package constval

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindArray
)

// Value is a tagged-union compile-time constant.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	Array []Value
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindArray:
		var b strings.Builder
		b.WriteByte('[')
		for i, el := range v.Array {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(el.String())
		}
		b.WriteByte(']')
		return b.String()
	default:
		return "<invalid>"
	}
}

func Int(v int64) Value     { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Str(s string) Value    { return Value{Kind: KindString, Str: s} }
func Bool(v bool) Value     { return Value{Kind: KindBool, Bool: v} }
func Array(vs []Value) Value {
	return Value{Kind: KindArray, Array: vs}
}

// ToFloat widens an int constant to float, per the int->float global
// initializer conversion the checker inserts a Conv node for.
func ToFloat(v Value) Value {
	if v.Kind == KindInt {
		return Float(float64(v.Int))
	}
	return v
}
