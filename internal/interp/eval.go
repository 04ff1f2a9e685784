package interp

import (
	"vellum/internal/constval"
	"vellum/internal/ir"
)

// frame is one activation record: locals plus the implicit `this` receiver
// inside a method/event body (nil at namespace-function scope).
type frame struct {
	locals map[string]Value
	this   *object
}

// control distinguishes a statement sequence running to completion from
// one unwinding because of `return`.
type control int

const (
	ctrlNone control = iota
	ctrlReturn
)

func (ip *Interp) call(fn *ir.Function, args []Value) Value {
	fr := &frame{locals: make(map[string]Value)}
	if len(fn.Params) > 0 && fn.Params[0].Name == "this" && len(args) > 0 {
		fr.this = args[0].Obj
		args = args[1:]
	}
	formals := fn.Params
	if len(formals) > 0 && formals[0].Name == "this" {
		formals = formals[1:]
	}
	for i, p := range formals {
		if i < len(args) {
			fr.locals[p.Name] = args[i]
		} else {
			fr.locals[p.Name] = zeroValue(p.Type)
		}
	}

	blockIdx := fn.Entry
	var result Value
	for {
		blk := fn.Blocks[blockIdx]
		ret, ctrl := ip.runStmts(fr, blk.Stmts)
		if ctrl == ctrlReturn {
			return ret
		}
		switch term := blk.Term.(type) {
		case ir.Jump:
			blockIdx = term.Target
		case ir.Branch:
			if truthy(ip.eval(fr, term.Cond)) {
				blockIdx = term.Then
			} else {
				blockIdx = term.Else
			}
		case ir.Ret:
			if term.Value != nil {
				result = ip.eval(fr, term.Value)
			}
			return result
		case ir.Unreachable:
			return result
		default:
			return result
		}
	}
}

func (ip *Interp) runStmts(fr *frame, stmts []ir.Stmt) (Value, control) {
	for _, st := range stmts {
		if v, ctrl := ip.runStmt(fr, st); ctrl == ctrlReturn {
			return v, ctrlReturn
		}
	}
	return Value{}, ctrlNone
}

func (ip *Interp) runStmt(fr *frame, st ir.Stmt) (Value, control) {
	switch s := st.(type) {
	case ir.VarDecl:
		if s.Init != nil {
			fr.locals[s.Name] = ip.eval(fr, s.Init)
		} else {
			fr.locals[s.Name] = zeroValue(s.Type)
		}
	case ir.Assign:
		ip.assign(fr, s.Target, ip.eval(fr, s.Value))
	case ir.ExprStmt:
		ip.eval(fr, s.X)
	case ir.Destroy:
		v := ip.eval(fr, s.X)
		if v.Kind == KindObject && v.Obj != nil {
			ip.destroy(v.Obj)
		}
	case ir.ForEach:
		ip.forEachType(s.Object, func(o *object) {
			inner := &frame{locals: map[string]Value{s.VarName: {Kind: KindObject, Obj: o}}, this: fr.this}
			for k, v := range fr.locals {
				inner.locals[k] = v
			}
			ip.runStmts(inner, s.Body)
		})
	}
	return Value{}, ctrlNone
}

func (ip *Interp) assign(fr *frame, target ir.Expr, v Value) {
	switch t := target.(type) {
	case ir.Local:
		fr.locals[t.Name] = v
	case ir.Global:
		ip.globals[t.Name] = v
	case ir.Field:
		recv := ip.eval(fr, t.Recv)
		if recv.Kind == KindObject && recv.Obj != nil {
			recv.Obj.fields[t.Member] = v
		}
	case ir.Index:
		recv := ip.eval(fr, t.Recv)
		idx := ip.eval(fr, t.Index)
		if recv.Kind == KindArray && int(idx.Int) >= 0 && int(idx.Int) < len(recv.Array) {
			recv.Array[idx.Int] = v
		}
	}
}

func (ip *Interp) eval(fr *frame, e ir.Expr) Value {
	switch ex := e.(type) {
	case ir.IntLit:
		return Value{Kind: KindInt, Int: ex.Value}
	case ir.FloatLit:
		return Value{Kind: KindFloat, Float: ex.Value}
	case ir.BoolLit:
		return Value{Kind: KindBool, Bool: ex.Value}
	case ir.StrLit:
		return Value{Kind: KindString, Str: ex.Value}
	case ir.NoneLit:
		return Value{Kind: KindObject, Obj: nil}
	case ir.Local:
		return fr.locals[ex.Name]
	case ir.Global:
		return ip.globals[ex.Name]
	case ir.This:
		return Value{Kind: KindObject, Obj: fr.this}
	case ir.Field:
		recv := ip.eval(fr, ex.Recv)
		if recv.Kind == KindObject && recv.Obj != nil {
			return recv.Obj.fields[ex.Member]
		}
		return Value{}
	case ir.Index:
		recv := ip.eval(fr, ex.Recv)
		idx := ip.eval(fr, ex.Index)
		if recv.Kind == KindArray && int(idx.Int) >= 0 && int(idx.Int) < len(recv.Array) {
			return recv.Array[idx.Int]
		}
		return Value{}
	case ir.Bin:
		return ip.evalBin(fr, ex)
	case ir.Un:
		return ip.evalUn(fr, ex)
	case ir.Call:
		return ip.evalCall(fr, ex)
	case ir.MethodCall:
		return ip.evalMethodCall(fr, ex)
	case ir.New:
		args := make([]Value, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = ip.eval(fr, a)
		}
		return ip.newObject(ex.Object, args)
	case ir.Conv:
		return ip.evalConv(fr, ex)
	default:
		return Value{}
	}
}

// evalMethodCall dispatches through the receiver's vtable slot, resolving
// the nearest-ancestor override exactly as internal/lower pre-resolved it
// (spec.md §4.3 "virtual dispatch"); a missing handler is a no-op, matching
// an object whose ancestor never declared that event.
func (ip *Interp) evalMethodCall(fr *frame, ex ir.MethodCall) Value {
	recv := ip.eval(fr, ex.Recv)
	if recv.Kind != KindObject || recv.Obj == nil || recv.Obj.id == 0 {
		return Value{}
	}
	layout, ok := ip.layouts[recv.Obj.typeName]
	if !ok || ex.VTableSlot < 0 || ex.VTableSlot >= len(layout.VTable) {
		return Value{}
	}
	fnName := layout.VTable[ex.VTableSlot].Func
	if fnName == "" {
		return Value{}
	}
	args := []Value{recv}
	for _, a := range ex.Args {
		args = append(args, ip.eval(fr, a))
	}
	return ip.callNamed(fnName, args)
}

func (ip *Interp) evalCall(fr *frame, ex ir.Call) Value {
	args := make([]Value, len(ex.Args))
	for i, a := range ex.Args {
		args[i] = ip.eval(fr, a)
	}
	switch ex.Func {
	case "__array_literal":
		return Value{Kind: KindArray, Array: args}
	case "__destroy_expr":
		if len(args) > 0 && args[0].Kind == KindObject && args[0].Obj != nil {
			ip.destroy(args[0].Obj)
		}
		return Value{}
	}
	if v, handled := ip.callHost(ex.Func, args); handled {
		return v
	}
	return ip.callNamed(ex.Func, args)
}

func (ip *Interp) evalConv(fr *frame, ex ir.Conv) Value {
	v := ip.eval(fr, ex.X)
	switch ex.To {
	case "float":
		if v.Kind == KindInt {
			return Value{Kind: KindFloat, Float: float64(v.Int)}
		}
	}
	return v
}

func truthy(v Value) bool { return v.Kind == KindBool && v.Bool }

func valueFromConstval(v constval.Value) Value {
	switch v.Kind {
	case constval.KindInt:
		return Value{Kind: KindInt, Int: v.Int}
	case constval.KindFloat:
		return Value{Kind: KindFloat, Float: v.Float}
	case constval.KindString:
		return Value{Kind: KindString, Str: v.Str}
	case constval.KindBool:
		return Value{Kind: KindBool, Bool: v.Bool}
	case constval.KindArray:
		arr := make([]Value, len(v.Array))
		for i, el := range v.Array {
			arr[i] = valueFromConstval(el)
		}
		return Value{Kind: KindArray, Array: arr}
	default:
		return Value{}
	}
}
