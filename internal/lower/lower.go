// Package lower is the object-model lowerer: struct layout (parent-prefix
// flattening plus an embedded list node), per-type vtables, the two
// intrusive sentinel-tailed doubly-linked lists, and create/lazy-destroy/
// foreach/global-dispatch lowering, per spec.md §4.3. It turns a
// type-checked *ast.Program plus its *sema.Bindings into an *ir.Module.
package lower

import (
	"fmt"
	"sort"
	"strings"

	"vellum/internal/ast"
	"vellum/internal/constval"
	"vellum/internal/ir"
	"vellum/internal/sema"
	"vellum/internal/types"
)

// Error is a lowering-phase diagnostic (almost always an internal-invariant
// violation, since sema should have already rejected anything ill-typed).
type Error struct{ Msg string }

func (e *Error) Error() string { return e.Msg }

// header accounts for the synthetic root object's fields: a vtable
// pointer, the general-list intrusive node (prev+next pointers), and the
// monotonically increasing id (spec.md §4.3 "synthetic root").
const headerSize = 8 /*vtable*/ + 16 /*general list node*/ + 8 /*id*/

// sizeOf returns the lowered field width of t; used only to make the
// "struct layout" text the -l/-c printer emits read like a real ABI.
func sizeOf(t types.Type) int {
	switch tt := t.(type) {
	case *types.Basic:
		switch tt.Kind {
		case types.BasicBool:
			return 1
		case types.BasicString:
			return 16 // pointer + length
		default:
			return 8
		}
	case *types.Object:
		return 8 // pointer
	case *types.Array:
		return sizeOf(tt.Elem) * tt.Length
	default:
		return 8
	}
}

func typeName(t types.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// vtableSlotIndex fixes a stable ordinal for each virtual event slot,
// matching the order ObjectLayout.VTable entries are built in.
func vtableSlotIndex(slot string) int {
	switch slot {
	case "step":
		return 0
	case "draw":
		return 1
	case "destroy":
		return 2
	default:
		return -1
	}
}

func mangle(chain []string, name string) string {
	parts := append(append([]string{}, chain...), name)
	return strings.Join(parts, "_")
}

// lowerer carries the shared state for one Lower call.
type lowerer struct {
	bindings  *sema.Bindings
	layouts   map[*sema.ObjectInfo]*ir.ObjectLayout
	order     []*sema.ObjectInfo
	functions []*ir.Function
	byMangled map[string]*sema.ObjectInfo
}

// fieldOffset computes member's byte offset within obj's flattened layout:
// walk the ancestor chain root-most first, accumulating headerSize plus
// every level's own fields, until reaching the level that declares member
// (the nearest to obj that does, matching member lookup's override rule),
// then add that level's own fields up to but not including member.
// Returns -1 if member is declared nowhere in the chain.
func (l *lowerer) fieldOffset(objName, member string) int {
	info := l.byMangled[objName]
	if info == nil {
		return -1
	}
	var chain []*sema.ObjectInfo
	for cur := info; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	owner := -1
	for i, cur := range chain {
		if _, ok := cur.MemberType[member]; ok {
			owner = i
			break
		}
	}
	if owner < 0 {
		return -1
	}
	offset := headerSize
	for i := len(chain) - 1; i > owner; i-- {
		for _, name := range sortedMemberNames(chain[i].Decl.Members) {
			offset += sizeOf(chain[i].MemberType[name])
		}
	}
	for _, name := range sortedMemberNames(chain[owner].Decl.Members) {
		if name == member {
			break
		}
		offset += sizeOf(chain[owner].MemberType[name])
	}
	return offset
}

// Lower produces the module IR for prog using the resolved type/object
// information in bindings.
func Lower(prog *ast.Program, bindings *sema.Bindings) (*ir.Module, []error) {
	l := &lowerer{bindings: bindings, layouts: make(map[*sema.ObjectInfo]*ir.ObjectLayout), byMangled: make(map[string]*sema.ObjectInfo)}
	var errs []error

	l.collectObjectsInOrder(prog.Root)
	for _, info := range l.order {
		l.byMangled[mangle(info.Chain, info.Name)] = info
		l.layouts[info] = l.buildLayout(info)
	}

	mod := &ir.Module{Name: "program"}
	for _, info := range l.order {
		mod.Objects = append(mod.Objects, l.layouts[info])
	}

	l.lowerNamespace(prog.Root, nil)
	mod.Functions = l.functions

	globals, gerrs := l.lowerGlobals(prog.Root)
	mod.Globals = globals
	errs = append(errs, gerrs...)

	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"
	l.functions = append(l.functions, l.buildGlobalDispatch(mod.EntryPoints.Create, "create"))
	l.functions = append(l.functions, l.buildGlobalDispatch(mod.EntryPoints.Step, "step"))
	l.functions = append(l.functions, l.buildGlobalDispatch(mod.EntryPoints.Draw, "draw"))
	mod.Functions = l.functions

	return mod, errs
}

func (l *lowerer) collectObjectsInOrder(ns *ast.Namespace) {
	for _, no := range ns.Objects {
		info := l.bindings.Objects[no.Obj]
		if info != nil {
			l.order = append(l.order, info)
		}
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			l.collectObjectsInOrder(cr.NS)
		}
	}
}

// buildLayout flattens info's own members after its parent's full layout,
// builds its vtable (each slot inherited from the nearest ancestor that
// defines it unless info itself overrides), and mangles its create
// function name.
func (l *lowerer) buildLayout(info *sema.ObjectInfo) *ir.ObjectLayout {
	parentName := ""
	if info.Parent != nil {
		parentName = mangle(info.Parent.Chain, info.Parent.Name)
	}
	layout := &ir.ObjectLayout{
		Name:        mangle(info.Chain, info.Name),
		Parent:      parentName,
		MangledName: mangle(info.Chain, info.Name),
	}

	names := sortedMemberNames(info.Decl.Members)
	for _, name := range names {
		layout.OwnFields = append(layout.OwnFields, ir.Param{Name: name, Type: typeName(info.MemberType[name])})
	}

	for _, slot := range []ast.EventKind{ast.EventStep, ast.EventDraw, ast.EventDestroy} {
		fn := findNearestEvent(info, slot)
		layout.VTable = append(layout.VTable, ir.VTableEntry{Slot: slot.String(), Func: fn})
	}
	if createFn, ok := info.EventFn[ast.EventCreate]; ok && createFn.Body != nil {
		layout.CreateFunc = mangle(info.Chain, info.Name) + "$create"
	}
	return layout
}

func sortedMemberNames(members []*ast.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

func findNearestEvent(info *sema.ObjectInfo, kind ast.EventKind) string {
	for cur := info; cur != nil; cur = cur.Parent {
		if fn, ok := cur.EventFn[kind]; ok && fn.Body != nil {
			return mangle(cur.Chain, cur.Name) + "$" + kind.String()
		}
	}
	return ""
}

// findMethodOwner returns the mangled function name of the nearest
// ancestor (starting at info itself) that declares method name. User
// methods are not virtual (only step/draw/destroy are, spec.md §4.3), so
// a call through a statically typed receiver always resolves at lower
// time to one fixed target, never through a vtable.
func (l *lowerer) findMethodOwner(info *sema.ObjectInfo, name string) string {
	for cur := info; cur != nil; cur = cur.Parent {
		if fn, ok := cur.MethodFn[name]; ok && fn != nil {
			return mangle(cur.Chain, cur.Name) + "$" + name
		}
	}
	return ""
}

func (l *lowerer) lowerGlobals(root *ast.Namespace) ([]*ir.GlobalVar, []error) {
	var out []*ir.GlobalVar
	var errs []error
	var walk func(ns *ast.Namespace)
	walk = func(ns *ast.Namespace) {
		for _, g := range ns.Globals {
			val, err := constFold(g.Init)
			if err != nil {
				errs = append(errs, fmt.Errorf("global %s: %w", g.Name, err))
				continue
			}
			out = append(out, &ir.GlobalVar{Name: g.Name, Type: typeName(l.bindings.ExprTypes[g.Init]), Init: val})
		}
		for _, in := range ns.Inner {
			if cr, ok := in.Ref.(ast.ConcreteRef); ok {
				walk(cr.NS)
			}
		}
	}
	walk(root)
	return out, errs
}

// constFold evaluates a global initializer expression to a constval.Value.
// Global initializers are restricted (spec.md §3 "Global") to literals,
// homogeneous array literals of literals, and checker-inserted int->float
// Conv wraps — never calls, creates, or identifiers.
func constFold(e ast.Expr) (constval.Value, error) {
	switch ex := e.(type) {
	case nil:
		return constval.Value{}, nil
	case *ast.IntLiteral:
		return constval.Int(ex.Value), nil
	case *ast.FloatLiteral:
		return constval.Float(ex.Value), nil
	case *ast.BoolLiteral:
		return constval.Bool(ex.Value), nil
	case *ast.StringLiteral:
		return constval.Str(ex.Value), nil
	case *ast.ArrayLiteral:
		vals := make([]constval.Value, len(ex.Elements))
		for i, el := range ex.Elements {
			v, err := constFold(el)
			if err != nil {
				return constval.Value{}, err
			}
			vals[i] = v
		}
		return constval.Array(vals), nil
	case *ast.Conv:
		inner, err := constFold(ex.X)
		if err != nil {
			return constval.Value{}, err
		}
		if _, ok := ex.To.(*ast.FloatType); ok {
			return constval.ToFloat(inner), nil
		}
		return inner, nil
	default:
		return constval.Value{}, fmt.Errorf("non-constant global initializer: %T", e)
	}
}

// buildGlobalDispatch emits the global_create/global_step/global_draw
// driver: for each object type's intrusive list, in declaration order,
// invoke the named vtable slot (or, for create, nothing — global_create
// runs each object's create handler exactly once, at the moment it is
// constructed by `create T(...)`, not from this loop) on every live member
// (spec.md §4.3 "global dispatch loops").
func (l *lowerer) buildGlobalDispatch(name, slot string) *ir.Function {
	fn := &ir.Function{Name: name, ReturnType: "void", Entry: 0}
	var stmts []ir.Stmt
	if slot != "create" {
		for _, info := range l.order {
			stmts = append(stmts, ir.ForEach{
				VarName: "it",
				Object:  mangle(info.Chain, info.Name),
				Body: []ir.Stmt{ir.ExprStmt{X: ir.MethodCall{
					Recv:       ir.Local{Name: "it"},
					Method:     slot,
					VTableSlot: vtableSlotIndex(slot),
					Args:       nil,
				}}},
			})
		}
	}
	fn.Blocks = []*ir.Block{{Stmts: stmts, Term: ir.Ret{}}}
	return fn
}
