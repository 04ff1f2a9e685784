package sema

import (
	"vellum/internal/ast"
	"vellum/internal/token"
	"vellum/internal/types"
)

// phase3CheckNamespace type-checks every global initializer, free function,
// and game object method/event reachable (via Concrete refs) from ns. Per
// spec.md §4.2, ns's scope is the transitive closure of its `using` imports
// with its own globals/functions folded on top (so own declarations shadow
// imported ones of the same name).
func (c *Checker) phase3CheckNamespace(ns *ast.Namespace, scope *Scope) {
	prevNS, prevChain := c.curNS, c.curNSChain
	c.curNS, c.curNSChain = ns, c.nsChain[ns]
	defer func() { c.curNS, c.curNSChain = prevNS, prevChain }()

	usingScope := c.usingClosureScope(ns, scope)
	global := newScope(usingScope)
	own := c.nsOwnScope(ns)
	for _, sym := range own.symbols {
		global.bind(sym)
	}

	for _, g := range ns.Globals {
		if g.Init == nil {
			continue
		}
		want := resolveTypeNode(g.Type)
		got, converted := c.checkExpr(g.Init, global)
		if converted != nil {
			g.Init = converted
		}
		if !c.assignable(want, got) {
			c.errf(g.Pos(), "cannot initialize global %q of type %s with value of type %s", g.Name, want, got)
		} else if needsConv(want, got) {
			g.Init = wrapConv(g.Init, want, got)
		}
	}

	for _, nf := range ns.Funcs {
		c.checkFunction(nf.Fn, global, nil)
	}

	for _, no := range ns.Objects {
		c.checkObject(no.Obj, global)
	}

	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			c.phase3CheckNamespace(cr.NS, global)
		}
	}
}

func funcType(fn *ast.Function) types.Type {
	return resolveTypeNode(fn.Return)
}

// checkObject validates member/event/method shapes and checks each body.
func (c *Checker) checkObject(obj *ast.GameObject, outer *Scope) {
	info := c.objectsByDecl[obj]
	prevObject := c.curObject
	c.curObject = info
	defer func() { c.curObject = prevObject }()

	objScope := newScope(outer)
	for name, t := range allMembers(info) {
		objScope.bind(&Symbol{Name: name, Kind: SymVar, Type: t})
	}

	requireEventShape(c, obj)

	// `this` is a formal parameter synthesised for every method and event;
	// `super` is injected only into the scope of events whose object has a
	// non-root parent, mapping to the nearest ancestor that defines that
	// same event kind (spec.md §4.2, GLOSSARY "this and super").
	selfType := info.Type()
	for _, ev := range obj.Events {
		evScope := newScope(objScope)
		evScope.bind(&Symbol{Name: "this", Kind: SymParam, Type: selfType, Chain: info.Chain})
		if info.Parent != nil {
			if owner := findEventOwner(info.Parent, ev.Kind); owner != nil {
				evScope.bind(&Symbol{Name: "super", Kind: SymFunc, Type: types.Void, Node: owner.EventFn[ev.Kind], Chain: owner.Chain})
			}
		}
		c.checkFunction(ev.Fn, evScope, info)
	}
	for _, nm := range obj.Methods {
		methodScope := newScope(objScope)
		methodScope.bind(&Symbol{Name: "this", Kind: SymParam, Type: selfType, Chain: info.Chain})
		c.checkFunction(nm.Fn, methodScope, info)
	}
}

// findEventOwner returns the nearest ancestor (starting at info itself)
// that declares event kind, nil if none does.
func findEventOwner(info *ObjectInfo, kind ast.EventKind) *ObjectInfo {
	for cur := info; cur != nil; cur = cur.Parent {
		if _, ok := cur.EventFn[kind]; ok {
			return cur
		}
	}
	return nil
}

// allMembers collects member types across the inheritance chain, child
// overriding ancestor on name collision.
func allMembers(info *ObjectInfo) map[string]types.Type {
	out := make(map[string]types.Type)
	var chain []*ObjectInfo
	for cur := info; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for name, t := range chain[i].MemberType {
			out[name] = t
		}
	}
	return out
}

// requireEventShape enforces spec.md §4.2's event-shape invariant: create
// may take parameters (forwarded from `create Obj(args)`), step/draw/destroy
// take none; all four return void.
func requireEventShape(c *Checker, obj *ast.GameObject) {
	for _, ev := range obj.Events {
		if !types.IsVoid(resolveTypeNode(ev.Fn.Return)) {
			c.errf(ev.Fn.Pos(), "event %s must return void", ev.Kind)
		}
		if ev.Kind != ast.EventCreate && len(ev.Fn.Formals) != 0 {
			c.errf(ev.Fn.Pos(), "event %s must take no parameters", ev.Kind)
		}
	}
}

func (c *Checker) checkFunction(fn *ast.Function, outer *Scope, owner *ObjectInfo) {
	if fn.Body == nil {
		return // extern
	}
	scope := newScope(outer)
	for _, p := range fn.Formals {
		c.declare(scope, p.Pos(), &Symbol{Name: p.Name, Kind: SymParam, Type: resolveTypeNode(p.Type)}, "parameter")
	}
	prevReturn := c.curReturn
	c.curReturn = resolveTypeNode(fn.Return)
	defer func() { c.curReturn = prevReturn }()

	c.checkBlock(fn.Body, scope)
}

func (c *Checker) checkBlock(b *ast.BlockStmt, outer *Scope) {
	scope := newScope(outer)
	for _, s := range b.Stmts {
		c.checkStmt(s, scope)
	}
}

func (c *Checker) checkStmt(s ast.Stmt, scope *Scope) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		c.checkBlock(st, scope)
	case *ast.VarDeclStmt:
		want := resolveTypeNode(st.Type)
		if st.Value != nil {
			got, converted := c.checkExpr(st.Value, scope)
			if converted != nil {
				st.Value = converted
			}
			if !c.assignable(want, got) {
				c.errf(st.Pos(), "cannot initialize %q of type %s with value of type %s", st.Name, want, got)
			} else if needsConv(want, got) {
				st.Value = wrapConv(st.Value, want, got)
			}
		}
		c.declare(scope, st.Pos(), &Symbol{Name: st.Name, Kind: SymVar, Type: want}, "variable")
	case *ast.AssignStmt:
		c.checkAssign(st, scope)
	case *ast.IncDecStmt:
		t, _ := c.checkExpr(st.Target, scope)
		if !types.Equal(t, types.Int) && !types.Equal(t, types.Float) {
			c.errf(st.Pos(), "++/-- requires a numeric lvalue, got %s", t)
		}
		c.checkLvalue(st.Target)
	case *ast.ExprStmt:
		c.checkExpr(st.Expression, scope)
	case *ast.IfStmt:
		cond, converted := c.checkExpr(st.Cond, scope)
		if converted != nil {
			st.Cond = converted
		}
		if !types.Equal(cond, types.Bool) {
			c.errf(st.Cond.Pos(), "if condition must be bool, got %s", cond)
		}
		c.checkBlock(st.Then, scope)
		if st.Else != nil {
			c.checkStmt(st.Else, scope)
		}
	case *ast.ReturnStmt:
		if st.Result == nil {
			if c.curReturn != nil && !types.IsVoid(c.curReturn) {
				c.errf(st.Pos(), "missing return value, expected %s", c.curReturn)
			}
			return
		}
		got, converted := c.checkExpr(st.Result, scope)
		if converted != nil {
			st.Result = converted
		}
		if !c.assignable(c.curReturn, got) {
			c.errf(st.Pos(), "cannot return %s, expected %s", got, c.curReturn)
		} else if needsConv(c.curReturn, got) {
			st.Result = wrapConv(st.Result, c.curReturn, got)
		}
	case *ast.BreakStmt:
		if c.loopDepth == 0 {
			c.errf(st.Pos(), "break outside of a loop")
		}
	case *ast.WhileStmt:
		cond, converted := c.checkExpr(st.Cond, scope)
		if converted != nil {
			st.Cond = converted
		}
		if !types.Equal(cond, types.Bool) {
			c.errf(st.Cond.Pos(), "while condition must be bool, got %s", cond)
		}
		c.loopDepth++
		c.checkBlock(st.Body, scope)
		c.loopDepth--
	case *ast.ForStmt:
		forScope := newScope(scope)
		if st.Init != nil {
			c.checkStmt(st.Init, forScope)
		}
		if st.Cond != nil {
			cond, converted := c.checkExpr(st.Cond, forScope)
			if converted != nil {
				st.Cond = converted
			}
			if !types.Equal(cond, types.Bool) {
				c.errf(st.Cond.Pos(), "for condition must be bool, got %s", cond)
			}
		}
		if st.Post != nil {
			c.checkStmt(st.Post, forScope)
		}
		c.loopDepth++
		c.checkBlock(st.Body, forScope)
		c.loopDepth--
	case *ast.ForEachStmt:
		elemType := resolveTypeNode(st.VarType)
		if !types.IsObject(elemType) {
			c.errf(st.Pos(), "foreach requires an object type, got %s", elemType)
		}
		inner := newScope(scope)
		c.declare(inner, st.Pos(), &Symbol{Name: st.VarName, Kind: SymVar, Type: elemType}, "variable")
		c.loopDepth++
		c.checkBlock(st.Body, inner)
		c.loopDepth--
	default:
		c.errf(s.Pos(), "internal: unhandled statement %T", s)
	}
}

func (c *Checker) checkAssign(st *ast.AssignStmt, scope *Scope) {
	c.checkLvalue(st.Target)
	targetType, convertedTarget := c.checkExpr(st.Target, scope)
	if convertedTarget != nil {
		st.Target = convertedTarget
	}
	valType, convertedVal := c.checkExpr(st.Value, scope)
	if convertedVal != nil {
		st.Value = convertedVal
	}
	if st.Op != ast.AssignSet {
		if !types.IsNumeric(targetType) {
			c.errf(st.Pos(), "compound assignment requires a numeric lvalue, got %s", targetType)
			return
		}
	}
	if !c.assignable(targetType, valType) {
		c.errf(st.Pos(), "cannot assign %s to %s", valType, targetType)
		return
	}
	if needsConv(targetType, valType) {
		st.Value = wrapConv(st.Value, targetType, valType)
	}
}

// checkLvalue enforces spec.md §4.2 lvalue discipline: only identifiers,
// member accesses, and index expressions may be assignment targets, and a
// bare `this`/`super` (unlike `this.x`) is never assignable.
func (c *Checker) checkLvalue(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.IdentChain:
		if len(ex.Chain) == 0 && reservedName(ex.Name) {
			c.errf(ex.Pos(), "%q is not assignable", ex.Name)
		}
	case *ast.MemberExpr, *ast.IndexExpr:
	default:
		c.errf(e.Pos(), "expression is not assignable")
	}
}

// checkExpr type-checks e within scope, returning its type and, if a
// narrower/different-typed replacement subexpression was produced during
// checking (conversions are applied bottom-up before the caller wraps the
// whole expression), the replacement to substitute in the parent's slot. A
// nil replacement means e is unchanged.
func (c *Checker) checkExpr(e ast.Expr, scope *Scope) (types.Type, ast.Expr) {
	switch ex := e.(type) {
	case *ast.IdentChain:
		if len(ex.Chain) == 0 {
			sym, ok := scope.Lookup(ex.Name)
			if !ok {
				c.errf(ex.Pos(), "undeclared identifier %q", ex.Name)
				return types.Invalid, nil
			}
			c.bindings.ExprTypes[e] = sym.Type
			c.bindings.ResolvedChain[e] = append(append([]string{}, sym.Chain...), ex.Name)
			return sym.Type, nil
		}
		target, err := c.world.Resolver.Resolve(c.curNS, ex.Chain, true)
		if err != nil {
			c.errf(ex.Pos(), "%s", err)
			return types.Invalid, nil
		}
		sym, ok := c.nsOwnScope(target).Lookup(ex.Name)
		if !ok {
			c.errf(ex.Pos(), "undeclared identifier %q", qualify(ex.Chain, ex.Name))
			return types.Invalid, nil
		}
		c.bindings.ExprTypes[e] = sym.Type
		c.bindings.ResolvedChain[e] = append(append([]string{}, sym.Chain...), ex.Name)
		return sym.Type, nil
	case *ast.IntLiteral:
		c.bindings.ExprTypes[e] = types.Int
		return types.Int, nil
	case *ast.FloatLiteral:
		c.bindings.ExprTypes[e] = types.Float
		return types.Float, nil
	case *ast.BoolLiteral:
		c.bindings.ExprTypes[e] = types.Bool
		return types.Bool, nil
	case *ast.StringLiteral:
		c.bindings.ExprTypes[e] = types.String
		return types.String, nil
	case *ast.NoneLiteral:
		c.bindings.ExprTypes[e] = types.NilObject
		return types.NilObject, nil
	case *ast.ArrayLiteral:
		return c.checkArrayLiteral(ex, scope)
	case *ast.CallExpr:
		return c.checkCall(ex, scope)
	case *ast.IndexExpr:
		return c.checkIndex(ex, scope)
	case *ast.MemberExpr:
		return c.checkMember(ex, scope)
	case *ast.MethodCallExpr:
		return c.checkMethodCall(ex, scope)
	case *ast.BinaryExpr:
		return c.checkBinary(ex, scope)
	case *ast.UnaryExpr:
		return c.checkUnary(ex, scope)
	case *ast.CreateExpr:
		return c.checkCreate(ex, scope)
	case *ast.DestroyExpr:
		if c.curObject == nil {
			c.errf(ex.Pos(), "destroy used outside of an object context")
		}
		t, converted := c.checkExpr(ex.X, scope)
		if converted != nil {
			ex.X = converted
		}
		if !types.IsObject(t) {
			c.errf(ex.Pos(), "destroy requires an object, got %s", t)
		}
		c.bindings.ExprTypes[e] = types.Void
		return types.Void, nil
	case *ast.Conv:
		// Already-annotated; re-check inner for completeness.
		t, _ := c.checkExpr(ex.X, scope)
		_ = t
		rt := resolveTypeNode(ex.To)
		c.bindings.ExprTypes[e] = rt
		return rt, nil
	default:
		c.errf(e.Pos(), "internal: unhandled expression %T", e)
		return types.Invalid, nil
	}
}

func (c *Checker) checkArrayLiteral(ex *ast.ArrayLiteral, scope *Scope) (types.Type, ast.Expr) {
	if len(ex.Elements) == 0 {
		c.errf(ex.Pos(), "empty array literal has no element type")
		return types.Invalid, nil
	}
	var elemType types.Type
	for i, el := range ex.Elements {
		t, converted := c.checkExpr(el, scope)
		if converted != nil {
			ex.Elements[i] = converted
			el = converted
		}
		if elemType == nil {
			elemType = t
			continue
		}
		if !types.Equal(elemType, t) {
			c.errf(el.Pos(), "array literal element type %s does not match %s", t, elemType)
		}
	}
	arr := &types.Array{Elem: elemType, Length: len(ex.Elements)}
	c.bindings.ExprTypes[ex] = arr
	return arr, nil
}

func (c *Checker) checkIndex(ex *ast.IndexExpr, scope *Scope) (types.Type, ast.Expr) {
	xt, convertedX := c.checkExpr(ex.X, scope)
	if convertedX != nil {
		ex.X = convertedX
	}
	it, convertedI := c.checkExpr(ex.Index, scope)
	if convertedI != nil {
		ex.Index = convertedI
	}
	if !types.Equal(it, types.Int) {
		c.errf(ex.Index.Pos(), "array index must be int, got %s", it)
	}
	arr, ok := xt.(*types.Array)
	if !ok {
		c.errf(ex.Pos(), "cannot index non-array type %s", xt)
		return types.Invalid, nil
	}
	c.bindings.ExprTypes[ex] = arr.Elem
	return arr.Elem, nil
}

func (c *Checker) checkMember(ex *ast.MemberExpr, scope *Scope) (types.Type, ast.Expr) {
	xt, convertedX := c.checkExpr(ex.X, scope)
	if convertedX != nil {
		ex.X = convertedX
	}
	obj, ok := xt.(*types.Object)
	if !ok {
		c.errf(ex.Pos(), "cannot access member %q on non-object type %s", ex.Name, xt)
		return types.Invalid, nil
	}
	info := c.lookupObjectInfoByType(obj)
	if info == nil {
		c.errf(ex.Pos(), "internal: unknown object type %s", obj)
		return types.Invalid, nil
	}
	owner := findMemberOwner(info, ex.Name)
	if owner == nil {
		c.errf(ex.Pos(), "object %s has no member %q", obj, ex.Name)
		return types.Invalid, nil
	}
	t := owner.MemberType[ex.Name]
	c.bindings.ExprTypes[ex] = t
	c.bindings.ResolvedChain[ex] = append(append([]string{}, owner.Chain...), owner.Name)
	return t, nil
}

// findMemberOwner returns the nearest ancestor (starting at info itself)
// that declares member name, nil if none does.
func findMemberOwner(info *ObjectInfo, name string) *ObjectInfo {
	for cur := info; cur != nil; cur = cur.Parent {
		if _, ok := cur.MemberType[name]; ok {
			return cur
		}
	}
	return nil
}

func (c *Checker) checkMethodCall(ex *ast.MethodCallExpr, scope *Scope) (types.Type, ast.Expr) {
	xt, convertedX := c.checkExpr(ex.X, scope)
	if convertedX != nil {
		ex.X = convertedX
	}
	obj, ok := xt.(*types.Object)
	if !ok {
		c.errf(ex.Pos(), "cannot call method %q on non-object type %s", ex.Name, xt)
		return types.Invalid, nil
	}
	info := c.lookupObjectInfoByType(obj)
	if info == nil {
		c.errf(ex.Pos(), "internal: unknown object type %s", obj)
		return types.Invalid, nil
	}
	owner := findMethodOwner(info, ex.Name)
	if owner == nil {
		c.errf(ex.Pos(), "object %s has no method %q", obj, ex.Name)
		return types.Invalid, nil
	}
	fn := owner.MethodFn[ex.Name]
	c.checkArgs(ex.Pos(), fn.Formals, ex.Args, scope)
	rt := resolveTypeNode(fn.Return)
	c.bindings.ExprTypes[ex] = rt
	c.bindings.ResolvedChain[ex] = append(append([]string{}, owner.Chain...), owner.Name)
	return rt, nil
}

// findMethodOwner returns the nearest ancestor (starting at info itself)
// that declares method name, nil if none does. Mirrors
// internal/lower.findMethodOwner's ancestor walk for mangled-name
// resolution, here returning the owning ObjectInfo instead of a name.
func findMethodOwner(info *ObjectInfo, name string) *ObjectInfo {
	for cur := info; cur != nil; cur = cur.Parent {
		if _, ok := cur.MethodFn[name]; ok {
			return cur
		}
	}
	return nil
}

func (c *Checker) lookupObjectInfoByType(t *types.Object) *ObjectInfo {
	for _, info := range c.objectsByDecl {
		if info.Name == t.Name && len(info.Chain) == len(t.Chain) {
			match := true
			for i, ch := range info.Chain {
				if ch != t.Chain[i] {
					match = false
					break
				}
			}
			if match {
				return info
			}
		}
	}
	return nil
}

func (c *Checker) checkCall(ex *ast.CallExpr, scope *Scope) (types.Type, ast.Expr) {
	var sym *Symbol
	var ok bool
	if len(ex.Chain) == 0 {
		sym, ok = scope.Lookup(ex.Name)
	} else {
		target, err := c.world.Resolver.Resolve(c.curNS, ex.Chain, true)
		if err != nil {
			c.errf(ex.Pos(), "%s", err)
			return types.Invalid, nil
		}
		sym, ok = c.nsOwnScope(target).Lookup(ex.Name)
	}
	if !ok || sym.Kind != SymFunc {
		c.errf(ex.Pos(), "undeclared function %q", qualify(ex.Chain, ex.Name))
		return types.Invalid, nil
	}
	fn, _ := sym.Node.(*ast.Function)
	if fn != nil {
		c.checkArgs(ex.Pos(), fn.Formals, ex.Args, scope)
	}
	c.bindings.ExprTypes[ex] = sym.Type
	c.bindings.ResolvedChain[ex] = append(append([]string{}, sym.Chain...), ex.Name)
	return sym.Type, nil
}

func (c *Checker) checkArgs(pos token.Position, formals []*ast.FormalParam, args []ast.Expr, scope *Scope) {
	if len(formals) != len(args) {
		c.errf(pos, "expected %d argument(s), got %d", len(formals), len(args))
		return
	}
	for i, a := range args {
		want := resolveTypeNode(formals[i].Type)
		got, converted := c.checkExpr(a, scope)
		if converted != nil {
			args[i] = converted
			got, _ = c.checkExpr(converted, scope)
		}
		if !c.assignable(want, got) {
			c.errf(a.Pos(), "argument %d: cannot use %s as %s", i+1, got, want)
		} else if needsConv(want, got) {
			args[i] = wrapConv(args[i], want, got)
		}
	}
}

func (c *Checker) checkBinary(ex *ast.BinaryExpr, scope *Scope) (types.Type, ast.Expr) {
	lt, convertedL := c.checkExpr(ex.Left, scope)
	if convertedL != nil {
		ex.Left = convertedL
	}
	rt, convertedR := c.checkExpr(ex.Right, scope)
	if convertedR != nil {
		ex.Right = convertedR
	}

	switch ex.Op {
	case ast.OpAnd, ast.OpOr:
		if !types.Equal(lt, types.Bool) || !types.Equal(rt, types.Bool) {
			c.errf(ex.Pos(), "%s requires bool operands, got %s and %s", opName(ex.Op), lt, rt)
		}
		c.bindings.ExprTypes[ex] = types.Bool
		return types.Bool, nil
	case ast.OpEq, ast.OpNeq:
		result := c.checkComparable(ex, lt, rt)
		c.bindings.ExprTypes[ex] = types.Bool
		return types.Bool, result
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		result := c.checkArith(ex, lt, rt, false)
		c.bindings.ExprTypes[ex] = types.Bool
		return types.Bool, result
	case ast.OpMod:
		if !types.Equal(lt, types.Int) || !types.Equal(rt, types.Int) {
			c.errf(ex.Pos(), "%% requires int operands (float modulo is unsupported), got %s and %s", lt, rt)
		}
		c.bindings.ExprTypes[ex] = types.Int
		return types.Int, nil
	default: // Add, Sub, Mul, Div
		result := c.checkArith(ex, lt, rt, true)
		resType := types.Int
		if types.Equal(lt, types.Float) || types.Equal(rt, types.Float) {
			resType = types.Float
		}
		if types.Equal(lt, types.String) && types.Equal(rt, types.String) && ex.Op == ast.OpAdd {
			resType = types.String
		}
		c.bindings.ExprTypes[ex] = resType
		return resType, result
	}
}

func opName(op ast.BinOp) string {
	if op == ast.OpAnd {
		return "&&"
	}
	return "||"
}

// checkComparable handles ==/!=, including string equality (an explicitly
// supported Open Question resolution) and inserts Object-upcast Convs so
// both sides compare at their common ancestor type.
func (c *Checker) checkComparable(ex *ast.BinaryExpr, lt, rt types.Type) ast.Expr {
	if types.Equal(lt, rt) {
		return nil
	}
	if types.IsNumeric(lt) && types.IsNumeric(rt) {
		if types.Equal(lt, types.Int) {
			ex.Left = wrapConv(ex.Left, types.Float, lt)
		} else {
			ex.Right = wrapConv(ex.Right, types.Float, rt)
		}
		return nil
	}
	lo, lok := lt.(*types.Object)
	ro, rok := rt.(*types.Object)
	switch {
	case lok && rok:
		loInfo := c.lookupObjectInfoByType(lo)
		roInfo := c.lookupObjectInfoByType(ro)
		if loInfo == nil || roInfo == nil {
			c.errf(ex.Pos(), "internal: unknown object type in comparison")
			return nil
		}
		switch {
		case loInfo.IsDescendantOf(roInfo):
			ex.Left = wrapConv(ex.Left, ro, lt)
		case roInfo.IsDescendantOf(loInfo):
			ex.Right = wrapConv(ex.Right, lo, rt)
		default:
			c.errf(ex.Pos(), "cannot compare unrelated object types %s and %s, neither is the other's ancestor", lt, rt)
		}
		return nil
	case lok && rt == types.NilObject, rok && lt == types.NilObject:
		return nil // none widens to any object type without a Conv
	}
	c.errf(ex.Pos(), "cannot compare %s and %s", lt, rt)
	return nil
}

func (c *Checker) checkArith(ex *ast.BinaryExpr, lt, rt types.Type, allowString bool) ast.Expr {
	if allowString && types.Equal(lt, types.String) && types.Equal(rt, types.String) {
		return nil
	}
	if !types.IsNumeric(lt) || !types.IsNumeric(rt) {
		c.errf(ex.Pos(), "arithmetic requires numeric operands, got %s and %s", lt, rt)
		return nil
	}
	if types.Equal(lt, types.Int) && types.Equal(rt, types.Float) {
		ex.Left = wrapConv(ex.Left, types.Float, lt)
	} else if types.Equal(lt, types.Float) && types.Equal(rt, types.Int) {
		ex.Right = wrapConv(ex.Right, types.Float, rt)
	}
	return nil
}

func (c *Checker) checkUnary(ex *ast.UnaryExpr, scope *Scope) (types.Type, ast.Expr) {
	t, converted := c.checkExpr(ex.X, scope)
	if converted != nil {
		ex.X = converted
	}
	switch ex.Op {
	case ast.OpNeg:
		if !types.IsNumeric(t) {
			c.errf(ex.Pos(), "unary - requires a numeric operand, got %s", t)
		}
		c.bindings.ExprTypes[ex] = t
		return t, nil
	case ast.OpNot:
		if !types.Equal(t, types.Bool) {
			c.errf(ex.Pos(), "! requires a bool operand, got %s", t)
		}
		c.bindings.ExprTypes[ex] = types.Bool
		return types.Bool, nil
	}
	return types.Invalid, nil
}

func (c *Checker) checkCreate(ex *ast.CreateExpr, scope *Scope) (types.Type, ast.Expr) {
	target := qualify(ex.Chain, ex.Name)
	var info *ObjectInfo
	for _, cand := range c.objectsByDecl {
		if qualify(cand.Chain, cand.Name) == target {
			info = cand
			break
		}
	}
	if info == nil {
		c.errf(ex.Pos(), "undeclared object type %q", target)
		return types.Invalid, nil
	}
	if createFn, ok := info.EventFn[ast.EventCreate]; ok {
		c.checkArgs(ex.Pos(), createFn.Formals, ex.Args, scope)
	} else if len(ex.Args) != 0 {
		c.errf(ex.Pos(), "object %q has no create event accepting arguments", target)
	}
	ot := info.Type()
	c.bindings.ExprTypes[ex] = ot
	return ot, nil
}

// assignable reports whether a value of type got may be used where want is
// expected: identical types, int->float widening, or object subtype/none
// upcast to an ancestor type (spec.md §4.2 "implicit conversions"). Object
// upcasts are checked against the live inheritance graph, not just chain/name
// equality, so a child object is assignable to any declared ancestor type.
func (c *Checker) assignable(want, got types.Type) bool {
	if want == nil || got == nil {
		return false
	}
	if types.Equal(want, got) {
		return true
	}
	if types.Equal(want, types.Float) && types.Equal(got, types.Int) {
		return true
	}
	wantObj, wok := want.(*types.Object)
	if wok {
		if got == types.NilObject {
			return true
		}
		gotObj, gok := got.(*types.Object)
		if gok {
			wantInfo := c.lookupObjectInfoByType(wantObj)
			gotInfo := c.lookupObjectInfoByType(gotObj)
			if wantInfo == nil || gotInfo == nil {
				return false
			}
			return gotInfo.IsDescendantOf(wantInfo)
		}
	}
	return false
}

func needsConv(want, got types.Type) bool {
	if types.Equal(want, got) {
		return false
	}
	if types.Equal(want, types.Float) && types.Equal(got, types.Int) {
		return true
	}
	if _, ok := want.(*types.Object); ok {
		return true
	}
	return false
}

func wrapConv(x ast.Expr, to, from types.Type) ast.Expr {
	return &ast.Conv{ConvPos: x.Pos(), To: typeNodeOf(to), X: x, From: typeNodeOf(from)}
}

// typeNodeOf builds a synthetic TypeNode carrying no source position, used
// only to label Conv nodes inserted by the checker (never parsed).
func typeNodeOf(t types.Type) ast.TypeNode {
	switch tt := t.(type) {
	case *types.Basic:
		switch tt.Kind {
		case types.BasicInt:
			return &ast.IntType{}
		case types.BasicFloat:
			return &ast.FloatType{}
		case types.BasicBool:
			return &ast.BoolType{}
		case types.BasicString:
			return &ast.StringType{}
		case types.BasicSprite:
			return &ast.SpriteType{}
		case types.BasicSound:
			return &ast.SoundType{}
		default:
			return &ast.VoidType{}
		}
	case *types.Object:
		return &ast.ObjectTypeName{Chain: tt.Chain, Name: tt.Name}
	case *types.Array:
		return &ast.ArrayType{Elem: typeNodeOf(tt.Elem), Length: tt.Length}
	default:
		return &ast.VoidType{}
	}
}
