package lower

import (
	"vellum/internal/ast"
	"vellum/internal/ir"
	"vellum/internal/sema"
	"vellum/internal/types"
)

func (l *lowerer) lowerNamespace(ns *ast.Namespace, chain []string) {
	for _, nf := range ns.Funcs {
		if nf.Fn.Body == nil {
			continue // extern
		}
		l.functions = append(l.functions, l.lowerFunction(mangle(chain, nf.Name), nf.Fn, nil))
	}
	for _, no := range ns.Objects {
		info := l.bindings.Objects[no.Obj]
		for _, ev := range no.Obj.Events {
			if ev.Fn.Body == nil {
				continue
			}
			name := mangle(info.Chain, info.Name) + "$" + ev.Kind.String()
			l.functions = append(l.functions, l.lowerFunction(name, ev.Fn, info))
		}
		for _, nm := range no.Obj.Methods {
			if nm.Fn.Body == nil {
				continue
			}
			name := mangle(info.Chain, info.Name) + "$" + nm.Name
			l.functions = append(l.functions, l.lowerFunction(name, nm.Fn, info))
		}
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			l.lowerNamespace(cr.NS, append(append([]string{}, chain...), in.Name))
		}
	}
}

// fnBuilder builds one function's CFG incrementally.
type fnBuilder struct {
	l      *lowerer
	owner  *sema.ObjectInfo
	fn     *ir.Function
	cur    int   // index of the block currently being appended to
	loops  []loopCtx
}

type loopCtx struct{ breakTarget int }

func (l *lowerer) lowerFunction(mangledName string, afn *ast.Function, owner *sema.ObjectInfo) *ir.Function {
	fn := &ir.Function{Name: mangledName, ReturnType: typeName(resolveForLower(afn.Return))}
	for _, p := range afn.Formals {
		fn.Params = append(fn.Params, ir.Param{Name: p.Name, Type: typeName(resolveForLower(p.Type))})
	}
	if owner != nil {
		fn.Params = append([]ir.Param{{Name: "this", Type: mangle(owner.Chain, owner.Name)}}, fn.Params...)
	}

	fb := &fnBuilder{l: l, owner: owner, fn: fn}
	entry := fb.newBlock()
	fn.Entry = entry
	fb.cur = entry

	fb.lowerBlock(afn.Body)
	fb.terminateFallthrough(ir.Ret{})
	return fn
}

func resolveForLower(t ast.TypeNode) types.Type {
	switch tt := t.(type) {
	case *ast.IntType:
		return types.Int
	case *ast.BoolType:
		return types.Bool
	case *ast.FloatType:
		return types.Float
	case *ast.StringType:
		return types.String
	case *ast.VoidType, nil:
		return types.Void
	case *ast.SpriteType:
		return types.Sprite
	case *ast.SoundType:
		return types.Sound
	case *ast.ObjectTypeName:
		return &types.Object{Chain: tt.Chain, Name: tt.Name}
	case *ast.ArrayType:
		return &types.Array{Elem: resolveForLower(tt.Elem), Length: tt.Length}
	default:
		return types.Void
	}
}

func (fb *fnBuilder) newBlock() int {
	fb.fn.Blocks = append(fb.fn.Blocks, &ir.Block{})
	return len(fb.fn.Blocks) - 1
}

func (fb *fnBuilder) block(i int) *ir.Block { return fb.fn.Blocks[i] }

func (fb *fnBuilder) emit(s ir.Stmt) {
	fb.block(fb.cur).Stmts = append(fb.block(fb.cur).Stmts, s)
}

// terminateFallthrough sets cur's terminator to t only if cur has none yet
// (a `return`/`break` inside the block may already have set one via
// terminateAndOpen, in which case this is a no-op on a now-unreachable
// trailing block).
func (fb *fnBuilder) terminateFallthrough(t ir.Terminator) {
	if fb.block(fb.cur).Term == nil {
		fb.block(fb.cur).Term = t
	}
}

func (fb *fnBuilder) lowerBlock(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		fb.lowerStmt(s)
	}
}

func (fb *fnBuilder) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		fb.lowerBlock(st)
	case *ast.VarDeclStmt:
		var init ir.Expr
		if st.Value != nil {
			init = fb.lowerExpr(st.Value)
		}
		fb.emit(ir.VarDecl{Name: st.Name, Type: typeName(resolveForLower(st.Type)), Init: init})
	case *ast.AssignStmt:
		target := fb.lowerExpr(st.Target)
		value := fb.lowerExpr(st.Value)
		if st.Op != ast.AssignSet {
			value = ir.Bin{Op: compoundOp(st.Op), L: target, R: value}
		}
		fb.emit(ir.Assign{Target: target, Value: value})
	case *ast.IncDecStmt:
		target := fb.lowerExpr(st.Target)
		op := "+"
		if !st.IsInc {
			op = "-"
		}
		fb.emit(ir.Assign{Target: target, Value: ir.Bin{Op: op, L: target, R: ir.IntLit{Value: 1}}})
	case *ast.ExprStmt:
		if de, ok := st.Expression.(*ast.DestroyExpr); ok {
			fb.emit(ir.Destroy{X: fb.lowerExpr(de.X)})
			return
		}
		fb.emit(ir.ExprStmt{X: fb.lowerExpr(st.Expression)})
	case *ast.IfStmt:
		fb.lowerIf(st)
	case *ast.ReturnStmt:
		var v ir.Expr
		if st.Result != nil {
			v = fb.lowerExpr(st.Result)
		}
		fb.terminateFallthrough(ir.Ret{Value: v})
		fb.openUnreachableContinuation()
	case *ast.BreakStmt:
		if len(fb.loops) > 0 {
			target := fb.loops[len(fb.loops)-1].breakTarget
			fb.terminateFallthrough(ir.Jump{Target: target})
		}
		fb.openUnreachableContinuation()
	case *ast.WhileStmt:
		fb.lowerWhile(st)
	case *ast.ForStmt:
		fb.lowerFor(st)
	case *ast.ForEachStmt:
		fb.lowerForEach(st)
	}
}

// openUnreachableContinuation starts a fresh block for any statements that
// textually follow a return/break; it stays declared-but-unreachable
// unless later control flow (e.g. the enclosing if's merge block) jumps
// into it, matching spec.md §4.4's dead-successor-block allowance.
func (fb *fnBuilder) openUnreachableContinuation() {
	fb.cur = fb.newBlock()
}

func compoundOp(op ast.AssignOp) string {
	switch op {
	case ast.AssignAdd:
		return "+"
	case ast.AssignSub:
		return "-"
	case ast.AssignMul:
		return "*"
	default:
		return "/"
	}
}

func (fb *fnBuilder) lowerIf(st *ast.IfStmt) {
	cond := fb.lowerExpr(st.Cond)
	thenBlk := fb.newBlock()
	elseBlk := fb.newBlock()
	merge := fb.newBlock()
	fb.terminateFallthrough(ir.Branch{Cond: cond, Then: thenBlk, Else: elseBlk})

	fb.cur = thenBlk
	fb.lowerBlock(st.Then)
	fb.terminateFallthrough(ir.Jump{Target: merge})

	fb.cur = elseBlk
	if st.Else != nil {
		fb.lowerStmt(st.Else)
	}
	fb.terminateFallthrough(ir.Jump{Target: merge})

	fb.cur = merge
}

func (fb *fnBuilder) lowerWhile(st *ast.WhileStmt) {
	head := fb.newBlock()
	body := fb.newBlock()
	after := fb.newBlock()
	fb.terminateFallthrough(ir.Jump{Target: head})

	fb.cur = head
	cond := fb.lowerExpr(st.Cond)
	fb.terminateFallthrough(ir.Branch{Cond: cond, Then: body, Else: after})

	fb.loops = append(fb.loops, loopCtx{breakTarget: after})
	fb.cur = body
	fb.lowerBlock(st.Body)
	fb.terminateFallthrough(ir.Jump{Target: head})
	fb.loops = fb.loops[:len(fb.loops)-1]

	fb.cur = after
}

func (fb *fnBuilder) lowerFor(st *ast.ForStmt) {
	if st.Init != nil {
		fb.lowerStmt(st.Init)
	}
	head := fb.newBlock()
	body := fb.newBlock()
	after := fb.newBlock()
	fb.terminateFallthrough(ir.Jump{Target: head})

	fb.cur = head
	var cond ir.Expr = ir.BoolLit{Value: true}
	if st.Cond != nil {
		cond = fb.lowerExpr(st.Cond)
	}
	fb.terminateFallthrough(ir.Branch{Cond: cond, Then: body, Else: after})

	fb.loops = append(fb.loops, loopCtx{breakTarget: after})
	fb.cur = body
	fb.lowerBlock(st.Body)
	if st.Post != nil {
		fb.lowerStmt(st.Post)
	}
	fb.terminateFallthrough(ir.Jump{Target: head})
	fb.loops = fb.loops[:len(fb.loops)-1]

	fb.cur = after
}

// lowerForEach lowers to a single ir.ForEach statement rather than a
// general loop CFG: the two intrusive lists are walked by the interpreter
// itself (spec.md §4.3 "foreach"), so the body is lowered as a straight-
// line nested statement list, not its own blocks — a `break` inside it is
// rejected by internal/sema, so no loop-exit plumbing is needed here.
func (fb *fnBuilder) lowerForEach(st *ast.ForEachStmt) {
	objType, _ := resolveForLower(st.VarType).(*types.Object)
	objName := ""
	if objType != nil {
		objName = mangleObjectType(objType)
	}
	inner := &fnBuilder{l: fb.l, owner: fb.owner, fn: &ir.Function{}}
	entry := inner.newBlock()
	inner.cur = entry
	inner.lowerBlock(st.Body)
	inner.terminateFallthrough(ir.Ret{})
	fb.emit(ir.ForEach{VarName: st.VarName, Object: objName, Body: inner.fn.Blocks[entry].Stmts})
}

func mangleObjectType(t *types.Object) string {
	return mangle(t.Chain, t.Name)
}

func (fb *fnBuilder) lowerExpr(e ast.Expr) ir.Expr {
	switch ex := e.(type) {
	case *ast.IdentChain:
		return fb.lowerIdent(ex)
	case *ast.IntLiteral:
		return ir.IntLit{Value: ex.Value}
	case *ast.FloatLiteral:
		return ir.FloatLit{Value: ex.Value}
	case *ast.BoolLiteral:
		return ir.BoolLit{Value: ex.Value}
	case *ast.StringLiteral:
		return ir.StrLit{Value: ex.Value}
	case *ast.NoneLiteral:
		return ir.NoneLit{}
	case *ast.ArrayLiteral:
		// Global initializers are folded by constFold; an array literal in
		// a function body lowers to a call of the `__array_literal`
		// pseudo-function, which internal/interp evaluates to a fresh
		// array of the element values.
		args := make([]ir.Expr, len(ex.Elements))
		for i, el := range ex.Elements {
			args[i] = fb.lowerExpr(el)
		}
		return ir.Call{Func: "__array_literal", Args: args}
	case *ast.CallExpr:
		args := make([]ir.Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = fb.lowerExpr(a)
		}
		return ir.Call{Func: ex.Name, Args: args}
	case *ast.IndexExpr:
		return ir.Index{Recv: fb.lowerExpr(ex.X), Index: fb.lowerExpr(ex.Index)}
	case *ast.MemberExpr:
		offset := -1
		if recvType, ok := fb.l.bindings.ExprTypes[ex.X].(*types.Object); ok {
			offset = fb.l.fieldOffset(mangleObjectType(recvType), ex.Name)
		}
		return ir.Field{Recv: fb.lowerExpr(ex.X), Member: ex.Name, ByteOffset: offset}
	case *ast.MethodCallExpr:
		args := make([]ir.Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = fb.lowerExpr(a)
		}
		recv := fb.lowerExpr(ex.X)
		target := ""
		if recvType, ok := fb.l.bindings.ExprTypes[ex.X].(*types.Object); ok {
			if info := fb.l.byMangled[mangleObjectType(recvType)]; info != nil {
				target = fb.l.findMethodOwner(info, ex.Name)
			}
		}
		return ir.Call{Func: target, Args: append([]ir.Expr{recv}, args...)}
	case *ast.BinaryExpr:
		return ir.Bin{Op: binOpStr(ex.Op), L: fb.lowerExpr(ex.Left), R: fb.lowerExpr(ex.Right)}
	case *ast.UnaryExpr:
		op := "-"
		if ex.Op == ast.OpNot {
			op = "!"
		}
		return ir.Un{Op: op, X: fb.lowerExpr(ex.X)}
	case *ast.CreateExpr:
		args := make([]ir.Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = fb.lowerExpr(a)
		}
		return ir.New{Object: mangle(ex.Chain, ex.Name), Args: args}
	case *ast.DestroyExpr:
		return ir.Call{Func: "__destroy_expr", Args: []ir.Expr{fb.lowerExpr(ex.X)}}
	case *ast.Conv:
		return ir.Conv{To: typeName(resolveForLower(ex.To)), X: fb.lowerExpr(ex.X)}
	default:
		return ir.NoneLit{}
	}
}

func (fb *fnBuilder) lowerIdent(ex *ast.IdentChain) ir.Expr {
	if ex.Name == "this" && len(ex.Chain) == 0 && fb.owner != nil {
		return ir.This{}
	}
	if len(ex.Chain) == 0 {
		return ir.Local{Name: ex.Name}
	}
	return ir.Global{Name: ex.Name}
}

func binOpStr(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpEq:
		return "=="
	case ast.OpNeq:
		return "!="
	case ast.OpLt:
		return "<"
	case ast.OpLte:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGte:
		return ">="
	case ast.OpAnd:
		return "&&"
	default:
		return "||"
	}
}
