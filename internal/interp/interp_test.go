package interp

import (
	"bytes"
	"strings"
	"testing"

	"vellum/internal/constval"
	"vellum/internal/ir"
)

func TestInterp_PrintAndArithmetic(t *testing.T) {
	fn := &ir.Function{
		Name:       "global_create",
		ReturnType: "void",
		Entry:      0,
		Blocks: []*ir.Block{{
			Stmts: []ir.Stmt{
				ir.ExprStmt{X: ir.Call{Func: "print", Args: []ir.Expr{
					ir.Bin{Op: "+", L: ir.IntLit{Value: 1}, R: ir.IntLit{Value: 2}},
				}}},
				ir.ExprStmt{X: ir.Call{Func: "end_game"}},
			},
			Term: ir.Ret{},
		}},
	}
	mod := &ir.Module{Functions: []*ir.Function{fn}}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	ip := New(mod, &out, &errOut)
	ip.Run()

	if got := out.String(); got != "3\n" {
		t.Fatalf("expected \"3\\n\", got %q", got)
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
}

// TestInterp_VirtualDispatchOverride builds a two-level inheritance chain
// (base <- derived) where derived overrides `step`, creates one instance of
// each, and checks that each type's foreach dispatches through its own
// vtable: the base instance runs base's handler and the derived instance
// runs derived's override exactly once (spec.md §4.3 "nearest ancestor
// override"). A derived instance sits only on derived's type list, so the
// base foreach does not visit it.
func TestInterp_VirtualDispatchOverride(t *testing.T) {
	baseStep := &ir.Function{Name: "base$step", ReturnType: "void", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{ir.ExprStmt{X: ir.Call{Func: "printstr", Args: []ir.Expr{ir.StrLit{Value: "base"}}}}},
		Term:  ir.Ret{},
	}}}
	derivedStep := &ir.Function{Name: "derived$step", ReturnType: "void", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{ir.ExprStmt{X: ir.Call{Func: "printstr", Args: []ir.Expr{ir.StrLit{Value: "derived"}}}}},
		Term:  ir.Ret{},
	}}}

	create := &ir.Function{Name: "global_create", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ExprStmt{X: ir.New{Object: "base"}},
			ir.ExprStmt{X: ir.New{Object: "derived"}},
		},
		Term: ir.Ret{},
	}}}
	step := &ir.Function{Name: "global_step", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ForEach{VarName: "it", Object: "base", Body: []ir.Stmt{
				ir.ExprStmt{X: ir.MethodCall{Recv: ir.Local{Name: "it"}, Method: "step", VTableSlot: 0}},
			}},
			ir.ForEach{VarName: "it", Object: "derived", Body: []ir.Stmt{
				ir.ExprStmt{X: ir.MethodCall{Recv: ir.Local{Name: "it"}, Method: "step", VTableSlot: 0}},
			}},
			ir.ExprStmt{X: ir.Call{Func: "end_game"}},
		},
		Term: ir.Ret{},
	}}}
	draw := &ir.Function{Name: "global_draw", Blocks: []*ir.Block{{Term: ir.Ret{}}}}

	mod := &ir.Module{
		Functions: []*ir.Function{create, step, draw, baseStep, derivedStep},
		Objects: []*ir.ObjectLayout{
			{Name: "base", VTable: []ir.VTableEntry{{Slot: "step", Func: "base$step"}}},
			{Name: "derived", Parent: "base", VTable: []ir.VTableEntry{{Slot: "step", Func: "derived$step"}}},
		},
	}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	ip := New(mod, &out, &errOut)
	ip.Run()

	got := out.String()
	if !strings.Contains(got, "base\n") {
		t.Fatalf("expected base's own instance to step through its own handler, got %q", got)
	}
	if !strings.Contains(got, "derived\n") {
		t.Fatalf("expected derived's override to run, got %q", got)
	}
	if strings.Count(got, "derived\n") != 1 {
		t.Fatalf("expected derived's step to run exactly once (not inherited twice), got %q", got)
	}
}

// TestInterp_LazyDestructionDuringForEach destroys each of three live
// instances right after visiting it and checks all three are still visited:
// the foreach cursor captures the next node before the body unlinks the
// current one from the type list, and the general list is only swept after
// global_step returns (spec.md §4.3 "lazy destruction").
func TestInterp_LazyDestructionDuringForEach(t *testing.T) {
	create := &ir.Function{Name: "global_create", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ExprStmt{X: ir.New{Object: "thing"}},
			ir.ExprStmt{X: ir.New{Object: "thing"}},
			ir.ExprStmt{X: ir.New{Object: "thing"}},
		},
		Term: ir.Ret{},
	}}}
	step := &ir.Function{Name: "global_step", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ForEach{VarName: "it", Object: "thing", Body: []ir.Stmt{
				ir.ExprStmt{X: ir.Call{Func: "print", Args: []ir.Expr{ir.Field{Recv: ir.Local{Name: "it"}, Member: "tag"}}}},
				ir.Destroy{X: ir.Local{Name: "it"}},
			}},
			ir.ExprStmt{X: ir.Call{Func: "end_game"}},
		},
		Term: ir.Ret{},
	}}}
	draw := &ir.Function{Name: "global_draw", Blocks: []*ir.Block{{Term: ir.Ret{}}}}

	mod := &ir.Module{
		Functions: []*ir.Function{create, step, draw},
		Objects: []*ir.ObjectLayout{
			{Name: "thing", OwnFields: []ir.Param{{Name: "tag", Type: "int"}}},
		},
	}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	ip := New(mod, &out, &errOut)
	ip.Run()

	lines := strings.Count(out.String(), "\n")
	if lines != 3 {
		t.Fatalf("expected every live instance visited before being destroyed, got %d lines: %q", lines, out.String())
	}
}

// TestInterp_NestedForEachLazyDestroy mirrors spec.md §8 scenario 3: five
// helper objects, an outer foreach(helper) that prints "outer" then runs an
// inner foreach(helper) destroying every helper. The outer loop's first
// iteration prints "outer" and its nested inner loop destroys all five
// helpers (printing "inner" five times); the outer loop's remaining
// iterations land on now-destroyed (id==0) nodes and are skipped, so
// "outer" prints exactly once in total — the exact stdout spec.md §8
// scenario 3 names.
func TestInterp_NestedForEachLazyDestroy(t *testing.T) {
	create := &ir.Function{Name: "global_create", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ExprStmt{X: ir.New{Object: "helper"}},
			ir.ExprStmt{X: ir.New{Object: "helper"}},
			ir.ExprStmt{X: ir.New{Object: "helper"}},
			ir.ExprStmt{X: ir.New{Object: "helper"}},
			ir.ExprStmt{X: ir.New{Object: "helper"}},
		},
		Term: ir.Ret{},
	}}}
	step := &ir.Function{Name: "global_step", Blocks: []*ir.Block{{
		Stmts: []ir.Stmt{
			ir.ForEach{VarName: "x", Object: "helper", Body: []ir.Stmt{
				ir.ExprStmt{X: ir.Call{Func: "printstr", Args: []ir.Expr{ir.StrLit{Value: "outer"}}}},
				ir.ForEach{VarName: "y", Object: "helper", Body: []ir.Stmt{
					ir.ExprStmt{X: ir.Call{Func: "printstr", Args: []ir.Expr{ir.StrLit{Value: "inner"}}}},
					ir.Destroy{X: ir.Local{Name: "y"}},
				}},
			}},
			ir.ExprStmt{X: ir.Call{Func: "end_game"}},
		},
		Term: ir.Ret{},
	}}}
	draw := &ir.Function{Name: "global_draw", Blocks: []*ir.Block{{Term: ir.Ret{}}}}

	mod := &ir.Module{
		Functions: []*ir.Function{create, step, draw},
		Objects:   []*ir.ObjectLayout{{Name: "helper"}},
	}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	New(mod, &out, &errOut).Run()

	got := out.String()
	if n := strings.Count(got, "outer\n"); n != 1 {
		t.Fatalf("expected exactly 1 \"outer\" line (only the first helper survives to start the outer loop), got %d: %q", n, got)
	}
	if n := strings.Count(got, "inner\n"); n != 5 {
		t.Fatalf("expected exactly 5 \"inner\" lines, got %d: %q", n, got)
	}
}

// TestInterp_MaxStepsGuard checks the runaway-loop guard fires with the
// exact libtestergame.cpp failure message when end_game is never called.
func TestInterp_MaxStepsGuard(t *testing.T) {
	noop := &ir.Function{Name: "noop", Blocks: []*ir.Block{{Term: ir.Ret{}}}}
	mod := &ir.Module{Functions: []*ir.Function{
		{Name: "global_create", Blocks: []*ir.Block{{Term: ir.Ret{}}}},
		{Name: "global_step", Blocks: []*ir.Block{{Term: ir.Ret{}}}},
		{Name: "global_draw", Blocks: []*ir.Block{{Term: ir.Ret{}}}},
		noop,
	}}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	ip := New(mod, &out, &errOut)
	ip.Run()

	want := "FAILURE: Exceed max number of steps allowed for test. Did you forget to call end_game()?\n"
	if got := errOut.String(); got != want {
		t.Fatalf("expected exact guard message %q, got %q", want, got)
	}
}

func TestInterp_GlobalConstFromConstval(t *testing.T) {
	mod := &ir.Module{
		Globals: []*ir.GlobalVar{{Name: "width", Type: "int", Init: constval.Int(640)}},
		Functions: []*ir.Function{
			{Name: "global_create", Blocks: []*ir.Block{{
				Stmts: []ir.Stmt{
					ir.ExprStmt{X: ir.Call{Func: "print", Args: []ir.Expr{ir.Global{Name: "width"}}}},
					ir.ExprStmt{X: ir.Call{Func: "end_game"}},
				},
				Term: ir.Ret{},
			}}},
			{Name: "global_step", Blocks: []*ir.Block{{Term: ir.Ret{}}}},
			{Name: "global_draw", Blocks: []*ir.Block{{Term: ir.Ret{}}}},
		},
	}
	mod.EntryPoints.Create = "global_create"
	mod.EntryPoints.Step = "global_step"
	mod.EntryPoints.Draw = "global_draw"

	var out, errOut bytes.Buffer
	New(mod, &out, &errOut).Run()

	if got := out.String(); got != "640\n" {
		t.Fatalf("expected \"640\\n\", got %q", got)
	}
}
