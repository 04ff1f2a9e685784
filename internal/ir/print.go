package ir

import (
	"fmt"
	"strings"
)

// Print renders m as indented text (spec.md §4.4; exact syntax is this
// compiler's own — the spec leaves IR text syntax unspecified). Used by the
// `-l`/`-c` CLI modes.
func Print(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for _, g := range m.Globals {
		fmt.Fprintf(&b, "global %s: %s = %s\n", g.Name, g.Type, g.Init.String())
	}
	for _, obj := range m.Objects {
		printObject(&b, obj)
	}
	for _, fn := range m.Functions {
		printFunction(&b, fn)
	}
	fmt.Fprintf(&b, "entry create=%s step=%s draw=%s\n",
		m.EntryPoints.Create, m.EntryPoints.Step, m.EntryPoints.Draw)
	return b.String()
}

func printObject(b *strings.Builder, o *ObjectLayout) {
	parent := o.Parent
	if parent == "" {
		parent = "object"
	}
	fmt.Fprintf(b, "object %s : %s\n", o.Name, parent)
	for _, f := range o.OwnFields {
		fmt.Fprintf(b, "  field %s: %s\n", f.Name, f.Type)
	}
	for _, v := range o.VTable {
		fmt.Fprintf(b, "  vtable %s -> %s\n", v.Slot, emptyDash(v.Func))
	}
	if o.CreateFunc != "" {
		fmt.Fprintf(b, "  create -> %s\n", o.CreateFunc)
	}
}

func emptyDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "func %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", p.Name, p.Type)
	}
	fmt.Fprintf(b, ") -> %s\n", fn.ReturnType)
	for i, blk := range fn.Blocks {
		marker := ""
		if i == fn.Entry {
			marker = " (entry)"
		}
		fmt.Fprintf(b, "  block%d:%s\n", i, marker)
		for _, s := range blk.Stmts {
			fmt.Fprintf(b, "    %s\n", printStmt(s))
		}
		fmt.Fprintf(b, "    %s\n", printTerm(blk.Term))
	}
}

func printStmt(s Stmt) string {
	switch st := s.(type) {
	case VarDecl:
		if st.Init != nil {
			return fmt.Sprintf("var %s: %s = %s", st.Name, st.Type, printExpr(st.Init))
		}
		return fmt.Sprintf("var %s: %s", st.Name, st.Type)
	case Assign:
		return fmt.Sprintf("%s = %s", printExpr(st.Target), printExpr(st.Value))
	case ExprStmt:
		return printExpr(st.X)
	case Destroy:
		return fmt.Sprintf("destroy %s", printExpr(st.X))
	case ForEach:
		var body strings.Builder
		for _, s := range st.Body {
			body.WriteString(printStmt(s))
			body.WriteString("; ")
		}
		return fmt.Sprintf("foreach %s in %s { %s}", st.VarName, st.Object, body.String())
	default:
		return fmt.Sprintf("<stmt %T>", s)
	}
}

func printTerm(t Terminator) string {
	switch tt := t.(type) {
	case Jump:
		return fmt.Sprintf("jump block%d", tt.Target)
	case Branch:
		return fmt.Sprintf("branch %s block%d block%d", printExpr(tt.Cond), tt.Then, tt.Else)
	case Ret:
		if tt.Value != nil {
			return fmt.Sprintf("ret %s", printExpr(tt.Value))
		}
		return "ret"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("<term %T>", t)
	}
}

func printExpr(e Expr) string {
	switch ex := e.(type) {
	case IntLit:
		return fmt.Sprintf("%d", ex.Value)
	case FloatLit:
		return fmt.Sprintf("%g", ex.Value)
	case BoolLit:
		return fmt.Sprintf("%t", ex.Value)
	case StrLit:
		return fmt.Sprintf("%q", ex.Value)
	case NoneLit:
		return "none"
	case Local:
		return ex.Name
	case Global:
		return "@" + ex.Name
	case This:
		return "this"
	case Field:
		return fmt.Sprintf("%s.%s", printExpr(ex.Recv), ex.Member)
	case Index:
		return fmt.Sprintf("%s[%s]", printExpr(ex.Recv), printExpr(ex.Index))
	case Bin:
		return fmt.Sprintf("(%s %s %s)", printExpr(ex.L), ex.Op, printExpr(ex.R))
	case Un:
		return fmt.Sprintf("%s%s", ex.Op, printExpr(ex.X))
	case Call:
		return fmt.Sprintf("%s(%s)", ex.Func, joinExprs(ex.Args))
	case MethodCall:
		return fmt.Sprintf("%s.%s#%d(%s)", printExpr(ex.Recv), ex.Method, ex.VTableSlot, joinExprs(ex.Args))
	case New:
		return fmt.Sprintf("new %s(%s)", ex.Object, joinExprs(ex.Args))
	case Conv:
		return fmt.Sprintf("conv<%s>(%s)", ex.To, printExpr(ex.X))
	default:
		return fmt.Sprintf("<expr %T>", e)
	}
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = printExpr(e)
	}
	return strings.Join(parts, ", ")
}
