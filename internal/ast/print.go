package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump renders prog as an indented human-readable tree, used by the `-a`
// CLI mode.
func Dump(prog *Program) string {
	var b strings.Builder
	fmt.Fprintln(&b, "Program")
	fprintNamespace(&b, prog.Root, 1)
	for path, ns := range prog.Files {
		fmt.Fprintf(&b, "File %q\n", path)
		fprintNamespace(&b, ns, 1)
	}
	return b.String()
}

func indent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
}

func fprintNamespace(w io.Writer, ns *Namespace, depth int) {
	if ns == nil {
		indent(w, depth)
		fmt.Fprintln(w, "<nil namespace>")
		return
	}
	for _, u := range ns.Usings {
		indent(w, depth)
		priv := ""
		if u.IsPrivate {
			priv = "private "
		}
		fmt.Fprintf(w, "using %s%s\n", priv, strings.Join(u.Chain, "::"))
	}
	for _, g := range ns.Globals {
		indent(w, depth)
		fmt.Fprintf(w, "global %s: %s\n", g.Name, fprintType(g.Type))
	}
	for _, nf := range ns.Funcs {
		indent(w, depth)
		fmt.Fprintf(w, "func %s%s\n", nf.Name, fprintSignature(nf.Fn))
		if nf.Fn.Body != nil {
			fprintBlock(w, nf.Fn.Body, depth+1)
		}
	}
	for _, no := range ns.Objects {
		indent(w, depth)
		parent := "object"
		if no.Obj.Parent != nil {
			parent = strings.Join(append(append([]string{}, no.Obj.Parent.Chain...), no.Obj.Parent.Name), "::")
		}
		fmt.Fprintf(w, "object %s : %s\n", no.Name, parent)
		for _, m := range no.Obj.Members {
			indent(w, depth+1)
			fmt.Fprintf(w, "member %s: %s\n", m.Name, fprintType(m.Type))
		}
		for _, ev := range no.Obj.Events {
			indent(w, depth+1)
			fmt.Fprintf(w, "event %s%s\n", ev.Kind, fprintSignature(ev.Fn))
			if ev.Fn.Body != nil {
				fprintBlock(w, ev.Fn.Body, depth+2)
			}
		}
		for _, nm := range no.Obj.Methods {
			indent(w, depth+1)
			fmt.Fprintf(w, "method %s%s\n", nm.Name, fprintSignature(nm.Fn))
			if nm.Fn.Body != nil {
				fprintBlock(w, nm.Fn.Body, depth+2)
			}
		}
	}
	for _, in := range ns.Inner {
		indent(w, depth)
		priv := ""
		if in.IsPrivate {
			priv = "private "
		}
		fmt.Fprintf(w, "namespace %s%s = %s\n", priv, in.Name, fprintRef(in.Ref))
		if cr, ok := in.Ref.(ConcreteRef); ok {
			fprintNamespace(w, cr.NS, depth+1)
		}
	}
}

func fprintRef(ref NamespaceRef) string {
	switch r := ref.(type) {
	case ConcreteRef:
		return "{...}"
	case AliasRef:
		return strings.Join(r.Chain, "::")
	case FileRef:
		return fmt.Sprintf("open %q", r.Path)
	default:
		return "?"
	}
}

func fprintSignature(fn *Function) string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range fn.Formals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, fprintType(p.Type))
	}
	b.WriteString(")")
	if fn.Return != nil {
		fmt.Fprintf(&b, " -> %s", fprintType(fn.Return))
	}
	return b.String()
}

func fprintType(t TypeNode) string {
	switch tt := t.(type) {
	case *IntType:
		return "int"
	case *BoolType:
		return "bool"
	case *FloatType:
		return "float"
	case *StringType:
		return "string"
	case *VoidType:
		return "void"
	case *SpriteType:
		return "sprite"
	case *SoundType:
		return "sound"
	case *ObjectTypeName:
		return strings.Join(append(append([]string{}, tt.Chain...), tt.Name), "::")
	case *ArrayType:
		return fmt.Sprintf("%s[%d]", fprintType(tt.Elem), tt.Length)
	case nil:
		return "<notype>"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func fprintBlock(w io.Writer, b *BlockStmt, depth int) {
	for _, s := range b.Stmts {
		fprintStmt(w, s, depth)
	}
}

func fprintStmt(w io.Writer, s Stmt, depth int) {
	indent(w, depth)
	switch st := s.(type) {
	case *BlockStmt:
		fmt.Fprintln(w, "block")
		fprintBlock(w, st, depth+1)
	case *VarDeclStmt:
		fmt.Fprintf(w, "var %s: %s", st.Name, fprintType(st.Type))
		if st.Value != nil {
			fmt.Fprintf(w, " = %s", fprintExpr(st.Value))
		}
		fmt.Fprintln(w)
	case *AssignStmt:
		fmt.Fprintf(w, "%s %s %s\n", fprintExpr(st.Target), assignOpStr(st.Op), fprintExpr(st.Value))
	case *IncDecStmt:
		op := "++"
		if !st.IsInc {
			op = "--"
		}
		if st.IsPre {
			fmt.Fprintf(w, "%s%s\n", op, fprintExpr(st.Target))
		} else {
			fmt.Fprintf(w, "%s%s\n", fprintExpr(st.Target), op)
		}
	case *ExprStmt:
		fmt.Fprintln(w, fprintExpr(st.Expression))
	case *IfStmt:
		fmt.Fprintf(w, "if %s\n", fprintExpr(st.Cond))
		fprintBlock(w, st.Then, depth+1)
		if st.Else != nil {
			indent(w, depth)
			fmt.Fprintln(w, "else")
			fprintStmt(w, st.Else, depth+1)
		}
	case *ReturnStmt:
		if st.Result != nil {
			fmt.Fprintf(w, "return %s\n", fprintExpr(st.Result))
		} else {
			fmt.Fprintln(w, "return")
		}
	case *BreakStmt:
		fmt.Fprintln(w, "break")
	case *WhileStmt:
		fmt.Fprintf(w, "while %s\n", fprintExpr(st.Cond))
		fprintBlock(w, st.Body, depth+1)
	case *ForStmt:
		fmt.Fprintln(w, "for")
		fprintBlock(w, st.Body, depth+1)
	case *ForEachStmt:
		fmt.Fprintf(w, "foreach (%s %s)\n", fprintType(st.VarType), st.VarName)
		fprintBlock(w, st.Body, depth+1)
	default:
		fmt.Fprintf(w, "<stmt %T>\n", s)
	}
}

func assignOpStr(op AssignOp) string {
	switch op {
	case AssignAdd:
		return "+="
	case AssignSub:
		return "-="
	case AssignMul:
		return "*="
	case AssignDiv:
		return "/="
	default:
		return "="
	}
}

func fprintExpr(e Expr) string {
	switch ex := e.(type) {
	case *IdentChain:
		return strings.Join(append(append([]string{}, ex.Chain...), ex.Name), "::")
	case *IntLiteral:
		return fmt.Sprintf("%d", ex.Value)
	case *FloatLiteral:
		return fmt.Sprintf("%g", ex.Value)
	case *BoolLiteral:
		return fmt.Sprintf("%t", ex.Value)
	case *StringLiteral:
		return fmt.Sprintf("%q", ex.Value)
	case *NoneLiteral:
		return "none"
	case *ArrayLiteral:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = fprintExpr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *CallExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = fprintExpr(a)
		}
		name := strings.Join(append(append([]string{}, ex.Chain...), ex.Name), "::")
		return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", fprintExpr(ex.X), fprintExpr(ex.Index))
	case *MemberExpr:
		return fmt.Sprintf("%s.%s", fprintExpr(ex.X), ex.Name)
	case *MethodCallExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = fprintExpr(a)
		}
		return fmt.Sprintf("%s.%s(%s)", fprintExpr(ex.X), ex.Name, strings.Join(parts, ", "))
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", fprintExpr(ex.Left), binOpStr(ex.Op), fprintExpr(ex.Right))
	case *UnaryExpr:
		op := "-"
		if ex.Op == OpNot {
			op = "!"
		}
		return fmt.Sprintf("%s%s", op, fprintExpr(ex.X))
	case *CreateExpr:
		parts := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			parts[i] = fprintExpr(a)
		}
		name := strings.Join(append(append([]string{}, ex.Chain...), ex.Name), "::")
		return fmt.Sprintf("create %s(%s)", name, strings.Join(parts, ", "))
	case *DestroyExpr:
		return fmt.Sprintf("destroy %s", fprintExpr(ex.X))
	case *Conv:
		return fmt.Sprintf("Conv<%s>(%s)", fprintType(ex.To), fprintExpr(ex.X))
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("<expr %T>", e)
	}
}

func binOpStr(op BinOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}
