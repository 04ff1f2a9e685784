package parser_test

import (
	"testing"

	"vellum/internal/ast"
	"vellum/internal/lexer"
	"vellum/internal/parser"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			t.Logf("parser error: %s", e)
		}
		t.Fatalf("expected no parser errors, got %d", len(errs))
	}
	return prog
}

func TestParseSimpleProgram(t *testing.T) {
	prog := parseProgram(t, `int width = 640;

int add(int a, int b) {
    return a + b;
}
`)

	if len(prog.Root.Globals) != 1 || prog.Root.Globals[0].Name != "width" {
		t.Fatalf("expected one global 'width', got %#v", prog.Root.Globals)
	}
	if len(prog.Root.Funcs) != 1 || prog.Root.Funcs[0].Name != "add" {
		t.Fatalf("expected one function 'add', got %#v", prog.Root.Funcs)
	}
}

func TestParseObjectWithEventsAndParent(t *testing.T) {
	prog := parseProgram(t, `object enemy {
    int hp;

    event create {
        hp = 10;
    }
    event step {
        hp -= 1;
    }
    event destroy {
    }

    int heal(int amount) {
        hp += amount;
        return hp;
    }
}

object boss : enemy {
    event step {
        hp -= 2;
    }
}
`)

	if len(prog.Root.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(prog.Root.Objects))
	}
	enemy := prog.Root.Objects[0]
	if enemy.Name != "enemy" {
		t.Fatalf("expected first object 'enemy', got %q", enemy.Name)
	}
	if len(enemy.Obj.Members) != 1 || enemy.Obj.Members[0].Name != "hp" {
		t.Fatalf("expected member 'hp', got %#v", enemy.Obj.Members)
	}
	if len(enemy.Obj.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(enemy.Obj.Events))
	}
	if len(enemy.Obj.Methods) != 1 || enemy.Obj.Methods[0].Name != "heal" {
		t.Fatalf("expected method 'heal', got %#v", enemy.Obj.Methods)
	}

	boss := prog.Root.Objects[1]
	if boss.Name != "boss" {
		t.Fatalf("expected second object 'boss', got %q", boss.Name)
	}
	if boss.Obj.Parent == nil || boss.Obj.Parent.Name != "enemy" {
		t.Fatalf("expected boss's parent to be 'enemy', got %#v", boss.Obj.Parent)
	}
}

func TestParseIfWhileForForeach(t *testing.T) {
	prog := parseProgram(t, `void run() {
    if (1 < 2) {
        print(1);
    } else if (2 < 3) {
        print(2);
    } else {
        print(3);
    }

    while (true) {
        break;
    }

    for (int i = 0; i < 10; i++) {
        print(i);
    }

    foreach (enemy e) {
        destroy e;
    }
}

object enemy {
}
`)
	if len(prog.Root.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(prog.Root.Funcs))
	}
	body := prog.Root.Funcs[0].Fn.Body.Stmts
	if len(body) != 4 {
		t.Fatalf("expected 4 statements (if/while/for/foreach), got %d", len(body))
	}
	if _, ok := body[0].(*ast.IfStmt); !ok {
		t.Fatalf("expected statement 0 to be an IfStmt, got %T", body[0])
	}
	if _, ok := body[1].(*ast.WhileStmt); !ok {
		t.Fatalf("expected statement 1 to be a WhileStmt, got %T", body[1])
	}
	forStmt, ok := body[2].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected statement 2 to be a ForStmt, got %T", body[2])
	}
	if _, ok := forStmt.Post.(*ast.IncDecStmt); !ok {
		t.Fatalf("expected for-loop post clause to be an IncDecStmt, got %T", forStmt.Post)
	}
	foreachStmt, ok := body[3].(*ast.ForEachStmt)
	if !ok {
		t.Fatalf("expected statement 3 to be a ForEachStmt, got %T", body[3])
	}
	if foreachStmt.VarName != "e" {
		t.Fatalf("expected foreach variable 'e', got %q", foreachStmt.VarName)
	}
	if _, ok := foreachStmt.Body.Stmts[0].(*ast.ExprStmt); !ok {
		t.Fatalf("expected foreach body's destroy to parse as an ExprStmt, got %T", foreachStmt.Body.Stmts[0])
	}
}

func TestParseDeleteSynonymForDestroy(t *testing.T) {
	prog := parseProgram(t, `void run() {
    foreach (enemy e) {
        delete e;
    }
}

object enemy {
}
`)
	body := prog.Root.Funcs[0].Fn.Body.Stmts[0].(*ast.ForEachStmt).Body.Stmts
	exprStmt, ok := body[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt, got %T", body[0])
	}
	if _, ok := exprStmt.Expression.(*ast.DestroyExpr); !ok {
		t.Fatalf("expected `delete e` to parse as a DestroyExpr, got %T", exprStmt.Expression)
	}
}

func TestParseIncDecAsStatement(t *testing.T) {
	prog := parseProgram(t, `void run() {
    int x = 0;
    ++x;
    x++;
}
`)
	stmts := prog.Root.Funcs[0].Fn.Body.Stmts
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	pre, ok := stmts[1].(*ast.IncDecStmt)
	if !ok || !pre.IsPre || !pre.IsInc {
		t.Fatalf("expected a pre-increment IncDecStmt, got %#v", stmts[1])
	}
	post, ok := stmts[2].(*ast.IncDecStmt)
	if !ok || post.IsPre || !post.IsInc {
		t.Fatalf("expected a post-increment IncDecStmt, got %#v", stmts[2])
	}
}

func TestParseCreateExprAndChainedCall(t *testing.T) {
	prog := parseProgram(t, `void run() {
    enemy e = create enemy(10);
    physics::apply(e);
}

object enemy {
    event create(int hp) {
    }
}
`)
	stmts := prog.Root.Funcs[0].Fn.Body.Stmts
	decl, ok := stmts[0].(*ast.VarDeclStmt)
	if !ok {
		t.Fatalf("expected a VarDeclStmt, got %T", stmts[0])
	}
	create, ok := decl.Value.(*ast.CreateExpr)
	if !ok {
		t.Fatalf("expected CreateExpr initializer, got %T", decl.Value)
	}
	if create.Name != "enemy" || len(create.Args) != 1 {
		t.Fatalf("expected create enemy(10), got %#v", create)
	}

	exprStmt, ok := stmts[1].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt, got %T", stmts[1])
	}
	call, ok := exprStmt.Expression.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected a CallExpr, got %T", exprStmt.Expression)
	}
	if len(call.Chain) != 1 || call.Chain[0] != "physics" || call.Name != "apply" {
		t.Fatalf("expected chain 'physics::apply', got %#v", call)
	}
}

func TestParseNamespacesAndUsing(t *testing.T) {
	prog := parseProgram(t, `using engine::physics;

namespace engine {
    namespace physics {
        void apply() {
        }
    }
}

namespace shortcut = engine::physics;
`)
	if len(prog.Root.Usings) != 1 {
		t.Fatalf("expected 1 using, got %d", len(prog.Root.Usings))
	}
	if len(prog.Root.Inner) != 2 {
		t.Fatalf("expected 2 inner namespace decls, got %d", len(prog.Root.Inner))
	}
	engine := prog.Root.Inner[0]
	if _, ok := engine.Ref.(ast.ConcreteRef); !ok {
		t.Fatalf("expected 'engine' to be a ConcreteRef, got %T", engine.Ref)
	}
	alias := prog.Root.Inner[1]
	aliasRef, ok := alias.Ref.(ast.AliasRef)
	if !ok {
		t.Fatalf("expected 'shortcut' to be an AliasRef, got %T", alias.Ref)
	}
	if len(aliasRef.Chain) != 2 || aliasRef.Chain[0] != "engine" || aliasRef.Chain[1] != "physics" {
		t.Fatalf("expected alias chain engine::physics, got %#v", aliasRef.Chain)
	}
}

func TestParseArrayTypeAndLiteral(t *testing.T) {
	prog := parseProgram(t, `int[3] scores = [1, 2, 3];
`)
	g := prog.Root.Globals[0]
	arr, ok := g.Type.(*ast.ArrayType)
	if !ok {
		t.Fatalf("expected ArrayType, got %T", g.Type)
	}
	if arr.Length != 3 {
		t.Fatalf("expected array length 3, got %d", arr.Length)
	}
	lit, ok := g.Init.(*ast.ArrayLiteral)
	if !ok {
		t.Fatalf("expected ArrayLiteral init, got %T", g.Init)
	}
	if len(lit.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(lit.Elements))
	}
}

func TestParseExternDecl(t *testing.T) {
	prog := parseProgram(t, `extern void print(int x);
`)
	if len(prog.Root.Funcs) != 1 || prog.Root.Funcs[0].Name != "print" {
		t.Fatalf("expected extern 'print', got %#v", prog.Root.Funcs)
	}
	if prog.Root.Funcs[0].Fn.Body != nil {
		t.Fatalf("expected extern function to have a nil body, got %#v", prog.Root.Funcs[0].Fn.Body)
	}
}

func TestParseReportsErrorOnBadInput(t *testing.T) {
	l := lexer.New(`object { int x }`)
	p := parser.New(l)
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected parser errors for a missing object name, got none")
	}
}
