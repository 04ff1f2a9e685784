package sema_test

import (
	"testing"

	"vellum/internal/ast"
	"vellum/internal/lexer"
	"vellum/internal/parser"
	"vellum/internal/resolver"
	"vellum/internal/sema"
)

// checkSource parses src as the entry namespace, injects the std namespace
// the way cmd/vellum does for a stdin-only program with no `open` refs, and
// runs the full semantic analysis pass.
func checkSource(t *testing.T, src string) (*sema.Bindings, []error) {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}

	parseFile := func(path string, fsrc []byte) (*ast.Namespace, error) {
		fl := lexer.New(string(fsrc))
		fp := parser.New(fl)
		return fp.ParseNamespaceFile(), nil
	}
	files := &resolver.World{Entry: "<test>", Files: map[string]*ast.Namespace{"<test>": prog.Root}}
	if err := resolver.LoadStd(files, parseFile); err != nil {
		t.Fatalf("unexpected error loading std: %v", err)
	}
	prog.Files = files.Files

	world := &sema.World{Program: prog, Files: files, Resolver: resolver.New(files)}
	return sema.Check(world)
}

func TestCheck_ValidProgramNoErrors(t *testing.T) {
	_, errs := checkSource(t, `object ball {
    int x;

    event create {
        x = 0;
    }
    event step {
        x += 1;
    }
}
`)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestCheck_UndeclaredVariableIsError(t *testing.T) {
	_, errs := checkSource(t, `void run() {
    y = 1;
}
`)
	if len(errs) == 0 {
		t.Fatalf("expected an error for assignment to an undeclared variable")
	}
}

func TestCheck_TypeMismatchIsError(t *testing.T) {
	_, errs := checkSource(t, `void run() {
    int x = "hello";
}
`)
	if len(errs) == 0 {
		t.Fatalf("expected a type error assigning a string to an int")
	}
}

func TestCheck_IntToFloatWidensCleanly(t *testing.T) {
	_, errs := checkSource(t, `void run() {
    float f = 1;
}
`)
	if len(errs) != 0 {
		t.Fatalf("expected int-to-float widening to be allowed, got %v", errs)
	}
}

func TestCheck_DuplicateGlobalIsError(t *testing.T) {
	_, errs := checkSource(t, `int width = 1;
int width = 2;
`)
	if len(errs) == 0 {
		t.Fatalf("expected an error for a duplicate global declaration")
	}
}

func TestCheck_UnknownParentObjectIsError(t *testing.T) {
	_, errs := checkSource(t, `object boss : ghost {
}
`)
	if len(errs) == 0 {
		t.Fatalf("expected an error for an unresolvable parent object reference")
	}
}

func TestCheck_InheritedMemberVisibleInChild(t *testing.T) {
	_, errs := checkSource(t, `object enemy {
    int hp;

    event create {
        hp = 10;
    }
}

object boss : enemy {
    event step {
        hp -= 1;
    }
}
`)
	if len(errs) != 0 {
		t.Fatalf("expected inherited member 'hp' to be visible in 'boss', got %v", errs)
	}
}
