package resolver_test

import (
	"fmt"
	"strings"
	"testing"

	"vellum/internal/ast"
	"vellum/internal/lexer"
	"vellum/internal/parser"
	"vellum/internal/resolver"
)

func parseRoot(t *testing.T, src string) *ast.Namespace {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	return prog.Root
}

func TestResolve_ConcreteNestedChain(t *testing.T) {
	root := parseRoot(t, `namespace engine {
    namespace physics {
        void apply() {
        }
    }
}
`)
	r := resolver.New(&resolver.World{Files: map[string]*ast.Namespace{}})
	ns, err := r.Resolve(root, []string{"engine", "physics"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns.Funcs) != 1 || ns.Funcs[0].Name != "apply" {
		t.Fatalf("expected resolved namespace to contain 'apply', got %#v", ns.Funcs)
	}
}

func TestResolve_AliasIndirection(t *testing.T) {
	root := parseRoot(t, `namespace engine {
    namespace physics {
        void apply() {
        }
    }
}

namespace shortcut = engine::physics;
`)
	r := resolver.New(&resolver.World{Files: map[string]*ast.Namespace{}})
	ns, err := r.Resolve(root, []string{"shortcut"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ns.Funcs) != 1 || ns.Funcs[0].Name != "apply" {
		t.Fatalf("expected alias to resolve to physics's namespace, got %#v", ns.Funcs)
	}
}

func TestResolve_UnknownSegmentIsError(t *testing.T) {
	root := parseRoot(t, `namespace engine {
}
`)
	r := resolver.New(&resolver.World{Files: map[string]*ast.Namespace{}})
	_, err := r.Resolve(root, []string{"missing"}, true)
	if err == nil {
		t.Fatalf("expected an error resolving an unknown namespace segment")
	}
}

func TestResolve_AliasCycleIsDetected(t *testing.T) {
	root := parseRoot(t, `namespace a = b;
namespace b = a;
`)
	r := resolver.New(&resolver.World{Files: map[string]*ast.Namespace{}})
	_, err := r.Resolve(root, []string{"a"}, true)
	if err == nil {
		t.Fatalf("expected a cycle error resolving mutually aliased namespaces")
	}
}

func TestLoadWorld_FollowsFileRefs(t *testing.T) {
	entry := "/virtual/entry.vl"
	dep := "/virtual/dep.vl"

	sources := map[string]string{
		entry: `namespace lib = open "dep.vl";
`,
		dep: `void helper() {
}
`,
	}

	read := func(path string) ([]byte, error) {
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("no such file: %s", path)
		}
		return []byte(src), nil
	}
	parse := func(path string, src []byte) (*ast.Namespace, error) {
		l := lexer.New(string(src))
		p := parser.New(l)
		ns := p.ParseNamespaceFile()
		if errs := p.Errors(); len(errs) > 0 {
			return nil, fmt.Errorf("%s: %s", path, strings.Join(errs, "; "))
		}
		return ns, nil
	}

	world, errs := resolver.LoadWorld(entry, read, parse)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(world.Files) != 2 {
		t.Fatalf("expected 2 files loaded (entry + dep), got %d: %#v", len(world.Files), world.Files)
	}
	if _, ok := world.Files[dep]; !ok {
		t.Fatalf("expected dep.vl to be loaded into the file graph")
	}
}

func TestLoadWorld_FileCycleIsError(t *testing.T) {
	a := "/virtual/a.vl"
	b := "/virtual/b.vl"

	sources := map[string]string{
		a: `namespace other = open "b.vl";
`,
		b: `namespace other = open "a.vl";
`,
	}
	read := func(path string) ([]byte, error) { return []byte(sources[path]), nil }
	parse := func(path string, src []byte) (*ast.Namespace, error) {
		l := lexer.New(string(src))
		p := parser.New(l)
		return p.ParseNamespaceFile(), nil
	}

	_, errs := resolver.LoadWorld(a, read, parse)
	if len(errs) == 0 {
		t.Fatalf("expected a file-inclusion cycle error")
	}
}

func TestLoadStd_InjectsStdNamespace(t *testing.T) {
	world := &resolver.World{Entry: "<test>", Files: map[string]*ast.Namespace{}}
	parse := func(path string, src []byte) (*ast.Namespace, error) {
		l := lexer.New(string(src))
		p := parser.New(l)
		ns := p.ParseNamespaceFile()
		if errs := p.Errors(); len(errs) > 0 {
			return nil, fmt.Errorf("%s: %s", path, strings.Join(errs, "; "))
		}
		return ns, nil
	}
	if err := resolver.LoadStd(world, parse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := world.Files["std.vl"]; !ok {
		t.Fatalf("expected std.vl to be present in the file graph after LoadStd")
	}
}
