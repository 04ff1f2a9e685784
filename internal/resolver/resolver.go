// Package resolver implements namespace-chain resolution and the
// file-inclusion graph loader: spec.md §4.1.
package resolver

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"golang.org/x/exp/maps"

	"vellum/internal/ast"
	"vellum/internal/token"
)

// Error is a resolution-phase diagnostic.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// World is the file-inclusion graph: every namespace file reachable from
// the entry file, keyed by absolute path, plus the injected std file.
type World struct {
	Entry string
	Files map[string]*ast.Namespace
}

// visitPair identifies one step of namespace-chain resolution for loop
// detection: the identity of the namespace being searched from, plus the
// residual chain still to resolve (spec.md §4.1 "never resolves").
type visitPair struct {
	ns    *ast.Namespace
	chain string // chain joined by "::", residual path not yet consumed
}

// Resolver resolves namespace-ref chains against a loaded World.
type Resolver struct {
	world *World
}

func New(world *World) *Resolver {
	return &Resolver{world: world}
}

// Resolve walks chain starting at top, following Concrete/Alias/File
// namespace refs, honoring privacy unless allowPrivate is set (true only
// when resolving from inside top itself), and detecting infinite loops by
// tracking (namespace identity, residual chain) pairs already visited.
func (r *Resolver) Resolve(top *ast.Namespace, chain []string, allowPrivate bool) (*ast.Namespace, error) {
	visited := linkedhashset.New()
	return r.resolve(top, chain, allowPrivate, visited)
}

func (r *Resolver) resolve(top *ast.Namespace, chain []string, allowPrivate bool, visited *linkedhashset.Set) (*ast.Namespace, error) {
	if len(chain) == 0 {
		return top, nil
	}
	key := visitKey(top, chain)
	if visited.Contains(key) {
		return nil, &Error{Pos: top.Pos(), Msg: fmt.Sprintf("namespace chain %v never resolves (cycle detected)", chain)}
	}
	visited.Add(key)

	head, rest := chain[0], chain[1:]
	inner, err := r.lookupInner(top, head, allowPrivate)
	if err != nil {
		return nil, err
	}

	switch ref := inner.Ref.(type) {
	case ast.ConcreteRef:
		return r.resolve(ref.NS, rest, false, visited)
	case ast.AliasRef:
		resolved, err := r.resolve(top, ref.Chain, true, visited)
		if err != nil {
			return nil, err
		}
		return r.resolve(resolved, rest, false, visited)
	case ast.FileRef:
		fileNS, ok := r.world.Files[ref.Path]
		if !ok {
			return nil, &Error{Pos: inner.NamePos, Msg: fmt.Sprintf("file %q was not loaded", ref.Path)}
		}
		return r.resolve(fileNS, rest, false, visited)
	default:
		return nil, &Error{Pos: inner.NamePos, Msg: "unrecognized namespace reference kind"}
	}
}

func (r *Resolver) lookupInner(ns *ast.Namespace, name string, allowPrivate bool) (*ast.InnerNamespace, error) {
	for _, in := range ns.Inner {
		if in.Name != name {
			continue
		}
		if in.IsPrivate && !allowPrivate {
			return nil, &Error{Pos: in.NamePos, Msg: fmt.Sprintf("namespace %q is private", name)}
		}
		return in, nil
	}
	return nil, &Error{Pos: ns.Pos(), Msg: fmt.Sprintf("unrecognized namespace %q; candidates: %v", name, candidateNames(ns))}
}

func candidateNames(ns *ast.Namespace) []string {
	names := make(map[string]struct{}, len(ns.Inner))
	for _, in := range ns.Inner {
		names[in.Name] = struct{}{}
	}
	out := maps.Keys(names)
	sort.Strings(out)
	return out
}

func visitKey(ns *ast.Namespace, chain []string) string {
	joined := ""
	for i, c := range chain {
		if i > 0 {
			joined += "::"
		}
		joined += c
	}
	return fmt.Sprintf("%p|%s", ns, joined)
}

// ResolveGlobal resolves a fully-qualified chain starting at the program
// root, injecting the private `std` namespace (backed by the File("std.vl")
// entry) that every program implicitly carries (spec.md §4.1 "standard
// namespace").
func (r *Resolver) ResolveGlobal(prog *ast.Program, chain []string) (*ast.Namespace, error) {
	root := withStd(prog.Root)
	return r.Resolve(root, chain, true)
}

// withStd returns root annotated with the injected private `std` inner
// namespace if not already present. The World must contain "std.vl".
func withStd(root *ast.Namespace) *ast.Namespace {
	for _, in := range root.Inner {
		if in.Name == "std" {
			return root
		}
	}
	clone := *root
	clone.Inner = append(append([]*ast.InnerNamespace{}, root.Inner...), &ast.InnerNamespace{
		Name:      "std",
		IsPrivate: true,
		Ref:       ast.FileRef{Path: "std.vl"},
	})
	return &clone
}
