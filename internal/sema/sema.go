// Package sema is the semantic analyzer: scope construction, duplicate
// checks, type inference/checking with Conv insertion, inheritance chain
// resolution, lvalue discipline, and event shape validation, per
// spec.md §4.2.
package sema

import (
	"fmt"

	"vellum/internal/ast"
	"vellum/internal/resolver"
	"vellum/internal/token"
	"vellum/internal/types"
)

// Error is a semantic-analysis diagnostic.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// SymbolKind distinguishes what a name in scope refers to.
type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymFunc
	SymObject
	SymParam
)

type Symbol struct {
	Name string
	Kind SymbolKind
	Type types.Type
	Node ast.Node
	// Chain is the absolute namespace chain the symbol was declared in
	// (nil for block-locals and formals, which are not namespace members).
	Chain []string
}

// reservedName reports whether name is one of the two pseudo-names that may
// never be declared, assigned, or introduced into any scope (spec.md §4.2,
// §9): `this` and `super`.
func reservedName(name string) bool {
	return name == "this" || name == "super"
}

// Scope is a linked lexical scope (teacher's Scope{parent,symbols} shape).
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]*Symbol)}
}

// Insert adds sym, refusing a reserved name or a name already present in
// this scope (not ancestor scopes, which may be legitimately shadowed).
func (s *Scope) Insert(sym *Symbol) bool {
	if reservedName(sym.Name) {
		return false
	}
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// bind adds sym unconditionally, overwriting any existing entry with the
// same name. Used for scope layers built by the analyzer itself rather than
// from user declarations: using-closure folds, inherited-member folds, and
// the synthesized this/super symbols, none of which should be rejected by
// the reserved-name/duplicate guard that protects user-facing Insert.
func (s *Scope) bind(sym *Symbol) {
	s.symbols[sym.Name] = sym
}

func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ObjectInfo is the resolved shape of one declared game object: its
// member/method/event tables plus its resolved parent, used for
// inheritance lookups and object-layout purposes downstream (internal/lower).
type ObjectInfo struct {
	Name       string
	Chain      []string // absolute namespace chain this object was declared in
	Decl       *ast.GameObject
	Parent     *ObjectInfo // nil => synthetic root `object`
	MemberType map[string]types.Type
	MethodFn   map[string]*ast.Function
	EventFn    map[ast.EventKind]*ast.Function
}

// Type returns the nominal Object type naming this game object.
func (o *ObjectInfo) Type() *types.Object {
	return &types.Object{Chain: o.Chain, Name: o.Name}
}

// IsDescendantOf reports whether o is child, child-of-child, ... of anc
// (or o == anc).
func (o *ObjectInfo) IsDescendantOf(anc *ObjectInfo) bool {
	for cur := o; cur != nil; cur = cur.Parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// Bindings is the analyzer's output: resolved type per expression, the
// resolved ObjectInfo per game object declaration, and (spec.md §8) the
// resolved declaring chain for every Id/Call/Member* expression.
type Bindings struct {
	ExprTypes     map[ast.Expr]types.Type
	Objects       map[*ast.GameObject]*ObjectInfo
	ResolvedChain map[ast.Expr][]string
}

func newBindings() *Bindings {
	return &Bindings{
		ExprTypes:     make(map[ast.Expr]types.Type),
		Objects:       make(map[*ast.GameObject]*ObjectInfo),
		ResolvedChain: make(map[ast.Expr][]string),
	}
}

// World is the resolved program plus its file graph, passed in from
// internal/resolver.
type World struct {
	Program  *ast.Program
	Files    *resolver.World
	Resolver *resolver.Resolver
}

// Checker walks the program, accumulating diagnostics in errors.
type Checker struct {
	world         *World
	bindings      *Bindings
	errors        []error
	objectsByDecl map[*ast.GameObject]*ObjectInfo
	loopDepth     int
	curReturn     types.Type
	curObject     *ObjectInfo

	// curNS/curNSChain track the namespace currently being checked, the
	// "top" from which a using chain or a qualified identifier's chain is
	// resolved (resolver.Resolve's allowPrivate=true starting point).
	curNS      *ast.Namespace
	curNSChain []string
	// nsChain records the absolute chain of every namespace reached via a
	// Concrete inner-namespace ref during phase1, keyed by identity; used
	// to label resolved declaring chains (spec.md §8). Namespaces reached
	// only through an Alias or a File ref (e.g. the injected std.vl root)
	// have no entry here, so their symbols fall back to a nil Chain — a
	// known simplification, see DESIGN.md.
	nsChain map[*ast.Namespace][]string
	// nsOwnScopes caches, per namespace, a flat scope of that namespace's
	// own globals/functions only (no using-closure, no parent), used both
	// to fold a namespace's own declarations over its using-closure scope
	// and to look up a qualified reference's final segment.
	nsOwnScopes map[*ast.Namespace]*Scope
}

// Check runs the full analysis over world and returns resolved Bindings
// plus any accumulated diagnostics. Even on error, Bindings is populated as
// far as analysis proceeded, so callers that want partial results (e.g.
// the `-a` CLI mode after a `-c` failure) may still use it.
func Check(world *World) (*Bindings, []error) {
	c := &Checker{
		world:         world,
		bindings:      newBindings(),
		objectsByDecl: make(map[*ast.GameObject]*ObjectInfo),
		nsChain:       make(map[*ast.Namespace][]string),
		nsOwnScopes:   make(map[*ast.Namespace]*Scope),
	}
	c.phase1CollectObjects(world.Program.Root, nil)
	c.phase2ResolveParents()
	c.phase3CheckNamespace(world.Program.Root, nil)
	return c.bindings, c.errors
}

// declare inserts sym into s, reporting a diagnostic at pos naming what
// (e.g. "variable", "parameter") instead of inserting on a reserved or
// duplicate name.
func (c *Checker) declare(s *Scope, pos token.Position, sym *Symbol, what string) bool {
	if reservedName(sym.Name) {
		c.errf(pos, "%q is reserved and cannot be used as a %s name", sym.Name, what)
		return false
	}
	if !s.Insert(sym) {
		c.errf(pos, "%q is already declared in this scope", sym.Name)
		return false
	}
	return true
}

func (c *Checker) errf(pos token.Position, format string, args ...interface{}) {
	c.errors = append(c.errors, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// phase1CollectObjects walks every namespace reachable via Concrete refs
// (File/Alias refs are resolved lazily during phase3, since they may
// forward to namespaces not yet visited) and registers each declared
// GameObject's ObjectInfo shell (members/methods/events typed, parent left
// unresolved until phase2).
func (c *Checker) phase1CollectObjects(ns *ast.Namespace, chain []string) {
	c.nsChain[ns] = append([]string{}, chain...)
	for _, no := range ns.Objects {
		info := &ObjectInfo{
			Name:       no.Name,
			Chain:      append([]string{}, chain...),
			Decl:       no.Obj,
			MemberType: make(map[string]types.Type),
			MethodFn:   make(map[string]*ast.Function),
			EventFn:    make(map[ast.EventKind]*ast.Function),
		}
		for _, m := range no.Obj.Members {
			if reservedName(m.Name) {
				c.errf(m.Pos(), "%q is reserved and cannot be used as a member name", m.Name)
				continue
			}
			info.MemberType[m.Name] = resolveTypeNode(m.Type)
		}
		for _, nm := range no.Obj.Methods {
			if reservedName(nm.Name) {
				c.errf(nm.Fn.Pos(), "%q is reserved and cannot be used as a method name", nm.Name)
				continue
			}
			info.MethodFn[nm.Name] = nm.Fn
		}
		for _, ev := range no.Obj.Events {
			info.EventFn[ev.Kind] = ev.Fn
		}
		c.objectsByDecl[no.Obj] = info
		c.bindings.Objects[no.Obj] = info
	}
	for _, in := range ns.Inner {
		if cr, ok := in.Ref.(ast.ConcreteRef); ok {
			c.phase1CollectObjects(cr.NS, append(append([]string{}, chain...), in.Name))
		}
	}
}

// phase2ResolveParents fills in each ObjectInfo.Parent, reporting an error
// if a declared parent chain does not name a known object.
func (c *Checker) phase2ResolveParents() {
	byQualName := make(map[string]*ObjectInfo)
	for _, info := range c.objectsByDecl {
		byQualName[qualify(info.Chain, info.Name)] = info
	}
	for decl, info := range c.objectsByDecl {
		if decl.Parent == nil {
			continue
		}
		key := qualify(decl.Parent.Chain, decl.Parent.Name)
		parent, ok := byQualName[key]
		if !ok {
			c.errf(decl.Parent.NamePos, "undeclared parent object %q", key)
			continue
		}
		info.Parent = parent
	}
	// Detect inheritance cycles.
	for _, info := range c.objectsByDecl {
		seen := map[*ObjectInfo]bool{}
		for cur := info; cur != nil; cur = cur.Parent {
			if seen[cur] {
				c.errf(info.Decl.Pos(), "inheritance cycle involving object %q", info.Name)
				break
			}
			seen[cur] = true
		}
	}
}

// nsOwnScope returns (building and caching on first use) a flat, parentless
// scope holding ns's own globals (value side) and functions (function
// side), each Symbol's Chain set to ns's absolute namespace chain. This is
// step 2 of spec.md §4.2's scope-construction rule, and also the target
// scope a qualified chain reference (`a::b::c`) is looked up in once `a::b`
// resolves to ns.
func (c *Checker) nsOwnScope(ns *ast.Namespace) *Scope {
	if s, ok := c.nsOwnScopes[ns]; ok {
		return s
	}
	s := newScope(nil)
	chain := c.nsChain[ns]
	for _, g := range ns.Globals {
		sym := &Symbol{Name: g.Name, Kind: SymVar, Type: resolveTypeNode(g.Type), Node: g, Chain: chain}
		c.declare(s, g.Pos(), sym, "global")
	}
	for _, nf := range ns.Funcs {
		sym := &Symbol{Name: nf.Name, Kind: SymFunc, Type: funcType(nf.Fn), Node: nf.Fn, Chain: chain}
		c.declare(s, nf.Fn.Pos(), sym, "function")
	}
	c.nsOwnScopes[ns] = s
	return s
}

// usingClosureScope builds the scope layer described by spec.md §4.2 step
// 1: the transitive closure of ns's `using` imports (imports of imports are
// followed; privacy of the imported inner namespace is bypassed, since ns
// is resolving from itself), parented on outer. Cycles in the using graph
// (mutually using namespaces) are broken by a visited set rather than
// re-walked. A private `using` is not re-exported (spec.md §9 Open
// Question, resolved in DESIGN.md): it folds into ns's own scope but is
// not followed when some other namespace transitively reaches ns.
func (c *Checker) usingClosureScope(ns *ast.Namespace, outer *Scope) *Scope {
	s := newScope(outer)
	c.foldUsingClosure(ns, s, map[*ast.Namespace]bool{}, true)
	return s
}

func (c *Checker) foldUsingClosure(ns *ast.Namespace, into *Scope, visited map[*ast.Namespace]bool, includePrivate bool) {
	if visited[ns] {
		return
	}
	visited[ns] = true
	for _, u := range ns.Usings {
		if u.IsPrivate && !includePrivate {
			continue
		}
		target, err := c.world.Resolver.Resolve(ns, u.Chain, true)
		if err != nil {
			c.errf(u.UsingPos, "%s", err)
			continue
		}
		c.foldUsingClosure(target, into, visited, false)
		for _, sym := range c.nsOwnScope(target).symbols {
			into.bind(sym)
		}
	}
}

func qualify(chain []string, name string) string {
	s := name
	for i := len(chain) - 1; i >= 0; i-- {
		s = chain[i] + "::" + s
	}
	return s
}

func resolveTypeNode(t ast.TypeNode) types.Type {
	switch tt := t.(type) {
	case *ast.IntType:
		return types.Int
	case *ast.BoolType:
		return types.Bool
	case *ast.FloatType:
		return types.Float
	case *ast.StringType:
		return types.String
	case *ast.VoidType:
		return types.Void
	case *ast.SpriteType:
		return types.Sprite
	case *ast.SoundType:
		return types.Sound
	case *ast.ObjectTypeName:
		return &types.Object{Chain: tt.Chain, Name: tt.Name}
	case *ast.ArrayType:
		return &types.Array{Elem: resolveTypeNode(tt.Elem), Length: tt.Length}
	default:
		return types.Invalid
	}
}
