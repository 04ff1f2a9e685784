// Package parser is a recursive-descent parser producing an *ast.Program
// from a token stream, per spec.md §6's surface syntax.
package parser

import (
	"fmt"
	"strconv"

	"vellum/internal/ast"
	"vellum/internal/lexer"
	"vellum/internal/token"
)

type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	errors []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf("%d:%d: ", pos.Line, pos.Column) + fmt.Sprintf(format, args...)
	p.errors = append(p.errors, msg)
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "expected %s, got %s (%q)", kind, p.cur.Kind, p.cur.Lexeme)
	}
	tok := p.cur
	p.nextToken()
	return tok
}

// ---------- Top-level ----------

// ParseProgram parses the entry file's top-level namespace body. Further
// files reached through `open` aliases are parsed separately by whatever
// loads the file graph (internal/resolver) and merged into Program.Files.
func (p *Parser) ParseProgram() *ast.Program {
	root := &ast.Namespace{NSPos: p.cur.Pos}
	p.parseNamespaceItems(root, false)
	return &ast.Program{Root: root, Files: map[string]*ast.Namespace{}}
}

// ParseNamespaceFile parses one entire source file into a root namespace,
// for use by the file-inclusion loader when resolving `namespace N = open
// "path";`.
func (p *Parser) ParseNamespaceFile() *ast.Namespace {
	ns := &ast.Namespace{NSPos: p.cur.Pos}
	p.parseNamespaceItems(ns, false)
	return ns
}

// parseNamespaceItems fills ns with declarations read from the current
// position, either up to EOF (braced == false, used for whole files) or up
// to a matching '}' (braced == true, used for `namespace N { ... }`).
func (p *Parser) parseNamespaceItems(ns *ast.Namespace, braced bool) {
	stop := func() bool {
		if braced {
			return p.cur.Kind == token.RBrace || p.cur.Kind == token.EOF
		}
		return p.cur.Kind == token.EOF
	}
	for !stop() {
		p.parseNamespaceItem(ns)
	}
}

func (p *Parser) parseNamespaceItem(ns *ast.Namespace) {
	switch p.cur.Kind {
	case token.Using:
		ns.Usings = append(ns.Usings, p.parseUsing(false))
	case token.Public:
		p.nextToken()
		p.parseNamespaceDecl(ns, false)
	case token.Private:
		p.nextToken()
		if p.cur.Kind == token.Using {
			ns.Usings = append(ns.Usings, p.parseUsing(true))
			return
		}
		p.parseNamespaceDecl(ns, true)
	case token.Namespace:
		p.parseNamespaceDecl(ns, false)
	case token.Object:
		obj := p.parseObjectDecl()
		ns.Objects = append(ns.Objects, &ast.NamedObject{Name: obj.name, Obj: obj.obj})
	case token.Extern:
		fn, name := p.parseExternDecl()
		ns.Funcs = append(ns.Funcs, &ast.NamedFunc{Name: name, Fn: fn})
	default:
		p.parseGlobalOrFunc(ns)
	}
}

func (p *Parser) parseUsing(isPrivate bool) *ast.Using {
	usingPos := p.cur.Pos
	p.nextToken()
	chain := p.parseChain()
	p.expect(token.Semicolon)
	return &ast.Using{UsingPos: usingPos, IsPrivate: isPrivate, Chain: chain}
}

func (p *Parser) parseNamespaceDecl(ns *ast.Namespace, isPrivate bool) {
	nsTok := p.expect(token.Namespace)
	nameTok := p.expect(token.Ident)

	inner := &ast.InnerNamespace{Name: nameTok.Lexeme, NamePos: nameTok.Pos, IsPrivate: isPrivate}

	switch p.cur.Kind {
	case token.Assign:
		p.nextToken()
		if p.cur.Kind == token.Open {
			p.nextToken()
			pathTok := p.expect(token.String)
			p.expect(token.Semicolon)
			inner.Ref = ast.FileRef{Path: pathTok.Lexeme}
		} else {
			chain := p.parseChain()
			p.expect(token.Semicolon)
			inner.Ref = ast.AliasRef{Chain: chain}
		}
	case token.LBrace:
		p.nextToken()
		sub := &ast.Namespace{NSPos: nsTok.Pos}
		p.parseNamespaceItems(sub, true)
		p.expect(token.RBrace)
		inner.Ref = ast.ConcreteRef{NS: sub}
	default:
		p.errorf(p.cur.Pos, "expected '{' or '=' after namespace name")
	}

	ns.Inner = append(ns.Inner, inner)
}

// parseChain reads `a::b::c` as an ordered list of segments.
func (p *Parser) parseChain() []string {
	chain, _ := p.parseChainPos()
	return chain
}

// parseChainPos is parseChain plus the position of the final segment,
// needed wherever the chain names an expression or type (its Pos() is the
// final identifier's position, not the chain's start).
func (p *Parser) parseChainPos() ([]string, token.Position) {
	var chain []string
	tok := p.expect(token.Ident)
	chain = append(chain, tok.Lexeme)
	last := tok.Pos
	for p.cur.Kind == token.ColonColon {
		p.nextToken()
		tok = p.expect(token.Ident)
		chain = append(chain, tok.Lexeme)
		last = tok.Pos
	}
	return chain, last
}

func (p *Parser) parseExternDecl() (*ast.Function, string) {
	externPos := p.cur.Pos
	p.nextToken()
	retType := p.parseType()
	nameTok := p.expect(token.Ident)
	formals := p.parseFormals()
	p.expect(token.Semicolon)
	return &ast.Function{NamePos: externPos, Return: retType, Formals: formals, Body: nil}, nameTok.Lexeme
}

func (p *Parser) parseFormals() []*ast.FormalParam {
	p.expect(token.LParen)
	var formals []*ast.FormalParam
	if p.cur.Kind != token.RParen {
		for {
			typ := p.parseType()
			nameTok := p.expect(token.Ident)
			formals = append(formals, &ast.FormalParam{Name: nameTok.Lexeme, NamePos: nameTok.Pos, Type: typ})
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)
	return formals
}

// parseGlobalOrFunc disambiguates `T name;`/`T name = expr;` (global) from
// `T name(params) { ... }` (namespace-level function) by parsing the
// shared `T name` prefix before looking at the next token.
func (p *Parser) parseGlobalOrFunc(ns *ast.Namespace) {
	typ := p.parseType()
	nameTok := p.expect(token.Ident)

	if p.cur.Kind == token.LParen {
		formals := p.parseFormals()
		body := p.parseBlock()
		ns.Funcs = append(ns.Funcs, &ast.NamedFunc{
			Name: nameTok.Lexeme,
			Fn:   &ast.Function{NamePos: nameTok.Pos, Return: typ, Formals: formals, Body: body},
		})
		return
	}

	g := &ast.Global{Name: nameTok.Lexeme, NamePos: nameTok.Pos, Type: typ}
	if p.cur.Kind == token.Assign {
		p.nextToken()
		g.Init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	ns.Globals = append(ns.Globals, g)
}

// ---------- Game objects ----------

type namedObject struct {
	name string
	obj  *ast.GameObject
}

func (p *Parser) parseObjectDecl() namedObject {
	objPos := p.cur.Pos
	p.nextToken()
	nameTok := p.expect(token.Ident)

	obj := &ast.GameObject{NamePos: objPos}

	if p.cur.Kind == token.Colon {
		p.nextToken()
		chain, namePos := p.parseChainPos()
		name := chain[len(chain)-1]
		obj.Parent = &ast.ParentRef{Chain: chain[:len(chain)-1], Name: name, NamePos: namePos}
	}

	p.expect(token.LBrace)
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		if p.cur.Kind == token.Event {
			obj.Events = append(obj.Events, p.parseEventDecl())
			continue
		}
		typ := p.parseType()
		memberNameTok := p.expect(token.Ident)
		if p.cur.Kind == token.LParen {
			formals := p.parseFormals()
			body := p.parseBlock()
			obj.Methods = append(obj.Methods, &ast.NamedMethod{
				Name: memberNameTok.Lexeme,
				Fn:   &ast.Function{NamePos: memberNameTok.Pos, Return: typ, Formals: formals, Body: body, GameObj: nameTok.Lexeme},
			})
			continue
		}
		p.expect(token.Semicolon)
		obj.Members = append(obj.Members, &ast.Member{Name: memberNameTok.Lexeme, NamePos: memberNameTok.Pos, Type: typ})
	}
	p.expect(token.RBrace)

	return namedObject{name: nameTok.Lexeme, obj: obj}
}

var eventKinds = map[token.Kind]ast.EventKind{
	token.Create:  ast.EventCreate,
	token.Step:    ast.EventStep,
	token.Draw:    ast.EventDraw,
	token.Destroy: ast.EventDestroy,
}

func (p *Parser) parseEventDecl() *ast.NamedEvent {
	evPos := p.cur.Pos
	p.nextToken()
	kind, ok := eventKinds[p.cur.Kind]
	if !ok {
		p.errorf(p.cur.Pos, "unknown event %q (want create, step, draw, or destroy)", p.cur.Lexeme)
	}
	p.nextToken()

	var formals []*ast.FormalParam
	if p.cur.Kind == token.LParen {
		formals = p.parseFormals()
	}
	body := p.parseBlock()

	voidType := &ast.VoidType{TPos: evPos}
	return &ast.NamedEvent{Kind: kind, Fn: &ast.Function{NamePos: evPos, Return: voidType, Formals: formals, Body: body}}
}

// ---------- Types ----------

func (p *Parser) parseType() ast.TypeNode {
	var base ast.TypeNode
	pos := p.cur.Pos
	switch p.cur.Kind {
	case token.IntType:
		p.nextToken()
		base = &ast.IntType{TPos: pos}
	case token.BoolType:
		p.nextToken()
		base = &ast.BoolType{TPos: pos}
	case token.FloatType:
		p.nextToken()
		base = &ast.FloatType{TPos: pos}
	case token.StringType:
		p.nextToken()
		base = &ast.StringType{TPos: pos}
	case token.Void:
		p.nextToken()
		base = &ast.VoidType{TPos: pos}
	case token.SpriteType:
		p.nextToken()
		base = &ast.SpriteType{TPos: pos}
	case token.SoundType:
		p.nextToken()
		base = &ast.SoundType{TPos: pos}
	case token.Ident:
		chain, namePos := p.parseChainPos()
		name := chain[len(chain)-1]
		base = &ast.ObjectTypeName{Chain: chain[:len(chain)-1], Name: name, NamePos: namePos}
	default:
		p.errorf(pos, "expected type, got %s", p.cur.Kind)
		p.nextToken()
		return &ast.VoidType{TPos: pos}
	}

	for p.cur.Kind == token.LBracket {
		lbr := p.cur
		p.nextToken()
		lenTok := p.expect(token.Int)
		p.expect(token.RBracket)
		n, err := strconv.ParseInt(lenTok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(lenTok.Pos, "invalid array length %q", lenTok.Lexeme)
		}
		base = &ast.ArrayType{LBracket: lbr.Pos, Elem: base, Length: int(n)}
	}
	return base
}

// ---------- Blocks & statements ----------

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace := p.expect(token.LBrace)
	block := &ast.BlockStmt{LBrace: lbrace.Pos}
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	if p.cur.Kind == token.RBrace {
		block.RBrace = p.cur.Pos
		p.nextToken()
	} else {
		p.errorf(p.cur.Pos, "expected '}' to close block")
	}
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.Var:
		return p.parseVarDeclStmt()
	case token.If:
		return p.parseIfStmt()
	case token.While:
		return p.parseWhileStmt()
	case token.For:
		return p.parseForStmt()
	case token.Foreach:
		return p.parseForeachStmt()
	case token.Return:
		return p.parseReturnStmt()
	case token.Break:
		return p.parseBreakStmt()
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.nextToken()
		return nil
	case token.IntType, token.BoolType, token.FloatType, token.StringType, token.SpriteType, token.SoundType:
		return p.parseLocalVarDeclWithType()
	case token.Ident:
		if p.peek.Kind == token.Ident {
			return p.parseLocalVarDeclWithType()
		}
		return p.parseSimpleStmt()
	case token.PlusPlus, token.MinusMinus:
		pos := p.cur.Pos
		isInc := p.cur.Kind == token.PlusPlus
		p.nextToken()
		target := p.parsePostfix()
		p.expect(token.Semicolon)
		return &ast.IncDecStmt{OpPos: pos, Target: target, IsInc: isInc, IsPre: true}
	default:
		return p.parseSimpleStmt()
	}
}

// parseLocalVarDeclWithType handles `T name;`/`T name = expr;` for the
// builtin value types and for an unqualified object type name (`enemy e`;
// a `::`-qualified type name is not recognised here), distinguished from
// var-keyword declarations since
// spec.md §6 allows bare-type local bindings at statement position too.
func (p *Parser) parseLocalVarDeclWithType() ast.Stmt {
	varPos := p.cur.Pos
	typ := p.parseType()
	nameTok := p.expect(token.Ident)
	var value ast.Expr
	if p.cur.Kind == token.Assign {
		p.nextToken()
		value = p.parseExpr()
	}
	p.expect(token.Semicolon)
	return &ast.VarDeclStmt{VarPos: varPos, Name: nameTok.Lexeme, NamePos: nameTok.Pos, Type: typ, Value: value}
}

func (p *Parser) parseVarDeclStmt() ast.Stmt {
	varTok := p.cur
	p.nextToken()
	typ := p.parseType()
	nameTok := p.expect(token.Ident)
	var value ast.Expr
	if p.cur.Kind == token.Assign {
		p.nextToken()
		value = p.parseExpr()
	}
	p.expect(token.Semicolon)
	return &ast.VarDeclStmt{VarPos: varTok.Pos, Name: nameTok.Lexeme, NamePos: nameTok.Pos, Type: typ, Value: value}
}

// parseSimpleStmt parses an assignment, increment/decrement, or bare
// expression statement, all of which start with an lvalue-shaped prefix.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	expr := p.parseExpr()

	switch p.cur.Kind {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		op := assignOp(p.cur.Kind)
		pos := p.cur.Pos
		p.nextToken()
		value := p.parseExpr()
		p.expect(token.Semicolon)
		return &ast.AssignStmt{AssignPos: pos, Op: op, Target: expr, Value: value}
	case token.PlusPlus, token.MinusMinus:
		pos := p.cur.Pos
		isInc := p.cur.Kind == token.PlusPlus
		p.nextToken()
		p.expect(token.Semicolon)
		return &ast.IncDecStmt{OpPos: pos, Target: expr, IsInc: isInc, IsPre: false}
	default:
		p.expect(token.Semicolon)
		return &ast.ExprStmt{Expression: expr}
	}
}

func assignOp(k token.Kind) ast.AssignOp {
	switch k {
	case token.PlusAssign:
		return ast.AssignAdd
	case token.MinusAssign:
		return ast.AssignSub
	case token.StarAssign:
		return ast.AssignMul
	case token.SlashAssign:
		return ast.AssignDiv
	default:
		return ast.AssignSet
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	retTok := p.cur
	p.nextToken()
	var result ast.Expr
	if p.cur.Kind != token.Semicolon {
		result = p.parseExpr()
	}
	p.expect(token.Semicolon)
	return &ast.ReturnStmt{ReturnPos: retTok.Pos, Result: result}
}

func (p *Parser) parseBreakStmt() ast.Stmt {
	breakTok := p.cur
	p.nextToken()
	p.expect(token.Semicolon)
	return &ast.BreakStmt{BreakPos: breakTok.Pos}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	ifTok := p.cur
	p.nextToken()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	thenBlock := p.parseBlock()

	var elseStmt ast.Stmt
	if p.cur.Kind == token.Else {
		p.nextToken()
		if p.cur.Kind == token.If {
			elseStmt = p.parseIfStmt()
		} else {
			elseStmt = p.parseBlock()
		}
	}
	return &ast.IfStmt{IfPos: ifTok.Pos, Cond: cond, Then: thenBlock, Else: elseStmt}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	whileTok := p.cur
	p.nextToken()
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.WhileStmt{WhilePos: whileTok.Pos, Cond: cond, Body: body}
}

func (p *Parser) parseForStmt() ast.Stmt {
	forTok := p.cur
	p.nextToken()
	p.expect(token.LParen)

	var init ast.Stmt
	if p.cur.Kind != token.Semicolon {
		init = p.parseForClauseStmt()
	}
	p.expect(token.Semicolon)

	var cond ast.Expr
	if p.cur.Kind != token.Semicolon {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	var post ast.Stmt
	if p.cur.Kind != token.RParen {
		post = p.parseForClauseStmt()
	}
	p.expect(token.RParen)

	body := p.parseBlock()
	return &ast.ForStmt{ForPos: forTok.Pos, Init: init, Cond: cond, Post: post, Body: body}
}

// parseForClauseStmt parses one for-loop init/post clause: a var
// declaration, an assignment, an increment/decrement, or a bare
// expression — never consuming the trailing ';'/')' itself.
func (p *Parser) parseForClauseStmt() ast.Stmt {
	if p.cur.Kind == token.PlusPlus || p.cur.Kind == token.MinusMinus {
		pos := p.cur.Pos
		isInc := p.cur.Kind == token.PlusPlus
		p.nextToken()
		target := p.parsePostfix()
		return &ast.IncDecStmt{OpPos: pos, Target: target, IsInc: isInc, IsPre: true}
	}
	switch p.cur.Kind {
	case token.Var, token.IntType, token.BoolType, token.FloatType, token.StringType, token.SpriteType, token.SoundType:
		varTok := p.cur
		if p.cur.Kind == token.Var {
			p.nextToken()
		}
		typ := p.parseType()
		nameTok := p.expect(token.Ident)
		var value ast.Expr
		if p.cur.Kind == token.Assign {
			p.nextToken()
			value = p.parseExpr()
		}
		return &ast.VarDeclStmt{VarPos: varTok.Pos, Name: nameTok.Lexeme, NamePos: nameTok.Pos, Type: typ, Value: value}
	}

	expr := p.parseExpr()
	switch p.cur.Kind {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign, token.SlashAssign:
		op := assignOp(p.cur.Kind)
		pos := p.cur.Pos
		p.nextToken()
		value := p.parseExpr()
		return &ast.AssignStmt{AssignPos: pos, Op: op, Target: expr, Value: value}
	case token.PlusPlus, token.MinusMinus:
		pos := p.cur.Pos
		isInc := p.cur.Kind == token.PlusPlus
		p.nextToken()
		return &ast.IncDecStmt{OpPos: pos, Target: expr, IsInc: isInc, IsPre: false}
	default:
		return &ast.ExprStmt{Expression: expr}
	}
}

// parseForeachStmt: `foreach(T x) { ... }` per spec.md §4.2.
func (p *Parser) parseForeachStmt() ast.Stmt {
	forPos := p.cur.Pos
	p.nextToken()
	p.expect(token.LParen)
	varType := p.parseType()
	nameTok := p.expect(token.Ident)
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.ForEachStmt{ForPos: forPos, VarType: varType, VarName: nameTok.Lexeme, VarPos: nameTok.Pos, Body: body}
}

// ---------- Expressions (precedence climbing) ----------

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.cur.Kind == token.OrOr {
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseAnd()
		left = &ast.BinaryExpr{OpPos: opPos, Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.cur.Kind == token.AndAnd {
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseEquality()
		left = &ast.BinaryExpr{OpPos: opPos, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.cur.Kind == token.Eq || p.cur.Kind == token.NotEq {
		op := ast.OpEq
		if p.cur.Kind == token.NotEq {
			op = ast.OpNeq
		}
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseRelational()
		left = &ast.BinaryExpr{OpPos: opPos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for {
		var op ast.BinOp
		switch p.cur.Kind {
		case token.Lt:
			op = ast.OpLt
		case token.LtEq:
			op = ast.OpLte
		case token.Gt:
			op = ast.OpGt
		case token.GtEq:
			op = ast.OpGte
		default:
			return left
		}
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{OpPos: opPos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		op := ast.OpAdd
		if p.cur.Kind == token.Minus {
			op = ast.OpSub
		}
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{OpPos: opPos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash || p.cur.Kind == token.Percent {
		var op ast.BinOp
		switch p.cur.Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		}
		opPos := p.cur.Pos
		p.nextToken()
		right := p.parseUnary()
		left = &ast.BinaryExpr{OpPos: opPos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case token.Bang:
		pos := p.cur.Pos
		p.nextToken()
		return &ast.UnaryExpr{OpPos: pos, Op: ast.OpNot, X: p.parseUnary()}
	case token.Minus:
		pos := p.cur.Pos
		p.nextToken()
		return &ast.UnaryExpr{OpPos: pos, Op: ast.OpNeg, X: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.Dot:
			p.nextToken()
			nameTok := p.expect(token.Ident)
			if p.cur.Kind == token.LParen {
				args := p.parseArgs()
				expr = &ast.MethodCallExpr{X: expr, Name: nameTok.Lexeme, NamePos: nameTok.Pos, Args: args}
			} else {
				expr = &ast.MemberExpr{X: expr, Name: nameTok.Lexeme, NamePos: nameTok.Pos}
			}
		case token.LBracket:
			p.nextToken()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			expr = &ast.IndexExpr{X: expr, Index: idx}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(token.LParen)
	var args []ast.Expr
	if p.cur.Kind != token.RParen {
		for {
			args = append(args, p.parseExpr())
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case token.Ident:
		chain, namePos := p.parseChainPos()
		name := chain[len(chain)-1]
		if p.cur.Kind == token.LParen {
			args := p.parseArgs()
			return &ast.CallExpr{Chain: chain[:len(chain)-1], Name: name, NamePos: namePos, Args: args}
		}
		return &ast.IdentChain{Chain: chain[:len(chain)-1], Name: name, NamePos: namePos}
	case token.Int:
		tok := p.cur
		p.nextToken()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q: %v", tok.Lexeme, err)
		}
		return &ast.IntLiteral{Value: val, LitPos: tok.Pos}
	case token.Float:
		tok := p.cur
		p.nextToken()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid float literal %q: %v", tok.Lexeme, err)
		}
		return &ast.FloatLiteral{Value: val, LitPos: tok.Pos}
	case token.String:
		tok := p.cur
		p.nextToken()
		return &ast.StringLiteral{Value: tok.Lexeme, LitPos: tok.Pos}
	case token.True, token.False:
		tok := p.cur
		p.nextToken()
		return &ast.BoolLiteral{Value: tok.Kind == token.True, LitPos: tok.Pos}
	case token.NoneLit:
		tok := p.cur
		p.nextToken()
		return &ast.NoneLiteral{LitPos: tok.Pos}
	case token.LParen:
		p.nextToken()
		expr := p.parseExpr()
		p.expect(token.RParen)
		return expr
	case token.LBracket:
		lbr := p.cur
		p.nextToken()
		var elems []ast.Expr
		if p.cur.Kind != token.RBracket {
			for {
				elems = append(elems, p.parseExpr())
				if p.cur.Kind == token.Comma {
					p.nextToken()
					continue
				}
				break
			}
		}
		p.expect(token.RBracket)
		return &ast.ArrayLiteral{LBracket: lbr.Pos, Elements: elems}
	default:
		return p.parseKeywordExpr()
	}
}

// parseKeywordExpr handles `create T(args)` and `destroy e`; `delete e` is
// the same DestroyExpr node, since the lexer maps `delete` to token.Destroy
// directly (spec.md §6 lists them as synonyms).
func (p *Parser) parseKeywordExpr() ast.Expr {
	switch p.cur.Kind {
	case token.Create:
		createPos := p.cur.Pos
		p.nextToken()
		chain := p.parseChain()
		name := chain[len(chain)-1]
		args := p.parseArgs()
		return &ast.CreateExpr{CreatePos: createPos, Chain: chain[:len(chain)-1], Name: name, Args: args}
	case token.Destroy:
		destroyPos := p.cur.Pos
		p.nextToken()
		x := p.parseExpr()
		return &ast.DestroyExpr{DestroyPos: destroyPos, X: x}
	default:
		tok := p.cur
		p.errorf(tok.Pos, "unexpected token in expression: %s (%q)", tok.Kind, tok.Lexeme)
		p.nextToken()
		return &ast.IntLiteral{Value: 0, LitPos: tok.Pos}
	}
}
