// parser.go implements a recursive-descent, one-token-lookahead parser over the token stream.
//
// The grammar requires the literal keywords 'then' and 'do' after an if/while condition; the
// C-style "if (cond) { ... }" and "while (cond) { ... }" forms without those keywords are
// rejected, not heuristically accepted.
package frontend

import (
	"exc/internal/ast"
	"exc/internal/diag"
)

// Parser consumes a token stream and builds an ast.Module node. It fails fast: the first
// syntax error is returned and parsing stops.
type Parser struct {
	lex  *Lexer
	tok  Token
	prev Token
}

// NewParser returns a Parser positioned at the first token of src.
func NewParser(src string) *Parser {
	p := &Parser{lex: NewLexer(src)}
	p.advance()
	return p
}

// Parse runs the parser to completion and returns the module AST, or the first diagnostic
// encountered.
func Parse(src string) (*ast.Node, error) {
	p := NewParser(src)
	return p.parseModule()
}

// ---------------------------
// ----- cursor helpers  -----
// ---------------------------

func (p *Parser) advance() {
	p.prev = p.tok
	p.tok = p.lex.Next()
}

func (p *Parser) loc() diag.Location {
	return diag.Location{Line: p.tok.Line, Col: p.tok.Col}
}

func (p *Parser) err(format string, args ...interface{}) error {
	return diag.New(diag.Syntactic, p.loc(), format, args...)
}

func (p *Parser) isKeyword(kw string) bool {
	return p.tok.Kind == Keyword && p.tok.Text == kw
}

func (p *Parser) isOperator(op string) bool {
	return p.tok.Kind == Operator && p.tok.Text == op
}

func (p *Parser) isPunct(s string) bool {
	return p.tok.Kind == Punct && p.tok.Text == s
}

// expectPunct consumes a punctuation token with exact text s, or fails.
func (p *Parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		if p.tok.Kind == tokenError {
			return diag.New(diag.Lexical, p.loc(), "%s", p.tok.Text)
		}
		return p.err("expected %q, found %s", s, p.tok)
	}
	p.advance()
	return nil
}

// expectKeyword consumes a keyword token with exact text kw, or fails.
func (p *Parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		if p.tok.Kind == tokenError {
			return diag.New(diag.Lexical, p.loc(), "%s", p.tok.Text)
		}
		return p.err("expected keyword %q, found %s", kw, p.tok)
	}
	p.advance()
	return nil
}

// expectIdentifier consumes an identifier token and returns its text.
func (p *Parser) expectIdentifier() (string, error) {
	if p.tok.Kind != Identifier {
		if p.tok.Kind == tokenError {
			return "", diag.New(diag.Lexical, p.loc(), "%s", p.tok.Text)
		}
		return "", p.err("expected identifier, found %s", p.tok)
	}
	name := p.tok.Text
	p.advance()
	return name, nil
}

// startsExpr reports whether the current token can begin an expression, used to distinguish
// e.g. a value-less "break;" from a "break <expr>;".
func (p *Parser) startsExpr() bool {
	switch p.tok.Kind {
	case IntLiteral, BoolLiteral, Identifier:
		return true
	case Punct:
		return p.tok.Text == "(" || p.tok.Text == "{"
	case Keyword:
		switch p.tok.Text {
		case "if", "while", "break", "continue", "return", "not":
			return true
		}
	case Operator:
		return p.tok.Text == "-"
	}
	return false
}

// ---------------------
// ----- grammar   -----
// ---------------------

// parseModule parses { FunDef } [ top-level statements ] END.
func (p *Parser) parseModule() (*ast.Node, error) {
	mod := &ast.Node{Kind: ast.Module, Line: diag.Builtin.Line, Col: diag.Builtin.Col}
	for p.isKeyword("fun") {
		fn, err := p.parseFunDef()
		if err != nil {
			return nil, err
		}
		mod.Functions = append(mod.Functions, fn)
	}
	if p.tok.Kind != End {
		top, err := p.parseStatementSeq(End)
		if err != nil {
			return nil, err
		}
		mod.TopLevel = top
	}
	if p.tok.Kind == tokenError {
		return nil, diag.New(diag.Lexical, p.loc(), "%s", p.tok.Text)
	}
	if p.tok.Kind != End {
		return nil, p.err("unexpected %s after module body", p.tok)
	}
	return mod, nil
}

// parseFunDef parses 'fun' Ident '(' [ Param {',' Param} ] ')' ':' Type Block.
func (p *Parser) parseFunDef() (*ast.Node, error) {
	loc := p.loc()
	if err := p.expectKeyword("fun"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.isPunct(")") {
		pl := p.loc()
		pname, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		ptype, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: pname, Type: ptype, Line: pl.Line, Col: pl.Col})
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	retType, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.FunDef, Line: loc.Line, Col: loc.Col,
		Name: name, Params: params, ReturnType: retType, Then: body,
	}, nil
}

// isBlockTerminated reports whether expr syntactically ends in '}', so a trailing ';' is
// optional after it when used as a statement. This extends to if/while, whose bodies are
// themselves blocks, to keep C-like control flow ergonomic; the grammar still requires the
// literal 'then'/'do' keywords, so there is no ambiguity in how far this rule reaches.
func isBlockTerminated(n *ast.Node) bool {
	switch n.Kind {
	case ast.Block:
		return true
	case ast.If:
		if n.Else != nil {
			return isBlockTerminated(n.Else)
		}
		return isBlockTerminated(n.Then)
	case ast.While:
		return isBlockTerminated(n.Then)
	}
	return false
}

// parseStatementSeq parses a sequence of statements terminated by stop (Punct "}" for a Block,
// End for the module top level), per the Block/Stmt/TrailingExpr grammar. It returns a single
// Block node (TrailingExpr set if the sequence ends in a bare expression).
func (p *Parser) parseStatementSeq(stop Kind) (*ast.Node, error) {
	loc := p.loc()
	blk := &ast.Node{Kind: ast.Block, Line: loc.Line, Col: loc.Col}
	atStop := func() bool {
		if stop == End {
			return p.tok.Kind == End
		}
		return p.isPunct("}")
	}
	for !atStop() {
		if p.tok.Kind == tokenError {
			return nil, diag.New(diag.Lexical, p.loc(), "%s", p.tok.Text)
		}
		if p.isKeyword("var") {
			decl, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			blk.Children = append(blk.Children, decl)
			continue
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.isPunct(";") {
			p.advance()
			blk.Children = append(blk.Children, expr)
			continue
		}
		if atStop() {
			blk.Children = append(blk.Children, expr)
			blk.TrailingExpr = true
			break
		}
		if isBlockTerminated(expr) {
			blk.Children = append(blk.Children, expr)
			continue
		}
		return nil, p.err("expected ';' or '}' after statement, found %s", p.tok)
	}
	return blk, nil
}

// parseBlock parses '{' { Stmt } [ TrailingExpr ] '}'.
func (p *Parser) parseBlock() (*ast.Node, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	blk, err := p.parseStatementSeq(Punct)
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return blk, nil
}

// parseVarDecl parses 'var' Ident [ ':' Type ] '=' Expr.
func (p *Parser) parseVarDecl() (*ast.Node, error) {
	loc := p.loc()
	if err := p.expectKeyword("var"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	declared := ""
	if p.isPunct(":") {
		p.advance()
		declared, err = p.expectIdentifier()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectOperatorEq(); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.VarDecl, Line: loc.Line, Col: loc.Col,
		Name: name, DeclaredType: declared, Right: init,
	}, nil
}

// expectOperatorEq consumes the '=' operator (VarDecl's initializer separator), distinct from
// assignment parsing which treats '=' as a binary-level operator.
func (p *Parser) expectOperatorEq() error {
	if !p.isOperator("=") {
		return p.err("expected '=', found %s", p.tok)
	}
	p.advance()
	return nil
}

// -----------------------------------
// ----- expressions, precedence -----
// -----------------------------------

// parseExpr is the entry point for expression parsing: assignment (right-associative) sits
// above the binary-operator precedence ladder.
func (p *Parser) parseExpr() (*ast.Node, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (*ast.Node, error) {
	loc := p.loc()
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isOperator("=") {
		p.advance()
		if left.Kind != ast.Ident {
			return nil, diag.New(diag.Syntactic, loc, "assignment target must be an identifier")
		}
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.Assign, Line: loc.Line, Col: loc.Col, Name: left.Name, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseOr() (*ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		loc := p.loc()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (*ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		loc := p.loc()
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (*ast.Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Operator && (p.tok.Text == "==" || p.tok.Text == "!=") {
		op, loc := p.tok.Text, p.loc()
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (*ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Operator && isOneOf(p.tok.Text, "<", "<=", ">", ">=") {
		op, loc := p.tok.Text, p.loc()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Operator && isOneOf(p.tok.Text, "+", "-") {
		op, loc := p.tok.Text, p.loc()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Operator && isOneOf(p.tok.Text, "*", "/", "%") {
		op, loc := p.tok.Text, p.loc()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Node{Kind: ast.BinaryOp, Line: loc.Line, Col: loc.Col, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	if p.isOperator("-") || p.isKeyword("not") {
		op, loc := p.tok.Text, p.loc()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.UnaryOp, Line: loc.Line, Col: loc.Col, Op: op, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	loc := p.loc()
	switch {
	case p.tok.Kind == tokenError:
		return nil, diag.New(diag.Lexical, loc, "%s", p.tok.Text)
	case p.tok.Kind == IntLiteral:
		return p.parseIntLit()
	case p.tok.Kind == BoolLiteral:
		v := p.tok.Text == "true"
		p.advance()
		return &ast.Node{Kind: ast.BoolLit, Line: loc.Line, Col: loc.Col, BoolVal: v}, nil
	case p.tok.Kind == Identifier:
		return p.parseIdentOrCall()
	case p.isPunct("("):
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.isPunct("{"):
		return p.parseBlock()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("break"):
		p.advance()
		var val *ast.Node
		if p.startsExpr() {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = v
		}
		return &ast.Node{Kind: ast.Break, Line: loc.Line, Col: loc.Col, Operand: val}, nil
	case p.isKeyword("continue"):
		p.advance()
		return &ast.Node{Kind: ast.Continue, Line: loc.Line, Col: loc.Col}, nil
	case p.isKeyword("return"):
		p.advance()
		var val *ast.Node
		if p.startsExpr() {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			val = v
		}
		return &ast.Node{Kind: ast.Return, Line: loc.Line, Col: loc.Col, Operand: val}, nil
	}
	return nil, p.err("unexpected token %s", p.tok)
}

func (p *Parser) parseIntLit() (*ast.Node, error) {
	loc := p.loc()
	text := p.tok.Text
	var v int64
	for _, c := range text {
		v = v*10 + int64(c-'0')
	}
	p.advance()
	return &ast.Node{Kind: ast.IntLit, Line: loc.Line, Col: loc.Col, IntVal: v}, nil
}

func (p *Parser) parseIdentOrCall() (*ast.Node, error) {
	loc := p.loc()
	name := p.tok.Text
	p.advance()
	if !p.isPunct("(") {
		return &ast.Node{Kind: ast.Ident, Line: loc.Line, Col: loc.Col, Name: name}, nil
	}
	p.advance()
	var args []*ast.Node
	for !p.isPunct(")") {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.Call, Line: loc.Line, Col: loc.Col, Name: name, Children: args}, nil
}

// parseIf parses 'if' Expr 'then' Expr [ 'else' Expr ].
func (p *Parser) parseIf() (*ast.Node, error) {
	loc := p.loc()
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n := &ast.Node{Kind: ast.If, Line: loc.Line, Col: loc.Col, Cond: cond, Then: then}
	if p.isKeyword("else") {
		p.advance()
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		n.Else = els
	}
	return n, nil
}

// parseWhile parses 'while' Expr 'do' Expr.
func (p *Parser) parseWhile() (*ast.Node, error) {
	loc := p.loc()
	p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.While, Line: loc.Line, Col: loc.Col, Cond: cond, Then: body}, nil
}

func isOneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
