package parser

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
)

var (
	ErrUnexpectedToken         = errors.New("unexpected token")
	ErrUnexpectedEOF           = errors.New("unexpected end of input")
	ErrInvalidAssignmentTarget = errors.New("invalid assignment target")
	ErrFunctionNotFound        = errors.New("function not found")
	ErrObjectNotFound          = errors.New("object not found")
	ErrUnsupported             = errors.New("unsupported syntax")
)

// ParseError reports a grammar violation at a token
type ParseError struct {
	Pos   lexer.Position
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Pos, e.Err)
	}
	return fmt.Sprintf("%s: %v %s", e.Pos, e.Err, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const (
	powLowest int = iota
	powNullish
	powOr
	powAnd
	powBitOr
	powBitXor
	powBitAnd
	powEquality
	powRelational
	powShift
	powAdditive
	powMultiplicative
	powExponent
)

var bindings = map[string]int{
	"??":         powNullish,
	"||":         powOr,
	"&&":         powAnd,
	"|":          powBitOr,
	"^":          powBitXor,
	"&":          powBitAnd,
	"==":         powEquality,
	"!=":         powEquality,
	"===":        powEquality,
	"!==":        powEquality,
	"<":          powRelational,
	"<=":         powRelational,
	">":          powRelational,
	">=":         powRelational,
	"in":         powRelational,
	"instanceof": powRelational,
	"<<":         powShift,
	">>":         powShift,
	">>>":        powShift,
	"+":          powAdditive,
	"-":          powAdditive,
	"*":          powMultiplicative,
	"/":          powMultiplicative,
	"%":          powMultiplicative,
	"**":         powExponent,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "**=": true,
	"<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
	"&&=": true, "||=": true, "??=": true,
}

// Parser builds a syntax tree from a token slice
type Parser struct {
	tokens []lexer.Token
	pos    int
	src    string

	scopes []*ast.Scope
	noIn   bool
}

// Parse parses a whole program from tokens. Function source text is rebuilt
// from token text; use ParseSource to keep the original spelling.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	return newParser(tokens, "").parseProgram()
}

// ParseSource tokenizes and parses src
func ParseSource(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return newParser(tokens, src).parseProgram()
}

func newParser(tokens []lexer.Token, src string) *Parser {
	if n := len(tokens); n == 0 || tokens[n-1].Kind != lexer.EOF {
		eof := lexer.Token{Kind: lexer.EOF}
		if n > 0 {
			last := tokens[n-1]
			eof.Pos = last.Pos
			eof.Pos.Offset += len(last.Raw)
		}
		tokens = append(slices.Clip(tokens), eof)
	}
	return &Parser{tokens: tokens, src: src}
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{
		Position: p.curr().Pos,
		Source:   p.src,
	}
	p.scopes = append(p.scopes, &prog.Scope)
	for !p.done() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

// Statements

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.curr()
	switch {
	case tok.Is("{"):
		return p.parseBlock()
	case tok.Is(";"):
		p.next()
		return &ast.Empty{Position: tok.Pos}, nil
	case tok.Is("var"), tok.Is("let"), tok.Is("const"):
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		return decl, p.semicolon()
	case tok.Is("function"):
		return p.parseFunctionDecl()
	case tok.Is("if"):
		return p.parseIf()
	case tok.Is("for"):
		return p.parseFor()
	case tok.Is("while"):
		return p.parseWhile()
	case tok.Is("do"):
		return p.parseDoWhile()
	case tok.Is("switch"):
		return p.parseSwitch()
	case tok.Is("try"):
		return p.parseTry()
	case tok.Is("return"):
		return p.parseReturn()
	case tok.Is("break"), tok.Is("continue"):
		return p.parseJump()
	case tok.Is("throw"):
		return p.parseThrow()
	case tok.Is("debugger"):
		p.next()
		return &ast.Empty{Position: tok.Pos}, p.semicolon()
	case tok.Is("class"), tok.Is("with"):
		return nil, p.fail(ErrUnsupported)
	case tok.Kind == lexer.Identifier && p.peek(1).Is(":"):
		p.next()
		p.next()
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.Labeled{Position: tok.Pos, Label: tok.Text, Body: body}, nil
	default:
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Position: tok.Pos, X: x}, p.semicolon()
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	block := &ast.Block{Position: p.curr().Pos}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for !p.curr().Is("}") {
		if p.done() {
			return nil, p.fail(ErrUnexpectedEOF)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	p.next()
	return block, nil
}

func (p *Parser) parseVarDecl() (*ast.VarDecl, error) {
	tok := p.next()
	decl := &ast.VarDecl{Position: tok.Pos, Kind: tok.Raw}
	for {
		name := p.curr()
		if name.Kind != lexer.Identifier {
			if name.Is("[") || name.Is("{") {
				return nil, p.fail(ErrUnsupported)
			}
			return nil, p.fail(ErrUnexpectedToken)
		}
		p.next()
		d := &ast.Declarator{Position: name.Pos, Name: name.Text}
		if p.curr().Is("=") {
			p.next()
			init, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		if decl.Kind == "var" {
			p.hoistVar(d.Name)
		}
		decl.Decls = append(decl.Decls, d)
		if !p.curr().Is(",") {
			return decl, nil
		}
		p.next()
	}
}

func (p *Parser) parseFunctionDecl() (ast.Stmt, error) {
	pos := p.curr().Pos
	fn, err := p.parseFunction(true)
	if err != nil {
		return nil, err
	}
	decl := &ast.FunctionDecl{Position: pos, Func: fn}
	scope := p.scope()
	scope.Funcs = append(scope.Funcs, decl)
	return decl, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	stmt := &ast.If{Position: p.next().Pos}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	stmt.Cond = cond
	if stmt.Then, err = p.parseStatement(); err != nil {
		return nil, err
	}
	if p.curr().Is("else") {
		p.next()
		if stmt.Else, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseCondition() (ast.Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return cond, p.expect(")")
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	pos := p.next().Pos
	if err := p.expect("("); err != nil {
		return nil, err
	}

	var (
		init ast.Stmt
		err  error
	)
	p.noIn = true
	switch tok := p.curr(); {
	case tok.Is(";"):
	case tok.Is("var"), tok.Is("let"), tok.Is("const"):
		var decl *ast.VarDecl
		decl, err = p.parseVarDecl()
		if err == nil && len(decl.Decls) == 1 && decl.Decls[0].Init == nil && p.forInKeyword() {
			p.noIn = false
			target := &ast.Identifier{Position: decl.Decls[0].Pos(), Name: decl.Decls[0].Name}
			return p.parseForIn(pos, decl.Kind, target)
		}
		init = decl
	default:
		var x ast.Expr
		x, err = p.parseExpression()
		if err == nil && p.forInKeyword() {
			p.noIn = false
			if !ast.IsAssignable(x) {
				return nil, p.failAt(x.Pos(), "", ErrInvalidAssignmentTarget)
			}
			return p.parseForIn(pos, "", x)
		}
		if x != nil {
			init = &ast.ExprStmt{Position: tok.Pos, X: x}
		}
	}
	p.noIn = false
	if err != nil {
		return nil, err
	}

	stmt := &ast.For{Position: pos, Init: init}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.curr().Is(";") {
		if stmt.Cond, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(";"); err != nil {
		return nil, err
	}
	if !p.curr().Is(")") {
		if stmt.Update, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) forInKeyword() bool {
	tok := p.curr()
	return tok.Is("in") || (tok.Kind == lexer.Identifier && tok.Text == "of")
}

func (p *Parser) parseForIn(pos lexer.Position, kind string, target ast.Expr) (ast.Stmt, error) {
	stmt := &ast.ForIn{
		Position: pos,
		Kind:     kind,
		Target:   target,
		Of:       !p.next().Is("in"),
	}
	obj, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Object = obj
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	stmt := &ast.While{Position: p.next().Pos}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	stmt.Cond = cond
	if stmt.Body, err = p.parseStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDoWhile() (ast.Stmt, error) {
	stmt := &ast.DoWhile{Position: p.next().Pos}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	if err := p.expect("while"); err != nil {
		return nil, err
	}
	if stmt.Cond, err = p.parseCondition(); err != nil {
		return nil, err
	}
	if p.curr().Is(";") {
		p.next()
	}
	return stmt, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	stmt := &ast.Switch{Position: p.next().Pos}
	disc, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	stmt.Disc = disc
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	seenDefault := false
	for !p.curr().Is("}") {
		tok := p.curr()
		c := &ast.Case{Position: tok.Pos}
		switch {
		case tok.Is("case"):
			p.next()
			if c.Test, err = p.parseExpression(); err != nil {
				return nil, err
			}
		case tok.Is("default") && !seenDefault:
			p.next()
			seenDefault = true
		default:
			return nil, p.fail(ErrUnexpectedToken)
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		for !p.curr().Is("case") && !p.curr().Is("default") && !p.curr().Is("}") {
			if p.done() {
				return nil, p.fail(ErrUnexpectedEOF)
			}
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, s)
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.next()
	return stmt, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	stmt := &ast.Try{Position: p.next().Pos}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Block = block
	if p.curr().Is("catch") {
		p.next()
		if p.curr().Is("(") {
			p.next()
			param := p.curr()
			if param.Kind != lexer.Identifier {
				return nil, p.fail(ErrUnexpectedToken)
			}
			stmt.Param = param.Text
			p.next()
			if err := p.expect(")"); err != nil {
				return nil, err
			}
		}
		if stmt.Catch, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if p.curr().Is("finally") {
		p.next()
		if stmt.Finally, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	if stmt.Catch == nil && stmt.Finally == nil {
		return nil, p.fail(ErrUnexpectedToken)
	}
	return stmt, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	stmt := &ast.Return{Position: p.next().Pos}
	if p.endOfStatement() {
		return stmt, p.semicolon()
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, p.semicolon()
}

func (p *Parser) parseThrow() (ast.Stmt, error) {
	stmt := &ast.Throw{Position: p.next().Pos}
	if p.endOfStatement() {
		return nil, p.fail(ErrUnexpectedToken)
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, p.semicolon()
}

func (p *Parser) parseJump() (ast.Stmt, error) {
	tok := p.next()
	var label string
	if next := p.curr(); next.Kind == lexer.Identifier && !next.NewlineBefore {
		label = next.Text
		p.next()
	}
	if err := p.semicolon(); err != nil {
		return nil, err
	}
	if tok.Is("break") {
		return &ast.Break{Position: tok.Pos, Label: label}, nil
	}
	return &ast.Continue{Position: tok.Pos, Label: label}, nil
}

// endOfStatement reports whether a restricted production ends here.
func (p *Parser) endOfStatement() bool {
	tok := p.curr()
	return tok.Is(";") || tok.Is("}") || tok.Kind == lexer.EOF || tok.NewlineBefore
}

// semicolon consumes an explicit semicolon or applies automatic insertion.
func (p *Parser) semicolon() error {
	tok := p.curr()
	switch {
	case tok.Is(";"):
		p.next()
		return nil
	case tok.Is("}"), tok.Kind == lexer.EOF, tok.NewlineBefore:
		return nil
	default:
		return p.fail(ErrUnexpectedToken)
	}
}

// Expressions

func (p *Parser) parseExpression() (ast.Expr, error) {
	first, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.curr().Is(",") {
		return first, nil
	}
	seq := &ast.Sequence{Position: first.Pos(), List: []ast.Expr{first}}
	for p.curr().Is(",") {
		p.next()
		x, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		seq.List = append(seq.List, x)
	}
	return seq, nil
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	if p.arrowAhead() {
		return p.parseArrow()
	}
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	tok := p.curr()
	if tok.Kind != lexer.Punctuator || !assignOps[tok.Raw] {
		return left, nil
	}
	if !ast.IsAssignable(left) {
		return nil, p.failAt(left.Pos(), tok.String(), ErrInvalidAssignmentTarget)
	}
	p.next()
	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Position: left.Pos(), Op: tok.Raw, Target: left, Value: right}, nil
}

func (p *Parser) parseConditional() (ast.Expr, error) {
	cond, err := p.parseBinary(powNullish)
	if err != nil {
		return nil, err
	}
	if !p.curr().Is("?") {
		return cond, nil
	}
	p.next()
	noIn := p.noIn
	p.noIn = false
	then, err := p.parseAssignment()
	p.noIn = noIn
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Position: cond.Pos(), Cond: cond, Then: then, Else: alt}, nil
}

func (p *Parser) parseBinary(min int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.curr()
		pow, ok := p.binding(tok)
		if !ok || pow < min {
			return left, nil
		}
		p.next()
		next := pow + 1
		if tok.Raw == "**" {
			next = pow
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		switch tok.Raw {
		case "&&", "||", "??":
			left = &ast.Logical{Position: left.Pos(), Op: tok.Raw, Left: left, Right: right}
		default:
			left = &ast.Binary{Position: left.Pos(), Op: tok.Raw, Left: left, Right: right}
		}
	}
}

func (p *Parser) binding(tok lexer.Token) (int, bool) {
	if tok.Kind != lexer.Punctuator && tok.Kind != lexer.Keyword {
		return 0, false
	}
	if tok.Raw == "in" && p.noIn {
		return 0, false
	}
	pow, ok := bindings[tok.Raw]
	return pow, ok
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.curr()
	switch {
	case tok.Is("!"), tok.Is("-"), tok.Is("+"), tok.Is("~"),
		tok.Is("typeof"), tok.Is("void"), tok.Is("delete"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Position: tok.Pos, Op: tok.Raw, X: x}, nil
	case tok.Is("++"), tok.Is("--"):
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !ast.IsAssignable(x) {
			return nil, p.failAt(x.Pos(), tok.String(), ErrInvalidAssignmentTarget)
		}
		return &ast.Update{Position: tok.Pos, Op: tok.Raw, Prefix: true, X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parseLeftHandSide()
	if err != nil {
		return nil, err
	}
	tok := p.curr()
	if (tok.Is("++") || tok.Is("--")) && !tok.NewlineBefore {
		if !ast.IsAssignable(x) {
			return nil, p.failAt(x.Pos(), tok.String(), ErrInvalidAssignmentTarget)
		}
		p.next()
		return &ast.Update{Position: x.Pos(), Op: tok.Raw, X: x}, nil
	}
	return x, nil
}

func (p *Parser) parseLeftHandSide() (ast.Expr, error) {
	var (
		x   ast.Expr
		err error
	)
	if p.curr().Is("new") {
		x, err = p.parseNew()
	} else {
		x, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	return p.parseAccessors(x, true)
}

func (p *Parser) parseNew() (ast.Expr, error) {
	pos := p.next().Pos
	var (
		callee ast.Expr
		err    error
	)
	if p.curr().Is("new") {
		callee, err = p.parseNew()
	} else {
		callee, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}
	if callee, err = p.parseAccessors(callee, false); err != nil {
		return nil, err
	}
	call := &ast.Call{Position: pos, Callee: callee, New: true}
	if p.curr().Is("(") {
		if call.Args, err = p.parseArguments(); err != nil {
			return nil, err
		}
	}
	return call, nil
}

// parseAccessors parses member accesses following x, and calls when calls is
// set.
func (p *Parser) parseAccessors(x ast.Expr, calls bool) (ast.Expr, error) {
	for {
		tok := p.curr()
		switch {
		case tok.Is("."):
			p.next()
			name, err := p.parsePropertyName()
			if err != nil {
				return nil, err
			}
			x = &ast.Member{Position: x.Pos(), Object: x, Property: name}
		case tok.Is("?."):
			p.next()
			switch {
			case p.curr().Is("["):
				index, err := p.parseIndex()
				if err != nil {
					return nil, err
				}
				x = &ast.Member{Position: x.Pos(), Object: x, Property: index, Computed: true, Optional: true}
			case p.curr().Is("("):
				return nil, p.fail(ErrUnsupported)
			default:
				name, err := p.parsePropertyName()
				if err != nil {
					return nil, err
				}
				x = &ast.Member{Position: x.Pos(), Object: x, Property: name, Optional: true}
			}
		case tok.Is("["):
			index, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			x = &ast.Member{Position: x.Pos(), Object: x, Property: index, Computed: true}
		case tok.Is("(") && calls:
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			x = &ast.Call{Position: x.Pos(), Callee: x, Args: args}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePropertyName() (*ast.Identifier, error) {
	tok := p.curr()
	if tok.Kind != lexer.Identifier && tok.Kind != lexer.Keyword {
		return nil, p.fail(ErrUnexpectedToken)
	}
	p.next()
	return &ast.Identifier{Position: tok.Pos, Name: tok.Raw}, nil
}

func (p *Parser) parseIndex() (ast.Expr, error) {
	p.next()
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()
	index, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return index, p.expect("]")
}

func (p *Parser) parseArguments() ([]ast.Expr, error) {
	p.next()
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()

	var args []ast.Expr
	for !p.curr().Is(")") {
		if p.curr().Is("...") {
			return nil, p.fail(ErrUnsupported)
		}
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curr().Is(")") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	p.next()
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.curr()
	switch tok.Kind {
	case lexer.Number:
		p.next()
		return &ast.Literal{Position: tok.Pos, Kind: ast.NumberLit, Num: tok.Num}, nil
	case lexer.String:
		p.next()
		return &ast.Literal{Position: tok.Pos, Kind: ast.StringLit, Str: tok.Text}, nil
	case lexer.Regex:
		p.next()
		return &ast.RegexLit{Position: tok.Pos, Pattern: tok.Text, Flags: tok.Flags}, nil
	case lexer.Identifier:
		p.next()
		return &ast.Identifier{Position: tok.Pos, Name: tok.Text}, nil
	case lexer.EOF:
		return nil, p.fail(ErrUnexpectedEOF)
	}

	switch {
	case tok.Is("this"):
		p.next()
		return &ast.This{Position: tok.Pos}, nil
	case tok.Is("null"):
		p.next()
		return &ast.Literal{Position: tok.Pos, Kind: ast.NullLit}, nil
	case tok.Is("true"), tok.Is("false"):
		p.next()
		return &ast.Literal{Position: tok.Pos, Kind: ast.BoolLit, Bool: tok.Raw == "true"}, nil
	case tok.Is("function"):
		return p.parseFunction(false)
	case tok.Is("("):
		p.next()
		noIn := p.noIn
		p.noIn = false
		x, err := p.parseExpression()
		p.noIn = noIn
		if err != nil {
			return nil, err
		}
		return x, p.expect(")")
	case tok.Is("["):
		return p.parseArray()
	case tok.Is("{"):
		return p.parseObject()
	case tok.Is("class"):
		return nil, p.fail(ErrUnsupported)
	default:
		return nil, p.fail(ErrUnexpectedToken)
	}
}

func (p *Parser) parseArray() (ast.Expr, error) {
	arr := &ast.ArrayLit{Position: p.next().Pos}
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()
	for !p.curr().Is("]") {
		if p.curr().Is(",") {
			p.next()
			arr.Elems = append(arr.Elems, nil)
			continue
		}
		if p.curr().Is("...") {
			return nil, p.fail(ErrUnsupported)
		}
		elem, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, elem)
		if p.curr().Is("]") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	p.next()
	return arr, nil
}

func (p *Parser) parseObject() (ast.Expr, error) {
	obj := &ast.ObjectLit{Position: p.next().Pos}
	noIn := p.noIn
	p.noIn = false
	defer func() { p.noIn = noIn }()
	for !p.curr().Is("}") {
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, prop)
		if p.curr().Is("}") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	p.next()
	return obj, nil
}

func (p *Parser) parseProperty() (*ast.Property, error) {
	tok := p.curr()
	prop := &ast.Property{Position: tok.Pos}
	switch tok.Kind {
	case lexer.Identifier, lexer.Keyword:
		if (tok.Text == "get" || tok.Text == "set") && !p.peek(1).Is(":") &&
			!p.peek(1).Is("(") && !p.peek(1).Is(",") && !p.peek(1).Is("}") {
			return nil, p.fail(ErrUnsupported)
		}
		prop.Key = tok.Raw
	case lexer.String:
		prop.Key = tok.Text
	case lexer.Number:
		prop.Key = numberKey(tok.Num)
	case lexer.Punctuator:
		switch {
		case tok.Is("["):
			key, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			prop.Computed = key
			return p.parsePropertyValue(prop)
		case tok.Is("..."):
			return nil, p.fail(ErrUnsupported)
		default:
			return nil, p.fail(ErrUnexpectedToken)
		}
	default:
		return nil, p.fail(ErrUnexpectedToken)
	}
	p.next()

	// shorthand {a} and {a, b}
	if tok.Kind == lexer.Identifier && (p.curr().Is(",") || p.curr().Is("}")) {
		prop.Value = &ast.Identifier{Position: tok.Pos, Name: tok.Text}
		return prop, nil
	}
	return p.parsePropertyValue(prop)
}

func (p *Parser) parsePropertyValue(prop *ast.Property) (*ast.Property, error) {
	if p.curr().Is("(") {
		fn, err := p.parseFunctionRest(prop.Pos(), prop.Key)
		if err != nil {
			return nil, err
		}
		prop.Value = fn
		return prop, nil
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	prop.Value = value
	return prop, nil
}

func numberKey(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Functions

func (p *Parser) parseFunction(named bool) (*ast.FunctionLit, error) {
	start := p.next().Pos
	var name string
	if tok := p.curr(); tok.Kind == lexer.Identifier {
		name = tok.Text
		p.next()
	} else if named {
		return nil, p.fail(ErrUnexpectedToken)
	}
	return p.parseFunctionRest(start, name)
}

// parseFunctionRest parses the parameter list and body of a function whose
// source text starts at start.
func (p *Parser) parseFunctionRest(start lexer.Position, name string) (*ast.FunctionLit, error) {
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	fn := &ast.FunctionLit{Position: start, Name: name, Params: params}
	if err := p.parseFunctionBody(fn); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parseParams() ([]string, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.curr().Is(")") {
		tok := p.curr()
		switch {
		case tok.Kind == lexer.Identifier:
		case tok.Is("..."), tok.Is("["), tok.Is("{"):
			return nil, p.fail(ErrUnsupported)
		default:
			return nil, p.fail(ErrUnexpectedToken)
		}
		params = append(params, tok.Text)
		p.next()
		if p.curr().Is("=") {
			return nil, p.fail(ErrUnsupported)
		}
		if p.curr().Is(")") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	p.next()
	return params, nil
}

func (p *Parser) parseFunctionBody(fn *ast.FunctionLit) error {
	if !p.curr().Is("{") {
		return p.fail(ErrUnexpectedToken)
	}
	p.next()

	noIn := p.noIn
	p.noIn = false
	p.scopes = append(p.scopes, &fn.Scope)
	defer func() {
		p.scopes = p.scopes[:len(p.scopes)-1]
		p.noIn = noIn
	}()

	for !p.curr().Is("}") {
		if p.done() {
			return p.fail(ErrUnexpectedEOF)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return err
		}
		fn.Body = append(fn.Body, stmt)
	}
	fn.Source = p.sourceFrom(fn.Pos())
	p.next()
	return nil
}

// arrowAhead reports whether an arrow function starts at the current token.
func (p *Parser) arrowAhead() bool {
	tok := p.curr()
	if tok.Kind == lexer.Identifier {
		next := p.peek(1)
		return next.Is("=>") && !next.NewlineBefore
	}
	if !tok.Is("(") {
		return false
	}
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		t := p.tokens[i]
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Is("=>") && !p.tokens[i+1].NewlineBefore
			}
		case t.Kind == lexer.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseArrow() (ast.Expr, error) {
	start := p.curr().Pos
	fn := &ast.FunctionLit{Position: start, Arrow: true}
	if tok := p.curr(); tok.Kind == lexer.Identifier {
		fn.Params = []string{tok.Text}
		p.next()
	} else {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		fn.Params = params
	}
	if err := p.expect("=>"); err != nil {
		return nil, err
	}
	if p.curr().Is("{") {
		if err := p.parseFunctionBody(fn); err != nil {
			return nil, err
		}
		return fn, nil
	}

	p.scopes = append(p.scopes, &fn.Scope)
	body, err := p.parseAssignment()
	p.scopes = p.scopes[:len(p.scopes)-1]
	if err != nil {
		return nil, err
	}
	fn.Expr = body
	fn.Source = p.sourceUntil(start, p.pos-1)
	return fn, nil
}

// Hoisting

func (p *Parser) scope() *ast.Scope {
	return p.scopes[len(p.scopes)-1]
}

func (p *Parser) hoistVar(name string) {
	scope := p.scope()
	if !slices.Contains(scope.Vars, name) {
		scope.Vars = append(scope.Vars, name)
	}
}

// Source text

// sourceFrom returns the text from start through the current token.
func (p *Parser) sourceFrom(start lexer.Position) string {
	return p.sourceUntil(start, p.pos)
}

func (p *Parser) sourceUntil(start lexer.Position, last int) string {
	end := p.tokens[last]
	if p.src != "" {
		return p.src[start.Offset : end.Pos.Offset+len(end.Raw)]
	}
	var b strings.Builder
	for i := last; i >= 0; i-- {
		if p.tokens[i].Pos.Offset == start.Offset {
			for j := i; j <= last; j++ {
				if j > i {
					b.WriteByte(' ')
				}
				b.WriteString(p.tokens[j].Raw)
			}
			break
		}
	}
	return b.String()
}

// Token cursor

func (p *Parser) curr() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek(n int) lexer.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) next() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) done() bool {
	return p.curr().Kind == lexer.EOF
}

func (p *Parser) expect(raw string) error {
	if !p.curr().Is(raw) {
		if p.done() {
			return p.fail(ErrUnexpectedEOF)
		}
		return p.fail(ErrUnexpectedToken)
	}
	p.next()
	return nil
}

func (p *Parser) fail(err error) error {
	tok := p.curr()
	if tok.Kind == lexer.EOF && errors.Is(err, ErrUnexpectedToken) {
		err = ErrUnexpectedEOF
	}
	var text string
	if tok.Kind != lexer.EOF {
		text = tok.String()
	}
	return p.failAt(tok.Pos, text, err)
}

func (p *Parser) failAt(pos lexer.Position, token string, err error) error {
	return &ParseError{Pos: pos, Token: token, Err: err}
}
