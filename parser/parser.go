// Package parser implements a recursive-descent parser for the minidb
// SQL dialect, producing a typed ast.Statement from a token stream.
package parser

import (
	"fmt"
	"strconv"

	"github.com/Copubah/minidb/ast"
	"github.com/Copubah/minidb/dberr"
	"github.com/Copubah/minidb/lexer"
	"github.com/Copubah/minidb/token"
)

// Diagnostic is one structured parse-error record: either an
// expected/got mismatch from expectPeek, or a free-form message from
// errorf. Kept structured (not pre-formatted into a string) so a
// caller can build a dberr.ParseError carrying the offending token's
// own position and expectation instead of a flattened message.
type Diagnostic struct {
	Line, Column  int
	Expected, Got string
	Message       string
}

// Parser consumes tokens from a Lexer and builds an AST, one statement
// at a time, accumulating diagnostics the way the teacher's parser does
// so a caller can report every problem found rather than just the first.
type Parser struct {
	l      *lexer.Lexer
	diags  []Diagnostic
	lexErr *dberr.LexError

	curToken  token.Token
	peekToken token.Token
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every diagnostic accumulated so far, formatted as a
// string. Diagnostics returns the same records in structured form.
func (p *Parser) Errors() []string {
	out := make([]string, len(p.diags))
	for i, d := range p.diags {
		if d.Message != "" {
			out[i] = fmt.Sprintf("line %d, col %d: %s", d.Line, d.Column, d.Message)
		} else {
			out[i] = fmt.Sprintf("line %d, col %d: expected %s, got %s", d.Line, d.Column, d.Expected, d.Got)
		}
	}
	return out
}

// Diagnostics returns every structured parse diagnostic accumulated so
// far, in the order encountered.
func (p *Parser) Diagnostics() []Diagnostic { return p.diags }

// LexError returns the first lexical fault encountered while scanning
// the input, or nil if none occurred. A lexical fault (unterminated
// string, unrecognized character) always takes priority over whatever
// parse diagnostics it went on to produce, since the token the parser
// saw was never valid source to begin with.
func (p *Parser) LexError() *dberr.LexError { return p.lexErr }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == token.ILLEGAL && p.lexErr == nil {
		p.lexErr = &dberr.LexError{Offset: p.peekToken.Pos.Offset, Message: p.peekToken.Literal}
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.diags = append(p.diags, Diagnostic{
		Line: p.peekToken.Pos.Line, Column: p.peekToken.Pos.Column,
		Expected: t.String(), Got: p.peekToken.Type.String(),
	})
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Line: p.curToken.Pos.Line, Column: p.curToken.Pos.Column,
		Message: fmt.Sprintf(format, args...),
	})
}

// ParseProgram parses every statement in the input, separated by
// semicolons. The shell (out of scope here) is the intended caller for
// batches of more than one statement.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
		for p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
	}
	return program
}

// ParseStatement parses exactly one statement, per spec.md §6.3's "one
// statement per execute call". A trailing semicolon is permitted but
// not required; any other trailing token is an error.
func (p *Parser) ParseStatement() ast.Statement {
	stmt := p.parseStatement()
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	if !p.peekTokenIs(token.EOF) {
		p.nextToken()
		p.errorf("unexpected trailing token %s after statement", p.curToken.Type)
	}
	return stmt
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.CREATE:
		return p.parseCreateTable()
	case token.DROP:
		return p.parseDropTable()
	case token.INSERT:
		return p.parseInsert()
	case token.SELECT:
		return p.parseSelect()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	default:
		p.errorf("unexpected token %s, expected a statement keyword", p.curToken.Type)
		return nil
	}
}

// -----------------------------------------------------------------------------
// CREATE TABLE / DROP TABLE
// -----------------------------------------------------------------------------

func (p *Parser) parseCreateTable() ast.Statement {
	stmt := &ast.CreateTableStatement{Token: p.curToken}
	if !p.expectPeek(token.TABLE) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	for !p.curTokenIs(token.RPAREN) {
		col, ok := p.parseColumnDef()
		if !ok {
			return nil
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return stmt
}

func (p *Parser) parseColumnDef() (ast.ColumnDef, bool) {
	if !p.curTokenIs(token.IDENT) {
		p.errorf("expected column name, got %s", p.curToken.Type)
		return ast.ColumnDef{}, false
	}
	def := ast.ColumnDef{Name: p.curToken.Literal}

	p.nextToken()
	switch p.curToken.Type {
	case token.INTEGER:
		def.Type = "INTEGER"
	case token.TEXT:
		def.Type = "TEXT"
	case token.FLOAT_KW:
		def.Type = "FLOAT"
	case token.BOOLEAN:
		def.Type = "BOOLEAN"
	default:
		p.errorf("expected a column type, got %s", p.curToken.Type)
		return ast.ColumnDef{}, false
	}

	for {
		switch {
		case p.peekTokenIs(token.PRIMARY):
			p.nextToken()
			if !p.expectPeek(token.KEY) {
				return ast.ColumnDef{}, false
			}
			def.PrimaryKey = true
		case p.peekTokenIs(token.UNIQUE):
			p.nextToken()
			def.Unique = true
		case p.peekTokenIs(token.NOT):
			p.nextToken()
			if !p.expectPeek(token.NULL) {
				return ast.ColumnDef{}, false
			}
			def.NotNull = true
		default:
			return def, true
		}
	}
}

func (p *Parser) parseDropTable() ast.Statement {
	stmt := &ast.DropTableStatement{Token: p.curToken}
	if !p.expectPeek(token.TABLE) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal
	return stmt
}

// -----------------------------------------------------------------------------
// INSERT
// -----------------------------------------------------------------------------

func (p *Parser) parseInsert() ast.Statement {
	stmt := &ast.InsertStatement{Token: p.curToken}
	if !p.expectPeek(token.INTO) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken() // (
		p.nextToken()
		for !p.curTokenIs(token.RPAREN) {
			if !p.curTokenIs(token.IDENT) {
				p.errorf("expected column name, got %s", p.curToken.Type)
				return nil
			}
			stmt.Columns = append(stmt.Columns, p.curToken.Literal)
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	if !p.expectPeek(token.VALUES) {
		return nil
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		v := p.parseLiteral()
		if v == nil {
			return nil
		}
		stmt.Values = append(stmt.Values, v)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return stmt
}

func (p *Parser) parseLiteral() ast.Expression {
	switch p.curToken.Type {
	case token.INT:
		n, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
		if err != nil {
			p.errorf("invalid integer literal %q", p.curToken.Literal)
			return nil
		}
		return &ast.IntegerLiteral{Token: p.curToken, Value: n}
	case token.FLOAT:
		f, err := strconv.ParseFloat(p.curToken.Literal, 64)
		if err != nil {
			p.errorf("invalid float literal %q", p.curToken.Literal)
			return nil
		}
		return &ast.FloatLiteral{Token: p.curToken, Value: f}
	case token.STRING:
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	case token.TRUE:
		return &ast.BooleanLiteral{Token: p.curToken, Value: true}
	case token.FALSE:
		return &ast.BooleanLiteral{Token: p.curToken, Value: false}
	case token.NULL:
		return &ast.NullLiteral{Token: p.curToken}
	default:
		p.errorf("expected a literal value, got %s", p.curToken.Type)
		return nil
	}
}

// -----------------------------------------------------------------------------
// SELECT
// -----------------------------------------------------------------------------

func (p *Parser) parseSelect() ast.Statement {
	stmt := &ast.SelectStatement{Token: p.curToken}

	p.nextToken()
	if p.curTokenIs(token.ASTERISK) {
		stmt.Projection = []ast.SelectItem{{Star: true}}
		p.nextToken()
	} else {
		for {
			ref, ok := p.parseColumnRef()
			if !ok {
				return nil
			}
			stmt.Projection = append(stmt.Projection, ast.SelectItem{Expr: ref})
			if p.peekTokenIs(token.COMMA) {
				p.nextToken()
				p.nextToken()
				continue
			}
			break
		}
		p.nextToken()
	}

	if !p.curTokenIs(token.FROM) {
		p.errorf("expected FROM, got %s", p.curToken.Type)
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.From = p.parseTableRef()

	for p.peekTokenIs(token.JOIN) || p.peekTokenIs(token.INNER) {
		p.nextToken()
		if p.curTokenIs(token.INNER) && !p.expectPeek(token.JOIN) {
			return nil
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		ref := p.parseTableRef()
		if !p.expectPeek(token.ON) {
			return nil
		}
		p.nextToken()
		on := p.parsePredicate()
		if on == nil {
			return nil
		}
		stmt.Joins = append(stmt.Joins, ast.Join{Table: ref, On: on})
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
		if stmt.Where == nil {
			return nil
		}
	}

	if p.peekTokenIs(token.ORDER) {
		p.nextToken()
		if !p.expectPeek(token.BY) {
			return nil
		}
		p.nextToken()
		col, ok := p.parseColumnRef()
		if !ok {
			return nil
		}
		ob := &ast.OrderBy{Column: col}
		if p.peekTokenIs(token.DESC) {
			p.nextToken()
			ob.Desc = true
		} else if p.peekTokenIs(token.ASC) {
			p.nextToken()
		}
		stmt.OrderBy = ob
	}

	if p.peekTokenIs(token.LIMIT) {
		p.nextToken()
		if !p.expectPeek(token.INT) {
			return nil
		}
		n, err := strconv.Atoi(p.curToken.Literal)
		if err != nil || n < 0 {
			p.errorf("invalid LIMIT value %q", p.curToken.Literal)
			return nil
		}
		stmt.Limit = &n
	}

	return stmt
}

// parseTableRef parses the table name already in curToken, optionally
// followed by a bare-identifier alias (no AS keyword in this dialect).
func (p *Parser) parseTableRef() ast.TableRef {
	ref := ast.TableRef{Name: p.curToken.Literal}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		ref.Alias = p.curToken.Literal
	}
	return ref
}

// parseColumnRef parses an (optionally table-qualified) column
// reference starting at curToken, leaving curToken on the last token
// consumed.
func (p *Parser) parseColumnRef() (ast.Expression, bool) {
	if !p.curTokenIs(token.IDENT) {
		p.errorf("expected a column reference, got %s", p.curToken.Type)
		return nil, false
	}
	name := p.curToken.Literal
	if p.peekTokenIs(token.DOT) {
		p.nextToken() // consume DOT
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		return &ast.QualifiedIdentifier{Table: name, Column: p.curToken.Literal}, true
	}
	return &ast.Identifier{Token: p.curToken, Value: name}, true
}

// -----------------------------------------------------------------------------
// Predicate grammar: OR binds loosest, then AND, then NOT, then comparison.
// -----------------------------------------------------------------------------

func (p *Parser) parsePredicate() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for left != nil && p.peekTokenIs(token.OR) {
		opTok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseAnd()
		if right == nil {
			return nil
		}
		left = &ast.InfixExpression{Token: opTok, Left: left, Operator: "OR", Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	for left != nil && p.peekTokenIs(token.AND) {
		opTok := p.peekToken
		p.nextToken()
		p.nextToken()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		left = &ast.InfixExpression{Token: opTok, Left: left, Operator: "AND", Right: right}
	}
	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.curTokenIs(token.NOT) {
		opTok := p.curToken
		p.nextToken()
		right := p.parseNot()
		if right == nil {
			return nil
		}
		return &ast.PrefixExpression{Token: opTok, Operator: "NOT", Right: right}
	}
	return p.parseComparisonOrGroup()
}

func (p *Parser) parseComparisonOrGroup() ast.Expression {
	if p.curTokenIs(token.LPAREN) {
		p.nextToken()
		inner := p.parseOr()
		if inner == nil {
			return nil
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return inner
	}

	left := p.parseOperand()
	if left == nil {
		return nil
	}
	p.nextToken()
	op, ok := comparisonOperator(p.curToken.Type)
	if !ok {
		p.errorf("expected a comparison operator, got %s", p.curToken.Type)
		return nil
	}
	opTok := p.curToken
	p.nextToken()
	right := p.parseOperand()
	if right == nil {
		return nil
	}
	return &ast.InfixExpression{Token: opTok, Left: left, Operator: op, Right: right}
}

func comparisonOperator(t token.Type) (string, bool) {
	switch t {
	case token.EQ:
		return "=", true
	case token.NEQ:
		return "<>", true
	case token.LT:
		return "<", true
	case token.LTE:
		return "<=", true
	case token.GT:
		return ">", true
	case token.GTE:
		return ">=", true
	default:
		return "", false
	}
}

// parseOperand parses a comparison leaf operand: a column reference or
// a literal. curToken is left on the operand's last token.
func (p *Parser) parseOperand() ast.Expression {
	if p.curTokenIs(token.IDENT) {
		ref, ok := p.parseColumnRef()
		if !ok {
			return nil
		}
		return ref
	}
	return p.parseLiteral()
}

// -----------------------------------------------------------------------------
// UPDATE
// -----------------------------------------------------------------------------

func (p *Parser) parseUpdate() ast.Statement {
	stmt := &ast.UpdateStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Table = p.curToken.Literal
	if !p.expectPeek(token.SET) {
		return nil
	}
	p.nextToken()

	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorf("expected column name in SET, got %s", p.curToken.Type)
			return nil
		}
		col := p.curToken.Literal
		if !p.expectPeek(token.EQ) {
			return nil
		}
		p.nextToken()
		val := p.parseLiteral()
		if val == nil {
			return nil
		}
		stmt.Assignments = append(stmt.Assignments, ast.Assignment{Column: col, Value: val})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
		if stmt.Where == nil {
			return nil
		}
	}
	return stmt
}

// -----------------------------------------------------------------------------
// DELETE
// -----------------------------------------------------------------------------

func (p *Parser) parseDelete() ast.Statement {
	stmt := &ast.DeleteStatement{Token: p.curToken}
	if !p.expectPeek(token.FROM) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Table = p.curToken.Literal

	if p.peekTokenIs(token.WHERE) {
		p.nextToken()
		p.nextToken()
		stmt.Where = p.parsePredicate()
		if stmt.Where == nil {
			return nil
		}
	}
	return stmt
}
