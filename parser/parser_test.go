package parser

import (
	"testing"

	"github.com/Copubah/minidb/ast"
	"github.com/Copubah/minidb/lexer"
)

func parseOne(t *testing.T, input string) ast.Statement {
	t.Helper()
	p := New(lexer.New(input))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, errs)
	}
	return stmt
}

func TestParseCreateTable(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, score FLOAT UNIQUE)`)
	ct, ok := stmt.(*ast.CreateTableStatement)
	if !ok {
		t.Fatalf("expected *ast.CreateTableStatement, got %T", stmt)
	}
	if ct.Name != "users" {
		t.Fatalf("expected table name 'users', got %q", ct.Name)
	}
	if len(ct.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(ct.Columns))
	}
	if !ct.Columns[0].PrimaryKey || ct.Columns[0].Type != "INTEGER" {
		t.Errorf("expected id to be a primary key INTEGER, got %+v", ct.Columns[0])
	}
	if !ct.Columns[1].NotNull || ct.Columns[1].Type != "TEXT" {
		t.Errorf("expected name to be NOT NULL TEXT, got %+v", ct.Columns[1])
	}
	if !ct.Columns[2].Unique || ct.Columns[2].Type != "FLOAT" {
		t.Errorf("expected score to be UNIQUE FLOAT, got %+v", ct.Columns[2])
	}
}

func TestParseDropTable(t *testing.T) {
	stmt := parseOne(t, `DROP TABLE users`)
	dt, ok := stmt.(*ast.DropTableStatement)
	if !ok {
		t.Fatalf("expected *ast.DropTableStatement, got %T", stmt)
	}
	if dt.Name != "users" {
		t.Errorf("expected table name 'users', got %q", dt.Name)
	}
}

func TestParseInsertExplicitColumns(t *testing.T) {
	stmt := parseOne(t, `INSERT INTO users (id, name) VALUES (1, 'Ada')`)
	ins, ok := stmt.(*ast.InsertStatement)
	if !ok {
		t.Fatalf("expected *ast.InsertStatement, got %T", stmt)
	}
	if len(ins.Columns) != 2 || len(ins.Values) != 2 {
		t.Fatalf("expected 2 columns and 2 values, got %d/%d", len(ins.Columns), len(ins.Values))
	}
	if lit, ok := ins.Values[1].(*ast.StringLiteral); !ok || lit.Value != "Ada" {
		t.Errorf("expected second value to be string literal 'Ada', got %#v", ins.Values[1])
	}
}

func TestParseInsertPositional(t *testing.T) {
	stmt := parseOne(t, `INSERT INTO users VALUES (1, 'Ada', NULL)`)
	ins, ok := stmt.(*ast.InsertStatement)
	if !ok {
		t.Fatalf("expected *ast.InsertStatement, got %T", stmt)
	}
	if ins.Columns != nil {
		t.Errorf("expected nil column list for positional insert, got %v", ins.Columns)
	}
	if len(ins.Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(ins.Values))
	}
	if _, ok := ins.Values[2].(*ast.NullLiteral); !ok {
		t.Errorf("expected third value to be NULL literal, got %#v", ins.Values[2])
	}
}

func TestParseSelectStar(t *testing.T) {
	stmt := parseOne(t, `SELECT * FROM users`)
	sel, ok := stmt.(*ast.SelectStatement)
	if !ok {
		t.Fatalf("expected *ast.SelectStatement, got %T", stmt)
	}
	if len(sel.Projection) != 1 || !sel.Projection[0].Star {
		t.Fatalf("expected a single star projection, got %+v", sel.Projection)
	}
	if sel.From.Name != "users" {
		t.Errorf("expected FROM users, got %q", sel.From.Name)
	}
}

func TestParseSelectWithJoinWhereOrderLimit(t *testing.T) {
	stmt := parseOne(t, `SELECT u.name, o.total FROM users u INNER JOIN orders o ON u.id = o.user_id WHERE o.total > 10 ORDER BY o.total DESC LIMIT 5`)
	sel, ok := stmt.(*ast.SelectStatement)
	if !ok {
		t.Fatalf("expected *ast.SelectStatement, got %T", stmt)
	}
	if len(sel.Projection) != 2 {
		t.Fatalf("expected 2 projected columns, got %d", len(sel.Projection))
	}
	if sel.From.Name != "users" || sel.From.Alias != "u" {
		t.Errorf("expected FROM users u, got %+v", sel.From)
	}
	if len(sel.Joins) != 1 || sel.Joins[0].Table.Name != "orders" || sel.Joins[0].Table.Alias != "o" {
		t.Fatalf("expected one join on orders o, got %+v", sel.Joins)
	}
	if sel.Where == nil {
		t.Fatal("expected a WHERE predicate")
	}
	if sel.OrderBy == nil || !sel.OrderBy.Desc {
		t.Fatalf("expected ORDER BY ... DESC, got %+v", sel.OrderBy)
	}
	if sel.Limit == nil || *sel.Limit != 5 {
		t.Fatalf("expected LIMIT 5, got %v", sel.Limit)
	}
}

func TestParsePredicatePrecedence(t *testing.T) {
	// AND binds tighter than OR; NOT binds tighter than AND.
	stmt := parseOne(t, `SELECT * FROM t WHERE a = 1 OR NOT b = 2 AND c = 3`)
	sel := stmt.(*ast.SelectStatement)
	or, ok := sel.Where.(*ast.InfixExpression)
	if !ok || or.Operator != "OR" {
		t.Fatalf("expected top-level OR, got %#v", sel.Where)
	}
	and, ok := or.Right.(*ast.InfixExpression)
	if !ok || and.Operator != "AND" {
		t.Fatalf("expected OR's right side to be an AND, got %#v", or.Right)
	}
	if _, ok := and.Left.(*ast.PrefixExpression); !ok {
		t.Fatalf("expected AND's left side to be a NOT, got %#v", and.Left)
	}
}

func TestParsePredicateGrouping(t *testing.T) {
	stmt := parseOne(t, `SELECT * FROM t WHERE (a = 1 OR b = 2) AND c = 3`)
	sel := stmt.(*ast.SelectStatement)
	and, ok := sel.Where.(*ast.InfixExpression)
	if !ok || and.Operator != "AND" {
		t.Fatalf("expected top-level AND, got %#v", sel.Where)
	}
	if _, ok := and.Left.(*ast.InfixExpression); !ok {
		t.Fatalf("expected AND's left side to be the grouped OR, got %#v", and.Left)
	}
}

func TestParseUpdate(t *testing.T) {
	stmt := parseOne(t, `UPDATE users SET name = 'Grace', score = 9.5 WHERE id = 1`)
	upd, ok := stmt.(*ast.UpdateStatement)
	if !ok {
		t.Fatalf("expected *ast.UpdateStatement, got %T", stmt)
	}
	if upd.Table != "users" || len(upd.Assignments) != 2 {
		t.Fatalf("unexpected update statement: %+v", upd)
	}
	if upd.Where == nil {
		t.Fatal("expected a WHERE predicate")
	}
}

func TestParseDelete(t *testing.T) {
	stmt := parseOne(t, `DELETE FROM users WHERE id = 1`)
	del, ok := stmt.(*ast.DeleteStatement)
	if !ok {
		t.Fatalf("expected *ast.DeleteStatement, got %T", stmt)
	}
	if del.Table != "users" || del.Where == nil {
		t.Fatalf("unexpected delete statement: %+v", del)
	}
}

func TestParseStatementRejectsTrailingTokens(t *testing.T) {
	// A second statement keyword with no separating semicolon is
	// trailing content ParseStatement must reject, since it parses
	// exactly one statement per spec.md §6.3.
	p := New(lexer.New(`SELECT * FROM t CREATE TABLE x (id INTEGER)`))
	p.ParseStatement()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a trailing-token error")
	}
}

func TestParseStatementAllowsOptionalSemicolon(t *testing.T) {
	p := New(lexer.New(`DROP TABLE t;`))
	p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestParseErrorsAccumulate(t *testing.T) {
	p := New(lexer.New(`CREATE TABLE`))
	p.ParseStatement()
	if len(p.Errors()) == 0 {
		t.Fatal("expected at least one parse error for a truncated statement")
	}
}

func TestDiagnosticsCarryPositionAndExpectation(t *testing.T) {
	p := New(lexer.New(`CREATE users (id INTEGER)`))
	p.ParseStatement()
	diags := p.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	d := diags[0]
	if d.Expected != "TABLE" || d.Got != "IDENT" {
		t.Fatalf("expected a TABLE/IDENT mismatch, got %+v", d)
	}
	if d.Line == 0 || d.Column == 0 {
		t.Fatalf("expected a non-zero position, got %+v", d)
	}
}

func TestLexErrorReportsOffsetForUnterminatedString(t *testing.T) {
	p := New(lexer.New(`INSERT INTO t VALUES ('oops`))
	p.ParseStatement()
	lexErr := p.LexError()
	if lexErr == nil {
		t.Fatal("expected a lex error for an unterminated string literal")
	}
	if lexErr.Offset == 0 {
		t.Fatalf("expected a non-zero byte offset, got %+v", lexErr)
	}
}

func TestLexErrorReportsUnrecognizedCharacter(t *testing.T) {
	p := New(lexer.New(`SELECT * FROM t WHERE a = @`))
	p.ParseStatement()
	lexErr := p.LexError()
	if lexErr == nil {
		t.Fatal("expected a lex error for an unrecognized character")
	}
}
