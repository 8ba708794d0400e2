// Package minidb provides an embedded, single-process relational
// database: a hand-written SQL lexer and recursive-descent parser over
// a typed, in-memory storage engine with secondary indexes, fronted by
// a small planner/executor.
//
// Example usage:
//
//	db, err := minidb.Open("./data")
//	if err != nil {
//	    // handle error
//	}
//	defer db.Close()
//
//	if _, err := db.Execute("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"); err != nil {
//	    // handle error
//	}
//	res, err := db.Execute("SELECT * FROM users WHERE id = 1")
package minidb

import (
	"github.com/Copubah/minidb/ast"
	"github.com/Copubah/minidb/catalog"
	"github.com/Copubah/minidb/dberr"
	"github.com/Copubah/minidb/lexer"
	"github.com/Copubah/minidb/parser"
	"github.com/Copubah/minidb/plan"
	"github.com/Copubah/minidb/result"
	"github.com/Copubah/minidb/token"
)

// DB is an open database: a table catalog plus the executor bound to
// it. Every mutating statement is durable on return.
type DB struct {
	catalog  *catalog.Database
	executor *plan.Executor
}

// Open opens (or creates) a database rooted at dir, reconstructing
// every table from its persisted document.
func Open(dir string) (*DB, error) {
	c, err := catalog.Open(dir)
	if err != nil {
		return nil, err
	}
	return &DB{catalog: c, executor: plan.NewExecutor(c)}, nil
}

// Close releases the database. Persistence is already durable after
// every mutating statement, so Close performs no I/O of its own.
func (db *DB) Close() error {
	return db.catalog.Close()
}

// Execute lexes, parses, and runs exactly one SQL statement, returning
// its tabular result (for SELECT) or affected-row count (for the DML
// and DDL statements).
func (db *DB) Execute(sql string) (*result.Result, error) {
	return db.executor.Execute(sql)
}

// ListTables returns every table name in the database, in lexical
// order.
func (db *DB) ListTables() []string {
	return db.catalog.ListTables()
}

// Schema returns the declared column list of a table.
func (db *DB) Schema(table string) ([]catalog.Column, bool) {
	return db.catalog.Schema(table)
}

// Parse parses a single SQL statement and returns its AST, without
// running it against any database.
func Parse(input string) (ast.Statement, []string) {
	p := parser.New(lexer.New(input))
	stmt := p.ParseStatement()
	return stmt, p.Errors()
}

// Tokenize returns every token lexed from input.
func Tokenize(input string) []token.Token {
	return lexer.Tokenize(input)
}

// Re-export the statement and error types, for callers that want to
// inspect a parsed statement or a structured error kind directly
// without importing the internal packages.
type (
	Statement            = ast.Statement
	Expression           = ast.Expression
	CreateTableStatement = ast.CreateTableStatement
	DropTableStatement   = ast.DropTableStatement
	InsertStatement      = ast.InsertStatement
	SelectStatement      = ast.SelectStatement
	UpdateStatement      = ast.UpdateStatement
	DeleteStatement      = ast.DeleteStatement
)

type (
	LexError        = dberr.LexError
	ParseError      = dberr.ParseError
	PlanError       = dberr.PlanError
	ConstraintError = dberr.ConstraintError
	StorageError    = dberr.StorageError
)

// Result and Column are re-exported so callers only need this package
// for the common case of running statements and reading results.
type (
	Result = result.Result
	Column = catalog.Column
)
