// Package ast defines the Abstract Syntax Tree nodes the parser
// produces: one of six statement kinds, plus the predicate/expression
// tree shared by WHERE and JOIN...ON clauses.
package ast

import (
	"strconv"
	"strings"

	"github.com/Copubah/minidb/token"
)

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is implemented by every top-level statement node.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by every predicate/value expression node.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node produced by parsing a batch of statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out strings.Builder
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// -----------------------------------------------------------------------------
// Literals and references
// -----------------------------------------------------------------------------

// Identifier is an unqualified name: a column or table reference.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// QualifiedIdentifier is a "table.column" reference.
type QualifiedIdentifier struct {
	Table  string
	Column string
}

func (q *QualifiedIdentifier) expressionNode()      {}
func (q *QualifiedIdentifier) TokenLiteral() string { return q.Table }
func (q *QualifiedIdentifier) String() string       { return q.Table + "." + q.Column }

// IntegerLiteral is an integer literal.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (l *IntegerLiteral) expressionNode()      {}
func (l *IntegerLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *IntegerLiteral) String() string       { return strconv.FormatInt(l.Value, 10) }

// FloatLiteral is a floating-point literal.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (l *FloatLiteral) expressionNode()      {}
func (l *FloatLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *FloatLiteral) String() string       { return strconv.FormatFloat(l.Value, 'g', -1, 64) }

// StringLiteral is a single-quoted string literal, already unescaped.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (l *StringLiteral) expressionNode()      {}
func (l *StringLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *StringLiteral) String() string       { return "'" + l.Value + "'" }

// BooleanLiteral is TRUE or FALSE.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (l *BooleanLiteral) expressionNode()      {}
func (l *BooleanLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *BooleanLiteral) String() string       { return l.Token.Literal }

// NullLiteral is the NULL literal.
type NullLiteral struct {
	Token token.Token
}

func (l *NullLiteral) expressionNode()      {}
func (l *NullLiteral) TokenLiteral() string { return l.Token.Literal }
func (l *NullLiteral) String() string       { return "NULL" }

// -----------------------------------------------------------------------------
// Predicate expression tree
// -----------------------------------------------------------------------------

// InfixExpression covers comparisons (=, <>, <, <=, >, >=) and the
// boolean connectives AND/OR.
type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpression) expressionNode()      {}
func (e *InfixExpression) TokenLiteral() string { return e.Token.Literal }
func (e *InfixExpression) String() string {
	return "(" + e.Left.String() + " " + e.Operator + " " + e.Right.String() + ")"
}

// PrefixExpression covers NOT <predicate>.
type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (e *PrefixExpression) expressionNode()      {}
func (e *PrefixExpression) TokenLiteral() string { return e.Token.Literal }
func (e *PrefixExpression) String() string {
	return "(" + e.Operator + " " + e.Right.String() + ")"
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// ColumnDef is one column declaration inside CREATE TABLE.
type ColumnDef struct {
	Name       string
	Type       string // INTEGER | TEXT | FLOAT | BOOLEAN, as written
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}

// CreateTableStatement is CREATE TABLE name (columns...).
type CreateTableStatement struct {
	Token   token.Token
	Name    string
	Columns []ColumnDef
}

func (s *CreateTableStatement) statementNode()       {}
func (s *CreateTableStatement) TokenLiteral() string { return s.Token.Literal }
func (s *CreateTableStatement) String() string {
	var out strings.Builder
	out.WriteString("CREATE TABLE ")
	out.WriteString(s.Name)
	return out.String()
}

// DropTableStatement is DROP TABLE name.
type DropTableStatement struct {
	Token token.Token
	Name  string
}

func (s *DropTableStatement) statementNode()       {}
func (s *DropTableStatement) TokenLiteral() string { return s.Token.Literal }
func (s *DropTableStatement) String() string       { return "DROP TABLE " + s.Name }

// InsertStatement is INSERT INTO table [(columns...)] VALUES (values...).
// Columns is nil when the column list was omitted, meaning values are
// positional against the table's declared column order.
type InsertStatement struct {
	Token   token.Token
	Table   string
	Columns []string
	Values  []Expression
}

func (s *InsertStatement) statementNode()       {}
func (s *InsertStatement) TokenLiteral() string { return s.Token.Literal }
func (s *InsertStatement) String() string       { return "INSERT INTO " + s.Table }

// TableRef is a table name with an optional alias, used by FROM and
// JOIN clauses.
type TableRef struct {
	Name  string
	Alias string
}

// RefName returns the alias if present, otherwise the table name —
// the name this reference is addressed by in qualified column refs.
func (r TableRef) RefName() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// Join is one JOIN clause: INNER JOIN table [AS alias] ON predicate.
type Join struct {
	Table TableRef
	On    Expression
}

// OrderBy is one ORDER BY clause.
type OrderBy struct {
	Column Expression
	Desc   bool
}

// SelectItem is one projected expression; Star is true for "*" and
// Expr is nil in that case.
type SelectItem struct {
	Expr Expression
	Star bool
}

// SelectStatement is a full SELECT.
type SelectStatement struct {
	Token      token.Token
	Projection []SelectItem
	From       TableRef
	Joins      []Join
	Where      Expression // nil if absent
	OrderBy    *OrderBy   // nil if absent
	Limit      *int       // nil if absent
}

func (s *SelectStatement) statementNode()       {}
func (s *SelectStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SelectStatement) String() string       { return "SELECT ... FROM " + s.From.Name }

// Assignment is one "column = expression" pair in SET.
type Assignment struct {
	Column string
	Value  Expression
}

// UpdateStatement is UPDATE table SET assignments... [WHERE predicate].
type UpdateStatement struct {
	Token       token.Token
	Table       string
	Assignments []Assignment
	Where       Expression
}

func (s *UpdateStatement) statementNode()       {}
func (s *UpdateStatement) TokenLiteral() string { return s.Token.Literal }
func (s *UpdateStatement) String() string       { return "UPDATE " + s.Table }

// DeleteStatement is DELETE FROM table [WHERE predicate].
type DeleteStatement struct {
	Token token.Token
	Table string
	Where Expression
}

func (s *DeleteStatement) statementNode()       {}
func (s *DeleteStatement) TokenLiteral() string { return s.Token.Literal }
func (s *DeleteStatement) String() string       { return "DELETE FROM " + s.Table }
