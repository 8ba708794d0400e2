// Package plan implements the predicate-directed planner and the
// statement executor: the component that turns a parsed AST into a
// result.Result by choosing access paths, performing joins, filtering,
// ordering, limiting, and projecting.
package plan

import (
	"github.com/Copubah/minidb/ast"
	"github.com/Copubah/minidb/catalog"
	"github.com/Copubah/minidb/value"
)

// AccessKind identifies how a table reference is scanned.
type AccessKind int

const (
	FullScan AccessKind = iota
	IndexEqual
	IndexRange
)

// AccessPath is the planner's choice of how to read a table reference:
// a full scan, or a probe of one of its indexes.
type AccessPath struct {
	Kind   AccessKind
	Column string
	Eq     value.Value
	Lo, Hi *value.Value
	LoInc  bool
	HiInc  bool
}

// splitConjuncts flattens the outermost chain of AND-connected
// predicates into its leaves. A predicate containing OR at or above a
// leaf stops the split at that point — spec.md §4.5 disables index use
// for the subtree containing a disjunction, so that whole subtree is
// returned as a single opaque conjunct, never decomposed further.
func splitConjuncts(expr ast.Expression) []ast.Expression {
	if expr == nil {
		return nil
	}
	if inf, ok := expr.(*ast.InfixExpression); ok && inf.Operator == "AND" {
		return append(splitConjuncts(inf.Left), splitConjuncts(inf.Right)...)
	}
	return []ast.Expression{expr}
}

// columnLiteralLeaf reports whether conjunct is a comparison between a
// reference to (alias, tableCol) in the given table and a literal
// value, returning the operator and literal regardless of which side
// held the column.
func columnLiteralLeaf(conjunct ast.Expression, alias string, table *catalog.Table) (column, op string, lit value.Value, ok bool) {
	inf, isInfix := conjunct.(*ast.InfixExpression)
	if !isInfix {
		return "", "", value.Value{}, false
	}
	switch inf.Operator {
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		return "", "", value.Value{}, false
	}

	if col, litVal, matched := matchColumnLiteral(inf.Left, inf.Right, alias, table); matched {
		return col, inf.Operator, litVal, true
	}
	if col, litVal, matched := matchColumnLiteral(inf.Right, inf.Left, alias, table); matched {
		return col, flipOperator(inf.Operator), litVal, true
	}
	return "", "", value.Value{}, false
}

func matchColumnLiteral(colSide, litSide ast.Expression, alias string, table *catalog.Table) (string, value.Value, bool) {
	col, ok := columnNameIn(colSide, alias, table)
	if !ok {
		return "", value.Value{}, false
	}
	lit, ok := literalValue(litSide)
	if !ok {
		return "", value.Value{}, false
	}
	return col, lit, true
}

func columnNameIn(expr ast.Expression, alias string, table *catalog.Table) (string, bool) {
	switch e := expr.(type) {
	case *ast.QualifiedIdentifier:
		if e.Table != alias {
			return "", false
		}
		return hasColumn(table, e.Column)
	case *ast.Identifier:
		return hasColumn(table, e.Value)
	default:
		return "", false
	}
}

func hasColumn(table *catalog.Table, name string) (string, bool) {
	for _, c := range table.Columns {
		if c.Name == name {
			return name, true
		}
	}
	return "", false
}

func literalValue(expr ast.Expression) (value.Value, bool) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return value.Integer(e.Value), true
	case *ast.FloatLiteral:
		return value.Float(e.Value), true
	case *ast.StringLiteral:
		return value.Text(e.Value), true
	case *ast.BooleanLiteral:
		return value.Boolean(e.Value), true
	case *ast.NullLiteral:
		return value.Null, true
	default:
		return value.Value{}, false
	}
}

func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op // = and <> are symmetric
	}
}

// PlanAccess chooses at most one index probe for table, aliased as
// alias in predicate, per spec.md §4.5: an equality leaf on an indexed
// column wins outright; otherwise range leaves on the same indexed
// column are combined into a single bounded probe; otherwise a full
// scan.
func PlanAccess(table *catalog.Table, alias string, predicate ast.Expression) AccessPath {
	conjuncts := splitConjuncts(predicate)

	for _, c := range conjuncts {
		col, op, lit, ok := columnLiteralLeaf(c, alias, table)
		if !ok || op != "=" {
			continue
		}
		if _, indexed := table.Index(col); indexed {
			return AccessPath{Kind: IndexEqual, Column: col, Eq: lit}
		}
	}

	var rangeCol string
	var lo, hi *value.Value
	loInc, hiInc := false, false
	for _, c := range conjuncts {
		col, op, lit, ok := columnLiteralLeaf(c, alias, table)
		if !ok {
			continue
		}
		if _, indexed := table.Index(col); !indexed {
			continue
		}
		if rangeCol != "" && rangeCol != col {
			continue
		}
		switch op {
		case ">":
			v := lit
			lo, loInc, rangeCol = &v, false, col
		case ">=":
			v := lit
			lo, loInc, rangeCol = &v, true, col
		case "<":
			v := lit
			hi, hiInc, rangeCol = &v, false, col
		case "<=":
			v := lit
			hi, hiInc, rangeCol = &v, true, col
		}
	}
	if rangeCol != "" {
		return AccessPath{Kind: IndexRange, Column: rangeCol, Lo: lo, Hi: hi, LoInc: loInc, HiInc: hiInc}
	}

	return AccessPath{Kind: FullScan}
}

// Rows returns the row ids this access path yields for table, used as
// starting candidates before the full predicate is re-checked per row.
func Rows(table *catalog.Table, path AccessPath) []catalog.RowID {
	switch path.Kind {
	case IndexEqual:
		if idx, ok := table.Index(path.Column); ok {
			return idx.FindEqual(path.Eq)
		}
	case IndexRange:
		if idx, ok := table.Index(path.Column); ok {
			return idx.FindRange(path.Lo, path.Hi, path.LoInc, path.HiInc)
		}
	}
	return table.Scan()
}
