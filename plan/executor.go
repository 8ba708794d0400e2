package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Copubah/minidb/ast"
	"github.com/Copubah/minidb/catalog"
	"github.com/Copubah/minidb/dberr"
	"github.com/Copubah/minidb/lexer"
	"github.com/Copubah/minidb/parser"
	"github.com/Copubah/minidb/result"
	"github.com/Copubah/minidb/value"
)

// Executor binds a parsed statement to a database and runs it,
// producing a result.Result.
type Executor struct {
	db *catalog.Database
}

// NewExecutor builds an Executor bound to db.
func NewExecutor(db *catalog.Database) *Executor {
	return &Executor{db: db}
}

// Execute lexes, parses, and runs exactly one SQL statement. A
// lexical fault (unterminated string, unrecognized character) is
// reported as a dberr.LexError; anything else wrong with the token
// stream is reported as a dberr.ParseError carrying the offending
// token's position and what was expected there.
func (e *Executor) Execute(sql string) (*result.Result, error) {
	p := parser.New(lexer.New(sql))
	stmt := p.ParseStatement()
	if lexErr := p.LexError(); lexErr != nil {
		return nil, lexErr
	}
	if diags := p.Diagnostics(); len(diags) > 0 {
		first := diags[0]
		pe := &dberr.ParseError{Line: first.Line, Column: first.Column, Expected: first.Expected, Got: first.Got, Message: first.Message}
		if len(diags) > 1 {
			extra := fmt.Sprintf(" (plus %d more parse error(s))", len(diags)-1)
			if pe.Message != "" {
				pe.Message += extra
			} else {
				pe.Message = fmt.Sprintf("expected %s, got %s%s", pe.Expected, pe.Got, extra)
			}
		}
		return nil, pe
	}
	if stmt == nil {
		return nil, &dberr.ParseError{Message: "no statement parsed"}
	}
	return e.ExecuteStatement(stmt)
}

// ExecuteStatement runs an already-parsed statement.
func (e *Executor) ExecuteStatement(stmt ast.Statement) (*result.Result, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStatement:
		return e.execCreateTable(s)
	case *ast.DropTableStatement:
		return e.execDropTable(s)
	case *ast.InsertStatement:
		return e.execInsert(s)
	case *ast.SelectStatement:
		return e.execSelect(s)
	case *ast.UpdateStatement:
		return e.execUpdate(s)
	case *ast.DeleteStatement:
		return e.execDelete(s)
	default:
		return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "unrecognized statement"}
	}
}

// -----------------------------------------------------------------------------
// CREATE TABLE / DROP TABLE
// -----------------------------------------------------------------------------

func (e *Executor) execCreateTable(s *ast.CreateTableStatement) (*result.Result, error) {
	cols := make([]catalog.Column, 0, len(s.Columns))
	for _, cd := range s.Columns {
		typ, ok := value.ParseType(cd.Type)
		if !ok {
			return nil, &dberr.PlanError{Kind: dberr.UnknownType, Message: "unknown column type " + cd.Type}
		}
		cols = append(cols, catalog.NewColumn(cd.Name, typ, cd.PrimaryKey, cd.Unique, cd.NotNull))
	}
	if _, err := e.db.CreateTable(s.Name, cols); err != nil {
		return nil, err
	}
	return &result.Result{Kind: result.KindCreateTable}, nil
}

func (e *Executor) execDropTable(s *ast.DropTableStatement) (*result.Result, error) {
	if err := e.db.DropTable(s.Name); err != nil {
		return nil, err
	}
	return &result.Result{Kind: result.KindDropTable}, nil
}

// -----------------------------------------------------------------------------
// INSERT
// -----------------------------------------------------------------------------

func (e *Executor) execInsert(s *ast.InsertStatement) (*result.Result, error) {
	table, ok := e.db.Table(s.Table)
	if !ok {
		return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + s.Table}
	}

	columns := s.Columns
	if columns == nil {
		columns = make([]string, len(table.Columns))
		for i, c := range table.Columns {
			columns[i] = c.Name
		}
	}
	if len(columns) != len(s.Values) {
		return nil, &dberr.PlanError{Kind: dberr.ArityMismatch, Message: "column list and value list have different lengths"}
	}

	row := make(catalog.Row, len(columns))
	for i, col := range columns {
		v, err := literalToValue(s.Values[i])
		if err != nil {
			return nil, err
		}
		row[col] = v
	}

	id, err := table.Insert(row)
	if err != nil {
		return nil, err
	}
	return &result.Result{Kind: result.KindInsert, Affected: 1, InsertedID: uint64(id)}, nil
}

func literalToValue(expr ast.Expression) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return value.Integer(e.Value), nil
	case *ast.FloatLiteral:
		return value.Float(e.Value), nil
	case *ast.StringLiteral:
		return value.Text(e.Value), nil
	case *ast.BooleanLiteral:
		return value.Boolean(e.Value), nil
	case *ast.NullLiteral:
		return value.Null, nil
	default:
		return value.Value{}, &dberr.PlanError{Kind: dberr.TypeMismatchPredicate, Message: "value is not a literal"}
	}
}

// -----------------------------------------------------------------------------
// UPDATE / DELETE
// -----------------------------------------------------------------------------

func (e *Executor) execUpdate(s *ast.UpdateStatement) (*result.Result, error) {
	table, ok := e.db.Table(s.Table)
	if !ok {
		return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + s.Table}
	}

	scope := singleTableScope(s.Table, table)
	matched, err := matchedRows(table, s.Table, s.Where, scope)
	if err != nil {
		return nil, err
	}

	assignments := make(map[string]value.Value, len(s.Assignments))
	for _, a := range s.Assignments {
		v, err := literalToValue(a.Value)
		if err != nil {
			return nil, err
		}
		assignments[a.Column] = v
	}

	n, err := table.Update(matched, assignments)
	if err != nil {
		return nil, err
	}
	return &result.Result{Kind: result.KindUpdate, Affected: n}, nil
}

func (e *Executor) execDelete(s *ast.DeleteStatement) (*result.Result, error) {
	table, ok := e.db.Table(s.Table)
	if !ok {
		return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + s.Table}
	}

	scope := singleTableScope(s.Table, table)
	matched, err := matchedRows(table, s.Table, s.Where, scope)
	if err != nil {
		return nil, err
	}

	n, err := table.Delete(matched)
	if err != nil {
		return nil, err
	}
	return &result.Result{Kind: result.KindDelete, Affected: n}, nil
}

// matchedRows selects the driving access path for predicate against
// table (aliased as alias), then re-checks the full predicate against
// every candidate row, since an index probe only narrows candidates —
// it never substitutes for full predicate evaluation.
func matchedRows(table *catalog.Table, alias string, predicate ast.Expression, scope *queryScope) ([]catalog.RowID, error) {
	path := PlanAccess(table, alias, predicate)
	candidates := Rows(table, path)

	if predicate == nil {
		return candidates, nil
	}

	matched := make([]catalog.RowID, 0, len(candidates))
	for _, id := range candidates {
		row, ok := table.Row(id)
		if !ok {
			continue
		}
		tpl := Tuple{}
		for col, v := range row {
			tpl[alias+"."+col] = v
		}
		tri, err := evalTri(predicate, tpl, scope)
		if err != nil {
			return nil, err
		}
		if tri == triTrue {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// -----------------------------------------------------------------------------
// SELECT
// -----------------------------------------------------------------------------

// boundTable is one resolved FROM/JOIN table reference.
type boundTable struct {
	alias string
	table *catalog.Table
}

// Tuple is a joined row, keyed "alias.column".
type Tuple map[string]value.Value

// queryScope resolves unqualified column references to the single
// table that owns them, or reports ambiguity/unknown-column errors.
type queryScope struct {
	owners map[string][]string // column name -> owning aliases
}

func newScope(tables []boundTable) *queryScope {
	s := &queryScope{owners: make(map[string][]string)}
	for _, bt := range tables {
		for _, c := range bt.table.Columns {
			s.owners[c.Name] = append(s.owners[c.Name], bt.alias)
		}
	}
	return s
}

func singleTableScope(alias string, table *catalog.Table) *queryScope {
	return newScope([]boundTable{{alias: alias, table: table}})
}

// resolveKey returns the tuple key "alias.column" for a column
// reference expression.
func (s *queryScope) resolveKey(expr ast.Expression) (string, error) {
	switch e := expr.(type) {
	case *ast.QualifiedIdentifier:
		return e.Table + "." + e.Column, nil
	case *ast.Identifier:
		owners, ok := s.owners[e.Value]
		if !ok || len(owners) == 0 {
			return "", &dberr.PlanError{Kind: dberr.UnknownColumnRef, Message: "no such column: " + e.Value}
		}
		if len(owners) > 1 {
			return "", &dberr.PlanError{Kind: dberr.AmbiguousColumn, Message: "ambiguous column reference: " + e.Value}
		}
		return owners[0] + "." + e.Value, nil
	default:
		return "", &dberr.PlanError{Kind: dberr.TypeMismatchPredicate, Message: "expected a column reference"}
	}
}

func (e *Executor) execSelect(s *ast.SelectStatement) (*result.Result, error) {
	driving, ok := e.db.Table(s.From.Name)
	if !ok {
		return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + s.From.Name}
	}
	tables := []boundTable{{alias: s.From.RefName(), table: driving}}

	joinTables := make([]*catalog.Table, 0, len(s.Joins))
	for _, j := range s.Joins {
		jt, ok := e.db.Table(j.Table.Name)
		if !ok {
			return nil, &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + j.Table.Name}
		}
		joinTables = append(joinTables, jt)
		tables = append(tables, boundTable{alias: j.Table.RefName(), table: jt})
	}
	scope := newScope(tables)

	drivingPath := PlanAccess(driving, tables[0].alias, s.Where)
	drivingRows := Rows(driving, drivingPath)

	tuples := make([]Tuple, 0, len(drivingRows))
	for _, id := range drivingRows {
		row, ok := driving.Row(id)
		if !ok {
			continue
		}
		t := Tuple{}
		for col, v := range row {
			t[tables[0].alias+"."+col] = v
		}
		tuples = append(tuples, t)
	}

	for i, j := range s.Joins {
		jt := joinTables[i]
		alias := tables[i+1].alias
		next := make([]Tuple, 0, len(tuples))
		for _, outer := range tuples {
			candidates := joinCandidates(jt, alias, j.On, outer)
			for _, id := range candidates {
				row, ok := jt.Row(id)
				if !ok {
					continue
				}
				merged := make(Tuple, len(outer)+len(row))
				for k, v := range outer {
					merged[k] = v
				}
				for col, v := range row {
					merged[alias+"."+col] = v
				}
				tri, err := evalTri(j.On, merged, scope)
				if err != nil {
					return nil, err
				}
				if tri == triTrue {
					next = append(next, merged)
				}
			}
		}
		tuples = next
	}

	if s.Where != nil {
		filtered := make([]Tuple, 0, len(tuples))
		for _, t := range tuples {
			tri, err := evalTri(s.Where, t, scope)
			if err != nil {
				return nil, err
			}
			if tri == triTrue {
				filtered = append(filtered, t)
			}
		}
		tuples = filtered
	}

	if s.OrderBy != nil {
		key, err := scope.resolveKey(s.OrderBy.Column)
		if err != nil {
			return nil, err
		}
		desc := s.OrderBy.Desc
		sort.SliceStable(tuples, func(i, j int) bool {
			a, b := tuples[i][key], tuples[j][key]
			if desc {
				return value.LessForSort(b, a)
			}
			return value.LessForSort(a, b)
		})
	}

	if s.Limit != nil && len(tuples) > *s.Limit {
		tuples = tuples[:*s.Limit]
	}

	columns, keys, err := projectionPlan(s.Projection, tables, len(s.Joins) > 0, scope)
	if err != nil {
		return nil, err
	}

	rows := make([][]value.Value, len(tuples))
	for i, t := range tuples {
		out := make([]value.Value, len(keys))
		for j, k := range keys {
			out[j] = t[k]
		}
		rows[i] = out
	}

	return &result.Result{Kind: result.KindSelect, Columns: columns, Rows: rows}, nil
}

// joinCandidates narrows the inner table's rows for one outer tuple,
// by looking for an ON equality that binds the inner column to either
// the outer tuple's value or a literal; falls back to a full scan
// when no such leaf exists. The caller always re-checks the full ON
// predicate afterward.
func joinCandidates(inner *catalog.Table, innerAlias string, on ast.Expression, outer Tuple) []catalog.RowID {
	for _, c := range splitConjuncts(on) {
		inf, ok := c.(*ast.InfixExpression)
		if !ok || inf.Operator != "=" {
			continue
		}
		if col, v, ok := innerBoundEquality(inf.Left, inf.Right, innerAlias, inner, outer); ok {
			if idx, ok := inner.Index(col); ok {
				return idx.FindEqual(v)
			}
		}
		if col, v, ok := innerBoundEquality(inf.Right, inf.Left, innerAlias, inner, outer); ok {
			if idx, ok := inner.Index(col); ok {
				return idx.FindEqual(v)
			}
		}
	}
	return inner.Scan()
}

func innerBoundEquality(innerSide, otherSide ast.Expression, innerAlias string, inner *catalog.Table, outer Tuple) (string, value.Value, bool) {
	col, ok := columnNameIn(innerSide, innerAlias, inner)
	if !ok {
		return "", value.Value{}, false
	}
	switch e := otherSide.(type) {
	case *ast.QualifiedIdentifier:
		v, ok := outer[e.Table+"."+e.Column]
		return col, v, ok
	case *ast.Identifier:
		// Ambiguous without full scope; only usable if exactly one
		// outer key ends in ".Value".
		suffix := "." + e.Value
		var found value.Value
		count := 0
		for k, v := range outer {
			if strings.HasSuffix(k, suffix) {
				found, count = v, count+1
			}
		}
		if count == 1 {
			return col, found, true
		}
		return "", value.Value{}, false
	default:
		if lit, ok := literalValue(otherSide); ok {
			return col, lit, true
		}
		return "", value.Value{}, false
	}
}

// projectionPlan resolves the SELECT list into display headers and
// tuple keys to extract.
func projectionPlan(items []ast.SelectItem, tables []boundTable, hasJoins bool, scope *queryScope) ([]string, []string, error) {
	if len(items) == 1 && items[0].Star {
		var columns, keys []string
		for _, bt := range tables {
			for _, c := range bt.table.Columns {
				key := bt.alias + "." + c.Name
				keys = append(keys, key)
				if hasJoins {
					columns = append(columns, key)
				} else {
					columns = append(columns, c.Name)
				}
			}
		}
		return columns, keys, nil
	}

	columns := make([]string, len(items))
	keys := make([]string, len(items))
	for i, item := range items {
		key, err := scope.resolveKey(item.Expr)
		if err != nil {
			return nil, nil, err
		}
		keys[i] = key
		columns[i] = item.Expr.String()
	}
	return columns, keys, nil
}

// -----------------------------------------------------------------------------
// Three-valued predicate evaluation
// -----------------------------------------------------------------------------

type triState int

const (
	triFalse triState = iota
	triTrue
	triUnknown
)

func evalTri(expr ast.Expression, tpl Tuple, scope *queryScope) (triState, error) {
	switch e := expr.(type) {
	case *ast.InfixExpression:
		switch e.Operator {
		case "AND":
			l, err := evalTri(e.Left, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			r, err := evalTri(e.Right, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			return triAnd(l, r), nil
		case "OR":
			l, err := evalTri(e.Left, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			r, err := evalTri(e.Right, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			return triOr(l, r), nil
		default:
			left, err := resolveValue(e.Left, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			right, err := resolveValue(e.Right, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			return evalComparison(e.Operator, left, right), nil
		}
	case *ast.PrefixExpression:
		if e.Operator == "NOT" {
			r, err := evalTri(e.Right, tpl, scope)
			if err != nil {
				return triFalse, err
			}
			return triNot(r), nil
		}
		return triFalse, &dberr.PlanError{Kind: dberr.TypeMismatchPredicate, Message: "unknown prefix operator " + e.Operator}
	default:
		return triFalse, &dberr.PlanError{Kind: dberr.TypeMismatchPredicate, Message: "expected a predicate"}
	}
}

func evalComparison(op string, a, b value.Value) triState {
	cmp, ok := value.Compare(a, b)
	if !ok {
		return triUnknown
	}
	var truth bool
	switch op {
	case "=":
		truth = cmp == 0
	case "<>":
		truth = cmp != 0
	case "<":
		truth = cmp < 0
	case "<=":
		truth = cmp <= 0
	case ">":
		truth = cmp > 0
	case ">=":
		truth = cmp >= 0
	}
	if truth {
		return triTrue
	}
	return triFalse
}

func triAnd(a, b triState) triState {
	if a == triFalse || b == triFalse {
		return triFalse
	}
	if a == triUnknown || b == triUnknown {
		return triUnknown
	}
	return triTrue
}

func triOr(a, b triState) triState {
	if a == triTrue || b == triTrue {
		return triTrue
	}
	if a == triUnknown || b == triUnknown {
		return triUnknown
	}
	return triFalse
}

func triNot(a triState) triState {
	switch a {
	case triTrue:
		return triFalse
	case triFalse:
		return triTrue
	default:
		return triUnknown
	}
}

func resolveValue(expr ast.Expression, tpl Tuple, scope *queryScope) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return value.Integer(e.Value), nil
	case *ast.FloatLiteral:
		return value.Float(e.Value), nil
	case *ast.StringLiteral:
		return value.Text(e.Value), nil
	case *ast.BooleanLiteral:
		return value.Boolean(e.Value), nil
	case *ast.NullLiteral:
		return value.Null, nil
	case *ast.QualifiedIdentifier, *ast.Identifier:
		key, err := scope.resolveKey(expr)
		if err != nil {
			return value.Value{}, err
		}
		return tpl[key], nil
	default:
		return value.Value{}, &dberr.PlanError{Kind: dberr.TypeMismatchPredicate, Message: "expected a value expression"}
	}
}
