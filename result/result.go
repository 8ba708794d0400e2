// Package result defines the tabular result value every executed
// statement produces.
package result

import "github.com/Copubah/minidb/value"

// Kind identifies which statement produced a Result.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindCreateTable
	KindDropTable
)

// Result carries either a SELECT's tabular output or a DML statement's
// affected-row count. Columns and Rows are empty for non-SELECT
// statements.
type Result struct {
	Kind     Kind
	Columns  []string
	Rows     [][]value.Value
	Affected int
	// InsertedID is the row id assigned by a successful INSERT.
	InsertedID uint64
}
