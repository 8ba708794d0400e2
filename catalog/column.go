// Package catalog implements the storage and constraint engine: typed
// table schemas, row storage keyed by a synthetic row id, index
// maintenance, constraint enforcement, and per-table persistence.
package catalog

import "github.com/Copubah/minidb/value"

// Column is immutable metadata describing one table column.
type Column struct {
	Name       string
	Type       value.Type
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}

// NewColumn builds a Column, applying the spec's implication that a
// primary-key column is always unique and not-null.
func NewColumn(name string, typ value.Type, primaryKey, unique, notNull bool) Column {
	if primaryKey {
		unique = true
		notNull = true
	}
	return Column{Name: name, Type: typ, PrimaryKey: primaryKey, Unique: unique, NotNull: notNull}
}

// Indexed reports whether this column is automatically indexed at
// creation (primary-key and unique columns always are).
func (c Column) Indexed() bool {
	return c.PrimaryKey || c.Unique
}
