package catalog

import (
	"fmt"
	"sort"

	"github.com/Copubah/minidb/btree"
	"github.com/Copubah/minidb/dberr"
	"github.com/Copubah/minidb/value"
)

// RowID identifies a row within one table. It is allocated by the
// owning table, starts at 1, and is never reused across the table's
// lifetime.
type RowID = btree.RowID

// Row maps column name to value. Every column declared in the schema is
// always present in a stored row.
type Row map[string]value.Value

// Index is a secondary structure bound to one column: an ordered
// multimap from the column's value to the set of row ids holding it.
type Index struct {
	Column string
	tree   *btree.Tree
}

// Table owns its columns, row store, and indexes, and persists itself
// to disk after every successful mutation.
type Table struct {
	Name      string
	Columns   []Column
	rows      map[RowID]Row
	indexes   map[string]*Index
	nextRowID RowID
	dir       string // owning database directory; "" disables persistence
}

// NewTable constructs an empty table and builds the automatic indexes
// for its primary-key and unique columns.
func NewTable(name string, columns []Column) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	pkSeen := false
	for _, c := range columns {
		if seen[c.Name] {
			return nil, &dberr.ConstraintError{Kind: dberr.DuplicateColumn, Table: name, Column: c.Name, Message: "column declared more than once"}
		}
		seen[c.Name] = true
		if c.PrimaryKey {
			if pkSeen {
				return nil, &dberr.ConstraintError{Kind: dberr.PrimaryKeyViolation, Table: name, Column: c.Name, Message: "a table may have at most one primary key column"}
			}
			pkSeen = true
		}
	}

	t := &Table{
		Name:      name,
		Columns:   columns,
		rows:      make(map[RowID]Row),
		indexes:   make(map[string]*Index),
		nextRowID: 1,
	}
	for _, c := range columns {
		if c.Indexed() {
			t.CreateColumnIndex(c.Name)
		}
	}
	return t, nil
}

func (t *Table) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Index returns the index registered for column, if any.
func (t *Table) Index(column string) (*Index, bool) {
	idx, ok := t.indexes[column]
	return idx, ok
}

// FindEqual returns the row ids holding v in this index's column.
func (idx *Index) FindEqual(v value.Value) []RowID {
	return idx.tree.FindEqual(v)
}

// FindRange returns the row ids whose indexed column falls within
// [lo, hi] (bounds nil-able, inclusivity per loInc/hiInc).
func (idx *Index) FindRange(lo, hi *value.Value, loInc, hiInc bool) []RowID {
	return idx.tree.FindRange(lo, hi, loInc, hiInc)
}

// CreateColumnIndex builds and registers an index on column, populating
// it from existing rows. Idempotent: calling it again for an
// already-indexed column is a no-op.
func (t *Table) CreateColumnIndex(column string) {
	if _, ok := t.indexes[column]; ok {
		return
	}
	idx := &Index{Column: column, tree: btree.New()}
	for id, row := range t.rows {
		idx.tree.Insert(row[column], id)
	}
	t.indexes[column] = idx
}

// Scan returns the table's row ids in ascending order.
func (t *Table) Scan() []RowID {
	ids := make([]RowID, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Row returns the row stored at id.
func (t *Table) Row(id RowID) (Row, bool) {
	r, ok := t.rows[id]
	return r, ok
}

// RowCount returns the number of rows currently stored.
func (t *Table) RowCount() int { return len(t.rows) }

// normalize fills missing columns with Null and coerces each present
// value to its declared column type, rejecting unknown columns and
// type mismatches. It does not check not-null or uniqueness.
func (t *Table) normalize(input Row) (Row, error) {
	out := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		v, present := input[c.Name]
		if !present {
			out[c.Name] = value.Null
			continue
		}
		coerced, err := value.CoerceTo(v, c.Type, t.Name, c.Name)
		if err != nil {
			return nil, err
		}
		out[c.Name] = coerced
	}
	for name := range input {
		if _, ok := t.column(name); !ok {
			return nil, &dberr.ConstraintError{Kind: dberr.UnknownColumn, Table: t.Name, Column: name, Message: "no such column"}
		}
	}
	return out, nil
}

// checkConstraints rejects a normalized row violating not-null or
// uniqueness, as if it were about to be stored. excludeID is skipped
// during the uniqueness probe, for UPDATE's re-check of a row against
// itself.
func (t *Table) checkConstraints(row Row, excludeID RowID, hasExclude bool) error {
	for _, c := range t.Columns {
		v := row[c.Name]
		if c.NotNull && value.IsNull(v) {
			return &dberr.ConstraintError{Kind: dberr.NotNull, Table: t.Name, Column: c.Name, Message: "value is required"}
		}
		if !c.Unique || value.IsNull(v) {
			continue
		}
		idx, ok := t.indexes[c.Name]
		if !ok {
			continue
		}
		for _, rid := range idx.tree.FindEqual(v) {
			if hasExclude && rid == excludeID {
				continue
			}
			kind := dberr.UniqueViolation
			if c.PrimaryKey {
				kind = dberr.PrimaryKeyViolation
			}
			return &dberr.ConstraintError{Kind: kind, Table: t.Name, Column: c.Name, Message: fmt.Sprintf("duplicate value %s", v)}
		}
	}
	return nil
}

// Insert validates and stores one row, assigns it the next row id,
// updates every index, persists the table, and returns the assigned id.
// On any constraint failure the table is left unchanged.
func (t *Table) Insert(input Row) (RowID, error) {
	row, err := t.normalize(input)
	if err != nil {
		return 0, err
	}
	if err := t.checkConstraints(row, 0, false); err != nil {
		return 0, err
	}

	id := t.nextRowID
	t.rows[id] = row
	t.nextRowID++
	for col, idx := range t.indexes {
		idx.tree.Insert(row[col], id)
	}

	if err := t.persist(); err != nil {
		return 0, err
	}
	return id, nil
}

// Update applies assignments to every row matching the ids in matched,
// re-validating each proposed row as if re-inserting it. All matched
// rows are checked before any index or row store mutation is applied,
// so a single violating row leaves the whole table unchanged. Besides
// checking each candidate against the currently stored values of every
// other row (matched or not), the batch is also checked against
// itself: two rows matched by the
// same UPDATE can collide with each other on a unique/primary-key
// column even though neither collides with anything already stored.
func (t *Table) Update(matched []RowID, assignments map[string]value.Value) (int, error) {
	type pending struct {
		id  RowID
		old Row
		new Row
	}
	plans := make([]pending, 0, len(matched))

	for _, id := range matched {
		old, ok := t.rows[id]
		if !ok {
			continue
		}
		candidate := make(Row, len(old))
		for k, v := range old {
			candidate[k] = v
		}
		for col, v := range assignments {
			candidate[col] = v
		}
		normalized, err := t.normalize(candidate)
		if err != nil {
			return 0, err
		}
		if err := t.checkConstraints(normalized, id, true); err != nil {
			return 0, err
		}
		plans = append(plans, pending{id: id, old: old, new: normalized})
	}

	for _, c := range t.Columns {
		if !c.Unique {
			continue
		}
		for i := 0; i < len(plans); i++ {
			vi := plans[i].new[c.Name]
			if value.IsNull(vi) {
				continue
			}
			for j := i + 1; j < len(plans); j++ {
				if !value.Equal(vi, plans[j].new[c.Name]) {
					continue
				}
				kind := dberr.UniqueViolation
				if c.PrimaryKey {
					kind = dberr.PrimaryKeyViolation
				}
				return 0, &dberr.ConstraintError{Kind: kind, Table: t.Name, Column: c.Name, Message: fmt.Sprintf("duplicate value %s within the same update", vi)}
			}
		}
	}

	for _, p := range plans {
		t.rows[p.id] = p.new
		for col, idx := range t.indexes {
			if value.Equal(p.old[col], p.new[col]) {
				continue
			}
			idx.tree.Remove(p.old[col], p.id)
			idx.tree.Insert(p.new[col], p.id)
		}
	}

	if len(plans) > 0 {
		if err := t.persist(); err != nil {
			return 0, err
		}
	}
	return len(plans), nil
}

// Delete removes the rows in matched from the row store and every
// index, persists the table, and returns the count removed.
func (t *Table) Delete(matched []RowID) (int, error) {
	removed := 0
	for _, id := range matched {
		row, ok := t.rows[id]
		if !ok {
			continue
		}
		for col, idx := range t.indexes {
			idx.tree.Remove(row[col], id)
		}
		delete(t.rows, id)
		removed++
	}
	if removed > 0 {
		if err := t.persist(); err != nil {
			return 0, err
		}
	}
	return removed, nil
}
