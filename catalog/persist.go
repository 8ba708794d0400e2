package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/Copubah/minidb/dberr"
	"github.com/Copubah/minidb/value"
)

// persistedColumn mirrors spec.md §6.2's schema entry shape.
type persistedColumn struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	PrimaryKey bool   `toml:"primary_key"`
	Unique     bool   `toml:"unique"`
	NotNull    bool   `toml:"not_null"`
}

// persistedDoc is the self-describing text record spec.md §6.2 requires:
// an ordered schema and a row-id-keyed row map. TOML has no null
// literal, so a Null value is represented by the column key being
// absent from its row's table.
type persistedDoc struct {
	Schema []persistedColumn        `toml:"schema"`
	Rows   map[string]map[string]any `toml:"rows"`
}

func tablePath(dir, name string) string {
	return filepath.Join(dir, name+".toml")
}

// persist rewrites this table's document in full, atomically: it
// writes to "<table>.toml.tmp", flushes, then renames over
// "<table>.toml". A disabled-persistence table (dir == "") is a no-op,
// used by in-memory-only tests that don't want a filesystem dependency.
func (t *Table) persist() error {
	if t.dir == "" {
		return nil
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}

	doc := persistedDoc{
		Schema: make([]persistedColumn, len(t.Columns)),
		Rows:   make(map[string]map[string]any, len(t.rows)),
	}
	for i, c := range t.Columns {
		doc.Schema[i] = persistedColumn{
			Name: c.Name, Type: c.Type.String(),
			PrimaryKey: c.PrimaryKey, Unique: c.Unique, NotNull: c.NotNull,
		}
	}
	for id, row := range t.rows {
		doc.Rows[strconv.FormatUint(uint64(id), 10)] = encodeRow(row)
	}

	tmpPath := tablePath(t.dir, t.Name) + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	if err := os.Rename(tmpPath, tablePath(t.dir, t.Name)); err != nil {
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	return nil
}

// dropPersisted removes this table's persisted document, if any.
func (t *Table) dropPersisted() error {
	if t.dir == "" {
		return nil
	}
	if err := os.Remove(tablePath(t.dir, t.Name)); err != nil && !os.IsNotExist(err) {
		return &dberr.StorageError{Kind: dberr.IO, Table: t.Name, Err: err}
	}
	return nil
}

func encodeRow(row Row) map[string]any {
	out := make(map[string]any, len(row))
	for col, v := range row {
		switch v.Kind {
		case value.KindInteger:
			out[col] = v.Int
		case value.KindFloat:
			out[col] = v.Flt
		case value.KindText:
			out[col] = v.Str
		case value.KindBoolean:
			out[col] = v.Bool
		case value.KindNull:
			// omitted: TOML has no null literal
		}
	}
	return out
}

func decodeValue(raw any) value.Value {
	switch x := raw.(type) {
	case int64:
		return value.Integer(x)
	case int:
		return value.Integer(int64(x))
	case float64:
		return value.Float(x)
	case string:
		return value.Text(x)
	case bool:
		return value.Boolean(x)
	default:
		return value.Null
	}
}

// loadTable reconstructs a table from its persisted document: schema,
// rows replayed in ascending row-id order into fresh indexes, and
// nextRowID set to one past the maximum persisted id.
func loadTable(dir, name string) (*Table, error) {
	path := tablePath(dir, name)
	var doc persistedDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, &dberr.StorageError{Kind: dberr.Corrupt, Table: name, Err: err}
	}

	columns := make([]Column, 0, len(doc.Schema))
	for _, pc := range doc.Schema {
		typ, ok := value.ParseType(pc.Type)
		if !ok {
			return nil, &dberr.StorageError{Kind: dberr.Corrupt, Table: name, Err: fmt.Errorf("unknown column type %q", pc.Type)}
		}
		columns = append(columns, NewColumn(pc.Name, typ, pc.PrimaryKey, pc.Unique, pc.NotNull))
	}

	t, err := NewTable(name, columns)
	if err != nil {
		return nil, err
	}
	t.dir = dir

	ids := make([]uint64, 0, len(doc.Rows))
	rowByID := make(map[uint64]map[string]any, len(doc.Rows))
	for idStr, rawRow := range doc.Rows {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return nil, &dberr.StorageError{Kind: dberr.Corrupt, Table: name, Err: fmt.Errorf("invalid row id %q", idStr)}
		}
		ids = append(ids, id)
		rowByID[id] = rawRow
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	maxID := uint64(0)
	for _, id := range ids {
		raw := rowByID[id]
		for col := range raw {
			if _, ok := t.column(col); !ok {
				return nil, &dberr.StorageError{Kind: dberr.Corrupt, Table: name, Err: fmt.Errorf("row %d references unknown column %q", id, col)}
			}
		}
		row := make(Row, len(columns))
		for _, c := range columns {
			if v, ok := raw[c.Name]; ok {
				row[c.Name] = decodeValue(v)
			} else {
				row[c.Name] = value.Null
			}
		}
		rid := RowID(id)
		t.rows[rid] = row
		for col, idx := range t.indexes {
			idx.tree.Insert(row[col], rid)
		}
		if id > maxID {
			maxID = id
		}
	}
	t.nextRowID = RowID(maxID + 1)
	return t, nil
}
