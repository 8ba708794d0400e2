package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Copubah/minidb/dberr"
)

// Database is a named collection of tables rooted at one directory on
// disk. Table name lookups are case-insensitive; the declared casing is
// preserved for ListTables and Schema.
type Database struct {
	dir    string
	tables map[string]*Table // keyed by strings.ToLower(name)
	names  map[string]string // lower -> declared casing
}

// Open opens (or creates) a database directory, reconstructing every
// table persisted there from its document.
func Open(dir string) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &dberr.StorageError{Kind: dberr.IO, Err: err}
	}
	db := &Database{
		dir:    dir,
		tables: make(map[string]*Table),
		names:  make(map[string]string),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &dberr.StorageError{Kind: dberr.IO, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".toml")
		t, err := loadTable(dir, name)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(name)
		db.tables[key] = t
		db.names[key] = name
	}
	return db, nil
}

// Close releases in-memory state. Persistence is already durable after
// every mutation, so Close performs no I/O of its own.
func (db *Database) Close() error { return nil }

// CreateTable registers a new table and persists its (empty) document.
func (db *Database) CreateTable(name string, columns []Column) (*Table, error) {
	key := strings.ToLower(name)
	if _, ok := db.tables[key]; ok {
		return nil, &dberr.PlanError{Kind: dberr.TableAlreadyExists, Message: "table " + name + " already exists"}
	}
	t, err := NewTable(name, columns)
	if err != nil {
		return nil, err
	}
	t.dir = db.dir
	if err := t.persist(); err != nil {
		return nil, err
	}
	db.tables[key] = t
	db.names[key] = name
	return t, nil
}

// DropTable removes a table entirely, including its persisted document.
func (db *Database) DropTable(name string) error {
	key := strings.ToLower(name)
	t, ok := db.tables[key]
	if !ok {
		return &dberr.PlanError{Kind: dberr.UnknownTable, Message: "no such table: " + name}
	}
	if err := t.dropPersisted(); err != nil {
		return err
	}
	delete(db.tables, key)
	delete(db.names, key)
	return nil
}

// Table looks up a table by case-insensitive name.
func (db *Database) Table(name string) (*Table, bool) {
	t, ok := db.tables[strings.ToLower(name)]
	return t, ok
}

// ListTables returns declared table names in lexical order.
func (db *Database) ListTables() []string {
	out := make([]string, 0, len(db.names))
	for _, n := range db.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Schema returns the column list of the named table.
func (db *Database) Schema(name string) ([]Column, bool) {
	t, ok := db.Table(name)
	if !ok {
		return nil, false
	}
	return t.Columns, true
}
