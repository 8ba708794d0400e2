package catalog

import (
	"testing"

	"github.com/Copubah/minidb/value"
)

func TestDatabaseCreateInsertReopenRoundTrips(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error opening database: %v", err)
	}
	cols := []Column{
		NewColumn("id", value.INTEGER, true, false, false),
		NewColumn("name", value.TEXT, false, false, true),
		NewColumn("score", value.FLOAT, false, false, false),
		NewColumn("active", value.BOOLEAN, false, false, false),
	}
	tbl, err := db.CreateTable("Accounts", cols)
	if err != nil {
		t.Fatalf("unexpected error creating table: %v", err)
	}
	if _, err := tbl.Insert(Row{
		"id": value.Integer(1), "name": value.Text("Ada"),
		"score": value.Integer(10), "active": value.Boolean(true),
	}); err != nil {
		t.Fatalf("unexpected error inserting: %v", err)
	}
	if _, err := tbl.Insert(Row{"id": value.Integer(2), "name": value.Text("Grace")}); err != nil {
		t.Fatalf("unexpected error inserting: %v", err)
	}

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error reopening database: %v", err)
	}

	reopened, ok := db2.Table("accounts") // case-insensitive lookup
	if !ok {
		t.Fatal("expected the reopened database to contain the table")
	}
	if reopened.RowCount() != 2 {
		t.Fatalf("expected 2 rows after reopen, got %d", reopened.RowCount())
	}

	row, ok := reopened.Row(1)
	if !ok {
		t.Fatal("expected row 1 to survive reopen")
	}
	if row["score"].Kind != value.KindFloat || row["score"].Flt != 10.0 {
		t.Fatalf("expected score to round-trip as Float(10), got %#v", row["score"])
	}
	if !row["active"].Bool {
		t.Fatalf("expected active to round-trip as true, got %#v", row["active"])
	}

	row2, ok := reopened.Row(2)
	if !ok {
		t.Fatal("expected row 2 to survive reopen")
	}
	if !value.IsNull(row2["score"]) {
		t.Fatalf("expected an omitted score to round-trip as Null, got %#v", row2["score"])
	}

	names := db2.ListTables()
	if len(names) != 1 || names[0] != "Accounts" {
		t.Fatalf("expected declared casing 'Accounts' preserved, got %v", names)
	}
}

func TestDropTableRemovesPersistedDocument(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := db.CreateTable("t", []Column{NewColumn("id", value.INTEGER, true, false, false)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.DropTable("t"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error reopening: %v", err)
	}
	if _, ok := db2.Table("t"); ok {
		t.Fatal("expected the dropped table not to reappear after reopen")
	}
}

func TestCreateTableRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cols := []Column{NewColumn("id", value.INTEGER, true, false, false)}
	if _, err := db.CreateTable("t", cols); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := db.CreateTable("T", cols); err == nil {
		t.Fatal("expected a case-insensitive duplicate table name to be rejected")
	}
}
