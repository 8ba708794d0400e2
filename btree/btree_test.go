package btree

import (
	"reflect"
	"testing"

	"github.com/Copubah/minidb/value"
)

func TestInsertAndFindEqual(t *testing.T) {
	tr := New()
	tr.Insert(value.Integer(5), 1)
	tr.Insert(value.Integer(3), 2)
	tr.Insert(value.Integer(8), 3)
	tr.Insert(value.Integer(5), 4) // duplicate key, different row

	got := tr.FindEqual(value.Integer(5))
	want := []RowID{1, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindEqual(5) = %v, want %v", got, want)
	}
	if got := tr.FindEqual(value.Integer(99)); got != nil {
		t.Fatalf("FindEqual(99) = %v, want nil", got)
	}
}

func TestInsertTriggersSplit(t *testing.T) {
	tr := New()
	// maxKeys is 5 for degree 3; inserting enough distinct keys forces
	// at least one root split and one internal split.
	for i := 0; i < 50; i++ {
		tr.Insert(value.Integer(int64(i)), RowID(i))
	}
	for i := 0; i < 50; i++ {
		rows := tr.FindEqual(value.Integer(int64(i)))
		if len(rows) != 1 || rows[0] != RowID(i) {
			t.Fatalf("FindEqual(%d) = %v, want [%d]", i, rows, i)
		}
	}
}

func TestRemoveShrinksRowSetThenKey(t *testing.T) {
	tr := New()
	tr.Insert(value.Integer(1), 10)
	tr.Insert(value.Integer(1), 11)

	tr.Remove(value.Integer(1), 10)
	if got := tr.FindEqual(value.Integer(1)); !reflect.DeepEqual(got, []RowID{11}) {
		t.Fatalf("after first remove: %v, want [11]", got)
	}

	tr.Remove(value.Integer(1), 11)
	if got := tr.FindEqual(value.Integer(1)); got != nil {
		t.Fatalf("after second remove: %v, want nil", got)
	}
	if tr.Contains(value.Integer(1)) {
		t.Fatal("expected key 1 to be gone")
	}
}

func TestRemoveAcrossManyKeysPreservesRest(t *testing.T) {
	tr := New()
	const n = 100
	for i := 0; i < n; i++ {
		tr.Insert(value.Integer(int64(i)), RowID(i))
	}
	// Remove every third key, forcing repeated borrow/merge rebalancing.
	for i := 0; i < n; i += 3 {
		tr.Remove(value.Integer(int64(i)), RowID(i))
	}
	for i := 0; i < n; i++ {
		rows := tr.FindEqual(value.Integer(int64(i)))
		if i%3 == 0 {
			if rows != nil {
				t.Fatalf("key %d: expected removed, got %v", i, rows)
			}
			continue
		}
		if len(rows) != 1 || rows[0] != RowID(i) {
			t.Fatalf("key %d: expected [%d], got %v", i, i, rows)
		}
	}
}

func TestFindRangeInclusiveExclusive(t *testing.T) {
	tr := New()
	for i := 1; i <= 10; i++ {
		tr.Insert(value.Integer(int64(i)), RowID(i))
	}
	lo, hi := value.Integer(3), value.Integer(7)

	rows := tr.FindRange(&lo, &hi, true, true)
	if len(rows) != 5 {
		t.Fatalf("inclusive range [3,7]: got %d rows, want 5: %v", len(rows), rows)
	}

	rows = tr.FindRange(&lo, &hi, false, false)
	if len(rows) != 3 {
		t.Fatalf("exclusive range (3,7): got %d rows, want 3: %v", len(rows), rows)
	}

	rows = tr.FindRange(nil, &hi, false, true)
	if len(rows) != 7 {
		t.Fatalf("unbounded-low range (,7]: got %d rows, want 7: %v", len(rows), rows)
	}
}

func TestFindRangeSkipsUnknownComparisons(t *testing.T) {
	tr := New()
	tr.Insert(value.Text("a"), 1)
	tr.Insert(value.Text("b"), 2)
	lo := value.Integer(0) // incomparable with text keys
	rows := tr.FindRange(&lo, nil, true, true)
	if rows != nil {
		t.Fatalf("expected no rows for an incomparable bound, got %v", rows)
	}
}
