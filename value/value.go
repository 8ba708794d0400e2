// Package value defines the tagged scalar values stored in tables and
// produced by predicate evaluation, and the comparison/coercion rules
// spec'd for the engine's closed type system.
package value

import (
	"fmt"

	"github.com/Copubah/minidb/dberr"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBoolean
)

// Value is a tagged scalar: exactly one of Int, Flt, Str, Bool is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
}

// Null is the singular null value.
var Null = Value{Kind: KindNull}

func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }
func Text(s string) Value   { return Value{Kind: KindText, Str: s} }
func Boolean(b bool) Value  { return Value{Kind: KindBoolean, Bool: b} }
func IsNull(v Value) bool   { return v.Kind == KindNull }

// Type is a declared column type.
type Type int

const (
	INTEGER Type = iota
	TEXT
	FLOAT
	BOOLEAN
)

func (t Type) String() string {
	switch t {
	case INTEGER:
		return "INTEGER"
	case TEXT:
		return "TEXT"
	case FLOAT:
		return "FLOAT"
	case BOOLEAN:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// ParseType maps an uppercased type keyword to a Type.
func ParseType(s string) (Type, bool) {
	switch s {
	case "INTEGER":
		return INTEGER, true
	case "TEXT":
		return TEXT, true
	case "FLOAT":
		return FLOAT, true
	case "BOOLEAN":
		return BOOLEAN, true
	default:
		return 0, false
	}
}

// Conforms reports whether v's variant matches t, treating Integer as
// conforming to FLOAT (it will be widened by CoerceTo) and Null as
// conforming to every type (constraint checking rejects NULL separately
// via the not_null flag).
func Conforms(v Value, t Type) bool {
	if v.Kind == KindNull {
		return true
	}
	switch t {
	case INTEGER:
		return v.Kind == KindInteger
	case FLOAT:
		return v.Kind == KindFloat || v.Kind == KindInteger
	case TEXT:
		return v.Kind == KindText
	case BOOLEAN:
		return v.Kind == KindBoolean
	default:
		return false
	}
}

// CoerceTo widens v to column type t, performing the one coercion the
// spec pins: Integer values written to a FLOAT column become Float at
// write time, so storage and comparison never see a mismatched variant
// for that column. Any other non-conforming value is a TypeMismatch.
func CoerceTo(v Value, t Type, table, column string) (Value, error) {
	if v.Kind == KindNull {
		return v, nil
	}
	if t == FLOAT && v.Kind == KindInteger {
		return Float(float64(v.Int)), nil
	}
	if !Conforms(v, t) {
		return Value{}, &dberr.ConstraintError{
			Kind:    dberr.TypeMismatch,
			Table:   table,
			Column:  column,
			Message: fmt.Sprintf("value %s does not conform to column type %s", v.describe(), t),
		}
	}
	return v, nil
}

func (v Value) describe() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return fmt.Sprintf("Integer(%d)", v.Int)
	case KindFloat:
		return fmt.Sprintf("Float(%g)", v.Flt)
	case KindText:
		return fmt.Sprintf("Text(%q)", v.Str)
	case KindBoolean:
		return fmt.Sprintf("Boolean(%t)", v.Bool)
	default:
		return "?"
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Flt)
	case KindText:
		return v.Str
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// Compare orders a and b under Value ordering. ok is false whenever
// either side is Null (comparisons involving Null are unknown, not
// false-or-true) or the variants are incomparable (text vs. non-text,
// boolean vs. non-boolean). Numeric cross-type comparisons widen to
// float.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.Kind == KindNull || b.Kind == KindNull {
		return 0, false
	}
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.Kind == KindText && b.Kind == KindText {
		switch {
		case a.Str < b.Str:
			return -1, true
		case a.Str > b.Str:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.Kind == KindBoolean && b.Kind == KindBoolean {
		switch {
		case a.Bool == b.Bool:
			return 0, true
		case !a.Bool && b.Bool:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// Equal reports Value equality per Compare; Null never equals anything,
// including another Null (three-valued semantics: NULL = NULL is
// unknown, which this boolean collapse treats as false).
func Equal(a, b Value) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// LessForSort orders values for ORDER BY, where Null sorts as less than
// any non-null value (spec.md §4.5 step 4), unlike Compare's three-valued
// unknown.
func LessForSort(a, b Value) bool {
	if a.Kind == KindNull && b.Kind == KindNull {
		return false
	}
	if a.Kind == KindNull {
		return true
	}
	if b.Kind == KindNull {
		return false
	}
	cmp, ok := Compare(a, b)
	if !ok {
		return false
	}
	return cmp < 0
}

func isNumeric(k Kind) bool { return k == KindInteger || k == KindFloat }

func asFloat(v Value) float64 {
	if v.Kind == KindInteger {
		return float64(v.Int)
	}
	return v.Flt
}
