package export

import (
	"fmt"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// ColumnType is the inferred SQL storage type for one dynamic item
// column. Values are ranked low-to-high in the order the lattice's two
// legal promotions move through (see Meet); the rank order by itself is
// not a total merge function.
type ColumnType int

const (
	ColumnEmpty ColumnType = iota // no non-empty value seen yet; absorbed by any other type
	ColumnI64
	ColumnU64
	ColumnString
	ColumnInterval
	ColumnItemLink
	ColumnVec
)

// InferColumnType maps a Field's Kind to the column type a single value
// of that kind would require.
func InferColumnType(kind profiledata.FieldKind) ColumnType {
	switch kind {
	case profiledata.FieldI64:
		return ColumnI64
	case profiledata.FieldU64:
		return ColumnU64
	case profiledata.FieldString:
		return ColumnString
	case profiledata.FieldInterval:
		return ColumnInterval
	case profiledata.FieldItemLink:
		return ColumnItemLink
	case profiledata.FieldVec:
		return ColumnVec
	default:
		return ColumnEmpty
	}
}

// SchemaIncompatible is raised when a column's existing type and a newly
// observed value's type have no legal common widening. Like
// DuplicateEntrySlug, this is a data error the writer cannot recover
// from, so callers panic with it rather than threading it through every
// return path (SPEC_FULL.md §7).
type SchemaIncompatible struct {
	Column string
	A, B   ColumnType
}

func (e *SchemaIncompatible) Error() string {
	return fmt.Sprintf("column %q: incompatible types %v and %v", e.Column, e.A, e.B)
}

// Meet combines two column types into the type a column holding values
// of both must be widened to. It is a partial function: identical types
// always meet to themselves, ColumnEmpty is the lattice's bottom element
// (Meet(Empty, t) == t for any t, absorbed rather than merged since it
// means "no non-empty value seen yet"), and exactly two promotions
// beyond that are legal — U64 widening into String, and either U64 or
// String widening into ItemLink. Every other non-identical pair has no
// legal common representation and returns a *SchemaIncompatible error.
func Meet(a, b ColumnType) (ColumnType, error) {
	if a == b {
		return a, nil
	}
	if a == ColumnEmpty {
		return b, nil
	}
	if b == ColumnEmpty {
		return a, nil
	}
	if isU64String(a, b) {
		return ColumnString, nil
	}
	if isLinkPromotion(a, b) {
		return ColumnItemLink, nil
	}
	return ColumnEmpty, &SchemaIncompatible{A: a, B: b}
}

func isU64String(a, b ColumnType) bool {
	return (a == ColumnU64 && b == ColumnString) || (a == ColumnString && b == ColumnU64)
}

func isLinkPromotion(a, b ColumnType) bool {
	return (a == ColumnU64 && b == ColumnItemLink) || (a == ColumnItemLink && b == ColumnU64) ||
		(a == ColumnString && b == ColumnItemLink) || (a == ColumnItemLink && b == ColumnString)
}

// SQLType returns the SQLite column affinity to declare for t.
func SQLType(t ColumnType) string {
	switch t {
	case ColumnI64:
		return "INTEGER"
	case ColumnU64:
		return "INTEGER"
	case ColumnInterval:
		return "TEXT" // "[start,stop)" rendering; Interval has no native SQLite type
	case ColumnItemLink:
		return "TEXT" // JSON-encoded {item_uid, title, interval, entry_slug}
	case ColumnVec:
		return "TEXT" // bracketed list from vecToJSONish (not strict JSON)
	case ColumnString, ColumnEmpty:
		return "TEXT"
	default:
		return "TEXT"
	}
}
