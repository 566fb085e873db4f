package export

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

func TestInferAndMeetColumnType(t *testing.T) {
	u64 := InferColumnType(profiledata.FieldU64)
	str := InferColumnType(profiledata.FieldString)
	link := InferColumnType(profiledata.FieldItemLink)

	if u64 != ColumnU64 {
		t.Fatalf("InferColumnType(FieldU64) = %v, want ColumnU64", u64)
	}
	if str != ColumnString {
		t.Fatalf("InferColumnType(FieldString) = %v, want ColumnString", str)
	}

	if got, err := Meet(u64, str); err != nil || got != ColumnString {
		t.Errorf("Meet(U64, String) = (%v, %v), want (ColumnString, nil)", got, err)
	}
	if got, err := Meet(str, link); err != nil || got != ColumnItemLink {
		t.Errorf("Meet(String, ItemLink) = (%v, %v), want (ColumnItemLink, nil)", got, err)
	}
}

func TestMeetRejectsIllegalPair(t *testing.T) {
	if _, err := Meet(ColumnI64, ColumnInterval); err == nil {
		t.Fatal("Meet(I64, Interval) should fail, no legal common type")
	} else if _, ok := err.(*SchemaIncompatible); !ok {
		t.Errorf("Meet error = %T, want *SchemaIncompatible", err)
	}
}

// acceptedPairs lists every (a, b) combination Meet accepts: identical
// pairs, ColumnEmpty absorption in both directions, and the two named
// promotions (spec.md §4.5). TestMeetIdempotentCommutativeAssociative
// only asserts the algebraic properties over these, since most pairs
// outside this set are illegal and return a *SchemaIncompatible error
// rather than a meaningful ColumnType.
func acceptedPairs() [][2]ColumnType {
	types := []ColumnType{ColumnEmpty, ColumnI64, ColumnU64, ColumnString, ColumnInterval, ColumnItemLink, ColumnVec}
	var pairs [][2]ColumnType
	for _, t1 := range types {
		pairs = append(pairs, [2]ColumnType{t1, t1})
	}
	for _, t := range types {
		pairs = append(pairs, [2]ColumnType{ColumnEmpty, t}, [2]ColumnType{t, ColumnEmpty})
	}
	pairs = append(pairs,
		[2]ColumnType{ColumnU64, ColumnString}, [2]ColumnType{ColumnString, ColumnU64},
		[2]ColumnType{ColumnU64, ColumnItemLink}, [2]ColumnType{ColumnItemLink, ColumnU64},
		[2]ColumnType{ColumnString, ColumnItemLink}, [2]ColumnType{ColumnItemLink, ColumnString},
	)
	return pairs
}

func TestMeetIdempotentCommutativeAssociative(t *testing.T) {
	pairs := acceptedPairs()

	for _, p := range pairs {
		t1, t2 := p[0], p[1]
		if t1 == t2 {
			if got, err := Meet(t1, t1); err != nil || got != t1 {
				t.Errorf("Meet(%v, %v) = (%v, %v), want (%v, nil)", t1, t1, got, err, t1)
			}
		}

		ab, errAB := Meet(t1, t2)
		ba, errBA := Meet(t2, t1)
		if (errAB == nil) != (errBA == nil) || (errAB == nil && ab != ba) {
			t.Errorf("Meet not commutative for (%v, %v): (%v, %v) vs (%v, %v)", t1, t2, ab, errAB, ba, errBA)
		}
	}

	for _, p := range pairs {
		t1, t2 := p[0], p[1]
		for _, t3 := range []ColumnType{ColumnEmpty, t1, t2} {
			left, errL := Meet(t1, t2)
			if errL != nil {
				continue
			}
			leftAssoc, errLA := Meet(left, t3)
			right, errR := Meet(t2, t3)
			if errR != nil {
				continue
			}
			rightAssoc, errRA := Meet(t1, right)
			if (errLA == nil) != (errRA == nil) {
				continue
			}
			if errLA == nil && leftAssoc != rightAssoc {
				t.Errorf("Meet not associative for (%v, %v, %v): %v vs %v", t1, t2, t3, leftAssoc, rightAssoc)
			}
		}
	}
}
