package viewstate

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

func TestSearchUpdateResetsOnQueryChange(t *testing.T) {
	s := NewSearch("a", 0, 0, false)
	s.Insert(profiledata.Root, interval(0, 10), matchRecord{ItemUID: 1, Title: "a"})

	s.Update("b", 0, false, false, interval(0, 0))

	if s.Count() != 0 {
		t.Errorf("Count() after query change = %d, want 0 (full reset)", s.Count())
	}
}

func TestSearchUpdateEnlargingCollapsedKeepsCache(t *testing.T) {
	s := NewSearch("a", 0, 0, false)
	s.Insert(profiledata.Root, interval(0, 10), matchRecord{ItemUID: 1, Title: "a"})

	s.Update("a", 0, false, true, s.ViewInterval)

	if s.Count() != 1 {
		t.Errorf("Count() after enlarging include_collapsed = %d, want 1 (monotone growth keeps cache)", s.Count())
	}
}

func TestSearchUpdateShrinkingCollapsedResetsCache(t *testing.T) {
	s := NewSearch("a", 0, 0, true)
	s.Insert(profiledata.Root, interval(0, 10), matchRecord{ItemUID: 1, Title: "a"})

	s.Update("a", 0, false, false, s.ViewInterval)

	if s.Count() != 0 {
		t.Errorf("Count() after shrinking include_collapsed = %d, want 0 (domain shrink forces reset)", s.Count())
	}
}
