package viewstate

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

func TestSearchMatchesTitleByDefaultField(t *testing.T) {
	s := NewSearch("alloc", 0, 0, false)

	entry := profiledata.Root.Child(1).Child(2).Child(3)
	tile := interval(0, 10)

	s.StartTile(entry, tile, profiledata.SlotMetaTile{
		Rows: [][]profiledata.ItemMeta{
			{{ItemUID: 1, Title: "malloc region"}},
			{{ItemUID: 2, Title: "free region"}},
		},
	})

	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
	results := s.Results()
	if len(results) != 1 || results[0].ItemUID != 1 {
		t.Fatalf("Results() = %+v, want a single match on item 1", results)
	}
}

func TestSearchTileProcessedOnce(t *testing.T) {
	s := NewSearch("x", 0, 0, false)
	entry := profiledata.Root.Child(0).Child(0).Child(0)
	tile := interval(0, 10)
	slotTile := profiledata.SlotMetaTile{Rows: [][]profiledata.ItemMeta{{{ItemUID: 1, Title: "x"}}}}

	s.StartTile(entry, tile, slotTile)
	s.StartTile(entry, tile, slotTile)

	if s.Count() != 1 {
		t.Errorf("Count() after processing the same tile twice = %d, want 1 (dedup + single-processing)", s.Count())
	}
}

func TestSearchBoundNeverExceeded(t *testing.T) {
	s := NewSearch("x", 0, 0, false)
	for i := uint64(0); i < 5; i++ {
		s.Insert(profiledata.Root, interval(0, 10), matchRecord{ItemUID: i, Title: "x"})
	}
	if s.Count() > MaxSearchResults {
		t.Errorf("Count() = %d exceeds bound %d", s.Count(), MaxSearchResults)
	}
}

func TestSearchEntryTreeGrouping(t *testing.T) {
	s := NewSearch("x", 0, 0, false)
	entry := profiledata.Root.Child(1).Child(2).Child(3)
	s.Insert(entry, interval(0, 10), matchRecord{ItemUID: 1, Title: "x"})

	if _, ok := s.EntryTree[1][2][3]; !ok {
		t.Errorf("EntryTree missing grouping for entry %v: %v", entry, s.EntryTree)
	}
}
