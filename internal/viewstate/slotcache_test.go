package viewstate

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
)

func interval(start, stop int64) profiletime.Interval {
	return profiletime.Interval{Start: profiletime.Timestamp(start), Stop: profiletime.Timestamp(stop)}
}

func TestExpandSubPixelRowClampsAgainstNeighbours(t *testing.T) {
	items := []profiledata.Item{
		{ItemUID: 1, Interval: interval(100, 101)},
		{ItemUID: 2, Interval: interval(102, 103)},
	}

	drawn := ExpandSubPixelRow(items, 5)

	if len(drawn) != 2 {
		t.Fatalf("len(drawn) = %d, want 2", len(drawn))
	}
	if drawn[0].DrawnInterval.Stop > drawn[1].DrawnInterval.Start {
		t.Fatalf("drawn intervals overlap: %v vs %v", drawn[0].DrawnInterval, drawn[1].DrawnInterval)
	}
	if drawn[0].Item.Interval != items[0].Interval {
		t.Error("stored interval was mutated by the display transform")
	}
	if drawn[1].Item.Interval != items[1].Interval {
		t.Error("stored interval was mutated by the display transform")
	}
}

func TestExpandSubPixelRowNoExpansionNeeded(t *testing.T) {
	items := []profiledata.Item{
		{ItemUID: 1, Interval: interval(0, 100)},
	}
	drawn := ExpandSubPixelRow(items, 5)
	if drawn[0].DrawnInterval != items[0].Interval {
		t.Errorf("item wider than pixelNS should be unchanged, got %v", drawn[0].DrawnInterval)
	}
}

func TestInvalidateTilesKeepsOnlyRequested(t *testing.T) {
	s := NewSlotState()
	a, b, c := interval(0, 1), interval(1, 2), interval(2, 3)
	s.Tiles[a] = &SlotTileEntry{Status: StatusOK}
	s.Tiles[b] = &SlotTileEntry{Status: StatusOK}
	s.Tiles[c] = &SlotTileEntry{Status: StatusPending}

	s.InvalidateTiles([]profiledata.TileID{b})

	if len(s.Tiles) != 1 {
		t.Fatalf("len(Tiles) = %d, want 1", len(s.Tiles))
	}
	if _, ok := s.Tiles[b]; !ok {
		t.Error("expected tile B to survive invalidation")
	}
}
