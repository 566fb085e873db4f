package viewstate

import (
	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
)

// CacheStatus is one of a tile cache entry's four states: pending
// (fetch issued, no response yet), ok (resolved), or err (backend
// failure). The absence of an entry in the map is the implicit fourth
// state, "not requested".
type CacheStatus int

const (
	StatusPending CacheStatus = iota
	StatusOK
	StatusErr
)

// SlotTileEntry is one cache slot in SlotState.Tiles.
type SlotTileEntry struct {
	Status CacheStatus
	Tile   profiledata.SlotTile
	Err    error
}

// SlotMetaEntry is one cache slot in SlotState.TileMetas/TileMetasFull.
type SlotMetaEntry struct {
	Status CacheStatus
	Tile   profiledata.SlotMetaTile
	Err    error
}

// SlotState holds a Slot node's three tile caches: Tiles (screen
// rendering), TileMetas (hover tooltips, screen resolution), and
// TileMetasFull (search/export, full fidelity).
type SlotState struct {
	Tiles         map[profiledata.TileID]*SlotTileEntry
	TileMetas     map[profiledata.TileID]*SlotMetaEntry
	TileMetasFull map[profiledata.TileID]*SlotMetaEntry
}

// NewSlotState returns an empty SlotState.
func NewSlotState() *SlotState {
	return &SlotState{
		Tiles:         make(map[profiledata.TileID]*SlotTileEntry),
		TileMetas:     make(map[profiledata.TileID]*SlotMetaEntry),
		TileMetasFull: make(map[profiledata.TileID]*SlotMetaEntry),
	}
}

// InvalidateTiles drops every Tiles entry not in keep.
func (s *SlotState) InvalidateTiles(keep []profiledata.TileID) {
	invalidateSlotTileMap(s.Tiles, keep)
}

// InvalidateTileMetas drops every TileMetas entry not in keep.
func (s *SlotState) InvalidateTileMetas(keep []profiledata.TileID) {
	invalidateSlotMetaMap(s.TileMetas, keep)
}

// InvalidateTileMetasFull drops every TileMetasFull entry not in keep.
func (s *SlotState) InvalidateTileMetasFull(keep []profiledata.TileID) {
	invalidateSlotMetaMap(s.TileMetasFull, keep)
}

func invalidateSlotTileMap(m map[profiledata.TileID]*SlotTileEntry, keep []profiledata.TileID) {
	keepSet := make(map[profiledata.TileID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range m {
		if _, ok := keepSet[id]; !ok {
			delete(m, id)
		}
	}
}

func invalidateSlotMetaMap(m map[profiledata.TileID]*SlotMetaEntry, keep []profiledata.TileID) {
	keepSet := make(map[profiledata.TileID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range m {
		if _, ok := keepSet[id]; !ok {
			delete(m, id)
		}
	}
}

// DrawnItem is a single Item with the on-screen interval it should be
// drawn at, which may differ from Item.Interval once sub-pixel
// expansion has run.
type DrawnItem struct {
	Item           profiledata.Item
	DrawnInterval  profiletime.Interval
}

// ExpandSubPixelRow computes the drawn intervals for one row of items,
// symmetrically growing any item whose duration is below pixelNS to at
// least one pixel wide, then clamping against its neighbours so rows
// never end up with overlapping drawn intervals. Items must already be
// sorted ascending by Interval.Start and pairwise non-overlapping in
// their stored (not drawn) intervals, per SlotTile's row contract.
//
// Purely a display transform: the returned DrawnItem.Item.Interval is
// left untouched; only DrawnInterval changes.
func ExpandSubPixelRow(items []profiledata.Item, pixelNS profiletime.Timestamp) []DrawnItem {
	out := make([]DrawnItem, len(items))
	for i, item := range items {
		drawn := item.Interval
		if drawn.Duration() < pixelNS {
			drawn = drawn.Grow((pixelNS - drawn.Duration() + 1) / 2)
		}
		out[i] = DrawnItem{Item: item, DrawnInterval: drawn}
	}

	// Clamp against neighbours: a left item's drawn stop cannot pass its
	// right neighbour's drawn start, and vice versa, resolved by meeting
	// in the middle of whatever gap the stored intervals actually left.
	for i := 0; i+1 < len(out); i++ {
		left, right := &out[i], &out[i+1]
		if left.DrawnInterval.Stop <= right.DrawnInterval.Start {
			continue
		}
		gapStart := left.Item.Interval.Stop
		gapStop := right.Item.Interval.Start
		mid := gapStart + (gapStop-gapStart)/2
		if left.DrawnInterval.Stop > mid {
			left.DrawnInterval.Stop = mid
		}
		if right.DrawnInterval.Start < mid {
			right.DrawnInterval.Start = mid
		}
	}

	return out
}
