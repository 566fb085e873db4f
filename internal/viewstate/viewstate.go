package viewstate

import (
	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
	"github.com/pspoerri/profileviewer/internal/tilemanager"
)

// ViewState owns the live Panel/Slot/Summary tree, the tile manager that
// decides which tiles a given viewport needs, and the deferred data
// source those tiles are fetched through. It is single-threaded: the
// render loop owns it exclusively, per spec.md §5.
type ViewState struct {
	Root     *Node
	Manager  *tilemanager.Manager
	Source   datasource.DeferredDataSource
	Interval profiletime.Interval

	Filter VisibilityFilter

	PendingScroll *ScrollRequest
}

// New builds a ViewState from a freshly fetched Info and the deferred
// source it came from.
func New(info datasource.Info, source datasource.DeferredDataSource) *ViewState {
	return &ViewState{
		Root:     BuildTree(&info.EntryInfo),
		Manager:  tilemanager.New(info.Interval, info.TileSet),
		Source:   source,
		Interval: info.Interval,
		Filter:   VisibilityFilter{MinNode: 0, MaxNode: int(^uint(0) >> 1)},
	}
}

// RenderFrame runs one iteration of the per-frame protocol from spec.md
// §4.3 for every visible Slot: compute the tiles the viewport needs,
// invalidate stale cache entries, issue fetches for anything missing,
// and leave already-resolved entries alone.
func (vs *ViewState) RenderFrame(view profiletime.Interval) {
	tileIDs := vs.Manager.RequestTiles(view, false)

	vs.Root.Walk(func(n *Node) {
		if n.Slot == nil {
			return
		}
		for id, ok := n.EntryID, true; ok; id, ok = id.Parent() {
			l1, _ := id.SlotIndex(0)
			l2, _ := id.SlotIndex(1)
			if p := vs.Root.Lookup(id); p != nil && (vs.Filter.CollapsedSkip(p) || !vs.Filter.Visible(p, l1, l2)) {
				return
			}
		}
		vs.syncSlotTiles(n, tileIDs)
	})
}

func (vs *ViewState) syncSlotTiles(n *Node, tileIDs []profiledata.TileID) {
	n.Slot.InvalidateTiles(tileIDs)
	for _, tileID := range tileIDs {
		if _, ok := n.Slot.Tiles[tileID]; ok {
			continue
		}
		n.Slot.Tiles[tileID] = &SlotTileEntry{Status: StatusPending}
		vs.Source.FetchSlotTile(n.EntryID, tileID, false)
	}
}

// DrainSlotTiles moves every completed SlotTile response from the
// source into its owning Slot's cache. Late responses for entries that
// have since been invalidated out of the cache (the soft-cancel policy
// of spec.md §5) are dropped silently.
func (vs *ViewState) DrainSlotTiles() {
	for _, result := range vs.Source.GetSlotTiles() {
		node := vs.Root.Lookup(result.Request.EntryID)
		if node == nil || node.Slot == nil {
			continue
		}
		entry, ok := node.Slot.Tiles[result.Request.TileID]
		if !ok {
			continue
		}
		if result.Err != nil {
			entry.Status = StatusErr
			entry.Err = result.Err
			continue
		}
		entry.Status = StatusOK
		entry.Tile = result.Tile
	}
}

// RequestHoverMeta issues a screen-resolution meta fetch for tileID on
// slotID, for tooltip rendering on hover.
func (vs *ViewState) RequestHoverMeta(slotID profiledata.EntryID, tileID profiledata.TileID) {
	node := vs.Root.Lookup(slotID)
	if node == nil || node.Slot == nil {
		return
	}
	if _, ok := node.Slot.TileMetas[tileID]; ok {
		return
	}
	node.Slot.TileMetas[tileID] = &SlotMetaEntry{Status: StatusPending}
	vs.Source.FetchSlotMetaTile(slotID, tileID, false)
}

// RequestSearchMeta issues a full-fidelity meta fetch for every tile
// covering the subtree rooted at slotID, used when a search touches that
// slot.
func (vs *ViewState) RequestSearchMeta(slotID profiledata.EntryID, view profiletime.Interval) {
	node := vs.Root.Lookup(slotID)
	if node == nil || node.Slot == nil {
		return
	}
	for _, tileID := range vs.Manager.RequestTiles(view, true) {
		if _, ok := node.Slot.TileMetasFull[tileID]; ok {
			continue
		}
		node.Slot.TileMetasFull[tileID] = &SlotMetaEntry{Status: StatusPending}
		vs.Source.FetchSlotMetaTile(slotID, tileID, true)
	}
}

// DrainSlotMetas moves completed meta responses into both TileMetas and
// TileMetasFull, routed by the Full flag on each response's request.
func (vs *ViewState) DrainSlotMetas() {
	for _, result := range vs.Source.GetSlotMetaTiles() {
		node := vs.Root.Lookup(result.Request.EntryID)
		if node == nil || node.Slot == nil {
			continue
		}
		m := node.Slot.TileMetas
		if result.Request.Full {
			m = node.Slot.TileMetasFull
		}
		entry, ok := m[result.Request.TileID]
		if !ok {
			continue
		}
		if result.Err != nil {
			entry.Status = StatusErr
			entry.Err = result.Err
			continue
		}
		entry.Status = StatusOK
		entry.Tile = result.Tile
	}
}

// AdvanceScroll runs the pending scroll request, if any, and clears it
// once resolved.
func (vs *ViewState) AdvanceScroll() (ScrollTarget, bool) {
	if vs.PendingScroll == nil {
		return ScrollTarget{}, false
	}
	target, ok := vs.PendingScroll.Advance(vs.Root)
	if vs.PendingScroll.Resolved {
		vs.PendingScroll = nil
	}
	return target, ok
}
