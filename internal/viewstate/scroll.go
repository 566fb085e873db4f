package viewstate

import "github.com/pspoerri/profileviewer/internal/profiledata"

// ScrollRequest carries a pending scroll-to-item operation. OptionalRow
// is nil when the caller only knows the item's uid, not its row.
//
// Supplemented from original_source/src/app/core.rs: the original keeps
// a last_scroll_target that survives across frames until the scroll
// actually succeeds, not merely until it is attempted once. Resolved
// mirrors that: the request is retried every frame until Resolved is set;
// while its entry is missing from the tree, each retry finds nothing and
// the request stays pending.
type ScrollRequest struct {
	EntryID     profiledata.EntryID
	OptionalRow *int
	ItemUID     uint64

	Resolved bool

	started bool // true once the first Advance call has run
}

// ScrollTarget is a concrete row to scroll the viewport to.
type ScrollTarget struct {
	EntryID profiledata.EntryID
	Row     int
}

// Advance runs one frame of the scroll-to-item protocol against req. It
// returns the scroll target to apply this frame, if any.
//
// First frame: scroll to (entry_id, row or 0). If OptionalRow is known,
// that scroll resolves the request immediately. If it was absent, the
// first frame still scrolls to row 0 but does not resolve — the request
// is demoted to a retry slot instead.
//
// Once demoted, each subsequent Advance scans the slot's Tiles cache for
// a tile containing ItemUID; on a hit, the row is computed in screen
// space (rows-1-rawRow, since rows are stored bottom-up but drawn
// top-down) and the request resolves.
func (req *ScrollRequest) Advance(node *Node) (ScrollTarget, bool) {
	if req.Resolved {
		return ScrollTarget{}, false
	}

	if !req.started {
		req.started = true
		if req.OptionalRow != nil {
			req.Resolved = true
			return ScrollTarget{EntryID: req.EntryID, Row: *req.OptionalRow}, true
		}
		return ScrollTarget{EntryID: req.EntryID, Row: 0}, true
	}

	slotNode := node.Lookup(req.EntryID)
	if slotNode == nil || slotNode.Slot == nil {
		return ScrollTarget{}, false
	}

	for _, entry := range slotNode.Slot.Tiles {
		if entry.Status != StatusOK {
			continue
		}
		rows := len(entry.Tile.Rows)
		for rawRow, row := range entry.Tile.Rows {
			for _, item := range row {
				if item.ItemUID != req.ItemUID {
					continue
				}
				req.Resolved = true
				return ScrollTarget{EntryID: req.EntryID, Row: rows - rawRow - 1}, true
			}
		}
	}

	return ScrollTarget{}, false
}

// FollowItemLink resolves an activated ItemLink into a scroll request,
// force-expanding every Panel ancestor of the link's target entry along
// the way (expand-on-follow) so the target row is visible once the
// scroll resolves.
func FollowItemLink(root *Node, link profiledata.ItemLink) *ScrollRequest {
	root.ExpandAncestors(link.EntryID)
	return &ScrollRequest{EntryID: link.EntryID, ItemUID: link.ItemUID}
}
