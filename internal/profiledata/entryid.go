// Package profiledata holds the entry tree, tile identifiers, and the
// per-item data model shared by the data source, tile manager, and view
// state packages.
package profiledata

import (
	"strconv"
	"strings"
)

// summarySegment is the sentinel appended to an EntryID to address a
// Panel's attached Summary rather than one of its Slot/Panel children.
const summarySegment = "S"

// EntryID identifies a node in the Panel/Slot/Summary tree: the root
// Panel, or a path of child indices from it, optionally ending in the
// Summary sentinel. It is backed by a string so it is comparable and can
// be used directly as a map key (tile caches are keyed by (EntryID,
// TileID) pairs) without a custom Equal/Hash pair.
type EntryID string

// Root is the EntryID of the tree's root Panel, at level 0.
const Root EntryID = ""

// Child returns the EntryID of this entry's i-th child slot/panel.
func (id EntryID) Child(i int) EntryID {
	if id == Root {
		return EntryID(strconv.Itoa(i))
	}
	return id + "/" + EntryID(strconv.Itoa(i))
}

// Summary returns the EntryID addressing this Panel's attached Summary.
func (id EntryID) Summary() EntryID {
	if id == Root {
		return EntryID(summarySegment)
	}
	return id + "/" + summarySegment
}

// segments splits the id into its path components; Root yields none.
func (id EntryID) segments() []string {
	if id == Root {
		return nil
	}
	return strings.Split(string(id), "/")
}

// Level returns the depth of the entry: 0 for the root Panel, 1 for its
// direct children, and so on. A Summary is counted at its parent's depth
// plus one.
func (id EntryID) Level() int {
	return len(id.segments())
}

// IsSummary reports whether id addresses a Summary rather than a
// Panel/Slot.
func (id EntryID) IsSummary() bool {
	segs := id.segments()
	return len(segs) > 0 && segs[len(segs)-1] == summarySegment
}

// SlotIndex returns the slot index at the given depth (0-based). It
// returns (0, false) if depth is out of range or addresses the summary
// sentinel rather than a numeric slot.
func (id EntryID) SlotIndex(depth int) (int, bool) {
	segs := id.segments()
	if depth < 0 || depth >= len(segs) {
		return 0, false
	}
	if segs[depth] == summarySegment {
		return 0, false
	}
	v, err := strconv.Atoi(segs[depth])
	if err != nil {
		return 0, false
	}
	return v, true
}

// LastSlotIndex returns the slot index at the deepest level of id.
func (id EntryID) LastSlotIndex() (int, bool) {
	return id.SlotIndex(id.Level() - 1)
}

// HasPrefix reports whether other is an ancestor of (or equal to) id.
func (id EntryID) HasPrefix(other EntryID) bool {
	if other == Root {
		return true
	}
	if id == other {
		return true
	}
	return strings.HasPrefix(string(id), string(other)+"/")
}

// Parent returns the EntryID of id's immediate parent and true, or
// (Root, false) if id is already the root.
func (id EntryID) Parent() (EntryID, bool) {
	segs := id.segments()
	if len(segs) == 0 {
		return Root, false
	}
	return EntryID(strings.Join(segs[:len(segs)-1], "/")), true
}
