package profiledata

import "strconv"

// Color is a packed RGBA color, matching the wire representation used by
// every tile payload and entry that carries display color.
type Color struct {
	R, G, B, A uint8
}

// EntryInfo describes a node in the Panel/Slot/Summary tree as delivered
// by DataSourceInfo. Kind reports which variant the node is; only the
// fields grouped under that variant below are meaningful.
type EntryInfo struct {
	Kind EntryKind

	// Common to Panel and Slot.
	ShortName string
	LongName  string

	// Panel-only.
	Summary *SummaryInfo
	Slots   []EntryInfo

	// Slot-only.
	MaxRows uint64

	// Summary-only.
	Color Color
}

// EntryKind discriminates the three EntryInfo variants.
type EntryKind int

const (
	KindPanel EntryKind = iota
	KindSlot
	KindSummary
)

// SummaryInfo is the Summary attached to a Panel. It is not itself an
// EntryInfo node in Slots; it is addressed via EntryID.Summary().
type SummaryInfo struct {
	Color Color
}

// Walk calls fn for every Panel/Slot in the tree rooted at info, passing
// each node's EntryID. It does not visit Summary nodes directly; a
// Panel's Summary, if present, is reported via the Panel's own callback
// (callers check info.Summary).
func (info *EntryInfo) Walk(id EntryID, fn func(EntryID, *EntryInfo)) {
	fn(id, info)
	for i := range info.Slots {
		info.Slots[i].Walk(id.Child(i), fn)
	}
}

// Lookup resolves an EntryID to its EntryInfo node by walking the tree
// from root. Returns nil if the id does not address a Panel or Slot
// (Summary ids resolve to their parent Panel's SummaryInfo being
// examined by the caller instead).
func (info *EntryInfo) Lookup(id EntryID) *EntryInfo {
	if id == Root {
		return info
	}
	segs := id.segments()
	cur := info
	for _, seg := range segs {
		if seg == summarySegment {
			return nil
		}
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(cur.Slots) {
			return nil
		}
		cur = &cur.Slots[idx]
	}
	return cur
}
