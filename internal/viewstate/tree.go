// Package viewstate mirrors a profile's EntryInfo as a live Panel/Slot/
// Summary tree carrying per-entry tile caches, expand/collapse state,
// and the scroll-to-item and search protocols that sit on top of it.
//
// Grounded on the teacher's EntryInfo.Walk/Lookup discipline
// (internal/profiledata) for tree traversal, and on
// internal/tile/diskstore.go's cache-entry state machine (pending vs
// resolved vs failed) for the per-tile cache states below.
package viewstate

import "github.com/pspoerri/profileviewer/internal/profiledata"

// Node mirrors one EntryInfo node plus its live UI state.
type Node struct {
	EntryID profiledata.EntryID
	Kind    profiledata.EntryKind

	// Expanded applies to Panel nodes only. Default: every level except
	// level 2 (the "kind" axis) starts expanded.
	Expanded bool

	Children []*Node

	// Slot is non-nil only for KindSlot nodes.
	Slot *SlotState
}

// BuildTree walks info and produces the live Node tree, applying the
// default expand/collapse rule (level 2 collapsed, everything else
// expanded).
func BuildTree(info *profiledata.EntryInfo) *Node {
	return buildNode(profiledata.Root, info)
}

func buildNode(id profiledata.EntryID, info *profiledata.EntryInfo) *Node {
	n := &Node{
		EntryID:  id,
		Kind:     info.Kind,
		Expanded: id.Level() != 2,
	}
	if info.Kind == profiledata.KindSlot {
		n.Slot = NewSlotState()
	}
	for i := range info.Slots {
		n.Children = append(n.Children, buildNode(id.Child(i), &info.Slots[i]))
	}
	return n
}

// Lookup finds the node addressing id, or nil if none does.
func (n *Node) Lookup(id profiledata.EntryID) *Node {
	if n.EntryID == id {
		return n
	}
	if !id.HasPrefix(n.EntryID) {
		return nil
	}
	for _, child := range n.Children {
		if found := child.Lookup(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for every node in the tree, pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// ExpandAncestors force-expands every Panel ancestor of id, including
// id's own node if it is a Panel. Used by the expand-on-follow behavior
// when an item link is activated and its target must become visible.
func (n *Node) ExpandAncestors(id profiledata.EntryID) {
	cur := id
	for {
		if node := n.Lookup(cur); node != nil && node.Kind == profiledata.KindPanel {
			node.Expanded = true
		}
		parent, ok := cur.Parent()
		if !ok {
			return
		}
		cur = parent
	}
}

// VisibilityFilter restricts which level-1 ("node axis") and level-2
// ("kind axis") panels are shown, and whether collapsed subtrees are
// still traversed.
type VisibilityFilter struct {
	MinNode           int
	MaxNode           int
	KindFilter        map[int]bool // empty/nil ⇒ all kinds pass
	IncludeCollapsed  bool
}

// Visible reports whether node passes the filter given its position in
// the tree. level1Index and level2Index are the node's own slot indices
// at levels 1 and 2 respectively, when applicable (-1 if not at that
// level or not yet known).
func (f VisibilityFilter) Visible(node *Node, level1Index, level2Index int) bool {
	if node.EntryID.Level() == 1 && level1Index >= 0 {
		if level1Index < f.MinNode || level1Index > f.MaxNode {
			return false
		}
	}
	if node.EntryID.Level() == 2 && level2Index >= 0 && len(f.KindFilter) > 0 {
		if !f.KindFilter[level2Index] {
			return false
		}
	}
	return true
}

// CollapsedSkip reports whether a subtree rooted at a collapsed panel
// should be skipped during traversal, given the filter's
// IncludeCollapsed setting.
func (f VisibilityFilter) CollapsedSkip(node *Node) bool {
	return node.Kind == profiledata.KindPanel && !node.Expanded && !f.IncludeCollapsed
}
