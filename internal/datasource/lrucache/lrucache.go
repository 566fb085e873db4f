// Package lrucache fronts a DeferredDataSource with three independent
// bounded caches, one per tile kind, keyed on the full TileRequest
// (entry, interval, and fidelity together, since a full=true and a
// full=false fetch for the same entry/interval are distinct payloads).
//
// Grounded on the shape of the teacher's own internal/cog/tilecache.go
// (a Get-or-miss, Put-on-fill cache sitting in front of a reader), but
// backed here by the real github.com/hashicorp/golang-lru/v2 instead of
// the teacher's hand-rolled slice-ordered map, since the dependency is
// available in the pack (google-skia-buildbot's go.mod) and a generic,
// battle-tested LRU is the idiomatic choice over reimplementing eviction
// order by hand.
//
// This wrapper must sit outside (wrap) a Counting wrapper: a cache hit
// resolves synchronously on Fetch and must never be seen as outstanding
// work by the Counting wrapper beneath it.
package lrucache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// DefaultCapacity is the per-kind entry limit used when New is given a
// non-positive size.
const DefaultCapacity = 1024

// Wrapper caches SummaryTile, SlotTile, and SlotMetaTile results by
// TileRequest, error outcomes included: a failed fetch is cached just
// like a successful one, so a backend that keeps failing for the same
// request is never retried until the viewport changes and the cache
// entry is invalidated (spec §5's no-retries guarantee, §7's "cache the
// error outcome to avoid thrashing"). Info and Description are never
// cached: both are fetched at most once per session already, and
// caching them would just add indirection above syncdeferred/parallel's
// own one-shot behavior.
type Wrapper struct {
	inner datasource.DeferredDataSource

	summaries *lru.Cache[profiledata.TileRequest, datasource.SummaryTileResult]
	slots     *lru.Cache[profiledata.TileRequest, datasource.SlotTileResult]
	slotMetas *lru.Cache[profiledata.TileRequest, datasource.SlotMetaTileResult]

	pendingSummaries []datasource.SummaryTileResult
	pendingSlots     []datasource.SlotTileResult
	pendingSlotMetas []datasource.SlotMetaTileResult
}

// New wraps inner with three LRU caches of the given per-kind capacity
// (DefaultCapacity if capacity <= 0).
func New(inner datasource.DeferredDataSource, capacity int) *Wrapper {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	summaries, _ := lru.New[profiledata.TileRequest, datasource.SummaryTileResult](capacity)
	slots, _ := lru.New[profiledata.TileRequest, datasource.SlotTileResult](capacity)
	slotMetas, _ := lru.New[profiledata.TileRequest, datasource.SlotMetaTileResult](capacity)
	return &Wrapper{
		inner:     inner,
		summaries: summaries,
		slots:     slots,
		slotMetas: slotMetas,
	}
}

func (w *Wrapper) FetchDescription() (datasource.Description, error) {
	return w.inner.FetchDescription()
}

func (w *Wrapper) FetchInfo() {
	w.inner.FetchInfo()
}

func (w *Wrapper) GetInfos() []datasource.InfoResult {
	return w.inner.GetInfos()
}

func (w *Wrapper) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	if result, ok := w.summaries.Get(req); ok {
		w.pendingSummaries = append(w.pendingSummaries, result)
		return
	}
	w.inner.FetchSummaryTile(entryID, tileID, full)
}

func (w *Wrapper) GetSummaryTiles() []datasource.SummaryTileResult {
	fresh := w.inner.GetSummaryTiles()
	for _, result := range fresh {
		w.summaries.Add(result.Request, result)
	}
	out := append(w.pendingSummaries, fresh...)
	w.pendingSummaries = nil
	return out
}

func (w *Wrapper) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	if result, ok := w.slots.Get(req); ok {
		w.pendingSlots = append(w.pendingSlots, result)
		return
	}
	w.inner.FetchSlotTile(entryID, tileID, full)
}

func (w *Wrapper) GetSlotTiles() []datasource.SlotTileResult {
	fresh := w.inner.GetSlotTiles()
	for _, result := range fresh {
		w.slots.Add(result.Request, result)
	}
	out := append(w.pendingSlots, fresh...)
	w.pendingSlots = nil
	return out
}

func (w *Wrapper) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	if result, ok := w.slotMetas.Get(req); ok {
		w.pendingSlotMetas = append(w.pendingSlotMetas, result)
		return
	}
	w.inner.FetchSlotMetaTile(entryID, tileID, full)
}

func (w *Wrapper) GetSlotMetaTiles() []datasource.SlotMetaTileResult {
	fresh := w.inner.GetSlotMetaTiles()
	for _, result := range fresh {
		w.slotMetas.Add(result.Request, result)
	}
	out := append(w.pendingSlotMetas, fresh...)
	w.pendingSlotMetas = nil
	return out
}

// Invalidate drops the given tile requests from all three caches. Used
// when a dynamic profile's tile set changes under a fixed viewport and
// previously cached tiles must be forced to re-fetch.
func (w *Wrapper) Invalidate(requests []profiledata.TileRequest) {
	for _, req := range requests {
		w.summaries.Remove(req)
		w.slots.Remove(req)
		w.slotMetas.Remove(req)
	}
}

var _ datasource.DeferredDataSource = (*Wrapper)(nil)
