// Package counting tracks the number of fetches issued to a wrapped
// DeferredDataSource that have not yet been drained, so a view layer can
// show a loading indicator while requests are outstanding. Grounded on
// internal/tile/generator.go's use of an atomic counter to track
// in-flight tile generation work without a mutex on the hot path.
package counting

import (
	"sync/atomic"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// Wrapper increments Outstanding on every Fetch call and decrements it by
// the number of results returned from every Get call. Cache hits must
// never reach this wrapper's Fetch methods — place it inside (wrapped by)
// an LRU wrapper, never outside it, or hits will be double-counted as
// outstanding work that never completes.
type Wrapper struct {
	inner       datasource.DeferredDataSource
	outstanding atomic.Int64
}

// New wraps inner.
func New(inner datasource.DeferredDataSource) *Wrapper {
	return &Wrapper{inner: inner}
}

// Outstanding returns the number of fetches issued but not yet drained.
// Never negative: a Get draining more results than remain outstanding
// indicates a bug in the wrapped source, not a valid state to represent.
func (w *Wrapper) Outstanding() int64 {
	return w.outstanding.Load()
}

func (w *Wrapper) FetchDescription() (datasource.Description, error) {
	return w.inner.FetchDescription()
}

func (w *Wrapper) FetchInfo() {
	w.outstanding.Add(1)
	w.inner.FetchInfo()
}

func (w *Wrapper) GetInfos() []datasource.InfoResult {
	out := w.inner.GetInfos()
	w.drain(len(out))
	return out
}

func (w *Wrapper) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	w.outstanding.Add(1)
	w.inner.FetchSummaryTile(entryID, tileID, full)
}

func (w *Wrapper) GetSummaryTiles() []datasource.SummaryTileResult {
	out := w.inner.GetSummaryTiles()
	w.drain(len(out))
	return out
}

func (w *Wrapper) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	w.outstanding.Add(1)
	w.inner.FetchSlotTile(entryID, tileID, full)
}

func (w *Wrapper) GetSlotTiles() []datasource.SlotTileResult {
	out := w.inner.GetSlotTiles()
	w.drain(len(out))
	return out
}

func (w *Wrapper) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	w.outstanding.Add(1)
	w.inner.FetchSlotMetaTile(entryID, tileID, full)
}

func (w *Wrapper) GetSlotMetaTiles() []datasource.SlotMetaTileResult {
	out := w.inner.GetSlotMetaTiles()
	w.drain(len(out))
	return out
}

// drain decrements outstanding by n and asserts the result never goes
// negative: draining more results than were ever fetched means the
// wrapped source returned results it was never asked for.
func (w *Wrapper) drain(n int) {
	if w.outstanding.Add(-int64(n)) < 0 {
		panic("counting: outstanding went negative")
	}
}

var _ datasource.DeferredDataSource = (*Wrapper)(nil)
