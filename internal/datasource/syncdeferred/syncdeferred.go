// Package syncdeferred adapts a synchronous datasource.DataSource into
// the split-phase datasource.DeferredDataSource contract by calling
// straight through on the issuing goroutine and stashing the result for
// the next drain. Single-thread only: concurrent Fetch/Get calls from
// different goroutines are not safe, matching the spec's requirement
// that this wrapper never itself introduce concurrency.
package syncdeferred

import (
	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// Wrapper turns a datasource.DataSource into a datasource.DeferredDataSource.
type Wrapper struct {
	inner datasource.DataSource

	infos     []datasource.InfoResult
	summaries []datasource.SummaryTileResult
	slots     []datasource.SlotTileResult
	slotMetas []datasource.SlotMetaTileResult
}

// New wraps inner.
func New(inner datasource.DataSource) *Wrapper {
	return &Wrapper{inner: inner}
}

func (w *Wrapper) FetchDescription() (datasource.Description, error) {
	return w.inner.FetchDescription()
}

func (w *Wrapper) FetchInfo() {
	info, err := w.inner.FetchInfo()
	w.infos = append(w.infos, datasource.InfoResult{Info: info, Err: err})
}

func (w *Wrapper) GetInfos() []datasource.InfoResult {
	out := w.infos
	w.infos = nil
	return out
}

func (w *Wrapper) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	tile, err := w.inner.FetchSummaryTile(entryID, tileID, full)
	w.summaries = append(w.summaries, datasource.SummaryTileResult{Request: req, Tile: tile, Err: err})
}

func (w *Wrapper) GetSummaryTiles() []datasource.SummaryTileResult {
	out := w.summaries
	w.summaries = nil
	return out
}

func (w *Wrapper) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	tile, err := w.inner.FetchSlotTile(entryID, tileID, full)
	w.slots = append(w.slots, datasource.SlotTileResult{Request: req, Tile: tile, Err: err})
}

func (w *Wrapper) GetSlotTiles() []datasource.SlotTileResult {
	out := w.slots
	w.slots = nil
	return out
}

func (w *Wrapper) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	tile, err := w.inner.FetchSlotMetaTile(entryID, tileID, full)
	w.slotMetas = append(w.slotMetas, datasource.SlotMetaTileResult{Request: req, Tile: tile, Err: err})
}

func (w *Wrapper) GetSlotMetaTiles() []datasource.SlotMetaTileResult {
	out := w.slotMetas
	w.slotMetas = nil
	return out
}

var _ datasource.DeferredDataSource = (*Wrapper)(nil)
