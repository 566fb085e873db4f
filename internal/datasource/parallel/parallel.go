// Package parallel dispatches each fetch onto a bounded worker pool and
// collects results in a mutex-guarded queue, draining them on GetXxx.
// Any number of fetches may be in flight at once, bounded by the pool
// size. Grounded on the teacher's own worker-pool idiom in
// internal/tile/generator.go (a buffered jobs channel plus a fixed number
// of goroutines ranging over it), generalized here from "process a fixed
// job list then join" to "accept fetches continuously, drain whenever
// polled".
package parallel

import (
	"sync"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

type job func()

// Wrapper dispatches fetches against inner onto Concurrency worker
// goroutines and collects their results for later draining.
type Wrapper struct {
	inner datasource.DataSource

	jobs chan job
	wg   sync.WaitGroup

	mu        sync.Mutex
	infos     []datasource.InfoResult
	summaries []datasource.SummaryTileResult
	slots     []datasource.SlotTileResult
	slotMetas []datasource.SlotMetaTileResult
}

// DefaultConcurrency mirrors the teacher CLI's default worker count.
const DefaultConcurrency = 4

// New starts a worker pool of the given size (DefaultConcurrency if <= 0)
// dispatching fetches against inner.
func New(inner datasource.DataSource, concurrency int) *Wrapper {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	w := &Wrapper{
		inner: inner,
		jobs:  make(chan job, concurrency*4),
	}
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	return w
}

func (w *Wrapper) worker() {
	defer w.wg.Done()
	for j := range w.jobs {
		j()
	}
}

// Close stops accepting new fetches and waits for in-flight work to
// finish. Safe to call once at shutdown.
func (w *Wrapper) Close() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *Wrapper) FetchDescription() (datasource.Description, error) {
	return w.inner.FetchDescription()
}

func (w *Wrapper) FetchInfo() {
	w.jobs <- func() {
		info, err := w.inner.FetchInfo()
		w.mu.Lock()
		w.infos = append(w.infos, datasource.InfoResult{Info: info, Err: err})
		w.mu.Unlock()
	}
}

func (w *Wrapper) GetInfos() []datasource.InfoResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.infos
	w.infos = nil
	return out
}

func (w *Wrapper) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	w.jobs <- func() {
		tile, err := w.inner.FetchSummaryTile(entryID, tileID, full)
		w.mu.Lock()
		w.summaries = append(w.summaries, datasource.SummaryTileResult{Request: req, Tile: tile, Err: err})
		w.mu.Unlock()
	}
}

func (w *Wrapper) GetSummaryTiles() []datasource.SummaryTileResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.summaries
	w.summaries = nil
	return out
}

func (w *Wrapper) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	w.jobs <- func() {
		tile, err := w.inner.FetchSlotTile(entryID, tileID, full)
		w.mu.Lock()
		w.slots = append(w.slots, datasource.SlotTileResult{Request: req, Tile: tile, Err: err})
		w.mu.Unlock()
	}
}

func (w *Wrapper) GetSlotTiles() []datasource.SlotTileResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.slots
	w.slots = nil
	return out
}

func (w *Wrapper) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	w.jobs <- func() {
		tile, err := w.inner.FetchSlotMetaTile(entryID, tileID, full)
		w.mu.Lock()
		w.slotMetas = append(w.slotMetas, datasource.SlotMetaTileResult{Request: req, Tile: tile, Err: err})
		w.mu.Unlock()
	}
}

func (w *Wrapper) GetSlotMetaTiles() []datasource.SlotMetaTileResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.slotMetas
	w.slotMetas = nil
	return out
}

var _ datasource.DeferredDataSource = (*Wrapper)(nil)
