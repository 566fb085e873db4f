// Package datasource defines the synchronous and split-phase contracts
// that the view-state and export pipelines use to pull tiles from a
// backend, plus the composable wrappers (sync-to-deferred, parallel,
// counting, LRU) that sit in front of a concrete backend.
package datasource

import (
	"fmt"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// BackendError reports a network, decode, or schema failure at fetch
// time. It is never fatal: the caller stores it in the tile cache and the
// renderer paints a red band in place of the tile (spec §7).
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError wraps err with the operation that failed.
func NewBackendError(op string, err error) *BackendError {
	return &BackendError{Op: op, Err: err}
}

// Description is the identifying metadata a backend exposes about where
// its data came from.
type Description struct {
	SourceLocator []string
}

// Info is the one-time startup payload a backend delivers: the entry
// tree, total interval, tile pyramid, field schema, and any
// backend-supplied warning banner.
type Info struct {
	EntryInfo      profiledata.EntryInfo
	Interval       profiledata.TileID
	TileSet        profiledata.TileSet
	FieldSchema    *profiledata.FieldSchema
	WarningMessage string
}

// DataSource is the synchronous read contract consumed directly by the
// export pipeline and by the Sync-to-Deferred wrapper. full=true requests
// the highest-fidelity payload (used for metadata and export); full=false
// requests screen-resolution data.
type DataSource interface {
	FetchDescription() (Description, error)
	FetchInfo() (Info, error)
	FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SummaryTile, error)
	FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SlotTile, error)
	FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SlotMetaTile, error)
}

// SummaryTileResult pairs a fetched SummaryTile (or error) with the
// TileRequest that produced it, so a caller can route the response even
// if it has since navigated away.
type SummaryTileResult struct {
	Request profiledata.TileRequest
	Tile    profiledata.SummaryTile
	Err     error
}

// SlotTileResult is the SlotTile analogue of SummaryTileResult.
type SlotTileResult struct {
	Request profiledata.TileRequest
	Tile    profiledata.SlotTile
	Err     error
}

// SlotMetaTileResult is the SlotMetaTile analogue of SummaryTileResult.
type SlotMetaTileResult struct {
	Request profiledata.TileRequest
	Tile    profiledata.SlotMetaTile
	Err     error
}

// InfoResult pairs a fetched Info (or error) with nothing else — there is
// only ever one Info per backend, requested at most once per session.
type InfoResult struct {
	Info Info
	Err  error
}

// DeferredDataSource is the split-phase request/poll contract: issuing a
// fetch enqueues work, and a later poll drains whatever has completed
// since the last poll. Order of delivery across different TileRequests is
// unspecified; duplicates for the same (EntryID, TileID) are permitted
// and must be handled idempotently by the consumer (last write wins).
type DeferredDataSource interface {
	FetchDescription() (Description, error)

	FetchInfo()
	GetInfos() []InfoResult

	FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool)
	GetSummaryTiles() []SummaryTileResult

	FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool)
	GetSlotTiles() []SlotTileResult

	FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool)
	GetSlotMetaTiles() []SlotMetaTileResult
}
