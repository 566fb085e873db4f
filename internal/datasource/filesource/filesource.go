// Package filesource implements datasource.DataSource against a local
// directory of pre-generated tile blobs: one "info" file holding the
// startup payload, and three subdirectories (summary_tile, slot_tile,
// slot_meta_tile) each holding one zstd(CBOR) blob per tile, named by
// the URL-safe slug of its TileRequest.
//
// Grounded on the teacher's on-disk reader idiom: internal/cog/reader.go
// opens a single file and serves reads against it, and
// internal/pmtiles/writer.go lays a tile archive out as one blob per
// (tile) key with a directory mapping keys to offsets. filesource keeps
// the "one file per tile" directory layout used by the teacher's own
// intermediate tmpFile storage rather than the final single-archive
// format, since tiles here are written once by a producer outside this
// module and never need PMTiles' offset-coalescing.
package filesource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

const (
	infoFileName     = "info"
	summaryTileDir   = "summary_tile"
	slotTileDir      = "slot_tile"
	slotMetaTileDir  = "slot_meta_tile"
)

// Source reads tiles from a directory populated outside this module.
// Source only reads; internal/export writes a SQLite database, not this
// layout.
type Source struct {
	root string

	decoder *zstd.Decoder
}

// New opens a filesource rooted at dir. The directory need not contain
// anything yet; FetchInfo will fail until an "info" file is written.
func New(dir string) (*Source, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("filesource: creating zstd decoder: %w", err)
	}
	return &Source{root: dir, decoder: decoder}, nil
}

// Close releases the decoder's resources.
func (s *Source) Close() {
	s.decoder.Close()
}

func (s *Source) FetchDescription() (datasource.Description, error) {
	abs, err := filepath.Abs(s.root)
	if err != nil {
		abs = s.root
	}
	return datasource.Description{SourceLocator: []string{abs}}, nil
}

func (s *Source) FetchInfo() (datasource.Info, error) {
	var info datasource.Info
	if err := s.readCBOR(filepath.Join(s.root, infoFileName), &info); err != nil {
		return datasource.Info{}, datasource.NewBackendError("fetch_info", err)
	}
	return info, nil
}

func (s *Source) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SummaryTile, error) {
	var tile profiledata.SummaryTile
	err := s.fetchTile(summaryTileDir, entryID, tileID, full, &tile)
	return tile, err
}

func (s *Source) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SlotTile, error) {
	var tile profiledata.SlotTile
	err := s.fetchTile(slotTileDir, entryID, tileID, full, &tile)
	return tile, err
}

func (s *Source) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) (profiledata.SlotMetaTile, error) {
	var tile profiledata.SlotMetaTile
	err := s.fetchTile(slotMetaTileDir, entryID, tileID, full, &tile)
	return tile, err
}

func (s *Source) fetchTile(kind string, entryID profiledata.EntryID, tileID profiledata.TileID, full bool, out interface{}) error {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	path := filepath.Join(s.root, kind, req.Slug())
	if err := s.readCBOR(path, out); err != nil {
		return datasource.NewBackendError("fetch_"+kind, err)
	}
	return nil
}

// resultEnvelope is the CBOR shape a tile may be wrapped in: exactly one
// of Ok/Err populated. Older writers emit the bare value with no
// envelope at all; readCBOR accepts both.
type resultEnvelope struct {
	Ok  cbor.RawMessage `cbor:"Ok,omitempty"`
	Err *string         `cbor:"Err,omitempty"`
}

func (s *Source) readCBOR(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	plain, err := s.decoder.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", path, err)
	}

	var envelope resultEnvelope
	if err := cbor.Unmarshal(plain, &envelope); err == nil && (envelope.Ok != nil || envelope.Err != nil) {
		if envelope.Err != nil {
			return fmt.Errorf("backend reported: %s", *envelope.Err)
		}
		if err := cbor.Unmarshal(envelope.Ok, out); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		return nil
	}

	if err := cbor.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// TilePath returns the on-disk path a tile of the given kind and request
// would be written to: the same path fetchTile reads from. Nothing in
// this module writes tiles.
func TilePath(root, kind string, req profiledata.TileRequest) string {
	return filepath.Join(root, kind, req.Slug())
}

// InfoPath returns the on-disk path of the info file under root.
func InfoPath(root string) string {
	return filepath.Join(root, infoFileName)
}

// Dirs returns the three tile subdirectory names, in a stable order,
// for callers that need to create them (e.g. os.MkdirAll) before writing.
func Dirs() []string {
	return []string{summaryTileDir, slotTileDir, slotMetaTileDir}
}

var _ datasource.DataSource = (*Source)(nil)
