package filesource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
)

func writeTile(t *testing.T, root, kind string, req profiledata.TileRequest, value interface{}) {
	t.Helper()
	dir := filepath.Join(root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	plain, err := cbor.Marshal(value)
	if err != nil {
		t.Fatalf("cbor.Marshal: %v", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(plain, nil)
	if err := os.WriteFile(filepath.Join(dir, req.Slug()), compressed, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestFetchSummaryTileRoundTrip(t *testing.T) {
	root := t.TempDir()
	req := profiledata.TileRequest{
		EntryID: profiledata.Root.Child(0),
		TileID:  profiletime.Interval{Start: 0, Stop: 100},
		Full:    false,
	}
	want := profiledata.SummaryTile{Points: []profiledata.UtilizationPoint{{Time: 0, Util: 0.5}}}
	writeTile(t, root, "summary_tile", req, want)

	src, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer src.Close()

	got, err := src.FetchSummaryTile(req.EntryID, req.TileID, req.Full)
	if err != nil {
		t.Fatalf("FetchSummaryTile: %v", err)
	}
	if len(got.Points) != 1 || got.Points[0].Util != 0.5 {
		t.Fatalf("FetchSummaryTile = %+v, want %+v", got, want)
	}
}

func TestFetchInfoMissingFileIsBackendError(t *testing.T) {
	src, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer src.Close()

	_, err = src.FetchInfo()
	if err == nil {
		t.Fatal("expected error fetching info from empty directory")
	}
}
