package httpsource

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
)

func TestFetchSummaryTileOverHTTP(t *testing.T) {
	want := profiledata.SummaryTile{Points: []profiledata.UtilizationPoint{{Time: 5, Util: 0.25}}}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()

	plain, err := cbor.Marshal(want)
	if err != nil {
		t.Fatalf("cbor.Marshal: %v", err)
	}
	body := enc.EncodeAll(plain, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("full") != "false" {
			t.Errorf("expected full=false query param, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	src := New(srv.URL)
	req := profiledata.TileRequest{EntryID: profiledata.Root, TileID: profiletime.Interval{Start: 0, Stop: 10}, Full: false}
	src.FetchSummaryTile(req.EntryID, req.TileID, req.Full)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got := src.GetSummaryTiles()
		if len(got) == 1 {
			if got[0].Err != nil {
				t.Fatalf("fetch error: %v", got[0].Err)
			}
			if len(got[0].Tile.Points) != 1 || got[0].Tile.Points[0].Util != 0.25 {
				t.Fatalf("tile = %+v, want %+v", got[0].Tile, want)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for async fetch to complete")
}
