// Package httpsource implements datasource.DeferredDataSource against an
// HTTP server exposing one endpoint per tile kind: GET
// {base}/{kind}/{slug}?full={bool}, returning a zstd(CBOR) body.
//
// The teacher has no HTTP client of its own; this is grounded instead on
// its worker-dispatch idiom in internal/tile/generator.go (each request
// is handed to its own goroutine, which posts its result through a
// mutex-guarded queue rather than a channel, since the number of
// concurrent outstanding fetches is unbounded and driven by the caller
// rather than a fixed worker pool).
package httpsource

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/profiledata"
)

const (
	summaryTileKind  = "summary_tile"
	slotTileKind     = "slot_tile"
	slotMetaTileKind = "slot_meta_tile"
)

// Source issues HTTP requests for tiles against a base URL, one goroutine
// per Fetch call, and buffers completed results for the next Get call.
type Source struct {
	base   string
	client *http.Client

	decoderPool sync.Pool

	mu        sync.Mutex
	infos     []datasource.InfoResult
	summaries []datasource.SummaryTileResult
	slots     []datasource.SlotTileResult
	slotMetas []datasource.SlotMetaTileResult
}

// DefaultTimeout bounds a single tile fetch.
const DefaultTimeout = 30 * time.Second

// New returns a Source issuing requests against baseURL.
func New(baseURL string) *Source {
	s := &Source{
		base:   baseURL,
		client: &http.Client{Timeout: DefaultTimeout},
	}
	s.decoderPool.New = func() interface{} {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic(err)
		}
		return dec
	}
	return s
}

func (s *Source) FetchDescription() (datasource.Description, error) {
	return datasource.Description{SourceLocator: []string{s.base}}, nil
}

func (s *Source) FetchInfo() {
	go func() {
		info, err := fetchCBOR[datasource.Info](s, "info", "", false)
		s.mu.Lock()
		s.infos = append(s.infos, datasource.InfoResult{Info: info, Err: err})
		s.mu.Unlock()
	}()
}

func (s *Source) GetInfos() []datasource.InfoResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.infos
	s.infos = nil
	return out
}

func (s *Source) FetchSummaryTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	go func() {
		tile, err := fetchCBOR[profiledata.SummaryTile](s, summaryTileKind, req.Slug(), full)
		s.mu.Lock()
		s.summaries = append(s.summaries, datasource.SummaryTileResult{Request: req, Tile: tile, Err: err})
		s.mu.Unlock()
	}()
}

func (s *Source) GetSummaryTiles() []datasource.SummaryTileResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.summaries
	s.summaries = nil
	return out
}

func (s *Source) FetchSlotTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	go func() {
		tile, err := fetchCBOR[profiledata.SlotTile](s, slotTileKind, req.Slug(), full)
		s.mu.Lock()
		s.slots = append(s.slots, datasource.SlotTileResult{Request: req, Tile: tile, Err: err})
		s.mu.Unlock()
	}()
}

func (s *Source) GetSlotTiles() []datasource.SlotTileResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.slots
	s.slots = nil
	return out
}

func (s *Source) FetchSlotMetaTile(entryID profiledata.EntryID, tileID profiledata.TileID, full bool) {
	req := profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: full}
	go func() {
		tile, err := fetchCBOR[profiledata.SlotMetaTile](s, slotMetaTileKind, req.Slug(), full)
		s.mu.Lock()
		s.slotMetas = append(s.slotMetas, datasource.SlotMetaTileResult{Request: req, Tile: tile, Err: err})
		s.mu.Unlock()
	}()
}

func (s *Source) GetSlotMetaTiles() []datasource.SlotMetaTileResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.slotMetas
	s.slotMetas = nil
	return out
}

func fetchCBOR[T any](s *Source, kind, slug string, full bool) (T, error) {
	var zero T

	u, err := url.Parse(s.base)
	if err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, err)
	}
	u.Path = pathJoin(u.Path, kind, slug)
	if slug != "" {
		q := u.Query()
		q.Set("full", fmt.Sprintf("%t", full))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, err)
	}
	if resp.StatusCode != http.StatusOK {
		return zero, datasource.NewBackendError("fetch_"+kind, fmt.Errorf("%s: status %d", u, resp.StatusCode))
	}

	dec := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(dec)

	plain, err := dec.DecodeAll(body, nil)
	if err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, fmt.Errorf("decompressing: %w", err))
	}

	var value T
	if err := cbor.Unmarshal(plain, &value); err != nil {
		return zero, datasource.NewBackendError("fetch_"+kind, fmt.Errorf("decoding: %w", err))
	}
	return value, nil
}

func pathJoin(base, kind, slug string) string {
	out := base
	if len(out) == 0 || out[len(out)-1] != '/' {
		out += "/"
	}
	out += kind
	if slug != "" {
		out += "/" + slug
	}
	return out
}

var _ datasource.DeferredDataSource = (*Source)(nil)
