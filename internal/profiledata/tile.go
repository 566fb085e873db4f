package profiledata

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pspoerri/profileviewer/internal/profiletime"
)

// TileID names a covering unit of time for a single entry. It is exactly
// an Interval; the tile it addresses spans [TileID.Start, TileID.Stop).
type TileID = profiletime.Interval

// TileSet describes a backend's advertised tile pyramid for a profile.
// A nil/empty TileSet means the profile is dynamic: the tile manager
// requests exactly the viewport on every query instead of snapping to a
// precomputed level. A non-empty TileSet holds one entry per pyramid
// level, coarsest typically first or last — callers should not assume an
// order and instead compare tile durations (see tilemanager).
type TileSet struct {
	Levels [][]TileID
}

// IsDynamic reports whether the profile has no static pyramid.
func (ts TileSet) IsDynamic() bool {
	return len(ts.Levels) == 0
}

// TileRequest accompanies every fetch and every response so a caller can
// route late-arriving tiles to the right cache entry even if the
// requester has since navigated away.
type TileRequest struct {
	EntryID EntryID
	TileID  TileID
	Full    bool
}

// Slug encodes a TileRequest into a URL- and filesystem-safe identifier,
// used both for on-disk tile filenames and as the HTTP path segment.
// Round-tripping Slug -> ParseSlug must reproduce the same TileRequest
// (spec §8, "round-trip" invariant).
func (r TileRequest) Slug() string {
	full := "0"
	if r.Full {
		full = "1"
	}
	raw := strings.Join([]string{
		string(r.EntryID),
		strconv.FormatInt(int64(r.TileID.Start), 10),
		strconv.FormatInt(int64(r.TileID.Stop), 10),
		full,
	}, "_")
	return url.QueryEscape(raw)
}

// ParseSlug decodes a slug produced by TileRequest.Slug back into a
// TileRequest.
func ParseSlug(slug string) (TileRequest, error) {
	raw, err := url.QueryUnescape(slug)
	if err != nil {
		return TileRequest{}, err
	}
	parts := strings.Split(raw, "_")
	if len(parts) < 4 {
		return TileRequest{}, &slugError{slug: slug}
	}
	full := parts[len(parts)-1] == "1"
	stop, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return TileRequest{}, &slugError{slug: slug}
	}
	start, err := strconv.ParseInt(parts[len(parts)-3], 10, 64)
	if err != nil {
		return TileRequest{}, &slugError{slug: slug}
	}
	entryID := strings.Join(parts[:len(parts)-3], "_")
	return TileRequest{
		EntryID: EntryID(entryID),
		TileID:  profiletime.Interval{Start: profiletime.Timestamp(start), Stop: profiletime.Timestamp(stop)},
		Full:    full,
	}, nil
}

type slugError struct{ slug string }

func (e *slugError) Error() string { return "malformed tile slug: " + e.slug }

// UtilizationPoint is one sample of a SummaryTile's piecewise-linear
// utilization curve.
type UtilizationPoint struct {
	Time profiletime.Timestamp
	Util float64 // in [0, 1]
}

// SummaryTile carries a Panel's utilization curve for one TileID.
type SummaryTile struct {
	Points []UtilizationPoint
}

// Item is a display record: the minimal data needed to draw one segment
// of a Slot's timeline.
type Item struct {
	ItemUID  uint64
	Interval profiletime.Interval
	Color    Color
}

// SlotTile carries screen-space rows of Items for one Slot and TileID.
// Within a row, items are ordered ascending by start and are pairwise
// non-overlapping.
type SlotTile struct {
	Rows [][]Item
}

// SlotMetaTile carries ItemMeta records parallel to a SlotTile: same row
// count, same per-row item count and order.
type SlotMetaTile struct {
	Rows [][]ItemMeta
}
