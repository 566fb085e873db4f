// Package tilemanager chooses, for a given viewport interval, the set of
// pyramid tiles that covers it at an appropriate resolution, memoizing
// the last decision so repeated identical queries are stable.
//
// Grounded on internal/tile/zoom.go's AutoZoomRange: that function picks
// a zoom level by minimizing the log-ratio between a source's native
// resolution and the zoom level's nominal resolution. request_tiles
// generalizes the same idea to arbitrary interval-valued tiles rather
// than power-of-two zoom levels, and adds the deterministic,
// memoized-decision discipline of internal/pmtiles/directory.go (a
// lookup that must return the exact same answer for the exact same
// key).
package tilemanager

import (
	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/profiletime"
)

// Manager selects covering tile sets for a fixed total interval and
// pyramid. It is not safe for concurrent use: the view loop owns it
// single-threaded, per spec.
type Manager struct {
	interval profiletime.Interval
	tileSet  profiledata.TileSet

	memo [2]memoEntry // indexed by full (false=0, true=1)
}

type memoEntry struct {
	valid    bool
	request  profiletime.Interval
	covering []profiledata.TileID
}

// New returns a Manager over the given total interval and tile pyramid.
func New(interval profiletime.Interval, tileSet profiledata.TileSet) *Manager {
	return &Manager{interval: interval, tileSet: tileSet}
}

// RequestTiles returns the tiles covering viewInterval ∩ the manager's
// total interval, at full fidelity if full is set. Two consecutive calls
// with the same (viewInterval, full) return the identical slice value
// (stability); the returned set covers the clamped request and contains
// no tile that doesn't overlap it (coverage + minimality); the full=true
// result is never coarser than full=false (monotone fidelity).
func (m *Manager) RequestTiles(viewInterval profiletime.Interval, full bool) []profiledata.TileID {
	idx := memoIndex(full)
	request := viewInterval.Intersect(m.interval)

	if m.memo[idx].valid && m.memo[idx].request == request {
		return m.memo[idx].covering
	}

	covering := m.computeCovering(request, full)
	m.memo[idx] = memoEntry{valid: true, request: request, covering: covering}
	return covering
}

func (m *Manager) computeCovering(request profiletime.Interval, full bool) []profiledata.TileID {
	if request.Duration() <= 0 {
		return nil
	}

	if !m.tileSet.IsDynamic() {
		level := m.selectLevel(request, full)
		return overlapping(m.tileSet.Levels[level], request)
	}

	return []profiledata.TileID{request}
}

// selectLevel picks the finest level when full is set, else the level
// whose tile duration has log-ratio closest to 1 against the request
// duration, mirroring AutoZoomRange's max(ratio, 1/ratio) minimization.
func (m *Manager) selectLevel(request profiletime.Interval, full bool) int {
	levels := m.tileSet.Levels
	if full {
		return finestLevel(levels)
	}

	requestDuration := float64(request.Duration())
	best := 0
	bestScore := -1.0
	for i, level := range levels {
		duration := float64(levelTileDuration(level))
		if duration <= 0 || requestDuration <= 0 {
			continue
		}
		ratio := duration / requestDuration
		score := ratio
		if 1/ratio > score {
			score = 1 / ratio
		}
		if bestScore < 0 || score < bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// finestLevel returns the index of the level with the shortest tile
// duration, i.e. the highest-resolution level. It makes no assumption
// about level order, so a tile set built coarse-to-fine or
// fine-to-coarse both work.
func finestLevel(levels [][]profiledata.TileID) int {
	best := 0
	bestDuration := int64(-1)
	for i, level := range levels {
		d := levelTileDuration(level)
		if bestDuration < 0 || (d >= 0 && d < bestDuration) {
			bestDuration = d
			best = i
		}
	}
	return best
}

func levelTileDuration(level []profiledata.TileID) int64 {
	if len(level) == 0 {
		return -1
	}
	return int64(level[0].Duration())
}

func overlapping(level []profiledata.TileID, request profiletime.Interval) []profiledata.TileID {
	var out []profiledata.TileID
	for _, tile := range level {
		if tile.Overlaps(request) {
			out = append(out, tile)
		}
	}
	return out
}

func memoIndex(full bool) int {
	if full {
		return 1
	}
	return 0
}

// InvalidateCache drops every entry of cache whose key is not present in
// keep, in place.
func InvalidateCache[V any](keep []profiledata.TileID, cache map[profiledata.TileID]V) {
	keepSet := make(map[profiledata.TileID]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range cache {
		if _, ok := keepSet[id]; !ok {
			delete(cache, id)
		}
	}
}
