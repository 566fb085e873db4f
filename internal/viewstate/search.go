package viewstate

import (
	"regexp"
	"strings"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

// MaxSearchResults bounds the live result set (spec.md §4.4). Once
// reached, StartTile and Insert both short-circuit without
// touching the cache further.
const MaxSearchResults = 100_000

// SearchResult is one matched item.
type SearchResult struct {
	ItemUID uint64
	Title   string
	EntryID profiledata.EntryID // entry the item belongs to
	Row     int
}

// matchRecord is the cached per-item match payload, keyed by ItemUID
// within a (EntryID, TileID) bucket.
type matchRecord struct {
	ItemUID uint64
	Title   string
	EntryID profiledata.EntryID
	Row     int
}

// Search holds query state, the per-(entry,tile) result cache, and the
// flat dedup set, plus the grouped display tree built after population.
type Search struct {
	Query            string
	SearchField      profiledata.FieldID
	TitleField       profiledata.FieldID
	WholeWord        bool
	IncludeCollapsed bool
	ViewInterval     profiledata.TileID

	regex *regexp.Regexp

	resultCache    map[profiledata.EntryID]map[profiledata.TileID]map[uint64]matchRecord
	processedTiles map[profiledata.EntryID]map[profiledata.TileID]bool
	resultSet      map[uint64]struct{}

	// EntryTree groups matches for display: level0 -> level1 -> set of
	// level2 indices with at least one match.
	EntryTree map[int]map[int]map[int]struct{}
}

// NewSearch returns an empty Search ready for population, with WholeWord
// off: matching starts as a plain substring test, and the \b...\b regex
// is compiled only once Update turns WholeWord on.
func NewSearch(query string, searchField, titleField profiledata.FieldID, includeCollapsed bool) *Search {
	s := &Search{
		Query:            query,
		SearchField:      searchField,
		TitleField:       titleField,
		IncludeCollapsed: includeCollapsed,
		resultCache:      make(map[profiledata.EntryID]map[profiledata.TileID]map[uint64]matchRecord),
		processedTiles:   make(map[profiledata.EntryID]map[profiledata.TileID]bool),
		resultSet:        make(map[uint64]struct{}),
		EntryTree:        make(map[int]map[int]map[int]struct{}),
	}
	s.compileRegex()
	return s
}

func (s *Search) compileRegex() {
	s.regex = nil
	if s.Query == "" || !s.WholeWord {
		return
	}
	if re, err := regexp.Compile(`\b` + regexp.QuoteMeta(s.Query) + `\b`); err == nil {
		s.regex = re
	}
}

// reset discards all cached matches and grouping state, keeping the
// current query knobs.
func (s *Search) reset() {
	s.resultCache = make(map[profiledata.EntryID]map[profiledata.TileID]map[uint64]matchRecord)
	s.processedTiles = make(map[profiledata.EntryID]map[profiledata.TileID]bool)
	s.resultSet = make(map[uint64]struct{})
	s.EntryTree = make(map[int]map[int]map[int]struct{})
}

// Update applies new query knobs, clearing the cache per spec.md's
// invalidation policy: any change to query, search field, whole-word, or
// view interval clears it fully; include_collapsed_entries only clears
// it when shrinking the domain (true -> false) since enlarging it
// (false -> true) is monotone and the existing cache remains valid as a
// subset of what a full recompute would find.
func (s *Search) Update(query string, searchField profiledata.FieldID, wholeWord, includeCollapsed bool, view profiledata.TileID) {
	shrinkingCollapsed := s.IncludeCollapsed && !includeCollapsed
	mustReset := query != s.Query ||
		searchField != s.SearchField ||
		wholeWord != s.WholeWord ||
		view != s.ViewInterval ||
		shrinkingCollapsed

	s.Query = query
	s.SearchField = searchField
	s.WholeWord = wholeWord
	s.IncludeCollapsed = includeCollapsed
	s.ViewInterval = view
	s.compileRegex()

	if mustReset {
		s.reset()
	}
}

// Full reports whether the result set has hit MaxSearchResults.
func (s *Search) Full() bool {
	return len(s.resultSet) >= MaxSearchResults
}

// matchText reports whether text matches the query: a \b<escaped_query>\b
// regex match when WholeWord compiled one, a plain substring match
// otherwise.
func (s *Search) matchText(text string) bool {
	if s.Query == "" {
		return false
	}
	if s.regex != nil {
		return s.regex.MatchString(text)
	}
	return strings.Contains(text, s.Query)
}

// matchField reports whether field matches the query, recursing into
// Vec members and following ItemLink titles, per spec.md's match
// semantics. Non-textual fields never match.
func (s *Search) matchField(field profiledata.Field) bool {
	switch field.Kind {
	case profiledata.FieldString:
		return s.matchText(field.Str)
	case profiledata.FieldItemLink:
		return s.matchText(field.Link.Title)
	case profiledata.FieldVec:
		for _, elem := range field.Vec {
			if s.matchField(elem) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// StartTile processes one SlotMetaTile's items against the search, once
// per (entryID, tileID) for the lifetime of this Search. It is a no-op
// if the tile was already processed or the result set is already full.
func (s *Search) StartTile(entryID profiledata.EntryID, tileID profiledata.TileID, tile profiledata.SlotMetaTile) {
	if s.Full() {
		return
	}
	if s.processedTiles[entryID] == nil {
		s.processedTiles[entryID] = make(map[profiledata.TileID]bool)
	}
	if s.processedTiles[entryID][tileID] {
		return
	}
	s.processedTiles[entryID][tileID] = true

	for rawRow, row := range tile.Rows {
		for _, item := range row {
			if s.Full() {
				return
			}
			s.inspectItem(entryID, tileID, item, len(tile.Rows)-rawRow-1)
		}
	}
}

func (s *Search) inspectItem(entryID profiledata.EntryID, tileID profiledata.TileID, item profiledata.ItemMeta, row int) {
	matched := false
	if s.SearchField == s.TitleField {
		matched = s.matchText(item.Title)
	} else {
		for _, f := range item.Fields {
			if f.FieldID != s.SearchField {
				continue
			}
			matched = s.matchField(f.Value)
			break
		}
	}
	if !matched {
		return
	}
	s.Insert(entryID, tileID, matchRecord{
		ItemUID:  item.ItemUID,
		Title:    item.Title,
		EntryID:  entryID,
		Row:      row,
	})
}

// Insert records a match, short-circuiting once the bound is hit.
func (s *Search) Insert(entryID profiledata.EntryID, tileID profiledata.TileID, rec matchRecord) {
	if s.Full() {
		return
	}
	if s.resultCache[entryID] == nil {
		s.resultCache[entryID] = make(map[profiledata.TileID]map[uint64]matchRecord)
	}
	if s.resultCache[entryID][tileID] == nil {
		s.resultCache[entryID][tileID] = make(map[uint64]matchRecord)
	}
	s.resultCache[entryID][tileID][rec.ItemUID] = rec
	s.resultSet[rec.ItemUID] = struct{}{}
	s.addToEntryTree(entryID)
}

func (s *Search) addToEntryTree(entryID profiledata.EntryID) {
	l0, ok0 := entryID.SlotIndex(0)
	l1, ok1 := entryID.SlotIndex(1)
	l2, ok2 := entryID.SlotIndex(2)
	if !ok0 || !ok1 || !ok2 {
		return
	}
	if s.EntryTree[l0] == nil {
		s.EntryTree[l0] = make(map[int]map[int]struct{})
	}
	if s.EntryTree[l0][l1] == nil {
		s.EntryTree[l0][l1] = make(map[int]struct{})
	}
	s.EntryTree[l0][l1][l2] = struct{}{}
}

// Results returns every currently matched item, unordered.
func (s *Search) Results() []SearchResult {
	out := make([]SearchResult, 0, len(s.resultSet))
	for _, byTile := range s.resultCache {
		for _, byItem := range byTile {
			for _, rec := range byItem {
				out = append(out, SearchResult{
					ItemUID:  rec.ItemUID,
					Title:    rec.Title,
					EntryID:  rec.EntryID,
					Row:      rec.Row,
				})
			}
		}
	}
	return out
}

// Count returns the number of distinct matched items.
func (s *Search) Count() int {
	return len(s.resultSet)
}
