package profiledata

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiletime"
)

func TestTileRequestSlugRoundTrip(t *testing.T) {
	tests := []TileRequest{
		{EntryID: Root, TileID: profiletime.Interval{Start: 0, Stop: 100}, Full: false},
		{EntryID: Root.Child(1).Child(2), TileID: profiletime.Interval{Start: -50, Stop: 50}, Full: true},
		{EntryID: Root.Child(1).Summary(), TileID: profiletime.Interval{Start: 1_000_000, Stop: 2_000_000}, Full: false},
	}

	for _, tr := range tests {
		slug := tr.Slug()
		got, err := ParseSlug(slug)
		if err != nil {
			t.Fatalf("ParseSlug(%q) error: %v", slug, err)
		}
		if got != tr {
			t.Errorf("round trip of %+v via slug %q = %+v", tr, slug, got)
		}
	}
}

func TestFieldSchemaInsertUnique(t *testing.T) {
	s := NewFieldSchema()

	if name := s.Name(s.TitleField()); name != "title" {
		t.Fatalf("title field name = %q, want \"title\"", name)
	}

	id1 := s.Insert("duration", true)
	id2 := s.Insert("duration", false)
	if id1 != id2 {
		t.Errorf("re-inserting an existing name should return the same FieldID: %d != %d", id1, id2)
	}

	id3 := s.Insert("kind", false)
	if id3 == id1 {
		t.Error("distinct names must get distinct FieldIDs")
	}
	if s.Searchable(id3) {
		t.Error("kind field should not be searchable")
	}
}
