package export

import (
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CPU 0", "cpu_0"},
		{"Node #3 (GPU)", "node_3_gpu"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignSlugsConcatenatesParent(t *testing.T) {
	info := &profiledata.EntryInfo{
		Kind:      profiledata.KindPanel,
		ShortName: "Root",
		Slots: []profiledata.EntryInfo{
			{Kind: profiledata.KindSlot, ShortName: "CPU 0"},
		},
	}

	slugs := AssignSlugs(info)
	if len(slugs) != 2 {
		t.Fatalf("len(slugs) = %d, want 2", len(slugs))
	}
	if slugs[1].Slug != "root_cpu_0" {
		t.Errorf("child slug = %q, want %q", slugs[1].Slug, "root_cpu_0")
	}
	if slugs[1].ParentSlug != "root" {
		t.Errorf("child parent slug = %q, want %q", slugs[1].ParentSlug, "root")
	}
}

func TestAssignSlugsPanicsOnDuplicate(t *testing.T) {
	info := &profiledata.EntryInfo{
		Kind: profiledata.KindPanel,
		Slots: []profiledata.EntryInfo{
			{Kind: profiledata.KindSlot, ShortName: "x"},
			{Kind: profiledata.KindSlot, ShortName: "x"},
		},
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected AssignSlugs to panic on duplicate slugs")
		}
	}()
	AssignSlugs(info)
}
