package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

var sanitizeRun = regexp.MustCompile(`[A-Za-z0-9]+`)

// Sanitize reduces name to the runs of [A-Za-z0-9]+ it contains, joined
// by "_", lowercased. AssignSlugs applies it to every entry's short name;
// field names become SQL column identifiers unsanitized, via quoteIdent.
func Sanitize(name string) string {
	runs := sanitizeRun.FindAllString(name, -1)
	return strings.ToLower(strings.Join(runs, "_"))
}

// DuplicateEntrySlug is raised when slug assignment produces the same
// slug for two distinct entries. The spec requires slugs to be unique;
// this is a programmer/data error, not a recoverable one, so it panics
// rather than returning an error — mirroring the teacher's log.Fatalf
// convention for invariant violations (SPEC_FULL.md §7).
type DuplicateEntrySlug struct {
	Slug string
}

func (e *DuplicateEntrySlug) Error() string {
	return fmt.Sprintf("duplicate entry slug: %q", e.Slug)
}

// EntrySlug pairs an assigned slug with the EntryID it names and its
// parent's slug (empty for the root).
type EntrySlug struct {
	EntryID    profiledata.EntryID
	Slug       string
	ParentSlug string
	ShortName  string
	LongName   string
	Kind       profiledata.EntryKind
}

// AssignSlugs walks info depth-first and assigns every Panel/Slot a
// globally unique slug: sanitize(short_name), concatenated with the
// parent's slug via "_". Panics with *DuplicateEntrySlug if two entries
// collide.
func AssignSlugs(info *profiledata.EntryInfo) []EntrySlug {
	var out []EntrySlug
	seen := make(map[string]bool)

	var walk func(id profiledata.EntryID, node *profiledata.EntryInfo, parentSlug string)
	walk = func(id profiledata.EntryID, node *profiledata.EntryInfo, parentSlug string) {
		slug := Sanitize(node.ShortName)
		if parentSlug != "" {
			slug = parentSlug + "_" + slug
		}
		if slug == "" {
			slug = "entry"
		}
		if seen[slug] {
			panic(&DuplicateEntrySlug{Slug: slug})
		}
		seen[slug] = true

		out = append(out, EntrySlug{
			EntryID:    id,
			Slug:       slug,
			ParentSlug: parentSlug,
			ShortName:  node.ShortName,
			LongName:   node.LongName,
			Kind:       node.Kind,
		})

		for i := range node.Slots {
			walk(id.Child(i), &node.Slots[i], slug)
		}
	}
	walk(profiledata.Root, info, "")
	return out
}
