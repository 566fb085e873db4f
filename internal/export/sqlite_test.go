package export

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pspoerri/profileviewer/internal/profiledata"
)

func openTestWriter(t *testing.T) *Writer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prof.db")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWriteItemFlushesAtBatchSize(t *testing.T) {
	w := openTestWriter(t)
	w.batchSize = 2

	for i := 0; i < 3; i++ {
		if err := w.WriteItem("slot_a", uint64(i), i, "item", map[string]any{"count": int64(i)}); err != nil {
			t.Fatalf("WriteItem: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var n int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if n != 3 {
		t.Errorf("row count = %d, want 3", n)
	}
}

func TestWriteItemAddsDynamicColumn(t *testing.T) {
	w := openTestWriter(t)

	if err := w.WriteItem("slot_a", 1, 0, "item", map[string]any{"duration_ns": int64(42)}); err != nil {
		t.Fatalf("WriteItem: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := w.columns["duration_ns"]; got != ColumnI64 {
		t.Fatalf("columns[duration_ns] = %v, want ColumnI64", got)
	}

	var v sql.NullInt64
	if err := w.db.QueryRow(`SELECT "duration_ns" FROM items WHERE item_uid = 1`).Scan(&v); err != nil {
		t.Fatalf("querying duration_ns: %v", err)
	}
	if !v.Valid || v.Int64 != 42 {
		t.Errorf("duration_ns = %+v, want 42", v)
	}
}

func TestWriteItemUpgradesColumnType(t *testing.T) {
	w := openTestWriter(t)

	if err := w.WriteItem("slot_a", 1, 0, "item", map[string]any{"label": uint64(7)}); err != nil {
		t.Fatalf("WriteItem #1: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush #1: %v", err)
	}
	if got := w.columns["label"]; got != ColumnU64 {
		t.Fatalf("columns[label] after first write = %v, want ColumnU64", got)
	}

	if err := w.WriteItem("slot_a", 2, 1, "item", map[string]any{"label": "seven"}); err != nil {
		t.Fatalf("WriteItem #2: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush #2: %v", err)
	}
	if got := w.columns["label"]; got != ColumnString {
		t.Fatalf("columns[label] after widening write = %v, want ColumnString", got)
	}

	var first, second sql.NullString
	if err := w.db.QueryRow(`SELECT "label" FROM items WHERE item_uid = 1`).Scan(&first); err != nil {
		t.Fatalf("querying migrated row: %v", err)
	}
	if !first.Valid || first.String != "7" {
		t.Errorf("migrated label = %+v, want \"7\"", first)
	}
	if err := w.db.QueryRow(`SELECT "label" FROM items WHERE item_uid = 2`).Scan(&second); err != nil {
		t.Fatalf("querying new row: %v", err)
	}
	if !second.Valid || second.String != "seven" {
		t.Errorf("new label = %+v, want \"seven\"", second)
	}
}

func TestWriteItemUpgradesColumnTypeToItemLink(t *testing.T) {
	w := openTestWriter(t)

	if err := w.WriteItem("slot_a", 1, 0, "item", map[string]any{"related": "legacy note"}); err != nil {
		t.Fatalf("WriteItem #1: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush #1: %v", err)
	}

	link := encodeItemLink(profiledata.ItemLink{ItemUID: 9, Title: "caller", EntryID: profiledata.Root}, "root")
	if err := w.WriteItem("slot_a", 2, 1, "item", map[string]any{"related": link}); err != nil {
		t.Fatalf("WriteItem #2: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush #2: %v", err)
	}
	if got := w.columns["related"]; got != ColumnItemLink {
		t.Fatalf("columns[related] after widening write = %v, want ColumnItemLink", got)
	}

	var migrated, fresh sql.NullString
	if err := w.db.QueryRow(`SELECT "related" FROM items WHERE item_uid = 1`).Scan(&migrated); err != nil {
		t.Fatalf("querying migrated row: %v", err)
	}
	if !migrated.Valid || !strings.Contains(migrated.String, `"title":"legacy note"`) || !strings.Contains(migrated.String, `"item_uid":null`) {
		t.Errorf("migrated related = %+v, want title-only blob with nulled item_uid", migrated)
	}
	if err := w.db.QueryRow(`SELECT "related" FROM items WHERE item_uid = 2`).Scan(&fresh); err != nil {
		t.Fatalf("querying new row: %v", err)
	}
	if !fresh.Valid || !strings.Contains(fresh.String, `"item_uid":9`) {
		t.Errorf("new related = %+v, want populated item_uid", fresh)
	}
}

func TestWriteEntriesAndDataSource(t *testing.T) {
	w := openTestWriter(t)

	slugs := []EntrySlug{
		{EntryID: profiledata.Root, Slug: "root", ShortName: "Root", Kind: profiledata.KindPanel},
		{EntryID: profiledata.Root.Child(0), Slug: "root_cpu_0", ParentSlug: "root", ShortName: "CPU 0", Kind: profiledata.KindSlot},
	}
	if err := w.WriteEntries(slugs); err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}

	interval := profiledata.TileID{Start: 0, Stop: 1000}
	if err := w.WriteDataSource([]string{"/tmp/profile"}, interval, "synthetic fixture"); err != nil {
		t.Fatalf("WriteDataSource: %v", err)
	}

	var entryCount int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&entryCount); err != nil {
		t.Fatalf("counting entries: %v", err)
	}
	if entryCount != 2 {
		t.Errorf("entries count = %d, want 2", entryCount)
	}

	var parentSlug, kind string
	if err := w.db.QueryRow(`SELECT parent_slug, type FROM entries WHERE entry_slug = ?`, "root_cpu_0").Scan(&parentSlug, &kind); err != nil {
		t.Fatalf("querying entries: %v", err)
	}
	if parentSlug != "root" || kind != "slot" {
		t.Errorf("root_cpu_0 row = (%q, %q), want (\"root\", \"slot\")", parentSlug, kind)
	}

	var warning string
	if err := w.db.QueryRow(`SELECT warning_message FROM data_source`).Scan(&warning); err != nil {
		t.Fatalf("querying data_source: %v", err)
	}
	if warning != "synthetic fixture" {
		t.Errorf("warning_message = %q, want %q", warning, "synthetic fixture")
	}
}

func TestWarnDuplicateFieldOnceFiresOnce(t *testing.T) {
	w := openTestWriter(t)

	var calls int
	logf := func(string, ...any) { calls++ }
	w.WarnDuplicateFieldOnce("thread_name", logf)
	w.WarnDuplicateFieldOnce("thread_name", logf)
	w.WarnDuplicateFieldOnce("other", logf)

	if calls != 2 {
		t.Errorf("logf called %d times, want 2", calls)
	}
}
