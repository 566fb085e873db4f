// Package export drains a full profile through a DeferredDataSource and
// writes it to a single-file columnar SQLite database (sqlite.go),
// assigning entry slugs (slug.go) and inferring/widening the items
// table's dynamic columns as new field types are observed (schema.go).
//
// Grounded on internal/tile/diskstore.go's dedicated-I/O-goroutine
// backpressure discipline: this driver never lets more than
// MaxOutstandingRequests fetches sit undrained against the source at
// once, issuing the next fetch only once a slot opens up, exactly the
// way diskstore.go's sync.Cond throttles writers against a bounded
// queue.
package export

import (
	"fmt"
	"log"
	"time"

	"github.com/pspoerri/profileviewer/internal/datasource"
	"github.com/pspoerri/profileviewer/internal/datasource/counting"
	"github.com/pspoerri/profileviewer/internal/profiledata"
	"github.com/pspoerri/profileviewer/internal/tilemanager"
)

// MaxOutstandingRequests bounds the number of fetches this driver keeps
// undrained against the source at any time (spec.md §5).
const MaxOutstandingRequests = 100

// Run drains source entirely into writer: the one-shot data_source row,
// one entries row per Panel/Slot, and every item in every Slot at full
// fidelity.
func Run(source datasource.DeferredDataSource, writer *Writer) error {
	counted := counting.New(source)

	counted.FetchInfo()
	var info datasource.Info
	for {
		results := counted.GetInfos()
		if len(results) > 0 {
			if results[0].Err != nil {
				return fmt.Errorf("fetching profile info: %w", results[0].Err)
			}
			info = results[0].Info
			break
		}
		time.Sleep(time.Millisecond)
	}

	locator, err := source.FetchDescription()
	if err != nil {
		return fmt.Errorf("fetching description: %w", err)
	}
	if err := writer.WriteDataSource(locator.SourceLocator, info.Interval, info.WarningMessage); err != nil {
		return fmt.Errorf("writing data_source row: %w", err)
	}

	slugs := AssignSlugs(&info.EntryInfo)
	if err := writer.WriteEntries(slugs); err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}

	slugByEntry := make(map[profiledata.EntryID]string, len(slugs))
	for _, s := range slugs {
		slugByEntry[s.EntryID] = s.Slug
	}

	manager := tilemanager.New(info.Interval, info.TileSet)

	drv := &driver{
		counted:     counted,
		writer:      writer,
		slugByEntry: slugByEntry,
		schema:      info.FieldSchema,
	}

	for _, s := range slugs {
		if s.Kind != profiledata.KindSlot {
			continue
		}
		tiles := manager.RequestTiles(info.Interval, true)
		for _, tileID := range tiles {
			drv.enqueue(s.EntryID, tileID)
		}
	}

	if err := drv.drainAll(); err != nil {
		return err
	}

	return writer.Close()
}

// driver tracks in-flight export fetches, enforcing MaxOutstandingRequests.
type driver struct {
	counted     *counting.Wrapper
	writer      *Writer
	slugByEntry map[profiledata.EntryID]string
	schema      *profiledata.FieldSchema

	pending []profiledata.TileRequest
	itemSeq int
}

func (d *driver) enqueue(entryID profiledata.EntryID, tileID profiledata.TileID) {
	d.pending = append(d.pending, profiledata.TileRequest{EntryID: entryID, TileID: tileID, Full: true})
}

func (d *driver) drainAll() error {
	issued := 0
	for issued < len(d.pending) || d.counted.Outstanding() > 0 {
		for issued < len(d.pending) && d.counted.Outstanding() < MaxOutstandingRequests {
			req := d.pending[issued]
			d.counted.FetchSlotMetaTile(req.EntryID, req.TileID, req.Full)
			issued++
		}

		drained := d.counted.GetSlotMetaTiles()
		for _, result := range drained {
			if result.Err != nil {
				return fmt.Errorf("fetching slot meta tile for %s: %w", result.Request.EntryID, result.Err)
			}
			if err := d.writeTile(result.Request.EntryID, result.Tile); err != nil {
				return err
			}
		}
		if len(drained) == 0 && d.counted.Outstanding() > 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return d.writer.Flush()
}

func (d *driver) writeTile(entryID profiledata.EntryID, tile profiledata.SlotMetaTile) error {
	slug, ok := d.slugByEntry[entryID]
	if !ok {
		return nil
	}
	for _, row := range tile.Rows {
		for _, item := range row {
			values := make(map[string]any, len(item.Fields))
			seenNames := make(map[string]bool, len(item.Fields))
			for _, f := range item.Fields {
				name := d.schema.Name(f.FieldID)
				if name == "" {
					continue
				}
				if seenNames[name] {
					d.writer.WarnDuplicateFieldOnce(name, log.Printf)
					continue
				}
				seenNames[name] = true
				values[name] = d.fieldValue(f.Value)
			}
			if err := d.writer.WriteItem(slug, item.ItemUID, d.itemSeq, item.Title, values); err != nil {
				return fmt.Errorf("writing item %d on %s: %w", item.ItemUID, slug, err)
			}
			d.itemSeq++
		}
	}
	return nil
}

// fieldValue renders f as the value WriteItem stores for one dynamic
// column. ItemLink fields resolve their EntryID to an entry_slug via
// d.slugByEntry before encoding, since the column stores the slug
// rather than the raw EntryID (spec.md §4.5).
func (d *driver) fieldValue(f profiledata.Field) any {
	switch f.Kind {
	case profiledata.FieldI64:
		return f.I64
	case profiledata.FieldU64:
		return f.U64
	case profiledata.FieldString:
		return f.Str
	case profiledata.FieldInterval:
		return f.Interval.String()
	case profiledata.FieldItemLink:
		return encodeItemLink(f.Link, d.slugByEntry[f.Link.EntryID])
	case profiledata.FieldVec:
		return d.vecToJSONish(f.Vec)
	default:
		return nil
	}
}

// vecToJSONish renders a Vec field as a minimal bracketed list without
// pulling in encoding/json for what is, at export time, always a list of
// already-scalar values destined for a TEXT column. ItemLink elements
// are the exception: they render as their JSON blob, same as a
// top-level ItemLink column.
func (d *driver) vecToJSONish(vec []profiledata.Field) string {
	out := "["
	for i, elem := range vec {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%v", d.fieldValue(elem))
	}
	return out + "]"
}
