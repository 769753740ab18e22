// Package table implements the append-oriented table data file: one file
// per table, a sequence of fixed-size pages, supporting insert, scan, and
// update-in-place.
package table

import (
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/dberrors"
	"github.com/csbase/csbase/expr"
	"github.com/csbase/csbase/page"
	"github.com/csbase/csbase/value"
)

// File wraps the data file for a single table. It holds no descriptor
// between operations: each operation opens the file, does its work, and
// closes it on return, per the "no file-descriptor cache" resource
// policy.
type File struct {
	path string
	log  *zap.Logger
}

// Open returns a File bound to path. The underlying file is created on
// first Insert if it does not already exist.
func Open(path string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{path: path, log: log}
}

// Create creates an empty data file for the table (used by CREATE TABLE).
func Create(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return dberrors.IOError(err)
	}
	return closeOrIOErr(f)
}

// Delete removes the table's data file (used by DROP TABLE).
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return dberrors.IOError(err)
	}
	return nil
}

func closeOrIOErr(f *os.File) error {
	if err := f.Close(); err != nil {
		return dberrors.IOError(err)
	}
	return nil
}

// Insert appends record to the last page, allocating a new page on
// overflow. If a single record's item does not fit in an empty page,
// the insert fails with a validation error (oversized record).
func (t *File) Insert(record []value.Value) error {
	item, err := page.FromRecord(record)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return dberrors.IOError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return dberrors.IOError(err)
	}
	if info.Size()%page.Size != 0 {
		return dberrors.Validation("table file %q has a truncated trailing page", t.path)
	}
	n := info.Size() / page.Size

	if n == 0 {
		p := page.New(1)
		if err := p.AddItem(item); err != nil {
			return dberrors.Validation("record does not fit in an empty page: %v", err)
		}
		return t.writePageAt(f, 0, p)
	}

	lastOffset := (n - 1) * page.Size
	last, err := t.readPageAt(f, lastOffset)
	if err != nil {
		return err
	}
	if err := last.AddItem(item); err == nil {
		t.log.Debug("appended to last page", zap.String("table", t.path), zap.Uint32("page", last.ID))
		return t.writePageAt(f, lastOffset, last)
	}

	next := page.New(last.ID + 1)
	if err := next.AddItem(item); err != nil {
		return dberrors.Validation("record does not fit in an empty page: %v", err)
	}
	t.log.Debug("allocated new page", zap.String("table", t.path), zap.Uint32("page", next.ID))
	return t.writePageAt(f, n*page.Size, next)
}

// Scan streams pages from offset 0, reconstructing items via schema and
// evaluating condition (nil means unconditional) against each row's
// column binding. Matching records are passed to visit in insertion
// order across and within pages.
func (t *File) Scan(schema catalog.Schema, condition *expr.Expr, visit func([]value.Value) error) error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return dberrors.IOError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return dberrors.IOError(err)
	}
	n := info.Size() / page.Size

	for i := int64(0); i < n; i++ {
		p, err := t.readPageAt(f, i*page.Size)
		if err != nil {
			return err
		}
		items, err := p.Items()
		if err != nil {
			return err
		}
		for _, it := range items {
			record, err := page.ToRecord(it, schema)
			if err != nil {
				return err
			}
			ok, err := matches(record, schema, condition)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := visit(record); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update streams pages as for Scan; for each matched item it applies set
// (column name -> new value) to the reconstructed record, re-encodes it,
// and writes the page back. If the re-packed item is larger than the
// item it replaces, the item is relocated, even when the page has free
// space for it: evicted from this page (compacting the slot directory)
// and appended via the same overflow-allocation path Insert uses (§9:
// relocate-on-grow).
func (t *File) Update(schema catalog.Schema, set map[string]value.Value, condition *expr.Expr) (int, error) {
	f, err := os.OpenFile(t.path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, dberrors.IOError(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, dberrors.IOError(err)
	}
	n := info.Size() / page.Size

	var updated int
	var relocated []page.Item

	for i := int64(0); i < n; i++ {
		offset := i * page.Size
		p, err := t.readPageAt(f, offset)
		if err != nil {
			return 0, err
		}
		items, err := p.Items()
		if err != nil {
			return 0, err
		}

		dirty := false
		removeIdx := make([]int, 0)
		for idx, it := range items {
			record, err := page.ToRecord(it, schema)
			if err != nil {
				return 0, err
			}
			ok, err := matches(record, schema, condition)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			for col, v := range set {
				c, ok := schema.Column(col)
				if !ok {
					return 0, dberrors.NotFound(col)
				}
				if !v.CompatibleWith(c.Type) {
					return 0, dberrors.Validation("value for column %q does not match its type", col)
				}
				record[schema.ColumnIndex(col)] = v
			}
			newItem, err := page.FromRecord(record)
			if err != nil {
				return 0, err
			}
			updated++
			dirty = true
			if replaceInPlace(p, items, idx, newItem) {
				continue
			}
			removeIdx = append(removeIdx, idx)
			relocated = append(relocated, newItem)
		}

		if !dirty {
			continue
		}
		if err := rebuildPage(p, removeIdx); err != nil {
			return 0, err
		}
		if err := t.writePageAt(f, offset, p); err != nil {
			return 0, err
		}
	}

	for _, item := range relocated {
		if err := t.insertItem(f, item); err != nil {
			return 0, err
		}
	}
	return updated, nil
}

// replaceInPlace tries to swap items[idx]'s body for newItem's body in
// page p, keeping every slot at its index: only possible when newItem is
// no larger than the item it replaces. The page is rebuilt from items,
// so the offsets of the other slots may change.
func replaceInPlace(p *page.Page, items []page.Item, idx int, newItem page.Item) bool {
	if len(newItem.Body) > len(items[idx].Body) {
		return false
	}
	items[idx] = newItem
	*p = *page.New(p.ID)
	for _, it := range items {
		// Errors here cannot happen: every item was already proven to
		// fit on a page of this size by virtue of having been read from
		// one, and we never grew any single item beyond what fit before.
		_ = p.AddItem(it)
	}
	return true
}

// rebuildPage drops the slots named by removeIdx (already relocated
// elsewhere, per §9's relocate-on-grow policy). p already holds the
// correct body for every slot not in removeIdx — any in-place edit was
// already folded in by replaceInPlace — so eviction is just a sequence
// of page.RemoveItem calls, highest index first so earlier indices
// don't shift out from under us.
func rebuildPage(p *page.Page, removeIdx []int) error {
	sort.Sort(sort.Reverse(sort.IntSlice(removeIdx)))
	for _, i := range removeIdx {
		if err := p.RemoveItem(i); err != nil {
			return err
		}
	}
	return nil
}

// insertItem appends a single already-encoded item using the same
// last-page-or-allocate policy as Insert.
func (t *File) insertItem(f *os.File, item page.Item) error {
	info, err := f.Stat()
	if err != nil {
		return dberrors.IOError(err)
	}
	n := info.Size() / page.Size

	if n == 0 {
		p := page.New(1)
		if err := p.AddItem(item); err != nil {
			return dberrors.Validation("relocated record does not fit in an empty page: %v", err)
		}
		return t.writePageAt(f, 0, p)
	}

	lastOffset := (n - 1) * page.Size
	last, err := t.readPageAt(f, lastOffset)
	if err != nil {
		return err
	}
	if err := last.AddItem(item); err == nil {
		return t.writePageAt(f, lastOffset, last)
	}

	next := page.New(last.ID + 1)
	if err := next.AddItem(item); err != nil {
		return dberrors.Validation("relocated record does not fit in an empty page: %v", err)
	}
	return t.writePageAt(f, n*page.Size, next)
}

func matches(record []value.Value, schema catalog.Schema, condition *expr.Expr) (bool, error) {
	if condition == nil {
		return true, nil
	}
	binding := make(expr.Binding, len(schema.Columns))
	for i, col := range schema.Columns {
		binding[col.Name] = record[i]
	}
	v, err := expr.Eval(condition, binding)
	if err != nil {
		return false, err
	}
	b, ok := v.Bool()
	if !ok {
		return false, dberrors.Validation("condition did not evaluate to a boolean")
	}
	return b, nil
}

func (t *File) readPageAt(f *os.File, offset int64) (*page.Page, error) {
	var buf [page.Size]byte
	if _, err := f.ReadAt(buf[:], offset); err != nil {
		return nil, dberrors.IOError(err)
	}
	p, err := page.FromBytes(buf[:])
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (t *File) writePageAt(f *os.File, offset int64, p *page.Page) error {
	buf := p.ToBytes()
	if _, err := f.WriteAt(buf[:], offset); err != nil {
		return dberrors.IOError(err)
	}
	return nil
}
