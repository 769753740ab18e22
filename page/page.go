package page

import (
	"encoding/binary"

	"github.com/csbase/csbase/dberrors"
)

// Size is the fixed on-disk size of a page, in bytes.
const Size = 8192

// headerSize is 4 bytes for the page id plus two 8-byte word offsets.
const headerSize = 4 + 2*WordSize

// BodySize is the usable body region of a page.
const BodySize = Size - headerSize

// Page is a fixed-size slotted container: a header plus a data region
// managed as a double-ended bump allocator. The slot directory grows
// from the front of the body; item bodies grow from the back. Page ids
// are 1-based and strictly increasing in file order.
type Page struct {
	ID             uint32
	FreeSpaceStart uint64
	FreeSpaceEnd   uint64
	body           [BodySize]byte
}

// New returns an empty page with free_space_start = 0, free_space_end =
// body_size, and a zeroed body.
func New(id uint32) *Page {
	return &Page{ID: id, FreeSpaceStart: 0, FreeSpaceEnd: BodySize}
}

// ToBytes serializes the page into a Size-byte buffer: id, then
// free_space_start, then free_space_end, then the body.
func (p *Page) ToBytes() [Size]byte {
	var out [Size]byte
	binary.BigEndian.PutUint32(out[0:4], p.ID)
	putWord(out[4:4+WordSize], p.FreeSpaceStart)
	putWord(out[4+WordSize:4+2*WordSize], p.FreeSpaceEnd)
	copy(out[headerSize:], p.body[:])
	return out
}

// FromBytes deserializes a page from a Size-byte buffer.
func FromBytes(buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, dberrors.Validation("page buffer must be %d bytes, got %d", Size, len(buf))
	}
	p := &Page{
		ID:             binary.BigEndian.Uint32(buf[0:4]),
		FreeSpaceStart: getWord(buf[4 : 4+WordSize]),
		FreeSpaceEnd:   getWord(buf[4+WordSize : 4+2*WordSize]),
	}
	if p.FreeSpaceStart > p.FreeSpaceEnd || p.FreeSpaceEnd > BodySize {
		return nil, dberrors.Validation("corrupt page %d: free_space_start=%d free_space_end=%d", p.ID, p.FreeSpaceStart, p.FreeSpaceEnd)
	}
	copy(p.body[:], buf[headerSize:])
	return p, nil
}

// slotSize is the size in bytes of one (item_offset, item_size)
// directory entry.
const slotSize = 2 * WordSize

// slotCount returns the number of items currently stored on the page.
func (p *Page) slotCount() int {
	return int(p.FreeSpaceStart) / slotSize
}

// Items walks the slot directory and reconstructs each item from its
// (offset, size) slot, in insertion order.
func (p *Page) Items() ([]Item, error) {
	n := p.slotCount()
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		slot := p.body[i*slotSize : i*slotSize+slotSize]
		offset := getWord(slot[0:WordSize])
		size := getWord(slot[WordSize:slotSize])
		if offset+size > BodySize || offset < p.FreeSpaceEnd {
			return nil, dberrors.Validation("corrupt page %d: slot %d out of bounds", p.ID, i)
		}
		items = append(items, FromPageData(p.body[offset:offset+size]))
	}
	return items, nil
}

// AddItem appends item in insertion order: slot i always refers to the
// i-th inserted item. Returns a validation error if the item does not
// fit in the page's remaining free space.
func (p *Page) AddItem(item Item) error {
	b := uint64(len(item.Body))
	if b+slotSize > p.FreeSpaceEnd-p.FreeSpaceStart {
		return dberrors.Validation("not enough space on page %d for a %d byte item", p.ID, b)
	}
	itemOffset := p.FreeSpaceEnd - b
	slot := p.body[p.FreeSpaceStart : p.FreeSpaceStart+slotSize]
	putWord(slot[0:WordSize], itemOffset)
	putWord(slot[WordSize:slotSize], b)
	p.FreeSpaceStart += slotSize
	copy(p.body[itemOffset:itemOffset+b], item.Body)
	p.FreeSpaceEnd = itemOffset
	return nil
}

// FreeBytes returns the number of bytes currently free between the
// directory and the item area.
func (p *Page) FreeBytes() uint64 {
	return p.FreeSpaceEnd - p.FreeSpaceStart
}

// RemoveItem drops the slot at index i and compacts the remaining slots
// and item bodies so the page's invariants (directory/body
// non-overlap, slot count = free_space_start/slot_size) continue to
// hold. Used by the table-file engine's relocate-on-grow update policy
// (§9) to evict an item before it is re-inserted elsewhere.
func (p *Page) RemoveItem(i int) error {
	items, err := p.Items()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(items) {
		return dberrors.Validation("slot index %d out of range", i)
	}
	items = append(items[:i], items[i+1:]...)
	*p = *New(p.ID)
	for _, it := range items {
		if err := p.AddItem(it); err != nil {
			return err
		}
	}
	return nil
}
