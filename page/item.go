// Package page implements the on-page record encoding (Item) and the
// fixed-size slotted container (Page) that stores items.
package page

import (
	"encoding/binary"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/dberrors"
	"github.com/csbase/csbase/value"
)

// WordSize is the serialization width pinned for every "size"/"count"
// field on disk (slot directory entries, item field count, string length
// prefixes), per §9's portability note: a fixed 8-byte big-endian
// unsigned integer, independent of the host's native int width.
const WordSize = 8

// Item is the on-page encoding of one record: a field count, a null
// bitmap (bit i set iff field i is null), and the packed bytes of the
// non-null fields in column order. Body holds that encoding verbatim,
// ready to be copied into (or read out of) a page's item area.
type Item struct {
	Body []byte
}

// FromRecord packs record into an Item. Null fields are marked in the
// bitmap and contribute no body bytes.
func FromRecord(record []value.Value) (Item, error) {
	fieldCount := len(record)
	bitmapLen := (fieldCount + 7) / 8
	out := make([]byte, WordSize+bitmapLen)
	putWord(out[0:WordSize], uint64(fieldCount))
	bitmap := out[WordSize : WordSize+bitmapLen]

	for i, v := range record {
		if v.IsNull() {
			bitmap[i/8] |= 1 << uint(i%8)
			continue
		}
		body, err := value.Encode(v)
		if err != nil {
			return Item{}, err
		}
		if v.Type() == value.Str {
			lenBuf := make([]byte, WordSize)
			putWord(lenBuf, uint64(len(body)))
			out = append(out, lenBuf...)
		}
		out = append(out, body...)
	}
	return Item{Body: out}, nil
}

// ToRecord reconstructs a record from item using schema's column order
// and types. The field order in both directions follows schema column
// order.
func ToRecord(item Item, schema catalog.Schema) ([]value.Value, error) {
	buf := item.Body
	if len(buf) < WordSize {
		return nil, dberrors.Validation("item too short to contain a field count")
	}
	fieldCount := int(getWord(buf[0:WordSize]))
	if fieldCount != len(schema.Columns) {
		return nil, dberrors.Validation("item has %d fields, schema %q has %d columns", fieldCount, schema.Name, len(schema.Columns))
	}
	bitmapLen := (fieldCount + 7) / 8
	off := WordSize
	if len(buf) < off+bitmapLen {
		return nil, dberrors.Validation("item too short to contain a null bitmap")
	}
	bitmap := buf[off : off+bitmapLen]
	off += bitmapLen

	record := make([]value.Value, fieldCount)
	for i, col := range schema.Columns {
		if bitmap[i/8]&(1<<uint(i%8)) != 0 {
			record[i] = value.Null
			continue
		}
		switch col.Type {
		case value.Str:
			if len(buf) < off+WordSize {
				return nil, dberrors.Validation("item truncated reading string length for %q", col.Name)
			}
			n := int(getWord(buf[off : off+WordSize]))
			off += WordSize
			if len(buf) < off+n {
				return nil, dberrors.Validation("item truncated reading string body for %q", col.Name)
			}
			v, err := value.Decode(value.Str, buf[off:off+n])
			if err != nil {
				return nil, err
			}
			record[i] = v
			off += n
		case value.Bool:
			if len(buf) < off+1 {
				return nil, dberrors.Validation("item truncated reading bool for %q", col.Name)
			}
			v, err := value.Decode(value.Bool, buf[off:off+1])
			if err != nil {
				return nil, err
			}
			record[i] = v
			off++
		case value.Int, value.Float:
			if len(buf) < off+4 {
				return nil, dberrors.Validation("item truncated reading %v for %q", col.Type, col.Name)
			}
			v, err := value.Decode(col.Type, buf[off:off+4])
			if err != nil {
				return nil, err
			}
			record[i] = v
			off += 4
		default:
			return nil, dberrors.Validation("unknown column type %v", col.Type)
		}
	}
	return record, nil
}

// ToPageData returns the flat byte slice to be copied into a page's
// item area.
func (it Item) ToPageData() []byte {
	return it.Body
}

// FromPageData reconstructs an Item from a flat byte slice read out of a
// page. The bytes are copied so the Item does not alias the page body.
func FromPageData(data []byte) Item {
	body := make([]byte, len(data))
	copy(body, data)
	return Item{Body: body}
}

func putWord(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

func getWord(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}
