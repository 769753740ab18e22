package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/value"
)

func TestNewPageInvariants(t *testing.T) {
	p := New(1)
	assert.Equal(t, uint64(0), p.FreeSpaceStart)
	assert.Equal(t, uint64(BodySize), p.FreeSpaceEnd)
}

func TestPageByteRoundTrip(t *testing.T) {
	p := New(3)
	item, err := FromRecord([]value.Value{value.NewInt(42)})
	require.NoError(t, err)
	require.NoError(t, p.AddItem(item))

	buf := p.ToBytes()
	p2, err := FromBytes(buf[:])
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
	assert.Equal(t, p.FreeSpaceStart, p2.FreeSpaceStart)
	assert.Equal(t, p.FreeSpaceEnd, p2.FreeSpaceEnd)
	assert.LessOrEqual(t, p2.FreeSpaceStart, p2.FreeSpaceEnd)

	items, err := p2.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.Body, items[0].Body)
}

func TestAddItemInsertionOrder(t *testing.T) {
	p := New(1)
	for i := 0; i < 5; i++ {
		item, err := FromRecord([]value.Value{value.NewInt(int32(i))})
		require.NoError(t, err)
		require.NoError(t, p.AddItem(item))
	}
	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, it := range items {
		rec, err := ToRecord(it, schemaFor(colInt("n")))
		require.NoError(t, err)
		assert.Equal(t, int32(i), mustInt(t, rec[0]))
	}
}

func colInt(name string) catalog.Column {
	return catalog.Column{Name: name, Type: value.Int}
}

func TestAddItemNotEnoughSpace(t *testing.T) {
	p := New(1)
	big := Item{Body: make([]byte, BodySize)}
	err := p.AddItem(big)
	assert.Error(t, err)
}

func TestAddItemExactCapacity(t *testing.T) {
	p := New(1)
	// Fill until the next item no longer fits, then confirm it is rejected.
	for {
		item, err := FromRecord([]value.Value{value.NewStr("0123456789abcdef")})
		require.NoError(t, err)
		if uint64(len(item.Body))+slotSize > p.FreeBytes() {
			err := p.AddItem(item)
			assert.Error(t, err)
			break
		}
		require.NoError(t, p.AddItem(item))
	}
}

func TestRemoveItemCompacts(t *testing.T) {
	p := New(1)
	for i := 0; i < 3; i++ {
		item, err := FromRecord([]value.Value{value.NewInt(int32(i))})
		require.NoError(t, err)
		require.NoError(t, p.AddItem(item))
	}
	require.NoError(t, p.RemoveItem(1))
	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
	rec0, _ := ToRecord(items[0], schemaFor(colInt("n")))
	rec1, _ := ToRecord(items[1], schemaFor(colInt("n")))
	assert.Equal(t, int32(0), mustInt(t, rec0[0]))
	assert.Equal(t, int32(2), mustInt(t, rec1[0]))
}
