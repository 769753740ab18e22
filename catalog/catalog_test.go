package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbase/csbase/value"
)

func TestOpenAbsentFileIsEmpty(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "tables.def"))
	require.NoError(t, err)
	assert.False(t, c.Has("t"))
}

func TestPutAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.def")
	c, err := Open(path)
	require.NoError(t, err)

	s := Schema{Name: "t", Columns: []Column{{Name: "id", Type: value.Int}}}
	require.NoError(t, c.Put(s))

	c2, err := Open(path)
	require.NoError(t, err)
	got, ok := c2.Get("t")
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestRemoveRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.def")
	c, err := Open(path)
	require.NoError(t, err)

	s := Schema{Name: "t", Columns: []Column{{Name: "id", Type: value.Int}}}
	require.NoError(t, c.Put(s))
	require.NoError(t, c.Remove("t"))

	c2, err := Open(path)
	require.NoError(t, err)
	assert.False(t, c2.Has("t"))
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "tables.def"))
	require.NoError(t, err)
	require.NoError(t, c.Remove("missing"))
}

func TestColumnLookup(t *testing.T) {
	s := Schema{Name: "t", Columns: []Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Str},
	}}
	assert.Equal(t, 1, s.ColumnIndex("name"))
	assert.Equal(t, -1, s.ColumnIndex("missing"))
	col, ok := s.Column("id")
	require.True(t, ok)
	assert.Equal(t, value.Int, col.Type)
}
