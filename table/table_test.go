package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/expr"
	"github.com/csbase/csbase/page"
	"github.com/csbase/csbase/value"
)

func schema() catalog.Schema {
	return catalog.Schema{Name: "t", Columns: []catalog.Column{
		{Name: "id", Type: value.Int},
		{Name: "name", Type: value.Str},
	}}
}

func newTable(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t_data.csbase")
	require.NoError(t, Create(path))
	return Open(path, nil), path
}

func TestInsertAndScan(t *testing.T) {
	f, _ := newTable(t)
	require.NoError(t, f.Insert([]value.Value{value.NewInt(1), value.NewStr("a")}))

	var rows [][]value.Value
	require.NoError(t, f.Scan(schema(), nil, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), mustInt(t, rows[0][0]))
}

func mustInt(t *testing.T, v value.Value) int32 {
	t.Helper()
	i, ok := v.Int()
	require.True(t, ok)
	return i
}

func TestInsertManyKeepsOrderAndFileSize(t *testing.T) {
	f, path := newTable(t)
	for i := 0; i < 1000; i++ {
		require.NoError(t, f.Insert([]value.Value{value.NewInt(int32(i)), value.NewStr("x")}))
	}
	var rows [][]value.Value
	require.NoError(t, f.Scan(schema(), nil, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 1000)
	for i, r := range rows {
		assert.Equal(t, int32(i), mustInt(t, r[0]))
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Size() >= page.Size)
	assert.Equal(t, int64(0), info.Size()%page.Size)
}

func TestScanWithCondition(t *testing.T) {
	f, _ := newTable(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.Insert([]value.Value{value.NewInt(int32(i)), value.NewStr("x")}))
	}
	cond := expr.Compare(expr.Ident("id"), value.Gt, expr.Lit(value.NewInt(2)))
	var rows [][]value.Value
	require.NoError(t, f.Scan(schema(), cond, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	assert.Len(t, rows, 2)

	falseCond := expr.Compare(expr.Ident("id"), value.Lt, expr.Lit(value.NewInt(0)))
	rows = nil
	require.NoError(t, f.Scan(schema(), falseCond, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	assert.Empty(t, rows)
}

func TestOversizedRecordFails(t *testing.T) {
	f, _ := newTable(t)
	huge := make([]byte, page.BodySize+1)
	for i := range huge {
		huge[i] = 'x'
	}
	err := f.Insert([]value.Value{value.NewInt(1), value.NewStr(string(huge))})
	assert.Error(t, err)
}

func TestUpdateInPlace(t *testing.T) {
	f, _ := newTable(t)
	require.NoError(t, f.Insert([]value.Value{value.NewInt(1), value.NewStr("a")}))
	require.NoError(t, f.Insert([]value.Value{value.NewInt(2), value.NewStr("b")}))

	n, err := f.Update(schema(), map[string]value.Value{"name": value.NewStr("z")},
		expr.Compare(expr.Ident("id"), value.Eq, expr.Lit(value.NewInt(1))))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var rows [][]value.Value
	require.NoError(t, f.Scan(schema(), nil, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 2)
	got, _ := rows[0][1].Str()
	assert.Equal(t, "z", got)
}

func TestUpdateRelocatesWhenItemGrows(t *testing.T) {
	f, _ := newTable(t)
	require.NoError(t, f.Insert([]value.Value{value.NewInt(1), value.NewStr("a")}))

	n, err := f.Update(schema(), map[string]value.Value{"name": value.NewStr("a much longer replacement value")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var rows [][]value.Value
	require.NoError(t, f.Scan(schema(), nil, func(r []value.Value) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 1)
	got, _ := rows[0][1].Str()
	assert.Equal(t, "a much longer replacement value", got)
}
