package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csbase/csbase/value"
)

func TestEvalConstArithmetic(t *testing.T) {
	e := Arithmetic(Lit(value.NewInt(6)), Div, Lit(value.NewInt(2)))
	v, err := EvalConst(e)
	require.NoError(t, err)
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, float32(3.0), f)
}

func TestIdentWithoutBinding(t *testing.T) {
	_, err := Eval(Ident("x"), nil)
	assert.Error(t, err)
}

func TestIdentUnresolved(t *testing.T) {
	_, err := Eval(Ident("x"), Binding{"y": value.NewInt(1)})
	assert.Error(t, err)
}

func TestIdentBound(t *testing.T) {
	v, err := Eval(Ident("x"), Binding{"x": value.NewInt(5)})
	require.NoError(t, err)
	i, _ := v.Int()
	assert.Equal(t, int32(5), i)
}

func TestCompareExpr(t *testing.T) {
	e := Compare(Ident("x"), value.Gt, Lit(value.NewInt(2)))
	v, err := Eval(e, Binding{"x": value.NewInt(5)})
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)

	v, err = Eval(e, Binding{"x": value.NewInt(1)})
	require.NoError(t, err)
	b, _ = v.Bool()
	assert.False(t, b)
}

func TestLogicExpr(t *testing.T) {
	e := Logical(Lit(value.NewBool(true)), value.And, Lit(value.NewBool(false)))
	v, err := Eval(e, nil)
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.False(t, b)
}

func TestErrorPropagatesLeftFirst(t *testing.T) {
	e := Arithmetic(Ident("missing"), Add, Ident("other"))
	_, err := Eval(e, Binding{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}
