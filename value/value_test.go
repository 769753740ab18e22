package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Value{
		NewStr("hello"),
		NewBool(true),
		NewBool(false),
		NewInt(-42),
		NewFloat(3.5),
	}
	for _, v := range cases {
		body, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode(v.Type(), body)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestDecodeMalformedUTF8(t *testing.T) {
	_, err := Decode(Str, []byte{0xff, 0xfe})
	assert.Error(t, err)
}

func TestArithmeticPromotion(t *testing.T) {
	v, err := Div(NewInt(6), NewInt(2))
	require.NoError(t, err)
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, float32(3.0), f)
}

func TestDivisionByZero(t *testing.T) {
	_, err := Div(NewInt(1), NewInt(0))
	assert.Error(t, err)

	_, err = Div(NewFloat(1), NewFloat(0))
	assert.Error(t, err)
}

func TestStringConcat(t *testing.T) {
	v, err := Add(NewStr("foo"), NewStr("bar"))
	require.NoError(t, err)
	s, ok := v.Str()
	require.True(t, ok)
	assert.Equal(t, "foobar", s)
}

func TestArithmeticInvalidTypes(t *testing.T) {
	_, err := Add(NewStr("a"), NewInt(1))
	assert.Error(t, err)

	_, err = Add(NewBool(true), NewBool(false))
	assert.Error(t, err)
}

func TestCrossTypeEquality(t *testing.T) {
	ok, err := Compare(NewInt(3), Eq, NewFloat(3.0))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderingPromotion(t *testing.T) {
	ok, err := Compare(NewInt(2), Lt, NewFloat(2.5))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStringOrdering(t *testing.T) {
	ok, err := Compare(NewStr("abc"), Lt, NewStr("abd"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBoolOnlyEqNeq(t *testing.T) {
	_, err := Compare(NewBool(true), Lt, NewBool(false))
	assert.Error(t, err)

	ok, err := Compare(NewBool(true), Eq, NewBool(true))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNullNeverEqual(t *testing.T) {
	ok, err := Compare(Null, Eq, Null)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Compare(Null, Neq, NewInt(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNullUnordered(t *testing.T) {
	_, err := Compare(Null, Lt, NewInt(1))
	assert.Error(t, err)
}

func TestLogicRequiresBool(t *testing.T) {
	_, err := Logic(NewInt(1), And, NewBool(true))
	assert.Error(t, err)

	v, err := Logic(NewBool(true), Or, NewBool(false))
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)
}

func TestCompatibleWith(t *testing.T) {
	assert.True(t, Null.CompatibleWith(Int))
	assert.True(t, NewInt(1).CompatibleWith(Int))
	assert.False(t, NewInt(1).CompatibleWith(Str))
}
