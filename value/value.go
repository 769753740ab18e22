// Package value implements the typed scalar core of the engine: the closed
// type enumeration, the tagged value union, big-endian byte codecs, and the
// arithmetic/comparison algebra those values support.
package value

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/csbase/csbase/dberrors"
)

// Type is the closed enumeration of column types. Types are schema
// metadata only; they are never stored per-value on disk.
type Type int64

const (
	Str Type = iota + 1
	Bool
	Int
	Float
)

func (t Type) String() string {
	switch t {
	case Str:
		return "str"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("Type(%d)", int64(t))
	}
}

// ParseType maps a SQL type keyword onto a Type.
func ParseType(name string) (Type, bool) {
	switch name {
	case "str":
		return Str, true
	case "bool":
		return Bool, true
	case "int":
		return Int, true
	case "float":
		return Float, true
	default:
		return 0, false
	}
}

// Value is a tagged scalar: exactly one of the fields below is
// meaningful, selected by typ. The zero Value is not Null (IsNull reports
// false for it); use the Null variable for a null value.
type Value struct {
	typ    Type
	isNull bool
	str    string
	b      bool
	i      int32
	f      float32
}

// Null is the value with no type-compatible counterpart; it is never
// equal to anything, including itself.
var Null = Value{isNull: true}

func NewStr(s string) Value    { return Value{typ: Str, str: s} }
func NewBool(b bool) Value     { return Value{typ: Bool, b: b} }
func NewInt(i int32) Value     { return Value{typ: Int, i: i} }
func NewFloat(f float32) Value { return Value{typ: Float, f: f} }

func (v Value) IsNull() bool { return v.isNull }
func (v Value) Type() Type   { return v.typ }

func (v Value) Str() (string, bool) {
	if v.isNull || v.typ != Str {
		return "", false
	}
	return v.str, true
}
func (v Value) Bool() (bool, bool) {
	if v.isNull || v.typ != Bool {
		return false, false
	}
	return v.b, true
}
func (v Value) Int() (int32, bool) {
	if v.isNull || v.typ != Int {
		return 0, false
	}
	return v.i, true
}
func (v Value) Float() (float32, bool) {
	if v.isNull || v.typ != Float {
		return 0, false
	}
	return v.f, true
}

func (v Value) asFloat() (float32, bool) {
	if v.isNull {
		return 0, false
	}
	switch v.typ {
	case Int:
		return float32(v.i), true
	case Float:
		return v.f, true
	default:
		return 0, false
	}
}

// CompatibleWith reports whether v may be stored in a column of type t:
// either v's variant matches t, or v is Null.
func (v Value) CompatibleWith(t Type) bool {
	return v.isNull || v.typ == t
}

// GoString renders a debug form such as Int(3) or Str("a"), used by the
// %#v verb. The REPL prints values with String, not GoString.
func (v Value) GoString() string {
	if v.isNull {
		return "Null"
	}
	switch v.typ {
	case Str:
		return fmt.Sprintf("Str(%q)", v.str)
	case Bool:
		return fmt.Sprintf("Bool(%v)", v.b)
	case Int:
		return fmt.Sprintf("Int(%d)", v.i)
	case Float:
		return fmt.Sprintf("Float(%v)", v.f)
	default:
		return "?"
	}
}

func (v Value) String() string {
	if v.isNull {
		return "null"
	}
	switch v.typ {
	case Str:
		return v.str
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Int:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return fmt.Sprintf("%v", v.f)
	default:
		return ""
	}
}

// --- Byte codecs -----------------------------------------------------------
//
// Str: raw UTF-8. Bool: single byte (1 = true, 0 = false). Int: 4
// big-endian bytes. Float: 4 big-endian IEEE-754 bytes. These are the
// field-body encodings used by the page/item codec; they never carry a
// null marker of their own (that is the item's null bitmap's job).

// Encode returns the big-endian body bytes for a non-null value.
func Encode(v Value) ([]byte, error) {
	switch v.typ {
	case Str:
		return []byte(v.str), nil
	case Bool:
		if v.b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Int:
		return encodeUint32(uint32(v.i)), nil
	case Float:
		return encodeUint32(math.Float32bits(v.f)), nil
	default:
		return nil, dberrors.Validation("cannot encode value of type %v", v.typ)
	}
}

// Decode reconstructs a value of type t from its big-endian body bytes.
// Malformed UTF-8 for a Str decode is reported as a validation error (and
// is fatal to the scan that triggered it, per the caller's contract).
func Decode(t Type, data []byte) (Value, error) {
	switch t {
	case Str:
		if !isValidUTF8(data) {
			return Value{}, dberrors.Validation("malformed utf-8 string")
		}
		return NewStr(string(data)), nil
	case Bool:
		if len(data) != 1 {
			return Value{}, dberrors.Validation("bool field must be 1 byte, got %d", len(data))
		}
		return NewBool(data[0] != 0), nil
	case Int:
		if len(data) != 4 {
			return Value{}, dberrors.Validation("int field must be 4 bytes, got %d", len(data))
		}
		return NewInt(int32(decodeUint32(data))), nil
	case Float:
		if len(data) != 4 {
			return Value{}, dberrors.Validation("float field must be 4 bytes, got %d", len(data))
		}
		return NewFloat(math.Float32frombits(decodeUint32(data))), nil
	default:
		return Value{}, dberrors.Validation("unknown type %v", t)
	}
}

func encodeUint32(u uint32) []byte {
	return []byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)}
}

func decodeUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
