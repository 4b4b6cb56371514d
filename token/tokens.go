package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// A Token is an atomic parser event of a JSON document.  For example the
// document
//
//	{"id": 123, "tags": ["important", "new"]}
//
// is parsed into the following sequence (in pseudocode):
//
//	{            -> StartObject
//	"id":        -> Key("id")
//	123,         -> Scalar(123, Number)
//	"tags":      -> Key("tags")
//	[            -> StartArray
//	"important", -> Scalar("important", String)
//	"new"        -> Scalar("new", String)
//	]            -> EndArray
//	}            -> EndObject
//
// Tokens are immutable once produced, so they can be shared between a parser,
// a Buffer and any number of replays of that buffer.
type Token interface {
	fmt.Stringer
}

// StartObject is the token for '{'.
type StartObject struct{}

func (s *StartObject) String() string {
	return "StartObject"
}

// EndObject is the token for '}'.
type EndObject struct{}

func (e *EndObject) String() string {
	return "EndObject"
}

// StartArray is the token for '['.
type StartArray struct{}

func (s *StartArray) String() string {
	return "StartArray"
}

// EndArray is the token for ']'.
type EndArray struct{}

func (e *EndArray) String() string {
	return "EndArray"
}

// Shared instances of the structural tokens.  They carry no data so parsers
// never need to allocate new ones.
var (
	StartObjectToken Token = &StartObject{}
	EndObjectToken   Token = &EndObject{}
	StartArrayToken  Token = &StartArray{}
	EndArrayToken    Token = &EndArray{}
)

// Scalar represents strings, numbers, booleans and null.  Object keys are
// string scalars with the key flag set.
type Scalar struct {

	// Literal representation of the value as found in the input, e.g.
	// - the string "foo" is []byte("\"foo\"")
	// - the number 123.5 is []byte("123.5")
	// - the boolean true is []byte("true")
	Bytes []byte

	TypeAndFlags uint8
}

// NewScalar returns a scalar value of the given type.  The bytes are not
// copied.
func NewScalar(tp ScalarType, bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(tp),
	}
}

// NewKey returns an object key.
func NewKey(bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(String) | KeyMask,
	}
}

func (s *Scalar) Type() ScalarType {
	return ScalarType(s.TypeAndFlags & TypeMask)
}

func (s *Scalar) IsKey() bool {
	return KeyMask&s.TypeAndFlags != 0
}

func (s *Scalar) IsAlnum() bool {
	return AlnumMask&s.TypeAndFlags != 0
}

// IsUnescaped is true for strings which contain no backslash, so the
// characters between the quotes are the string value.
func (s *Scalar) IsUnescaped() bool {
	return UnescapedMask&s.TypeAndFlags != 0
}

func (s *Scalar) String() string {
	if s.IsKey() {
		return fmt.Sprintf("Key(%s)", s.Bytes)
	}
	return fmt.Sprintf("Scalar(%s)", s.Bytes)
}

// ToString panics if s is not a string.
func (s *Scalar) ToString() string {
	if s.IsUnescaped() {
		return string(s.Bytes[1 : len(s.Bytes)-1])
	}
	tok, err := parseLiteral(s.Bytes)
	if err != nil {
		panic(err)
	}
	return tok.(string)
}

// ToGo converts the scalar to the value encoding/json would produce for it
// in an interface value.  It fails for numbers out of the range of float64.
func (s *Scalar) ToGo() (any, error) {
	if s.IsUnescaped() {
		return string(s.Bytes[1 : len(s.Bytes)-1]), nil
	}
	return parseLiteral(s.Bytes)
}

func parseLiteral(b []byte) (json.Token, error) {
	return json.NewDecoder(bytes.NewReader(b)).Token()
}

// ScalarType encodes the four possible JSON scalar types.
type ScalarType uint8

const (
	Null    ScalarType = 0x0
	Boolean ScalarType = 0x1
	Number  ScalarType = 0x2
	String  ScalarType = 0x3
)

const (
	TypeMask      = 0b00011
	KeyMask       = 0b00100
	AlnumMask     = 0b01000
	UnescapedMask = 0b10000
)

var (
	TrueScalar  = NewScalar(Boolean, []byte("true"))
	FalseScalar = NewScalar(Boolean, []byte("false"))
	NullScalar  = NewScalar(Null, []byte("null"))
)

func StringScalar(s string) *Scalar {
	var b bytes.Buffer
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		panic(err)
	}
	encoded := b.Bytes()
	// Encode adds a trailing new line
	return NewScalar(String, encoded[:len(encoded)-1])
}

// Float64Scalar formats x the way encoding/json does.
func Float64Scalar(x float64) *Scalar {
	format := byte('f')
	if abs := math.Abs(x); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, x, format, -1, 64)
	if format == 'e' {
		// e-09 becomes e-9
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	return NewScalar(Number, b)
}

func Int64Scalar(n int64) *Scalar {
	return NewScalar(Number, []byte(strconv.FormatInt(n, 10)))
}

func BoolScalar(b bool) *Scalar {
	if b {
		return TrueScalar
	}
	return FalseScalar
}

// ToScalar converts simple Go values to scalars.
func ToScalar(value any) (*Scalar, error) {
	if value == nil {
		return NullScalar, nil
	}
	switch x := value.(type) {
	case string:
		return StringScalar(x), nil
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("unsupported number: %v", x)
		}
		return Float64Scalar(x), nil
	case int64:
		return Int64Scalar(x), nil
	case int:
		return Int64Scalar(int64(x)), nil
	case bool:
		return BoolScalar(x), nil
	default:
		return nil, errors.New("not a scalar value")
	}
}
