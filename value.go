package aotvm

import (
	"fmt"
	"math"
	"sync/atomic"
	"unicode/utf16"
)

type JSValue interface {
	Category() JSVCategory
}

type JSVCategory uint8

const (
	VEmpty JSVCategory = iota
	VUndefined
	VNull
	VNumber
	VBoolean
	VString
	VSymbol
	VObject
	VFunction
)

func (c JSVCategory) String() string {
	switch c {
	case VEmpty:
		return "empty"
	case VUndefined:
		return "undefined"
	case VNull:
		return "null"
	case VNumber:
		return "number"
	case VBoolean:
		return "boolean"
	case VString:
		return "string"
	case VSymbol:
		return "symbol"
	case VObject:
		return "object"
	case VFunction:
		return "function"
	default:
		return fmt.Sprintf("JSVCategory(%d)", uint8(c))
	}
}

// JSEmpty marks an uninitialized slot. Language-level operations never observe it as a
// language value.
type JSEmpty struct{}

func (v JSEmpty) Category() JSVCategory { return VEmpty }

type JSUndefined struct{}

func (v JSUndefined) Category() JSVCategory { return VUndefined }

type JSNull struct{}

func (v JSNull) Category() JSVCategory { return VNull }

type JSNumber float64

func (v JSNumber) Category() JSVCategory { return VNumber }

type JSBoolean bool

func (v JSBoolean) Category() JSVCategory { return VBoolean }

// JSString holds UTF-8 text. Lengths and indices exposed to scripts are
// counted in UTF-16 code units.
type JSString string

func (v JSString) Category() JSVCategory { return VString }

func (v JSString) codeUnits() []uint16 {
	return utf16.Encode([]rune(string(v)))
}

// Length is the number of UTF-16 code units.
func (v JSString) Length() int {
	n := 0
	for _, r := range string(v) {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func stringFromCodeUnits(units []uint16) JSString {
	return JSString(string(utf16.Decode(units)))
}

type JSSymbol struct {
	id uint64
	// JSString or JSUndefined
	Description JSValue
}

func (s *JSSymbol) Category() JSVCategory { return VSymbol }

func (s *JSSymbol) ID() uint64 { return s.id }

func (s *JSSymbol) String() string {
	if d, ok := s.Description.(JSString); ok {
		return "Symbol(" + string(d) + ")"
	}
	return "Symbol()"
}

func NewSymbol(description JSValue) *JSSymbol {
	if description == nil {
		description = JSUndefined{}
	}
	return &JSSymbol{id: newID(), Description: description}
}

var lastID atomic.Uint64

// newID hands out identities for objects and symbols. Ids grow
// monotonically within a process.
func newID() uint64 {
	return lastID.Add(1)
}

func IsEmpty(v JSValue) bool {
	if v == nil {
		return true
	}
	_, ok := v.(JSEmpty)
	return ok
}

func IsUndefined(v JSValue) bool {
	_, ok := v.(JSUndefined)
	return ok
}

func IsNull(v JSValue) bool {
	_, ok := v.(JSNull)
	return ok
}

func IsNullish(v JSValue) bool {
	return IsUndefined(v) || IsNull(v)
}

func IsObject(v JSValue) bool {
	_, ok := v.(*JSObject)
	return ok
}

func IsCallable(v JSValue) bool {
	o, ok := v.(*JSObject)
	return ok && o.callable
}

func IsConstructor(v JSValue) bool {
	o, ok := v.(*JSObject)
	return ok && o.constructor
}

// SameValue is reference identity for objects and symbols; numbers treat NaN
// as equal to itself and distinguish +0 from -0.
func SameValue(x, y JSValue) bool {
	if xn, ok := x.(JSNumber); ok {
		yn, ok := y.(JSNumber)
		if !ok {
			return false
		}
		a, b := float64(xn), float64(yn)
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		if a == 0 && b == 0 {
			return math.Signbit(a) == math.Signbit(b)
		}
		return a == b
	}
	return sameValueNonNumber(x, y)
}

func SameValueZero(x, y JSValue) bool {
	if xn, ok := x.(JSNumber); ok {
		yn, ok := y.(JSNumber)
		if !ok {
			return false
		}
		if math.IsNaN(float64(xn)) && math.IsNaN(float64(yn)) {
			return true
		}
		return xn == yn
	}
	return sameValueNonNumber(x, y)
}

func sameValueNonNumber(x, y JSValue) bool {
	if x.Category() != y.Category() {
		return false
	}
	switch xv := x.(type) {
	case JSUndefined, JSNull, JSEmpty:
		return true
	case JSBoolean:
		return xv == y.(JSBoolean)
	case JSString:
		return xv == y.(JSString)
	case *JSSymbol:
		return xv == y.(*JSSymbol)
	case *JSObject:
		return xv == y.(*JSObject)
	default:
		panic(fmt.Sprintf("bug: sameValueNonNumber: unexpected value %#v", x))
	}
}

// IsStrictlyEqual implements `===`.
func IsStrictlyEqual(x, y JSValue) bool {
	if xn, ok := x.(JSNumber); ok {
		yn, ok := y.(JSNumber)
		return ok && xn == yn
	}
	return sameValueNonNumber(x, y)
}

func typeOf(v JSValue) JSString {
	switch v.Category() {
	case VUndefined:
		return "undefined"
	case VNull, VObject:
		return "object"
	case VBoolean:
		return "boolean"
	case VNumber:
		return "number"
	case VString:
		return "string"
	case VSymbol:
		return "symbol"
	case VFunction:
		return "function"
	default:
		panic(fmt.Sprintf("bug: typeof applied to %s", v.Category()))
	}
}

func boolValue(b bool) JSBoolean { return JSBoolean(b) }
