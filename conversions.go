package aotvm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type PreferredType uint8

const (
	HintDefault PreferredType = iota
	HintString
	HintNumber
)

func (h PreferredType) String() string {
	switch h {
	case HintString:
		return "string"
	case HintNumber:
		return "number"
	default:
		return "default"
	}
}

// ToPrimitive consults @@toPrimitive before falling back to
// OrdinaryToPrimitive.
func (vm *VM) ToPrimitive(input JSValue, hint PreferredType) (JSValue, error) {
	obj, isObj := input.(*JSObject)
	if !isObj {
		return input, nil
	}

	exoticToPrim, err := vm.GetMethod(obj, NameSym(vm.symbols.toPrimitive))
	if err != nil {
		return nil, err
	}
	if exoticToPrim != nil {
		result, err := vm.Call(exoticToPrim, obj, []JSValue{JSString(hint.String())})
		if err != nil {
			return nil, err
		}
		if IsObject(result) {
			return nil, vm.ThrowError("TypeError", "cannot convert object to primitive value")
		}
		return result, nil
	}
	if hint == HintDefault {
		hint = HintNumber
	}
	return vm.OrdinaryToPrimitive(obj, hint)
}

func (vm *VM) OrdinaryToPrimitive(o *JSObject, hint PreferredType) (JSValue, error) {
	var methodNames []string
	if hint == HintString {
		methodNames = []string{"toString", "valueOf"}
	} else {
		methodNames = []string{"valueOf", "toString"}
	}

	for _, name := range methodNames {
		method, err := vm.Get(o, NameStr(name))
		if err != nil {
			return nil, err
		}
		if !IsCallable(method) {
			continue
		}
		result, err := vm.Call(method, o, nil)
		if err != nil {
			return nil, err
		}
		if !IsObject(result) {
			return result, nil
		}
	}
	return nil, vm.ThrowError("TypeError", "cannot convert object to primitive value")
}

func (vm *VM) ToBoolean(value JSValue) JSBoolean {
	switch spec := value.(type) {
	case JSBoolean:
		return spec
	case JSNull, JSUndefined:
		return false
	case JSNumber:
		return JSBoolean(!(spec == 0 || math.IsNaN(float64(spec))))
	case JSString:
		return spec != ""
	case *JSSymbol, *JSObject:
		return true
	default:
		panic(fmt.Sprintf("bug: ToBoolean: invalid value type: %#v", value))
	}
}

func (vm *VM) ToNumber(value JSValue) (JSNumber, error) {
	switch spec := value.(type) {
	case JSUndefined:
		return JSNumber(math.NaN()), nil
	case JSNull:
		return 0, nil
	case JSBoolean:
		if spec {
			return 1, nil
		}
		return 0, nil
	case JSNumber:
		return spec, nil
	case JSString:
		return StringToNumber(string(spec)), nil
	case *JSSymbol:
		return 0, vm.ThrowError("TypeError", "cannot convert a Symbol value to a number")
	case *JSObject:
		prim, err := vm.ToPrimitive(value, HintNumber)
		if err != nil {
			return 0, err
		}
		return vm.ToNumber(prim)
	default:
		panic(fmt.Sprintf("bug: ToNumber: unexpected value: %#v", value))
	}
}

func isJSWhitespace(r rune) bool {
	switch r {
	case '\t', '\v', '\f', ' ', '\u00A0', '\uFEFF', '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

var decimalLiteralRe = regexp.MustCompile(`^[+-]?(?:(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?|Infinity)$`)

// StringToNumber applies the StringNumericLiteral grammar; anything it does
// not accept is NaN.
func StringToNumber(s string) JSNumber {
	s = strings.TrimFunc(s, isJSWhitespace)
	if s == "" {
		return 0
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			var v float64
			for _, c := range s[2:] {
				d, ok := digitValue(c)
				if !ok || d >= base {
					return JSNumber(math.NaN())
				}
				v = v*float64(base) + float64(d)
			}
			return JSNumber(v)
		}
	}

	if !decimalLiteralRe.MatchString(s) {
		return JSNumber(math.NaN())
	}
	switch s {
	case "Infinity", "+Infinity":
		return JSNumber(math.Inf(1))
	case "-Infinity":
		return JSNumber(math.Inf(-1))
	}
	// out-of-range literals still come back as ±Inf or ±0
	f, _ := strconv.ParseFloat(s, 64)
	return JSNumber(f)
}

func digitValue(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// NumberToString renders the shortest round-tripping digits in the layout
// Number::toString prescribes.
func NumberToString(m float64) JSString {
	switch {
	case math.IsNaN(m):
		return "NaN"
	case m == 0:
		return "0"
	case m < 0:
		return "-" + NumberToString(-m)
	case math.IsInf(m, 1):
		return "Infinity"
	}

	// d.ddde±x
	repr := strconv.FormatFloat(m, 'e', -1, 64)
	mantissa, expStr, _ := strings.Cut(repr, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, err := strconv.Atoi(expStr)
	if err != nil {
		panic("bug: unexpected float format: " + repr)
	}
	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		return JSString(digits + strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		return JSString(digits[:n] + "." + digits[n:])
	case -6 < n && n <= 0:
		return JSString("0." + strings.Repeat("0", -n) + digits)
	}

	e := n - 1
	sign := "+"
	if e < 0 {
		sign = "-"
		e = -e
	}
	if k == 1 {
		return JSString(digits + "e" + sign + strconv.Itoa(e))
	}
	return JSString(digits[:1] + "." + digits[1:] + "e" + sign + strconv.Itoa(e))
}

func (vm *VM) ToString(val JSValue) (JSString, error) {
	switch val := val.(type) {
	case JSString:
		return val, nil
	case *JSSymbol:
		return "", vm.ThrowError("TypeError", "cannot convert a Symbol value to a string")
	case JSUndefined:
		return "undefined", nil
	case JSNull:
		return "null", nil
	case JSBoolean:
		if val {
			return "true", nil
		}
		return "false", nil
	case JSNumber:
		return NumberToString(float64(val)), nil
	case *JSObject:
		prim, err := vm.ToPrimitive(val, HintString)
		if err != nil {
			return "", err
		}
		return vm.ToString(prim)
	default:
		panic(fmt.Sprintf("bug: ToString: invalid operand %#v", val))
	}
}

// ToObject boxes primitives with the wrappers of the current realm.
func (vm *VM) ToObject(value JSValue) (*JSObject, error) {
	in := vm.CurrentRealm().Intrinsics
	switch spec := value.(type) {
	case *JSObject:
		return spec, nil
	case JSBoolean:
		return wrapPrimitive(in.BooleanPrototype, "Boolean", spec), nil
	case JSNumber:
		return wrapPrimitive(in.NumberPrototype, "Number", spec), nil
	case JSString:
		return StringCreate(vm, spec, in.StringPrototype), nil
	case *JSSymbol:
		return wrapPrimitive(in.SymbolPrototype, "Symbol", spec), nil
	default:
		return nil, vm.ThrowError("TypeError", "cannot convert "+vm.describe(value)+" to object")
	}
}

func wrapPrimitive(proto *JSObject, class string, prim JSValue) *JSObject {
	obj := OrdinaryObjectCreate(proto)
	obj.class = class
	obj.primitive = prim
	return obj
}

func (vm *VM) ToPropertyKey(v JSValue) (Name, error) {
	key, err := vm.ToPrimitive(v, HintString)
	if err != nil {
		return Name{}, err
	}
	if sym, isSym := key.(*JSSymbol); isSym {
		return NameSym(sym), nil
	}
	s := must(vm.ToString(key))
	return NameStr(string(s)), nil
}

func (vm *VM) ToIntegerOrInfinity(v JSValue) (float64, error) {
	number, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return integerOrInfinity(float64(number)), nil
}

func integerOrInfinity(f float64) float64 {
	if math.IsNaN(f) || f == 0 {
		return 0
	}
	if math.IsInf(f, 0) {
		return f
	}
	return math.Trunc(f) + 0
}

const maxSafeInteger = 1<<53 - 1

func (vm *VM) ToLength(v JSValue) (int64, error) {
	l, err := vm.ToIntegerOrInfinity(v)
	if err != nil {
		return 0, err
	}
	if l <= 0 {
		return 0, nil
	}
	return int64(math.Min(l, maxSafeInteger)), nil
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	f = math.Mod(math.Trunc(f), 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

func (vm *VM) ToUint32(v JSValue) (uint32, error) {
	n, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return toUint32(float64(n)), nil
}

func (vm *VM) ToInt32(v JSValue) (int32, error) {
	n, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return int32(toUint32(float64(n))), nil
}

func (vm *VM) ToUint16(v JSValue) (uint16, error) {
	n, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return uint16(toUint32(float64(n))), nil
}

// CanonicalNumericIndexString reports the number a string key denotes, if
// the key is the canonical rendering of that number (or "-0").
func CanonicalNumericIndexString(s string) (JSNumber, bool) {
	if s == "-0" {
		return JSNumber(math.Copysign(0, -1)), true
	}
	n := StringToNumber(s)
	if string(NumberToString(float64(n))) != s {
		return 0, false
	}
	return n, true
}

// IsIntegralNumber excludes NaN and infinities.
func IsIntegralNumber(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && math.Trunc(n) == n
}

// sameType compares language types; callable objects are still Objects.
func sameType(x, y JSValue) bool {
	cx, cy := x.Category(), y.Category()
	if cx == VFunction {
		cx = VObject
	}
	if cy == VFunction {
		cy = VObject
	}
	return cx == cy
}

// IsLooselyEqual implements `==`.
func (vm *VM) IsLooselyEqual(x, y JSValue) (bool, error) {
	if sameType(x, y) {
		return IsStrictlyEqual(x, y), nil
	}
	if IsNullish(x) && IsNullish(y) {
		return true, nil
	}

	switch xv := x.(type) {
	case JSNumber:
		if ys, isStr := y.(JSString); isStr {
			return xv == StringToNumber(string(ys)), nil
		}
	case JSString:
		if yn, isNum := y.(JSNumber); isNum {
			return StringToNumber(string(xv)) == yn, nil
		}
	case JSBoolean:
		return vm.IsLooselyEqual(must(vm.ToNumber(xv)), y)
	}
	if yb, isBool := y.(JSBoolean); isBool {
		return vm.IsLooselyEqual(x, must(vm.ToNumber(yb)))
	}

	switch x.(type) {
	case JSString, JSNumber, *JSSymbol:
		if IsObject(y) {
			prim, err := vm.ToPrimitive(y, HintDefault)
			if err != nil {
				return false, err
			}
			return vm.IsLooselyEqual(x, prim)
		}
	case *JSObject:
		switch y.(type) {
		case JSString, JSNumber, *JSSymbol:
			prim, err := vm.ToPrimitive(x, HintDefault)
			if err != nil {
				return false, err
			}
			return vm.IsLooselyEqual(prim, y)
		}
	}
	return false, nil
}

// IsLessThan returns TNeither when either side is NaN. leftFirst controls
// the order in which the operands are converted.
func (vm *VM) IsLessThan(x, y JSValue, leftFirst bool) (tribool, error) {
	var px, py JSValue
	var err error
	if leftFirst {
		if px, err = vm.ToPrimitive(x, HintNumber); err != nil {
			return TNeither, err
		}
		if py, err = vm.ToPrimitive(y, HintNumber); err != nil {
			return TNeither, err
		}
	} else {
		if py, err = vm.ToPrimitive(y, HintNumber); err != nil {
			return TNeither, err
		}
		if px, err = vm.ToPrimitive(x, HintNumber); err != nil {
			return TNeither, err
		}
	}

	if xs, isXStr := px.(JSString); isXStr {
		if ys, isYStr := py.(JSString); isYStr {
			a, b := xs.codeUnits(), ys.codeUnits()
			limit := min(len(a), len(b))
			for i := 0; i < limit; i++ {
				if a[i] < b[i] {
					return TTrue, nil
				}
				if a[i] > b[i] {
					return TFalse, nil
				}
			}
			return bool2tri(len(a) < len(b)), nil
		}
	}

	nx, err := vm.ToNumber(px)
	if err != nil {
		return TNeither, err
	}
	ny, err := vm.ToNumber(py)
	if err != nil {
		return TNeither, err
	}
	if math.IsNaN(float64(nx)) || math.IsNaN(float64(ny)) {
		return TNeither, nil
	}
	return bool2tri(nx < ny), nil
}

func floatRemainder(n, d float64) float64 {
	// 1. If n is NaN or d is NaN, return NaN.
	if math.IsNaN(n) || math.IsNaN(d) {
		return math.NaN()
	}

	// 2. If n is either +∞𝔽 or -∞𝔽, return NaN.
	if math.IsInf(n, 0) {
		return math.NaN()
	}

	// 3. If d is either +∞𝔽 or -∞𝔽, return n.
	if math.IsInf(d, 0) {
		return n
	}

	// 4. If d is either +0𝔽 or -0𝔽, return NaN.
	if d == 0 {
		return math.NaN()
	}

	// 5. If n is either +0𝔽 or -0𝔽, return n.
	if n == 0 {
		return n
	}

	// 6-9. r = n - d * truncate(n / d), computed exactly
	r := math.Mod(n, d)

	// 10. If r = 0 and n < -0𝔽, return -0𝔽.
	if r == 0 && n < 0 {
		return math.Copysign(0, -1)
	}

	// 11. Return 𝔽(r).
	return r
}
