package aotvm

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// addPrimitiveWrapperConstructor creates the constructor of a primitive
// wrapper type. Called as a function it converts its argument; called with
// new it boxes the converted value.
func addPrimitiveWrapperConstructor[T JSValue](
	realm *Realm,
	name string,
	prototype *JSObject,
	coercer func(vm *VM, args []JSValue, flags CallFlags) (T, error),
	wrap func(vm *VM, prim T, proto *JSObject) *JSObject,
) *JSObject {
	constructor := makeBuiltinConstructor(realm, name, 1, prototype,
		func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			prim, err := coercer(vm, args, flags)
			if err != nil {
				return nil, err
			}
			if !flags.IsNew() {
				return prim, nil
			}

			// discard subject, wrap into NEW object
			proto, err := GetPrototypeFromConstructor(vm, flags.NewTarget(), "%"+name+".prototype%")
			if err != nil {
				return nil, err
			}
			return wrap(vm, prim, proto), nil
		})

	realm.Intrinsics.registerGlobal(name, constructor)
	return constructor
}

// thisPrimitiveValue unwraps the receiver of a wrapper prototype method:
// either a primitive of type T or a wrapper object of the given class.
func thisPrimitiveValue[T JSValue](vm *VM, this JSValue, class string, method string) (T, error) {
	if prim, ok := this.(T); ok {
		return prim, nil
	}
	if obj, isObj := this.(*JSObject); isObj && obj.class == class {
		if prim, ok := obj.primitive.(T); ok {
			return prim, nil
		}
	}
	var zero T
	return zero, vm.ThrowError("TypeError", class+".prototype."+method+" requires that 'this' be a "+class)
}

func setupBoolean(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := wrapPrimitive(in.ObjectPrototype, "Boolean", JSBoolean(false))
	in.BooleanPrototype = proto
	in.register("Boolean.prototype", proto)

	in.Boolean = addPrimitiveWrapperConstructor(
		realm, "Boolean", proto,
		func(vm *VM, args []JSValue, flags CallFlags) (JSBoolean, error) {
			return vm.ToBoolean(argOrUndefined(args, 0)), nil
		},
		func(vm *VM, b JSBoolean, proto *JSObject) *JSObject {
			return wrapPrimitive(proto, "Boolean", b)
		},
	)

	defineMethod(realm, proto, "toString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		b, err := thisPrimitiveValue[JSBoolean](vm, this, "Boolean", "toString")
		if err != nil {
			return nil, err
		}
		if b {
			return JSString("true"), nil
		}
		return JSString("false"), nil
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[JSBoolean](vm, this, "Boolean", "valueOf")
	})
}

func setupNumber(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := wrapPrimitive(in.ObjectPrototype, "Number", JSNumber(0))
	in.NumberPrototype = proto
	in.register("Number.prototype", proto)

	ctor := addPrimitiveWrapperConstructor(
		realm, "Number", proto,
		func(vm *VM, args []JSValue, flags CallFlags) (JSNumber, error) {
			if len(args) == 0 {
				return 0, nil
			}
			return vm.ToNumber(args[0])
		},
		func(vm *VM, n JSNumber, proto *JSObject) *JSObject {
			return wrapPrimitive(proto, "Number", n)
		},
	)
	in.Number = ctor

	constants := []struct {
		name  string
		value float64
	}{
		{"MAX_SAFE_INTEGER", maxSafeInteger},
		{"MIN_SAFE_INTEGER", -maxSafeInteger},
		{"EPSILON", math.Nextafter(1, 2) - 1},
		{"MAX_VALUE", math.MaxFloat64},
		{"MIN_VALUE", math.SmallestNonzeroFloat64},
		{"NaN", math.NaN()},
		{"POSITIVE_INFINITY", math.Inf(1)},
		{"NEGATIVE_INFINITY", math.Inf(-1)},
	}
	for _, c := range constants {
		defineBuiltinProperty(ctor, NameStr(c.name), DataProperty(JSNumber(c.value), false, false, false))
	}

	numberPredicate := func(name string, pred func(f float64) bool) {
		defineMethod(realm, ctor, name, 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			n, isNum := argOrUndefined(args, 0).(JSNumber)
			return JSBoolean(isNum && pred(float64(n))), nil
		})
	}
	numberPredicate("isFinite", func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) })
	numberPredicate("isNaN", math.IsNaN)
	numberPredicate("isInteger", IsIntegralNumber)
	numberPredicate("isSafeInteger", func(f float64) bool {
		return IsIntegralNumber(f) && math.Abs(f) <= maxSafeInteger
	})

	defineMethod(realm, proto, "toString", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		x, err := thisPrimitiveValue[JSNumber](vm, this, "Number", "toString")
		if err != nil {
			return nil, err
		}
		radix := 10.0
		if r := argOrUndefined(args, 0); !IsUndefined(r) {
			if radix, err = vm.ToIntegerOrInfinity(r); err != nil {
				return nil, err
			}
		}
		if radix < 2 || radix > 36 {
			return nil, vm.ThrowError("RangeError", "toString() radix must be between 2 and 36")
		}
		return numberToRadixString(float64(x), int(radix)), nil
	})
	defineMethod(realm, proto, "toLocaleString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		x, err := thisPrimitiveValue[JSNumber](vm, this, "Number", "toLocaleString")
		if err != nil {
			return nil, err
		}
		return NumberToString(float64(x)), nil
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[JSNumber](vm, this, "Number", "valueOf")
	})
}

// numberToRadixString renders x in the given base. Fractions are cut after
// a fixed number of digits.
func numberToRadixString(x float64, radix int) JSString {
	if radix == 10 || math.IsNaN(x) || math.IsInf(x, 0) {
		return NumberToString(x)
	}
	if IsIntegralNumber(x) && math.Abs(x) <= maxSafeInteger {
		return JSString(strconv.FormatInt(int64(x), radix))
	}

	const fractionDigits = 20
	var sb strings.Builder
	if x < 0 {
		sb.WriteByte('-')
		x = -x
	}
	intPart, frac := math.Modf(x)

	var digits []byte
	for intPart >= 1 {
		d := int(math.Mod(intPart, float64(radix)))
		digits = append(digits, strconv.FormatInt(int64(d), radix)[0])
		intPart = math.Floor(intPart / float64(radix))
	}
	if len(digits) == 0 {
		digits = append(digits, '0')
	}
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
	}

	if frac > 0 {
		sb.WriteByte('.')
		for i := 0; i < fractionDigits && frac > 0; i++ {
			frac *= float64(radix)
			d, rest := math.Modf(frac)
			sb.WriteString(strconv.FormatInt(int64(d), radix))
			frac = rest
		}
	}
	return JSString(sb.String())
}

// thisStringValue coerces the receiver of a generic String.prototype method.
func (vm *VM) thisStringValue(this JSValue, method string) (JSString, error) {
	if IsNullish(this) {
		return "", vm.ThrowError("TypeError", "String.prototype."+method+" called on "+vm.describe(this))
	}
	return vm.ToString(this)
}

func setupString(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := StringCreate(vm, "", in.ObjectPrototype)
	in.StringPrototype = proto
	in.register("String.prototype", proto)

	ctor := addPrimitiveWrapperConstructor(
		realm, "String", proto,
		func(vm *VM, args []JSValue, flags CallFlags) (JSString, error) {
			if len(args) == 0 {
				return "", nil
			}
			if sym, isSym := args[0].(*JSSymbol); isSym && !flags.IsNew() {
				return JSString(sym.String()), nil
			}
			return vm.ToString(args[0])
		},
		func(vm *VM, s JSString, proto *JSObject) *JSObject {
			return StringCreate(vm, s, proto)
		},
	)
	in.String = ctor

	defineMethod(realm, ctor, "fromCharCode", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		units := make([]uint16, 0, len(args))
		for _, arg := range args {
			unit, err := vm.ToUint16(arg)
			if err != nil {
				return nil, err
			}
			units = append(units, unit)
		}
		return stringFromCodeUnits(units), nil
	})

	defineMethod(realm, proto, "toString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[JSString](vm, this, "String", "toString")
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[JSString](vm, this, "String", "valueOf")
	})

	// charAt and charCodeAt share everything but the result
	charMethod := func(name string, result func(units []uint16, pos int) JSValue, outOfRange JSValue) {
		defineMethod(realm, proto, name, 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			s, err := vm.thisStringValue(this, name)
			if err != nil {
				return nil, err
			}
			pos, err := vm.ToIntegerOrInfinity(argOrUndefined(args, 0))
			if err != nil {
				return nil, err
			}
			units := s.codeUnits()
			if pos < 0 || pos >= float64(len(units)) {
				return outOfRange, nil
			}
			return result(units, int(pos)), nil
		})
	}
	charMethod("charAt", func(units []uint16, pos int) JSValue {
		return stringFromCodeUnits(units[pos : pos+1])
	}, JSString(""))
	charMethod("charCodeAt", func(units []uint16, pos int) JSValue {
		return JSNumber(units[pos])
	}, JSNumber(math.NaN()))

	defineMethod(realm, proto, "indexOf", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisStringValue(this, "indexOf")
		if err != nil {
			return nil, err
		}
		search, err := vm.ToString(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		pos, err := vm.ToIntegerOrInfinity(argOrUndefined(args, 1))
		if err != nil {
			return nil, err
		}
		units, searchUnits := s.codeUnits(), search.codeUnits()
		start := int(min(max(pos, 0), float64(len(units))))
		for i := start; i+len(searchUnits) <= len(units); i++ {
			if slices.Equal(units[i:i+len(searchUnits)], searchUnits) {
				return JSNumber(i), nil
			}
		}
		return JSNumber(-1), nil
	})
	defineMethod(realm, proto, "slice", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		s, err := vm.thisStringValue(this, "slice")
		if err != nil {
			return nil, err
		}
		units := s.codeUnits()
		length := float64(len(units))
		relative := func(v JSValue, dflt float64) (int, error) {
			if IsUndefined(v) {
				return int(dflt), nil
			}
			rel, err := vm.ToIntegerOrInfinity(v)
			if err != nil {
				return 0, err
			}
			if rel < 0 {
				return int(max(length+rel, 0)), nil
			}
			return int(min(rel, length)), nil
		}
		from, err := relative(argOrUndefined(args, 0), 0)
		if err != nil {
			return nil, err
		}
		to, err := relative(argOrUndefined(args, 1), length)
		if err != nil {
			return nil, err
		}
		if from >= to {
			return JSString(""), nil
		}
		return stringFromCodeUnits(units[from:to]), nil
	})
}
