package aotvm

import (
	"math"
)

// stringExotic exposes the code units of [[StringData]] as read-only index
// properties that are never stored in the property table.
type stringExotic struct {
	ordinaryMethods
}

// StringCreate allocates a String exotic object wrapping value.
func StringCreate(vm *VM, value JSString, proto *JSObject) *JSObject {
	s := MakeBasicObject()
	s.prototype = proto
	s.class = "String"
	s.primitive = value
	s.methods = stringExotic{}
	defineBuiltinProperty(s, NameStr("length"), DataProperty(JSNumber(value.Length()), false, false, false))
	return s
}

func (stringExotic) getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error) {
	if desc := OrdinaryGetOwnProperty(o, key); desc != nil {
		return desc, nil
	}
	return stringGetOwnProperty(o, key), nil
}

func (stringExotic) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	if stringDesc := stringGetOwnProperty(o, key); stringDesc != nil {
		return IsCompatiblePropertyDescriptor(o.extensible, desc, stringDesc), nil
	}
	return OrdinaryDefineOwnProperty(vm, o, key, desc)
}

func (stringExotic) ownPropertyKeys(vm *VM, o *JSObject) ([]Name, error) {
	str := o.primitive.(JSString)
	length := str.Length()
	stored := o.props.keys()
	keys := make([]Name, 0, length+len(stored))
	for i := 0; i < length; i++ {
		keys = append(keys, indexName(i))
	}
	return append(keys, stored...), nil
}

// stringGetOwnProperty synthesizes the descriptor of a character slot, or
// returns nil when key is not an in-range canonical index.
func stringGetOwnProperty(o *JSObject, key Name) *PropertyDescriptor {
	if key.IsSymbol() {
		return nil
	}
	index, ok := CanonicalNumericIndexString(key.Str())
	if !ok {
		return nil
	}
	f := float64(index)
	if !IsIntegralNumber(f) || (f == 0 && math.Signbit(f)) {
		return nil
	}
	units := o.primitive.(JSString).codeUnits()
	if f < 0 || f >= float64(len(units)) {
		return nil
	}
	i := int(f)
	desc := DataProperty(stringFromCodeUnits(units[i:i+1]), false, true, false)
	return &desc
}
