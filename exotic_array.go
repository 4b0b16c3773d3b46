package aotvm

import (
	"slices"
)

// arrayExotic keeps `length` in step with the array index properties.
type arrayExotic struct {
	ordinaryMethods
}

// ArrayCreate allocates an Array exotic object; a nil proto selects
// %Array.prototype% of the current realm.
func ArrayCreate(vm *VM, length uint64, proto *JSObject) (*JSObject, error) {
	if length > 1<<32-1 {
		return nil, vm.ThrowError("RangeError", "invalid array length")
	}
	if proto == nil {
		proto = vm.CurrentRealm().Intrinsics.ArrayPrototype
	}
	a := MakeBasicObject()
	a.prototype = proto
	a.class = "Array"
	a.methods = arrayExotic{}
	defineBuiltinProperty(a, NameStr("length"), DataProperty(JSNumber(length), true, false, false))
	return a, nil
}

func CreateArrayFromList(vm *VM, elements []JSValue) *JSObject {
	array := must(ArrayCreate(vm, 0, nil))
	for n, e := range elements {
		mustOK(vm.CreateDataPropertyOrThrow(array, indexName(n), e))
	}
	return array
}

func (arrayExotic) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	if !key.IsSymbol() && key.Str() == "length" {
		return ArraySetLength(vm, o, desc)
	}
	index, isIndex := key.arrayIndex()
	if !isIndex {
		return OrdinaryDefineOwnProperty(vm, o, key, desc)
	}

	lengthDesc := OrdinaryGetOwnProperty(o, NameStr("length"))
	length := uint32(lengthDesc.Value.(JSNumber))
	if index >= length && lengthDesc.Writable.isFalse() {
		return false, nil
	}
	succeeded, err := OrdinaryDefineOwnProperty(vm, o, key, desc)
	if err != nil || !succeeded {
		return false, err
	}
	if index >= length {
		lengthDesc.Value = JSNumber(index) + 1
		mustBool(OrdinaryDefineOwnProperty(vm, o, NameStr("length"), *lengthDesc))
	}
	return true, nil
}

// ArraySetLength redefines `length`, deleting index properties from the end
// until the new length is reached or a non-configurable element stops it.
func ArraySetLength(vm *VM, a *JSObject, desc PropertyDescriptor) (bool, error) {
	lengthKey := NameStr("length")
	if desc.Value == nil {
		return OrdinaryDefineOwnProperty(vm, a, lengthKey, desc)
	}

	newLenDesc := desc
	newLen, err := vm.ToUint32(desc.Value)
	if err != nil {
		return false, err
	}
	numberLen, err := vm.ToNumber(desc.Value)
	if err != nil {
		return false, err
	}
	if !SameValueZero(JSNumber(newLen), numberLen) {
		return false, vm.ThrowError("RangeError", "invalid array length")
	}
	newLenDesc.Value = JSNumber(newLen)

	oldLenDesc := OrdinaryGetOwnProperty(a, lengthKey)
	oldLen := uint32(oldLenDesc.Value.(JSNumber))
	if newLen >= oldLen {
		return OrdinaryDefineOwnProperty(vm, a, lengthKey, newLenDesc)
	}
	if oldLenDesc.Writable.isFalse() {
		return false, nil
	}

	newWritable := true
	if newLenDesc.Writable.isFalse() {
		newWritable = false
		newLenDesc.Writable = TTrue
	}
	succeeded, err := OrdinaryDefineOwnProperty(vm, a, lengthKey, newLenDesc)
	if err != nil || !succeeded {
		return false, err
	}

	var doomed []uint32
	for _, k := range a.props.keys() {
		if idx, ok := k.arrayIndex(); ok && idx >= newLen {
			doomed = append(doomed, idx)
		}
	}
	slices.Reverse(doomed)
	for _, idx := range doomed {
		deleted := must(a.Delete(vm, indexName(int(idx))))
		if !deleted {
			newLenDesc.Value = JSNumber(idx) + 1
			if !newWritable {
				newLenDesc.Writable = TFalse
			}
			mustBool(OrdinaryDefineOwnProperty(vm, a, lengthKey, newLenDesc))
			return false, nil
		}
	}
	if !newWritable {
		mustBool(OrdinaryDefineOwnProperty(vm, a, lengthKey, PropertyDescriptor{Writable: TFalse}))
	}
	return true, nil
}
