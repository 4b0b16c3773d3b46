package aotvm

import "strings"

func arrayConstructor(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	newTarget := flags.NewTarget()
	if newTarget == nil {
		newTarget = vm.RunningContext().Function
	}
	proto, err := GetPrototypeFromConstructor(vm, newTarget, "%Array.prototype%")
	if err != nil {
		return nil, err
	}

	switch len(args) {
	case 0:
		return ArrayCreate(vm, 0, proto)

	case 1:
		array := must(ArrayCreate(vm, 0, proto))
		length, isNum := args[0].(JSNumber)
		if !isNum {
			mustOK(vm.CreateDataPropertyOrThrow(array, indexName(0), args[0]))
			return array, nil
		}
		intLen := toUint32(float64(length))
		if float64(intLen) != float64(length) {
			return nil, vm.ThrowError("RangeError", "invalid array length")
		}
		if err := vm.Set(array, NameStr("length"), JSNumber(intLen), true); err != nil {
			return nil, err
		}
		return array, nil

	default:
		array, err := ArrayCreate(vm, uint64(len(args)), proto)
		if err != nil {
			return nil, err
		}
		for k, item := range args {
			mustOK(vm.CreateDataPropertyOrThrow(array, indexName(k), item))
		}
		return array, nil
	}
}

func arrayPrototypeJoin(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	o, err := vm.ToObject(this)
	if err != nil {
		return nil, err
	}
	length, err := vm.LengthOfArrayLike(o)
	if err != nil {
		return nil, err
	}
	sep := JSString(",")
	if separator := argOrUndefined(args, 0); !IsUndefined(separator) {
		if sep, err = vm.ToString(separator); err != nil {
			return nil, err
		}
	}

	var sb strings.Builder
	for k := int64(0); k < length; k++ {
		if k > 0 {
			sb.WriteString(string(sep))
		}
		element, err := vm.Get(o, NameStr(formatIndex(k)))
		if err != nil {
			return nil, err
		}
		if IsNullish(element) {
			continue
		}
		s, err := vm.ToString(element)
		if err != nil {
			return nil, err
		}
		sb.WriteString(string(s))
	}
	return JSString(sb.String()), nil
}

func setupArray(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := must(ArrayCreate(vm, 0, in.ObjectPrototype))
	in.ArrayPrototype = proto
	in.register("Array.prototype", proto)

	ctor := makeBuiltinConstructor(realm, "Array", 1, proto, arrayConstructor)
	in.Array = ctor
	in.registerGlobal("Array", ctor)

	defineMethod(realm, ctor, "isArray", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		isArray, err := vm.IsArray(argOrUndefined(args, 0))
		return JSBoolean(isArray), err
	})
	defineMethod(realm, ctor, "of", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return CreateArrayFromList(vm, args), nil
	})

	defineMethod(realm, proto, "join", 1, arrayPrototypeJoin)
	defineMethod(realm, proto, "toString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		array, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		join, err := vm.Get(array, NameStr("join"))
		if err != nil {
			return nil, err
		}
		if !IsCallable(join) {
			return objectPrototypeToString(vm, array, nil, CallFlags{})
		}
		return vm.Call(join, array, nil)
	})
	defineMethod(realm, proto, "push", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		length, err := vm.LengthOfArrayLike(o)
		if err != nil {
			return nil, err
		}
		if length+int64(len(args)) > maxSafeInteger {
			return nil, vm.ThrowError("TypeError", "pushing past the maximum array-like length")
		}
		for _, item := range args {
			if err := vm.Set(o, NameStr(formatIndex(length)), item, true); err != nil {
				return nil, err
			}
			length++
		}
		if err := vm.Set(o, NameStr("length"), JSNumber(length), true); err != nil {
			return nil, err
		}
		return JSNumber(length), nil
	})
	defineMethod(realm, proto, "pop", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		length, err := vm.LengthOfArrayLike(o)
		if err != nil {
			return nil, err
		}
		if length == 0 {
			if err := vm.Set(o, NameStr("length"), JSNumber(0), true); err != nil {
				return nil, err
			}
			return JSUndefined{}, nil
		}
		index := NameStr(formatIndex(length - 1))
		element, err := vm.Get(o, index)
		if err != nil {
			return nil, err
		}
		if err := vm.DeletePropertyOrThrow(o, index); err != nil {
			return nil, err
		}
		if err := vm.Set(o, NameStr("length"), JSNumber(length-1), true); err != nil {
			return nil, err
		}
		return element, nil
	})

	// iterators are out of reach until generators can resume
	in.ArrayProtoValues = defineMethod(realm, proto, "values", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return nil, notImplemented("Array.prototype.values")
	})
	in.register("Array.prototype.values", in.ArrayProtoValues)
	defineBuiltinProperty(proto, NameSym(vm.symbols.iterator), DataProperty(in.ArrayProtoValues, true, false, true))
}
