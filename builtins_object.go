package aotvm

func objectConstructor(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	if newTarget := flags.NewTarget(); newTarget != nil && newTarget != vm.RunningContext().Function {
		return OrdinaryCreateFromConstructor(vm, newTarget, "%Object.prototype%")
	}
	value := argOrUndefined(args, 0)
	if IsNullish(value) {
		return OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype), nil
	}
	return vm.ToObject(value)
}

type ownKeysFilter uint8

const (
	ownStringKeys ownKeysFilter = iota
	ownSymbolKeys
)

func (vm *VM) getOwnPropertyKeys(v JSValue, filter ownKeysFilter) (JSValue, error) {
	obj, err := vm.ToObject(v)
	if err != nil {
		return nil, err
	}
	keys, err := obj.OwnPropertyKeys(vm)
	if err != nil {
		return nil, err
	}
	var list []JSValue
	for _, key := range keys {
		if key.IsSymbol() == (filter == ownSymbolKeys) {
			list = append(list, key.Value())
		}
	}
	return CreateArrayFromList(vm, list), nil
}

// objectDefineProperties reads every descriptor before defining any of
// them, so a bad descriptor leaves o untouched.
func (vm *VM) objectDefineProperties(o *JSObject, properties JSValue) error {
	props, err := vm.ToObject(properties)
	if err != nil {
		return err
	}
	keys, err := props.OwnPropertyKeys(vm)
	if err != nil {
		return err
	}

	type pending struct {
		key  Name
		desc PropertyDescriptor
	}
	var descriptors []pending
	for _, key := range keys {
		propDesc, err := props.GetOwnProperty(vm, key)
		if err != nil {
			return err
		}
		if propDesc == nil || !propDesc.Enumerable.isTrue() {
			continue
		}
		descObj, err := vm.Get(props, key)
		if err != nil {
			return err
		}
		desc, err := vm.ToPropertyDescriptor(descObj)
		if err != nil {
			return err
		}
		descriptors = append(descriptors, pending{key, desc})
	}

	for _, item := range descriptors {
		if err := vm.DefinePropertyOrThrow(o, item.key, item.desc); err != nil {
			return err
		}
	}
	return nil
}

func setupObject(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := in.ObjectPrototype

	ctor := makeBuiltinConstructor(realm, "Object", 1, proto, objectConstructor)
	in.Object = ctor
	in.registerGlobal("Object", ctor)

	defineMethod(realm, ctor, "keys", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		keys, err := vm.EnumerableOwnProperties(obj, EnumerateKeys)
		if err != nil {
			return nil, err
		}
		return CreateArrayFromList(vm, keys), nil
	})
	defineMethod(realm, ctor, "getOwnPropertyNames", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.getOwnPropertyKeys(argOrUndefined(args, 0), ownStringKeys)
	})
	defineMethod(realm, ctor, "getOwnPropertySymbols", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.getOwnPropertyKeys(argOrUndefined(args, 0), ownSymbolKeys)
	})
	defineMethod(realm, ctor, "getOwnPropertyDescriptor", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		key, err := vm.ToPropertyKey(argOrUndefined(args, 1))
		if err != nil {
			return nil, err
		}
		desc, err := obj.GetOwnProperty(vm, key)
		if err != nil {
			return nil, err
		}
		return vm.FromPropertyDescriptor(desc), nil
	})
	defineMethod(realm, ctor, "getOwnPropertyDescriptors", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		keys, err := obj.OwnPropertyKeys(vm)
		if err != nil {
			return nil, err
		}
		descriptors := OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype)
		for _, key := range keys {
			desc, err := obj.GetOwnProperty(vm, key)
			if err != nil {
				return nil, err
			}
			if desc != nil {
				mustBool(vm.CreateDataProperty(descriptors, key, vm.FromPropertyDescriptor(desc)))
			}
		}
		return descriptors, nil
	})
	defineMethod(realm, ctor, "defineProperty", 3, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o, isObj := argOrUndefined(args, 0).(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "Object.defineProperty called on non-object")
		}
		key, err := vm.ToPropertyKey(argOrUndefined(args, 1))
		if err != nil {
			return nil, err
		}
		desc, err := vm.ToPropertyDescriptor(argOrUndefined(args, 2))
		if err != nil {
			return nil, err
		}
		if err := vm.DefinePropertyOrThrow(o, key, desc); err != nil {
			return nil, err
		}
		return o, nil
	})
	defineMethod(realm, ctor, "defineProperties", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o, isObj := argOrUndefined(args, 0).(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "Object.defineProperties called on non-object")
		}
		if err := vm.objectDefineProperties(o, argOrUndefined(args, 1)); err != nil {
			return nil, err
		}
		return o, nil
	})
	defineMethod(realm, ctor, "create", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		proto, err := vm.protoArgument(argOrUndefined(args, 0), "Object prototype")
		if err != nil {
			return nil, err
		}
		obj := OrdinaryObjectCreate(proto)
		if properties := argOrUndefined(args, 1); !IsUndefined(properties) {
			if err := vm.objectDefineProperties(obj, properties); err != nil {
				return nil, err
			}
		}
		return obj, nil
	})
	defineMethod(realm, ctor, "getPrototypeOf", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		proto, err := obj.GetPrototypeOf(vm)
		if err != nil {
			return nil, err
		}
		return protoValue(proto), nil
	})
	defineMethod(realm, ctor, "setPrototypeOf", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o := argOrUndefined(args, 0)
		if IsNullish(o) {
			return nil, vm.ThrowError("TypeError", "Object.setPrototypeOf called on "+vm.describe(o))
		}
		proto, err := vm.protoArgument(argOrUndefined(args, 1), "Object prototype")
		if err != nil {
			return nil, err
		}
		obj, isObj := o.(*JSObject)
		if !isObj {
			return o, nil
		}
		status, err := obj.SetPrototypeOf(vm, proto)
		if err != nil {
			return nil, err
		}
		if !status {
			return nil, vm.ThrowError("TypeError", "could not set the prototype of "+vm.describe(o))
		}
		return o, nil
	})
	defineMethod(realm, ctor, "isExtensible", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, isObj := argOrUndefined(args, 0).(*JSObject)
		if !isObj {
			return JSBoolean(false), nil
		}
		ext, err := obj.IsExtensible(vm)
		return JSBoolean(ext), err
	})
	defineMethod(realm, ctor, "preventExtensions", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		o := argOrUndefined(args, 0)
		obj, isObj := o.(*JSObject)
		if !isObj {
			return o, nil
		}
		status, err := obj.PreventExtensions(vm)
		if err != nil {
			return nil, err
		}
		if !status {
			return nil, vm.ThrowError("TypeError", "could not prevent extensions of "+vm.describe(o))
		}
		return o, nil
	})

	integrity := func(name string, level IntegrityLevel) {
		defineMethod(realm, ctor, name, 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			o := argOrUndefined(args, 0)
			obj, isObj := o.(*JSObject)
			if !isObj {
				return o, nil
			}
			status, err := vm.SetIntegrityLevel(obj, level)
			if err != nil {
				return nil, err
			}
			if !status {
				return nil, vm.ThrowError("TypeError", "Object."+name+" failed on "+vm.describe(o))
			}
			return o, nil
		})
	}
	testIntegrity := func(name string, level IntegrityLevel) {
		defineMethod(realm, ctor, name, 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			obj, isObj := argOrUndefined(args, 0).(*JSObject)
			if !isObj {
				return JSBoolean(true), nil
			}
			result, err := vm.TestIntegrityLevel(obj, level)
			return JSBoolean(result), err
		})
	}
	integrity("freeze", LevelFrozen)
	testIntegrity("isFrozen", LevelFrozen)
	integrity("seal", LevelSealed)
	testIntegrity("isSealed", LevelSealed)

	defineMethod(realm, ctor, "is", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return JSBoolean(SameValue(argOrUndefined(args, 0), argOrUndefined(args, 1))), nil
	})
	for _, name := range []string{"assign", "entries", "values", "fromEntries"} {
		length := 1
		if name == "assign" {
			length = 2
		}
		defineMethod(realm, ctor, name, length, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			return nil, notImplemented("Object.%s", name)
		})
	}

	defineMethod(realm, proto, "hasOwnProperty", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		key, err := vm.ToPropertyKey(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		obj, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		has, err := vm.HasOwnProperty(obj, key)
		return JSBoolean(has), err
	})
	defineMethod(realm, proto, "isPrototypeOf", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		v, isObj := argOrUndefined(args, 0).(*JSObject)
		if !isObj {
			return JSBoolean(false), nil
		}
		obj, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		for {
			v, err = v.GetPrototypeOf(vm)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return JSBoolean(false), nil
			}
			if v == obj {
				return JSBoolean(true), nil
			}
		}
	})
	defineMethod(realm, proto, "propertyIsEnumerable", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		key, err := vm.ToPropertyKey(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		obj, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		desc, err := obj.GetOwnProperty(vm, key)
		if err != nil {
			return nil, err
		}
		return JSBoolean(desc != nil && desc.Enumerable.isTrue()), nil
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.ToObject(this)
	})
	defineMethod(realm, proto, "toLocaleString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return vm.Invoke(this, NameStr("toString"), nil)
	})
	defineMethod(realm, proto, "toString", 0, objectPrototypeToString)

	// Annex B
	protoGetter := CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		obj, err := vm.ToObject(this)
		if err != nil {
			return nil, err
		}
		proto, err := obj.GetPrototypeOf(vm)
		if err != nil {
			return nil, err
		}
		return protoValue(proto), nil
	}, 0, NameStr("__proto__"), nil, "get")
	protoSetter := CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if IsNullish(this) {
			return nil, vm.ThrowError("TypeError", "Object.prototype.__proto__ called on "+vm.describe(this))
		}
		proto, isObj := argOrUndefined(args, 0).(*JSObject)
		if !isObj && !IsNull(argOrUndefined(args, 0)) {
			return JSUndefined{}, nil
		}
		obj, isObj := this.(*JSObject)
		if !isObj {
			return JSUndefined{}, nil
		}
		status, err := obj.SetPrototypeOf(vm, proto)
		if err != nil {
			return nil, err
		}
		if !status {
			return nil, vm.ThrowError("TypeError", "could not set the prototype of "+vm.describe(this))
		}
		return JSUndefined{}, nil
	}, 1, NameStr("__proto__"), nil, "set")
	defineBuiltinProperty(proto, NameStr("__proto__"), PropertyDescriptor{
		Get:          protoGetter,
		Set:          protoSetter,
		Enumerable:   TFalse,
		Configurable: TTrue,
	})
}

func objectPrototypeToString(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	switch this.(type) {
	case JSUndefined:
		return JSString("[object Undefined]"), nil
	case JSNull:
		return JSString("[object Null]"), nil
	}
	obj, err := vm.ToObject(this)
	if err != nil {
		return nil, err
	}
	isArray, err := vm.IsArray(obj)
	if err != nil {
		return nil, err
	}

	var builtinTag string
	switch {
	case isArray:
		builtinTag = "Array"
	case obj.callable:
		builtinTag = "Function"
	default:
		switch obj.class {
		case "Arguments", "Error", "Boolean", "Number", "String", "Date", "RegExp":
			builtinTag = obj.class
		default:
			builtinTag = "Object"
		}
	}

	tag, err := vm.Get(obj, NameSym(vm.symbols.toStringTag))
	if err != nil {
		return nil, err
	}
	if s, isStr := tag.(JSString); isStr {
		builtinTag = string(s)
	}
	return JSString("[object " + builtinTag + "]"), nil
}
