package aotvm

func (vm *VM) reflectTarget(v JSValue, method string) (*JSObject, error) {
	obj, isObj := v.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "Reflect."+method+" called on non-object")
	}
	return obj, nil
}

// setupReflect installs the Reflect namespace, one function per internal
// method.
func setupReflect(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	reflect := OrdinaryObjectCreate(in.ObjectPrototype)
	in.Reflect = reflect
	in.registerGlobal("Reflect", reflect)
	defineBuiltinProperty(reflect, NameSym(vm.symbols.toStringTag), DataProperty(JSString("Reflect"), false, false, true))

	withTarget := func(name string, length int, body func(vm *VM, target *JSObject, args []JSValue) (JSValue, error)) {
		defineMethod(realm, reflect, name, length, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			target, err := vm.reflectTarget(argOrUndefined(args, 0), name)
			if err != nil {
				return nil, err
			}
			return body(vm, target, args)
		})
	}
	withKey := func(name string, length int, body func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error)) {
		withTarget(name, length, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
			key, err := vm.ToPropertyKey(argOrUndefined(args, 1))
			if err != nil {
				return nil, err
			}
			return body(vm, target, key, args)
		})
	}

	defineMethod(realm, reflect, "apply", 3, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		target := argOrUndefined(args, 0)
		if !IsCallable(target) {
			return nil, vm.ThrowError("TypeError", "Reflect.apply target is not callable")
		}
		list, err := vm.CreateListFromArrayLike(argOrUndefined(args, 2), AnyElementTypes)
		if err != nil {
			return nil, err
		}
		return vm.Call(target, argOrUndefined(args, 1), list)
	})
	defineMethod(realm, reflect, "construct", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		target, isCtor := argOrUndefined(args, 0).(*JSObject)
		if !isCtor || !target.constructor {
			return nil, vm.ThrowError("TypeError", "Reflect.construct target is not a constructor")
		}
		newTarget := target
		if len(args) > 2 {
			nt, isCtor := args[2].(*JSObject)
			if !isCtor || !nt.constructor {
				return nil, vm.ThrowError("TypeError", "Reflect.construct newTarget is not a constructor")
			}
			newTarget = nt
		}
		list, err := vm.CreateListFromArrayLike(argOrUndefined(args, 1), AnyElementTypes)
		if err != nil {
			return nil, err
		}
		return vm.Construct(target, list, newTarget)
	})

	withKey("defineProperty", 3, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		desc, err := vm.ToPropertyDescriptor(argOrUndefined(args, 2))
		if err != nil {
			return nil, err
		}
		ok, err := target.DefineOwnProperty(vm, key, desc)
		return JSBoolean(ok), err
	})
	withKey("deleteProperty", 2, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		ok, err := target.Delete(vm, key)
		return JSBoolean(ok), err
	})
	withKey("get", 2, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		var receiver JSValue = target
		if len(args) > 2 {
			receiver = args[2]
		}
		return target.Get(vm, key, receiver)
	})
	withKey("getOwnPropertyDescriptor", 2, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		desc, err := target.GetOwnProperty(vm, key)
		if err != nil {
			return nil, err
		}
		return vm.FromPropertyDescriptor(desc), nil
	})
	withTarget("getPrototypeOf", 1, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
		proto, err := target.GetPrototypeOf(vm)
		if err != nil {
			return nil, err
		}
		return protoValue(proto), nil
	})
	withKey("has", 2, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		has, err := target.HasProperty(vm, key)
		return JSBoolean(has), err
	})
	withTarget("isExtensible", 1, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
		ext, err := target.IsExtensible(vm)
		return JSBoolean(ext), err
	})
	withTarget("ownKeys", 1, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
		keys, err := target.OwnPropertyKeys(vm)
		if err != nil {
			return nil, err
		}
		list := make([]JSValue, len(keys))
		for i, key := range keys {
			list[i] = key.Value()
		}
		return CreateArrayFromList(vm, list), nil
	})
	withTarget("preventExtensions", 1, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
		ok, err := target.PreventExtensions(vm)
		return JSBoolean(ok), err
	})
	withKey("set", 3, func(vm *VM, target *JSObject, key Name, args []JSValue) (JSValue, error) {
		var receiver JSValue = target
		if len(args) > 3 {
			receiver = args[3]
		}
		ok, err := target.Set(vm, key, argOrUndefined(args, 2), receiver)
		return JSBoolean(ok), err
	})
	withTarget("setPrototypeOf", 2, func(vm *VM, target *JSObject, args []JSValue) (JSValue, error) {
		proto, err := vm.protoArgument(argOrUndefined(args, 1), "Reflect.setPrototypeOf")
		if err != nil {
			return nil, err
		}
		ok, err := target.SetPrototypeOf(vm, proto)
		return JSBoolean(ok), err
	})
}
