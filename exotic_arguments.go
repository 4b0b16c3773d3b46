package aotvm

// argumentsExotic is a mapped arguments object. Index properties listed in
// parameterMap alias the formal parameter bindings of the call.
type argumentsExotic struct {
	ordinaryMethods
	// accessor properties, one per mapped index; deleting one severs the
	// alias for good
	parameterMap *JSObject
}

// CreateUnmappedArgumentsObject builds the arguments object of strict
// functions and functions with non-simple parameter lists.
func CreateUnmappedArgumentsObject(vm *VM, args []JSValue) *JSObject {
	in := vm.CurrentRealm().Intrinsics
	obj := OrdinaryObjectCreate(in.ObjectPrototype)
	obj.class = "Arguments"
	mustOK(vm.DefinePropertyOrThrow(obj, NameStr("length"), DataProperty(JSNumber(len(args)), true, false, true)))
	for index, val := range args {
		mustOK(vm.CreateDataPropertyOrThrow(obj, indexName(index), val))
	}
	mustOK(vm.DefinePropertyOrThrow(obj, NameSym(vm.symbols.iterator), DataProperty(in.ArrayProtoValues, true, false, true)))
	mustOK(vm.DefinePropertyOrThrow(obj, NameStr("callee"), AccessorProperty(in.ThrowTypeError, in.ThrowTypeError, false, false)))
	return obj
}

// CreateMappedArgumentsObject builds the arguments object of sloppy
// functions with simple parameter lists. When a name is repeated, the last
// parameter with that name owns the mapping.
func CreateMappedArgumentsObject(vm *VM, fn *JSObject, formals []string, args []JSValue, env Environment) *JSObject {
	in := vm.CurrentRealm().Intrinsics
	pmap := OrdinaryObjectCreate(nil)

	obj := MakeBasicObject()
	obj.prototype = in.ObjectPrototype
	obj.class = "Arguments"
	obj.methods = &argumentsExotic{parameterMap: pmap}

	for index, val := range args {
		mustOK(vm.CreateDataPropertyOrThrow(obj, indexName(index), val))
	}
	mustOK(vm.DefinePropertyOrThrow(obj, NameStr("length"), DataProperty(JSNumber(len(args)), true, false, true)))

	mapped := make(map[string]bool, len(formals))
	for index := len(formals) - 1; index >= 0; index-- {
		name := formals[index]
		if mapped[name] {
			continue
		}
		mapped[name] = true
		if index < len(args) {
			g := makeArgGetter(vm, name, env)
			p := makeArgSetter(vm, name, env)
			mustBool(pmap.DefineOwnProperty(vm, indexName(index), AccessorProperty(g, p, false, true)))
		}
	}

	mustOK(vm.DefinePropertyOrThrow(obj, NameSym(vm.symbols.iterator), DataProperty(in.ArrayProtoValues, true, false, true)))
	mustOK(vm.DefinePropertyOrThrow(obj, NameStr("callee"), DataProperty(fn, true, false, true)))
	return obj
}

func makeArgGetter(vm *VM, name string, env Environment) *JSObject {
	return CreateBuiltinFunction(vm.CurrentRealm(), func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return env.GetBindingValue(vm, name, false)
	}, 0, NameStr(""), nil)
}

func makeArgSetter(vm *VM, name string, env Environment) *JSObject {
	return CreateBuiltinFunction(vm.CurrentRealm(), func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if err := env.SetMutableBinding(vm, name, argOrUndefined(args, 0), false); err != nil {
			return nil, err
		}
		return JSUndefined{}, nil
	}, 1, NameStr(""), nil)
}

func (ax *argumentsExotic) isMapped(vm *VM, key Name) bool {
	return must(vm.HasOwnProperty(ax.parameterMap, key))
}

func (ax *argumentsExotic) getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error) {
	desc := OrdinaryGetOwnProperty(o, key)
	if desc == nil {
		return nil, nil
	}
	if ax.isMapped(vm, key) {
		v, err := vm.Get(ax.parameterMap, key)
		if err != nil {
			return nil, err
		}
		desc.Value = v
	}
	return desc, nil
}

func (ax *argumentsExotic) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	isMapped := ax.isMapped(vm, key)
	newArgDesc := desc
	if isMapped && desc.IsDataDescriptor() && desc.Value == nil && desc.Writable.isFalse() {
		v, err := vm.Get(ax.parameterMap, key)
		if err != nil {
			return false, err
		}
		newArgDesc.Value = v
	}
	allowed, err := OrdinaryDefineOwnProperty(vm, o, key, newArgDesc)
	if err != nil || !allowed {
		return false, err
	}

	if isMapped {
		if desc.IsAccessorDescriptor() {
			mustBool(ax.parameterMap.Delete(vm, key))
		} else {
			if desc.Value != nil {
				if err := vm.Set(ax.parameterMap, key, desc.Value, false); err != nil {
					return false, err
				}
			}
			if desc.Writable.isFalse() {
				mustBool(ax.parameterMap.Delete(vm, key))
			}
		}
	}
	return true, nil
}

func (ax *argumentsExotic) get(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error) {
	if !ax.isMapped(vm, key) {
		return OrdinaryGet(vm, o, key, receiver)
	}
	return vm.Get(ax.parameterMap, key)
}

func (ax *argumentsExotic) set(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error) {
	isMapped := false
	if SameValue(o, receiver) {
		isMapped = ax.isMapped(vm, key)
	}
	if isMapped {
		if err := vm.Set(ax.parameterMap, key, v, false); err != nil {
			return false, err
		}
	}
	return OrdinarySet(vm, o, key, v, receiver)
}

func (ax *argumentsExotic) delete(vm *VM, o *JSObject, key Name) (bool, error) {
	isMapped := ax.isMapped(vm, key)
	result, err := OrdinaryDelete(vm, o, key)
	if err != nil {
		return false, err
	}
	if result && isMapped {
		mustBool(ax.parameterMap.Delete(vm, key))
	}
	return result, nil
}
