package aotvm

func symbolConstructor(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	if flags.IsNew() {
		return nil, vm.ThrowError("TypeError", "Symbol is not a constructor")
	}
	var description JSValue = JSUndefined{}
	if d := argOrUndefined(args, 0); !IsUndefined(d) {
		s, err := vm.ToString(d)
		if err != nil {
			return nil, err
		}
		description = s
	}
	return NewSymbol(description), nil
}

func setupSymbol(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := OrdinaryObjectCreate(in.ObjectPrototype)
	in.SymbolPrototype = proto
	in.register("Symbol.prototype", proto)

	ctor := makeBuiltinConstructor(realm, "Symbol", 0, proto, symbolConstructor)
	in.Symbol = ctor
	in.registerGlobal("Symbol", ctor)

	for _, wk := range vm.symbols.all() {
		defineBuiltinProperty(ctor, NameStr(wk.name), DataProperty(wk.sym, false, false, false))
	}

	defineMethod(realm, ctor, "for", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		key, err := vm.ToString(argOrUndefined(args, 0))
		if err != nil {
			return nil, err
		}
		if sym, found := vm.symbolRegistry[string(key)]; found {
			return sym, nil
		}
		sym := NewSymbol(key)
		vm.symbolRegistry[string(key)] = sym
		return sym, nil
	})
	defineMethod(realm, ctor, "keyFor", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		sym, isSym := argOrUndefined(args, 0).(*JSSymbol)
		if !isSym {
			return nil, vm.ThrowError("TypeError", vm.describe(argOrUndefined(args, 0))+" is not a symbol")
		}
		for key, registered := range vm.symbolRegistry {
			if registered == sym {
				return JSString(key), nil
			}
		}
		return JSUndefined{}, nil
	})

	defineMethod(realm, proto, "toString", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		sym, err := thisPrimitiveValue[*JSSymbol](vm, this, "Symbol", "toString")
		if err != nil {
			return nil, err
		}
		return JSString(sym.String()), nil
	})
	defineMethod(realm, proto, "valueOf", 0, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[*JSSymbol](vm, this, "Symbol", "valueOf")
	})
	defineGetter(realm, proto, "description", func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		sym, err := thisPrimitiveValue[*JSSymbol](vm, this, "Symbol", "description")
		if err != nil {
			return nil, err
		}
		return sym.Description, nil
	})

	toPrimitive := CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return thisPrimitiveValue[*JSSymbol](vm, this, "Symbol", "[Symbol.toPrimitive]")
	}, 1, NameSym(vm.symbols.toPrimitive), nil)
	defineBuiltinProperty(proto, NameSym(vm.symbols.toPrimitive), DataProperty(toPrimitive, false, false, true))
	defineBuiltinProperty(proto, NameSym(vm.symbols.toStringTag), DataProperty(JSString("Symbol"), false, false, true))
}
