package aotvm

func setupProxy(vm *VM, realm *Realm) {
	in := realm.Intrinsics

	// Proxy has no `prototype` property
	ctor := makeBuiltinConstructor(realm, "Proxy", 2, nil, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if !flags.IsNew() {
			return nil, vm.ThrowError("TypeError", "Constructor Proxy requires 'new'")
		}
		return ProxyCreate(vm, argOrUndefined(args, 0), argOrUndefined(args, 1))
	})
	in.Proxy = ctor
	in.registerGlobal("Proxy", ctor)

	defineMethod(realm, ctor, "revocable", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		p, err := ProxyCreate(vm, argOrUndefined(args, 0), argOrUndefined(args, 1))
		if err != nil {
			return nil, err
		}

		revoke := CreateBuiltinFunction(vm.CurrentRealm(), func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
			if p == nil {
				return JSUndefined{}, nil
			}
			p.methods.(*proxyExotic).revoke()
			p = nil
			return JSUndefined{}, nil
		}, 0, NameStr(""), nil)

		result := OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype)
		mustBool(vm.CreateDataProperty(result, NameStr("proxy"), p))
		mustBool(vm.CreateDataProperty(result, NameStr("revoke"), revoke))
		return result, nil
	})
}
