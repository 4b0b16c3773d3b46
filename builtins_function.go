package aotvm

import "math"

func functionConstructorFor(kind FunctionKind) NativeCallback {
	return func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		constructor := vm.RunningContext().Function
		return CreateDynamicFunction(vm, constructor, flags.NewTarget(), kind, args)
	}
}

func (vm *VM) thisFunction(this JSValue, method string) (*JSObject, error) {
	f, isObj := this.(*JSObject)
	if !isObj || !f.callable {
		return nil, vm.ThrowError("TypeError", "Function.prototype."+method+" called on "+vm.describe(this))
	}
	return f, nil
}

func functionPrototypeToString(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	f, err := vm.thisFunction(this, "toString")
	if err != nil {
		return nil, err
	}
	if fp := f.funcPart; fp != nil {
		if fp.sourceText != "" {
			return JSString(fp.sourceText), nil
		}
		return JSString("function " + fp.name + "() { [native code] }"), nil
	}
	return JSString("function () { [native code] }"), nil
}

func functionPrototypeBind(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	target, err := vm.thisFunction(this, "bind")
	if err != nil {
		return nil, err
	}
	var boundArgs []JSValue
	if len(args) > 1 {
		boundArgs = args[1:]
	}
	f, err := BoundFunctionCreate(vm, target, argOrUndefined(args, 0), boundArgs)
	if err != nil {
		return nil, err
	}

	length := 0.0
	hasLength, err := vm.HasOwnProperty(target, NameStr("length"))
	if err != nil {
		return nil, err
	}
	if hasLength {
		targetLen, err := vm.Get(target, NameStr("length"))
		if err != nil {
			return nil, err
		}
		if n, isNum := targetLen.(JSNumber); isNum {
			switch {
			case math.IsInf(float64(n), 1):
				length = math.Inf(1)
			case math.IsInf(float64(n), -1):
				length = 0
			default:
				length = max(0, integerOrInfinity(float64(n))-float64(len(boundArgs)))
			}
		}
	}
	mustOK(vm.DefinePropertyOrThrow(f, NameStr("length"), DataProperty(JSNumber(length), false, false, true)))

	targetName, err := vm.Get(target, NameStr("name"))
	if err != nil {
		return nil, err
	}
	name, _ := targetName.(JSString)
	SetFunctionName(vm, f, NameStr(string(name)), "bound")
	return f, nil
}

func setupFunction(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := in.FunctionPrototype

	ctor := makeBuiltinConstructor(realm, "Function", 1, proto, functionConstructorFor(KindNormal))
	in.Function = ctor
	in.registerGlobal("Function", ctor)

	defineMethod(realm, proto, "call", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		f, err := vm.thisFunction(this, "call")
		if err != nil {
			return nil, err
		}
		var rest []JSValue
		if len(args) > 1 {
			rest = args[1:]
		}
		return vm.Call(f, argOrUndefined(args, 0), rest)
	})
	defineMethod(realm, proto, "apply", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		f, err := vm.thisFunction(this, "apply")
		if err != nil {
			return nil, err
		}
		argArray := argOrUndefined(args, 1)
		if IsNullish(argArray) {
			return vm.Call(f, argOrUndefined(args, 0), nil)
		}
		list, err := vm.CreateListFromArrayLike(argArray, AnyElementTypes)
		if err != nil {
			return nil, err
		}
		return vm.Call(f, argOrUndefined(args, 0), list)
	})
	defineMethod(realm, proto, "bind", 1, functionPrototypeBind)
	defineMethod(realm, proto, "toString", 0, functionPrototypeToString)

	hasInstance := CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		result, err := vm.OrdinaryHasInstance(this, argOrUndefined(args, 0))
		return JSBoolean(result), err
	}, 1, NameSym(vm.symbols.hasInstance), nil)
	defineBuiltinProperty(proto, NameSym(vm.symbols.hasInstance), DataProperty(hasInstance, false, false, false))

	for _, name := range []string{"caller", "arguments"} {
		defineBuiltinProperty(proto, NameStr(name), PropertyDescriptor{
			Get:          in.ThrowTypeError,
			Set:          in.ThrowTypeError,
			Enumerable:   TFalse,
			Configurable: TTrue,
		})
	}
}

// setupFunctionKinds creates the constructors of the non-ordinary function
// kinds. They are intrinsics, not globals.
func setupFunctionKinds(vm *VM, realm *Realm) {
	in := realm.Intrinsics

	makeKind := func(name string, kind FunctionKind) (*JSObject, *JSObject) {
		proto := OrdinaryObjectCreate(in.FunctionPrototype)
		ctor := CreateBuiltinFunction(realm, functionConstructorFor(kind), 1, NameStr(name), in.Function)
		ctor.constructor = true
		defineBuiltinProperty(ctor, NameStr("prototype"), DataProperty(proto, false, false, false))
		defineBuiltinProperty(proto, NameStr("constructor"), DataProperty(ctor, false, false, true))
		defineBuiltinProperty(proto, NameSym(vm.symbols.toStringTag), DataProperty(JSString(name), false, false, true))
		in.register(name, ctor)
		in.register(name+".prototype", proto)
		return ctor, proto
	}

	// the prototype shared by the instances' own `prototype` objects
	makeInstanceProto := func(fnProto *JSObject, tag string) *JSObject {
		instProto := OrdinaryObjectCreate(in.ObjectPrototype)
		defineBuiltinProperty(fnProto, NameStr("prototype"), DataProperty(instProto, false, false, true))
		defineBuiltinProperty(instProto, NameStr("constructor"), DataProperty(fnProto, false, false, true))
		defineBuiltinProperty(instProto, NameSym(vm.symbols.toStringTag), DataProperty(JSString(tag), false, false, true))
		for _, method := range []string{"next", "return", "throw"} {
			defineMethod(realm, instProto, method, 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
				return nil, notImplemented("%s.prototype.%s", tag, method)
			})
		}
		return instProto
	}

	in.AsyncFunction, in.AsyncFunctionPrototype = makeKind("AsyncFunction", KindAsync)

	in.GeneratorFunction, in.GeneratorFunctionPrototype = makeKind("GeneratorFunction", KindGenerator)
	in.GeneratorPrototype = makeInstanceProto(in.GeneratorFunctionPrototype, "Generator")
	in.register("GeneratorFunction.prototype.prototype", in.GeneratorPrototype)

	in.AsyncGeneratorFunction, in.AsyncGeneratorFunctionPrototype = makeKind("AsyncGeneratorFunction", KindAsyncGenerator)
	in.AsyncGeneratorPrototype = makeInstanceProto(in.AsyncGeneratorFunctionPrototype, "AsyncGenerator")
	in.register("AsyncGeneratorFunction.prototype.prototype", in.AsyncGeneratorPrototype)
}
