package aotvm

// Intrinsics holds one instance of every built-in object of a realm. Fields
// cover the objects the VM refers to directly; everything is also reachable
// by name through Realm.Intrinsic.
type Intrinsics struct {
	ObjectPrototype   *JSObject
	FunctionPrototype *JSObject
	ThrowTypeError    *JSObject

	Object   *JSObject
	Function *JSObject

	AsyncFunction                   *JSObject
	AsyncFunctionPrototype          *JSObject
	GeneratorFunction               *JSObject
	GeneratorFunctionPrototype      *JSObject
	GeneratorPrototype              *JSObject
	AsyncGeneratorFunction          *JSObject
	AsyncGeneratorFunctionPrototype *JSObject
	AsyncGeneratorPrototype         *JSObject

	Boolean          *JSObject
	BooleanPrototype *JSObject
	Number           *JSObject
	NumberPrototype  *JSObject
	String           *JSObject
	StringPrototype  *JSObject
	Symbol           *JSObject
	SymbolPrototype  *JSObject

	Error          *JSObject
	ErrorPrototype *JSObject

	Array            *JSObject
	ArrayPrototype   *JSObject
	ArrayProtoValues *JSObject

	Promise          *JSObject
	PromisePrototype *JSObject

	Proxy   *JSObject
	Reflect *JSObject

	byName map[string]*JSObject
	// constructor and namespace names installed on the global object
	globalNames []string
}

func (in *Intrinsics) register(name string, obj *JSObject) {
	if _, dup := in.byName[name]; dup {
		panic("bug: intrinsic registered twice: " + name)
	}
	in.byName[name] = obj
}

// registerGlobal registers a constructor or namespace that
// SetDefaultGlobalBindings installs on the global object.
func (in *Intrinsics) registerGlobal(name string, obj *JSObject) {
	in.register(name, obj)
	in.globalNames = append(in.globalNames, name)
}

// createIntrinsics builds the intrinsics in dependency order: the Object
// prototype, then the Function prototype every builtin function inherits
// from, then %ThrowTypeError%, then the constructors.
func createIntrinsics(vm *VM, realm *Realm) {
	in := &Intrinsics{byName: make(map[string]*JSObject)}
	realm.Intrinsics = in

	in.ObjectPrototype = OrdinaryObjectCreate(nil)
	in.ObjectPrototype.methods = immutableProtoExotic{}
	in.register("Object.prototype", in.ObjectPrototype)

	in.FunctionPrototype = CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return JSUndefined{}, nil
	}, 0, NameStr(""), in.ObjectPrototype)
	in.register("Function.prototype", in.FunctionPrototype)

	in.ThrowTypeError = createThrowTypeError(realm)
	in.register("ThrowTypeError", in.ThrowTypeError)

	setupObject(vm, realm)
	setupFunction(vm, realm)
	setupError(vm, realm)
	setupBoolean(vm, realm)
	setupNumber(vm, realm)
	setupString(vm, realm)
	setupSymbol(vm, realm)
	setupArray(vm, realm)
	setupPromise(vm, realm)
	setupFunctionKinds(vm, realm)
	setupProxy(vm, realm)
	setupReflect(vm, realm)
}

// defineBuiltinProperty writes a property straight into the table of an
// intrinsic under construction; those are always fresh ordinary objects.
func defineBuiltinProperty(obj *JSObject, key Name, desc PropertyDescriptor) {
	desc.Complete()
	obj.props.put(key, desc)
}

// defineMethod installs a builtin function as a writable, non-enumerable,
// configurable method.
func defineMethod(realm *Realm, obj *JSObject, name string, length int, behavior NativeCallback) *JSObject {
	fn := CreateBuiltinFunction(realm, behavior, length, NameStr(name), nil)
	defineBuiltinProperty(obj, NameStr(name), DataProperty(fn, true, false, true))
	return fn
}

func defineSymbolMethod(realm *Realm, obj *JSObject, sym *JSSymbol, length int, behavior NativeCallback) *JSObject {
	fn := CreateBuiltinFunction(realm, behavior, length, NameSym(sym), nil)
	defineBuiltinProperty(obj, NameSym(sym), DataProperty(fn, true, false, true))
	return fn
}

func defineGetter(realm *Realm, obj *JSObject, name string, behavior NativeCallback) *JSObject {
	fn := CreateBuiltinFunction(realm, behavior, 0, NameStr(name), nil, "get")
	defineBuiltinProperty(obj, NameStr(name), AccessorProperty(fn, nil, false, true))
	return fn
}

// makeBuiltinConstructor creates a constructor linked both ways with its
// prototype object.
func makeBuiltinConstructor(realm *Realm, name string, length int, proto *JSObject, behavior NativeCallback) *JSObject {
	ctor := CreateBuiltinFunction(realm, behavior, length, NameStr(name), nil)
	ctor.constructor = true
	if proto != nil {
		defineBuiltinProperty(ctor, NameStr("prototype"), DataProperty(proto, false, false, false))
		defineBuiltinProperty(proto, NameStr("constructor"), DataProperty(ctor, true, false, true))
	}
	return ctor
}

func createThrowTypeError(realm *Realm) *JSObject {
	fn := CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return nil, vm.ThrowError("TypeError", "'caller', 'callee', and 'arguments' properties may not be accessed on strict mode functions or the arguments objects for calls to them")
	}, 0, NameStr(""), nil)
	defineBuiltinProperty(fn, NameStr("length"), DataProperty(JSNumber(0), false, false, false))
	defineBuiltinProperty(fn, NameStr("name"), DataProperty(JSString(""), false, false, false))
	fn.extensible = false
	return fn
}

func argOrUndefined(args []JSValue, i int) JSValue {
	if i < len(args) {
		return args[i]
	}
	return JSUndefined{}
}
