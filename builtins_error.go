package aotvm

// nativeErrorKinds are the NativeError constructors; each inherits from
// %Error% and has its own prototype.
var nativeErrorKinds = []string{
	"EvalError",
	"RangeError",
	"ReferenceError",
	"SyntaxError",
	"TypeError",
	"URIError",
}

// ThrowError returns a throw completion carrying a new error object of the
// given kind ("TypeError", "RangeError", ...) from the current realm.
func (vm *VM) ThrowError(kind string, msg string) error {
	return vm.makeException(vm.makeError(kind, msg))
}

func (vm *VM) makeException(v JSValue) error {
	return &ThrowCompletion{Value: v, context: vm.synCtx.snapshot()}
}

func (vm *VM) makeError(kind string, msg string) *JSObject {
	proto := vm.CurrentRealm().Intrinsic(kind + ".prototype")
	obj := OrdinaryObjectCreate(proto)
	obj.class = "Error"
	defineBuiltinProperty(obj, NameStr("message"), DataProperty(JSString(msg), true, false, true))
	return obj
}

func errorConstructor(defaultProto string) NativeCallback {
	return func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		newTarget := flags.NewTarget()
		if newTarget == nil {
			newTarget = vm.RunningContext().Function
		}
		obj, err := OrdinaryCreateFromConstructor(vm, newTarget, defaultProto)
		if err != nil {
			return nil, err
		}
		obj.class = "Error"

		if message := argOrUndefined(args, 0); !IsUndefined(message) {
			msg, err := vm.ToString(message)
			if err != nil {
				return nil, err
			}
			mustOK(vm.DefinePropertyOrThrow(obj, NameStr("message"), DataProperty(msg, true, false, true)))
		}

		if options, isObj := argOrUndefined(args, 1).(*JSObject); isObj {
			hasCause, err := vm.HasProperty(options, NameStr("cause"))
			if err != nil {
				return nil, err
			}
			if hasCause {
				cause, err := vm.Get(options, NameStr("cause"))
				if err != nil {
					return nil, err
				}
				mustOK(vm.DefinePropertyOrThrow(obj, NameStr("cause"), DataProperty(cause, true, false, true)))
			}
		}
		return obj, nil
	}
}

func errorPrototypeToString(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	o, isObj := this.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "Error.prototype.toString called on "+vm.describe(this))
	}

	name, err := vm.Get(o, NameStr("name"))
	if err != nil {
		return nil, err
	}
	nameStr := JSString("Error")
	if !IsUndefined(name) {
		if nameStr, err = vm.ToString(name); err != nil {
			return nil, err
		}
	}

	msg, err := vm.Get(o, NameStr("message"))
	if err != nil {
		return nil, err
	}
	var msgStr JSString
	if !IsUndefined(msg) {
		if msgStr, err = vm.ToString(msg); err != nil {
			return nil, err
		}
	}

	switch {
	case nameStr == "":
		return msgStr, nil
	case msgStr == "":
		return nameStr, nil
	}
	return nameStr + ": " + msgStr, nil
}

func setupError(vm *VM, realm *Realm) {
	in := realm.Intrinsics

	proto := OrdinaryObjectCreate(in.ObjectPrototype)
	in.ErrorPrototype = proto
	in.register("Error.prototype", proto)
	defineBuiltinProperty(proto, NameStr("name"), DataProperty(JSString("Error"), true, false, true))
	defineBuiltinProperty(proto, NameStr("message"), DataProperty(JSString(""), true, false, true))
	defineMethod(realm, proto, "toString", 0, errorPrototypeToString)

	ctor := makeBuiltinConstructor(realm, "Error", 1, proto, errorConstructor("%Error.prototype%"))
	in.Error = ctor
	in.registerGlobal("Error", ctor)

	for _, kind := range nativeErrorKinds {
		kindProto := OrdinaryObjectCreate(proto)
		in.register(kind+".prototype", kindProto)
		defineBuiltinProperty(kindProto, NameStr("name"), DataProperty(JSString(kind), true, false, true))
		defineBuiltinProperty(kindProto, NameStr("message"), DataProperty(JSString(""), true, false, true))

		kindCtor := CreateBuiltinFunction(realm, errorConstructor("%"+kind+".prototype%"), 1, NameStr(kind), ctor)
		kindCtor.constructor = true
		defineBuiltinProperty(kindCtor, NameStr("prototype"), DataProperty(kindProto, false, false, false))
		defineBuiltinProperty(kindProto, NameStr("constructor"), DataProperty(kindCtor, true, false, true))
		in.registerGlobal(kind, kindCtor)
	}
}
