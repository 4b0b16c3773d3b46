package aotvm

import (
	"log/slog"
)

type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromisePending:
		return "pending"
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "PromiseState(?)"
	}
}

// promiseSlots are the internal slots of promise instances. Reactions are
// not kept: Promise.prototype.then is not ported.
type promiseSlots struct {
	state     PromiseState
	result    JSValue
	isHandled bool
}

// PromiseCapability is a PromiseCapability Record.
type PromiseCapability struct {
	Promise *JSObject
	Resolve *JSObject
	Reject  *JSObject
}

func IsPromise(v JSValue) bool {
	o, isObj := v.(*JSObject)
	return isObj && o.promise != nil
}

// PromiseStateOf reports the state and result of a promise; ok is false for
// anything else.
func PromiseStateOf(v JSValue) (state PromiseState, result JSValue, ok bool) {
	o, isObj := v.(*JSObject)
	if !isObj || o.promise == nil {
		return 0, nil, false
	}
	return o.promise.state, o.promise.result, true
}

// CreateResolvingFunctions returns the resolve and reject functions of
// promise. They share one "already resolved" flag.
func CreateResolvingFunctions(vm *VM, promise *JSObject) (resolve, reject *JSObject) {
	alreadyResolved := false
	realm := vm.CurrentRealm()

	resolve = CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		resolution := argOrUndefined(args, 0)
		if alreadyResolved {
			return JSUndefined{}, nil
		}
		alreadyResolved = true

		if SameValue(resolution, promise) {
			selfResolutionError := vm.makeError("TypeError", "chaining cycle detected for promise")
			rejectPromise(vm, promise, selfResolutionError)
			return JSUndefined{}, nil
		}
		resObj, isObj := resolution.(*JSObject)
		if !isObj {
			fulfillPromise(vm, promise, resolution)
			return JSUndefined{}, nil
		}
		then, err := vm.Get(resObj, NameStr("then"))
		if err != nil {
			tc, isThrow := AsThrow(err)
			if !isThrow {
				return nil, err
			}
			rejectPromise(vm, promise, tc.Value)
			return JSUndefined{}, nil
		}
		thenObj, isCallable := then.(*JSObject)
		if !isCallable || !thenObj.callable {
			fulfillPromise(vm, promise, resolution)
			return JSUndefined{}, nil
		}
		jobRealm, err := GetFunctionRealm(vm, thenObj)
		if err != nil {
			// revoked proxy
			jobRealm = vm.CurrentRealm()
		}
		vm.HostEnqueuePromiseJob(newPromiseResolveThenableJob(promise, resObj, thenObj), jobRealm)
		return JSUndefined{}, nil
	}, 1, NameStr(""), nil)

	reject = CreateBuiltinFunction(realm, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if alreadyResolved {
			return JSUndefined{}, nil
		}
		alreadyResolved = true
		rejectPromise(vm, promise, argOrUndefined(args, 0))
		return JSUndefined{}, nil
	}, 1, NameStr(""), nil)

	return resolve, reject
}

func newPromiseResolveThenableJob(promise, thenable, then *JSObject) Job {
	return func(vm *VM) error {
		resolve, reject := CreateResolvingFunctions(vm, promise)
		_, err := vm.Call(then, thenable, []JSValue{resolve, reject})
		if err == nil {
			return nil
		}
		tc, isThrow := AsThrow(err)
		if !isThrow {
			return err
		}
		_, err = vm.Call(reject, JSUndefined{}, []JSValue{tc.Value})
		return err
	}
}

func fulfillPromise(vm *VM, promise *JSObject, value JSValue) {
	slots := promise.promise
	if slots.state != PromisePending {
		panic("bug: fulfilling a settled promise")
	}
	slots.state = PromiseFulfilled
	slots.result = value
	vm.logger.Debug("promise fulfilled", slog.Uint64("promise", promise.id))
}

func rejectPromise(vm *VM, promise *JSObject, reason JSValue) {
	slots := promise.promise
	if slots.state != PromisePending {
		panic("bug: rejecting a settled promise")
	}
	slots.state = PromiseRejected
	slots.result = reason
	if !slots.isHandled {
		vm.logger.Debug("promise rejected without handler",
			slog.Uint64("promise", promise.id),
			slog.String("reason", vm.describe(reason)),
		)
	}
}

// NewPromiseCapability constructs a promise through c and captures the
// resolving functions c passes to its executor.
func (vm *VM) NewPromiseCapability(c JSValue) (*PromiseCapability, error) {
	ctor, isObj := c.(*JSObject)
	if !isObj || !ctor.constructor {
		return nil, vm.ThrowError("TypeError", vm.describe(c)+" is not a constructor")
	}

	var resolve, reject JSValue = JSUndefined{}, JSUndefined{}
	executor := CreateBuiltinFunction(vm.CurrentRealm(), func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		if !IsUndefined(resolve) {
			return nil, vm.ThrowError("TypeError", "promise executor has already been invoked with a resolve function")
		}
		if !IsUndefined(reject) {
			return nil, vm.ThrowError("TypeError", "promise executor has already been invoked with a reject function")
		}
		resolve = argOrUndefined(args, 0)
		reject = argOrUndefined(args, 1)
		return JSUndefined{}, nil
	}, 2, NameStr(""), nil)

	promise, err := vm.Construct(ctor, []JSValue{executor}, nil)
	if err != nil {
		return nil, err
	}
	resolveFn, isObj := resolve.(*JSObject)
	if !isObj || !resolveFn.callable {
		return nil, vm.ThrowError("TypeError", "promise resolve function is not callable")
	}
	rejectFn, isObj := reject.(*JSObject)
	if !isObj || !rejectFn.callable {
		return nil, vm.ThrowError("TypeError", "promise reject function is not callable")
	}
	return &PromiseCapability{Promise: promise, Resolve: resolveFn, Reject: rejectFn}, nil
}

func promiseConstructor(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	if !flags.IsNew() {
		return nil, vm.ThrowError("TypeError", "Promise constructor cannot be invoked without 'new'")
	}
	executor := argOrUndefined(args, 0)
	if !IsCallable(executor) {
		return nil, vm.ThrowError("TypeError", "Promise resolver "+vm.describe(executor)+" is not a function")
	}
	promise, err := OrdinaryCreateFromConstructor(vm, flags.NewTarget(), "%Promise.prototype%")
	if err != nil {
		return nil, err
	}
	promise.class = "Promise"
	promise.promise = &promiseSlots{state: PromisePending}

	resolve, reject := CreateResolvingFunctions(vm, promise)
	_, err = vm.Call(executor, JSUndefined{}, []JSValue{resolve, reject})
	if err != nil {
		tc, isThrow := AsThrow(err)
		if !isThrow {
			return nil, err
		}
		if _, err := vm.Call(reject, JSUndefined{}, []JSValue{tc.Value}); err != nil {
			return nil, err
		}
	}
	return promise, nil
}

func setupPromise(vm *VM, realm *Realm) {
	in := realm.Intrinsics
	proto := OrdinaryObjectCreate(in.ObjectPrototype)
	in.PromisePrototype = proto
	in.register("Promise.prototype", proto)

	ctor := makeBuiltinConstructor(realm, "Promise", 1, proto, promiseConstructor)
	in.Promise = ctor
	in.registerGlobal("Promise", ctor)

	defineMethod(realm, ctor, "resolve", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		x := argOrUndefined(args, 0)
		if IsPromise(x) {
			xConstructor, err := vm.Get(x.(*JSObject), NameStr("constructor"))
			if err != nil {
				return nil, err
			}
			if SameValue(xConstructor, this) {
				return x, nil
			}
		}
		capability, err := vm.NewPromiseCapability(this)
		if err != nil {
			return nil, err
		}
		if _, err := vm.Call(capability.Resolve, JSUndefined{}, []JSValue{x}); err != nil {
			return nil, err
		}
		return capability.Promise, nil
	})
	defineMethod(realm, ctor, "reject", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		capability, err := vm.NewPromiseCapability(this)
		if err != nil {
			return nil, err
		}
		if _, err := vm.Call(capability.Reject, JSUndefined{}, []JSValue{argOrUndefined(args, 0)}); err != nil {
			return nil, err
		}
		return capability.Promise, nil
	})

	defineMethod(realm, proto, "then", 2, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return nil, notImplemented("Promise.prototype.then")
	})
	defineMethod(realm, proto, "catch", 1, func(vm *VM, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
		return nil, notImplemented("Promise.prototype.catch")
	})
	defineBuiltinProperty(proto, NameSym(vm.symbols.toStringTag), DataProperty(JSString("Promise"), false, false, true))
}
