package aotvm

// proxyExotic forwards every internal method to a handler trap, or to the
// target when the handler has no such trap. A nil handler means revoked.
type proxyExotic struct {
	target  *JSObject
	handler *JSObject
}

// ProxyCreate implements the Proxy constructor minus the NewTarget check.
func ProxyCreate(vm *VM, target, handler JSValue) (*JSObject, error) {
	targetObj, isObj := target.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "cannot create proxy with a non-object as target")
	}
	handlerObj, isObj := handler.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "cannot create proxy with a non-object as handler")
	}
	p := MakeBasicObject()
	p.methods = &proxyExotic{target: targetObj, handler: handlerObj}
	if targetObj.callable {
		p.callable = true
		p.constructor = targetObj.constructor
	}
	return p, nil
}

func (px *proxyExotic) revoke() {
	px.target = nil
	px.handler = nil
}

// trap validates the handler and looks up a trap; a nil trap means the
// operation falls through to the target.
func (px *proxyExotic) trap(vm *VM, name string) (*JSObject, error) {
	if px.handler == nil {
		return nil, vm.ThrowError("TypeError", "cannot perform '"+name+"' on a proxy that has been revoked")
	}
	return vm.GetMethod(px.handler, NameStr(name))
}

func (px *proxyExotic) callTrapBool(vm *VM, trap *JSObject, args ...JSValue) (bool, error) {
	result, err := vm.Call(trap, px.handler, args)
	if err != nil {
		return false, err
	}
	return bool(vm.ToBoolean(result)), nil
}

func protoValue(p *JSObject) JSValue {
	if p == nil {
		return JSNull{}
	}
	return p
}

func (px *proxyExotic) getPrototypeOf(vm *VM, o *JSObject) (*JSObject, error) {
	trap, err := px.trap(vm, "getPrototypeOf")
	if err != nil {
		return nil, err
	}
	target := px.target
	if trap == nil {
		return target.GetPrototypeOf(vm)
	}
	handlerProto, err := vm.Call(trap, px.handler, []JSValue{target})
	if err != nil {
		return nil, err
	}
	var proto *JSObject
	switch hp := handlerProto.(type) {
	case *JSObject:
		proto = hp
	case JSNull:
	default:
		return nil, vm.ThrowError("TypeError", "'getPrototypeOf' on proxy: trap returned neither object nor null")
	}
	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return nil, err
	}
	if extensibleTarget {
		return proto, nil
	}
	targetProto, err := target.GetPrototypeOf(vm)
	if err != nil {
		return nil, err
	}
	if proto != targetProto {
		return nil, vm.ThrowError("TypeError", "'getPrototypeOf' on proxy: proxy target is non-extensible but the trap did not return its actual prototype")
	}
	return proto, nil
}

func (px *proxyExotic) setPrototypeOf(vm *VM, o *JSObject, proto *JSObject) (bool, error) {
	trap, err := px.trap(vm, "setPrototypeOf")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.SetPrototypeOf(vm, proto)
	}
	ok, err := px.callTrapBool(vm, trap, target, protoValue(proto))
	if err != nil || !ok {
		return false, err
	}
	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return false, err
	}
	if extensibleTarget {
		return true, nil
	}
	targetProto, err := target.GetPrototypeOf(vm)
	if err != nil {
		return false, err
	}
	if proto != targetProto {
		return false, vm.ThrowError("TypeError", "'setPrototypeOf' on proxy: trap returned truish for setting a new prototype on the non-extensible proxy target")
	}
	return true, nil
}

func (px *proxyExotic) isExtensible(vm *VM, o *JSObject) (bool, error) {
	trap, err := px.trap(vm, "isExtensible")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.IsExtensible(vm)
	}
	result, err := px.callTrapBool(vm, trap, target)
	if err != nil {
		return false, err
	}
	targetResult, err := target.IsExtensible(vm)
	if err != nil {
		return false, err
	}
	if result != targetResult {
		return false, vm.ThrowError("TypeError", "'isExtensible' on proxy: trap result does not reflect extensibility of proxy target")
	}
	return result, nil
}

func (px *proxyExotic) preventExtensions(vm *VM, o *JSObject) (bool, error) {
	trap, err := px.trap(vm, "preventExtensions")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.PreventExtensions(vm)
	}
	result, err := px.callTrapBool(vm, trap, target)
	if err != nil {
		return false, err
	}
	if result {
		extensibleTarget, err := target.IsExtensible(vm)
		if err != nil {
			return false, err
		}
		if extensibleTarget {
			return false, vm.ThrowError("TypeError", "'preventExtensions' on proxy: trap returned truish but the proxy target is extensible")
		}
	}
	return result, nil
}

func (px *proxyExotic) getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error) {
	trap, err := px.trap(vm, "getOwnPropertyDescriptor")
	if err != nil {
		return nil, err
	}
	target := px.target
	if trap == nil {
		return target.GetOwnProperty(vm, key)
	}
	trapResultObj, err := vm.Call(trap, px.handler, []JSValue{target, key.Value()})
	if err != nil {
		return nil, err
	}
	switch trapResultObj.(type) {
	case *JSObject, JSUndefined:
	default:
		return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap returned neither object nor undefined for property '"+key.String()+"'")
	}
	targetDesc, err := target.GetOwnProperty(vm, key)
	if err != nil {
		return nil, err
	}

	if IsUndefined(trapResultObj) {
		if targetDesc == nil {
			return nil, nil
		}
		if targetDesc.Configurable.isFalse() {
			return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap returned undefined for property '"+key.String()+"' which is non-configurable in the proxy target")
		}
		extensibleTarget, err := target.IsExtensible(vm)
		if err != nil {
			return nil, err
		}
		if !extensibleTarget {
			return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap returned undefined for property '"+key.String()+"' which exists in the non-extensible proxy target")
		}
		return nil, nil
	}

	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return nil, err
	}
	resultDesc, err := vm.ToPropertyDescriptor(trapResultObj)
	if err != nil {
		return nil, err
	}
	CompletePropertyDescriptor(&resultDesc)
	if !IsCompatiblePropertyDescriptor(extensibleTarget, resultDesc, targetDesc) {
		return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap returned descriptor for property '"+key.String()+"' that is incompatible with the existing property in the proxy target")
	}
	if resultDesc.Configurable.isFalse() {
		if targetDesc == nil || targetDesc.Configurable.isTrue() {
			return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap reported non-configurability for property '"+key.String()+"' which is either non-existent or configurable in the proxy target")
		}
		if resultDesc.Writable.isFalse() && targetDesc.Writable.isTrue() {
			return nil, vm.ThrowError("TypeError", "'getOwnPropertyDescriptor' on proxy: trap reported non-configurable and writable for property '"+key.String()+"' which is non-configurable, non-writable in the proxy target")
		}
	}
	return &resultDesc, nil
}

func (px *proxyExotic) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	trap, err := px.trap(vm, "defineProperty")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.DefineOwnProperty(vm, key, desc)
	}
	descObj := vm.FromPropertyDescriptor(&desc)
	ok, err := px.callTrapBool(vm, trap, target, key.Value(), descObj)
	if err != nil || !ok {
		return false, err
	}
	targetDesc, err := target.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return false, err
	}
	settingConfigFalse := desc.Configurable.isFalse()

	if targetDesc == nil {
		if !extensibleTarget {
			return false, vm.ThrowError("TypeError", "'defineProperty' on proxy: trap returned truish for adding property '"+key.String()+"' to the non-extensible proxy target")
		}
		if settingConfigFalse {
			return false, vm.ThrowError("TypeError", "'defineProperty' on proxy: trap returned truish for defining non-configurable property '"+key.String()+"' which is non-existent in the proxy target")
		}
		return true, nil
	}
	if !IsCompatiblePropertyDescriptor(extensibleTarget, desc, targetDesc) {
		return false, vm.ThrowError("TypeError", "'defineProperty' on proxy: trap returned truish for adding property '"+key.String()+"' that is incompatible with the existing property in the proxy target")
	}
	if settingConfigFalse && targetDesc.Configurable.isTrue() {
		return false, vm.ThrowError("TypeError", "'defineProperty' on proxy: trap returned truish for defining non-configurable property '"+key.String()+"' which is configurable in the proxy target")
	}
	if targetDesc.IsDataDescriptor() && targetDesc.Configurable.isFalse() && targetDesc.Writable.isTrue() {
		if desc.Writable.isFalse() {
			return false, vm.ThrowError("TypeError", "'defineProperty' on proxy: trap returned truish for defining non-configurable property '"+key.String()+"' which cannot be non-writable, unless there exists a corresponding non-configurable, non-writable own property of the target object")
		}
	}
	return true, nil
}

func (px *proxyExotic) hasProperty(vm *VM, o *JSObject, key Name) (bool, error) {
	trap, err := px.trap(vm, "has")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.HasProperty(vm, key)
	}
	result, err := px.callTrapBool(vm, trap, target, key.Value())
	if err != nil {
		return false, err
	}
	if !result {
		targetDesc, err := target.GetOwnProperty(vm, key)
		if err != nil {
			return false, err
		}
		if targetDesc != nil {
			if targetDesc.Configurable.isFalse() {
				return false, vm.ThrowError("TypeError", "'has' on proxy: trap returned falsish for property '"+key.String()+"' which exists in the proxy target as non-configurable")
			}
			extensibleTarget, err := target.IsExtensible(vm)
			if err != nil {
				return false, err
			}
			if !extensibleTarget {
				return false, vm.ThrowError("TypeError", "'has' on proxy: trap returned falsish for property '"+key.String()+"' but the proxy target is not extensible")
			}
		}
	}
	return result, nil
}

func (px *proxyExotic) get(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error) {
	trap, err := px.trap(vm, "get")
	if err != nil {
		return nil, err
	}
	target := px.target
	if trap == nil {
		return target.Get(vm, key, receiver)
	}
	trapResult, err := vm.Call(trap, px.handler, []JSValue{target, key.Value(), receiver})
	if err != nil {
		return nil, err
	}
	targetDesc, err := target.GetOwnProperty(vm, key)
	if err != nil {
		return nil, err
	}
	if targetDesc != nil && targetDesc.Configurable.isFalse() {
		if targetDesc.IsDataDescriptor() && targetDesc.Writable.isFalse() && !SameValue(trapResult, targetDesc.Value) {
			return nil, vm.ThrowError("TypeError", "'get' on proxy: property '"+key.String()+"' is a read-only and non-configurable data property on the proxy target but the proxy did not return its actual value")
		}
		if targetDesc.IsAccessorDescriptor() && IsUndefined(targetDesc.Get) && !IsUndefined(trapResult) {
			return nil, vm.ThrowError("TypeError", "'get' on proxy: property '"+key.String()+"' is a non-configurable accessor property on the proxy target and does not have a getter function, but the trap did not return 'undefined'")
		}
	}
	return trapResult, nil
}

func (px *proxyExotic) set(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error) {
	trap, err := px.trap(vm, "set")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.Set(vm, key, v, receiver)
	}
	ok, err := px.callTrapBool(vm, trap, target, key.Value(), v, receiver)
	if err != nil || !ok {
		return false, err
	}
	targetDesc, err := target.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	if targetDesc != nil && targetDesc.Configurable.isFalse() {
		if targetDesc.IsDataDescriptor() && targetDesc.Writable.isFalse() && !SameValue(v, targetDesc.Value) {
			return false, vm.ThrowError("TypeError", "'set' on proxy: trap returned truish for property '"+key.String()+"' which exists in the proxy target as a non-configurable and non-writable data property with a different value")
		}
		if targetDesc.IsAccessorDescriptor() && IsUndefined(targetDesc.Set) {
			return false, vm.ThrowError("TypeError", "'set' on proxy: trap returned truish for property '"+key.String()+"' which exists in the proxy target as a non-configurable and non-writable accessor property without a setter")
		}
	}
	return true, nil
}

func (px *proxyExotic) delete(vm *VM, o *JSObject, key Name) (bool, error) {
	trap, err := px.trap(vm, "deleteProperty")
	if err != nil {
		return false, err
	}
	target := px.target
	if trap == nil {
		return target.Delete(vm, key)
	}
	ok, err := px.callTrapBool(vm, trap, target, key.Value())
	if err != nil || !ok {
		return false, err
	}
	targetDesc, err := target.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	if targetDesc == nil {
		return true, nil
	}
	if targetDesc.Configurable.isFalse() {
		return false, vm.ThrowError("TypeError", "'deleteProperty' on proxy: trap returned truish for property '"+key.String()+"' which is non-configurable in the proxy target")
	}
	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return false, err
	}
	if !extensibleTarget {
		return false, vm.ThrowError("TypeError", "'deleteProperty' on proxy: trap returned truish for property '"+key.String()+"' but the proxy target is non-extensible")
	}
	return true, nil
}

func (px *proxyExotic) ownPropertyKeys(vm *VM, o *JSObject) ([]Name, error) {
	trap, err := px.trap(vm, "ownKeys")
	if err != nil {
		return nil, err
	}
	target := px.target
	if trap == nil {
		return target.OwnPropertyKeys(vm)
	}
	trapResultArray, err := vm.Call(trap, px.handler, []JSValue{target})
	if err != nil {
		return nil, err
	}
	list, err := vm.CreateListFromArrayLike(trapResultArray, PropertyKeyElementTypes)
	if err != nil {
		return nil, err
	}
	trapResult := make([]Name, len(list))
	seen := make(map[Name]bool, len(list))
	for i, v := range list {
		var key Name
		if sym, isSym := v.(*JSSymbol); isSym {
			key = NameSym(sym)
		} else {
			key = NameStr(string(v.(JSString)))
		}
		if seen[key] {
			return nil, vm.ThrowError("TypeError", "'ownKeys' on proxy: trap returned duplicate entries")
		}
		seen[key] = true
		trapResult[i] = key
	}

	extensibleTarget, err := target.IsExtensible(vm)
	if err != nil {
		return nil, err
	}
	targetKeys, err := target.OwnPropertyKeys(vm)
	if err != nil {
		return nil, err
	}
	var targetConfigurableKeys, targetNonconfigurableKeys []Name
	for _, key := range targetKeys {
		desc, err := target.GetOwnProperty(vm, key)
		if err != nil {
			return nil, err
		}
		if desc != nil && desc.Configurable.isFalse() {
			targetNonconfigurableKeys = append(targetNonconfigurableKeys, key)
		} else {
			targetConfigurableKeys = append(targetConfigurableKeys, key)
		}
	}
	if extensibleTarget && len(targetNonconfigurableKeys) == 0 {
		return trapResult, nil
	}

	unchecked := seen
	for _, key := range targetNonconfigurableKeys {
		if !unchecked[key] {
			return nil, vm.ThrowError("TypeError", "'ownKeys' on proxy: trap result did not include '"+key.String()+"'")
		}
		delete(unchecked, key)
	}
	if extensibleTarget {
		return trapResult, nil
	}
	for _, key := range targetConfigurableKeys {
		if !unchecked[key] {
			return nil, vm.ThrowError("TypeError", "'ownKeys' on proxy: trap result did not include '"+key.String()+"'")
		}
		delete(unchecked, key)
	}
	if len(unchecked) != 0 {
		return nil, vm.ThrowError("TypeError", "'ownKeys' on proxy: trap returned extra keys but proxy target is non-extensible")
	}
	return trapResult, nil
}

func (px *proxyExotic) call(vm *VM, o *JSObject, this JSValue, args []JSValue) (JSValue, error) {
	trap, err := px.trap(vm, "apply")
	if err != nil {
		return nil, err
	}
	if trap == nil {
		return vm.Call(px.target, this, args)
	}
	argArray := CreateArrayFromList(vm, args)
	return vm.Call(trap, px.handler, []JSValue{px.target, this, argArray})
}

func (px *proxyExotic) construct(vm *VM, o *JSObject, args []JSValue, newTarget *JSObject) (*JSObject, error) {
	trap, err := px.trap(vm, "construct")
	if err != nil {
		return nil, err
	}
	if trap == nil {
		return vm.Construct(px.target, args, newTarget)
	}
	argArray := CreateArrayFromList(vm, args)
	newObj, err := vm.Call(trap, px.handler, []JSValue{px.target, argArray, newTarget})
	if err != nil {
		return nil, err
	}
	obj, isObj := newObj.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "proxy [[Construct]] must return an object")
	}
	return obj, nil
}
