package aotvm

type ordinaryMethods struct{}

var ordinary internalMethods = ordinaryMethods{}

func (ordinaryMethods) getPrototypeOf(vm *VM, o *JSObject) (*JSObject, error) {
	return OrdinaryGetPrototypeOf(o), nil
}

func (ordinaryMethods) setPrototypeOf(vm *VM, o *JSObject, proto *JSObject) (bool, error) {
	return OrdinarySetPrototypeOf(o, proto), nil
}

func (ordinaryMethods) isExtensible(vm *VM, o *JSObject) (bool, error) {
	return OrdinaryIsExtensible(o), nil
}

func (ordinaryMethods) preventExtensions(vm *VM, o *JSObject) (bool, error) {
	return OrdinaryPreventExtensions(o), nil
}

func (ordinaryMethods) getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error) {
	return OrdinaryGetOwnProperty(o, key), nil
}

func (ordinaryMethods) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	return OrdinaryDefineOwnProperty(vm, o, key, desc)
}

func (ordinaryMethods) hasProperty(vm *VM, o *JSObject, key Name) (bool, error) {
	return OrdinaryHasProperty(vm, o, key)
}

func (ordinaryMethods) get(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error) {
	return OrdinaryGet(vm, o, key, receiver)
}

func (ordinaryMethods) set(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error) {
	return OrdinarySet(vm, o, key, v, receiver)
}

func (ordinaryMethods) delete(vm *VM, o *JSObject, key Name) (bool, error) {
	return OrdinaryDelete(vm, o, key)
}

func (ordinaryMethods) ownPropertyKeys(vm *VM, o *JSObject) ([]Name, error) {
	return OrdinaryOwnPropertyKeys(o), nil
}

func (ordinaryMethods) call(vm *VM, o *JSObject, this JSValue, args []JSValue) (JSValue, error) {
	return callFunction(vm, o, this, args)
}

func (ordinaryMethods) construct(vm *VM, o *JSObject, args []JSValue, newTarget *JSObject) (*JSObject, error) {
	return constructFunction(vm, o, args, newTarget)
}

func OrdinaryGetPrototypeOf(o *JSObject) *JSObject {
	return o.prototype
}

func OrdinarySetPrototypeOf(o *JSObject, proto *JSObject) bool {
	if proto == o.prototype {
		return true
	}
	if !o.extensible {
		return false
	}
	for p := proto; p != nil; p = p.prototype {
		if p == o {
			return false
		}
		// a proxy may produce any prototype; the cycle check stops there
		if _, isProxy := p.methods.(*proxyExotic); isProxy {
			break
		}
	}
	o.prototype = proto
	return true
}

func OrdinaryIsExtensible(o *JSObject) bool {
	return o.extensible
}

func OrdinaryPreventExtensions(o *JSObject) bool {
	o.extensible = false
	return true
}

// OrdinaryGetOwnProperty returns a copy of the stored descriptor, or nil.
func OrdinaryGetOwnProperty(o *JSObject, key Name) *PropertyDescriptor {
	d, ok := o.props.get(key)
	if !ok {
		return nil
	}
	return d.clone()
}

func OrdinaryDefineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	current, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	extensible, err := o.IsExtensible(vm)
	if err != nil {
		return false, err
	}
	return ValidateAndApplyPropertyDescriptor(o, key, extensible, desc, current), nil
}

func OrdinaryHasProperty(vm *VM, o *JSObject, key Name) (bool, error) {
	hasOwn, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	if hasOwn != nil {
		return true, nil
	}
	parent, err := o.GetPrototypeOf(vm)
	if err != nil {
		return false, err
	}
	if parent != nil {
		return parent.HasProperty(vm, key)
	}
	return false, nil
}

func OrdinaryGet(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error) {
	desc, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		parent, err := o.GetPrototypeOf(vm)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return JSUndefined{}, nil
		}
		return parent.Get(vm, key, receiver)
	}
	if desc.IsDataDescriptor() {
		return desc.Value, nil
	}
	getter, isObj := desc.Get.(*JSObject)
	if !isObj {
		return JSUndefined{}, nil
	}
	return vm.Call(getter, receiver, nil)
}

func OrdinarySet(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error) {
	ownDesc, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	return OrdinarySetWithOwnDescriptor(vm, o, key, v, receiver, ownDesc)
}

func OrdinarySetWithOwnDescriptor(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue, ownDesc *PropertyDescriptor) (bool, error) {
	if ownDesc == nil {
		parent, err := o.GetPrototypeOf(vm)
		if err != nil {
			return false, err
		}
		if parent != nil {
			return parent.Set(vm, key, v, receiver)
		}
		d := DataProperty(JSUndefined{}, true, true, true)
		ownDesc = &d
	}

	if ownDesc.IsDataDescriptor() {
		if ownDesc.Writable.isFalse() {
			return false, nil
		}
		recvObj, isObj := receiver.(*JSObject)
		if !isObj {
			return false, nil
		}
		existing, err := recvObj.GetOwnProperty(vm, key)
		if err != nil {
			return false, err
		}
		if existing != nil {
			if existing.IsAccessorDescriptor() {
				return false, nil
			}
			if existing.Writable.isFalse() {
				return false, nil
			}
			return recvObj.DefineOwnProperty(vm, key, PropertyDescriptor{Value: v})
		}
		return vm.CreateDataProperty(recvObj, key, v)
	}

	setter, isObj := ownDesc.Set.(*JSObject)
	if !isObj {
		return false, nil
	}
	if _, err := vm.Call(setter, receiver, []JSValue{v}); err != nil {
		return false, err
	}
	return true, nil
}

func OrdinaryDelete(vm *VM, o *JSObject, key Name) (bool, error) {
	desc, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	if desc == nil {
		return true, nil
	}
	if desc.Configurable.isTrue() {
		o.props.delete(key)
		return true, nil
	}
	return false, nil
}

func OrdinaryOwnPropertyKeys(o *JSObject) []Name {
	return o.props.keys()
}

// MakeBasicObject allocates an extensible object with no prototype and no
// properties.
func MakeBasicObject() *JSObject {
	return &JSObject{
		id:         newID(),
		extensible: true,
	}
}

// OrdinaryObjectCreate allocates an ordinary object; a nil proto means null.
func OrdinaryObjectCreate(proto *JSObject) *JSObject {
	o := MakeBasicObject()
	o.prototype = proto
	return o
}

// OrdinaryCreateFromConstructor reads constructor.prototype, falling back to
// the named intrinsic of the constructor's realm.
func OrdinaryCreateFromConstructor(vm *VM, constructor *JSObject, intrinsicDefaultProto string) (*JSObject, error) {
	proto, err := GetPrototypeFromConstructor(vm, constructor, intrinsicDefaultProto)
	if err != nil {
		return nil, err
	}
	return OrdinaryObjectCreate(proto), nil
}

func GetPrototypeFromConstructor(vm *VM, constructor *JSObject, intrinsicDefaultProto string) (*JSObject, error) {
	protoValue, err := constructor.Get(vm, NameStr("prototype"), constructor)
	if err != nil {
		return nil, err
	}
	if proto, isObj := protoValue.(*JSObject); isObj {
		return proto, nil
	}
	realm, err := GetFunctionRealm(vm, constructor)
	if err != nil {
		return nil, err
	}
	return realm.Intrinsic(intrinsicDefaultProto), nil
}

// GetFunctionRealm finds the realm a function object was created in, looking
// through bound functions and proxies.
func GetFunctionRealm(vm *VM, obj *JSObject) (*Realm, error) {
	if fp := obj.funcPart; fp != nil {
		if fp.boundTarget != nil {
			return GetFunctionRealm(vm, fp.boundTarget)
		}
		if fp.realm != nil {
			return fp.realm, nil
		}
	}
	if px, isProxy := obj.methods.(*proxyExotic); isProxy {
		if px.handler == nil {
			return nil, vm.ThrowError("TypeError", "cannot get the realm of a revoked proxy")
		}
		return GetFunctionRealm(vm, px.target)
	}
	return vm.CurrentRealm(), nil
}

// immutableProtoExotic is the variant of %Object.prototype%: its prototype
// can only be "changed" to the value it already has.
type immutableProtoExotic struct {
	ordinaryMethods
}

func (immutableProtoExotic) setPrototypeOf(vm *VM, o *JSObject, proto *JSObject) (bool, error) {
	return SetImmutablePrototype(vm, o, proto)
}

func SetImmutablePrototype(vm *VM, o *JSObject, proto *JSObject) (bool, error) {
	current, err := o.GetPrototypeOf(vm)
	if err != nil {
		return false, err
	}
	return current == proto, nil
}
