package aotvm

import (
	"fmt"
	"math"
)

func (vm *VM) Call(f JSValue, this JSValue, args []JSValue) (JSValue, error) {
	fobj, isObj := f.(*JSObject)
	if !isObj || !fobj.callable {
		return nil, vm.ThrowError("TypeError", vm.describe(f)+" is not a function")
	}
	return fobj.Call(vm, this, args)
}

// Construct defaults newTarget to f when nil.
func (vm *VM) Construct(f *JSObject, args []JSValue, newTarget *JSObject) (*JSObject, error) {
	if !f.constructor {
		return nil, vm.ThrowError("TypeError", vm.describe(f)+" is not a constructor")
	}
	return f.Construct(vm, args, newTarget)
}

func (vm *VM) Get(o *JSObject, key Name) (JSValue, error) {
	return o.Get(vm, key, o)
}

// GetV reads a property of any value, boxing primitives for the lookup
// while keeping the primitive as receiver.
func (vm *VM) GetV(v JSValue, key Name) (JSValue, error) {
	o, err := vm.ToObject(v)
	if err != nil {
		return nil, err
	}
	return o.Get(vm, key, v)
}

// Set performs O.[[Set]] and throws a TypeError on failure when throw is set.
func (vm *VM) Set(o *JSObject, key Name, v JSValue, throw bool) error {
	success, err := o.Set(vm, key, v, o)
	if err != nil {
		return err
	}
	if !success && throw {
		return vm.ThrowError("TypeError", "cannot assign to property '"+key.String()+"' of "+vm.describe(o))
	}
	return nil
}

func (vm *VM) CreateDataProperty(o *JSObject, key Name, v JSValue) (bool, error) {
	return o.DefineOwnProperty(vm, key, DataProperty(v, true, true, true))
}

func (vm *VM) CreateDataPropertyOrThrow(o *JSObject, key Name, v JSValue) error {
	success, err := vm.CreateDataProperty(o, key, v)
	if err != nil {
		return err
	}
	if !success {
		return vm.ThrowError("TypeError", "cannot define property '"+key.String()+"' of "+vm.describe(o))
	}
	return nil
}

func (vm *VM) CreateMethodProperty(o *JSObject, key Name, v JSValue) {
	mustBool(o.DefineOwnProperty(vm, key, DataProperty(v, true, false, true)))
}

func (vm *VM) DefinePropertyOrThrow(o *JSObject, key Name, desc PropertyDescriptor) error {
	success, err := o.DefineOwnProperty(vm, key, desc)
	if err != nil {
		return err
	}
	if !success {
		return vm.ThrowError("TypeError", "cannot redefine property '"+key.String()+"' of "+vm.describe(o))
	}
	return nil
}

func (vm *VM) DeletePropertyOrThrow(o *JSObject, key Name) error {
	success, err := o.Delete(vm, key)
	if err != nil {
		return err
	}
	if !success {
		return vm.ThrowError("TypeError", "cannot delete property '"+key.String()+"' of "+vm.describe(o))
	}
	return nil
}

// GetMethod returns nil when the property is undefined or null.
func (vm *VM) GetMethod(v JSValue, key Name) (*JSObject, error) {
	f, err := vm.GetV(v, key)
	if err != nil {
		return nil, err
	}
	if IsNullish(f) {
		return nil, nil
	}
	fobj, isObj := f.(*JSObject)
	if !isObj || !fobj.callable {
		return nil, vm.ThrowError("TypeError", key.String()+" is not a function")
	}
	return fobj, nil
}

func (vm *VM) HasProperty(o *JSObject, key Name) (bool, error) {
	return o.HasProperty(vm, key)
}

func (vm *VM) HasOwnProperty(o *JSObject, key Name) (bool, error) {
	desc, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	return desc != nil, nil
}

func (vm *VM) IsExtensible(o *JSObject) (bool, error) {
	return o.IsExtensible(vm)
}

// IsArray looks through proxies, throwing on a revoked one.
func (vm *VM) IsArray(v JSValue) (bool, error) {
	o, isObj := v.(*JSObject)
	if !isObj {
		return false, nil
	}
	switch m := o.methods.(type) {
	case arrayExotic:
		return true, nil
	case *proxyExotic:
		if m.handler == nil {
			return false, vm.ThrowError("TypeError", "cannot perform 'IsArray' on a revoked proxy")
		}
		return vm.IsArray(m.target)
	}
	return false, nil
}

type IntegrityLevel uint8

const (
	LevelSealed IntegrityLevel = iota
	LevelFrozen
)

func (vm *VM) SetIntegrityLevel(o *JSObject, level IntegrityLevel) (bool, error) {
	status, err := o.PreventExtensions(vm)
	if err != nil || !status {
		return false, err
	}
	keys, err := o.OwnPropertyKeys(vm)
	if err != nil {
		return false, err
	}
	if level == LevelSealed {
		for _, k := range keys {
			if err := vm.DefinePropertyOrThrow(o, k, PropertyDescriptor{Configurable: TFalse}); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	for _, k := range keys {
		currentDesc, err := o.GetOwnProperty(vm, k)
		if err != nil {
			return false, err
		}
		if currentDesc == nil {
			continue
		}
		desc := PropertyDescriptor{Configurable: TFalse}
		if !currentDesc.IsAccessorDescriptor() {
			desc.Writable = TFalse
		}
		if err := vm.DefinePropertyOrThrow(o, k, desc); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (vm *VM) TestIntegrityLevel(o *JSObject, level IntegrityLevel) (bool, error) {
	extensible, err := o.IsExtensible(vm)
	if err != nil || extensible {
		return false, err
	}
	keys, err := o.OwnPropertyKeys(vm)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		currentDesc, err := o.GetOwnProperty(vm, k)
		if err != nil {
			return false, err
		}
		if currentDesc == nil {
			continue
		}
		if currentDesc.Configurable.isTrue() {
			return false, nil
		}
		if level == LevelFrozen && currentDesc.IsDataDescriptor() && currentDesc.Writable.isTrue() {
			return false, nil
		}
	}
	return true, nil
}

func (vm *VM) LengthOfArrayLike(o *JSObject) (int64, error) {
	lenValue, err := vm.Get(o, NameStr("length"))
	if err != nil {
		return 0, err
	}
	return vm.ToLength(lenValue)
}

// ListElementTypes restricts CreateListFromArrayLike.
type ListElementTypes uint8

const (
	AnyElementTypes ListElementTypes = iota
	PropertyKeyElementTypes
)

func (vm *VM) CreateListFromArrayLike(v JSValue, types ListElementTypes) ([]JSValue, error) {
	o, isObj := v.(*JSObject)
	if !isObj {
		return nil, vm.ThrowError("TypeError", "CreateListFromArrayLike called on non-object")
	}
	n, err := vm.LengthOfArrayLike(o)
	if err != nil {
		return nil, err
	}
	list := make([]JSValue, 0, min(n, 1024))
	for index := int64(0); index < n; index++ {
		next, err := vm.Get(o, NameStr(formatIndex(index)))
		if err != nil {
			return nil, err
		}
		if types == PropertyKeyElementTypes {
			switch next.(type) {
			case JSString, *JSSymbol:
			default:
				return nil, vm.ThrowError("TypeError", vm.describe(next)+" is not a valid property name")
			}
		}
		list = append(list, next)
	}
	return list, nil
}

type EnumerableKind uint8

const (
	EnumerateKeys EnumerableKind = iota
	EnumerateValues
	EnumerateKeyValues
)

func (vm *VM) EnumerableOwnProperties(o *JSObject, kind EnumerableKind) ([]JSValue, error) {
	ownKeys, err := o.OwnPropertyKeys(vm)
	if err != nil {
		return nil, err
	}
	var results []JSValue
	for _, key := range ownKeys {
		if key.IsSymbol() {
			continue
		}
		desc, err := o.GetOwnProperty(vm, key)
		if err != nil {
			return nil, err
		}
		if desc == nil || !desc.Enumerable.isTrue() {
			continue
		}
		if kind == EnumerateKeys {
			results = append(results, key.Value())
			continue
		}
		value, err := vm.Get(o, key)
		if err != nil {
			return nil, err
		}
		if kind == EnumerateValues {
			results = append(results, value)
		} else {
			results = append(results, CreateArrayFromList(vm, []JSValue{key.Value(), value}))
		}
	}
	return results, nil
}

func (vm *VM) OrdinaryHasInstance(c JSValue, o JSValue) (bool, error) {
	cobj, isObj := c.(*JSObject)
	if !isObj || !cobj.callable {
		return false, nil
	}
	if bt := cobj.funcPart; bt != nil && bt.boundTarget != nil {
		return vm.InstanceofOperator(o, bt.boundTarget)
	}
	obj, isObj := o.(*JSObject)
	if !isObj {
		return false, nil
	}
	p, err := vm.Get(cobj, NameStr("prototype"))
	if err != nil {
		return false, err
	}
	pobj, isObj := p.(*JSObject)
	if !isObj {
		return false, vm.ThrowError("TypeError", "function has non-object prototype in instanceof check")
	}
	for {
		obj, err = obj.GetPrototypeOf(vm)
		if err != nil {
			return false, err
		}
		if obj == nil {
			return false, nil
		}
		if obj == pobj {
			return true, nil
		}
	}
}

func (vm *VM) InstanceofOperator(v JSValue, target JSValue) (bool, error) {
	if !IsObject(target) {
		return false, vm.ThrowError("TypeError", "right-hand side of 'instanceof' is not an object")
	}
	instOfHandler, err := vm.GetMethod(target, NameSym(vm.symbols.hasInstance))
	if err != nil {
		return false, err
	}
	if instOfHandler != nil {
		result, err := vm.Call(instOfHandler, target, []JSValue{v})
		if err != nil {
			return false, err
		}
		return bool(vm.ToBoolean(result)), nil
	}
	if !IsCallable(target) {
		return false, vm.ThrowError("TypeError", "right-hand side of 'instanceof' is not callable")
	}
	return vm.OrdinaryHasInstance(target, v)
}

// Invoke calls the method key of v with v as this.
func (vm *VM) Invoke(v JSValue, key Name, args []JSValue) (JSValue, error) {
	f, err := vm.GetV(v, key)
	if err != nil {
		return nil, err
	}
	return vm.Call(f, v, args)
}

// protoArgument accepts an object or null, as Object.create and
// Object.setPrototypeOf do.
func (vm *VM) protoArgument(v JSValue, what string) (*JSObject, error) {
	switch p := v.(type) {
	case *JSObject:
		return p, nil
	case JSNull:
		return nil, nil
	default:
		return nil, vm.ThrowError("TypeError", what+": prototype must be an object or null")
	}
}

// describe renders a value for error messages without running user code.
func (vm *VM) describe(v JSValue) string {
	switch v := v.(type) {
	case nil:
		return "<empty>"
	case JSString:
		return fmt.Sprintf("%q", string(v))
	case JSNumber:
		return string(NumberToString(float64(v)))
	case JSBoolean:
		if v {
			return "true"
		}
		return "false"
	case JSUndefined:
		return "undefined"
	case JSNull:
		return "null"
	case *JSSymbol:
		return v.String()
	case *JSObject:
		if v.callable {
			if v.funcPart != nil && v.funcPart.name != "" {
				return "function " + v.funcPart.name
			}
			return "function"
		}
		return "object"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatIndex(i int64) string {
	if i >= 0 && i <= math.MaxInt32 {
		return indexName(int(i)).Str()
	}
	return string(NumberToString(float64(i)))
}
