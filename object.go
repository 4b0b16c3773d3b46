package aotvm

import (
	"fmt"
	"slices"
)

// JSObject is every object the VM hands out, ordinary or exotic. Exotic
// behavior lives behind `methods`; a nil value means all thirteen internal
// methods take their ordinary definitions.
type JSObject struct {
	id         uint64
	prototype  *JSObject
	extensible bool
	props      propertyTable

	// class tags objects that carry an internal slot observable by
	// Object.prototype.toString (e.g. "Arguments", "Error", "Boolean").
	class string
	// primitive holds [[BooleanData]], [[NumberData]], [[StringData]] or
	// [[SymbolData]] for wrapper objects.
	primitive JSValue

	methods internalMethods

	funcPart    *FunctionPart
	callable    bool
	constructor bool

	promise *promiseSlots
}

func (o *JSObject) Category() JSVCategory {
	if o.callable {
		return VFunction
	}
	return VObject
}

func (o *JSObject) ID() uint64 { return o.id }

func (o *JSObject) String() string {
	if o.funcPart != nil && o.funcPart.name != "" {
		return fmt.Sprintf("[function %s #%d]", o.funcPart.name, o.id)
	}
	if o.class != "" {
		return fmt.Sprintf("[object %s #%d]", o.class, o.id)
	}
	return fmt.Sprintf("[object #%d]", o.id)
}

func (o *JSObject) internal() internalMethods {
	if o.methods == nil {
		return ordinary
	}
	return o.methods
}

// internalMethods is the per-variant dispatch table. Every method receives the
// object it operates on so that ordinary algorithms reached through embedding
// still re-dispatch through the exotic overrides.
type internalMethods interface {
	getPrototypeOf(vm *VM, o *JSObject) (*JSObject, error)
	setPrototypeOf(vm *VM, o *JSObject, proto *JSObject) (bool, error)
	isExtensible(vm *VM, o *JSObject) (bool, error)
	preventExtensions(vm *VM, o *JSObject) (bool, error)
	getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error)
	defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error)
	hasProperty(vm *VM, o *JSObject, key Name) (bool, error)
	get(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error)
	set(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error)
	delete(vm *VM, o *JSObject, key Name) (bool, error)
	ownPropertyKeys(vm *VM, o *JSObject) ([]Name, error)
	call(vm *VM, o *JSObject, this JSValue, args []JSValue) (JSValue, error)
	construct(vm *VM, o *JSObject, args []JSValue, newTarget *JSObject) (*JSObject, error)
}

func (o *JSObject) GetPrototypeOf(vm *VM) (*JSObject, error) {
	return o.internal().getPrototypeOf(vm, o)
}

func (o *JSObject) SetPrototypeOf(vm *VM, proto *JSObject) (bool, error) {
	return o.internal().setPrototypeOf(vm, o, proto)
}

func (o *JSObject) IsExtensible(vm *VM) (bool, error) {
	return o.internal().isExtensible(vm, o)
}

func (o *JSObject) PreventExtensions(vm *VM) (bool, error) {
	return o.internal().preventExtensions(vm, o)
}

// GetOwnProperty returns nil when the property does not exist.
func (o *JSObject) GetOwnProperty(vm *VM, key Name) (*PropertyDescriptor, error) {
	return o.internal().getOwnProperty(vm, o, key)
}

func (o *JSObject) DefineOwnProperty(vm *VM, key Name, desc PropertyDescriptor) (bool, error) {
	return o.internal().defineOwnProperty(vm, o, key, desc)
}

func (o *JSObject) HasProperty(vm *VM, key Name) (bool, error) {
	return o.internal().hasProperty(vm, o, key)
}

func (o *JSObject) Get(vm *VM, key Name, receiver JSValue) (JSValue, error) {
	return o.internal().get(vm, o, key, receiver)
}

func (o *JSObject) Set(vm *VM, key Name, v JSValue, receiver JSValue) (bool, error) {
	return o.internal().set(vm, o, key, v, receiver)
}

func (o *JSObject) Delete(vm *VM, key Name) (bool, error) {
	return o.internal().delete(vm, o, key)
}

func (o *JSObject) OwnPropertyKeys(vm *VM) ([]Name, error) {
	return o.internal().ownPropertyKeys(vm, o)
}

func (o *JSObject) Call(vm *VM, this JSValue, args []JSValue) (JSValue, error) {
	if !o.callable {
		panic("bug: [[Call]] on an object that is not callable")
	}
	return o.internal().call(vm, o, this, args)
}

func (o *JSObject) Construct(vm *VM, args []JSValue, newTarget *JSObject) (*JSObject, error) {
	if !o.constructor {
		panic("bug: [[Construct]] on an object that is not a constructor")
	}
	if newTarget == nil {
		newTarget = o
	}
	return o.internal().construct(vm, o, args, newTarget)
}

// propertyTable keeps descriptors together with their creation order, which
// OwnPropertyKeys exposes for string and symbol keys.
type propertyTable struct {
	byName map[Name]*PropertyDescriptor
	order  []Name
}

func (pt *propertyTable) get(key Name) (*PropertyDescriptor, bool) {
	d, ok := pt.byName[key]
	return d, ok
}

func (pt *propertyTable) put(key Name, desc PropertyDescriptor) {
	if pt.byName == nil {
		pt.byName = make(map[Name]*PropertyDescriptor)
	}
	if d, ok := pt.byName[key]; ok {
		*d = desc
		return
	}
	pt.byName[key] = &desc
	pt.order = append(pt.order, key)
}

func (pt *propertyTable) delete(key Name) bool {
	if _, ok := pt.byName[key]; !ok {
		return false
	}
	delete(pt.byName, key)
	pt.order = slices.DeleteFunc(pt.order, func(n Name) bool { return n == key })
	return true
}

func (pt *propertyTable) len() int { return len(pt.order) }

// keys lists integer indices ascending, then strings in creation order, then
// symbols in creation order.
func (pt *propertyTable) keys() []Name {
	var indices []uint32
	var strs, syms []Name
	for _, k := range pt.order {
		if idx, ok := k.arrayIndex(); ok {
			indices = append(indices, idx)
		} else if k.IsSymbol() {
			syms = append(syms, k)
		} else {
			strs = append(strs, k)
		}
	}
	slices.Sort(indices)

	keys := make([]Name, 0, len(pt.order))
	for _, idx := range indices {
		keys = append(keys, indexName(int(idx)))
	}
	keys = append(keys, strs...)
	keys = append(keys, syms...)
	return keys
}
