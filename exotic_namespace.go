package aotvm

import (
	"slices"
)

// namespaceExotic is a read-only view of a module's exports. Symbol keys
// behave as on ordinary objects.
type namespaceExotic struct {
	ordinaryMethods
	module  ModuleRecord
	exports []string
}

// ModuleNamespaceCreate creates the namespace object of module; exports is
// copied and sorted by code units.
func ModuleNamespaceCreate(vm *VM, module ModuleRecord, exports []string) *JSObject {
	if module.Namespace() != nil {
		panic("bug: module already has a namespace object")
	}
	sorted := slices.Clone(exports)
	slices.SortFunc(sorted, func(a, b string) int {
		return slices.Compare(JSString(a).codeUnits(), JSString(b).codeUnits())
	})

	m := MakeBasicObject()
	m.class = "Module"
	m.extensible = false
	m.methods = &namespaceExotic{module: module, exports: sorted}
	defineBuiltinProperty(m, NameSym(vm.symbols.toStringTag), DataProperty(JSString("Module"), false, false, false))
	module.SetNamespace(m)
	return m
}

func (nx *namespaceExotic) hasExport(key Name) bool {
	_, found := slices.BinarySearchFunc(nx.exports, key.Str(), func(e, target string) int {
		return slices.Compare(JSString(e).codeUnits(), JSString(target).codeUnits())
	})
	return found
}

func (nx *namespaceExotic) getPrototypeOf(vm *VM, o *JSObject) (*JSObject, error) {
	return nil, nil
}

func (nx *namespaceExotic) setPrototypeOf(vm *VM, o *JSObject, proto *JSObject) (bool, error) {
	return SetImmutablePrototype(vm, o, proto)
}

func (nx *namespaceExotic) isExtensible(vm *VM, o *JSObject) (bool, error) {
	return false, nil
}

func (nx *namespaceExotic) preventExtensions(vm *VM, o *JSObject) (bool, error) {
	return true, nil
}

func (nx *namespaceExotic) getOwnProperty(vm *VM, o *JSObject, key Name) (*PropertyDescriptor, error) {
	if key.IsSymbol() {
		return OrdinaryGetOwnProperty(o, key), nil
	}
	if !nx.hasExport(key) {
		return nil, nil
	}
	value, err := o.Get(vm, key, o)
	if err != nil {
		return nil, err
	}
	desc := DataProperty(value, true, true, false)
	return &desc, nil
}

func (nx *namespaceExotic) defineOwnProperty(vm *VM, o *JSObject, key Name, desc PropertyDescriptor) (bool, error) {
	if key.IsSymbol() {
		return OrdinaryDefineOwnProperty(vm, o, key, desc)
	}
	current, err := o.GetOwnProperty(vm, key)
	if err != nil {
		return false, err
	}
	switch {
	case current == nil:
		return false, nil
	case desc.Configurable.isTrue():
		return false, nil
	case desc.Enumerable.isFalse():
		return false, nil
	case desc.IsAccessorDescriptor():
		return false, nil
	case desc.Writable.isFalse():
		return false, nil
	case desc.Value != nil:
		return SameValue(desc.Value, current.Value), nil
	}
	return true, nil
}

func (nx *namespaceExotic) hasProperty(vm *VM, o *JSObject, key Name) (bool, error) {
	if key.IsSymbol() {
		return OrdinaryHasProperty(vm, o, key)
	}
	return nx.hasExport(key), nil
}

func (nx *namespaceExotic) get(vm *VM, o *JSObject, key Name, receiver JSValue) (JSValue, error) {
	if key.IsSymbol() {
		return OrdinaryGet(vm, o, key, receiver)
	}
	if !nx.hasExport(key) {
		return JSUndefined{}, nil
	}
	binding, err := nx.module.ResolveExport(vm, key.Str(), &[]ResolveSetEntry{})
	if err != nil {
		return nil, err
	}
	if binding == nil || binding.Ambiguous() {
		panic("bug: namespace export no longer resolves: " + key.Str())
	}
	targetModule := binding.Module
	if binding.BindingName == NamespaceBindingName {
		return GetModuleNamespace(vm, targetModule)
	}
	targetEnv := targetModule.Environment()
	if targetEnv == nil {
		return nil, vm.ThrowError("ReferenceError", "module environment of export '"+key.Str()+"' is not yet established")
	}
	return targetEnv.GetBindingValue(vm, binding.BindingName, true)
}

func (nx *namespaceExotic) set(vm *VM, o *JSObject, key Name, v JSValue, receiver JSValue) (bool, error) {
	return false, nil
}

func (nx *namespaceExotic) delete(vm *VM, o *JSObject, key Name) (bool, error) {
	if key.IsSymbol() {
		return OrdinaryDelete(vm, o, key)
	}
	return !nx.hasExport(key), nil
}

func (nx *namespaceExotic) ownPropertyKeys(vm *VM, o *JSObject) ([]Name, error) {
	keys := make([]Name, 0, len(nx.exports)+1)
	for _, e := range nx.exports {
		keys = append(keys, NameStr(e))
	}
	for _, k := range OrdinaryOwnPropertyKeys(o) {
		if k.IsSymbol() {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
