package aotvm

// Reference is a Reference Record: either a binding in an environment, a
// property of a base value, or unresolvable.
type Reference struct {
	baseValue    JSValue
	baseEnv      Environment
	unresolvable bool

	Name   Name
	Strict bool
	// nil unless this is a super reference
	ThisValue JSValue
}

func propertyReference(base JSValue, key Name, strict bool) *Reference {
	return &Reference{baseValue: base, Name: key, Strict: strict}
}

func (ref *Reference) IsPropertyReference() bool {
	return ref.baseValue != nil
}

func (ref *Reference) IsUnresolvable() bool {
	return ref.unresolvable
}

func (ref *Reference) thisValue() JSValue {
	if ref.ThisValue != nil {
		return ref.ThisValue
	}
	return ref.baseValue
}

func (vm *VM) GetValue(ref *Reference) (JSValue, error) {
	if ref.unresolvable {
		return nil, vm.ThrowError("ReferenceError", ref.Name.String()+" is not defined")
	}
	if ref.IsPropertyReference() {
		baseObj, err := vm.ToObject(ref.baseValue)
		if err != nil {
			return nil, err
		}
		return baseObj.Get(vm, ref.Name, ref.thisValue())
	}
	return ref.baseEnv.GetBindingValue(vm, ref.Name.Str(), ref.Strict)
}

func (vm *VM) PutValue(ref *Reference, w JSValue) error {
	if ref.unresolvable {
		if ref.Strict {
			return vm.ThrowError("ReferenceError", ref.Name.String()+" is not defined")
		}
		globalObj := vm.CurrentRealm().GlobalObject
		return vm.Set(globalObj, ref.Name, w, false)
	}
	if ref.IsPropertyReference() {
		baseObj, err := vm.ToObject(ref.baseValue)
		if err != nil {
			return err
		}
		succeeded, err := baseObj.Set(vm, ref.Name, w, ref.thisValue())
		if err != nil {
			return err
		}
		if !succeeded && ref.Strict {
			return vm.ThrowError("TypeError", "cannot assign to read only property '"+ref.Name.String()+"'")
		}
		return nil
	}
	return ref.baseEnv.SetMutableBinding(vm, ref.Name.Str(), w, ref.Strict)
}

func (vm *VM) InitializeReferencedBinding(ref *Reference, w JSValue) error {
	if ref.unresolvable || ref.IsPropertyReference() {
		panic("bug: InitializeReferencedBinding on a non-environment reference")
	}
	return ref.baseEnv.InitializeBinding(vm, ref.Name.Str(), w)
}
