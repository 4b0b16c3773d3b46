package aotvm

import (
	"fmt"
	"slices"
)

// Environment is an Environment Record. Records link to their outer record
// by reference only; closures keep inner records alive on their own.
type Environment interface {
	HasBinding(vm *VM, name string) (bool, error)
	CreateMutableBinding(vm *VM, name string, deletable bool) error
	CreateImmutableBinding(vm *VM, name string, strict bool) error
	InitializeBinding(vm *VM, name string, v JSValue) error
	SetMutableBinding(vm *VM, name string, v JSValue, strict bool) error
	GetBindingValue(vm *VM, name string, strict bool) (JSValue, error)
	DeleteBinding(vm *VM, name string) (bool, error)
	HasThisBinding() bool
	HasSuperBinding() bool
	// WithBaseObject returns undefined or the binding object of a `with`.
	WithBaseObject() JSValue
	Outer() Environment
}

// thisEnvironment is implemented by records that can provide `this`.
type thisEnvironment interface {
	Environment
	GetThisBinding(vm *VM) (JSValue, error)
}

type Binding struct {
	Mutable     bool
	Strict      bool
	Initialized bool
	Deletable   bool
	Value       JSValue

	// set on indirect (import) bindings of a module environment
	Module        ModuleRecord
	AlternateName string
}

type DeclarativeEnv struct {
	bindings map[string]*Binding
	outer    Environment
}

func NewDeclarativeEnvironment(outer Environment) *DeclarativeEnv {
	return &DeclarativeEnv{
		bindings: make(map[string]*Binding),
		outer:    outer,
	}
}

func (env *DeclarativeEnv) Outer() Environment { return env.outer }

func (env *DeclarativeEnv) binding(name string) *Binding {
	b, ok := env.bindings[name]
	if !ok {
		panic(fmt.Sprintf("bug: environment has no binding for %q", name))
	}
	return b
}

func (env *DeclarativeEnv) HasBinding(vm *VM, name string) (bool, error) {
	_, ok := env.bindings[name]
	return ok, nil
}

func (env *DeclarativeEnv) CreateMutableBinding(vm *VM, name string, deletable bool) error {
	if _, exists := env.bindings[name]; exists {
		panic(fmt.Sprintf("bug: binding %q already exists", name))
	}
	env.bindings[name] = &Binding{Mutable: true, Deletable: deletable}
	return nil
}

func (env *DeclarativeEnv) CreateImmutableBinding(vm *VM, name string, strict bool) error {
	if _, exists := env.bindings[name]; exists {
		panic(fmt.Sprintf("bug: binding %q already exists", name))
	}
	env.bindings[name] = &Binding{Strict: strict}
	return nil
}

func (env *DeclarativeEnv) InitializeBinding(vm *VM, name string, v JSValue) error {
	b := env.binding(name)
	if b.Initialized {
		panic(fmt.Sprintf("bug: binding %q initialized twice", name))
	}
	b.Value = v
	b.Initialized = true
	return nil
}

func (env *DeclarativeEnv) SetMutableBinding(vm *VM, name string, v JSValue, strict bool) error {
	b, exists := env.bindings[name]
	if !exists {
		if strict {
			return vm.ThrowError("ReferenceError", name+" is not defined")
		}
		must(0, env.CreateMutableBinding(vm, name, true))
		must(0, env.InitializeBinding(vm, name, v))
		return nil
	}

	if b.Strict {
		strict = true
	}
	switch {
	case !b.Initialized:
		return vm.ThrowError("ReferenceError", "cannot access '"+name+"' before initialization")
	case b.Mutable:
		b.Value = v
	case strict:
		return vm.ThrowError("TypeError", "assignment to constant binding '"+name+"'")
	}
	return nil
}

func (env *DeclarativeEnv) GetBindingValue(vm *VM, name string, strict bool) (JSValue, error) {
	b := env.binding(name)
	if !b.Initialized {
		return nil, vm.ThrowError("ReferenceError", "cannot access '"+name+"' before initialization")
	}
	return b.Value, nil
}

func (env *DeclarativeEnv) DeleteBinding(vm *VM, name string) (bool, error) {
	b := env.binding(name)
	if !b.Deletable {
		return false, nil
	}
	delete(env.bindings, name)
	return true, nil
}

func (env *DeclarativeEnv) HasThisBinding() bool { return false }

func (env *DeclarativeEnv) HasSuperBinding() bool { return false }

func (env *DeclarativeEnv) WithBaseObject() JSValue { return JSUndefined{} }

type ThisBindingStatus uint8

const (
	ThisLexical ThisBindingStatus = iota
	ThisInitialized
	ThisUninitialized
)

type FunctionEnv struct {
	*DeclarativeEnv
	thisValue         JSValue
	thisBindingStatus ThisBindingStatus
	FunctionObject    *JSObject
	NewTarget         JSValue
}

func NewFunctionEnvironment(f *JSObject, newTarget JSValue) *FunctionEnv {
	fp := f.funcPart
	env := &FunctionEnv{
		DeclarativeEnv: NewDeclarativeEnvironment(fp.environment),
		FunctionObject: f,
		NewTarget:      newTarget,
	}
	if fp.thisMode == thisModeLexical {
		env.thisBindingStatus = ThisLexical
	} else {
		env.thisBindingStatus = ThisUninitialized
	}
	return env
}

func (env *FunctionEnv) BindThisValue(vm *VM, v JSValue) (JSValue, error) {
	if env.thisBindingStatus == ThisLexical {
		panic("bug: BindThisValue on a lexical this binding")
	}
	if env.thisBindingStatus == ThisInitialized {
		return nil, vm.ThrowError("ReferenceError", "this is already initialized")
	}
	env.thisValue = v
	env.thisBindingStatus = ThisInitialized
	return v, nil
}

func (env *FunctionEnv) HasThisBinding() bool {
	return env.thisBindingStatus != ThisLexical
}

func (env *FunctionEnv) GetThisBinding(vm *VM) (JSValue, error) {
	if env.thisBindingStatus == ThisLexical {
		panic("bug: GetThisBinding on a lexical this binding")
	}
	if env.thisBindingStatus == ThisUninitialized {
		return nil, vm.ThrowError("ReferenceError", "this is not initialized")
	}
	return env.thisValue, nil
}

type ObjectEnv struct {
	BindingObject     *JSObject
	IsWithEnvironment bool
	outer             Environment
}

func NewObjectEnvironment(o *JSObject, isWith bool, outer Environment) *ObjectEnv {
	return &ObjectEnv{BindingObject: o, IsWithEnvironment: isWith, outer: outer}
}

func (env *ObjectEnv) Outer() Environment { return env.outer }

func (env *ObjectEnv) HasBinding(vm *VM, name string) (bool, error) {
	found, err := env.BindingObject.HasProperty(vm, NameStr(name))
	if err != nil || !found {
		return false, err
	}
	if !env.IsWithEnvironment {
		return true, nil
	}
	unscopables, err := env.BindingObject.Get(vm, NameSym(vm.symbols.unscopables), env.BindingObject)
	if err != nil {
		return false, err
	}
	if unscopablesObj, isObj := unscopables.(*JSObject); isObj {
		blockedVal, err := unscopablesObj.Get(vm, NameStr(name), unscopablesObj)
		if err != nil {
			return false, err
		}
		if vm.ToBoolean(blockedVal) {
			return false, nil
		}
	}
	return true, nil
}

func (env *ObjectEnv) CreateMutableBinding(vm *VM, name string, deletable bool) error {
	return vm.DefinePropertyOrThrow(env.BindingObject, NameStr(name), DataProperty(JSUndefined{}, true, true, deletable))
}

func (env *ObjectEnv) CreateImmutableBinding(vm *VM, name string, strict bool) error {
	panic("bug: object environments have no immutable bindings")
}

func (env *ObjectEnv) InitializeBinding(vm *VM, name string, v JSValue) error {
	return env.SetMutableBinding(vm, name, v, false)
}

func (env *ObjectEnv) SetMutableBinding(vm *VM, name string, v JSValue, strict bool) error {
	stillExists, err := env.BindingObject.HasProperty(vm, NameStr(name))
	if err != nil {
		return err
	}
	if !stillExists && strict {
		return vm.ThrowError("ReferenceError", name+" is not defined")
	}
	return vm.Set(env.BindingObject, NameStr(name), v, strict)
}

func (env *ObjectEnv) GetBindingValue(vm *VM, name string, strict bool) (JSValue, error) {
	value, err := env.BindingObject.HasProperty(vm, NameStr(name))
	if err != nil {
		return nil, err
	}
	if !value {
		if !strict {
			return JSUndefined{}, nil
		}
		return nil, vm.ThrowError("ReferenceError", name+" is not defined")
	}
	return env.BindingObject.Get(vm, NameStr(name), env.BindingObject)
}

func (env *ObjectEnv) DeleteBinding(vm *VM, name string) (bool, error) {
	return env.BindingObject.Delete(vm, NameStr(name))
}

func (env *ObjectEnv) HasThisBinding() bool { return false }

func (env *ObjectEnv) HasSuperBinding() bool { return false }

func (env *ObjectEnv) WithBaseObject() JSValue {
	if env.IsWithEnvironment {
		return env.BindingObject
	}
	return JSUndefined{}
}

type GlobalEnv struct {
	ObjectRecord      *ObjectEnv
	GlobalThisValue   *JSObject
	DeclarativeRecord *DeclarativeEnv
	VarNames          []string
}

func NewGlobalEnvironment(g *JSObject, thisValue *JSObject) *GlobalEnv {
	return &GlobalEnv{
		ObjectRecord:      NewObjectEnvironment(g, false, nil),
		GlobalThisValue:   thisValue,
		DeclarativeRecord: NewDeclarativeEnvironment(nil),
	}
}

func (env *GlobalEnv) Outer() Environment { return nil }

func (env *GlobalEnv) hasDeclarative(name string) bool {
	_, ok := env.DeclarativeRecord.bindings[name]
	return ok
}

func (env *GlobalEnv) HasBinding(vm *VM, name string) (bool, error) {
	if env.hasDeclarative(name) {
		return true, nil
	}
	return env.ObjectRecord.HasBinding(vm, name)
}

func (env *GlobalEnv) CreateMutableBinding(vm *VM, name string, deletable bool) error {
	if env.hasDeclarative(name) {
		return vm.ThrowError("TypeError", "identifier '"+name+"' has already been declared")
	}
	return env.DeclarativeRecord.CreateMutableBinding(vm, name, deletable)
}

func (env *GlobalEnv) CreateImmutableBinding(vm *VM, name string, strict bool) error {
	if env.hasDeclarative(name) {
		return vm.ThrowError("TypeError", "identifier '"+name+"' has already been declared")
	}
	return env.DeclarativeRecord.CreateImmutableBinding(vm, name, strict)
}

func (env *GlobalEnv) InitializeBinding(vm *VM, name string, v JSValue) error {
	if env.hasDeclarative(name) {
		return env.DeclarativeRecord.InitializeBinding(vm, name, v)
	}
	return env.ObjectRecord.InitializeBinding(vm, name, v)
}

func (env *GlobalEnv) SetMutableBinding(vm *VM, name string, v JSValue, strict bool) error {
	if env.hasDeclarative(name) {
		return env.DeclarativeRecord.SetMutableBinding(vm, name, v, strict)
	}
	return env.ObjectRecord.SetMutableBinding(vm, name, v, strict)
}

func (env *GlobalEnv) GetBindingValue(vm *VM, name string, strict bool) (JSValue, error) {
	if env.hasDeclarative(name) {
		return env.DeclarativeRecord.GetBindingValue(vm, name, strict)
	}
	return env.ObjectRecord.GetBindingValue(vm, name, strict)
}

func (env *GlobalEnv) DeleteBinding(vm *VM, name string) (bool, error) {
	if env.hasDeclarative(name) {
		return env.DeclarativeRecord.DeleteBinding(vm, name)
	}
	globalObject := env.ObjectRecord.BindingObject
	existingProp, err := vm.HasOwnProperty(globalObject, NameStr(name))
	if err != nil {
		return false, err
	}
	if existingProp {
		status, err := env.ObjectRecord.DeleteBinding(vm, name)
		if err != nil {
			return false, err
		}
		if status {
			env.VarNames = slices.DeleteFunc(env.VarNames, func(n string) bool { return n == name })
		}
		return status, nil
	}
	return true, nil
}

func (env *GlobalEnv) HasThisBinding() bool { return true }

func (env *GlobalEnv) HasSuperBinding() bool { return false }

func (env *GlobalEnv) WithBaseObject() JSValue { return JSUndefined{} }

func (env *GlobalEnv) GetThisBinding(vm *VM) (JSValue, error) {
	return env.GlobalThisValue, nil
}

func (env *GlobalEnv) HasVarDeclaration(name string) bool {
	return slices.Contains(env.VarNames, name)
}

func (env *GlobalEnv) HasLexicalDeclaration(name string) bool {
	return env.hasDeclarative(name)
}

func (env *GlobalEnv) HasRestrictedGlobalProperty(vm *VM, name string) (bool, error) {
	existingProp, err := env.ObjectRecord.BindingObject.GetOwnProperty(vm, NameStr(name))
	if err != nil || existingProp == nil {
		return false, err
	}
	return !existingProp.Configurable.isTrue(), nil
}

func (env *GlobalEnv) CanDeclareGlobalVar(vm *VM, name string) (bool, error) {
	globalObject := env.ObjectRecord.BindingObject
	hasProperty, err := vm.HasOwnProperty(globalObject, NameStr(name))
	if err != nil || hasProperty {
		return hasProperty, err
	}
	return globalObject.IsExtensible(vm)
}

func (env *GlobalEnv) CanDeclareGlobalFunction(vm *VM, name string) (bool, error) {
	globalObject := env.ObjectRecord.BindingObject
	existingProp, err := globalObject.GetOwnProperty(vm, NameStr(name))
	if err != nil {
		return false, err
	}
	if existingProp == nil {
		return globalObject.IsExtensible(vm)
	}
	if existingProp.Configurable.isTrue() {
		return true, nil
	}
	if existingProp.IsDataDescriptor() && existingProp.Writable.isTrue() && existingProp.Enumerable.isTrue() {
		return true, nil
	}
	return false, nil
}

func (env *GlobalEnv) CreateGlobalVarBinding(vm *VM, name string, deletable bool) error {
	globalObject := env.ObjectRecord.BindingObject
	hasProperty, err := vm.HasOwnProperty(globalObject, NameStr(name))
	if err != nil {
		return err
	}
	extensible, err := globalObject.IsExtensible(vm)
	if err != nil {
		return err
	}
	if !hasProperty && extensible {
		if err := env.ObjectRecord.CreateMutableBinding(vm, name, deletable); err != nil {
			return err
		}
		if err := env.ObjectRecord.InitializeBinding(vm, name, JSUndefined{}); err != nil {
			return err
		}
	}
	if !slices.Contains(env.VarNames, name) {
		env.VarNames = append(env.VarNames, name)
	}
	return nil
}

func (env *GlobalEnv) CreateGlobalFunctionBinding(vm *VM, name string, v JSValue, deletable bool) error {
	globalObject := env.ObjectRecord.BindingObject
	existingProp, err := globalObject.GetOwnProperty(vm, NameStr(name))
	if err != nil {
		return err
	}
	var desc PropertyDescriptor
	if existingProp == nil || existingProp.Configurable.isTrue() {
		desc = DataProperty(v, true, true, deletable)
	} else {
		desc = PropertyDescriptor{Value: v}
	}
	if err := vm.DefinePropertyOrThrow(globalObject, NameStr(name), desc); err != nil {
		return err
	}
	if err := vm.Set(globalObject, NameStr(name), v, false); err != nil {
		return err
	}
	if !slices.Contains(env.VarNames, name) {
		env.VarNames = append(env.VarNames, name)
	}
	return nil
}

type ModuleEnv struct {
	*DeclarativeEnv
}

func NewModuleEnvironment(outer Environment) *ModuleEnv {
	return &ModuleEnv{DeclarativeEnv: NewDeclarativeEnvironment(outer)}
}

func (env *ModuleEnv) GetBindingValue(vm *VM, name string, strict bool) (JSValue, error) {
	if !strict {
		panic("bug: module code is always strict")
	}
	b := env.binding(name)
	if b.Module != nil {
		targetEnv := b.Module.Environment()
		if targetEnv == nil {
			return nil, vm.ThrowError("ReferenceError", "module environment of '"+name+"' is not yet established")
		}
		return targetEnv.GetBindingValue(vm, b.AlternateName, true)
	}
	if !b.Initialized {
		return nil, vm.ThrowError("ReferenceError", "cannot access '"+name+"' before initialization")
	}
	return b.Value, nil
}

func (env *ModuleEnv) DeleteBinding(vm *VM, name string) (bool, error) {
	panic("bug: DeleteBinding on a module environment")
}

func (env *ModuleEnv) HasThisBinding() bool { return true }

func (env *ModuleEnv) GetThisBinding(vm *VM) (JSValue, error) {
	return JSUndefined{}, nil
}

// CreateImportBinding creates an initialized immutable binding that reads
// name2 in module's environment whenever it is accessed.
func (env *ModuleEnv) CreateImportBinding(name string, module ModuleRecord, name2 string) {
	if _, exists := env.bindings[name]; exists {
		panic(fmt.Sprintf("bug: binding %q already exists", name))
	}
	env.bindings[name] = &Binding{
		Strict:        true,
		Initialized:   true,
		Module:        module,
		AlternateName: name2,
	}
}

// GetIdentifierReference resolves name along the environment chain starting
// at env; a nil env yields an unresolvable reference.
func GetIdentifierReference(vm *VM, env Environment, name string, strict bool) (*Reference, error) {
	for ; env != nil; env = env.Outer() {
		exists, err := env.HasBinding(vm, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return &Reference{baseEnv: env, Name: NameStr(name), Strict: strict}, nil
		}
	}
	return &Reference{unresolvable: true, Name: NameStr(name), Strict: strict}, nil
}
