package aotvm

import (
	"fmt"
	"math"
	"strings"
)

type Realm struct {
	Intrinsics   *Intrinsics
	GlobalObject *JSObject
	GlobalEnv    *GlobalEnv
	HostDefined  any
}

// Intrinsic looks up an intrinsic by its well-known name, with or without
// the surrounding percent signs ("%Object.prototype%").
func (r *Realm) Intrinsic(name string) *JSObject {
	name = strings.Trim(name, "%")
	obj, ok := r.Intrinsics.byName[name]
	if !ok {
		panic(fmt.Sprintf("bug: unknown intrinsic %%%s%%", name))
	}
	return obj
}

// CreateRealm allocates a realm with a fresh set of intrinsics. The global
// object is installed separately by SetRealmGlobalObject.
func (vm *VM) CreateRealm() *Realm {
	realm := &Realm{}
	createIntrinsics(vm, realm)
	return realm
}

// SetRealmGlobalObject installs the global object and environment; nil
// arguments select an ordinary object and the global object itself.
func (vm *VM) SetRealmGlobalObject(realm *Realm, globalObj, thisValue *JSObject) {
	if globalObj == nil {
		globalObj = OrdinaryObjectCreate(realm.Intrinsics.ObjectPrototype)
	}
	if thisValue == nil {
		thisValue = globalObj
	}
	realm.GlobalObject = globalObj
	realm.GlobalEnv = NewGlobalEnvironment(globalObj, thisValue)
}

// SetDefaultGlobalBindings defines the value properties and the constructor
// properties of the global object.
func (vm *VM) SetDefaultGlobalBindings(realm *Realm) error {
	global := realm.GlobalObject
	in := realm.Intrinsics

	values := []struct {
		name  string
		value JSValue
	}{
		{"Infinity", JSNumber(math.Inf(1))},
		{"NaN", JSNumber(math.NaN())},
		{"undefined", JSUndefined{}},
	}
	for _, v := range values {
		if err := vm.DefinePropertyOrThrow(global, NameStr(v.name), DataProperty(v.value, false, false, false)); err != nil {
			return err
		}
	}
	if err := vm.DefinePropertyOrThrow(global, NameStr("globalThis"), DataProperty(realm.GlobalEnv.GlobalThisValue, true, false, true)); err != nil {
		return err
	}

	for _, name := range in.globalNames {
		obj := in.byName[name]
		if err := vm.DefinePropertyOrThrow(global, NameStr(name), DataProperty(obj, true, false, true)); err != nil {
			return err
		}
	}
	return nil
}

// InitializeHostDefinedRealm creates a realm, pushes its execution context
// and populates its global object.
func (vm *VM) InitializeHostDefinedRealm() (*Realm, error) {
	realm := vm.CreateRealm()
	vm.PushContext(&ExecutionContext{Realm: realm})
	vm.SetRealmGlobalObject(realm, nil, nil)
	if err := vm.SetDefaultGlobalBindings(realm); err != nil {
		return nil, err
	}
	return realm, nil
}

type wellKnownSymbols struct {
	asyncIterator      *JSSymbol
	hasInstance        *JSSymbol
	isConcatSpreadable *JSSymbol
	iterator           *JSSymbol
	match              *JSSymbol
	matchAll           *JSSymbol
	replace            *JSSymbol
	search             *JSSymbol
	species            *JSSymbol
	split              *JSSymbol
	toPrimitive        *JSSymbol
	toStringTag        *JSSymbol
	unscopables        *JSSymbol
}

func newWellKnownSymbols() wellKnownSymbols {
	sym := func(name string) *JSSymbol { return NewSymbol(JSString("Symbol." + name)) }
	return wellKnownSymbols{
		asyncIterator:      sym("asyncIterator"),
		hasInstance:        sym("hasInstance"),
		isConcatSpreadable: sym("isConcatSpreadable"),
		iterator:           sym("iterator"),
		match:              sym("match"),
		matchAll:           sym("matchAll"),
		replace:            sym("replace"),
		search:             sym("search"),
		species:            sym("species"),
		split:              sym("split"),
		toPrimitive:        sym("toPrimitive"),
		toStringTag:        sym("toStringTag"),
		unscopables:        sym("unscopables"),
	}
}

func (s *wellKnownSymbols) all() []struct {
	name string
	sym  *JSSymbol
} {
	return []struct {
		name string
		sym  *JSSymbol
	}{
		{"asyncIterator", s.asyncIterator},
		{"hasInstance", s.hasInstance},
		{"isConcatSpreadable", s.isConcatSpreadable},
		{"iterator", s.iterator},
		{"match", s.match},
		{"matchAll", s.matchAll},
		{"replace", s.replace},
		{"search", s.search},
		{"species", s.species},
		{"split", s.split},
		{"toPrimitive", s.toPrimitive},
		{"toStringTag", s.toStringTag},
		{"unscopables", s.unscopables},
	}
}

// Well-known symbols, shared by every realm of the VM.
func (vm *VM) SymbolIterator() *JSSymbol    { return vm.symbols.iterator }
func (vm *VM) SymbolToStringTag() *JSSymbol { return vm.symbols.toStringTag }
func (vm *VM) SymbolToPrimitive() *JSSymbol { return vm.symbols.toPrimitive }
func (vm *VM) SymbolHasInstance() *JSSymbol { return vm.symbols.hasInstance }
