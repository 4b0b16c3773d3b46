package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarativeBindingBeforeInitialization(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)
	env := NewDeclarativeEnvironment(nil)

	require.NoError(t, env.CreateMutableBinding(vm, "x", false))
	_, err := env.GetBindingValue(vm, "x", true)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "ReferenceError", tc.ErrorName())

	err = env.SetMutableBinding(vm, "x", JSNumber(1), false)
	tc, isThrow = AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "ReferenceError", tc.ErrorName())

	require.NoError(t, env.InitializeBinding(vm, "x", JSNumber(1)))
	v, err := env.GetBindingValue(vm, "x", true)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(1), v)
}

func TestImmutableBinding(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)
	env := NewDeclarativeEnvironment(nil)

	require.NoError(t, env.CreateImmutableBinding(vm, "c", true))
	require.NoError(t, env.InitializeBinding(vm, "c", JSString("fixed")))

	err := env.SetMutableBinding(vm, "c", JSString("changed"), false)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "TypeError", tc.ErrorName())

	sloppy := NewDeclarativeEnvironment(nil)
	require.NoError(t, sloppy.CreateImmutableBinding(vm, "s", false))
	require.NoError(t, sloppy.InitializeBinding(vm, "s", JSNumber(1)))
	require.NoError(t, sloppy.SetMutableBinding(vm, "s", JSNumber(2), false))
	v, err := sloppy.GetBindingValue(vm, "s", false)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(1), v)
}

func TestIdentifierResolution(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)
	outer := NewDeclarativeEnvironment(nil)
	inner := NewDeclarativeEnvironment(outer)
	require.NoError(t, outer.CreateMutableBinding(vm, "a", false))
	require.NoError(t, outer.InitializeBinding(vm, "a", JSNumber(10)))

	ref, err := GetIdentifierReference(vm, inner, "a", true)
	require.NoError(t, err)
	require.False(t, ref.IsUnresolvable())
	v, err := vm.GetValue(ref)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(10), v)

	ref, err = GetIdentifierReference(vm, inner, "missing", true)
	require.NoError(t, err)
	assert.True(t, ref.IsUnresolvable())
	_, err = vm.GetValue(ref)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "ReferenceError", tc.ErrorName())
}

func TestGlobalDeclarationConflicts(t *testing.T) {
	vm := NewVM()
	_, err := vm.RunScriptString("a.js", `Object.defineProperty(this, "locked", {value: 1});`)
	require.NoError(t, err)

	_, err = vm.RunScriptString("b.js", `function locked() {}`)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestWithStatementScope(t *testing.T) {
	v := runScript(t, `
		var o = {p: 1};
		var p = 100;
		var r;
		with (o) { r = p; p = 2; }
		r + o.p + p`)
	assert.Equal(t, JSNumber(103), v)
}

func TestModuleNamespace(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)

	lib := &DeclarativeModule{
		LocalExportEntries: []ExportEntry{
			{ExportName: "zeta", LocalName: "z"},
			{ExportName: "alpha", LocalName: "a"},
		},
		Body: func(vm *VM, env *ModuleEnv) error {
			if err := env.InitializeBinding(vm, "a", JSNumber(1)); err != nil {
				return err
			}
			return env.InitializeBinding(vm, "z", JSNumber(26))
		},
	}
	main := &DeclarativeModule{
		ImportEntries: []ImportEntry{
			{ModuleRequest: "lib", ImportName: "alpha", LocalName: "alpha"},
			{ModuleRequest: "lib", ImportName: NamespaceImportName, LocalName: "ns"},
		},
		Resolve: func(specifier string) (ModuleRecord, error) {
			if specifier == "lib" {
				return lib, nil
			}
			return nil, nil
		},
	}

	require.NoError(t, lib.InitializeEnvironment(vm))
	require.NoError(t, main.InitializeEnvironment(vm))

	ns, err := GetModuleNamespace(vm, lib)
	require.NoError(t, err)
	again, err := GetModuleNamespace(vm, lib)
	require.NoError(t, err)
	assert.Same(t, ns, again)

	keys, err := ns.OwnPropertyKeys(vm)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(keys), 2)
	assert.Equal(t, []Name{NameStr("alpha"), NameStr("zeta")}, keys[:2])

	// exports are not initialized until the module body runs
	_, err = ns.Get(vm, NameStr("alpha"), ns)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "ReferenceError", tc.ErrorName())

	require.NoError(t, lib.Evaluate(vm))

	v, err := ns.Get(vm, NameStr("zeta"), ns)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(26), v)

	// import bindings stay live
	v, err = main.Environment().GetBindingValue(vm, "alpha", true)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(1), v)
	require.NoError(t, lib.Environment().SetMutableBinding(vm, "a", JSNumber(2), true))
	v, err = main.Environment().GetBindingValue(vm, "alpha", true)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(2), v)

	v, err = main.Environment().GetBindingValue(vm, "ns", true)
	require.NoError(t, err)
	assert.Same(t, ns, v)

	ok, err := ns.Set(vm, NameStr("alpha"), JSNumber(3), ns)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ns.Delete(vm, NameStr("alpha"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ns.Delete(vm, NameStr("nope"))
	require.NoError(t, err)
	assert.True(t, ok)

	proto, err := ns.GetPrototypeOf(vm)
	require.NoError(t, err)
	assert.Nil(t, proto)
}

func TestModuleStarExportAmbiguity(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)

	a := &DeclarativeModule{LocalExportEntries: []ExportEntry{{ExportName: "x", LocalName: "x"}, {ExportName: "onlyA", LocalName: "onlyA"}}}
	b := &DeclarativeModule{LocalExportEntries: []ExportEntry{{ExportName: "x", LocalName: "x"}}}
	modules := map[string]ModuleRecord{"a": a, "b": b}
	star := &DeclarativeModule{
		StarExportEntries: []ExportEntry{
			{ModuleRequest: "a", ImportName: AllButDefaultImportName},
			{ModuleRequest: "b", ImportName: AllButDefaultImportName},
		},
		Resolve: func(specifier string) (ModuleRecord, error) { return modules[specifier], nil },
	}

	resolution, err := star.ResolveExport(vm, "x", &[]ResolveSetEntry{})
	require.NoError(t, err)
	require.NotNil(t, resolution)
	assert.True(t, resolution.Ambiguous())

	resolution, err = star.ResolveExport(vm, "onlyA", &[]ResolveSetEntry{})
	require.NoError(t, err)
	require.NotNil(t, resolution)
	assert.Equal(t, ModuleRecord(a), resolution.Module)

	for _, m := range []*DeclarativeModule{a, b, star} {
		require.NoError(t, m.InitializeEnvironment(vm))
	}
	ns, err := GetModuleNamespace(vm, star)
	require.NoError(t, err)
	has, err := ns.HasProperty(vm, NameStr("x"))
	require.NoError(t, err)
	assert.False(t, has)
	has, err = ns.HasProperty(vm, NameStr("onlyA"))
	require.NoError(t, err)
	assert.True(t, has)
}
