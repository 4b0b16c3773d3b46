package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappedArgumentsAlias(t *testing.T) {
	v := runScript(t, `
		function f(a) { arguments[0] = 2; return a; }
		f(1)`)
	assert.Equal(t, JSNumber(2), v)

	v = runScript(t, `
		function f(a) { a = 3; return arguments[0]; }
		f(1)`)
	assert.Equal(t, JSNumber(3), v)

	v = runScript(t, `
		function g(a) { "use strict"; arguments[0] = 2; return a; }
		g(1)`)
	assert.Equal(t, JSNumber(1), v)
}

func TestArgumentsAliasSevered(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want JSString
	}{
		{"non-writable", `
			function f(a) {
				Object.defineProperty(arguments, "0", {writable: false});
				a = 5;
				return arguments[0] + ":" + a;
			}
			f(1)`, "1:5"},
		{"value then non-writable", `
			function f(a) {
				Object.defineProperty(arguments, "0", {value: 3, writable: false});
				var before = a;
				a = 7;
				return arguments[0] + ":" + before;
			}
			f(1)`, "3:3"},
		{"accessor", `
			function f(a) {
				Object.defineProperty(arguments, "0", {get: function () { return 4; }});
				a = 8;
				return arguments[0] + ":" + a;
			}
			f(1)`, "4:8"},
		{"duplicate formals", `
			function f(a, a) {
				arguments[1] = 9;
				return a + ":" + arguments[0];
			}
			f(1, 2)`, "9:1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, runScript(t, tc.src))
		})
	}
}

func TestArgumentsUnmappedAfterDelete(t *testing.T) {
	v := runScript(t, `
		function f(a) {
			delete arguments[0];
			arguments[0] = 9;
			return a;
		}
		f(1)`)
	assert.Equal(t, JSNumber(1), v)
}

func TestStringExotic(t *testing.T) {
	v := runScript(t, `
		var s = new String("abc");
		s[1] + s.length`)
	assert.Equal(t, JSString("b3"), v)

	v = runScript(t, `Object.getOwnPropertyNames(new String("ab")).join(",")`)
	assert.Equal(t, JSString("0,1,length"), v)

	v = runScript(t, `
		var s = new String("ab");
		s[0] = "z";
		s.extra = 1;
		s[0] + s.extra + (delete s[0])`)
	assert.Equal(t, JSString("a1false"), v)
}

func TestArrayLength(t *testing.T) {
	v := runScript(t, `
		var a = [1, 2, 3, 4];
		a.length = 2;
		a.join(",") + "|" + a.length`)
	assert.Equal(t, JSString("1,2|2"), v)

	v = runScript(t, `
		var a = [];
		a[5] = 1;
		a.length`)
	assert.Equal(t, JSNumber(6), v)

	tc := runThrowing(t, `var a = []; a.length = -1;`)
	assert.Equal(t, "RangeError", tc.ErrorName())
}

func TestDefinePropertyIdempotent(t *testing.T) {
	v := runScript(t, `
		var o = {};
		Object.defineProperty(o, "x", {value: 1});
		Object.defineProperty(o, "x", {value: 1});
		var d = Object.getOwnPropertyDescriptor(o, "x");
		[d.value, d.writable, d.enumerable, d.configurable].join(",")`)
	assert.Equal(t, JSString("1,false,false,false"), v)

	tc := runThrowing(t, `
		var o = {};
		Object.defineProperty(o, "x", {value: 1});
		Object.defineProperty(o, "x", {value: 2});`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestAccessorProperty(t *testing.T) {
	v := runScript(t, `
		var store = 0;
		var o = {};
		Object.defineProperty(o, "x", {
			get: function () { return store * 2; },
			set: function (v) { store = v; },
			configurable: true
		});
		o.x = 5;
		o.x`)
	assert.Equal(t, JSNumber(10), v)
}

func TestFrozenObject(t *testing.T) {
	v := runScript(t, `
		var o = Object.freeze({a: 1});
		o.a = 2;
		o.b = 3;
		[o.a, o.b, Object.isFrozen(o), Object.isExtensible(o)].join(",")`)
	assert.Equal(t, JSString("1,,true,false"), v)

	tc := runThrowing(t, `"use strict"; var o = Object.freeze({a: 1}); o.a = 2;`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestPropertyKeyOrder(t *testing.T) {
	v := runScript(t, `
		var o = {b: 1, 2: 1, a: 1, 1: 1};
		Object.keys(o).join(",")`)
	assert.Equal(t, JSString("1,2,b,a"), v)
}

func TestProxyOwnKeysInvariant(t *testing.T) {
	tc := runThrowing(t, `
		var target = {};
		Object.defineProperty(target, "x", {value: 1});
		var p = new Proxy(target, {ownKeys: function () { return []; }});
		Object.getOwnPropertyNames(p);`)
	assert.Equal(t, "TypeError", tc.ErrorName())

	v := runScript(t, `
		var p = new Proxy({a: 1, b: 2}, {ownKeys: function (t) { return ["b", "a"]; }});
		Object.getOwnPropertyNames(p).join(",")`)
	assert.Equal(t, JSString("b,a"), v)
}

func TestProxyTraps(t *testing.T) {
	v := runScript(t, `
		var log = [];
		var p = new Proxy({}, {
			get: function (t, k, r) { log.push("get " + k); return 42; },
			has: function (t, k) { log.push("has " + k); return true; }
		});
		var got = p.answer;
		var has = "q" in p;
		log.join(";") + "|" + got + "|" + has`)
	assert.Equal(t, JSString("get answer;has q|42|true"), v)
}

func TestProxyRevoked(t *testing.T) {
	tc := runThrowing(t, `
		var r = Proxy.revocable({}, {});
		r.revoke();
		r.proxy.x;`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestOrdinaryObjectDirect(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)
	o := OrdinaryObjectCreate(vm.Realm().Intrinsics.ObjectPrototype)

	ok, err := o.DefineOwnProperty(vm, NameStr("k"), DataProperty(JSNumber(1), true, true, true))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.PreventExtensions(vm)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.DefineOwnProperty(vm, NameStr("other"), DataProperty(JSNumber(1), true, true, true))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = o.SetPrototypeOf(vm, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := o.OwnPropertyKeys(vm)
	require.NoError(t, err)
	assert.Equal(t, []Name{NameStr("k")}, keys)
}

// withContext pushes a bare execution context of the VM's realm for the
// rest of the test.
func withContext(t *testing.T, vm *VM) *ExecutionContext {
	t.Helper()
	ctx := &ExecutionContext{Realm: vm.Realm()}
	vm.PushContext(ctx)
	t.Cleanup(func() { vm.PopContext(ctx) })
	return ctx
}
