package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectStatics(t *testing.T) {
	cases := []struct {
		src  string
		want JSValue
	}{
		{`Object.keys({a: 1, b: 2}).join(",")`, JSString("a,b")},
		{`Object.getPrototypeOf(Object.create(null)) === null`, JSBoolean(true)},
		{`var p = {}; Object.getPrototypeOf(Object.create(p)) === p`, JSBoolean(true)},
		{`Object.is(NaN, NaN) && !Object.is(0, -0)`, JSBoolean(true)},
		{`Object.isSealed(Object.seal({a: 1}))`, JSBoolean(true)},
		{`Object.isExtensible(Object.preventExtensions({}))`, JSBoolean(false)},
		{`var o = Object.defineProperties({}, {a: {value: 1, enumerable: true}, b: {value: 2}}); Object.keys(o).join(",")`, JSString("a")},
		{`Object.getOwnPropertySymbols({}).length`, JSNumber(0)},
		{`typeof Object("s")`, JSString("object")},
		{`({a: 1}).hasOwnProperty("a") && !({}).hasOwnProperty("a")`, JSBoolean(true)},
		{`Object.prototype.isPrototypeOf([])`, JSBoolean(true)},
		{`({}).propertyIsEnumerable("toString")`, JSBoolean(false)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, runScript(t, tc.src), tc.src)
	}
}

func TestObjectPrototypeToString(t *testing.T) {
	cases := []struct{ src, want string }{
		{`Object.prototype.toString.call([])`, "[object Array]"},
		{`Object.prototype.toString.call(function () {})`, "[object Function]"},
		{`Object.prototype.toString.call(null)`, "[object Null]"},
		{`Object.prototype.toString.call(undefined)`, "[object Undefined]"},
		{`Object.prototype.toString.call(new Error("x"))`, "[object Error]"},
		{`Object.prototype.toString.call(true)`, "[object Boolean]"},
		{`Object.prototype.toString.call(1)`, "[object Number]"},
		{`Object.prototype.toString.call("")`, "[object String]"},
		{`(function () { return Object.prototype.toString.call(arguments); })()`, "[object Arguments]"},
		{`Object.prototype.toString.call(Reflect)`, "[object Reflect]"},
		{`Object.prototype.toString.call(Symbol())`, "[object Symbol]"},
	}
	for _, tc := range cases {
		assert.Equal(t, JSString(tc.want), runScript(t, tc.src), tc.src)
	}

	v := runScript(t, `
		var o = {};
		Object.defineProperty(o, Symbol.toStringTag, {value: "Custom"});
		String(o)`)
	assert.Equal(t, JSString("[object Custom]"), v)
}

func TestFunctionPrototypeBind(t *testing.T) {
	v := runScript(t, `
		function add(a, b, c) { return this.base + a + b + c; }
		var bound = add.bind({base: 100}, 1);
		[bound(2, 3), bound.length, bound.name].join(",")`)
	assert.Equal(t, JSString("106,2,bound add"), v)

	v = runScript(t, `
		function P(x) { this.x = x; }
		var BP = P.bind(null, 7);
		var p = new BP();
		p.x + (p instanceof P ? 1 : 0)`)
	assert.Equal(t, JSNumber(8), v)
}

func TestFunctionCallApply(t *testing.T) {
	v := runScript(t, `
		function f(a, b) { return this.k + a + b; }
		f.call({k: 1}, 2, 3) + f.apply({k: 10}, [20, 30])`)
	assert.Equal(t, JSNumber(66), v)

	v = runScript(t, `(function () {}).toString === Function.prototype.toString`)
	assert.Equal(t, JSBoolean(true), v)

	v = runScript(t, `Object.prototype.hasOwnProperty.toString()`)
	assert.Equal(t, JSString("function hasOwnProperty() { [native code] }"), v)
}

func TestStrictFunctionPoisonPills(t *testing.T) {
	tc := runThrowing(t, `
		function f() { "use strict"; }
		f.caller;`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestReflect(t *testing.T) {
	cases := []struct {
		src  string
		want JSValue
	}{
		{`Reflect.ownKeys({b: 1, a: 2}).join(",")`, JSString("b,a")},
		{`Reflect.has({x: 1}, "x")`, JSBoolean(true)},
		{`Reflect.get({x: 5}, "x")`, JSNumber(5)},
		{`var o = {}; Reflect.set(o, "y", 3) && o.y === 3`, JSBoolean(true)},
		{`Reflect.defineProperty(Object.freeze({}), "z", {value: 1})`, JSBoolean(false)},
		{`Reflect.deleteProperty(Object.freeze({q: 1}), "q")`, JSBoolean(false)},
		{`Reflect.apply(function (a, b) { return a > b ? a : b; }, null, [3, 9])`, JSNumber(9)},
		{`function C(v) { this.v = v; } Reflect.construct(C, [4]).v`, JSNumber(4)},
		{`Reflect.getPrototypeOf([]) === Array.prototype`, JSBoolean(true)},
		{`var o = {}; Reflect.setPrototypeOf(o, null) && Object.getPrototypeOf(o) === null`, JSBoolean(true)},
		{`var o = {}; Reflect.preventExtensions(o) && !Reflect.isExtensible(o)`, JSBoolean(true)},
		{`Reflect.getOwnPropertyDescriptor({k: 1}, "k").writable`, JSBoolean(true)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, runScript(t, tc.src), tc.src)
	}

	tc := runThrowing(t, `Reflect.get(1, "x")`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestSymbolRegistry(t *testing.T) {
	v := runScript(t, `
		var a = Symbol.for("app");
		[a === Symbol.for("app"), Symbol.keyFor(a), Symbol.keyFor(Symbol("app")) === undefined].join(",")`)
	assert.Equal(t, JSString("true,app,true"), v)

	v = runScript(t, `Symbol("desc").toString() + "|" + Symbol("d2").description`)
	assert.Equal(t, JSString("Symbol(desc)|d2"), v)

	tc := runThrowing(t, `new Symbol()`)
	assert.Equal(t, "TypeError", tc.ErrorName())
}

func TestPrimitiveWrappers(t *testing.T) {
	cases := []struct {
		src  string
		want JSValue
	}{
		{`(255).toString(16)`, JSString("ff")},
		{`(0.5).toString(2)`, JSString("0.1")},
		{`Number("  12  ")`, JSNumber(12)},
		{`Number.isInteger(5) && !Number.isInteger(5.5)`, JSBoolean(true)},
		{`Number.isSafeInteger(Number.MAX_SAFE_INTEGER + 2)`, JSBoolean(false)},
		{`new Boolean(false).valueOf()`, JSBoolean(false)},
		{`typeof new Boolean(false)`, JSString("object")},
		{`String.fromCharCode(104, 105)`, JSString("hi")},
		{`"hello".charAt(1) + "hello".charCodeAt(0)`, JSString("e104")},
		{`"hello".indexOf("l")`, JSNumber(2)},
		{`"hello".slice(1, -1)`, JSString("ell")},
		{`String(Symbol("s"))`, JSString("Symbol(s)")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, runScript(t, tc.src), tc.src)
	}
}

func TestArrayBuiltins(t *testing.T) {
	cases := []struct {
		src  string
		want JSValue
	}{
		{`Array.isArray([]) && !Array.isArray({})`, JSBoolean(true)},
		{`Array.isArray(new Proxy([], {}))`, JSBoolean(true)},
		{`Array(3).length`, JSNumber(3)},
		{`Array(1, 2).join("-")`, JSString("1-2")},
		{`Array.of(7).length`, JSNumber(1)},
		{`var a = [1]; a.push(2, 3); a.pop() + a.length`, JSNumber(5)},
		{`String([1, [2, 3]])`, JSString("1,2,3")},
		{`[null, undefined, 1].join()`, JSString(",,1")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, runScript(t, tc.src), tc.src)
	}

	tc := runThrowing(t, `new Array(1.5)`)
	assert.Equal(t, "RangeError", tc.ErrorName())
}

func TestErrorConstructors(t *testing.T) {
	v := runScript(t, `
		var e = new TypeError("bad");
		[e.name, e.message, e instanceof Error, String(e)].join("|")`)
	assert.Equal(t, JSString("TypeError|bad|true|TypeError: bad"), v)

	v = runScript(t, `RangeError("r") instanceof RangeError`)
	assert.Equal(t, JSBoolean(true), v)
}
