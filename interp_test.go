package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, src string) JSValue {
	t.Helper()
	vm := NewVM()
	v, err := vm.RunScriptString("test.js", src)
	require.NoError(t, err)
	return v
}

func runThrowing(t *testing.T, src string) *ThrowCompletion {
	t.Helper()
	vm := NewVM()
	_, err := vm.RunScriptString("test.js", src)
	require.Error(t, err)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow, "expected a throw completion, got %v", err)
	return tc
}

func TestScriptCompletionValue(t *testing.T) {
	assert.Equal(t, JSNumber(2), runScript(t, "2; var x = 5;"))
	assert.Equal(t, JSUndefined{}, runScript(t, "var y = 1;"))
	assert.Equal(t, JSString("ab"), runScript(t, `"a" + "b"`))
}

func TestLabelledLoops(t *testing.T) {
	v := runScript(t, `
		var n = 0;
		outer: for (var i = 0; i < 3; i++) {
			for (var j = 0; j < 3; j++) {
				if (j == 1) continue outer;
				if (i == 2) break outer;
				n++;
			}
		}
		n`)
	assert.Equal(t, JSNumber(2), v)

	v = runScript(t, `
		var k = 0;
		block: {
			k = 1;
			break block;
			k = 2;
		}
		k`)
	assert.Equal(t, JSNumber(1), v)
}

func TestSwitchFallthrough(t *testing.T) {
	v := runScript(t, `
		function sw(x) {
			var r = "";
			switch (x) {
			case 1: r += "a";
			case 2: r += "b"; break;
			default: r += "d";
			case 3: r += "c";
			}
			return r;
		}
		sw(1) + sw(2) + sw(3) + sw(9)`)
	assert.Equal(t, JSString("abbcdc"), v)
}

func TestTryFinally(t *testing.T) {
	v := runScript(t, `
		var log = "";
		function f() {
			try { return "t"; } finally { log += "f"; }
		}
		f() + log`)
	assert.Equal(t, JSString("tf"), v)

	v = runScript(t, `
		function g() {
			try { return 1; } finally { return 2; }
		}
		g()`)
	assert.Equal(t, JSNumber(2), v)

	v = runScript(t, `
		var caught;
		try { throw new RangeError("boom"); } catch (e) { caught = e.message; }
		caught`)
	assert.Equal(t, JSString("boom"), v)
}

func TestForIn(t *testing.T) {
	v := runScript(t, `
		var o = {a: 1, b: 2};
		Object.defineProperty(o, "hidden", {value: 3, enumerable: false});
		var s = "";
		for (var k in o) s += k;
		s`)
	assert.Equal(t, JSString("ab"), v)

	v = runScript(t, `
		var n = 0;
		for (var k in null) n++;
		for (var k in undefined) n++;
		n`)
	assert.Equal(t, JSNumber(0), v)
}

func TestUncaughtThrow(t *testing.T) {
	tc := runThrowing(t, `null.x`)
	assert.Equal(t, "TypeError", tc.ErrorName())

	tc = runThrowing(t, `"use strict"; undeclared = 1;`)
	assert.Equal(t, "ReferenceError", tc.ErrorName())

	tc = runThrowing(t, `throw 42`)
	assert.Equal(t, JSNumber(42), tc.Value)
	assert.Equal(t, "", tc.ErrorName())
}

func TestSloppyAssignmentCreatesGlobal(t *testing.T) {
	vm := NewVM()
	_, err := vm.RunScriptString("a.js", `implicitGlobal = 7;`)
	require.NoError(t, err)

	v, err := vm.RunScriptString("b.js", `implicitGlobal`)
	require.NoError(t, err)
	assert.Equal(t, JSNumber(7), v)
}

func TestClosures(t *testing.T) {
	v := runScript(t, `
		function counter() {
			var c = 0;
			return function () { return ++c; };
		}
		var next = counter();
		next(); next();
		next()`)
	assert.Equal(t, JSNumber(3), v)
}

func TestThisBinding(t *testing.T) {
	v := runScript(t, `
		function sloppy() { return this; }
		sloppy() === this`)
	assert.Equal(t, JSBoolean(true), v)

	v = runScript(t, `
		function strict() { "use strict"; return this; }
		strict() === undefined`)
	assert.Equal(t, JSBoolean(true), v)

	v = runScript(t, `
		var o = {v: 5, get: function () { return this.v; }};
		o.get()`)
	assert.Equal(t, JSNumber(5), v)
}

func TestConstructorCall(t *testing.T) {
	v := runScript(t, `
		function Point(x, y) { this.x = x; this.y = y; }
		Point.prototype.sum = function () { return this.x + this.y; };
		var p = new Point(3, 4);
		p.sum() + (p instanceof Point ? 100 : 0)`)
	assert.Equal(t, JSNumber(107), v)
}

func TestObjectLiteral(t *testing.T) {
	v := runScript(t, `
		var o = {a: 1, "b": 2, 3: "c", get d() { return this.a + this.b; }};
		[o.a, o.b, o[3], o.d].join(",")`)
	assert.Equal(t, JSString("1,2,c,3"), v)

	v = runScript(t, `
		var p = {inherited: true};
		var o = {__proto__: p, own: 1};
		o.inherited && Object.keys(o).join(",") === "own"`)
	assert.Equal(t, JSBoolean(true), v)

	v = runScript(t, `var f = {named: function () {}}.named; f.name`)
	assert.Equal(t, JSString("named"), v)
}
