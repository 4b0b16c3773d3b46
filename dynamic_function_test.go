package aotvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionConstructorSourceText(t *testing.T) {
	v := runScript(t, `
		var add = new Function("a", "b", "return a+b");
		add.toString()`)
	assert.Equal(t, JSString("function anonymous(a,b\n) {\nreturn a+b\n}"), v)

	v = runScript(t, `Function("a", "b", "return a+b")(3, 4)`)
	assert.Equal(t, JSNumber(7), v)

	v = runScript(t, `
		var f = new Function();
		f.name + ":" + f.length + ":" + typeof f.prototype`)
	assert.Equal(t, JSString("anonymous:0:object"), v)
}

func TestFunctionConstructorRunsInGlobalScope(t *testing.T) {
	v := runScript(t, `
		var x = "global";
		function outer() {
			var x = "local";
			return new Function("return x")();
		}
		outer()`)
	assert.Equal(t, JSString("global"), v)
}

func TestFunctionConstructorSyntaxError(t *testing.T) {
	tc := runThrowing(t, `new Function("a", "return a +")`)
	assert.Equal(t, "SyntaxError", tc.ErrorName())

	// the parameter list cannot close the function early
	tc = runThrowing(t, `new Function("a) { return 1; } (function (", "")`)
	assert.Equal(t, "SyntaxError", tc.ErrorName())

	tc = runThrowing(t, `new Function("a", "a", "'use strict';")`)
	assert.Equal(t, "SyntaxError", tc.ErrorName())
}

func TestCompileStringsDisallowed(t *testing.T) {
	vm := NewVM(WithCanCompileStrings(false))
	_, err := vm.RunScriptString("test.js", `new Function("return 1")`)
	tc, isThrow := AsThrow(err)
	require.True(t, isThrow)
	assert.Equal(t, "EvalError", tc.ErrorName())
}

func TestAsyncFunctionSettlement(t *testing.T) {
	vm := NewVM()
	asyncFunction := vm.Realm().Intrinsic("%AsyncFunction%")
	require.NoError(t, vm.DefinePropertyOrThrow(vm.GlobalObject(), NameStr("AsyncFunction"),
		DataProperty(asyncFunction, true, false, true)))

	fulfilled, err := vm.RunScriptString("ok.js", `new AsyncFunction("x", "return x * 2")(21)`)
	require.NoError(t, err)
	require.NoError(t, vm.RunJobs())

	state, result, ok := PromiseStateOf(fulfilled)
	require.True(t, ok)
	assert.Equal(t, PromiseFulfilled, state)
	assert.Equal(t, JSNumber(42), result)

	rejected, err := vm.RunScriptString("fail.js", `AsyncFunction("throw new TypeError('nope')")()`)
	require.NoError(t, err)
	require.NoError(t, vm.RunJobs())

	state, result, ok = PromiseStateOf(rejected)
	require.True(t, ok)
	assert.Equal(t, PromiseRejected, state)
	assert.Equal(t, "TypeError", (&ThrowCompletion{Value: result}).ErrorName())

	v, err := vm.RunScriptString("proto.js", `
		Object.getPrototypeOf(new AsyncFunction("")) === AsyncFunction.prototype`)
	require.NoError(t, err)
	assert.Equal(t, JSBoolean(true), v)
}

func TestAsyncFunctionStartDirect(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)

	capability, err := vm.NewPromiseCapability(vm.Realm().Intrinsics.Promise)
	require.NoError(t, err)
	depth := vm.ContextDepth()
	err = vm.AsyncFunctionStart(capability, AsyncBodyFunc(func(vm *VM) (Completion, error) {
		return Completion{Type: CompletionReturn, Value: JSString("done")}, nil
	}))
	require.NoError(t, err)

	state, result, ok := PromiseStateOf(capability.Promise)
	require.True(t, ok)
	assert.Equal(t, PromiseFulfilled, state)
	assert.Equal(t, JSString("done"), result)
	assert.Equal(t, depth, vm.ContextDepth())
}

func TestPromiseResolvedWithThenable(t *testing.T) {
	vm := NewVM()
	withContext(t, vm)

	capability, err := vm.NewPromiseCapability(vm.Realm().Intrinsics.Promise)
	require.NoError(t, err)

	thenable, err := vm.RunScriptString("thenable.js", `
		({then: function (resolve, reject) { resolve("later"); }})`)
	require.NoError(t, err)

	_, err = vm.Call(capability.Resolve, JSUndefined{}, []JSValue{thenable})
	require.NoError(t, err)

	state, _, _ := PromiseStateOf(capability.Promise)
	assert.Equal(t, PromisePending, state)
	assert.Equal(t, 1, vm.PendingJobs())

	require.NoError(t, vm.RunJobs())
	state, result, _ := PromiseStateOf(capability.Promise)
	assert.Equal(t, PromiseFulfilled, state)
	assert.Equal(t, JSString("later"), result)
}
