package aotvm

import (
	"log/slog"
)

// AsyncBody is the code an async context runs when it is resumed.
type AsyncBody interface {
	Evaluate(vm *VM) (Completion, error)
}

type AsyncBodyFunc func(vm *VM) (Completion, error)

func (f AsyncBodyFunc) Evaluate(vm *VM) (Completion, error) { return f(vm) }

// AsyncFunctionStart runs body in a copy of the running execution context
// and settles capability with its completion. Only errors that are not
// throw completions reach the caller.
func (vm *VM) AsyncFunctionStart(capability *PromiseCapability, body AsyncBody) error {
	runningContext := vm.RunningContext()
	asyncContext := runningContext.Copy()
	return vm.AsyncBlockStart(capability, body, asyncContext)
}

func (vm *VM) AsyncBlockStart(capability *PromiseCapability, body AsyncBody, asyncContext *ExecutionContext) error {
	runningContext := vm.RunningContext()

	asyncContext.SetResumption(func(vm *VM) error {
		result, err := body.Evaluate(vm)
		// all awaiting is done: the body either threw or returned
		vm.PopContext(asyncContext)

		if err != nil {
			tc, isThrow := AsThrow(err)
			if !isThrow {
				return err
			}
			vm.logger.Debug("async body threw", slog.String("value", vm.describe(tc.Value)))
			_, err = vm.Call(capability.Reject, JSUndefined{}, []JSValue{tc.Value})
			return err
		}

		value := JSValue(JSUndefined{})
		if result.Type == CompletionReturn {
			value = result.Value
		}
		_, err = vm.Call(capability.Resolve, JSUndefined{}, []JSValue{value})
		return err
	})

	vm.PushContext(asyncContext)
	err := asyncContext.Resume(vm)
	if vm.RunningContext() != runningContext {
		panic("bug: async context still on the stack after its body completed")
	}
	return err
}

// evaluateAsyncFunctionBody returns the promise of the call as a return
// completion; failures during argument binding reject that promise.
func (vm *VM) evaluateAsyncFunctionBody(f *JSObject, args []JSValue) (Completion, error) {
	capability := must(vm.NewPromiseCapability(vm.CurrentRealm().Intrinsics.Promise))

	if err := vm.FunctionDeclarationInstantiation(f, args); err != nil {
		tc, isThrow := AsThrow(err)
		if !isThrow {
			return Completion{}, err
		}
		if _, err := vm.Call(capability.Reject, JSUndefined{}, []JSValue{tc.Value}); err != nil {
			return Completion{}, err
		}
		return Completion{Type: CompletionReturn, Value: capability.Promise}, nil
	}

	code := f.funcPart.code
	err := vm.AsyncFunctionStart(capability, AsyncBodyFunc(func(vm *VM) (Completion, error) {
		return vm.evaluateFunctionStatements(code)
	}))
	if err != nil {
		return Completion{}, err
	}
	return Completion{Type: CompletionReturn, Value: capability.Promise}, nil
}
