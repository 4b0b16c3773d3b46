package aotvm

import (
	"log/slog"
)

// ScriptOrModule is implemented by *ScriptRecord and module records.
type ScriptOrModule interface {
	scriptOrModule()
}

type ExecutionContext struct {
	Realm          *Realm
	ScriptOrModule ScriptOrModule
	// nil for script and module contexts
	Function            *JSObject
	LexicalEnvironment  Environment
	VariableEnvironment Environment

	resume    func(vm *VM) error
	suspended bool
}

// Copy duplicates the context's state. The continuation is not copied.
func (ctx *ExecutionContext) Copy() *ExecutionContext {
	return &ExecutionContext{
		Realm:               ctx.Realm,
		ScriptOrModule:      ctx.ScriptOrModule,
		Function:            ctx.Function,
		LexicalEnvironment:  ctx.LexicalEnvironment,
		VariableEnvironment: ctx.VariableEnvironment,
	}
}

// SetResumption installs the continuation run by the next Resume.
func (ctx *ExecutionContext) SetResumption(fn func(vm *VM) error) {
	ctx.resume = fn
}

// Resume runs the installed continuation once; a second Resume without a new
// SetResumption is a bug.
func (ctx *ExecutionContext) Resume(vm *VM) error {
	fn := ctx.resume
	if fn == nil {
		panic("bug: execution context resumed without a continuation")
	}
	ctx.resume = nil
	ctx.suspended = false
	vm.logger.Debug("resume execution context", slog.Int("depth", len(vm.contextStack)))
	return fn(vm)
}

func (ctx *ExecutionContext) Suspend(vm *VM) {
	ctx.suspended = true
	vm.logger.Debug("suspend execution context", slog.Int("depth", len(vm.contextStack)))
}

func (ctx *ExecutionContext) Suspended() bool { return ctx.suspended }

func (vm *VM) PushContext(ctx *ExecutionContext) {
	vm.contextStack = append(vm.contextStack, ctx)
	vm.logger.Debug("push execution context",
		slog.Int("depth", len(vm.contextStack)),
		slog.Bool("function", ctx.Function != nil),
	)
}

// PopContext removes the running execution context, which must be check.
func (vm *VM) PopContext(check *ExecutionContext) {
	sl := len(vm.contextStack)
	if sl == 0 {
		panic("bug: PopContext on an empty execution context stack")
	}
	if vm.contextStack[sl-1] != check {
		panic("bug: execution context stack was not managed purely with PushContext/PopContext")
	}
	vm.contextStack[sl-1] = nil
	vm.contextStack = vm.contextStack[:sl-1]
	vm.logger.Debug("pop execution context", slog.Int("depth", sl-1))
}

func (vm *VM) RunningContext() *ExecutionContext {
	if len(vm.contextStack) == 0 {
		return nil
	}
	return vm.contextStack[len(vm.contextStack)-1]
}

func (vm *VM) ContextDepth() int { return len(vm.contextStack) }

func (vm *VM) CurrentRealm() *Realm {
	ctx := vm.RunningContext()
	if ctx == nil {
		panic("bug: no running execution context")
	}
	return ctx.Realm
}

func (vm *VM) GetActiveScriptOrModule() ScriptOrModule {
	for i := len(vm.contextStack) - 1; i >= 0; i-- {
		if som := vm.contextStack[i].ScriptOrModule; som != nil {
			return som
		}
	}
	return nil
}

func (vm *VM) GetThisEnvironment() thisEnvironment {
	for env := vm.RunningContext().LexicalEnvironment; env != nil; env = env.Outer() {
		if env.HasThisBinding() {
			return env.(thisEnvironment)
		}
	}
	panic("bug: no environment with a this binding")
}

func (vm *VM) ResolveThisBinding() (JSValue, error) {
	return vm.GetThisEnvironment().GetThisBinding(vm)
}

func (vm *VM) GetNewTarget() JSValue {
	if fenv, isFunc := vm.GetThisEnvironment().(*FunctionEnv); isFunc && fenv.NewTarget != nil {
		return fenv.NewTarget
	}
	return JSUndefined{}
}

// ScriptRecord is the Script Record of one parsed script.
type ScriptRecord struct {
	Realm       *Realm
	Code        *Program
	HostDefined any
}

func (*ScriptRecord) scriptOrModule() {}
