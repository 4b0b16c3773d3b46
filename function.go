package aotvm

import (
	"log/slog"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
)

type FunctionKind uint8

const (
	KindNormal FunctionKind = iota
	KindGenerator
	KindAsync
	KindAsyncGenerator
)

func (k FunctionKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindGenerator:
		return "generator"
	case KindAsync:
		return "async"
	case KindAsyncGenerator:
		return "asyncGenerator"
	default:
		return "FunctionKind(?)"
	}
}

type thisMode uint8

const (
	thisModeGlobal thisMode = iota
	thisModeStrict
	thisModeLexical
)

type NativeCallback func(vm *VM, subject JSValue, args []JSValue, flags CallFlags) (JSValue, error)

// CallFlags tells a native callback whether it runs as [[Construct]].
type CallFlags struct {
	isNew     bool
	newTarget *JSObject
}

func (f CallFlags) IsNew() bool { return f.isNew }

// NewTarget is nil for a plain call.
func (f CallFlags) NewTarget() *JSObject { return f.newTarget }

// FunctionPart carries the internal slots of function objects: builtin
// behavior, ECMAScript code, or a bound target.
type FunctionPart struct {
	realm *Realm
	name  string

	native NativeCallback

	kind           FunctionKind
	strict         bool
	thisMode       thisMode
	environment    Environment
	scriptOrModule ScriptOrModule
	code           *ast.FunctionLiteral
	file           *parserFile.File
	sourceText     string

	boundTarget *JSObject
	boundThis   JSValue
	boundArgs   []JSValue
}

// SourceText is the [[SourceText]] slot; empty for builtin and bound
// functions.
func (fp *FunctionPart) SourceText() string { return fp.sourceText }

func (fp *FunctionPart) Kind() FunctionKind { return fp.kind }

func (fp *FunctionPart) Strict() bool { return fp.strict }

// CreateBuiltinFunction creates a builtin function object that is callable
// but not a constructor. A nil proto selects the realm's Function.prototype.
func CreateBuiltinFunction(realm *Realm, behavior NativeCallback, length int, name Name, proto *JSObject, prefix ...string) *JSObject {
	if proto == nil {
		proto = realm.Intrinsics.FunctionPrototype
	}
	fn := OrdinaryObjectCreate(proto)
	fn.callable = true
	fn.funcPart = &FunctionPart{
		realm:    realm,
		native:   behavior,
		strict:   true,
		thisMode: thisModeStrict,
	}
	defineBuiltinProperty(fn, NameStr("length"), DataProperty(JSNumber(length), false, false, true))
	defineBuiltinProperty(fn, NameStr("name"), DataProperty(functionNameValue(name, strings.Join(prefix, " ")), false, false, true))
	fn.funcPart.name = string(functionNameValue(name, ""))
	return fn
}

func functionNameValue(name Name, prefix string) JSString {
	var s string
	if sym := name.Symbol(); sym != nil {
		if d, ok := sym.Description.(JSString); ok {
			s = "[" + string(d) + "]"
		}
	} else {
		s = name.Str()
	}
	if prefix != "" {
		s = prefix + " " + s
	}
	return JSString(s)
}

func SetFunctionName(vm *VM, f *JSObject, name Name, prefix string) {
	value := functionNameValue(name, prefix)
	if f.funcPart != nil {
		f.funcPart.name = string(value)
	}
	mustOK(vm.DefinePropertyOrThrow(f, NameStr("name"), DataProperty(value, false, false, true)))
}

func SetFunctionLength(vm *VM, f *JSObject, length int) {
	mustOK(vm.DefinePropertyOrThrow(f, NameStr("length"), DataProperty(JSNumber(length), false, false, true)))
}

// MakeConstructor turns f into a constructor. A nil prototype allocates a
// fresh object whose `constructor` points back at f.
func MakeConstructor(vm *VM, f *JSObject, writablePrototype bool, prototype *JSObject) {
	f.constructor = true
	if prototype == nil {
		prototype = OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype)
		mustOK(vm.DefinePropertyOrThrow(prototype, NameStr("constructor"), DataProperty(f, writablePrototype, false, true)))
	}
	mustOK(vm.DefinePropertyOrThrow(f, NameStr("prototype"), DataProperty(prototype, writablePrototype, false, false)))
}

// OrdinaryFunctionCreate allocates an ECMAScript function object for the
// given function literal, closing over env.
func OrdinaryFunctionCreate(vm *VM, functionPrototype *JSObject, sourceText string, code *ast.FunctionLiteral, file *parserFile.File, kind FunctionKind, strict bool, env Environment) *JSObject {
	f := OrdinaryObjectCreate(functionPrototype)
	f.callable = true
	fp := &FunctionPart{
		realm:          vm.CurrentRealm(),
		kind:           kind,
		strict:         strict,
		environment:    env,
		scriptOrModule: vm.GetActiveScriptOrModule(),
		code:           code,
		file:           file,
		sourceText:     sourceText,
	}
	if strict {
		fp.thisMode = thisModeStrict
	} else {
		fp.thisMode = thisModeGlobal
	}
	f.funcPart = fp
	SetFunctionLength(vm, f, len(code.ParameterList.List))
	return f
}

func callFunction(vm *VM, f *JSObject, this JSValue, args []JSValue) (JSValue, error) {
	fp := f.funcPart
	switch {
	case fp == nil:
		panic("bug: [[Call]] on an object without function slots")
	case fp.native != nil:
		return callBuiltin(vm, f, this, args, CallFlags{})
	case fp.boundTarget != nil:
		return vm.Call(fp.boundTarget, fp.boundThis, concatArgs(fp.boundArgs, args))
	}

	calleeContext := prepareForOrdinaryCall(vm, f, JSUndefined{})
	ordinaryCallBindThis(vm, f, calleeContext, this)
	result, err := ordinaryCallEvaluateBody(vm, f, args)
	vm.PopContext(calleeContext)
	if err != nil {
		return nil, err
	}
	if result.Type == CompletionReturn {
		return result.Value, nil
	}
	return JSUndefined{}, nil
}

func constructFunction(vm *VM, f *JSObject, args []JSValue, newTarget *JSObject) (*JSObject, error) {
	fp := f.funcPart
	switch {
	case fp == nil:
		panic("bug: [[Construct]] on an object without function slots")
	case fp.native != nil:
		result, err := callBuiltin(vm, f, nil, args, CallFlags{isNew: true, newTarget: newTarget})
		if err != nil {
			return nil, err
		}
		obj, isObj := result.(*JSObject)
		if !isObj {
			panic("bug: builtin constructor returned a non-object")
		}
		return obj, nil
	case fp.boundTarget != nil:
		if newTarget == f {
			newTarget = fp.boundTarget
		}
		return vm.Construct(fp.boundTarget, concatArgs(fp.boundArgs, args), newTarget)
	}

	thisArgument, err := OrdinaryCreateFromConstructor(vm, newTarget, "%Object.prototype%")
	if err != nil {
		return nil, err
	}
	calleeContext := prepareForOrdinaryCall(vm, f, newTarget)
	ordinaryCallBindThis(vm, f, calleeContext, thisArgument)
	result, err := ordinaryCallEvaluateBody(vm, f, args)
	vm.PopContext(calleeContext)
	if err != nil {
		return nil, err
	}
	if result.Type == CompletionReturn {
		if obj, isObj := result.Value.(*JSObject); isObj {
			return obj, nil
		}
	}
	return thisArgument, nil
}

func callBuiltin(vm *VM, f *JSObject, this JSValue, args []JSValue, flags CallFlags) (JSValue, error) {
	calleeContext := &ExecutionContext{
		Function: f,
		Realm:    f.funcPart.realm,
	}
	vm.PushContext(calleeContext)
	result, err := f.funcPart.native(vm, this, args, flags)
	vm.PopContext(calleeContext)
	return result, err
}

func prepareForOrdinaryCall(vm *VM, f *JSObject, newTarget JSValue) *ExecutionContext {
	localEnv := NewFunctionEnvironment(f, newTarget)
	calleeContext := &ExecutionContext{
		Function:            f,
		Realm:               f.funcPart.realm,
		ScriptOrModule:      f.funcPart.scriptOrModule,
		LexicalEnvironment:  localEnv,
		VariableEnvironment: localEnv,
	}
	vm.PushContext(calleeContext)
	return calleeContext
}

func ordinaryCallBindThis(vm *VM, f *JSObject, calleeContext *ExecutionContext, thisArgument JSValue) {
	fp := f.funcPart
	if fp.thisMode == thisModeLexical {
		return
	}
	var thisValue JSValue
	if fp.thisMode == thisModeStrict {
		thisValue = thisArgument
	} else if IsNullish(thisArgument) {
		thisValue = fp.realm.GlobalEnv.GlobalThisValue
	} else {
		thisValue = must(vm.ToObject(thisArgument))
	}
	localEnv := calleeContext.LexicalEnvironment.(*FunctionEnv)
	must(localEnv.BindThisValue(vm, thisValue))
}

func ordinaryCallEvaluateBody(vm *VM, f *JSObject, args []JSValue) (Completion, error) {
	fp := f.funcPart
	if fp.file != nil {
		vm.synCtx.PushFile(fp.file)
		defer vm.synCtx.PopFile(fp.file)
	}

	switch fp.kind {
	case KindNormal:
		if err := vm.FunctionDeclarationInstantiation(f, args); err != nil {
			return Completion{}, err
		}
		return vm.evaluateFunctionStatements(fp.code)

	case KindAsync:
		return vm.evaluateAsyncFunctionBody(f, args)

	default:
		if err := vm.FunctionDeclarationInstantiation(f, args); err != nil {
			return Completion{}, err
		}
		vm.logger.Debug("generator body requested", slog.String("kind", fp.kind.String()))
		return Completion{}, notImplemented("%s function objects (generator resumption)", fp.kind)
	}
}

func concatArgs(a, b []JSValue) []JSValue {
	out := make([]JSValue, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// BoundFunctionCreate creates a bound function exotic object.
func BoundFunctionCreate(vm *VM, target *JSObject, boundThis JSValue, boundArgs []JSValue) (*JSObject, error) {
	proto, err := target.GetPrototypeOf(vm)
	if err != nil {
		return nil, err
	}
	obj := OrdinaryObjectCreate(proto)
	obj.callable = true
	obj.constructor = target.constructor
	obj.funcPart = &FunctionPart{
		realm:       vm.CurrentRealm(),
		boundTarget: target,
		boundThis:   boundThis,
		boundArgs:   append([]JSValue(nil), boundArgs...),
	}
	return obj, nil
}
