package aotvm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/parser"
)

const dynamicFunctionPath = "anonymous"

// CreateDynamicFunction compiles the arguments of a Function-family
// constructor call (parameters..., body) into a new function object of the
// given kind. A nil newTarget stands for the constructor itself.
func CreateDynamicFunction(vm *VM, constructor *JSObject, newTarget *JSObject, kind FunctionKind, args []JSValue) (*JSObject, error) {
	currentRealm := vm.CurrentRealm()
	callerRealm := currentRealm
	if depth := len(vm.contextStack); depth >= 2 {
		callerRealm = vm.contextStack[depth-2].Realm
	}
	if err := vm.HostEnsureCanCompileStrings(callerRealm, currentRealm); err != nil {
		return nil, err
	}

	if newTarget == nil {
		newTarget = constructor
	}

	var prefix, fallbackProto string
	switch kind {
	case KindNormal:
		prefix, fallbackProto = "function", "%Function.prototype%"
	case KindGenerator:
		prefix, fallbackProto = "function*", "%GeneratorFunction.prototype%"
	case KindAsync:
		prefix, fallbackProto = "async function", "%AsyncFunction.prototype%"
	case KindAsyncGenerator:
		prefix, fallbackProto = "async function*", "%AsyncGeneratorFunction.prototype%"
	default:
		panic("bug: unknown function kind " + kind.String())
	}

	var bodyArg JSValue = JSString("")
	var params []string
	if len(args) > 0 {
		bodyArg = args[len(args)-1]
		for _, arg := range args[:len(args)-1] {
			param, err := vm.ToString(arg)
			if err != nil {
				return nil, err
			}
			params = append(params, string(param))
		}
	}
	body, err := vm.ToString(bodyArg)
	if err != nil {
		return nil, err
	}

	P := strings.Join(params, ",")
	bodyString := "\n" + string(body) + "\n"
	sourceString := prefix + " anonymous(" + P + "\n) {" + bodyString + "}"

	vm.logger.Debug("compile dynamic function",
		slog.String("kind", kind.String()),
		slog.Int("params", len(params)),
		slog.Int("bodyLength", len(body)),
	)

	code, file, err := parseDynamicFunction(P, bodyString, kind)
	if err != nil {
		return nil, vm.ThrowError("SyntaxError", err.Error())
	}
	strict := hasUseStrict(functionBody(code))

	proto, err := GetPrototypeFromConstructor(vm, newTarget, fallbackProto)
	if err != nil {
		return nil, err
	}

	env := currentRealm.GlobalEnv
	f := OrdinaryFunctionCreate(vm, proto, sourceString, code, file, kind, strict, env)
	SetFunctionName(vm, f, NameStr("anonymous"), "")

	switch kind {
	case KindGenerator:
		prototype := OrdinaryObjectCreate(currentRealm.Intrinsics.GeneratorPrototype)
		mustOK(vm.DefinePropertyOrThrow(f, NameStr("prototype"), DataProperty(prototype, true, false, false)))
	case KindAsyncGenerator:
		prototype := OrdinaryObjectCreate(currentRealm.Intrinsics.AsyncGeneratorPrototype)
		mustOK(vm.DefinePropertyOrThrow(f, NameStr("prototype"), DataProperty(prototype, true, false, false)))
	case KindNormal:
		MakeConstructor(vm, f, true, nil)
	}
	return f, nil
}

// parseDynamicFunction checks that the parameters and the body parse on
// their own, so neither can close the other early, then parses the whole
// function. The parser only knows plain functions, so every kind is parsed
// with the "function" prefix.
func parseDynamicFunction(P, bodyString string, kind FunctionKind) (*ast.FunctionLiteral, *parserFile.File, error) {
	if _, _, err := parseSoleFunction("(function(" + P + "\n) {\n})"); err != nil {
		return nil, nil, err
	}
	if _, _, err := parseSoleFunction("(function(\n) {" + bodyString + "})"); err != nil {
		return nil, nil, err
	}

	code, program, err := parseSoleFunction("function anonymous(" + P + "\n) {" + bodyString + "}")
	if err != nil {
		return nil, nil, err
	}
	if err := fixAndCheck(program.File, program, checkOptions{kind: kind}); err != nil {
		return nil, nil, err
	}
	return code, program.File, nil
}

func parseSoleFunction(src string) (*ast.FunctionLiteral, *ast.Program, error) {
	program, err := parser.ParseFile(nil, dynamicFunctionPath, src, 0)
	if err != nil {
		return nil, nil, parserError(dynamicFunctionPath, err)
	}

	var code *ast.FunctionLiteral
	if len(program.Body) == 1 {
		switch stmt := program.Body[0].(type) {
		case *ast.FunctionStatement:
			code = stmt.Function
		case *ast.ExpressionStatement:
			code, _ = stmt.Expression.(*ast.FunctionLiteral)
		}
	}
	if code == nil {
		return nil, nil, fmt.Errorf("%w: function source does not form a single function", ErrSyntax)
	}
	return code, program, nil
}
