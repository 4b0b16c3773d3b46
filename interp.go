package aotvm

import (
	"io"
	"log/slog"
	"slices"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/token"
)

// ParseScript parses src into a Script Record of the current realm.
func (vm *VM) ParseScript(path string, src any, hostDefined any) (*ScriptRecord, error) {
	program, err := Parse(path, src)
	if err != nil {
		return nil, err
	}
	return &ScriptRecord{
		Realm:       vm.CurrentRealm(),
		Code:        program,
		HostDefined: hostDefined,
	}, nil
}

// ScriptEvaluation runs a script in a fresh script execution context and
// returns its completion value.
func (vm *VM) ScriptEvaluation(script *ScriptRecord) (JSValue, error) {
	globalEnv := script.Realm.GlobalEnv
	scriptContext := &ExecutionContext{
		Realm:               script.Realm,
		ScriptOrModule:      script,
		LexicalEnvironment:  globalEnv,
		VariableEnvironment: globalEnv,
	}
	vm.PushContext(scriptContext)
	defer vm.PopContext(scriptContext)

	vm.synCtx.PushFile(script.Code.File)
	defer vm.synCtx.PopFile(script.Code.File)

	program := script.Code.AST
	vm.synCtx.Push(program)
	defer vm.synCtx.Pop(program)

	if err := vm.GlobalDeclarationInstantiation(script.Code, globalEnv); err != nil {
		return nil, err
	}
	result, err := vm.evalStatementList(program.Body)
	if err != nil {
		return nil, err
	}
	if result.Value == nil {
		return JSUndefined{}, nil
	}
	return result.Value, nil
}

func (vm *VM) RunScriptString(path string, src string) (JSValue, error) {
	script, err := vm.ParseScript(path, src, nil)
	if err != nil {
		return nil, err
	}
	return vm.ScriptEvaluation(script)
}

func (vm *VM) RunScriptReader(path string, r io.Reader) (JSValue, error) {
	script, err := vm.ParseScript(path, r, nil)
	if err != nil {
		return nil, err
	}
	return vm.ScriptEvaluation(script)
}

func (vm *VM) RunScriptFile(path string) (JSValue, error) {
	program, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return vm.ScriptEvaluation(&ScriptRecord{Realm: vm.CurrentRealm(), Code: program})
}

// strictCode reports whether the running execution context evaluates
// strict mode code.
func (vm *VM) strictCode() bool {
	ctx := vm.RunningContext()
	if ctx == nil {
		return false
	}
	if f := ctx.Function; f != nil && f.funcPart != nil && f.funcPart.code != nil {
		return f.funcPart.strict
	}
	switch som := ctx.ScriptOrModule.(type) {
	case *ScriptRecord:
		return som.Code != nil && som.Code.Strict
	case ModuleRecord:
		return true
	}
	return false
}

func (vm *VM) currentFile() *parserFile.File {
	fs := vm.synCtx.fileStack
	if len(fs) == 0 {
		return nil
	}
	return fs[len(fs)-1]
}

// varScopedDeclarations collects what a script or function body declares
// at var scope.
type varScopedDeclarations struct {
	varNames []string
	// top-level function declarations, in source order
	functions []*ast.FunctionLiteral
	// function declarations nested in blocks
	blockFunctions []*ast.FunctionLiteral
}

func collectDeclarations(body []ast.Statement) *varScopedDeclarations {
	decls := &varScopedDeclarations{}
	decls.statements(body, true)
	return decls
}

func (d *varScopedDeclarations) addVar(n ast.Node) {
	if ve := asVariableExpression(n); ve != nil {
		d.varNames = append(d.varNames, ve.Name)
	}
}

func (d *varScopedDeclarations) statements(list []ast.Statement, topLevel bool) {
	for _, stmt := range list {
		d.statement(stmt, topLevel)
	}
}

func (d *varScopedDeclarations) statement(stmt ast.Statement, topLevel bool) {
	if nilNode(stmt) {
		return
	}
	switch stmt := stmt.(type) {
	case *ast.VariableStatement:
		for _, item := range stmt.List {
			d.addVar(item)
		}
	case *ast.FunctionStatement:
		if topLevel {
			d.functions = append(d.functions, stmt.Function)
		} else {
			d.blockFunctions = append(d.blockFunctions, stmt.Function)
		}
	case *ast.BlockStatement:
		d.statements(stmt.List, false)
	case *ast.IfStatement:
		d.statement(stmt.Consequent, false)
		d.statement(stmt.Alternate, false)
	case *ast.WhileStatement:
		d.statement(stmt.Body, false)
	case *ast.DoWhileStatement:
		d.statement(stmt.Body, false)
	case *ast.ForStatement:
		if seq, isSeq := stmt.Initializer.(*ast.SequenceExpression); isSeq {
			for _, item := range seq.Sequence {
				d.addVar(item)
			}
		} else if !nilNode(stmt.Initializer) {
			d.addVar(stmt.Initializer)
		}
		d.statement(stmt.Body, false)
	case *ast.ForInStatement:
		d.addVar(stmt.Into)
		d.statement(stmt.Body, false)
	case *ast.LabelledStatement:
		if _, isFunc := stmt.Statement.(*ast.FunctionStatement); isFunc && !topLevel {
			return
		}
		d.statement(stmt.Statement, topLevel)
	case *ast.TryStatement:
		d.statement(stmt.Body, false)
		if stmt.Catch != nil {
			d.statement(stmt.Catch.Body, false)
		}
		d.statement(stmt.Finally, false)
	case *ast.SwitchStatement:
		for _, clause := range stmt.Body {
			d.statements(clause.Consequent, false)
		}
	case *ast.WithStatement:
		d.statement(stmt.Body, false)
	}
}

func asVariableExpression(n ast.Node) *ast.VariableExpression {
	ve, _ := n.(*ast.VariableExpression)
	return ve
}

// blockFunctionDeclarations lists the function declarations directly
// contained in a statement list.
func blockFunctionDeclarations(lists ...[]ast.Statement) []*ast.FunctionLiteral {
	var functions []*ast.FunctionLiteral
	for _, list := range lists {
		for _, stmt := range list {
			if fs, isFunc := stmt.(*ast.FunctionStatement); isFunc {
				functions = append(functions, fs.Function)
			}
		}
	}
	return functions
}

func (vm *VM) markAnnexB(fl *ast.FunctionLiteral) {
	if vm.annexB == nil {
		vm.annexB = make(map[*ast.FunctionLiteral]bool)
	}
	vm.annexB[fl] = true
}

func (vm *VM) GlobalDeclarationInstantiation(script *Program, env *GlobalEnv) error {
	decls := collectDeclarations(script.AST.Body)

	for _, name := range decls.varNames {
		if env.HasLexicalDeclaration(name) {
			return vm.ThrowError("SyntaxError", "identifier '"+name+"' has already been declared")
		}
	}

	var functionsToInitialize []*ast.FunctionLiteral
	var declaredFunctionNames []string
	for i := len(decls.functions) - 1; i >= 0; i-- {
		f := decls.functions[i]
		fn := f.Name.Name
		if env.HasLexicalDeclaration(fn) {
			return vm.ThrowError("SyntaxError", "identifier '"+fn+"' has already been declared")
		}
		if slices.Contains(declaredFunctionNames, fn) {
			continue
		}
		fnDefinable, err := env.CanDeclareGlobalFunction(vm, fn)
		if err != nil {
			return err
		}
		if !fnDefinable {
			return vm.ThrowError("TypeError", "cannot declare global function '"+fn+"'")
		}
		declaredFunctionNames = append(declaredFunctionNames, fn)
		functionsToInitialize = append([]*ast.FunctionLiteral{f}, functionsToInitialize...)
	}

	var declaredVarNames []string
	for _, vn := range decls.varNames {
		if slices.Contains(declaredFunctionNames, vn) {
			continue
		}
		vnDefinable, err := env.CanDeclareGlobalVar(vm, vn)
		if err != nil {
			return err
		}
		if !vnDefinable {
			return vm.ThrowError("TypeError", "cannot declare global variable '"+vn+"'")
		}
		if !slices.Contains(declaredVarNames, vn) {
			declaredVarNames = append(declaredVarNames, vn)
		}
	}

	if !script.Strict {
		declaredFunctionOrVarNames := slices.Concat(declaredFunctionNames, declaredVarNames)
		for _, f := range decls.blockFunctions {
			fn := f.Name.Name
			if env.HasLexicalDeclaration(fn) {
				continue
			}
			fnDefinable, err := env.CanDeclareGlobalVar(vm, fn)
			if err != nil {
				return err
			}
			if !fnDefinable {
				continue
			}
			if !slices.Contains(declaredFunctionOrVarNames, fn) {
				if err := env.CreateGlobalVarBinding(vm, fn, false); err != nil {
					return err
				}
				declaredFunctionOrVarNames = append(declaredFunctionOrVarNames, fn)
			}
			vm.markAnnexB(f)
		}
	}

	for _, f := range functionsToInitialize {
		fo := vm.InstantiateFunctionObject(f, env)
		if err := env.CreateGlobalFunctionBinding(vm, f.Name.Name, fo, false); err != nil {
			return err
		}
	}
	for _, vn := range declaredVarNames {
		if err := env.CreateGlobalVarBinding(vm, vn, false); err != nil {
			return err
		}
	}
	return nil
}

// FunctionDeclarationInstantiation binds the parameters, the arguments
// object, the var declarations and the hoisted functions of f in the
// running execution context.
func (vm *VM) FunctionDeclarationInstantiation(f *JSObject, args []JSValue) error {
	calleeContext := vm.RunningContext()
	fp := f.funcPart
	code := fp.code
	strict := fp.strict
	parameterNames := parameterNames(code)

	hasDuplicates := false
	for i, name := range parameterNames {
		if slices.Contains(parameterNames[:i], name) {
			hasDuplicates = true
			break
		}
	}

	decls := collectDeclarations(functionBody(code))
	var functionNames []string
	var functionsToInitialize []*ast.FunctionLiteral
	for i := len(decls.functions) - 1; i >= 0; i-- {
		fl := decls.functions[i]
		if fn := fl.Name.Name; !slices.Contains(functionNames, fn) {
			functionNames = append(functionNames, fn)
			functionsToInitialize = append([]*ast.FunctionLiteral{fl}, functionsToInitialize...)
		}
	}

	argumentsObjectNeeded := true
	if fp.thisMode == thisModeLexical {
		argumentsObjectNeeded = false
	} else if slices.Contains(parameterNames, "arguments") {
		argumentsObjectNeeded = false
	} else if slices.Contains(functionNames, "arguments") {
		argumentsObjectNeeded = false
	}

	env := calleeContext.LexicalEnvironment
	for _, paramName := range parameterNames {
		alreadyDeclared := must(env.HasBinding(vm, paramName))
		if !alreadyDeclared {
			mustOK(env.CreateMutableBinding(vm, paramName, false))
			if hasDuplicates {
				mustOK(env.InitializeBinding(vm, paramName, JSUndefined{}))
			}
		}
	}

	parameterBindings := slices.Clone(parameterNames)
	if argumentsObjectNeeded {
		var ao *JSObject
		if strict {
			ao = CreateUnmappedArgumentsObject(vm, args)
		} else {
			ao = CreateMappedArgumentsObject(vm, f, parameterNames, args, env)
		}
		if strict {
			mustOK(env.CreateImmutableBinding(vm, "arguments", false))
		} else {
			mustOK(env.CreateMutableBinding(vm, "arguments", false))
		}
		mustOK(env.InitializeBinding(vm, "arguments", ao))
		parameterBindings = append(parameterBindings, "arguments")
	}

	for i, paramName := range parameterNames {
		v := argOrUndefined(args, i)
		if hasDuplicates {
			if err := env.SetMutableBinding(vm, paramName, v, strict); err != nil {
				return err
			}
		} else {
			mustOK(env.InitializeBinding(vm, paramName, v))
		}
	}

	instantiatedVarNames := slices.Clone(parameterBindings)
	for _, n := range decls.varNames {
		if !slices.Contains(instantiatedVarNames, n) {
			instantiatedVarNames = append(instantiatedVarNames, n)
			mustOK(env.CreateMutableBinding(vm, n, false))
			mustOK(env.InitializeBinding(vm, n, JSUndefined{}))
		}
	}
	varEnv := env

	if !strict {
		for _, fl := range decls.blockFunctions {
			fn := fl.Name.Name
			if slices.Contains(parameterNames, fn) {
				continue
			}
			if !slices.Contains(instantiatedVarNames, fn) && fn != "arguments" {
				mustOK(varEnv.CreateMutableBinding(vm, fn, false))
				mustOK(varEnv.InitializeBinding(vm, fn, JSUndefined{}))
				instantiatedVarNames = append(instantiatedVarNames, fn)
			}
			vm.markAnnexB(fl)
		}
	}

	lexEnv := varEnv
	calleeContext.VariableEnvironment = varEnv
	calleeContext.LexicalEnvironment = lexEnv

	for _, fl := range functionsToInitialize {
		fo := vm.InstantiateFunctionObject(fl, lexEnv)
		mustOK(varEnv.SetMutableBinding(vm, fl.Name.Name, fo, false))
	}
	return nil
}

// InstantiateFunctionObject creates the function object of a function
// declaration, closing over env.
func (vm *VM) InstantiateFunctionObject(fl *ast.FunctionLiteral, env Environment) *JSObject {
	f := vm.ordinaryFunctionFromLiteral(fl, env)
	SetFunctionName(vm, f, NameStr(fl.Name.Name), "")
	MakeConstructor(vm, f, true, nil)
	return f
}

func (vm *VM) ordinaryFunctionFromLiteral(fl *ast.FunctionLiteral, env Environment) *JSObject {
	file := vm.currentFile()
	strict := vm.strictCode() || hasUseStrict(functionBody(fl))
	sourceText := sourceSlice(file, fl)
	if sourceText == "" {
		sourceText = fl.Source
	}
	return OrdinaryFunctionCreate(vm, vm.CurrentRealm().Intrinsics.FunctionPrototype, sourceText, fl, file, KindNormal, strict, env)
}

// evaluateFunctionStatements runs the body of an ECMAScript function whose
// declarations have already been instantiated.
func (vm *VM) evaluateFunctionStatements(code *ast.FunctionLiteral) (Completion, error) {
	vm.synCtx.Push(code)
	defer vm.synCtx.Pop(code)
	return vm.evalStatementList(functionBody(code))
}

func (vm *VM) evalStatementList(list []ast.Statement) (Completion, error) {
	var last JSValue
	for _, stmt := range list {
		c, err := vm.evalStmt(stmt)
		if err != nil {
			return Completion{}, err
		}
		if c.Value != nil {
			last = c.Value
		}
		if c.IsAbrupt() {
			return c.updateEmpty(last), nil
		}
	}
	return normalCompletion(last), nil
}

func (vm *VM) evalStmt(stmt ast.Statement) (Completion, error) {
	return vm.evalLabelled(stmt, nil)
}

func loopContinues(c Completion, labelSet []string) bool {
	switch {
	case c.Type == CompletionNormal:
		return true
	case c.Type != CompletionContinue:
		return false
	case c.Target == "":
		return true
	}
	return slices.Contains(labelSet, c.Target)
}

// breakableResult turns an unlabelled break out of a loop or switch into a
// normal completion.
func breakableResult(c Completion, err error) (Completion, error) {
	if err != nil {
		return Completion{}, err
	}
	if c.Type == CompletionBreak && c.Target == "" {
		if c.Value == nil {
			return normalCompletion(JSUndefined{}), nil
		}
		return normalCompletion(c.Value), nil
	}
	return c, nil
}

// evalLabelled evaluates a statement with the labels that directly enclose
// it; labelSet is only consulted by iteration statements.
func (vm *VM) evalLabelled(stmt ast.Statement, labelSet []string) (Completion, error) {
	if nilNode(stmt) {
		return normalCompletion(nil), nil
	}

	vm.synCtx.Push(stmt)
	defer vm.synCtx.Pop(stmt)

	switch stmt := stmt.(type) {
	case *ast.LabelledStatement:
		label := stmt.Label.Name
		c, err := vm.evalLabelled(stmt.Statement, append(slices.Clip(labelSet), label))
		if err != nil {
			return Completion{}, err
		}
		if c.Type == CompletionBreak && c.Target == label {
			return normalCompletion(c.Value), nil
		}
		return c, nil

	case *ast.WhileStatement:
		return breakableResult(vm.evalWhile(stmt, labelSet))
	case *ast.DoWhileStatement:
		return breakableResult(vm.evalDoWhile(stmt, labelSet))
	case *ast.ForStatement:
		return breakableResult(vm.evalFor(stmt, labelSet))
	case *ast.ForInStatement:
		return breakableResult(vm.evalForIn(stmt, labelSet))
	case *ast.SwitchStatement:
		return breakableResult(vm.evalSwitch(stmt))

	case *ast.EmptyStatement, *ast.DebuggerStatement:
		return normalCompletion(nil), nil

	case *ast.BlockStatement:
		return vm.evalBlock(stmt.List)

	case *ast.ExpressionStatement:
		value, err := vm.evalExpr(stmt.Expression)
		if err != nil {
			return Completion{}, err
		}
		return normalCompletion(value), nil

	case *ast.VariableStatement:
		for _, item := range stmt.List {
			if _, err := vm.evalExpr(item); err != nil {
				return Completion{}, err
			}
		}
		return normalCompletion(nil), nil

	case *ast.FunctionStatement:
		if vm.annexB[stmt.Function] {
			ctx := vm.RunningContext()
			name := stmt.Function.Name.Name
			fobj := must(ctx.LexicalEnvironment.GetBindingValue(vm, name, false))
			if err := ctx.VariableEnvironment.SetMutableBinding(vm, name, fobj, false); err != nil {
				return Completion{}, err
			}
		}
		return normalCompletion(nil), nil

	case *ast.IfStatement:
		test, err := vm.evalExpr(stmt.Test)
		if err != nil {
			return Completion{}, err
		}
		var c Completion
		if vm.ToBoolean(test) {
			c, err = vm.evalSubStatement(stmt.Consequent)
		} else if !nilNode(stmt.Alternate) {
			c, err = vm.evalSubStatement(stmt.Alternate)
		}
		if err != nil {
			return Completion{}, err
		}
		return c.updateEmpty(JSUndefined{}), nil

	case *ast.BranchStatement:
		target := ""
		if stmt.Label != nil {
			target = stmt.Label.Name
		}
		switch stmt.Token {
		case token.BREAK:
			return Completion{Type: CompletionBreak, Target: target}, nil
		case token.CONTINUE:
			return Completion{Type: CompletionContinue, Target: target}, nil
		}
		return Completion{}, vm.ThrowError("SyntaxError", "unsupported branch statement: "+stmt.Token.String())

	case *ast.ReturnStatement:
		if nilNode(stmt.Argument) {
			return Completion{Type: CompletionReturn, Value: JSUndefined{}}, nil
		}
		value, err := vm.evalExpr(stmt.Argument)
		if err != nil {
			return Completion{}, err
		}
		return Completion{Type: CompletionReturn, Value: value}, nil

	case *ast.ThrowStatement:
		value, err := vm.evalExpr(stmt.Argument)
		if err != nil {
			return Completion{}, err
		}
		return Completion{}, vm.makeException(value)

	case *ast.TryStatement:
		return vm.evalTry(stmt)

	case *ast.WithStatement:
		return vm.evalWith(stmt)

	case *ast.BadStatement:
		return Completion{}, vm.ThrowError("SyntaxError", "invalid statement")

	default:
		vm.logger.Debug("unsupported statement", slog.String("node", sourceSlice(vm.currentFile(), stmt)))
		return Completion{}, notImplemented("statement %T", stmt)
	}
}

// evalSubStatement evaluates the body of an if statement. A function
// declaration in that position behaves as if wrapped in a block.
func (vm *VM) evalSubStatement(stmt ast.Statement) (Completion, error) {
	if _, isFunc := stmt.(*ast.FunctionStatement); isFunc {
		return vm.evalBlock([]ast.Statement{stmt})
	}
	return vm.evalStmt(stmt)
}

func (vm *VM) evalBlock(list []ast.Statement) (Completion, error) {
	functions := blockFunctionDeclarations(list)
	if len(functions) == 0 {
		return vm.evalStatementList(list)
	}

	ctx := vm.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	blockEnv := NewDeclarativeEnvironment(oldEnv)
	vm.blockDeclarationInstantiation(functions, blockEnv)
	ctx.LexicalEnvironment = blockEnv
	c, err := vm.evalStatementList(list)
	ctx.LexicalEnvironment = oldEnv
	return c, err
}

func (vm *VM) blockDeclarationInstantiation(functions []*ast.FunctionLiteral, env *DeclarativeEnv) {
	initialized := make(map[string]bool)
	for _, fl := range functions {
		fn := fl.Name.Name
		if !must(env.HasBinding(vm, fn)) {
			mustOK(env.CreateMutableBinding(vm, fn, false))
		}
		fo := vm.InstantiateFunctionObject(fl, env)
		if initialized[fn] {
			mustOK(env.SetMutableBinding(vm, fn, fo, false))
		} else {
			mustOK(env.InitializeBinding(vm, fn, fo))
			initialized[fn] = true
		}
	}
}

func (vm *VM) evalWhile(stmt *ast.WhileStatement, labelSet []string) (Completion, error) {
	var v JSValue = JSUndefined{}
	for {
		test, err := vm.evalExpr(stmt.Test)
		if err != nil {
			return Completion{}, err
		}
		if !vm.ToBoolean(test) {
			return normalCompletion(v), nil
		}
		result, err := vm.evalStmt(stmt.Body)
		if err != nil {
			return Completion{}, err
		}
		if !loopContinues(result, labelSet) {
			return result.updateEmpty(v), nil
		}
		if result.Value != nil {
			v = result.Value
		}
	}
}

func (vm *VM) evalDoWhile(stmt *ast.DoWhileStatement, labelSet []string) (Completion, error) {
	var v JSValue = JSUndefined{}
	for {
		result, err := vm.evalStmt(stmt.Body)
		if err != nil {
			return Completion{}, err
		}
		if !loopContinues(result, labelSet) {
			return result.updateEmpty(v), nil
		}
		if result.Value != nil {
			v = result.Value
		}
		test, err := vm.evalExpr(stmt.Test)
		if err != nil {
			return Completion{}, err
		}
		if !vm.ToBoolean(test) {
			return normalCompletion(v), nil
		}
	}
}

func (vm *VM) evalFor(stmt *ast.ForStatement, labelSet []string) (Completion, error) {
	if !nilNode(stmt.Initializer) {
		if _, err := vm.evalExpr(stmt.Initializer); err != nil {
			return Completion{}, err
		}
	}

	var v JSValue = JSUndefined{}
	for {
		if !nilNode(stmt.Test) {
			test, err := vm.evalExpr(stmt.Test)
			if err != nil {
				return Completion{}, err
			}
			if !vm.ToBoolean(test) {
				return normalCompletion(v), nil
			}
		}
		result, err := vm.evalStmt(stmt.Body)
		if err != nil {
			return Completion{}, err
		}
		if !loopContinues(result, labelSet) {
			return result.updateEmpty(v), nil
		}
		if result.Value != nil {
			v = result.Value
		}
		if !nilNode(stmt.Update) {
			if _, err := vm.evalExpr(stmt.Update); err != nil {
				return Completion{}, err
			}
		}
	}
}

func (vm *VM) evalForIn(stmt *ast.ForInStatement, labelSet []string) (Completion, error) {
	ve := asVariableExpression(stmt.Into)
	if ve != nil && !nilNode(ve.Initializer) {
		// for (var x = init in o)
		if _, err := vm.evalExpr(ve); err != nil {
			return Completion{}, err
		}
	}

	exprValue, err := vm.evalExpr(stmt.Source)
	if err != nil {
		return Completion{}, err
	}
	if IsNullish(exprValue) {
		return Completion{Type: CompletionBreak}, nil
	}
	obj := must(vm.ToObject(exprValue))
	keys := newPropertyEnumerator(obj)

	var v JSValue = JSUndefined{}
	for {
		key, done, err := keys.next(vm)
		if err != nil {
			return Completion{}, err
		}
		if done {
			return normalCompletion(v), nil
		}

		var lhs *Reference
		if ve != nil {
			lhs, err = vm.resolveBinding(ve.Name)
		} else {
			lhs, err = vm.evalTargetRef(stmt.Into)
		}
		if err != nil {
			return Completion{}, err
		}
		if err := vm.PutValue(lhs, key.Value()); err != nil {
			return Completion{}, err
		}

		result, err := vm.evalStmt(stmt.Body)
		if err != nil {
			return Completion{}, err
		}
		if !loopContinues(result, labelSet) {
			return result.updateEmpty(v), nil
		}
		if result.Value != nil {
			v = result.Value
		}
	}
}

// propertyEnumerator yields the enumerable string keys of an object and its
// prototypes. Keys are looked up again right before being produced, so
// properties deleted during the loop are skipped, and shadowed keys are
// produced once.
type propertyEnumerator struct {
	object  *JSObject
	keys    []Name
	pos     int
	loaded  bool
	visited map[string]bool
}

func newPropertyEnumerator(o *JSObject) *propertyEnumerator {
	return &propertyEnumerator{object: o, visited: make(map[string]bool)}
}

func (pe *propertyEnumerator) next(vm *VM) (key Name, done bool, err error) {
	for pe.object != nil {
		if !pe.loaded {
			pe.keys, err = pe.object.OwnPropertyKeys(vm)
			if err != nil {
				return Name{}, false, err
			}
			pe.pos = 0
			pe.loaded = true
		}
		for pe.pos < len(pe.keys) {
			key := pe.keys[pe.pos]
			pe.pos++
			if key.IsSymbol() || pe.visited[key.Str()] {
				continue
			}
			desc, err := pe.object.GetOwnProperty(vm, key)
			if err != nil {
				return Name{}, false, err
			}
			if desc == nil {
				continue
			}
			pe.visited[key.Str()] = true
			if desc.Enumerable.isTrue() {
				return key, false, nil
			}
		}
		proto, err := pe.object.GetPrototypeOf(vm)
		if err != nil {
			return Name{}, false, err
		}
		pe.object = proto
		pe.loaded = false
	}
	return Name{}, true, nil
}

func (vm *VM) evalSwitch(stmt *ast.SwitchStatement) (Completion, error) {
	input, err := vm.evalExpr(stmt.Discriminant)
	if err != nil {
		return Completion{}, err
	}

	var consequents [][]ast.Statement
	for _, clause := range stmt.Body {
		consequents = append(consequents, clause.Consequent)
	}
	functions := blockFunctionDeclarations(consequents...)
	if len(functions) == 0 {
		return vm.caseBlockEvaluation(stmt.Body, input)
	}

	ctx := vm.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	blockEnv := NewDeclarativeEnvironment(oldEnv)
	vm.blockDeclarationInstantiation(functions, blockEnv)
	ctx.LexicalEnvironment = blockEnv
	c, err := vm.caseBlockEvaluation(stmt.Body, input)
	ctx.LexicalEnvironment = oldEnv
	return c, err
}

func (vm *VM) caseBlockEvaluation(clauses []*ast.CaseStatement, input JSValue) (Completion, error) {
	var v JSValue = JSUndefined{}

	// stop is true when the clause completed abruptly
	evalClause := func(clause *ast.CaseStatement) (c Completion, stop bool, err error) {
		r, err := vm.evalStatementList(clause.Consequent)
		if err != nil {
			return Completion{}, true, err
		}
		if r.Value != nil {
			v = r.Value
		}
		if r.IsAbrupt() {
			return r.updateEmpty(v), true, nil
		}
		return Completion{}, false, nil
	}
	selected := func(clause *ast.CaseStatement) (bool, error) {
		clauseSelector, err := vm.evalExpr(clause.Test)
		if err != nil {
			return false, err
		}
		return IsStrictlyEqual(input, clauseSelector), nil
	}

	def := slices.IndexFunc(clauses, func(clause *ast.CaseStatement) bool { return nilNode(clause.Test) })
	a, b := clauses, []*ast.CaseStatement(nil)
	if def >= 0 {
		a, b = clauses[:def], clauses[def+1:]
	}

	found := false
	for _, clause := range a {
		if !found {
			var err error
			if found, err = selected(clause); err != nil {
				return Completion{}, err
			}
		}
		if found {
			if r, stop, err := evalClause(clause); stop {
				return r, err
			}
		}
	}
	if def < 0 {
		return normalCompletion(v), nil
	}

	foundInB := false
	if !found {
		for _, clause := range b {
			if !foundInB {
				var err error
				if foundInB, err = selected(clause); err != nil {
					return Completion{}, err
				}
			}
			if foundInB {
				if r, stop, err := evalClause(clause); stop {
					return r, err
				}
			}
		}
	}
	if foundInB {
		return normalCompletion(v), nil
	}

	if r, stop, err := evalClause(clauses[def]); stop {
		return r, err
	}
	for _, clause := range b {
		if r, stop, err := evalClause(clause); stop {
			return r, err
		}
	}
	return normalCompletion(v), nil
}

func (vm *VM) evalTry(stmt *ast.TryStatement) (Completion, error) {
	c, err := vm.evalStmt(stmt.Body)
	if err != nil {
		tc, isThrow := AsThrow(err)
		if !isThrow {
			// not a JS exception: interrupt execution
			return Completion{}, err
		}
		if stmt.Catch != nil {
			c, err = vm.evalCatch(stmt.Catch, tc.Value)
			if err != nil {
				if _, isThrow := AsThrow(err); !isThrow {
					return Completion{}, err
				}
			}
		}
	}

	if !nilNode(stmt.Finally) {
		f, ferr := vm.evalStmt(stmt.Finally)
		if ferr != nil {
			return Completion{}, ferr
		}
		if f.IsAbrupt() {
			return f.updateEmpty(JSUndefined{}), nil
		}
	}
	if err != nil {
		return Completion{}, err
	}
	return c.updateEmpty(JSUndefined{}), nil
}

func (vm *VM) evalCatch(catch *ast.CatchStatement, thrown JSValue) (Completion, error) {
	ctx := vm.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	catchEnv := NewDeclarativeEnvironment(oldEnv)
	if catch.Parameter != nil {
		name := catch.Parameter.Name
		mustOK(catchEnv.CreateMutableBinding(vm, name, false))
		mustOK(catchEnv.InitializeBinding(vm, name, thrown))
	}
	ctx.LexicalEnvironment = catchEnv
	c, err := vm.evalStmt(catch.Body)
	ctx.LexicalEnvironment = oldEnv
	return c, err
}

func (vm *VM) evalWith(stmt *ast.WithStatement) (Completion, error) {
	value, err := vm.evalExpr(stmt.Object)
	if err != nil {
		return Completion{}, err
	}
	obj, err := vm.ToObject(value)
	if err != nil {
		return Completion{}, err
	}

	ctx := vm.RunningContext()
	oldEnv := ctx.LexicalEnvironment
	ctx.LexicalEnvironment = NewObjectEnvironment(obj, true, oldEnv)
	c, err := vm.evalStmt(stmt.Body)
	ctx.LexicalEnvironment = oldEnv
	if err != nil {
		return Completion{}, err
	}
	return c.updateEmpty(JSUndefined{}), nil
}
