package aotvm

import (
	"github.com/robertkrimen/otto/ast"
	"github.com/robertkrimen/otto/token"
)

func (vm *VM) resolveBinding(name string) (*Reference, error) {
	env := vm.RunningContext().LexicalEnvironment
	return GetIdentifierReference(vm, env, name, vm.strictCode())
}

// evalRef evaluates expr to a Reference when it denotes one (identifiers
// and member accesses); any other expression yields its value and a nil
// reference.
func (vm *VM) evalRef(expr ast.Expression) (*Reference, JSValue, error) {
	switch expr := expr.(type) {
	case *ast.Identifier:
		ref, err := vm.resolveBinding(expr.Name)
		return ref, nil, err

	case *ast.DotExpression:
		vm.synCtx.Push(expr)
		defer vm.synCtx.Pop(expr)

		baseValue, err := vm.evalExpr(expr.Left)
		if err != nil {
			return nil, nil, err
		}
		return propertyReference(baseValue, NameStr(expr.Identifier.Name), vm.strictCode()), nil, nil

	case *ast.BracketExpression:
		vm.synCtx.Push(expr)
		defer vm.synCtx.Pop(expr)

		baseValue, err := vm.evalExpr(expr.Left)
		if err != nil {
			return nil, nil, err
		}
		propertyNameValue, err := vm.evalExpr(expr.Member)
		if err != nil {
			return nil, nil, err
		}
		propertyKey, err := vm.ToPropertyKey(propertyNameValue)
		if err != nil {
			return nil, nil, err
		}
		return propertyReference(baseValue, propertyKey, vm.strictCode()), nil, nil
	}

	value, err := vm.evalExpr(expr)
	return nil, value, err
}

// evalTargetRef evaluates the target of an assignment, which must be a
// reference.
func (vm *VM) evalTargetRef(expr ast.Expression) (*Reference, error) {
	ref, _, err := vm.evalRef(expr)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, vm.ThrowError("ReferenceError", "invalid assignment target")
	}
	return ref, nil
}

func (vm *VM) evalExpr(expr ast.Expression) (JSValue, error) {
	if nilNode(expr) {
		return JSUndefined{}, nil
	}

	switch expr.(type) {
	case *ast.Identifier, *ast.DotExpression, *ast.BracketExpression:
		ref, _, err := vm.evalRef(expr)
		if err != nil {
			return nil, err
		}
		return vm.GetValue(ref)
	}

	vm.synCtx.Push(expr)
	defer vm.synCtx.Pop(expr)

	switch expr := expr.(type) {
	case *ast.NullLiteral:
		return JSNull{}, nil

	case *ast.BooleanLiteral:
		return JSBoolean(expr.Value), nil

	case *ast.StringLiteral:
		return JSString(expr.Value), nil

	case *ast.NumberLiteral:
		switch v := expr.Value.(type) {
		case int64:
			return JSNumber(v), nil
		case float64:
			return JSNumber(v), nil
		}
		return StringToNumber(expr.Literal), nil

	case *ast.RegExpLiteral:
		return nil, notImplemented("regular expression literal %s", expr.Literal)

	case *ast.ThisExpression:
		return vm.ResolveThisBinding()

	case *ast.EmptyExpression:
		return JSUndefined{}, nil

	case *ast.FunctionLiteral:
		return vm.evalFunctionExpression(expr, ""), nil

	case *ast.ObjectLiteral:
		return vm.evalObjectLiteral(expr)

	case *ast.ArrayLiteral:
		return vm.evalArrayLiteral(expr)

	case *ast.VariableExpression:
		if nilNode(expr.Initializer) {
			return JSUndefined{}, nil
		}
		lhs, err := vm.resolveBinding(expr.Name)
		if err != nil {
			return nil, err
		}
		value, err := vm.namedEvaluation(expr.Initializer, expr.Name)
		if err != nil {
			return nil, err
		}
		return JSUndefined{}, vm.PutValue(lhs, value)

	case *ast.SequenceExpression:
		var value JSValue = JSUndefined{}
		for _, item := range expr.Sequence {
			var err error
			if value, err = vm.evalExpr(item); err != nil {
				return nil, err
			}
		}
		return value, nil

	case *ast.ConditionalExpression:
		test, err := vm.evalExpr(expr.Test)
		if err != nil {
			return nil, err
		}
		if vm.ToBoolean(test) {
			return vm.evalExpr(expr.Consequent)
		}
		return vm.evalExpr(expr.Alternate)

	case *ast.AssignExpression:
		return vm.evalAssign(expr)

	case *ast.UnaryExpression:
		return vm.evalUnary(expr)

	case *ast.BinaryExpression:
		return vm.evalBinary(expr)

	case *ast.CallExpression:
		return vm.evalCall(expr)

	case *ast.NewExpression:
		return vm.evalNew(expr)

	case *ast.BadExpression:
		return nil, vm.ThrowError("SyntaxError", "invalid expression")

	default:
		return nil, notImplemented("expression %T", expr)
	}
}

func isAnonymousFunctionDefinition(expr ast.Expression) bool {
	fl, isFunc := expr.(*ast.FunctionLiteral)
	return isFunc && fl.Name == nil
}

// namedEvaluation evaluates expr, naming it after its binding when it is an
// anonymous function.
func (vm *VM) namedEvaluation(expr ast.Expression, name string) (JSValue, error) {
	if isAnonymousFunctionDefinition(expr) {
		return vm.evalFunctionExpression(expr.(*ast.FunctionLiteral), name), nil
	}
	return vm.evalExpr(expr)
}

func (vm *VM) evalFunctionExpression(fl *ast.FunctionLiteral, name string) *JSObject {
	scope := vm.RunningContext().LexicalEnvironment
	if fl.Name == nil {
		closure := vm.ordinaryFunctionFromLiteral(fl, scope)
		SetFunctionName(vm, closure, NameStr(name), "")
		MakeConstructor(vm, closure, true, nil)
		return closure
	}

	funcEnv := NewDeclarativeEnvironment(scope)
	mustOK(funcEnv.CreateImmutableBinding(vm, fl.Name.Name, false))
	closure := vm.ordinaryFunctionFromLiteral(fl, funcEnv)
	SetFunctionName(vm, closure, NameStr(fl.Name.Name), "")
	MakeConstructor(vm, closure, true, nil)
	mustOK(funcEnv.InitializeBinding(vm, fl.Name.Name, closure))
	return closure
}

func (vm *VM) evalObjectLiteral(expr *ast.ObjectLiteral) (JSValue, error) {
	obj := OrdinaryObjectCreate(vm.CurrentRealm().Intrinsics.ObjectPrototype)
	scope := vm.RunningContext().LexicalEnvironment

	for _, prop := range expr.Value {
		key := NameStr(prop.Key)
		switch prop.Kind {
		case "value", "init":
			propValue, err := vm.namedEvaluation(prop.Value, prop.Key)
			if err != nil {
				return nil, err
			}
			if prop.Key == "__proto__" {
				if IsObject(propValue) || IsNull(propValue) {
					proto, _ := propValue.(*JSObject)
					mustBool(obj.SetPrototypeOf(vm, proto))
				}
				continue
			}
			mustOK(vm.CreateDataPropertyOrThrow(obj, key, propValue))

		case "get", "set":
			fl, isFunc := prop.Value.(*ast.FunctionLiteral)
			if !isFunc {
				return nil, vm.ThrowError("SyntaxError", "object literal accessor must be a function")
			}
			closure := vm.ordinaryFunctionFromLiteral(fl, scope)
			SetFunctionName(vm, closure, key, prop.Kind)
			desc := PropertyDescriptor{Enumerable: TTrue, Configurable: TTrue}
			if prop.Kind == "get" {
				desc.Get = closure
			} else {
				desc.Set = closure
			}
			mustOK(vm.DefinePropertyOrThrow(obj, key, desc))

		default:
			return nil, vm.ThrowError("SyntaxError", "unsupported object literal property kind: "+prop.Kind)
		}
	}
	return obj, nil
}

func (vm *VM) evalArrayLiteral(expr *ast.ArrayLiteral) (JSValue, error) {
	array := must(ArrayCreate(vm, 0, nil))
	nextIndex := 0
	for _, item := range expr.Value {
		if nilNode(item) {
			// elision
			nextIndex++
			continue
		}
		value, err := vm.evalExpr(item)
		if err != nil {
			return nil, err
		}
		mustOK(vm.CreateDataPropertyOrThrow(array, indexName(nextIndex), value))
		nextIndex++
	}
	if err := vm.Set(array, NameStr("length"), JSNumber(nextIndex), true); err != nil {
		return nil, err
	}
	return array, nil
}

func (vm *VM) evalArguments(list []ast.Expression) ([]JSValue, error) {
	args := make([]JSValue, 0, len(list))
	for _, argExpr := range list {
		value, err := vm.evalExpr(argExpr)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	return args, nil
}

func (vm *VM) evalCall(expr *ast.CallExpression) (JSValue, error) {
	ref, fn, err := vm.evalRef(expr.Callee)
	if err != nil {
		return nil, err
	}
	var thisValue JSValue = JSUndefined{}
	if ref != nil {
		if fn, err = vm.GetValue(ref); err != nil {
			return nil, err
		}
		if ref.IsPropertyReference() {
			thisValue = ref.thisValue()
		} else {
			thisValue = ref.baseEnv.WithBaseObject()
		}
	}

	args, err := vm.evalArguments(expr.ArgumentList)
	if err != nil {
		return nil, err
	}
	if !IsCallable(fn) {
		return nil, vm.ThrowError("TypeError", sourceSlice(vm.currentFile(), expr.Callee)+" is not a function")
	}
	return vm.Call(fn, thisValue, args)
}

func (vm *VM) evalNew(expr *ast.NewExpression) (JSValue, error) {
	constructor, err := vm.evalExpr(expr.Callee)
	if err != nil {
		return nil, err
	}
	args, err := vm.evalArguments(expr.ArgumentList)
	if err != nil {
		return nil, err
	}
	if !IsConstructor(constructor) {
		return nil, vm.ThrowError("TypeError", sourceSlice(vm.currentFile(), expr.Callee)+" is not a constructor")
	}
	return vm.Construct(constructor.(*JSObject), args, nil)
}

func (vm *VM) evalAssign(expr *ast.AssignExpression) (JSValue, error) {
	lref, err := vm.evalTargetRef(expr.Left)
	if err != nil {
		return nil, err
	}

	if expr.Operator == token.ASSIGN {
		var rval JSValue
		if ident, isIdent := expr.Left.(*ast.Identifier); isIdent {
			rval, err = vm.namedEvaluation(expr.Right, ident.Name)
		} else {
			rval, err = vm.evalExpr(expr.Right)
		}
		if err != nil {
			return nil, err
		}
		return rval, vm.PutValue(lref, rval)
	}

	// compound assignment: the parser reports the operator without "="
	lval, err := vm.GetValue(lref)
	if err != nil {
		return nil, err
	}
	rval, err := vm.evalExpr(expr.Right)
	if err != nil {
		return nil, err
	}
	r, err := vm.applyBinaryOperator(lval, expr.Operator, rval)
	if err != nil {
		return nil, err
	}
	return r, vm.PutValue(lref, r)
}

func (vm *VM) evalUnary(expr *ast.UnaryExpression) (JSValue, error) {
	switch expr.Operator {
	case token.DELETE:
		ref, _, err := vm.evalRef(expr.Operand)
		if err != nil {
			return nil, err
		}
		if ref == nil || ref.IsUnresolvable() {
			return JSBoolean(true), nil
		}
		if ref.IsPropertyReference() {
			baseObj, err := vm.ToObject(ref.baseValue)
			if err != nil {
				return nil, err
			}
			deleteStatus, err := baseObj.Delete(vm, ref.Name)
			if err != nil {
				return nil, err
			}
			if !deleteStatus && ref.Strict {
				return nil, vm.ThrowError("TypeError", "cannot delete property '"+ref.Name.String()+"' of "+vm.describe(ref.baseValue))
			}
			return JSBoolean(deleteStatus), nil
		}
		deleted, err := ref.baseEnv.DeleteBinding(vm, ref.Name.Str())
		return JSBoolean(deleted), err

	case token.TYPEOF:
		ref, value, err := vm.evalRef(expr.Operand)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			if ref.IsUnresolvable() {
				return JSString("undefined"), nil
			}
			if value, err = vm.GetValue(ref); err != nil {
				return nil, err
			}
		}
		return typeOf(value), nil

	case token.INCREMENT, token.DECREMENT:
		return vm.evalUpdate(expr)
	}

	value, err := vm.evalExpr(expr.Operand)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case token.VOID:
		return JSUndefined{}, nil

	case token.NOT:
		return !vm.ToBoolean(value), nil

	case token.PLUS:
		return vm.ToNumber(value)

	case token.MINUS:
		num, err := vm.ToNumber(value)
		if err != nil {
			return nil, err
		}
		return -num, nil

	case token.BITWISE_NOT:
		num, err := vm.ToInt32(value)
		if err != nil {
			return nil, err
		}
		return JSNumber(^num), nil

	default:
		return nil, vm.ThrowError("SyntaxError", "unsupported unary operator: "+expr.Operator.String())
	}
}

func (vm *VM) evalUpdate(expr *ast.UnaryExpression) (JSValue, error) {
	lhs, err := vm.evalTargetRef(expr.Operand)
	if err != nil {
		return nil, err
	}
	value, err := vm.GetValue(lhs)
	if err != nil {
		return nil, err
	}
	oldValue, err := vm.ToNumber(value)
	if err != nil {
		return nil, err
	}

	newValue := oldValue + 1
	if expr.Operator == token.DECREMENT {
		newValue = oldValue - 1
	}
	if err := vm.PutValue(lhs, newValue); err != nil {
		return nil, err
	}
	if expr.Postfix {
		return oldValue, nil
	}
	return newValue, nil
}

func (vm *VM) evalBinary(expr *ast.BinaryExpression) (JSValue, error) {
	left, err := vm.evalExpr(expr.Left)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case token.LOGICAL_AND:
		if !vm.ToBoolean(left) {
			return left, nil
		}
		return vm.evalExpr(expr.Right)
	case token.LOGICAL_OR:
		if vm.ToBoolean(left) {
			return left, nil
		}
		return vm.evalExpr(expr.Right)
	}

	right, err := vm.evalExpr(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case token.STRICT_EQUAL:
		return JSBoolean(IsStrictlyEqual(left, right)), nil
	case token.STRICT_NOT_EQUAL:
		return JSBoolean(!IsStrictlyEqual(left, right)), nil

	case token.EQUAL:
		eq, err := vm.IsLooselyEqual(left, right)
		return JSBoolean(eq), err
	case token.NOT_EQUAL:
		eq, err := vm.IsLooselyEqual(left, right)
		return JSBoolean(!eq), err

	case token.LESS:
		r, err := vm.IsLessThan(left, right, true)
		return JSBoolean(r.isTrue()), err
	case token.GREATER:
		r, err := vm.IsLessThan(right, left, false)
		return JSBoolean(r.isTrue()), err
	case token.LESS_OR_EQUAL:
		r, err := vm.IsLessThan(right, left, false)
		return JSBoolean(r.isFalse()), err
	case token.GREATER_OR_EQUAL:
		r, err := vm.IsLessThan(left, right, true)
		return JSBoolean(r.isFalse()), err

	case token.INSTANCEOF:
		is, err := vm.InstanceofOperator(left, right)
		return JSBoolean(is), err

	case token.IN:
		obj, isObj := right.(*JSObject)
		if !isObj {
			return nil, vm.ThrowError("TypeError", "cannot use 'in' operator to search for a key in "+vm.describe(right))
		}
		key, err := vm.ToPropertyKey(left)
		if err != nil {
			return nil, err
		}
		has, err := vm.HasProperty(obj, key)
		return JSBoolean(has), err
	}

	return vm.applyBinaryOperator(left, expr.Operator, right)
}

// applyBinaryOperator implements ApplyStringOrNumericBinaryOperator.
func (vm *VM) applyBinaryOperator(lval JSValue, op token.Token, rval JSValue) (JSValue, error) {
	if op == token.PLUS {
		/*
			a. Let lprim be ? ToPrimitive(lval).
			b. Let rprim be ? ToPrimitive(rval).
			c. If lprim is a String or rprim is a String, then
				i. Let lstr be ? ToString(lprim).
				ii. Let rstr be ? ToString(rprim).
				iii. Return the string-concatenation of lstr and rstr.
			d. Set lval to lprim.
			e. Set rval to rprim.
		*/
		lprim, err := vm.ToPrimitive(lval, HintDefault)
		if err != nil {
			return nil, err
		}
		rprim, err := vm.ToPrimitive(rval, HintDefault)
		if err != nil {
			return nil, err
		}
		_, isLStr := lprim.(JSString)
		_, isRStr := rprim.(JSString)
		if isLStr || isRStr {
			lstr, err := vm.ToString(lprim)
			if err != nil {
				return nil, err
			}
			rstr, err := vm.ToString(rprim)
			if err != nil {
				return nil, err
			}
			return lstr + rstr, nil
		}
		lval, rval = lprim, rprim
	}

	ln, err := vm.ToNumber(lval)
	if err != nil {
		return nil, err
	}
	rn, err := vm.ToNumber(rval)
	if err != nil {
		return nil, err
	}

	switch op {
	case token.MULTIPLY:
		return ln * rn, nil
	case token.SLASH:
		return ln / rn, nil
	case token.REMAINDER:
		return JSNumber(floatRemainder(float64(ln), float64(rn))), nil
	case token.PLUS:
		return ln + rn, nil
	case token.MINUS:
		return ln - rn, nil
	}

	// the shift count is taken modulo 32
	lbits, rbits := toUint32(float64(ln)), toUint32(float64(rn))
	shiftCount := rbits & 0x1f
	switch op {
	case token.SHIFT_LEFT:
		return JSNumber(int32(lbits << shiftCount)), nil
	case token.SHIFT_RIGHT:
		return JSNumber(int32(lbits) >> shiftCount), nil
	case token.UNSIGNED_SHIFT_RIGHT:
		return JSNumber(lbits >> shiftCount), nil
	case token.AND:
		return JSNumber(int32(lbits & rbits)), nil
	case token.OR:
		return JSNumber(int32(lbits | rbits)), nil
	case token.EXCLUSIVE_OR:
		return JSNumber(int32(lbits ^ rbits)), nil
	}

	return nil, vm.ThrowError("SyntaxError", "unsupported/invalid arithmetic operator: "+op.String())
}
