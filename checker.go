package aotvm

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/token"
)

// checkOptions configure the early errors that depend on how the code is
// going to be used rather than on the code itself.
type checkOptions struct {
	// kind of the outermost function literal, for code created by the
	// Function constructor family
	kind FunctionKind
}

// fixAndCheck walks the AST reporting early errors that the parser does not
// catch, and patches the one AST shape the parser library gets wrong.
func fixAndCheck(file *parserFile.File, node ast.Node, opts checkOptions) error {
	chk := &checker{
		file: file,
		opts: opts,
	}
	ast.Walk(chk, node)
	if len(chk.errs) > 0 {
		return multiSyntaxErrors(chk.errs)
	}
	return nil
}

type checker struct {
	file *parserFile.File
	opts checkOptions
	errs []error
	ctx  []checkerContext
}

type checkerContext struct {
	node      ast.Node
	setStrict bool
}

type multiSyntaxErrors []error

func (mserr multiSyntaxErrors) Error() string {
	switch len(mserr) {
	case 0:
		return "no syntax errors"
	case 1:
		return mserr[0].Error()
	default:
		lines := make([]string, 1+len(mserr))
		lines[0] = fmt.Sprintf("%d syntax errors:", len(mserr))
		for i, err := range mserr {
			lines[i+1] = fmt.Sprintf("%3d. %s", i+1, err.Error())
		}
		return strings.Join(lines, "\n")
	}
}

func (mserr multiSyntaxErrors) Is(target error) bool { return target == ErrSyntax }

func (c *checker) isStrictHere() bool {
	for i := len(c.ctx) - 1; i >= 0; i-- {
		if c.ctx[i].setStrict {
			return true
		}
	}
	return false
}

// functionDepth counts the function literals enclosing the current node,
// the node itself included.
func (c *checker) functionDepth() int {
	depth := 0
	for _, item := range c.ctx {
		if _, isFuncLit := item.node.(*ast.FunctionLiteral); isFuncLit {
			depth++
		}
	}
	return depth
}

func (c *checker) emitErr(msg string) {
	var node ast.Node
	for i := len(c.ctx) - 1; i >= 0; i-- {
		if !nilNode(c.ctx[i].node) {
			node = c.ctx[i].node
			break
		}
	}

	var err error
	if c.file == nil || node == nil {
		err = fmt.Errorf("?:?: %s", msg)
	} else {
		pos := c.file.Position(node.Idx0())
		err = fmt.Errorf("%s: %s", pos, msg)
	}
	c.errs = append(c.errs, err)
}

func (c *checker) Enter(node ast.Node) (v ast.Visitor) {
	c.ctx = append(c.ctx, checkerContext{node: node})
	top := &c.ctx[len(c.ctx)-1]
	if nilNode(node) {
		return c
	}

	switch node := node.(type) {
	case *ast.Program:
		// NOTE This avoids a corner case that is not correctly managed by the parser library
		// program.Idx0() would panic
		if len(node.Body) == 0 {
			node.Body = []ast.Statement{
				&ast.EmptyStatement{},
			}
		}
		top.setStrict = hasUseStrict(node.Body)

	case *ast.FunctionLiteral:
		if hasUseStrict(functionBody(node)) {
			top.setStrict = true
		}
		c.checkFunction(node)

	case *ast.Identifier:
		c.checkReservedForKind(node.Name)

	case *ast.VariableExpression:
		if c.isStrictHere() {
			if isStrictReservedKw(node.Name) {
				c.emitErr(fmt.Sprintf("variable can't be named %s in strict mode (it's a reserved keyword)", node.Name))
			}
			if isEvalOrArguments(node.Name) {
				c.emitErr(fmt.Sprintf("variable can't be named %s in strict mode", node.Name))
			}
		}
		c.checkReservedForKind(node.Name)

	case *ast.CatchStatement:
		if c.isStrictHere() && node.Parameter != nil && isEvalOrArguments(node.Parameter.Name) {
			c.emitErr(fmt.Sprintf("catch parameter can't be named %s in strict mode", node.Parameter.Name))
		}

	case *ast.AssignExpression:
		c.checkAssignTarget(node.Left)

	case *ast.UnaryExpression:
		switch node.Operator {
		case token.DELETE:
			if _, isIdent := node.Operand.(*ast.Identifier); isIdent && c.isStrictHere() {
				c.emitErr("delete of an unqualified identifier in strict mode")
			}
		case token.INCREMENT, token.DECREMENT:
			c.checkAssignTarget(node.Operand)
		}

	case *ast.WithStatement:
		if c.isStrictHere() {
			c.emitErr("with statement can't appear in strict mode")
		}

	case *ast.IfStatement:
		if c.isStrictHere() {
			c.forbidFuncDecl(node.Consequent)
			c.forbidFuncDecl(node.Alternate)
		}
	case *ast.ForStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.ForInStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.WhileStatement:
		c.forbidFuncDecl(node.Body)
	case *ast.DoWhileStatement:
		c.forbidFuncDecl(node.Body)
	}

	// keep using the same visitor
	return c
}

func (c *checker) checkFunction(fl *ast.FunctionLiteral) {
	strict := c.isStrictHere()
	params := parameterNames(fl)

	if strict && fl.Name != nil && isEvalOrArguments(fl.Name.Name) {
		c.emitErr(fmt.Sprintf("function can't be named %s in strict mode", fl.Name.Name))
	}
	for i, name := range params {
		if strict {
			if slices.Contains(params[:i], name) {
				c.emitErr(fmt.Sprintf("duplicate parameter name %s in strict mode", name))
			}
			if isEvalOrArguments(name) {
				c.emitErr(fmt.Sprintf("parameter can't be named %s in strict mode", name))
			}
			if isStrictReservedKw(name) {
				c.emitErr(fmt.Sprintf("parameter can't be named %s in strict mode (it's a reserved keyword)", name))
			}
		}
		c.checkReservedForKind(name)
	}
}

// checkReservedForKind rejects `yield` in generator bodies and `await` in
// async bodies. Nested ordinary functions may use them freely.
func (c *checker) checkReservedForKind(name string) {
	if c.functionDepth() != 1 {
		return
	}
	switch c.opts.kind {
	case KindGenerator:
		if name == "yield" {
			c.emitErr("yield is a reserved word in generator functions")
		}
	case KindAsync:
		if name == "await" {
			c.emitErr("await is a reserved word in async functions")
		}
	case KindAsyncGenerator:
		if name == "yield" || name == "await" {
			c.emitErr(name + " is a reserved word in async generator functions")
		}
	}
}

func (c *checker) checkAssignTarget(target ast.Expression) {
	if ident, isIdent := target.(*ast.Identifier); isIdent && c.isStrictHere() && isEvalOrArguments(ident.Name) {
		c.emitErr(fmt.Sprintf("can't assign to %s in strict mode", ident.Name))
	}
}

func (c *checker) forbidFuncDecl(node ast.Node) {
	_, isFnDecl := node.(*ast.FunctionLiteral)
	_, isFnStmt := node.(*ast.FunctionStatement)
	if isFnDecl || isFnStmt {
		c.emitErr("function declaration cannot appear in statement position")
	}
}

func (c *checker) Exit(node ast.Node) {
	if c.ctx[len(c.ctx)-1].node != node {
		panic("bug: fixAndCheck: inconsistent context")
	}

	c.ctx = c.ctx[:len(c.ctx)-1]
}

var strictReservedKw = []string{
	"implements",
	"let",
	"private",
	"public",
	"interface",
	"package",
	"protected",
	"static",
	"yield",
}

// Returns true iff the given string corresponds to a keyword that is reserved in strict mode only.
func isStrictReservedKw(s string) bool {
	return slices.Contains(strictReservedKw, s)
}

func isEvalOrArguments(s string) bool {
	return s == "eval" || s == "arguments"
}

// nilNode reports whether n is nil or a typed nil pointer; the parser leaves
// optional children as typed nils.
func nilNode(n ast.Node) bool {
	if n == nil {
		return true
	}
	rv := reflect.ValueOf(n)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
