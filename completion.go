package aotvm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
)

type CompletionType uint8

const (
	CompletionNormal CompletionType = iota
	CompletionReturn
	CompletionBreak
	CompletionContinue
)

func (t CompletionType) String() string {
	switch t {
	case CompletionNormal:
		return "normal"
	case CompletionReturn:
		return "return"
	case CompletionBreak:
		return "break"
	case CompletionContinue:
		return "continue"
	default:
		return fmt.Sprintf("CompletionType(%d)", uint8(t))
	}
}

// Completion is the outcome of evaluating a statement. Throw completions do
// not appear here: they travel on the error channel as *ThrowCompletion.
type Completion struct {
	Type CompletionType
	// nil means empty
	Value  JSValue
	Target string
}

func (c Completion) IsAbrupt() bool { return c.Type != CompletionNormal }

func normalCompletion(v JSValue) Completion {
	return Completion{Type: CompletionNormal, Value: v}
}

// updateEmpty implements UpdateEmpty(completion, value).
func (c Completion) updateEmpty(v JSValue) Completion {
	if c.Value == nil {
		c.Value = v
	}
	return c
}

// ThrowCompletion is an abrupt throw completion carrying a language value.
type ThrowCompletion struct {
	Value   JSValue
	context ProgramContext
}

func (tc *ThrowCompletion) message() string {
	switch v := tc.Value.(type) {
	case JSString:
		return string(v)
	case *JSObject:
		name, _ := v.props.get(NameStr("name"))
		msg, _ := v.props.get(NameStr("message"))
		var nameStr, msgStr string
		if name == nil && v.prototype != nil {
			name, _ = v.prototype.props.get(NameStr("name"))
		}
		if name != nil {
			if s, ok := name.Value.(JSString); ok {
				nameStr = string(s)
			}
		}
		if msg != nil {
			if s, ok := msg.Value.(JSString); ok {
				msgStr = string(s)
			}
		}
		switch {
		case nameStr != "" && msgStr != "":
			return nameStr + ": " + msgStr
		case nameStr != "":
			return nameStr
		case msgStr != "":
			return msgStr
		}
		return "(object)"
	default:
		return fmt.Sprintf("%v", tc.Value)
	}
}

func (tc *ThrowCompletion) Error() string {
	lines := make([]string, 1+len(tc.context.stack))
	lines[0] = fmt.Sprintf("JS exception: %s", tc.message())
	for i, item := range tc.context.stack {
		s := &item.start
		lines[1+i] = fmt.Sprintf(" JS @ %s:%d:%d %s", s.Filename, s.Line, s.Column,
			reflect.TypeOf(item.node).String(),
		)
	}
	return strings.Join(lines, "\n")
}

// ErrorName returns the `name` visible on the thrown value's prototype chain,
// or "" when the value is not an error-like object.
func (tc *ThrowCompletion) ErrorName() string {
	obj, isObj := tc.Value.(*JSObject)
	if !isObj {
		return ""
	}
	for o := obj; o != nil; o = o.prototype {
		if d, ok := o.props.get(NameStr("name")); ok {
			if s, ok := d.Value.(JSString); ok {
				return string(s)
			}
			return ""
		}
	}
	return ""
}

// AsThrow extracts the throw completion from err, if it is one.
func AsThrow(err error) (*ThrowCompletion, bool) {
	var tc *ThrowCompletion
	if errors.As(err, &tc) {
		return tc, true
	}
	return nil, false
}

var ErrNotImplemented = errors.New("not implemented")

// NotImplementedError marks behavior that is intentionally unported, as
// opposed to behavior that is broken.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return "not implemented: " + e.What
}

func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }

func notImplemented(format string, args ...any) error {
	return &NotImplementedError{What: fmt.Sprintf(format, args...)}
}

// must unwraps an operation the algorithm asserts can never complete
// abruptly (the `!` prefix).
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("bug: operation asserted never to complete abruptly: %s", err))
	}
	return v
}

func mustBool(ok bool, err error) {
	if err != nil {
		panic(fmt.Sprintf("bug: operation asserted never to complete abruptly: %s", err))
	}
	if !ok {
		panic("bug: operation asserted to succeed returned false")
	}
}

type ProgramContext struct {
	fileStack []*parserFile.File
	stack     []ContextItem
}

type ContextItem struct {
	file       *parserFile.File
	start, end parserFile.Position
	node       ast.Node
}

func (pctx *ProgramContext) PushFile(file *parserFile.File) {
	pctx.fileStack = append(pctx.fileStack, file)
}

func (pctx *ProgramContext) PopFile(check *parserFile.File) {
	sl := len(pctx.fileStack)
	if sl == 0 {
		panic("bug: ProgramContext: PopFile called on empty stack")
	}
	if pctx.fileStack[sl-1] != check {
		panic("bug: ProgramContext: stack was not managed purely with PushFile/PopFile")
	}
	pctx.fileStack = pctx.fileStack[:sl-1]
}

func (pctx *ProgramContext) Push(node ast.Node) {
	if node == nil || len(pctx.fileStack) == 0 {
		return
	}

	file := pctx.fileStack[len(pctx.fileStack)-1]
	item := ContextItem{
		file: file,
		node: node,
	}
	if file != nil {
		if startp := file.Position(node.Idx0()); startp != nil {
			item.start = *startp
		}
		if endp := file.Position(node.Idx1()); endp != nil {
			item.end = *endp
		}
	}

	pctx.stack = append(pctx.stack, item)
}

func (pctx *ProgramContext) Pop(nodeCheck ast.Node) {
	if nodeCheck == nil || len(pctx.fileStack) == 0 {
		return
	}

	sl := len(pctx.stack)
	if sl == 0 {
		panic("bug: ProgramContext.Pop but stack already empty")
	}
	if nodeCheck != pctx.stack[sl-1].node {
		panic("bug: nodeCheck != stack top")
	}
	pctx.stack = pctx.stack[:sl-1]
}

// snapshot copies the node stack so a throw completion keeps the trace at
// the point it was raised.
func (pctx *ProgramContext) snapshot() ProgramContext {
	stack := make([]ContextItem, len(pctx.stack))
	copy(stack, pctx.stack)
	return ProgramContext{stack: stack}
}

func mustOK(err error) {
	if err != nil {
		panic(fmt.Sprintf("bug: operation asserted never to complete abruptly: %s", err))
	}
}
