package aotvm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
	"github.com/robertkrimen/otto/parser"
)

// ErrSyntax is matched (errors.Is) by every early error reported by the
// parser or the checker.
var ErrSyntax = errors.New("syntax error")

// Program is a parsed script that passed the early-error checks.
type Program struct {
	AST    *ast.Program
	File   *parserFile.File
	Strict bool
}

// Parse parses and checks a script. src may be a string, a []byte or an
// io.Reader.
func Parse(path string, src any) (*Program, error) {
	program, err := parser.ParseFile(nil, path, src, 0)
	if err != nil {
		return nil, parserError(path, err)
	}
	if err := fixAndCheck(program.File, program, checkOptions{}); err != nil {
		return nil, err
	}
	return &Program{
		AST:    program,
		File:   program.File,
		Strict: hasUseStrict(program.Body),
	}, nil
}

func ParseReader(path string, r io.Reader) (*Program, error) {
	return Parse(path, r)
}

func ParseFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// parserError strips the "path: line:col" prefix otto puts in front of its
// messages.
func parserError(path string, err error) error {
	msg := err.Error()
	msg, found := strings.CutPrefix(msg, path)
	if found {
		msg, _ = strings.CutPrefix(msg, ": ")
		_, msg, _ = strings.Cut(msg, " ")
		_, msg, _ = strings.Cut(msg, " ")
	}
	return fmt.Errorf("%w: %s", ErrSyntax, msg)
}

func hasUseStrict(body []ast.Statement) bool {
	// the directive prologue is the leading run of string literal statements
	for _, stmt := range body {
		es, isES := stmt.(*ast.ExpressionStatement)
		if !isES {
			return false
		}
		lit, isLiteral := es.Expression.(*ast.StringLiteral)
		if !isLiteral {
			return false
		}
		if lit.Value == "use strict" && lit.Literal[1:len(lit.Literal)-1] == "use strict" {
			return true
		}
	}
	return false
}

func functionBody(fl *ast.FunctionLiteral) []ast.Statement {
	if block, isBlock := fl.Body.(*ast.BlockStatement); isBlock && block != nil {
		return block.List
	}
	return nil
}

func parameterNames(fl *ast.FunctionLiteral) []string {
	if fl.ParameterList == nil {
		return nil
	}
	names := make([]string, len(fl.ParameterList.List))
	for i, id := range fl.ParameterList.List {
		names[i] = id.Name
	}
	return names
}

// sourceSlice returns the source text of node inside file.
func sourceSlice(file *parserFile.File, node ast.Node) string {
	if file == nil || nilNode(node) {
		return ""
	}
	src := file.Source()
	start := int(node.Idx0()) - file.Base()
	end := int(node.Idx1()) - file.Base()
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}
