package aotvm

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/robertkrimen/otto/ast"
	parserFile "github.com/robertkrimen/otto/file"
)

// PrintAST parses a script and writes one line per AST node to w, indented
// by depth, with the node's position and (single-line) source text.
func PrintAST(w io.Writer, path string, src any) error {
	program, err := Parse(path, src)
	if err != nil {
		return err
	}
	walker := &printer{
		out:  w,
		file: program.File,
	}
	ast.Walk(walker, program.AST)
	return walker.err
}

type printer struct {
	out    io.Writer
	file   *parserFile.File
	indent int
	err    error
}

func (p *printer) Enter(n ast.Node) (v ast.Visitor) {
	p.indent++
	if nilNode(n) || p.err != nil {
		return p
	}

	subSrc := sourceSlice(p.file, n)
	if strings.Contains(subSrc, "\n") {
		subSrc = ""
	}
	pos := "?"
	if position := p.file.Position(n.Idx0()); position != nil {
		pos = position.String()
	}

	_, p.err = fmt.Fprintf(p.out, "%s%s:  %s  %s\n",
		strings.Repeat("|   ", p.indent-1),
		reflect.TypeOf(n).String(), pos, subSrc)
	return p
}

func (p *printer) Exit(n ast.Node) {
	p.indent--
}
