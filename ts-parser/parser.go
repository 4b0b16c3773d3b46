// Package tsparser checks that a script parses under the full modern
// JavaScript grammar, independently of the evaluator's ES5 parser.
package tsparser

import (
	"context"
	"errors"
	"fmt"
	"io"

	ts "github.com/smacker/go-tree-sitter"
	javascript "github.com/smacker/go-tree-sitter/javascript"
)

var ErrParse = errors.New("parse error")

func ParseReader(path string, rdr io.Reader) (err error) {
	bytes, err := io.ReadAll(rdr)
	if err == nil {
		err = ParseBytes(path, bytes)
	}
	return
}

// ParseBytes reports the first ERROR or MISSING node of the tree, wrapped
// around ErrParse.
func ParseBytes(path string, bytes []byte) (err error) {
	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	ctx := context.TODO()
	tree, err := parser.ParseCtx(ctx, nil, bytes)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	if bad := firstErrorNode(root); bad != nil {
		pos := bad.StartPoint()
		return fmt.Errorf("%s:%d:%d: %w", path, pos.Row+1, pos.Column+1, ErrParse)
	}
	return fmt.Errorf("%s: %w", path, ErrParse)
}

func firstErrorNode(n *ts.Node) *ts.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstErrorNode(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
