// Package parser wraps tree-sitter for Python source files.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var (
	languageOnce sync.Once
	language     *tree_sitter.Language
	parserPool   *sync.Pool
)

func initLanguage() {
	languageOnce.Do(func() {
		language = tree_sitter.NewLanguage(tree_sitter_python.Language())
		parserPool = &sync.Pool{
			New: func() any {
				p := tree_sitter.NewParser()
				if err := p.SetLanguage(language); err != nil {
					panic(fmt.Sprintf("set language: %v", err))
				}
				return p
			},
		}
	})
}

// Language returns the tree-sitter Python language.
func Language() *tree_sitter.Language {
	initLanguage()
	return language
}

// Parse parses Python source into a tree-sitter AST Tree.
// The caller must call tree.Close() when done.
// Parsers are pooled via sync.Pool to avoid per-file allocation.
func Parse(source []byte) (*tree_sitter.Tree, error) {
	initLanguage()

	p, _ := parserPool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, fmt.Errorf("failed to get pooled parser")
	}
	tree := p.Parse(source, nil)
	parserPool.Put(p)

	if tree == nil {
		return nil, fmt.Errorf("parse failed")
	}

	return tree, nil
}

// FirstError returns a diagnostic for the first syntax-error node in the
// tree, or "" when the tree parsed cleanly.
func FirstError(root *tree_sitter.Node) string {
	if root == nil || !root.HasError() {
		return ""
	}

	var diag string
	Walk(root, func(node *tree_sitter.Node) bool {
		if diag != "" {
			return false
		}
		if node.IsError() || node.IsMissing() {
			pos := node.StartPosition()
			what := "syntax error"
			if node.IsMissing() {
				what = "missing " + node.Kind()
			}
			diag = fmt.Sprintf("%s at line %d, column %d", what, pos.Row+1, pos.Column)
			return false
		}
		// Error nodes only occur inside subtrees flagged by HasError.
		return node.HasError()
	})

	if diag == "" {
		diag = "syntax error"
	}
	return diag
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// FieldText returns the text of a node's named field, or "" when absent.
func FieldText(node *tree_sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return NodeText(child, source)
}
