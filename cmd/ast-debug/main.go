// ast-debug prints the tree-sitter CST of a Python file. Developer tool
// for checking node kinds and field names against the grammar.
package main

import (
	"fmt"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/apictx/apictx/internal/parser"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := parser.NodeText(node, source)
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: ast-debug FILE")
		os.Exit(2)
	}

	source, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	tree, err := parser.Parse(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer tree.Close()

	printAST(tree.RootNode(), source, 0)
	if diag := parser.FirstError(tree.RootNode()); diag != "" {
		fmt.Println("!!", diag)
	}
}
