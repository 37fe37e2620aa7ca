package link

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/apictx/apictx/internal/parser"
)

// Aliases maps a module's locally-visible names to imported dotted paths.
type Aliases map[string]string

// ParseImports walks one module tree and binds every import statement.
// Package-local targets are qualified against the run's known module set;
// anything else keeps its verbatim dotted path.
func ParseImports(root *tree_sitter.Node, source []byte, moduleFQN, pkg string, modules map[string]bool) Aliases {
	aliases := Aliases{}
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			importStatement(node, source, pkg, modules, aliases)
			return false
		case "import_from_statement":
			fromImportStatement(node, source, moduleFQN, pkg, modules, aliases)
			return false
		}
		return true
	})
	return aliases
}

// importStatement handles `import a.b.c` and `import a.b as x`. A plain
// import binds the last path segment, an aliased one binds the alias.
func importStatement(node *tree_sitter.Node, source []byte, pkg string, modules map[string]bool, aliases Aliases) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			path := parser.NodeText(child, source)
			if path != "" {
				aliases[lastSegment(path)] = qualify(path, pkg, modules)
			}
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			path := parser.NodeText(name, source)
			if path != "" {
				aliases[parser.NodeText(alias, source)] = qualify(path, pkg, modules)
			}
		}
	}
}

// fromImportStatement handles `from M import a, b as c` including relative
// forms. Each imported name binds to base_module + "." + name; wildcard
// imports bind nothing.
func fromImportStatement(node *tree_sitter.Node, source []byte, moduleFQN, pkg string, modules map[string]bool, aliases Aliases) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}

	var base string
	switch moduleNode.Kind() {
	case "relative_import":
		base = resolveRelative(parser.NodeText(moduleNode, source), moduleFQN)
	case "dotted_name":
		base = qualify(parser.NodeText(moduleNode, source), pkg, modules)
	}
	if base == "" {
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := parser.NodeText(child, source)
			if name != "" {
				aliases[lastSegment(name)] = base + "." + name
			}
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			if nameNode == nil || aliasNode == nil {
				continue
			}
			name := parser.NodeText(nameNode, source)
			if name != "" {
				aliases[parser.NodeText(aliasNode, source)] = base + "." + name
			}
		}
	}
}

// resolveRelative maps a relative module reference onto the importing
// module's FQN parents: one leading dot drops the module leaf, each extra
// dot ascends one more level. Returns "" when the dots walk past the root.
func resolveRelative(ref, moduleFQN string) string {
	dots := 0
	for dots < len(ref) && ref[dots] == '.' {
		dots++
	}
	if dots == 0 {
		return ""
	}
	rest := ref[dots:]

	parts := strings.Split(moduleFQN, ".")
	if dots >= len(parts) {
		return ""
	}
	base := strings.Join(parts[:len(parts)-dots], ".")
	if rest != "" {
		base += "." + rest
	}
	return base
}

// qualify resolves a dotted import path against the run's module set:
// package-local modules gain the package prefix, everything else keeps
// its verbatim path.
func qualify(path, pkg string, modules map[string]bool) string {
	if modules[pkg+"."+path] {
		return pkg + "." + path
	}
	return path
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
