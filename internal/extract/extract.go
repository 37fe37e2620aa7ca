package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/apictx/apictx/internal/parser"
	"github.com/apictx/apictx/internal/symbol"
)

// File walks one parsed module tree and returns its symbols sorted by FQN.
// The module symbol itself always comes out of the walk; definitions nested
// inside function bodies never do.
func File(root *tree_sitter.Node, source []byte, moduleFQN, path string) []symbol.Symbol {
	e := &extractor{
		source:  source,
		path:    path,
		module:  moduleFQN,
		exports: scanExports(root, source),
	}

	mod := symbol.Module{
		Info: symbol.Info{
			Kind:     symbol.KindModule,
			FQN:      moduleFQN,
			Location: symbol.Location{Path: path, Line: 1, Column: 0},
		},
		Docstring: textPtr(docstringOf(root, source)),
	}
	e.syms = append(e.syms, mod)

	for i := uint(0); i < root.NamedChildCount(); i++ {
		if stmt := root.NamedChild(i); stmt != nil {
			e.statement(stmt, "")
		}
	}

	symbol.SortByFQN(e.syms)
	return e.syms
}

type extractor struct {
	source  []byte
	path    string
	module  string
	exports map[string]bool // nil when the module declares no __all__
	syms    []symbol.Symbol
}

// statement dispatches one block-level statement. owner is the enclosing
// class FQN, or "" at module scope.
func (e *extractor) statement(stmt *tree_sitter.Node, owner string) {
	switch stmt.Kind() {
	case "function_definition":
		e.function(stmt, nil, owner)
	case "class_definition":
		e.class(stmt, nil, owner)
	case "decorated_definition":
		e.decorated(stmt, owner)
	case "expression_statement":
		e.assignment(stmt, owner)
	case "type_alias_statement":
		e.typeAlias(stmt, owner)
	}
}

func (e *extractor) decorated(node *tree_sitter.Node, owner string) {
	var decorators []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Kind() != "decorator" {
			continue
		}
		if expr := child.NamedChild(0); expr != nil {
			decorators = append(decorators, parser.NodeText(expr, e.source))
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Kind() {
	case "function_definition":
		e.function(def, decorators, owner)
	case "class_definition":
		e.class(def, decorators, owner)
	}
}

func (e *extractor) function(node *tree_sitter.Node, decorators []string, owner string) {
	name := parser.FieldText(node, "name", e.source)
	if name == "" {
		return
	}

	fn := symbol.Function{
		Info:       e.info(symbol.KindFunction, e.scope(owner)+"."+name, node),
		Parameters: e.parameters(node.ChildByFieldName("parameters")),
		Decorators: textList(decorators),
		Visibility: e.visibility(name, owner),
		IsAsync:    isAsync(node),
		Raises:     []string{},
	}
	if owner != "" {
		fn.Owner = &owner
	}
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		fn.Returns = textPtr(parser.NodeText(rt, e.source))
	}

	doc := docstringOf(node.ChildByFieldName("body"), e.source)
	fn.Docstring = textPtr(doc)
	if doc != "" {
		if raises := raisesFromDocstring(doc); len(raises) > 0 {
			fn.Raises = raises
		}
		if docstringDeprecated(doc) {
			fn.Deprecated = true
		}
	}

	for _, d := range decorators {
		switch trailingIdent(d) {
		case "property":
			fn.IsProperty = true
		case "classmethod":
			fn.IsClassmethod = true
		case "staticmethod":
			fn.IsStaticmethod = true
		case "overload":
			fqn := fn.FQN
			fn.OverloadOf = &fqn
		}
		if strings.Contains(strings.ToLower(d), "deprecated") {
			fn.Deprecated = true
		}
	}

	e.syms = append(e.syms, fn)
}

// parameters flattens a parameter list into the five calling-convention
// kinds. A bare "/" retroactively marks everything before it as
// positional-only; "*" or "*args" switches later named parameters to
// keyword-only.
func (e *extractor) parameters(params *tree_sitter.Node) []symbol.Parameter {
	out := []symbol.Parameter{}
	if params == nil {
		return out
	}

	kind := symbol.ParamPos
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "positional_separator":
			for j := range out {
				if out[j].Kind == symbol.ParamPos {
					out[j].Kind = symbol.ParamPosOnly
				}
			}
		case "keyword_separator":
			kind = symbol.ParamKwOnly
		case "identifier":
			out = append(out, newParam(parser.NodeText(child, e.source), "", kind, nil))
		case "typed_parameter":
			pattern := child.NamedChild(0)
			if pattern == nil {
				continue
			}
			typ := parser.FieldText(child, "type", e.source)
			switch pattern.Kind() {
			case "identifier":
				out = append(out, newParam(parser.NodeText(pattern, e.source), typ, kind, nil))
			case "list_splat_pattern":
				out = append(out, newParam(splatName(pattern, e.source), typ, symbol.ParamVarArg, nil))
				kind = symbol.ParamKwOnly
			case "dictionary_splat_pattern":
				out = append(out, newParam(splatName(pattern, e.source), typ, symbol.ParamKwVar, nil))
			}
		case "default_parameter":
			value := parser.FieldText(child, "value", e.source)
			out = append(out, newParam(parser.FieldText(child, "name", e.source), "", kind, &value))
		case "typed_default_parameter":
			value := parser.FieldText(child, "value", e.source)
			typ := parser.FieldText(child, "type", e.source)
			out = append(out, newParam(parser.FieldText(child, "name", e.source), typ, kind, &value))
		case "list_splat_pattern":
			out = append(out, newParam(splatName(child, e.source), "", symbol.ParamVarArg, nil))
			kind = symbol.ParamKwOnly
		case "dictionary_splat_pattern":
			out = append(out, newParam(splatName(child, e.source), "", symbol.ParamKwVar, nil))
		}
	}
	return out
}

func newParam(name, typ string, kind symbol.ParamKind, def *string) symbol.Parameter {
	required := def == nil &&
		(kind == symbol.ParamPosOnly || kind == symbol.ParamPos || kind == symbol.ParamKwOnly)
	return symbol.Parameter{Name: name, Type: typ, Kind: kind, Default: def, Required: required}
}

// splatName returns the identifier inside *args / **kwargs patterns.
func splatName(pattern *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < pattern.NamedChildCount(); i++ {
		child := pattern.NamedChild(i)
		if child != nil && child.Kind() == "identifier" {
			return parser.NodeText(child, source)
		}
	}
	return strings.TrimLeft(parser.NodeText(pattern, source), "*")
}

func (e *extractor) class(node *tree_sitter.Node, decorators []string, owner string) {
	name := parser.FieldText(node, "name", e.source)
	if name == "" {
		return
	}
	classFQN := e.scope(owner) + "." + name

	bases := []string{}
	if args := node.ChildByFieldName("superclasses"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			child := args.NamedChild(i)
			if child == nil || child.Kind() == "keyword_argument" || child.Kind() == "comment" {
				continue
			}
			bases = append(bases, parser.NodeText(child, e.source))
		}
	}

	cls := symbol.Class{
		Info:       e.info(symbol.KindClass, classFQN, node),
		Decorators: textList(decorators),
		Visibility: e.visibility(name, owner),
		Bases:      bases,
		BaseFQNs:   []string{},
	}

	doc := docstringOf(node.ChildByFieldName("body"), e.source)
	cls.Docstring = textPtr(doc)
	if doc != "" && docstringDeprecated(doc) {
		cls.Deprecated = true
	}
	for _, d := range decorators {
		if strings.Contains(strings.ToLower(d), "deprecated") {
			cls.Deprecated = true
		}
	}

	for _, b := range bases {
		t := strings.ToLower(stripSubscript(b))
		if strings.Contains(t, "exception") || strings.HasSuffix(t, "baseexception") {
			cls.IsException = true
		}
		if strings.HasSuffix(t, "enum.enum") || strings.HasSuffix(t, "enum") {
			cls.IsEnum = true
		}
		if strings.HasSuffix(t, "typing.protocol") || strings.HasSuffix(t, "protocol") {
			cls.IsProtocol = true
		}
	}

	e.syms = append(e.syms, cls)

	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			if stmt := body.NamedChild(i); stmt != nil {
				e.statement(stmt, classFQN)
			}
		}
	}
}

// assignment turns `NAME = value`, `NAME: T = value` and `NAME: TypeAlias = T`
// statements into constant or type-alias symbols. Only single simple-name
// targets count; attribute, tuple and chained targets are skipped.
func (e *extractor) assignment(stmt *tree_sitter.Node, owner string) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	node := stmt.NamedChild(0)
	if node == nil || node.Kind() != "assignment" {
		return
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	right := node.ChildByFieldName("right")
	if right != nil && right.Kind() == "assignment" {
		return
	}
	name := parser.NodeText(left, e.source)
	typeNode := node.ChildByFieldName("type")

	if typeNode != nil && trailingIdent(parser.NodeText(typeNode, e.source)) == "TypeAlias" {
		target := ""
		if right != nil {
			target = parser.NodeText(right, e.source)
		}
		e.syms = append(e.syms, symbol.TypeAlias{
			Info:   e.info(symbol.KindTypeAlias, e.scope(owner)+"."+name, node),
			Target: target,
		})
		return
	}

	c := symbol.Constant{
		Info:       e.info(symbol.KindConstant, e.scope(owner)+"."+name, node),
		Owner:      e.scope(owner),
		Visibility: e.visibility(name, owner),
	}
	if typeNode != nil {
		c.Type = textPtr(parser.NodeText(typeNode, e.source))
	}
	if right != nil {
		c.Value = textPtr(parser.NodeText(right, e.source))
	}
	e.syms = append(e.syms, c)
}

// typeAlias handles PEP 695 `type X = T` statements. The node carries two
// type children: the alias head (possibly with type parameters) and the value.
func (e *extractor) typeAlias(stmt *tree_sitter.Node, owner string) {
	if stmt.NamedChildCount() < 2 {
		return
	}
	head := stmt.NamedChild(0)
	value := stmt.NamedChild(1)
	if head == nil || value == nil {
		return
	}
	name := stripSubscript(parser.NodeText(head, e.source))
	if name == "" {
		return
	}
	e.syms = append(e.syms, symbol.TypeAlias{
		Info:   e.info(symbol.KindTypeAlias, e.scope(owner)+"."+name, stmt),
		Target: parser.NodeText(value, e.source),
	})
}

// scope returns the FQN prefix for names defined under owner.
func (e *extractor) scope(owner string) string {
	if owner != "" {
		return owner
	}
	return e.module
}

// visibility applies the __all__ override at module scope and the
// leading-underscore rule everywhere else.
func (e *extractor) visibility(name, owner string) symbol.Visibility {
	if owner == "" && e.exports != nil {
		if e.exports[name] {
			return symbol.Public
		}
		return symbol.Private
	}
	return symbol.VisibilityOf(name)
}

func (e *extractor) info(kind symbol.Kind, fqn string, node *tree_sitter.Node) symbol.Info {
	pos := node.StartPosition()
	return symbol.Info{
		Kind: kind,
		FQN:  fqn,
		Location: symbol.Location{
			Path:   e.path,
			Line:   int(pos.Row) + 1,
			Column: int(pos.Column),
		},
	}
}

// scanExports finds a literal `__all__ = [...]` (or tuple) at module scope.
// Returns nil when the module declares no export list; an empty declared
// list still overrides underscore visibility.
func scanExports(root *tree_sitter.Node, source []byte) map[string]bool {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt == nil || stmt.Kind() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" || parser.NodeText(left, source) != "__all__" {
			continue
		}
		right := assign.ChildByFieldName("right")
		if right == nil || (right.Kind() != "list" && right.Kind() != "tuple") {
			continue
		}
		exports := make(map[string]bool)
		for j := uint(0); j < right.NamedChildCount(); j++ {
			el := right.NamedChild(j)
			if el == nil || el.Kind() != "string" {
				continue
			}
			if s := stringLiteralText(el, source); s != "" {
				exports[s] = true
			}
		}
		return exports
	}
	return nil
}

// docstringOf returns the cleaned leading string literal of a module root or
// a definition body block, or "" when there is none.
func docstringOf(block *tree_sitter.Node, source []byte) string {
	if block == nil {
		return ""
	}
	var first *tree_sitter.Node
	for i := uint(0); i < block.NamedChildCount(); i++ {
		child := block.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		first = child
		break
	}
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return cleanDocstring(stringLiteralText(str, source))
}

// stringLiteralText returns the content of a string literal node without
// quotes or prefixes.
func stringLiteralText(node *tree_sitter.Node, source []byte) string {
	var b strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "string_content" {
			b.WriteString(parser.NodeText(child, source))
		}
	}
	return b.String()
}

func isAsync(node *tree_sitter.Node) bool {
	first := node.Child(0)
	return first != nil && first.Kind() == "async"
}

// trailingIdent reduces a decorator expression to its trailing identifier:
// call arguments are dropped, then the segment after the last dot.
func trailingIdent(expr string) string {
	if i := strings.Index(expr, "("); i >= 0 {
		expr = expr[:i]
	}
	expr = strings.TrimSpace(expr)
	if i := strings.LastIndex(expr, "."); i >= 0 {
		expr = expr[i+1:]
	}
	return expr
}

func stripSubscript(s string) string {
	if i := strings.Index(s, "["); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func textPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
