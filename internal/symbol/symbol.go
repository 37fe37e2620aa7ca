// Package symbol defines the extracted API surface model: a closed set of
// symbol variants discriminated by kind, serialized to snake_case JSON.
package symbol

import (
	"sort"
	"strings"
)

// Kind discriminates the symbol variants.
type Kind string

const (
	KindModule    Kind = "module"
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindConstant  Kind = "constant"
	KindTypeAlias Kind = "type_alias"
)

// Visibility of a name in the API surface.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// ParamKind classifies how a parameter binds its argument.
type ParamKind string

const (
	ParamPosOnly ParamKind = "posonly" // before a `/` separator
	ParamPos     ParamKind = "pos"     // positional-or-keyword
	ParamKwOnly  ParamKind = "kwonly"  // after a bare `*` or `*args`
	ParamVarArg  ParamKind = "vararg"  // *args
	ParamKwVar   ParamKind = "kwvar"   // **kwargs
)

// Location pinpoints a symbol in its source file. Line is 1-based,
// Column 0-based.
type Location struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Info is the part shared by every symbol kind. Variants embed it, so the
// common fields serialize inline.
type Info struct {
	Kind     Kind     `json:"kind"`
	FQN      string   `json:"fqn"`
	Location Location `json:"location"`
}

// Common returns the shared fields; embedding Info makes a variant a Symbol.
func (i Info) Common() Info { return i }

// Symbol is one extracted API entity. The concrete types are exactly
// Module, Function, Class, Constant, and TypeAlias; consumers switch on
// Common().Kind or on the concrete type.
type Symbol interface {
	Common() Info
}

// Module is the per-file symbol carrying the module docstring.
type Module struct {
	Info
	Docstring *string `json:"docstring"`
}

// Parameter is one declared function parameter.
type Parameter struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Kind     ParamKind `json:"kind"`
	Default  *string   `json:"default"`
	Required bool      `json:"required"`
}

// Function is a module-level function or a class method.
type Function struct {
	Info
	Parameters     []Parameter `json:"parameters"`
	Returns        *string     `json:"returns"`
	Docstring      *string     `json:"docstring"`
	Decorators     []string    `json:"decorators"`
	Visibility     Visibility  `json:"visibility"`
	Deprecated     bool        `json:"deprecated"`
	IsAsync        bool        `json:"is_async"`
	Owner          *string     `json:"owner"`
	IsClassmethod  bool        `json:"is_classmethod"`
	IsStaticmethod bool        `json:"is_staticmethod"`
	IsProperty     bool        `json:"is_property"`
	Raises         []string    `json:"raises"`
	OverloadOf     *string     `json:"overload_of"`
}

// Class is a class definition. Bases holds the raw base-expression text;
// BaseFQNs is filled by the linker with the resolved subset.
type Class struct {
	Info
	Docstring   *string    `json:"docstring"`
	Decorators  []string   `json:"decorators"`
	Visibility  Visibility `json:"visibility"`
	Deprecated  bool       `json:"deprecated"`
	Bases       []string   `json:"bases"`
	BaseFQNs    []string   `json:"base_fqns"`
	IsException bool       `json:"is_exception"`
	IsEnum      bool       `json:"is_enum"`
	IsProtocol  bool       `json:"is_protocol"`
}

// Constant is a module- or class-level assignment to a single name.
type Constant struct {
	Info
	Owner      string     `json:"owner"`
	Type       *string    `json:"type"`
	Value      *string    `json:"value"`
	Visibility Visibility `json:"visibility"`
	Deprecated bool       `json:"deprecated"`
}

// TypeAlias is an annotated `name: TypeAlias = target` assignment or a
// `type name = target` statement.
type TypeAlias struct {
	Info
	Target string `json:"target"`
}

// SortByFQN sorts symbols by FQN. The sort is stable so that symbols
// sharing an FQN (overload stubs before their implementation) keep their
// extraction order.
func SortByFQN(syms []Symbol) {
	sort.SliceStable(syms, func(i, j int) bool {
		return syms[i].Common().FQN < syms[j].Common().FQN
	})
}

// SimpleName returns the last dotted segment of an FQN.
func SimpleName(fqn string) string {
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// VisibilityOf applies the leading-underscore convention.
func VisibilityOf(name string) Visibility {
	if strings.HasPrefix(name, "_") {
		return Private
	}
	return Public
}
