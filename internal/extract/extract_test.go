package extract

import (
	"testing"

	"github.com/apictx/apictx/internal/parser"
	"github.com/apictx/apictx/internal/symbol"
)

func extractSource(t *testing.T, source string) []symbol.Symbol {
	t.Helper()
	tree, err := parser.Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	t.Cleanup(func() { tree.Close() })
	return File(tree.RootNode(), []byte(source), "pkg.mod", "pkg/mod.py")
}

func fqnsOf(syms []symbol.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Common().FQN
	}
	return out
}

func findSymbol(t *testing.T, syms []symbol.Symbol, fqn string) symbol.Symbol {
	t.Helper()
	for _, s := range syms {
		if s.Common().FQN == fqn {
			return s
		}
	}
	t.Fatalf("symbol %s not found in %v", fqn, fqnsOf(syms))
	return nil
}

func hasSymbol(syms []symbol.Symbol, fqn string) bool {
	for _, s := range syms {
		if s.Common().FQN == fqn {
			return true
		}
	}
	return false
}

func findFunction(t *testing.T, syms []symbol.Symbol, fqn string) symbol.Function {
	t.Helper()
	fn, ok := findSymbol(t, syms, fqn).(symbol.Function)
	if !ok {
		t.Fatalf("%s is not a function", fqn)
	}
	return fn
}

func findClass(t *testing.T, syms []symbol.Symbol, fqn string) symbol.Class {
	t.Helper()
	cls, ok := findSymbol(t, syms, fqn).(symbol.Class)
	if !ok {
		t.Fatalf("%s is not a class", fqn)
	}
	return cls
}

func findConstant(t *testing.T, syms []symbol.Symbol, fqn string) symbol.Constant {
	t.Helper()
	c, ok := findSymbol(t, syms, fqn).(symbol.Constant)
	if !ok {
		t.Fatalf("%s is not a constant", fqn)
	}
	return c
}

func TestModuleSymbol(t *testing.T) {
	syms := extractSource(t, "\"\"\"Module docs.\"\"\"\n\nx = 1\n")

	mod, ok := findSymbol(t, syms, "pkg.mod").(symbol.Module)
	if !ok {
		t.Fatal("pkg.mod is not a module symbol")
	}
	if mod.Kind != symbol.KindModule {
		t.Errorf("kind = %q, want module", mod.Kind)
	}
	if mod.Docstring == nil || *mod.Docstring != "Module docs." {
		t.Errorf("docstring = %v, want Module docs.", mod.Docstring)
	}
	if mod.Location.Path != "pkg/mod.py" || mod.Location.Line != 1 || mod.Location.Column != 0 {
		t.Errorf("location = %+v", mod.Location)
	}
}

func TestFunctionBasics(t *testing.T) {
	syms := extractSource(t, `def add(a, b):
    """Add two numbers."""
    return a + b
`)

	fn := findFunction(t, syms, "pkg.mod.add")
	if fn.Kind != symbol.KindFunction {
		t.Errorf("kind = %q, want function", fn.Kind)
	}
	if fn.Visibility != symbol.Public {
		t.Errorf("visibility = %q, want public", fn.Visibility)
	}
	if fn.Owner != nil {
		t.Errorf("owner = %v, want nil at module scope", *fn.Owner)
	}
	if fn.Docstring == nil || *fn.Docstring != "Add two numbers." {
		t.Errorf("docstring = %v", fn.Docstring)
	}
	if fn.Raises == nil || len(fn.Raises) != 0 {
		t.Errorf("raises = %v, want empty non-nil", fn.Raises)
	}
	if fn.Returns != nil {
		t.Errorf("returns = %v, want nil", *fn.Returns)
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("got %d parameters, want 2", len(fn.Parameters))
	}
	if fn.Location.Line != 1 {
		t.Errorf("line = %d, want 1", fn.Location.Line)
	}
}

func TestParameterKinds(t *testing.T) {
	syms := extractSource(t, `def f(a, b, /, c, d=1, *args, e, g=2, **kwargs):
    pass
`)

	fn := findFunction(t, syms, "pkg.mod.f")
	want := []struct {
		name     string
		kind     symbol.ParamKind
		def      string // "" means no default
		required bool
	}{
		{"a", symbol.ParamPosOnly, "", true},
		{"b", symbol.ParamPosOnly, "", true},
		{"c", symbol.ParamPos, "", true},
		{"d", symbol.ParamPos, "1", false},
		{"args", symbol.ParamVarArg, "", false},
		{"e", symbol.ParamKwOnly, "", true},
		{"g", symbol.ParamKwOnly, "2", false},
		{"kwargs", symbol.ParamKwVar, "", false},
	}
	if len(fn.Parameters) != len(want) {
		t.Fatalf("got %d parameters %v, want %d", len(fn.Parameters), fn.Parameters, len(want))
	}
	for i, w := range want {
		p := fn.Parameters[i]
		if p.Name != w.name || p.Kind != w.kind || p.Required != w.required {
			t.Errorf("param %d = %+v, want %+v", i, p, w)
		}
		if w.def == "" && p.Default != nil {
			t.Errorf("param %s default = %q, want none", w.name, *p.Default)
		}
		if w.def != "" && (p.Default == nil || *p.Default != w.def) {
			t.Errorf("param %s default = %v, want %q", w.name, p.Default, w.def)
		}
	}
}

func TestTypedParameters(t *testing.T) {
	syms := extractSource(t, `def g(x: int, y: str = "s", *args: int, z: bool = True, **kw: object) -> bytes:
    pass
`)

	fn := findFunction(t, syms, "pkg.mod.g")
	if fn.Returns == nil || *fn.Returns != "bytes" {
		t.Errorf("returns = %v, want bytes", fn.Returns)
	}

	want := []struct {
		name string
		typ  string
		kind symbol.ParamKind
	}{
		{"x", "int", symbol.ParamPos},
		{"y", "str", symbol.ParamPos},
		{"args", "int", symbol.ParamVarArg},
		{"z", "bool", symbol.ParamKwOnly},
		{"kw", "object", symbol.ParamKwVar},
	}
	if len(fn.Parameters) != len(want) {
		t.Fatalf("got %d parameters %v, want %d", len(fn.Parameters), fn.Parameters, len(want))
	}
	for i, w := range want {
		p := fn.Parameters[i]
		if p.Name != w.name || p.Type != w.typ || p.Kind != w.kind {
			t.Errorf("param %d = %+v, want %+v", i, p, w)
		}
	}
	if y := fn.Parameters[1]; y.Default == nil || *y.Default != `"s"` {
		t.Errorf("y default = %v, want \"s\" with quotes", y.Default)
	}
}

func TestBareKeywordSeparator(t *testing.T) {
	syms := extractSource(t, "def h(a, *, b):\n    pass\n")

	fn := findFunction(t, syms, "pkg.mod.h")
	if len(fn.Parameters) != 2 {
		t.Fatalf("got %d parameters, want 2", len(fn.Parameters))
	}
	if fn.Parameters[0].Kind != symbol.ParamPos {
		t.Errorf("a kind = %q, want pos", fn.Parameters[0].Kind)
	}
	if fn.Parameters[1].Kind != symbol.ParamKwOnly || !fn.Parameters[1].Required {
		t.Errorf("b = %+v, want required kwonly", fn.Parameters[1])
	}
}

func TestAsyncFunction(t *testing.T) {
	syms := extractSource(t, "async def fetch(url):\n    pass\n")

	fn := findFunction(t, syms, "pkg.mod.fetch")
	if !fn.IsAsync {
		t.Error("IsAsync = false, want true")
	}
}

func TestMethodOwnerAndVisibility(t *testing.T) {
	syms := extractSource(t, `class C:
    def pub(self):
        pass

    def _priv(self):
        pass
`)

	pub := findFunction(t, syms, "pkg.mod.C.pub")
	if pub.Owner == nil || *pub.Owner != "pkg.mod.C" {
		t.Errorf("pub owner = %v, want pkg.mod.C", pub.Owner)
	}
	if pub.Visibility != symbol.Public {
		t.Errorf("pub visibility = %q", pub.Visibility)
	}

	priv := findFunction(t, syms, "pkg.mod.C._priv")
	if priv.Visibility != symbol.Private {
		t.Errorf("_priv visibility = %q, want private", priv.Visibility)
	}
}

func TestMethodDecorators(t *testing.T) {
	syms := extractSource(t, `class C:
    @property
    def value(self):
        return 1

    @staticmethod
    def util():
        pass

    @classmethod
    def create(cls):
        pass
`)

	if fn := findFunction(t, syms, "pkg.mod.C.value"); !fn.IsProperty {
		t.Error("value: IsProperty = false")
	}
	if fn := findFunction(t, syms, "pkg.mod.C.util"); !fn.IsStaticmethod {
		t.Error("util: IsStaticmethod = false")
	}
	fn := findFunction(t, syms, "pkg.mod.C.create")
	if !fn.IsClassmethod {
		t.Error("create: IsClassmethod = false")
	}
	if len(fn.Decorators) != 1 || fn.Decorators[0] != "classmethod" {
		t.Errorf("create decorators = %v", fn.Decorators)
	}
}

func TestOverloadStubs(t *testing.T) {
	syms := extractSource(t, `from typing import overload

@overload
def f(x: int) -> int: ...

@overload
def f(x: str) -> str: ...

def f(x):
    return x
`)

	var fs []symbol.Function
	for _, s := range syms {
		if fn, ok := s.(symbol.Function); ok && fn.FQN == "pkg.mod.f" {
			fs = append(fs, fn)
		}
	}
	if len(fs) != 3 {
		t.Fatalf("got %d occurrences of pkg.mod.f, want 3", len(fs))
	}
	// Stable sort keeps extraction order: stubs first, implementation last.
	for i := 0; i < 2; i++ {
		if fs[i].OverloadOf == nil || *fs[i].OverloadOf != "pkg.mod.f" {
			t.Errorf("stub %d OverloadOf = %v, want pkg.mod.f", i, fs[i].OverloadOf)
		}
	}
	if fs[2].OverloadOf != nil {
		t.Errorf("implementation OverloadOf = %v, want nil", *fs[2].OverloadOf)
	}
}

func TestDeprecatedDecorator(t *testing.T) {
	syms := extractSource(t, `@warnings.deprecated("use new_fn")
def old_fn():
    pass
`)

	fn := findFunction(t, syms, "pkg.mod.old_fn")
	if !fn.Deprecated {
		t.Error("Deprecated = false, want true")
	}
	if len(fn.Decorators) != 1 || fn.Decorators[0] != `warnings.deprecated("use new_fn")` {
		t.Errorf("decorators = %v", fn.Decorators)
	}
}

func TestDeprecatedDocstring(t *testing.T) {
	syms := extractSource(t, `def old():
    """Old helper.

    Deprecated: call new() instead.
    """
    pass
`)

	if fn := findFunction(t, syms, "pkg.mod.old"); !fn.Deprecated {
		t.Error("Deprecated = false, want true")
	}
}

func TestExportListOverride(t *testing.T) {
	syms := extractSource(t, `__all__ = ["_hidden", "shown"]

def _hidden():
    pass

def shown():
    pass

def not_listed():
    pass

class C:
    def m(self):
        pass
`)

	if fn := findFunction(t, syms, "pkg.mod._hidden"); fn.Visibility != symbol.Public {
		t.Errorf("_hidden visibility = %q, want public (listed)", fn.Visibility)
	}
	if fn := findFunction(t, syms, "pkg.mod.shown"); fn.Visibility != symbol.Public {
		t.Errorf("shown visibility = %q, want public", fn.Visibility)
	}
	if fn := findFunction(t, syms, "pkg.mod.not_listed"); fn.Visibility != symbol.Private {
		t.Errorf("not_listed visibility = %q, want private (unlisted)", fn.Visibility)
	}
	// The export list never reaches class members.
	if fn := findFunction(t, syms, "pkg.mod.C.m"); fn.Visibility != symbol.Public {
		t.Errorf("C.m visibility = %q, want public", fn.Visibility)
	}
}

func TestEmptyExportList(t *testing.T) {
	syms := extractSource(t, "__all__ = []\n\ndef f():\n    pass\n")

	if fn := findFunction(t, syms, "pkg.mod.f"); fn.Visibility != symbol.Private {
		t.Errorf("visibility = %q, want private under empty export list", fn.Visibility)
	}
}

func TestClassBasesAndFlags(t *testing.T) {
	syms := extractSource(t, `import enum
from typing import Protocol, TypeVar

T = TypeVar("T")

class Base:
    pass

class MyError(Exception):
    pass

class Color(enum.Enum):
    RED = 1

class Reader(Protocol[T]):
    def read(self) -> bytes: ...

class Sub(Base, metaclass=type):
    pass
`)

	if cls := findClass(t, syms, "pkg.mod.MyError"); !cls.IsException {
		t.Error("MyError: IsException = false")
	}
	color := findClass(t, syms, "pkg.mod.Color")
	if !color.IsEnum {
		t.Error("Color: IsEnum = false")
	}
	if cls := findClass(t, syms, "pkg.mod.Reader"); !cls.IsProtocol {
		t.Error("Reader: IsProtocol = false")
	}

	sub := findClass(t, syms, "pkg.mod.Sub")
	if len(sub.Bases) != 1 || sub.Bases[0] != "Base" {
		t.Errorf("Sub bases = %v, want [Base] (keyword args dropped)", sub.Bases)
	}
	if sub.BaseFQNs == nil || len(sub.BaseFQNs) != 0 {
		t.Errorf("Sub base_fqns = %v, want empty before linking", sub.BaseFQNs)
	}

	red := findConstant(t, syms, "pkg.mod.Color.RED")
	if red.Owner != "pkg.mod.Color" {
		t.Errorf("RED owner = %q, want pkg.mod.Color", red.Owner)
	}
	if red.Value == nil || *red.Value != "1" {
		t.Errorf("RED value = %v, want 1", red.Value)
	}
}

func TestConstants(t *testing.T) {
	syms := extractSource(t, `MAX_SIZE: int = 100
NAME = "apictx"
_internal = 1
a = b = 2
x, y = 1, 2
obj.attr = 5
`)

	mx := findConstant(t, syms, "pkg.mod.MAX_SIZE")
	if mx.Type == nil || *mx.Type != "int" {
		t.Errorf("MAX_SIZE type = %v, want int", mx.Type)
	}
	if mx.Value == nil || *mx.Value != "100" {
		t.Errorf("MAX_SIZE value = %v, want 100", mx.Value)
	}
	if mx.Owner != "pkg.mod" {
		t.Errorf("MAX_SIZE owner = %q, want pkg.mod", mx.Owner)
	}

	name := findConstant(t, syms, "pkg.mod.NAME")
	if name.Value == nil || *name.Value != `"apictx"` {
		t.Errorf("NAME value = %v", name.Value)
	}

	if c := findConstant(t, syms, "pkg.mod._internal"); c.Visibility != symbol.Private {
		t.Errorf("_internal visibility = %q", c.Visibility)
	}

	// Chained, tuple, and attribute targets never become constants.
	for _, fqn := range []string{"pkg.mod.a", "pkg.mod.b", "pkg.mod.x", "pkg.mod.y", "pkg.mod.attr"} {
		if hasSymbol(syms, fqn) {
			t.Errorf("unexpected symbol %s", fqn)
		}
	}
}

func TestTypeAliases(t *testing.T) {
	syms := extractSource(t, `from typing import TypeAlias

Vector: TypeAlias = list[float]

type Matrix = list[Vector]

type Grid[T] = list[list[T]]
`)

	v, ok := findSymbol(t, syms, "pkg.mod.Vector").(symbol.TypeAlias)
	if !ok {
		t.Fatal("Vector is not a type alias")
	}
	if v.Target != "list[float]" {
		t.Errorf("Vector target = %q", v.Target)
	}

	m, ok := findSymbol(t, syms, "pkg.mod.Matrix").(symbol.TypeAlias)
	if !ok {
		t.Fatal("Matrix is not a type alias")
	}
	if m.Target != "list[Vector]" {
		t.Errorf("Matrix target = %q", m.Target)
	}

	g, ok := findSymbol(t, syms, "pkg.mod.Grid").(symbol.TypeAlias)
	if !ok {
		t.Fatal("Grid is not a type alias (subscripted head)")
	}
	if g.Target != "list[list[T]]" {
		t.Errorf("Grid target = %q", g.Target)
	}
}

func TestNestedClass(t *testing.T) {
	syms := extractSource(t, `class Outer:
    class Inner:
        def m(self):
            pass
`)

	findClass(t, syms, "pkg.mod.Outer")
	findClass(t, syms, "pkg.mod.Outer.Inner")
	fn := findFunction(t, syms, "pkg.mod.Outer.Inner.m")
	if fn.Owner == nil || *fn.Owner != "pkg.mod.Outer.Inner" {
		t.Errorf("m owner = %v", fn.Owner)
	}
}

func TestFunctionBodiesNotWalked(t *testing.T) {
	syms := extractSource(t, `def outer():
    def inner():
        pass
    LOCAL = 1
    return inner
`)

	if !hasSymbol(syms, "pkg.mod.outer") {
		t.Fatal("outer missing")
	}
	if hasSymbol(syms, "pkg.mod.outer.inner") {
		t.Error("inner leaked out of a function body")
	}
	if hasSymbol(syms, "pkg.mod.outer.LOCAL") || hasSymbol(syms, "pkg.mod.LOCAL") {
		t.Error("LOCAL leaked out of a function body")
	}
}

func TestRaisesFromFunctionDocstring(t *testing.T) {
	syms := extractSource(t, `def risky(path):
    """Load a file.

    Raises:
        ValueError: if the path is empty.
        OSError: if the file cannot be read.
        ValueError: mentioned again.
    """
    pass
`)

	fn := findFunction(t, syms, "pkg.mod.risky")
	want := []string{"ValueError", "OSError"}
	if len(fn.Raises) != len(want) {
		t.Fatalf("raises = %v, want %v", fn.Raises, want)
	}
	for i, w := range want {
		if fn.Raises[i] != w {
			t.Errorf("raises[%d] = %q, want %q", i, fn.Raises[i], w)
		}
	}
}

func TestOutputSortedByFQN(t *testing.T) {
	syms := extractSource(t, `def zeta():
    pass

def alpha():
    pass

class Mid:
    pass
`)

	got := fqnsOf(syms)
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("output not sorted: %v", got)
		}
	}
}

func TestDistinctFQNsPerTopLevelFunction(t *testing.T) {
	syms := extractSource(t, `def f1():
    pass

def f2():
    pass

def f3():
    pass
`)

	seen := map[string]bool{}
	var count int
	for _, s := range syms {
		if s.Common().Kind != symbol.KindFunction {
			continue
		}
		count++
		if seen[s.Common().FQN] {
			t.Errorf("duplicate FQN %s", s.Common().FQN)
		}
		seen[s.Common().FQN] = true
	}
	if count != 3 {
		t.Errorf("got %d functions, want 3", count)
	}
}
