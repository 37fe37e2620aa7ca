package link

import (
	"testing"

	"github.com/apictx/apictx/internal/parser"
)

func parseImports(t *testing.T, source, moduleFQN, pkg string, modules map[string]bool) Aliases {
	t.Helper()
	tree, err := parser.Parse([]byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()
	return ParseImports(tree.RootNode(), []byte(source), moduleFQN, pkg, modules)
}

func wantAlias(t *testing.T, aliases Aliases, name, target string) {
	t.Helper()
	got, ok := aliases[name]
	if !ok {
		t.Errorf("alias %q missing, have %v", name, aliases)
		return
	}
	if got != target {
		t.Errorf("alias %q = %q, want %q", name, got, target)
	}
}

func TestPlainImportBindsLastSegment(t *testing.T) {
	aliases := parseImports(t, "import os.path\nimport collections\n", "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "path", "os.path")
	wantAlias(t, aliases, "collections", "collections")
}

func TestAliasedImport(t *testing.T) {
	aliases := parseImports(t, "import numpy as np\n", "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "np", "numpy")
	if _, ok := aliases["numpy"]; ok {
		t.Error("aliased import must not also bind the plain name")
	}
}

func TestImportQualifiesPackageLocalModules(t *testing.T) {
	modules := map[string]bool{"pkg": true, "pkg.helpers": true, "pkg.main": true}
	aliases := parseImports(t, "import helpers as h\n", "pkg.main", "pkg", modules)

	wantAlias(t, aliases, "h", "pkg.helpers")
}

func TestFromImport(t *testing.T) {
	aliases := parseImports(t, "from os.path import join, dirname as dn\n", "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "join", "os.path.join")
	wantAlias(t, aliases, "dn", "os.path.dirname")
}

func TestFromImportQualifiesPackageLocalModules(t *testing.T) {
	modules := map[string]bool{"pkg": true, "pkg.base": true, "pkg.sub": true}
	aliases := parseImports(t, "from base import Base as AliasBase\n", "pkg.sub", "pkg", modules)

	wantAlias(t, aliases, "AliasBase", "pkg.base.Base")
}

func TestRelativeImports(t *testing.T) {
	source := "from . import util\nfrom ..base import Thing\nfrom .sibling import helper\n"
	aliases := parseImports(t, source, "pkg.sub.mod", "pkg", nil)

	wantAlias(t, aliases, "util", "pkg.sub.util")
	wantAlias(t, aliases, "Thing", "pkg.base.Thing")
	wantAlias(t, aliases, "helper", "pkg.sub.sibling.helper")
}

func TestRelativeImportPastRootBindsNothing(t *testing.T) {
	// `from . import x` inside the package root module has no parent to
	// resolve against.
	aliases := parseImports(t, "from . import x\n", "pkg", "pkg", nil)

	if len(aliases) != 0 {
		t.Errorf("aliases = %v, want empty", aliases)
	}
}

func TestWildcardImportBindsNothing(t *testing.T) {
	aliases := parseImports(t, "from os import *\n", "pkg.mod", "pkg", nil)

	if len(aliases) != 0 {
		t.Errorf("aliases = %v, want empty", aliases)
	}
}

func TestFromImportSameNameAsModule(t *testing.T) {
	// `from a import a` must bind the imported name, not skip it for
	// sharing text with the module reference.
	aliases := parseImports(t, "from a import a\n", "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "a", "a.a")
}

func TestImportsInsideFunctionBodies(t *testing.T) {
	source := "def f():\n    from os.path import join\n    return join\n"
	aliases := parseImports(t, source, "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "join", "os.path.join")
}

func TestLaterImportWins(t *testing.T) {
	source := "from a import Thing\nfrom b import Thing\n"
	aliases := parseImports(t, source, "pkg.mod", "pkg", nil)

	wantAlias(t, aliases, "Thing", "b.Thing")
}
