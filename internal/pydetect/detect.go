// Package pydetect locates a Python package's source tree and infers its
// name and version from the filesystem and pyproject metadata.
package pydetect

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

var (
	// versionRe accepts release-shaped version strings: a leading digit,
	// then digits, letters, dots, plus, dash.
	versionRe = regexp.MustCompile(`^[0-9][0-9A-Za-z.+-]*$`)

	// versionAssignRe matches a module-level __version__ assignment.
	versionAssignRe = regexp.MustCompile(`(?m)^__version__\s*=\s*["']([^"']+)["']`)
)

// Source is a resolved extraction target.
type Source struct {
	Root    string // directory to scan
	Package string // "" when the path shape does not name a package
}

// ResolveSource interprets target as a package directory (contains
// __init__.py), a plain directory, or a single file.
func ResolveSource(target string) (Source, error) {
	info, err := os.Stat(target)
	if err != nil {
		return Source{}, fmt.Errorf("could not find module or path: %s", target)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		if fileExists(filepath.Join(abs, "__init__.py")) {
			return Source{Root: abs, Package: filepath.Base(abs)}, nil
		}
		return Source{Root: abs}, nil
	}
	return Source{Root: filepath.Dir(abs)}, nil
}

// PackageName infers the package name: a unique __init__.py-bearing child
// directory of root (directly or under src/), else the pyproject.toml
// [project] or [tool.poetry] name. Returns "" when undetectable.
func PackageName(root string) string {
	var candidates []string
	for _, dir := range []string{root, filepath.Join(root, "src")} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && fileExists(filepath.Join(dir, e.Name(), "__init__.py")) {
				candidates = append(candidates, e.Name())
			}
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return pyprojectName(root)
}

// PackageVersion infers the package version: a __version__ assignment in
// the package __init__.py (root itself, root/pkg, or root/src/pkg), else
// pyproject metadata. Values that do not look like releases are rejected.
func PackageVersion(root, pkg string) string {
	inits := []string{
		filepath.Join(root, "__init__.py"),
		filepath.Join(root, pkg, "__init__.py"),
		filepath.Join(root, "src", pkg, "__init__.py"),
	}
	for _, path := range inits {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if m := versionAssignRe.FindSubmatch(data); m != nil {
			if v := string(m[1]); versionRe.MatchString(v) {
				return v
			}
		}
		// Only the first existing __init__.py is consulted.
		break
	}

	if pp, ok := readPyproject(root); ok {
		for _, v := range []string{pp.Project.Version, pp.Tool.Poetry.Version} {
			if v != "" && versionRe.MatchString(v) {
				return v
			}
		}
	}
	return ""
}

type pyproject struct {
	Project struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func readPyproject(root string) (*pyproject, bool) {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil, false
	}
	var pp pyproject
	if err := toml.Unmarshal(data, &pp); err != nil {
		return nil, false
	}
	return &pp, true
}

func pyprojectName(root string) string {
	pp, ok := readPyproject(root)
	if !ok {
		return ""
	}
	if pp.Project.Name != "" {
		return pp.Project.Name
	}
	return pp.Tool.Poetry.Name
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
