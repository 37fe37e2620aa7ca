package fqn

import (
	"path/filepath"
	"strings"
)

// Compute returns the fully qualified dotted name for a declaration.
// Format: <package>.<rel_path_parts_dotted>.<name>
// Examples:
//   - mathx.add.add
//   - pkg.sub.util.Helper
func Compute(pkg, relPath, name string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")

	// A package's __init__.py maps to the package itself.
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}

	all := append([]string{pkg}, parts...)
	if name != "" {
		all = append(all, name)
	}
	return strings.Join(all, ".")
}

// Module returns the module FQN for a source file.
func Module(pkg, relPath string) string {
	return Compute(pkg, relPath, "")
}

// Parent returns the FQN with its last segment dropped, or "" at the root.
func Parent(fqn string) string {
	i := strings.LastIndex(fqn, ".")
	if i < 0 {
		return ""
	}
	return fqn[:i]
}
