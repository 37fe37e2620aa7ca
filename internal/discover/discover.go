// Package discover walks a package root and returns its Python source
// files in a deterministic order.
package discover

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ignoreDirs are directory names skipped during discovery.
var ignoreDirs = map[string]bool{
	".eggs": true, ".env": true, ".git": true, ".hg": true,
	".idea": true, ".mypy_cache": true, ".nox": true,
	".pytest_cache": true, ".ruff_cache": true, ".svn": true,
	".tox": true, ".venv": true, ".vscode": true,
	"__pycache__": true, "build": true, "dist": true, "env": true,
	"node_modules": true, "site-packages": true, "venv": true,
}

// FileInfo is one discovered source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // slash-separated, relative to the scanned root
}

// Options configures discovery.
type Options struct {
	// ExcludeDirs are extra directory names or globs to skip, matched
	// against both the directory name and its root-relative path.
	ExcludeDirs []string
}

// shouldSkipDir returns true if the directory should be skipped.
func shouldSkipDir(name, rel string, extra []string) bool {
	if ignoreDirs[name] || strings.HasSuffix(name, ".egg-info") {
		return true
	}
	for _, pattern := range extra {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks root and returns all .py files sorted by relative path.
// Every run scans the full tree; the ordering makes downstream output
// independent of filesystem iteration order.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var extra []string
	if opts != nil {
		extra = opts.ExcludeDirs
	}

	var files []FileInfo

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(root, path)

		if info.IsDir() {
			if path != root && shouldSkipDir(info.Name(), filepath.ToSlash(rel), extra) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ".py" {
			files = append(files, FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(rel),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}
