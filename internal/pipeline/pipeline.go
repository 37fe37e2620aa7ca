// Package pipeline orchestrates one extraction run: discover, parse,
// extract, link, validate, index, emit. Parsing is the only concurrent
// stage; everything downstream runs sequentially over FQN-sorted data so
// artifacts are byte-reproducible regardless of scheduling.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/apictx/apictx/internal/apierr"
	"github.com/apictx/apictx/internal/config"
	"github.com/apictx/apictx/internal/discover"
	"github.com/apictx/apictx/internal/extract"
	"github.com/apictx/apictx/internal/fqn"
	"github.com/apictx/apictx/internal/index"
	"github.com/apictx/apictx/internal/link"
	"github.com/apictx/apictx/internal/parser"
	"github.com/apictx/apictx/internal/symbol"
	"github.com/apictx/apictx/internal/validate"
	"github.com/apictx/apictx/internal/version"
)

// IndexFileName is the index database file emitted into the output
// directory.
const IndexFileName = "index.sqlite3"

// Options configures one extraction run.
type Options struct {
	Root    string // package source directory
	Package string
	Version string
	Commit  string
	OutDir  string
	Workers int // <=0 selects NumCPU
	Config  *config.Config
}

// Result summarizes a successful run.
type Result struct {
	SymbolCount int
	Files       int
	OutDir      string
}

// parseResult holds the output of one pure file parse (no shared state).
type parseResult struct {
	File   discover.FileInfo
	Tree   *tree_sitter.Tree
	Source []byte
	Hash   string
	Err    *apierr.Error
}

// fileStat is the per-file provenance recorded in the index.
type fileStat struct {
	RelPath string
	Hash    string
	Symbols int
}

// Run executes the full pipeline. A non-empty error list means the run
// aborted and no artifacts were produced.
func Run(ctx context.Context, opts Options) (*Result, []apierr.Error) {
	start := time.Now()

	if opts.Config == nil {
		opts.Config = config.Default()
	}

	files, err := discover.Discover(ctx, opts.Root, &discover.Options{
		ExcludeDirs: opts.Config.Extract.ExcludeDirs,
	})
	if err != nil {
		return nil, []apierr.Error{apierr.Newf(apierr.CodeDiscover, opts.Root, "walk: %v", err)}
	}
	slog.Info("pipeline.discovered", "root", opts.Root, "files", len(files))

	modules := make(map[string]bool, len(files))
	for _, f := range files {
		modules[fqn.Module(opts.Package, f.RelPath)] = true
	}

	results := parseAll(ctx, opts.Workers, files)

	var parseErrs []apierr.Error
	for _, r := range results {
		if r != nil && r.Err != nil {
			parseErrs = append(parseErrs, *r.Err)
		}
	}
	if len(parseErrs) > 0 {
		closeTrees(results)
		return nil, parseErrs
	}
	if err := ctx.Err(); err != nil {
		closeTrees(results)
		return nil, []apierr.Error{apierr.New(apierr.CodeParse, opts.Root, err.Error())}
	}

	// Extraction and import binding, sequential in discovery order.
	extractStart := time.Now()
	var syms []symbol.Symbol
	aliases := make(map[string]link.Aliases, len(results))
	stats := make([]fileStat, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		moduleFQN := fqn.Module(opts.Package, r.File.RelPath)
		root := r.Tree.RootNode()
		fileSyms := extract.File(root, r.Source, moduleFQN, r.File.RelPath)
		aliases[moduleFQN] = link.ParseImports(root, r.Source, moduleFQN, opts.Package, modules)
		stats = append(stats, fileStat{RelPath: r.File.RelPath, Hash: r.Hash, Symbols: len(fileSyms)})
		syms = append(syms, fileSyms...)
	}
	closeTrees(results)
	symbol.SortByFQN(syms)
	slog.Info("pass.timing", "stage", "extract", "symbols", len(syms), "elapsed", time.Since(extractStart))

	linked := link.NewResolver(syms, modules, aliases).Link(syms)
	symbol.SortByFQN(linked)

	schema, err := validate.LoadSchema()
	if err != nil {
		return nil, []apierr.Error{apierr.New(apierr.CodeSchema, "schema.json", err.Error())}
	}
	records, report, verrs := validate.Run(linked, schema, validate.Options{
		AllowOverloadDuplicates: opts.Config.EffectiveAllowOverloadDuplicates(),
	})
	if len(verrs) > 0 {
		return nil, verrs
	}

	manifest := newManifest(opts)
	if errs := writeIndex(opts.OutDir, manifest, records, stats); errs != nil {
		return nil, errs
	}
	if err := writeArtifacts(opts.OutDir, records, manifest, report); err != nil {
		return nil, []apierr.Error{apierr.New(apierr.CodeEmit, opts.OutDir, err.Error())}
	}

	slog.Info("pipeline.done",
		"package", opts.Package,
		"symbols", report.SymbolCount,
		"files", len(files),
		"elapsed", time.Since(start))
	return &Result{SymbolCount: report.SymbolCount, Files: len(files), OutDir: opts.OutDir}, nil
}

// parseAll distributes files across a bounded worker pool. Workers share
// no mutable state; each writes only its own slot. There is no fail-fast:
// every file is attempted and errors surface in the results.
func parseAll(ctx context.Context, workers int, files []discover.FileInfo) []*parseResult {
	if len(files) == 0 {
		return nil
	}
	results := make([]*parseResult, len(files))
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	parseStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = parseFile(f)
			return nil
		})
	}
	_ = g.Wait()
	slog.Info("pass.timing", "stage", "parse", "files", len(files), "workers", numWorkers, "elapsed", time.Since(parseStart))
	return results
}

// parseFile reads and parses one file, rejecting trees with syntax errors.
func parseFile(f discover.FileInfo) *parseResult {
	r := &parseResult{File: f}
	source, err := os.ReadFile(f.Path)
	if err != nil {
		e := apierr.Newf(apierr.CodeParse, f.RelPath, "read: %v", err)
		r.Err = &e
		return r
	}
	source = stripBOM(source)
	r.Source = source
	r.Hash = fmt.Sprintf("%016x", xxh3.Hash(source))

	tree, err := parser.Parse(source)
	if err != nil {
		e := apierr.Newf(apierr.CodeParse, f.RelPath, "parse: %v", err)
		r.Err = &e
		return r
	}
	if msg := parser.FirstError(tree.RootNode()); msg != "" {
		tree.Close()
		e := apierr.New(apierr.CodeParse, f.RelPath, msg)
		r.Err = &e
		return r
	}
	r.Tree = tree
	return r
}

func closeTrees(results []*parseResult) {
	for _, r := range results {
		if r != nil && r.Tree != nil {
			r.Tree.Close()
		}
	}
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// writeIndex builds the SQLite index in a single transaction: symbol rows
// with trigram postings, per-file hashes, and provenance metadata.
func writeIndex(outDir string, manifest Manifest, records []validate.Record, stats []fileStat) []apierr.Error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return []apierr.Error{apierr.Newf(apierr.CodeIndex, outDir, "mkdir: %v", err)}
	}
	dbPath := filepath.Join(outDir, IndexFileName)
	st, err := index.Open(dbPath)
	if err != nil {
		return []apierr.Error{apierr.New(apierr.CodeIndex, dbPath, err.Error())}
	}
	defer st.Close()

	indexStart := time.Now()
	err = st.WithTransaction(func(tx *index.Store) error {
		for i := range records {
			rec := &records[i]
			if _, err := tx.UpsertSymbol(&index.Symbol{
				FQN:  rec.FQN,
				Name: rec.Name,
				Kind: string(rec.Kind),
				Data: rec.Data,
			}); err != nil {
				return fmt.Errorf("%s: %w", rec.FQN, err)
			}
		}
		for _, fs := range stats {
			if err := tx.UpsertFile(fs.RelPath, fs.Hash, fs.Symbols); err != nil {
				return err
			}
		}
		meta := [][2]string{
			{"package", manifest.Package},
			{"version", manifest.Version},
			{"commit", manifest.Commit},
			{"extracted_at", manifest.ExtractedAt},
			{"tool", manifest.Tool},
			{"tool_version", manifest.ToolVersion},
			{"schema_version", manifest.SchemaVersion},
		}
		for _, kv := range meta {
			if err := tx.SetMeta(kv[0], kv[1]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return []apierr.Error{apierr.New(apierr.CodeIndex, dbPath, err.Error())}
	}
	slog.Info("pass.timing", "stage", "index", "symbols", len(records), "elapsed", time.Since(indexStart))
	return nil
}

func newManifest(opts Options) Manifest {
	return Manifest{
		Package:       opts.Package,
		Version:       opts.Version,
		Commit:        opts.Commit,
		ExtractedAt:   time.Now().UTC().Format(time.RFC3339),
		Tool:          version.Tool,
		ToolVersion:   version.Version,
		SchemaVersion: version.SchemaVersion,
	}
}
