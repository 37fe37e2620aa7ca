package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apictx/apictx/internal/config"
	"github.com/apictx/apictx/internal/pipeline"
	"github.com/apictx/apictx/internal/pydetect"
)

var (
	extractPackage string
	extractVersion string
	extractCommit  string
	extractOut     string
	extractWorkers int
)

var extractCmd = &cobra.Command{
	Use:   "extract ROOT",
	Short: "Extract the API surface of a Python package",
	Long: "Walks ROOT, parses every Python file, and writes symbols.jsonl,\n" +
		"manifest.json, validation.json, and index.sqlite3 to the output\n" +
		"directory. Package name and version are auto-detected when omitted.",
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractPackage, "package", "", "package name (auto-detected when omitted)")
	extractCmd.Flags().StringVar(&extractVersion, "version", "", "package version (auto-detected when omitted)")
	extractCmd.Flags().StringVar(&extractCommit, "commit", "", "source commit recorded in the manifest")
	extractCmd.Flags().StringVar(&extractOut, "out", "build", "output directory for artifacts")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "parse workers (default: config, then 4)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	src, err := pydetect.ResolveSource(args[0])
	if err != nil {
		fmt.Println(err)
		return &exitError{code: 1}
	}

	pkg := extractPackage
	if pkg == "" {
		pkg = src.Package
	}
	if pkg == "" {
		pkg = pydetect.PackageName(src.Root)
	}
	if pkg == "" {
		fmt.Println("Could not determine package name; pass --package")
		return &exitError{code: 1}
	}

	version := extractVersion
	if version == "" {
		version = pydetect.PackageVersion(src.Root, pkg)
	}
	if version == "" {
		fmt.Println("Could not determine package version; pass --version")
		return &exitError{code: 1}
	}

	cfg := config.Load(src.Root)
	workers := cfg.EffectiveWorkers()
	if cmd.Flags().Changed("workers") {
		workers = extractWorkers
	}

	result, errs := pipeline.Run(cmd.Context(), pipeline.Options{
		Root:    src.Root,
		Package: pkg,
		Version: version,
		Commit:  extractCommit,
		OutDir:  extractOut,
		Workers: workers,
		Config:  cfg,
	})
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Println(e.Error())
		}
		return &exitError{code: 1}
	}

	fmt.Printf("extracted %d symbols from %d files into %s\n", result.SymbolCount, result.Files, result.OutDir)
	return nil
}
