// apictx extracts the public API surface of a Python package into
// deterministic, queryable artifacts.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "apictx",
	Short:         "API surface extractor for Python packages",
	Long:          "apictx parses a Python package with tree-sitter and emits a symbol table\n(JSONL), a run manifest, a validation report, and a queryable SQLite index.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// exitError carries a process exit code through cobra's error path.
// Commands that already printed their diagnostics return one with an
// empty message.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			if exit.msg != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exit.msg)
			}
			os.Exit(exit.code)
		}
		// Anything else came out of flag or argument parsing.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
