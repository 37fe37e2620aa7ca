package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/apictx/apictx/internal/config"
	"github.com/apictx/apictx/internal/index"
	"github.com/apictx/apictx/internal/tools"
)

var serveCmd = &cobra.Command{
	Use:   "serve DB",
	Short: "Serve an extracted index over MCP stdio",
	Long: "Exposes get_symbol, search_symbols, and index_stats as MCP tools on\n" +
		"stdin/stdout so agents can query the extracted API surface.",
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := index.Open(args[0])
	if err != nil {
		return &exitError{code: 1, msg: fmt.Sprintf("open index: %v", err)}
	}

	cfg := config.Load(".")
	srv := tools.NewServer(st, cfg.EffectiveOverfetchFloor())

	runErr := srv.MCPServer().Run(cmd.Context(), &mcp.StdioTransport{})
	st.Close()
	if runErr != nil {
		return &exitError{code: 1, msg: fmt.Sprintf("server: %v", runErr)}
	}
	return nil
}
