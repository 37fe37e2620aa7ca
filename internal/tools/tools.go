// Package tools exposes a built index over MCP: exact symbol lookup,
// approximate search, and index statistics.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/apictx/apictx/internal/index"
	"github.com/apictx/apictx/internal/version"
)

// Server wraps the MCP server with tool handlers bound to one index.
type Server struct {
	mcp            *mcp.Server
	store          *index.Store
	overfetchFloor int
}

// NewServer creates an MCP server with all tools registered.
func NewServer(st *index.Store, overfetchFloor int) *Server {
	srv := &Server{
		store:          st,
		overfetchFloor: overfetchFloor,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    version.Tool,
				Version: version.Version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. get_symbol
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_symbol",
		Description: "Look up one symbol by fully-qualified name. Returns the full symbol object: signature, parameters, docstring, decorators, visibility, raises, base classes.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"fqn": {
					"type": "string",
					"description": "Fully-qualified symbol name (e.g. 'mypkg.client.Client.request')"
				}
			},
			"required": ["fqn"]
		}`),
	}, s.handleGetSymbol)

	// 2. search_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "search_symbols",
		Description: "Fuzzy-search symbols by name fragment using trigram scoring. Optional equality filters on kind, visibility, and owner narrow the over-fetched candidate pool, so filtered results are approximate top-k, not exact.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Name fragment to match (e.g. 'reqest' finds 'request')"
				},
				"limit": {
					"type": "integer",
					"description": "Max results (default 20)"
				},
				"kind": {
					"type": "string",
					"description": "Filter by kind",
					"enum": ["module", "function", "class", "constant", "type_alias"]
				},
				"visibility": {
					"type": "string",
					"description": "Filter by visibility",
					"enum": ["public", "private"]
				},
				"owner": {
					"type": "string",
					"description": "Filter by owning module or class FQN"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchSymbols)

	// 3. index_stats
	s.mcp.AddTool(&mcp.Tool{
		Name:        "index_stats",
		Description: "Summarize the index: symbol and file counts, per-kind breakdown, and provenance metadata (package, version, commit, extraction timestamp).",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleIndexStats)
}

// jsonResult marshals data to JSON and returns it as a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}
