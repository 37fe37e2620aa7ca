package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/apictx/apictx/internal/index"
)

func (s *Server) handleGetSymbol(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	fqn := getStringArg(args, "fqn")
	if fqn == "" {
		return errResult("fqn is required"), nil
	}

	sym, err := s.store.GetByFQN(fqn)
	if err != nil {
		return errResult(fmt.Sprintf("lookup: %v", err)), nil
	}
	if sym == nil {
		return errResult("symbol not found: " + fqn), nil
	}

	var obj any
	if err := json.Unmarshal(sym.Data, &obj); err != nil {
		return errResult(fmt.Sprintf("decode symbol: %v", err)), nil
	}
	return jsonResult(obj), nil
}

func (s *Server) handleSearchSymbols(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	query := getStringArg(args, "query")
	if query == "" {
		return errResult("query is required"), nil
	}

	hits, err := s.store.SearchApprox(query, index.Query{
		Limit:          getIntArg(args, "limit", 20),
		Kind:           getStringArg(args, "kind"),
		Visibility:     getStringArg(args, "visibility"),
		Owner:          getStringArg(args, "owner"),
		OverfetchFloor: s.overfetchFloor,
	})
	if err != nil {
		return errResult(fmt.Sprintf("search: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"query":   query,
		"count":   len(hits),
		"results": hits,
	}), nil
}

func (s *Server) handleIndexStats(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := parseArgs(req); err != nil {
		return errResult(err.Error()), nil
	}
	stats, err := s.store.ReadStats()
	if err != nil {
		return errResult(fmt.Sprintf("stats: %v", err)), nil
	}
	return jsonResult(stats), nil
}
