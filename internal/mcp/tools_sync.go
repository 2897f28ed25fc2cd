package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSyncTools() {
	s.mcp.AddTool(mcp.NewTool("sync_figma_file",
		mcp.WithDescription("🛑 DESTRUCTIVE: Pull the design file from the configured source and replace its stored texts. Returns page and text counts."),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional, defaults to the configured file)")),
		mcp.WithBoolean("debug", mcp.Description("Include page names and overwritten duplicates in the result")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleSyncFigmaFile)

	s.mcp.AddTool(mcp.NewTool("sync_from_file",
		mcp.WithDescription("🛑 DESTRUCTIVE: Sync a design document export (JSON file on disk) into the stored texts of a file key."),
		mcp.WithString("path", mcp.Description("Path to the exported document JSON"), mcp.Required()),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional, defaults to the configured file)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleSyncFromFile)

	s.mcp.AddTool(mcp.NewTool("list_sync_runs",
		mcp.WithDescription("List the most recent sync runs, newest first"),
		mcp.WithString("fileKey", mcp.Description("Only runs of this file key (optional, all files when empty)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.handleListSyncRuns)

	s.mcp.AddTool(mcp.NewTool("list_sync_sources",
		mcp.WithDescription("List available document sources with their configuration schemas"),
	), s.handleListSyncSources)
}

func (s *Server) handleSyncFigmaFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.sync.Sync(ctx, fileKeyArg(req), req.GetBool("debug", false))
	result, err := jsonResult(res)
	if err != nil {
		return nil, err
	}
	result.IsError = !res.Success
	return result, nil
}

func (s *Server) handleSyncFromFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	res := s.sync.SyncFromFile(ctx, fileKeyArg(req), path, false)
	result, err := jsonResult(res)
	if err != nil {
		return nil, err
	}
	result.IsError = !res.Success
	return result, nil
}

func (s *Server) handleListSyncRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.sync.ListRuns(ctx, fileKeyArg(req), req.GetInt("limit", 0))
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return jsonResult(runs)
}

func (s *Server) handleListSyncSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sync.ListSources())
}
