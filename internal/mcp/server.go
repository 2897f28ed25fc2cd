package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"figmatext/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for synced design texts.
// It exposes tools, resources, and prompts so AI agents can sync files and
// read or export their texts.
type Server struct {
	mcp *server.MCPServer

	// Services (injected from app layer)
	sync *service.SyncService
	loc  *service.LocalizationService
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Sync         *service.SyncService
	Localization *service.LocalizationService
	Version      string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		sync: deps.Sync,
		loc:  deps.Localization,
	}

	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s.mcp = server.NewMCPServer(
		"figmatext-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSyncTools()
	s.registerTextTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// fileKeyArg returns the optional fileKey argument; empty means the
// configured default.
func fileKeyArg(req mcp.CallToolRequest) string {
	return req.GetString("fileKey", "")
}

func boolPtr(v bool) *bool { return &v }
