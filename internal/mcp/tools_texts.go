package mcpserver

import (
	"context"
	"fmt"

	"figmatext/internal/localization"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTextTools() {
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the stored design file in document order"),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional, defaults to the configured file)")),
	), s.handleListPages)

	s.mcp.AddTool(mcp.NewTool("get_page_texts",
		mcp.WithDescription("Get one page with its screens and texts in display order. The page name must match exactly."),
		mcp.WithString("page", mcp.Description("Page name"), mcp.Required()),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional)")),
	), s.handleGetPageTexts)

	s.mcp.AddTool(mcp.NewTool("get_screen_texts",
		mcp.WithDescription("Get the texts of one screen in display order (top to bottom)"),
		mcp.WithString("page", mcp.Description("Page name"), mcp.Required()),
		mcp.WithString("screen", mcp.Description("Screen name"), mcp.Required()),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional)")),
	), s.handleGetScreenTexts)

	s.mcp.AddTool(mcp.NewTool("export_page",
		mcp.WithDescription("Export a page as a signed flat JSON string table or as an XML string-resource document. The page name is matched case-insensitively."),
		mcp.WithString("page", mcp.Description("Page name"), mcp.Required()),
		mcp.WithString("format", mcp.Description("Export format"), mcp.Enum("json", "xml")),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional)")),
	), s.handleExportPage)

	s.mcp.AddTool(mcp.NewTool("search_texts",
		mcp.WithDescription("Find stored texts whose content or layer name contains the query, ignoring case"),
		mcp.WithString("query", mcp.Description("Text to search for"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matches (default 50)")),
		mcp.WithString("fileKey", mcp.Description("Design file key (optional)")),
	), s.handleSearchTexts)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.loc.Pages(ctx, fileKeyArg(req))
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return jsonResult(pages)
}

func (s *Server) handleGetPageTexts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")
	if page == "" {
		return nil, fmt.Errorf("page is required")
	}
	view, err := s.loc.Page(ctx, fileKeyArg(req), page)
	if err != nil {
		return nil, err
	}
	return jsonResult(view)
}

func (s *Server) handleGetScreenTexts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")
	screen := req.GetString("screen", "")
	if page == "" || screen == "" {
		return nil, fmt.Errorf("page and screen are required")
	}
	view, err := s.loc.Screen(ctx, fileKeyArg(req), page, screen)
	if err != nil {
		return nil, err
	}
	return jsonResult(view)
}

func (s *Server) handleExportPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetString("page", "")
	if page == "" {
		return nil, fmt.Errorf("page is required")
	}
	format, err := localization.ParseFormat(req.GetString("format", "json"))
	if err != nil {
		return nil, err
	}

	exp, err := s.loc.Export(ctx, fileKeyArg(req), page, format)
	if err != nil {
		return nil, err
	}
	if format == localization.FormatXML {
		return textResult(string(exp.XML)), nil
	}
	return jsonResult(exp.JSON)
}

func (s *Server) handleSearchTexts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	texts, err := s.loc.SearchTexts(ctx, fileKeyArg(req), query, req.GetInt("limit", 50))
	if err != nil {
		return nil, fmt.Errorf("search texts: %w", err)
	}
	return jsonResult(map[string]any{
		"matches": texts,
		"count":   len(texts),
	})
}
