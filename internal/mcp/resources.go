package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	snapshotURI   = "figma://snapshot"
	pageURIPrefix = "figma://pages/"
)

func (s *Server) registerResources() {
	// ── figma://snapshot ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		snapshotURI,
		"Synced Texts",
		mcp.WithResourceDescription("Every synced text of the default file, grouped by page and screen"),
		mcp.WithMIMEType("application/json"),
	), s.handleSnapshotResource)

	// ── figma://pages/{page} ───────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageURIPrefix+"{page}",
			"Texts of a Page",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handlePageResource,
	)
}

func (s *Server) handleSnapshotResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := s.loc.ReadView(ctx, "")
	if err != nil {
		return nil, err
	}
	return jsonContents(snapshotURI, view)
}

func (s *Server) handlePageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	page := extractPageFromURI(uri)
	if page == "" {
		return nil, fmt.Errorf("could not extract page from URI: %s", uri)
	}

	view, err := s.loc.Page(ctx, "", page)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, view)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageFromURI extracts the page name from "figma://pages/{page}".
// Page names may contain escaped characters.
func extractPageFromURI(uri string) string {
	raw, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok || raw == "" {
		return ""
	}
	page, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return page
}
