package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("review_copy",
		mcp.WithPromptDescription("Review the texts of a page for typos, tone, and consistency"),
		mcp.WithArgument("page",
			mcp.ArgumentDescription("Page name to review"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewCopyPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("prepare_release",
		mcp.WithPromptDescription("Sync the design file and export string tables for a release"),
		mcp.WithArgument("pages",
			mcp.ArgumentDescription("Comma-separated page names to export"),
			mcp.RequiredArgument(),
		),
	), s.handlePrepareReleasePrompt)
}

func (s *Server) handleReviewCopyPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	page := req.Params.Arguments["page"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review the copy of page: %s", page),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the user-facing copy of the "%s" page. Follow these steps:

1. Use get_page_texts with page "%s" to load every screen and its texts in display order
2. For each screen, check spelling, grammar, and punctuation
3. Flag inconsistent terminology between screens (e.g. "Sign in" vs "Log in")
4. Use search_texts to check whether a flagged term is used elsewhere in the file

Report findings grouped by screen, quoting the original text and a suggested replacement.`, page, page),
				},
			},
		},
	}, nil
}

func (s *Server) handlePrepareReleasePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	pages := req.Params.Arguments["pages"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Prepare string tables for: %s", pages),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Prepare localization files for these pages: %s. Follow these steps:

1. Use sync_figma_file with debug enabled to pull the latest design
2. Check the debug info for overwritten duplicate page or screen names and report them
3. For each page, use export_page with format "json" and then with format "xml"
4. Use list_sync_runs to confirm the sync was recorded

Summarize the number of strings per page and any keys that received numeric suffixes.`, pages),
				},
			},
		},
	}, nil
}
