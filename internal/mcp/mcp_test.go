package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	_ "figmatext/internal/etl/sources"
	"figmatext/internal/localization"
	"figmatext/internal/service"
	"figmatext/internal/storage"
)

const sampleDoc = `{"document": {"children": [
  {"type": "CANVAS", "name": "Onboarding", "id": "1:1", "children": [
    {"type": "FRAME", "name": "Welcome", "id": "2:1", "children": [
      {"type": "TEXT", "name": "title", "characters": "Hi!", "absoluteBoundingBox": {"x": 0, "y": 10}},
      {"type": "TEXT", "name": "subtitle", "characters": "Glad you're here", "absoluteBoundingBox": {"x": 0, "y": 50}}
    ]}
  ]}
]}}`

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(docPath, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}
	db, err := storage.New(filepath.Join(dir, "figma.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := storage.NewStore(db)

	s := New(Deps{
		Sync:         service.NewSyncService(store, &service.MockEmitter{}, service.SyncConfig{FileKey: "FILE"}),
		Localization: service.NewLocalizationService(store, localization.NewSigner("k"), "FILE"),
	})
	return s, docPath
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return tc.Text
}

func TestSyncAndReadTools(t *testing.T) {
	s, docPath := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSyncFromFile(ctx, callTool("sync_from_file", map[string]any{"path": docPath}))
	if err != nil {
		t.Fatalf("sync_from_file: %v", err)
	}
	if res.IsError {
		t.Fatalf("sync failed: %s", resultText(t, res))
	}

	res, err = s.handleListPages(ctx, callTool("list_pages", nil))
	if err != nil {
		t.Fatalf("list_pages: %v", err)
	}
	var pages []service.PageSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &pages); err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Name != "Onboarding" || pages[0].PageID != "1:1" {
		t.Errorf("unexpected pages %+v", pages)
	}

	res, err = s.handleSearchTexts(ctx, callTool("search_texts", map[string]any{"query": "GLAD"}))
	if err != nil {
		t.Fatalf("search_texts: %v", err)
	}
	if !strings.Contains(resultText(t, res), `"count": 1`) {
		t.Errorf("unexpected search result %s", resultText(t, res))
	}

	res, err = s.handleExportPage(ctx, callTool("export_page", map[string]any{"page": "onboarding", "format": "xml"}))
	if err != nil {
		t.Fatalf("export_page: %v", err)
	}
	if !strings.Contains(resultText(t, res), `<string name="welcome_subtitle">Glad you&#39;re here</string>`) {
		t.Errorf("unexpected xml export %s", resultText(t, res))
	}

	res, err = s.handleListSyncRuns(ctx, callTool("list_sync_runs", map[string]any{"limit": 5}))
	if err != nil {
		t.Fatalf("list_sync_runs: %v", err)
	}
	if !strings.Contains(resultText(t, res), `"source_type": "json_file"`) {
		t.Errorf("unexpected runs %s", resultText(t, res))
	}
}

func TestGetScreenTexts_TopToBottom(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	docPath := filepath.Join(t.TempDir(), "rows.json")
	doc := `{"document": {"children": [{"type": "CANVAS", "name": "P", "id": "1", "children": [
	  {"type": "FRAME", "name": "Row", "id": "2", "children": [
	    {"type": "TEXT", "name": "right", "characters": "R", "absoluteBoundingBox": {"x": 50, "y": 10}},
	    {"type": "TEXT", "name": "left", "characters": "L", "absoluteBoundingBox": {"x": 0, "y": 10}},
	    {"type": "TEXT", "name": "top", "characters": "T", "absoluteBoundingBox": {"x": 0, "y": 5}}
	  ]}]}]}}`
	if err := os.WriteFile(docPath, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if res, err := s.handleSyncFromFile(ctx, callTool("sync_from_file", map[string]any{"path": docPath})); err != nil || res.IsError {
		t.Fatalf("sync_from_file: %v", err)
	}

	res, err := s.handleGetScreenTexts(ctx, callTool("get_screen_texts", map[string]any{"page": "P", "screen": "Row"}))
	if err != nil {
		t.Fatalf("get_screen_texts: %v", err)
	}
	var view service.ScreenView
	if err := json.Unmarshal([]byte(resultText(t, res)), &view); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, text := range view.Screen.Texts {
		names = append(names, text.Name)
	}
	// equal y keeps stored order, whatever x says
	if got := strings.Join(names, ","); got != "top,right,left" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestSyncFromFile_FailureIsToolError(t *testing.T) {
	s, _ := newTestServer(t)
	res, err := s.handleSyncFromFile(context.Background(), callTool("sync_from_file", map[string]any{"path": "/nonexistent/doc.json"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "Sync failed") {
		t.Errorf("expected tool error, got %+v", res)
	}
}

func TestGetPageTexts_RequiresPage(t *testing.T) {
	s, _ := newTestServer(t)
	if _, err := s.handleGetPageTexts(context.Background(), callTool("get_page_texts", nil)); err == nil {
		t.Error("expected error for missing page")
	}
}

func TestExtractPageFromURI(t *testing.T) {
	tests := map[string]string{
		"figma://pages/Onboarding": "Onboarding",
		"figma://pages/Sign%20up":  "Sign up",
		"figma://pages/":           "",
		"figma://snapshot":         "",
		"figma://pages/a%2Fb":      "a/b",
	}
	for uri, want := range tests {
		if got := extractPageFromURI(uri); got != want {
			t.Errorf("extractPageFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}
