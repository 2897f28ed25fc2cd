package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"figmatext/internal/config"
)

const sampleDoc = `{"document": {"children": [
  {"type": "CANVAS", "name": "Sign up", "id": "1:1", "children": [
    {"type": "FRAME", "name": "Form", "id": "2:1", "children": [
      {"type": "TEXT", "name": "title", "characters": "Create account", "absoluteBoundingBox": {"x": 0, "y": 0}},
      {"type": "TEXT", "name": "cta", "characters": "Continue", "absoluteBoundingBox": {"x": 0, "y": 90}}
    ]}
  ]}
]}}`

// clearEnv unsets variables that would override the test configuration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FIGMA_FILE_KEY", "FIGMA_API_URL", "FIGMA_SOURCE", "FIGMA_DOCUMENT_FILE",
		"DATABASE_DRIVER", "DATABASE_URL", "HOST", "PORT", "SYNC_SCHEDULE", "SYNC_WATCH_FILE",
		"SECRETS_DIR", "FIGMA_ACCESS_TOKEN", "DATABASE_PASSWORD",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HMAC_SECRET_KEY", "k")
}

func writeConfig(t *testing.T) (cfgFile, dir string) {
	t.Helper()
	clearEnv(t)
	dir = t.TempDir()
	docPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(docPath, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}
	cfgFile = filepath.Join(dir, "figmatext.yaml")
	body := "figma:\n" +
		"  file_key: FILE\n" +
		"  source: json_file\n" +
		"  document_file: " + docPath + "\n" +
		"database:\n" +
		"  driver: sqlite\n" +
		"  url: " + filepath.Join(dir, "figma.db") + "\n" +
		"secrets_dir: " + filepath.Join(dir, "secrets") + "\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgFile, dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// TestRootCommand tests that the root command is properly configured
func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "figmatext" {
		t.Errorf("expected Use 'figmatext', got %q", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	for _, name := range []string{"serve", "sync", "export", "runs", "mcp", "secret"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
			continue
		}
		if name != "secret" && cmd.RunE == nil {
			t.Errorf("%s: RunE should not be nil", name)
		}
	}
}

func TestSyncExportRuns(t *testing.T) {
	cfgFile, dir := writeConfig(t)

	out, err := execute(t, "", "--config", cfgFile, "sync", "--debug")
	if err != nil {
		t.Fatalf("sync: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Pages updated: 1") || !strings.Contains(out, "Texts updated: 2") {
		t.Errorf("unexpected sync output:\n%s", out)
	}

	xmlPath := filepath.Join(dir, "strings.xml")
	if _, err := execute(t, "", "--config", cfgFile, "export", "sign up", "--format", "xml", "--out", xmlPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<string name="form_cta">Continue</string>`) {
		t.Errorf("unexpected xml:\n%s", data)
	}

	out, err = execute(t, "", "--config", cfgFile, "runs", "--json", "-n", "5")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, `"source_type": "json_file"`) {
		t.Errorf("unexpected runs output:\n%s", out)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	cfgFile, _ := writeConfig(t)
	if _, err := execute(t, "", "--config", cfgFile, "export", "Sign up", "--format", "csv", "--out", ""); err == nil {
		t.Error("expected error for csv format")
	}
}

func TestSync_FailureExitsNonZero(t *testing.T) {
	cfgFile, _ := writeConfig(t)
	out, err := execute(t, "", "--config", cfgFile, "sync", "--file", "/nonexistent/doc.json", "--json=false", "--debug=false")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "✗ Sync failed") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSecretSet(t *testing.T) {
	cfgFile, dir := writeConfig(t)
	if _, err := execute(t, "tok-123\n", "--config", cfgFile, "secret", "set", "FIGMA_ACCESS_TOKEN"); err != nil {
		t.Fatalf("secret set: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "secrets", "FIGMA_ACCESS_TOKEN"))
	if err != nil || string(data) != "tok-123" {
		t.Errorf("stored secret = %q, %v", data, err)
	}

	// The stored token is picked up by New.
	a, err := New(cfgFile)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if !a.figmaConfigured {
		t.Error("expected figma token from the secrets dir")
	}
}

func TestHandler_Health(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Database.URL = filepath.Join(t.TempDir(), "figma.db")
	a, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"database_connected":true`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body.String())
	}

	// No file key configured: sync is a bad request.
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("sync without file key = %d, want 400", rec.Code)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Database.URL = filepath.Join(t.TempDir(), "figma.db")
	a, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Serve(ctx); err != nil {
		t.Errorf("Serve: %v", err)
	}
}
