package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvStore_FileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_SECRET", "")
	t.Setenv("TEST_SECRET_FILE", path)

	got, err := GetString(NewEnvStore(), "TEST_SECRET")
	if err != nil || got != "from-file" {
		t.Errorf("got %q, %v", got, err)
	}

	t.Setenv("TEST_SECRET", "from-env")
	if got, _ := GetString(NewEnvStore(), "TEST_SECRET"); got != "from-env" {
		t.Errorf("env should win over file, got %q", got)
	}
}

func TestFileStore(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "secrets"))

	if v, err := fs.Get("MISSING"); err != nil || v != nil {
		t.Errorf("expected empty result for missing key, got %q, %v", v, err)
	}
	if err := fs.Set("HMAC_SECRET_KEY", []byte("k")); err != nil {
		t.Fatal(err)
	}
	if v, _ := fs.Get("HMAC_SECRET_KEY"); string(v) != "k" {
		t.Errorf("got %q", v)
	}
	if err := fs.Delete("HMAC_SECRET_KEY"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete("HMAC_SECRET_KEY"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if _, err := fs.Get("../etc/passwd"); err == nil {
		t.Error("expected path traversal to be rejected")
	}
}

func TestChain(t *testing.T) {
	dir := t.TempDir()
	files := NewFileStore(dir)
	files.Set("CHAIN_KEY", []byte("file"))
	t.Setenv("CHAIN_KEY", "")

	c := Chain{NewEnvStore(), files}
	if v, _ := GetString(c, "CHAIN_KEY"); v != "file" {
		t.Errorf("expected file fallback, got %q", v)
	}
	t.Setenv("CHAIN_KEY", "env")
	if v, _ := GetString(c, "CHAIN_KEY"); v != "env" {
		t.Errorf("expected env first, got %q", v)
	}
}
