package dbclient

import (
	"os"
	"path/filepath"
	"strings"

	"figmatext/internal/domain"
)

const defaultSQLitePath = "data/figma_texts.db"

// buildSQLiteDSN opens the file in WAL mode with a busy timeout for
// concurrent access. URL may be a bare path or a sqlite:// URL.
func buildSQLiteDSN(conn *domain.DatabaseConnection) string {
	path := conn.URL
	if path == "" {
		path = conn.Host
	}
	path = strings.TrimPrefix(path, "sqlite:///")
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		path = defaultSQLitePath
	}
	if strings.Contains(path, "?") {
		return path
	}
	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0755)
	}
	return path + "?_journal_mode=WAL&_busy_timeout=5000"
}
